package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slotbook/apperror"
	"slotbook/models"
	"slotbook/services/tasks"
)

type completerFunc func(ctx context.Context, id string) (*models.Booking, error)

func (f completerFunc) CompleteBooking(ctx context.Context, id string) (*models.Booking, error) {
	return f(ctx, id)
}

func completionTask(t *testing.T, id string) *asynq.Task {
	t.Helper()
	task, _, err := tasks.NewCompleteBookingTask(id, time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	return task
}

func TestHandleCompleteBookingTask(t *testing.T) {
	var gotID string
	handler := handleCompleteBookingTask(completerFunc(func(_ context.Context, id string) (*models.Booking, error) {
		gotID = id
		return &models.Booking{ID: id, Status: models.StatusCompleted}, nil
	}), zap.NewNop())

	err := handler(context.Background(), completionTask(t, "b1"))
	require.NoError(t, err)
	assert.Equal(t, "b1", gotID)
}

func TestHandleCompleteBookingTask_SkipsRetryForPermanentFailures(t *testing.T) {
	handler := handleCompleteBookingTask(completerFunc(func(context.Context, string) (*models.Booking, error) {
		return nil, apperror.NewNotFound("Booking not found")
	}), zap.NewNop())

	err := handler(context.Background(), completionTask(t, "b1"))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = handler(context.Background(), asynq.NewTask(tasks.TypeCompleteBooking, []byte("nope")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleCompleteBookingTask_RetriesTransientFailures(t *testing.T) {
	handler := handleCompleteBookingTask(completerFunc(func(context.Context, string) (*models.Booking, error) {
		return nil, errors.New("mongo unavailable")
	}), zap.NewNop())

	err := handler(context.Background(), completionTask(t, "b1"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}
