package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeCompleteBooking = "booking:complete"

// CompleteBookingPayload identifies the booking to complete once its slot ends.
type CompleteBookingPayload struct {
	BookingID string `json:"bookingId"`
	SlotEnd   string `json:"slotEnd"` // RFC3339
}

func NewCompleteBookingTask(bookingID string, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	payload := CompleteBookingPayload{
		BookingID: bookingID,
		SlotEnd:   fireAt.UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeCompleteBooking, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(completionTaskID(bookingID, fireAt)),
		asynq.MaxRetry(5),
	}

	return task, opts, nil
}

// ParseCompleteBookingPayload decodes a task built by NewCompleteBookingTask.
func ParseCompleteBookingPayload(task *asynq.Task) (CompleteBookingPayload, error) {
	var p CompleteBookingPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", TypeCompleteBooking, err)
	}
	if p.BookingID == "" {
		return p, fmt.Errorf("invalid %s payload: missing bookingId", TypeCompleteBooking)
	}
	return p, nil
}

// AsynqCompletionScheduler enqueues completion tasks on an asynq queue.
type AsynqCompletionScheduler struct {
	client *asynq.Client
}

func NewAsynqCompletionScheduler(client *asynq.Client) *AsynqCompletionScheduler {
	return &AsynqCompletionScheduler{client: client}
}

func (s *AsynqCompletionScheduler) ScheduleCompletion(ctx context.Context, bookingID string, at time.Time) error {
	if s.client == nil {
		return errors.New("asynq client is nil, completion task cannot be enqueued")
	}
	task, opts, err := NewCompleteBookingTask(bookingID, at)
	if err != nil {
		return err
	}
	_, err = s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// completionTaskID dedupes repeated confirmations of the same booking slot.
func completionTaskID(bookingID string, fireAt time.Time) string {
	return fmt.Sprintf("%s:%s:%d", TypeCompleteBooking, bookingID, fireAt.UnixMilli())
}
