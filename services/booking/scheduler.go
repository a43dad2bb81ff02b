package booking

import (
	"context"
	"time"
)

// CompletionScheduler arranges for a confirmed booking to be marked completed once its
// slot has ended.
type CompletionScheduler interface {
	ScheduleCompletion(ctx context.Context, bookingID string, at time.Time) error
}

// NoopCompletionScheduler drops every request. Used when no task queue is configured.
type NoopCompletionScheduler struct{}

func (NoopCompletionScheduler) ScheduleCompletion(context.Context, string, time.Time) error {
	return nil
}
