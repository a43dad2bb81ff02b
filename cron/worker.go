package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"slotbook/apperror"
	"slotbook/models"
	"slotbook/services/tasks"
)

// BookingCompleter is the slice of the booking service the worker needs.
type BookingCompleter interface {
	CompleteBooking(ctx context.Context, bookingID string) (*models.Booking, error)
}

// InitCompletionWorker runs the booking completion worker in the background. The
// returned server must be shut down by the caller.
func InitCompletionWorker(ctx context.Context, redisOpts asynq.RedisClientOpt, svc BookingCompleter, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeCompleteBooking, handleCompleteBookingTask(svc, logger))

	go monitorRedisConnection(ctx, redisOpts, logger)

	// Start async worker with retry logic
	go func() {
		logger.Info("[CompletionWorker] starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("[CompletionWorker] failed to start worker",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("[CompletionWorker] max retry attempts reached, bookings will not auto-complete")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()

	return srv
}

func handleCompleteBookingTask(svc BookingCompleter, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseCompleteBookingPayload(task)
		if err != nil {
			logger.Error("[CompletionHandler] invalid payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		b, err := svc.CompleteBooking(ctx, p.BookingID)
		switch apperror.KindOf(err) {
		case apperror.KindNotFound, apperror.KindValidation, apperror.KindInvalidTransition:
			logger.Warn("[CompletionHandler] booking cannot be completed",
				zap.String("bookingId", p.BookingID),
				zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err != nil {
			logger.Error("[CompletionHandler] failed to complete booking",
				zap.String("bookingId", p.BookingID),
				zap.Error(err))
			return err
		}

		logger.Info("[CompletionHandler] booking processed",
			zap.String("bookingId", b.ID),
			zap.String("status", b.Status.String()),
			zap.String("slotEnd", p.SlotEnd))
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, opts asynq.RedisClientOpt, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("[CompletionWorker] Redis connection lost", zap.Error(err))
			}
		}
	}
}
