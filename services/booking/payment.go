package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slotbook/apperror"
	bookingRepo "slotbook/database/repository/booking"
	"slotbook/models"
	"slotbook/services/payment"
)

// --- Interfaces ---
type PaymentCoordinator interface {
	// InitializePayment creates a payment intent for b and records its reference.
	// idempotencyKey is forwarded to the gateway; empty generates a fresh key.
	InitializePayment(ctx context.Context, b *models.Booking, idempotencyKey string) (*models.PaymentInit, error)
	// ConfirmPayment moves b to confirmed once the gateway reports the intent paid.
	ConfirmPayment(ctx context.Context, b *models.Booking) (*models.Booking, error)
}

// PaymentConfig is the fixed charge applied to every booking.
type PaymentConfig struct {
	AmountMinor  int64
	Currency     string
	MethodTypes  []string
	Timeout      time.Duration
	SlotDuration time.Duration
}

// --- PaymentCoordinator Implementation ---
type DefaultPaymentCoordinator struct {
	repo      bookingRepo.BookingRepository
	gateway   payment.Gateway
	scheduler CompletionScheduler
	cfg       PaymentConfig
	logger    *zap.Logger
}

func NewPaymentCoordinator(
	repo bookingRepo.BookingRepository,
	gateway payment.Gateway,
	scheduler CompletionScheduler,
	cfg PaymentConfig,
	logger *zap.Logger,
) *DefaultPaymentCoordinator {
	if scheduler == nil {
		scheduler = NoopCompletionScheduler{}
	}
	return &DefaultPaymentCoordinator{
		repo:      repo,
		gateway:   gateway,
		scheduler: scheduler,
		cfg:       cfg,
		logger:    logger,
	}
}

func (c *DefaultPaymentCoordinator) InitializePayment(ctx context.Context, b *models.Booking, idempotencyKey string) (*models.PaymentInit, error) {
	switch b.Status {
	case models.StatusConfirmed:
		return nil, apperror.New(apperror.KindAlreadyPaid, "Booking already paid")
	case models.StatusCancelled, models.StatusCompleted:
		return nil, apperror.New(apperror.KindInvalidTransition, "Booking is "+b.Status.String()+" and cannot be paid")
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	intent, err := c.createIntent(ctx, b, idempotencyKey)
	if err != nil {
		return nil, err
	}

	updated, err := c.repo.UpdateByID(ctx, b.ID, bookingRepo.PaymentRefPatch(intent.ID, b.Version))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NewNotFound("Booking not found")
	}

	c.logger.Info("Payment initialized",
		zap.String("bookingId", b.ID),
		zap.String("intentId", intent.ID))

	return &models.PaymentInit{
		Amount:       c.cfg.AmountMinor,
		Currency:     c.cfg.Currency,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (c *DefaultPaymentCoordinator) ConfirmPayment(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	if b.PaymentIntentRef == "" {
		return nil, apperror.New(apperror.KindPaymentNotInitialized, "Booking payment not processed")
	}

	intent, err := c.retrieveIntent(ctx, b.PaymentIntentRef)
	if err != nil {
		return nil, err
	}
	if !intent.Succeeded() {
		c.logger.Info("Payment not yet succeeded",
			zap.String("bookingId", b.ID),
			zap.String("intentId", intent.ID),
			zap.String("intentStatus", intent.Status))
		return nil, apperror.New(apperror.KindPaymentNotSucceeded, "Payment not succeeded")
	}

	expected := b.Version
	status := models.StatusConfirmed
	updated, err := c.repo.UpdateByID(ctx, b.ID, bookingRepo.BookingPatch{
		Status:          &status,
		ExpectedVersion: &expected,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NewNotFound("Booking not found")
	}

	if b.Status != models.StatusConfirmed && updated.Status == models.StatusConfirmed {
		c.logger.Info("Booking confirmed", zap.String("bookingId", updated.ID))
		fireAt := models.SlotEnd(updated.SlotStart, c.cfg.SlotDuration)
		if err := c.scheduler.ScheduleCompletion(ctx, updated.ID, fireAt); err != nil {
			c.logger.Error("failed to schedule booking completion",
				zap.String("bookingId", updated.ID),
				zap.Time("fireAt", fireAt),
				zap.Error(err))
		}
	}
	return updated, nil
}

func (c *DefaultPaymentCoordinator) createIntent(parent context.Context, b *models.Booking, key string) (*payment.Intent, error) {
	ctx, cancel := c.withTimeout(parent)
	defer cancel()

	intent, err := c.gateway.CreateIntent(ctx, payment.IntentRequest{
		Amount:         c.cfg.AmountMinor,
		Currency:       c.cfg.Currency,
		MethodTypes:    c.cfg.MethodTypes,
		IdempotencyKey: key,
		Metadata: map[string]string{
			"bookingId": b.ID,
			"slotStart": b.SlotStart.UTC().Format(time.RFC3339),
		},
	})
	return intent, gatewayError(parent, ctx, err)
}

func (c *DefaultPaymentCoordinator) retrieveIntent(parent context.Context, id string) (*payment.Intent, error) {
	ctx, cancel := c.withTimeout(parent)
	defer cancel()

	intent, err := c.gateway.RetrieveIntent(ctx, id)
	return intent, gatewayError(parent, ctx, err)
}

func (c *DefaultPaymentCoordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// gatewayError reports the gateway deadline running out as GatewayUnavailable regardless
// of how the gateway surfaced it. A cancelled caller gets its own context error instead.
func gatewayError(parent, ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if parentErr := parent.Err(); parentErr != nil {
		return fmt.Errorf("payment request abandoned: %w", parentErr)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !apperror.Is(err, apperror.KindGatewayUnavailable) {
		return apperror.NewGatewayUnavailable(err)
	}
	return err
}
