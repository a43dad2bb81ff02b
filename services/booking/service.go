package booking

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slotbook/apperror"
	bookingRepo "slotbook/database/repository/booking"
	"slotbook/models"
)

func (s *DefaultBookingService) CreateBooking(ctx context.Context, input models.BookingInput) (*models.Booking, error) {
	input = input.Normalize()
	if err := input.Validate(s.Slots.SlotDuration); err != nil {
		return nil, err
	}

	b, err := s.Repo.CreateOrReactivate(ctx, input.SlotStart, input.Fields())
	if err != nil {
		if apperror.Is(err, apperror.KindSlotConflict) {
			s.Logger.Info("Slot already booked", zap.Time("slotStart", input.SlotStart))
		}
		return nil, err
	}

	s.Cache.Invalidate(ctx)
	s.Logger.Info("Booking created",
		zap.String("bookingId", b.ID),
		zap.Time("slotStart", b.SlotStart),
		zap.Int64("version", b.Version))
	return b, nil
}

func (s *DefaultBookingService) CancelBooking(ctx context.Context, bookingID string) (*models.BookingStatusResponse, error) {
	if err := models.ValidateBookingID(bookingID); err != nil {
		return nil, err
	}

	var updated *models.Booking
	err := retryOnce(ctx, s.Logger, "cancel", func() error {
		b, err := s.Repo.UpdateByID(ctx, bookingID, bookingRepo.StatusPatch(models.StatusCancelled))
		if err != nil {
			return err
		}
		if b == nil {
			return apperror.NewNotFound("Booking not found")
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx)
	s.Logger.Info("Booking cancelled", zap.String("bookingId", bookingID))
	return &models.BookingStatusResponse{BookingStatus: updated.Status}, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if err := models.ValidateBookingID(bookingID); err != nil {
		return nil, err
	}
	return s.load(ctx, bookingID)
}

func (s *DefaultBookingService) ListAvailableSlots(ctx context.Context, q models.RangeQuery) ([]models.AvailableSlot, error) {
	q = models.RangeQuery{StartDate: q.StartDate.UTC(), EndDate: q.EndDate.UTC()}
	if err := q.Validate(s.Slots.MaxRangeDays); err != nil {
		return nil, err
	}
	cached, gen, ok := s.Cache.Get(ctx, q)
	if ok {
		return cached, nil
	}

	booked, err := s.Repo.FindInRange(ctx, q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]struct{}, len(booked))
	for _, b := range booked {
		if b.Status.IsActive() {
			taken[b.SlotStart.UnixMilli()] = struct{}{}
		}
	}

	available := []models.AvailableSlot{}
	for slot := range GenerateSlots(q.StartDate, q.EndDate, s.Slots.SlotDuration, s.Slots.BusinessStart, s.Slots.BusinessEnd) {
		if _, ok := taken[slot.UnixMilli()]; ok {
			continue
		}
		available = append(available, models.AvailableSlot{Slot: slot})
	}

	s.Cache.Set(ctx, q, gen, available)
	return available, nil
}

func (s *DefaultBookingService) ListBookedSlots(ctx context.Context, q models.RangeQuery) ([]models.Booking, error) {
	q = models.RangeQuery{StartDate: q.StartDate.UTC(), EndDate: q.EndDate.UTC()}
	if err := q.Validate(s.Slots.MaxRangeDays); err != nil {
		return nil, err
	}
	return s.Repo.FindInRange(ctx, q.StartDate, q.EndDate)
}

func (s *DefaultBookingService) InitializePayment(ctx context.Context, bookingID string) (*models.PaymentInit, error) {
	if err := models.ValidateBookingID(bookingID); err != nil {
		return nil, err
	}

	// One key per request so a retried gateway call cannot create a second intent.
	key := uuid.New().String()
	var paymentInit *models.PaymentInit
	err := retryOnce(ctx, s.Logger, "initialize payment", func() error {
		b, err := s.load(ctx, bookingID)
		if err != nil {
			return err
		}
		paymentInit, err = s.Payments.InitializePayment(ctx, b, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return paymentInit, nil
}

func (s *DefaultBookingService) ConfirmPayment(ctx context.Context, bookingID string) (*models.BookingStatusResponse, error) {
	if err := models.ValidateBookingID(bookingID); err != nil {
		return nil, err
	}

	var confirmed *models.Booking
	err := retryOnce(ctx, s.Logger, "confirm payment", func() error {
		b, err := s.load(ctx, bookingID)
		if err != nil {
			return err
		}
		confirmed, err = s.Payments.ConfirmPayment(ctx, b)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx)
	return &models.BookingStatusResponse{BookingStatus: confirmed.Status}, nil
}

func (s *DefaultBookingService) CompleteBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if err := models.ValidateBookingID(bookingID); err != nil {
		return nil, err
	}

	var result *models.Booking
	err := retryOnce(ctx, s.Logger, "complete", func() error {
		b, err := s.load(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != models.StatusConfirmed {
			s.Logger.Info("Skipping completion",
				zap.String("bookingId", bookingID),
				zap.String("status", b.Status.String()))
			result = b
			return nil
		}

		expected := b.Version
		status := models.StatusCompleted
		updated, err := s.Repo.UpdateByID(ctx, bookingID, bookingRepo.BookingPatch{
			Status:          &status,
			ExpectedVersion: &expected,
		})
		if err != nil {
			return err
		}
		if updated == nil {
			return apperror.NewNotFound("Booking not found")
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == models.StatusCompleted {
		s.Cache.Invalidate(ctx)
		s.Logger.Info("Booking completed", zap.String("bookingId", bookingID))
	}
	return result, nil
}

func (s *DefaultBookingService) load(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Repo.FindOne(ctx, bookingRepo.BookingFilter{ID: bookingID})
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperror.NewNotFound("Booking not found")
	}
	return b, nil
}

// retryOnce runs op again when it fails with a concurrency conflict or an unavailable
// gateway, unless ctx is already done. op must reload any state it depends on.
func retryOnce(ctx context.Context, logger *zap.Logger, name string, op func() error) error {
	err := op()
	if !isRetryable(err) || ctx.Err() != nil {
		return err
	}
	logger.Warn("retrying booking operation",
		zap.String("op", name),
		zap.String("kind", string(apperror.KindOf(err))),
		zap.Error(err))
	return op()
}

func isRetryable(err error) bool {
	return apperror.Is(err, apperror.KindConcurrencyConflict) || apperror.Is(err, apperror.KindGatewayUnavailable)
}
