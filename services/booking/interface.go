package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	bookingRepo "slotbook/database/repository/booking"
	"slotbook/models"
)

// BookingService exposes the booking use-cases. Expected outcomes are returned as
// *apperror.Error values carrying a stable Kind.
type BookingService interface {
	CreateBooking(ctx context.Context, input models.BookingInput) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*models.BookingStatusResponse, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListAvailableSlots(ctx context.Context, q models.RangeQuery) ([]models.AvailableSlot, error)
	ListBookedSlots(ctx context.Context, q models.RangeQuery) ([]models.Booking, error)
	InitializePayment(ctx context.Context, bookingID string) (*models.PaymentInit, error)
	ConfirmPayment(ctx context.Context, bookingID string) (*models.BookingStatusResponse, error)
	// CompleteBooking marks a confirmed booking completed; other states are left as is.
	CompleteBooking(ctx context.Context, bookingID string) (*models.Booking, error)
}

// SlotConfig describes the bookable calendar.
type SlotConfig struct {
	SlotDuration  time.Duration
	BusinessStart time.Duration // offset from UTC midnight
	BusinessEnd   time.Duration
	MaxRangeDays  int
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo     bookingRepo.BookingRepository
	Payments PaymentCoordinator
	Cache    AvailabilityCache
	Slots    SlotConfig
	Logger   *zap.Logger
}

func NewBookingService(
	repo bookingRepo.BookingRepository,
	payments PaymentCoordinator,
	cache AvailabilityCache,
	slots SlotConfig,
	logger *zap.Logger,
) *DefaultBookingService {
	if cache == nil {
		cache = NoopAvailabilityCache{}
	}
	return &DefaultBookingService{
		Repo:     repo,
		Payments: payments,
		Cache:    cache,
		Slots:    slots,
		Logger:   logger,
	}
}
