// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"time"

	"slotbook/models"
)

// BookingRepository is the only writer of booking records. Every mutation is a single
// atomic conditional write at the persistence layer.
type BookingRepository interface {
	// CreateOrReactivate reserves slotStart for a new customer, either by reviving a
	// cancelled booking for that slot in place or by inserting a new one.
	CreateOrReactivate(ctx context.Context, slotStart time.Time, fields models.BookingFields) (*models.Booking, error)
	// FindOne returns nil, nil when nothing matches.
	FindOne(ctx context.Context, filter BookingFilter) (*models.Booking, error)
	// FindInRange returns bookings of any status with start <= slotStart <= end, ascending.
	FindInRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	// UpdateByID returns nil, nil when the booking does not exist.
	UpdateByID(ctx context.Context, id string, patch BookingPatch) (*models.Booking, error)
	EnsureIndexes(ctx context.Context) error
}

// BookingFilter matches on every non-zero field.
type BookingFilter struct {
	ID               string
	SlotStart        time.Time
	Status           models.BookingStatus
	PaymentIntentRef string
}

func (f BookingFilter) isEmpty() bool {
	return f.ID == "" && f.SlotStart.IsZero() && f.Status == "" && f.PaymentIntentRef == ""
}

// BookingPatch describes a partial update. Nil fields are left untouched.
type BookingPatch struct {
	Status           *models.BookingStatus
	PaymentIntentRef *string
	ExpectedVersion  *int64 // reject the write when the stored version differs
}

// StatusPatch is shorthand for a status-only patch.
func StatusPatch(status models.BookingStatus) BookingPatch {
	return BookingPatch{Status: &status}
}

// PaymentRefPatch records a payment intent against the booking version the caller read.
func PaymentRefPatch(ref string, expectedVersion int64) BookingPatch {
	return BookingPatch{PaymentIntentRef: &ref, ExpectedVersion: &expectedVersion}
}
