package bookingRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"slotbook/apperror"
	"slotbook/models"
)

// memoryBookingRepo is a process-local BookingRepository. A single mutex makes every
// operation atomic, mirroring the unique index and version checks of the Mongo store.
type memoryBookingRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.Booking
	bySlot map[int64]string // slotStart unix millis -> booking id
	slot   time.Duration
	now    func() time.Time
}

// NewMemoryBookingRepo constructs an in-memory BookingRepository.
func NewMemoryBookingRepo(slot time.Duration) BookingRepository {
	return &memoryBookingRepo{
		byID:   make(map[string]*models.Booking),
		bySlot: make(map[int64]string),
		slot:   slot,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *memoryBookingRepo) CreateOrReactivate(ctx context.Context, slotStart time.Time, fields models.BookingFields) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slotStart = slotStart.UTC()
	if err := validateSlotStart(slotStart, r.slot); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if id, ok := r.bySlot[slotStart.UnixMilli()]; ok {
		existing := r.byID[id]
		if existing.Status != models.StatusCancelled {
			return nil, apperror.NewSlotConflict()
		}
		existing.Status = models.StatusPending
		existing.CustomerName = fields.CustomerName
		existing.CustomerEmail = fields.CustomerEmail
		existing.PaymentIntentRef = ""
		existing.UpdatedAt = now
		existing.Version++
		out := *existing
		return &out, nil
	}

	b := &models.Booking{
		ID:            models.NewBookingID(),
		SlotStart:     slotStart,
		CustomerName:  fields.CustomerName,
		CustomerEmail: fields.CustomerEmail,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	r.byID[b.ID] = b
	r.bySlot[slotStart.UnixMilli()] = b.ID
	out := *b
	return &out, nil
}

func (r *memoryBookingRepo) FindOne(ctx context.Context, filter BookingFilter) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if filter.isEmpty() {
		return nil, errEmptyFilter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if filter.ID != "" {
		b, ok := r.byID[filter.ID]
		if !ok || !matches(b, filter) {
			return nil, nil
		}
		out := *b
		return &out, nil
	}
	for _, b := range r.byID {
		if matches(b, filter) {
			out := *b
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memoryBookingRepo) FindInRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bookings := []models.Booking{}
	for _, b := range r.byID {
		if b.SlotStart.Before(start) || b.SlotStart.After(end) {
			continue
		}
		bookings = append(bookings, *b)
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].SlotStart.Before(bookings[j].SlotStart)
	})
	return bookings, nil
}

func (r *memoryBookingRepo) UpdateByID(ctx context.Context, id string, patch BookingPatch) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	next, changed, err := applyPatch(*current, patch, r.now())
	if err != nil {
		return nil, err
	}
	if changed {
		*current = next
	}
	out := *current
	return &out, nil
}

func (r *memoryBookingRepo) EnsureIndexes(context.Context) error {
	return nil
}

func matches(b *models.Booking, f BookingFilter) bool {
	if f.ID != "" && b.ID != f.ID {
		return false
	}
	if !f.SlotStart.IsZero() && !b.SlotStart.Equal(f.SlotStart) {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.PaymentIntentRef != "" && b.PaymentIntentRef != f.PaymentIntentRef {
		return false
	}
	return true
}
