package booking

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	bookingRepo "slotbook/database/repository/booking"
	"slotbook/models"
	"slotbook/services/payment"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) RetrieveIntent(ctx context.Context, id string) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) ScheduleCompletion(ctx context.Context, bookingID string, at time.Time) error {
	args := m.Called(ctx, bookingID, at)
	return args.Error(0)
}

// mapCache is an in-process AvailabilityCache with the same generation semantics as the
// Redis implementation.
type mapCache struct {
	mu            sync.Mutex
	gen           int64
	entries       map[string][]models.AvailableSlot
	hits          int
	invalidations int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]models.AvailableSlot)}
}

func (c *mapCache) Get(_ context.Context, q models.RangeQuery) ([]models.AvailableSlot, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slots, ok := c.entries[availabilityKey(c.gen, q)]
	if ok {
		c.hits++
	}
	return slots, c.gen, ok
}

// findHookRepo runs afterFind once, right after the first FindInRange returns.
type findHookRepo struct {
	bookingRepo.BookingRepository
	afterFind func()
}

func (r *findHookRepo) FindInRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	out, err := r.BookingRepository.FindInRange(ctx, start, end)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return out, err
}

func (c *mapCache) Set(_ context.Context, q models.RangeQuery, gen int64, slots []models.AvailableSlot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[availabilityKey(gen, q)] = slots
}

func (c *mapCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.invalidations++
}
