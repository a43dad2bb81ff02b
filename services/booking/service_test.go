package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slotbook/apperror"
	"slotbook/models"
	"slotbook/services/payment"
)

type serviceFixture struct {
	*paymentFixture
	cache *mapCache
	svc   *DefaultBookingService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	pf := newPaymentFixture(t, testPaymentConfig())
	cache := newMapCache()
	svc := NewBookingService(pf.repo, pf.coord, cache, SlotConfig{
		SlotDuration:  testSlot,
		BusinessStart: testOpen,
		BusinessEnd:   testClose,
		MaxRangeDays:  testMaxRange,
	}, zap.NewNop())
	return &serviceFixture{paymentFixture: pf, cache: cache, svc: svc}
}

func aliceInput(slot time.Time) models.BookingInput {
	return models.BookingInput{
		SlotStart:     slot,
		CustomerName:  "  Alice Smith ",
		CustomerEmail: "Alice@Example.com",
	}
}

func TestCreateBooking(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, aliceInput(testSlotStart))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, "Alice Smith", b.CustomerName)
	assert.Equal(t, "alice@example.com", b.CustomerEmail)
	assert.Equal(t, testSlotStart, b.SlotStart)
	assert.Equal(t, 1, f.cache.invalidations)
}

func TestCreateBooking_ValidationFailsBeforeStore(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.CreateBooking(context.Background(), models.BookingInput{
		SlotStart:     testSlotStart.Add(7 * time.Minute),
		CustomerName:  "A",
		CustomerEmail: "bad",
	})
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Fields, 3)

	booked, err := f.repo.FindInRange(context.Background(), testSlotStart.Add(-time.Hour), testSlotStart.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, booked)
}

func TestCreateBooking_SlotConflictThenReactivate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateBooking(ctx, aliceInput(testSlotStart))
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, models.BookingInput{
		SlotStart:     testSlotStart,
		CustomerName:  "Bob",
		CustomerEmail: "bob@example.com",
	})
	assert.Equal(t, apperror.KindSlotConflict, apperror.KindOf(err))

	res, err := f.svc.CancelBooking(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, res.BookingStatus)

	second, err := f.svc.CreateBooking(ctx, models.BookingInput{
		SlotStart:     testSlotStart,
		CustomerName:  "Bob",
		CustomerEmail: "bob@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.StatusPending, second.Status)
	assert.Equal(t, "Bob", second.CustomerName)
}

func TestCancelBooking(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	t.Run("invalid id", func(t *testing.T) {
		_, err := f.svc.CancelBooking(ctx, "not-an-id")
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.svc.CancelBooking(ctx, models.NewBookingID())
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})

	t.Run("idempotent", func(t *testing.T) {
		b, err := f.svc.CreateBooking(ctx, aliceInput(testSlotStart))
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			res, err := f.svc.CancelBooking(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusCancelled, res.BookingStatus)
		}
	})
}

func TestCancelBooking_CompletedIsInvalid(t *testing.T) {
	f := newServiceFixture(t)
	b := f.withStatus(t, f.pendingBooking(t), models.StatusConfirmed, models.StatusCompleted)

	_, err := f.svc.CancelBooking(context.Background(), b.ID)
	assert.Equal(t, apperror.KindInvalidTransition, apperror.KindOf(err))
}

func TestListAvailableSlots_SubtractsActiveBookings(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	q := models.RangeQuery{StartDate: day, EndDate: day.Add(24*time.Hour - time.Minute)}

	all, err := f.svc.ListAvailableSlots(ctx, q)
	require.NoError(t, err)
	require.Len(t, all, 18)

	pending, err := f.svc.CreateBooking(ctx, aliceInput(day.Add(9*time.Hour)))
	require.NoError(t, err)
	cancelled, err := f.svc.CreateBooking(ctx, aliceInput(day.Add(10*time.Hour)))
	require.NoError(t, err)
	_, err = f.svc.CancelBooking(ctx, cancelled.ID)
	require.NoError(t, err)
	completed := f.withStatus(t, mustCreate(t, f, day.Add(11*time.Hour)), models.StatusConfirmed, models.StatusCompleted)

	got, err := f.svc.ListAvailableSlots(ctx, q)
	require.NoError(t, err)
	assert.Len(t, got, 16)
	for _, s := range got {
		assert.NotEqual(t, pending.SlotStart, s.Slot)
		assert.NotEqual(t, completed.SlotStart, s.Slot)
	}
	assert.Contains(t, got, models.AvailableSlot{Slot: day.Add(10 * time.Hour)})
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Slot.After(got[i-1].Slot))
	}
}

func TestListAvailableSlots_UsesCacheUntilInvalidated(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	q := models.RangeQuery{StartDate: testSlotStart, EndDate: testSlotStart.Add(2 * time.Hour)}

	first, err := f.svc.ListAvailableSlots(ctx, q)
	require.NoError(t, err)
	second, err := f.svc.ListAvailableSlots(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.cache.hits)

	_, err = f.svc.CreateBooking(ctx, aliceInput(testSlotStart))
	require.NoError(t, err)

	third, err := f.svc.ListAvailableSlots(ctx, q)
	require.NoError(t, err)
	assert.Len(t, third, len(first)-1)
	assert.Equal(t, 1, f.cache.hits)
}

func TestListAvailableSlots_BookingDuringComputeIsNotCached(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	q := models.RangeQuery{StartDate: testSlotStart, EndDate: testSlotStart.Add(2 * time.Hour)}

	hooked := &findHookRepo{BookingRepository: f.repo}
	svc := NewBookingService(hooked, f.coord, f.cache, f.svc.Slots, zap.NewNop())
	hooked.afterFind = func() {
		_, err := svc.CreateBooking(ctx, aliceInput(testSlotStart))
		require.NoError(t, err)
	}

	// Computed from a read taken before the booking landed.
	stale, err := svc.ListAvailableSlots(ctx, q)
	require.NoError(t, err)
	require.NotEmpty(t, stale)
	assert.Equal(t, testSlotStart, stale[0].Slot)

	fresh, err := svc.ListAvailableSlots(ctx, q)
	require.NoError(t, err)
	assert.Len(t, fresh, len(stale)-1)
	for _, slot := range fresh {
		assert.NotEqual(t, testSlotStart, slot.Slot)
	}
	assert.Equal(t, 0, f.cache.hits)
}

func TestListAvailableSlots_RangeValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListAvailableSlots(ctx, models.RangeQuery{StartDate: testSlotStart, EndDate: testSlotStart.Add(-time.Minute)})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.svc.ListAvailableSlots(ctx, models.RangeQuery{StartDate: testSlotStart, EndDate: testSlotStart.AddDate(0, 0, 40)})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestListBookedSlots_IncludesEveryStatus(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := mustCreate(t, f, testSlotStart)
	b := mustCreate(t, f, testSlotStart.Add(testSlot))
	_, err := f.svc.CancelBooking(ctx, b.ID)
	require.NoError(t, err)

	got, err := f.svc.ListBookedSlots(ctx, models.RangeQuery{StartDate: testSlotStart, EndDate: testSlotStart.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, models.StatusCancelled, got[1].Status)
}

func TestInitializePayment_AlreadyPaidAndPending(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	confirmed := f.withStatus(t, mustCreate(t, f, testSlotStart), models.StatusConfirmed)
	_, err := f.svc.InitializePayment(ctx, confirmed.ID)
	assert.Equal(t, apperror.KindAlreadyPaid, apperror.KindOf(err))

	pending := mustCreate(t, f, testSlotStart.Add(testSlot))
	f.gateway.On("CreateIntent", mock.Anything, mock.Anything).
		Return(&payment.Intent{ID: "pi_9", ClientSecret: "pi_9_secret"}, nil).Once()

	got, err := f.svc.InitializePayment(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_9_secret", got.ClientSecret)

	stored, err := f.svc.GetBooking(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_9", stored.PaymentIntentRef)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestInitializePayment_RetriesOnceWithSameKey(t *testing.T) {
	f := newServiceFixture(t)
	b := mustCreate(t, f, testSlotStart)

	var keys []string
	f.gateway.On("CreateIntent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			keys = append(keys, args.Get(1).(payment.IntentRequest).IdempotencyKey)
		}).
		Return(nil, apperror.NewGatewayUnavailable(assert.AnError)).Once()
	f.gateway.On("CreateIntent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			keys = append(keys, args.Get(1).(payment.IntentRequest).IdempotencyKey)
		}).
		Return(&payment.Intent{ID: "pi_1", ClientSecret: "s"}, nil).Once()

	_, err := f.svc.InitializePayment(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
}

func TestInitializePayment_SecondFailureSurfaces(t *testing.T) {
	f := newServiceFixture(t)
	b := mustCreate(t, f, testSlotStart)

	f.gateway.On("CreateIntent", mock.Anything, mock.Anything).
		Return(nil, apperror.NewGatewayUnavailable(assert.AnError)).Twice()

	_, err := f.svc.InitializePayment(context.Background(), b.ID)
	assert.Equal(t, apperror.KindGatewayUnavailable, apperror.KindOf(err))
}

func TestConfirmPayment_FullFlowThenComplete(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	b := mustCreate(t, f, testSlotStart)

	_, err := f.svc.ConfirmPayment(ctx, b.ID)
	assert.Equal(t, apperror.KindPaymentNotInitialized, apperror.KindOf(err))

	f.gateway.On("CreateIntent", mock.Anything, mock.Anything).
		Return(&payment.Intent{ID: "pi_1", ClientSecret: "s"}, nil).Once()
	_, err = f.svc.InitializePayment(ctx, b.ID)
	require.NoError(t, err)

	f.gateway.On("RetrieveIntent", mock.Anything, "pi_1").
		Return(&payment.Intent{ID: "pi_1", Status: payment.StatusSucceeded}, nil).Twice()
	f.scheduler.On("ScheduleCompletion", mock.Anything, b.ID, testSlotStart.Add(testSlot)).Return(nil).Once()

	res, err := f.svc.ConfirmPayment(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, res.BookingStatus)

	res, err = f.svc.ConfirmPayment(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, res.BookingStatus)

	_, err = f.svc.InitializePayment(ctx, b.ID)
	assert.Equal(t, apperror.KindAlreadyPaid, apperror.KindOf(err))

	done, err := f.svc.CompleteBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
}

func TestConfirmPayment_ReactivatedBookingNeedsNewPayment(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	b := f.withRef(t, mustCreate(t, f, testSlotStart), "pi_previous")
	_, err := f.svc.CancelBooking(ctx, b.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, aliceInput(testSlotStart))
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, b.ID)
	assert.Equal(t, apperror.KindPaymentNotInitialized, apperror.KindOf(err))
}

func TestCompleteBooking_SkipsNonConfirmed(t *testing.T) {
	f := newServiceFixture(t)
	b := mustCreate(t, f, testSlotStart)

	got, err := f.svc.CompleteBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestGetBooking_NotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GetBooking(context.Background(), models.NewBookingID())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestRetryOnce(t *testing.T) {
	ctx := context.Background()
	calls := 0
	err := retryOnce(ctx, zap.NewNop(), "test", func() error {
		calls++
		return apperror.NewConcurrencyConflict("b1")
	})
	assert.Equal(t, apperror.KindConcurrencyConflict, apperror.KindOf(err))
	assert.Equal(t, 2, calls)

	calls = 0
	err = retryOnce(ctx, zap.NewNop(), "test", func() error {
		calls++
		return apperror.NewSlotConflict()
	})
	assert.Equal(t, apperror.KindSlotConflict, apperror.KindOf(err))
	assert.Equal(t, 1, calls)

	done, cancel := context.WithCancel(ctx)
	cancel()
	calls = 0
	err = retryOnce(done, zap.NewNop(), "test", func() error {
		calls++
		return apperror.NewGatewayUnavailable(context.Canceled)
	})
	assert.Equal(t, apperror.KindGatewayUnavailable, apperror.KindOf(err))
	assert.Equal(t, 1, calls)
}

func TestInitializePayment_CancelledRequestIsNotRetried(t *testing.T) {
	f := newServiceFixture(t)
	b := mustCreate(t, f, testSlotStart)
	ctx, cancel := context.WithCancel(context.Background())

	f.gateway.On("CreateIntent", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, apperror.NewGatewayUnavailable(context.Canceled)).Once()

	_, err := f.svc.InitializePayment(ctx, b.ID)
	assert.ErrorIs(t, err, context.Canceled)
	f.gateway.AssertNumberOfCalls(t, "CreateIntent", 1)
}

func mustCreate(t *testing.T, f *serviceFixture, slot time.Time) *models.Booking {
	t.Helper()
	b, err := f.repo.CreateOrReactivate(context.Background(), slot, models.BookingFields{
		CustomerName:  "Alice",
		CustomerEmail: "alice@example.com",
	})
	require.NoError(t, err)
	return b
}
