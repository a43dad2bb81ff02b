package bookingRepo

import (
	"errors"
	"time"

	"slotbook/apperror"
	"slotbook/models"
)

var errEmptyFilter = errors.New("booking filter must set at least one field")

// applyPatch computes the next state of current under patch. changed is false when the
// patch is a no-op (same status re-applied, same payment ref).
func applyPatch(current models.Booking, patch BookingPatch, now time.Time) (next models.Booking, changed bool, err error) {
	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != current.Version {
		return current, false, apperror.NewConcurrencyConflict(current.ID)
	}

	next = current
	if patch.Status != nil {
		statusChanged, err := current.Status.Transition(*patch.Status)
		if err != nil {
			return current, false, err
		}
		if statusChanged {
			next.Status = *patch.Status
			changed = true
		}
	}
	if patch.PaymentIntentRef != nil && *patch.PaymentIntentRef != current.PaymentIntentRef {
		next.PaymentIntentRef = *patch.PaymentIntentRef
		changed = true
	}

	if !changed {
		return current, false, nil
	}
	next.UpdatedAt = now
	next.Version = current.Version + 1
	return next, true, nil
}

func validateSlotStart(slotStart time.Time, slot time.Duration) error {
	if !models.IsAligned(slotStart, slot) {
		return apperror.NewValidation([]apperror.FieldError{{
			Field:   "slotStart",
			Message: `"slotStart" must be aligned to ` + slot.String() + ` slots`,
		}})
	}
	return nil
}
