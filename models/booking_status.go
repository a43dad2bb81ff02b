package models

import (
	"fmt"

	"slotbook/apperror"
)

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// AllStatuses lists every status in a stable order.
var AllStatuses = []BookingStatus{StatusCancelled, StatusConfirmed, StatusCompleted, StatusPending}

// validTransitions defines the booking state machine.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// IsActive reports whether a booking in this status occupies its slot.
func (s BookingStatus) IsActive() bool {
	return s != StatusCancelled
}

func (s BookingStatus) String() string {
	return string(s)
}

// Transition checks a move from s to target. It returns changed=false with a nil error
// when re-applying a non-pending status (cancel twice, confirm twice).
func (s BookingStatus) Transition(target BookingStatus) (changed bool, err error) {
	if !target.IsValid() {
		return false, apperror.NewValidation([]apperror.FieldError{statusFieldError()})
	}
	if s == target && s != StatusPending {
		return false, nil
	}
	if !s.CanTransitionTo(target) {
		return false, apperror.New(apperror.KindInvalidTransition,
			fmt.Sprintf("Booking cannot move from %s to %s", s, target))
	}
	return true, nil
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

func statusFieldError() apperror.FieldError {
	return apperror.FieldError{
		Field:   "status",
		Message: fmt.Sprintf(`"status" must be one of: %s, %s, %s, %s`, AllStatuses[0], AllStatuses[1], AllStatuses[2], AllStatuses[3]),
	}
}
