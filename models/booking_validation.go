package models

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"slotbook/apperror"
)

const (
	MinCustomerNameLength = 2
	MaxCustomerNameLength = 120
	MaxEmailLength        = 254
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks a normalized create payload and reports every failing field.
func (in BookingInput) Validate(slot time.Duration) error {
	var fields []apperror.FieldError

	fields = append(fields, validateSlotStart(in.SlotStart, slot)...)
	fields = append(fields, validateCustomer(in.CustomerName, in.CustomerEmail)...)

	if in.Status != nil {
		status := BookingStatus(*in.Status)
		switch {
		case !status.IsValid():
			fields = append(fields, statusFieldError())
		case status != StatusPending:
			fields = append(fields, apperror.FieldError{
				Field:   "status",
				Message: `"status" must be pending when creating a booking`,
			})
		}
	}

	if len(fields) > 0 {
		return apperror.NewValidation(fields)
	}
	return nil
}

// Validate checks the invariants of a stored booking.
func (b *Booking) Validate(slot time.Duration) error {
	var fields []apperror.FieldError

	if b.ID != "" && !IsValidBookingID(b.ID) {
		fields = append(fields, apperror.FieldError{Field: "id", Message: `"id" must be a valid identifier`})
	}
	fields = append(fields, validateSlotStart(b.SlotStart, slot)...)
	fields = append(fields, validateCustomer(b.CustomerName, b.CustomerEmail)...)
	if !b.Status.IsValid() {
		fields = append(fields, statusFieldError())
	}

	if len(fields) > 0 {
		return apperror.NewValidation(fields)
	}
	return nil
}

// ValidateBookingID rejects ids that could never have been assigned by the store.
func ValidateBookingID(id string) error {
	if !IsValidBookingID(id) {
		return apperror.NewValidation([]apperror.FieldError{{
			Field:   "bookingId",
			Message: `"bookingId" must be a valid identifier`,
		}})
	}
	return nil
}

// Validate checks ordering and span of the range.
func (q RangeQuery) Validate(maxDays int) error {
	var fields []apperror.FieldError

	if q.StartDate.IsZero() {
		fields = append(fields, apperror.FieldError{Field: "startDate", Message: `"startDate" is required`})
	}
	if q.EndDate.IsZero() {
		fields = append(fields, apperror.FieldError{Field: "endDate", Message: `"endDate" is required`})
	}
	if len(fields) == 0 {
		if q.StartDate.After(q.EndDate) {
			fields = append(fields, apperror.FieldError{
				Field:   "endDate",
				Message: `"endDate" must be after or equal to "startDate"`,
			})
		} else if maxDays > 0 && q.EndDate.Sub(q.StartDate) > time.Duration(maxDays)*24*time.Hour {
			fields = append(fields, apperror.FieldError{
				Field:   "endDate",
				Message: fmt.Sprintf(`date range must not exceed %d days`, maxDays),
			})
		}
	}

	if len(fields) > 0 {
		return apperror.NewValidation(fields)
	}
	return nil
}

func validateSlotStart(t time.Time, slot time.Duration) []apperror.FieldError {
	if t.IsZero() {
		return []apperror.FieldError{{Field: "slotStart", Message: `"slotStart" is required`}}
	}
	if !IsAligned(t, slot) {
		return []apperror.FieldError{{
			Field:   "slotStart",
			Message: fmt.Sprintf(`"slotStart" must be aligned to %s slots`, slot),
		}}
	}
	return nil
}

func validateCustomer(name, email string) []apperror.FieldError {
	var fields []apperror.FieldError

	nameLen := utf8.RuneCountInString(name)
	switch {
	case nameLen == 0:
		fields = append(fields, apperror.FieldError{Field: "customerName", Message: `"customerName" is required`})
	case nameLen < MinCustomerNameLength || nameLen > MaxCustomerNameLength:
		fields = append(fields, apperror.FieldError{
			Field:   "customerName",
			Message: fmt.Sprintf(`"customerName" length must be between %d and %d characters`, MinCustomerNameLength, MaxCustomerNameLength),
		})
	}

	switch {
	case email == "":
		fields = append(fields, apperror.FieldError{Field: "customerEmail", Message: `"customerEmail" is required`})
	case len(email) > MaxEmailLength:
		fields = append(fields, apperror.FieldError{
			Field:   "customerEmail",
			Message: fmt.Sprintf(`"customerEmail" must be at most %d characters`, MaxEmailLength),
		})
	case !emailPattern.MatchString(email):
		fields = append(fields, apperror.FieldError{Field: "customerEmail", Message: `"customerEmail" must be a valid email`})
	}

	return fields
}
