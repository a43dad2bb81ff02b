package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the stable, machine-checkable category of an application error.
type Kind string

const (
	KindValidation            Kind = "VALIDATION"
	KindSlotConflict          Kind = "SLOT_CONFLICT"
	KindNotFound              Kind = "NOT_FOUND"
	KindAlreadyPaid           Kind = "ALREADY_PAID"
	KindPaymentNotInitialized Kind = "PAYMENT_NOT_INITIALIZED"
	KindPaymentNotSucceeded   Kind = "PAYMENT_NOT_SUCCEEDED"
	KindConcurrencyConflict   Kind = "CONCURRENCY_CONFLICT"
	KindGatewayUnavailable    Kind = "GATEWAY_UNAVAILABLE"
	KindInvalidTransition     Kind = "INVALID_TRANSITION"
	KindInternal              Kind = "INTERNAL"

	// Transport-level kinds, produced by middleware only.
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindRateLimited  Kind = "RATE_LIMITED"
)

// FieldError describes a single failing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an expected business outcome or a classified failure. Message is safe to
// show to clients; Err is kept for logs only.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error of the given kind that keeps cause for logging.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// NewValidation returns a validation error listing every failing field.
func NewValidation(fields []FieldError) *Error {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Message)
	}
	return &Error{
		Kind:    KindValidation,
		Message: strings.Join(msgs, "; "),
		Fields:  fields,
	}
}

func NewNotFound(message string) *Error {
	return New(KindNotFound, message)
}

func NewSlotConflict() *Error {
	return New(KindSlotConflict, "Slot already booked")
}

func NewConcurrencyConflict(id string) *Error {
	return New(KindConcurrencyConflict, fmt.Sprintf("booking %s was modified concurrently", id))
}

func NewGatewayUnavailable(cause error) *Error {
	return Wrap(KindGatewayUnavailable, "Payment provider unavailable", cause)
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
