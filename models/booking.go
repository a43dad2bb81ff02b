package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking is a single customer's reservation of one slot.
type Booking struct {
	ID               string        `bson:"_id" json:"id"`                                                // ObjectID hex assigned by the store
	SlotStart        time.Time     `bson:"slotStart" json:"slotStart"`                                   // UTC, aligned to the slot duration
	CustomerName     string        `bson:"customerName" json:"customerName"`                             // 2-120 characters
	CustomerEmail    string        `bson:"customerEmail" json:"customerEmail"`                           // lower-cased
	Status           BookingStatus `bson:"status" json:"status"`                                         // pending, confirmed, cancelled, completed
	PaymentIntentRef string        `bson:"paymentIntentRef,omitempty" json:"paymentIntentRef,omitempty"` // Stripe PaymentIntent ID
	CreatedAt        time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt" json:"updatedAt"`
	Version          int64         `bson:"version" json:"version"` // optimistic concurrency token
}

// BookingFields are the customer-supplied attributes written on create or reactivation.
type BookingFields struct {
	CustomerName  string
	CustomerEmail string
}

// BookingInput is the client payload for creating a booking.
type BookingInput struct {
	SlotStart     time.Time `json:"slotStart"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	Status        *string   `json:"status,omitempty"` // optional; only "pending" is accepted
}

// Normalize trims text fields, lower-cases the email and moves the slot to UTC.
func (in BookingInput) Normalize() BookingInput {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = NormalizeEmail(in.CustomerEmail)
	in.SlotStart = in.SlotStart.UTC()
	return in
}

// Fields returns the persisted customer attributes of the input.
func (in BookingInput) Fields() BookingFields {
	return BookingFields{
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
	}
}

// NormalizeEmail trims and lower-cases an email address for consistent lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidBookingID reports whether id has the ObjectID hex shape the store assigns.
func IsValidBookingID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// NewBookingID returns a fresh identifier for a booking document.
func NewBookingID() string {
	return primitive.NewObjectID().Hex()
}

// BookingStatusResponse is returned by cancel and confirm.
type BookingStatusResponse struct {
	BookingStatus BookingStatus `json:"bookingStatus"`
}

// RangeQuery is an inclusive [StartDate, EndDate] window.
type RangeQuery struct {
	StartDate time.Time
	EndDate   time.Time
}
