package repository

import (
	bookingRepo "slotbook/database/repository/booking"
)

// Re-export the BookingRepository interface, its query types and constructors.
type BookingRepository = bookingRepo.BookingRepository

type BookingFilter = bookingRepo.BookingFilter

type BookingPatch = bookingRepo.BookingPatch

var (
	NewMongoBookingRepo  = bookingRepo.NewMongoBookingRepo
	NewMemoryBookingRepo = bookingRepo.NewMemoryBookingRepo
	StatusPatch          = bookingRepo.StatusPatch
	PaymentRefPatch      = bookingRepo.PaymentRefPatch
)
