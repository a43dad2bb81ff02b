package bookingRepo

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const bookingsCollection = "bookings"

// mongoBookingRepo implements BookingRepository on a single MongoDB collection.
type mongoBookingRepo struct {
	coll *mongo.Collection
	slot time.Duration
	now  func() time.Time
}

// NewMongoBookingRepo constructs a BookingRepository backed by db's bookings collection.
// slot is the slot duration every stored slotStart must be aligned to.
func NewMongoBookingRepo(db *mongo.Database, slot time.Duration) BookingRepository {
	return &mongoBookingRepo{
		coll: db.Collection(bookingsCollection),
		slot: slot,
		now:  func() time.Time { return time.Now().UTC() },
	}
}
