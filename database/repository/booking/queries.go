package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"slotbook/models"
)

func (r *mongoBookingRepo) FindOne(ctx context.Context, filter BookingFilter) (*models.Booking, error) {
	if filter.isEmpty() {
		return nil, errEmptyFilter
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := r.coll.FindOne(ctx, toBSON(filter)).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepo) FindInRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"slotStart": bson.M{
			"$gte": start.UTC(),
			"$lte": end.UTC(),
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "slotStart", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching bookings in range: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func toBSON(f BookingFilter) bson.M {
	m := bson.M{}
	if f.ID != "" {
		m["_id"] = f.ID
	}
	if !f.SlotStart.IsZero() {
		m["slotStart"] = f.SlotStart.UTC()
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if f.PaymentIntentRef != "" {
		m["paymentIntentRef"] = f.PaymentIntentRef
	}
	return m
}
