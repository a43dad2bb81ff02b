// File: database/repository/booking/crud.go
package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"slotbook/apperror"
	"slotbook/models"
)

func (r *mongoBookingRepo) CreateOrReactivate(ctx context.Context, slotStart time.Time, fields models.BookingFields) (*models.Booking, error) {
	slotStart = slotStart.UTC()
	if err := validateSlotStart(slotStart, r.slot); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	booking, err := r.reactivate(ctx, slotStart, fields)
	if err != nil || booking != nil {
		return booking, err
	}

	now := r.now()
	doc := models.Booking{
		ID:            models.NewBookingID(),
		SlotStart:     slotStart,
		CustomerName:  fields.CustomerName,
		CustomerEmail: fields.CustomerEmail,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	_, err = r.coll.InsertOne(ctx, doc)
	if err == nil {
		return &doc, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}

	// A concurrent writer holds the slot; it may have been cancelled in the meantime.
	booking, err = r.reactivate(ctx, slotStart, fields)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperror.NewSlotConflict()
	}
	return booking, nil
}

// reactivate atomically revives the cancelled booking for slotStart, if any.
func (r *mongoBookingRepo) reactivate(ctx context.Context, slotStart time.Time, fields models.BookingFields) (*models.Booking, error) {
	filter := bson.M{
		"slotStart": slotStart,
		"status":    models.StatusCancelled,
	}
	update := bson.M{
		"$set": bson.M{
			"status":        models.StatusPending,
			"customerName":  fields.CustomerName,
			"customerEmail": fields.CustomerEmail,
			"updatedAt":     r.now(),
		},
		"$unset": bson.M{"paymentIntentRef": ""},
		"$inc":   bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reactivate booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepo) UpdateByID(ctx context.Context, id string, patch BookingPatch) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var current models.Booking
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking with id %s: %w", id, err)
	}

	next, changed, err := applyPatch(current, patch, r.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return &current, nil
	}

	set := bson.M{
		"status":    next.Status,
		"updatedAt": next.UpdatedAt,
	}
	if next.PaymentIntentRef != "" {
		set["paymentIntentRef"] = next.PaymentIntentRef
	}
	filter := bson.M{"_id": id, "version": current.Version}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NewConcurrencyConflict(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", id, err)
	}
	return &updated, nil
}
