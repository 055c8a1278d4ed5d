package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "ebooking/internal/bookings/errors"
	"ebooking/pkg/config"
	"ebooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LockCollectionName = "Booking_locks"

// BookingLockRepository stores advisory locks shared by all service instances.
type BookingLockRepository interface {
	// Acquire takes lockID for owner. A lock past its expiry is taken over;
	// a live lock held by someone else yields ErrLockHeld.
	Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error
	// Release deletes the lock only if owner still holds it.
	Release(ctx context.Context, lockID, owner string) error
}

type mongoBookingLockRepository struct {
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoBookingLockRepository) Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error {
	now := time.Now().UTC()
	lock := &model.BookingLock{
		ID:        lockID,
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to create booking lock: %w", err)
	}

	// The TTL monitor only runs once a minute, so an abandoned lock can
	// linger past its expiry.
	filter := bson.M{"_id": lockID, "expires_at": bson.M{"$lt": now}}
	update := bson.M{"$set": bson.M{
		"owner":      owner,
		"expires_at": lock.ExpiresAt,
		"created_at": now,
	}}
	err = r.collection.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate()).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to take over booking lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, lockID, owner string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}
