package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "ebooking/internal/bookings/errors"
	"ebooking/pkg/config"
	mongotx "ebooking/pkg/db/mongo"
	"ebooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

// DueMode selects which bookings an expiration sweep picks up.
type DueMode int

const (
	// DueCatchup matches every active booking that ended at or before the
	// sweep hour, so missed runs are recovered.
	DueCatchup DueMode = iota
	// DueExact matches only bookings ending exactly at the sweep hour.
	DueExact
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByUserAndID(ctx context.Context, userID, id string) (*model.Booking, error)
	FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	FindActiveByAccommodation(ctx context.Context, accommodationID string, from, to time.Time) ([]*model.Booking, error)
	CountActiveByAccommodation(ctx context.Context, accommodationID string) (int64, error)
	FindDue(ctx context.Context, at time.Time, mode DueMode) ([]*model.Booking, error)
	// TransitionStatus moves a booking to status only while its current
	// status is one of from. A booking in any other status yields
	// ErrStatusChanged.
	TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) error
	BatchUpdateStatus(ctx context.Context, ids []string, status model.BookingStatus) (int64, error)
	UpdateWindow(ctx context.Context, id string, checkIn, checkOut time.Time) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	CountSearch(ctx context.Context, filter model.BookingFilter) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

// withTimeout leaves a SessionContext untouched: wrapping it would detach the
// call from its transaction.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func activeStatuses() bson.M {
	return bson.M{"$in": model.ActiveBookingStatuses}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoBookingRepository) FindByUserAndID(ctx context.Context, userID, id string) (*model.Booking, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid, "user_id": userID})
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "check_in", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

func (r *mongoBookingRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, bson.M{"user_id": userID})
}

// FindActiveByAccommodation returns active bookings whose window intersects
// [from, to). Both overlap rules only ever match bookings in that range.
func (r *mongoBookingRepository) FindActiveByAccommodation(ctx context.Context, accommodationID string, from, to time.Time) ([]*model.Booking, error) {
	filter := bson.M{
		"accommodation_id": accommodationID,
		"status":           activeStatuses(),
		"check_in":         bson.M{"$lt": to},
		"check_out":        bson.M{"$gt": from},
	}
	opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoBookingRepository) CountActiveByAccommodation(ctx context.Context, accommodationID string) (int64, error) {
	return r.count(ctx, bson.M{"accommodation_id": accommodationID, "status": activeStatuses()})
}

func (r *mongoBookingRepository) FindDue(ctx context.Context, at time.Time, mode DueMode) ([]*model.Booking, error) {
	checkOut := bson.M{"$lte": at}
	if mode == DueExact {
		checkOut = bson.M{"$eq": at}
	}
	filter := bson.M{
		"check_out": checkOut,
		"status":    activeStatuses(),
	}
	opts := options.Find().SetSort(bson.D{{Key: "accommodation_id", Value: 1}, {Key: "check_out", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoBookingRepository) TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check booking: %w", err)
	}
	if exists == 0 {
		return bookingserrors.ErrNotFound
	}
	return fmt.Errorf("%w: %s", bookingserrors.ErrStatusChanged, id)
}

func (r *mongoBookingRepository) BatchUpdateStatus(ctx context.Context, ids []string, status model.BookingStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := objectID(id)
		if err != nil {
			return 0, err
		}
		oids = append(oids, oid)
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}
	result, err := r.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": oids}}, update)
	if err != nil {
		return 0, fmt.Errorf("failed to update bookings: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoBookingRepository) UpdateWindow(ctx context.Context, id string, checkIn, checkOut time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, oid, bson.M{"check_in": checkIn.UTC(), "check_out": checkOut.UTC()})
}

func (r *mongoBookingRepository) updateOne(ctx context.Context, oid primitive.ObjectID, set bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "check_in", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, buildSearchFilter(filter), opts)
}

func (r *mongoBookingRepository) CountSearch(ctx context.Context, filter model.BookingFilter) (int64, error) {
	return r.count(ctx, buildSearchFilter(filter))
}

func buildSearchFilter(f model.BookingFilter) bson.M {
	filter := bson.M{}
	if len(f.UserIDs) > 0 {
		filter["user_id"] = bson.M{"$in": f.UserIDs}
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	return filter
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
