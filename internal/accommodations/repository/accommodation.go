package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	accommodationserrors "ebooking/internal/accommodations/errors"
	"ebooking/pkg/config"
	"ebooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Accommodations"

type AccommodationRepository interface {
	Create(ctx context.Context, acc *model.Accommodation) error
	FindByID(ctx context.Context, id string) (*model.Accommodation, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Accommodation, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, acc *model.Accommodation) error
	IncrementReservationSeq(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type mongoAccommodationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAccommodationRepository(cfg *config.Config) AccommodationRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoAccommodationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// SessionContext is passed through so reads made during a booking
// transaction see the transaction snapshot.
func (r *mongoAccommodationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", accommodationserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoAccommodationRepository) Create(ctx context.Context, acc *model.Accommodation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	acc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, acc)
	if err != nil {
		return fmt.Errorf("failed to create accommodation: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		acc.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAccommodationRepository) FindByID(ctx context.Context, id string) (*model.Accommodation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var acc model.Accommodation
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&acc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, accommodationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find accommodation: %w", err)
	}
	return &acc, nil
}

func (r *mongoAccommodationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Accommodation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find accommodations: %w", err)
	}
	defer cursor.Close(ctx)

	accommodations := []*model.Accommodation{}
	if err := cursor.All(ctx, &accommodations); err != nil {
		return nil, fmt.Errorf("failed to decode accommodations: %w", err)
	}
	return accommodations, nil
}

func (r *mongoAccommodationRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count accommodations: %w", err)
	}
	return count, nil
}

func (r *mongoAccommodationRepository) Update(ctx context.Context, id string, acc *model.Accommodation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"type":         acc.Type,
		"location":     acc.Location,
		"size":         acc.Size,
		"amenities":    acc.Amenities,
		"daily_rate":   acc.DailyRate,
		"availability": acc.Availability,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update accommodation: %w", err)
	}
	if result.MatchedCount == 0 {
		return accommodationserrors.ErrNotFound
	}
	return nil
}

func (r *mongoAccommodationRepository) IncrementReservationSeq(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"reservation_seq": 1}})
	if err != nil {
		return fmt.Errorf("failed to record reservation: %w", err)
	}
	if result.MatchedCount == 0 {
		return accommodationserrors.ErrNotFound
	}
	return nil
}

func (r *mongoAccommodationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete accommodation: %w", err)
	}
	if result.DeletedCount == 0 {
		return accommodationserrors.ErrNotFound
	}
	return nil
}
