package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "ebooking/internal/payments/errors"
	"ebooking/pkg/config"
	mongotx "ebooking/pkg/db/mongo"
	"ebooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Payments"

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindByID(ctx context.Context, id string) (*model.Payment, error)
	FindBySessionID(ctx context.Context, sessionID string) (*model.Payment, error)
	FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Payment, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Payment, error)
	Count(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id string, status model.PaymentStatus) error
	ExistsByUserAndStatus(ctx context.Context, userID string, status model.PaymentStatus) (bool, error)
	// ExpireStale marks pending payments whose session expired before now.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

func (r *mongoPaymentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	p.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", paymentserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoPaymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*model.Payment, error) {
	return r.findOne(ctx, bson.M{"session_id": sessionID})
}

func (r *mongoPaymentRepository) findOne(ctx context.Context, filter bson.M) (*model.Payment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var p model.Payment
	if err := r.collection.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, paymentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return &p, nil
}

func (r *mongoPaymentRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Payment, error) {
	return r.find(ctx, bson.M{"user_id": userID}, limit, offset)
}

func (r *mongoPaymentRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, bson.M{"user_id": userID})
}

func (r *mongoPaymentRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Payment, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoPaymentRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *mongoPaymentRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Payment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []*model.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}

func (r *mongoPaymentRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

func (r *mongoPaymentRepository) UpdateStatus(ctx context.Context, id string, status model.PaymentStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", paymentserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if result.MatchedCount == 0 {
		return paymentserrors.ErrNotFound
	}
	return nil
}

func (r *mongoPaymentRepository) ExistsByUserAndStatus(ctx context.Context, userID string, status model.PaymentStatus) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "status": status}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check payments: %w", err)
	}
	return count > 0, nil
}

func (r *mongoPaymentRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"status":     model.PaymentPending,
		"expires_at": bson.M{"$lt": now},
	}
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"status": model.PaymentExpired}})
	if err != nil {
		return 0, fmt.Errorf("failed to expire payments: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoPaymentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
