package repository

import (
	"context"
	"fmt"
	"time"

	"voyago/pkg/config"
	"voyago/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const seatLockCollectionName = "Seat_locks"

// SeatLockRepository provides advisory locks over a travel option's seat pool.
type SeatLockRepository interface {
	Acquire(ctx context.Context, lock *model.SeatLock) error
	Release(ctx context.Context, lockID string) error
	EnsureIndexes(ctx context.Context) error
}

type mongoSeatLockRepository struct {
	collection *mongo.Collection
}

func NewSeatLockRepository(cfg *config.Config) SeatLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSeatLockRepository{
		collection: db.Collection(seatLockCollectionName),
	}
}

// Acquire inserts the lock document; a duplicate key error means another
// request holds the lock.
func (r *mongoSeatLockRepository) Acquire(ctx context.Context, lock *model.SeatLock) error {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	return err
}

func (r *mongoSeatLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}

// EnsureIndexes sets up the TTL index reaping locks leaked by crashed
// requests once expires_at passes.
func (r *mongoSeatLockRepository) EnsureIndexes(ctx context.Context) error {
	var expireAfter int32
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: &options.IndexOptions{ExpireAfterSeconds: &expireAfter},
	})
	if err != nil {
		return fmt.Errorf("failed to create seat lock TTL index: %w", err)
	}
	return nil
}
