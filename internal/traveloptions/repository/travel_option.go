package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	traveloptionerrors "voyago/internal/traveloptions/errors"
	"voyago/pkg/config"
	"voyago/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "TravelOptions"
)

// Filter narrows travel option listings. Nil/zero fields are ignored.
type Filter struct {
	Mode          string
	Origin        string
	Destination   string
	DepartureFrom *time.Time
	DepartureTo   *time.Time
	MinPriceCents *int64
	MaxPriceCents *int64
	OnlyAvailable bool
}

type TravelOptionRepository interface {
	Create(ctx context.Context, option *model.TravelOption) error
	FindByID(ctx context.Context, id string) (*model.TravelOption, error)
	FindAll(ctx context.Context, filter Filter, limit int, offset int64) ([]*model.TravelOption, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	ReserveSeats(ctx context.Context, id string, seats int) error
	ReleaseSeats(ctx context.Context, id string, seats int) (clamped bool, err error)
	EnsureIndexes(ctx context.Context) error
}

type mongoTravelOptionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTravelOptionRepository(cfg *config.Config) TravelOptionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTravelOptionRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction; a SessionContext cannot be wrapped without breaking
// transaction semantics.
func (r *mongoTravelOptionRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoTravelOptionRepository) Create(ctx context.Context, option *model.TravelOption) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	option.CreatedAt = now
	option.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, option)
	if err != nil {
		return fmt.Errorf("failed to create travel option: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		option.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTravelOptionRepository) FindByID(ctx context.Context, id string) (*model.TravelOption, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", traveloptionerrors.ErrInvalidID, id)
	}

	var option model.TravelOption
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&option)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, traveloptionerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find travel option: %w", err)
	}

	return &option, nil
}

func (r *mongoTravelOptionRepository) FindAll(ctx context.Context, filter Filter, limit int, offset int64) ([]*model.TravelOption, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "departure_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find travel options: %w", err)
	}
	defer cursor.Close(ctx)

	var travelOptions []*model.TravelOption
	if err = cursor.All(ctx, &travelOptions); err != nil {
		return nil, fmt.Errorf("failed to decode travel options: %w", err)
	}

	return travelOptions, nil
}

func (r *mongoTravelOptionRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count travel options: %w", err)
	}

	return count, nil
}

// ReserveSeats is the compare-and-swap on the seat counter: the filter admits
// the document only while the pool still covers the request, so two racing
// reservations can never jointly overdraw it.
func (r *mongoTravelOptionRepository) ReserveSeats(ctx context.Context, id string, seats int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", traveloptionerrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":             objectID,
		"available_seats": bson.M{"$gte": seats},
	}
	update := bson.M{
		"$inc": bson.M{"available_seats": -seats},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}

	if result.MatchedCount == 0 {
		exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to reserve seats: %w", err)
		}
		if exists == 0 {
			return traveloptionerrors.ErrNotFound
		}
		return traveloptionerrors.ErrInsufficientSeats
	}

	return nil
}

// ReleaseSeats returns seats to the pool, clamped at total_seats. The clamp
// is applied atomically through a pipeline update; the returned flag reports
// whether clamping occurred so callers can log the inconsistency.
func (r *mongoTravelOptionRepository) ReleaseSeats(ctx context.Context, id string, seats int) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", traveloptionerrors.ErrInvalidID, id)
	}

	update := bson.A{
		bson.M{"$set": bson.M{
			"available_seats": bson.M{"$min": bson.A{
				"$total_seats",
				bson.M{"$add": bson.A{"$available_seats", seats}},
			}},
			"updated_at": "$$NOW",
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before model.TravelOption
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, traveloptionerrors.ErrNotFound
		}
		return false, fmt.Errorf("failed to release seats: %w", err)
	}

	return before.AvailableSeats+seats > before.TotalSeats, nil
}

func (r *mongoTravelOptionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "mode", Value: 1},
				{Key: "origin", Value: 1},
				{Key: "destination", Value: 1},
				{Key: "departure_time", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "departure_time", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create travel option indexes: %w", err)
	}
	return nil
}

func buildFilter(f Filter) bson.M {
	filter := bson.M{}

	if f.Mode != "" {
		filter["mode"] = f.Mode
	}
	if f.Origin != "" {
		filter["origin"] = containsPattern(f.Origin)
	}
	if f.Destination != "" {
		filter["destination"] = containsPattern(f.Destination)
	}

	if f.DepartureFrom != nil || f.DepartureTo != nil {
		departure := bson.M{}
		if f.DepartureFrom != nil {
			departure["$gte"] = *f.DepartureFrom
		}
		if f.DepartureTo != nil {
			departure["$lte"] = *f.DepartureTo
		}
		filter["departure_time"] = departure
	}

	if f.MinPriceCents != nil || f.MaxPriceCents != nil {
		price := bson.M{}
		if f.MinPriceCents != nil {
			price["$gte"] = *f.MinPriceCents
		}
		if f.MaxPriceCents != nil {
			price["$lte"] = *f.MaxPriceCents
		}
		filter["price_cents"] = price
	}

	if f.OnlyAvailable {
		filter["available_seats"] = bson.M{"$gt": 0}
	}

	return filter
}

// containsPattern builds a case-insensitive substring match. User input is
// quoted so it cannot smuggle regex metacharacters into the query.
func containsPattern(value string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(value), Options: "i"}
}
