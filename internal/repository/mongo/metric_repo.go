package mongo

import (
	"context"
	"errors"
	"time"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const metricCollectionName = "metrics"

// mongoMetricRepository implements repository.MetricRepository
type mongoMetricRepository struct {
	collection *mongo.Collection
}

// NewMongoMetricRepository creates a new Metric repository backed by MongoDB.
func NewMongoMetricRepository(db *mongo.Database) repository.MetricRepository {
	return &mongoMetricRepository{
		collection: db.Collection(metricCollectionName),
	}
}

// Create inserts a new metric data point.
func (r *mongoMetricRepository) Create(ctx context.Context, metric *domain.Metric) (primitive.ObjectID, error) {
	if metric.UserID == primitive.NilObjectID || metric.Key == "" {
		return primitive.NilObjectID, errors.New("metric user ID and key are required")
	}

	metric.ID = primitive.NewObjectID()
	metric.CreatedAt = time.Now().UTC()
	if metric.RecordedAt.IsZero() {
		metric.RecordedAt = metric.CreatedAt
	}

	result, err := r.collection.InsertOne(ctx, metric)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a metric by its ID.
func (r *mongoMetricRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Metric, error) {
	var metric domain.Metric
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&metric)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &metric, nil
}

// GetByUserID retrieves a user's metrics, newest recording first.
// An empty key returns metrics of every key.
func (r *mongoMetricRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, key domain.MetricKey) ([]domain.Metric, error) {
	var metrics []domain.Metric
	filter := bson.M{"userId": userID}
	if key != "" {
		filter["key"] = key
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &metrics); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return metrics, nil
}

// Update modifies an existing metric. Owner and key stay fixed; correcting
// a wrongly keyed entry means deleting and re-creating it.
func (r *mongoMetricRepository) Update(ctx context.Context, metric *domain.Metric) error {
	if metric.ID == primitive.NilObjectID {
		return errors.New("metric ID is required for update")
	}

	filter := bson.M{"_id": metric.ID}
	update := bson.M{
		"$set": bson.M{
			"value":      metric.Value,
			"unit":       metric.Unit,
			"notes":      metric.Notes,
			"recordedAt": metric.RecordedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a metric by ID. Deleting an already-deleted metric simply
// reports ErrNotFound again.
func (r *mongoMetricRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByUserID removes every metric belonging to a user (cascade path).
func (r *mongoMetricRepository) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// EnsureMetricIndexes creates necessary indexes for the metrics collection.
func EnsureMetricIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Covers both the per-user list and the key-filtered variant.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "key", Value: 1}, {Key: "recordedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Non-fatal.
	}
}
