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

const activityLogCollectionName = "activity_logs"

// mongoActivityLogRepository implements repository.ActivityLogRepository.
// The collection is append-only; there is no update path.
type mongoActivityLogRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityLogRepository creates a new ActivityLog repository backed by MongoDB.
func NewMongoActivityLogRepository(db *mongo.Database) repository.ActivityLogRepository {
	return &mongoActivityLogRepository{
		collection: db.Collection(activityLogCollectionName),
	}
}

// Create appends a new audit entry.
func (r *mongoActivityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) (primitive.ObjectID, error) {
	if entry.UserID == primitive.NilObjectID || entry.Action == "" {
		return primitive.NilObjectID, errors.New("activity log user ID and action are required")
	}

	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByUserID retrieves a user's audit trail, newest entries first.
func (r *mongoActivityLogRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.ActivityLog, error) {
	var entries []domain.ActivityLog
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteByUserID removes a user's audit trail (cascade path only).
func (r *mongoActivityLogRepository) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// EnsureActivityLogIndexes creates necessary indexes for the activity_logs collection.
func EnsureActivityLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Non-fatal.
	}
}
