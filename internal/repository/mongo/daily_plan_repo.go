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

const dailyPlanCollectionName = "daily_plans"

// mongoDailyPlanRepository implements repository.DailyPlanRepository
type mongoDailyPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoDailyPlanRepository creates a new DailyPlan repository backed by MongoDB.
func NewMongoDailyPlanRepository(db *mongo.Database) repository.DailyPlanRepository {
	return &mongoDailyPlanRepository{
		collection: db.Collection(dailyPlanCollectionName),
	}
}

// Create inserts a new daily plan into the database.
func (r *mongoDailyPlanRepository) Create(ctx context.Context, plan *domain.DailyPlan) (primitive.ObjectID, error) {
	if plan.Title == "" || plan.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("plan title and user ID are required")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a daily plan by its ID.
func (r *mongoDailyPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DailyPlan, error) {
	var plan domain.DailyPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByUserID retrieves all daily plans belonging to a user, newest date first.
func (r *mongoDailyPlanRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.DailyPlan, error) {
	var plans []domain.DailyPlan
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

// Update modifies an existing daily plan. The owning user is never changed
// here; ownership transfer is not a supported operation.
func (r *mongoDailyPlanRepository) Update(ctx context.Context, plan *domain.DailyPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}
	if plan.Title == "" {
		return errors.New("plan title cannot be empty")
	}

	filter := bson.M{"_id": plan.ID}
	update := bson.M{
		"$set": bson.M{
			"title":     plan.Title,
			"details":   plan.Details,
			"date":      plan.Date,
			"updatedAt": time.Now().UTC(),
			// Note: We specifically DO NOT set userId here
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

// Delete removes a daily plan by ID.
func (r *mongoDailyPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByUserID removes every daily plan belonging to a user.
// Used by the user-delete cascade; deleting zero documents is fine.
func (r *mongoDailyPlanRepository) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// EnsureDailyPlanIndexes creates necessary indexes for the daily_plans collection.
func EnsureDailyPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Plans are almost always listed per user, by date.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Non-fatal; queries fall back to collection scans.
	}
}
