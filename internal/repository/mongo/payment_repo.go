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

const paymentCollectionName = "payments"

// mongoPaymentRepository implements repository.PaymentRepository
type mongoPaymentRepository struct {
	collection *mongo.Collection
}

// NewMongoPaymentRepository creates a new Payment repository backed by MongoDB.
func NewMongoPaymentRepository(db *mongo.Database) repository.PaymentRepository {
	return &mongoPaymentRepository{
		collection: db.Collection(paymentCollectionName),
	}
}

// Create inserts a new payment. The unique transactionRef index makes a
// second insert with the same reference fail with ErrDuplicate.
func (r *mongoPaymentRepository) Create(ctx context.Context, payment *domain.Payment) (primitive.ObjectID, error) {
	if payment.UserID == primitive.NilObjectID || payment.TransactionRef == "" {
		return primitive.NilObjectID, errors.New("payment user ID and transaction reference are required")
	}

	payment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}

	result, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a payment by its ID.
func (r *mongoPaymentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// GetByUserID retrieves all payments made by a user, in creation order.
func (r *mongoPaymentRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Payment, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

// List retrieves all payments in creation order.
func (r *mongoPaymentRepository) List(ctx context.Context) ([]domain.Payment, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoPaymentRepository) find(ctx context.Context, filter bson.M) ([]domain.Payment, error) {
	var payments []domain.Payment
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

// Update modifies an existing payment. The owning user and the transaction
// reference are immutable once recorded.
func (r *mongoPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	if payment.ID == primitive.NilObjectID {
		return errors.New("payment ID is required for update")
	}

	filter := bson.M{"_id": payment.ID}
	update := bson.M{
		"$set": bson.M{
			"programId": payment.ProgramID,
			"amount":    payment.Amount,
			"method":    payment.Method,
			"paidAt":    payment.PaidAt,
			"updatedAt": time.Now().UTC(),
			// Note: We specifically DO NOT set userId or transactionRef here
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

// Delete removes a payment by ID.
func (r *mongoPaymentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByUserID removes every payment belonging to a user (cascade path).
func (r *mongoPaymentRepository) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// EnsurePaymentIndexes creates necessary indexes for the payments collection.
func EnsurePaymentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Global uniqueness of the transaction reference.
			Keys:    bson.D{{Key: "transactionRef", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "programId", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Non-fatal, but the uniqueness invariant depends on the first
		// index existing; startup logs surface the failure.
	}
}
