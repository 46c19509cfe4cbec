package repository

import (
	"context"

	"fitadmin/membership-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// DailyPlanRepository defines the interface for interacting with daily plan data.
type DailyPlanRepository interface {
	Create(ctx context.Context, plan *domain.DailyPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DailyPlan, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.DailyPlan, error)
	Update(ctx context.Context, plan *domain.DailyPlan) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}

// ProgramRepository defines the interface for interacting with program data.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Program, error)
	Update(ctx context.Context, program *domain.Program) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PaymentRepository defines the interface for interacting with payment data.
// Create returns ErrDuplicate when the transactionRef is already taken.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Payment, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Payment, error)
	List(ctx context.Context) ([]domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}

// MetricRepository defines the interface for interacting with metric data.
// An empty key means "all keys" for GetByUserID.
type MetricRepository interface {
	Create(ctx context.Context, metric *domain.Metric) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Metric, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, key domain.MetricKey) ([]domain.Metric, error)
	Update(ctx context.Context, metric *domain.Metric) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}

// ActivityLogRepository defines the interface for the append-only audit trail.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.ActivityLog, error)
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}
