package service

import (
	"context"
	"errors"
	"time"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrPlanNotFound     = errors.New("daily plan not found")
	ErrPlanAccessDenied = errors.New("daily plan does not belong to this user")
)

// --- Service Interface ---
//
// Owner-scoped methods (GetOwned/UpdateOwned/DeleteOwned) enforce that the
// plan belongs to ownerID and answer ErrPlanNotFound for foreign records,
// so a caller can never learn whether another user's id exists. The
// unscoped Delete is for administrative use only.
type PlanService interface {
	Create(ctx context.Context, userID primitive.ObjectID, title string, details domain.PlanDetails, date time.Time) (*domain.DailyPlan, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.DailyPlan, error)
	GetOwned(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.DailyPlan, error)
	UpdateOwned(ctx context.Context, ownerID, planID primitive.ObjectID, title string, details domain.PlanDetails, date time.Time) (*domain.DailyPlan, error)
	DeleteOwned(ctx context.Context, ownerID, planID primitive.ObjectID) error
	Delete(ctx context.Context, planID primitive.ObjectID) error
}

// --- Service Implementation ---

type planService struct {
	planRepo repository.DailyPlanRepository
	userRepo repository.UserRepository
	activity ActivityService
}

// NewPlanService creates a new instance of planService.
func NewPlanService(planRepo repository.DailyPlanRepository, userRepo repository.UserRepository, activity ActivityService) PlanService {
	return &planService{
		planRepo: planRepo,
		userRepo: userRepo,
		activity: activity,
	}
}

// Create stores a new daily plan after validating the details shape.
func (s *planService) Create(ctx context.Context, userID primitive.ObjectID, title string, details domain.PlanDetails, date time.Time) (*domain.DailyPlan, error) {
	if title == "" || userID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	// The owning user must exist; plans are never orphaned at creation.
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if date.IsZero() {
		date = time.Now().UTC()
	}

	plan := &domain.DailyPlan{
		UserID:  userID,
		Title:   title,
		Details: details,
		Date:    date,
	}

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID

	s.activity.Record(ctx, userID, "plan.create", bson.M{"planId": planID.Hex(), "title": title})
	return s.planRepo.GetByID(ctx, planID)
}

// ListForUser retrieves all plans for a user, newest date first.
func (s *planService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.DailyPlan, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	return s.planRepo.GetByUserID(ctx, userID)
}

// GetOwned retrieves a single plan, verifying ownership.
func (s *planService) GetOwned(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.DailyPlan, error) {
	return s.getOwnedPlan(ctx, ownerID, planID)
}

// UpdateOwned modifies a plan after verifying ownership and details shape.
func (s *planService) UpdateOwned(ctx context.Context, ownerID, planID primitive.ObjectID, title string, details domain.PlanDetails, date time.Time) (*domain.DailyPlan, error) {
	if title == "" {
		return nil, ErrValidationFailed
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	plan, err := s.getOwnedPlan(ctx, ownerID, planID)
	if err != nil {
		return nil, err
	}

	plan.Title = title
	plan.Details = details
	if !date.IsZero() {
		plan.Date = date
	}

	if err := s.planRepo.Update(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	s.activity.Record(ctx, plan.UserID, "plan.update", bson.M{"planId": planID.Hex()})
	return plan, nil
}

// DeleteOwned removes a plan after verifying ownership.
func (s *planService) DeleteOwned(ctx context.Context, ownerID, planID primitive.ObjectID) error {
	plan, err := s.getOwnedPlan(ctx, ownerID, planID)
	if err != nil {
		return err
	}

	if err := s.planRepo.Delete(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	s.activity.Record(ctx, plan.UserID, "plan.delete", bson.M{"planId": planID.Hex()})
	return nil
}

// Delete removes a plan by id without an ownership claim (admin path).
func (s *planService) Delete(ctx context.Context, planID primitive.ObjectID) error {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	if err := s.planRepo.Delete(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	s.activity.Record(ctx, plan.UserID, "plan.delete", bson.M{"planId": planID.Hex()})
	return nil
}

// getOwnedPlan fetches a plan and verifies it belongs to ownerID.
// A foreign plan reports ErrPlanNotFound, deliberately indistinguishable
// from a nonexistent one.
func (s *planService) getOwnedPlan(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.DailyPlan, error) {
	if ownerID == primitive.NilObjectID || planID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	if plan.UserID != ownerID {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}
