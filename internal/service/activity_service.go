package service

import (
	"context"
	"log"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityService appends audit entries and serves the per-user trail.
// Recording is best-effort: a failed append is logged and never fails the
// operation that triggered it.
type ActivityService interface {
	Record(ctx context.Context, userID primitive.ObjectID, action string, data bson.M)
	GetForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.ActivityLog, error)
}

type activityService struct {
	activityRepo repository.ActivityLogRepository
}

// NewActivityService creates a new instance of activityService.
func NewActivityService(activityRepo repository.ActivityLogRepository) ActivityService {
	return &activityService{activityRepo: activityRepo}
}

// Record appends an audit entry for the given user and action.
func (s *activityService) Record(ctx context.Context, userID primitive.ObjectID, action string, data bson.M) {
	if userID == primitive.NilObjectID || action == "" {
		return
	}
	entry := &domain.ActivityLog{
		UserID: userID,
		Action: action,
		Data:   data,
	}
	if _, err := s.activityRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to record activity %q for user %s: %v", action, userID.Hex(), err)
	}
}

// GetForUser retrieves the audit trail for a user, newest first.
func (s *activityService) GetForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.ActivityLog, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	return s.activityRepo.GetByUserID(ctx, userID)
}
