package service

import (
	"context"
	"errors"
	"strings"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/repository"
	"fitadmin/membership-app/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid user role")
)

// --- Service Interface ---
type UserService interface {
	// Administrative user management.
	CreateUser(ctx context.Context, name, email, password string, role domain.Role, address, phone string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateUser(ctx context.Context, userID primitive.ObjectID, name, address, phone string, role domain.Role) (*domain.User, error)
	// DeleteUser hard-deletes the user and cascades over their daily
	// plans, payments, metrics and activity logs.
	DeleteUser(ctx context.Context, userID primitive.ObjectID) error

	// Profile self-service.
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, name, address, phone string) (*domain.User, error)

	// Avatar handling.
	RequestImageUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (*ImageUploadResponse, error)
	ImageDownloadURL(ctx context.Context, user *domain.User) (string, error)
}

// --- Service Implementation ---

type userService struct {
	userRepo     repository.UserRepository
	planRepo     repository.DailyPlanRepository
	paymentRepo  repository.PaymentRepository
	metricRepo   repository.MetricRepository
	activityRepo repository.ActivityLogRepository
	fileStorage  storage.FileStorage
	activity     ActivityService
}

// NewUserService creates a new instance of userService.
func NewUserService(
	userRepo repository.UserRepository,
	planRepo repository.DailyPlanRepository,
	paymentRepo repository.PaymentRepository,
	metricRepo repository.MetricRepository,
	activityRepo repository.ActivityLogRepository,
	fileStorage storage.FileStorage,
	activity ActivityService,
) UserService {
	return &userService{
		userRepo:     userRepo,
		planRepo:     planRepo,
		paymentRepo:  paymentRepo,
		metricRepo:   metricRepo,
		activityRepo: activityRepo,
		fileStorage:  fileStorage,
		activity:     activity,
	}
}

// CreateUser registers a user on behalf of an administrator.
func (s *userService) CreateUser(ctx context.Context, name, email, password string, role domain.Role, address, phone string) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, ErrValidationFailed
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return nil, ErrInvalidRole
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		Address:      address,
		Phone:        phone,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID
	user.PasswordHash = ""
	return user, nil
}

// ListUsers retrieves all users in creation order.
func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}

// GetUser retrieves a single user.
func (s *userService) GetUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser modifies a user's profile fields and role (admin path).
func (s *userService) UpdateUser(ctx context.Context, userID primitive.ObjectID, name, address, phone string, role domain.Role) (*domain.User, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return nil, ErrInvalidRole
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.Address = address
	user.Phone = phone
	user.Role = role

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user and every dependent record. Mongo enforces no
// foreign keys, so the cascade runs here, dependents first: a crash
// mid-cascade leaves orphans that a retried delete cannot reach through the
// user, but never a user with half-deleted history.
func (s *userService) DeleteUser(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.planRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.paymentRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.metricRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.activityRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.ImageKey != "" {
		_ = s.fileStorage.DeleteObject(ctx, user.ImageKey)
	}
	return nil
}

// UpdateProfile modifies the caller's own profile. Role and email are not
// touchable through this path.
func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, name, address, phone string) (*domain.User, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.Address = address
	user.Phone = phone

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.activity.Record(ctx, userID, "profile.update", bson.M{"name": name})
	return user, nil
}

// RequestImageUploadURL presigns an avatar upload for a user.
func (s *userService) RequestImageUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (*ImageUploadResponse, error) {
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrInvalidImageType
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	objectKey := buildImageObjectKey("avatars", userID, contentType)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	previousKey := user.ImageKey
	user.ImageKey = objectKey
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if previousKey != "" && previousKey != objectKey {
		_ = s.fileStorage.DeleteObject(ctx, previousKey)
	}

	return &ImageUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ImageDownloadURL resolves a presigned GET URL for the user's avatar.
func (s *userService) ImageDownloadURL(ctx context.Context, user *domain.User) (string, error) {
	if user == nil || user.ImageKey == "" {
		return "", nil
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, user.ImageKey, storage.DefaultPresignedURLExpiry)
}
