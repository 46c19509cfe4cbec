package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/repository"
	"fitadmin/membership-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrProgramNotFound  = errors.New("program not found")
	ErrInvalidImageType = errors.New("invalid or missing image content type")
	ErrUploadURLError   = errors.New("failed to generate upload URL")
)

// ImageUploadResponse carries the presigned PUT URL and the object key the
// client reports back (implicitly, by the record now referencing it).
type ImageUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// --- Service Interface ---
type ProgramService interface {
	Create(ctx context.Context, name, description string, durationDays int, price float64, isActive bool) (*domain.Program, error)
	Get(ctx context.Context, programID primitive.ObjectID) (*domain.Program, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Program, error)
	Update(ctx context.Context, programID primitive.ObjectID, name, description string, durationDays int, price float64, isActive bool) (*domain.Program, error)
	Delete(ctx context.Context, programID primitive.ObjectID) error

	// RequestImageUploadURL presigns an upload for the program image and
	// stores the resulting object key on the program.
	RequestImageUploadURL(ctx context.Context, programID primitive.ObjectID, contentType string) (*ImageUploadResponse, error)
	// ImageDownloadURL resolves a temporary URL for the program image, or
	// "" when no image has been uploaded.
	ImageDownloadURL(ctx context.Context, program *domain.Program) (string, error)
}

// --- Service Implementation ---

type programService struct {
	programRepo repository.ProgramRepository
	fileStorage storage.FileStorage
}

// NewProgramService creates a new instance of programService.
func NewProgramService(programRepo repository.ProgramRepository, fileStorage storage.FileStorage) ProgramService {
	return &programService{
		programRepo: programRepo,
		fileStorage: fileStorage,
	}
}

// Create stores a new purchasable program.
func (s *programService) Create(ctx context.Context, name, description string, durationDays int, price float64, isActive bool) (*domain.Program, error) {
	if name == "" || durationDays <= 0 || price < 0 {
		return nil, ErrValidationFailed
	}

	program := &domain.Program{
		Name:         name,
		Description:  description,
		DurationDays: durationDays,
		Price:        price,
		IsActive:     isActive,
	}

	programID, err := s.programRepo.Create(ctx, program)
	if err != nil {
		return nil, err
	}
	return s.programRepo.GetByID(ctx, programID)
}

// Get retrieves a single program.
func (s *programService) Get(ctx context.Context, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

// List retrieves programs; activeOnly restricts to the purchasable catalogue.
func (s *programService) List(ctx context.Context, activeOnly bool) ([]domain.Program, error) {
	return s.programRepo.List(ctx, activeOnly)
}

// Update modifies an existing program.
func (s *programService) Update(ctx context.Context, programID primitive.ObjectID, name, description string, durationDays int, price float64, isActive bool) (*domain.Program, error) {
	if name == "" || durationDays <= 0 || price < 0 {
		return nil, ErrValidationFailed
	}

	program, err := s.Get(ctx, programID)
	if err != nil {
		return nil, err
	}

	program.Name = name
	program.Description = description
	program.DurationDays = durationDays
	program.Price = price
	program.IsActive = isActive

	if err := s.programRepo.Update(ctx, program); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

// Delete removes a program. Existing payments keep their programId; the
// reference simply stops resolving, matching the hard-delete policy.
func (s *programService) Delete(ctx context.Context, programID primitive.ObjectID) error {
	program, err := s.Get(ctx, programID)
	if err != nil {
		return err
	}

	if err := s.programRepo.Delete(ctx, programID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return err
	}

	// Best effort: drop the orphaned image object.
	if program.ImageKey != "" {
		_ = s.fileStorage.DeleteObject(ctx, program.ImageKey)
	}
	return nil
}

// RequestImageUploadURL presigns an image upload for a program.
func (s *programService) RequestImageUploadURL(ctx context.Context, programID primitive.ObjectID, contentType string) (*ImageUploadResponse, error) {
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrInvalidImageType
	}

	program, err := s.Get(ctx, programID)
	if err != nil {
		return nil, err
	}

	objectKey := buildImageObjectKey("programs", programID, contentType)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	// Record the key up front; the client uploads to the presigned URL.
	previousKey := program.ImageKey
	program.ImageKey = objectKey
	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, err
	}
	if previousKey != "" && previousKey != objectKey {
		_ = s.fileStorage.DeleteObject(ctx, previousKey)
	}

	return &ImageUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ImageDownloadURL resolves a presigned GET URL for the program image.
func (s *programService) ImageDownloadURL(ctx context.Context, program *domain.Program) (string, error) {
	if program == nil || program.ImageKey == "" {
		return "", nil
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, program.ImageKey, storage.DefaultPresignedURLExpiry)
}

// buildImageObjectKey generates a unique S3 key for an image belonging to
// the given record, e.g. programs/<id>/<uuid>.png
func buildImageObjectKey(prefix string, id primitive.ObjectID, contentType string) string {
	ext := ""
	parts := strings.Split(contentType, "/")
	if len(parts) == 2 {
		ext = parts[1]
	}
	return path.Join(prefix, id.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), ext))
}
