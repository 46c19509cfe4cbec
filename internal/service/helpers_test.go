package service

import (
	"context"
	"testing"
	"time"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubStorage satisfies storage.FileStorage without touching a real bucket.
type stubStorage struct {
	deleted []string
}

func (s *stubStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (s *stubStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (s *stubStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return nil
}

// newTestActivity returns an activity service with its own in-memory store.
func newTestActivity() (ActivityService, *memory.ActivityLogRepository) {
	repo := memory.NewActivityLogRepository()
	return NewActivityService(repo), repo
}

// createTestUser inserts a member directly through the repository.
func createTestUser(t *testing.T, repo *memory.UserRepository, email string) primitive.ObjectID {
	t.Helper()
	id, err := repo.Create(context.Background(), &domain.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "irrelevant",
		Role:         domain.RoleMember,
	})
	require.NoError(t, err)
	return id
}
