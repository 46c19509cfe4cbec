package service

import (
	"context"
	"testing"
	"time"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newPlanFixture(t *testing.T) (PlanService, *memory.UserRepository) {
	t.Helper()
	userRepo := memory.NewUserRepository()
	planRepo := memory.NewDailyPlanRepository()
	activity, _ := newTestActivity()
	return NewPlanService(planRepo, userRepo, activity), userRepo
}

func validDetails() domain.PlanDetails {
	return domain.PlanDetails{
		Exercises: []domain.PlanExercise{{Name: "Squat", Sets: 3, Reps: 10}},
	}
}

func TestPlanCreate(t *testing.T) {
	ctx := context.Background()
	svc, userRepo := newPlanFixture(t)
	userID := createTestUser(t, userRepo, "member@example.com")

	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	plan, err := svc.Create(ctx, userID, "Leg day", validDetails(), date)
	require.NoError(t, err)
	assert.Equal(t, userID, plan.UserID)
	assert.Equal(t, "Leg day", plan.Title)
	assert.Equal(t, date, plan.Date)
	require.Len(t, plan.Details.Exercises, 1)

	// Zero date falls back to now.
	plan2, err := svc.Create(ctx, userID, "Push day", validDetails(), time.Time{})
	require.NoError(t, err)
	assert.False(t, plan2.Date.IsZero())
}

func TestPlanCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, userRepo := newPlanFixture(t)
	userID := createTestUser(t, userRepo, "member@example.com")

	_, err := svc.Create(ctx, userID, "", validDetails(), time.Now())
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Create(ctx, userID, "Empty", domain.PlanDetails{}, time.Now())
	assert.Error(t, err)

	_, err = svc.Create(ctx, primitive.NewObjectID(), "Orphan", validDetails(), time.Now())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPlanListForUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, userRepo := newPlanFixture(t)
	userID := createTestUser(t, userRepo, "member@example.com")

	older := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(ctx, userID, "Older", validDetails(), older)
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, "Newer", validDetails(), newer)
	require.NoError(t, err)

	plans, err := svc.ListForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Newer", plans[0].Title)
	assert.Equal(t, "Older", plans[1].Title)
}

func TestPlanOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	svc, userRepo := newPlanFixture(t)

	aliceID := createTestUser(t, userRepo, "alice@example.com")
	bobID := createTestUser(t, userRepo, "bob@example.com")

	alicePlan, err := svc.Create(ctx, aliceID, "Alice's plan", validDetails(), time.Now())
	require.NoError(t, err)

	// Bob sees Alice's plan exactly as he would a nonexistent id.
	_, err = svc.GetOwned(ctx, bobID, alicePlan.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, err = svc.GetOwned(ctx, bobID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = svc.UpdateOwned(ctx, bobID, alicePlan.ID, "Hijacked", validDetails(), time.Now())
	assert.ErrorIs(t, err, ErrPlanNotFound)

	err = svc.DeleteOwned(ctx, bobID, alicePlan.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	// Alice is untouched by any of it.
	got, err := svc.GetOwned(ctx, aliceID, alicePlan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice's plan", got.Title)
}

func TestPlanUpdateOwned(t *testing.T) {
	ctx := context.Background()
	svc, userRepo := newPlanFixture(t)
	userID := createTestUser(t, userRepo, "member@example.com")

	plan, err := svc.Create(ctx, userID, "Before", validDetails(), time.Now())
	require.NoError(t, err)

	newDetails := domain.PlanDetails{
		Exercises: []domain.PlanExercise{
			{Name: "Bench press", Sets: 5, Reps: 5},
			{Name: "Row", Sets: 4, Reps: 8},
		},
		Notes: "supersets",
	}
	updated, err := svc.UpdateOwned(ctx, userID, plan.ID, "After", newDetails, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Title)
	assert.Len(t, updated.Details.Exercises, 2)
	// Untouched date survives a zero-value update.
	assert.Equal(t, plan.Date.Unix(), updated.Date.Unix())
}

func TestPlanAdminDelete(t *testing.T) {
	ctx := context.Background()
	svc, userRepo := newPlanFixture(t)
	userID := createTestUser(t, userRepo, "member@example.com")

	plan, err := svc.Create(ctx, userID, "Doomed", validDetails(), time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, plan.ID))
	assert.ErrorIs(t, svc.Delete(ctx, plan.ID), ErrPlanNotFound)
}
