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

func newPaymentFixture(t *testing.T) (PaymentService, *memory.UserRepository, *memory.ProgramRepository) {
	t.Helper()
	userRepo := memory.NewUserRepository()
	programRepo := memory.NewProgramRepository()
	paymentRepo := memory.NewPaymentRepository()
	activity, _ := newTestActivity()
	return NewPaymentService(paymentRepo, programRepo, userRepo, activity), userRepo, programRepo
}

func TestPaymentRecordDefaultsToProgramPrice(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, programRepo := newPaymentFixture(t)

	userID := createTestUser(t, userRepo, "member@example.com")
	programID, err := programRepo.Create(ctx, &domain.Program{
		Name: "3 Month Plan", DurationDays: 90, Price: 149.99, IsActive: true,
	})
	require.NoError(t, err)

	payment, err := svc.Record(ctx, userID, programID, nil, domain.MethodCard, "TX-100", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 149.99, payment.Amount)
	assert.Equal(t, programID, payment.ProgramID)
	assert.False(t, payment.PaidAt.IsZero())
}

func TestPaymentRecordExplicitAmountWins(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, programRepo := newPaymentFixture(t)

	userID := createTestUser(t, userRepo, "member@example.com")
	programID, err := programRepo.Create(ctx, &domain.Program{
		Name: "3 Month Plan", DurationDays: 90, Price: 149.99, IsActive: true,
	})
	require.NoError(t, err)

	// A discounted amount is stored verbatim, not clamped to the price.
	discounted := 99.0
	payment, err := svc.Record(ctx, userID, programID, &discounted, domain.MethodCash, "TX-101", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 99.0, payment.Amount)
}

func TestPaymentRecordAmountRequiredWithoutProgram(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newPaymentFixture(t)

	userID := createTestUser(t, userRepo, "member@example.com")

	_, err := svc.Record(ctx, userID, primitive.NilObjectID, nil, domain.MethodCash, "TX-102", time.Time{})
	assert.ErrorIs(t, err, ErrPaymentAmountRequired)

	// Without a program an explicit amount is enough.
	amount := 25.0
	payment, err := svc.Record(ctx, userID, primitive.NilObjectID, &amount, domain.MethodCash, "TX-103", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 25.0, payment.Amount)
	assert.Equal(t, primitive.NilObjectID, payment.ProgramID)
}

func TestPaymentRecordDuplicateTransactionRef(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newPaymentFixture(t)

	aliceID := createTestUser(t, userRepo, "alice@example.com")
	bobID := createTestUser(t, userRepo, "bob@example.com")

	amount := 50.0
	_, err := svc.Record(ctx, aliceID, primitive.NilObjectID, &amount, domain.MethodCard, "TX-1", time.Time{})
	require.NoError(t, err)

	// Same reference, even for another user, must be rejected.
	_, err = svc.Record(ctx, bobID, primitive.NilObjectID, &amount, domain.MethodCard, "TX-1", time.Time{})
	assert.ErrorIs(t, err, ErrDuplicateTransaction)

	// Only the first payment exists.
	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, aliceID, all[0].UserID)
}

func TestPaymentRecordValidation(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newPaymentFixture(t)
	userID := createTestUser(t, userRepo, "member@example.com")
	amount := 10.0

	tests := []struct {
		name    string
		userID  primitive.ObjectID
		amount  *float64
		method  domain.PaymentMethod
		ref     string
		wantErr error
	}{
		{"unknown user", primitive.NewObjectID(), &amount, domain.MethodCash, "TX-V1", ErrUserNotFound},
		{"empty reference", userID, &amount, domain.MethodCash, "", ErrValidationFailed},
		{"bad method", userID, &amount, domain.PaymentMethod("IOU"), "TX-V2", ErrInvalidPaymentMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(ctx, tt.userID, primitive.NilObjectID, tt.amount, tt.method, tt.ref, time.Time{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	negative := -5.0
	_, err := svc.Record(ctx, userID, primitive.NilObjectID, &negative, domain.MethodCash, "TX-V3", time.Time{})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestPaymentUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newPaymentFixture(t)
	userID := createTestUser(t, userRepo, "member@example.com")

	amount := 30.0
	payment, err := svc.Record(ctx, userID, primitive.NilObjectID, &amount, domain.MethodCash, "TX-U1", time.Time{})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, payment.ID, 35.0, domain.MethodCard, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 35.0, updated.Amount)
	assert.Equal(t, domain.MethodCard, updated.Method)
	assert.Equal(t, "TX-U1", updated.TransactionRef)
	assert.Equal(t, userID, updated.UserID)

	require.NoError(t, svc.Delete(ctx, payment.ID))
	assert.ErrorIs(t, svc.Delete(ctx, payment.ID), ErrPaymentNotFound)

	_, err = svc.Update(ctx, payment.ID, 10.0, domain.MethodCash, time.Time{})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestPaymentListForUserIsScoped(t *testing.T) {
	ctx := context.Background()
	svc, userRepo, _ := newPaymentFixture(t)

	aliceID := createTestUser(t, userRepo, "alice@example.com")
	bobID := createTestUser(t, userRepo, "bob@example.com")

	a1, a2, b1 := 10.0, 20.0, 30.0
	_, err := svc.Record(ctx, aliceID, primitive.NilObjectID, &a1, domain.MethodCash, "TX-A1", time.Time{})
	require.NoError(t, err)
	_, err = svc.Record(ctx, aliceID, primitive.NilObjectID, &a2, domain.MethodCash, "TX-A2", time.Time{})
	require.NoError(t, err)
	_, err = svc.Record(ctx, bobID, primitive.NilObjectID, &b1, domain.MethodCash, "TX-B1", time.Time{})
	require.NoError(t, err)

	alicePayments, err := svc.ListForUser(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, alicePayments, 2)
	// Creation order.
	assert.Equal(t, "TX-A1", alicePayments[0].TransactionRef)
	assert.Equal(t, "TX-A2", alicePayments[1].TransactionRef)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
