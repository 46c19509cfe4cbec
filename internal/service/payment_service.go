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
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrDuplicateTransaction  = errors.New("a payment with this transaction reference already exists")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrPaymentAmountRequired = errors.New("payment amount is required when no program is given")
)

// --- Service Interface ---
type PaymentService interface {
	// Record creates a payment. A nil amount defaults to the program's
	// price; an explicit amount is stored verbatim, even when it differs
	// from the price.
	Record(ctx context.Context, userID, programID primitive.ObjectID, amount *float64, method domain.PaymentMethod, transactionRef string, paidAt time.Time) (*domain.Payment, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Payment, error)
	ListAll(ctx context.Context) ([]domain.Payment, error)
	Update(ctx context.Context, paymentID primitive.ObjectID, amount float64, method domain.PaymentMethod, paidAt time.Time) (*domain.Payment, error)
	Delete(ctx context.Context, paymentID primitive.ObjectID) error
}

// --- Service Implementation ---

type paymentService struct {
	paymentRepo repository.PaymentRepository
	programRepo repository.ProgramRepository
	userRepo    repository.UserRepository
	activity    ActivityService
}

// NewPaymentService creates a new instance of paymentService.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	programRepo repository.ProgramRepository,
	userRepo repository.UserRepository,
	activity ActivityService,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		programRepo: programRepo,
		userRepo:    userRepo,
		activity:    activity,
	}
}

// Record creates a payment for a user against a program.
func (s *paymentService) Record(ctx context.Context, userID, programID primitive.ObjectID, amount *float64, method domain.PaymentMethod, transactionRef string, paidAt time.Time) (*domain.Payment, error) {
	if userID == primitive.NilObjectID || transactionRef == "" {
		return nil, ErrValidationFailed
	}
	if !method.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Resolve the amount. The program price is only a default; a supplied
	// amount always wins and is never checked against the price.
	var finalAmount float64
	switch {
	case amount != nil:
		finalAmount = *amount
	case programID != primitive.NilObjectID:
		program, err := s.programRepo.GetByID(ctx, programID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProgramNotFound
			}
			return nil, err
		}
		finalAmount = program.Price
	default:
		return nil, ErrPaymentAmountRequired
	}
	if finalAmount < 0 {
		return nil, ErrValidationFailed
	}

	payment := &domain.Payment{
		UserID:         userID,
		ProgramID:      programID,
		Amount:         finalAmount,
		Method:         method,
		TransactionRef: transactionRef,
		PaidAt:         paidAt,
	}

	paymentID, err := s.paymentRepo.Create(ctx, payment)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateTransaction
		}
		return nil, err
	}
	payment.ID = paymentID

	s.activity.Record(ctx, userID, "payment.record", bson.M{
		"paymentId":      paymentID.Hex(),
		"transactionRef": transactionRef,
		"amount":         finalAmount,
	})
	return s.paymentRepo.GetByID(ctx, paymentID)
}

// ListForUser retrieves all payments of one user, in creation order.
func (s *paymentService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Payment, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	return s.paymentRepo.GetByUserID(ctx, userID)
}

// ListAll retrieves every payment, in creation order.
func (s *paymentService) ListAll(ctx context.Context) ([]domain.Payment, error) {
	return s.paymentRepo.List(ctx)
}

// Update corrects a recorded payment. The owning user and the transaction
// reference are immutable.
func (s *paymentService) Update(ctx context.Context, paymentID primitive.ObjectID, amount float64, method domain.PaymentMethod, paidAt time.Time) (*domain.Payment, error) {
	if paymentID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	if !method.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}
	if amount < 0 {
		return nil, ErrValidationFailed
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	payment.Amount = amount
	payment.Method = method
	if !paidAt.IsZero() {
		payment.PaidAt = paidAt
	}

	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	s.activity.Record(ctx, payment.UserID, "payment.update", bson.M{"paymentId": paymentID.Hex()})
	return payment, nil
}

// Delete removes a payment record.
func (s *paymentService) Delete(ctx context.Context, paymentID primitive.ObjectID) error {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	if err := s.paymentRepo.Delete(ctx, paymentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	s.activity.Record(ctx, payment.UserID, "payment.delete", bson.M{"paymentId": paymentID.Hex()})
	return nil
}
