package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentMethod type for how a payment was made
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodCard   PaymentMethod = "CARD"
	MethodPaypal PaymentMethod = "PAYPAL"
)

// IsValid reports whether the method is one of the known payment methods.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodPaypal:
		return true
	}
	return false
}

// Payment links a User to a Program they paid for.
// TransactionRef is globally unique (enforced by a unique index).
type Payment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	ProgramID      primitive.ObjectID `bson:"programId" json:"programId"`
	Amount         float64            `bson:"amount" json:"amount"`
	Method         PaymentMethod      `bson:"method" json:"method"`
	TransactionRef string             `bson:"transactionRef" json:"transactionRef"`
	PaidAt         time.Time          `bson:"paidAt" json:"paidAt"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
