package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program represents a purchasable subscription/membership package.
type Program struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	DurationDays int                `bson:"durationDays" json:"durationDays"`
	Price        float64            `bson:"price" json:"price"`
	ImageKey     string             `bson:"imageKey,omitempty" json:"-"` // S3 object key, exposed via presigned URL only
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
