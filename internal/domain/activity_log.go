package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityLog is an append-only audit record of something a user did.
// Data is a free-form document; the action string is the only field
// consumers should rely on.
type ActivityLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Action    string             `bson:"action" json:"action"`
	Data      bson.M             `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
