package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// User represents a user in the system (either an Admin or a Member).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	ImageKey     string             `bson:"imageKey,omitempty" json:"-"` // S3 object key for the avatar, exposed via presigned URL only
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Helper methods (Optional but can be useful)
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsMember() bool {
	return u.Role == RoleMember
}
