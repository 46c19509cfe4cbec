package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanExercise is a single exercise entry inside a daily plan.
type PlanExercise struct {
	Name     string   `bson:"name" json:"name"`
	Sets     int      `bson:"sets" json:"sets"`
	Reps     int      `bson:"reps" json:"reps"`
	Weight   *float64 `bson:"weight,omitempty" json:"weight,omitempty"`     // kg, optional
	Duration *int     `bson:"duration,omitempty" json:"duration,omitempty"` // seconds, optional
	Notes    string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// PlanDetails is the structured body of a daily plan. The exercise list is
// ordered; its shape is enforced here rather than by the schema.
type PlanDetails struct {
	Exercises []PlanExercise `bson:"exercises" json:"exercises"`
	Notes     string         `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Validate checks the exercise list shape at the application boundary.
func (d *PlanDetails) Validate() error {
	if len(d.Exercises) == 0 {
		return errors.New("plan details must contain at least one exercise")
	}
	for _, ex := range d.Exercises {
		if ex.Name == "" {
			return errors.New("exercise name is required")
		}
		if ex.Sets <= 0 || ex.Reps <= 0 {
			return errors.New("exercise sets and reps must be positive")
		}
		if ex.Weight != nil && *ex.Weight < 0 {
			return errors.New("exercise weight cannot be negative")
		}
		if ex.Duration != nil && *ex.Duration <= 0 {
			return errors.New("exercise duration must be positive")
		}
	}
	return nil
}

// DailyPlan represents a dated workout plan belonging to a user.
type DailyPlan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Title     string             `bson:"title" json:"title"`
	Details   PlanDetails        `bson:"details" json:"details"`
	Date      time.Time          `bson:"date" json:"date"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
