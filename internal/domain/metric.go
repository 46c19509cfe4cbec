package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MetricKey identifies which body measurement a metric records.
type MetricKey string

const (
	MetricWeight  MetricKey = "WEIGHT"
	MetricHeight  MetricKey = "HEIGHT"
	MetricBodyFat MetricKey = "BODY_FAT"
	MetricChest   MetricKey = "CHEST"
	MetricWaist   MetricKey = "WAIST"
	MetricHips    MetricKey = "HIPS"
	MetricBiceps  MetricKey = "BICEPS"
	MetricThighs  MetricKey = "THIGHS"
	MetricCustom  MetricKey = "CUSTOM"
)

// IsValid reports whether the key is one of the known metric keys.
func (k MetricKey) IsValid() bool {
	switch k {
	case MetricWeight, MetricHeight, MetricBodyFat, MetricChest,
		MetricWaist, MetricHips, MetricBiceps, MetricThighs, MetricCustom:
		return true
	}
	return false
}

// Metric is a single body-measurement data point recorded for a user.
type Metric struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Key        MetricKey          `bson:"key" json:"key"`
	Value      float64            `bson:"value" json:"value"`
	Unit       string             `bson:"unit" json:"unit"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	RecordedAt time.Time          `bson:"recordedAt" json:"recordedAt"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
