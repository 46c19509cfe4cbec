package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrMetricNotFound   = errors.New("metric not found")
	ErrInvalidMetricKey = errors.New("invalid metric key")
)

// MetricPoint is one entry of a chart series: value at a point in time.
type MetricPoint struct {
	RecordedAt time.Time `json:"recordedAt"`
	Value      float64   `json:"value"`
}

// --- Service Interface ---
type MetricService interface {
	Record(ctx context.Context, userID primitive.ObjectID, key domain.MetricKey, value float64, unit, notes string, recordedAt time.Time) (*domain.Metric, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, key domain.MetricKey) ([]domain.Metric, error)
	Series(ctx context.Context, userID primitive.ObjectID, key domain.MetricKey) ([]MetricPoint, error)
	UpdateOwned(ctx context.Context, ownerID, metricID primitive.ObjectID, value float64, unit, notes string, recordedAt time.Time) (*domain.Metric, error)
	DeleteOwned(ctx context.Context, ownerID, metricID primitive.ObjectID) error
	Delete(ctx context.Context, metricID primitive.ObjectID) error
}

// --- Service Implementation ---

type metricService struct {
	metricRepo repository.MetricRepository
	activity   ActivityService
}

// NewMetricService creates a new instance of metricService.
func NewMetricService(metricRepo repository.MetricRepository, activity ActivityService) MetricService {
	return &metricService{
		metricRepo: metricRepo,
		activity:   activity,
	}
}

// Record stores a new metric data point for a user.
func (s *metricService) Record(ctx context.Context, userID primitive.ObjectID, key domain.MetricKey, value float64, unit, notes string, recordedAt time.Time) (*domain.Metric, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	if !key.IsValid() {
		return nil, ErrInvalidMetricKey
	}

	metric := &domain.Metric{
		UserID:     userID,
		Key:        key,
		Value:      value,
		Unit:       unit,
		Notes:      notes,
		RecordedAt: recordedAt,
	}

	metricID, err := s.metricRepo.Create(ctx, metric)
	if err != nil {
		return nil, err
	}
	metric.ID = metricID

	s.activity.Record(ctx, userID, "metric.record", bson.M{"metricId": metricID.Hex(), "key": string(key)})
	return s.metricRepo.GetByID(ctx, metricID)
}

// ListForUser retrieves a user's metrics, optionally filtered by key,
// newest recording first.
func (s *metricService) ListForUser(ctx context.Context, userID primitive.ObjectID, key domain.MetricKey) ([]domain.Metric, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	if key != "" && !key.IsValid() {
		return nil, ErrInvalidMetricKey
	}
	return s.metricRepo.GetByUserID(ctx, userID, key)
}

// Series builds the chart series for one metric key, recordedAt ascending.
// Pure transformation of the listed records; nothing is persisted.
func (s *metricService) Series(ctx context.Context, userID primitive.ObjectID, key domain.MetricKey) ([]MetricPoint, error) {
	if !key.IsValid() {
		return nil, ErrInvalidMetricKey
	}

	metrics, err := s.ListForUser(ctx, userID, key)
	if err != nil {
		return nil, err
	}

	points := make([]MetricPoint, len(metrics))
	for i, m := range metrics {
		points[i] = MetricPoint{RecordedAt: m.RecordedAt, Value: m.Value}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].RecordedAt.Before(points[j].RecordedAt) })
	return points, nil
}

// UpdateOwned modifies a metric after verifying ownership. Key and owner
// are immutable.
func (s *metricService) UpdateOwned(ctx context.Context, ownerID, metricID primitive.ObjectID, value float64, unit, notes string, recordedAt time.Time) (*domain.Metric, error) {
	metric, err := s.getOwnedMetric(ctx, ownerID, metricID)
	if err != nil {
		return nil, err
	}

	metric.Value = value
	metric.Unit = unit
	metric.Notes = notes
	if !recordedAt.IsZero() {
		metric.RecordedAt = recordedAt
	}

	if err := s.metricRepo.Update(ctx, metric); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMetricNotFound
		}
		return nil, err
	}

	s.activity.Record(ctx, metric.UserID, "metric.update", bson.M{"metricId": metricID.Hex()})
	return metric, nil
}

// DeleteOwned removes a metric after verifying ownership.
func (s *metricService) DeleteOwned(ctx context.Context, ownerID, metricID primitive.ObjectID) error {
	metric, err := s.getOwnedMetric(ctx, ownerID, metricID)
	if err != nil {
		return err
	}
	return s.deleteMetric(ctx, metric)
}

// Delete removes a metric by id without an ownership claim (admin path).
// Deleting an id that is already gone reports ErrMetricNotFound; the
// operation is safe to repeat.
func (s *metricService) Delete(ctx context.Context, metricID primitive.ObjectID) error {
	metric, err := s.metricRepo.GetByID(ctx, metricID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMetricNotFound
		}
		return err
	}
	return s.deleteMetric(ctx, metric)
}

func (s *metricService) deleteMetric(ctx context.Context, metric *domain.Metric) error {
	if err := s.metricRepo.Delete(ctx, metric.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost a race with a concurrent delete; same outcome for the caller.
			return ErrMetricNotFound
		}
		return err
	}

	s.activity.Record(ctx, metric.UserID, "metric.delete", bson.M{"metricId": metric.ID.Hex(), "key": string(metric.Key)})
	return nil
}

// getOwnedMetric fetches a metric and verifies it belongs to ownerID.
// Foreign metrics answer ErrMetricNotFound.
func (s *metricService) getOwnedMetric(ctx context.Context, ownerID, metricID primitive.ObjectID) (*domain.Metric, error) {
	if ownerID == primitive.NilObjectID || metricID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}

	metric, err := s.metricRepo.GetByID(ctx, metricID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMetricNotFound
		}
		return nil, err
	}

	if metric.UserID != ownerID {
		return nil, ErrMetricNotFound
	}
	return metric, nil
}
