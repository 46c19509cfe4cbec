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

func newMetricFixture(t *testing.T) MetricService {
	t.Helper()
	activity, _ := newTestActivity()
	return NewMetricService(memory.NewMetricRepository(), activity)
}

func TestMetricRecord(t *testing.T) {
	ctx := context.Background()
	svc := newMetricFixture(t)
	userID := primitive.NewObjectID()

	recordedAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	metric, err := svc.Record(ctx, userID, domain.MetricWeight, 82.5, "kg", "morning", recordedAt)
	require.NoError(t, err)
	assert.Equal(t, domain.MetricWeight, metric.Key)
	assert.Equal(t, 82.5, metric.Value)
	assert.Equal(t, recordedAt, metric.RecordedAt)

	// Zero recordedAt falls back to now.
	metric2, err := svc.Record(ctx, userID, domain.MetricWaist, 84, "cm", "", time.Time{})
	require.NoError(t, err)
	assert.False(t, metric2.RecordedAt.IsZero())

	_, err = svc.Record(ctx, userID, domain.MetricKey("SHOE_SIZE"), 44, "", "", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidMetricKey)
}

func TestMetricListFilterPartitionsByKey(t *testing.T) {
	ctx := context.Background()
	svc := newMetricFixture(t)
	userID := primitive.NewObjectID()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := svc.Record(ctx, userID, domain.MetricWeight, 80+float64(i), "kg", "", base.AddDate(0, 0, i))
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := svc.Record(ctx, userID, domain.MetricBodyFat, 18-float64(i), "%", "", base.AddDate(0, 0, i))
		require.NoError(t, err)
	}

	weights, err := svc.ListForUser(ctx, userID, domain.MetricWeight)
	require.NoError(t, err)
	bodyFat, err := svc.ListForUser(ctx, userID, domain.MetricBodyFat)
	require.NoError(t, err)
	all, err := svc.ListForUser(ctx, userID, "")
	require.NoError(t, err)

	// Per-key slices partition the unfiltered list.
	assert.Len(t, weights, 3)
	assert.Len(t, bodyFat, 2)
	assert.Len(t, all, len(weights)+len(bodyFat))
	for _, m := range weights {
		assert.Equal(t, domain.MetricWeight, m.Key)
	}

	// Newest recording first.
	assert.Equal(t, 82.0, weights[0].Value)
	assert.Equal(t, 80.0, weights[2].Value)

	_, err = svc.ListForUser(ctx, userID, domain.MetricKey("bogus"))
	assert.ErrorIs(t, err, ErrInvalidMetricKey)
}

func TestMetricSeriesAscending(t *testing.T) {
	ctx := context.Background()
	svc := newMetricFixture(t)
	userID := primitive.NewObjectID()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	// Inserted out of order on purpose.
	for _, day := range []int{5, 1, 3} {
		_, err := svc.Record(ctx, userID, domain.MetricWeight, float64(80+day), "kg", "", base.AddDate(0, 0, day))
		require.NoError(t, err)
	}

	points, err := svc.Series(ctx, userID, domain.MetricWeight)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 81.0, points[0].Value)
	assert.Equal(t, 83.0, points[1].Value)
	assert.Equal(t, 85.0, points[2].Value)
	assert.True(t, points[0].RecordedAt.Before(points[1].RecordedAt))

	// A series always names its key.
	_, err = svc.Series(ctx, userID, "")
	assert.ErrorIs(t, err, ErrInvalidMetricKey)
}

func TestMetricOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	svc := newMetricFixture(t)

	aliceID := primitive.NewObjectID()
	bobID := primitive.NewObjectID()

	metric, err := svc.Record(ctx, aliceID, domain.MetricWeight, 82, "kg", "", time.Now())
	require.NoError(t, err)

	_, err = svc.UpdateOwned(ctx, bobID, metric.ID, 10, "kg", "", time.Now())
	assert.ErrorIs(t, err, ErrMetricNotFound)
	assert.ErrorIs(t, svc.DeleteOwned(ctx, bobID, metric.ID), ErrMetricNotFound)

	got, err := svc.UpdateOwned(ctx, aliceID, metric.ID, 81.5, "kg", "cut", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 81.5, got.Value)
	assert.Equal(t, domain.MetricWeight, got.Key)
}

func TestMetricDelete(t *testing.T) {
	ctx := context.Background()
	svc := newMetricFixture(t)
	userID := primitive.NewObjectID()

	metric, err := svc.Record(ctx, userID, domain.MetricChest, 100, "cm", "", time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOwned(ctx, userID, metric.ID))
	// Repeating the delete reports not-found, nothing worse.
	assert.ErrorIs(t, svc.DeleteOwned(ctx, userID, metric.ID), ErrMetricNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, metric.ID), ErrMetricNotFound)
}
