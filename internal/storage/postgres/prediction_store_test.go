package postgres

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/storage"
)

func createTestPrediction(id string, createdAt int64) *domain.PredictionRecord {
	return &domain.PredictionRecord{
		ID:           id,
		ModelKind:    domain.ModelKindElectricity,
		ModelName:    "electricity-gbr",
		ModelVersion: "1.0.0",
		QueryTimeMs:  1718461800000,
		Value:        28123.45,
		FeatureHash:  "0f3c",
		Features:     map[string]float64{"hour": 14, "is_weekend": 1},
		CreatedAt:    createdAt,
	}
}

func TestPredictionStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPredictionStore(pool)

	r := createTestPrediction("pred-001", 1000)
	require.NoError(t, store.Insert(ctx, r))

	retrieved, err := store.GetByID(ctx, "pred-001")
	require.NoError(t, err)

	assert.Equal(t, r.ModelKind, retrieved.ModelKind)
	assert.Equal(t, r.ModelName, retrieved.ModelName)
	assert.Equal(t, r.ModelVersion, retrieved.ModelVersion)
	assert.Equal(t, r.QueryTimeMs, retrieved.QueryTimeMs)
	assert.InDelta(t, r.Value, retrieved.Value, 0.0001)
	assert.Equal(t, r.FeatureHash, retrieved.FeatureHash)
	assert.Equal(t, r.Features, retrieved.Features)
	assert.Equal(t, r.CreatedAt, retrieved.CreatedAt)
}

func TestPredictionStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPredictionStore(pool)

	r := createTestPrediction("pred-dup", 1000)
	require.NoError(t, store.Insert(ctx, r))

	err := store.Insert(ctx, r)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPredictionStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPredictionStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPredictionStore_NonFiniteFeaturesOmitted(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPredictionStore(pool)

	r := createTestPrediction("pred-nan", 1000)
	r.ModelKind = domain.ModelKindHousing
	r.Features = map[string]float64{"county": math.NaN(), "year": 2017}
	require.NoError(t, store.Insert(ctx, r))

	retrieved, err := store.GetByID(ctx, "pred-nan")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"year": 2017}, retrieved.Features)
}

func TestPredictionStore_GetRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPredictionStore(pool)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Insert(ctx, createTestPrediction(id, int64(1000+i))))
	}

	recent, err := store.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "b", recent[1].ID)

	_, err = store.GetRecent(ctx, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
