package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/storage"
)

// PredictionStore implements storage.PredictionStore using PostgreSQL.
type PredictionStore struct {
	pool *Pool
}

// NewPredictionStore creates a new PredictionStore.
func NewPredictionStore(pool *Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
// Non-finite feature values are not representable in JSONB and are omitted.
func (s *PredictionStore) Insert(ctx context.Context, r *domain.PredictionRecord) (err error) {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observe("insert_prediction", start, err) }()

	query := `
		INSERT INTO predictions (
			id, model_kind, model_name, model_version,
			query_time_ms, value, feature_hash, features, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.ModelKind, r.ModelName, r.ModelVersion,
		r.QueryTimeMs, r.Value, r.FeatureHash, finiteFeatures(r.Features), r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *PredictionStore) GetByID(ctx context.Context, id string) (*domain.PredictionRecord, error) {
	query := `
		SELECT id, model_kind, model_name, model_version,
			query_time_ms, value, feature_hash, features, created_at
		FROM predictions
		WHERE id = $1
	`

	r, err := scanPrediction(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get prediction by id: %w", err)
	}
	return r, nil
}

// GetRecent retrieves up to limit records, newest first.
func (s *PredictionStore) GetRecent(ctx context.Context, limit int) ([]*domain.PredictionRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}
	start := time.Now()

	query := `
		SELECT id, model_kind, model_name, model_version,
			query_time_ms, value, feature_hash, features, created_at
		FROM predictions
		ORDER BY created_at DESC, id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		observe("recent_predictions", start, err)
		return nil, fmt.Errorf("get recent predictions: %w", err)
	}
	defer rows.Close()

	records, err := scanPredictions(rows)
	observe("recent_predictions", start, err)
	return records, err
}

func finiteFeatures(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}

// scanPrediction scans a single row into a PredictionRecord.
func scanPrediction(row pgx.Row) (*domain.PredictionRecord, error) {
	var r domain.PredictionRecord
	err := row.Scan(
		&r.ID, &r.ModelKind, &r.ModelName, &r.ModelVersion,
		&r.QueryTimeMs, &r.Value, &r.FeatureHash, &r.Features, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// scanPredictions scans multiple rows into a slice of PredictionRecord.
func scanPredictions(rows pgx.Rows) ([]*domain.PredictionRecord, error) {
	var records []*domain.PredictionRecord

	for rows.Next() {
		r, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction rows: %w", err)
	}

	return records, nil
}
