package storage

import (
	"context"

	"uk-forecast-lab/internal/domain"
)

// DemandSeriesStore provides access to demand_timeseries storage.
type DemandSeriesStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate timestamp_ms.
	InsertBulk(ctx context.Context, points []*domain.DemandPoint) error

	// GetAll retrieves every point, ordered by timestamp ASC.
	GetAll(ctx context.Context) ([]*domain.DemandPoint, error)

	// GetByTimeRange retrieves points within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.DemandPoint, error)

	// GetGlobalTimeRange returns min and max timestamps. Returns (0, 0, nil) when empty.
	GetGlobalTimeRange(ctx context.Context) (minTs, maxTs int64, err error)
}

// PredictionStore provides access to predictions storage.
type PredictionStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.PredictionRecord) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.PredictionRecord, error)

	// GetRecent retrieves up to limit records, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.PredictionRecord, error)
}

// HolidayStore provides access to holidays storage.
type HolidayStore interface {
	// InsertBulk adds multiple holidays atomically. Fails entire batch on duplicate date.
	InsertBulk(ctx context.Context, holidays []*domain.Holiday) error

	// GetAll retrieves every holiday, ordered by date ASC.
	GetAll(ctx context.Context) ([]*domain.Holiday, error)
}
