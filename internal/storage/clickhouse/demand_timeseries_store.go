package clickhouse

import (
	"context"
	"fmt"
	"time"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/storage"
)

// DemandTimeseriesStore implements storage.DemandSeriesStore using ClickHouse.
type DemandTimeseriesStore struct {
	conn *Conn
}

// NewDemandTimeseriesStore creates a new DemandTimeseriesStore.
func NewDemandTimeseriesStore(conn *Conn) *DemandTimeseriesStore {
	return &DemandTimeseriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DemandSeriesStore = (*DemandTimeseriesStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate timestamp_ms.
func (s *DemandTimeseriesStore) InsertBulk(ctx context.Context, points []*domain.DemandPoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe("insert_demand", start, err) }()

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(points))
	minTs, maxTs := points[0].TimestampMs, points[0].TimestampMs
	for _, p := range points {
		if p == nil || p.TimestampMs < 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[p.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.TimestampMs] = struct{}{}
		minTs = min(minTs, p.TimestampMs)
		maxTs = max(maxTs, p.TimestampMs)
	}

	// MergeTree does not enforce uniqueness; check the batch span against existing rows.
	existing, err := s.GetByTimeRange(ctx, minTs, maxTs)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, p := range existing {
		if _, dup := seen[p.TimestampMs]; dup {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO demand_timeseries (timestamp_ms, demand_mw)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err = batch.Append(uint64(p.TimestampMs), p.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetAll retrieves every point, ordered by timestamp ASC.
func (s *DemandTimeseriesStore) GetAll(ctx context.Context) ([]*domain.DemandPoint, error) {
	start := time.Now()
	query := `
		SELECT timestamp_ms, demand_mw
		FROM demand_timeseries
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		observe("demand_all", start, err)
		return nil, fmt.Errorf("query all demand: %w", err)
	}
	defer rows.Close()

	points, err := scanDemandTimeseries(rows)
	observe("demand_all", start, err)
	return points, err
}

// GetByTimeRange retrieves points within [start, end] (inclusive).
func (s *DemandTimeseriesStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.DemandPoint, error) {
	if end < 0 || start > end {
		return nil, nil
	}
	start = max(start, 0)

	query := `
		SELECT timestamp_ms, demand_mw
		FROM demand_timeseries
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanDemandTimeseries(rows)
}

// GetGlobalTimeRange returns min and max timestamps across all data.
func (s *DemandTimeseriesStore) GetGlobalTimeRange(ctx context.Context) (minTs, maxTs int64, err error) {
	query := `SELECT count(), min(timestamp_ms), max(timestamp_ms) FROM demand_timeseries`

	var count, lo, hi uint64
	if err := s.conn.QueryRow(ctx, query).Scan(&count, &lo, &hi); err != nil {
		return 0, 0, fmt.Errorf("query time range: %w", err)
	}
	if count == 0 {
		return 0, 0, nil
	}
	return int64(lo), int64(hi), nil
}

// scanDemandTimeseries scans multiple rows.
func scanDemandTimeseries(rows chRows) ([]*domain.DemandPoint, error) {
	var points []*domain.DemandPoint

	for rows.Next() {
		var (
			timestampMs uint64
			value       float64
		)
		if err := rows.Scan(&timestampMs, &value); err != nil {
			return nil, fmt.Errorf("scan demand row: %w", err)
		}
		points = append(points, &domain.DemandPoint{TimestampMs: int64(timestampMs), Value: value})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate demand rows: %w", err)
	}

	return points, nil
}
