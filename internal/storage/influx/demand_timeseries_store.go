package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/storage"
)

// DemandTimeseriesStore implements storage.DemandSeriesStore on an InfluxDB bucket.
type DemandTimeseriesStore struct {
	write  api.WriteAPIBlocking
	query  api.QueryAPI
	bucket string
}

// NewDemandTimeseriesStore creates a store over c's bucket.
func NewDemandTimeseriesStore(c *Client) *DemandTimeseriesStore {
	return &DemandTimeseriesStore{write: c.Write, query: c.Query, bucket: c.Bucket}
}

// Compile-time interface check.
var _ storage.DemandSeriesStore = (*DemandTimeseriesStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate timestamp.
func (s *DemandTimeseriesStore) InsertBulk(ctx context.Context, points []*domain.DemandPoint) error {
	if len(points) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(points))
	minTs, maxTs := points[0].TimestampMs, points[0].TimestampMs
	for _, p := range points {
		if p == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[p.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.TimestampMs] = struct{}{}
		minTs = min(minTs, p.TimestampMs)
		maxTs = max(maxTs, p.TimestampMs)
	}

	// Influx overwrites on identical series+time; reject instead to stay append-only.
	existing, err := s.GetByTimeRange(ctx, minTs, maxTs)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, p := range existing {
		if _, dup := seen[p.TimestampMs]; dup {
			return storage.ErrDuplicateKey
		}
	}

	if err := s.write.WritePoint(ctx, toPoints(points)...); err != nil {
		return fmt.Errorf("write points: %w", err)
	}
	return nil
}

// GetAll retrieves every point, ordered by timestamp ASC.
func (s *DemandTimeseriesStore) GetAll(ctx context.Context) ([]*domain.DemandPoint, error) {
	return s.run(ctx, rangeQuery(s.bucket, 0, time.Now().Add(24*time.Hour).UnixMilli()))
}

// GetByTimeRange retrieves points within [start, end] (inclusive).
func (s *DemandTimeseriesStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.DemandPoint, error) {
	if start > end {
		return nil, nil
	}
	return s.run(ctx, rangeQuery(s.bucket, start, end))
}

// GetGlobalTimeRange returns min and max timestamps across all data.
func (s *DemandTimeseriesStore) GetGlobalTimeRange(ctx context.Context) (minTs, maxTs int64, err error) {
	first, err := s.run(ctx, edgeQuery(s.bucket, "first"))
	if err != nil {
		return 0, 0, err
	}
	if len(first) == 0 {
		return 0, 0, nil
	}
	last, err := s.run(ctx, edgeQuery(s.bucket, "last"))
	if err != nil {
		return 0, 0, err
	}
	if len(last) == 0 {
		return 0, 0, nil
	}
	return first[0].TimestampMs, last[0].TimestampMs, nil
}

func (s *DemandTimeseriesStore) run(ctx context.Context, flux string) ([]*domain.DemandPoint, error) {
	result, err := s.query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query demand: %w", err)
	}
	defer result.Close()

	var points []*domain.DemandPoint
	for result.Next() {
		record := result.Record()
		value, ok := record.Value().(float64)
		if !ok {
			return nil, fmt.Errorf("demand value at %s is %T, want float64", record.Time(), record.Value())
		}
		points = append(points, &domain.DemandPoint{
			TimestampMs: record.Time().UnixMilli(),
			Value:       value,
		})
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("iterate demand rows: %w", result.Err())
	}
	return points, nil
}

func toPoints(points []*domain.DemandPoint) []*write.Point {
	out := make([]*write.Point, len(points))
	for i, p := range points {
		out[i] = influxdb2.NewPoint(
			Measurement,
			nil,
			map[string]interface{}{Field: p.Value},
			time.UnixMilli(p.TimestampMs).UTC(),
		)
	}
	return out
}

// rangeQuery selects points in [start, end] ms. Flux stop is exclusive.
func rangeQuery(bucket string, start, end int64) string {
	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q and r._field == %q)
  |> keep(columns: ["_time", "_value"])
  |> sort(columns: ["_time"])`,
		bucket,
		fluxTime(start), fluxTime(end+1),
		Measurement, Field)
}

// edgeQuery selects the first or last point of the whole bucket.
func edgeQuery(bucket, fn string) string {
	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: 0)
  |> filter(fn: (r) => r._measurement == %q and r._field == %q)
  |> keep(columns: ["_time", "_value"])
  |> %s()`,
		bucket, Measurement, Field, fn)
}

func fluxTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}
