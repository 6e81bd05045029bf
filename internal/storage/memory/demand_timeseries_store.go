package memory

import (
	"context"
	"sort"
	"sync"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/storage"
)

// DemandTimeseriesStore is an in-memory implementation of storage.DemandSeriesStore.
type DemandTimeseriesStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.DemandPoint // keyed by timestamp_ms
}

// NewDemandTimeseriesStore creates a new in-memory demand timeseries store.
func NewDemandTimeseriesStore() *DemandTimeseriesStore {
	return &DemandTimeseriesStore{
		data: make(map[int64]*domain.DemandPoint),
	}
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *DemandTimeseriesStore) InsertBulk(_ context.Context, points []*domain.DemandPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[int64]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		if p == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[p.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[p.TimestampMs]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[p.TimestampMs] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		pointCopy := *p
		s.data[p.TimestampMs] = &pointCopy
	}

	return nil
}

// GetAll retrieves every point, ordered by timestamp ASC.
func (s *DemandTimeseriesStore) GetAll(_ context.Context) ([]*domain.DemandPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.DemandPoint, 0, len(s.data))
	for _, p := range s.data {
		pointCopy := *p
		result = append(result, &pointCopy)
	}
	sortPoints(result)
	return result, nil
}

// GetByTimeRange retrieves points within [start, end] (inclusive).
func (s *DemandTimeseriesStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.DemandPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DemandPoint
	for ts, p := range s.data {
		if ts >= start && ts <= end {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}
	sortPoints(result)
	return result, nil
}

// GetGlobalTimeRange returns min and max timestamps across all data.
func (s *DemandTimeseriesStore) GetGlobalTimeRange(_ context.Context) (minTs, maxTs int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	first := true
	for ts := range s.data {
		if first {
			minTs, maxTs = ts, ts
			first = false
			continue
		}
		if ts < minTs {
			minTs = ts
		}
		if ts > maxTs {
			maxTs = ts
		}
	}
	return minTs, maxTs, nil
}

func sortPoints(points []*domain.DemandPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].TimestampMs < points[j].TimestampMs
	})
}

var _ storage.DemandSeriesStore = (*DemandTimeseriesStore)(nil)
