package storage

import (
	"context"
	"fmt"
	"time"

	"uk-forecast-lab/internal/domain"
)

// SeriesSource loads a demand series snapshot from a DemandSeriesStore.
type SeriesSource struct {
	store    DemandSeriesStore
	lookback time.Duration
}

// NewSeriesSource creates a SeriesSource. A positive lookback limits the load to
// points within lookback of the newest stored point.
func NewSeriesSource(store DemandSeriesStore, lookback time.Duration) *SeriesSource {
	return &SeriesSource{store: store, lookback: lookback}
}

// Load returns the stored points ordered by timestamp ASC.
func (s *SeriesSource) Load(ctx context.Context) ([]domain.DemandPoint, error) {
	var (
		points []*domain.DemandPoint
		err    error
	)
	if s.lookback > 0 {
		_, maxTs, rangeErr := s.store.GetGlobalTimeRange(ctx)
		if rangeErr != nil {
			return nil, fmt.Errorf("get time range: %w", rangeErr)
		}
		points, err = s.store.GetByTimeRange(ctx, maxTs-s.lookback.Milliseconds(), maxTs)
	} else {
		points, err = s.store.GetAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load demand series: %w", err)
	}

	out := make([]domain.DemandPoint, len(points))
	for i, p := range points {
		out[i] = *p
	}
	return out, nil
}
