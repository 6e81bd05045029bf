package ingestion

import (
	"context"
	"fmt"
	"log"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/observability"
	"uk-forecast-lab/internal/storage"
)

// Loader writes parsed demand points to a DemandSeriesStore in batches.
type Loader struct {
	store        storage.DemandSeriesStore
	batchSize    int
	skipExisting bool
	logger       *log.Logger
}

// LoaderOptions contains configuration for creating a Loader.
type LoaderOptions struct {
	Store     storage.DemandSeriesStore
	BatchSize int
	// SkipExisting drops points at or before the newest stored timestamp,
	// so a re-run over a grown file only appends the new tail.
	SkipExisting bool
	Logger       *log.Logger
}

// NewLoader creates a new Loader.
func NewLoader(opts LoaderOptions) *Loader {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 5000
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Loader{
		store:        opts.Store,
		batchSize:    batchSize,
		skipExisting: opts.SkipExisting,
		logger:       logger,
	}
}

// LoadResult contains statistics from a load.
type LoadResult struct {
	Stored  int
	Skipped int
	Batches int
}

// Load stores points, which must be sorted by timestamp ASC.
// A failed batch aborts the load; earlier batches stay stored.
func (l *Loader) Load(ctx context.Context, points []domain.DemandPoint) (*LoadResult, error) {
	result := &LoadResult{}
	if len(points) == 0 {
		return result, nil
	}

	if l.skipExisting {
		_, maxTs, err := l.store.GetGlobalTimeRange(ctx)
		if err != nil {
			return result, fmt.Errorf("get stored time range: %w", err)
		}
		if maxTs > 0 {
			i := 0
			for i < len(points) && points[i].TimestampMs <= maxTs {
				i++
			}
			result.Skipped = i
			points = points[i:]
			if i > 0 {
				l.logger.Printf("Skipping %d points at or before stored tail %d", i, maxTs)
			}
		}
	}

	for start := 0; start < len(points); start += l.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := min(start+l.batchSize, len(points))
		batch := make([]*domain.DemandPoint, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, &points[i])
		}

		if err := l.store.InsertBulk(ctx, batch); err != nil {
			return result, fmt.Errorf("insert batch %d (%d points): %w", result.Batches+1, len(batch), err)
		}
		result.Stored += len(batch)
		result.Batches++
		observability.RecordIngested(len(batch))
	}

	l.logger.Printf("Stored %d points in %d batches (skipped %d)", result.Stored, result.Batches, result.Skipped)
	return result, nil
}
