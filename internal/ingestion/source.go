package ingestion

import (
	"context"
	"fmt"
	"log"
	"os"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/observability"
)

// CSVSource loads the demand series from a CSV file on every call.
type CSVSource struct {
	path   string
	opts   Options
	logger *log.Logger
}

// NewCSVSource creates a CSVSource for path.
func NewCSVSource(path string, opts Options, logger *log.Logger) *CSVSource {
	if logger == nil {
		logger = log.Default()
	}
	return &CSVSource{path: path, opts: opts, logger: logger}
}

// Load parses the file and returns its points ordered by timestamp.
func (s *CSVSource) Load(ctx context.Context) ([]domain.DemandPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	points, stats, err := ParseCSV(f, s.opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	recordStats(stats)
	if stats.Dropped() > 0 {
		s.logger.Printf("%s: kept %d of %d rows (blank=%d bad_value=%d bad_time=%d duplicate=%d)",
			s.path, stats.Kept, stats.Rows, stats.BlankValues, stats.BadValues, stats.BadTimestamps, stats.Duplicates)
	}
	return points, nil
}

func recordStats(s Stats) {
	observability.RecordDropped("blank", s.BlankValues)
	observability.RecordDropped("bad_value", s.BadValues)
	observability.RecordDropped("bad_timestamp", s.BadTimestamps)
	observability.RecordDropped("duplicate", s.Duplicates)
}
