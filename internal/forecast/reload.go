package forecast

import (
	"context"
	"fmt"
	"log"
	"time"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/idhash"
	"uk-forecast-lab/internal/observability"
	"uk-forecast-lab/internal/series"
)

// SeriesSource produces the full historical demand series, sorted by time.
type SeriesSource interface {
	Load(ctx context.Context) ([]domain.DemandPoint, error)
}

// Reloader periodically rebuilds the series from a source and swaps it into a
// snapshot. A failed reload keeps the previous series.
type Reloader struct {
	source   SeriesSource
	snapshot *series.Snapshot
	interval time.Duration
	logger   *log.Logger
	version  string
}

// NewReloader creates a Reloader. interval <= 0 disables periodic reloads in Run.
func NewReloader(source SeriesSource, snapshot *series.Snapshot, interval time.Duration, logger *log.Logger) *Reloader {
	if logger == nil {
		logger = log.Default()
	}
	return &Reloader{source: source, snapshot: snapshot, interval: interval, logger: logger}
}

// Reload loads the source once and swaps the snapshot.
func (r *Reloader) Reload(ctx context.Context) error {
	points, err := r.source.Load(ctx)
	if err != nil {
		observability.RecordReload("error", time.Now().Unix())
		return fmt.Errorf("load series: %w", err)
	}

	s, err := series.New(points)
	if err != nil {
		observability.RecordReload("error", time.Now().Unix())
		return fmt.Errorf("build series: %w", err)
	}

	r.snapshot.Store(s)
	observability.RecordReload("ok", time.Now().Unix())

	var lastUnix int64
	version := ""
	if last, ok := s.Last(); ok {
		first, _ := s.First()
		lastUnix = last.Time().Unix()
		version = idhash.ComputeSeriesVersion(s.Len(), first.TimestampMs, last.TimestampMs, last.Value)
	}
	observability.UpdateSeries(s.Len(), lastUnix)

	if version != r.version {
		r.logger.Printf("Series loaded: %d points, version %s", s.Len(), version)
		r.version = version
	}
	return nil
}

// Run reloads every interval until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	if r.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.Reload(ctx); err != nil {
				r.logger.Printf("Reload failed, keeping previous series: %v", err)
			}
		}
	}
}
