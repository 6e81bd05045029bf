package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"uk-forecast-lab/internal/forecast"
	"uk-forecast-lab/internal/storage"
)

// ErrEmptyForecast is returned when there is nothing to report.
var ErrEmptyForecast = errors.New("empty forecast")

// Generator produces horizon reports.
type Generator struct {
	records storage.PredictionStore // optional
	recent  int
	now     func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. records may be nil.
func NewGenerator(records storage.PredictionStore) *Generator {
	return &Generator{
		records: records,
		recent:  10,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report from horizon results in step order.
func (g *Generator) Generate(ctx context.Context, results []*forecast.Result, step time.Duration) (*Report, error) {
	if len(results) == 0 {
		return nil, ErrEmptyForecast
	}

	// Rows keep the query location so the peak hour matches the hour feature.
	rows := make([]ForecastRow, len(results))
	for i, r := range results {
		rows[i] = ForecastRow{Timestamp: r.Time, Demand: r.Value, Lower: r.Lower, Upper: r.Upper}
	}

	report := &Report{
		GeneratedAt: g.now(),
		Model:       results[0].Model,
		Version:     results[0].Version,
		Start:       rows[0].Timestamp,
		Step:        step,
		Rows:        rows,
		Summary:     summarize(rows),
	}

	if g.records != nil {
		recent, err := g.records.GetRecent(ctx, g.recent)
		if err != nil {
			return nil, fmt.Errorf("load recent predictions: %w", err)
		}
		for _, rec := range recent {
			report.RecentPredictions = append(report.RecentPredictions, PredictionRow{
				ID:        rec.ID,
				Kind:      rec.ModelKind,
				Model:     rec.ModelName,
				Value:     rec.Value,
				CreatedAt: time.UnixMilli(rec.CreatedAt).UTC(),
			})
		}
	}

	return report, nil
}

func summarize(rows []ForecastRow) Summary {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Demand
	}

	minIdx := floats.MinIdx(values)
	maxIdx := floats.MaxIdx(values)
	s := Summary{
		Steps: len(rows),
		Min:   values[minIdx],
		MinAt: rows[minIdx].Timestamp,
		Max:   values[maxIdx],
		MaxAt: rows[maxIdx].Timestamp,
		Mean:  stat.Mean(values, nil),
	}
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}

	// Peak hour of day by mean demand
	var byHour [24][]float64
	for _, r := range rows {
		h := r.Timestamp.Hour()
		byHour[h] = append(byHour[h], r.Demand)
	}
	best := -1
	var bestMean float64
	for h, vals := range byHour {
		if len(vals) == 0 {
			continue
		}
		m := stat.Mean(vals, nil)
		if best < 0 || m > bestMean {
			best, bestMean = h, m
		}
	}
	s.PeakHour = best

	return s
}
