package reporting

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/forecast"
	"uk-forecast-lab/internal/storage/memory"
)

var start = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func horizon(values ...float64) []*forecast.Result {
	out := make([]*forecast.Result, len(values))
	for i, v := range values {
		out[i] = &forecast.Result{
			Time:    start.Add(time.Duration(i) * time.Hour),
			Value:   v,
			Lower:   v * 0.95,
			Upper:   v * 1.05,
			Model:   "demand-gbr",
			Version: "1.0.0",
		}
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
}

func TestGenerate_Summary(t *testing.T) {
	g := NewGenerator(nil).WithClock(fixedClock)

	r, err := g.Generate(context.Background(), horizon(30000, 32000, 35000, 31000), time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	s := r.Summary
	if s.Steps != 4 {
		t.Errorf("steps = %d", s.Steps)
	}
	if s.Min != 30000 || !s.MinAt.Equal(start) {
		t.Errorf("min = %f at %s", s.Min, s.MinAt)
	}
	if s.Max != 35000 || !s.MaxAt.Equal(start.Add(2*time.Hour)) {
		t.Errorf("max = %f at %s", s.Max, s.MaxAt)
	}
	if s.Mean != 32000 {
		t.Errorf("mean = %f", s.Mean)
	}
	// sample std of {30,32,35,31}k
	if math.Abs(s.StdDev-2160.2468994692866) > 1e-6 {
		t.Errorf("std = %f", s.StdDev)
	}
	if s.PeakHour != 12 {
		t.Errorf("peak hour = %d", s.PeakHour)
	}
	if r.Model != "demand-gbr" || !r.Start.Equal(start) || !r.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("metadata = %+v", r)
	}
}

func TestGenerate_SingleStep(t *testing.T) {
	r, err := NewGenerator(nil).Generate(context.Background(), horizon(28000), time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if r.Summary.StdDev != 0 || r.Summary.PeakHour != 10 {
		t.Errorf("summary = %+v", r.Summary)
	}
}

func TestGenerate_PeakHourInQueryLocation(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	results := horizon(30000, 32000, 35000, 31000)
	for _, r := range results {
		r.Time = r.Time.In(london)
	}

	rep, err := NewGenerator(nil).Generate(context.Background(), results, time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// 12:00 UTC is 13:00 BST
	if rep.Summary.PeakHour != 13 {
		t.Errorf("peak hour = %d, want 13", rep.Summary.PeakHour)
	}
	if got := rep.Summary.MaxAt.Format(time.RFC3339); got != "2024-06-15T13:00:00+01:00" {
		t.Errorf("max at = %s", got)
	}
	if md := RenderMarkdown(rep); !strings.Contains(md, "| Peak hour (Europe/London) | 13:00 |") {
		t.Errorf("markdown peak hour missing:\n%s", md)
	}
}

func TestGenerate_Empty(t *testing.T) {
	_, err := NewGenerator(nil).Generate(context.Background(), nil, time.Hour)
	if !errors.Is(err, ErrEmptyForecast) {
		t.Errorf("error = %v", err)
	}
}

func TestGenerate_RecentPredictions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPredictionStore()
	for i, id := range []string{"a", "b"} {
		err := store.Insert(ctx, &domain.PredictionRecord{
			ID: id, ModelKind: domain.ModelKindElectricity, ModelName: "demand-gbr",
			Value: 100, CreatedAt: int64(1000 + i),
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	r, err := NewGenerator(store).WithClock(fixedClock).Generate(ctx, horizon(30000), time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(r.RecentPredictions) != 2 || r.RecentPredictions[0].ID != "b" {
		t.Fatalf("recent = %+v", r.RecentPredictions)
	}

	md := RenderMarkdown(r)
	if !strings.Contains(md, "## Recent Predictions") || !strings.Contains(md, "| b | electricity | demand-gbr |") {
		t.Errorf("markdown missing recent predictions:\n%s", md)
	}
}

func TestRenderCSV(t *testing.T) {
	r, err := NewGenerator(nil).Generate(context.Background(), horizon(30000, 32000), time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := "timestamp,predicted_demand_mw,lower_bound,upper_bound\n" +
		"2024-06-15T10:00:00Z,30000.00,28500.00,31500.00\n" +
		"2024-06-15T11:00:00Z,32000.00,30400.00,33600.00\n"
	if got := RenderCSV(r.Rows); got != want {
		t.Errorf("csv =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderMarkdown(t *testing.T) {
	r, err := NewGenerator(nil).WithClock(fixedClock).Generate(context.Background(), horizon(30000, 35000), time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	md := RenderMarkdown(r)
	for _, want := range []string{
		"# Demand Forecast",
		"Generated: 2024-06-15T09:00:00Z",
		"Model: demand-gbr (version 1.0.0)",
		"| Max (MW) | 35000.00 at 2024-06-15T11:00:00Z |",
		"| Peak hour (UTC) | 11:00 |",
		"| 2024-06-15T10:00:00Z | 30000.00 | 28500.00 | 31500.00 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "Recent Predictions") {
		t.Error("recent predictions section without store")
	}
}
