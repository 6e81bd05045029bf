package forecast

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/series"
)

type stubSource struct {
	points []domain.DemandPoint
	err    error
}

func (s *stubSource) Load(context.Context) ([]domain.DemandPoint, error) {
	return s.points, s.err
}

func TestReloader_Reload(t *testing.T) {
	empty, _ := series.New(nil)
	snap := series.NewSnapshot(empty)
	src := &stubSource{points: []domain.DemandPoint{
		domain.NewDemandPoint(seriesStart, 1),
		domain.NewDemandPoint(seriesStart.Add(time.Hour), 2),
	}}
	r := NewReloader(src, snap, 0, log.New(io.Discard, "", 0))

	if err := r.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := snap.Load().Len(); got != 2 {
		t.Fatalf("snapshot has %d points, want 2", got)
	}

	src.err = errors.New("warehouse down")
	if err := r.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	if got := snap.Load().Len(); got != 2 {
		t.Errorf("failed reload replaced snapshot: %d points", got)
	}

	src.err = nil
	src.points = []domain.DemandPoint{
		domain.NewDemandPoint(seriesStart.Add(time.Hour), 2),
		domain.NewDemandPoint(seriesStart, 1),
	}
	if err := r.Reload(context.Background()); err == nil {
		t.Fatal("expected error for unsorted points")
	}
	if got := snap.Load().Len(); got != 2 {
		t.Errorf("invalid series replaced snapshot: %d points", got)
	}
}

func TestReloader_RunStopsOnCancel(t *testing.T) {
	empty, _ := series.New(nil)
	snap := series.NewSnapshot(empty)
	src := &stubSource{points: []domain.DemandPoint{domain.NewDemandPoint(seriesStart, 1)}}
	r := NewReloader(src, snap, 10*time.Millisecond, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for snap.Load().Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("Run never reloaded")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
