package forecast

import (
	"context"
	"io"
	"log"
	"math"
	"path/filepath"
	"testing"
	"time"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/estimator"
	"uk-forecast-lab/internal/features"
	"uk-forecast-lab/internal/holiday"
	"uk-forecast-lab/internal/series"
)

// The model artifacts shipped in models/ must load and match the default schema.
func TestBundledModels(t *testing.T) {
	dir := filepath.Join("..", "..", "models")

	elec, err := estimator.LoadTreeEnsemble(filepath.Join(dir, "electricity-demand.json"))
	if err != nil {
		t.Fatalf("load electricity model: %v", err)
	}
	house, err := estimator.LoadTreeEnsemble(filepath.Join(dir, "housing-price.json"))
	if err != nil {
		t.Fatalf("load housing model: %v", err)
	}

	want := features.Names(features.DefaultConfig())
	got := elec.FeatureNames()
	if len(got) != len(want) {
		t.Fatalf("electricity schema has %d features, synthesizer emits %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("schema[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	reg := estimator.NewRegistry()
	for _, m := range []*estimator.TreeEnsemble{elec, house} {
		if err := reg.Register(m); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	synth, err := features.NewSynthesizer(features.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}
	svc, err := NewService(ServiceOptions{
		Snapshot:     series.NewSnapshot(halfHourly(t, 10, 30000)),
		Calendar:     holiday.UK(),
		Synthesizer:  synth,
		Registry:     reg,
		DefaultModel: elec.Name(),
		HousingModel: house.Name(),
		Logger:       log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	res, err := svc.Predict(context.Background(), Request{Time: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if math.Abs(res.Value-29600) > 1e-6 {
		t.Errorf("demand = %f, want 29600", res.Value)
	}

	quote, err := svc.PredictProperty(context.Background(), PropertyRequest{Query: domain.PropertyQuery{
		PropertyType: "Detached",
		Tenure:       "Freehold",
		County:       "GREATER LONDON",
		District:     "CITY OF WESTMINSTER",
		TownCity:     "LONDON",
		Year:         2017,
		Month:        6,
		Quarter:      2,
	}})
	if err != nil {
		t.Fatalf("PredictProperty: %v", err)
	}
	if quote.Quote.Price != 655000 {
		t.Errorf("price = %f, want 655000", quote.Quote.Price)
	}
}
