// Package forecast serves point-in-time predictions: it synthesizes the feature
// vector for a requested time, invokes the estimator and records the outcome.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/estimator"
	"uk-forecast-lab/internal/features"
	"uk-forecast-lab/internal/holiday"
	"uk-forecast-lab/internal/housing"
	"uk-forecast-lab/internal/idhash"
	"uk-forecast-lab/internal/observability"
	"uk-forecast-lab/internal/series"
	"uk-forecast-lab/internal/storage"
)

// BandFraction is the relative half-width of the demand band.
const BandFraction = 0.05

// ErrInvalidRequest is returned for malformed prediction requests.
var ErrInvalidRequest = errors.New("invalid request")

// Request asks for the demand at one instant.
type Request struct {
	Time    time.Time
	Model   string // empty selects the service default
	Version string // empty selects the latest registered
}

// Result is one served demand prediction.
type Result struct {
	ID          string
	Time        time.Time
	Value       float64
	Lower       float64
	Upper       float64
	Model       string
	Version     string
	Features    map[string]float64 // human-readable sample of the inputs
	FeatureHash string
}

// PropertyRequest asks for the price of one property.
type PropertyRequest struct {
	Query   domain.PropertyQuery
	Model   string
	Version string
}

// PropertyResult is one served price prediction.
type PropertyResult struct {
	ID      string
	Quote   housing.Quote
	Model   string
	Version string
}

// Service wires the series snapshot, calendar, synthesizer and estimators.
type Service struct {
	snapshot     *series.Snapshot
	calendar     *holiday.Calendar
	synth        *features.Synthesizer
	registry     *estimator.Registry
	defaultModel string
	housingModel string
	records      storage.PredictionStore
	logger       *log.Logger
	now          func() time.Time
	newID        func() string
	sample       []string
	horizonLimit int
}

// ServiceOptions contains configuration for creating a Service.
type ServiceOptions struct {
	Snapshot     *series.Snapshot
	Calendar     *holiday.Calendar
	Synthesizer  *features.Synthesizer
	Registry     *estimator.Registry
	DefaultModel string                  // electricity model name
	HousingModel string                  // housing model name, optional
	Records      storage.PredictionStore // optional
	Logger       *log.Logger
	HorizonLimit int // concurrent steps in Horizon, default 8
}

// NewService creates a Service.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Snapshot == nil || opts.Synthesizer == nil || opts.Registry == nil {
		return nil, errors.New("forecast: snapshot, synthesizer and registry are required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("forecast: default model is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	limit := opts.HorizonLimit
	if limit <= 0 {
		limit = 8
	}

	cfg := opts.Synthesizer.Config()
	sample := []string{features.Year, features.Month, features.Hour, features.IsWeekend, features.Season}
	for _, l := range cfg.Lags {
		if l.Offset == 24*time.Hour {
			sample = append(sample, cfg.LagFeature(l.Name))
		}
	}
	for _, w := range cfg.Windows {
		if w.Length == 24*time.Hour {
			sample = append(sample, cfg.MeanFeature(w.Label))
		}
	}

	return &Service{
		snapshot:     opts.Snapshot,
		calendar:     opts.Calendar,
		synth:        opts.Synthesizer,
		registry:     opts.Registry,
		defaultModel: opts.DefaultModel,
		housingModel: opts.HousingModel,
		records:      opts.Records,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
		sample:       sample,
		horizonLimit: limit,
	}, nil
}

// WithClock sets a custom clock for record timestamps (for testing).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Predict serves one demand prediction and records it.
func (s *Service) Predict(ctx context.Context, req Request) (*Result, error) {
	res, err := s.predict(req, s.snapshot.Load())
	if err != nil {
		return nil, err
	}
	s.record(ctx, &domain.PredictionRecord{
		ID:           res.ID,
		ModelKind:    domain.ModelKindElectricity,
		ModelName:    res.Model,
		ModelVersion: res.Version,
		QueryTimeMs:  res.Time.UnixMilli(),
		Value:        res.Value,
		FeatureHash:  res.FeatureHash,
		Features:     res.Features,
	})
	return res, nil
}

// predict synthesizes against hist, which callers load once from the snapshot.
func (s *Service) predict(req Request, hist *series.Series) (*Result, error) {
	if req.Time.IsZero() {
		return nil, fmt.Errorf("%w: prediction time is required", ErrInvalidRequest)
	}
	name := req.Model
	if name == "" {
		name = s.defaultModel
	}

	start := time.Now()
	est, err := s.registry.Get(name, req.Version)
	if err != nil {
		observability.RecordPrediction(domain.ModelKindElectricity, name, failureReason(err), time.Since(start).Seconds())
		return nil, err
	}

	f, err := s.synth.Synthesize(req.Time, hist, s.calendar)
	if err != nil {
		s.fail(name, err, start)
		return nil, err
	}
	v, err := features.Assemble(f, est.FeatureNames())
	if err != nil {
		s.fail(name, err, start)
		return nil, err
	}
	y, err := estimator.Invoke(est, v)
	if err != nil {
		s.fail(name, err, start)
		return nil, err
	}
	observability.RecordPrediction(domain.ModelKindElectricity, name, "ok", time.Since(start).Seconds())

	sample := make(map[string]float64, len(s.sample))
	for _, n := range s.sample {
		if x, ok := f.Get(n); ok {
			sample[n] = x
		}
	}

	return &Result{
		ID:          s.newID(),
		Time:        req.Time,
		Value:       y,
		Lower:       y * (1 - BandFraction),
		Upper:       y * (1 + BandFraction),
		Model:       est.Name(),
		Version:     est.Version(),
		Features:    sample,
		FeatureHash: idhash.ComputeFeatureHash(v),
	}, nil
}

// PredictProperty serves one housing price prediction and records it.
func (s *Service) PredictProperty(ctx context.Context, req PropertyRequest) (*PropertyResult, error) {
	name := req.Model
	if name == "" {
		name = s.housingModel
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no housing model configured", estimator.ErrModelNotFound)
	}

	start := time.Now()
	e, err := s.registry.Get(name, req.Version)
	if err != nil {
		observability.RecordPrediction(domain.ModelKindHousing, name, failureReason(err), time.Since(start).Seconds())
		return nil, err
	}
	est, ok := e.(housing.Estimator)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not encode categorical inputs", estimator.ErrModelNotFound, name)
	}

	quote, v, err := housing.Predict(est, req.Query)
	if err != nil {
		observability.RecordPrediction(domain.ModelKindHousing, name, failureReason(err), time.Since(start).Seconds())
		return nil, err
	}
	observability.RecordPrediction(domain.ModelKindHousing, name, "ok", time.Since(start).Seconds())

	res := &PropertyResult{ID: s.newID(), Quote: quote, Model: est.Name(), Version: est.Version()}
	s.record(ctx, &domain.PredictionRecord{
		ID:           res.ID,
		ModelKind:    domain.ModelKindHousing,
		ModelName:    res.Model,
		ModelVersion: res.Version,
		Value:        quote.Price,
		FeatureHash:  idhash.ComputeFeatureHash(v),
		Features:     v.Map(),
	})
	return res, nil
}

// record persists r. Failures are logged and never reach the caller.
func (s *Service) record(ctx context.Context, r *domain.PredictionRecord) {
	if s.records == nil {
		return
	}
	r.CreatedAt = s.now().UnixMilli()
	if err := s.records.Insert(ctx, r); err != nil {
		observability.RecordRecordWriteError()
		s.logger.Printf("record prediction %s: %v", r.ID, err)
	}
}

func (s *Service) fail(model string, err error, start time.Time) {
	reason := failureReason(err)
	observability.RecordPrediction(domain.ModelKindElectricity, model, reason, time.Since(start).Seconds())
	if reason != "error" {
		observability.RecordSynthesisFailure(reason)
	}
}

// failureReason maps an error to a metrics label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, features.ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, features.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, features.ErrIncompleteFeatureVector):
		return "incomplete_vector"
	case errors.Is(err, estimator.ErrFeatureMismatch):
		return "feature_mismatch"
	case errors.Is(err, estimator.ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, housing.ErrInvalidQuery):
		return "invalid_query"
	default:
		return "error"
	}
}

// Model returns the estimator for name and version, defaulting name to the
// electricity model.
func (s *Service) Model(name, version string) (estimator.Estimator, error) {
	if name == "" {
		name = s.defaultModel
	}
	return s.registry.Get(name, version)
}

// HousingModel returns the configured housing estimator.
func (s *Service) HousingModel(version string) (estimator.Estimator, error) {
	if s.housingModel == "" {
		return nil, fmt.Errorf("%w: no housing model configured", estimator.ErrModelNotFound)
	}
	return s.registry.Get(s.housingModel, version)
}

// FeatureConfig returns the synthesizer configuration.
func (s *Service) FeatureConfig() features.Config {
	return s.synth.Config()
}

// Records returns the prediction store, or nil when predictions are not persisted.
func (s *Service) Records() storage.PredictionStore {
	return s.records
}

// SeriesStatus describes the active historical series.
type SeriesStatus struct {
	Points int
	Start  time.Time
	End    time.Time
}

// Loaded reports whether any history is available.
func (st SeriesStatus) Loaded() bool {
	return st.Points > 0
}

// Series returns the status of the active snapshot.
func (s *Service) Series() SeriesStatus {
	cur := s.snapshot.Load()
	st := SeriesStatus{Points: cur.Len()}
	if first, ok := cur.First(); ok {
		st.Start = first.Time()
	}
	if last, ok := cur.Last(); ok {
		st.End = last.Time()
	}
	return st
}
