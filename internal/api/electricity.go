package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"uk-forecast-lab/internal/estimator"
	"uk-forecast-lab/internal/features"
	"uk-forecast-lab/internal/forecast"
	"uk-forecast-lab/internal/reporting"
)

// PredictRequest is the body of POST /v1/electricity/predict.
type PredictRequest struct {
	PredictionDatetime string `json:"prediction_datetime" binding:"required"`
	Model              string `json:"model,omitempty"`
	Version            string `json:"version,omitempty"`
}

// PredictResponse is a served demand prediction.
type PredictResponse struct {
	ID                 string             `json:"id"`
	PredictedDemandMW  float64            `json:"predicted_demand_mw"`
	PredictionDatetime string             `json:"prediction_datetime"`
	FeaturesUsed       map[string]float64 `json:"features_used"`
	LowerBound         float64            `json:"lower_bound"`
	UpperBound         float64            `json:"upper_bound"`
	Model              string             `json:"model"`
	Version            string             `json:"version"`
	FeatureHash        string             `json:"feature_hash"`
	Message            string             `json:"message"`
}

// ForecastRequest is the body of POST /v1/electricity/forecast.
type ForecastRequest struct {
	Start       string `json:"start" binding:"required"`
	Hours       int    `json:"hours" binding:"required,min=1"`
	StepMinutes int    `json:"step_minutes,omitempty" binding:"omitempty,min=30"`
	Model       string `json:"model,omitempty"`
	Version     string `json:"version,omitempty"`
}

// ForecastPoint is one horizon step.
type ForecastPoint struct {
	Timestamp         string  `json:"timestamp"`
	PredictedDemandMW float64 `json:"predicted_demand_mw"`
	LowerBound        float64 `json:"lower_bound"`
	UpperBound        float64 `json:"upper_bound"`
}

// ForecastSummary aggregates a horizon.
type ForecastSummary struct {
	MinMW    float64 `json:"min_mw"`
	MaxMW    float64 `json:"max_mw"`
	MeanMW   float64 `json:"mean_mw"`
	PeakAt   string  `json:"peak_at"`
	PeakHour int     `json:"peak_hour"`
}

// ForecastResponse is a served horizon.
type ForecastResponse struct {
	Model       string          `json:"model"`
	Version     string          `json:"version"`
	Start       string          `json:"start"`
	StepMinutes int             `json:"step_minutes"`
	Points      []ForecastPoint `json:"points"`
	Summary     ForecastSummary `json:"summary"`
}

func (s *Server) predictResponse(res *forecast.Result) PredictResponse {
	return PredictResponse{
		ID:                 res.ID,
		PredictedDemandMW:  res.Value,
		PredictionDatetime: res.Time.In(s.loc).Format(time.RFC3339),
		FeaturesUsed:       finite(res.Features),
		LowerBound:         res.Lower,
		UpperBound:         res.Upper,
		Model:              res.Model,
		Version:            res.Version,
		FeatureHash:        res.FeatureHash,
		Message:            "Prediction successful",
	}
}

func (s *Server) handlePredict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}
	at, err := parseTime(req.PredictionDatetime, s.loc)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.svc.Predict(c.Request.Context(), forecast.Request{Time: at, Model: req.Model, Version: req.Version})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.predictResponse(res))
}

// handleForecast serves a multi-step horizon. Steps more than the shortest
// rolling window past the series end have no history and fail the request with
// 422, which is why the default horizon limit equals that window.
func (s *Server) handleForecast(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}
	if req.Hours > s.maxHorizonHours {
		s.writeError(c, fmt.Errorf("%w: hours must be at most %d", errInvalidInput, s.maxHorizonHours))
		return
	}
	if req.StepMinutes == 0 {
		req.StepMinutes = 60
	}
	start, err := parseTime(req.Start, s.loc)
	if err != nil {
		s.writeError(c, err)
		return
	}
	// Every step, and so the hour feature and peak hour, runs in the server timezone.
	start = start.In(s.loc)

	step := time.Duration(req.StepMinutes) * time.Minute
	steps := int(time.Duration(req.Hours) * time.Hour / step)
	if steps == 0 {
		s.writeError(c, fmt.Errorf("%w: step is longer than the horizon", errInvalidInput))
		return
	}

	results, err := s.svc.Horizon(c.Request.Context(), start, steps, step, req.Model, req.Version)
	if err != nil {
		s.writeError(c, err)
		return
	}
	report, err := s.reports.Generate(c.Request.Context(), results, step)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", `attachment; filename="forecast.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(reporting.RenderCSV(report.Rows)))
		return
	}

	points := make([]ForecastPoint, len(report.Rows))
	for i, row := range report.Rows {
		points[i] = ForecastPoint{
			Timestamp:         row.Timestamp.In(s.loc).Format(time.RFC3339),
			PredictedDemandMW: row.Demand,
			LowerBound:        row.Lower,
			UpperBound:        row.Upper,
		}
	}
	c.JSON(http.StatusOK, ForecastResponse{
		Model:       report.Model,
		Version:     report.Version,
		Start:       report.Start.In(s.loc).Format(time.RFC3339),
		StepMinutes: req.StepMinutes,
		Points:      points,
		Summary: ForecastSummary{
			MinMW:    report.Summary.Min,
			MaxMW:    report.Summary.Max,
			MeanMW:   report.Summary.Mean,
			PeakAt:   report.Summary.MaxAt.In(s.loc).Format(time.RFC3339),
			PeakHour: report.Summary.PeakHour,
		},
	})
}

func (s *Server) handleModelInfo(c *gin.Context) {
	est, err := s.svc.Model(c.Query("model"), c.Query("version"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	cfg := s.svc.FeatureConfig()
	names := est.FeatureNames()
	body := gin.H{
		"name":               est.Name(),
		"version":            est.Version(),
		"features_count":     len(names),
		"feature_names":      names,
		"feature_categories": features.Categories(cfg),
	}
	describe(body, est)

	st := s.svc.Series()
	if st.Loaded() {
		body["historical_data"] = gin.H{
			"min_date":      st.Start.In(s.loc).Format(time.RFC3339),
			"max_date":      st.End.In(s.loc).Format(time.RFC3339),
			"total_records": st.Points,
		}
	} else {
		body["historical_data"] = nil
	}
	c.JSON(http.StatusOK, body)
}

// describe adds Describer output to a model-info body.
func describe(body gin.H, est estimator.Estimator) {
	d, ok := est.(estimator.Describer)
	if !ok {
		return
	}
	info := d.Describe()
	body["model_type"] = info.Type
	body["trees"] = info.Trees
	if len(info.Metadata) > 0 {
		body["metadata"] = info.Metadata
	}
	if len(info.Categories) > 0 {
		body["categories"] = info.Categories
	}
}
