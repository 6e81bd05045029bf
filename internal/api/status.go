package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"uk-forecast-lab/internal/domain"
)

func (s *Server) handleRoot(c *gin.Context) {
	_, err := s.svc.Model("", "")
	st := s.svc.Series()
	c.JSON(http.StatusOK, gin.H{
		"status":                 "online",
		"message":                "UK Electricity Demand and Housing Price Prediction API",
		"model_loaded":           err == nil,
		"historical_data_loaded": st.Loaded(),
		"historical_records":     st.Points,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "healthy"}

	if est, err := s.svc.Model("", ""); err == nil {
		body["model_status"] = "loaded"
		body["version"] = est.Version()
		body["features"] = len(est.FeatureNames())
	} else {
		body["model_status"] = "not loaded"
	}

	if _, err := s.svc.HousingModel(""); err == nil {
		body["housing_model_status"] = "loaded"
	} else {
		body["housing_model_status"] = "not loaded"
	}

	st := s.svc.Series()
	body["historical_records"] = st.Points
	if st.Loaded() {
		body["data_status"] = "loaded"
		body["data_end"] = st.End.In(s.loc).Format(time.RFC3339)
	} else {
		body["data_status"] = "not loaded"
	}

	c.JSON(http.StatusOK, body)
}

// PredictionRecordResponse is one audit entry.
type PredictionRecordResponse struct {
	ID           string             `json:"id"`
	ModelKind    string             `json:"model_kind"`
	ModelName    string             `json:"model_name"`
	ModelVersion string             `json:"model_version"`
	QueryTime    string             `json:"query_time,omitempty"`
	Value        float64            `json:"value"`
	FeatureHash  string             `json:"feature_hash"`
	Features     map[string]float64 `json:"features,omitempty"`
	CreatedAt    string             `json:"created_at"`
}

func (s *Server) recordResponse(r *domain.PredictionRecord) PredictionRecordResponse {
	out := PredictionRecordResponse{
		ID:           r.ID,
		ModelKind:    r.ModelKind,
		ModelName:    r.ModelName,
		ModelVersion: r.ModelVersion,
		Value:        r.Value,
		FeatureHash:  r.FeatureHash,
		Features:     finite(r.Features),
		CreatedAt:    time.UnixMilli(r.CreatedAt).In(s.loc).Format(time.RFC3339Nano),
	}
	if r.QueryTimeMs != 0 {
		out.QueryTime = time.UnixMilli(r.QueryTimeMs).In(s.loc).Format(time.RFC3339)
	}
	return out
}

func (s *Server) handleRecentPredictions(c *gin.Context) {
	store := s.svc.Records()
	if store == nil {
		c.JSON(http.StatusOK, gin.H{"predictions": []PredictionRecordResponse{}})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Detail: "limit must be within 1..500"})
			return
		}
		limit = n
	}

	records, err := store.GetRecent(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]PredictionRecordResponse, len(records))
	for i, r := range records {
		out[i] = s.recordResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"predictions": out})
}

func (s *Server) handleGetPrediction(c *gin.Context) {
	store := s.svc.Records()
	if store == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Detail: "prediction records are not stored"})
		return
	}
	r, err := store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.recordResponse(r))
}

// finite drops NaN and Inf values, which JSON cannot encode.
func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}
