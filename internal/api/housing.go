package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/forecast"
)

// HousingRequest is the body of POST /v1/housing/predict.
type HousingRequest struct {
	PropertyType string `json:"property_type_label" binding:"required"`
	IsNewBuild   bool   `json:"is_new_build"`
	Tenure       string `json:"tenure_label" binding:"required"`
	County       string `json:"county" binding:"required"`
	District     string `json:"district" binding:"required"`
	TownCity     string `json:"town_city" binding:"required"`
	Year         int    `json:"year" binding:"required"`
	Month        int    `json:"month" binding:"required,min=1,max=12"`
	Quarter      int    `json:"quarter" binding:"omitempty,min=1,max=4"`
	Model        string `json:"model,omitempty"`
	Version      string `json:"version,omitempty"`
}

// HousingResponse is a served price prediction.
type HousingResponse struct {
	ID             string  `json:"id"`
	PredictedPrice float64 `json:"predicted_price"`
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
	Model          string  `json:"model"`
	Version        string  `json:"version"`
	Message        string  `json:"message"`
}

func (s *Server) handleHousingPredict(c *gin.Context) {
	var req HousingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}

	res, err := s.svc.PredictProperty(c.Request.Context(), forecast.PropertyRequest{
		Query: domain.PropertyQuery{
			PropertyType: req.PropertyType,
			IsNewBuild:   req.IsNewBuild,
			Tenure:       req.Tenure,
			County:       req.County,
			District:     req.District,
			TownCity:     req.TownCity,
			Year:         req.Year,
			Month:        req.Month,
			Quarter:      req.Quarter,
		},
		Model:   req.Model,
		Version: req.Version,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, HousingResponse{
		ID:             res.ID,
		PredictedPrice: res.Quote.Price,
		LowerBound:     res.Quote.Lower,
		UpperBound:     res.Quote.Upper,
		Model:          res.Model,
		Version:        res.Version,
		Message:        "Prediction successful",
	})
}

func (s *Server) handleHousingModelInfo(c *gin.Context) {
	est, err := s.svc.HousingModel(c.Query("version"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	body := gin.H{
		"name":     est.Name(),
		"version":  est.Version(),
		"features": est.FeatureNames(),
	}
	describe(body, est)
	c.JSON(http.StatusOK, body)
}
