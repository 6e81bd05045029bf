package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"uk-forecast-lab/internal/estimator"
	"uk-forecast-lab/internal/features"
	"uk-forecast-lab/internal/forecast"
	"uk-forecast-lab/internal/housing"
	"uk-forecast-lab/internal/storage"
)

// errInvalidInput marks malformed request bodies and parameters.
var errInvalidInput = errors.New("invalid input")

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// classify maps an error to an HTTP status and a stable error kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidInput),
		errors.Is(err, forecast.ErrInvalidRequest),
		errors.Is(err, housing.ErrInvalidQuery),
		errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, features.ErrDataUnavailable):
		return http.StatusServiceUnavailable, "data_unavailable"
	case errors.Is(err, features.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity, "insufficient_history"
	case errors.Is(err, estimator.ErrFeatureMismatch):
		return http.StatusInternalServerError, "feature_mismatch"
	case errors.Is(err, features.ErrIncompleteFeatureVector):
		return http.StatusInternalServerError, "incomplete_feature_vector"
	case errors.Is(err, estimator.ErrModelNotFound):
		return http.StatusNotFound, "model_not_found"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: kind, Detail: err.Error()})
}

// naiveLayouts are accepted for timestamps without a zone offset.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseTime accepts RFC3339 or a naive ISO-8601 timestamp, interpreting the
// latter in loc. Fractional seconds are allowed after the seconds field.
func parseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp is required", errInvalidInput)
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid datetime format %q", errInvalidInput, value)
}
