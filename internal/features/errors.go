package features

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for synthesis failures. Typed errors below match them via errors.Is.
var (
	// ErrDataUnavailable is returned when the historical series is missing or empty.
	ErrDataUnavailable = errors.New("historical data unavailable")

	// ErrInsufficientHistory is returned when a lag or window needs points
	// earlier than the series covers.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrIncompleteFeatureVector is returned when the schema names a feature
	// the synthesizer did not produce.
	ErrIncompleteFeatureVector = errors.New("incomplete feature vector")
)

// InsufficientHistoryError identifies the lag or window that could not be resolved.
type InsufficientHistoryError struct {
	Feature     string
	Offset      time.Duration // set for lags
	Window      time.Duration // set for rolling windows
	QueryTime   time.Time
	SeriesStart time.Time
}

func (e *InsufficientHistoryError) Error() string {
	if e.Window > 0 {
		return fmt.Sprintf("%s: %s: window %s ending at %s contains no points (series starts %s)",
			ErrInsufficientHistory, e.Feature, e.Window, e.QueryTime.Format(time.RFC3339),
			e.SeriesStart.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s: %s: offset %s from %s reaches before series start %s",
		ErrInsufficientHistory, e.Feature, e.Offset, e.QueryTime.Format(time.RFC3339),
		e.SeriesStart.Format(time.RFC3339))
}

// Is matches ErrInsufficientHistory.
func (e *InsufficientHistoryError) Is(target error) bool {
	return target == ErrInsufficientHistory
}

// IncompleteFeatureVectorError lists schema names with no computed value.
type IncompleteFeatureVectorError struct {
	Missing []string
}

func (e *IncompleteFeatureVectorError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrIncompleteFeatureVector, strings.Join(e.Missing, ", "))
}

// Is matches ErrIncompleteFeatureVector.
func (e *IncompleteFeatureVectorError) Is(target error) bool {
	return target == ErrIncompleteFeatureVector
}
