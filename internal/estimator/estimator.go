// Package estimator defines the boundary to pre-trained regression models.
package estimator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"uk-forecast-lab/internal/domain"
)

// Errors returned at the estimator boundary.
var (
	// ErrFeatureMismatch is returned when a vector's names differ from the
	// estimator's declared input schema.
	ErrFeatureMismatch = errors.New("feature mismatch")

	// ErrModelNotFound is returned when no estimator matches a name/version.
	ErrModelNotFound = errors.New("model not found")

	// ErrInvalidModel is returned when a serialized model fails validation.
	ErrInvalidModel = errors.New("invalid model")

	// ErrNonFinite is returned when an estimator produces NaN or Inf.
	ErrNonFinite = errors.New("estimator returned non-finite value")
)

// Estimator is an opaque pre-trained regression model.
type Estimator interface {
	// Name identifies the model family, e.g. "electricity-gbr".
	Name() string

	// Version identifies the trained artifact.
	Version() string

	// FeatureNames is the exact, ordered input schema.
	FeatureNames() []string

	// Predict returns a scalar for a vector already matching FeatureNames.
	Predict(v domain.FeatureVector) (float64, error)
}

// Info is descriptive model metadata for operators.
type Info struct {
	Type       string
	Trees      int
	Categories map[string]int // categorical feature -> known values
	Metadata   map[string]any
}

// Describer is implemented by estimators that can report Info.
type Describer interface {
	Describe() Info
}

// FeatureMismatchError describes how a vector disagrees with a schema.
type FeatureMismatchError struct {
	Missing    []string // in schema, absent from vector
	Extra      []string // in vector, absent from schema
	Misordered bool     // same set, different order
}

func (e *FeatureMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Extra, ", "))
	}
	if e.Misordered {
		parts = append(parts, "features out of order")
	}
	return fmt.Sprintf("%s: %s", ErrFeatureMismatch, strings.Join(parts, "; "))
}

// Is matches ErrFeatureMismatch.
func (e *FeatureMismatchError) Is(target error) bool {
	return target == ErrFeatureMismatch
}

// CheckSchema verifies that v carries exactly expected, in order.
// Vectors are never truncated or padded to fit.
func CheckSchema(expected []string, v domain.FeatureVector) error {
	if len(v.Names) != len(v.Values) {
		return fmt.Errorf("%w: %d names for %d values", ErrFeatureMismatch, len(v.Names), len(v.Values))
	}

	want := make(map[string]struct{}, len(expected))
	for _, n := range expected {
		want[n] = struct{}{}
	}
	have := make(map[string]struct{}, len(v.Names))
	for _, n := range v.Names {
		have[n] = struct{}{}
	}

	mismatch := &FeatureMismatchError{}
	for _, n := range expected {
		if _, ok := have[n]; !ok {
			mismatch.Missing = append(mismatch.Missing, n)
		}
	}
	for _, n := range v.Names {
		if _, ok := want[n]; !ok {
			mismatch.Extra = append(mismatch.Extra, n)
		}
	}
	if len(mismatch.Missing) == 0 && len(mismatch.Extra) == 0 {
		if len(expected) != len(v.Names) {
			// same set with duplicates on one side
			mismatch.Misordered = true
		} else {
			for i := range expected {
				if expected[i] != v.Names[i] {
					mismatch.Misordered = true
					break
				}
			}
		}
	}

	if len(mismatch.Missing) > 0 || len(mismatch.Extra) > 0 || mismatch.Misordered {
		return mismatch
	}
	return nil
}

// Invoke checks v against e's schema and returns the prediction.
func Invoke(e Estimator, v domain.FeatureVector) (float64, error) {
	if err := CheckSchema(e.FeatureNames(), v); err != nil {
		return 0, fmt.Errorf("%s@%s: %w", e.Name(), e.Version(), err)
	}

	y, err := e.Predict(v)
	if err != nil {
		return 0, fmt.Errorf("predict %s@%s: %w", e.Name(), e.Version(), err)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%s@%s: %w", e.Name(), e.Version(), ErrNonFinite)
	}
	return y, nil
}
