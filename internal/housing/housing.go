// Package housing prices residential property sales with a pre-trained estimator.
package housing

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/estimator"
	"uk-forecast-lab/internal/features"
)

// Input feature names of the housing model.
const (
	FeaturePropertyType = "property_type_label"
	FeatureIsNewBuild   = "is_new_build"
	FeatureTenure       = "tenure_label"
	FeatureCounty       = "county"
	FeatureDistrict     = "district"
	FeatureTownCity     = "town_city"
	FeatureYear         = "year"
	FeatureMonth        = "month"
	FeatureQuarter      = "quarter"
)

// BandFraction is the relative width of the quoted price band.
const BandFraction = 0.10

// ErrInvalidQuery is returned for property queries that fail validation.
var ErrInvalidQuery = errors.New("invalid property query")

// Estimator is a housing model that can encode categorical inputs.
type Estimator interface {
	estimator.Estimator
	Category(feature, value string) float64
	IsCategorical(feature string) bool
}

// Quote is a priced property.
type Quote struct {
	Price float64
	Lower float64
	Upper float64
}

// Normalize validates q and returns a copy with location fields upper-cased
// and a zero quarter derived from the month.
func Normalize(q domain.PropertyQuery) (domain.PropertyQuery, error) {
	q.PropertyType = strings.TrimSpace(q.PropertyType)
	q.Tenure = strings.TrimSpace(q.Tenure)
	q.County = strings.ToUpper(strings.TrimSpace(q.County))
	q.District = strings.ToUpper(strings.TrimSpace(q.District))
	q.TownCity = strings.ToUpper(strings.TrimSpace(q.TownCity))

	if !slices.Contains(domain.PropertyTypes, q.PropertyType) {
		return q, fmt.Errorf("%w: property type %q not in %v", ErrInvalidQuery, q.PropertyType, domain.PropertyTypes)
	}
	if !slices.Contains(domain.Tenures, q.Tenure) {
		return q, fmt.Errorf("%w: tenure %q not in %v", ErrInvalidQuery, q.Tenure, domain.Tenures)
	}
	if q.County == "" || q.District == "" || q.TownCity == "" {
		return q, fmt.Errorf("%w: county, district and town_city are required", ErrInvalidQuery)
	}
	if q.Year < 1900 || q.Year > 2100 {
		return q, fmt.Errorf("%w: year %d out of range", ErrInvalidQuery, q.Year)
	}
	if q.Month < 1 || q.Month > 12 {
		return q, fmt.Errorf("%w: month %d out of range", ErrInvalidQuery, q.Month)
	}

	quarter := (q.Month-1)/3 + 1
	if q.Quarter == 0 {
		q.Quarter = quarter
	}
	if q.Quarter != quarter {
		return q, fmt.Errorf("%w: quarter %d does not contain month %d", ErrInvalidQuery, q.Quarter, q.Month)
	}
	return q, nil
}

// Encode builds est's input vector for a normalized query.
func Encode(q domain.PropertyQuery, est Estimator) (domain.FeatureVector, error) {
	labels := map[string]string{
		FeaturePropertyType: q.PropertyType,
		FeatureTenure:       q.Tenure,
		FeatureCounty:       q.County,
		FeatureDistrict:     q.District,
		FeatureTownCity:     q.TownCity,
	}
	numbers := map[string]float64{
		FeatureIsNewBuild: 0,
		FeatureYear:       float64(q.Year),
		FeatureMonth:      float64(q.Month),
		FeatureQuarter:    float64(q.Quarter),
	}
	if q.IsNewBuild {
		numbers[FeatureIsNewBuild] = 1
	}

	names := est.FeatureNames()
	v := domain.FeatureVector{Names: names, Values: make([]float64, len(names))}
	var missing []string
	for i, name := range names {
		if label, ok := labels[name]; ok {
			if !est.IsCategorical(name) {
				return domain.FeatureVector{}, fmt.Errorf("encode %s: model has no categories for it", name)
			}
			v.Values[i] = est.Category(name, label)
			continue
		}
		if x, ok := numbers[name]; ok {
			v.Values[i] = x
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return domain.FeatureVector{}, &features.IncompleteFeatureVectorError{Missing: missing}
	}
	return v, nil
}

// Predict validates q, encodes it and prices it with est.
func Predict(est Estimator, q domain.PropertyQuery) (Quote, domain.FeatureVector, error) {
	q, err := Normalize(q)
	if err != nil {
		return Quote{}, domain.FeatureVector{}, err
	}
	v, err := Encode(q, est)
	if err != nil {
		return Quote{}, domain.FeatureVector{}, err
	}
	price, err := estimator.Invoke(est, v)
	if err != nil {
		return Quote{}, v, err
	}
	return Quote{
		Price: price,
		Lower: price * (1 - BandFraction),
		Upper: price * (1 + BandFraction),
	}, v, nil
}
