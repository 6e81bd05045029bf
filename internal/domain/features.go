package domain

// FeatureVector is an ordered set of named numeric inputs for one estimator call.
// Names and Values are parallel slices; the order is defined by the estimator schema.
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Len returns the number of features.
func (v FeatureVector) Len() int {
	return len(v.Names)
}

// Get returns the value of a named feature.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector as a name -> value map.
func (v FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.Names))
	for i, n := range v.Names {
		m[n] = v.Values[i]
	}
	return m
}
