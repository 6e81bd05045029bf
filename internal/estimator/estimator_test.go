package estimator

import (
	"errors"
	"math"
	"testing"

	"uk-forecast-lab/internal/domain"
)

const tinyModel = `{
  "name": "tiny",
  "version": "1.0.0",
  "model_type": "Gradient Boosting Regressor",
  "feature_names": ["hour", "county"],
  "categories": {"county": ["GREATER LONDON", "KENT"]},
  "base_score": 100,
  "learning_rate": 0.5,
  "trees": [
    {"nodes": [
      {"feature": 0, "threshold": 11.5, "left": 1, "right": 2, "default_left": true},
      {"leaf": true, "value": -10},
      {"leaf": true, "value": 20}
    ]},
    {"nodes": [
      {"feature": 1, "threshold": 0.5, "left": 1, "right": 2, "default_left": false},
      {"leaf": true, "value": 40},
      {"leaf": true, "value": 4}
    ]}
  ],
  "metadata": {"training_data": "synthetic"}
}`

func mustParse(t *testing.T, data string) *TreeEnsemble {
	t.Helper()
	m, err := ParseTreeEnsemble([]byte(data))
	if err != nil {
		t.Fatalf("ParseTreeEnsemble: %v", err)
	}
	return m
}

func vec(names []string, values ...float64) domain.FeatureVector {
	return domain.FeatureVector{Names: names, Values: values}
}

func TestTreeEnsemble_Predict(t *testing.T) {
	m := mustParse(t, tinyModel)
	names := m.FeatureNames()

	tests := []struct {
		name   string
		hour   float64
		county float64
		want   float64
	}{
		{"morning london", 9, 0, 100 + 0.5*(-10+40)},
		{"afternoon kent", 15, 1, 100 + 0.5*(20+4)},
		{"threshold goes left", 11.5, 1, 100 + 0.5*(-10+4)},
		{"nan hour defaults left", math.NaN(), 0, 100 + 0.5*(-10+40)},
		{"nan county defaults right", 15, math.NaN(), 100 + 0.5*(20+4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Invoke(m, vec(names, tt.hour, tt.county))
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTreeEnsemble_Category(t *testing.T) {
	m := mustParse(t, tinyModel)

	if got := m.Category("county", "KENT"); got != 1 {
		t.Errorf("KENT = %v, want 1", got)
	}
	if got := m.Category("county", "ATLANTIS"); !math.IsNaN(got) {
		t.Errorf("unknown county = %v, want NaN", got)
	}
	if !m.IsCategorical("county") || m.IsCategorical("hour") {
		t.Error("IsCategorical mismatch")
	}
}

func TestParseTreeEnsemble_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad json", `{`},
		{"no name", `{"feature_names":["a"],"learning_rate":1,"trees":[]}`},
		{"no features", `{"name":"x","learning_rate":1,"trees":[]}`},
		{"duplicate feature", `{"name":"x","feature_names":["a","a"],"learning_rate":1}`},
		{"zero learning rate", `{"name":"x","feature_names":["a"],"learning_rate":0}`},
		{"empty tree", `{"name":"x","feature_names":["a"],"learning_rate":1,"trees":[{"nodes":[]}]}`},
		{"feature out of range", `{"name":"x","feature_names":["a"],"learning_rate":1,"trees":[{"nodes":[{"feature":3,"left":1,"right":2},{"leaf":true},{"leaf":true}]}]}`},
		{"backward child", `{"name":"x","feature_names":["a"],"learning_rate":1,"trees":[{"nodes":[{"feature":0,"left":0,"right":1},{"leaf":true}]}]}`},
		{"unknown categorical", `{"name":"x","feature_names":["a"],"learning_rate":1,"categories":{"b":["z"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTreeEnsemble([]byte(tt.data))
			if !errors.Is(err, ErrInvalidModel) {
				t.Errorf("err = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestCheckSchema(t *testing.T) {
	schema := []string{"a", "b", "c"}

	tests := []struct {
		name           string
		names          []string
		wantErr        bool
		wantMissing    []string
		wantExtra      []string
		wantMisordered bool
	}{
		{name: "exact", names: []string{"a", "b", "c"}},
		{name: "missing", names: []string{"a", "b"}, wantErr: true, wantMissing: []string{"c"}},
		{name: "extra", names: []string{"a", "b", "c", "d"}, wantErr: true, wantExtra: []string{"d"}},
		{name: "misordered", names: []string{"b", "a", "c"}, wantErr: true, wantMisordered: true},
		{name: "swapped name", names: []string{"a", "b", "x"}, wantErr: true, wantMissing: []string{"c"}, wantExtra: []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := domain.FeatureVector{Names: tt.names, Values: make([]float64, len(tt.names))}
			err := CheckSchema(schema, v)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrFeatureMismatch) {
				t.Fatalf("err = %v, want ErrFeatureMismatch", err)
			}
			var mm *FeatureMismatchError
			if !errors.As(err, &mm) {
				t.Fatalf("err is not *FeatureMismatchError: %T", err)
			}
			if !equalStrings(mm.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", mm.Missing, tt.wantMissing)
			}
			if !equalStrings(mm.Extra, tt.wantExtra) {
				t.Errorf("Extra = %v, want %v", mm.Extra, tt.wantExtra)
			}
			if mm.Misordered != tt.wantMisordered {
				t.Errorf("Misordered = %v, want %v", mm.Misordered, tt.wantMisordered)
			}
		})
	}
}

func TestCheckSchema_LengthMismatch(t *testing.T) {
	v := domain.FeatureVector{Names: []string{"a"}, Values: []float64{1, 2}}
	if err := CheckSchema([]string{"a"}, v); !errors.Is(err, ErrFeatureMismatch) {
		t.Errorf("err = %v, want ErrFeatureMismatch", err)
	}
}

type constEstimator struct {
	y float64
}

func (c constEstimator) Name() string           { return "const" }
func (c constEstimator) Version() string        { return "v" }
func (c constEstimator) FeatureNames() []string { return []string{"a"} }
func (c constEstimator) Predict(domain.FeatureVector) (float64, error) {
	return c.y, nil
}

func TestInvoke_NonFinite(t *testing.T) {
	for _, y := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Invoke(constEstimator{y: y}, vec([]string{"a"}, 1))
		if !errors.Is(err, ErrNonFinite) {
			t.Errorf("y=%v: err = %v, want ErrNonFinite", y, err)
		}
	}
}

func TestInvoke_RejectsBeforePredict(t *testing.T) {
	m := mustParse(t, tinyModel)
	_, err := Invoke(m, vec([]string{"county", "hour"}, 0, 9))
	if !errors.Is(err, ErrFeatureMismatch) {
		t.Errorf("err = %v, want ErrFeatureMismatch", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	v1 := mustParse(t, tinyModel)
	v2 := mustParse(t, tinyModel)
	v2.ModelVersion = "2.0.0"

	if err := r.Register(v1); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(v2); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(v1); err == nil {
		t.Error("duplicate registration accepted")
	}

	latest, err := r.Get("tiny", "")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Version() != "2.0.0" {
		t.Errorf("latest = %s, want 2.0.0", latest.Version())
	}

	pinned, err := r.Get("tiny", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if pinned.Version() != "1.0.0" {
		t.Errorf("pinned = %s, want 1.0.0", pinned.Version())
	}

	if _, err := r.Get("tiny", "9"); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("unknown version err = %v", err)
	}
	if _, err := r.Get("other", ""); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("unknown model err = %v", err)
	}

	if got := r.Versions("tiny"); !equalStrings(got, []string{"1.0.0", "2.0.0"}) {
		t.Errorf("Versions = %v", got)
	}
	if got := r.Names(); !equalStrings(got, []string{"tiny"}) {
		t.Errorf("Names = %v", got)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
