package estimator

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"uk-forecast-lab/internal/domain"
)

// Node is one node of a regression tree. Internal nodes send x <= Threshold
// to Left; NaN inputs follow DefaultLeft.
type Node struct {
	Leaf        bool    `json:"leaf,omitempty"`
	Value       float64 `json:"value,omitempty"`
	Feature     int     `json:"feature,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
	Left        int     `json:"left,omitempty"`
	Right       int     `json:"right,omitempty"`
	DefaultLeft bool    `json:"default_left,omitempty"`
}

// Tree is a flat node array rooted at index 0; children always follow their parent.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// TreeEnsemble is a gradient-boosted regression tree model exported to JSON.
// prediction = BaseScore + LearningRate * sum(tree outputs).
type TreeEnsemble struct {
	ModelName    string              `json:"name"`
	ModelVersion string              `json:"version"`
	ModelType    string              `json:"model_type"`
	Features     []string            `json:"feature_names"`
	Categories   map[string][]string `json:"categories,omitempty"`
	BaseScore    float64             `json:"base_score"`
	LearningRate float64             `json:"learning_rate"`
	Trees        []Tree              `json:"trees"`
	Metadata     map[string]any      `json:"metadata,omitempty"`

	categoryIndex map[string]map[string]int
}

// LoadTreeEnsemble reads and validates a model file.
func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	m, err := ParseTreeEnsemble(data)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return m, nil
}

// ParseTreeEnsemble decodes and validates a JSON model.
func ParseTreeEnsemble(data []byte) (*TreeEnsemble, error) {
	var m TreeEnsemble
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidModel, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	m.categoryIndex = make(map[string]map[string]int, len(m.Categories))
	for feature, values := range m.Categories {
		idx := make(map[string]int, len(values))
		for i, v := range values {
			idx[v] = i
		}
		m.categoryIndex[feature] = idx
	}
	return &m, nil
}

func (m *TreeEnsemble) validate() error {
	if m.ModelName == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidModel)
	}
	if len(m.Features) == 0 {
		return fmt.Errorf("%w: feature_names is empty", ErrInvalidModel)
	}
	seen := make(map[string]struct{}, len(m.Features))
	for _, f := range m.Features {
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: duplicate feature %s", ErrInvalidModel, f)
		}
		seen[f] = struct{}{}
	}
	for f := range m.Categories {
		if _, ok := seen[f]; !ok {
			return fmt.Errorf("%w: categories for unknown feature %s", ErrInvalidModel, f)
		}
	}
	if m.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate must be positive", ErrInvalidModel)
	}

	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidModel, ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(m.Features) {
				return fmt.Errorf("%w: tree %d node %d: feature index %d out of range", ErrInvalidModel, ti, ni, n.Feature)
			}
			for _, child := range []int{n.Left, n.Right} {
				if child <= ni || child >= len(t.Nodes) {
					return fmt.Errorf("%w: tree %d node %d: child %d out of range", ErrInvalidModel, ti, ni, child)
				}
			}
		}
	}
	return nil
}

// Name implements Estimator.
func (m *TreeEnsemble) Name() string { return m.ModelName }

// Version implements Estimator.
func (m *TreeEnsemble) Version() string { return m.ModelVersion }

// Describe implements Describer.
func (m *TreeEnsemble) Describe() Info {
	cats := make(map[string]int, len(m.Categories))
	for f, values := range m.Categories {
		cats[f] = len(values)
	}
	return Info{Type: m.ModelType, Trees: len(m.Trees), Categories: cats, Metadata: m.Metadata}
}

// FeatureNames implements Estimator.
func (m *TreeEnsemble) FeatureNames() []string {
	out := make([]string, len(m.Features))
	copy(out, m.Features)
	return out
}

// Category returns the encoded value of a categorical input. Unknown values
// encode as NaN so trees follow their default branch.
func (m *TreeEnsemble) Category(feature, value string) float64 {
	idx, ok := m.categoryIndex[feature][value]
	if !ok {
		return math.NaN()
	}
	return float64(idx)
}

// IsCategorical reports whether feature has a category dictionary.
func (m *TreeEnsemble) IsCategorical(feature string) bool {
	_, ok := m.categoryIndex[feature]
	return ok
}

// Predict implements Estimator.
func (m *TreeEnsemble) Predict(v domain.FeatureVector) (float64, error) {
	if len(v.Values) != len(m.Features) {
		return 0, fmt.Errorf("%w: expected %d values, got %d", ErrFeatureMismatch, len(m.Features), len(v.Values))
	}

	sum := 0.0
	for _, t := range m.Trees {
		sum += t.eval(v.Values)
	}
	return m.BaseScore + m.LearningRate*sum, nil
}

func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		v := x[n.Feature]
		switch {
		case math.IsNaN(v):
			if n.DefaultLeft {
				i = n.Left
			} else {
				i = n.Right
			}
		case v <= n.Threshold:
			i = n.Left
		default:
			i = n.Right
		}
	}
}

var _ Estimator = (*TreeEnsemble)(nil)
