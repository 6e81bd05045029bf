package estimator

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds estimators by name and version.
type Registry struct {
	mu     sync.RWMutex
	models map[string][]Estimator // registration order, latest last
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string][]Estimator)}
}

// Register adds e. A second estimator with the same name and version is rejected.
func (r *Registry) Register(e Estimator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.models[e.Name()] {
		if existing.Version() == e.Version() {
			return fmt.Errorf("register %s@%s: already registered", e.Name(), e.Version())
		}
	}
	r.models[e.Name()] = append(r.models[e.Name()], e)
	return nil
}

// Get returns the estimator for name and version. An empty version selects the
// most recently registered one.
func (r *Registry) Get(name, version string) (Estimator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.models[name]
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	if version == "" {
		return versions[len(versions)-1], nil
	}
	for _, e := range versions {
		if e.Version() == version {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s@%s", ErrModelNotFound, name, version)
}

// Versions lists the registered versions of name in registration order.
func (r *Registry) Versions(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.models[name]))
	for _, e := range r.models[name] {
		out = append(out, e.Version())
	}
	return out
}

// Names lists registered model names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.models))
	for n := range r.models {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
