package memory

import (
	"context"
	"sort"
	"sync"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/storage"
)

// PredictionStore is an in-memory implementation of storage.PredictionStore.
type PredictionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PredictionRecord // keyed by id
}

// NewPredictionStore creates a new in-memory prediction store.
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{
		data: make(map[string]*domain.PredictionRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *PredictionStore) Insert(_ context.Context, r *domain.PredictionRecord) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.ID] = copyRecord(r)
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *PredictionStore) GetByID(_ context.Context, id string) (*domain.PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRecord(r), nil
}

// GetRecent retrieves up to limit records, newest first.
func (s *PredictionStore) GetRecent(_ context.Context, limit int) ([]*domain.PredictionRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PredictionRecord, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyRecord(r))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copyRecord(r *domain.PredictionRecord) *domain.PredictionRecord {
	c := *r
	if r.Features != nil {
		c.Features = make(map[string]float64, len(r.Features))
		for k, v := range r.Features {
			c.Features[k] = v
		}
	}
	return &c
}

var _ storage.PredictionStore = (*PredictionStore)(nil)
