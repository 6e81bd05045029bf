package memory

import (
	"context"
	"sort"
	"sync"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/storage"
)

// HolidayStore is an in-memory implementation of storage.HolidayStore.
type HolidayStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Holiday // keyed by date
}

// NewHolidayStore creates a new in-memory holiday store.
func NewHolidayStore() *HolidayStore {
	return &HolidayStore{
		data: make(map[string]*domain.Holiday),
	}
}

// InsertBulk adds multiple holidays atomically. Fails entire batch on any duplicate.
func (s *HolidayStore) InsertBulk(_ context.Context, holidays []*domain.Holiday) error {
	if len(holidays) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		if h == nil || h.Date == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[h.Date]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[h.Date]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[h.Date] = struct{}{}
	}

	for _, h := range holidays {
		c := *h
		s.data[h.Date] = &c
	}
	return nil
}

// GetAll retrieves every holiday, ordered by date ASC.
func (s *HolidayStore) GetAll(_ context.Context) ([]*domain.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Holiday, 0, len(s.data))
	for _, h := range s.data {
		c := *h
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result, nil
}

var _ storage.HolidayStore = (*HolidayStore)(nil)
