package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/i474232898/arso-weather-bridge/internal/weather"
)

var (
	// ErrNotFound is returned when no state is published for an entity.
	ErrNotFound = errors.New("no state for entity")
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
// It keeps only the latest state of each entity.
type MemoryStore struct {
	mu sync.RWMutex

	// key: entity ID
	data map[string]weather.EntityState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]weather.EntityState),
	}
}

// Save replaces the published state of an entity.
func (s *MemoryStore) Save(state weather.EntityState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[state.EntityID] = state
}

// Get returns the current state of an entity.
func (s *MemoryStore) Get(entityID string) (weather.EntityState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[entityID]
	if !ok {
		return weather.EntityState{}, ErrNotFound
	}
	return state, nil
}

// List returns every published state ordered by entity ID.
func (s *MemoryStore) List() []weather.EntityState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.EntityState, 0, len(s.data))
	for _, state := range s.data {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// Delete drops the state of an entity. Unknown IDs are ignored.
func (s *MemoryStore) Delete(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, entityID)
}
