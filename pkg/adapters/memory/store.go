package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/viridien/triage/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the state in memory. The state is serialized so callers
// can't mutate stored snapshots through retained pointers, mirroring what a
// durable backend would do.
func (s *Store) Save(ctx context.Context, threadID string, state *domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[threadID] = data
	return nil
}

// Load retrieves the state from memory.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.State, error) {
	s.mu.RLock()
	data, ok := s.data[threadID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrThreadNotFound
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, threadID)
	return nil
}

// List returns stored thread ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]string, 0, len(s.data))
	for id := range s.data {
		threads = append(threads, id)
	}
	return threads, nil
}
