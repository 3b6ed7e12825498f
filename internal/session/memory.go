package session

import (
	"context"
	"sync"
)

// MemoryStore keeps full per-key history in memory. Used by the web widget
// (sessions are ephemeral by nature) and by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Turn)}
}

// Recent returns the last n turns for key in chronological order.
func (s *MemoryStore) Recent(_ context.Context, key string, n int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[key]
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append adds turns to the end of the key's history.
func (s *MemoryStore) Append(_ context.Context, key string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = append(s.sessions[key], turns...)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
