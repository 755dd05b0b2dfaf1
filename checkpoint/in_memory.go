package checkpoint

import (
	"context"
	"sync"

	"github.com/agentloom/agentloom/core"
)

// InMemoryStore is a volatile Store keeping checkpoints in a process-local
// map. It is safe for concurrent access and suited to tests and development.
// States are cloned on both save and load so callers never share mutable
// backing arrays with the store.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]*core.State
}

// NewInMemoryStore constructs an empty in-memory checkpoint store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]*core.State)}
}

// Load implements Store.
func (s *InMemoryStore) Load(_ context.Context, threadID string) (*core.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	return st.Clone(), nil
}

// Save implements Store.
func (s *InMemoryStore) Save(_ context.Context, threadID string, state *core.State) error {
	clone := state.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[threadID] = clone
	return nil
}

// Len returns the number of stored checkpoints.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Interface compliance.
var _ Store = (*InMemoryStore)(nil)
