package credentials

import (
	"context"
	"sync"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore keeps the pair for the life of the process
type InMemoryStore struct {
	mu   sync.RWMutex
	pair *Pair
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Load(_ context.Context) (*Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pair == nil {
		return nil, nil
	}
	// Copy so callers cannot modify the stored pair
	p := *s.pair
	return &p, nil
}

func (s *InMemoryStore) Save(_ context.Context, pair Pair) error {
	if err := pair.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pair.Empty() {
		s.pair = nil
		return nil
	}
	s.pair = &pair
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = nil
	return nil
}
