package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Ensure TransientStore implements the interface.
var _ driven.TransientStore = (*TransientStore)(nil)

// TransientStore is an in-memory implementation of driven.TransientStore.
type TransientStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewTransientStore creates a new in-memory transient store.
func NewTransientStore() *TransientStore {
	return &TransientStore{
		values: make(map[string][]byte),
	}
}

// Put stores a copy of value under key.
func (s *TransientStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// Get returns a copy of the value under key.
func (s *TransientStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Delete removes key.
func (s *TransientStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
