package memory

import (
	"context"
	"sync"

	"tally/internal/blob"
)

// Store keeps values in process memory. Useful for tests and throwaway
// sessions.
type Store struct {
	mu     sync.Mutex
	values map[string][]byte
}

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// NewWith seeds the store with a single key.
func NewWith(key string, value []byte) *Store {
	s := New()
	s.values[key] = append([]byte(nil), value...)
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, blob.ErrNotExist
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}
