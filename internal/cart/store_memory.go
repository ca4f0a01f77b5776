package cart

import (
	"context"
	"sync"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string][]byte{}}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }
func (s *MemStore) Close() error                   { return nil }

func (s *MemStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true, nil
}

func (s *MemStore) Save(ctx context.Context, key string, payload []byte) error {
	b := make([]byte, len(payload))
	copy(b, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = b
	return nil
}
