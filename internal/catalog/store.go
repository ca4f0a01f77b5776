package catalog

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Store holds the catalog snapshot served by this process. It stays empty
// when the load fails; nothing retries automatically.
type Store struct {
	mu      sync.RWMutex
	cat     *Catalog
	loadErr error
}

func NewStore() *Store {
	return &Store{cat: Empty(), loadErr: ErrNotLoaded}
}

// NewStoreWith is a loaded store, mostly for tests.
func NewStoreWith(c *Catalog) *Store {
	return &Store{cat: c}
}

func (s *Store) Load(ctx context.Context, l *Loader, log *zap.Logger) error {
	c, err := l.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.cat = Empty()
		s.loadErr = fmt.Errorf("%w: %v", ErrNotLoaded, err)
		if log != nil {
			log.Error("catalog load failed", zap.String("source", l.Location), zap.Error(err))
		}
		return s.loadErr
	}

	s.cat = c
	s.loadErr = nil
	if log != nil {
		log.Info("catalog loaded", zap.String("source", l.Location), zap.Int("products", c.Len()))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Snapshot returns the current catalog, or the load error.
func (s *Store) Snapshot() (*Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return Empty(), s.loadErr
	}
	return s.cat, nil
}
