package memory

import (
	"context"
	"sync"

	"github.com/lexhive/juris-cli/internal/ports"
)

// Store is the in-memory cache backend. Expiry is the reader's decision,
// so entries linger until the service deletes them or Purge runs.
type Store struct {
	mu      sync.RWMutex
	entries map[string]ports.CacheEntry
}

var _ ports.CacheStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{entries: make(map[string]ports.CacheEntry)}
}

func (s *Store) Get(_ context.Context, key string) (ports.CacheEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]

	return entry, ok, nil
}

func (s *Store) Set(_ context.Context, key string, entry ports.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry

	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
