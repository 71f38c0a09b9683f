package store

import (
	"context"
	"sync"

	"github.com/Mavton23/rentix/internal/domain"
)

// MemoryStore is a process-local store for ephemeral sessions.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *MemoryStore) SetAll(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.entries[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// TokenReader exposes the persisted token of any KeyValueStore as a domain.TokenSource.
type TokenReader struct {
	Store domain.KeyValueStore
}

// Token returns the stored bearer token. Read failures count as "no token".
func (r TokenReader) Token(ctx context.Context) (string, bool) {
	v, ok, err := r.Store.Get(ctx, domain.KeyToken)
	if err != nil || !ok || v == "" {
		return "", false
	}
	return v, true
}
