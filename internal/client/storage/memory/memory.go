// Package memory provides an in-process CredentialStore used when no
// database path is configured and as a fake in tests.
package memory

import (
	"context"
	"sync"

	"github.com/iudanet/hoteldesk/internal/client/storage"
)

var _ storage.CredentialStore = (*Store)(nil)

// Store is a map guarded by a RWMutex
type Store struct {
	values map[string]string
	mu     sync.RWMutex
}

// New creates an empty store, optionally seeded with initial values
func New(seed map[string]string) *Store {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &Store{values: values}
}

// Get returns the value stored under key
func (s *Store) Get(_ context.Context, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// Set overwrites the value under key
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Clear removes the listed keys
func (s *Store) Clear(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

// Snapshot returns a copy of all stored values
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
