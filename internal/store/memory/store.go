// Package memory is a process-local store for development and tests.
package memory

import (
	"context"
	"sync"

	apperrors "github.com/utafrali/gomarketplace/pkg/errors"
)

// Store keeps payloads in a map keyed by storage key. Several Store values
// created with the same Backing share state, which is how tests simulate a
// process restart over the same storage.
type Store struct {
	backing *Backing
	key     string
}

// Backing is the shared map behind one or more Stores.
type Backing struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewBacking creates empty shared storage.
func NewBacking() *Backing {
	return &Backing{data: make(map[string][]byte)}
}

// New creates a Store over backing. A nil backing gets a private one.
func New(backing *Backing, key string) *Store {
	if backing == nil {
		backing = NewBacking()
	}
	return &Store{backing: backing, key: key}
}

// Load returns a copy of the stored payload.
func (s *Store) Load(_ context.Context) ([]byte, error) {
	s.backing.mu.RLock()
	defer s.backing.mu.RUnlock()

	data, ok := s.backing.data[s.key]
	if !ok {
		return nil, apperrors.NotFound("cart", s.key)
	}
	return append([]byte(nil), data...), nil
}

// Save stores a copy of data.
func (s *Store) Save(_ context.Context, data []byte) error {
	s.backing.mu.Lock()
	defer s.backing.mu.Unlock()

	s.backing.data[s.key] = append([]byte(nil), data...)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Put seeds raw bytes under key, bypassing any encoding.
func (b *Backing) Put(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = append([]byte(nil), data...)
}

// Get returns the raw bytes under key.
func (b *Backing) Get(key string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}
