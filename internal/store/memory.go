// Package store persists computation sessions. The in-memory implementation
// is the default and the test double; the Postgres one is selected by
// config.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/astromitra/horoscope-engine/internal/astro"
)

// ErrNotFound is returned when no session exists for an id.
var ErrNotFound = errors.New("no session with given id")

// MemoryStore is a concurrency-safe in-memory session store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*astro.Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*astro.Session),
	}
}

// CreateSession stores a fresh session for the descriptor and returns its id.
func (s *MemoryStore) CreateSession(_ context.Context, d astro.BirthDescriptor) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[id] = &astro.Session{
		ID:         id,
		Descriptor: d,
		Status:     astro.StatusCreated,
		CreatedAt:  time.Now().UTC(),
	}
	return id, nil
}

// UpdateSession applies the patch to the stored session.
func (s *MemoryStore) UpdateSession(_ context.Context, id string, patch astro.SessionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.data[id]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(session)
	return nil
}

// GetSession returns a copy of the session for id.
func (s *MemoryStore) GetSession(_ context.Context, id string) (astro.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[id]
	if !ok {
		return astro.Session{}, ErrNotFound
	}
	return *session, nil
}

// Ping always succeeds; the store lives in process memory.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
