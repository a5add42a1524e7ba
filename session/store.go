package session

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable is returned when a persistent store cannot be reached.
// The in-memory store never returns it.
var ErrUnavailable = errors.New("session store unavailable")

// Store holds the current session token for the process. Implementations
// must be safe for concurrent use; writes are last-write-wins.
type Store interface {
	// Set replaces the current token. A new login fully replaces any
	// previous session.
	Set(ctx context.Context, token string) error
	// Get returns the current token. ok is false when no session is active.
	Get(ctx context.Context) (token string, ok bool, err error)
	// Clear removes the current token. Clearing an absent session is a no-op.
	Clear(ctx context.Context) error
}

// MemoryStore is the default single-slot store: one mutex-guarded cell,
// no I/O, absent at construction.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Set implements [Store].
func (s *MemoryStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.set = true
	return nil
}

// Get implements [Store].
func (s *MemoryStore) Get(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return "", false, nil
	}
	return s.token, true, nil
}

// Clear implements [Store].
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.set = false
	return nil
}
