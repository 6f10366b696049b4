// Package session keeps live onboarding wizard sessions in process memory.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/onboarding"
)

type entry struct {
	mu         sync.Mutex
	session    *onboarding.Session
	lastAccess atomic.Int64
	deleted    atomic.Bool
}

// MemoryStore is a port.SessionStore backed by a map. Calls on one session
// are serialized; different sessions proceed in parallel.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Save registers or replaces a session
func (s *MemoryStore) Save(ctx context.Context, session *onboarding.Session) error {
	e := &entry{session: session}
	e.lastAccess.Store(s.now().UnixNano())

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[session.ID]; ok {
		old.deleted.Store(true)
	}
	s.entries[session.ID] = e
	return nil
}

// WithSession runs fn on a working copy of the session and keeps the copy
// only when fn succeeds.
func (s *MemoryStore) WithSession(ctx context.Context, id string, fn func(session *onboarding.Session) error) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return port.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted.Load() {
		return port.ErrSessionNotFound
	}
	e.lastAccess.Store(s.now().UnixNano())

	work := *e.session
	if err := fn(&work); err != nil {
		return err
	}
	*e.session = work
	return nil
}

// Delete drops a session
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return port.ErrSessionNotFound
	}
	e.deleted.Store(true)
	delete(s.entries, id)
	return nil
}

// Sweep drops sessions not touched within idle
func (s *MemoryStore) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := s.now().Add(-idle).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if e.lastAccess.Load() < cutoff {
			e.deleted.Store(true)
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ port.SessionStore = (*MemoryStore)(nil)
