package lockout

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is the minimum gap between full scans for expired entries.
const sweepEvery = time.Minute

type memoryEntry struct {
	state   State
	expires time.Time
}

// MemoryStore keeps lockout state in process. Entries idle for longer than
// the window are dropped on access, and RecordFailure sweeps out every
// expired entry at most once per sweepEvery.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]*memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key)
	if e == nil {
		return State{}, nil
	}
	return e.state, nil
}

func (s *MemoryStore) RecordFailure(_ context.Context, key string, now time.Time, threshold int, window time.Duration) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()

	e := s.live(key)
	if e == nil {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	e.state.FailedCount++
	e.expires = now.Add(window)

	if e.state.FailedCount >= threshold {
		lockedUntil := now.Add(window).UTC()
		e.state.LockedUntil = &lockedUntil
	}
	return e.state, nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// live returns the entry for key unless it has expired. Callers hold mu.
func (s *MemoryStore) live(key string) *memoryEntry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return nil
	}
	return e
}

// sweep deletes expired entries. Callers hold mu.
func (s *MemoryStore) sweep() {
	now := s.now()
	if now.Sub(s.lastSweep) < sweepEvery {
		return
	}
	s.lastSweep = now

	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
}
