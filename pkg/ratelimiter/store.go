package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// Record is the persisted state of one identity's failed logins.
type Record struct {
	Count       int
	LastAttempt time.Time
	Blocked     bool
}

func (r Record) isZero() bool {
	return r.Count == 0 && !r.Blocked
}

// Store keeps login attempt records. Update runs fn against the current
// record (zero value when absent) and persists the result atomically with
// respect to other Update calls on the same key. A zero record is deleted.
type Store interface {
	Update(ctx context.Context, key string, ttl time.Duration, fn func(rec *Record)) (Record, error)
	Delete(ctx context.Context, key string) error
}

// clockedStore is a Store that expires records on its own clock.
type clockedStore interface {
	setClock(now func() time.Time)
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// memoryStore is the process-local fallback used when Redis is not configured.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *memoryStore) setClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *memoryStore) Update(_ context.Context, key string, ttl time.Duration, fn func(rec *Record)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if ok && !entry.expiresAt.After(now) {
		ok = false
	}

	var rec Record
	if ok {
		rec = entry.rec
	}

	fn(&rec)

	if rec.isZero() {
		delete(s.entries, key)
		return rec, nil
	}

	s.entries[key] = memoryEntry{rec: rec, expiresAt: now.Add(ttl)}
	return rec, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
