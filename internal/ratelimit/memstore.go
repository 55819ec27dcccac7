package ratelimit

import (
	"context"
	"sync"
	"time"
)

// entry is one counter with its expiry.
type entry struct {
	count     int64
	expiresAt time.Time
}

// MemStore is an in-process counter store. Expired entries read as absent
// and are swept by a background janitor.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]*entry

	stop chan struct{}
	once sync.Once
}

// NewMemStore creates a memory store and starts its sweep goroutine.
func NewMemStore() *MemStore {
	s := &MemStore{
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Get returns the counter value, 0 when absent or expired.
func (s *MemStore) Get(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return 0, nil
	}
	return e.count, nil
}

// Incr increments the counter, creating it with the given ttl when absent
// or expired.
func (s *MemStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		e = &entry{expiresAt: time.Now().Add(ttl)}
		s.entries[key] = e
	}
	e.count++
	return e.count, nil
}

// Close stops the janitor.
func (s *MemStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

// janitor sweeps expired counters so idle users do not accumulate entries.
func (s *MemStore) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for key, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
