// Package memstore provides the in-process KVStore implementation used as
// the fallback when the shared store is unreachable. It enforces the same
// window semantics as the shared store but only for the local process;
// cross-process coordination is traded for availability.
package memstore

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/lessonforge/lessonforge/internal/store"
)

// entry is one stored value with an optional expiry deadline.
type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// Store is a mutex-guarded map satisfying store.KVStore. Expired entries
// are dropped lazily on access; there is no background janitor, which
// keeps the fallback dependency-free at the cost of holding expired keys
// until the next touch.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is replaceable in tests.
	now func() time.Time
}

// New creates an empty in-process store.
func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Name identifies the implementation for logs and health reporting.
func (s *Store) Name() string { return "memory" }

// Get returns the value stored at key, or store.ErrNotFound if the key
// does not exist or has expired.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || s.expired(e) {
		delete(s.entries, key)
		return "", store.ErrNotFound
	}

	return e.value, nil
}

// Set stores value at key with the given TTL. A zero TTL stores the value
// without expiry.
func (s *Store) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e

	return nil
}

// Incr atomically increments the counter at key and returns the new
// value. A missing or non-numeric value counts as zero.
func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || s.expired(e) {
		e = entry{}
	}

	n, _ := strconv.ParseInt(e.value, 10, 64)
	n++
	e.value = strconv.FormatInt(n, 10)
	s.entries[key] = e

	return n, nil
}

// CheckWindow atomically performs a check-and-increment against a fixed
// admission window. The whole operation runs under the store mutex, so
// concurrent callers sharing a key can never admit more than limit
// requests per window.
func (s *Store) CheckWindow(
	_ context.Context,
	key string,
	limit int64,
	window time.Duration,
) (bool, int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	e, ok := s.entries[key]
	if !ok || s.expired(e) {
		// New window: first request starts the expiry clock.
		s.entries[key] = entry{value: "1", expiresAt: now.Add(window)}
		return 1 <= limit, 1, window, nil
	}

	count, _ := strconv.ParseInt(e.value, 10, 64)
	reset := e.expiresAt.Sub(now)

	if count >= limit {
		// Refused, not clipped: the stored count stays at limit.
		return false, count, reset, nil
	}

	count++
	e.value = strconv.FormatInt(count, 10)
	s.entries[key] = e

	return true, count, reset, nil
}

// Ping always succeeds; the in-process store cannot be unreachable.
func (s *Store) Ping(_ context.Context) error { return nil }

// expired reports whether an entry's deadline has passed.
func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
