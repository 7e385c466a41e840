package store

import (
	"context"
	"time"
)

// KVStore is the storage capability shared by the admission controller
// and the response cache. Implementations must make CheckWindow atomic:
// concurrent callers sharing a key must never observe a window that
// admits more than limit requests.
type KVStore interface {
	// Name identifies the implementation for logs and health reporting.
	Name() string

	// Get returns the value stored at key, or ErrNotFound if the key does
	// not exist or has expired.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key with the given TTL. A zero TTL stores the
	// value without expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Incr atomically increments the counter at key and returns the new
	// value. Used for best-effort hit counting.
	Incr(ctx context.Context, key string) (int64, error)

	// CheckWindow atomically performs a check-and-increment against a
	// fixed admission window. If the current count is below limit the
	// count is incremented and allowed is true; otherwise the count is
	// left untouched and allowed is false. In both cases it returns the
	// count after the operation and the time remaining until the window
	// resets. The first increment of a window starts its expiry clock.
	CheckWindow(ctx context.Context, key string, limit int64, window time.Duration) (allowed bool, count int64, reset time.Duration, err error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
