package store

import "errors"

// Common errors returned by KVStore implementations.
var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("key not found")

	// ErrUnavailable is returned when the backing store cannot be reached
	// within the operation's deadline. The failover handle treats this as
	// a signal to switch to the fallback store.
	ErrUnavailable = errors.New("store unavailable")
)
