package orchestrator

import "errors"

// Common errors returned by Generate.
var (
	// ErrNoProviders is returned when no provider is configured or every
	// configured provider is cooling down.
	ErrNoProviders = errors.New("no provider available")

	// ErrProvidersExhausted is returned when every tried provider failed.
	ErrProvidersExhausted = errors.New("all providers exhausted")

	// ErrDeadlineExceeded is returned when the orchestration deadline
	// expires before any provider succeeds. Fatal for the request; the
	// gateway does not retry it.
	ErrDeadlineExceeded = errors.New("orchestration deadline exceeded")
)
