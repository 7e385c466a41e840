package generation

import "errors"

// Common errors returned by provider implementations and parsing.
var (
	// ErrProviderTimeout is returned when a single provider attempt does
	// not complete within its deadline.
	ErrProviderTimeout = errors.New("provider call timed out")

	// ErrProviderError is returned for explicit upstream failures
	// (transport errors, non-2xx responses, API error payloads).
	ErrProviderError = errors.New("provider call failed")

	// ErrMalformedArtifact is returned when the provider responded but
	// its output cannot be parsed into a valid artifact.
	ErrMalformedArtifact = errors.New("malformed artifact in provider response")

	// ErrContentBlocked is returned when the provider refuses the prompt
	// due to safety filtering. Treated as a per-attempt failure like any
	// other provider error.
	ErrContentBlocked = errors.New("content blocked by provider safety filters")

	// ErrInvalidConfig is returned when a provider configuration is invalid.
	ErrInvalidConfig = errors.New("invalid provider configuration")
)
