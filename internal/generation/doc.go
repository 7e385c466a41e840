// Package generation defines the boundary between the gateway core and
// upstream LLM providers: the Provider capability every provider
// implementation satisfies, prompt construction per artifact type, and
// parsing of provider output into domain artifacts. The orchestrator
// consumes this package; provider implementations live under
// internal/platform.
package generation
