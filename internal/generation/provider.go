package generation

import "context"

// TokenUsage is the token accounting for one provider call. When a
// provider omits usage data the orchestrator fills it in with a local
// estimate so that failed or usage-less calls are still accounted for.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the raw outcome of one successful provider call. The
// text has not yet been parsed into an artifact; parsing failures count
// against the provider as malformed responses.
type Completion struct {
	Text  string
	Usage TokenUsage
}

// Provider is the uniform capability every upstream LLM implementation
// satisfies. The orchestrator is agnostic to provider-specific request
// and response shapes beyond this contract.
type Provider interface {
	// ID identifies the provider instance in logs, metrics and health
	// reporting. It matches the configured provider ID, not the vendor.
	ID() string

	// Generate sends the prompt upstream and returns the completion.
	// Implementations must honor ctx cancellation and map their failure
	// modes onto the package sentinel errors (ErrProviderTimeout,
	// ErrProviderError, ErrContentBlocked).
	Generate(ctx context.Context, prompt string) (*Completion, error)
}
