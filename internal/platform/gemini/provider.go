package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/generation"
	"github.com/lessonforge/lessonforge/internal/redact"
)

// Provider implements generation.Provider using Google's Gemini API.
type Provider struct {
	id     string
	model  string
	client *genai.Client
	logger *slog.Logger
}

// New creates a Gemini provider from configuration.
//
// Parameters:
//   - ctx: Context for client initialization, which can be used for cancellation
//   - cfg: Provider configuration containing the API key and model name
//   - logger: A structured logger for operation logging
//
// Returns:
//   - A properly initialized Provider or an error if initialization fails
func New(ctx context.Context, cfg config.ProviderConfig, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Provider{
		id:     cfg.ID,
		model:  cfg.Model,
		client: client,
		logger: logger.With(slog.String("component", "gemini_provider"), slog.String("provider_id", cfg.ID)),
	}, nil
}

// ID identifies this provider instance.
func (p *Provider) ID() string { return p.id }

// Generate sends the prompt to Gemini and returns the completion text
// with token usage. Failure modes are mapped onto the generation package
// sentinel errors so the orchestrator can treat providers uniformly.
func (p *Provider) Generate(ctx context.Context, prompt string) (*generation.Completion, error) {
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), genCfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: gemini: %s", generation.ErrProviderTimeout, redact.Error(err))
		}
		p.logger.ErrorContext(ctx, "gemini API call failed",
			slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("%w: gemini: %s", generation.ErrProviderError, redact.Error(err))
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: gemini: no candidates in response", generation.ErrProviderError)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: gemini", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: gemini: empty completion", generation.ErrProviderError)
	}

	completion := &generation.Completion{Text: text}
	if usage := resp.UsageMetadata; usage != nil {
		completion.Usage = generation.TokenUsage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}

	return completion, nil
}
