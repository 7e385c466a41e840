// Package openaicompat implements the generation.Provider capability
// against any OpenAI-compatible chat-completions endpoint (OpenAI itself,
// OpenRouter, and the many self-hosted gateways that speak the same
// shape). Transient upstream failures (429, 5xx) are retried with
// exponential backoff within a single orchestration attempt; definitive
// failures surface immediately so the orchestrator can fail over.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/generation"
	"github.com/lessonforge/lessonforge/internal/redact"
)

// defaultBaseURL is used when the provider configuration omits one.
const defaultBaseURL = "https://api.openai.com/v1"

// maxRetryElapsed bounds in-attempt retries; the per-attempt context
// deadline set by the orchestrator cuts this short when it is tighter.
const maxRetryElapsed = 20 * time.Second

// Provider implements generation.Provider over an OpenAI-compatible API.
type Provider struct {
	id      string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New creates an OpenAI-compatible provider from configuration.
func New(cfg config.ProviderConfig, logger *slog.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Provider{
		id:      cfg.ID,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{},
		logger:  logger.With(slog.String("component", "openai_provider"), slog.String("provider_id", cfg.ID)),
	}, nil
}

// ID identifies this provider instance.
func (p *Provider) ID() string { return p.id }

// chatRequest is the chat-completions request body.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

// chatResponse is the subset of the chat-completions response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends the prompt upstream and returns the completion.
// 429 and 5xx responses are retried with exponential backoff until the
// context deadline; 4xx responses and content filtering are permanent
// for this attempt.
func (p *Provider) Generate(ctx context.Context, prompt string) (*generation.Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature:    0.7,
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", generation.ErrProviderError, err)
	}

	var out chatResponse

	op := func() error {
		// The request is recreated each attempt so a consumed body is
		// never reused.
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			p.logger.WarnContext(ctx, "provider rate limited, backing off",
				slog.Int("status", resp.StatusCode))
			return fmt.Errorf("rate limited: %d", resp.StatusCode)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return fmt.Errorf("status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<22)).Decode(&out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime = maxRetryElapsed

	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s: %s", generation.ErrProviderTimeout, p.id, redact.Error(err))
		}
		return nil, fmt.Errorf("%w: %s: %s", generation.ErrProviderError, p.id, redact.Error(err))
	}

	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: %s: empty choices", generation.ErrProviderError, p.id)
	}

	choice := out.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, fmt.Errorf("%w: %s", generation.ErrContentBlocked, p.id)
	}

	return &generation.Completion{
		Text: choice.Message.Content,
		Usage: generation.TokenUsage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		},
	}, nil
}
