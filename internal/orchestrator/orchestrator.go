// Package orchestrator selects an upstream provider for each generation
// request, issues the call, accounts tokens and cost per attempt, and
// fails over across the configured provider order on timeout, error or
// malformed output. Orchestration keeps no state between requests except
// the per-provider failure counters that drive the cool-down breaker.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/generation"
	"github.com/lessonforge/lessonforge/internal/platform/metrics"
	"github.com/lessonforge/lessonforge/internal/redact"
)

// Attempt records one provider call, successful or not. Attempts are
// transient: they live for the duration of the request and feed the cost
// log and aggregate counters, nothing else.
type Attempt struct {
	ID         uuid.UUID
	ProviderID string
	Success    bool
	Err        error
	Latency    time.Duration
	Usage      generation.TokenUsage
	Cost       float64

	// artifact carries the parsed artifact for the successful attempt.
	artifact *domain.Artifact
}

// CallResult is the successful outcome of orchestration: the parsed
// artifact plus the accounting for the attempt that produced it.
type CallResult struct {
	ProviderID string
	Artifact   *domain.Artifact
	Latency    time.Duration
	Usage      generation.TokenUsage
	Cost       float64
}

// pricing is the per-1K-token price pair for one provider.
type pricing struct {
	promptPer1K     float64
	completionPer1K float64
}

// Orchestrator drives provider failover for generation calls.
type Orchestrator struct {
	providers []generation.Provider
	timeouts  map[string]time.Duration
	prices    map[string]pricing
	cfg       config.FailoverConfig
	breaker   *breaker
	estimator *generation.TokenEstimator
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates an orchestrator over the given providers, which must be in
// the configured failover order. providerCfgs supplies per-provider
// timeouts and pricing, matched by ID.
func New(
	providers []generation.Provider,
	providerCfgs []config.ProviderConfig,
	cfg config.FailoverConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	timeouts := make(map[string]time.Duration, len(providerCfgs))
	prices := make(map[string]pricing, len(providerCfgs))
	for _, pc := range providerCfgs {
		timeouts[pc.ID] = time.Duration(pc.TimeoutSeconds) * time.Second
		prices[pc.ID] = pricing{
			promptPer1K:     pc.PromptCostPer1K,
			completionPer1K: pc.CompletionCostPer1K,
		}
	}

	return &Orchestrator{
		providers: providers,
		timeouts:  timeouts,
		prices:    prices,
		cfg:       cfg,
		breaker: newBreaker(
			cfg.FailureThreshold,
			time.Duration(cfg.CooldownSeconds)*time.Second,
		),
		estimator: generation.NewTokenEstimator(),
		logger:    logger.With(slog.String("component", "orchestrator")),
		metrics:   m,
	}
}

// CooldownSnapshot exposes the providers currently cooling down for the
// health endpoint.
func (o *Orchestrator) CooldownSnapshot() map[string]time.Time {
	return o.breaker.CooldownSnapshot()
}

// Generate attempts the configured providers in order until one returns
// a parseable artifact, the configured maximum number of providers has
// been tried, or the orchestration deadline expires. Every attempt is
// returned with its token and cost accounting, failures included.
func (o *Orchestrator) Generate(
	ctx context.Context,
	req *domain.GenerationRequest,
	prompt string,
) (*CallResult, []Attempt, error) {
	if len(o.providers) == 0 {
		return nil, nil, ErrNoProviders
	}

	orchCtx, cancel := context.WithTimeout(
		ctx, time.Duration(o.cfg.OrchestrationTimeoutSeconds)*time.Second)
	defer cancel()

	attempts := make([]Attempt, 0, o.cfg.MaxProvidersTried)
	tried := 0

	for _, provider := range o.providers {
		if tried >= o.cfg.MaxProvidersTried {
			break
		}

		if orchCtx.Err() != nil {
			// The overall deadline expired between attempts: stop failing
			// over rather than starting a call that cannot finish.
			o.logger.WarnContext(ctx, "orchestration deadline exceeded",
				slog.Int("attempts", len(attempts)))
			return nil, attempts, ErrDeadlineExceeded
		}

		if !o.breaker.allow(provider.ID()) {
			o.metrics.ProviderAttemptsTotal.WithLabelValues(provider.ID(), "skipped_cooldown").Inc()
			o.logger.DebugContext(ctx, "skipping provider in cooldown",
				slog.String("provider_id", provider.ID()))
			continue
		}

		tried++
		attempt := o.attempt(orchCtx, provider, req, prompt, len(attempts)+1)
		attempts = append(attempts, attempt)

		if attempt.Success {
			result := &CallResult{
				ProviderID: attempt.ProviderID,
				Artifact:   attempt.artifact,
				Latency:    attempt.Latency,
				Usage:      attempt.Usage,
				Cost:       attempt.Cost,
			}
			return result, attempts, nil
		}

		if orchCtx.Err() != nil && errors.Is(attempt.Err, generation.ErrProviderTimeout) {
			// The attempt was cut by the orchestration deadline, not its
			// own budget; further failover cannot succeed.
			return nil, attempts, ErrDeadlineExceeded
		}
	}

	if len(attempts) == 0 {
		return nil, nil, ErrNoProviders
	}

	return nil, attempts, fmt.Errorf("%w: %d attempts failed", ErrProvidersExhausted, len(attempts))
}

// attempt runs a single provider call with its own timeout and full
// accounting. The artifact is parsed here so that a well-formed HTTP
// response carrying unusable content counts as a provider failure.
func (o *Orchestrator) attempt(
	ctx context.Context,
	provider generation.Provider,
	req *domain.GenerationRequest,
	prompt string,
	number int,
) Attempt {
	attempt := Attempt{
		ID:         uuid.New(),
		ProviderID: provider.ID(),
	}

	timeout := o.timeouts[provider.ID()]
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	completion, err := provider.Generate(attemptCtx, prompt)
	attempt.Latency = time.Since(start)

	outcome := "success"
	switch {
	case err != nil:
		attempt.Err = err
		// A failed call still consumed the prompt; estimate what the
		// provider would have charged for it.
		attempt.Usage = generation.TokenUsage{
			PromptTokens: o.estimator.Estimate(prompt),
		}
		attempt.Usage.TotalTokens = attempt.Usage.PromptTokens
		outcome = "error"
		if errors.Is(err, generation.ErrProviderTimeout) {
			outcome = "timeout"
		}
		o.breaker.recordFailure(provider.ID())

	default:
		attempt.Usage = completion.Usage
		if attempt.Usage.TotalTokens == 0 {
			// Provider omitted usage; fall back to local estimation.
			attempt.Usage.PromptTokens = o.estimator.Estimate(prompt)
			attempt.Usage.CompletionTokens = o.estimator.Estimate(completion.Text)
			attempt.Usage.TotalTokens = attempt.Usage.PromptTokens + attempt.Usage.CompletionTokens
		}

		artifact, parseErr := generation.ParseArtifact(completion.Text, req)
		if parseErr != nil {
			attempt.Err = parseErr
			outcome = "malformed"
			o.breaker.recordFailure(provider.ID())
		} else {
			attempt.Success = true
			attempt.artifact = artifact
			o.breaker.recordSuccess(provider.ID())
		}
	}

	attempt.Cost = o.cost(provider.ID(), attempt.Usage)
	o.record(ctx, attempt, number, outcome)

	return attempt
}

// cost prices an attempt's usage against the provider's configured rates.
func (o *Orchestrator) cost(providerID string, usage generation.TokenUsage) float64 {
	p := o.prices[providerID]
	return float64(usage.PromptTokens)/1000*p.promptPer1K +
		float64(usage.CompletionTokens)/1000*p.completionPer1K
}

// record logs the attempt and updates aggregate counters. Tokens and
// cost are recorded for every attempt, failed ones included, so failed
// expensive calls remain visible in spend accounting.
func (o *Orchestrator) record(ctx context.Context, attempt Attempt, number int, outcome string) {
	o.metrics.ProviderAttemptsTotal.WithLabelValues(attempt.ProviderID, outcome).Inc()
	o.metrics.ProviderTokensTotal.WithLabelValues(attempt.ProviderID, "prompt").
		Add(float64(attempt.Usage.PromptTokens))
	o.metrics.ProviderTokensTotal.WithLabelValues(attempt.ProviderID, "completion").
		Add(float64(attempt.Usage.CompletionTokens))
	o.metrics.ProviderCostUSD.WithLabelValues(attempt.ProviderID).Add(attempt.Cost)

	attrs := []any{
		slog.String("attempt_id", attempt.ID.String()),
		slog.String("provider_id", attempt.ProviderID),
		slog.Int("attempt_number", number),
		slog.String("outcome", outcome),
		slog.Duration("latency", attempt.Latency),
		slog.Int("total_tokens", attempt.Usage.TotalTokens),
		slog.Float64("cost_usd", attempt.Cost),
	}
	if attempt.Err != nil {
		attrs = append(attrs, slog.String("error", redact.Error(attempt.Err)))
		o.logger.WarnContext(ctx, "provider attempt failed", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "provider attempt succeeded", attrs...)
}
