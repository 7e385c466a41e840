// Package gateway drives the request lifecycle for artifact generation:
// admission, cache lookup, provider orchestration, quality assessment,
// bounded regeneration, and the cache write. The HTTP layer above it
// only translates; every decision lives here.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lessonforge/lessonforge/internal/admission"
	"github.com/lessonforge/lessonforge/internal/cache"
	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/events"
	"github.com/lessonforge/lessonforge/internal/generation"
	"github.com/lessonforge/lessonforge/internal/orchestrator"
	"github.com/lessonforge/lessonforge/internal/platform/metrics"
	"github.com/lessonforge/lessonforge/internal/quality"
	"github.com/lessonforge/lessonforge/internal/redact"
)

// Status tells the HTTP layer how the result was produced.
type Status string

// Terminal request statuses.
const (
	// StatusHit means the artifact was served from cache.
	StatusHit Status = "hit"

	// StatusGeneratedPassed means a fresh artifact was generated, passed
	// assessment and was cached.
	StatusGeneratedPassed Status = "generated_passed"

	// StatusGeneratedFailed means generation ran but no draft within the
	// regeneration budget was servable, or the providers failed.
	StatusGeneratedFailed Status = "generated_failed"

	// StatusRejected means admission control refused the request.
	StatusRejected Status = "rejected"
)

// Meta carries the request-level facts the HTTP layer renders into
// headers: the admission window state and how the result was produced.
type Meta struct {
	Status     Status
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration

	// Degraded reports that the shared store was unreachable and
	// process-local state served this request.
	Degraded bool
}

// Result is a served artifact plus its provenance. Report is nil for
// cache hits; the assessment that admitted the entry is summarized by
// QualityScore.
type Result struct {
	Artifact     *domain.Artifact
	Report       *quality.Report
	CacheKey     string
	ProviderID   string
	QualityScore float64
	HitCount     int64
}

// Admitter decides whether a request may proceed.
type Admitter interface {
	Check(ctx context.Context, callerID, endpointClass string) (admission.Decision, error)
}

// ArtifactCache is the response cache surface the gateway uses.
type ArtifactCache interface {
	Get(ctx context.Context, key string) (*cache.Entry, bool, error)
	Put(ctx context.Context, key string, artifact *domain.Artifact, qualityScore float64) (*cache.Entry, error)
}

// Generator produces one artifact per call, failing over across
// providers internally.
type Generator interface {
	Generate(ctx context.Context, req *domain.GenerationRequest, prompt string) (*orchestrator.CallResult, []orchestrator.Attempt, error)
}

// Assessor scores an artifact and decides pass or fail.
type Assessor interface {
	Assess(artifact *domain.Artifact) quality.Report
}

// Config holds the gateway's own knobs.
type Config struct {
	// RequestTimeout bounds the whole pipeline for one request.
	RequestTimeout time.Duration

	// MaxRegenerations is the number of additional drafts allowed after
	// a quality rejection.
	MaxRegenerations int
}

// Gateway wires the pipeline stages together.
type Gateway struct {
	admitter  Admitter
	cache     ArtifactCache
	generator Generator
	assessor  Assessor
	prompts   *generation.PromptBuilder
	emitter   events.EventEmitter
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates a gateway.
func New(
	admitter Admitter,
	artifactCache ArtifactCache,
	generator Generator,
	assessor Assessor,
	prompts *generation.PromptBuilder,
	emitter events.EventEmitter,
	cfg Config,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Gateway {
	return &Gateway{
		admitter:  admitter,
		cache:     artifactCache,
		generator: generator,
		assessor:  assessor,
		prompts:   prompts,
		emitter:   emitter,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "gateway")),
		metrics:   m,
	}
}

// Handle runs one request through the pipeline. The returned Meta is
// always meaningful, including on error, so the HTTP layer can render
// rate-limit headers on every response.
func (g *Gateway) Handle(ctx context.Context, req *domain.GenerationRequest) (*Result, Meta, error) {
	deadline := time.Now().Add(g.cfg.RequestTimeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	decision, err := g.admit(ctx, req)
	meta := Meta{
		Limit:      decision.Limit,
		Remaining:  decision.Remaining,
		ResetAt:    decision.ResetAt,
		RetryAfter: decision.RetryAfter,
		Degraded:   decision.Degraded,
	}
	if err != nil {
		meta.Status = StatusRejected
		return nil, meta, fmt.Errorf("admission: %w", err)
	}
	if !decision.Allowed {
		meta.Status = StatusRejected
		return nil, meta, nil
	}

	key := cache.Key(req)

	if entry := g.lookup(ctx, key); entry != nil {
		meta.Status = StatusHit
		return &Result{
			Artifact:     &entry.Artifact,
			CacheKey:     key,
			QualityScore: entry.QualityScore,
			HitCount:     entry.HitCount,
		}, meta, nil
	}

	result, err := g.generate(ctx, deadline, req, key)
	if err != nil {
		meta.Status = StatusGeneratedFailed
		return result, meta, err
	}

	meta.Status = StatusGeneratedPassed
	return result, meta, nil
}

// admit runs the admission stage with timing.
func (g *Gateway) admit(ctx context.Context, req *domain.GenerationRequest) (admission.Decision, error) {
	defer g.stageTimer("admission")()
	return g.admitter.Check(ctx, req.CallerID, req.EndpointClass)
}

// lookup runs the cache stage. A store failure is logged and treated as
// a miss; a cache outage must degrade to generation, not fail requests.
func (g *Gateway) lookup(ctx context.Context, key string) *cache.Entry {
	defer g.stageTimer("cache_get")()

	entry, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		g.logger.WarnContext(ctx, "cache lookup failed, generating instead",
			slog.String("cache_key", key),
			slog.String("error", redact.Error(err)))
		return nil
	}
	if !ok {
		return nil
	}
	return entry
}

// generate runs the draft-assess-retry loop. Generation and the cache
// write run on a context detached from the caller: once provider spend
// is committed, a disconnect must not waste it, so the work completes
// and only the response is discarded. The request deadline still binds.
func (g *Gateway) generate(
	ctx context.Context,
	deadline time.Time,
	req *domain.GenerationRequest,
	key string,
) (*Result, error) {
	genCtx, cancel := context.WithDeadline(context.WithoutCancel(ctx), deadline)
	defer cancel()

	var (
		notes       []string
		lastReport  *quality.Report
		lastResult  *orchestrator.CallResult
		totalTokens int
		totalCost   float64
		attemptsRun int
	)

	maxDrafts := g.cfg.MaxRegenerations + 1
	for draft := 1; draft <= maxDrafts; draft++ {
		prompt, err := g.prompts.Build(req, notes)
		if err != nil {
			return nil, fmt.Errorf("build prompt: %w", err)
		}

		result, attempts, err := g.generateDraft(genCtx, req, prompt)
		attemptsRun += len(attempts)
		for _, a := range attempts {
			totalTokens += a.Usage.TotalTokens
			totalCost += a.Cost
		}
		if err != nil {
			g.emitFailed(genCtx, req, err.Error(), totalTokens, totalCost, attemptsRun)
			return nil, err
		}

		report := g.assess(genCtx, req, result.Artifact, draft)
		if report.Passed {
			entry := g.persist(genCtx, key, result, &report)
			g.emitCompleted(genCtx, req, key, result, &report, totalTokens, totalCost, attemptsRun)

			res := &Result{
				Artifact:     result.Artifact,
				Report:       &report,
				CacheKey:     key,
				ProviderID:   result.ProviderID,
				QualityScore: report.OverallScore,
			}
			if entry != nil {
				res.HitCount = entry.HitCount
			}
			return res, nil
		}

		notes = report.ImprovementNotes
		lastReport = &report
		lastResult = result
	}

	g.emitFailed(genCtx, req, "quality budget exhausted", totalTokens, totalCost, attemptsRun)

	// Serve the last draft and its report so the caller sees what was
	// produced and why it was refused.
	res := &Result{
		Artifact:     lastResult.Artifact,
		Report:       lastReport,
		CacheKey:     key,
		ProviderID:   lastResult.ProviderID,
		QualityScore: lastReport.OverallScore,
	}
	return res, fmt.Errorf("%w after %d drafts", ErrQualityRejected, maxDrafts)
}

func (g *Gateway) generateDraft(
	ctx context.Context,
	req *domain.GenerationRequest,
	prompt string,
) (*orchestrator.CallResult, []orchestrator.Attempt, error) {
	defer g.stageTimer("generate")()
	return g.generator.Generate(ctx, req, prompt)
}

// assess scores one draft and records the verdict.
func (g *Gateway) assess(
	ctx context.Context,
	req *domain.GenerationRequest,
	artifact *domain.Artifact,
	draft int,
) quality.Report {
	defer g.stageTimer("assess")()

	report := g.assessor.Assess(artifact)

	verdict := "passed"
	if !report.Passed {
		verdict = "failed"
		for _, dim := range report.FailedDimensions {
			g.metrics.QualityDimensionFailures.WithLabelValues(string(dim)).Inc()
		}
	}
	g.metrics.QualityResultsTotal.WithLabelValues(string(req.ArtifactType), verdict).Inc()

	g.logger.InfoContext(ctx, "quality assessment",
		slog.String("artifact_type", string(req.ArtifactType)),
		slog.Int("draft", draft),
		slog.String("verdict", verdict),
		slog.Float64("overall_score", report.OverallScore))

	return report
}

// persist writes the accepted artifact to the cache. A write failure is
// logged and swallowed; the artifact is already in hand and must be served.
func (g *Gateway) persist(
	ctx context.Context,
	key string,
	result *orchestrator.CallResult,
	report *quality.Report,
) *cache.Entry {
	defer g.stageTimer("cache_put")()

	entry, err := g.cache.Put(ctx, key, result.Artifact, report.OverallScore)
	if err != nil {
		g.logger.WarnContext(ctx, "cache write failed",
			slog.String("cache_key", key),
			slog.String("error", redact.Error(err)))
		return nil
	}
	return entry
}

func (g *Gateway) emitCompleted(
	ctx context.Context,
	req *domain.GenerationRequest,
	key string,
	result *orchestrator.CallResult,
	report *quality.Report,
	totalTokens int,
	totalCost float64,
	attempts int,
) {
	event, err := events.NewArtifactEvent(events.TypeGenerationCompleted, events.GenerationCompletedPayload{
		CallerID:     req.CallerID,
		CacheKey:     key,
		ArtifactType: string(req.ArtifactType),
		Topic:        req.Topic,
		ProviderID:   result.ProviderID,
		QualityScore: report.OverallScore,
		TotalTokens:  totalTokens,
		CostUSD:      totalCost,
		Attempts:     attempts,
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "building completion event failed",
			slog.String("error", err.Error()))
		return
	}
	if err := g.emitter.EmitEvent(ctx, event); err != nil {
		g.logger.WarnContext(ctx, "emitting completion event failed",
			slog.String("error", redact.Error(err)))
	}
}

func (g *Gateway) emitFailed(
	ctx context.Context,
	req *domain.GenerationRequest,
	reason string,
	totalTokens int,
	totalCost float64,
	attempts int,
) {
	event, err := events.NewArtifactEvent(events.TypeGenerationFailed, events.GenerationFailedPayload{
		CallerID:     req.CallerID,
		ArtifactType: string(req.ArtifactType),
		Topic:        req.Topic,
		Reason:       reason,
		TotalTokens:  totalTokens,
		CostUSD:      totalCost,
		Attempts:     attempts,
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "building failure event failed",
			slog.String("error", err.Error()))
		return
	}
	if err := g.emitter.EmitEvent(ctx, event); err != nil {
		g.logger.WarnContext(ctx, "emitting failure event failed",
			slog.String("error", redact.Error(err)))
	}
}

// stageTimer observes one pipeline stage's duration.
func (g *Gateway) stageTimer(stage string) func() {
	start := time.Now()
	return func() {
		g.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
