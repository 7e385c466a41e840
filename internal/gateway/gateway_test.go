package gateway_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/admission"
	"github.com/lessonforge/lessonforge/internal/cache"
	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/events"
	"github.com/lessonforge/lessonforge/internal/gateway"
	"github.com/lessonforge/lessonforge/internal/generation"
	"github.com/lessonforge/lessonforge/internal/orchestrator"
	"github.com/lessonforge/lessonforge/internal/platform/memstore"
	"github.com/lessonforge/lessonforge/internal/platform/metrics"
	"github.com/lessonforge/lessonforge/internal/quality"
	"github.com/lessonforge/lessonforge/internal/store"
)

// stubGenerator returns scripted results and counts calls.
type stubGenerator struct {
	calls   int
	prompts []string
	fn      func(call int, prompt string) (*orchestrator.CallResult, []orchestrator.Attempt, error)
}

func (s *stubGenerator) Generate(_ context.Context, _ *domain.GenerationRequest, prompt string) (*orchestrator.CallResult, []orchestrator.Attempt, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.fn(s.calls, prompt)
}

// stubAssessor returns scripted reports in order, repeating the last one.
type stubAssessor struct {
	reports []quality.Report
	calls   int
}

func (s *stubAssessor) Assess(_ *domain.Artifact) quality.Report {
	s.calls++
	idx := s.calls - 1
	if idx >= len(s.reports) {
		idx = len(s.reports) - 1
	}
	return s.reports[idx]
}

func passingReport(score float64) quality.Report {
	return quality.Report{
		DimensionScores: map[quality.Dimension]float64{quality.DimPedagogy: score},
		OverallScore:    score,
		Passed:          true,
	}
}

func failingReport(score float64) quality.Report {
	return quality.Report{
		DimensionScores:  map[quality.Dimension]float64{quality.DimPedagogy: score},
		OverallScore:     score,
		Passed:           false,
		FailedDimensions: []quality.Dimension{quality.DimPedagogy},
		ImprovementNotes: []string{"State explicit learning objectives."},
	}
}

func flashcardsArtifact() *domain.Artifact {
	return &domain.Artifact{
		Type:          domain.ArtifactFlashcards,
		Topic:         "mitosis",
		AudienceLevel: domain.AudienceMiddleSchool,
		Title:         "Mitosis",
		Cards:         []domain.Card{{Front: "What is mitosis?", Back: "Cell division."}},
	}
}

func generated(artifact *domain.Artifact) (*orchestrator.CallResult, []orchestrator.Attempt, error) {
	return &orchestrator.CallResult{
			ProviderID: "gemini-flash",
			Artifact:   artifact,
			Usage:      generation.TokenUsage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300},
			Cost:       0.007,
		}, []orchestrator.Attempt{
			{ProviderID: "gemini-flash", Success: true,
				Usage: generation.TokenUsage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300},
				Cost:  0.007},
		}, nil
}

// fixture wires a gateway over real admission and cache components backed
// by an in-process store, with scripted generation and assessment.
type fixture struct {
	gw       *gateway.Gateway
	gen      *stubGenerator
	handler  *recordingHandler
	cache    *cache.Cache
	cacheKey func(req *domain.GenerationRequest) string
}

type recordingHandler struct {
	events []*events.ArtifactEvent
}

func (h *recordingHandler) HandleEvent(_ context.Context, e *events.ArtifactEvent) error {
	h.events = append(h.events, e)
	return nil
}

func newFixture(t *testing.T, gen *stubGenerator, assessor gateway.Assessor, maxRegen int) *fixture {
	t.Helper()

	logger := slog.Default()
	m := metrics.NewForTesting()
	handle := store.NewHandle(memstore.New(), nil, 100*time.Millisecond, logger, nil)

	admitter := admission.NewController(handle, config.AdmissionConfig{
		Endpoints: map[string]config.EndpointLimit{
			"generate": {Limit: 5, WindowSeconds: 300},
		},
		Default: config.EndpointLimit{Limit: 2, WindowSeconds: 60},
	}, logger, m)

	artifactCache := cache.New(handle, config.CacheConfig{
		Artifacts: map[string]config.ArtifactPolicy{
			"flashcards": {BaseTTLSeconds: 3600, StabilityMultiplier: 2.0},
		},
	}, logger, m)

	prompts, err := generation.NewPromptBuilder()
	require.NoError(t, err)

	handler := &recordingHandler{}
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(handler)

	gw := gateway.New(admitter, artifactCache, gen, assessor, prompts, emitter, gateway.Config{
		RequestTimeout:   5 * time.Second,
		MaxRegenerations: maxRegen,
	}, logger, m)

	return &fixture{gw: gw, gen: gen, handler: handler, cache: artifactCache, cacheKey: cache.Key}
}

func request(t *testing.T, caller string) *domain.GenerationRequest {
	t.Helper()

	req, err := domain.NewGenerationRequest(
		caller, "generate", "mitosis", domain.ArtifactFlashcards, domain.AudienceMiddleSchool, nil)
	require.NoError(t, err)
	return req
}

func TestHandle_MissGeneratesThenSecondRequestHits(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{fn: func(int, string) (*orchestrator.CallResult, []orchestrator.Attempt, error) {
		return generated(flashcardsArtifact())
	}}
	f := newFixture(t, gen, &stubAssessor{reports: []quality.Report{passingReport(0.81)}}, 2)

	ctx := context.Background()
	req := request(t, "caller-1")

	result, meta, err := f.gw.Handle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusGeneratedPassed, meta.Status)
	assert.Equal(t, "gemini-flash", result.ProviderID)
	assert.Equal(t, "Mitosis", result.Artifact.Title)
	assert.InDelta(t, 0.81, result.QualityScore, 1e-9)
	assert.Equal(t, 1, gen.calls)

	// The accepted entry carries the quality-weighted TTL:
	// 3600s base x 2.0 stability x 0.81 score = 5832s.
	assert.Equal(t, 5832*time.Second, f.cache.EffectiveTTL(domain.ArtifactFlashcards, 0.81))

	// A second identical request from a different caller is served from
	// cache without touching a provider.
	result2, meta2, err := f.gw.Handle(ctx, request(t, "caller-2"))
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusHit, meta2.Status)
	assert.Equal(t, "Mitosis", result2.Artifact.Title)
	assert.InDelta(t, 0.81, result2.QualityScore, 1e-9)
	assert.Equal(t, 1, gen.calls, "cache hit must not call a provider")

	// One completion event for the one generation.
	require.Len(t, f.handler.events, 1)
	assert.Equal(t, events.TypeGenerationCompleted, f.handler.events[0].Type)
}

func TestHandle_AdmissionDenialShortCircuits(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{fn: func(int, string) (*orchestrator.CallResult, []orchestrator.Attempt, error) {
		return generated(flashcardsArtifact())
	}}
	f := newFixture(t, gen, &stubAssessor{reports: []quality.Report{failingReport(0.1)}}, 0)

	ctx := context.Background()

	// Exhaust the window with distinct topics so nothing is cached.
	for i := 0; i < 5; i++ {
		req, err := domain.NewGenerationRequest(
			"caller-1", "generate", string(rune('a'+i))+" topic",
			domain.ArtifactFlashcards, domain.AudienceMiddleSchool, nil)
		require.NoError(t, err)
		_, _, _ = f.gw.Handle(ctx, req)
	}
	callsBefore := gen.calls

	result, meta, err := f.gw.Handle(ctx, request(t, "caller-1"))
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, gateway.StatusRejected, meta.Status)
	assert.Equal(t, 5, meta.Limit)
	assert.Zero(t, meta.Remaining)
	assert.Greater(t, meta.RetryAfter, time.Duration(0))
	assert.Equal(t, callsBefore, gen.calls, "denied request must not reach a provider")
}

func TestHandle_RegeneratesWithImprovementNotes(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{fn: func(int, string) (*orchestrator.CallResult, []orchestrator.Attempt, error) {
		return generated(flashcardsArtifact())
	}}
	f := newFixture(t, gen,
		&stubAssessor{reports: []quality.Report{failingReport(0.4), passingReport(0.85)}}, 2)

	result, meta, err := f.gw.Handle(context.Background(), request(t, "caller-1"))
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusGeneratedPassed, meta.Status)
	assert.InDelta(t, 0.85, result.QualityScore, 1e-9)

	require.Equal(t, 2, gen.calls)
	assert.NotContains(t, gen.prompts[0], "previous draft was rejected")
	assert.Contains(t, gen.prompts[1], "State explicit learning objectives.")
}

func TestHandle_QualityBudgetExhausted(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{fn: func(int, string) (*orchestrator.CallResult, []orchestrator.Attempt, error) {
		return generated(flashcardsArtifact())
	}}
	f := newFixture(t, gen, &stubAssessor{reports: []quality.Report{failingReport(0.4)}}, 1)

	ctx := context.Background()
	req := request(t, "caller-1")

	result, meta, err := f.gw.Handle(ctx, req)
	assert.ErrorIs(t, err, gateway.ErrQualityRejected)
	assert.Equal(t, gateway.StatusGeneratedFailed, meta.Status)
	assert.Equal(t, 2, gen.calls, "one draft plus one regeneration")

	// The last draft and its report are still served for transparency.
	require.NotNil(t, result)
	assert.Equal(t, "Mitosis", result.Artifact.Title)
	require.NotNil(t, result.Report)
	assert.False(t, result.Report.Passed)

	// Nothing was cached: the same request generates again.
	_, _, _ = f.gw.Handle(ctx, req)
	assert.Equal(t, 4, gen.calls)

	// Failure event carries the reason.
	var sawFailure bool
	for _, e := range f.handler.events {
		if e.Type == events.TypeGenerationFailed {
			sawFailure = true
			var payload events.GenerationFailedPayload
			require.NoError(t, e.UnmarshalPayload(&payload))
			assert.Equal(t, "quality budget exhausted", payload.Reason)
			assert.Equal(t, 2, payload.Attempts)
		}
	}
	assert.True(t, sawFailure)
}

func TestHandle_ProviderExhaustionSurfacesError(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{fn: func(int, string) (*orchestrator.CallResult, []orchestrator.Attempt, error) {
		return nil, []orchestrator.Attempt{
			{ProviderID: "a", Usage: generation.TokenUsage{PromptTokens: 50, TotalTokens: 50}, Cost: 0.0005},
		}, orchestrator.ErrProvidersExhausted
	}}
	f := newFixture(t, gen, &stubAssessor{reports: []quality.Report{passingReport(0.9)}}, 2)

	result, meta, err := f.gw.Handle(context.Background(), request(t, "caller-1"))
	assert.ErrorIs(t, err, orchestrator.ErrProvidersExhausted)
	assert.Nil(t, result)
	assert.Equal(t, gateway.StatusGeneratedFailed, meta.Status)
	assert.Equal(t, 1, gen.calls, "provider exhaustion must not consume the regeneration budget")

	// Failed attempts still show up in the failure event's accounting.
	require.Len(t, f.handler.events, 1)
	var payload events.GenerationFailedPayload
	require.NoError(t, f.handler.events[0].UnmarshalPayload(&payload))
	assert.Equal(t, 50, payload.TotalTokens)
	assert.InDelta(t, 0.0005, payload.CostUSD, 1e-9)
}

func TestHandle_CallerDisconnectStillCaches(t *testing.T) {
	t.Parallel()

	canceled := make(chan struct{})
	gen := &stubGenerator{fn: func(int, string) (*orchestrator.CallResult, []orchestrator.Attempt, error) {
		<-canceled
		return generated(flashcardsArtifact())
	}}
	f := newFixture(t, gen, &stubAssessor{reports: []quality.Report{passingReport(0.9)}}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	req := request(t, "caller-1")

	// Cancel the caller's context while generation is in flight.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = f.gw.Handle(ctx, req)
	}()
	cancel()
	close(canceled)
	<-done

	// The finished work was cached; a fresh request is a hit.
	_, meta, err := f.gw.Handle(context.Background(), request(t, "caller-2"))
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusHit, meta.Status)
	assert.Equal(t, 1, gen.calls)
}
