package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lessonforge/lessonforge/internal/admission"
	"github.com/lessonforge/lessonforge/internal/cache"
	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/events"
	"github.com/lessonforge/lessonforge/internal/gateway"
	"github.com/lessonforge/lessonforge/internal/generation"
	"github.com/lessonforge/lessonforge/internal/orchestrator"
	"github.com/lessonforge/lessonforge/internal/platform/anthropic"
	"github.com/lessonforge/lessonforge/internal/platform/gemini"
	"github.com/lessonforge/lessonforge/internal/platform/memstore"
	"github.com/lessonforge/lessonforge/internal/platform/metrics"
	"github.com/lessonforge/lessonforge/internal/platform/openaicompat"
	"github.com/lessonforge/lessonforge/internal/platform/redisstore"
	"github.com/lessonforge/lessonforge/internal/quality"
	"github.com/lessonforge/lessonforge/internal/store"
)

// application bundles the wired components for the router and server.
type application struct {
	config       *config.Config
	logger       *slog.Logger
	registry     *prometheus.Registry
	storeHandle  *store.Handle
	gateway      *gateway.Gateway
	orchestrator *orchestrator.Orchestrator
	cleanupFns   []func()
}

// buildApplication wires the whole pipeline from configuration:
// stores, admission, cache, providers, orchestrator, assessor, gateway.
func buildApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	app := &application{
		config:   cfg,
		logger:   logger,
		registry: registry,
	}

	// Shared store with in-process fallback.
	redisStore := redisstore.New(cfg.Store)
	app.cleanupFns = append(app.cleanupFns, func() {
		if err := redisStore.Close(); err != nil {
			logger.Warn("closing redis client failed", "error", err)
		}
	})

	var fallback store.KVStore
	if cfg.Store.FallbackEnabled {
		fallback = memstore.New()
	}
	app.storeHandle = store.NewHandle(
		redisStore,
		fallback,
		time.Duration(cfg.Store.ProbeTimeoutMillis)*time.Millisecond,
		logger,
		m.StoreFallbacksTotal.Inc,
	)

	admitter := admission.NewController(app.storeHandle, cfg.Admission, logger, m)
	artifactCache := cache.New(app.storeHandle, cfg.Cache, logger, m)

	providers, err := buildProviders(ctx, cfg.Providers, logger)
	if err != nil {
		return nil, err
	}
	app.orchestrator = orchestrator.New(providers, cfg.Providers, cfg.Failover, logger, m)

	assessor, err := quality.NewAssessor(cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("build assessor: %w", err)
	}

	prompts, err := generation.NewPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("build prompt builder: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(newEventLogHandler(logger))

	app.gateway = gateway.New(
		admitter,
		artifactCache,
		app.orchestrator,
		assessor,
		prompts,
		emitter,
		gateway.Config{
			RequestTimeout:   time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
			MaxRegenerations: cfg.Generation.MaxRegenerations,
		},
		logger,
		m,
	)

	return app, nil
}

// buildProviders constructs one client per configured provider, in the
// configured failover order.
func buildProviders(ctx context.Context, cfgs []config.ProviderConfig, logger *slog.Logger) ([]generation.Provider, error) {
	providers := make([]generation.Provider, 0, len(cfgs))
	for _, pc := range cfgs {
		var (
			p   generation.Provider
			err error
		)
		switch pc.Kind {
		case "gemini":
			p, err = gemini.New(ctx, pc, logger)
		case "openai":
			p, err = openaicompat.New(pc, logger)
		case "anthropic":
			p, err = anthropic.New(pc, logger)
		default:
			err = fmt.Errorf("unknown provider kind %q", pc.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("build provider %s: %w", pc.ID, err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// cleanup releases resources in reverse construction order.
func (app *application) cleanup() {
	for i := len(app.cleanupFns) - 1; i >= 0; i-- {
		app.cleanupFns[i]()
	}
}

// eventLogHandler writes lifecycle events to the structured log. It is
// the default event consumer; durable persistence subscribes the same way.
type eventLogHandler struct {
	logger *slog.Logger
}

func newEventLogHandler(logger *slog.Logger) *eventLogHandler {
	return &eventLogHandler{logger: logger.With(slog.String("component", "event_log"))}
}

func (h *eventLogHandler) HandleEvent(ctx context.Context, event *events.ArtifactEvent) error {
	h.logger.InfoContext(ctx, "artifact lifecycle event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("payload", string(event.Payload)))
	return nil
}
