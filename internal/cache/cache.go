package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/platform/metrics"
	"github.com/lessonforge/lessonforge/internal/store"
)

// hitPrefix namespaces hit counters next to their entries.
const hitPrefix = "hits:"

// Entry is one cached generation result. Entries only exist for
// artifacts whose quality assessment passed; the gateway never writes a
// failed artifact.
type Entry struct {
	Key          string          `json:"key"`
	Artifact     domain.Artifact `json:"artifact"`
	QualityScore float64         `json:"quality_score"`
	CreatedAt    time.Time       `json:"created_at"`
	TTLSeconds   int             `json:"ttl_seconds"`
	HitCount     int64           `json:"hit_count"`
}

// Cache is the response cache. Writes are last-writer-wins: two requests
// racing on the same key may both generate and both write, and whichever
// write lands last owns the entry. Each write is independently complete,
// so the race never produces a merged or partial entry.
type Cache struct {
	store   *store.Handle
	cfg     config.CacheConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a response cache backed by the given store handle.
func New(
	st *store.Handle,
	cfg config.CacheConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Cache {
	return &Cache{
		store:   st,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "cache")),
		metrics: m,
	}
}

// Get looks up a cached entry. A miss returns (nil, false, nil); the
// error return is reserved for store failures with fallback disabled.
// Hit counting is best-effort: a failed counter update never fails the
// lookup.
func (c *Cache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		c.metrics.CacheOpsTotal.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		c.metrics.CacheOpsTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// A corrupt entry is treated as a miss; the caller regenerates
		// and overwrites it.
		c.logger.WarnContext(ctx, "discarding corrupt cache entry",
			slog.String("cache_key", key),
			slog.String("error", err.Error()))
		c.metrics.CacheOpsTotal.WithLabelValues("miss").Inc()
		return nil, false, nil
	}

	if n, err := c.store.Incr(ctx, hitPrefix+key); err == nil {
		entry.HitCount = n
	}

	c.metrics.CacheOpsTotal.WithLabelValues("hit").Inc()
	return &entry, true, nil
}

// Put stores an accepted artifact. The effective TTL is the artifact
// type's base TTL scaled by its stability multiplier and by the quality
// score, so higher-quality content is trusted and cached longer. The TTL
// is assigned at write time and never renewed on a hit; a later
// generation for the same key overwrites the entry and resets the clock.
func (c *Cache) Put(
	ctx context.Context,
	key string,
	artifact *domain.Artifact,
	qualityScore float64,
) (*Entry, error) {
	ttl := c.EffectiveTTL(artifact.Type, qualityScore)

	entry := Entry{
		Key:          key,
		Artifact:     *artifact,
		QualityScore: qualityScore,
		CreatedAt:    time.Now().UTC(),
		TTLSeconds:   int(ttl.Seconds()),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("cache put %s: marshal entry: %w", key, err)
	}

	if err := c.store.Set(ctx, key, string(raw), ttl); err != nil {
		c.metrics.CacheOpsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("cache put %s: %w", key, err)
	}

	c.metrics.CacheOpsTotal.WithLabelValues("write").Inc()
	c.logger.DebugContext(ctx, "cached artifact",
		slog.String("cache_key", key),
		slog.String("artifact_type", string(artifact.Type)),
		slog.Float64("quality_score", qualityScore),
		slog.Duration("ttl", ttl))

	return &entry, nil
}

// EffectiveTTL computes baseTTL x stabilityMultiplier x qualityScore for
// an artifact type. Types without an explicit policy get a conservative
// one-hour base with a neutral multiplier.
func (c *Cache) EffectiveTTL(artifactType domain.ArtifactType, qualityScore float64) time.Duration {
	policy, ok := c.cfg.PolicyFor(string(artifactType))
	if !ok {
		policy = config.ArtifactPolicy{BaseTTLSeconds: 3600, StabilityMultiplier: 1.0}
	}

	seconds := float64(policy.BaseTTLSeconds) * policy.StabilityMultiplier * qualityScore
	if seconds < 1 {
		seconds = 1
	}

	return time.Duration(seconds * float64(time.Second))
}
