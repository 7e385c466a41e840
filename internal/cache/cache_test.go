package cache_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/cache"
	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/platform/memstore"
	"github.com/lessonforge/lessonforge/internal/platform/metrics"
	"github.com/lessonforge/lessonforge/internal/store"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Artifacts: map[string]config.ArtifactPolicy{
			"flashcards":     {BaseTTLSeconds: 3600, StabilityMultiplier: 2.0},
			"podcast_script": {BaseTTLSeconds: 3600, StabilityMultiplier: 0.5},
		},
	}
}

func newTestCache() *cache.Cache {
	handle := store.NewHandle(memstore.New(), nil, 50*time.Millisecond, slog.Default(), nil)
	return cache.New(handle, testCacheConfig(), slog.Default(), metrics.NewForTesting())
}

func testArtifact() *domain.Artifact {
	return &domain.Artifact{
		Type:          domain.ArtifactFlashcards,
		Topic:         "mitosis",
		AudienceLevel: domain.AudienceMiddleSchool,
		Title:         "Mitosis Flashcards",
		Cards: []domain.Card{
			{Front: "What is mitosis?", Back: "Division of one cell into two identical cells."},
		},
	}
}

func TestCache_MissThenHit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCache()

	_, found, err := c.Get(ctx, "art:abc")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = c.Put(ctx, "art:abc", testArtifact(), 0.81)
	require.NoError(t, err)

	entry, found, err := c.Get(ctx, "art:abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "art:abc", entry.Key)
	assert.Equal(t, 0.81, entry.QualityScore)
	assert.Equal(t, "Mitosis Flashcards", entry.Artifact.Title)
	assert.Equal(t, int64(1), entry.HitCount)

	// Hit counting increments per lookup.
	entry, found, err = c.Get(ctx, "art:abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(2), entry.HitCount)
}

func TestCache_EffectiveTTL(t *testing.T) {
	t.Parallel()

	c := newTestCache()

	// base 3600s x stability 2.0 x quality 0.81 = 5832s
	assert.Equal(t, 5832*time.Second, c.EffectiveTTL(domain.ArtifactFlashcards, 0.81))

	// Time-sensitive types get a sub-1.0 multiplier.
	assert.Equal(t, 1800*time.Second, c.EffectiveTTL(domain.ArtifactPodcastScript, 1.0))

	// Unknown types fall back to a neutral policy.
	assert.Equal(t, 3600*time.Second, c.EffectiveTTL(domain.ArtifactType("unknown"), 1.0))
}

func TestCache_PutAssignsQualityWeightedTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCache()

	entry, err := c.Put(ctx, "art:abc", testArtifact(), 0.81)
	require.NoError(t, err)
	assert.Equal(t, 5832, entry.TTLSeconds)
}

func TestCache_LastWriterWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCache()

	first := testArtifact()
	first.Title = "First"
	_, err := c.Put(ctx, "art:abc", first, 0.75)
	require.NoError(t, err)

	second := testArtifact()
	second.Title = "Second"
	_, err = c.Put(ctx, "art:abc", second, 0.90)
	require.NoError(t, err)

	entry, found, err := c.Get(ctx, "art:abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Second", entry.Artifact.Title)
	assert.Equal(t, 0.90, entry.QualityScore)
}

func TestCache_CorruptEntryIsAMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := memstore.New()
	handle := store.NewHandle(mem, nil, 50*time.Millisecond, slog.Default(), nil)
	c := cache.New(handle, testCacheConfig(), slog.Default(), metrics.NewForTesting())

	require.NoError(t, mem.Set(ctx, "art:abc", "{not json", time.Minute))

	_, found, err := c.Get(ctx, "art:abc")
	require.NoError(t, err)
	assert.False(t, found)
}
