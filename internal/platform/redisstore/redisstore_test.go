package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/store"
)

// newTestStore starts a miniredis instance and returns a Store bound to it.
func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewWithClient(client), mr
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	// Value disappears once the TTL elapses.
	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_Incr(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	n, err := s.Incr(ctx, "hits")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Incr(ctx, "hits")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStore_CheckWindow(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	// Requests up to the limit are admitted.
	for i := int64(1); i <= 3; i++ {
		allowed, count, reset, err := s.CheckWindow(ctx, "subj", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, count)
		assert.Greater(t, reset, time.Duration(0))
	}

	// The limit+1-th request is refused; the stored count stays at the
	// limit rather than being clipped past it.
	allowed, count, reset, err := s.CheckWindow(ctx, "subj", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), count)
	assert.Greater(t, reset, time.Duration(0))

	// A fresh window opens after the old one expires.
	mr.FastForward(2 * time.Minute)
	allowed, count, _, err = s.CheckWindow(ctx, "subj", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)
}

func TestStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	mr.Close()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrUnavailable)

	err = s.Set(ctx, "k", "v", time.Minute)
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, _, _, err = s.CheckWindow(ctx, "subj", 3, time.Minute)
	assert.ErrorIs(t, err, store.ErrUnavailable)

	assert.ErrorIs(t, s.Ping(ctx), store.ErrUnavailable)
}
