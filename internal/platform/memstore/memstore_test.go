package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lessonforge/lessonforge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestStore_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	current := time.Now()
	s.now = func() time.Time { return current }

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_Incr(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	n, err := s.Incr(ctx, "hits")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Incr(ctx, "hits")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStore_CheckWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	current := time.Now()
	s.now = func() time.Time { return current }

	// First three requests within the limit are allowed.
	for i := int64(1); i <= 3; i++ {
		allowed, count, reset, err := s.CheckWindow(ctx, "subj", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, count)
		assert.Greater(t, reset, time.Duration(0))
	}

	// The limit+1-th request is refused and the count is not clipped past
	// the limit.
	allowed, count, reset, err := s.CheckWindow(ctx, "subj", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), count)
	assert.Greater(t, reset, time.Duration(0))

	// A new window starts after expiry.
	current = current.Add(2 * time.Minute)
	allowed, count, _, err = s.CheckWindow(ctx, "subj", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)
}

func TestStore_CheckWindow_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	const limit = 10
	const callers = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _, _, err := s.CheckWindow(ctx, "subj", limit, time.Minute)
			assert.NoError(t, err)
			if allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, admitted)
}
