package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/store"
)

type stubHealthChecker struct {
	health store.Health
}

func (s *stubHealthChecker) Health(context.Context) store.Health {
	return s.health
}

type stubCooldowns struct {
	snapshot map[string]time.Time
}

func (s *stubCooldowns) CooldownSnapshot() map[string]time.Time {
	return s.snapshot
}

func TestHealth_OK(t *testing.T) {
	t.Parallel()

	handler := NewHealthHandler(
		&stubHealthChecker{health: store.Health{Primary: "redis", CheckedAt: time.Now()}},
		&stubCooldowns{})

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "redis", resp.Store.Primary)
	assert.Empty(t, resp.ProvidersCoolingDown)
}

func TestHealth_DegradedStoreStillServes(t *testing.T) {
	t.Parallel()

	cooling := map[string]time.Time{"gemini-flash": time.Now().Add(time.Minute)}
	handler := NewHealthHandler(
		&stubHealthChecker{health: store.Health{
			Primary:   "redis",
			Degraded:  true,
			LastError: "dial tcp: connection refused",
			CheckedAt: time.Now(),
		}},
		&stubCooldowns{snapshot: cooling})

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	// Degraded is a state, not an outage: the endpoint stays 200.
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.True(t, resp.Store.Degraded)
	assert.Contains(t, resp.ProvidersCoolingDown, "gemini-flash")
}
