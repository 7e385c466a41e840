package api

import (
	"context"
	"net/http"
	"time"

	"github.com/lessonforge/lessonforge/internal/api/shared"
	"github.com/lessonforge/lessonforge/internal/store"
)

// StoreHealthChecker reports the shared store's reachability.
type StoreHealthChecker interface {
	Health(ctx context.Context) store.Health
}

// CooldownReporter exposes the providers currently skipped by the
// failover breaker.
type CooldownReporter interface {
	CooldownSnapshot() map[string]time.Time
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	store     StoreHealthChecker
	cooldowns CooldownReporter
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(st StoreHealthChecker, cooldowns CooldownReporter) *HealthHandler {
	return &HealthHandler{store: st, cooldowns: cooldowns}
}

// Health handles GET /healthz requests. The service reports ok even when
// the shared store is degraded: the fallback keeps requests flowing, and
// the degradation is visible in the body for operators.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	health := h.store.Health(r.Context())

	resp := HealthResponse{
		Status: "ok",
		Store: StoreHealthDTO{
			Primary:   health.Primary,
			Degraded:  health.Degraded,
			LastError: health.LastError,
			CheckedAt: health.CheckedAt,
		},
		ProvidersCoolingDown: h.cooldowns.CooldownSnapshot(),
	}
	if health.Degraded {
		resp.Status = "degraded"
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
