// Package admission decides whether a request may proceed now, later, or
// not at all. One fixed window of counted requests exists per subject key
// (caller identity plus endpoint class); the check-and-increment is a
// single atomic store round trip, so concurrent callers sharing a subject
// never admit more than the configured limit.
package admission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/platform/metrics"
	"github.com/lessonforge/lessonforge/internal/store"
)

// keyPrefix namespaces admission counters in the shared store.
const keyPrefix = "adm:"

// Decision is the outcome of one admission check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit and Remaining describe the subject's window for rate-limit
	// response headers.
	Limit     int
	Remaining int

	// RetryAfter is how long a denied caller should wait before retrying.
	// Zero for allowed requests.
	RetryAfter time.Duration

	// ResetAt is when the current window closes.
	ResetAt time.Time

	// Degraded reports that the decision was made with process-local
	// counters because the shared store was unreachable.
	Degraded bool
}

// Controller enforces per-subject admission windows.
type Controller struct {
	store   *store.Handle
	cfg     config.AdmissionConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewController creates an admission controller backed by the given store
// handle.
func NewController(
	st *store.Handle,
	cfg config.AdmissionConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Controller {
	return &Controller{
		store:   st,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "admission")),
		metrics: m,
	}
}

// Check performs the admission check for one caller and endpoint class.
// The error return is reserved for store failures with fallback disabled;
// a denial is a Decision, not an error.
func (c *Controller) Check(ctx context.Context, callerID, endpointClass string) (Decision, error) {
	limit := c.cfg.EndpointLimitFor(endpointClass)
	window := time.Duration(limit.WindowSeconds) * time.Second
	subjectKey := keyPrefix + callerID + "|" + endpointClass

	allowed, count, reset, err := c.store.CheckWindow(ctx, subjectKey, int64(limit.Limit), window)
	if err != nil {
		c.metrics.AdmissionsTotal.WithLabelValues(endpointClass, "error").Inc()
		return Decision{}, fmt.Errorf("admission check for %s: %w", subjectKey, err)
	}

	decision := Decision{
		Allowed:   allowed,
		Limit:     limit.Limit,
		Remaining: limit.Limit - int(count),
		ResetAt:   time.Now().Add(reset),
		Degraded:  c.store.Degraded(),
	}
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}

	if allowed {
		c.metrics.AdmissionsTotal.WithLabelValues(endpointClass, "allowed").Inc()
		return decision, nil
	}

	decision.RetryAfter = reset
	if decision.RetryAfter <= 0 {
		decision.RetryAfter = time.Second
	}

	c.metrics.AdmissionsTotal.WithLabelValues(endpointClass, "denied").Inc()
	c.logger.InfoContext(ctx, "admission denied",
		slog.String("subject_key", subjectKey),
		slog.Int("limit", limit.Limit),
		slog.Int64("count", count),
		slog.Duration("retry_after", decision.RetryAfter),
		slog.Bool("degraded", decision.Degraded))

	return decision, nil
}
