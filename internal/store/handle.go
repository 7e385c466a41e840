package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// Health is a point-in-time snapshot of the handle's view of its stores,
// exposed for observability. It never participates in admission or cache
// decisions.
type Health struct {
	Primary   string    `json:"primary"`
	Degraded  bool      `json:"degraded"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Handle routes every store operation to the shared (primary) store and
// fails over to the in-process fallback when the primary does not answer
// within the probe timeout. Failover is per-operation: the primary is
// retried on the next call, so a recovered store is picked up without
// coordination.
//
// When fallback is disabled the primary's error is returned unchanged.
type Handle struct {
	primary      KVStore
	fallback     KVStore
	probeTimeout time.Duration
	logger       *slog.Logger

	// degraded records whether the most recent primary operation failed.
	// Observability only; routing always probes the primary first.
	degraded atomic.Bool

	// onFallback is invoked once per operation served by the fallback.
	onFallback func()
}

// NewHandle creates a failover handle over a primary store and an
// optional fallback. A nil fallback disables failover. onFallback may be
// nil; when set it is called for every operation served by the fallback
// store (used for metrics).
func NewHandle(
	primary KVStore,
	fallback KVStore,
	probeTimeout time.Duration,
	logger *slog.Logger,
	onFallback func(),
) *Handle {
	return &Handle{
		primary:      primary,
		fallback:     fallback,
		probeTimeout: probeTimeout,
		logger:       logger.With(slog.String("component", "store_handle")),
		onFallback:   onFallback,
	}
}

// Degraded reports whether the most recent primary operation failed.
func (h *Handle) Degraded() bool {
	return h.degraded.Load()
}

// Health probes the primary store and returns a snapshot. Probe failures
// are reported, never propagated: health checking informs operators, it
// does not gate requests.
func (h *Handle) Health(ctx context.Context) Health {
	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	health := Health{
		Primary:   h.primary.Name(),
		CheckedAt: time.Now().UTC(),
	}

	if err := h.primary.Ping(probeCtx); err != nil {
		health.Degraded = true
		health.LastError = err.Error()
	}

	return health
}

// Get routes a read through the primary with fallback.
// ErrNotFound is a result, not a failure: it never triggers failover.
func (h *Handle) Get(ctx context.Context, key string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	value, err := h.primary.Get(probeCtx, key)
	if err == nil || errors.Is(err, ErrNotFound) {
		h.degraded.Store(false)
		return value, err
	}

	if h.fallback == nil {
		return "", err
	}

	h.noteFallback(ctx, "get", key, err)
	return h.fallback.Get(ctx, key)
}

// Set routes a write through the primary with fallback.
func (h *Handle) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	err := h.primary.Set(probeCtx, key, value, ttl)
	if err == nil {
		h.degraded.Store(false)
		return nil
	}

	if h.fallback == nil {
		return err
	}

	h.noteFallback(ctx, "set", key, err)
	return h.fallback.Set(ctx, key, value, ttl)
}

// Incr routes a counter increment through the primary with fallback.
func (h *Handle) Incr(ctx context.Context, key string) (int64, error) {
	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	n, err := h.primary.Incr(probeCtx, key)
	if err == nil {
		h.degraded.Store(false)
		return n, nil
	}

	if h.fallback == nil {
		return 0, err
	}

	h.noteFallback(ctx, "incr", key, err)
	return h.fallback.Incr(ctx, key)
}

// CheckWindow routes an admission check through the primary with
// fallback. When served by the fallback the window is enforced with
// process-local counters only; the caller can observe this through
// Degraded and must surface it as a degraded decision, not hide it.
func (h *Handle) CheckWindow(
	ctx context.Context,
	key string,
	limit int64,
	window time.Duration,
) (bool, int64, time.Duration, error) {
	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	allowed, count, reset, err := h.primary.CheckWindow(probeCtx, key, limit, window)
	if err == nil {
		h.degraded.Store(false)
		return allowed, count, reset, nil
	}

	if h.fallback == nil {
		return false, 0, 0, err
	}

	h.noteFallback(ctx, "check_window", key, err)
	return h.fallback.CheckWindow(ctx, key, limit, window)
}

// noteFallback records a primary failure and the switch to the fallback
// store for this operation.
func (h *Handle) noteFallback(ctx context.Context, op string, key string, err error) {
	h.degraded.Store(true)
	if h.onFallback != nil {
		h.onFallback()
	}
	h.logger.WarnContext(ctx, "shared store unreachable, using fallback",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
		slog.String("fallback", h.fallback.Name()))
}
