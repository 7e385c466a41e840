package orchestrator

import (
	"sync"
	"time"
)

// breaker tracks consecutive failures per provider and opens for a
// cool-down period once the threshold is reached. This is deliberately
// lighter than a full circuit breaker: no half-open probing, just
// skip-and-retry-later, which is enough to stop hammering a provider
// that is clearly down without giving up on it permanently.
type breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration

	failures  map[string]int
	openUntil map[string]time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// newBreaker creates a breaker with the given consecutive-failure
// threshold and cool-down period.
func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{
		threshold: threshold,
		cooldown:  cooldown,
		failures:  make(map[string]int),
		openUntil: make(map[string]time.Time),
		now:       time.Now,
	}
}

// allow reports whether the provider may be attempted now. A provider
// whose cool-down has elapsed is re-admitted with a clean failure count.
func (b *breaker) allow(providerID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, open := b.openUntil[providerID]
	if !open {
		return true
	}

	if b.now().Before(until) {
		return false
	}

	// Cool-down elapsed: re-admit and start counting fresh.
	delete(b.openUntil, providerID)
	b.failures[providerID] = 0
	return true
}

// recordSuccess resets the provider's consecutive failure count.
func (b *breaker) recordSuccess(providerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures[providerID] = 0
	delete(b.openUntil, providerID)
}

// recordFailure counts a failure and opens the breaker once the
// threshold is reached.
func (b *breaker) recordFailure(providerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures[providerID]++
	if b.failures[providerID] >= b.threshold {
		b.openUntil[providerID] = b.now().Add(b.cooldown)
	}
}

// CooldownSnapshot lists the providers currently cooling down and when
// each re-admits. Exposed through the health endpoint.
func (b *breaker) CooldownSnapshot() map[string]time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := make(map[string]time.Time, len(b.openUntil))
	now := b.now()
	for id, until := range b.openUntil {
		if now.Before(until) {
			snapshot[id] = until
		}
	}
	return snapshot
}
