package tribunal

import (
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

const (
	defaultBaseDelay = 500 * time.Millisecond
	defaultMaxDelay  = 30 * time.Second

	minJitter = 100 * time.Millisecond
	maxJitter = 500 * time.Millisecond

	shrinkEvery  = 5
	shrinkFactor = 0.8
)

// AdaptiveBackoff computes retry delays and ratchets the generic
// concurrency budget down under sustained rate limiting. The shrink is
// one-way for the process lifetime; recovery is an operator decision.
type AdaptiveBackoff struct {
	base     time.Duration
	maxDelay time.Duration
	budget   *ConcurrencyBudget
	logger   *slog.Logger

	rateLimited atomic.Uint64
}

func NewAdaptiveBackoff(base, maxDelay time.Duration, budget *ConcurrencyBudget, logger *slog.Logger) *AdaptiveBackoff {
	if base <= 0 {
		base = defaultBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AdaptiveBackoff{
		base:     base,
		maxDelay: maxDelay,
		budget:   budget,
		logger:   logger,
	}
}

// Delay returns the wait before retry number attempt after a 429: the
// exponential interval plus uniform jitter so concurrent callers do not
// retry in lockstep.
func (b *AdaptiveBackoff) Delay(attempt int) time.Duration {
	d := b.exponential(attempt) + minJitter + rand.N(maxJitter-minJitter)
	if d > b.maxDelay {
		d = b.maxDelay
	}

	return d
}

// FlatDelay returns the jitter-free exponential interval used for server
// and transport retries.
func (b *AdaptiveBackoff) FlatDelay(attempt int) time.Duration {
	d := b.exponential(attempt)
	if d > b.maxDelay {
		d = b.maxDelay
	}

	return d
}

func (b *AdaptiveBackoff) exponential(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 20 {
		attempt = 20
	}

	return b.base << uint(attempt)
}

// OnRateLimited counts one 429 response. Every fifth cumulative 429 shrinks
// the generic ceiling by twenty percent, floored at one permit.
func (b *AdaptiveBackoff) OnRateLimited() {
	count := b.rateLimited.Add(1)
	if count%shrinkEvery != 0 || b.budget == nil {
		return
	}

	from, to := b.budget.Shrink(shrinkFactor)
	if to < from {
		b.logger.Warn("sustained rate limiting, shrinking concurrency ceiling",
			"rate_limited_total", count,
			"ceiling_from", from,
			"ceiling_to", to,
		)
	}
}

func (b *AdaptiveBackoff) RateLimitedTotal() uint64 {
	return b.rateLimited.Load()
}
