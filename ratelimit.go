package sentries

import (
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// RateLimiterSentry
// ---------------------------------------------------------------------------.

// fixedPointScale converts floating-point tokens to fixed-point integers.
// Using 1e9 gives nanosecond-level precision for token fractions.
const fixedPointScale int64 = 1_000_000_000

type (
	rateLimitConfig struct {
		clock Clock
	}

	// RateLimitOption configures a rate limiter sentry.
	RateLimitOption func(*rateLimitConfig)

	// RateLimiterSentry throttles the rate of calls to a resource using a
	// token bucket.
	//
	// Pattern: Rate Limiter — token bucket controls call throughput;
	// lock-free via atomic CAS for token acquisition and refill. Allow never
	// blocks: a call with no token available is rejected immediately.
	RateLimiterSentry struct {
		resource string
		rate     float64 // tokens per second
		capacity int64   // max tokens in fixed-point (rate * fixedPointScale)
		clock    Clock

		tokens   atomic.Int64 // current tokens in fixed-point
		lastNano atomic.Int64 // last refill timestamp (unix nano)
	}
)

// LimiterClock substitutes the clock used for token refill.
func LimiterClock(c Clock) RateLimitOption {
	return func(cfg *rateLimitConfig) {
		cfg.clock = c
	}
}

// NewRateLimiterSentry creates a rate limiter guarding resource that allows
// rate tokens per second, starting with a full bucket.
func NewRateLimiterSentry(resource string, rate float64, opts ...RateLimitOption) *RateLimiterSentry {
	cfg := rateLimitConfig{clock: RealClock{}}
	for _, o := range opts {
		o(&cfg)
	}

	rl := &RateLimiterSentry{
		resource: resource,
		rate:     rate,
		capacity: int64(rate * float64(fixedPointScale)),
		clock:    cfg.clock,
	}

	// Start with a full bucket.
	rl.tokens.Store(rl.capacity)
	rl.lastNano.Store(cfg.clock.Now().UnixNano())

	return rl
}

// ResourceName returns the guarded resource's name.
func (rl *RateLimiterSentry) ResourceName() string { return rl.resource }

// Capabilities declares no optional capabilities.
func (rl *RateLimiterSentry) Capabilities() Capability { return 0 }

// Reset refills the bucket to capacity and restarts the refill window.
// Idempotent.
func (rl *RateLimiterSentry) Reset() {
	rl.lastNano.Store(rl.clock.Now().UnixNano())
	rl.tokens.Store(rl.capacity)
}

// refill adds tokens based on elapsed time since the last refill. It uses a
// CAS loop to atomically update both the token count and the last-refill
// timestamp, ensuring lock-free correctness under concurrent access.
func (rl *RateLimiterSentry) refill() {
	for {
		oldLastNano := rl.lastNano.Load()
		nowNano := rl.clock.Now().UnixNano()
		elapsedNano := nowNano - oldLastNano

		if elapsedNano <= 0 {
			return
		}

		// Try to claim this time window by updating lastNano.
		if !rl.lastNano.CompareAndSwap(oldLastNano, nowNano) {
			// Another goroutine refilled; retry to see if there's more
			// elapsed time.
			continue
		}

		// Calculate tokens to add: elapsed_seconds * rate, in fixed-point.
		// elapsedNano * rate gives tokens in nanosecond-scaled units, which
		// is already in our fixed-point representation (scale = 1e9).
		addTokens := int64(float64(elapsedNano) * rl.rate)

		if addTokens <= 0 {
			return
		}

		// Add tokens atomically, capping at capacity.
		for {
			oldTokens := rl.tokens.Load()

			newTokens := oldTokens + addTokens
			if newTokens > rl.capacity {
				newTokens = rl.capacity
			}

			if rl.tokens.CompareAndSwap(oldTokens, newTokens) {
				return
			}
		}
	}
}

// tryAcquire attempts to decrement one token using a CAS loop.
// Returns true if a token was successfully acquired.
func (rl *RateLimiterSentry) tryAcquire() bool {
	for {
		current := rl.tokens.Load()
		if current < fixedPointScale {
			return false
		}

		if rl.tokens.CompareAndSwap(current, current-fixedPointScale) {
			return true
		}
	}
}

// Allow attempts to acquire a token. Returns ErrRateLimited if no token is
// available.
func (rl *RateLimiterSentry) Allow() error {
	rl.refill()

	if rl.tryAcquire() {
		return nil
	}

	return ErrRateLimited
}

// Saturated returns true if the bucket is empty (no tokens available).
func (rl *RateLimiterSentry) Saturated() bool {
	rl.refill()
	return rl.tokens.Load() < fixedPointScale
}
