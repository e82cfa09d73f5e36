package sentries

import (
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------.

type (
	circuitBreakerConfig struct {
		clock               Clock
		failureThreshold    int
		recoveryTimeout     time.Duration
		halfOpenMaxAttempts int
	}

	// CircuitBreakerOption configures a circuit breaker sentry.
	CircuitBreakerOption func(*circuitBreakerConfig)

	// CircuitBreakerSentry guards a resource by failing fast while the
	// resource is unhealthy.
	//
	// Pattern: Circuit Breaker — fast-fails calls to an unhealthy resource;
	// auto-recovers via half-open probe after a timeout. Lock-free via
	// atomic CAS. Declares the trip capability: the management reporter
	// exposes Trip through the extended adapter.
	CircuitBreakerSentry struct {
		resource string
		clock    Clock
		cfg      circuitBreakerConfig

		state             atomic.Uint32 // stateClosed | stateOpen | stateHalfOpen
		failureCount      atomic.Int64
		lastFailureNano   atomic.Int64 // unix nano of last failure
		halfOpenSuccesses atomic.Int64
	}
)

// Circuit breaker states (stored in atomic.Uint32).
const (
	stateClosed   uint32 = 0
	stateOpen     uint32 = 1
	stateHalfOpen uint32 = 2
)

func defaultCircuitBreakerConfig() circuitBreakerConfig {
	return circuitBreakerConfig{
		clock:               RealClock{},
		failureThreshold:    5,
		recoveryTimeout:     30 * time.Second,
		halfOpenMaxAttempts: 1,
	}
}

// FailureThreshold sets the number of consecutive failures before opening.
func FailureThreshold(n int) CircuitBreakerOption {
	return func(cfg *circuitBreakerConfig) {
		cfg.failureThreshold = n
	}
}

// RecoveryTimeout sets how long to wait in open state before transitioning
// to half-open.
func RecoveryTimeout(d time.Duration) CircuitBreakerOption {
	return func(cfg *circuitBreakerConfig) {
		cfg.recoveryTimeout = d
	}
}

// HalfOpenMaxAttempts sets the number of successful probes needed to close
// from half-open.
func HalfOpenMaxAttempts(n int) CircuitBreakerOption {
	return func(cfg *circuitBreakerConfig) {
		cfg.halfOpenMaxAttempts = n
	}
}

// BreakerClock substitutes the clock used for recovery timing.
func BreakerClock(c Clock) CircuitBreakerOption {
	return func(cfg *circuitBreakerConfig) {
		cfg.clock = c
	}
}

// NewCircuitBreakerSentry creates a closed circuit breaker guarding resource.
func NewCircuitBreakerSentry(resource string, opts ...CircuitBreakerOption) *CircuitBreakerSentry {
	cfg := defaultCircuitBreakerConfig()
	for _, o := range opts {
		o(&cfg)
	}

	return &CircuitBreakerSentry{
		resource: resource,
		clock:    cfg.clock,
		cfg:      cfg,
	}
}

// ResourceName returns the guarded resource's name.
func (cb *CircuitBreakerSentry) ResourceName() string { return cb.resource }

// Capabilities declares the trip capability.
func (cb *CircuitBreakerSentry) Capabilities() Capability { return CapTrip }

// Reset closes the breaker and clears all counters. Idempotent.
func (cb *CircuitBreakerSentry) Reset() {
	cb.state.Store(stateClosed)
	cb.failureCount.Store(0)
	cb.halfOpenSuccesses.Store(0)
	cb.lastFailureNano.Store(0)
}

// Trip forces the breaker open as if the failure threshold had just been
// crossed. The recovery timeout starts from now.
func (cb *CircuitBreakerSentry) Trip() {
	cb.lastFailureNano.Store(cb.clock.Now().UnixNano())
	cb.halfOpenSuccesses.Store(0)
	cb.state.Store(stateOpen)
}

// Allow checks if a call should be allowed. Returns nil if the breaker is
// closed or half-open. Returns ErrCircuitOpen if the breaker is open and the
// recovery timeout hasn't elapsed.
func (cb *CircuitBreakerSentry) Allow() error {
	s := cb.state.Load()

	if s == stateOpen {
		// Check if recovery timeout has elapsed.
		lastNano := cb.lastFailureNano.Load()

		lastTime := time.Unix(0, lastNano)
		if cb.clock.Since(lastTime) > cb.cfg.recoveryTimeout {
			// Attempt CAS from open to half-open.
			if cb.state.CompareAndSwap(stateOpen, stateHalfOpen) {
				cb.halfOpenSuccesses.Store(0)
			}
			// Even if CAS failed (another goroutine already transitioned),
			// the state is now half-open, so allow the call.
			return nil
		}

		return ErrCircuitOpen
	}

	// stateClosed or stateHalfOpen: allow the call.
	return nil
}

// RecordSuccess records a successful call against the guarded resource.
func (cb *CircuitBreakerSentry) RecordSuccess() {
	s := cb.state.Load()

	switch s {
	case stateClosed:
		// Reset failure count on success.
		cb.failureCount.Store(0)

	case stateHalfOpen:
		newCount := cb.halfOpenSuccesses.Add(1)
		if newCount < int64(cb.cfg.halfOpenMaxAttempts) {
			break
		}

		if !cb.state.CompareAndSwap(stateHalfOpen, stateClosed) {
			break
		}

		cb.failureCount.Store(0)
		cb.halfOpenSuccesses.Store(0)

	default:
		// stateOpen — no action on success
	}
}

// RecordFailure records a failed call against the guarded resource.
func (cb *CircuitBreakerSentry) RecordFailure() {
	// Record the failure time.
	cb.lastFailureNano.Store(cb.clock.Now().UnixNano())

	s := cb.state.Load()

	switch s {
	case stateClosed:
		newCount := cb.failureCount.Add(1)
		if newCount < int64(cb.cfg.failureThreshold) {
			break
		}

		cb.state.CompareAndSwap(stateClosed, stateOpen)

	case stateHalfOpen:
		// Any failure in half-open goes back to open.
		if cb.state.CompareAndSwap(stateHalfOpen, stateOpen) {
			cb.halfOpenSuccesses.Store(0)
		}

	default:
		// stateOpen — already open, no state change needed
	}
}

// State returns the current state as a string: "closed", "open", or
// "half_open".
func (cb *CircuitBreakerSentry) State() string {
	switch cb.state.Load() {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}
