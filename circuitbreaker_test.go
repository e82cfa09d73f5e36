package sentries

import (
	"errors"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestCircuitBreakerOpensAtThreshold
// ---------------------------------------------------------------------------

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	clk := newFakeClock()
	cb := NewCircuitBreakerSentry("db",
		BreakerClock(clk),
		FailureThreshold(3),
		RecoveryTimeout(time.Minute),
	)

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}

	if cb.State() != "closed" {
		t.Fatalf("state = %q, want closed below threshold", cb.State())
	}
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow below threshold = %v, want nil", err)
	}

	cb.RecordFailure()

	if cb.State() != "open" {
		t.Fatalf("state = %q, want open at threshold", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Allow while open = %v, want ErrCircuitOpen", err)
	}
}

// ---------------------------------------------------------------------------
// TestCircuitBreakerRecovery — open → half-open → closed
// ---------------------------------------------------------------------------

func TestCircuitBreakerRecovery(t *testing.T) {
	clk := newFakeClock()
	cb := NewCircuitBreakerSentry("db",
		BreakerClock(clk),
		FailureThreshold(1),
		RecoveryTimeout(time.Second),
		HalfOpenMaxAttempts(2),
	)

	cb.RecordFailure()

	if cb.State() != "open" {
		t.Fatalf("state = %q, want open", cb.State())
	}

	clk.Advance(2 * time.Second)

	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow after recovery timeout = %v, want nil", err)
	}
	if cb.State() != "half_open" {
		t.Fatalf("state = %q, want half_open", cb.State())
	}

	cb.RecordSuccess()

	if cb.State() != "half_open" {
		t.Fatalf("state = %q, want half_open until probe budget met", cb.State())
	}

	cb.RecordSuccess()

	if cb.State() != "closed" {
		t.Fatalf("state = %q, want closed after probes", cb.State())
	}
}

// ---------------------------------------------------------------------------
// TestCircuitBreakerHalfOpenFailure — any half-open failure reopens
// ---------------------------------------------------------------------------

func TestCircuitBreakerHalfOpenFailure(t *testing.T) {
	clk := newFakeClock()
	cb := NewCircuitBreakerSentry("db",
		BreakerClock(clk),
		FailureThreshold(1),
		RecoveryTimeout(time.Second),
	)

	cb.RecordFailure()
	clk.Advance(2 * time.Second)
	_ = cb.Allow() // transitions to half-open

	cb.RecordFailure()

	if cb.State() != "open" {
		t.Fatalf("state = %q, want open after half-open failure", cb.State())
	}
}

// ---------------------------------------------------------------------------
// TestCircuitBreakerTrip — forced open, recovers after the timeout
// ---------------------------------------------------------------------------

func TestCircuitBreakerTrip(t *testing.T) {
	clk := newFakeClock()
	cb := NewCircuitBreakerSentry("db",
		BreakerClock(clk),
		RecoveryTimeout(time.Minute),
	)

	cb.Trip()

	if cb.State() != "open" {
		t.Fatalf("state = %q, want open after Trip", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Allow after Trip = %v, want ErrCircuitOpen", err)
	}

	clk.Advance(2 * time.Minute)

	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow after tripped recovery window = %v, want nil", err)
	}
}

// ---------------------------------------------------------------------------
// TestCircuitBreakerReset — closes and clears counters, idempotent
// ---------------------------------------------------------------------------

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreakerSentry("db", FailureThreshold(2))

	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != "open" {
		t.Fatalf("state = %q, want open", cb.State())
	}

	cb.Reset()
	cb.Reset()

	if cb.State() != "closed" {
		t.Fatalf("state = %q, want closed after Reset", cb.State())
	}

	// Counters cleared: one failure is again below the threshold.
	cb.RecordFailure()

	if cb.State() != "closed" {
		t.Fatalf("state = %q, want closed after single post-reset failure", cb.State())
	}
}

func TestCircuitBreakerResourceName(t *testing.T) {
	cb := NewCircuitBreakerSentry("payments-db")

	if got := cb.ResourceName(); got != "payments-db" {
		t.Fatalf("ResourceName = %q, want %q", got, "payments-db")
	}
}
