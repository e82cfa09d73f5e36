package sentries

import (
	"errors"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestRateLimiterBurst — full bucket allows rate calls, then rejects
// ---------------------------------------------------------------------------

func TestRateLimiterBurst(t *testing.T) {
	clk := newFakeClock()
	rl := NewRateLimiterSentry("api", 3, LimiterClock(clk))

	for i := 0; i < 3; i++ {
		if err := rl.Allow(); err != nil {
			t.Fatalf("Allow #%d = %v, want nil", i+1, err)
		}
	}

	if err := rl.Allow(); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Allow on empty bucket = %v, want ErrRateLimited", err)
	}
	if !rl.Saturated() {
		t.Fatal("Saturated = false on empty bucket")
	}
}

// ---------------------------------------------------------------------------
// TestRateLimiterRefill — tokens return with elapsed time
// ---------------------------------------------------------------------------

func TestRateLimiterRefill(t *testing.T) {
	clk := newFakeClock()
	rl := NewRateLimiterSentry("api", 2, LimiterClock(clk))

	for i := 0; i < 2; i++ {
		if err := rl.Allow(); err != nil {
			t.Fatalf("Allow = %v, want nil", err)
		}
	}

	if err := rl.Allow(); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Allow = %v, want ErrRateLimited", err)
	}

	// One second at 2 tokens/s refills two tokens.
	clk.Advance(time.Second)

	for i := 0; i < 2; i++ {
		if err := rl.Allow(); err != nil {
			t.Fatalf("Allow after refill = %v, want nil", err)
		}
	}

	if err := rl.Allow(); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Allow past refill = %v, want ErrRateLimited", err)
	}
}

// ---------------------------------------------------------------------------
// TestRateLimiterCap — refill never exceeds capacity
// ---------------------------------------------------------------------------

func TestRateLimiterCap(t *testing.T) {
	clk := newFakeClock()
	rl := NewRateLimiterSentry("api", 2, LimiterClock(clk))

	// A long idle period still yields at most capacity tokens.
	clk.Advance(time.Hour)

	allowed := 0
	for i := 0; i < 10; i++ {
		if rl.Allow() == nil {
			allowed++
		}
	}

	if allowed != 2 {
		t.Fatalf("allowed = %d after long idle, want 2 (capacity)", allowed)
	}
}

// ---------------------------------------------------------------------------
// TestRateLimiterReset — refills the bucket immediately
// ---------------------------------------------------------------------------

func TestRateLimiterReset(t *testing.T) {
	clk := newFakeClock()
	rl := NewRateLimiterSentry("api", 1, LimiterClock(clk))

	if err := rl.Allow(); err != nil {
		t.Fatalf("Allow = %v, want nil", err)
	}
	if err := rl.Allow(); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Allow = %v, want ErrRateLimited", err)
	}

	rl.Reset()

	if err := rl.Allow(); err != nil {
		t.Fatalf("Allow after Reset = %v, want nil", err)
	}
	if rl.ResourceName() != "api" {
		t.Fatalf("ResourceName = %q, want %q", rl.ResourceName(), "api")
	}
}
