package sentries

import "sync/atomic"

// BulkheadSentry limits concurrent access to a resource.
//
// Pattern: Bulkhead — semaphore-based concurrency limiter prevents resource
// exhaustion; lock-free via atomic CAS for slot acquisition.
type BulkheadSentry struct {
	resource      string
	maxConcurrent int64
	current       atomic.Int64
}

// NewBulkheadSentry creates a bulkhead guarding resource that allows at most
// maxConcurrent simultaneous calls.
func NewBulkheadSentry(resource string, maxConcurrent int) *BulkheadSentry {
	return &BulkheadSentry{
		resource:      resource,
		maxConcurrent: int64(maxConcurrent),
	}
}

// ResourceName returns the guarded resource's name.
func (b *BulkheadSentry) ResourceName() string { return b.resource }

// Capabilities declares no optional capabilities.
func (b *BulkheadSentry) Capabilities() Capability { return 0 }

// Reset zeroes the occupancy count. Idempotent. Callers still holding slots
// must not Release them after a Reset.
func (b *BulkheadSentry) Reset() { b.current.Store(0) }

// Acquire attempts to acquire a slot. Returns ErrBulkheadFull if at capacity.
func (b *BulkheadSentry) Acquire() error {
	for {
		cur := b.current.Load()
		if cur >= b.maxConcurrent {
			return ErrBulkheadFull
		}

		if b.current.CompareAndSwap(cur, cur+1) {
			return nil
		}
	}
}

// Release releases a slot.
func (b *BulkheadSentry) Release() {
	b.current.Add(-1)
}

// Full returns true if all slots are in use.
func (b *BulkheadSentry) Full() bool {
	return b.current.Load() >= b.maxConcurrent
}
