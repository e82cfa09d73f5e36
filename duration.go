package sentries

import (
	"sort"
	"sync"
	"time"
)

// maxReservoirSamples bounds the memory held per duration sentry; the oldest
// sample is evicted once the reservoir is full.
const maxReservoirSamples = 1000

// DurationStats is a point-in-time summary of recorded call durations.
type DurationStats struct {
	Count int           `json:"count"`
	Avg   time.Duration `json:"avg"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
}

// DurationSentry captures call durations against a resource in a bounded
// reservoir and summarizes them on demand.
//
// It declares the stop capability: Stop releases the reservoir, after which
// Record is a no-op. Stop is idempotent and safe on a sentry that never
// recorded anything, so a candidate losing a registration race can be
// stopped without harm.
type DurationSentry struct {
	resource string

	mu      sync.Mutex
	samples []time.Duration
	stopped bool
}

// NewDurationSentry creates a duration sentry for resource.
func NewDurationSentry(resource string) *DurationSentry {
	return &DurationSentry{
		resource: resource,
		samples:  make([]time.Duration, 0, maxReservoirSamples),
	}
}

// ResourceName returns the guarded resource's name.
func (d *DurationSentry) ResourceName() string { return d.resource }

// Capabilities declares the stop capability.
func (d *DurationSentry) Capabilities() Capability { return CapStop }

// Record adds one call duration to the reservoir. No-op after Stop.
func (d *DurationSentry) Record(dur time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if len(d.samples) >= maxReservoirSamples {
		d.samples = d.samples[1:]
	}

	d.samples = append(d.samples, dur)
}

// Reset discards all recorded samples. Idempotent.
func (d *DurationSentry) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.samples = d.samples[:0]
}

// Stop releases the reservoir. Further Record and Reset calls are no-ops.
// Idempotent.
func (d *DurationSentry) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.samples = nil
}

// Stopped reports whether Stop has been called.
func (d *DurationSentry) Stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.stopped
}

// Stats summarizes the reservoir. The zero value is returned after Stop or
// when nothing was recorded.
func (d *DurationSentry) Stats() DurationStats {
	d.mu.Lock()

	sorted := make([]time.Duration, len(d.samples))
	copy(sorted, d.samples)

	d.mu.Unlock()

	if len(sorted) == 0 {
		return DurationStats{}
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, s := range sorted {
		total += s
	}

	return DurationStats{
		Count: len(sorted),
		Avg:   total / time.Duration(len(sorted)),
		P50:   percentile(sorted, 50),
		P95:   percentile(sorted, 95),
		P99:   percentile(sorted, 99),
	}
}

// percentile returns the p-th percentile of a sorted sample set.
func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return sorted[idx]
}
