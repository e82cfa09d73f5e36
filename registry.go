package sentries

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Listener — membership observer contract
// ---------------------------------------------------------------------------.

// Listener observes registry membership changes. Notifications are delivered
// synchronously on the goroutine performing the triggering mutation, in
// listener registration order, so implementations must be fast and
// non-blocking. Listeners never own the sentries they observe.
type Listener interface {
	// OnSentryAdded is invoked after a sentry wins registration for id.
	OnSentryAdded(id Identity, s Sentry)
	// OnSentryRemoved is invoked after the entry for id is removed.
	OnSentryRemoved(id Identity)
}

// ---------------------------------------------------------------------------
// Registry — exactly one live sentry per identity
// ---------------------------------------------------------------------------.

// Registry tracks live sentries by [Identity] and notifies an ordered list
// of listeners of membership changes.
//
// All mutation of the identity→sentry store goes through single-key atomic
// primitives (insert-if-absent, remove-if-present); there is no map-wide
// lock, so operations on unrelated identities never contend. The listener
// list is copy-on-write, so listener subscription never blocks concurrent
// get/remove traffic and notification iterates a consistent snapshot.
//
// The registry holds sentries by reference and does not manage their
// lifetime. Removal is always explicit, via [Registry.RemoveSentry] or the
// owner releasing its [Handle]; entries never disappear silently.
type Registry struct {
	entries   sync.Map // Identity -> Sentry
	listeners atomic.Pointer[[]Listener]
	mu        sync.Mutex // serializes listener list writes
}

//nolint:gochecknoglobals // singleton via sync.OnceValue
var defaultRegistry = sync.OnceValue(NewRegistry)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}

	var empty []Listener

	r.listeners.Store(&empty)

	return r
}

// DefaultRegistry returns the package-level global registry, creating it on
// first call.
//
// Pattern: Singleton — lazy initialization via sync.OnceValue ensures exactly
// one global registry exists and is safe for concurrent access.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// GetOrAdd returns the live sentry for id, registering candidate if the slot
// is empty.
//
// Exactly one candidate among concurrent racers for the same identity becomes
// the registered instance: the first successful insert wins, and the winning
// goroutine synchronously notifies every current listener with OnSentryAdded
// before returning. Every racer receives the same winning instance.
//
// A losing candidate is discarded: if it declares the stop capability its
// Stop is invoked once, and it never reaches a listener. Losing a race is
// not an error.
func (r *Registry) GetOrAdd(candidate Sentry, id Identity) Sentry {
	actual, loaded := r.entries.LoadOrStore(id, candidate)

	live := actual.(Sentry)
	if !loaded {
		r.notifyAdded(id, live)
		return live
	}

	// Loser path: release the discarded candidate. Guard against callers
	// re-presenting the already-registered instance.
	if live != candidate {
		if st, ok := asStoppable(candidate); ok {
			st.Stop()
		}
	}

	return live
}

// Get returns the live sentry for id, if any.
func (r *Registry) Get(id Identity) (Sentry, bool) {
	v, ok := r.entries.Load(id)
	if !ok {
		return nil, false
	}

	return v.(Sentry), true
}

// RemoveSentry removes the entry for id, if present. The removed sentry's
// Stop is invoked when it declares the stop capability, then every current
// listener is notified with OnSentryRemoved. Removing an absent identity is
// a no-op.
func (r *Registry) RemoveSentry(id Identity) {
	v, ok := r.entries.LoadAndDelete(id)
	if !ok {
		return
	}

	if st, stoppable := asStoppable(v.(Sentry)); stoppable {
		st.Stop()
	}

	r.notifyRemoved(id)
}

// AddListener appends l to the listener list, then synchronously replays
// OnSentryAdded for every entry live at replay time.
//
// The replay may interleave with concurrent mutation: a listener added
// mid-burst may or may not observe an in-flight registration, but it never
// observes an added notification that is not eventually matched by either
// continued liveness or a removed notification, and never a double-add for
// one identity without an intervening removal.
func (r *Registry) AddListener(l Listener) {
	r.mu.Lock()

	old := *r.listeners.Load()
	// Copy-on-write so concurrent notification keeps iterating its snapshot.
	updated := make([]Listener, len(old), len(old)+1)
	copy(updated, old)
	updated = append(updated, l)
	r.listeners.Store(&updated)

	r.mu.Unlock()

	r.entries.Range(func(k, v any) bool {
		l.OnSentryAdded(k.(Identity), v.(Sentry))
		return true
	})
}

// RemoveListener removes the first occurrence of l from the listener list.
// No retroactive OnSentryRemoved notifications are sent for sentries it
// previously saw. Removing an unknown listener is a no-op.
func (r *Registry) RemoveListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.listeners.Load()

	for i, cur := range old {
		if cur != l {
			continue
		}

		updated := make([]Listener, 0, len(old)-1)
		updated = append(updated, old[:i]...)
		updated = append(updated, old[i+1:]...)
		r.listeners.Store(&updated)

		return
	}
}

func (r *Registry) notifyAdded(id Identity, s Sentry) {
	for _, l := range *r.listeners.Load() {
		l.OnSentryAdded(id, s)
	}
}

func (r *Registry) notifyRemoved(id Identity) {
	for _, l := range *r.listeners.Load() {
		l.OnSentryRemoved(id)
	}
}
