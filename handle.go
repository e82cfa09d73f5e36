package sentries

import "sync"

// ---------------------------------------------------------------------------
// Handle — explicit ownership of a registered sentry
// ---------------------------------------------------------------------------.

// Handle ties a registered sentry to its owner. The owner must call Release
// on every exit path once the guarded resource is torn down; Release is the
// owner-driven trigger for removal and the matching OnSentryRemoved
// notifications. There is no implicit reclamation: an entry stays live until
// released or removed explicitly.
type Handle struct {
	reg     *Registry
	id      Identity
	release sync.Once
}

// Acquire registers candidate for id (or joins the existing entry, following
// the same winner/loser semantics as [Registry.GetOrAdd]) and returns the
// live sentry together with a release handle for it.
//
// Racing acquirers each get their own handle for the same entry; the first
// Release wins and the rest degrade to no-ops, matching the idempotence of
// [Registry.RemoveSentry].
func (r *Registry) Acquire(candidate Sentry, id Identity) (Sentry, *Handle) {
	live := r.GetOrAdd(candidate, id)

	return live, &Handle{reg: r, id: id}
}

// Release removes the handle's entry from the registry. It is idempotent:
// only the first call has any effect.
func (h *Handle) Release() {
	h.release.Do(func() {
		h.reg.RemoveSentry(h.id)
	})
}

// Identity returns the identity this handle was acquired for.
func (h *Handle) Identity() Identity { return h.id }
