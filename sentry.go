package sentries

// ---------------------------------------------------------------------------
// Sentry — the capability contract the registry relies on
// ---------------------------------------------------------------------------.

type (
	// Capability is a bit set of optional operations a sentry declares at
	// construction time. The registry and reporter resolve capabilities from
	// this declaration once, at registration — never by type inspection at
	// notification time.
	Capability uint8

	// Sentry is the minimal surface every guard exposes to the registry.
	// The registry holds sentries by reference and never owns their
	// lifetime; the creating caller does (see [Handle]).
	Sentry interface {
		// ResourceName returns the name of the guarded resource.
		ResourceName() string
		// Reset clears the sentry's internal counters and state. It is
		// idempotent.
		Reset()
		// Capabilities returns the capability set declared at construction.
		Capabilities() Capability
	}

	// Stoppable is the optional capability for sentries holding releasable
	// resources. Stop is idempotent and must be safe on a sentry that was
	// constructed but never placed into active use: the registry invokes it
	// on removal and on candidates that lose a registration race.
	Stoppable interface {
		Sentry
		Stop()
	}

	// Tripper is the optional circuit-breaker capability. Trip forces the
	// breaker open. It is consumed only by the management reporter, which
	// exposes it through the extended adapter.
	Tripper interface {
		Sentry
		Trip()
	}
)

// Declared capabilities.
const (
	// CapStop marks a sentry as [Stoppable].
	CapStop Capability = 1 << iota
	// CapTrip marks a sentry as a [Tripper].
	CapTrip
)

// Has reports whether c declares all bits in want.
func (c Capability) Has(want Capability) bool { return c&want == want }

// asStoppable resolves the stop capability. A sentry is stoppable only when
// it both declares CapStop and implements [Stoppable]; an implementation
// without the declaration is deliberately ignored.
func asStoppable(s Sentry) (Stoppable, bool) {
	if !s.Capabilities().Has(CapStop) {
		return nil, false
	}

	st, ok := s.(Stoppable)

	return st, ok
}

// asTripper resolves the trip capability, gated on the CapTrip declaration
// like asStoppable.
func asTripper(s Sentry) (Tripper, bool) {
	if !s.Capabilities().Has(CapTrip) {
		return nil, false
	}

	tr, ok := s.(Tripper)

	return tr, ok
}
