package sentries

// ---------------------------------------------------------------------------
// Identity — composite registry key
// ---------------------------------------------------------------------------.

// Identity uniquely identifies a sentry slot in the registry. It is a plain
// comparable value: two identities with the same scope, name, and kind refer
// to the same slot.
type Identity struct {
	// Scope is the owner scope, typically the fully qualified name of the
	// component that created the sentry.
	Scope string
	// Name is the logical name of the guarded resource within the scope.
	Name string
	// Kind is the sentry kind, e.g. "circuit_breaker" or "rate_limiter".
	Kind string
}

// NamingStrategy derives the composite string key for an identity. The
// reporter uses it to compute external management identifiers, which must be
// unique and stable for the sentry's entire live span.
type NamingStrategy func(id Identity) string

// DotNaming is the default naming strategy: scope + "." + name + "." + kind.
func DotNaming(id Identity) string {
	return id.Scope + "." + id.Name + "." + id.Kind
}

// NewIdentity creates an identity from its three components.
func NewIdentity(scope, name, kind string) Identity {
	return Identity{Scope: scope, Name: name, Kind: kind}
}

// String returns the identity's composite key under the default naming
// strategy.
func (id Identity) String() string { return DotNaming(id) }
