package sentries

// ---------------------------------------------------------------------------
// Sentinel errors and construction failures
// ---------------------------------------------------------------------------.

// sentryError is the concrete type backing all sentinel errors.
type sentryError string

// Sentinel errors.
var (
	// ErrBeanExists is returned by a bean registry when the external
	// identifier is already taken. Seen from the reporter this is fatal: it
	// signals a broken naming strategy, not a transient fault.
	ErrBeanExists error = sentryError("management bean already registered")
	// ErrBeanNotFound is returned by a bean registry when unregistering an
	// unknown identifier. The reporter swallows it (common during concurrent
	// teardown).
	ErrBeanNotFound error = sentryError("management bean not found")
	// ErrCircuitOpen is returned when a circuit breaker sentry is open.
	ErrCircuitOpen error = sentryError("circuit breaker is open")
	// ErrRateLimited is returned when a rate limiter sentry has no tokens.
	ErrRateLimited error = sentryError("rate limited")
	// ErrBulkheadFull is returned when a bulkhead sentry has no free slots.
	ErrBulkheadFull error = sentryError("bulkhead full")
)

func (e sentryError) Error() string { return string(e) }

// ResourceError reports that a sentry could not be constructed for a
// resource, e.g. because its configuration is invalid or the guarded
// resource is unavailable. It is distinct from registry race resolution,
// which never produces errors.
type ResourceError struct {
	// Resource is the name of the guarded resource.
	Resource string
	// Err is the underlying cause.
	Err error
}

// NewResourceError wraps err as a construction failure for resource.
// Returns nil if err is nil.
func NewResourceError(resource string, err error) error {
	if err == nil {
		return nil
	}

	return &ResourceError{Resource: resource, Err: err}
}

func (e *ResourceError) Error() string {
	return "sentry for resource " + e.Resource + ": " + e.Err.Error()
}

func (e *ResourceError) Unwrap() error { return e.Err }
