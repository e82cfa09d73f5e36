package sentries

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------.

type reporterConfig struct {
	naming NamingStrategy
	logger *slog.Logger
}

// ReporterOption configures a [Reporter].
type ReporterOption func(*reporterConfig)

// WithNaming sets the naming strategy used to derive external identifiers.
// The strategy must map distinct identities to distinct strings; collisions
// surface as fatal registration failures.
func WithNaming(n NamingStrategy) ReporterOption {
	return func(cfg *reporterConfig) {
		cfg.naming = n
	}
}

// WithLogger sets the logger for non-fatal reporter diagnostics.
func WithLogger(l *slog.Logger) ReporterOption {
	return func(cfg *reporterConfig) {
		cfg.logger = l
	}
}

// ---------------------------------------------------------------------------
// Reporter — mirrors registry membership into a BeanRegistry
// ---------------------------------------------------------------------------.

// Reporter is a [Listener] that keeps an external management registry in
// lock-step with registry membership: one capability-specialized adapter per
// live sentry, addressed by a deterministic external identifier derived from
// the sentry's identity.
//
// Pattern: Observer — the reporter subscribes to the registry and performs
// its bookkeeping inside the listener callbacks, which run serialized on the
// registry-mutating goroutine.
type Reporter struct {
	reg    *Registry
	beans  BeanRegistry
	naming NamingStrategy
	logger *slog.Logger

	ids sync.Map // Identity -> external identifier string

	mu      sync.Mutex
	started bool
}

// NewReporter creates a reporter mirroring reg into beans. It does nothing
// until [Reporter.Start] is called.
func NewReporter(reg *Registry, beans BeanRegistry, opts ...ReporterOption) *Reporter {
	cfg := reporterConfig{
		naming: DotNaming,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	return &Reporter{
		reg:    reg,
		beans:  beans,
		naming: cfg.naming,
		logger: cfg.logger,
	}
}

// Start subscribes the reporter to the registry; the subscription replay
// registers an adapter for every sentry already live. Idempotent: calling
// Start while started is a no-op.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return
	}

	r.started = true
	r.reg.AddListener(r)
}

// Shutdown unsubscribes from the registry, unregisters every adapter
// currently tracked, and clears the bookkeeping. Idempotent: a no-op after
// the first call until the reporter is started again.
func (r *Reporter) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}

	r.started = false
	r.reg.RemoveListener(r)

	r.ids.Range(func(k, v any) bool {
		r.ids.Delete(k)
		r.unregister(k.(Identity), v.(string))
		return true
	})
}

// OnSentryAdded registers a management adapter for s under the external
// identifier derived from id. The adapter is a [TripperBean] when s declares
// the trip capability, a [SentryBean] otherwise.
//
// A rejected registration (identifier collision) panics: it means the naming
// strategy maps two live identities to one external identifier, a bug that
// must be fixed rather than masked. A replayed duplicate delivery for an
// identity already mirrored is skipped.
func (r *Reporter) OnSentryAdded(id Identity, s Sentry) {
	externalID := r.naming(id)

	if _, mirrored := r.ids.LoadOrStore(id, externalID); mirrored {
		// Subscription replay raced a concurrent registration; the adapter
		// is already in place.
		r.logger.Debug("sentry already mirrored", "identity", id.String())
		return
	}

	if err := r.beans.RegisterBean(externalID, newBean(s)); err != nil {
		r.ids.Delete(id)
		panic(fmt.Errorf("register management bean %q: %w", externalID, err))
	}
}

// OnSentryRemoved unregisters the adapter tracked for id. A missing mapping
// (never registered, or the reporter started after removal) is non-fatal and
// only logged.
func (r *Reporter) OnSentryRemoved(id Identity) {
	v, ok := r.ids.LoadAndDelete(id)
	if !ok {
		r.logger.Debug("no management bean tracked for removed sentry",
			"identity", id.String())
		return
	}

	r.unregister(id, v.(string))
}

// unregister tears down one external adapter. "Not found" is expected during
// concurrent teardown and swallowed at debug level; other failures must not
// block registry operation and are logged as warnings.
func (r *Reporter) unregister(id Identity, externalID string) {
	err := r.beans.UnregisterBean(externalID)

	switch {
	case err == nil:
	case errors.Is(err, ErrBeanNotFound):
		r.logger.Debug("management bean already unregistered",
			"identity", id.String(), "bean", externalID)
	default:
		r.logger.Warn("failed to unregister management bean",
			"identity", id.String(), "bean", externalID, "error", err)
	}
}
