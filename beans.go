package sentries

import (
	"sync"

	json "github.com/goccy/go-json"
)

// ---------------------------------------------------------------------------
// Management beans — external adapters for live sentries
// ---------------------------------------------------------------------------.

type (
	// BeanRegistry is the external management/observability registry the
	// reporter mirrors membership into. Implementations must reject
	// identifier collisions with [ErrBeanExists] and report unknown
	// identifiers on unregistration with [ErrBeanNotFound].
	BeanRegistry interface {
		// RegisterBean registers bean under the external identifier id.
		RegisterBean(id string, bean any) error
		// UnregisterBean removes the bean registered under id.
		UnregisterBean(id string) error
	}

	// SentryBean is the plain management adapter: it exposes the operations
	// every sentry supports.
	SentryBean struct {
		sentry Sentry
	}

	// TripperBean is the extended management adapter for sentries declaring
	// the trip capability; it additionally exposes Trip.
	TripperBean struct {
		SentryBean
		tripper Tripper
	}
)

// ResourceName returns the guarded resource's name.
func (b SentryBean) ResourceName() string { return b.sentry.ResourceName() }

// Reset clears the underlying sentry's state.
func (b SentryBean) Reset() { b.sentry.Reset() }

// Trip forces the underlying circuit breaker open.
func (b TripperBean) Trip() { b.tripper.Trip() }

// newBean selects the adapter for s by declared capability: a [TripperBean]
// for trip-capable sentries, a [SentryBean] otherwise.
func newBean(s Sentry) any {
	if tr, ok := asTripper(s); ok {
		return TripperBean{SentryBean: SentryBean{sentry: s}, tripper: tr}
	}

	return SentryBean{sentry: s}
}

// ---------------------------------------------------------------------------
// BeanServer — in-process BeanRegistry
// ---------------------------------------------------------------------------.

// BeanDescriptor is one row of a [BeanServer] snapshot.
type BeanDescriptor struct {
	// ID is the external identifier the bean is registered under.
	ID string `json:"id"`
	// Resource is the guarded resource's name, when the bean exposes one.
	Resource string `json:"resource,omitempty"`
	// TripCapable reports whether the bean exposes Trip.
	TripCapable bool `json:"trip_capable"`
}

// BeanServer is an in-process [BeanRegistry] for embedding and tests. It is
// safe for concurrent use.
type BeanServer struct {
	mu    sync.RWMutex
	beans map[string]any
}

// NewBeanServer creates an empty bean server.
func NewBeanServer() *BeanServer {
	return &BeanServer{beans: make(map[string]any)}
}

// RegisterBean registers bean under id. Returns [ErrBeanExists] if id is
// already taken.
func (s *BeanServer) RegisterBean(id string, bean any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.beans[id]; exists {
		return ErrBeanExists
	}

	s.beans[id] = bean

	return nil
}

// UnregisterBean removes the bean registered under id. Returns
// [ErrBeanNotFound] if no such bean exists.
func (s *BeanServer) UnregisterBean(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.beans[id]; !exists {
		return ErrBeanNotFound
	}

	delete(s.beans, id)

	return nil
}

// Bean returns the bean registered under id, if any.
func (s *BeanServer) Bean(id string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bean, ok := s.beans[id]

	return bean, ok
}

// Len returns the number of registered beans.
func (s *BeanServer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.beans)
}

// Snapshot renders the current bean table as JSON for scraping and
// diagnostics. Row order is unspecified.
func (s *BeanServer) Snapshot() ([]byte, error) {
	s.mu.RLock()

	rows := make([]BeanDescriptor, 0, len(s.beans))

	for id, bean := range s.beans {
		row := BeanDescriptor{ID: id}

		if named, ok := bean.(interface{ ResourceName() string }); ok {
			row.Resource = named.ResourceName()
		}

		if _, ok := bean.(interface{ Trip() }); ok {
			row.TripCapable = true
		}

		rows = append(rows, row)
	}

	s.mu.RUnlock()

	return json.Marshal(rows)
}
