package sentries

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Shared test doubles
// ---------------------------------------------------------------------------

// stubSentry implements every optional operation; the declared capability
// set decides which ones the registry and reporter may use.
type stubSentry struct {
	name string
	caps Capability

	resetCount atomic.Int32
	stopCount  atomic.Int32
	tripCount  atomic.Int32
}

func newStub(name string, caps Capability) *stubSentry {
	return &stubSentry{name: name, caps: caps}
}

func (s *stubSentry) ResourceName() string     { return s.name }
func (s *stubSentry) Capabilities() Capability { return s.caps }
func (s *stubSentry) Reset()                   { s.resetCount.Add(1) }
func (s *stubSentry) Stop()                    { s.stopCount.Add(1) }
func (s *stubSentry) Trip()                    { s.tripCount.Add(1) }

// memberEvent is one recorded listener notification.
type memberEvent struct {
	id     Identity
	sentry Sentry // nil for removals
}

// recordingListener records notifications in delivery order.
type recordingListener struct {
	mu      sync.Mutex
	added   []memberEvent
	removed []Identity
}

func (l *recordingListener) OnSentryAdded(id Identity, s Sentry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.added = append(l.added, memberEvent{id: id, sentry: s})
}

func (l *recordingListener) OnSentryRemoved(id Identity) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.removed = append(l.removed, id)
}

func (l *recordingListener) addedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.added)
}

func (l *recordingListener) removedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.removed)
}

// addedFor counts added notifications for one identity.
func (l *recordingListener) addedFor(id Identity) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0

	for _, ev := range l.added {
		if ev.id == id {
			n++
		}
	}

	return n
}
