package world

import (
	"sync"

	"github.com/google/uuid"
)

// ListenerFunc handles a single published event payload.
type ListenerFunc func(payload any)

type subscription struct {
	id uuid.UUID
	fn ListenerFunc
}

// Emitter is a per-entity publish/subscribe capability. Behavior scripts
// subscribe to named events at attachment time; game logic publishes them
// during play. All methods are safe for concurrent use.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[string][]subscription
}

// NewEmitter creates an Emitter with no listeners.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[string][]subscription)}
}

// On registers fn for the named event and returns a token for Off.
// Listeners fire in registration order.
//
// Precondition: fn must be non-nil.
func (e *Emitter) On(event string, fn ListenerFunc) uuid.UUID {
	id := uuid.New()
	e.mu.Lock()
	e.listeners[event] = append(e.listeners[event], subscription{id: id, fn: fn})
	e.mu.Unlock()
	return id
}

// Off removes the listener registered under id. Removing an unknown id is a
// no-op.
func (e *Emitter) Off(event string, id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.listeners[event]
	for i, s := range subs {
		if s.id == id {
			e.listeners[event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit invokes every listener registered for the named event, in order.
// Listeners run outside the emitter lock, so a listener may register or
// remove listeners without deadlocking.
func (e *Emitter) Emit(event string, payload any) {
	e.mu.RLock()
	subs := make([]subscription, len(e.listeners[event]))
	copy(subs, e.listeners[event])
	e.mu.RUnlock()

	for _, s := range subs {
		s.fn(payload)
	}
}

// ListenerCount returns the number of listeners registered for the event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}
