// internal/event/manager.go
package event

import (
	"sync"

	"github.com/bethropolis/gutter/internal/logger"
)

// Handler defines the function signature for event subscribers.
// It returns true if the event was consumed (prevents further processing if needed).
type Handler func(e Event) bool

// Subscription is the disposable handle returned by Subscribe. Dispose removes
// the handler from the manager; disposing twice is a no-op.
type Subscription struct {
	manager   *Manager
	eventType Type
	id        uint64
	once      sync.Once
}

// Dispose unregisters the subscription's handler.
func (s *Subscription) Dispose() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.manager.unsubscribe(s.eventType, s.id)
	})
}

type registration struct {
	id      uint64
	handler Handler
}

// Manager handles event subscriptions and dispatching.
type Manager struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Type][]registration
}

// NewManager creates a new event manager.
func NewManager() *Manager {
	return &Manager{
		handlers: make(map[Type][]registration),
	}
}

// Subscribe adds a handler function for a specific event type and returns a
// handle that removes it again. Callers that live shorter than the manager
// must dispose their handles (coordinators do this on disposal).
func (m *Manager) Subscribe(eventType Type, handler Handler) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.handlers[eventType] = append(m.handlers[eventType], registration{id: id, handler: handler})
	logger.DebugTagf("event", "Event Manager: Handler %d subscribed to type %v", id, eventType)
	return &Subscription{manager: m, eventType: eventType, id: id}
}

// unsubscribe removes the registration with the given id, if still present.
func (m *Manager) unsubscribe(eventType Type, id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	regs := m.handlers[eventType]
	for i, reg := range regs {
		if reg.id == id {
			m.handlers[eventType] = append(regs[:i], regs[i+1:]...)
			logger.DebugTagf("event", "Event Manager: Handler %d unsubscribed from type %v", id, eventType)
			return
		}
	}
}

// Dispatch sends an event to all registered handlers for its type.
// Runs handlers synchronously for simplicity. Could be made asynchronous.
func (m *Manager) Dispatch(eventType Type, data interface{}) {
	event := Event{
		Type: eventType,
		Data: data,
	}

	m.mu.RLock()
	regs := m.handlers[eventType]
	// Copy so a handler disposing its own subscription mid-dispatch can't
	// shift the slice under us.
	regsCopy := make([]registration, len(regs))
	copy(regsCopy, regs)
	m.mu.RUnlock()

	if len(regsCopy) == 0 {
		return
	}

	logger.DebugTagf("event", "Event Manager: Dispatching event type %v to %d handler(s)", eventType, len(regsCopy))

	for _, reg := range regsCopy {
		if consumed := reg.handler(event); consumed {
			break
		}
	}
}
