// internal/dirtydiff/tracker.go
package dirtydiff

import (
	"sync"

	"github.com/bethropolis/gutter/internal/buffer"
	"github.com/bethropolis/gutter/internal/event"
	"github.com/bethropolis/gutter/internal/logger"
)

// VisibleModelTracker keeps exactly one ModelDiffCoordinator per visible
// buffer identity. On each visibility change it diffs the old and new
// visible sets, creating coordinators for newly visible buffers and
// disposing those whose buffers went away. Untouched buffers keep their
// coordinator instance.
type VisibleModelTracker struct {
	visibility VisibilitySource
	svc        Services

	mu       sync.Mutex
	items    map[string]*ModelDiffCoordinator // keyed by stable buffer id
	sub      *event.Subscription
	disposed bool
}

// NewVisibleModelTracker creates the tracker and synchronizes with the
// currently visible buffers right away.
func NewVisibleModelTracker(visibility VisibilitySource, svc Services) *VisibleModelTracker {
	t := &VisibleModelTracker{
		visibility: visibility,
		svc:        svc,
		items:      make(map[string]*ModelDiffCoordinator),
	}
	t.sub = visibility.OnVisibleEditorsChanged(t.onEditorsChanged)
	t.onEditorsChanged()
	return t
}

// onEditorsChanged recomputes the visible buffer set and reconciles the
// coordinator registry against it.
func (t *VisibleModelTracker) onEditorsChanged() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}

	current := make(map[string]buffer.Buffer)
	for _, b := range t.visibility.VisibleBuffers() {
		if b == nil || b.IsDisposed() {
			continue
		}
		current[b.ID()] = b // dedupe by identity
	}

	var stale []*ModelDiffCoordinator
	for id, c := range t.items {
		if _, ok := current[id]; !ok {
			stale = append(stale, c)
			delete(t.items, id)
		}
	}
	created := 0
	for id, b := range current {
		if _, ok := t.items[id]; !ok {
			t.items[id] = NewModelDiffCoordinator(b, t.svc)
			created++
		}
	}
	t.mu.Unlock()

	for _, c := range stale {
		c.Dispose()
	}
	if created > 0 || len(stale) > 0 {
		logger.DebugTagf("dirtydiff", "Tracker: %d coordinator(s) created, %d disposed, %d tracked",
			created, len(stale), t.Count())
	}
}

// Count returns the number of tracked coordinators.
func (t *VisibleModelTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// CoordinatorFor returns the coordinator for a buffer id, if tracked.
func (t *VisibleModelTracker) CoordinatorFor(bufferID string) (*ModelDiffCoordinator, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.items[bufferID]
	return c, ok
}

// TriggerAll re-issues a diff trigger on every tracked coordinator, used
// when a setting affecting all buffers changes (e.g. marker visibility).
func (t *VisibleModelTracker) TriggerAll() {
	t.mu.Lock()
	coords := make([]*ModelDiffCoordinator, 0, len(t.items))
	for _, c := range t.items {
		coords = append(coords, c)
	}
	t.mu.Unlock()

	for _, c := range coords {
		c.TriggerDiff()
	}
}

// Dispose tears down the subscription and every remaining coordinator.
func (t *VisibleModelTracker) Dispose() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.disposed = true
	items := t.items
	t.items = make(map[string]*ModelDiffCoordinator)
	t.mu.Unlock()

	t.sub.Dispose()
	for _, c := range items {
		c.Dispose()
	}
	logger.DebugTagf("dirtydiff", "Tracker: disposed %d coordinator(s)", len(items))
}
