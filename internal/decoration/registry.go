// internal/decoration/registry.go
package decoration

import (
	"sort"
	"sync"

	"github.com/bethropolis/gutter/internal/logger"
	"github.com/google/uuid"
)

// Registry is the in-process decoration API: per-buffer sets of decoration
// specs addressed by opaque ids. ReplaceDecorations swaps a buffer's set
// atomically, mirroring the old-ids-to-new-ids contract of editor decoration
// APIs.
type Registry struct {
	mu        sync.RWMutex
	byBuffer  map[string]map[string]Spec
	onReplace func(bufferID string)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byBuffer: make(map[string]map[string]Spec)}
}

// SetOnReplace installs a hook invoked after every decoration replacement,
// typically to request a redraw.
func (r *Registry) SetOnReplace(hook func(bufferID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReplace = hook
}

// ReplaceDecorations removes oldIDs from the buffer's set, adds specs under
// fresh ids, and returns the new ids in spec order. Passing nil specs clears
// the listed decorations.
func (r *Registry) ReplaceDecorations(bufferID string, oldIDs []string, specs []Spec) []string {
	r.mu.Lock()

	set := r.byBuffer[bufferID]
	if set == nil {
		set = make(map[string]Spec)
		r.byBuffer[bufferID] = set
	}
	for _, id := range oldIDs {
		delete(set, id)
	}

	newIDs := make([]string, 0, len(specs))
	for _, spec := range specs {
		id := uuid.NewString()
		set[id] = spec
		newIDs = append(newIDs, id)
	}
	if len(set) == 0 {
		delete(r.byBuffer, bufferID)
	}
	hook := r.onReplace
	logger.DebugTagf("decoration", "Registry: buffer %s now has %d decoration(s)", bufferID, len(set))
	r.mu.Unlock()

	if hook != nil {
		hook(bufferID)
	}
	return newIDs
}

// DecorationsFor returns the buffer's visible decorations ordered by start
// line. Hidden placeholders are skipped; they exist only to preserve counts.
func (r *Registry) DecorationsFor(bufferID string) []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byBuffer[bufferID]
	out := make([]Spec, 0, len(set))
	for _, spec := range set {
		if spec.StyleClass == "" {
			continue
		}
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.StartLine != out[j].Range.StartLine {
			return out[i].Range.StartLine < out[j].Range.StartLine
		}
		return out[i].Range.EndLine < out[j].Range.EndLine
	})
	return out
}

// Count returns how many decorations (including hidden placeholders) a
// buffer currently holds.
func (r *Registry) Count(bufferID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byBuffer[bufferID])
}

// DropBuffer discards every decoration of a buffer that no longer exists.
func (r *Registry) DropBuffer(bufferID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byBuffer, bufferID)
}
