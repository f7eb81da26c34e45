// internal/dirtydiff/coordinator.go
package dirtydiff

import (
	"context"
	"sync"

	"github.com/bethropolis/gutter/internal/buffer"
	"github.com/bethropolis/gutter/internal/decoration"
	"github.com/bethropolis/gutter/internal/event"
	"github.com/bethropolis/gutter/internal/logger"
	"github.com/bethropolis/gutter/internal/throttle"
	"github.com/bethropolis/gutter/internal/types"
)

type coordinatorState int

const (
	stateCreated coordinatorState = iota
	stateActive
	stateDisposed
)

// ModelDiffCoordinator drives the dirty-diff lifecycle for one visible
// buffer: it reacts to buffer edits, provider changes and baseline edits by
// scheduling a throttled diff, and applies the mapped decorations unless the
// result went stale in flight.
type ModelDiffCoordinator struct {
	buf      buffer.Buffer
	svc      Services
	throttle *throttle.Throttle
	resolver *baselineResolver

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	state         coordinatorState
	gen           uint64 // bumped per trigger; stale results carry an older value
	decorationIDs []string
	subs          []*event.Subscription
}

// NewModelDiffCoordinator builds a coordinator for buf and immediately
// issues the initial diff trigger.
func NewModelDiffCoordinator(buf buffer.Buffer, svc Services) *ModelDiffCoordinator {
	interval := svc.ThrottleInterval
	if interval <= 0 {
		interval = throttle.DefaultInterval
	}

	c := &ModelDiffCoordinator{
		buf:      buf,
		svc:      svc,
		throttle: throttle.New(interval),
		state:    stateCreated,
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.resolver = &baselineResolver{
		bufferURI:      buf.URI(),
		providers:      svc.Providers,
		loader:         svc.Loader,
		onBaselineEdit: c.TriggerDiff,
	}

	c.mu.Lock()
	c.state = stateActive
	c.subs = append(c.subs,
		buf.OnChange(func(types.EditInfo) { c.TriggerDiff() }),
		buf.OnDispose(c.TriggerDiff),
		svc.Events.Subscribe(event.TypeActiveProviderChanged, func(event.Event) bool {
			c.TriggerDiff()
			return false
		}),
	)
	c.mu.Unlock()

	logger.DebugTagf("dirtydiff", "Coordinator: created for %s", buf.URI())
	c.TriggerDiff()
	return c
}

// Buffer returns the buffer this coordinator watches.
func (c *ModelDiffCoordinator) Buffer() buffer.Buffer { return c.buf }

// TriggerDiff schedules a diff cycle through the throttle. No-op once
// disposed.
func (c *ModelDiffCoordinator) TriggerDiff() {
	c.mu.Lock()
	if c.state != stateActive {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.throttle.Trigger(func() { c.runDiff(gen) })
}

// runDiff is one diff cycle: resolve baseline, compute changes, map to
// decorations, apply. Every await point re-checks for disposal or a newer
// trigger before the result is allowed to touch decoration state.
func (c *ModelDiffCoordinator) runDiff(gen uint64) {
	ctx := c.ctx

	baseline, err := c.resolver.resolve(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Resolution failure degrades to "no baseline": markers clear,
		// the next trigger retries.
		logger.DebugTagf("dirtydiff", "Coordinator: baseline resolution for %s failed: %v", c.buf.URI(), err)
		baseline = nil
	}

	var changes []types.Change
	if !c.buf.IsDisposed() && baseline != nil && !baseline.doc.IsDisposed() {
		changes, err = c.svc.Diff.ComputeDiff(ctx, baseline.uri, c.buf.URI(), c.svc.Config.IgnoreTrimWhitespace())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warnf("Coordinator: diff computation for %s failed: %v", c.buf.URI(), err)
			changes = nil
		}
		// An empty baseline overrides whatever the diff service reported.
		if baseline.doc.Len() == 0 {
			changes = nil
		}
	}

	hidden := !c.svc.Config.ShowChangesInGutter()
	decorations := MapChanges(changes, hidden)
	specs := make([]decoration.Spec, len(decorations))
	for i, d := range decorations {
		specs[i] = decoration.SpecFor(d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateActive || gen != c.gen {
		logger.DebugTagf("dirtydiff", "Coordinator: stale diff result for %s discarded", c.buf.URI())
		return
	}
	if c.buf.IsDisposed() {
		// The buffer died mid-flight; its decorations die with it.
		return
	}
	c.decorationIDs = c.svc.Decorations.ReplaceDecorations(c.buf.ID(), c.decorationIDs, specs)
	logger.DebugTagf("dirtydiff", "Coordinator: applied %d decoration(s) to %s", len(specs), c.buf.URI())
}

// Dispose tears the coordinator down: unsubscribes, cancels pending work,
// clears decorations (if the buffer is still alive) and releases the
// baseline. Safe to call more than once.
func (c *ModelDiffCoordinator) Dispose() {
	c.mu.Lock()
	if c.state == stateDisposed {
		c.mu.Unlock()
		return
	}
	c.state = stateDisposed
	c.gen++ // any in-flight result is stale now
	subs := c.subs
	c.subs = nil
	ids := c.decorationIDs
	c.decorationIDs = nil
	c.mu.Unlock()

	c.cancel()
	c.throttle.Dispose()
	for _, s := range subs {
		s.Dispose()
	}
	c.resolver.dispose()

	if len(ids) > 0 && !c.buf.IsDisposed() {
		c.svc.Decorations.ReplaceDecorations(c.buf.ID(), ids, nil)
	}
	logger.DebugTagf("dirtydiff", "Coordinator: disposed for %s", c.buf.URI())
}
