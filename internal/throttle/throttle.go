// internal/throttle/throttle.go
package throttle

import (
	"sync"
	"time"

	"github.com/bethropolis/gutter/internal/logger"
)

// DefaultInterval is the minimum spacing between executions when callers
// don't configure one.
const DefaultInterval = 200 * time.Millisecond

// Throttle is a coalescing, cancellable scheduler. Trigger stores the latest
// operation; when the interval elapses only that operation runs, so a burst
// of triggers collapses into one execution. Consecutive executions are
// separated by at least the interval, and an operation is guaranteed to run
// eventually after triggers stop.
type Throttle struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	pending  func()
	running  bool
	disposed bool
}

// New creates a Throttle with the given minimum execution interval.
func New(interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Throttle{interval: interval}
}

// Trigger schedules op to run after the interval. If a run is already
// scheduled, op replaces the previously stored operation without extending
// the wait, so the execution rate stays bounded during rapid triggering.
func (t *Throttle) Trigger(op func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed || op == nil {
		return
	}
	t.pending = op
	if t.timer == nil {
		t.timer = time.AfterFunc(t.interval, t.run)
	}
}

// run fires when the timer elapses. If an execution is still in progress the
// pending slot is left intact; completion reschedules it.
func (t *Throttle) run() {
	t.mu.Lock()
	t.timer = nil
	if t.disposed || t.pending == nil {
		t.mu.Unlock()
		return
	}
	if t.running {
		logger.DebugTagf("throttle", "Throttle: execution still running, deferring pending operation")
		t.mu.Unlock()
		return
	}
	op := t.pending
	t.pending = nil
	t.running = true
	t.mu.Unlock()

	go func() {
		op()

		t.mu.Lock()
		t.running = false
		// A trigger that arrived mid-run still deserves its execution.
		if t.pending != nil && t.timer == nil && !t.disposed {
			t.timer = time.AfterFunc(t.interval, t.run)
		}
		t.mu.Unlock()
	}()
}

// Cancel aborts any pending (not-yet-started) execution and drops its
// operation. An execution already in flight is not interrupted; callers are
// expected to discard its result through their own staleness checks.
func (t *Throttle) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

func (t *Throttle) cancelLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = nil
}

// Dispose cancels pending work and rejects all future triggers.
func (t *Throttle) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.disposed = true
}
