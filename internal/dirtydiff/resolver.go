// internal/dirtydiff/resolver.go
package dirtydiff

import (
	"context"
	"sync"

	"github.com/bethropolis/gutter/internal/buffer"
	"github.com/bethropolis/gutter/internal/event"
	"github.com/bethropolis/gutter/internal/logger"
	"github.com/bethropolis/gutter/internal/types"
)

// baselineBuffer is a loaded baseline owned by exactly one coordinator.
type baselineBuffer struct {
	doc     *buffer.Document
	uri     string
	release func()
	sub     *event.Subscription

	once sync.Once
}

// dispose unsubscribes from baseline edits and releases the loaded buffer.
func (b *baselineBuffer) dispose() {
	if b == nil {
		return
	}
	b.once.Do(func() {
		b.sub.Dispose()
		if b.release != nil {
			b.release()
		}
	})
}

// resolution is the shared future for one in-flight baseline lookup.
type resolution struct {
	done     chan struct{}
	baseline *baselineBuffer
	err      error
}

// baselineResolver lazily resolves "buffer URI -> provider origin URI ->
// loaded baseline buffer" for one buffer. The in-flight future is shared by
// concurrent callers and cleared once it settles, so the next trigger
// re-resolves from scratch and always sees a provider change.
type baselineResolver struct {
	bufferURI      string
	providers      BaselineProviderSource
	loader         BufferLoader
	onBaselineEdit func()

	mu       sync.Mutex
	inflight *resolution
	current  *baselineBuffer
	disposed bool
}

// resolve returns the baseline for the resolver's buffer, or nil when no
// provider or baseline exists.
func (r *baselineResolver) resolve(ctx context.Context) (*baselineBuffer, error) {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return nil, nil
	}
	if rs := r.inflight; rs != nil {
		r.mu.Unlock()
		select {
		case <-rs.done:
			return rs.baseline, rs.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	rs := &resolution{done: make(chan struct{})}
	r.inflight = rs
	r.mu.Unlock()

	baseline, err := r.doResolve(ctx)
	rs.baseline, rs.err = baseline, err

	r.mu.Lock()
	r.inflight = nil
	old := r.current
	r.current = baseline
	disposed := r.disposed
	r.mu.Unlock()
	close(rs.done)

	// Resolution redone: the previously owned baseline is released.
	if old != nil && old != baseline {
		old.dispose()
	}
	if disposed && baseline != nil {
		// Lost the race with dispose; don't leak the fresh load.
		baseline.dispose()
		return nil, nil
	}
	return baseline, err
}

func (r *baselineResolver) doResolve(ctx context.Context) (*baselineBuffer, error) {
	if !r.providers.HasActiveProvider() {
		logger.DebugTagf("dirtydiff", "Resolver: no active provider for %s", r.bufferURI)
		return nil, nil
	}

	uri, ok, err := r.providers.OriginalResource(ctx, r.bufferURI)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.DebugTagf("dirtydiff", "Resolver: provider has no baseline for %s", r.bufferURI)
		return nil, nil
	}

	doc, release, err := r.loader.Load(ctx, uri)
	if err != nil {
		return nil, err
	}

	b := &baselineBuffer{doc: doc, uri: uri, release: release}
	// Edits to the baseline content re-trigger the owning coordinator.
	b.sub = doc.OnChange(func(types.EditInfo) { r.onBaselineEdit() })
	logger.DebugTagf("dirtydiff", "Resolver: baseline %s loaded for %s", uri, r.bufferURI)
	return b, nil
}

// dispose releases the currently owned baseline. A resolution still in
// flight cleans up after itself when it settles.
func (r *baselineResolver) dispose() {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.disposed = true
	cur := r.current
	r.current = nil
	r.mu.Unlock()
	cur.dispose()
}
