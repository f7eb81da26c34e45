// internal/dirtydiff/tracker_test.go
package dirtydiff

import (
	"sync"
	"testing"

	"github.com/bethropolis/gutter/internal/buffer"
	"github.com/bethropolis/gutter/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVisibility drives the tracker with a mutable visible set.
type fakeVisibility struct {
	events *event.Manager

	mu      sync.Mutex
	visible []buffer.Buffer
}

func newFakeVisibility(events *event.Manager) *fakeVisibility {
	return &fakeVisibility{events: events}
}

func (v *fakeVisibility) OnVisibleEditorsChanged(handler func()) *event.Subscription {
	return v.events.Subscribe(event.TypeVisibleEditorsChanged, func(event.Event) bool {
		handler()
		return false
	})
}

func (v *fakeVisibility) VisibleBuffers() []buffer.Buffer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]buffer.Buffer(nil), v.visible...)
}

func (v *fakeVisibility) show(bufs ...buffer.Buffer) {
	v.mu.Lock()
	v.visible = bufs
	v.mu.Unlock()
	v.events.Dispatch(event.TypeVisibleEditorsChanged, event.VisibleEditorsChangedData{})
}

func trackerHarness(t *testing.T) (*fakeVisibility, Services) {
	t.Helper()
	h := newHarness(t, "a\n", "a\n")
	vis := newFakeVisibility(h.events)
	return vis, h.svc
}

func TestTrackerSyncsWithInitialVisibleSet(t *testing.T) {
	vis, svc := trackerHarness(t)
	a := buffer.NewDocumentFromBytes("file:///a", []byte("a\n"))
	vis.mu.Lock()
	vis.visible = []buffer.Buffer{a}
	vis.mu.Unlock()

	tr := NewVisibleModelTracker(vis, svc)
	defer tr.Dispose()

	assert.Equal(t, 1, tr.Count())
	_, ok := tr.CoordinatorFor(a.ID())
	assert.True(t, ok)
}

func TestTrackerKeepsSurvivorsAcrossChurn(t *testing.T) {
	vis, svc := trackerHarness(t)
	a := buffer.NewDocumentFromBytes("file:///a", []byte("a\n"))
	b := buffer.NewDocumentFromBytes("file:///b", []byte("b\n"))
	c := buffer.NewDocumentFromBytes("file:///c", []byte("c\n"))

	tr := NewVisibleModelTracker(vis, svc)
	defer tr.Dispose()

	vis.show(a, b)
	require.Equal(t, 2, tr.Count())
	survivor, ok := tr.CoordinatorFor(b.ID())
	require.True(t, ok)

	// {A,B} -> {B,C}: A's coordinator goes, B's instance survives, C gets one.
	vis.show(b, c)
	require.Equal(t, 2, tr.Count())

	after, ok := tr.CoordinatorFor(b.ID())
	require.True(t, ok)
	assert.Same(t, survivor, after, "unchanged buffer keeps its coordinator instance")

	_, ok = tr.CoordinatorFor(a.ID())
	assert.False(t, ok)
	_, ok = tr.CoordinatorFor(c.ID())
	assert.True(t, ok)
}

func TestTrackerDeduplicatesSplitViews(t *testing.T) {
	vis, svc := trackerHarness(t)
	a := buffer.NewDocumentFromBytes("file:///a", []byte("a\n"))

	tr := NewVisibleModelTracker(vis, svc)
	defer tr.Dispose()

	// The same buffer visible in two editor widgets gets one coordinator.
	vis.show(a, a)
	assert.Equal(t, 1, tr.Count())
}

func TestTrackerSkipsDisposedBuffers(t *testing.T) {
	vis, svc := trackerHarness(t)
	a := buffer.NewDocumentFromBytes("file:///a", []byte("a\n"))
	a.Dispose()

	tr := NewVisibleModelTracker(vis, svc)
	defer tr.Dispose()

	vis.show(a)
	assert.Zero(t, tr.Count())
}

func TestTrackerEmptyVisibleSetDisposesAll(t *testing.T) {
	vis, svc := trackerHarness(t)
	a := buffer.NewDocumentFromBytes("file:///a", []byte("a\n"))
	b := buffer.NewDocumentFromBytes("file:///b", []byte("b\n"))

	tr := NewVisibleModelTracker(vis, svc)
	defer tr.Dispose()

	vis.show(a, b)
	require.Equal(t, 2, tr.Count())

	vis.show()
	assert.Zero(t, tr.Count())
}

func TestTrackerDisposeStopsReacting(t *testing.T) {
	vis, svc := trackerHarness(t)
	a := buffer.NewDocumentFromBytes("file:///a", []byte("a\n"))

	tr := NewVisibleModelTracker(vis, svc)
	vis.show(a)
	require.Equal(t, 1, tr.Count())

	tr.Dispose()
	assert.Zero(t, tr.Count())

	vis.show(a)
	assert.Zero(t, tr.Count(), "visibility changes after dispose are ignored")
}
