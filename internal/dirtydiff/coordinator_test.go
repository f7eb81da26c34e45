// internal/dirtydiff/coordinator_test.go
package dirtydiff

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bethropolis/gutter/internal/buffer"
	"github.com/bethropolis/gutter/internal/decoration"
	"github.com/bethropolis/gutter/internal/event"
	"github.com/bethropolis/gutter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInterval = 5 * time.Millisecond

// fakeProvider is a scriptable BaselineProviderSource.
type fakeProvider struct {
	mu         sync.Mutex
	active     bool
	baselineOf map[string]string
	err        error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{active: true, baselineOf: make(map[string]string)}
}

func (p *fakeProvider) HasActiveProvider() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *fakeProvider) OriginalResource(_ context.Context, bufferURI string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", false, p.err
	}
	uri, ok := p.baselineOf[bufferURI]
	return uri, ok, nil
}

func (p *fakeProvider) set(bufferURI, baselineURI string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baselineOf[bufferURI] = baselineURI
}

// fakeLoader serves baseline documents by URI and counts releases.
type fakeLoader struct {
	mu       sync.Mutex
	contents map[string]string
	loads    int
	releases atomic.Int32
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{contents: make(map[string]string)}
}

func (l *fakeLoader) Load(_ context.Context, uri string) (*buffer.Document, func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	content, ok := l.contents[uri]
	if !ok {
		return nil, nil, errors.New("no such baseline: " + uri)
	}
	l.loads++
	doc := buffer.NewDocumentFromBytes(uri, []byte(content))
	return doc, func() {
		l.releases.Add(1)
		doc.Dispose()
	}, nil
}

// fakeDiff returns scripted changes regardless of content.
type fakeDiff struct {
	mu      sync.Mutex
	changes []types.Change
	err     error
	calls   atomic.Int32
}

func (d *fakeDiff) ComputeDiff(context.Context, string, string, bool) ([]types.Change, error) {
	d.calls.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changes, d.err
}

func (d *fakeDiff) set(changes []types.Change, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changes, d.err = changes, err
}

// fakeConfig is a mutable ConfigSource.
type fakeConfig struct {
	mu     sync.Mutex
	hidden bool
}

func (c *fakeConfig) ShowChangesInGutter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.hidden
}

func (c *fakeConfig) IgnoreTrimWhitespace() bool { return true }

func (c *fakeConfig) setHidden(hidden bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hidden = hidden
}

// harness bundles a coordinator under test with its collaborators.
type harness struct {
	buf      *buffer.Document
	provider *fakeProvider
	loader   *fakeLoader
	diff     *fakeDiff
	registry *decoration.Registry
	config   *fakeConfig
	events   *event.Manager
	svc      Services
}

func newHarness(t *testing.T, bufferContent, baselineContent string) *harness {
	t.Helper()
	h := &harness{
		buf:      buffer.NewDocumentFromBytes("file:///tmp/a.txt", []byte(bufferContent)),
		provider: newFakeProvider(),
		loader:   newFakeLoader(),
		diff:     &fakeDiff{},
		registry: decoration.NewRegistry(),
		config:   &fakeConfig{},
		events:   event.NewManager(),
	}
	h.provider.set("file:///tmp/a.txt", "base:a")
	h.loader.mu.Lock()
	h.loader.contents["base:a"] = baselineContent
	h.loader.mu.Unlock()
	h.svc = Services{
		Events:           h.events,
		Providers:        h.provider,
		Loader:           h.loader,
		Diff:             h.diff,
		Decorations:      h.registry,
		Config:           h.config,
		ThrottleInterval: testInterval,
	}
	return h
}

func waitForCount(t *testing.T, r *decoration.Registry, bufferID string, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return r.Count(bufferID) == want },
		2*time.Second, 2*time.Millisecond, "expected %d decoration(s)", want)
}

func TestCoordinatorAppliesDecorations(t *testing.T) {
	h := newHarness(t, "line one\nCHANGED\n", "line one\nline two\n")
	h.diff.set([]types.Change{
		{OriginalStartLine: 2, OriginalEndLine: 2, ModifiedStartLine: 2, ModifiedEndLine: 2},
	}, nil)

	c := NewModelDiffCoordinator(h.buf, h.svc)
	defer c.Dispose()

	waitForCount(t, h.registry, h.buf.ID(), 1)
	decos := h.registry.DecorationsFor(h.buf.ID())
	require.Len(t, decos, 1)
	assert.Equal(t, types.DecorationModified, decos[0].Kind)
	assert.Equal(t, 2, decos[0].Range.StartLine)
}

func TestCoordinatorEmptyBaselineSuppressesDecorations(t *testing.T) {
	h := newHarness(t, "brand new file\n", "")
	// Even if the diff service misbehaves and reports changes, an empty
	// baseline means no decorations.
	h.diff.set([]types.Change{
		{OriginalStartLine: 0, OriginalEndLine: 0, ModifiedStartLine: 1, ModifiedEndLine: 1},
	}, nil)

	c := NewModelDiffCoordinator(h.buf, h.svc)
	defer c.Dispose()

	require.Eventually(t, func() bool { return h.diff.calls.Load() >= 1 },
		2*time.Second, 2*time.Millisecond)
	time.Sleep(3 * testInterval)
	assert.Zero(t, h.registry.Count(h.buf.ID()))
}

func TestCoordinatorNoBaselineClearsDecorations(t *testing.T) {
	h := newHarness(t, "a\nb\n", "a\n")
	h.diff.set([]types.Change{
		{OriginalStartLine: 1, OriginalEndLine: 0, ModifiedStartLine: 2, ModifiedEndLine: 2},
	}, nil)

	c := NewModelDiffCoordinator(h.buf, h.svc)
	defer c.Dispose()
	waitForCount(t, h.registry, h.buf.ID(), 1)

	// Provider stops offering a baseline (file became untracked).
	h.provider.mu.Lock()
	delete(h.provider.baselineOf, "file:///tmp/a.txt")
	h.provider.mu.Unlock()
	c.TriggerDiff()

	waitForCount(t, h.registry, h.buf.ID(), 0)
}

func TestCoordinatorResolutionFailureDegrades(t *testing.T) {
	h := newHarness(t, "a\n", "a\n")
	h.provider.mu.Lock()
	h.provider.err = errors.New("provider exploded")
	h.provider.mu.Unlock()

	c := NewModelDiffCoordinator(h.buf, h.svc)
	defer c.Dispose()

	time.Sleep(4 * testInterval)
	assert.Zero(t, h.registry.Count(h.buf.ID()), "failed resolution leaves no markers")
	assert.Zero(t, h.diff.calls.Load(), "no diff without a baseline")
}

func TestCoordinatorBufferEditRetriggers(t *testing.T) {
	h := newHarness(t, "a\nb\n", "a\nb\n")

	c := NewModelDiffCoordinator(h.buf, h.svc)
	defer c.Dispose()
	require.Eventually(t, func() bool { return h.diff.calls.Load() >= 1 },
		2*time.Second, 2*time.Millisecond)
	before := h.diff.calls.Load()

	h.diff.set([]types.Change{
		{OriginalStartLine: 1, OriginalEndLine: 0, ModifiedStartLine: 1, ModifiedEndLine: 1},
	}, nil)
	_, err := h.buf.Insert(types.Position{Line: 0, Col: 0}, []byte("x"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.diff.calls.Load() > before },
		2*time.Second, 2*time.Millisecond)
	waitForCount(t, h.registry, h.buf.ID(), 1)
}

func TestCoordinatorProviderChangeRetriggers(t *testing.T) {
	h := newHarness(t, "a\n", "a\n")

	c := NewModelDiffCoordinator(h.buf, h.svc)
	defer c.Dispose()
	require.Eventually(t, func() bool { return h.diff.calls.Load() >= 1 },
		2*time.Second, 2*time.Millisecond)
	before := h.diff.calls.Load()

	h.events.Dispatch(event.TypeActiveProviderChanged, event.ActiveProviderChangedData{})

	require.Eventually(t, func() bool { return h.diff.calls.Load() > before },
		2*time.Second, 2*time.Millisecond)
}

func TestCoordinatorHiddenConfigYieldsPlaceholders(t *testing.T) {
	h := newHarness(t, "x\n", "y\n")
	h.diff.set([]types.Change{
		{OriginalStartLine: 1, OriginalEndLine: 1, ModifiedStartLine: 1, ModifiedEndLine: 1},
	}, nil)
	h.config.setHidden(true)

	c := NewModelDiffCoordinator(h.buf, h.svc)
	defer c.Dispose()

	// The placeholder keeps the count but renders nothing.
	waitForCount(t, h.registry, h.buf.ID(), 1)
	assert.Empty(t, h.registry.DecorationsFor(h.buf.ID()))

	// Re-enabling swaps placeholders for visible markers on the next cycle.
	h.config.setHidden(false)
	c.TriggerDiff()
	require.Eventually(t, func() bool {
		return len(h.registry.DecorationsFor(h.buf.ID())) == 1
	}, 2*time.Second, 2*time.Millisecond)
}

func TestCoordinatorDisposeClearsDecorations(t *testing.T) {
	h := newHarness(t, "a\nb\n", "a\n")
	h.diff.set([]types.Change{
		{OriginalStartLine: 1, OriginalEndLine: 0, ModifiedStartLine: 2, ModifiedEndLine: 2},
	}, nil)

	c := NewModelDiffCoordinator(h.buf, h.svc)
	waitForCount(t, h.registry, h.buf.ID(), 1)

	c.Dispose()
	assert.Zero(t, h.registry.Count(h.buf.ID()))
	require.Eventually(t, func() bool { return h.loader.releases.Load() == 1 },
		2*time.Second, 2*time.Millisecond, "baseline released on dispose")
}

func TestCoordinatorDisposeIsIdempotent(t *testing.T) {
	h := newHarness(t, "a\n", "a\n")
	c := NewModelDiffCoordinator(h.buf, h.svc)

	c.Dispose()
	c.Dispose()
	c.Dispose()
	assert.LessOrEqual(t, h.loader.releases.Load(), int32(1))
}

func TestCoordinatorIgnoresResultsAfterDispose(t *testing.T) {
	h := newHarness(t, "a\nb\n", "a\n")
	h.diff.set([]types.Change{
		{OriginalStartLine: 1, OriginalEndLine: 0, ModifiedStartLine: 2, ModifiedEndLine: 2},
	}, nil)

	c := NewModelDiffCoordinator(h.buf, h.svc)
	// Dispose before the throttle interval elapses; the queued cycle must
	// not write decorations afterwards.
	c.Dispose()

	time.Sleep(4 * testInterval)
	assert.Zero(t, h.registry.Count(h.buf.ID()))
}

func TestCoordinatorBurstOfEditsCoalesces(t *testing.T) {
	h := newHarness(t, "a\nb\nc\n", "a\nb\nc\n")

	c := NewModelDiffCoordinator(h.buf, h.svc)
	defer c.Dispose()
	require.Eventually(t, func() bool { return h.diff.calls.Load() >= 1 },
		2*time.Second, 2*time.Millisecond)
	before := h.diff.calls.Load()

	for i := 0; i < 25; i++ {
		c.TriggerDiff()
	}
	require.Eventually(t, func() bool { return h.diff.calls.Load() > before },
		2*time.Second, 2*time.Millisecond)
	time.Sleep(4 * testInterval)

	after := h.diff.calls.Load()
	assert.Less(t, after-before, int32(25), "rapid triggers must coalesce")
}
