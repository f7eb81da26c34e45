// internal/dirtydiff/ports.go
package dirtydiff

import (
	"context"
	"time"

	"github.com/bethropolis/gutter/internal/buffer"
	"github.com/bethropolis/gutter/internal/decoration"
	"github.com/bethropolis/gutter/internal/event"
	"github.com/bethropolis/gutter/internal/types"
)

// BaselineProviderSource supplies the baseline URI for a buffer URI.
type BaselineProviderSource interface {
	// HasActiveProvider reports whether any provider is available at all.
	HasActiveProvider() bool
	// OriginalResource resolves the baseline URI. ok=false with a nil error
	// is the explicit "no baseline for this buffer" answer, distinct from a
	// lookup failure.
	OriginalResource(ctx context.Context, bufferURI string) (baselineURI string, ok bool, err error)
}

// BufferLoader loads a URI into an owned baseline buffer. The release
// function frees the loaded buffer and must be called exactly once.
type BufferLoader interface {
	Load(ctx context.Context, uri string) (doc *buffer.Document, release func(), err error)
}

// DiffService computes the line changes between two resolved URIs.
type DiffService interface {
	ComputeDiff(ctx context.Context, originalURI, modifiedURI string, ignoreTrimWhitespace bool) ([]types.Change, error)
}

// DecorationSink is the per-buffer decoration API.
type DecorationSink interface {
	ReplaceDecorations(bufferID string, oldIDs []string, specs []decoration.Spec) []string
}

// ConfigSource exposes the live settings a diff cycle reads.
type ConfigSource interface {
	ShowChangesInGutter() bool
	IgnoreTrimWhitespace() bool
}

// VisibilitySource enumerates the buffers behind the currently visible
// editor widgets and signals when that set changes.
type VisibilitySource interface {
	OnVisibleEditorsChanged(handler func()) *event.Subscription
	VisibleBuffers() []buffer.Buffer
}

// Services bundles the collaborators a coordinator needs. Tracker and
// coordinators share one bundle.
type Services struct {
	Events      *event.Manager
	Providers   BaselineProviderSource
	Loader      BufferLoader
	Diff        DiffService
	Decorations DecorationSink
	Config      ConfigSource

	// ThrottleInterval overrides the default 200ms diff spacing. Zero keeps
	// the default.
	ThrottleInterval time.Duration
}
