// internal/buffer/buffer.go
package buffer

import (
	"github.com/bethropolis/gutter/internal/event"
	"github.com/bethropolis/gutter/internal/types"
)

// Buffer defines the interface for text buffer operations. The dirty-diff
// engine observes buffers through this interface and never owns their
// lifecycle, except for baseline buffers it loaded itself.
type Buffer interface {
	ID() string
	URI() string
	Lines() [][]byte
	Line(index int) ([]byte, error)
	LineCount() int
	Len() int
	Bytes() []byte
	Insert(pos types.Position, text []byte) (types.EditInfo, error)
	Delete(start, end types.Position) (types.EditInfo, error)
	IsModified() bool
	IsDisposed() bool
	// OnChange registers a content-change listener. The returned handle must
	// be disposed by listeners that outlive their interest in the buffer.
	OnChange(handler func(types.EditInfo)) *event.Subscription
	// OnDispose registers a listener fired once when the buffer is disposed.
	OnDispose(handler func()) *event.Subscription
}
