// internal/event/event.go
package event

import "github.com/bethropolis/gutter/internal/types"

// Type identifies the kind of event.
type Type int

// Define specific event types.
const (
	TypeUnknown Type = iota

	// Core Editor Events
	TypeBufferModified // Fired when buffer content changes (insert/delete)
	TypeBufferSaved    // Fired after a buffer is successfully saved
	TypeBufferDisposed // Fired when a buffer is disposed by its owner

	// Dirty-Diff Events
	TypeActiveProviderChanged // Fired when the active baseline provider changes (e.g. git index moved)
	TypeVisibleEditorsChanged // Fired when the set of visible editor widgets changes

	// Application Lifecycle Events
	TypeAppReady // Fired when the application is fully initialized
	TypeAppQuit  // Fired just before application termination begins

	TypeThemeChanged // Fired when the theme is changed
)

// Event is the structure passed through the event bus.
type Event struct {
	Type Type        // The kind of event
	Data interface{} // Payload carrying event-specific data
}

// --- Specific Event Data Structures ---

// BufferModifiedData contains info about buffer changes, including EditInfo.
type BufferModifiedData struct {
	BufferID string         // Stable id of the modified buffer
	Edit     types.EditInfo // Information about the change
}

// BufferSavedData contains info about the saved buffer.
type BufferSavedData struct {
	FilePath string
}

// BufferDisposedData identifies the buffer that went away.
type BufferDisposedData struct {
	BufferID string
}

// ActiveProviderChangedData is currently empty; the coordinator re-resolves
// the baseline from scratch regardless of what changed.
type ActiveProviderChangedData struct{}

// VisibleEditorsChangedData is empty; listeners query the visibility source
// for the current widget set rather than trusting a snapshot in the event.
type VisibleEditorsChangedData struct{}

// AppQuitData could contain exit code or reason later.
type AppQuitData struct{}

// AppReadyData could contain initial config or state later.
type AppReadyData struct{}
