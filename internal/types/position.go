// internal/types/position.go
package types

// Position represents a cursor or text position within the buffer.
// Line is the 0-based line index.
// Col is the 0-based column (rune) index within the line.
// Using Rune index is important for future Unicode handling.
type Position struct {
	Line int
	Col  int // Rune index
}

// EditInfo describes a single buffer mutation in line terms. It rides on
// BufferModified events so listeners (dirty-diff coordinators, the status
// bar) can react without re-reading the whole buffer.
type EditInfo struct {
	Start       Position // Start of the edited region
	OldEnd      Position // End of the replaced text before the edit
	NewEnd      Position // End of the inserted text after the edit
	LinesDelta  int      // Net change in line count
	BytesChange int      // Net change in byte length
}
