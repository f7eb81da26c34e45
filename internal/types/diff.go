// internal/types/diff.go
package types

// Change is one line-range difference between a baseline buffer and the live
// buffer, as produced by the diff service. Line numbers are 1-based.
// OriginalEndLine == 0 marks a pure insertion (no original-side range);
// ModifiedEndLine == 0 marks a pure deletion (no modified-side range).
type Change struct {
	OriginalStartLine int
	OriginalEndLine   int
	ModifiedStartLine int
	ModifiedEndLine   int
}

// IsInsertion reports whether the change added lines that have no
// counterpart in the baseline.
func (c Change) IsInsertion() bool { return c.OriginalEndLine == 0 }

// IsDeletion reports whether the change removed lines that have no
// counterpart in the live buffer.
func (c Change) IsDeletion() bool { return c.ModifiedEndLine == 0 }

// LineRange is an inclusive 1-based line span within a buffer.
type LineRange struct {
	StartLine int
	EndLine   int
}

// DecorationKind classifies a gutter marker.
type DecorationKind int

const (
	DecorationAdded DecorationKind = iota
	DecorationRemoved
	DecorationModified
	// DecorationHidden is a degenerate placeholder emitted when gutter
	// markers are suppressed by configuration; it keeps the 1:1 mapping
	// from changes to decorations without drawing anything.
	DecorationHidden
)

// String returns a short name for the kind, used in logs and style lookup.
func (k DecorationKind) String() string {
	switch k {
	case DecorationAdded:
		return "added"
	case DecorationRemoved:
		return "removed"
	case DecorationModified:
		return "modified"
	case DecorationHidden:
		return "hidden"
	}
	return "unknown"
}

// Decoration is one gutter marker attached to a line range of a buffer.
type Decoration struct {
	Range LineRange
	Kind  DecorationKind
}
