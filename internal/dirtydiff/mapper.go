// internal/dirtydiff/mapper.go
package dirtydiff

import "github.com/bethropolis/gutter/internal/types"

// MapChanges turns an ordered change sequence into the decoration set for a
// buffer. With hidden=true every change collapses to one degenerate Hidden
// placeholder, preserving the 1:1 change-to-decoration count while drawing
// nothing. Output order matches input order.
func MapChanges(changes []types.Change, hidden bool) []types.Decoration {
	decorations := make([]types.Decoration, 0, len(changes))
	for _, ch := range changes {
		if hidden {
			decorations = append(decorations, types.Decoration{Kind: types.DecorationHidden})
			continue
		}

		startLine := ch.ModifiedStartLine
		endLine := ch.ModifiedEndLine
		if endLine == 0 {
			endLine = startLine
		}

		switch {
		case ch.IsInsertion():
			decorations = append(decorations, types.Decoration{
				Kind:  types.DecorationAdded,
				Range: types.LineRange{StartLine: startLine, EndLine: endLine},
			})
		case ch.IsDeletion():
			// A deletion has no modified-side range, so it renders as a
			// one-line marker on the line preceding the deletion point.
			// When the diff reports line 0 (content deleted before any
			// surviving line) fall back to the original start, clamped
			// into the buffer.
			line := ch.ModifiedStartLine
			if line == 0 {
				line = ch.OriginalStartLine
			}
			if line < 1 {
				line = 1
			}
			decorations = append(decorations, types.Decoration{
				Kind:  types.DecorationRemoved,
				Range: types.LineRange{StartLine: line, EndLine: line},
			})
		default:
			decorations = append(decorations, types.Decoration{
				Kind:  types.DecorationModified,
				Range: types.LineRange{StartLine: startLine, EndLine: endLine},
			})
		}
	}
	return decorations
}
