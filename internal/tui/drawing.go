// internal/tui/drawing.go
package tui

import (
	"fmt"
	"math"

	"github.com/bethropolis/gutter/internal/buffer"
	"github.com/bethropolis/gutter/internal/decoration"
	"github.com/bethropolis/gutter/internal/logger"
	"github.com/bethropolis/gutter/internal/theme"
	"github.com/bethropolis/gutter/internal/types"
	"github.com/rivo/uniseg"
)

// Marker glyphs for the dirty-diff column.
const (
	markerAddedRune    = '┃'
	markerModifiedRune = '┃'
	markerRemovedRune  = '▔'
)

// ViewModel carries everything needed to render one buffer view.
type ViewModel struct {
	Doc      *buffer.Document
	Cursor   types.Position
	ViewY    int // First visible buffer line
	ViewX    int // First visible visual column
	Markers  []decoration.Spec
	TabWidth int
}

func calculateVisualColumn(line []byte, runeIndex int) int {
	if runeIndex <= 0 {
		return 0
	}
	str := string(line)
	visualWidth := 0
	currentRuneIndex := 0

	gr := uniseg.NewGraphemes(str)

	for gr.Next() { // Iterate through grapheme clusters (user-perceived characters)
		if currentRuneIndex >= runeIndex {
			break
		}
		runes := gr.Runes()
		width := gr.Width() // Use uniseg's width calculation

		visualWidth += width
		currentRuneIndex += len(runes)
	}

	return visualWidth
}

type lineMarker struct {
	r     rune
	style string
}

// markersByLine expands decoration specs into a per-line marker lookup.
// Removed markers win over range markers on the same line so a deletion
// point stays visible inside a modified block.
func markersByLine(specs []decoration.Spec) map[int]lineMarker {
	out := make(map[int]lineMarker, len(specs))
	for _, spec := range specs {
		switch spec.Kind {
		case types.DecorationAdded:
			for l := spec.Range.StartLine; l <= spec.Range.EndLine; l++ {
				out[l] = lineMarker{r: markerAddedRune, style: "GutterAdded"}
			}
		case types.DecorationModified:
			for l := spec.Range.StartLine; l <= spec.Range.EndLine; l++ {
				out[l] = lineMarker{r: markerModifiedRune, style: "GutterModified"}
			}
		case types.DecorationRemoved:
			out[spec.Range.StartLine] = lineMarker{r: markerRemovedRune, style: "GutterRemoved"}
		}
	}
	return out
}

// gutterWidths computes the line-number and marker column widths.
func gutterWidths(lineCount, screenWidth int) (numWidth, gutterWidth int) {
	if lineCount <= 0 {
		lineCount = 1
	}
	maxDigits := int(math.Log10(float64(lineCount))) + 1
	lineNumberPadding := 1 // Space between number and marker column
	numWidth = maxDigits
	gutterWidth = maxDigits + lineNumberPadding + 1 // +1 for the marker column
	if gutterWidth >= screenWidth {                 // Not enough space for gutter and text
		return 0, 0
	}
	return numWidth, gutterWidth
}

// DrawBuffer draws the visible portion of a view using the provided theme.
func DrawBuffer(tuiManager *TUI, v ViewModel, activeTheme *theme.Theme) {
	if activeTheme == nil {
		activeTheme = &theme.DevComfortDark
	}

	defaultStyle := activeTheme.GetStyle("Default")
	lineNumberStyle := activeTheme.GetStyle("LineNumber")

	width, height := tuiManager.Size()
	statusBarHeight := 1
	viewHeight := height - statusBarHeight

	if viewHeight <= 0 || width <= 0 || v.Doc == nil {
		return
	}

	lines := v.Doc.Lines()
	numWidth, gutterWidth := gutterWidths(len(lines), width)
	textAreaWidth := width - gutterWidth
	markers := markersByLine(v.Markers)
	tabWidth := v.TabWidth
	if tabWidth <= 0 {
		tabWidth = 4
	}

	// --- Draw Loop ---
	for screenY := 0; screenY < viewHeight; screenY++ {
		bufferLineIdx := screenY + v.ViewY

		// Fill the entire line with the theme's default style
		for fillX := 0; fillX < width; fillX++ {
			tuiManager.screen.SetContent(fillX, screenY, ' ', nil, defaultStyle)
		}

		// --- Line Number Gutter + Marker Column ---
		if gutterWidth > 0 && bufferLineIdx >= 0 && bufferLineIdx < len(lines) {
			currentLineStyle := lineNumberStyle
			if v.Cursor.Line == bufferLineIdx {
				currentLineStyle = lineNumberStyle.Bold(true)
			}
			lineNumStr := fmt.Sprintf("%*d", numWidth, bufferLineIdx+1)
			for i, r := range []rune(lineNumStr) {
				if i < numWidth {
					tuiManager.screen.SetContent(i, screenY, r, nil, currentLineStyle)
				}
			}

			// Dirty-diff marker sits between the number and the text.
			if m, ok := markers[bufferLineIdx+1]; ok { // markers are 1-based
				tuiManager.screen.SetContent(gutterWidth-1, screenY, m.r, nil, activeTheme.GetStyle(m.style))
			}
		}

		if bufferLineIdx < 0 || bufferLineIdx >= len(lines) {
			continue // Below buffer content, already filled with background
		}

		// --- Buffer Text ---
		lineStr := string(lines[bufferLineIdx])
		gr := uniseg.NewGraphemes(lineStr)

		currentVisualX := 0

		for gr.Next() { // Iterate through grapheme clusters
			clusterRunes := gr.Runes()
			clusterWidth := gr.Width()
			clusterVisualStart := currentVisualX
			clusterVisualEnd := currentVisualX + clusterWidth

			screenX := (clusterVisualStart - v.ViewX) + gutterWidth

			if clusterVisualEnd > v.ViewX && clusterVisualStart < v.ViewX+textAreaWidth {
				if screenX >= gutterWidth && screenX < width {
					mainRune := clusterRunes[0]
					combining := clusterRunes[1:]

					if mainRune == '\t' {
						visualScreenX := currentVisualX - v.ViewX + gutterWidth
						spacesToDraw := tabWidth - (visualScreenX % tabWidth)
						for i := 0; i < spacesToDraw && screenX+i < width; i++ {
							tuiManager.screen.SetContent(screenX+i, screenY, ' ', nil, defaultStyle)
						}
						clusterWidth = spacesToDraw
					} else {
						tuiManager.screen.SetContent(screenX, screenY, mainRune, combining, defaultStyle)
						// Fill remaining cells for wide characters
						for cw := 1; cw < clusterWidth; cw++ {
							fillX := screenX + cw
							if fillX < width {
								tuiManager.screen.SetContent(fillX, screenY, ' ', nil, defaultStyle)
							}
						}
					}
				}
			}

			currentVisualX += clusterWidth
			// Stop drawing past the visible text area edge
			if currentVisualX >= v.ViewX+textAreaWidth {
				break
			}
		}
	}
}

// DrawCursor positions the terminal cursor using visual width calculations.
func DrawCursor(tuiManager *TUI, v ViewModel) {
	if v.Doc == nil {
		return
	}
	width, height := tuiManager.Size()
	_, gutterWidth := gutterWidths(v.Doc.LineCount(), width)

	lineBytes, err := v.Doc.Line(v.Cursor.Line)
	cursorVisualCol := 0
	if err == nil {
		cursorVisualCol = calculateVisualColumn(lineBytes, v.Cursor.Col)
	} else {
		logger.Debugf("DrawCursor: Error getting line %d: %v", v.Cursor.Line, err)
	}

	screenX := (cursorVisualCol - v.ViewX) + gutterWidth
	screenY := v.Cursor.Line - v.ViewY

	statusBarHeight := 1
	viewHeight := height - statusBarHeight
	textAreaWidth := width - gutterWidth

	if screenX < gutterWidth || screenX >= width || screenY < 0 || screenY >= viewHeight || viewHeight <= 0 || textAreaWidth <= 0 {
		tuiManager.screen.HideCursor()
	} else {
		tuiManager.screen.ShowCursor(screenX, screenY)
	}
}
