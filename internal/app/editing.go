// internal/app/editing.go
package app

import (
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/bethropolis/gutter/internal/config"
	"github.com/bethropolis/gutter/internal/logger"
	"github.com/bethropolis/gutter/internal/types"
	"github.com/gdamore/tcell/v2"
)

// handleKeyEvent processes a key press against the focused document.
// Returns true when the application should quit.
func (a *App) handleKeyEvent(ev *tcell.EventKey) bool {
	doc := a.activeDocument()
	if doc == nil {
		return ev.Key() == tcell.KeyEscape
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		close(a.quit)
		return true

	case tcell.KeyCtrlS:
		a.saveActiveDocument()

	case tcell.KeyCtrlN:
		a.switchDocument(a.active + 1)

	case tcell.KeyCtrlG:
		show := !config.Get().Editor.ShowChangesInGutter
		config.SetShowChangesInGutter(show)
		a.tracker.TriggerAll()
		if show {
			a.statusBar.SetTemporaryMessage("Gutter markers on")
		} else {
			a.statusBar.SetTemporaryMessage("Gutter markers off")
		}

	case tcell.KeyCtrlV:
		a.pasteClipboard()

	case tcell.KeyUp:
		a.moveCursor(-1, 0)
	case tcell.KeyDown:
		a.moveCursor(1, 0)
	case tcell.KeyLeft:
		a.moveCursor(0, -1)
	case tcell.KeyRight:
		a.moveCursor(0, 1)
	case tcell.KeyHome:
		a.cursor.Col = 0
	case tcell.KeyEnd:
		a.cursor.Col = a.lineRuneCount(a.cursor.Line)
	case tcell.KeyPgUp:
		_, height := a.tuiManager.Size()
		a.moveCursor(-(height - config.Get().Editor.StatusBarHeight), 0)
	case tcell.KeyPgDn:
		_, height := a.tuiManager.Size()
		a.moveCursor(height-config.Get().Editor.StatusBarHeight, 0)

	case tcell.KeyEnter:
		a.insertText([]byte("\n"))
	case tcell.KeyTab:
		a.insertText([]byte("\t"))

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.deleteBackward()
	case tcell.KeyDelete:
		a.deleteForward()

	case tcell.KeyRune:
		buf := make([]byte, utf8.UTFMax)
		n := utf8.EncodeRune(buf, ev.Rune())
		a.insertText(buf[:n])
	}

	return false
}

// insertText inserts bytes at the cursor and advances it past the edit.
func (a *App) insertText(text []byte) {
	doc := a.activeDocument()
	edit, err := doc.Insert(a.cursor, text)
	if err != nil {
		logger.Warnf("App: insert failed at %v: %v", a.cursor, err)
		return
	}
	a.cursor = edit.NewEnd
}

// deleteBackward removes the rune (or newline) before the cursor.
func (a *App) deleteBackward() {
	doc := a.activeDocument()
	start := a.cursor

	if a.cursor.Col > 0 {
		start.Col--
	} else if a.cursor.Line > 0 {
		start.Line--
		start.Col = a.lineRuneCount(start.Line)
	} else {
		return // top of buffer
	}

	if _, err := doc.Delete(start, a.cursor); err != nil {
		logger.Warnf("App: delete failed at %v: %v", start, err)
		return
	}
	a.cursor = start
}

// deleteForward removes the rune (or newline) after the cursor.
func (a *App) deleteForward() {
	doc := a.activeDocument()
	end := a.cursor

	if a.cursor.Col < a.lineRuneCount(a.cursor.Line) {
		end.Col++
	} else if a.cursor.Line < doc.LineCount()-1 {
		end.Line++
		end.Col = 0
	} else {
		return // end of buffer
	}

	if _, err := doc.Delete(a.cursor, end); err != nil {
		logger.Warnf("App: delete failed at %v: %v", a.cursor, err)
	}
}

// moveCursor shifts the cursor by deltas, clamping to buffer bounds.
func (a *App) moveCursor(deltaLine, deltaCol int) {
	doc := a.activeDocument()
	lineCount := doc.LineCount()
	if lineCount == 0 {
		a.cursor = types.Position{}
		return
	}

	a.cursor.Line += deltaLine
	if a.cursor.Line < 0 {
		a.cursor.Line = 0
	}
	if a.cursor.Line >= lineCount {
		a.cursor.Line = lineCount - 1
	}

	if deltaCol != 0 {
		a.cursor.Col += deltaCol
		if a.cursor.Col < 0 {
			if a.cursor.Line > 0 {
				a.cursor.Line--
				a.cursor.Col = a.lineRuneCount(a.cursor.Line)
			} else {
				a.cursor.Col = 0
			}
		} else if a.cursor.Col > a.lineRuneCount(a.cursor.Line) {
			if a.cursor.Line < lineCount-1 {
				a.cursor.Line++
				a.cursor.Col = 0
			} else {
				a.cursor.Col = a.lineRuneCount(a.cursor.Line)
			}
		}
	}

	// Vertical movement clamps the column to the destination line.
	if max := a.lineRuneCount(a.cursor.Line); a.cursor.Col > max {
		a.cursor.Col = max
	}
}

// lineRuneCount returns the rune length of a line, 0 on any error.
func (a *App) lineRuneCount(lineIndex int) int {
	line, err := a.activeDocument().Line(lineIndex)
	if err != nil {
		return 0
	}
	return utf8.RuneCount(line)
}

// saveActiveDocument writes the focused document back to disk and
// re-baselines, since a save usually precedes a stage or commit.
func (a *App) saveActiveDocument() {
	doc := a.activeDocument()
	path := doc.FilePath()
	if path == "" {
		a.statusBar.SetTemporaryMessage("Cannot save: no file path")
		return
	}
	if err := doc.Save(path); err != nil {
		logger.Errorf("App: save failed for %s: %v", path, err)
		a.statusBar.SetTemporaryMessage("Save failed: %v", err)
		return
	}
	a.statusBar.SetTemporaryMessage("Saved %s", path)
}

// pasteClipboard inserts system clipboard text at the cursor.
func (a *App) pasteClipboard() {
	if !config.Get().Editor.SystemClipboard {
		a.statusBar.SetTemporaryMessage("System clipboard disabled in config")
		return
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		logger.Warnf("App: clipboard read failed: %v", err)
		a.statusBar.SetTemporaryMessage("Clipboard unavailable")
		return
	}
	if text == "" {
		return
	}
	a.insertText([]byte(text))
}
