// internal/theme/theme.go
package theme

import (
	"strings"
	"sync"

	"github.com/bethropolis/gutter/internal/logger"
	"github.com/gdamore/tcell/v2"
)

// Theme bundles named styles for the UI.
type Theme struct {
	Name   string
	IsDark bool
	Styles map[string]tcell.Style
}

// GetStyle looks a style up by name, falling back to the base name (part
// before the first dot) and then to "Default".
func (t *Theme) GetStyle(name string) tcell.Style {
	if style, ok := t.Styles[name]; ok {
		return style
	}

	baseName := name
	if dotIndex := strings.Index(name, "."); dotIndex != -1 {
		baseName = name[:dotIndex]
		if style, ok := t.Styles[baseName]; ok {
			return style
		}
	}

	if defStyle, ok := t.Styles["Default"]; ok {
		if name != "Default" {
			logger.Debugf("Theme '%s': Style '%s' not found, falling back to 'Default'", t.Name, name)
		}
		return defStyle
	}

	logger.Warnf("Theme '%s': Style '%s' and 'Default' style not found, using tcell default.", t.Name, name)
	return tcell.StyleDefault
}

// --- DevComfort Dark Theme Definition ---

var DevComfortDark Theme

func init() {
	dcBackground := tcell.NewHexColor(0x2a2f38) // Slightly muted dark blue/grey (StatusBar BG)
	dcForeground := tcell.NewHexColor(0xc5cdd9) // Soft off-white (Default Text)
	dcComment := tcell.NewHexColor(0x5c6370)    // Muted Grey (Line numbers)
	dcYellow := tcell.NewHexColor(0xe5c07b)     // Soft Yellow (Modified indicator)
	dcGreen := tcell.NewHexColor(0x98c379)      // Soft Green (Added markers)
	dcCyan := tcell.NewHexColor(0x56b6c2)       // Soft Cyan (Modified markers)
	dcRed := tcell.NewHexColor(0xe06c75)        // Soft Red (Removed markers)

	baseStyle := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(dcForeground)

	DevComfortDark = Theme{
		Name:   "DevComfort Dark",
		IsDark: true,
		Styles: map[string]tcell.Style{
			// --- UI Elements ---
			"Default":           baseStyle,
			"LineNumber":        baseStyle.Foreground(dcComment),
			"StatusBar":         tcell.StyleDefault.Background(dcBackground).Foreground(dcForeground),
			"StatusBarModified": tcell.StyleDefault.Background(dcBackground).Foreground(dcYellow),
			"StatusBarMessage":  tcell.StyleDefault.Background(dcBackground).Foreground(dcForeground).Bold(true),

			// --- Dirty-Diff Gutter Markers ---
			"GutterAdded":    baseStyle.Foreground(dcGreen).Bold(true),
			"GutterRemoved":  baseStyle.Foreground(dcRed).Bold(true),
			"GutterModified": baseStyle.Foreground(dcCyan).Bold(true),
		},
	}
}

var (
	currentMu    sync.RWMutex
	currentTheme = &DevComfortDark
)

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() *Theme {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return currentTheme
}

// SetCurrentTheme swaps the active theme.
func SetCurrentTheme(t *Theme) {
	if t == nil {
		return
	}
	currentMu.Lock()
	currentTheme = t
	currentMu.Unlock()
}
