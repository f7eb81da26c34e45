// internal/app/app.go
package app

import (
	"context"
	"fmt"

	"github.com/bethropolis/gutter/internal/buffer"
	"github.com/bethropolis/gutter/internal/config"
	"github.com/bethropolis/gutter/internal/decoration"
	"github.com/bethropolis/gutter/internal/diff"
	"github.com/bethropolis/gutter/internal/dirtydiff"
	"github.com/bethropolis/gutter/internal/event"
	"github.com/bethropolis/gutter/internal/logger"
	"github.com/bethropolis/gutter/internal/scm"
	"github.com/bethropolis/gutter/internal/statusbar"
	"github.com/bethropolis/gutter/internal/theme"
	"github.com/bethropolis/gutter/internal/tui"
	"github.com/bethropolis/gutter/internal/types"
	"github.com/gdamore/tcell/v2"
)

// App encapsulates the core components and main loop of the editor host.
type App struct {
	tuiManager   *tui.TUI
	statusBar    *statusbar.StatusBar
	eventManager *event.Manager
	provider     *scm.GitProvider
	decorations  *decoration.Registry
	tracker      *dirtydiff.VisibleModelTracker
	activeTheme  *theme.Theme

	documents []*buffer.Document
	active    int // index of the focused (visible) document
	cursor    types.Position
	viewY     int
	viewX     int

	// Channels managed by the App
	quit          chan struct{}
	redrawRequest chan struct{}

	changeSub *event.Subscription // focused document's content changes
}

// NewApp creates and initializes a new application instance.
func NewApp(filePaths []string) (*App, error) {
	tuiManager, err := tui.New()
	if err != nil {
		return nil, fmt.Errorf("TUI initialization failed: %w", err)
	}

	if len(filePaths) == 0 {
		filePaths = []string{""}
	}
	documents := make([]*buffer.Document, 0, len(filePaths))
	for _, path := range filePaths {
		var doc *buffer.Document
		if path == "" {
			doc = buffer.NewDocument("untitled:1")
		} else {
			doc, err = buffer.LoadFile(path)
			if err != nil {
				tuiManager.Close()
				return nil, fmt.Errorf("failed to load '%s': %w", path, err)
			}
		}
		documents = append(documents, doc)
	}

	eventManager := event.NewManager()
	provider := scm.NewGitProvider(eventManager)
	decorations := decoration.NewRegistry()

	appInstance := &App{
		tuiManager:    tuiManager,
		statusBar:     statusbar.New(statusbar.DefaultConfig()),
		eventManager:  eventManager,
		provider:      provider,
		decorations:   decorations,
		documents:     documents,
		activeTheme:   theme.GetCurrentTheme(),
		quit:          make(chan struct{}),
		redrawRequest: make(chan struct{}, 1),
	}

	// Decoration updates arrive from coordinator goroutines; repaint.
	decorations.SetOnReplace(func(string) { appInstance.requestRedraw() })

	diffService := diff.NewService(appInstance)

	// --- Dirty-Diff Engine Wiring ---
	appInstance.tracker = dirtydiff.NewVisibleModelTracker(appInstance, dirtydiff.Services{
		Events:           eventManager,
		Providers:        provider,
		Loader:           provider,
		Diff:             diffService,
		Decorations:      decorations,
		Config:           liveConfig{},
		ThrottleInterval: config.Get().Diff.ThrottleInterval(),
	})

	appInstance.watchActiveDocument()

	return appInstance, nil
}

// liveConfig adapts the global config to the engine's ConfigSource, so each
// diff cycle reads the current values.
type liveConfig struct{}

func (liveConfig) ShowChangesInGutter() bool  { return config.Get().Editor.ShowChangesInGutter }
func (liveConfig) IgnoreTrimWhitespace() bool { return config.Get().Diff.IgnoreTrimWhitespace }

// --- VisibilitySource ---

// OnVisibleEditorsChanged subscribes to visibility notifications.
func (a *App) OnVisibleEditorsChanged(handler func()) *event.Subscription {
	return a.eventManager.Subscribe(event.TypeVisibleEditorsChanged, func(event.Event) bool {
		handler()
		return false
	})
}

// VisibleBuffers returns the buffers behind the currently visible editor
// widgets. This host shows a single focused document at a time.
func (a *App) VisibleBuffers() []buffer.Buffer {
	doc := a.activeDocument()
	if doc == nil {
		return nil
	}
	return []buffer.Buffer{doc}
}

// --- diff.ContentResolver ---

// Content resolves a URI to buffer content: open documents first, then the
// baseline loader for gitindex URIs.
func (a *App) Content(ctx context.Context, uri string) (string, error) {
	for _, doc := range a.documents {
		if doc.URI() == uri && !doc.IsDisposed() {
			return doc.Text(), nil
		}
	}
	doc, release, err := a.provider.Load(ctx, uri)
	if err != nil {
		return "", err
	}
	defer release()
	return doc.Text(), nil
}

func (a *App) activeDocument() *buffer.Document {
	if a.active < 0 || a.active >= len(a.documents) {
		return nil
	}
	return a.documents[a.active]
}

// watchActiveDocument re-subscribes redraw handling to the focused document.
func (a *App) watchActiveDocument() {
	if a.changeSub != nil {
		a.changeSub.Dispose()
		a.changeSub = nil
	}
	if doc := a.activeDocument(); doc != nil {
		a.changeSub = doc.OnChange(func(types.EditInfo) { a.requestRedraw() })
	}
}

// switchDocument focuses the document at index and announces the new
// visible set.
func (a *App) switchDocument(index int) {
	if len(a.documents) == 0 {
		return
	}
	a.active = ((index % len(a.documents)) + len(a.documents)) % len(a.documents)
	a.cursor = types.Position{}
	a.viewY, a.viewX = 0, 0
	a.watchActiveDocument()
	a.eventManager.Dispatch(event.TypeVisibleEditorsChanged, event.VisibleEditorsChangedData{})
	logger.DebugTagf("app", "App: focused document %d (%s)", a.active, a.activeDocument().URI())
}

// Run starts the application's main event and drawing loops.
func (a *App) Run() error {
	defer a.tuiManager.Close()
	defer a.provider.Dispose()
	defer a.tracker.Dispose()

	go a.eventLoop()

	a.eventManager.Dispatch(event.TypeAppReady, event.AppReadyData{})
	a.statusBar.SetTemporaryMessage("gutter - Ctrl+S Save | Ctrl+N Next Buffer | Ctrl+G Toggle Markers | ESC Quit")
	a.requestRedraw()

	for {
		select {
		case <-a.quit:
			a.eventManager.Dispatch(event.TypeAppQuit, event.AppQuitData{})
			logger.Infof("Exiting application.")
			return nil
		case <-a.redrawRequest:
			a.drawEditor()
		}
	}
}

// eventLoop handles TUI events.
func (a *App) eventLoop() {
	for {
		ev := a.tuiManager.PollEvent()
		if ev == nil {
			return
		}

		needsRedraw := false

		switch eventData := ev.(type) {
		case *tcell.EventResize:
			a.tuiManager.GetScreen().Sync()
			needsRedraw = true

		case *tcell.EventKey:
			if a.handleKeyEvent(eventData) {
				return // quit requested
			}
			needsRedraw = true
		}

		if needsRedraw {
			a.requestRedraw()
		}
	}
}

// drawEditor clears screen and redraws all components.
func (a *App) drawEditor() {
	doc := a.activeDocument()
	if doc == nil {
		return
	}

	a.scrollToCursor()
	markers := a.decorations.DecorationsFor(doc.ID())

	a.statusBar.SetFileInfo(doc.FilePath(), doc.IsModified())
	a.statusBar.SetCursorInfo(a.cursor)
	a.statusBar.SetMarkerCount(len(markers))

	screen := a.tuiManager.GetScreen()
	width, height := a.tuiManager.Size()

	view := tui.ViewModel{
		Doc:      doc,
		Cursor:   a.cursor,
		ViewY:    a.viewY,
		ViewX:    a.viewX,
		Markers:  markers,
		TabWidth: config.Get().Editor.TabWidth,
	}

	a.tuiManager.Clear()
	tui.DrawBuffer(a.tuiManager, view, a.activeTheme)
	a.statusBar.Draw(screen, width, height, a.activeTheme)
	tui.DrawCursor(a.tuiManager, view)
	a.tuiManager.Show()
}

// scrollToCursor keeps the cursor inside the viewport.
func (a *App) scrollToCursor() {
	doc := a.activeDocument()
	if doc == nil {
		return
	}
	_, height := a.tuiManager.Size()
	viewHeight := height - config.Get().Editor.StatusBarHeight
	if viewHeight <= 0 {
		return
	}
	scrollOff := config.Get().Editor.ScrollOff

	if a.cursor.Line < a.viewY+scrollOff {
		a.viewY = a.cursor.Line - scrollOff
	}
	if a.cursor.Line >= a.viewY+viewHeight-scrollOff {
		a.viewY = a.cursor.Line - viewHeight + scrollOff + 1
	}
	if a.viewY > doc.LineCount()-viewHeight {
		a.viewY = doc.LineCount() - viewHeight
	}
	if a.viewY < 0 {
		a.viewY = 0
	}
}

// requestRedraw sends a redraw signal non-blockingly.
func (a *App) requestRedraw() {
	select {
	case a.redrawRequest <- struct{}{}:
	default: // Don't block if a redraw is already pending
	}
}
