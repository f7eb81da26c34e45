// internal/buffer/document.go
package buffer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bethropolis/gutter/internal/event"
	"github.com/bethropolis/gutter/internal/types"
	"github.com/google/uuid"
)

// Document is the line-slice Buffer implementation. Each document carries a
// stable uuid identity, a URI, and its own event manager so listeners can
// subscribe to content changes and disposal.
type Document struct {
	mu       sync.RWMutex
	id       string
	uri      string
	lines    [][]byte
	filePath string
	modified bool
	disposed bool
	events   *event.Manager
}

// NewDocument creates an empty document for the given URI.
func NewDocument(uri string) *Document {
	return &Document{
		id:  uuid.NewString(),
		uri: uri,
		// Start with a single empty line, common for new files
		lines:  [][]byte{[]byte("")},
		events: event.NewManager(),
	}
}

// NewDocumentFromBytes creates a document pre-filled with content.
func NewDocumentFromBytes(uri string, content []byte) *Document {
	d := NewDocument(uri)
	d.lines = splitLines(content)
	return d
}

func splitLines(content []byte) [][]byte {
	if len(content) == 0 {
		return [][]byte{}
	}
	parts := bytes.Split(content, []byte("\n"))
	// A trailing newline produces a final empty element that is not a line.
	if len(parts) > 0 && len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}
	lines := make([][]byte, len(parts))
	for i, p := range parts {
		lines[i] = append([]byte(nil), p...)
	}
	return lines
}

// LoadFile reads a file into a new document whose URI is "file://<path>".
// A missing file yields a fresh single-line document.
func LoadFile(filePath string) (*Document, error) {
	d := NewDocument("file://" + filePath)
	d.filePath = filePath

	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return d, nil // New buffer isn't modified yet
		}
		return nil, fmt.Errorf("failed to open file '%s': %w", filePath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	newLines := [][]byte{}
	for scanner.Scan() {
		line := scanner.Bytes()
		lineCopy := make([]byte, len(line))
		copy(lineCopy, line)
		newLines = append(newLines, lineCopy)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file '%s': %w", filePath, err)
	}
	if len(newLines) == 0 {
		newLines = append(newLines, []byte(""))
	}
	d.lines = newLines
	return d, nil
}

// ID returns the document's stable identity.
func (d *Document) ID() string { return d.id }

// URI returns the document's URI.
func (d *Document) URI() string { return d.uri }

// FilePath returns the backing file path, if any.
func (d *Document) FilePath() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filePath
}

// Lines returns a snapshot of the document's lines.
func (d *Document) Lines() [][]byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([][]byte, len(d.lines))
	copy(out, d.lines)
	return out
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines)
}

// Line returns the bytes of one line.
func (d *Document) Line(index int) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if index < 0 || index >= len(d.lines) {
		return nil, fmt.Errorf("line index %d out of bounds (0-%d)", index, len(d.lines)-1)
	}
	return d.lines[index], nil
}

// Len returns the total byte length of the document content. An empty
// baseline (Len() == 0) forces an empty diff regardless of what the diff
// service reports.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for i, line := range d.lines {
		n += len(line)
		if i < len(d.lines)-1 {
			n++
		}
	}
	return n
}

// Bytes reassembles the document into a newline-joined byte slice.
func (d *Document) Bytes() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var buf bytes.Buffer
	for i, line := range d.lines {
		buf.Write(line)
		if i < len(d.lines)-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// Text returns the content as a string.
func (d *Document) Text() string { return string(d.Bytes()) }

// IsModified returns true if the buffer has unsaved changes.
func (d *Document) IsModified() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modified
}

// IsDisposed reports whether Dispose has been called.
func (d *Document) IsDisposed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.disposed
}

// OnChange registers a content-change listener.
func (d *Document) OnChange(handler func(types.EditInfo)) *event.Subscription {
	return d.events.Subscribe(event.TypeBufferModified, func(e event.Event) bool {
		if data, ok := e.Data.(event.BufferModifiedData); ok {
			handler(data.Edit)
		}
		return false
	})
}

// OnDispose registers a disposal listener.
func (d *Document) OnDispose(handler func()) *event.Subscription {
	return d.events.Subscribe(event.TypeBufferDisposed, func(e event.Event) bool {
		handler()
		return false
	})
}

// Dispose marks the document dead and notifies listeners. Safe to call twice.
func (d *Document) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	d.mu.Unlock()
	d.events.Dispatch(event.TypeBufferDisposed, event.BufferDisposedData{BufferID: d.id})
}

// Save writes the buffer content to the stored filePath.
func (d *Document) Save(filePath string) error {
	d.mu.Lock()
	path := d.filePath
	if filePath != "" { // Allow overriding path during save
		path = filePath
	}
	if path == "" {
		d.mu.Unlock()
		return errors.New("no file path specified for saving")
	}
	var buf bytes.Buffer
	for i, line := range d.lines {
		buf.Write(line)
		if i < len(d.lines)-1 {
			buf.WriteByte('\n')
		}
	}
	d.mu.Unlock()

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write file '%s': %w", path, err)
	}

	d.mu.Lock()
	d.filePath = path
	d.modified = false
	d.mu.Unlock()
	return nil
}

// --- Buffer Modification Methods ---

// Insert inserts text at a given position. Handles single/multiple lines.
func (d *Document) Insert(pos types.Position, text []byte) (types.EditInfo, error) {
	if len(text) == 0 {
		return types.EditInfo{}, nil
	}

	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return types.EditInfo{}, errors.New("insert into disposed buffer")
	}

	validPos, byteOffset, err := d.validatePosition(pos)
	if err != nil {
		d.mu.Unlock()
		return types.EditInfo{}, fmt.Errorf("invalid insert position: %w", err)
	}

	d.modified = true

	currentLine := d.lines[validPos.Line]
	insertLines := bytes.Split(text, []byte("\n"))

	tail := make([]byte, len(currentLine[byteOffset:]))
	copy(tail, currentLine[byteOffset:])

	d.lines[validPos.Line] = append(currentLine[:byteOffset], insertLines[0]...)

	newEnd := validPos
	if len(insertLines) > 1 {
		newLines := make([][]byte, len(insertLines)-1)
		for i := 1; i < len(insertLines); i++ {
			lineCopy := make([]byte, len(insertLines[i]))
			copy(lineCopy, insertLines[i])
			newLines[i-1] = lineCopy
		}
		lastLen := utf8.RuneCount(newLines[len(newLines)-1])
		newLines[len(newLines)-1] = append(newLines[len(newLines)-1], tail...)
		if validPos.Line+1 > len(d.lines) {
			d.lines = append(d.lines, newLines...)
		} else {
			d.lines = append(d.lines[:validPos.Line+1], append(newLines, d.lines[validPos.Line+1:]...)...)
		}
		newEnd = types.Position{Line: validPos.Line + len(newLines), Col: lastLen}
	} else {
		d.lines[validPos.Line] = append(d.lines[validPos.Line], tail...)
		newEnd = types.Position{Line: validPos.Line, Col: validPos.Col + utf8.RuneCount(insertLines[0])}
	}

	edit := types.EditInfo{
		Start:       validPos,
		OldEnd:      validPos,
		NewEnd:      newEnd,
		LinesDelta:  len(insertLines) - 1,
		BytesChange: len(text),
	}
	d.mu.Unlock()

	d.dispatchModified(edit)
	return edit, nil
}

// Delete removes text within a given range (start inclusive, end exclusive).
func (d *Document) Delete(start, end types.Position) (types.EditInfo, error) {
	if start == end {
		return types.EditInfo{}, nil // Nothing to delete
	}

	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return types.EditInfo{}, errors.New("delete from disposed buffer")
	}

	vStart, vEnd, startOffset, endOffset, err := d.validateAndGetByteOffsets(start, end)
	if err != nil {
		d.mu.Unlock()
		return types.EditInfo{}, fmt.Errorf("invalid delete range: %w", err)
	}

	// If validation resulted in start == end after clamping, do nothing
	if vStart == vEnd && startOffset == endOffset {
		d.mu.Unlock()
		return types.EditInfo{}, nil
	}

	d.modified = true
	removedBytes := 0

	startLineBytes := d.lines[vStart.Line]

	if vStart.Line == vEnd.Line {
		// Deletion within a single line
		if endOffset > len(startLineBytes) {
			endOffset = len(startLineBytes)
		}
		if startOffset > len(startLineBytes) {
			startOffset = len(startLineBytes)
		}
		if startOffset > endOffset {
			startOffset = endOffset
		}
		removedBytes = endOffset - startOffset
		d.lines[vStart.Line] = append(startLineBytes[:startOffset], startLineBytes[endOffset:]...)
	} else {
		// Deletion spans multiple lines
		endLineBytes := d.lines[vEnd.Line]
		for i := vStart.Line; i <= vEnd.Line && i < len(d.lines); i++ {
			removedBytes += len(d.lines[i]) + 1
		}
		removedBytes -= startOffset + (len(endLineBytes) - endOffset) + 1

		startPart := startLineBytes[:startOffset]
		endPart := endLineBytes[endOffset:]
		d.lines[vStart.Line] = append(startPart, endPart...)

		firstLineToRemove := vStart.Line + 1
		lastLineToRemove := vEnd.Line
		if firstLineToRemove <= lastLineToRemove && lastLineToRemove < len(d.lines) {
			if lastLineToRemove+1 >= len(d.lines) {
				d.lines = d.lines[:firstLineToRemove]
			} else {
				d.lines = append(d.lines[:firstLineToRemove], d.lines[lastLineToRemove+1:]...)
			}
		}
	}

	// Ensure buffer always has at least one line (convention)
	if len(d.lines) == 0 {
		d.lines = [][]byte{[]byte("")}
	}

	edit := types.EditInfo{
		Start:       vStart,
		OldEnd:      vEnd,
		NewEnd:      vStart,
		LinesDelta:  vStart.Line - vEnd.Line,
		BytesChange: -removedBytes,
	}
	d.mu.Unlock()

	d.dispatchModified(edit)
	return edit, nil
}

func (d *Document) dispatchModified(edit types.EditInfo) {
	d.events.Dispatch(event.TypeBufferModified, event.BufferModifiedData{
		BufferID: d.id,
		Edit:     edit,
	})
}

// --- Position validation (callers hold d.mu) ---

// validateAndGetByteOffsets validates start and end positions and returns their byte offsets.
// It ensures start <= end.
func (d *Document) validateAndGetByteOffsets(start, end types.Position) (vStart types.Position, vEnd types.Position, startOffset int, endOffset int, err error) {
	// Ensure start <= end (lexicographically)
	if start.Line > end.Line || (start.Line == end.Line && start.Col > end.Col) {
		start, end = end, start
	}

	var startErr, endErr error
	vStart, startOffset, startErr = d.validatePosition(start)
	vEnd, endOffset, endErr = d.validatePosition(end)

	if startErr != nil || endErr != nil {
		return vStart, vEnd, 0, 0, fmt.Errorf("invalid range: startErr=%v, endErr=%v", startErr, endErr)
	}

	if vStart.Line == vEnd.Line {
		// Re-calculate endOffset against the validated start line so clamping
		// on the same line stays consistent.
		_, endOffset, _ = d.validatePositionOnLine(vEnd.Col, vStart.Line)
		if startOffset > endOffset {
			startOffset = endOffset
		}
	}

	return vStart, vEnd, startOffset, endOffset, nil
}

// validatePositionOnLine is a helper to get byte offset for a column on a specific line.
func (d *Document) validatePositionOnLine(col int, lineIndex int) (validCol int, byteOffset int, err error) {
	if lineIndex < 0 || lineIndex >= len(d.lines) {
		return 0, 0, fmt.Errorf("line index %d out of bounds", lineIndex)
	}
	currentLine := d.lines[lineIndex]
	byteOff := 0
	runeCount := 0
	for i := 0; i < len(currentLine); {
		if runeCount == col {
			break
		}
		_, size := utf8.DecodeRune(currentLine[i:])
		byteOff += size
		runeCount++
		i += size
	}
	if runeCount < col {
		col = runeCount
		byteOff = len(currentLine)
	}
	return col, byteOff, nil
}

func (d *Document) validatePosition(pos types.Position) (validPos types.Position, byteOffset int, err error) {
	if pos.Line < 0 {
		pos.Line = 0
	}
	// Clamp line index
	if pos.Line >= len(d.lines) {
		pos.Line = len(d.lines) - 1
		if pos.Line < 0 { // Buffer was empty?
			d.lines = append(d.lines, []byte(""))
			pos.Line = 0
		}
	}

	validLine := pos.Line
	var validCol int
	validCol, byteOffset, err = d.validatePositionOnLine(pos.Col, validLine)
	if err != nil {
		return types.Position{}, 0, err
	}

	return types.Position{Line: validLine, Col: validCol}, byteOffset, nil
}

// SplitTextLines exposes line splitting for diff adapters that need the
// baseline and live content as string slices.
func SplitTextLines(text string) []string {
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Ensure Document satisfies the Buffer interface
var _ Buffer = (*Document)(nil)
