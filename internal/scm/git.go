// internal/scm/git.go
package scm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bethropolis/gutter/internal/buffer"
	"github.com/bethropolis/gutter/internal/event"
	"github.com/bethropolis/gutter/internal/logger"
	"github.com/fsnotify/fsnotify"
)

const gitIndexScheme = "gitindex:"

// GitProvider resolves file: buffer URIs against the git index and loads
// gitindex: baseline URIs via `git show`. It watches each repository's index
// file and dispatches ActiveProviderChanged when it moves, so commits and
// stages re-baseline every open buffer.
type GitProvider struct {
	events *event.Manager

	mu        sync.Mutex
	gitPath   string
	repoRoots map[string]string // directory -> repo root ("" = not a repo)
	watcher   *fsnotify.Watcher
	watched   map[string]bool
	closed    bool
}

// NewGitProvider creates a provider dispatching change events on events.
func NewGitProvider(events *event.Manager) *GitProvider {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		logger.Warnf("GitProvider: git not found in PATH, baselines disabled: %v", err)
		gitPath = ""
	}
	return &GitProvider{
		events:    events,
		gitPath:   gitPath,
		repoRoots: make(map[string]string),
		watched:   make(map[string]bool),
	}
}

// HasActiveProvider reports whether git is usable at all.
func (p *GitProvider) HasActiveProvider() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gitPath != "" && !p.closed
}

// OriginalResource maps a file: buffer URI to the gitindex: URI of its
// staged copy. Untracked files and files outside a repository resolve to
// "no baseline".
func (p *GitProvider) OriginalResource(ctx context.Context, bufferURI string) (string, bool, error) {
	path, ok := strings.CutPrefix(bufferURI, "file://")
	if !ok {
		return "", false, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to absolutize '%s': %w", path, err)
	}

	root, err := p.repoRoot(ctx, filepath.Dir(abs))
	if err != nil {
		return "", false, err
	}
	if root == "" {
		return "", false, nil // not inside a repository
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", false, fmt.Errorf("failed to relativize '%s': %w", abs, err)
	}
	rel = filepath.ToSlash(rel)

	// Only tracked files have a baseline.
	if _, err := p.git(ctx, root, "ls-files", "--error-unmatch", "--", rel); err != nil {
		logger.DebugTagf("scm", "GitProvider: %s not tracked in %s", rel, root)
		return "", false, nil
	}

	if err := p.watchIndex(root); err != nil {
		logger.Warnf("GitProvider: failed to watch index of %s: %v", root, err)
	}
	return gitIndexScheme + filepath.ToSlash(root) + "::" + rel, true, nil
}

// Load reads the staged content behind a gitindex: URI into an owned
// baseline document.
func (p *GitProvider) Load(ctx context.Context, uri string) (*buffer.Document, func(), error) {
	root, rel, err := ParseGitIndexURI(uri)
	if err != nil {
		return nil, nil, err
	}
	out, err := p.git(ctx, root, "show", ":"+rel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read staged copy of '%s': %w", rel, err)
	}
	doc := buffer.NewDocumentFromBytes(uri, out)
	return doc, doc.Dispose, nil
}

// ParseGitIndexURI splits a gitindex: URI into repository root and relative
// path.
func ParseGitIndexURI(uri string) (root, rel string, err error) {
	rest, ok := strings.CutPrefix(uri, gitIndexScheme)
	if !ok {
		return "", "", fmt.Errorf("not a gitindex URI: %s", uri)
	}
	root, rel, ok = strings.Cut(rest, "::")
	if !ok || root == "" || rel == "" {
		return "", "", fmt.Errorf("malformed gitindex URI: %s", uri)
	}
	return filepath.FromSlash(root), rel, nil
}

// repoRoot resolves (and caches) the repository root for a directory.
func (p *GitProvider) repoRoot(ctx context.Context, dir string) (string, error) {
	p.mu.Lock()
	if root, ok := p.repoRoots[dir]; ok {
		p.mu.Unlock()
		return root, nil
	}
	p.mu.Unlock()

	out, err := p.git(ctx, dir, "rev-parse", "--show-toplevel")
	root := ""
	if err == nil {
		root = strings.TrimSpace(string(out))
	}

	p.mu.Lock()
	p.repoRoots[dir] = root
	p.mu.Unlock()
	return root, nil
}

func (p *GitProvider) git(ctx context.Context, dir string, args ...string) ([]byte, error) {
	p.mu.Lock()
	gitPath := p.gitPath
	p.mu.Unlock()
	if gitPath == "" {
		return nil, fmt.Errorf("git not available")
	}

	cmd := exec.CommandContext(ctx, gitPath, append([]string{"-C", dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// watchIndex starts (lazily) the fsnotify watcher and adds the repository's
// .git directory so index rewrites are observed. Git replaces the index
// atomically via rename, so we watch the directory, not the file.
func (p *GitProvider) watchIndex(root string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.watched[root] {
		return nil
	}
	if p.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		p.watcher = w
		go p.watchLoop(w)
	}
	gitDir := filepath.Join(root, ".git")
	if err := p.watcher.Add(gitDir); err != nil {
		return fmt.Errorf("failed to watch '%s': %w", gitDir, err)
	}
	p.watched[root] = true
	logger.DebugTagf("scm", "GitProvider: watching %s", gitDir)
	return nil
}

func (p *GitProvider) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != "index" {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logger.DebugTagf("scm", "GitProvider: index changed (%s), re-baselining", ev.Name)
			p.events.Dispatch(event.TypeActiveProviderChanged, event.ActiveProviderChangedData{})
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warnf("GitProvider: watcher error: %v", err)
		}
	}
}

// Dispose stops the index watcher.
func (p *GitProvider) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.watcher != nil {
		_ = p.watcher.Close()
		p.watcher = nil
	}
}
