// internal/scm/git_test.go
package scm

import (
	"context"
	"testing"

	"github.com/bethropolis/gutter/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitIndexURI(t *testing.T) {
	root, rel, err := ParseGitIndexURI("gitindex:/home/user/repo::src/main.go")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/repo", root)
	assert.Equal(t, "src/main.go", rel)
}

func TestParseGitIndexURIRejectsOtherSchemes(t *testing.T) {
	_, _, err := ParseGitIndexURI("file:///tmp/a.txt")
	assert.Error(t, err)
}

func TestParseGitIndexURIRejectsMalformed(t *testing.T) {
	for _, uri := range []string{
		"gitindex:",
		"gitindex:/repo",
		"gitindex:::rel",
		"gitindex:/repo::",
	} {
		_, _, err := ParseGitIndexURI(uri)
		assert.Error(t, err, "uri %q should not parse", uri)
	}
}

func TestOriginalResourceIgnoresNonFileURIs(t *testing.T) {
	p := NewGitProvider(event.NewManager())
	defer p.Dispose()

	_, ok, err := p.OriginalResource(context.Background(), "untitled:1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisposedProviderIsInactive(t *testing.T) {
	p := NewGitProvider(event.NewManager())
	p.Dispose()
	assert.False(t, p.HasActiveProvider())
	p.Dispose() // second dispose is a no-op
}
