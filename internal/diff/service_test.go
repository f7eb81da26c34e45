// internal/diff/service_test.go
package diff

import (
	"context"
	"errors"
	"testing"

	"github.com/bethropolis/gutter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver map[string]string

func (m mapResolver) Content(_ context.Context, uri string) (string, error) {
	content, ok := m[uri]
	if !ok {
		return "", errors.New("unknown uri: " + uri)
	}
	return content, nil
}

func TestComputeLineChangesIdentical(t *testing.T) {
	lines := []string{"a", "b", "c"}
	assert.Empty(t, ComputeLineChanges(lines, lines, false))
}

func TestComputeLineChangesInsertion(t *testing.T) {
	original := []string{"a", "b", "c"}
	modified := []string{"a", "b", "x", "c"}

	changes := ComputeLineChanges(original, modified, false)
	require.Len(t, changes, 1)
	assert.Equal(t, types.Change{
		OriginalStartLine: 2, OriginalEndLine: 0,
		ModifiedStartLine: 3, ModifiedEndLine: 3,
	}, changes[0])
	assert.True(t, changes[0].IsInsertion())
}

func TestComputeLineChangesDeletion(t *testing.T) {
	original := []string{"a", "b", "c"}
	modified := []string{"a", "c"}

	changes := ComputeLineChanges(original, modified, false)
	require.Len(t, changes, 1)
	assert.Equal(t, types.Change{
		OriginalStartLine: 2, OriginalEndLine: 2,
		ModifiedStartLine: 1, ModifiedEndLine: 0,
	}, changes[0])
	assert.True(t, changes[0].IsDeletion())
}

func TestComputeLineChangesDeletionAtTop(t *testing.T) {
	original := []string{"x", "a"}
	modified := []string{"a"}

	changes := ComputeLineChanges(original, modified, false)
	require.Len(t, changes, 1)
	assert.Equal(t, types.Change{
		OriginalStartLine: 1, OriginalEndLine: 1,
		ModifiedStartLine: 0, ModifiedEndLine: 0,
	}, changes[0])
	assert.True(t, changes[0].IsDeletion())
}

func TestComputeLineChangesModification(t *testing.T) {
	original := []string{"a", "b", "c"}
	modified := []string{"a", "B", "c"}

	changes := ComputeLineChanges(original, modified, false)
	require.Len(t, changes, 1)
	assert.Equal(t, types.Change{
		OriginalStartLine: 2, OriginalEndLine: 2,
		ModifiedStartLine: 2, ModifiedEndLine: 2,
	}, changes[0])
	assert.False(t, changes[0].IsInsertion())
	assert.False(t, changes[0].IsDeletion())
}

func TestComputeLineChangesMultipleHunks(t *testing.T) {
	original := []string{"one", "two", "three", "four", "five"}
	modified := []string{"one", "TWO", "three", "four", "five", "six"}

	changes := ComputeLineChanges(original, modified, false)
	require.Len(t, changes, 2)
	assert.Equal(t, 2, changes[0].ModifiedStartLine)
	assert.True(t, changes[1].IsInsertion())
	assert.Equal(t, 6, changes[1].ModifiedStartLine)
}

func TestComputeLineChangesIgnoreTrimWhitespace(t *testing.T) {
	original := []string{"a", "b"}
	modified := []string{"a  ", "  b"}

	assert.Empty(t, ComputeLineChanges(original, modified, true))
	assert.Len(t, ComputeLineChanges(original, modified, false), 1)
}

func TestComputeDiffResolvesBothSides(t *testing.T) {
	svc := NewService(mapResolver{
		"base:f":        "a\nb\nc\n",
		"file:///f.txt": "a\nb\nx\nc\n",
	})

	changes, err := svc.ComputeDiff(context.Background(), "base:f", "file:///f.txt", false)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].IsInsertion())
	assert.Equal(t, 3, changes[0].ModifiedStartLine)
}

func TestComputeDiffPropagatesResolverError(t *testing.T) {
	svc := NewService(mapResolver{"file:///f.txt": "a\n"})

	_, err := svc.ComputeDiff(context.Background(), "base:missing", "file:///f.txt", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base:missing")
}

func TestComputeDiffHonorsContextCancellation(t *testing.T) {
	svc := NewService(mapResolver{"a": "x\n", "b": "y\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ComputeDiff(ctx, "a", "b", false)
	require.ErrorIs(t, err, context.Canceled)
}
