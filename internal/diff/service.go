// internal/diff/service.go
package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/bethropolis/gutter/internal/buffer"
	"github.com/bethropolis/gutter/internal/logger"
	"github.com/bethropolis/gutter/internal/types"
	"github.com/pmezard/go-difflib/difflib"
)

// ContentResolver turns a URI into buffer content. The host editor backs
// this with its open-document registry plus the baseline loader.
type ContentResolver interface {
	Content(ctx context.Context, uri string) (string, error)
}

// Service computes line-range changes between a baseline and a live buffer.
// It is the concrete stand-in for the external "compute dirty diff" service.
type Service struct {
	resolver ContentResolver
}

// NewService creates a diff service reading content through resolver.
func NewService(resolver ContentResolver) *Service {
	return &Service{resolver: resolver}
}

// ComputeDiff resolves both URIs and returns their line changes in ascending
// line order.
func (s *Service) ComputeDiff(ctx context.Context, originalURI, modifiedURI string, ignoreTrimWhitespace bool) ([]types.Change, error) {
	original, err := s.resolver.Content(ctx, originalURI)
	if err != nil {
		return nil, fmt.Errorf("failed to read original '%s': %w", originalURI, err)
	}
	modified, err := s.resolver.Content(ctx, modifiedURI)
	if err != nil {
		return nil, fmt.Errorf("failed to read modified '%s': %w", modifiedURI, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	changes := ComputeLineChanges(buffer.SplitTextLines(original), buffer.SplitTextLines(modified), ignoreTrimWhitespace)
	logger.DebugTagf("diff", "Diff service: %d change(s) between %s and %s", len(changes), originalURI, modifiedURI)
	return changes, nil
}

// ComputeLineChanges diffs two line slices into the Change quad convention:
// 1-based inclusive line ranges, zero end sentinel for pure insertions and
// deletions, and for deletions a ModifiedStartLine naming the line after
// which content disappeared (0 when deleted at the very top).
func ComputeLineChanges(originalLines, modifiedLines []string, ignoreTrimWhitespace bool) []types.Change {
	a := originalLines
	b := modifiedLines
	if ignoreTrimWhitespace {
		a = trimLines(originalLines)
		b = trimLines(modifiedLines)
	}

	matcher := difflib.NewMatcher(a, b)
	var changes []types.Change
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'r': // replace: original lines rewritten in place
			changes = append(changes, types.Change{
				OriginalStartLine: op.I1 + 1,
				OriginalEndLine:   op.I2,
				ModifiedStartLine: op.J1 + 1,
				ModifiedEndLine:   op.J2,
			})
		case 'd': // delete: original lines with no modified counterpart
			changes = append(changes, types.Change{
				OriginalStartLine: op.I1 + 1,
				OriginalEndLine:   op.I2,
				ModifiedStartLine: op.J1,
				ModifiedEndLine:   0,
			})
		case 'i': // insert: modified lines with no original counterpart
			changes = append(changes, types.Change{
				OriginalStartLine: op.I1,
				OriginalEndLine:   0,
				ModifiedStartLine: op.J1 + 1,
				ModifiedEndLine:   op.J2,
			})
		}
	}
	return changes
}

func trimLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
