// internal/decoration/decoration.go
package decoration

import (
	"github.com/bethropolis/gutter/internal/types"
)

// Lane identifies the overview-ruler column a marker occupies.
type Lane int

const (
	LaneLeft Lane = iota + 1
	LaneCenter
	LaneRight
	LaneFull
)

// Spec is the wire shape handed to the decoration API: a line range plus the
// presentation hints the renderer needs.
type Spec struct {
	Range              types.LineRange
	Kind               types.DecorationKind
	StyleClass         string
	OverviewRulerColor string
	OverviewRulerLane  Lane
}

// Overview ruler colors per marker kind.
const (
	colorAdded    = "#587c0c"
	colorRemoved  = "#94151b"
	colorModified = "#0c7d9d"
)

// SpecFor expands a mapped decoration into its presentation spec. Hidden
// decorations keep their degenerate range and carry no style, so renderers
// naturally draw nothing for them.
func SpecFor(d types.Decoration) Spec {
	spec := Spec{Range: d.Range, Kind: d.Kind, OverviewRulerLane: LaneLeft}
	switch d.Kind {
	case types.DecorationAdded:
		spec.StyleClass = "dirty-diff-added"
		spec.OverviewRulerColor = colorAdded
	case types.DecorationRemoved:
		spec.StyleClass = "dirty-diff-removed"
		spec.OverviewRulerColor = colorRemoved
	case types.DecorationModified:
		spec.StyleClass = "dirty-diff-modified"
		spec.OverviewRulerColor = colorModified
	case types.DecorationHidden:
		spec.OverviewRulerLane = 0
	}
	return spec
}
