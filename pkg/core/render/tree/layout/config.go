package layout

import (
	"strings"

	"github.com/matzehuels/orgchart/pkg/core/chart"
)

// Orientation is the direction the tree grows in.
type Orientation int

const (
	// Vertical places the root at the top and children below.
	Vertical Orientation = iota
	// Horizontal places the root at the left and children to the right.
	Horizontal
)

// String returns "vertical" or "horizontal".
func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// ParseOrientation accepts "vertical" and "horizontal" (case-insensitive).
// Anything else is vertical.
func ParseOrientation(s string) Orientation {
	if strings.EqualFold(strings.TrimSpace(s), "horizontal") {
		return Horizontal
	}
	return Vertical
}

// Lateral returns the coordinate along which siblings are spread.
func (o Orientation) Lateral(n *chart.Node) float64 {
	if o == Horizontal {
		return n.Y
	}
	return n.X
}

// Axial returns the coordinate along which depth grows.
func (o Orientation) Axial(n *chart.Node) float64 {
	if o == Horizontal {
		return n.X
	}
	return n.Y
}

// Point maps a (lateral, axial) pair to (x, y).
func (o Orientation) Point(lateral, axial float64) (x, y float64) {
	if o == Horizontal {
		return axial, lateral
	}
	return lateral, axial
}

// ShiftSubtree moves n's visible subtree by lateral and axial offsets.
func (o Orientation) ShiftSubtree(n *chart.Node, lateral, axial float64) {
	if lateral == 0 && axial == 0 {
		return
	}
	dx, dy := o.Point(lateral, axial)
	n.Shift(dx, dy)
}

// Config holds the node geometry used by layout and the passes after it.
type Config struct {
	NodeWidth   float64
	NodeHeight  float64
	LevelHeight float64

	// SiblingGap is added to NodeWidth to get the lateral node size.
	SiblingGap float64

	Orientation Orientation

	// Separation returns the spacing factor between two adjacent nodes of
	// the same level. Nil means [DefaultSeparation].
	Separation func(a, b *chart.Node) float64
}

// Default geometry.
const (
	DefaultNodeWidth   = 220
	DefaultNodeHeight  = 80
	DefaultLevelHeight = 130
	DefaultSiblingGap  = 26
)

// DefaultConfig returns the standard vertical geometry.
func DefaultConfig() Config {
	return Config{
		NodeWidth:   DefaultNodeWidth,
		NodeHeight:  DefaultNodeHeight,
		LevelHeight: DefaultLevelHeight,
		SiblingGap:  DefaultSiblingGap,
		Orientation: Vertical,
	}
}

// DefaultSeparation keeps siblings at 1.0 and nodes of different parents at
// 1.2 lateral node sizes.
func DefaultSeparation(a, b *chart.Node) float64 {
	if a.Parent != nil && a.Parent == b.Parent {
		return 1.0
	}
	return 1.2
}

// NodeSize returns the lateral spacing unit and the level distance before
// the orientation swap, in the layout's own (lateral, axial) frame.
func (c Config) NodeSize() (lateral, axial float64) {
	if c.Orientation == Horizontal {
		return c.LevelHeight, c.NodeWidth + c.SiblingGap
	}
	return c.NodeWidth + c.SiblingGap, c.LevelHeight
}

// HalfExtent returns half of a node box along the lateral and axial axes.
func (c Config) HalfExtent() (lateral, axial float64) {
	if c.Orientation == Horizontal {
		return c.NodeHeight / 2, c.NodeWidth / 2
	}
	return c.NodeWidth / 2, c.NodeHeight / 2
}

func (c Config) separation() func(a, b *chart.Node) float64 {
	if c.Separation != nil {
		return c.Separation
	}
	return DefaultSeparation
}
