// Package links builds the connector paths between chart nodes.
//
// Two kinds exist. An elbow runs from the parent's edge to the midpoint
// between the levels, across, and into the child's edge. A bus serves all
// children of a wrapped parent at once: a trunk from the parent to the
// deepest row, one spine per row just before the row's node edges, and a
// drop from the spine to each child. Children reached by a bus get no elbow.
package links

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/compact"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
)

// SpineOffset is the distance between a bus spine and the node edges of
// its row.
const SpineOffset = 12

// Kind distinguishes connector styles.
type Kind int

const (
	Elbow Kind = iota
	Bus
)

func (k Kind) String() string {
	if k == Bus {
		return "bus"
	}
	return "elbow"
}

// Point is a position in chart coordinates.
type Point struct {
	X, Y float64
}

// Path is a set of polylines. Each polyline starts with a move.
type Path [][]Point

// D renders the path as SVG path data.
func (p Path) D() string {
	var b strings.Builder
	for _, line := range p {
		for i, pt := range line {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&b, "%s %s %s", cmd, num(pt.X), num(pt.Y))
		}
	}
	return b.String()
}

func num(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return strings.TrimRight(fmt.Sprintf("%.2f", v), "0")
}

// Link is one connector of the scene.
type Link struct {
	// ID is stable across renders: the child id for elbows, "bus:" plus the
	// parent id for buses.
	ID     string
	Kind   Kind
	Source string
	Target string
	Path   Path
}

// BusID returns the link id of the bus below parentID.
func BusID(parentID string) string { return "bus:" + parentID }

// ElbowPath returns the elbow between a parent centered at s and a child
// centered at d.
func ElbowPath(s, d Point, cfg layout.Config) Path {
	o := cfg.Orientation
	_, ha := cfg.HalfExtent()
	sl, sa := lateralAxial(o, s)
	dl, da := lateralAxial(o, d)
	mid := (sa + da) / 2
	return Path{{
		pt(o, sl, sa+ha),
		pt(o, sl, mid),
		pt(o, dl, mid),
		pt(o, dl, da-ha),
	}}
}

// BusPath returns the bus connecting parent to children. Children are
// grouped into rows by their rounded depth coordinate.
func BusPath(parent *chart.Node, children []*chart.Node, cfg layout.Config) Path {
	if len(children) == 0 {
		return nil
	}
	o := cfg.Orientation
	_, ha := cfg.HalfExtent()

	rows := map[float64][]*chart.Node{}
	for _, c := range children {
		key := math.Round(o.Axial(c))
		rows[key] = append(rows[key], c)
	}
	keys := make([]float64, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	spines := make([]float64, len(keys))
	deepest := math.Inf(-1)
	for i, k := range keys {
		edge := math.Inf(1)
		for _, c := range rows[k] {
			edge = math.Min(edge, o.Axial(c)-ha)
		}
		spines[i] = edge - SpineOffset
		deepest = math.Max(deepest, spines[i])
	}

	pl, pa := o.Lateral(parent), o.Axial(parent)
	path := Path{{pt(o, pl, pa+ha), pt(o, pl, deepest)}}
	for i, k := range keys {
		row := slices.Clone(rows[k])
		slices.SortFunc(row, func(a, b *chart.Node) int { return cmp.Compare(o.Lateral(a), o.Lateral(b)) })
		lo, hi := o.Lateral(row[0]), o.Lateral(row[len(row)-1])
		path = append(path, []Point{pt(o, lo, spines[i]), pt(o, hi, spines[i])})
		for _, c := range row {
			path = append(path, []Point{pt(o, o.Lateral(c), spines[i]), pt(o, o.Lateral(c), o.Axial(c)-ha)})
		}
	}
	return path
}

// Build returns the links of the visible tree: a bus for every wrapped
// parent and an elbow for every other parent-child pair, in depth-first
// order of their source.
func Build(t *chart.Tree, cfg layout.Config, res compact.Result) []Link {
	var out []Link
	t.WalkVisible(func(n *chart.Node) bool {
		if len(n.Visible) == 0 {
			return true
		}
		if res.Wrapped(n) {
			out = append(out, Link{
				ID:     BusID(n.ID()),
				Kind:   Bus,
				Source: n.ID(),
				Path:   BusPath(n, n.Visible, cfg),
			})
			return true
		}
		for _, c := range n.Visible {
			out = append(out, Link{
				ID:     c.ID(),
				Kind:   Elbow,
				Source: n.ID(),
				Target: c.ID(),
				Path:   ElbowPath(Point{n.X, n.Y}, Point{c.X, c.Y}, cfg),
			})
		}
		return true
	})
	return out
}

func lateralAxial(o layout.Orientation, p Point) (lateral, axial float64) {
	if o == layout.Horizontal {
		return p.Y, p.X
	}
	return p.X, p.Y
}

func pt(o layout.Orientation, lateral, axial float64) Point {
	x, y := o.Point(lateral, axial)
	return Point{X: x, Y: y}
}
