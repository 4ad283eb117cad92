// Package compact wraps large sibling groups into multi-row grids.
//
// The layout engine places all children of a parent in one row, which
// grows without bound for large teams. [Apply] post-processes the positions:
//
//  1. Every parent with at least Threshold visible children gets a
//     near-square grid. Slots follow the children's left-to-right order
//     from the layout.
//  2. Grid parents and their ancestors are then placed deepest first. A
//     grid parent packs each row's subtrees edge to edge with Gap between
//     them, centered under itself, and starts each row one level below the
//     deepest node of the row before. Any other ancestor packs its child
//     subtrees the same way in a single row and is recentered over them.
//
// Placement repeats until nothing moves (bounded by MaxIterations). Each
// child's whole visible subtree moves with it, so no two node boxes
// overlap. Compaction only moves positions; it never changes structure,
// collapse state, or the visible set.
package compact

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
)

// Defaults.
const (
	DefaultThreshold     = 20
	DefaultGap           = 36
	DefaultMaxIterations = 8

	// minShift is the smallest recentering move that is applied.
	minShift = 0.1
)

// Options controls compaction.
type Options struct {
	Enabled bool

	// Threshold is the visible child count at which a parent is wrapped.
	// Zero or negative disables compaction.
	Threshold int

	// Gap is the edge-to-edge distance between packed subtrees, and the
	// extra space between grid columns.
	Gap float64

	// MaxIterations bounds the placement rounds.
	MaxIterations int
}

// DefaultOptions returns compaction enabled with the standard threshold.
func DefaultOptions() Options {
	return Options{
		Enabled:       true,
		Threshold:     DefaultThreshold,
		Gap:           DefaultGap,
		MaxIterations: DefaultMaxIterations,
	}
}

// Active reports whether the options lead to any work.
func (o Options) Active() bool { return o.Enabled && o.Threshold > 0 }

// Slot is a grid cell.
type Slot struct {
	Row, Col int
}

// Grid describes one wrapped sibling group.
type Grid struct {
	Rows, Cols int

	// Children are in slot order: child i sits in [Grid.Slot](i).
	Children []*chart.Node
}

// Slot returns the cell of the i-th child.
func (g *Grid) Slot(i int) Slot { return Slot{Row: i / g.Cols, Col: i % g.Cols} }

// RowSize returns the number of children in row.
func (g *Grid) RowSize(row int) int {
	if row < g.Rows-1 {
		return g.Cols
	}
	if n := len(g.Children) - (g.Rows-1)*g.Cols; n > 0 {
		return n
	}
	return g.Cols
}

// Row returns the children of one row in column order.
func (g *Grid) Row(row int) []*chart.Node {
	start := row * g.Cols
	end := min(start+g.Cols, len(g.Children))
	if start >= end {
		return nil
	}
	return g.Children[start:end]
}

// Dimensions returns the grid shape for n children: a near-square number
// of columns, refined so the last row is as full as possible.
func Dimensions(n int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = int(math.Ceil(float64(n) / float64(cols)))
	cols = int(math.Ceil(float64(n) / float64(rows)))
	return rows, cols
}

// Result describes what compaction did.
type Result struct {
	// Groups maps a wrapped parent's id to its grid.
	Groups map[string]*Grid

	// Iterations is the number of placement rounds that ran.
	Iterations int
}

// Wrapped reports whether n's children were placed in a grid.
func (r Result) Wrapped(n *chart.Node) bool {
	return n != nil && r.Groups[n.ID()] != nil
}

// InGroup reports whether n is a child of a wrapped parent.
func (r Result) InGroup(n *chart.Node) bool {
	return n != nil && n.Parent != nil && r.Wrapped(n.Parent)
}

// Apply compacts the visible tree of t in place. It must run after
// [layout.Apply] with the same cfg.
func Apply(t *chart.Tree, cfg layout.Config, opts Options) Result {
	res := Result{Groups: map[string]*Grid{}}
	if t == nil || t.Root == nil || !opts.Active() {
		return res
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	c := &compactor{cfg: cfg, opts: opts, res: res}
	c.halfLat, _ = cfg.HalfExtent()
	_, c.rowStep = cfg.NodeSize()

	order := breadthFirst(t.Root)
	for _, p := range order {
		if len(p.Visible) >= opts.Threshold {
			c.wrap(p)
		}
	}
	if len(c.res.Groups) == 0 {
		return c.res
	}

	targets := c.targets(order)
	for c.res.Iterations < opts.MaxIterations {
		c.res.Iterations++
		if moved := c.placeAll(targets); moved <= minShift {
			break
		}
	}
	return c.res
}

type compactor struct {
	cfg  layout.Config
	opts Options
	res  Result

	halfLat float64 // half a node box along the lateral axis
	rowStep float64 // axial distance from a row's deepest node to the next row
}

// wrap assigns p's children to grid slots in their current lateral order.
func (c *compactor) wrap(p *chart.Node) {
	o := c.cfg.Orientation
	kids := slices.Clone(p.Visible)
	slices.SortStableFunc(kids, func(a, b *chart.Node) int {
		return cmp.Compare(o.Lateral(a), o.Lateral(b))
	})
	rows, cols := Dimensions(len(kids))
	c.res.Groups[p.ID()] = &Grid{Rows: rows, Cols: cols, Children: kids}
}

// targets returns the grid parents and all their ancestors, deepest first,
// ties in breadth-first order.
func (c *compactor) targets(order []*chart.Node) []*chart.Node {
	set := map[*chart.Node]bool{}
	for _, p := range order {
		if c.res.Wrapped(p) {
			for a := p; a != nil && !set[a]; a = a.Parent {
				set[a] = true
			}
		}
	}
	var out []*chart.Node
	for _, n := range order {
		if set[n] {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b *chart.Node) int { return b.Depth - a.Depth })
	return out
}

// placeAll runs one placement round and returns the largest move.
func (c *compactor) placeAll(targets []*chart.Node) float64 {
	var moved float64
	for _, n := range targets {
		if g := c.res.Groups[n.ID()]; g != nil {
			moved = math.Max(moved, c.placeGrid(n, g))
			continue
		}
		if len(n.Visible) < 2 {
			continue
		}
		moved = math.Max(moved, c.pack(n, n.Visible, false))
		moved = math.Max(moved, c.recenter(n))
	}
	return moved
}

// placeGrid stacks the rows of g below p. Each row starts rowStep below
// the deepest node of the previous one.
func (c *compactor) placeGrid(p *chart.Node, g *Grid) float64 {
	o := c.cfg.Orientation
	var moved float64
	ax := o.Axial(p) + c.rowStep
	for r := 0; r < g.Rows; r++ {
		var reach float64
		for _, k := range g.Row(r) {
			d := ax - o.Axial(k)
			o.ShiftSubtree(k, 0, d)
			moved = math.Max(moved, math.Abs(d))
			reach = math.Max(reach, c.reach(k))
		}
		moved = math.Max(moved, c.pack(p, g.Row(r), true))
		ax += reach + c.rowStep
	}
	return moved
}

type interval struct {
	node   *chart.Node
	width  float64
	center float64
}

// pack places the subtrees of kids edge to edge centered on parent. Unless
// keepOrder is set, subtrees are ordered by their current center.
func (c *compactor) pack(parent *chart.Node, kids []*chart.Node, keepOrder bool) float64 {
	if len(kids) == 0 {
		return 0
	}
	o := c.cfg.Orientation
	items := make([]interval, len(kids))
	total := c.opts.Gap * float64(len(kids)-1)
	for i, k := range kids {
		lo, hi := c.span(k)
		items[i] = interval{node: k, width: math.Max(hi-lo, 2*c.halfLat), center: (lo + hi) / 2}
		total += items[i].width
	}
	if !keepOrder {
		slices.SortStableFunc(items, func(a, b interval) int { return cmp.Compare(a.center, b.center) })
	}

	var moved float64
	cursor := o.Lateral(parent) - total/2
	for _, it := range items {
		delta := cursor + it.width/2 - it.center
		o.ShiftSubtree(it.node, delta, 0)
		moved = math.Max(moved, math.Abs(delta))
		cursor += it.width + c.opts.Gap
	}
	return moved
}

// recenter moves parent's subtree so parent sits over its children.
func (c *compactor) recenter(parent *chart.Node) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, k := range parent.Visible {
		l, h := c.span(k)
		lo, hi = math.Min(lo, l), math.Max(hi, h)
	}
	o := c.cfg.Orientation
	delta := (lo+hi)/2 - o.Lateral(parent)
	if math.Abs(delta) <= minShift {
		return 0
	}
	o.ShiftSubtree(parent, delta, 0)
	return math.Abs(delta)
}

// reach returns how far n's visible subtree extends past n along the
// axial direction.
func (c *compactor) reach(n *chart.Node) float64 {
	r := chart.Centers(n)
	if c.cfg.Orientation == layout.Horizontal {
		return r.MaxX - n.X
	}
	return r.MaxY - n.Y
}

// span returns the lateral extent of n's visible subtree including node boxes.
func (c *compactor) span(n *chart.Node) (lo, hi float64) {
	r := chart.Centers(n)
	if c.cfg.Orientation == layout.Horizontal {
		return r.MinY - c.halfLat, r.MaxY + c.halfLat
	}
	return r.MinX - c.halfLat, r.MaxX + c.halfLat
}

func breadthFirst(root *chart.Node) []*chart.Node {
	out := []*chart.Node{root}
	for i := 0; i < len(out); i++ {
		out = append(out, out[i].Visible...)
	}
	return out
}
