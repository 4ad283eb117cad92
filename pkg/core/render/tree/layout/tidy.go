package layout

import "github.com/matzehuels/orgchart/pkg/core/chart"

// Apply positions every visible node of t.
func Apply(t *chart.Tree, cfg Config) {
	if t == nil || t.Root == nil {
		return
	}
	sep := cfg.separation()
	lateral, axial := cfg.NodeSize()

	root := wrap(t.Root)
	// The sentinel parent lets the root go through the same walks as any
	// other node.
	sentinel := &walker{children: []*walker{root}}
	root.parent = sentinel

	firstWalk(root, sep)
	sentinel.m = -root.z
	secondWalk(root)

	place(root, t.Root.Depth, lateral, axial, cfg.Orientation)
}

// walker carries the per-node state of the tidy tree walks.
type walker struct {
	node     *chart.Node
	parent   *walker
	children []*walker
	index    int

	z float64 // preliminary lateral position
	m float64 // modifier applied to the subtree
	c float64 // change
	s float64 // shift
	t *walker // thread
	a *walker // ancestor
	A *walker // default ancestor of the children
}

func wrap(n *chart.Node) *walker {
	w := &walker{node: n}
	w.a = w
	if len(n.Visible) > 0 {
		w.children = make([]*walker, len(n.Visible))
		for i, c := range n.Visible {
			cw := wrap(c)
			cw.parent = w
			cw.index = i
			w.children[i] = cw
		}
	}
	return w
}

func firstWalk(v *walker, sep func(a, b *chart.Node) float64) {
	for _, c := range v.children {
		firstWalk(c, sep)
	}

	siblings := v.parent.children
	var w *walker
	if v.index > 0 {
		w = siblings[v.index-1]
	}

	if len(v.children) > 0 {
		executeShifts(v)
		midpoint := (v.children[0].z + v.children[len(v.children)-1].z) / 2
		if w != nil {
			v.z = w.z + sep(v.node, w.node)
			v.m = v.z - midpoint
		} else {
			v.z = midpoint
		}
	} else if w != nil {
		v.z = w.z + sep(v.node, w.node)
	}

	ancestor := v.parent.A
	if ancestor == nil {
		ancestor = siblings[0]
	}
	v.parent.A = apportion(v, w, ancestor, sep)
}

func secondWalk(v *walker) {
	v.node.X = v.z + v.parent.m
	v.m += v.parent.m
	for _, c := range v.children {
		secondWalk(c)
	}
}

func apportion(v, w, ancestor *walker, sep func(a, b *chart.Node) float64) *walker {
	if w == nil {
		return ancestor
	}
	vip, vop := v, v
	vim, vom := w, v.parent.children[0]
	sip, sop := vip.m, vop.m
	sim, som := vim.m, vom.m

	for {
		vim, vip = nextRight(vim), nextLeft(vip)
		if vim == nil || vip == nil {
			break
		}
		vom = nextLeft(vom)
		vop = nextRight(vop)
		vop.a = v
		shift := vim.z + sim - vip.z - sip + sep(vim.node, vip.node)
		if shift > 0 {
			moveSubtree(nextAncestor(vim, v, ancestor), v, shift)
			sip += shift
			sop += shift
		}
		sim += vim.m
		sip += vip.m
		som += vom.m
		sop += vop.m
	}

	if vim != nil && nextRight(vop) == nil {
		vop.t = vim
		vop.m += sim - sop
	}
	if vip != nil && nextLeft(vom) == nil {
		vom.t = vip
		vom.m += sip - som
		ancestor = v
	}
	return ancestor
}

func nextLeft(v *walker) *walker {
	if len(v.children) > 0 {
		return v.children[0]
	}
	return v.t
}

func nextRight(v *walker) *walker {
	if len(v.children) > 0 {
		return v.children[len(v.children)-1]
	}
	return v.t
}

func moveSubtree(wm, wp *walker, shift float64) {
	change := shift / float64(wp.index-wm.index)
	wp.c -= change
	wp.s += shift
	wm.c += change
	wp.z += shift
	wp.m += shift
}

func executeShifts(v *walker) {
	var shift, change float64
	for i := len(v.children) - 1; i >= 0; i-- {
		w := v.children[i]
		w.z += shift
		w.m += shift
		change += w.c
		shift += w.s + change
	}
}

func nextAncestor(vim, v, ancestor *walker) *walker {
	if vim.a.parent == v.parent {
		return vim.a
	}
	return ancestor
}

// place scales the unit-spaced lateral positions and assigns depth
// coordinates relative to the layout root, then applies the orientation swap.
func place(v *walker, rootDepth int, lateral, axial float64, o Orientation) {
	n := v.node
	n.X, n.Y = o.Point(n.X*lateral, float64(n.Depth-rootDepth)*axial)
	for _, c := range v.children {
		place(c, rootDepth, lateral, axial, o)
	}
}
