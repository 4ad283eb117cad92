package chart

import (
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
)

// Tree is the layout tree of one chart view.
type Tree struct {
	Root *Node

	index map[string]*Node
	paths map[string][]*Node
}

// New wraps the hierarchy rooted at root. Every node starts expanded.
//
// New returns ErrCodeNoRoot for a nil root and ErrCodeInvalidTree when an
// id is empty or repeated anywhere in the hierarchy.
func New(root *org.Employee) (*Tree, error) {
	if root == nil {
		return nil, orgerr.New(orgerr.ErrCodeNoRoot, "employee tree has no root")
	}
	t := &Tree{
		index: make(map[string]*Node),
		paths: make(map[string][]*Node),
	}
	r, err := t.build(root, nil, 0, nil)
	if err != nil {
		return nil, err
	}
	t.Root = r
	return t, nil
}

func (t *Tree) build(e *org.Employee, parent *Node, depth int, path []*Node) (*Node, error) {
	if e.ID == "" {
		return nil, orgerr.New(orgerr.ErrCodeInvalidTree, "employee %q has no id", e.Name)
	}
	if _, dup := t.index[e.ID]; dup {
		return nil, orgerr.New(orgerr.ErrCodeInvalidTree, "duplicate employee id %q", e.ID)
	}

	n := &Node{Employee: e, Depth: depth, Parent: parent}
	t.index[e.ID] = n

	own := make([]*Node, len(path)+1)
	copy(own, path)
	own[len(path)] = n
	t.paths[e.ID] = own

	if len(e.Children) > 0 {
		n.Visible = make([]*Node, 0, len(e.Children))
		for _, c := range e.Children {
			if c == nil {
				continue
			}
			child, err := t.build(c, n, depth+1, own)
			if err != nil {
				return nil, err
			}
			n.Visible = append(n.Visible, child)
		}
	}
	return n, nil
}

// Len returns the number of nodes in the full tree.
func (t *Tree) Len() int { return len(t.index) }

// Find returns the node with the given id, or nil.
func (t *Tree) Find(id string) *Node {
	if t == nil {
		return nil
	}
	return t.index[id]
}

// Path returns the nodes from the root to id inclusive, or nil for an
// unknown id. The returned slice must not be modified.
func (t *Tree) Path(id string) []*Node {
	if t == nil {
		return nil
	}
	return t.paths[id]
}

// Walk visits every node of the full tree depth-first, including stashed
// children. Returning false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(*Node) bool) {
	var visit func(*Node)
	visit = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.Children() {
			visit(c)
		}
	}
	if t != nil && t.Root != nil {
		visit(t.Root)
	}
}

// WalkVisible visits the visible tree depth-first.
func (t *Tree) WalkVisible(fn func(*Node) bool) {
	var visit func(*Node)
	visit = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.Visible {
			visit(c)
		}
	}
	if t != nil && t.Root != nil {
		visit(t.Root)
	}
}

// Flatten returns every node of the full tree in depth-first order.
func (t *Tree) Flatten() []*Node {
	out := make([]*Node, 0, t.Len())
	t.Walk(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// VisibleNodes returns the visible tree in depth-first order.
func (t *Tree) VisibleNodes() []*Node {
	var out []*Node
	t.WalkVisible(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// SavePositions records every visible node's current position as its
// previous one. Call it after a render has been committed.
func (t *Tree) SavePositions() {
	t.WalkVisible(func(n *Node) bool {
		n.SavePosition()
		return true
	})
}

// Bounds returns the bounding box of the visible tree with nodes drawn as
// w×h boxes.
func (t *Tree) Bounds(w, h float64) Rect {
	if t == nil || t.Root == nil {
		return EmptyRect()
	}
	return Bounds(t.Root, w, h)
}

// Prune returns an independent copy of the tree for off-screen rendering.
// With full set, stashed children are included; otherwise only the visible
// tree is copied. Nodes for which keep returns false are dropped together
// with their subtrees; a dropped root yields nil. Every node of the copy is
// expanded and has no previous position.
func (t *Tree) Prune(full bool, keep func(*Node) bool) *Tree {
	if t == nil || t.Root == nil {
		return nil
	}
	out := &Tree{
		index: make(map[string]*Node),
		paths: make(map[string][]*Node),
	}
	var copyNode func(src, parent *Node, path []*Node) *Node
	copyNode = func(src, parent *Node, path []*Node) *Node {
		if keep != nil && !keep(src) {
			return nil
		}
		n := &Node{Employee: src.Employee, Depth: src.Depth, Parent: parent}
		own := append(append(make([]*Node, 0, len(path)+1), path...), n)
		out.index[n.ID()] = n
		out.paths[n.ID()] = own

		children := src.Visible
		if full {
			children = src.Children()
		}
		for _, c := range children {
			if cc := copyNode(c, n, own); cc != nil {
				n.Visible = append(n.Visible, cc)
			}
		}
		return n
	}
	out.Root = copyNode(t.Root, nil, nil)
	if out.Root == nil {
		return nil
	}
	return out
}
