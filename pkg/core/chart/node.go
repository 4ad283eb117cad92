package chart

import "github.com/matzehuels/orgchart/pkg/org"

// Node is one employee in the layout tree.
type Node struct {
	Employee *org.Employee

	// X, Y is the current computed position. Under horizontal orientation
	// X holds the depth axis.
	X, Y float64

	// PrevX, PrevY is the position at the previous render.
	PrevX, PrevY float64

	// Depth is the distance from the root (root = 0).
	Depth int

	// Visible holds the children expanded into the visible tree.
	Visible []*Node

	// Stashed holds the children hidden by a collapse. At most one of
	// Visible and Stashed is non-empty.
	Stashed []*Node

	// Parent is nil for the root.
	Parent *Node

	placed bool
}

// ID returns the employee id.
func (n *Node) ID() string { return n.Employee.ID }

// Children returns the node's children regardless of collapse state.
func (n *Node) Children() []*Node {
	if len(n.Visible) > 0 {
		return n.Visible
	}
	return n.Stashed
}

// HasChildren reports whether the node has any children, visible or stashed.
func (n *Node) HasChildren() bool {
	return len(n.Visible) > 0 || len(n.Stashed) > 0
}

// Collapsed reports whether the node's children are stashed.
func (n *Node) Collapsed() bool { return len(n.Stashed) > 0 }

// Expanded reports whether the node shows its children.
func (n *Node) Expanded() bool { return len(n.Visible) > 0 }

// Placed reports whether the node has been positioned by a previous render.
// Nodes that were never placed have no meaningful previous position.
func (n *Node) Placed() bool { return n.placed }

// SavePosition records the current position as the previous one.
func (n *Node) SavePosition() {
	n.PrevX, n.PrevY = n.X, n.Y
	n.placed = true
}

// Shift moves the node and its whole visible subtree by (dx, dy).
func (n *Node) Shift(dx, dy float64) {
	n.X += dx
	n.Y += dy
	for _, c := range n.Visible {
		c.Shift(dx, dy)
	}
}

// VisibleCount returns the number of nodes in the visible subtree rooted at n.
func (n *Node) VisibleCount() int {
	count := 1
	for _, c := range n.Visible {
		count += c.VisibleCount()
	}
	return count
}

// Descendants returns the number of nodes below n in the full tree.
func (n *Node) Descendants() int {
	count := 0
	for _, c := range n.Children() {
		count += 1 + c.Descendants()
	}
	return count
}
