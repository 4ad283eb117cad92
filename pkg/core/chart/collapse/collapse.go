// Package collapse implements the expand/collapse state machine of a chart
// tree.
//
// Each node is either expanded (children in Visible) or collapsed (children
// in Stashed). Transitions move the child list between the two fields and
// never touch positions, the employee records, or the hidden overlay.
// Every operation tolerates nil and unknown input as a no-op.
package collapse

import (
	"strconv"
	"strings"

	"github.com/matzehuels/orgchart/pkg/core/chart"
)

const (
	// LevelAll expands the whole tree on load.
	LevelAll = "all"

	// DefaultLevel is used when the configured level is missing or invalid.
	DefaultLevel = "2"

	// RecollapseDepth is the depth at or below which children restored by
	// an expand are collapsed again when they have children of their own.
	RecollapseDepth = 2
)

// Collapse stashes n's visible children. It reports whether n changed.
func Collapse(n *chart.Node) bool {
	if n == nil || len(n.Visible) == 0 {
		return false
	}
	n.Stashed, n.Visible = n.Visible, nil
	return true
}

// Expand restores n's stashed children. Restored children at depth
// recollapseDepth or deeper that have visible children are collapsed, so a
// re-expanded subtree opens one level at a time. A recollapseDepth of 0 or
// less disables that step. Expand reports whether n changed.
func Expand(n *chart.Node, recollapseDepth int) bool {
	if n == nil || len(n.Stashed) == 0 {
		return false
	}
	n.Visible, n.Stashed = n.Stashed, nil
	if recollapseDepth > 0 {
		for _, c := range n.Visible {
			if c.Depth >= recollapseDepth {
				Collapse(c)
			}
		}
	}
	return true
}

// Toggle flips n between expanded and collapsed. Leaves are left alone.
// It reports whether n changed.
func Toggle(n *chart.Node) bool {
	if n == nil {
		return false
	}
	if n.Expanded() {
		return Collapse(n)
	}
	return Expand(n, RecollapseDepth)
}

// ParseLevel interprets a collapse level setting. It returns 0 for
// [LevelAll] and falls back to [DefaultLevel] for anything that is not a
// positive integer.
func ParseLevel(level string) int {
	level = strings.TrimSpace(strings.ToLower(level))
	if level == LevelAll {
		return 0
	}
	if v, err := strconv.Atoi(level); err == nil && v > 0 {
		return v
	}
	v, _ := strconv.Atoi(DefaultLevel)
	return v
}

// ApplyInitial sets the load-time state: the tree is fully expanded, then
// every visible node at depth level-1 or deeper that has children is
// collapsed. Nodes below a collapsed node keep their expanded state, so
// expanding it later shows them as they were.
func ApplyInitial(t *chart.Tree, level string) {
	if t == nil || t.Root == nil {
		return
	}
	ExpandAll(t)
	l := ParseLevel(level)
	if l == 0 {
		return
	}
	t.WalkVisible(func(n *chart.Node) bool {
		if n.Depth >= l-1 {
			Collapse(n)
			return false
		}
		return true
	})
}

// ExpandAll expands every node of the tree.
func ExpandAll(t *chart.Tree) {
	t.Walk(func(n *chart.Node) bool {
		Expand(n, 0)
		return true
	})
}

// CollapseAll collapses every visible node except the root.
func CollapseAll(t *chart.Tree) {
	if t == nil || t.Root == nil {
		return
	}
	Expand(t.Root, 0)
	for _, c := range t.Root.Visible {
		Collapse(c)
	}
}

// Reveal expands every ancestor of id so the node becomes part of the
// visible tree, and returns it. An unknown id is a no-op returning nil.
func Reveal(t *chart.Tree, id string) *chart.Node {
	path := t.Path(id)
	if len(path) == 0 {
		return nil
	}
	for _, n := range path[:len(path)-1] {
		Expand(n, 0)
	}
	return path[len(path)-1]
}

// IsVisible reports whether id is part of the visible tree.
func IsVisible(t *chart.Tree, id string) bool {
	path := t.Path(id)
	if len(path) == 0 {
		return false
	}
	for _, n := range path[:len(path)-1] {
		if !n.Expanded() {
			return false
		}
	}
	return true
}
