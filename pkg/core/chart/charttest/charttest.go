// Package charttest provides tree fixtures and generators for tests of the
// chart packages.
package charttest

import (
	"fmt"

	"pgregory.net/rapid"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/org"
)

// Fan returns a root with n direct reports named c0..c(n-1).
func Fan(n int) *org.Employee {
	root := &org.Employee{ID: "root", Name: "Root", Title: "CEO"}
	for i := 0; i < n; i++ {
		root.Children = append(root.Children, &org.Employee{
			ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Child %d", i), Title: "Engineer",
		})
	}
	return root
}

// Shape builds a hierarchy from a parent list: parents[i] is the index of
// employee i+1's manager and must be ≤ i. Employee 0 is the root.
func Shape(parents []int) *org.Employee {
	nodes := []*org.Employee{{ID: "n0", Name: "Node 0", Title: "Chief Executive Officer"}}
	for i, p := range parents {
		e := &org.Employee{ID: fmt.Sprintf("n%d", i+1), Name: fmt.Sprintf("Node %d", i+1), Title: "Staff"}
		nodes[p].Children = append(nodes[p].Children, e)
		nodes = append(nodes, e)
	}
	return nodes[0]
}

// Employees draws a random hierarchy with up to maxNodes employees.
// Fan-outs are skewed so that some parents get large sibling groups.
func Employees(maxNodes int) *rapid.Generator[*org.Employee] {
	return rapid.Custom(func(t *rapid.T) *org.Employee {
		n := rapid.IntRange(0, maxNodes-1).Draw(t, "size")
		parents := make([]int, n)
		for i := range parents {
			if rapid.IntRange(0, 3).Draw(t, "skew") == 0 {
				parents[i] = rapid.IntRange(0, i).Draw(t, "parent")
			} else {
				// Attach to a recent node to grow depth, or to node 0 to grow width.
				lo := i - 3
				if lo < 0 {
					lo = 0
				}
				parents[i] = rapid.SampledFrom([]int{0, rapid.IntRange(lo, i).Draw(t, "recent")}).Draw(t, "pick")
			}
		}
		return Shape(parents)
	})
}

// TB is the subset of testing.TB and *rapid.T the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// MustTree wraps chart.New and fails the test on error.
func MustTree(tb TB, root *org.Employee) *chart.Tree {
	tb.Helper()
	tree, err := chart.New(root)
	if err != nil {
		tb.Fatalf("chart.New: %v", err)
	}
	return tree
}

// IDs returns the ids of nodes in order.
func IDs(nodes []*chart.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}
