package layout

import (
	"math"
	"sort"
	"testing"

	"pgregory.net/rapid"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/chart/charttest"
	"github.com/matzehuels/orgchart/pkg/core/chart/collapse"
)

const eps = 1e-6

func TestApplyThreeChildren(t *testing.T) {
	tree := charttest.MustTree(t, charttest.Fan(3))
	Apply(tree, DefaultConfig())

	if tree.Root.X != 0 || tree.Root.Y != 0 {
		t.Errorf("root at (%v,%v), want origin", tree.Root.X, tree.Root.Y)
	}
	step := float64(DefaultNodeWidth + DefaultSiblingGap)
	for i, want := range []float64{-step, 0, step} {
		c := tree.Root.Visible[i]
		if math.Abs(c.X-want) > eps || c.Y != DefaultLevelHeight {
			t.Errorf("child %d at (%v,%v), want (%v,%v)", i, c.X, c.Y, want, DefaultLevelHeight)
		}
	}
}

func TestApplyHorizontal(t *testing.T) {
	tree := charttest.MustTree(t, charttest.Fan(2))
	cfg := DefaultConfig()
	cfg.Orientation = Horizontal
	Apply(tree, cfg)

	a, b := tree.Root.Visible[0], tree.Root.Visible[1]
	if a.X != DefaultNodeWidth+DefaultSiblingGap || b.X != a.X {
		t.Errorf("children depth coordinate = %v, %v", a.X, b.X)
	}
	if math.Abs((b.Y-a.Y)-DefaultLevelHeight) > eps {
		t.Errorf("lateral gap = %v, want %v", b.Y-a.Y, DefaultLevelHeight)
	}
	if Horizontal.Lateral(a) != a.Y || Horizontal.Axial(a) != a.X {
		t.Error("horizontal accessors swapped wrong")
	}
}

func TestApplyCousinSeparation(t *testing.T) {
	// n0 → {n1 → n3, n2 → n4}: n3 and n4 are cousins.
	tree := charttest.MustTree(t, charttest.Shape([]int{0, 0, 1, 2}))
	Apply(tree, DefaultConfig())
	gap := tree.Find("n4").X - tree.Find("n3").X
	want := 1.2 * (DefaultNodeWidth + DefaultSiblingGap)
	if math.Abs(gap-want) > eps {
		t.Errorf("cousin gap = %v, want %v", gap, want)
	}
}

func TestApplyIgnoresCollapsedChildren(t *testing.T) {
	tree := charttest.MustTree(t, charttest.Shape([]int{0, 0, 1, 1, 1}))
	collapse.Collapse(tree.Find("n1"))
	Apply(tree, DefaultConfig())
	if d := tree.Find("n2").X - tree.Find("n1").X; math.Abs(d-(DefaultNodeWidth+DefaultSiblingGap)) > eps {
		t.Errorf("collapsed subtree still takes space: gap %v", d)
	}
}

func TestOrientationHelpers(t *testing.T) {
	if ParseOrientation("Horizontal") != Horizontal || ParseOrientation("x") != Vertical {
		t.Error("ParseOrientation mismatch")
	}
	if Horizontal.String() != "horizontal" || Vertical.String() != "vertical" {
		t.Error("String mismatch")
	}
	n := &chart.Node{}
	Horizontal.ShiftSubtree(n, 3, 5)
	if n.X != 5 || n.Y != 3 {
		t.Errorf("ShiftSubtree = (%v,%v), want (5,3)", n.X, n.Y)
	}
}

func levels(tree *chart.Tree) map[int][]*chart.Node {
	out := map[int][]*chart.Node{}
	tree.WalkVisible(func(n *chart.Node) bool {
		out[n.Depth] = append(out[n.Depth], n)
		return true
	})
	return out
}

func TestLayoutProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tree := charttest.MustTree(rt, charttest.Employees(80).Draw(rt, "tree"))
		if rapid.Bool().Draw(rt, "collapse") {
			collapse.ApplyInitial(tree, rapid.SampledFrom([]string{"2", "3", "4"}).Draw(rt, "level"))
		}
		cfg := DefaultConfig()
		if rapid.Bool().Draw(rt, "horizontal") {
			cfg.Orientation = Horizontal
		}
		o := cfg.Orientation
		unit, axial := cfg.NodeSize()

		Apply(tree, cfg)

		if tree.Root.X != 0 || tree.Root.Y != 0 {
			rt.Fatalf("root at (%v,%v)", tree.Root.X, tree.Root.Y)
		}
		for depth, row := range levels(tree) {
			sort.SliceStable(row, func(i, j int) bool { return o.Lateral(row[i]) < o.Lateral(row[j]) })
			for i, n := range row {
				if math.Abs(o.Axial(n)-float64(depth)*axial) > eps {
					rt.Fatalf("%s axial %v, want %v", n.ID(), o.Axial(n), float64(depth)*axial)
				}
				if i == 0 {
					continue
				}
				prev := row[i-1]
				gap := o.Lateral(n) - o.Lateral(prev)
				if want := DefaultSeparation(prev, n) * unit; gap < want-eps {
					rt.Fatalf("%s and %s are %v apart, want ≥ %v", prev.ID(), n.ID(), gap, want)
				}
			}
		}

		tree.WalkVisible(func(n *chart.Node) bool {
			kids := n.Visible
			for i := 1; i < len(kids); i++ {
				if o.Lateral(kids[i]) <= o.Lateral(kids[i-1]) {
					rt.Fatalf("children of %s out of order", n.ID())
				}
			}
			if len(kids) > 0 {
				mid := (o.Lateral(kids[0]) + o.Lateral(kids[len(kids)-1])) / 2
				if math.Abs(mid-o.Lateral(n)) > eps {
					rt.Fatalf("%s not centered over its children", n.ID())
				}
			}
			return true
		})

		before := make(map[string][2]float64)
		tree.WalkVisible(func(n *chart.Node) bool { before[n.ID()] = [2]float64{n.X, n.Y}; return true })
		Apply(tree, cfg)
		tree.WalkVisible(func(n *chart.Node) bool {
			if p := before[n.ID()]; p[0] != n.X || p[1] != n.Y {
				rt.Fatalf("%s moved on second layout", n.ID())
			}
			return true
		})
	})
}
