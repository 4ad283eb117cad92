package pipeline

import (
	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/chart/collapse"
	"github.com/matzehuels/orgchart/pkg/org"
)

// Layout wraps the hierarchy in a layout tree and applies the initial
// collapse state. A full chart starts fully expanded.
func Layout(h *org.Hierarchy, opts Options) (*chart.Tree, error) {
	t, err := chart.New(h.Root)
	if err != nil {
		return nil, err
	}
	if opts.FullChart {
		collapse.ExpandAll(t)
	} else {
		collapse.ApplyInitial(t, opts.CollapseLevel)
	}
	return t, nil
}
