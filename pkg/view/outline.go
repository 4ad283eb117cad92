package view

import (
	"github.com/matzehuels/orgchart/pkg/core/chart"
)

// Row is one visible employee in depth-first order, for list views.
type Row struct {
	ID         string
	Name       string
	Title      string
	Department string
	Depth      int

	// Reports is the number of direct reports, shown or not.
	Reports     int
	Collapsed   bool
	Hidden      bool
	Highlighted bool
	New         bool
}

// Rows returns the visible employees in depth-first order.
func (c *Controller) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tree == nil {
		return nil
	}
	var rows []Row
	c.tree.WalkVisible(func(n *chart.Node) bool {
		e := n.Employee
		rows = append(rows, Row{
			ID:          n.ID(),
			Name:        e.Name,
			Title:       e.Title,
			Department:  e.Department,
			Depth:       n.Depth,
			Reports:     len(e.Children),
			Collapsed:   n.Collapsed(),
			Hidden:      c.overlay.IsHidden(c.tree, n.ID()),
			Highlighted: n.ID() == c.highlight,
			New:         e.IsNewEmployee,
		})
		return true
	})
	return rows
}
