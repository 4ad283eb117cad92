// Package layout positions the visible part of a chart tree.
//
// # Overview
//
// [Apply] runs a tidy tree layout (Walker's algorithm with Buchheim's
// linear-time improvements) over the nodes reachable through
// [chart.Node.Visible] and writes the result into each node's X and Y.
// The root lands at the origin; everything else is placed relative to it.
//
// # Spacing
//
// Adjacent nodes in a level are spaced separation × lateral node size apart,
// where the lateral node size is NodeWidth+SiblingGap in vertical
// orientation. [DefaultSeparation] returns 1.0 for siblings and 1.2 for
// nodes with different parents, so cousins keep a wider gap than siblings.
// Levels are LevelHeight apart.
//
// # Orientation
//
// Horizontal orientation is not a separate algorithm: the tree is laid out
// with the node size axes exchanged and x/y are swapped afterwards. Use
// [Orientation.Lateral] and [Orientation.Axial] to read coordinates without
// caring about the orientation.
//
// # Determinism
//
// The result depends only on the visible tree's shape and child order.
// Collapse state, hidden subtrees and employee data do not influence it.
//
// [chart.Node.Visible]: github.com/matzehuels/orgchart/pkg/core/chart.Node
package layout
