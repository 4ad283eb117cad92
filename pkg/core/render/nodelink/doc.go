// Package nodelink renders the org chart as a Graphviz graph.
//
// Where the tree renderer computes positions itself, nodelink hands the
// hierarchy to Graphviz, which does layout and drawing in one step:
//
//	Tree:     chart.Tree → tree.Build() → Scene → export → SVG
//	Nodelink: chart.Tree → ToDOT() → DOT → RenderSVG() → SVG
//
// The DOT text is also an export format of its own, for users who want to
// post-process the chart with Graphviz tooling.
//
// # Usage
//
//	dot := nodelink.ToDOT(t, nodelink.Options{Palette: palette})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Nodes are filled with the palette color of their level, so the graph
// matches the interactive chart. Collapsed subtrees are left out unless
// Options.Full is set.
package nodelink
