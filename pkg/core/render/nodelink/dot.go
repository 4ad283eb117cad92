package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/styles"
)

// Options configures the DOT output.
type Options struct {
	// Orientation selects the rank direction: top-to-bottom for vertical,
	// left-to-right for horizontal.
	Orientation layout.Orientation

	// Palette fills nodes by level. A nil palette uses the default colors.
	Palette styles.Palette

	// Full includes collapsed subtrees.
	Full bool

	// Detailed adds department and email lines to node labels.
	Detailed bool
}

// ToDOT converts the tree to Graphviz DOT format.
// The result can be rendered with [RenderSVG], [RenderPDF] or [RenderPNG].
func ToDOT(t *chart.Tree, opts Options) string {
	palette := opts.Palette
	if palette == nil {
		palette = styles.Palette(styles.DefaultNodeColors)
	}
	rankdir := "TB"
	if opts.Orientation == layout.Horizontal {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Arial\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none, color=\"#999999\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	nodes := visit(t, opts.Full)
	for _, n := range nodes {
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
			fmt.Sprintf("fillcolor=%q", palette.Fill(n.Depth)),
			fmt.Sprintf("color=%q", palette.Stroke(n.Depth)),
		}
		if n.Employee.IsNewEmployee {
			attrs = append(attrs, "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		for _, c := range children(n, opts.Full) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.ID(), c.ID())
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func visit(t *chart.Tree, full bool) []*chart.Node {
	if t == nil || t.Root == nil {
		return nil
	}
	if full {
		return t.Flatten()
	}
	return t.VisibleNodes()
}

func children(n *chart.Node, full bool) []*chart.Node {
	if full {
		return n.Children()
	}
	return n.Visible
}

func fmtLabel(n *chart.Node, detailed bool) string {
	e := n.Employee
	lines := []string{e.Name}
	if e.Title != "" {
		lines = append(lines, e.Title)
	}
	if detailed {
		lines = append(lines, styles.Department(e.Department))
		if e.Email != "" {
			lines = append(lines, e.Email)
		}
	}
	return strings.Join(lines, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element, which carries pt
// units and a transform-dependent origin, with a plain pixel viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
