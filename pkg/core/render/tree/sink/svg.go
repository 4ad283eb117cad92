package sink

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	svg "github.com/ajstarks/svgo/float"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/tree"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/styles"
)

const chartCSS = `
    .link { fill: none; stroke: #999; stroke-width: 2px; }
    .node-rect { rx: 4; ry: 4; }
    .node-text { font-size: 14px; fill: #333; font-weight: 600; }
    .node-title { font-size: 11px; fill: #555; }
    .node-department { font-size: 9px; fill: #666; font-style: italic; }
    .hidden-subtree { opacity: 0.35; }
    .search-highlight { stroke: #ff9800 !important; stroke-width: 4px !important; }
    .new-badge { fill: #28a745; }
    .new-badge-text { fill: white; font-size: 10px; font-weight: bold; }
    .expand-btn { fill: white; stroke: #0078d4; stroke-width: 2px; }
    .expand-text { fill: #0078d4; font-size: 14px; font-weight: bold; }
    .hide-toggle { font-size: 12px; cursor: pointer; }
    .avatar-fallback { fill: #c8c8c8; }
    .avatar-initials { fill: white; font-size: 12px; font-weight: bold; }`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	padding     float64
	background  string
	images      map[string]string
	defaultIcon string
	controls    bool
	titleLines  int
}

// WithPadding adds space around the chart bounds.
func WithPadding(p float64) SVGOption { return func(r *svgRenderer) { r.padding = p } }

// WithBackground sets the background fill.
func WithBackground(fill string) SVGOption { return func(r *svgRenderer) { r.background = fill } }

// WithImages supplies photo hrefs by employee id. Employees without an
// entry use icon; an empty icon draws initials instead.
func WithImages(images map[string]string, icon string) SVGOption {
	return func(r *svgRenderer) { r.images, r.defaultIcon = images, icon }
}

// WithControls draws expand buttons and hide toggles.
func WithControls() SVGOption { return func(r *svgRenderer) { r.controls = true } }

// WithTitleLines wraps job titles over at most n lines.
func WithTitleLines(n int) SVGOption { return func(r *svgRenderer) { r.titleLines = n } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{background: "white", titleLines: 1}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// ViewBox returns the area of the scene an SVG covers with padding.
func ViewBox(s *tree.Scene, padding float64) chart.Rect {
	b := s.Bounds
	if b.Empty() {
		b = chart.Rect{MinX: -s.Config.NodeWidth / 2, MinY: -s.Config.NodeHeight / 2, MaxX: s.Config.NodeWidth / 2, MaxY: s.Config.NodeHeight / 2}
	}
	return b.Pad(padding, padding)
}

// RenderSVG renders the scene as a standalone SVG document.
func RenderSVG(s *tree.Scene, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	vb := ViewBox(s, r.padding)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startraw(
		fmt.Sprintf(`width="%s" height="%s"`, num(vb.Width()), num(vb.Height())),
		fmt.Sprintf(`viewBox="%s %s %s %s"`, num(vb.MinX), num(vb.MinY), num(vb.Width()), num(vb.Height())),
		`style="font-family: Arial, sans-serif"`,
	)
	canvas.Style("text/css", chartCSS)

	if r.avatars(s) {
		canvas.Def()
		for _, el := range s.Elements {
			if a := el.Style.Avatar; a != nil {
				canvas.ClipPath(fmt.Sprintf(`id="%s"`, clipID(el.ID)))
				canvas.Circle(a.Clip.CX, a.Clip.CY, a.Clip.R)
				canvas.ClipEnd()
			}
		}
		canvas.DefEnd()
	}

	if r.background != "" && r.background != "none" {
		fmt.Fprintf(&buf, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			num(vb.MinX), num(vb.MinY), num(vb.Width()), num(vb.Height()), styles.EscapeXML(r.background))
	}

	canvas.Group(`class="links"`)
	for _, l := range s.Links {
		canvas.Path(l.Path.D(), `class="link"`, fmt.Sprintf(`data-kind="%s"`, l.Kind))
	}
	canvas.Gend()

	canvas.Group(`class="nodes"`)
	for _, el := range s.Elements {
		r.node(canvas, s, el)
	}
	canvas.Gend()

	canvas.End()
	return buf.Bytes()
}

func (r svgRenderer) avatars(s *tree.Scene) bool {
	for _, el := range s.Elements {
		if el.Style.Avatar != nil {
			return true
		}
	}
	return false
}

func (r svgRenderer) node(canvas *svg.SVG, s *tree.Scene, el tree.Element) {
	a := el.Style
	canvas.Group(
		fmt.Sprintf(`class="%s"`, a.Class),
		fmt.Sprintf(`id="node-%s"`, styles.EscapeXML(el.ID)),
		fmt.Sprintf(`transform="translate(%s,%s)"`, num(el.X), num(el.Y)),
	)

	rectStyle := "fill:" + a.Fill
	if a.Stroke != "" {
		rectStyle += ";stroke:" + a.Stroke + ";stroke-width:" + num(a.StrokeWidth)
	}
	canvas.Roundrect(a.X, a.Y, a.W, a.H, 4, 4, fmt.Sprintf(`class="%s"`, a.RectClass), rectStyle)

	if av := a.Avatar; av != nil {
		href := r.images[el.ID]
		if href == "" {
			href = r.defaultIcon
		}
		if href != "" {
			canvas.Image(av.X, av.Y, int(av.Size), int(av.Size), href,
				fmt.Sprintf(`clip-path="url(#%s)"`, clipID(el.ID)), `preserveAspectRatio="xMidYMid slice"`)
		} else {
			canvas.Circle(av.Clip.CX, av.Clip.CY, av.Clip.R, `class="avatar-fallback"`)
			canvas.Text(av.Clip.CX, av.Clip.CY+4, av.Initials, `class="avatar-initials"`, `text-anchor="middle"`)
		}
	}

	label(canvas, a.Name, "font-weight:bold")
	lines := []string{a.Title.Text}
	if r.titleLines > 1 {
		lines = styles.WrapTitle(el.Employee.Title, titleChars(s, a), r.titleLines)
	}
	for i, line := range lines {
		l := a.Title
		l.Text = line
		l.Y += float64(i) * l.Size * 1.2
		label(canvas, l, "")
	}
	if d := a.Department; d != nil {
		dept := *d
		// Wrapped titles push the department down one line.
		dept.Y += float64(len(lines)-1) * a.Title.Size
		label(canvas, dept, "font-style:italic;fill:#666")
	}

	if c := a.Count; c != nil {
		canvas.Group(`class="count-badge"`)
		canvas.Circle(c.CX, c.CY, c.R, "fill:#ff6b6b;stroke:white;stroke-width:2px")
		canvas.Text(c.TextX, c.TextY, c.Label, `text-anchor="middle"`, "fill:white;font-size:11px;font-weight:bold")
		canvas.Gend()
	}
	if n := a.New; n != nil {
		canvas.Group(`class="new-employee-badge"`)
		canvas.Roundrect(n.X, n.Y, n.W, n.H, n.R, n.R, `class="new-badge"`)
		canvas.Text(n.TextX, n.TextY, "NEW", `class="new-badge-text"`, `text-anchor="middle"`)
		canvas.Gend()
	}
	if r.controls {
		if b := a.Expand; b != nil {
			canvas.Group(`class="expand-group"`)
			canvas.Circle(b.CX, b.CY, b.R, `class="expand-btn"`)
			canvas.Text(b.TextX, b.TextY, b.Symbol, `class="expand-text"`, `text-anchor="middle"`)
			canvas.Gend()
		}
		h := a.Hide
		canvas.Group(`class="hide-toggle"`)
		canvas.Title(h.Tooltip)
		canvas.Text(h.X, h.Y, h.Symbol, `text-anchor="middle"`)
		canvas.Gend()
	}
	canvas.Gend()
}

func label(canvas *svg.SVG, l styles.Label, extra string) {
	style := "font-size:" + num(l.Size) + "px"
	if extra != "" {
		style += ";" + extra
	}
	canvas.Text(l.X, l.Y, l.Text,
		fmt.Sprintf(`class="%s"`, l.Class),
		fmt.Sprintf(`text-anchor="%s"`, l.Anchor),
		style)
}

// titleChars approximates how many characters of the title fit on a line.
func titleChars(s *tree.Scene, a styles.Appearance) int {
	width := s.Config.NodeWidth - 20
	if a.Avatar != nil {
		width = s.Config.NodeWidth - 58
	}
	return max(1, int(width/6))
}

var unsafeID = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func clipID(id string) string { return "clip-" + unsafeID.ReplaceAllString(id, "_") }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
