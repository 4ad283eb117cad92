package sink

import (
	"bytes"
	"fmt"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/orgchart/pkg/core/render/tree"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/styles"
)

// maxRasterSide bounds each side of a raster in pixels.
const maxRasterSide = 16384

// RenderRaster draws the scene as PNG without external tools. It draws
// cards, links, labels and badges; photos are replaced by initials.
func RenderRaster(s *tree.Scene, padding, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	vb := ViewBox(s, padding)
	w := int(math.Ceil(vb.Width() * scale))
	h := int(math.Ceil(vb.Height() * scale))
	if w <= 0 || h <= 0 || w > maxRasterSide || h > maxRasterSide {
		return nil, fmt.Errorf("raster size %dx%d out of range", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.Scale(scale, scale)
	dc.Translate(-vb.MinX, -vb.MinY)
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetHexColor("#999999")
	dc.SetLineWidth(2)
	for _, l := range s.Links {
		for _, line := range l.Path {
			for i, p := range line {
				if i == 0 {
					dc.MoveTo(p.X, p.Y)
				} else {
					dc.LineTo(p.X, p.Y)
				}
			}
			dc.Stroke()
		}
	}

	for _, el := range s.Elements {
		drawCard(dc, el)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawCard(dc *gg.Context, el tree.Element) {
	a := el.Style
	dc.Push()
	defer dc.Pop()
	dc.Translate(el.X, el.Y)

	dc.DrawRoundedRectangle(a.X, a.Y, a.W, a.H, 4)
	dc.SetHexColor(a.Fill)
	if a.Stroke != "" {
		dc.FillPreserve()
		dc.SetHexColor(a.Stroke)
		dc.SetLineWidth(a.StrokeWidth)
		dc.Stroke()
	} else {
		dc.Fill()
	}

	if av := a.Avatar; av != nil {
		dc.DrawCircle(av.Clip.CX, av.Clip.CY, av.Clip.R)
		dc.SetHexColor("#c8c8c8")
		dc.Fill()
		dc.SetHexColor("#ffffff")
		dc.DrawStringAnchored(av.Initials, av.Clip.CX, av.Clip.CY, 0.5, 0.35)
	}

	rasterLabel(dc, a.Name, "#333333")
	rasterLabel(dc, a.Title, "#555555")
	if d := a.Department; d != nil {
		rasterLabel(dc, *d, "#666666")
	}

	if c := a.Count; c != nil {
		dc.DrawCircle(c.CX, c.CY, c.R)
		dc.SetHexColor("#ff6b6b")
		dc.Fill()
		dc.SetHexColor("#ffffff")
		dc.DrawStringAnchored(c.Label, c.CX, c.CY, 0.5, 0.35)
	}
	if n := a.New; n != nil {
		dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, n.R)
		dc.SetHexColor("#28a745")
		dc.Fill()
		dc.SetHexColor("#ffffff")
		dc.DrawStringAnchored("NEW", n.X+n.W/2, n.Y+n.H/2, 0.5, 0.35)
	}
}

// rasterLabel draws l with the fixed bitmap font; the label size only
// affects how much text fits.
func rasterLabel(dc *gg.Context, l styles.Label, color string) {
	ax := 0.5
	if l.Anchor == "start" {
		ax = 0
	}
	dc.SetHexColor(color)
	dc.DrawStringAnchored(l.Text, l.X, l.Y, ax, 0)
}
