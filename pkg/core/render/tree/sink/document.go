package sink

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo/float"

	"github.com/matzehuels/orgchart/pkg/core/render"
	"github.com/matzehuels/orgchart/pkg/core/render/tree"
)

// Document is a standalone SVG and the size of the area it covers.
type Document struct {
	SVG           []byte
	Width, Height float64
}

// NewDocument renders s with opts and records its padded size.
func NewDocument(s *tree.Scene, opts ...SVGOption) Document {
	vb := ViewBox(s, newSVGRenderer(opts...).padding)
	return Document{SVG: RenderSVG(s, opts...), Width: vb.Width(), Height: vb.Height()}
}

// PNG converts the document with rsvg-convert at the given device pixel
// ratio. Ratios of zero or less are treated as 1.
func (d Document) PNG(ctx context.Context, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return render.ToPNG(ctx, d.SVG, scale)
}

// PDF places the document on an A4 page with a 10 mm margin, landscape when
// it is wider than tall.
func (d Document) PDF(ctx context.Context) ([]byte, error) {
	return render.ToPDFPage(ctx, d.SVG, d.Width, d.Height, render.A4(d.Width, d.Height))
}

// RasterDocument wraps a PNG of a w×h area in an SVG document, for
// converters that only read SVG.
func RasterDocument(png []byte, w, h float64) Document {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startraw(
		fmt.Sprintf(`width="%s" height="%s"`, num(w), num(h)),
		fmt.Sprintf(`viewBox="0 0 %s %s"`, num(w), num(h)),
	)
	canvas.Image(0, 0, int(math.Ceil(w)), int(math.Ceil(h)),
		"data:image/png;base64,"+base64.StdEncoding.EncodeToString(png),
		`preserveAspectRatio="none"`)
	canvas.End()
	return Document{SVG: buf.Bytes(), Width: w, Height: h}
}
