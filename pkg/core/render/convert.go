// Package render converts rendered SVG documents to PNG and PDF.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrConverterMissing is returned when rsvg-convert is not installed.
var ErrConverterMissing = errors.New("rsvg-convert not found")

// Millimeters per CSS pixel at 96 dpi.
const PxToMM = 0.264583

// Page describes a PDF page in millimeters.
type Page struct {
	Width, Height float64
	Margin        float64
}

// A4 returns an A4 page with a 10 mm margin, turned landscape when the
// content is wider than tall.
func A4(contentW, contentH float64) Page {
	p := Page{Width: 210, Height: 297, Margin: 10}
	if contentW > contentH {
		p.Width, p.Height = p.Height, p.Width
	}
	return p
}

// Fit returns the content size in millimeters after scaling w×h px to fit
// inside the page margins. Content smaller than the printable area keeps
// its natural size.
func (p Page) Fit(w, h float64) (mmW, mmH float64) {
	mmW, mmH = w*PxToMM, h*PxToMM
	availW, availH := p.Width-2*p.Margin, p.Height-2*p.Margin
	if mmW <= 0 || mmH <= 0 {
		return 0, 0
	}
	k := min(availW/mmW, availH/mmH, 1)
	return mmW * k, mmH * k
}

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPDFPage converts SVG bytes of size w×h px to a PDF placed on page,
// scaled to fit inside the margins.
func ToPDFPage(ctx context.Context, svg []byte, w, h float64, page Page) ([]byte, error) {
	mmW, mmH := page.Fit(w, h)
	return rsvgConvert(ctx, svg, "pdf",
		"--page-width", mm(page.Width),
		"--page-height", mm(page.Height),
		"--left", mm(page.Margin),
		"--top", mm(page.Margin),
		"--width", mm(mmW),
		"--height", mm(mmH),
		"--keep-aspect-ratio",
	)
}

// ToPNG converts SVG bytes to PNG using rsvg-convert with the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

func mm(v float64) string { return fmt.Sprintf("%.2fmm", v) }

// rsvgConvert shells out to rsvg-convert for format conversion.
func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, fmt.Errorf("%w: %s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", ErrConverterMissing, format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, "rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	return out.Bytes(), nil
}
