// Package export renders print-ready artifacts of an org chart.
//
// # Overview
//
// An export is built off-screen: the tree is pruned to the visible nodes
// (or every node for a full chart), subtrees hidden by the visibility
// overlay are dropped, and layout and compaction run again on the result.
// The interactive view is never touched.
//
// # Formats
//
//   - SVG: standalone document, 50px padding, white background, inline
//     styles, photos inlined as data URIs
//   - PNG: the SVG converted by rsvg-convert, with fallbacks
//   - PDF: the SVG placed on an A4 page, landscape when wider than tall
//   - JSON: positions, links and wrapped groups
//
// PNG export tries, in order: the SVG with inlined photos, a pure-Go
// raster, and the SVG with backend photos replaced by the default icon.
// PDF export tries the SVG with photos, the SVG without backend photos, and
// finally the pure-Go raster embedded in an SVG page. When every stage
// fails the error has code EXPORT_FAILED.
//
// Photos are loaded concurrently through an [ImageLoader]. A photo that
// fails to load is drawn as [DefaultIcon]; it never fails the export.
package export

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/chart/visibility"
	"github.com/matzehuels/orgchart/pkg/core/render/tree"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/sink"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	fileio "github.com/matzehuels/orgchart/pkg/io"
)

const (
	// Padding surrounds the chart bounds in exported documents.
	Padding = 50

	// DefaultScale is the PNG device pixel ratio.
	DefaultScale = 2.0

	// DefaultConcurrency bounds parallel photo loads.
	DefaultConcurrency = 8
)

// Format is an export file format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatSVG, FormatPNG, FormatPDF, FormatJSON}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", orgerr.New(orgerr.ErrCodeInvalidFormat, "unsupported export format %q (must be one of: svg, png, pdf, json)", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "image/svg+xml"
	}
}

// Filename returns org-chart-YYYY-MM-DD with the format's extension.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("org-chart-%s.%s", now.Format("2006-01-02"), f)
}

// PNG and PDF stages reported in [Artifact.Stage].
const (
	StageDirect   = "rsvg"
	StageRaster   = "raster"
	StageStripped = "rsvg-stripped"
)

// Request describes one export.
type Request struct {
	Tree    *chart.Tree
	Overlay *visibility.Overlay

	// FullChart exports every node, including collapsed subtrees.
	FullChart bool

	// Pruned marks Tree as an export copy made by [chart.Tree.Prune]. It is
	// laid out as is; Overlay and FullChart are not applied again.
	Pruned bool

	Format Format

	// Scale is the PNG device pixel ratio. Zero means [DefaultScale].
	Scale float64

	// Options carry layout, compaction and styling. Overlay, Highlight and
	// Duration are ignored.
	Options tree.Options

	// Now dates the filename. Zero means the current time.
	Now time.Time
}

// Artifact is an exported document.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte

	// Stage records which PNG or PDF stage succeeded.
	Stage string
}

// Converter turns SVG into PNG and PDF.
type Converter interface {
	PNG(ctx context.Context, svg []byte, scale float64) ([]byte, error)
	PDF(ctx context.Context, svg []byte, w, h float64) ([]byte, error)
}

// RSVG converts with the rsvg-convert tool.
type RSVG struct{}

// PNG implements Converter.
func (RSVG) PNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return sink.Document{SVG: svg}.PNG(ctx, scale)
}

// PDF implements Converter. The page is A4 with a 10 mm margin.
func (RSVG) PDF(ctx context.Context, svg []byte, w, h float64) ([]byte, error) {
	return sink.Document{SVG: svg, Width: w, Height: h}.PDF(ctx)
}

// Rasterizer draws a scene as PNG without external tools.
type Rasterizer func(s *tree.Scene, padding, scale float64) ([]byte, error)

// Exporter renders artifacts. It is safe for concurrent use.
type Exporter struct {
	loader      ImageLoader
	converter   Converter
	raster      Rasterizer
	concurrency int
	logger      *log.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLoader sets the photo loader. Without one every photo is drawn as
// the default icon.
func WithLoader(l ImageLoader) Option { return func(x *Exporter) { x.loader = l } }

// WithConverter replaces rsvg-convert.
func WithConverter(c Converter) Option { return func(x *Exporter) { x.converter = c } }

// WithRasterizer replaces the pure-Go PNG fallback.
func WithRasterizer(r Rasterizer) Option { return func(x *Exporter) { x.raster = r } }

// WithConcurrency bounds parallel photo loads.
func WithConcurrency(n int) Option { return func(x *Exporter) { x.concurrency = n } }

// WithLogger sets the logger for fallback and photo warnings.
func WithLogger(l *log.Logger) Option { return func(x *Exporter) { x.logger = l } }

// New returns an Exporter.
func New(opts ...Option) *Exporter {
	x := &Exporter{
		converter:   RSVG{},
		raster:      sink.RenderRaster,
		concurrency: DefaultConcurrency,
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Scene builds the off-screen scene for req.
func Scene(req Request) (*tree.Scene, error) {
	if req.Tree == nil || req.Tree.Root == nil {
		return nil, orgerr.New(orgerr.ErrCodeNoRoot, "nothing to export")
	}
	pruned := req.Tree
	if !req.Pruned {
		var keep func(*chart.Node) bool
		if req.Overlay != nil {
			keep = req.Overlay.Keep(req.Tree)
		}
		pruned = req.Tree.Prune(req.FullChart, keep)
		if pruned == nil {
			return nil, orgerr.New(orgerr.ErrCodeNoRoot, "every node is hidden")
		}
	}

	opts := req.Options
	opts.Overlay = nil
	opts.Highlight = ""
	opts.Duration = 0
	return tree.Build(pruned, opts), nil
}

// Export renders req.
func (x *Exporter) Export(ctx context.Context, req Request) (*Artifact, error) {
	if req.Format == "" {
		req.Format = FormatSVG
	}
	if _, err := ParseFormat(string(req.Format)); err != nil {
		return nil, err
	}
	if req.Scale <= 0 {
		req.Scale = DefaultScale
	}
	if req.Now.IsZero() {
		req.Now = time.Now()
	}

	scene, err := Scene(req)
	if err != nil {
		return nil, err
	}
	art := &Artifact{Filename: Filename(req.Format, req.Now), ContentType: req.Format.ContentType()}

	if req.Format == FormatJSON {
		art.Data, err = sink.RenderJSON(scene)
		if err != nil {
			return nil, orgerr.Wrap(orgerr.ErrCodeExportFailed, err, "encode json")
		}
		return art, nil
	}

	images, err := x.loadImages(ctx, scene)
	if err != nil {
		return nil, err
	}
	svg := sink.RenderSVG(scene, svgOptions(images)...)

	switch req.Format {
	case FormatSVG:
		art.Data = svg
	case FormatPDF:
		art.Data, art.Stage, err = x.pdf(ctx, scene, svg)
		if err != nil {
			return nil, err
		}
	case FormatPNG:
		art.Data, art.Stage, err = x.png(ctx, scene, svg, req.Scale)
		if err != nil {
			return nil, err
		}
	}
	return art, nil
}

func svgOptions(images map[string]string) []sink.SVGOption {
	return []sink.SVGOption{
		sink.WithPadding(Padding),
		sink.WithBackground("white"),
		sink.WithImages(images, DefaultIcon),
		sink.WithTitleLines(2),
	}
}

// png runs the staged PNG conversion.
func (x *Exporter) png(ctx context.Context, scene *tree.Scene, svg []byte, scale float64) ([]byte, string, error) {
	data, err := x.converter.PNG(ctx, svg, scale)
	if err == nil {
		return data, StageDirect, nil
	}
	x.logger.Warn("png conversion failed, using raster fallback", "err", err)
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}

	data, rerr := x.raster(scene, Padding, scale)
	if rerr == nil {
		return data, StageRaster, nil
	}
	x.logger.Warn("raster fallback failed, retrying without photos", "err", rerr)

	stripped := sink.RenderSVG(scene, svgOptions(nil)...)
	data, serr := x.converter.PNG(ctx, stripped, scale)
	if serr == nil {
		return data, StageStripped, nil
	}
	return nil, "", orgerr.Wrap(orgerr.ErrCodeExportFailed, serr, "png export failed after %d attempts", 3)
}

// pdf runs the staged PDF conversion: the SVG with inlined photos, the SVG
// with backend photos replaced by the default icon, and a raster of the
// chart wrapped in an SVG.
func (x *Exporter) pdf(ctx context.Context, scene *tree.Scene, svg []byte) ([]byte, string, error) {
	vb := sink.ViewBox(scene, Padding)
	w, h := vb.Width(), vb.Height()
	data, err := x.converter.PDF(ctx, svg, w, h)
	if err == nil {
		return data, StageDirect, nil
	}
	x.logger.Warn("pdf conversion failed, retrying without photos", "err", err)
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}

	stripped := sink.RenderSVG(scene, svgOptions(nil)...)
	data, serr := x.converter.PDF(ctx, stripped, w, h)
	if serr == nil {
		return data, StageStripped, nil
	}
	x.logger.Warn("pdf conversion without photos failed, embedding raster", "err", serr)

	png, rerr := x.raster(scene, Padding, DefaultScale)
	if rerr != nil {
		return nil, "", orgerr.Wrap(orgerr.ErrCodeExportFailed, rerr, "pdf export failed after %d attempts", 3)
	}
	doc := sink.RasterDocument(png, w, h)
	data, err = x.converter.PDF(ctx, doc.SVG, doc.Width, doc.Height)
	if err != nil {
		return nil, "", orgerr.Wrap(orgerr.ErrCodeExportFailed, err, "pdf export failed after %d attempts", 3)
	}
	return data, StageRaster, nil
}

// loadImages fetches backend photos of the scene concurrently. Failed
// loads are logged and left out.
func (x *Exporter) loadImages(ctx context.Context, scene *tree.Scene) (map[string]string, error) {
	images := make(map[string]string)
	if x.loader == nil {
		return images, nil
	}

	type job struct{ id, url string }
	var jobs []job
	for _, el := range scene.Elements {
		if a := el.Style.Avatar; a != nil && a.Href != "" {
			jobs = append(jobs, job{el.ID, a.Href})
		}
	}
	results := make([]string, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, x.concurrency))
	for i, j := range jobs {
		g.Go(func() error {
			uri, err := x.loader.Load(gctx, j.url)
			if err != nil {
				x.logger.Debug("photo unavailable", "id", j.id, "url", j.url, "err", err)
				return nil
			}
			results[i] = uri
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, j := range jobs {
		if results[i] != "" {
			images[j.id] = results[i]
		}
	}
	return images, nil
}

// WriteFile exports req into dir and returns the written path. The file
// appears atomically; a failed export leaves nothing behind.
func (x *Exporter) WriteFile(ctx context.Context, req Request, dir string) (string, error) {
	art, err := x.Export(ctx, req)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, art.Filename)
	if err := fileio.WriteAtomic(dst, art.Data); err != nil {
		return "", err
	}
	return dst, nil
}
