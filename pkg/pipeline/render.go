package pipeline

import (
	"context"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/nodelink"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/export"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/styles"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/xlsx"
)

// ContentTypeDOT is the MIME type of Graphviz output.
const ContentTypeDOT = "text/vnd.graphviz"

// StageGraphviz is reported for artifacts drawn by Graphviz.
const StageGraphviz = "graphviz"

// Render generates one artifact. The spreadsheet is built from the whole
// hierarchy; drawings follow the collapse state of t and the hidden ids.
func Render(ctx context.Context, x *export.Exporter, t *chart.Tree, h *org.Hierarchy, format string, opts Options) (*export.Artifact, error) {
	switch {
	case format == FormatXLSX:
		return renderXLSX(h, opts)
	case format == FormatDOT || opts.IsNodelink():
		return renderNodelink(ctx, t, format, opts)
	}
	return x.Export(ctx, export.Request{
		Tree:      t,
		Overlay:   opts.Overlay(),
		FullChart: opts.FullChart,
		Format:    export.Format(format),
		Scale:     opts.Scale,
		Options:   opts.TreeOptions(),
		Now:       opts.Now,
	})
}

func renderXLSX(h *org.Hierarchy, opts Options) (*export.Artifact, error) {
	data, err := xlsx.Export(h.Root, xlsx.OptionsFor(*opts.Settings, opts.Admin))
	if err != nil {
		return nil, err
	}
	return &export.Artifact{
		Filename:    xlsx.Filename(opts.Now),
		ContentType: xlsx.ContentType,
		Data:        data,
	}, nil
}

func renderNodelink(ctx context.Context, t *chart.Tree, format string, opts Options) (*export.Artifact, error) {
	pruned := t.Prune(opts.FullChart, opts.Overlay().Keep(t))
	if pruned == nil {
		return nil, orgerr.New(orgerr.ErrCodeNoRoot, "every node is hidden")
	}
	dot := nodelink.ToDOT(pruned, nodelink.Options{
		Orientation: layout.ParseOrientation(opts.Orientation),
		Palette:     styles.Palette(opts.Settings.NodeColors),
	})

	art := &export.Artifact{
		Filename: export.Filename(export.Format(format), opts.Now),
		Stage:    StageGraphviz,
	}
	var err error
	switch format {
	case FormatDOT:
		art.ContentType = ContentTypeDOT
		art.Data = []byte(dot)
	case FormatSVG:
		art.ContentType = export.FormatSVG.ContentType()
		art.Data, err = nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		art.ContentType = export.FormatPNG.ContentType()
		art.Data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
	case FormatPDF:
		art.ContentType = export.FormatPDF.ContentType()
		art.Data, err = nodelink.RenderPDF(ctx, dot)
	default:
		return nil, orgerr.New(orgerr.ErrCodeInvalidFormat, "unsupported nodelink format: %s", format)
	}
	if err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeExportFailed, err, "render %s", format)
	}
	return art, nil
}

// artifactFor rebuilds the metadata of a cached artifact.
func artifactFor(format string, data []byte, opts Options) *export.Artifact {
	art := &export.Artifact{Data: data}
	switch format {
	case FormatXLSX:
		art.Filename = xlsx.Filename(opts.Now)
		art.ContentType = xlsx.ContentType
	case FormatDOT:
		art.Filename = export.Filename(export.Format(format), opts.Now)
		art.ContentType = ContentTypeDOT
	default:
		art.Filename = export.Filename(export.Format(format), opts.Now)
		art.ContentType = export.Format(format).ContentType()
	}
	return art
}
