// Package pipeline provides the load → layout → render pipeline of the org
// chart.
//
// The CLI and the server both go through this package, so a chart rendered
// from the command line matches the one served over HTTP.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read directory records from a source, apply the record filters
//     and build the employee hierarchy
//  2. Layout: wrap the hierarchy in a layout tree and apply the initial
//     collapse level
//  3. Render: export the chart in the requested formats (SVG, PNG, PDF,
//     JSON, DOT, XLSX)
//
// Each stage can be run on its own or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "data/employees.json",
//	    Formats: []string{"svg", "xlsx"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"].Data
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/core/chart/visibility"
	"github.com/matzehuels/orgchart/pkg/core/render/tree"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/export"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/settings"
)

// Visualization types.
const (
	// VizTypeTree is the tidy tree drawn by the chart renderer.
	VizTypeTree = "tree"

	// VizTypeNodelink is a Graphviz drawing of the same hierarchy.
	VizTypeNodelink = "nodelink"
)

// DefaultVizType is the default visualization type.
const DefaultVizType = VizTypeTree

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatXLSX = "xlsx"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatXLSX: true,
}

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizTypeTree:     true,
	VizTypeNodelink: true,
}

// DefaultParallelism bounds concurrent renders of one request.
const DefaultParallelism = 4

// Options contains all configuration for the chart pipeline.
type Options struct {
	// Load options
	Source string `json:"source"`

	// TopUser is a session-scoped root override. A non-nil empty value
	// requests auto-detection even when an email is configured.
	TopUser *string `json:"top_user,omitempty"`

	// EnvTopUser is the value of the TOP_LEVEL_USER_EMAIL variable.
	EnvTopUser string `json:"-"`

	// TopUserID pins the root when no employee matches the email.
	TopUserID string `json:"top_user_id,omitempty"`

	Refresh bool `json:"refresh,omitempty"`

	// Layout options
	VizType       string `json:"viz_type,omitempty"`
	Orientation   string `json:"orientation,omitempty"`
	CollapseLevel string `json:"collapse_level,omitempty"` // empty uses the settings
	FullChart     bool   `json:"full_chart,omitempty"`

	// Compact and Avatars override the settings when set.
	Compact *bool `json:"compact,omitempty"`
	Avatars *bool `json:"avatars,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
	Hidden  []string `json:"hidden,omitempty"`

	// Parallelism bounds concurrent format renders. Zero means
	// DefaultParallelism.
	Parallelism int `json:"-"`

	// Admin includes admin-only spreadsheet columns.
	Admin bool `json:"admin,omitempty"`

	// Runtime options (not serialized)
	Settings *settings.Settings `json:"-"`
	Now      time.Time          `json:"-"`
	Logger   *log.Logger        `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Hierarchy is the loaded employee tree.
	Hierarchy *org.Hierarchy

	// TreeHash is the content hash of the hierarchy.
	TreeHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string]*export.Artifact

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EmployeeCount int
	VisibleCount  int
	Unplaced      int
	LoadTime      time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the hierarchy came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return orgerr.New(orgerr.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json, dot, xlsx)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !ValidVizTypes[vizType] {
		return orgerr.New(orgerr.ErrCodeInvalidInput, "invalid viz_type: %q (must be one of: tree, nodelink)", vizType)
	}
	return nil
}

// ValidateOrientation checks that an orientation is valid.
func ValidateOrientation(o string) error {
	switch strings.ToLower(o) {
	case "vertical", "horizontal":
		return nil
	}
	return orgerr.New(orgerr.ErrCodeInvalidInput, "invalid orientation: %q (must be one of: vertical, horizontal)", o)
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" {
		return orgerr.New(orgerr.ErrCodeInvalidInput, "source is required")
	}
	o.setCommonDefaults()
	return orgerr.ValidateEmail(o.topUser())
}

func (o *Options) setCommonDefaults() {
	if o.Settings == nil {
		s := settings.Defaults()
		o.Settings = &s
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	o.setCommonDefaults()
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if o.Orientation == "" {
		o.Orientation = layout.Vertical.String()
	}
	if o.CollapseLevel == "" {
		o.CollapseLevel = o.Settings.InitialCollapseLevel()
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	if err := ValidateOrientation(o.Orientation); err != nil {
		return err
	}
	return orgerr.ValidateCollapseLevel(o.CollapseLevel)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	o.SetLayoutDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale <= 0 {
		o.Scale = export.DefaultScale
	}
	if o.Parallelism <= 0 {
		o.Parallelism = DefaultParallelism
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.IsNodelink() {
		for _, f := range o.Formats {
			if f == FormatJSON {
				return orgerr.New(orgerr.ErrCodeInvalidFormat, "format json is not available for nodelink charts")
			}
		}
	}
	return nil
}

// IsNodelink returns true if this is a Graphviz visualization.
func (o *Options) IsNodelink() bool {
	return o.VizType == VizTypeNodelink
}

func (o *Options) topUser() string {
	s := settings.Defaults()
	if o.Settings != nil {
		s = *o.Settings
	}
	return s.TopUser(o.TopUser, o.EnvTopUser)
}

// BuildOptions returns the hierarchy options after resolving the top user.
func (o *Options) BuildOptions() org.BuildOptions {
	return org.BuildOptions{TopUserEmail: o.topUser(), TopUserID: o.TopUserID}
}

// CompactEnabled reports whether large teams are wrapped.
func (o *Options) CompactEnabled() bool {
	if o.Compact != nil {
		return *o.Compact
	}
	return o.Settings.MultiLineChildrenEnabled
}

// AvatarsEnabled reports whether profile photos are drawn.
func (o *Options) AvatarsEnabled() bool {
	if o.Avatars != nil {
		return *o.Avatars
	}
	return o.Settings.ShowProfileImages
}

// Overlay returns the visibility overlay for the hidden ids.
func (o *Options) Overlay() *visibility.Overlay {
	return visibility.New(o.Hidden...)
}

// TreeOptions returns the renderer options derived from the settings.
func (o *Options) TreeOptions() tree.Options {
	opts := tree.DefaultOptions()
	opts.Layout.Orientation = layout.ParseOrientation(o.Orientation)
	opts.Compact = o.Settings.CompactOptions(o.CompactEnabled())
	opts.Styles = o.Settings.StyleOptions(o.AvatarsEnabled())
	opts.Duration = 0
	return opts
}

// TreeKeyOpts returns cache key options for the load stage.
func (o *Options) TreeKeyOpts() cache.TreeKeyOpts {
	f := o.Settings.Filters()
	return cache.TreeKeyOpts{
		TopUserEmail: o.topUser() + "|" + o.TopUserID,
		FiltersHash:  filtersHash(f),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	hidden := slices.Clone(o.Hidden)
	slices.Sort(hidden)
	k := cache.ArtifactKeyOpts{
		Format:        o.VizType + "/" + format,
		Orientation:   o.Orientation,
		CollapseLevel: o.CollapseLevel,
		FullChart:     o.FullChart,
		Compact:       o.CompactEnabled(),
		Threshold:     o.Settings.MultiLineChildrenThreshold,
		Avatars:       o.AvatarsEnabled(),
		Departments:   o.Settings.ShowDepartments,
		Scale:         o.Scale,
		Hidden:        strings.Join(hidden, ","),
		PaletteHash:   paletteHash(o.Settings.NodeColors),
	}
	if format == FormatXLSX {
		// The sheet depends on the column visibility and viewer, not on
		// the drawing.
		k = cache.ArtifactKeyOpts{
			Format:      format,
			PaletteHash: columnsHash(o.Settings.VisibleColumns(o.Admin)),
		}
	}
	return k
}

func filtersHash(f org.Filters) string {
	return cache.Hash(fmt.Appendf(nil, "%t|%t|%t|%v|%v|%v",
		f.HideDisabled, f.HideGuests, f.HideNoTitle,
		sortedKeys(f.IgnoredTitles), sortedKeys(f.IgnoredDepartments), sortedKeys(f.IgnoredEmployees)))
}

func paletteHash(colors map[string]string) string {
	var b strings.Builder
	for _, k := range sortedKeys(colors) {
		fmt.Fprintf(&b, "%s=%s;", k, colors[k])
	}
	return cache.Hash([]byte(b.String()))
}

func columnsHash(cols []string) string {
	return cache.Hash([]byte(strings.Join(cols, ",")))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
