// Package view holds the state of one interactive chart session and the
// actions a viewer can take on it.
//
// A [Controller] owns the layout tree, its collapse state, the hidden
// overlay, the display settings, the viewer's local preferences, the
// viewport and the render engine. Every action reads the current state,
// computes the next one and renders a new frame under a single lock, so a
// frame always reflects the state as of the action that produced it.
//
// Network calls (loading the tree and settings, saving the compact-teams
// setting) run without the lock held. A response that lost a race with a
// newer request is dropped by the backend's request fencing.
//
//	c := view.New(client, view.WithPrefs(store), view.WithOnFrame(draw))
//	if err := c.Load(ctx); err != nil { ... }
//	c.Toggle("42")
//	c.ZoomIn()
package view

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/client"
	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/chart/collapse"
	"github.com/matzehuels/orgchart/pkg/core/chart/visibility"
	"github.com/matzehuels/orgchart/pkg/core/render/tree"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/export"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
	"github.com/matzehuels/orgchart/pkg/core/viewport"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/prefs"
	"github.com/matzehuels/orgchart/pkg/settings"
	"github.com/matzehuels/orgchart/pkg/xlsx"
)

// Backend is the part of the server API a view needs.
type Backend interface {
	Employees(ctx context.Context) (*org.Employee, error)
	Settings(ctx context.Context) (settings.Settings, error)
	Search(ctx context.Context, q string) ([]org.Summary, error)
	SetMultilineEnabled(ctx context.Context, enabled bool) error
}

var _ Backend = (*client.Client)(nil)

// DefaultContainer is the viewport size used until the first resize.
var DefaultContainer = viewport.Size{W: 1280, H: 800}

// Frame is one rendered state of the chart.
type Frame struct {
	Scene      *tree.Scene
	Transition tree.Transition
}

// Controller is one chart session. It is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	backend  Backend
	prefs    prefs.Store
	exporter *export.Exporter
	viewport *viewport.Controller
	engine   *tree.Engine
	logger   *log.Logger
	onFrame  func(Frame)
	now      func() time.Time

	tree          *chart.Tree
	settings      settings.Settings
	overlay       *visibility.Overlay
	authenticated bool
	highlight     string

	// loadErr and settingsErr are the inline error states of the last load.
	loadErr     error
	settingsErr error
}

// Option configures a Controller.
type Option func(*Controller)

// WithPrefs sets the local preference store. The default is in memory.
func WithPrefs(s prefs.Store) Option { return func(c *Controller) { c.prefs = s } }

// WithExporter sets the exporter used by [Controller.Export].
func WithExporter(x *export.Exporter) Option { return func(c *Controller) { c.exporter = x } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithOnFrame registers the frame listener. It is called without the
// controller lock held.
func WithOnFrame(fn func(Frame)) Option { return func(c *Controller) { c.onFrame = fn } }

// WithViewport replaces the viewport controller.
func WithViewport(v *viewport.Controller) Option { return func(c *Controller) { c.viewport = v } }

// WithAuthenticated sets the initial login state.
func WithAuthenticated(ok bool) Option { return func(c *Controller) { c.authenticated = ok } }

// New returns a controller with no chart loaded.
func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		prefs:    prefs.NewMemory(),
		settings: settings.Defaults(),
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.viewport == nil {
		c.viewport = viewport.New(DefaultContainer)
	}
	if c.exporter == nil {
		c.exporter = export.New(export.WithLogger(c.logger))
	}
	c.engine = tree.NewEngine(tree.WithLogger(c.logger))
	c.overlay = prefs.LoadOverlay(c.prefs)
	return c
}

// Load fetches settings and the tree, applies the initial collapse level
// and renders the first frame without animation. A settings failure falls
// back to the defaults; a tree failure keeps the current chart and is
// returned.
func (c *Controller) Load(ctx context.Context) error {
	st, settingsErr := c.backend.Settings(ctx)
	if orgerr.Is(settingsErr, orgerr.ErrCodeStaleResponse) {
		return nil
	}
	if settingsErr != nil {
		c.logger.Warn("settings unavailable, using defaults", "error", settingsErr)
		st = settings.Defaults()
	}
	root, err := c.backend.Employees(ctx)
	if orgerr.Is(err, orgerr.ErrCodeStaleResponse) {
		return nil
	}

	c.mu.Lock()
	c.settings = st
	c.settingsErr = settingsErr
	if err != nil {
		c.loadErr = err
		c.mu.Unlock()
		return err
	}
	t, err := chart.New(root)
	if err != nil {
		c.loadErr = err
		c.mu.Unlock()
		return err
	}
	collapse.ApplyInitial(t, st.InitialCollapseLevel())
	c.tree = t
	c.loadErr = nil
	c.highlight = ""
	c.engine.Reset()
	f := c.renderLocked(0)
	c.mu.Unlock()

	c.viewport.Fit(f.Scene.Bounds, 0)
	c.emit(f)
	c.logger.Debug("loaded chart", "employees", t.Len(), "visible", f.Scene.Len())
	return nil
}

// Reload fetches the tree and settings again, keeping the collapse state
// of nodes that still exist and the viewport.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	old := c.tree
	c.mu.Unlock()
	if old == nil {
		return c.Load(ctx)
	}

	st, settingsErr := c.backend.Settings(ctx)
	if settingsErr != nil && !orgerr.Is(settingsErr, orgerr.ErrCodeStaleResponse) {
		c.logger.Warn("settings unavailable, keeping current", "error", settingsErr)
	}
	root, err := c.backend.Employees(ctx)
	if orgerr.Is(err, orgerr.ErrCodeStaleResponse) {
		return nil
	}

	c.mu.Lock()
	if settingsErr == nil {
		c.settings = st
	}
	c.settingsErr = settingsErr
	if err != nil {
		c.loadErr = err
		c.mu.Unlock()
		return err
	}
	t, err := chart.New(root)
	if err != nil {
		c.loadErr = err
		c.mu.Unlock()
		return err
	}
	collapsed := make(map[string]bool)
	c.tree.Walk(func(n *chart.Node) bool {
		if n.Collapsed() {
			collapsed[n.ID()] = true
		}
		return true
	})
	t.Walk(func(n *chart.Node) bool {
		if collapsed[n.ID()] {
			collapse.Collapse(n)
		}
		return true
	})
	c.tree = t
	c.loadErr = nil
	f := c.renderLocked(viewport.TransitionDuration)
	c.mu.Unlock()
	c.emit(f)
	return nil
}

// renderLocked builds the next frame. The caller holds c.mu.
func (c *Controller) renderLocked(d time.Duration) Frame {
	if c.tree == nil {
		return Frame{Scene: &tree.Scene{Bounds: chart.EmptyRect()}}
	}
	opts := c.treeOptionsLocked()
	opts.Duration = d
	scene, tr := c.engine.Frame(c.tree, opts)
	c.viewport.SetBounds(scene.Bounds)
	return Frame{Scene: scene, Transition: tr}
}

func (c *Controller) treeOptionsLocked() tree.Options {
	opts := tree.DefaultOptions()
	opts.Layout.Orientation = c.viewport.Orientation()
	opts.Compact = c.settings.CompactOptions(c.compactLocked())
	opts.Styles = c.settings.StyleOptions(c.avatarsLocked())
	opts.Overlay = c.overlay
	opts.Highlight = c.highlight
	return opts
}

func (c *Controller) emit(f Frame) {
	if c.onFrame != nil && f.Scene != nil {
		c.onFrame(f)
	}
}

// update runs fn under the lock and renders a frame when it reports a
// change.
func (c *Controller) update(fn func() bool) bool {
	c.mu.Lock()
	if c.tree == nil || !fn() {
		c.mu.Unlock()
		return false
	}
	f := c.renderLocked(viewport.TransitionDuration)
	c.mu.Unlock()
	c.emit(f)
	return true
}

// Toggle expands or collapses node id. Unknown ids and leaves are no-ops.
func (c *Controller) Toggle(id string) bool {
	return c.update(func() bool { return collapse.Toggle(c.tree.Find(id)) })
}

// ExpandAll expands the whole tree and fits it.
func (c *Controller) ExpandAll() {
	if c.update(func() bool { collapse.ExpandAll(c.tree); return true }) {
		c.viewport.Reset()
	}
}

// CollapseAll collapses everything below the root and fits the result.
func (c *Controller) CollapseAll() {
	if c.update(func() bool { collapse.CollapseAll(c.tree); return true }) {
		c.viewport.Reset()
	}
}

// ToggleHidden hides or shows the subtree of id and stores the overlay.
func (c *Controller) ToggleHidden(id string) bool {
	return c.update(func() bool {
		if c.tree.Find(id) == nil {
			return false
		}
		c.overlay.Toggle(id)
		c.saveOverlayLocked()
		return true
	})
}

// ResetHidden shows every hidden subtree.
func (c *Controller) ResetHidden() {
	c.update(func() bool {
		if c.overlay.Len() == 0 {
			return false
		}
		c.overlay.Reset()
		c.saveOverlayLocked()
		return true
	})
}

func (c *Controller) saveOverlayLocked() {
	if err := prefs.SaveOverlay(c.prefs, c.overlay); err != nil {
		c.logger.Warn("could not store hidden nodes", "error", err)
	}
}

// Search queries the backend.
func (c *Controller) Search(ctx context.Context, q string) ([]org.Summary, error) {
	return c.backend.Search(ctx, q)
}

// SearchSelect brings the selected match into view. With auto-expand on,
// its ancestors are expanded; otherwise the state is left alone and only a
// visible node is located. It reports whether the node is visible.
func (c *Controller) SearchSelect(id string) bool {
	c.mu.Lock()
	if c.tree == nil || c.tree.Find(id) == nil {
		c.mu.Unlock()
		return false
	}
	if c.settings.SearchAutoExpand {
		collapse.Reveal(c.tree, id)
	}
	visible := collapse.IsVisible(c.tree, id)
	if c.settings.SearchHighlight {
		c.highlight = id
	}
	f := c.renderLocked(viewport.TransitionDuration)
	c.mu.Unlock()
	c.emit(f)

	if el, ok := f.Scene.Find(id); ok && visible {
		c.viewport.Focus(el.X, el.Y)
	}
	return visible
}

// ClearHighlight removes the search highlight.
func (c *Controller) ClearHighlight() {
	c.update(func() bool {
		if c.highlight == "" {
			return false
		}
		c.highlight = ""
		return true
	})
}

// ToggleCompact flips compact teams and re-fits the chart. Anonymous
// viewers store an explicit local override. Authenticated viewers change
// the server setting: the new value is shown at once, a successful save
// clears the local override, and a failed save is reverted. A 401 also ends
// the authenticated state.
func (c *Controller) ToggleCompact(ctx context.Context) error {
	c.mu.Lock()
	if !c.authenticated {
		next := settings.PreferenceOf(!c.compactLocked())
		if err := prefs.SetPreference(c.prefs, prefs.KeyCompactLargeTeams, next); err != nil {
			c.mu.Unlock()
			return err
		}
		f := c.renderLocked(viewport.TransitionDuration)
		c.mu.Unlock()
		c.emitFit(f)
		return nil
	}

	prev := c.settings.MultiLineChildrenEnabled
	next := !prev
	c.settings.MultiLineChildrenEnabled = next
	f := c.renderLocked(viewport.TransitionDuration)
	c.mu.Unlock()
	c.emitFit(f)

	err := c.backend.SetMultilineEnabled(ctx, next)
	if err == nil {
		// The saved value is authoritative; drop any anonymous override.
		c.mu.Lock()
		if perr := prefs.SetPreference(c.prefs, prefs.KeyCompactLargeTeams, settings.Inherited); perr != nil {
			c.logger.Warn("could not clear compact preference", "error", perr)
		}
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	if orgerr.IsAuth(err) {
		c.authenticated = false
	}
	// A later toggle owns the value now; leave it.
	if c.settings.MultiLineChildrenEnabled != next {
		c.mu.Unlock()
		return err
	}
	c.settings.MultiLineChildrenEnabled = prev
	f = c.renderLocked(viewport.TransitionDuration)
	c.mu.Unlock()
	c.emitFit(f)
	c.logger.Warn("compact teams change reverted", "error", err)
	return err
}

// emitFit publishes f and fits the viewport to its bounds.
func (c *Controller) emitFit(f Frame) {
	c.emit(f)
	c.viewport.Fit(f.Scene.Bounds, viewport.TransitionDuration)
}

// ToggleProfileImages flips the viewer's profile image override.
func (c *Controller) ToggleProfileImages() {
	c.mu.Lock()
	local := prefs.Preference(c.prefs, prefs.KeyShowProfileImages)
	next := settings.Toggle(c.settings.ShowProfileImages, local)
	if err := prefs.SetPreference(c.prefs, prefs.KeyShowProfileImages, next); err != nil {
		c.logger.Warn("could not store preference", "error", err)
	}
	f := c.renderLocked(viewport.TransitionDuration)
	c.mu.Unlock()
	c.emit(f)
}

// SetOrientation switches between vertical and horizontal layout and
// re-fits the chart.
func (c *Controller) SetOrientation(o layout.Orientation) bool {
	if !c.viewport.SetOrientation(o) {
		return false
	}
	c.mu.Lock()
	f := c.renderLocked(viewport.TransitionDuration)
	c.mu.Unlock()
	c.emit(f)
	c.viewport.Fit(f.Scene.Bounds, viewport.TransitionDuration)
	return true
}

// SetAuthenticated records a login or logout.
func (c *Controller) SetAuthenticated(ok bool) {
	c.update(func() bool {
		changed := c.authenticated != ok
		c.authenticated = ok
		return changed
	})
}

// ZoomIn zooms in one step.
func (c *Controller) ZoomIn() viewport.Transform { return c.viewport.ZoomIn() }

// ZoomOut zooms out one step.
func (c *Controller) ZoomOut() viewport.Transform { return c.viewport.ZoomOut() }

// Pan moves the view.
func (c *Controller) Pan(dx, dy float64) viewport.Transform { return c.viewport.Pan(dx, dy) }

// Fit re-fits the visible chart and clears the user-adjusted state.
func (c *Controller) Fit() viewport.Transform { return c.viewport.Reset() }

// Resize records a new container size.
func (c *Controller) Resize(size viewport.Size) { c.viewport.Resize(size) }

// Viewport returns the viewport controller.
func (c *Controller) Viewport() *viewport.Controller { return c.viewport }

// Export draws the chart off screen. full includes collapsed subtrees;
// hidden subtrees are always left out. The xlsx format exports the whole
// directory as a spreadsheet.
func (c *Controller) Export(ctx context.Context, format string, full bool) (*export.Artifact, error) {
	c.mu.Lock()
	if c.tree == nil {
		c.mu.Unlock()
		return nil, orgerr.New(orgerr.ErrCodeNoRoot, "no chart loaded")
	}
	// The exporter runs unlocked, so it gets its own copy of the tree.
	pruned := c.tree.Prune(full, c.overlay.Keep(c.tree))
	req := export.Request{
		Tree:    pruned,
		Pruned:  true,
		Options: c.treeOptionsLocked(),
		Now:     c.now(),
	}
	st := c.settings.Clone()
	admin := c.authenticated
	root := c.tree.Root.Employee
	c.mu.Unlock()

	if format == "xlsx" {
		return exportXLSX(root, st, admin, req.Now)
	}
	if pruned == nil {
		return nil, orgerr.New(orgerr.ErrCodeNoRoot, "every node is hidden")
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	req.Format = f
	return c.exporter.Export(ctx, req)
}

// CompactEnabled reports whether compact teams are in effect for this
// viewer.
func (c *Controller) CompactEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compactLocked()
}

// AvatarsEnabled reports whether profile images are shown.
func (c *Controller) AvatarsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.avatarsLocked()
}

func (c *Controller) compactLocked() bool {
	local := prefs.Preference(c.prefs, prefs.KeyCompactLargeTeams)
	return settings.Resolve(c.settings.MultiLineChildrenEnabled, local, c.authenticated, settings.KindCompact)
}

func (c *Controller) avatarsLocked() bool {
	local := prefs.Preference(c.prefs, prefs.KeyShowProfileImages)
	return settings.Resolve(c.settings.ShowProfileImages, local, c.authenticated, settings.KindProfileImages)
}

// Settings returns a copy of the current settings.
func (c *Controller) Settings() settings.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Clone()
}

// Authenticated reports the login state.
func (c *Controller) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// Hidden returns the ids of hidden subtrees.
func (c *Controller) Hidden() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay.Hidden()
}

// Tree returns the loaded tree, or nil. Callers must not modify it.
func (c *Controller) Tree() *chart.Tree {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree
}

// Err returns the error of the last load and whether settings fell back
// to defaults.
func (c *Controller) Err() (load error, settingsFallback bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr, c.settingsErr != nil
}

// Scene renders the current state without advancing the animation.
func (c *Controller) Scene() *tree.Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tree == nil {
		return nil
	}
	if prev := c.engine.Previous(); prev != nil {
		return prev
	}
	return tree.Build(c.tree, c.treeOptionsLocked())
}

func exportXLSX(root *org.Employee, st settings.Settings, admin bool, now time.Time) (*export.Artifact, error) {
	data, err := xlsx.Export(root, xlsx.OptionsFor(st, admin))
	if err != nil {
		return nil, err
	}
	return &export.Artifact{Filename: xlsx.Filename(now), ContentType: xlsx.ContentType, Data: data}, nil
}
