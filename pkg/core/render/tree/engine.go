package tree

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/chart/visibility"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/compact"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/links"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/reconcile"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/styles"
)

// Options control one frame.
type Options struct {
	Layout  layout.Config
	Compact compact.Options
	Styles  styles.Options

	// Overlay marks hidden subtrees. Hidden nodes are laid out and drawn
	// with hidden styling. May be nil.
	Overlay *visibility.Overlay

	// Highlight is the id of a search match to emphasize.
	Highlight string

	// Duration of the transition to this frame. Zero applies it at once.
	Duration time.Duration
}

// DefaultOptions returns the standard layout, compaction and styling.
func DefaultOptions() Options {
	return Options{
		Layout:   layout.DefaultConfig(),
		Compact:  compact.DefaultOptions(),
		Styles:   styles.DefaultOptions(),
		Duration: 500 * time.Millisecond,
	}
}

// Motion moves a node element between two points.
type Motion struct {
	Element  Element
	From, To links.Point
}

// At returns the position at progress p in [0,1].
func (m Motion) At(p float64) links.Point {
	p = max(0, min(1, p))
	return links.Point{X: m.From.X + (m.To.X-m.From.X)*p, Y: m.From.Y + (m.To.Y-m.From.Y)*p}
}

// PathMotion morphs a link between two paths.
type PathMotion struct {
	Link     links.Link
	From, To links.Path
}

// Transition describes how to animate from the previous frame to the new
// one.
type Transition struct {
	Duration time.Duration

	Entering []Motion
	Updating []Motion
	Exiting  []Motion

	EnteringLinks []PathMotion
	UpdatingLinks []PathMotion
	ExitingLinks  []PathMotion
}

// Immediate reports whether the transition has no animation.
func (t Transition) Immediate() bool { return t.Duration <= 0 }

// Engine renders successive frames of one chart and diffs each against the
// last. It is safe for concurrent use; frames are serialized.
type Engine struct {
	mu     sync.Mutex
	prev   *Scene
	logger *log.Logger
}

// EngineOption configures an [Engine].
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) EngineOption { return func(e *Engine) { e.logger = l } }

// NewEngine returns an engine with no previous frame.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: log.NewWithOptions(io.Discard, log.Options{})}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset forgets the previous frame so the next one enters from scratch.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prev = nil
}

// Previous returns the last rendered scene, or nil.
func (e *Engine) Previous() *Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prev
}

// Frame lays out t, builds its scene and diffs it against the previous
// frame. Positions are written to the tree's nodes, and each visible node's
// position is saved as its previous one afterwards.
func (e *Engine) Frame(t *chart.Tree, opts Options) (*Scene, Transition) {
	e.mu.Lock()
	defer e.mu.Unlock()

	scene := Build(t, opts)
	tr := diff(e.prev, scene, opts.Duration)
	t.SavePositions()

	e.logger.Debug("frame",
		"nodes", scene.Len(),
		"links", len(scene.Links),
		"entering", len(tr.Entering),
		"exiting", len(tr.Exiting),
		"groups", len(scene.Groups))
	e.prev = scene
	return scene, tr
}

// Build lays out the visible tree of t and returns its scene without
// diffing. Off-screen renders use it directly.
func Build(t *chart.Tree, opts Options) *Scene {
	cfg := opts.Layout
	layout.Apply(t, cfg)
	res := compact.Apply(t, cfg, opts.Compact)

	s := &Scene{
		Config: cfg,
		Links:  links.Build(t, cfg, res),
		Groups: res.Groups,
		Bounds: t.Bounds(cfg.NodeWidth, cfg.NodeHeight),
	}
	for _, n := range t.VisibleNodes() {
		hidden := opts.Overlay != nil && opts.Overlay.IsHidden(t, n.ID())
		el := Element{
			ID:       n.ID(),
			X:        n.X,
			Y:        n.Y,
			Depth:    n.Depth,
			Hidden:   hidden,
			Employee: n.Employee,
			Style: styles.Describe(n, styles.State{
				Hidden:      hidden,
				Highlighted: opts.Highlight != "" && opts.Highlight == n.ID(),
			}, cfg, opts.Styles),
		}
		if n.Parent != nil {
			el.ParentID = n.Parent.ID()
		}
		s.Elements = append(s.Elements, el)
	}
	s.index()
	return s
}

func diff(prev, next *Scene, d time.Duration) Transition {
	tr := Transition{Duration: d}
	var prevEls []Element
	var prevLinks []links.Link
	if prev != nil {
		prevEls, prevLinks = prev.Elements, prev.Links
	}
	elemID := func(e Element) string { return e.ID }
	linkID := func(l links.Link) string { return l.ID }

	nodes := reconcile.Diff(prevEls, next.Elements, elemID)
	for _, el := range nodes.Entering {
		tr.Entering = append(tr.Entering, Motion{Element: el, From: enterPoint(prev, next, el), To: el.Point()})
	}
	for _, u := range nodes.Updating {
		tr.Updating = append(tr.Updating, Motion{Element: u.Next, From: u.Prev.Point(), To: u.Next.Point()})
	}
	for _, el := range nodes.Exiting {
		tr.Exiting = append(tr.Exiting, Motion{Element: el, From: el.Point(), To: exitPoint(prev, next, el)})
	}

	cfg := next.Config
	ls := reconcile.Diff(prevLinks, next.Links, linkID)
	for _, l := range ls.Entering {
		from := l.Path
		if l.Kind == links.Elbow {
			if child, ok := next.Find(l.Target); ok {
				o := enterPoint(prev, next, child)
				from = links.ElbowPath(o, o, cfg)
			}
		}
		tr.EnteringLinks = append(tr.EnteringLinks, PathMotion{Link: l, From: from, To: l.Path})
	}
	for _, u := range ls.Updating {
		tr.UpdatingLinks = append(tr.UpdatingLinks, PathMotion{Link: u.Next, From: u.Prev.Path, To: u.Next.Path})
	}
	for _, l := range ls.Exiting {
		to := l.Path
		if l.Kind == links.Elbow {
			if child, ok := prev.Find(l.Target); ok {
				p := exitPoint(prev, next, child)
				to = links.ElbowPath(p, p, cfg)
			}
		}
		tr.ExitingLinks = append(tr.ExitingLinks, PathMotion{Link: l, From: l.Path, To: to})
	}
	return tr
}

// enterPoint is where an entering element starts: its parent's position in
// the previous frame, else the parent's new position, else its own.
func enterPoint(prev, next *Scene, el Element) links.Point {
	if p, ok := prev.Find(el.ParentID); ok {
		return p.Point()
	}
	if p, ok := next.Find(el.ParentID); ok {
		return p.Point()
	}
	return el.Point()
}

// exitPoint is where an exiting element goes: the new position of its
// nearest ancestor that is still on screen.
func exitPoint(prev, next *Scene, el Element) links.Point {
	id := el.ParentID
	for id != "" {
		if p, ok := next.Find(id); ok {
			return p.Point()
		}
		anc, ok := prev.Find(id)
		if !ok {
			break
		}
		id = anc.ParentID
	}
	return el.Point()
}
