// Package viewport tracks the pan and zoom of an org chart view.
//
// # Overview
//
// A [Controller] owns the view [Transform] (translate then scale), the
// container size and the chart orientation. It distinguishes transforms
// the user made (pan, zoom buttons) from programmatic ones (fit, focus):
// once the user has adjusted the view, container resizes no longer re-fit
// the chart until the next explicit fit.
//
// Every change is reported to the OnChange callback together with the
// duration its transition should take. A zero duration applies at once.
package viewport

import (
	"fmt"
	"sync"
	"time"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
)

const (
	// MinScale and MaxScale bound the zoom factor.
	MinScale = 0.1
	MaxScale = 3.0

	ZoomInFactor  = 1.2
	ZoomOutFactor = 0.8

	// FitMargin is the share of the container a fitted chart may fill.
	FitMargin = 0.9

	// InitialOffsetY places the root this far below the container top.
	InitialOffsetY = 100
)

// Transition durations.
const (
	TransitionDuration = 500 * time.Millisecond
	ApplyDuration      = 750 * time.Millisecond
	ZoomStepDuration   = 250 * time.Millisecond
	ResetDuration      = 500 * time.Millisecond
	ResizeFitDuration  = 300 * time.Millisecond
	ResizeDebounce     = 180 * time.Millisecond
)

// Transform maps chart coordinates to screen coordinates:
// screen = chart·K + (X, Y).
type Transform struct {
	X, Y float64
	K    float64
}

// Identity is the transform that changes nothing.
var Identity = Transform{K: 1}

// Apply maps a chart point to the screen.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a screen point to the chart.
func (t Transform) Invert(x, y float64) (float64, float64) {
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// String returns the SVG transform attribute value.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", t.X, t.Y, t.K)
}

// Size is a container size in pixels.
type Size struct {
	W, H float64
}

// Change is one transform update.
type Change struct {
	Transform Transform
	Duration  time.Duration
}

// Timer is the part of *time.Timer the controller uses.
type Timer interface {
	Stop() bool
}

// Controller is safe for concurrent use.
type Controller struct {
	mu           sync.Mutex
	transform    Transform
	container    Size
	orientation  layout.Orientation
	bounds       chart.Rect
	userAdjusted bool
	resizeTimer  Timer

	onChange  func(Change)
	afterFunc func(time.Duration, func()) Timer
}

// Option configures a Controller.
type Option func(*Controller)

// WithOnChange registers the transform listener. It is called without
// internal locks held.
func WithOnChange(fn func(Change)) Option { return func(c *Controller) { c.onChange = fn } }

// WithOrientation sets the initial orientation.
func WithOrientation(o layout.Orientation) Option { return func(c *Controller) { c.orientation = o } }

// WithAfterFunc replaces time.AfterFunc for the resize debounce. fn must
// not call f before returning.
func WithAfterFunc(fn func(time.Duration, func()) Timer) Option {
	return func(c *Controller) { c.afterFunc = fn }
}

// New returns a controller for a container of the given size, with the
// root placed at the horizontal center, [InitialOffsetY] below the top.
func New(container Size, opts ...Option) *Controller {
	c := &Controller{
		container: clampSize(container),
		bounds:    chart.EmptyRect(),
		afterFunc: func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
	}
	c.transform = Transform{X: c.container.W / 2, Y: InitialOffsetY, K: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transform returns the current transform.
func (c *Controller) Transform() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

// Container returns the container size.
func (c *Controller) Container() Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.container
}

// UserAdjusted reports whether the user changed the view since the last fit.
func (c *Controller) UserAdjusted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userAdjusted
}

// Orientation returns the chart orientation.
func (c *Controller) Orientation() layout.Orientation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation
}

// SetOrientation switches the orientation and reports whether it changed.
func (c *Controller) SetOrientation(o layout.Orientation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.orientation == o {
		return false
	}
	c.orientation = o
	return true
}

// SetBounds records the chart bounds used by resize re-fits.
func (c *Controller) SetBounds(b chart.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bounds = b
}

// ZoomIn scales by [ZoomInFactor] around the container center.
func (c *Controller) ZoomIn() Transform { return c.ZoomBy(ZoomInFactor) }

// ZoomOut scales by [ZoomOutFactor] around the container center.
func (c *Controller) ZoomOut() Transform { return c.ZoomBy(ZoomOutFactor) }

// ZoomBy multiplies the scale by k around the container center, clamped to
// [MinScale, MaxScale]. It marks the view as user adjusted.
func (c *Controller) ZoomBy(k float64) Transform {
	c.mu.Lock()
	cx, cy := c.container.W/2, c.container.H/2
	t := zoomAround(c.transform, k, cx, cy)
	ch := c.set(t, ZoomStepDuration, true)
	c.mu.Unlock()
	c.emit(ch)
	return t
}

// ZoomAt multiplies the scale by k keeping the screen point (x, y) fixed,
// as a wheel or pinch gesture does. It marks the view as user adjusted.
func (c *Controller) ZoomAt(k, x, y float64) Transform {
	c.mu.Lock()
	t := zoomAround(c.transform, k, x, y)
	ch := c.set(t, 0, true)
	c.mu.Unlock()
	c.emit(ch)
	return t
}

// Pan moves the view by (dx, dy) screen pixels and marks it as user
// adjusted.
func (c *Controller) Pan(dx, dy float64) Transform {
	c.mu.Lock()
	t := c.transform
	t.X += dx
	t.Y += dy
	ch := c.set(t, 0, true)
	c.mu.Unlock()
	c.emit(ch)
	return t
}

// Apply sets a programmatic transform. The scale is clamped. When
// resetUser is true the user-adjusted flag is cleared.
func (c *Controller) Apply(t Transform, d time.Duration, resetUser bool) Transform {
	c.mu.Lock()
	t.K = clampScale(t.K)
	ch := c.set(t, d, false)
	if resetUser {
		c.userAdjusted = false
	}
	c.mu.Unlock()
	c.emit(ch)
	return t
}

// Fit scales and centers bounds within the container, never enlarging
// beyond scale 1, and clears the user-adjusted flag. Empty bounds leave
// the transform unchanged.
func (c *Controller) Fit(bounds chart.Rect, d time.Duration) Transform {
	c.mu.Lock()
	c.bounds = bounds
	if bounds.Empty() {
		t := c.transform
		c.mu.Unlock()
		return t
	}
	t := FitTransform(bounds, c.container)
	ch := c.set(t, d, false)
	c.userAdjusted = false
	c.mu.Unlock()
	c.emit(ch)
	return t
}

// Reset re-fits the last bounds over [ResetDuration].
func (c *Controller) Reset() Transform {
	c.mu.Lock()
	b := c.bounds
	c.mu.Unlock()
	return c.Fit(b, ResetDuration)
}

// Focus centers the chart point (x, y) at scale 1, as search does.
func (c *Controller) Focus(x, y float64) Transform {
	c.mu.Lock()
	t := Transform{X: c.container.W/2 - x, Y: c.container.H/2 - y, K: 1}
	ch := c.set(t, ApplyDuration, false)
	c.mu.Unlock()
	c.emit(ch)
	return t
}

// Resize records a new container size. Unless the user adjusted the view,
// the chart is re-fit over [ResizeFitDuration] once resizes have been
// quiet for [ResizeDebounce].
func (c *Controller) Resize(size Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.container = clampSize(size)
	if c.userAdjusted {
		return
	}
	if c.resizeTimer != nil {
		c.resizeTimer.Stop()
	}
	c.resizeTimer = c.afterFunc(ResizeDebounce, c.refit)
}

func (c *Controller) refit() {
	c.mu.Lock()
	c.resizeTimer = nil
	if c.userAdjusted || c.bounds.Empty() {
		c.mu.Unlock()
		return
	}
	b := c.bounds
	c.mu.Unlock()
	c.Fit(b, ResizeFitDuration)
}

// Close stops a pending resize re-fit.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resizeTimer != nil {
		c.resizeTimer.Stop()
		c.resizeTimer = nil
	}
}

// set must be called with mu held.
func (c *Controller) set(t Transform, d time.Duration, user bool) Change {
	c.transform = t
	if user {
		c.userAdjusted = true
	}
	return Change{Transform: t, Duration: d}
}

func (c *Controller) emit(ch Change) {
	if c.onChange != nil {
		c.onChange(ch)
	}
}

// FitTransform returns the transform that centers bounds in container at
// scale min(0.9·cw/w, 0.9·ch/h, 1). A zero-width or zero-height side does
// not constrain the scale.
func FitTransform(bounds chart.Rect, container Size) Transform {
	container = clampSize(container)
	w, h := bounds.Width(), bounds.Height()
	kx, ky := 1.0, 1.0
	if w > 0 {
		kx = container.W * FitMargin / w
	}
	if h > 0 {
		ky = container.H * FitMargin / h
	}
	k := clampScale(min(kx, ky, 1))
	return Transform{
		X: container.W/2 - bounds.CenterX()*k,
		Y: container.H/2 - bounds.CenterY()*k,
		K: k,
	}
}

func zoomAround(t Transform, k, x, y float64) Transform {
	nk := clampScale(t.K * k)
	wx, wy := t.Invert(x, y)
	return Transform{X: x - wx*nk, Y: y - wy*nk, K: nk}
}

func clampScale(k float64) float64 {
	return max(MinScale, min(MaxScale, k))
}

func clampSize(s Size) Size {
	return Size{W: max(s.W, 1), H: max(s.H, 1)}
}
