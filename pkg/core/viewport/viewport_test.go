package viewport

import (
	"math"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

// fakeTimers collects scheduled callbacks so tests fire them by hand.
type fakeTimers struct {
	mu      sync.Mutex
	pending []*fakeTimer
}

type fakeTimer struct {
	f       func()
	d       time.Duration
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (ft *fakeTimers) after(d time.Duration, f func()) Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{f: f, d: d}
	ft.pending = append(ft.pending, t)
	return t
}

// fire runs every timer that was not stopped and returns how many ran.
func (ft *fakeTimers) fire() int {
	ft.mu.Lock()
	pending := ft.pending
	ft.pending = nil
	ft.mu.Unlock()
	n := 0
	for _, t := range pending {
		if !t.stopped {
			t.f()
			n++
		}
	}
	return n
}

func TestNewInitialTransform(t *testing.T) {
	c := New(Size{W: 800, H: 600})
	if got := c.Transform(); got != (Transform{X: 400, Y: 100, K: 1}) {
		t.Errorf("initial transform = %+v", got)
	}
	if c.UserAdjusted() {
		t.Error("new controller should not be user adjusted")
	}
	if c.Orientation() != layout.Vertical {
		t.Error("default orientation should be vertical")
	}
}

func TestZoomSteps(t *testing.T) {
	var changes []Change
	c := New(Size{W: 800, H: 600}, WithOnChange(func(ch Change) { changes = append(changes, ch) }))

	got := c.ZoomIn()
	if !near(got.K, 1.2) {
		t.Errorf("ZoomIn scale = %v", got.K)
	}
	// The container center stays fixed.
	x, y := got.Invert(400, 300)
	x0, y0 := Transform{X: 400, Y: 100, K: 1}.Invert(400, 300)
	if !near(x, x0) || !near(y, y0) {
		t.Errorf("center moved from (%v,%v) to (%v,%v)", x0, y0, x, y)
	}
	if !c.UserAdjusted() {
		t.Error("zoom should mark the view as user adjusted")
	}

	if got := c.ZoomOut(); !near(got.K, 1.2*0.8) {
		t.Errorf("ZoomOut scale = %v", got.K)
	}
	if len(changes) != 2 || changes[0].Duration != ZoomStepDuration {
		t.Errorf("changes = %+v", changes)
	}
}

func TestZoomClamped(t *testing.T) {
	c := New(Size{W: 800, H: 600})
	for range 30 {
		c.ZoomIn()
	}
	if got := c.Transform().K; got != MaxScale {
		t.Errorf("scale after many zoom-ins = %v, want %v", got, MaxScale)
	}
	for range 60 {
		c.ZoomOut()
	}
	if got := c.Transform().K; got != MinScale {
		t.Errorf("scale after many zoom-outs = %v, want %v", got, MinScale)
	}
}

func TestPanAndFit(t *testing.T) {
	c := New(Size{W: 1000, H: 500})
	c.Pan(10, -5)
	if got := c.Transform(); got.X != 510 || got.Y != 95 || !c.UserAdjusted() {
		t.Errorf("after pan %+v adjusted=%v", got, c.UserAdjusted())
	}

	// 2000×400 chart: width limits the scale to 0.9·1000/2000.
	b := chart.Rect{MinX: -1000, MinY: -40, MaxX: 1000, MaxY: 360}
	got := c.Fit(b, 0)
	if !near(got.K, 0.45) {
		t.Errorf("fit scale = %v, want 0.45", got.K)
	}
	sx, sy := got.Apply(b.CenterX(), b.CenterY())
	if !near(sx, 500) || !near(sy, 250) {
		t.Errorf("bounds center maps to (%v,%v), want container center", sx, sy)
	}
	if c.UserAdjusted() {
		t.Error("fit should clear user adjusted")
	}
}

func TestFitNeverEnlarges(t *testing.T) {
	got := FitTransform(chart.Rect{MinX: -110, MinY: -40, MaxX: 110, MaxY: 40}, Size{W: 1920, H: 1080})
	if got.K != 1 {
		t.Errorf("small chart scale = %v, want 1", got.K)
	}
	if got.X != 960 || got.Y != 540 {
		t.Errorf("small chart not centered: %+v", got)
	}
}

func TestFitEmptyBounds(t *testing.T) {
	c := New(Size{W: 800, H: 600})
	before := c.Transform()
	if got := c.Fit(chart.EmptyRect(), 0); got != before {
		t.Errorf("fit of empty bounds changed transform to %+v", got)
	}
}

func TestFocus(t *testing.T) {
	c := New(Size{W: 800, H: 600})
	c.ZoomIn()
	got := c.Focus(246, 260)
	sx, sy := got.Apply(246, 260)
	if got.K != 1 || sx != 400 || sy != 300 {
		t.Errorf("focus = %+v maps point to (%v,%v)", got, sx, sy)
	}
}

func TestResizeDebounce(t *testing.T) {
	timers := &fakeTimers{}
	var changes []Change
	c := New(Size{W: 800, H: 600},
		WithAfterFunc(timers.after),
		WithOnChange(func(ch Change) { changes = append(changes, ch) }))
	c.SetBounds(chart.Rect{MinX: -1000, MinY: -40, MaxX: 1000, MaxY: 300})

	c.Resize(Size{W: 900, H: 600})
	c.Resize(Size{W: 1000, H: 600})
	if n := timers.fire(); n != 1 {
		t.Fatalf("fired %d re-fits, want 1 after debounce", n)
	}
	if len(changes) != 1 || changes[0].Duration != ResizeFitDuration {
		t.Fatalf("changes = %+v", changes)
	}
	if !near(changes[0].Transform.K, 0.45) {
		t.Errorf("re-fit scale = %v, want fit to the last container", changes[0].Transform.K)
	}
}

func TestResizeAfterUserAdjust(t *testing.T) {
	timers := &fakeTimers{}
	c := New(Size{W: 800, H: 600}, WithAfterFunc(timers.after))
	c.SetBounds(chart.Rect{MinX: -500, MinY: -40, MaxX: 500, MaxY: 300})

	c.ZoomIn()
	before := c.Transform()
	c.Resize(Size{W: 400, H: 300})
	if n := timers.fire(); n != 0 {
		t.Errorf("user-adjusted view scheduled %d re-fits", n)
	}
	if c.Transform() != before {
		t.Error("transform changed after resize of a user-adjusted view")
	}
	if c.Container() != (Size{W: 400, H: 300}) {
		t.Error("container size should still update")
	}

	// A pending re-fit is dropped if the user adjusts before it fires.
	c.Reset()
	c.Resize(Size{W: 800, H: 600})
	c.Pan(5, 5)
	before = c.Transform()
	timers.fire()
	if c.Transform() != before {
		t.Error("re-fit ran after the user adjusted the view")
	}
}

func TestSetOrientation(t *testing.T) {
	c := New(Size{W: 800, H: 600}, WithOrientation(layout.Horizontal))
	if c.SetOrientation(layout.Horizontal) {
		t.Error("same orientation reported as changed")
	}
	if !c.SetOrientation(layout.Vertical) || c.Orientation() != layout.Vertical {
		t.Error("orientation switch failed")
	}
}

func TestApplyResetUser(t *testing.T) {
	c := New(Size{W: 800, H: 600})
	c.Pan(1, 1)
	c.Apply(Transform{X: 1, Y: 2, K: 10}, 0, false)
	if !c.UserAdjusted() {
		t.Error("Apply without resetUser should keep the flag")
	}
	got := c.Apply(Transform{X: 1, Y: 2, K: 10}, 0, true)
	if got.K != MaxScale || c.UserAdjusted() {
		t.Errorf("Apply = %+v adjusted=%v", got, c.UserAdjusted())
	}
}

func TestTransformString(t *testing.T) {
	if got := (Transform{X: 400, Y: 100, K: 1.5}).String(); got != "translate(400,100) scale(1.5)" {
		t.Errorf("String = %q", got)
	}
}

func TestZoomProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := New(Size{W: rapid.Float64Range(1, 4000).Draw(t, "w"), H: rapid.Float64Range(1, 4000).Draw(t, "h")})
		steps := rapid.SliceOf(rapid.SampledFrom([]string{"in", "out", "pan", "at"})).Draw(t, "steps")
		for _, s := range steps {
			switch s {
			case "in":
				c.ZoomIn()
			case "out":
				c.ZoomOut()
			case "pan":
				c.Pan(rapid.Float64Range(-100, 100).Draw(t, "dx"), rapid.Float64Range(-100, 100).Draw(t, "dy"))
			case "at":
				c.ZoomAt(rapid.Float64Range(0.5, 2).Draw(t, "k"), rapid.Float64Range(0, 100).Draw(t, "x"), rapid.Float64Range(0, 100).Draw(t, "y"))
			}
			if k := c.Transform().K; k < MinScale || k > MaxScale {
				t.Fatalf("scale %v out of range", k)
			}
		}
		if len(steps) > 0 && !c.UserAdjusted() {
			t.Fatal("user steps should mark the view as adjusted")
		}
	})
}
