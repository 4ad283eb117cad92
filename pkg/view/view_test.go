package view

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/orgchart/pkg/core/chart/charttest"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
	"github.com/matzehuels/orgchart/pkg/core/viewport"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/prefs"
	"github.com/matzehuels/orgchart/pkg/settings"
)

type fakeBackend struct {
	mu          sync.Mutex
	root        *org.Employee
	settings    settings.Settings
	settingsErr error
	employeeErr error
	multiErr    error
	multiCalls  []bool
}

func newFake() *fakeBackend {
	// n0 → n1 → {n2 → {n4, n5}, n3 → n6}
	return &fakeBackend{
		root:     charttest.Shape([]int{0, 1, 1, 2, 2, 3}),
		settings: settings.Defaults(),
	}
}

func (f *fakeBackend) Employees(context.Context) (*org.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.root, f.employeeErr
}

func (f *fakeBackend) Settings(context.Context) (settings.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings.Clone(), f.settingsErr
}

func (f *fakeBackend) Search(_ context.Context, q string) ([]org.Summary, error) {
	return []org.Summary{{ID: "n4", Name: q}}, nil
}

func (f *fakeBackend) SetMultilineEnabled(_ context.Context, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.multiCalls = append(f.multiCalls, enabled)
	if f.multiErr != nil {
		return f.multiErr
	}
	f.settings.MultiLineChildrenEnabled = enabled
	return nil
}

func loaded(t *testing.T, b *fakeBackend, opts ...Option) (*Controller, *[]Frame) {
	t.Helper()
	var frames []Frame
	opts = append(opts, WithOnFrame(func(f Frame) { frames = append(frames, f) }))
	c := New(b, opts...)
	t.Cleanup(c.Viewport().Close)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c, &frames
}

func sceneIDs(c *Controller) []string {
	s := c.Scene()
	ids := make([]string, 0, s.Len())
	for _, e := range s.Elements {
		ids = append(ids, e.ID)
	}
	slices.Sort(ids)
	return ids
}

func TestLoad(t *testing.T) {
	c, frames := loaded(t, newFake())

	if got, want := sceneIDs(c), []string{"n0", "n1"}; !slices.Equal(got, want) {
		t.Errorf("visible = %v, want %v", got, want)
	}
	if len(*frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(*frames))
	}
	if d := (*frames)[0].Transition.Duration; d != 0 {
		t.Errorf("first frame duration = %v, want 0", d)
	}
	if err, fallback := c.Err(); err != nil || fallback {
		t.Errorf("Err() = %v, %v", err, fallback)
	}
}

func TestLoadSettingsFallback(t *testing.T) {
	b := newFake()
	b.settingsErr = orgerr.New(orgerr.ErrCodeNetwork, "down")
	b.settings.ChartTitle = "ignored"

	c, _ := loaded(t, b)
	if got := c.Settings().ChartTitle; got != settings.Defaults().ChartTitle {
		t.Errorf("ChartTitle = %q, want default", got)
	}
	if _, fallback := c.Err(); !fallback {
		t.Error("settings fallback not reported")
	}
	if c.Tree() == nil {
		t.Error("tree not loaded")
	}
}

func TestLoadErrorKeepsTree(t *testing.T) {
	b := newFake()
	c, _ := loaded(t, b)
	before := c.Tree()

	b.employeeErr = orgerr.New(orgerr.ErrCodeNetwork, "down")
	if err := c.Load(context.Background()); err == nil {
		t.Fatal("Load succeeded, want error")
	}
	if c.Tree() != before {
		t.Error("tree replaced after failed load")
	}
	if err, _ := c.Err(); !orgerr.Is(err, orgerr.ErrCodeNetwork) {
		t.Errorf("Err() = %v, want NETWORK", err)
	}
}

func TestLoadIgnoresStaleResponse(t *testing.T) {
	b := newFake()
	c, _ := loaded(t, b)
	before := c.Tree()

	b.employeeErr = orgerr.New(orgerr.ErrCodeStaleResponse, "superseded")
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Tree() != before {
		t.Error("stale response replaced the tree")
	}
}

func TestToggle(t *testing.T) {
	c, frames := loaded(t, newFake())

	if !c.Toggle("n1") {
		t.Fatal("Toggle(n1) = false")
	}
	if got, want := sceneIDs(c), []string{"n0", "n1", "n2", "n3"}; !slices.Equal(got, want) {
		t.Errorf("after expand = %v, want %v", got, want)
	}
	last := (*frames)[len(*frames)-1]
	if len(last.Transition.Entering) != 2 {
		t.Errorf("entering = %d, want 2", len(last.Transition.Entering))
	}

	c.Toggle("n1")
	if got, want := sceneIDs(c), []string{"n0", "n1"}; !slices.Equal(got, want) {
		t.Errorf("after collapse = %v, want %v", got, want)
	}
	if c.Toggle("nope") {
		t.Error("Toggle(unknown) = true")
	}
	c.ExpandAll()
	if c.Toggle("n4") {
		t.Error("Toggle(leaf) = true")
	}
}

func TestExpandCollapseAll(t *testing.T) {
	c, _ := loaded(t, newFake())

	c.ExpandAll()
	if got := len(sceneIDs(c)); got != 7 {
		t.Errorf("ExpandAll visible = %d, want 7", got)
	}
	c.CollapseAll()
	if got, want := sceneIDs(c), []string{"n0", "n1"}; !slices.Equal(got, want) {
		t.Errorf("CollapseAll visible = %v, want %v", got, want)
	}
}

func TestReloadKeepsCollapseState(t *testing.T) {
	c, _ := loaded(t, newFake())
	c.ExpandAll()
	c.Toggle("n2")

	if err := c.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got, want := sceneIDs(c), []string{"n0", "n1", "n2", "n3", "n6"}; !slices.Equal(got, want) {
		t.Errorf("visible = %v, want %v", got, want)
	}
}

func TestToggleHiddenPersists(t *testing.T) {
	store := prefs.NewMemory()
	b := newFake()
	c, _ := loaded(t, b, WithPrefs(store))

	if !c.ToggleHidden("n1") {
		t.Fatal("ToggleHidden(n1) = false")
	}
	if c.ToggleHidden("missing") {
		t.Error("ToggleHidden(missing) = true")
	}
	el, _ := c.Scene().Find("n1")
	if !el.Hidden {
		t.Error("n1 not drawn hidden")
	}

	again, _ := loaded(t, b, WithPrefs(store))
	if got := again.Hidden(); !slices.Equal(got, []string{"n1"}) {
		t.Errorf("restored hidden = %v, want [n1]", got)
	}

	again.ResetHidden()
	if got := prefs.LoadOverlay(store).Len(); got != 0 {
		t.Errorf("stored hidden after reset = %d, want 0", got)
	}
}

func TestToggleCompactAnonymousIsLocal(t *testing.T) {
	store := prefs.NewMemory()
	b := newFake()
	b.settings.MultiLineChildrenEnabled = false
	c, _ := loaded(t, b, WithPrefs(store))

	if c.CompactEnabled() {
		t.Fatal("compact enabled before toggle")
	}
	if err := c.ToggleCompact(context.Background()); err != nil {
		t.Fatalf("ToggleCompact: %v", err)
	}
	if !c.CompactEnabled() {
		t.Error("compact not enabled after toggle")
	}
	if len(b.multiCalls) != 0 {
		t.Errorf("server called %v, want no calls", b.multiCalls)
	}
	if got := prefs.Preference(store, prefs.KeyCompactLargeTeams); got != settings.Enabled {
		t.Errorf("stored preference = %v, want enabled", got)
	}

	// Flipping back stores an explicit value even when it matches the server.
	_ = c.ToggleCompact(context.Background())
	if got := prefs.Preference(store, prefs.KeyCompactLargeTeams); got != settings.Disabled {
		t.Errorf("stored preference = %v, want disabled", got)
	}
	if c.CompactEnabled() {
		t.Error("compact still enabled after second toggle")
	}
}

func TestToggleCompactAuthenticated(t *testing.T) {
	b := newFake()
	b.settings.MultiLineChildrenEnabled = false
	c, _ := loaded(t, b, WithAuthenticated(true))

	if err := c.ToggleCompact(context.Background()); err != nil {
		t.Fatalf("ToggleCompact: %v", err)
	}
	if !c.CompactEnabled() {
		t.Error("compact not enabled")
	}
	if !slices.Equal(b.multiCalls, []bool{true}) {
		t.Errorf("server calls = %v, want [true]", b.multiCalls)
	}
}

func TestToggleCompactAuthenticatedClearsLocalOverride(t *testing.T) {
	store := prefs.NewMemory()
	if err := prefs.SetPreference(store, prefs.KeyCompactLargeTeams, settings.Disabled); err != nil {
		t.Fatal(err)
	}
	b := newFake()
	b.settings.MultiLineChildrenEnabled = false
	c, _ := loaded(t, b, WithPrefs(store), WithAuthenticated(true))

	if err := c.ToggleCompact(context.Background()); err != nil {
		t.Fatalf("ToggleCompact: %v", err)
	}
	if got := prefs.Preference(store, prefs.KeyCompactLargeTeams); got != settings.Inherited {
		t.Errorf("stored preference = %v, want inherited after save", got)
	}

	// The stale override must not come back once the session ends.
	c.SetAuthenticated(false)
	if !c.CompactEnabled() {
		t.Error("compact disabled by a stale local override")
	}
}

func TestToggleCompactRefits(t *testing.T) {
	for _, auth := range []bool{false, true} {
		b := newFake()
		c, _ := loaded(t, b, WithPrefs(prefs.NewMemory()), WithAuthenticated(auth))
		c.Pan(40, -25)
		if !c.Viewport().UserAdjusted() {
			t.Fatal("pan did not mark the view as adjusted")
		}

		if err := c.ToggleCompact(context.Background()); err != nil {
			t.Fatalf("ToggleCompact: %v", err)
		}
		vp := c.Viewport()
		if vp.UserAdjusted() {
			t.Errorf("authenticated=%v: view still user adjusted after toggle", auth)
		}
		if want := viewport.FitTransform(c.Scene().Bounds, vp.Container()); vp.Transform() != want {
			t.Errorf("authenticated=%v: transform = %+v, want fit %+v", auth, vp.Transform(), want)
		}
	}
}

func TestToggleCompactRevertsOnUnauthorized(t *testing.T) {
	b := newFake()
	b.settings.MultiLineChildrenEnabled = false
	b.multiErr = orgerr.New(orgerr.ErrCodeSessionExpired, "expired")
	c, frames := loaded(t, b, WithAuthenticated(true))

	err := c.ToggleCompact(context.Background())
	if !orgerr.Is(err, orgerr.ErrCodeSessionExpired) {
		t.Fatalf("err = %v, want SESSION_EXPIRED", err)
	}
	if c.Settings().MultiLineChildrenEnabled {
		t.Error("optimistic change not reverted")
	}
	if c.Authenticated() {
		t.Error("still authenticated after 401")
	}
	// load, optimistic, revert
	if len(*frames) != 3 {
		t.Errorf("frames = %d, want 3", len(*frames))
	}
}

func TestToggleProfileImages(t *testing.T) {
	b := newFake()
	c, _ := loaded(t, b, WithAuthenticated(true))

	want := !c.AvatarsEnabled()
	c.ToggleProfileImages()
	if got := c.AvatarsEnabled(); got != want {
		t.Errorf("AvatarsEnabled = %v, want %v", got, want)
	}
	if len(b.multiCalls) != 0 {
		t.Error("profile images toggle reached the server")
	}
}

func TestSearchSelect(t *testing.T) {
	tests := []struct {
		name       string
		autoExpand bool
		highlight  bool
		wantVis    bool
	}{
		{"expand and highlight", true, true, true},
		{"no expand", false, true, false},
		{"expand only", true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFake()
			b.settings.SearchAutoExpand = tt.autoExpand
			b.settings.SearchHighlight = tt.highlight
			c, _ := loaded(t, b)

			if got := c.SearchSelect("n4"); got != tt.wantVis {
				t.Errorf("SearchSelect = %v, want %v", got, tt.wantVis)
			}
			_, inScene := c.Scene().Find("n4")
			if inScene != tt.wantVis {
				t.Errorf("n4 in scene = %v, want %v", inScene, tt.wantVis)
			}
			if tt.wantVis && c.Viewport().Transform().K != 1 {
				t.Errorf("scale = %v, want 1 after focus", c.Viewport().Transform().K)
			}
		})
	}
}

func TestSetOrientation(t *testing.T) {
	c, _ := loaded(t, newFake())

	if !c.SetOrientation(layout.Horizontal) {
		t.Fatal("SetOrientation(horizontal) = false")
	}
	if c.SetOrientation(layout.Horizontal) {
		t.Error("second SetOrientation(horizontal) = true")
	}
	if got := c.Scene().Config.Orientation; got != layout.Horizontal {
		t.Errorf("scene orientation = %v, want horizontal", got)
	}
	if c.Viewport().UserAdjusted() {
		t.Error("orientation change left the view user-adjusted")
	}
}

func TestExport(t *testing.T) {
	c, _ := loaded(t, newFake())
	ctx := context.Background()

	art, err := c.Export(ctx, "json", true)
	if err != nil {
		t.Fatalf("Export(json): %v", err)
	}
	if art.ContentType != "application/json" {
		t.Errorf("ContentType = %q", art.ContentType)
	}

	art, err = c.Export(ctx, "xlsx", false)
	if err != nil {
		t.Fatalf("Export(xlsx): %v", err)
	}
	if len(art.Data) < 2 || string(art.Data[:2]) != "PK" {
		t.Error("xlsx export is not a zip archive")
	}

	if _, err := c.Export(ctx, "gif", false); !orgerr.Is(err, orgerr.ErrCodeInvalidFormat) {
		t.Errorf("Export(gif) err = %v, want INVALID_FORMAT", err)
	}
}

func TestExportSkipsHiddenSubtrees(t *testing.T) {
	c, _ := loaded(t, newFake())
	c.ExpandAll()
	c.ToggleHidden("n2")

	art, err := c.Export(context.Background(), "json", false)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{`"id": "n2"`, `"id": "n4"`, `"id": "n5"`} {
		if strings.Contains(string(art.Data), id) {
			t.Errorf("export contains hidden node %s", id)
		}
	}
	if !strings.Contains(string(art.Data), `"id": "n6"`) {
		t.Error("export lost a visible node")
	}

	c.ToggleHidden("n0")
	if _, err := c.Export(context.Background(), "svg", false); !orgerr.Is(err, orgerr.ErrCodeNoRoot) {
		t.Errorf("export with hidden root err = %v, want NO_ROOT", err)
	}
}

// Run with -race: Export lays out a copy while Toggle mutates the tree.
func TestExportWhileToggling(t *testing.T) {
	c, _ := loaded(t, newFake())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 500 {
			c.Toggle("n1")
		}
	}()
	go func() {
		defer wg.Done()
		for range 20 {
			if _, err := c.Export(ctx, "json", false); err != nil {
				t.Errorf("Export: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}

func TestExportWithoutTree(t *testing.T) {
	c := New(newFake())
	defer c.Viewport().Close()
	if _, err := c.Export(context.Background(), "svg", false); !orgerr.Is(err, orgerr.ErrCodeNoRoot) {
		t.Errorf("err = %v, want NO_ROOT", err)
	}
}

func TestRows(t *testing.T) {
	c, _ := loaded(t, newFake())
	c.Toggle("n1")
	c.ToggleHidden("n2")

	rows := c.Rows()
	var got []string
	for _, r := range rows {
		got = append(got, r.ID)
	}
	if want := []string{"n0", "n1", "n2", "n3"}; !slices.Equal(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	if rows[1].Depth != 1 || rows[1].Reports != 2 || rows[1].Collapsed {
		t.Errorf("n1 row = %+v", rows[1])
	}
	if !rows[2].Hidden || !rows[2].Collapsed || rows[3].Hidden {
		t.Errorf("hidden/collapsed flags wrong: n2 %+v, n3 %+v", rows[2], rows[3])
	}
}
