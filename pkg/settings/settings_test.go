package settings

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/orgchart/pkg/cache"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.ChartTitle != "DB Auto Org Chart" || d.HeaderColor != "#0078d4" {
		t.Errorf("branding = %q %q", d.ChartTitle, d.HeaderColor)
	}
	if d.CollapseLevel != "2" || d.UpdateTime != "20:00" || d.UpdateTimezone != "UTC" {
		t.Errorf("collapse/update = %q %q %q", d.CollapseLevel, d.UpdateTime, d.UpdateTimezone)
	}
	if !d.MultiLineChildrenEnabled || d.MultiLineChildrenThreshold != 20 || d.MultiLineCompactGap != 36 {
		t.Errorf("compaction = %v %d %v", d.MultiLineChildrenEnabled, d.MultiLineChildrenThreshold, d.MultiLineCompactGap)
	}
	if d.NewEmployeeMonths != 3 {
		t.Errorf("NewEmployeeMonths = %d", d.NewEmployeeMonths)
	}
	if len(d.NodeColors) != 8 || d.NodeColors["level0"] != "#90EE90" {
		t.Errorf("NodeColors = %v", d.NodeColors)
	}
	if d.ExportXlsxColumns["hireDate"] != ColumnAdmin {
		t.Errorf("hireDate column = %q, want admin", d.ExportXlsxColumns["hireDate"])
	}
	if d.IgnoredDepartments != "Consultant Group" {
		t.Errorf("IgnoredDepartments = %q", d.IgnoredDepartments)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}

	// Defaults must not share maps between calls.
	d.NodeColors["level0"] = "#000000"
	if Defaults().NodeColors["level0"] != "#90EE90" {
		t.Error("Defaults shares its node color map")
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		check func(t *testing.T, s Settings)
	}{
		{
			name:  "empty object keeps base",
			patch: `{}`,
			check: func(t *testing.T, s Settings) {
				if s.ChartTitle != "DB Auto Org Chart" || len(s.NodeColors) != 8 {
					t.Errorf("got %q, %d colors", s.ChartTitle, len(s.NodeColors))
				}
			},
		},
		{
			name:  "scalar override",
			patch: `{"chartTitle":"Acme","multiLineChildrenEnabled":false}`,
			check: func(t *testing.T, s Settings) {
				if s.ChartTitle != "Acme" || s.MultiLineChildrenEnabled {
					t.Errorf("got %q, %v", s.ChartTitle, s.MultiLineChildrenEnabled)
				}
				if !s.ShowDepartments {
					t.Error("untouched field lost its value")
				}
			},
		},
		{
			name:  "node colors merge per key",
			patch: `{"nodeColors":{"level1":"#111111"}}`,
			check: func(t *testing.T, s Settings) {
				if s.NodeColors["level1"] != "#111111" {
					t.Errorf("level1 = %q", s.NodeColors["level1"])
				}
				if s.NodeColors["level0"] != "#90EE90" {
					t.Errorf("level0 = %q, want default kept", s.NodeColors["level0"])
				}
			},
		},
		{
			name:  "export columns merge per key",
			patch: `{"exportXlsxColumns":{"email":"hide"}}`,
			check: func(t *testing.T, s Settings) {
				if s.ExportXlsxColumns["email"] != ColumnHide || s.ExportXlsxColumns["name"] != ColumnShow {
					t.Errorf("columns = %v", s.ExportXlsxColumns)
				}
			},
		},
		{
			name:  "unknown keys ignored",
			patch: `{"somethingNew":1,"showNames":false}`,
			check: func(t *testing.T, s Settings) {
				if s.ShowNames {
					t.Error("ShowNames = true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := Defaults()
			got, err := Merge(base, []byte(tt.patch))
			if err != nil {
				t.Fatalf("Merge: %v", err)
			}
			tt.check(t, got)
			if base.NodeColors["level1"] != "#FFFFE0" || base.ChartTitle != "DB Auto Org Chart" {
				t.Error("Merge modified base")
			}
		})
	}
}

func TestMergeInvalidJSON(t *testing.T) {
	_, err := Merge(Defaults(), []byte(`{"chartTitle":`))
	if !orgerr.Is(err, orgerr.ErrCodeInvalidSettings) {
		t.Errorf("err = %v, want INVALID_SETTINGS", err)
	}
}

func TestApplyEnvironment(t *testing.T) {
	s := Defaults()
	s.TopUserEmail = "stored@example.com"
	if got := ApplyEnvironment(s, "  ").TopUserEmail; got != "stored@example.com" {
		t.Errorf("blank env: %q", got)
	}
	if got := ApplyEnvironment(s, " ceo@example.com ").TopUserEmail; got != "ceo@example.com" {
		t.Errorf("env override: %q", got)
	}
}

func TestTopUser(t *testing.T) {
	s := Defaults()
	s.TopUserEmail = "stored@example.com"
	empty, pinned := "", " pinned@example.com "

	tests := []struct {
		name     string
		override *string
		env      string
		want     string
	}{
		{"stored", nil, "", "stored@example.com"},
		{"env wins over stored", nil, "env@example.com", "env@example.com"},
		{"session wins over env", &pinned, "env@example.com", "pinned@example.com"},
		{"empty session auto-detects", &empty, "env@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.TopUser(tt.override, tt.env); got != tt.want {
				t.Errorf("TopUser() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		ok     bool
	}{
		{"defaults", func(*Settings) {}, true},
		{"collapse all", func(s *Settings) { s.CollapseLevel = "all" }, true},
		{"bad collapse", func(s *Settings) { s.CollapseLevel = "zero" }, false},
		{"bad header color", func(s *Settings) { s.HeaderColor = "blue" }, false},
		{"bad node color", func(s *Settings) { s.NodeColors["level3"] = "#12" }, false},
		{"empty node color", func(s *Settings) { s.NodeColors["level3"] = "" }, true},
		{"bad update time", func(s *Settings) { s.UpdateTime = "25:00" }, false},
		{"negative threshold", func(s *Settings) { s.MultiLineChildrenThreshold = -1 }, false},
		{"negative gap", func(s *Settings) { s.MultiLineCompactGap = -5 }, false},
		{"legacy admin spelling", func(s *Settings) { s.ExportXlsxColumns["email"] = "show_admin_only" }, true},
		{"bad column mode", func(s *Settings) { s.ExportXlsxColumns["email"] = "sometimes" }, false},
		{"bad email", func(s *Settings) { s.TopUserEmail = "not an email" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.modify(&s)
			err := s.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !orgerr.Is(err, orgerr.ErrCodeInvalidSettings) && !orgerr.Is(err, orgerr.ErrCodeInvalidInput) {
				t.Errorf("Validate() = %v, want a validation error", err)
			}
		})
	}
}

func TestFilters(t *testing.T) {
	s := Defaults()
	s.IgnoredTitles = `["Intern"]`
	s.IgnoredEmployees = "Bot Account; svc@example.com"
	f := s.Filters()

	disabled := false
	tests := []struct {
		name string
		e    *org.Employee
		skip bool
	}{
		{"regular", &org.Employee{ID: "1", Name: "Ann", Title: "Engineer", Department: "R&D"}, false},
		{"consultant group", &org.Employee{ID: "2", Name: "Bob", Title: "Advisor", Department: "consultant group"}, true},
		{"ignored title", &org.Employee{ID: "3", Name: "Cy", Title: "intern"}, true},
		{"ignored email", &org.Employee{ID: "4", Name: "Svc", Title: "Robot", Email: "SVC@example.com"}, true},
		{"disabled", &org.Employee{ID: "5", Name: "Dee", Title: "Engineer", AccountEnabled: &disabled}, true},
		{"guest", &org.Employee{ID: "6", Name: "Eve", Title: "Engineer", UserType: "Guest"}, true},
		{"no title", &org.Employee{ID: "7", Name: "Fay"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Skip(tt.e); got != tt.skip {
				t.Errorf("Skip = %v, want %v (reasons %v)", got, tt.skip, f.Reasons(tt.e))
			}
		})
	}
}

func TestRenderOptions(t *testing.T) {
	s := Defaults()
	s.MultiLineChildrenThreshold = 12
	s.MultiLineCompactGap = 0
	c := s.CompactOptions(false)
	if c.Enabled || c.Threshold != 12 || c.Gap != 36 {
		t.Errorf("CompactOptions = %+v", c)
	}

	s.ShowDepartments = false
	st := s.StyleOptions(true)
	if !st.Avatars || st.Departments || st.Palette.Fill(0) != "#90EE90" {
		t.Errorf("StyleOptions = %+v", st)
	}
}

func TestInitialCollapseLevel(t *testing.T) {
	s := Defaults()
	s.CollapseLevel = "bogus"
	if got := s.InitialCollapseLevel(); got != "2" {
		t.Errorf("InitialCollapseLevel = %q, want 2", got)
	}
	s.CollapseLevel = "all"
	if got := s.InitialCollapseLevel(); got != "all" {
		t.Errorf("InitialCollapseLevel = %q, want all", got)
	}
}

func TestVisibleColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns map[string]string
		admin   bool
		want    []string
	}{
		{
			name:  "defaults hide hire date from viewers",
			admin: false,
			want:  []string{"name", "title", "department", "email", "phone", "businessPhone", "country", "state", "city", "office", "manager"},
		},
		{
			name:  "defaults show hire date to admins",
			admin: true,
			want:  slices.Clone(ExportColumns),
		},
		{
			name: "everything hidden falls back to name",
			columns: map[string]string{
				"name": "hide", "title": "hide", "department": "hide", "email": "hide",
				"phone": "hide", "businessPhone": "hide", "hireDate": "hide", "country": "hide",
				"state": "hide", "city": "hide", "office": "hide", "manager": "hide",
			},
			want: []string{"name"},
		},
		{
			name: "legacy admin-only spelling",
			columns: map[string]string{
				"name": "show", "title": "admin-only", "department": "hide", "email": "hide",
				"phone": "hide", "businessPhone": "hide", "hireDate": "hide", "country": "hide",
				"state": "hide", "city": "hide", "office": "hide", "manager": "hide",
			},
			want: []string{"name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			if tt.columns != nil {
				s.ExportXlsxColumns = tt.columns
			}
			if got := s.VisibleColumns(tt.admin); !slices.Equal(got, tt.want) {
				t.Errorf("VisibleColumns = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreference(t *testing.T) {
	tests := []struct {
		in   string
		want Preference
	}{
		{"true", Enabled},
		{" TRUE ", Enabled},
		{"false", Disabled},
		{"", Inherited},
		{"maybe", Inherited},
	}
	for _, tt := range tests {
		if got := ParsePreference(tt.in); got != tt.want {
			t.Errorf("ParsePreference(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, p := range []Preference{Inherited, Enabled, Disabled} {
		if got := ParsePreference(p.String()); got != p {
			t.Errorf("round trip %v = %v", p, got)
		}
	}
	if Inherited.Set() || !Enabled.Set() || !Disabled.Set() {
		t.Error("Set mismatch")
	}
	if PreferenceOf(true) != Enabled || PreferenceOf(false) != Disabled {
		t.Error("PreferenceOf mismatch")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		server bool
		local  Preference
		auth   bool
		kind   Kind
		want   bool
	}{
		{"compact inherits", true, Inherited, false, KindCompact, true},
		{"compact local wins for anonymous", true, Disabled, false, KindCompact, false},
		{"compact server wins for admin", true, Disabled, true, KindCompact, true},
		{"compact admin server off", false, Enabled, true, KindCompact, false},
		{"images inherits", false, Inherited, true, KindProfileImages, false},
		{"images local wins for anonymous", true, Disabled, false, KindProfileImages, false},
		{"images local wins for admin", true, Disabled, true, KindProfileImages, false},
		{"images local enable", false, Enabled, true, KindProfileImages, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.server, tt.local, tt.auth, tt.kind); got != tt.want {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	tests := []struct {
		server bool
		local  Preference
		want   Preference
	}{
		{true, Inherited, Disabled},
		{true, Disabled, Inherited},
		{false, Inherited, Enabled},
		{false, Enabled, Inherited},
		{true, Enabled, Disabled},
	}
	for _, tt := range tests {
		if got := Toggle(tt.server, tt.local); got != tt.want {
			t.Errorf("Toggle(%v, %v) = %v, want %v", tt.server, tt.local, got, tt.want)
		}
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "data", "settings.json"))
	defer store.Close()

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if got.ChartTitle != Defaults().ChartTitle {
		t.Errorf("empty store title = %q", got.ChartTitle)
	}

	updated, err := Update(ctx, store, []byte(`{"chartTitle":"Acme","nodeColors":{"level2":"#222222"}}`))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ChartTitle != "Acme" {
		t.Errorf("Update title = %q", updated.ChartTitle)
	}

	reloaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.ChartTitle != "Acme" || reloaded.NodeColors["level2"] != "#222222" || reloaded.NodeColors["level0"] != "#90EE90" {
		t.Errorf("reloaded = %q %v", reloaded.ChartTitle, reloaded.NodeColors)
	}

	if _, err := Update(ctx, store, []byte(`{"collapseLevel":"-3"}`)); err == nil {
		t.Error("Update accepted an invalid collapse level")
	}
	if still, _ := store.Load(ctx); still.CollapseLevel != "2" {
		t.Errorf("rejected update was saved: %q", still.CollapseLevel)
	}

	if _, err := Reset(ctx, store); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if reset, _ := store.Load(ctx); reset.ChartTitle != Defaults().ChartTitle {
		t.Errorf("after reset title = %q", reset.ChartTitle)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := Defaults()
	s.ShowNames = false
	if err := store.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	s.NodeColors["level0"] = "#000000"

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.ShowNames || got.NodeColors["level0"] != "#90EE90" {
		t.Errorf("got ShowNames=%v level0=%q", got.ShowNames, got.NodeColors["level0"])
	}
}

func TestMongoStoreUnreachable(t *testing.T) {
	ctx := context.Background()
	_, err := NewMongoStore(ctx, MongoConfig{
		URI:     "mongodb://127.0.0.1:1/?directConnection=true",
		Timeout: 200 * time.Millisecond,
	})
	if !errors.Is(err, cache.ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}

	if _, err := NewMongoStore(ctx, MongoConfig{}); err == nil {
		t.Error("expected error for empty URI")
	}
}
