package styles

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
	"github.com/matzehuels/orgchart/pkg/org"
)

func TestPalette(t *testing.T) {
	p := Palette{"level1": "#112233", "level2": "  "}
	tests := []struct {
		depth int
		want  string
	}{
		{0, "#90EE90"},
		{1, "#112233"},
		{2, "#E0F2FF"},
		{7, "#D7F8FF"},
		{8, FallbackColor},
		{-1, FallbackColor},
	}
	for _, tt := range tests {
		if got := p.Fill(tt.depth); got != tt.want {
			t.Errorf("Fill(%d) = %q, want %q", tt.depth, got, tt.want)
		}
	}
	if got := p.Stroke(1); got != "#000001" {
		t.Errorf("Stroke(1) = %q, want #000001", got)
	}
	var nilPalette Palette
	if got := nilPalette.Fill(3); got != "#FFE4E1" {
		t.Errorf("nil palette Fill(3) = %q", got)
	}
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		color  string
		amount int
		want   string
	}{
		{"#90EE90", -50, "#5ebc5e"},
		{"#F0F0F0", -50, "#bebebe"},
		{"#000000", -50, "#000000"},
		{"#fafafa", 50, "#ffffff"},
		{"#abc", 0, "#aabbcc"},
		{"red", -50, "red"},
		{"#zzzzzz", 10, "#zzzzzz"},
	}
	for _, tt := range tests {
		if got := Adjust(tt.color, tt.amount); got != tt.want {
			t.Errorf("Adjust(%q, %d) = %q, want %q", tt.color, tt.amount, got, tt.want)
		}
	}
}

func TestFontSize(t *testing.T) {
	tests := []struct {
		name string
		text string
		base float64
		max  int
		min  float64
		want float64
	}{
		{"empty", "", 14, 25, 9, 14},
		{"short", strings.Repeat("a", 17), 14, 25, 9, 14},
		{"medium", strings.Repeat("a", 18), 14, 25, 9, 12.6},
		{"at limit", strings.Repeat("a", 25), 14, 25, 9, 12.6},
		{"long", strings.Repeat("a", 26), 14, 25, 9, 10.5},
		{"clamped", strings.Repeat("a", 40), 9, 25, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FontSize(tt.text, tt.base, tt.max, tt.min); got != tt.want {
				t.Errorf("FontSize = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrimTitle(t *testing.T) {
	long := strings.Repeat("x", 48)
	if got := TrimTitle(long, true); got != strings.Repeat("x", 45)+"..." {
		t.Errorf("TrimTitle with avatars = %q", got)
	}
	if got := TrimTitle(long, false); got != long {
		t.Errorf("TrimTitle without avatars = %q", got)
	}
}

func TestWrapTitle(t *testing.T) {
	tests := []struct {
		title string
		max   int
		want  []string
	}{
		{"", 10, []string{""}},
		{"Engineer", 10, []string{"Engineer"}},
		{"Senior Software Engineer", 10, []string{"Senior", "Software Engineer"}},
		{"Vice President of Global Sales Operations", 20, []string{"Vice President of", "Global Sales Operations"}},
	}
	for _, tt := range tests {
		if got := WrapTitle(tt.title, tt.max, 2); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("WrapTitle(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSmallHelpers(t *testing.T) {
	if got := Initials("ada  king lovelace"); got != "AK" {
		t.Errorf("Initials = %q", got)
	}
	if got := Initials(""); got != "" {
		t.Errorf("Initials(empty) = %q", got)
	}
	for n, want := range map[int]string{0: "0", 99: "99", 100: "99+"} {
		if got := CountLabel(n); got != want {
			t.Errorf("CountLabel(%d) = %q, want %q", n, got, want)
		}
	}
	if Department(" ") != NoDepartment || Department("Sales") != "Sales" {
		t.Error("Department fallback")
	}
	if got := EscapeXML(`a<b & "c"`); got != "a&lt;b &amp; &#34;c&#34;" {
		t.Errorf("EscapeXML = %q", got)
	}
}

func TestDescribe(t *testing.T) {
	cfg := layout.DefaultConfig()
	leaf := &chart.Node{Employee: &org.Employee{ID: "l", Name: "Lee Ray", Title: "Analyst", IsNewEmployee: true}, Depth: 2}
	boss := &chart.Node{Employee: &org.Employee{ID: "b", Name: "Bo", PhotoURL: "/api/photo/b"}, Depth: 0}
	boss.Stashed = []*chart.Node{leaf}
	leaf.Parent = boss

	t.Run("root collapsed hidden", func(t *testing.T) {
		a := Describe(boss, State{Hidden: true}, cfg, DefaultOptions())
		if a.Class != "node ceo hidden-subtree" {
			t.Errorf("Class = %q", a.Class)
		}
		if a.Expand == nil || a.Expand.Symbol != "+" || a.Expand.CY != 50 || a.Expand.CX != 0 {
			t.Errorf("Expand = %+v", a.Expand)
		}
		if a.Count == nil || a.Count.Label != "1" || a.Count.CX != -95 || a.Count.CY != -25 {
			t.Errorf("Count = %+v", a.Count)
		}
		if a.Hide.Tooltip != "Show this subtree" {
			t.Errorf("Hide = %+v", a.Hide)
		}
		if a.Avatar == nil || a.Avatar.Href != "/api/photo/b" || a.Avatar.Initials != "B" {
			t.Errorf("Avatar = %+v", a.Avatar)
		}
		if a.Stroke != "#5ebc5e" || a.New != nil {
			t.Errorf("Stroke = %q, New = %v", a.Stroke, a.New)
		}
	})

	t.Run("new leaf", func(t *testing.T) {
		a := Describe(leaf, State{Highlighted: true}, cfg, DefaultOptions())
		if a.Class != "node" || a.RectClass != "node-rect new-employee search-highlight" {
			t.Errorf("classes %q / %q", a.Class, a.RectClass)
		}
		if a.Stroke != "" || a.New == nil || a.New.X != 65 || a.New.Y != -50 {
			t.Errorf("Stroke = %q, New = %+v", a.Stroke, a.New)
		}
		if a.Expand != nil || a.Count != nil {
			t.Error("leaf should have no expand button or count")
		}
		if a.Department == nil || a.Department.Text != NoDepartment {
			t.Errorf("Department = %+v", a.Department)
		}
		if a.Name.Anchor != "start" || a.Name.X != -60 {
			t.Errorf("Name = %+v", a.Name)
		}
	})

	t.Run("minimal options horizontal", func(t *testing.T) {
		h := cfg
		h.Orientation = layout.Horizontal
		boss.Visible, boss.Stashed = boss.Stashed, nil
		defer func() { boss.Stashed, boss.Visible = boss.Visible, nil }()

		a := Describe(boss, State{}, h, Options{})
		if a.Avatar != nil || a.Department != nil || a.Count != nil {
			t.Errorf("optional parts rendered: %+v", a)
		}
		if a.Name.Anchor != "middle" || a.Name.X != 0 {
			t.Errorf("Name = %+v", a.Name)
		}
		if a.Expand == nil || a.Expand.Symbol != "-" || a.Expand.CX != 120 || a.Expand.TextY != 4 {
			t.Errorf("Expand = %+v", a.Expand)
		}
	})
}
