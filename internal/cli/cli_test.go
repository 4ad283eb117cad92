package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/matzehuels/orgchart/pkg/core/chart/charttest"
	"github.com/matzehuels/orgchart/pkg/core/chart/collapse"
	"github.com/matzehuels/orgchart/pkg/core/chart/visibility"
	"github.com/matzehuels/orgchart/pkg/core/render/tree"
	"github.com/matzehuels/orgchart/pkg/settings"
)

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"serve", "render", "layout", "browse", "cache", "settings", "hash-password", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing command %q in %v", want, names)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"SVG, png,,xlsx", []string{"svg", "png", "xlsx"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseHidden(t *testing.T) {
	if got := parseHidden(" 3, ,7,"); !slices.Equal(got, []string{"3", "7"}) {
		t.Errorf("parseHidden = %v", got)
	}
	if got := parseHidden(""); got != nil {
		t.Errorf("parseHidden(\"\") = %v, want nil", got)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "data/employees.json", "data/employees"},
		{"out/chart.svg", "data/employees.json", "out/chart"},
		{"out/chart.xlsx", "x.yaml", "out/chart"},
		{"out/chart", "x.yaml", "out/chart"},
		{"out/chart.v2", "x.yaml", "out/chart.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestSettingsPatch(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"pairs", []string{"chartTitle=Acme Org", "searchHighlight=false", "newEmployeeMonths=6"},
			`{"chartTitle":"Acme Org","newEmployeeMonths":6,"searchHighlight":false}`, false},
		{"json", []string{`{"collapseLevel":"3"}`}, `{"collapseLevel":"3"}`, false},
		{"bad json", []string{`{"collapseLevel":`}, "", true},
		{"missing value", []string{"chartTitle"}, "", true},
		{"empty key", []string{"=x"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := settingsPatch(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("patch = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSettingsPairs(t *testing.T) {
	pairs, err := settingsPairs(settings.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[string]string)
	var keys []string
	for _, kv := range pairs {
		got[kv[0]] = kv[1]
		keys = append(keys, kv[0])
	}
	if !slices.IsSorted(keys) {
		t.Error("keys not sorted")
	}
	if got["chartTitle"] != "DB Auto Org Chart" {
		t.Errorf("chartTitle = %q", got["chartTitle"])
	}
	if got["multiLineChildrenEnabled"] != "true" {
		t.Errorf("multiLineChildrenEnabled = %q", got["multiLineChildrenEnabled"])
	}
}

func TestHashPasswordCommand(t *testing.T) {
	cmd := New(io.Discard, log.InfoLevel).hashPasswordCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("s3cret\n"))
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("hash does not match: %v", err)
	}
}

func TestSummarizeLevels(t *testing.T) {
	// n0 → n1 → {n2 → n4, n3}
	tr := charttest.MustTree(t, charttest.Shape([]int{0, 1, 1, 2}))
	collapse.ApplyInitial(tr, "3")
	opts := tree.DefaultOptions()
	opts.Overlay = visibility.New("n3")
	scene := tree.Build(tr, opts)

	rows := summarizeLevels(tr, scene)
	want := []levelRow{
		{Depth: 0, Visible: 1},
		{Depth: 1, Visible: 1},
		{Depth: 2, Visible: 2, Collapsed: 1, Hidden: 1},
	}
	if !slices.Equal(rows, want) {
		t.Errorf("levels = %+v, want %+v", rows, want)
	}
	if table := levelTable(rows); !strings.Contains(table, "Collapsed") {
		t.Errorf("table missing header:\n%s", table)
	}
}

func TestWriteOutputCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "chart.svg")
	if err := writeOutput(path, []byte("<svg/>")); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); string(data) != "<svg/>" {
		t.Errorf("file = %q", data)
	}
}

func TestFlagCompletion(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	render, _, err := root.Find([]string{"render"})
	if err != nil {
		t.Fatal(err)
	}
	fn, ok := render.GetFlagCompletionFunc("format")
	if !ok {
		t.Fatal("no completion for --format")
	}
	got, _ := fn(render, nil, "svg,p")
	if !slices.Equal(got, []string{"svg,pdf", "svg,png"}) {
		t.Errorf("format completions = %v", got)
	}

	layout, _, _ := root.Find([]string{"layout"})
	fn, ok = layout.GetFlagCompletionFunc("orientation")
	if !ok {
		t.Fatal("no completion for layout --orientation")
	}
	if got, _ := fn(layout, nil, "h"); !slices.Equal(got, []string{"horizontal"}) {
		t.Errorf("orientation completions = %v", got)
	}
}

func TestCompleteSettingKeys(t *testing.T) {
	got, _ := completeSettingKeys(nil, nil, "chart")
	if !slices.Equal(got, []string{"chartTitle="}) {
		t.Errorf("completions = %v", got)
	}
	if got, _ := completeSettingKeys(nil, nil, "chartTitle=A"); got != nil {
		t.Errorf("value completions = %v, want none", got)
	}
}
