package xlsx

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/settings"
)

func sampleTree() *org.Employee {
	disabled := false
	return &org.Employee{ID: "1", Name: "Ada", Title: "CEO", Department: "Board", HireDate: "2020-01-15T00:00:00Z",
		Children: []*org.Employee{
			{ID: "2", Name: "Temp", Title: "", Department: "Ops",
				Children: []*org.Employee{{ID: "4", Name: "Grace", Title: "Engineer", Department: "Ops"}}},
			{ID: "3", Name: "Old", Title: "Manager", AccountEnabled: &disabled},
			{ID: "5", Name: "Visitor", Title: "Guest", UserType: "Guest"},
			{ID: "6", Name: "Con", Title: "Advisor", Department: "Consultant Group"},
		}}
}

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(Sheet)
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}
	return rows
}

func TestExport(t *testing.T) {
	opts := OptionsFor(settings.Defaults(), false)
	data, err := Export(sampleTree(), opts)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	rows := readRows(t, data)

	wantHeader := []string{"Name", "Title", "Department", "Email", "Phone", "Business Phone",
		"Country", "State", "City", "Office", "Manager"}
	if len(rows) == 0 || !equal(rows[0], wantHeader) {
		t.Fatalf("header = %v, want %v", rows[0], wantHeader)
	}

	var names, managers []string
	for _, r := range rows[1:] {
		names = append(names, r[0])
		managers = append(managers, cell(r, len(wantHeader)-1))
	}
	if want := []string{"Ada", "Grace"}; !equal(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	// Grace's manager was filtered out, so she reports to Ada.
	if want := []string{"", "Ada"}; !equal(managers, want) {
		t.Errorf("managers = %v, want %v", managers, want)
	}
}

func TestExportAdminColumns(t *testing.T) {
	data, err := Export(sampleTree(), OptionsFor(settings.Defaults(), true))
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	rows := readRows(t, data)
	if got := rows[0][6]; got != "Hire Date" {
		t.Fatalf("column 7 = %q, want Hire Date", got)
	}
	if got := rows[1][6]; got != "2020-01-15" {
		t.Errorf("hire date = %q, want 2020-01-15", got)
	}
}

func TestExportNameFallback(t *testing.T) {
	s := settings.Defaults()
	for k := range s.ExportXlsxColumns {
		s.ExportXlsxColumns[k] = settings.ColumnHide
	}
	data, err := Export(sampleTree(), OptionsFor(s, true))
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	rows := readRows(t, data)
	if !equal(rows[0], []string{"Name"}) {
		t.Errorf("header = %v, want [Name]", rows[0])
	}
}

func TestExportUnfiltered(t *testing.T) {
	data, err := Export(sampleTree(), Options{Columns: []string{"name", "manager", "bogus"}})
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	rows := readRows(t, data)
	if len(rows) != 7 {
		t.Fatalf("rows = %d, want 7", len(rows))
	}
	if !equal(rows[0], []string{"Name", "Manager"}) {
		t.Errorf("header = %v", rows[0])
	}
	if got := rows[3]; !equal(got, []string{"Grace", "Temp"}) {
		t.Errorf("row 4 = %v, want [Grace Temp]", got)
	}
}

func TestExportStyle(t *testing.T) {
	f, err := Build(sampleTree(), Options{Columns: []string{"name"}})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	defer f.Close()

	id, err := f.GetCellStyle(Sheet, "A1")
	if err != nil {
		t.Fatalf("GetCellStyle() error: %v", err)
	}
	style, err := f.GetStyle(id)
	if err != nil {
		t.Fatalf("GetStyle() error: %v", err)
	}
	if style.Font == nil || !style.Font.Bold {
		t.Error("header font is not bold")
	}
	if len(style.Fill.Color) == 0 || !strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), headerFill) {
		t.Errorf("header fill = %v, want %s", style.Fill.Color, headerFill)
	}
	w, err := f.GetColWidth(Sheet, "A")
	if err != nil {
		t.Fatalf("GetColWidth() error: %v", err)
	}
	if w != columnWidth {
		t.Errorf("column width = %v, want %v", w, columnWidth)
	}
}

func TestExportNoRoot(t *testing.T) {
	_, err := Export(nil, Options{})
	if !orgerr.Is(err, orgerr.ErrCodeNoRoot) {
		t.Errorf("Export(nil) error = %v, want NO_ROOT", err)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	if got := Filename(now); got != "org-chart-2024-03-09.xlsx" {
		t.Errorf("Filename() = %q", got)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
