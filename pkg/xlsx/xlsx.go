// Package xlsx exports the employee hierarchy as a spreadsheet.
//
// The workbook has a single sheet with one row per employee in depth-first
// order and a Manager column naming the nearest exported ancestor:
//
//	data, err := xlsx.Export(root, xlsx.OptionsFor(s, admin))
package xlsx

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/settings"
)

// Sheet is the worksheet name.
const Sheet = "Organization Chart"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	headerFill  = "366092"
	headerFont  = "FFFFFF"
	columnWidth = 20
)

// Column is one spreadsheet column.
type Column struct {
	Key    string
	Header string
	Value  func(e *org.Employee, manager string) string
}

// Columns are the exportable columns keyed as in [settings.ExportColumns].
var Columns = map[string]Column{
	"name":          {"name", "Name", func(e *org.Employee, _ string) string { return e.Name }},
	"title":         {"title", "Title", func(e *org.Employee, _ string) string { return e.Title }},
	"department":    {"department", "Department", func(e *org.Employee, _ string) string { return e.Department }},
	"email":         {"email", "Email", func(e *org.Employee, _ string) string { return e.Email }},
	"phone":         {"phone", "Phone", func(e *org.Employee, _ string) string { return e.Phone }},
	"businessPhone": {"businessPhone", "Business Phone", func(e *org.Employee, _ string) string { return e.BusinessPhone }},
	"hireDate":      {"hireDate", "Hire Date", func(e *org.Employee, _ string) string { return org.FormatHireDate(e.HireDate) }},
	"country":       {"country", "Country", func(e *org.Employee, _ string) string { return e.Country }},
	"state":         {"state", "State", func(e *org.Employee, _ string) string { return e.State }},
	"city":          {"city", "City", func(e *org.Employee, _ string) string { return e.City }},
	"office":        {"office", "Office", func(e *org.Employee, _ string) string { return e.OfficeLocation }},
	"manager":       {"manager", "Manager", func(_ *org.Employee, manager string) string { return manager }},
}

// Options selects the exported columns and rows.
type Options struct {
	// Columns are column keys in sheet order. Unknown keys are ignored; an
	// empty selection exports the name column alone.
	Columns []string

	// Filters drops rows. Children of a dropped employee are still
	// exported, reporting to the dropped employee's manager.
	Filters org.Filters
}

// OptionsFor returns the export options for a viewer. Admin-only columns are
// included when admin is set. Only the disabled, guest, no-title and
// ignored-department filters apply to the sheet.
func OptionsFor(s settings.Settings, admin bool) Options {
	f := s.Filters()
	return Options{
		Columns: s.VisibleColumns(admin),
		Filters: org.Filters{
			HideDisabled:       f.HideDisabled,
			HideGuests:         f.HideGuests,
			HideNoTitle:        f.HideNoTitle,
			IgnoredDepartments: f.IgnoredDepartments,
		},
	}
}

func (o Options) columns() []Column {
	var cols []Column
	for _, k := range o.Columns {
		if c, ok := Columns[k]; ok {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		cols = []Column{Columns["name"]}
	}
	return cols
}

// Filename returns the download name for an export made at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("org-chart-%s.xlsx", now.Format("2006-01-02"))
}

// Export writes the hierarchy under root to an XLSX workbook.
func Export(root *org.Employee, opts Options) ([]byte, error) {
	if root == nil {
		return nil, orgerr.New(orgerr.ErrCodeNoRoot, "no employee data available")
	}
	f, err := Build(root, opts)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeExportFailed, err, "write workbook")
	}
	return buf.Bytes(), nil
}

// Build returns the workbook for root. The caller closes it.
func Build(root *org.Employee, opts Options) (*excelize.File, error) {
	cols := opts.columns()
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), Sheet); err != nil {
		f.Close()
		return nil, orgerr.Wrap(orgerr.ErrCodeExportFailed, err, "name sheet")
	}

	if err := writeHeader(f, cols); err != nil {
		f.Close()
		return nil, orgerr.Wrap(orgerr.ErrCodeExportFailed, err, "write header")
	}

	w := &rowWriter{f: f, cols: cols, filters: opts.Filters, row: 2}
	if err := w.walk(root, ""); err != nil {
		f.Close()
		return nil, orgerr.Wrap(orgerr.ErrCodeExportFailed, err, "write rows")
	}

	last, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		f.Close()
		return nil, orgerr.Wrap(orgerr.ErrCodeExportFailed, err, "size columns")
	}
	if err := f.SetColWidth(Sheet, "A", last, columnWidth); err != nil {
		f.Close()
		return nil, orgerr.Wrap(orgerr.ErrCodeExportFailed, err, "size columns")
	}
	return f, nil
}

func writeHeader(f *excelize.File, cols []Column) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: headerFont},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	for i, c := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(Sheet, cell, c.Header); err != nil {
			return err
		}
		if err := f.SetCellStyle(Sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

type rowWriter struct {
	f       *excelize.File
	cols    []Column
	filters org.Filters
	row     int
}

func (w *rowWriter) walk(e *org.Employee, manager string) error {
	if e == nil {
		return nil
	}
	skip := w.filters.Skip(e)
	if !skip {
		values := make([]any, len(w.cols))
		for i, c := range w.cols {
			values[i] = c.Value(e, manager)
		}
		cell, err := excelize.CoordinatesToCellName(1, w.row)
		if err != nil {
			return err
		}
		if err := w.f.SetSheetRow(Sheet, cell, &values); err != nil {
			return err
		}
		w.row++
		manager = e.Name
	}
	for _, c := range e.Children {
		if err := w.walk(c, manager); err != nil {
			return err
		}
	}
	return nil
}
