package org

import (
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

var (
	filterSplitRe = regexp.MustCompile(`\s*[;,]+\s*`)
	edgePunctRe   = regexp.MustCompile(`^[\s\-–—|]+|[\s\-–—|]+$`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
)

// NormalizeFilterValue lowercases v, trims edge punctuation and collapses
// whitespace so ignore-list entries compare loosely.
func NormalizeFilterValue(v string) string {
	if v == "" {
		return ""
	}
	v = edgePunctRe.ReplaceAllString(v, "")
	v = spaceRunRe.ReplaceAllString(v, " ")
	return strings.ToLower(strings.TrimSpace(v))
}

// ParseFilterValues parses an ignore list. Lists are stored either as a JSON
// array string or as a legacy ";" / "," separated string.
func ParseFilterValues(raw string) map[string]bool {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	var values []string
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &values); err != nil {
			return nil
		}
	} else {
		values = filterSplitRe.Split(text, -1)
	}

	out := make(map[string]bool, len(values))
	for _, v := range values {
		if n := NormalizeFilterValue(v); n != "" {
			out[n] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Filter reasons reported by [Filters.Reasons].
const (
	FilterDisabled          = "filter_disabled"
	FilterGuest             = "filter_guest"
	FilterNoTitle           = "filter_no_title"
	FilterIgnoredTitle      = "filter_ignored_title"
	FilterIgnoredDepartment = "filter_ignored_department"
	FilterIgnoredEmployee   = "filter_ignored_employee"
)

// Filters decides which directory records appear in the chart.
type Filters struct {
	HideDisabled       bool
	HideGuests         bool
	HideNoTitle        bool
	IgnoredTitles      map[string]bool
	IgnoredDepartments map[string]bool
	IgnoredEmployees   map[string]bool
}

// Reasons returns why e is filtered out, or nil if it is kept.
func (f Filters) Reasons(e *Employee) []string {
	var reasons []string
	if f.HideDisabled && !e.Enabled() {
		reasons = append(reasons, FilterDisabled)
	}
	if f.HideGuests && strings.EqualFold(e.UserType, "guest") {
		reasons = append(reasons, FilterGuest)
	}
	title := strings.TrimSpace(e.Title)
	if f.HideNoTitle && (title == "" || title == "No Title") {
		reasons = append(reasons, FilterNoTitle)
	}
	if f.IgnoredTitles[NormalizeFilterValue(e.Title)] {
		reasons = append(reasons, FilterIgnoredTitle)
	}
	if DepartmentIgnored(e.Department, f.IgnoredDepartments) {
		reasons = append(reasons, FilterIgnoredDepartment)
	}
	if EmployeeIgnored(e, f.IgnoredEmployees) {
		reasons = append(reasons, FilterIgnoredEmployee)
	}
	return reasons
}

// Skip reports whether e is filtered out.
func (f Filters) Skip(e *Employee) bool {
	return len(f.Reasons(e)) > 0
}

// Apply splits records into kept and filtered lists, preserving order.
func (f Filters) Apply(records []*Employee) (kept, filtered []*Employee) {
	for _, r := range records {
		if f.Skip(r) {
			filtered = append(filtered, r)
		} else {
			kept = append(kept, r)
		}
	}
	return kept, filtered
}

// DepartmentIgnored reports whether department is in the ignore set.
func DepartmentIgnored(department string, ignored map[string]bool) bool {
	if len(ignored) == 0 {
		return false
	}
	return ignored[NormalizeFilterValue(department)]
}

// EmployeeIgnored reports whether e matches an ignore-list entry by name,
// email, or one of the usual "Name <email>" combinations.
func EmployeeIgnored(e *Employee, ignored map[string]bool) bool {
	if len(ignored) == 0 {
		return false
	}
	candidates := []string{e.Name, e.Email}
	if e.Name != "" && e.Email != "" {
		candidates = append(candidates,
			e.Name+" <"+e.Email+">",
			e.Name+" ("+e.Email+")",
			e.Name+" - "+e.Email,
			e.Email+" ("+e.Name+")",
			e.Email+" - "+e.Name,
		)
	}
	for _, c := range candidates {
		if n := NormalizeFilterValue(c); n != "" && ignored[n] {
			return true
		}
	}
	return false
}
