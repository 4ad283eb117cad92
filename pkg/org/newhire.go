package org

import "time"

// DefaultNewEmployeeMonths is the recency window for the NEW badge.
const DefaultNewEmployeeMonths = 3

var hireDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseHireDate parses the hire date formats seen in directory exports.
func ParseHireDate(s string) (time.Time, bool) {
	for _, layout := range hireDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MarkNewEmployees sets IsNewEmployee on every node of the tree whose hire
// date falls within months×30 days before now. Unparseable or missing hire
// dates are never new.
func MarkNewEmployees(root *Employee, months int, now time.Time) {
	if months <= 0 {
		months = DefaultNewEmployeeMonths
	}
	cutoff := now.AddDate(0, 0, -months*30)
	root.Walk(func(e *Employee) bool {
		e.IsNewEmployee = false
		if e.HireDate != "" {
			if t, ok := ParseHireDate(e.HireDate); ok {
				e.IsNewEmployee = t.After(cutoff)
			}
		}
		return true
	})
}

// FormatHireDate renders a hire date as YYYY-MM-DD, or returns s unchanged
// when it cannot be parsed.
func FormatHireDate(s string) string {
	if t, ok := ParseHireDate(s); ok {
		return t.Format("2006-01-02")
	}
	return s
}
