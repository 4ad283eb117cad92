package org

import (
	"slices"
	"testing"
)

func TestNormalizeFilterValue(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"  Consultant   Group ", "consultant group"},
		{"- Sales |", "sales"},
		{"R&D", "r&d"},
	}
	for _, tt := range tests {
		if got := NormalizeFilterValue(tt.in); got != tt.want {
			t.Errorf("NormalizeFilterValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFilterValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"Empty", "  ", nil},
		{"JSONArray", `["Consultant Group", " Sales "]`, []string{"consultant group", "sales"}},
		{"Legacy", "Interns; Contractors , Temps", []string{"contractors", "interns", "temps"}},
		{"BadJSON", `["x"`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilterValues(tt.raw)
			var keys []string
			for k := range got {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			if !slices.Equal(keys, tt.want) {
				t.Errorf("ParseFilterValues(%q) = %v, want %v", tt.raw, keys, tt.want)
			}
		})
	}
}

func TestFiltersReasons(t *testing.T) {
	disabled := false
	f := Filters{
		HideDisabled:       true,
		HideGuests:         true,
		HideNoTitle:        true,
		IgnoredTitles:      ParseFilterValues("Board Member"),
		IgnoredDepartments: ParseFilterValues("Consultant Group"),
		IgnoredEmployees:   ParseFilterValues(`["Jane Doe <jane@example.com>", "bob@example.com"]`),
	}

	tests := []struct {
		name string
		emp  *Employee
		want []string
	}{
		{"Kept", &Employee{Name: "Ann", Title: "CEO"}, nil},
		{"Disabled", &Employee{Name: "Ann", Title: "CEO", AccountEnabled: &disabled}, []string{FilterDisabled}},
		{"Guest", &Employee{Name: "G", Title: "Auditor", UserType: "Guest"}, []string{FilterGuest}},
		{"NoTitle", &Employee{Name: "N", Title: "No Title"}, []string{FilterNoTitle}},
		{"IgnoredTitle", &Employee{Name: "B", Title: "board member"}, []string{FilterIgnoredTitle}},
		{"IgnoredDepartment", &Employee{Name: "C", Title: "Advisor", Department: "Consultant  Group"}, []string{FilterIgnoredDepartment}},
		{"IgnoredByCombo", &Employee{Name: "Jane Doe", Email: "jane@example.com", Title: "VP"}, []string{FilterIgnoredEmployee}},
		{"IgnoredByEmail", &Employee{Name: "Bob", Email: "BOB@example.com", Title: "VP"}, []string{FilterIgnoredEmployee}},
		{"Multiple", &Employee{Name: "X", UserType: "guest"}, []string{FilterGuest, FilterNoTitle}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Reasons(tt.emp); !slices.Equal(got, tt.want) {
				t.Errorf("Reasons = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFiltersApply(t *testing.T) {
	f := Filters{HideNoTitle: true}
	kept, filtered := f.Apply([]*Employee{
		{ID: "a", Title: "CEO"},
		{ID: "b"},
		{ID: "c", Title: "VP"},
	})
	if len(kept) != 2 || kept[0].ID != "a" || kept[1].ID != "c" {
		t.Errorf("kept = %v", kept)
	}
	if len(filtered) != 1 || filtered[0].ID != "b" {
		t.Errorf("filtered = %v", filtered)
	}
}
