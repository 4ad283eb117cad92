package org

import (
	"slices"
	"testing"
)

func TestUniqueValues(t *testing.T) {
	records := []*Employee{
		{Title: "Engineer"},
		{Title: " engineer "},
		{Title: "analyst"},
		{Title: ""},
		{Title: "Director"},
	}
	got := UniqueValues(records, func(e *Employee) string { return e.Title })
	want := []string{"analyst", "Director", "Engineer"}
	if !slices.Equal(got, want) {
		t.Errorf("UniqueValues = %v, want %v", got, want)
	}
}

func TestUniqueValuesEmpty(t *testing.T) {
	got := UniqueValues(nil, func(e *Employee) string { return e.Department })
	if got == nil || len(got) != 0 {
		t.Errorf("UniqueValues(nil) = %#v, want empty slice", got)
	}
}

func TestOptionLabels(t *testing.T) {
	records := []*Employee{
		{Name: "Grace Hopper", Email: "grace@example.com"},
		{Name: "G. Hopper", Email: "GRACE@example.com"},
		{Name: "ada lovelace"},
		{Email: "bot@example.com"},
		{},
	}
	got := OptionLabels(records)
	want := []string{"ada lovelace", "bot@example.com", "Grace Hopper <grace@example.com>"}
	if !slices.Equal(got, want) {
		t.Errorf("OptionLabels = %v, want %v", got, want)
	}
}
