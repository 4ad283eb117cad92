package org

import (
	"slices"
	"strings"
)

// UniqueValues returns the distinct non-blank values of field across
// records, compared case-insensitively. The first spelling seen wins and the
// result is sorted by its lowercase form.
func UniqueValues(records []*Employee, field func(*Employee) string) []string {
	seen := make(map[string]string)
	for _, e := range records {
		v := strings.TrimSpace(field(e))
		if v == "" {
			continue
		}
		if k := strings.ToLower(v); seen[k] == "" {
			seen[k] = v
		}
	}
	return sortedFold(seen)
}

// OptionLabels returns one "Name <email>" label per person, for the ignore
// list pickers. Records sharing a normalized contact (or name, when there is
// no email) collapse to the first label.
func OptionLabels(records []*Employee) []string {
	seen := make(map[string]string)
	for _, e := range records {
		name := strings.TrimSpace(e.Name)
		contact := strings.TrimSpace(e.Email)
		if name == "" && contact == "" {
			continue
		}
		label := name
		switch {
		case name != "" && contact != "":
			label = name + " <" + contact + ">"
		case name == "":
			label = contact
		}
		key := NormalizeFilterValue(contact)
		if key == "" {
			key = NormalizeFilterValue(name)
		}
		if key == "" {
			key = NormalizeFilterValue(label)
		}
		if key == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = label
		}
	}
	return sortedFold(seen)
}

func sortedFold(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return out
}
