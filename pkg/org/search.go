package org

import "strings"

const (
	// MinSearchQuery is the shortest query that produces results.
	MinSearchQuery = 2

	// DefaultSearchLimit caps the number of search results.
	DefaultSearchLimit = 10
)

// Summary is the search result shape: enough to list and select an employee.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Department string `json:"department"`
	Email      string `json:"email,omitempty"`
}

// Summarize returns the search summary of e.
func Summarize(e *Employee) Summary {
	return Summary{ID: e.ID, Name: e.Name, Title: e.Title, Department: e.Department, Email: e.Email}
}

// Search returns up to limit employees under root whose name, title or
// department contains query (case-insensitive), in depth-first order.
// Queries shorter than [MinSearchQuery] return no results.
func Search(root *Employee, query string, limit int) []Summary {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < MinSearchQuery || root == nil {
		return []Summary{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	results := []Summary{}
	root.Walk(func(e *Employee) bool {
		if len(results) >= limit {
			return false
		}
		if matches(e, q) {
			results = append(results, Summarize(e))
		}
		return true
	})
	return results
}

func matches(e *Employee, q string) bool {
	return strings.Contains(strings.ToLower(e.Name), q) ||
		strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.Department), q)
}
