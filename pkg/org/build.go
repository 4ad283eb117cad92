package org

import (
	"errors"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	orgerr "github.com/matzehuels/orgchart/pkg/errors"
)

// rootTitleKeywords identify a likely top-level person among root candidates.
var rootTitleKeywords = []string{"chief executive", "ceo", "president", "chair", "director", "head"}

// BuildOptions selects the top-level user of the hierarchy.
type BuildOptions struct {
	// TopUserEmail pins the root to the employee with this email. The caller
	// resolves precedence (session override, environment, settings) first.
	TopUserEmail string

	// TopUserID is used when no employee matches TopUserEmail.
	TopUserID string
}

// Hierarchy is the result of [BuildHierarchy].
type Hierarchy struct {
	// Root is the top of the tree.
	Root *Employee

	// RootReason describes how the root was selected.
	RootReason string

	// BrokenCycles lists manager cycles that were cut to keep the tree acyclic.
	// Each entry holds the ids of one cycle; the first id lost its manager link.
	BrokenCycles [][]string

	// Unplaced holds records that are not reachable from Root.
	Unplaced []*Employee
}

// Root selection reasons.
const (
	RootByEmail        = "configured email"
	RootByID           = "configured id"
	RootByTitle        = "title keyword"
	RootFirstCandidate = "first without manager"
	RootMostReports    = "most direct reports"
	RootFirstRecord    = "first record"
)

// BuildHierarchy links flat employee records into a tree.
//
// Records are copied; the input slice is not modified. Duplicate ids are
// rejected. Manager cycles are detected and cut so every node has a single
// parent and the result is acyclic. Children keep the order of records.
func BuildHierarchy(records []*Employee, opts BuildOptions) (*Hierarchy, error) {
	if len(records) == 0 {
		return nil, orgerr.New(orgerr.ErrCodeNoRoot, "no employee records")
	}

	byID := make(map[string]*Employee, len(records))
	order := make([]*Employee, 0, len(records))
	for _, r := range records {
		if r == nil || r.ID == "" {
			return nil, orgerr.New(orgerr.ErrCodeInvalidTree, "employee record without id")
		}
		if _, dup := byID[r.ID]; dup {
			return nil, orgerr.New(orgerr.ErrCodeInvalidTree, "duplicate employee id %q", r.ID)
		}
		c := r.Clone()
		if c.ManagerID == c.ID {
			c.ManagerID = ""
		}
		byID[c.ID] = c
		order = append(order, c)
	}

	h := &Hierarchy{BrokenCycles: breakCycles(order, byID)}

	root, reason := pinnedRoot(order, byID, opts)
	if root != nil {
		root.ManagerID = ""
		for _, e := range order {
			if e == root {
				continue
			}
			if m, ok := byID[e.ManagerID]; ok {
				m.Children = append(m.Children, e)
			}
		}
	} else {
		var candidates []*Employee
		for _, e := range order {
			if m, ok := byID[e.ManagerID]; ok {
				m.Children = append(m.Children, e)
			} else if e.ManagerID == "" {
				candidates = append(candidates, e)
			}
		}
		root, reason = detectRoot(order, candidates)
	}

	h.Root = root
	h.RootReason = reason
	reachable := make(map[string]bool, len(order))
	root.Walk(func(e *Employee) bool {
		reachable[e.ID] = true
		return true
	})
	for _, e := range order {
		if !reachable[e.ID] {
			h.Unplaced = append(h.Unplaced, e)
		}
	}
	return h, nil
}

func pinnedRoot(order []*Employee, byID map[string]*Employee, opts BuildOptions) (*Employee, string) {
	if email := strings.TrimSpace(opts.TopUserEmail); email != "" {
		for _, e := range order {
			if strings.EqualFold(e.Email, email) {
				return e, RootByEmail
			}
		}
	}
	if opts.TopUserID != "" {
		if e, ok := byID[opts.TopUserID]; ok {
			return e, RootByID
		}
	}
	return nil, ""
}

func detectRoot(order, candidates []*Employee) (*Employee, string) {
	for _, c := range candidates {
		title := strings.ToLower(c.Title)
		for _, kw := range rootTitleKeywords {
			if strings.Contains(title, kw) {
				return c, RootByTitle
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0], RootFirstCandidate
	}

	var best *Employee
	for _, e := range order {
		if len(e.Children) > 0 && (best == nil || len(e.Children) > len(best.Children)) {
			best = e
		}
	}
	if best != nil {
		return best, RootMostReports
	}
	return order[0], RootFirstRecord
}

// breakCycles finds manager cycles with a topological sort of the
// manager→report graph and cuts each one at its lowest id.
func breakCycles(order []*Employee, byID map[string]*Employee) [][]string {
	index := make(map[string]int64, len(order))
	ids := make([]string, len(order))
	for i, e := range order {
		index[e.ID] = int64(i)
		ids[i] = e.ID
	}

	g := simple.NewDirectedGraph()
	for i := range order {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, e := range order {
		m, ok := byID[e.ManagerID]
		if !ok {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(index[m.ID]), T: simple.Node(index[e.ID])})
	}

	_, err := topo.Sort(g)
	if err == nil {
		return nil
	}
	var cycles topo.Unorderable
	if !errors.As(err, &cycles) {
		return nil
	}

	var broken [][]string
	for _, component := range cycles {
		members := make([]string, 0, len(component))
		for _, n := range component {
			members = append(members, ids[n.ID()])
		}
		slices.Sort(members)
		byID[members[0]].ManagerID = ""
		broken = append(broken, members)
	}
	slices.SortFunc(broken, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return broken
}
