package org

import (
	"slices"
	"testing"

	orgerr "github.com/matzehuels/orgchart/pkg/errors"
)

func rec(id, name, title, manager string) *Employee {
	return &Employee{ID: id, Name: name, Title: title, ManagerID: manager, Email: id + "@example.com"}
}

func childIDs(e *Employee) []string {
	var ids []string
	for _, c := range e.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestBuildHierarchy(t *testing.T) {
	tests := []struct {
		name       string
		records    []*Employee
		opts       BuildOptions
		wantRoot   string
		wantReason string
		wantKids   []string
		unplaced   int
	}{
		{
			name: "TitleKeyword",
			records: []*Employee{
				rec("ops", "Olga", "Operations", ""),
				rec("ceo", "Carla", "Chief Executive Officer", ""),
				rec("cto", "Tom", "CTO", "ceo"),
			},
			wantRoot:   "ceo",
			wantReason: RootByTitle,
			wantKids:   []string{"cto"},
			unplaced:   1,
		},
		{
			name: "FirstCandidate",
			records: []*Employee{
				rec("a", "Ann", "Engineer", ""),
				rec("b", "Bob", "Engineer", "a"),
				rec("c", "Cid", "Engineer", "a"),
			},
			wantRoot:   "a",
			wantReason: RootFirstCandidate,
			wantKids:   []string{"b", "c"},
		},
		{
			name: "PinnedByEmail",
			records: []*Employee{
				rec("a", "Ann", "CEO", ""),
				rec("b", "Bob", "VP", "a"),
				rec("c", "Cid", "Engineer", "b"),
			},
			opts:       BuildOptions{TopUserEmail: "B@Example.com"},
			wantRoot:   "b",
			wantReason: RootByEmail,
			wantKids:   []string{"c"},
			unplaced:   1,
		},
		{
			name: "PinnedByIDFallback",
			records: []*Employee{
				rec("a", "Ann", "CEO", ""),
				rec("b", "Bob", "VP", "a"),
			},
			opts:       BuildOptions{TopUserEmail: "nobody@example.com", TopUserID: "b"},
			wantRoot:   "b",
			wantReason: RootByID,
			unplaced:   1,
		},
		{
			name: "SelfManagerCleared",
			records: []*Employee{
				rec("a", "Ann", "Lead", "a"),
				rec("b", "Bob", "Engineer", "a"),
			},
			wantRoot:   "a",
			wantReason: RootFirstCandidate,
			wantKids:   []string{"b"},
		},
		{
			name: "MostReportsWhenAllManaged",
			records: []*Employee{
				rec("a", "Ann", "Engineer", "x"),
				rec("b", "Bob", "Engineer", "a"),
				rec("c", "Cid", "Engineer", "a"),
			},
			wantRoot:   "a",
			wantReason: RootMostReports,
			wantKids:   []string{"b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := BuildHierarchy(tt.records, tt.opts)
			if err != nil {
				t.Fatalf("BuildHierarchy: %v", err)
			}
			if h.Root.ID != tt.wantRoot {
				t.Errorf("root = %s, want %s", h.Root.ID, tt.wantRoot)
			}
			if h.RootReason != tt.wantReason {
				t.Errorf("reason = %q, want %q", h.RootReason, tt.wantReason)
			}
			if got := childIDs(h.Root); !slices.Equal(got, tt.wantKids) {
				t.Errorf("children = %v, want %v", got, tt.wantKids)
			}
			if len(h.Unplaced) != tt.unplaced {
				t.Errorf("unplaced = %d, want %d", len(h.Unplaced), tt.unplaced)
			}
		})
	}
}

func TestBuildHierarchyDoesNotMutateInput(t *testing.T) {
	in := []*Employee{rec("a", "Ann", "CEO", ""), rec("b", "Bob", "VP", "a")}
	if _, err := BuildHierarchy(in, BuildOptions{}); err != nil {
		t.Fatal(err)
	}
	if len(in[0].Children) != 0 {
		t.Error("input record gained children")
	}
}

func TestBuildHierarchyErrors(t *testing.T) {
	tests := []struct {
		name    string
		records []*Employee
		code    orgerr.Code
	}{
		{"Empty", nil, orgerr.ErrCodeNoRoot},
		{"MissingID", []*Employee{{Name: "x"}}, orgerr.ErrCodeInvalidTree},
		{"Duplicate", []*Employee{rec("a", "A", "", ""), rec("a", "B", "", "")}, orgerr.ErrCodeInvalidTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildHierarchy(tt.records, BuildOptions{})
			if !orgerr.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestBuildHierarchyBreaksCycles(t *testing.T) {
	records := []*Employee{
		rec("c", "Cid", "Engineer", "b"),
		rec("a", "Ann", "Engineer", "c"),
		rec("b", "Bob", "Engineer", "a"),
		rec("d", "Dee", "Engineer", ""),
	}
	h, err := BuildHierarchy(records, BuildOptions{})
	if err != nil {
		t.Fatalf("BuildHierarchy: %v", err)
	}
	if len(h.BrokenCycles) != 1 {
		t.Fatalf("broken cycles = %v, want one", h.BrokenCycles)
	}
	if want := []string{"a", "b", "c"}; !slices.Equal(h.BrokenCycles[0], want) {
		t.Errorf("cycle = %v, want %v", h.BrokenCycles[0], want)
	}

	// "a" lost its manager, so it and "d" are candidates; "a" comes first
	// in record order after the cut.
	if h.Root.ID != "a" && h.Root.ID != "d" {
		t.Fatalf("root = %s", h.Root.ID)
	}
	if h.Root.ID == "a" && h.Root.Count() != 3 {
		t.Errorf("subtree size = %d, want 3", h.Root.Count())
	}
	seen := map[string]int{}
	h.Root.Walk(func(e *Employee) bool { seen[e.ID]++; return true })
	for id, n := range seen {
		if n != 1 {
			t.Errorf("%s visited %d times", id, n)
		}
	}
}

func TestEmployeeFind(t *testing.T) {
	h, err := BuildHierarchy([]*Employee{
		rec("a", "Ann", "CEO", ""),
		rec("b", "Bob", "VP", "a"),
		rec("c", "Cid", "Engineer", "b"),
	}, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := h.Root.Find("c"); got == nil || got.Name != "Cid" {
		t.Errorf("Find(c) = %v", got)
	}
	if got := h.Root.Find("zz"); got != nil {
		t.Errorf("Find(zz) = %v, want nil", got)
	}
	if n := len(h.Root.Flatten()); n != 3 {
		t.Errorf("Flatten = %d, want 3", n)
	}
}
