package pipeline

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/orgchart/pkg/cache"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/org/source"
)

// Load reads the records of src, drops the records excluded by the
// settings filters and links the rest into a hierarchy. Filtering happens
// before linking, so the reports of a filtered manager are placed by the
// root selection rules like any other record without a manager.
func Load(ctx context.Context, src source.Source, opts Options) (*org.Hierarchy, error) {
	records, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Path(), err)
	}
	kept, filtered := opts.Settings.Filters().Apply(records)
	opts.Logger.Debug("filtered records", "kept", len(kept), "filtered", len(filtered))

	h, err := org.BuildHierarchy(kept, opts.BuildOptions())
	if err != nil {
		return nil, err
	}
	for _, cycle := range h.BrokenCycles {
		opts.Logger.Warn("broke manager cycle", "ids", cycle)
	}
	if len(h.Unplaced) > 0 {
		opts.Logger.Warn("records not reachable from root", "count", len(h.Unplaced))
	}
	opts.Logger.Debug("selected root", "id", h.Root.ID, "reason", h.RootReason)
	return h, nil
}

// markNew flags recent hires. It runs on every load, cached or not, since
// the result depends on the current date.
func markNew(h *org.Hierarchy, opts Options) {
	org.MarkNewEmployees(h.Root, opts.Settings.NewEmployeeMonths, opts.Now)
}

// sourceDigest hashes the file backing src. An empty digest disables
// caching for the run.
func sourceDigest(src source.Source) string {
	if src.Path() == "" {
		return ""
	}
	data, err := os.ReadFile(src.Path())
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// hierarchyDoc is the cached form of a hierarchy.
type hierarchyDoc struct {
	Root         *org.Employee   `json:"root"`
	RootReason   string          `json:"root_reason"`
	BrokenCycles [][]string      `json:"broken_cycles,omitempty"`
	Unplaced     []*org.Employee `json:"unplaced,omitempty"`
}

// MarshalHierarchy encodes h for the cache.
func MarshalHierarchy(h *org.Hierarchy) ([]byte, error) {
	return json.Marshal(hierarchyDoc{
		Root:         h.Root,
		RootReason:   h.RootReason,
		BrokenCycles: h.BrokenCycles,
		Unplaced:     h.Unplaced,
	})
}

// UnmarshalHierarchy decodes a hierarchy written by [MarshalHierarchy].
func UnmarshalHierarchy(data []byte) (*org.Hierarchy, error) {
	var doc hierarchyDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Root == nil {
		return nil, orgerr.New(orgerr.ErrCodeNoRoot, "cached hierarchy has no root")
	}
	return &org.Hierarchy{
		Root:         doc.Root,
		RootReason:   doc.RootReason,
		BrokenCycles: doc.BrokenCycles,
		Unplaced:     doc.Unplaced,
	}, nil
}
