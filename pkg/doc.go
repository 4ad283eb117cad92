// Package pkg provides the core libraries for orgchart, an interactive
// organization chart built from a flat employee directory.
//
// # Overview
//
// Employee records name their manager; orgchart assembles them into a
// single-rooted hierarchy, lays the visible part out as a tidy tree, wraps
// large sibling groups into grids and draws the result with animated
// transitions between frames. The pkg directory is organized into these
// areas:
//
//  1. [org] - Employee records, hierarchy assembly, search and sources
//  2. [core] - Tree model, collapse and visibility state, layout and rendering
//  3. [pipeline] - Orchestration (load → layout → render) with caching
//  4. [server] and [client] - HTTP API and its Go client
//  5. [view] - Interactive controller shared by the terminal browser
//
// # Architecture
//
// The typical data flow:
//
//	Employee directory (JSON, YAML or SQLite)
//	         ↓
//	    [org] package (build hierarchy, mark new hires)
//	         ↓
//	    [core/chart] package (tree with collapse and hide state)
//	         ↓
//	    [core/render/tree] package (layout, compaction, scene diff)
//	         ↓
//	    SVG/PNG/PDF/JSON/DOT/XLSX output
//
// # Quick Start
//
// Render a chart from a directory file:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "employees.json",
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("chart.svg", res.Artifacts[pipeline.FormatSVG].Data, 0o644)
//
// # Main Packages
//
// ## Domain
//
// [org] - Employee records and [org.BuildHierarchy], which picks the root,
// cuts management cycles and reports unplaced employees. [org/source] reads
// records from files or a SQLite database.
//
// [core/chart] - The tree model. Each node keeps its visible and stashed
// reports; [core/chart/collapse] moves children between the two and
// [core/chart/visibility] overlays hidden subtrees.
//
// ## Rendering
//
// [core/render/tree] - The tidy tree renderer. The stages:
//
//   - [core/render/tree/layout]: Node positions for either orientation
//   - [core/render/tree/compact]: Grid wrapping of large sibling groups
//   - [core/render/tree/links]: Elbow connectors between nodes
//   - [core/render/tree/styles]: Per-level colors and node decorations
//   - [core/render/tree/reconcile]: Enter, update and exit transitions
//   - [core/render/tree/sink]: Output formats (SVG, PNG, PDF, JSON)
//   - [core/render/tree/export]: Off-screen export with embedded photos
//
// [core/render/nodelink] - Graphviz DOT output of the hierarchy.
//
// [core/viewport] - Zoom and pan transforms, fit and focus.
//
// [xlsx] - Spreadsheet export of the whole directory.
//
// ## Infrastructure
//
// [pipeline] - The load → layout → render pipeline used by the CLI and the
// server. Ensures consistent behavior across entry points.
//
// [cache] - File, Redis and null caches for hierarchies and artifacts.
//
// [settings] - Chart settings with file, MongoDB and memory stores.
//
// [session] - Admin sessions with file, Redis and memory stores.
//
// [prefs] - Local viewer preferences such as hidden subtrees.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/core/chart/...      # Specific package
//	go test -run Example ./pkg/...    # Examples only
//
// [org]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/org
// [org/source]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/org/source
// [core]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core
// [core/chart]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/chart
// [core/chart/collapse]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/chart/collapse
// [core/chart/visibility]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/chart/visibility
// [core/render/tree]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/render/tree
// [core/render/tree/layout]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/render/tree/layout
// [core/render/tree/compact]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/render/tree/compact
// [core/render/tree/links]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/render/tree/links
// [core/render/tree/styles]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/render/tree/styles
// [core/render/tree/reconcile]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/render/tree/reconcile
// [core/render/tree/sink]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/render/tree/sink
// [core/render/tree/export]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/render/tree/export
// [core/render/nodelink]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/render/nodelink
// [core/viewport]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/core/viewport
// [xlsx]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/xlsx
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/cache
// [settings]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/settings
// [session]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/session
// [prefs]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/prefs
// [server]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/server
// [client]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/client
// [view]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/view
package pkg
