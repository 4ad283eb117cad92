// Package tree turns a chart into a renderable scene.
//
// # Overview
//
// A frame runs the full pipeline over the visible tree:
//
//  1. [layout.Apply] places every visible node with the tidy tree algorithm.
//  2. [compact.Apply] wraps large sibling groups into grids.
//  3. [links.Build] derives elbow and bus connectors.
//  4. [styles.Describe] computes each node card's appearance.
//
// The result is a [Scene]: positioned node elements and links, plus the
// scene bounds. [Engine] keeps the previous scene and diffs each new one
// against it with [reconcile.Diff], producing a [Transition] that says
// where entering elements start and where exiting elements go.
//
// # Transitions
//
// Entering nodes start at their parent's previous position, or at the
// parent's current position when the parent is entering too. Exiting nodes
// move to their nearest surviving ancestor's new position. Elbows enter and
// exit collapsed onto the same points. Bus links appear and disappear in
// place. A zero duration means the transition applies immediately.
//
// Sinks in the sink subpackage render a scene to SVG, JSON or PNG.
//
// [layout.Apply]: github.com/matzehuels/orgchart/pkg/core/render/tree/layout.Apply
// [compact.Apply]: github.com/matzehuels/orgchart/pkg/core/render/tree/compact.Apply
// [links.Build]: github.com/matzehuels/orgchart/pkg/core/render/tree/links.Build
// [styles.Describe]: github.com/matzehuels/orgchart/pkg/core/render/tree/styles.Describe
// [reconcile.Diff]: github.com/matzehuels/orgchart/pkg/core/render/tree/reconcile.Diff
package tree
