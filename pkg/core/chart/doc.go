// Package chart holds the layout-side view of an employee hierarchy.
//
// # Overview
//
// A [Tree] wraps a rooted [org.Employee] hierarchy in [Node] values that
// carry the mutable state the layout and render passes need: the current
// and previous positions, the depth, and the split between visible and
// stashed (collapsed) children. The employee records themselves are never
// modified.
//
// # Visible Tree
//
// A node is either expanded, with its children in [Node.Visible], or
// collapsed, with its children in [Node.Stashed]. The visible tree is
// everything reachable from the root through Visible links. The root always
// renders. Collapse transitions live in the collapse subpackage; this
// package only exposes the structure.
//
// # Parent Links
//
// [Node.Parent] is a non-owning back reference used for traversal. The tree
// additionally keeps an id index and a precomputed ancestor path per node,
// rebuilt on every [New], so ancestor checks do not walk pointers.
//
// [org.Employee]: github.com/matzehuels/orgchart/pkg/org.Employee
package chart
