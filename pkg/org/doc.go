// Package org defines the employee hierarchy that an org chart is drawn from.
//
// The source of truth is a flat directory of [Employee] records linked by
// ManagerID. [BuildHierarchy] turns those records into a strictly
// hierarchical tree (single parent per node, no cycles, unique ids) rooted at
// a configured top user or an auto-detected one. The tree is what the
// employees endpoint serves and what the chart engine lays out.
//
// # Pipeline
//
//	records ──Filters.Apply──▶ kept records ──BuildHierarchy──▶ root
//	root ──MarkNewEmployees──▶ root with IsNewEmployee flags
//
// # Sources
//
// Records can be decoded from JSON or YAML files with [Decode] / [Load], or
// read from a SQLite directory database via the source subpackage. A file may
// hold either a flat record list or an already nested tree; [Load] accepts
// both.
//
// # Search
//
// [Search] implements the case-insensitive name/title/department substring
// match used by the search endpoint, with a two-character minimum query and a
// result limit.
package org
