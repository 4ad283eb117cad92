// Package sink renders chart scenes to output formats.
//
// # Overview
//
// A sink takes a laid out [tree.Scene] and produces bytes:
//
//   - [RenderSVG]: standalone SVG with inline styles
//   - [Document]: SVG with its page size, converted to PNG or PDF by
//     rsvg-convert
//   - [RenderRaster]: PNG drawn in pure Go, used when rsvg-convert is
//     unavailable or fails
//   - [RenderJSON]: node positions, links and wrapped groups
//
// # SVG Options
//
//   - [WithPadding]: space around the chart (the export uses 50)
//   - [WithBackground]: background fill, "none" for transparent
//   - [WithImages]: data URIs for profile photos, with a default icon
//   - [WithControls]: draw expand buttons and hide toggles
//   - [WithTitleLines]: wrap job titles over several lines
//
// Basic usage:
//
//	scene := tree.Build(t, tree.DefaultOptions())
//	svg := sink.RenderSVG(scene, sink.WithPadding(50))
//	png, err := sink.NewDocument(scene, sink.WithPadding(50)).PNG(ctx, 2)
//
// PNG and PDF conversion require librsvg:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// [tree.Scene]: github.com/matzehuels/orgchart/pkg/core/render/tree.Scene
package sink
