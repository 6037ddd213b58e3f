// Package nodelink renders installed dependency trees as node-link diagrams.
//
// # Usage
//
// Convert a tree to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(root, nodelink.Options{Requires: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include the install path and the path a hoisted
//     package came from
//   - Requires: requirement edges are drawn as dashed arrows next to the
//     node_modules nesting
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be rendered
// directly via [RenderSVG] or saved and processed with external Graphviz
// tools. Node identifiers are install paths, which are unique in a
// well-formed tree.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
