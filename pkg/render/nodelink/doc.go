// Package nodelink renders hierarchy trees as Graphviz node-link diagrams.
//
// # Usage
//
// Convert a tree to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(t, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The generated DOT lays the tree out left to right (rankdir=LR), like the
// horizontal tree layout, with filled circle nodes coloured by depth or by
// the node's colour override. Nodes are keyed by tree key, so an entity that
// appears twice after an expand gets two nodes.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink
