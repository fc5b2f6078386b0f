// Package render holds the output sinks for taxoview layouts.
//
// # Overview
//
// The layout engines produce geometry only. Sinks turn that geometry, or the
// tree itself, into files:
//
//   - [svg]: circles, arrows and the path strip of a [layout.Layout] as SVG
//   - [nodelink]: a tree as Graphviz DOT, rendered in-process to SVG
//
// Typical use goes through the pipeline, which caches every artifact:
//
//	l := eng.CirclePacking(view, layout.DefaultBounds())
//	doc := svg.Render(l, svg.WithLabels())
//
//	dot := nodelink.ToDOT(view.Tree, nodelink.Options{})
//	out, err := nodelink.RenderSVG(ctx, dot)
//
// [svg]: github.com/matzehuels/taxoview/pkg/render/svg
// [nodelink]: github.com/matzehuels/taxoview/pkg/render/nodelink
// [layout.Layout]: github.com/matzehuels/taxoview/pkg/layout.Layout
package render
