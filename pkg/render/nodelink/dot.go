package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/palette"
)

// Options configures DOT generation.
type Options struct {
	// Fill colours nodes by depth. Defaults to palette.Cool.
	Fill palette.Scale

	// MaxDepth is the depth mapped to the end of Fill. Defaults to the
	// tree's MaxDepth.
	MaxDepth int

	// Detailed adds the entity id and value under each label.
	Detailed bool
}

// dotHeader lays the tree out left to right like the tidy layout.
const dotHeader = `digraph G {
  rankdir=LR;
  bgcolor="transparent";
  node [shape=circle, style=filled, fixedsize=false, fontsize=14, penwidth=0];
  edge [arrowsize=0.6, color="#888888"];
  ranksep=1.2;
  nodesep=0.2;

`

// ToDOT writes t as a Graphviz digraph. Highlight colours set on the tree
// win over the depth fill; collapsed nodes that could expand get a double
// outline.
func ToDOT(t *hierarchy.Tree, opts Options) string {
	fill := opts.Fill
	if fill == nil {
		fill = palette.Cool
	}
	maxDepth := opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = t.MaxDepth()
	}

	var sb strings.Builder
	sb.WriteString(dotHeader)

	nodes := t.Nodes()
	for _, n := range nodes {
		color := n.Color
		if color == "" {
			color = palette.Depth(fill, n.Depth, maxDepth)
		}
		fmt.Fprintf(&sb, "  %s [label=%q, fillcolor=%q", dotID(n.Key), label(n, opts.Detailed), color)
		if n.Expandable {
			sb.WriteString(", peripheries=2")
		}
		sb.WriteString("];\n")
	}

	sb.WriteByte('\n')
	for _, n := range nodes {
		for _, c := range n.Children {
			fmt.Fprintf(&sb, "  %s -> %s;\n", dotID(n.Key), dotID(c))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func dotID(k hierarchy.Key) string { return "n" + strconv.Itoa(int(k)) }

func label(n *hierarchy.Node, detailed bool) string {
	if detailed {
		return n.Label + "\n" + n.ID + "\nvalue: " + strconv.Itoa(n.Value)
	}
	return n.Label
}

// RenderSVG lays out and draws a DOT document with the embedded Graphviz.
// The root element is rewritten so the drawing scales like the other SVG
// outputs.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "start graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var out bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "graphviz render")
	}
	return fitViewBox(out.Bytes()), nil
}

var (
	svgOpenRe = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="[0-9.]+\s+[0-9.]+\s+([0-9.]+)\s+([0-9.]+)"`)
)

// fitViewBox replaces Graphviz's point-sized <svg> element with one whose
// viewBox starts at the origin.
func fitViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[1]), 64)
	h, _ := strconv.ParseFloat(string(m[2]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	open := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgOpenRe.ReplaceAll(svg, []byte(open))
}
