// Package svg writes taxoview layouts as standalone SVG documents.
//
// Circle layouts draw every disc in breadth-first order so children paint
// over their parents. Tree layouts draw the arrows first, then the nodes with
// labels to their right. Mapping arrows are drawn on top, and a selected
// path strip, when present, is appended below the main drawing.
package svg

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/taxoview/pkg/layout"
	"github.com/matzehuels/taxoview/pkg/palette"
	"github.com/matzehuels/taxoview/pkg/path"
)

// Option configures [Render].
type Option func(*renderer)

type renderer struct {
	labels     bool
	background string
	stroke     string
}

// WithLabels draws entity labels: on leaves for circle layouts and next to
// every node for tree layouts.
func WithLabels() Option { return func(r *renderer) { r.labels = true } }

// WithBackground fills the canvas with color.
func WithBackground(color string) Option { return func(r *renderer) { r.background = color } }

// WithStroke sets the outline colour of circles.
func WithStroke(color string) Option { return func(r *renderer) { r.stroke = color } }

// Render returns l as an SVG document.
func Render(l layout.Layout, opts ...Option) []byte {
	r := renderer{stroke: "#ffffff"}
	for _, opt := range opts {
		opt(&r)
	}

	height := l.Height
	if l.Strip != nil {
		height += l.Strip.Height
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		l.Width, height, l.Width, height)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(r.background))
	}

	if l.IsTree() {
		r.renderTree(&buf, l)
	} else {
		r.renderCircles(&buf, l)
	}
	if len(l.Mappings) > 0 {
		renderMappings(&buf, l.Mappings)
	}
	if l.Strip != nil {
		renderStrip(&buf, *l.Strip, l.Height)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *renderer) renderCircles(buf *bytes.Buffer, l layout.Layout) {
	buf.WriteString(`  <g class="circles">` + "\n")
	for _, c := range l.Circles {
		fmt.Fprintf(buf, `    <circle id="node-%d" data-id="%s" cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s"><title>%s</title></circle>`+"\n",
			c.Key, escapeXML(c.ID), c.X, c.Y, c.R, escapeXML(c.Fill), r.stroke, escapeXML(c.Label))
	}
	buf.WriteString("  </g>\n")

	if !r.labels {
		return
	}
	buf.WriteString(`  <g class="labels" text-anchor="middle" dominant-baseline="central">` + "\n")
	for _, c := range l.Circles {
		if !c.IsLeaf || c.R < fontSizeMin {
			continue
		}
		size := fontSize(2*c.R, c.R, len(c.Label))
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f">%s</text>`+"\n",
			c.X, c.Y, fontFamily, size, escapeXML(truncate(c.Label, 2*c.R, size)))
	}
	buf.WriteString("  </g>\n")
}

func (r *renderer) renderTree(buf *bytes.Buffer, l layout.Layout) {
	buf.WriteString("  <defs>\n")
	buf.WriteString(`    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse">` + "\n")
	buf.WriteString(`      <path d="M 0 0 L 10 5 L 0 10 z" fill="#888888"/>` + "\n")
	buf.WriteString("    </marker>\n")
	buf.WriteString("  </defs>\n")

	radius := map[int]float64{}
	for _, c := range l.Circles {
		radius[c.Key] = c.R
	}

	buf.WriteString(`  <g class="arrows" stroke="#888888" stroke-width="1.5">` + "\n")
	for _, a := range l.Arrows {
		// Stop short of the target disc so the head stays visible.
		fmt.Fprintf(buf, `    <line id="arrow-%d" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" marker-end="url(#arrow)"/>`+"\n",
			a.ID, a.SourceX+radius[a.SourceKey], a.SourceY, a.TargetX-radius[a.TargetKey], a.TargetY)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="nodes">` + "\n")
	for _, c := range l.Circles {
		fmt.Fprintf(buf, `    <circle id="node-%d" data-id="%s" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"><title>%s</title></circle>`+"\n",
			c.Key, escapeXML(c.ID), c.X, c.Y, c.R, escapeXML(c.Fill), escapeXML(c.Label))
		if r.labels {
			fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f" dominant-baseline="central">%s</text>`+"\n",
				c.X+c.R+4, c.Y, fontFamily, treeFontSize, escapeXML(c.Label))
		}
	}
	buf.WriteString("  </g>\n")
}

func renderMappings(buf *bytes.Buffer, arrows []layout.Arrow) {
	buf.WriteString("  <defs>\n")
	fmt.Fprintf(buf, `    <marker id="map-arrow" viewBox="0 -5 10 10" refX="9" markerWidth="11" markerHeight="6" orient="auto"><path d="M0,-5L10,0L0,5" fill="%s"/></marker>`+"\n", palette.Mapping)
	buf.WriteString("  </defs>\n")
	fmt.Fprintf(buf, `  <g class="mappings" stroke="%s" stroke-width="2">`+"\n", palette.Mapping)
	for _, a := range arrows {
		fmt.Fprintf(buf, `    <line class="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" marker-end="url(#map-arrow)"/>`+"\n",
			escapeXML(a.Side), a.SourceX, a.SourceY, a.TargetX, a.TargetY)
	}
	buf.WriteString("  </g>\n")
}

func renderStrip(buf *bytes.Buffer, s path.PathStrip, offsetY float64) {
	fmt.Fprintf(buf, `  <g class="path-strip" transform="translate(0 %.2f)" text-anchor="middle" dominant-baseline="central">`+"\n", offsetY)
	for _, d := range s.Discs {
		fmt.Fprintf(buf, `    <circle data-id="%s" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n",
			escapeXML(d.ID), d.X, d.Y, d.R, escapeXML(d.Fill))
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f">%s</text>`+"\n",
			d.X, d.Y+d.R+treeFontSize, fontFamily, treeFontSize, escapeXML(d.Label))
	}
	for _, a := range s.Arrows {
		fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-family="%s" font-size="%.1f">%s</text>`+"\n",
			a.X, a.Y, fontFamily, fontSizeMax, escapeXML(a.Text))
	}
	buf.WriteString("  </g>\n")
}
