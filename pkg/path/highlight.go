package path

import (
	"github.com/matzehuels/taxoview/pkg/palette"
)

// Segment identifies the half of a path a vertex belongs to.
type Segment int

const (
	Ascent Segment = iota
	Descent
)

// Stop is a vertex with its normalized position inside its segment.
// T runs from 0 at the segment start to 1 at its end. The pivot closes
// the ascent segment.
type Stop struct {
	ID      string  `json:"id"`
	Index   int     `json:"index"`
	Segment Segment `json:"segment"`
	T       float64 `json:"t"`
}

// Stops returns one Stop per vertex.
func (p *Path) Stops() []Stop {
	out := make([]Stop, len(p.Vertices))
	for i, id := range p.Vertices {
		s := Stop{ID: id, Index: i}
		switch {
		case i <= p.Up:
			s.Segment = Ascent
			s.T = 1
			if p.Up > 0 {
				s.T = float64(i) / float64(p.Up)
			}
		default:
			s.Segment = Descent
			s.T = float64(i-p.Up) / float64(p.Down)
		}
		out[i] = s
	}
	return out
}

// Colors maps every vertex to its gradient colour, in vertex order.
func (p *Path) Colors(ascent, descent palette.Scale) []string {
	stops := p.Stops()
	out := make([]string, len(stops))
	for i, s := range stops {
		if s.Segment == Ascent {
			out[i] = ascent(s.T)
		} else {
			out[i] = descent(s.T)
		}
	}
	return out
}

// Highlight returns the colour override for every vertex on the path.
// Entities off the path are absent and keep their default colouring.
func Highlight(p *Path, ascent, descent palette.Scale) map[string]string {
	colors := p.Colors(ascent, descent)
	out := make(map[string]string, len(colors))
	for i, id := range p.Vertices {
		out[id] = colors[i]
	}
	return out
}
