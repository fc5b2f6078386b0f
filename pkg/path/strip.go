package path

import (
	"github.com/matzehuels/taxoview/pkg/palette"
)

// Strip geometry defaults.
const (
	DefaultStripHeight = 200.0
	DefaultStripRadius = 25.0
)

// StripDisc is one vertex of a path strip.
type StripDisc struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
	Fill  string  `json:"fill"`
}

// StripArrow is the glyph between two discs.
type StripArrow struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PathStrip lays a path out as a single row.
type PathStrip struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Discs  []StripDisc  `json:"discs"`
	Arrows []StripArrow `json:"arrows"`
}

// Strip arranges the path's vertices left to right across width, with an
// arrow glyph in the gap after each vertex. Each vertex gets a slot of
// 2*width/count and each gap half a slot, count being 2*vertices + steps.
// label may be nil, in which case ids are used.
func Strip(p *Path, width float64, label func(string) string, ascent, descent palette.Scale) PathStrip {
	s := PathStrip{Width: width, Height: DefaultStripHeight}
	count := float64(2*len(p.Vertices) + len(p.Directions))
	if count == 0 {
		return s
	}
	slot := 2 * width / count
	gap := slot / 2
	y := s.Height / 2

	colors := p.Colors(ascent, descent)
	for i, id := range p.Vertices {
		text := id
		if label != nil {
			text = label(id)
		}
		s.Discs = append(s.Discs, StripDisc{
			ID:    id,
			Label: text,
			X:     float64(i)*slot + float64(i)*gap + slot/2,
			Y:     y,
			R:     DefaultStripRadius,
			Fill:  colors[i],
		})
	}
	for i, d := range p.Directions {
		s.Arrows = append(s.Arrows, StripArrow{
			Text: d.Arrow(),
			X:    float64(i+1)*slot + float64(i)*gap + gap/2,
			Y:    y,
		})
	}
	return s
}
