package path

import (
	"slices"
	"strings"

	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/ontology"
)

// Direction is the orientation of one path step.
type Direction int

const (
	// Up moves from a child to a parent.
	Up Direction = 1
	// Down moves from a parent to a child.
	Down Direction = -1
)

// String returns "up" or "down".
func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Arrow returns the glyph used in path strips.
func (d Direction) Arrow() string {
	if d == Up {
		return "↑"
	}
	return "↓"
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction { return -d }

// MarshalText encodes the direction as "up" or "down".
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts "up" or "down".
func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "up":
		*d = Up
	case "down":
		*d = Down
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown direction %q", b)
	}
	return nil
}

// Path is an ascent from a start entity to a common ancestor followed by a
// descent to an end entity.
type Path struct {
	Vertices   []string    `json:"vertices"`
	Directions []Direction `json:"directions"`
	Up         int         `json:"up"`
	Down       int         `json:"down"`
	Height     int         `json:"height"`
}

// Start returns the first vertex.
func (p *Path) Start() string { return p.Vertices[0] }

// End returns the last vertex.
func (p *Path) End() string { return p.Vertices[len(p.Vertices)-1] }

// Pivot returns the common ancestor where the ascent turns into the descent.
func (p *Path) Pivot() string { return p.Vertices[p.Up] }

// Contains reports whether id lies on the path.
func (p *Path) Contains(id string) bool { return slices.Contains(p.Vertices, id) }

// Set returns the vertices as a membership set.
func (p *Path) Set() map[string]bool {
	out := make(map[string]bool, len(p.Vertices))
	for _, v := range p.Vertices {
		out[v] = true
	}
	return out
}

// Reverse returns the same path walked from end to start.
func (p *Path) Reverse() *Path {
	r := &Path{
		Vertices:   slices.Clone(p.Vertices),
		Directions: make([]Direction, len(p.Directions)),
		Up:         p.Down,
		Down:       p.Up,
		Height:     p.Height,
	}
	slices.Reverse(r.Vertices)
	for i, d := range p.Directions {
		r.Directions[len(p.Directions)-1-i] = d.Flip()
	}
	return r
}

// String renders the path with arrow glyphs, for example "D ↑ B ↑ A ↓ C".
func (p *Path) String() string {
	var b strings.Builder
	for i, v := range p.Vertices {
		if i > 0 {
			b.WriteString(" " + p.Directions[i-1].Arrow() + " ")
		}
		b.WriteString(v)
	}
	return b.String()
}

// Find returns the shortest ascent/descent path from startID to endID.
//
// Find fails with ErrCodeEmptyGraph for a nil graph, ErrCodeUnknownNode
// when an endpoint is not registered, and ErrCodeNoPath when the endpoints
// share no ancestor.
func Find(g *ontology.Graph, startID, endID string) (*Path, error) {
	if g.IsEmpty() {
		return nil, errors.New(errors.ErrCodeEmptyGraph, "graph has no nodes")
	}
	for _, id := range []string{startID, endID} {
		if !g.Has(id) {
			return nil, errors.New(errors.ErrCodeUnknownNode, "entity %q not in graph", id)
		}
	}

	from := climb(g, startID)
	to := climb(g, endID)

	pivot, best := "", -1
	for id, up := range from.dist {
		down, ok := to.dist[id]
		if !ok {
			continue
		}
		total := up + down
		if best < 0 || total < best || (total == best && g.Index(id) < g.Index(pivot)) {
			pivot, best = id, total
		}
	}
	if best < 0 {
		return nil, errors.New(errors.ErrCodeNoPath, "no common ancestor for %q and %q", startID, endID)
	}

	ascent := from.chain(pivot)
	slices.Reverse(ascent)
	descent := to.chain(pivot)

	p := &Path{
		Vertices: append(ascent, descent[1:]...),
		Up:       len(ascent) - 1,
		Down:     len(descent) - 1,
	}
	p.Height = p.Up + p.Down
	p.Directions = make([]Direction, 0, p.Height)
	for range p.Up {
		p.Directions = append(p.Directions, Up)
	}
	for range p.Down {
		p.Directions = append(p.Directions, Down)
	}
	return p, nil
}

// ancestry is the result of an upward BFS: distance to every reachable
// ancestor and the vertex each one was reached from.
type ancestry struct {
	dist map[string]int
	prev map[string]string
}

func climb(g *ontology.Graph, id string) ancestry {
	a := ancestry{dist: map[string]int{id: 0}, prev: map[string]string{}}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n, _ := g.Node(cur)
		for _, p := range n.Parents {
			if _, seen := a.dist[p.ID]; seen {
				continue
			}
			a.dist[p.ID] = a.dist[cur] + 1
			a.prev[p.ID] = cur
			queue = append(queue, p.ID)
		}
	}
	return a
}

// chain returns the vertices from ancestor back down to the search origin.
func (a ancestry) chain(ancestor string) []string {
	out := []string{ancestor}
	for cur := ancestor; ; {
		next, ok := a.prev[cur]
		if !ok {
			return out
		}
		out = append(out, next)
		cur = next
	}
}
