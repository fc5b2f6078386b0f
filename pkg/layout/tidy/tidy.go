// Package tidy lays a tree out as a horizontal node-link diagram: depth runs
// left to right, siblings stack top to bottom.
//
// Positions come from the Reingold-Tilford tidy tree algorithm in the
// linear-time formulation of Buchheim, Jünger and Leipert (2002). Parents
// are centred over their children, subtrees never overlap, and identical
// subtrees are drawn identically. The breadth axis is sized to the widest
// level, so busy levels get room instead of squeezing neighbours.
package tidy

import (
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/layout"
	"github.com/matzehuels/taxoview/pkg/palette"
)

// Geometry defaults.
const (
	SiblingSpacing = 45.0
	LevelSpacing   = 200.0
	CircleRadius   = 12.0
)

type config struct {
	sibling  float64
	level    float64
	radius   float64
	fill     palette.Scale
	maxDepth int
	colors   map[hierarchy.Key]string
}

// Option configures [Layout].
type Option func(*config)

// WithSpacing sets the breadth allotted per node of the widest level and
// the distance between levels.
func WithSpacing(sibling, level float64) Option {
	return func(c *config) {
		if sibling > 0 {
			c.sibling = sibling
		}
		if level > 0 {
			c.level = level
		}
	}
}

// WithRadius sets the constant circle radius.
func WithRadius(r float64) Option {
	return func(c *config) {
		if r > 0 {
			c.radius = r
		}
	}
}

// WithFill sets the depth colour scale. The default is [palette.Cool].
func WithFill(s palette.Scale) Option {
	return func(c *config) {
		if s != nil {
			c.fill = s
		}
	}
}

// WithColors sets per-node fills that take the place of the tree's own
// Color fields. Nodes missing from m get their depth colour.
func WithColors(m map[hierarchy.Key]string) Option {
	return func(c *config) {
		if m == nil {
			m = map[hierarchy.Key]string{}
		}
		c.colors = m
	}
}

// WithMaxDepth sets the view depth used for the depth extent and for fill.
// The default is the tree's MaxDepth.
func WithMaxDepth(d int) Option {
	return func(c *config) { c.maxDepth = d }
}

// Extent returns the breadth and depth of the drawing before margins.
func Extent(t *hierarchy.Tree, opts ...Option) (breadth, depth float64) {
	cfg := newConfig(t, opts)
	return float64(hierarchy.MaxWidth(t)) * cfg.sibling, float64(cfg.maxDepth) * cfg.level
}

func newConfig(t *hierarchy.Tree, opts []Option) config {
	cfg := config{
		sibling:  SiblingSpacing,
		level:    LevelSpacing,
		radius:   CircleRadius,
		fill:     palette.Cool,
		maxDepth: t.MaxDepth(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Layout positions every node of t and returns circles in breadth-first
// order plus one arrow per parent -> child link. Depth maps to X, offset by
// the circle radius; breadth maps to Y, centred vertically in b when it
// fits.
func Layout(t *hierarchy.Tree, b layout.Bounds, opts ...Option) ([]layout.Circle, []layout.Arrow) {
	cfg := newConfig(t, opts)
	breadth, depth := Extent(t, opts...)

	order := t.BreadthFirst()
	root, byKey := newWalker(order)
	positions := root.solve(breadth, depth)

	offY := max((b.Height-breadth)/2, 0)
	circles := make([]layout.Circle, 0, len(order))
	index := make(map[hierarchy.Key]int, len(order))
	for _, n := range order {
		p := positions[byKey[n.Key]]
		c := layout.NewCircle(n)
		c.X = p.y + cfg.radius
		c.Y = p.x + offY
		c.R = cfg.radius
		c.Fill = cfg.fillOf(n)
		index[n.Key] = len(circles)
		circles = append(circles, c)
	}

	arrows := make([]layout.Arrow, 0, len(order)-1)
	for _, c := range circles[1:] {
		p := circles[index[hierarchy.Key(c.ParentKey)]]
		arrows = append(arrows, layout.Arrow{
			ID:        len(arrows),
			SourceKey: p.Key,
			TargetKey: c.Key,
			SourceX:   p.X,
			SourceY:   p.Y,
			TargetX:   c.X,
			TargetY:   c.Y,
		})
	}
	return circles, arrows
}

func (c config) fillOf(n *hierarchy.Node) string {
	color := n.Color
	if c.colors != nil {
		color = c.colors[n.Key]
	}
	if color == "" {
		color = palette.Depth(c.fill, n.Depth, c.maxDepth)
	}
	return color
}
