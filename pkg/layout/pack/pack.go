package pack

import (
	"math"

	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/layout"
	"github.com/matzehuels/taxoview/pkg/palette"
)

// Padding tiers used by AdaptivePadding.
const (
	PaddingPair    = 200.0
	PaddingSmall   = 40.0
	PaddingDefault = 7.0

	smallTree = 6
)

// AdaptivePadding returns the sibling gap for a tree of n nodes.
func AdaptivePadding(n int) float64 {
	switch {
	case n == 2:
		return PaddingPair
	case n < smallTree:
		return PaddingSmall
	default:
		return PaddingDefault
	}
}

type config struct {
	padding  float64
	adaptive bool
	fill     palette.Scale
	maxDepth int
	colors   map[hierarchy.Key]string
}

// Option configures [Layout].
type Option func(*config)

// WithPadding sets a fixed sibling gap instead of AdaptivePadding.
func WithPadding(p float64) Option {
	return func(c *config) {
		c.padding = max(p, 0)
		c.adaptive = false
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

// WithMaxDepth sets the depth that maps to the end of the fill scale.
// The default is the tree's MaxDepth.
func WithMaxDepth(d int) Option {
	return func(c *config) { c.maxDepth = d }
}

type node struct {
	circle
	src      *hierarchy.Node
	weight   float64
	children []*node
}

// Layout packs t into b and returns one circle per tree node in
// breadth-first order. Coordinates are absolute within b; the root is
// centred and its diameter equals the shorter side of b.
func Layout(t *hierarchy.Tree, b layout.Bounds, opts ...Option) []layout.Circle {
	cfg := config{adaptive: true, fill: palette.Cool, maxDepth: t.MaxDepth()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.adaptive {
		cfg.padding = AdaptivePadding(t.Len())
	}

	byKey := map[hierarchy.Key]*node{}
	order := t.BreadthFirst()
	for _, n := range order {
		pn := &node{src: n}
		byKey[n.Key] = pn
		if n.Parent != hierarchy.NoKey {
			parent := byKey[n.Parent]
			parent.children = append(parent.children, pn)
		}
	}
	root := byKey[t.RootKey()]

	// Children follow parents in BFS order, so a reverse scan is post-order
	// enough for bottom-up passes.
	for i := len(order) - 1; i >= 0; i-- {
		n := byKey[order[i].Key]
		n.weight = math.Sqrt(math.Max(float64(n.src.Value), 0))
		for _, c := range n.children {
			n.weight += c.weight
		}
		if len(n.children) == 0 {
			n.r = math.Sqrt(n.weight)
		}
	}

	side := b.Min()
	rng := newRand()
	for i := len(order) - 1; i >= 0; i-- {
		packChildren(byKey[order[i].Key], 0, rng)
	}
	if cfg.padding > 0 && root.r > 0 {
		k := root.r / side
		for i := len(order) - 1; i >= 0; i-- {
			packChildren(byKey[order[i].Key], cfg.padding*k, rng)
		}
	}

	scale := 1.0
	if root.r > 0 {
		scale = side / (2 * root.r)
	}
	root.x, root.y = b.Width/2, b.Height/2

	out := make([]layout.Circle, 0, len(order))
	for _, n := range order {
		pn := byKey[n.Key]
		pn.r *= scale
		if n.Parent != hierarchy.NoKey {
			parent := byKey[n.Parent]
			pn.x = parent.x + scale*pn.x
			pn.y = parent.y + scale*pn.y
		}

		c := layout.NewCircle(n)
		c.X, c.Y, c.R = pn.x, pn.y, pn.r
		c.Fill = cfg.fillOf(n)
		out = append(out, c)
	}
	return out
}

// packChildren places n's children around the origin and sets n.r to the
// radius of their enclosing circle plus pad.
func packChildren(n *node, pad float64, rng shuffler) {
	if len(n.children) == 0 {
		return
	}
	cs := make([]*circle, len(n.children))
	for i, c := range n.children {
		cs[i] = &c.circle
		c.r += pad
	}
	e := packSiblings(cs, rng)
	for _, c := range n.children {
		c.r -= pad
	}
	n.r = e + pad
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
