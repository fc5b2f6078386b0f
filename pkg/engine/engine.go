package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/layout"
	"github.com/matzehuels/taxoview/pkg/layout/pack"
	"github.com/matzehuels/taxoview/pkg/layout/tidy"
	"github.com/matzehuels/taxoview/pkg/observability"
	"github.com/matzehuels/taxoview/pkg/ontology"
	"github.com/matzehuels/taxoview/pkg/palette"
	"github.com/matzehuels/taxoview/pkg/path"
)

// Engine answers tree, path and layout requests against one graph.
type Engine struct {
	graph *ontology.Graph

	depthScale palette.Scale
	ascent     palette.Scale
	descent    palette.Scale

	probeDepth int
	padding    float64 // negative selects pack.AdaptivePadding
	sibling    float64
	level      float64
	radius     float64
}

// Option configures an [Engine].
type Option func(*Engine)

// WithDepthScale sets the scale that colours nodes by depth.
func WithDepthScale(s palette.Scale) Option {
	return func(e *Engine) {
		if s != nil {
			e.depthScale = s
		}
	}
}

// WithPathScales sets the ascent and descent scales used for path
// highlighting. Nil scales keep the defaults.
func WithPathScales(ascent, descent palette.Scale) Option {
	return func(e *Engine) {
		if ascent != nil {
			e.ascent = ascent
		}
		if descent != nil {
			e.descent = descent
		}
	}
}

// WithProbeDepth sets how deep [Engine.NewView] looks when measuring the
// reachable depth below a root.
func WithProbeDepth(d int) Option {
	return func(e *Engine) { e.probeDepth = hierarchy.ClampDepth(d) }
}

// WithPadding fixes the circle-packing sibling gap.
func WithPadding(p float64) Option {
	return func(e *Engine) { e.padding = max(p, 0) }
}

// WithTreeSpacing sets the tree layout's sibling and level spacing.
func WithTreeSpacing(sibling, level float64) Option {
	return func(e *Engine) {
		if sibling > 0 {
			e.sibling = sibling
		}
		if level > 0 {
			e.level = level
		}
	}
}

// WithTreeRadius sets the node radius of the tree layout.
func WithTreeRadius(r float64) Option {
	return func(e *Engine) {
		if r > 0 {
			e.radius = r
		}
	}
}

// New returns an engine over g.
func New(g *ontology.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:      g,
		depthScale: palette.Cool,
		ascent:     palette.Ascent(),
		descent:    palette.Descent(),
		probeDepth: hierarchy.DefaultMaxDepth,
		padding:    -1,
		sibling:    tidy.SiblingSpacing,
		level:      tidy.LevelSpacing,
		radius:     tidy.CircleRadius,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the underlying graph.
func (e *Engine) Graph() *ontology.Graph { return e.graph }

// scaleSamples are the positions at which Settings samples each scale.
var scaleSamples = []float64{0, 0.25, 0.5, 0.75, 1}

// Settings describes every option that changes layout geometry or colour.
// Two engines with equal Settings lay out equal views identically, so the
// string can key layout caches.
func (e *Engine) Settings() string {
	b := fmt.Appendf(nil, "pad=%g sib=%g lvl=%g r=%g", e.padding, e.sibling, e.level, e.radius)
	for _, sc := range []struct {
		name  string
		scale palette.Scale
	}{{"depth", e.depthScale}, {"up", e.ascent}, {"down", e.descent}} {
		b = fmt.Appendf(b, " %s=", sc.name)
		for _, t := range scaleSamples {
			b = append(b, sc.scale(t)...)
		}
	}
	return string(b)
}

// =============================================================================
// Commands
// =============================================================================

// BuildTree builds the bounded tree below rootID.
func (e *Engine) BuildTree(rootID string, depth int) (*hierarchy.Tree, error) {
	start := time.Now()
	t, err := hierarchy.Build(e.graph, rootID, depth)
	nodes := 0
	if t != nil {
		nodes = t.Len()
	}
	observability.Engine().OnBuildTree(rootID, nodes, time.Since(start), err)
	return t, err
}

// Expand grafts the graph children of leaf k and returns the new tree depth.
func (e *Engine) Expand(t *hierarchy.Tree, k hierarchy.Key) (int, error) {
	if t == nil {
		return 0, errors.New(errors.ErrCodeUnknownNode, "no tree")
	}
	depth, err := t.Expand(e.graph, k)
	observability.Engine().OnMutate("expand", t.Len(), err)
	return depth, err
}

// Collapse removes the descendants of k.
func (e *Engine) Collapse(t *hierarchy.Tree, k hierarchy.Key) error {
	if t == nil {
		return errors.New(errors.ErrCodeUnknownNode, "no tree")
	}
	err := t.Collapse(k)
	observability.Engine().OnMutate("collapse", t.Len(), err)
	return err
}

// FindPath returns the shortest up-then-down path between two entities.
func (e *Engine) FindPath(startID, endID string) (*path.Path, error) {
	start := time.Now()
	p, err := path.Find(e.graph, startID, endID)
	height := 0
	if p != nil {
		height = p.Height
	}
	observability.Engine().OnPath(height, time.Since(start), err)
	return p, err
}

// =============================================================================
// Queries
// =============================================================================

// CirclePacking lays the view's tree out as nested circles. Path vertices
// are filled from the ascent and descent scales, the path strip is attached
// and mapped entities get arrows from the canvas edges. v is not modified.
func (e *Engine) CirclePacking(v *View, b layout.Bounds) layout.Layout {
	out := e.frame(v, layout.ModeCircles, b)
	if v == nil || v.Tree == nil {
		return out
	}
	start := time.Now()

	opts := []pack.Option{
		pack.WithFill(e.depthScale),
		pack.WithMaxDepth(out.MaxDepth),
		pack.WithColors(e.Colors(v, layout.ModeCircles)),
	}
	if e.padding >= 0 {
		opts = append(opts, pack.WithPadding(e.padding))
	}
	out.Circles = pack.Layout(v.Tree, b, opts...)
	out.Mappings = e.mappingArrows(v, out)
	observability.Engine().OnLayout(layout.ModeCircles, len(out.Circles), time.Since(start))
	return out
}

// TreeLayout lays the view's tree out as a horizontal node-link diagram.
// Mapped nodes are filled with [palette.Mapping] and path vertices with the
// path scales. v is not modified.
func (e *Engine) TreeLayout(v *View, b layout.Bounds) layout.Layout {
	out := e.frame(v, layout.ModeTree, b)
	if v == nil || v.Tree == nil {
		return out
	}
	start := time.Now()

	out.Circles, out.Arrows = tidy.Layout(v.Tree, b,
		tidy.WithFill(e.depthScale),
		tidy.WithColors(e.Colors(v, layout.ModeTree)),
		tidy.WithMaxDepth(out.MaxDepth),
		tidy.WithSpacing(e.sibling, e.level),
		tidy.WithRadius(e.radius),
	)
	observability.Engine().OnLayout(layout.ModeTree, len(out.Circles), time.Since(start))
	return out
}

// Render validates bounds and mode, then dispatches to CirclePacking or
// TreeLayout.
func (e *Engine) Render(v *View, mode string, b layout.Bounds) (layout.Layout, error) {
	if err := b.Validate(); err != nil {
		return layout.Layout{}, err
	}
	if v == nil || v.Tree == nil {
		return layout.Layout{}, errors.New(errors.ErrCodeInvalidInput, "view has no tree")
	}
	switch mode {
	case layout.ModeCircles, "":
		return e.CirclePacking(v, b), nil
	case layout.ModeTree:
		return e.TreeLayout(v, b), nil
	default:
		return layout.Layout{}, errors.New(errors.ErrCodeInvalidInput, "unknown layout mode %q", mode)
	}
}

// Label returns the display label of an entity.
func (e *Engine) Label(id string) string { return e.graph.Label(id) }

func (e *Engine) frame(v *View, mode string, b layout.Bounds) layout.Layout {
	out := layout.Layout{Mode: mode, Width: b.Width, Height: b.Height}
	if v == nil {
		return out
	}
	out.RootID = v.RootID
	out.MaxDepth = v.MaxDepth
	if v.Tree != nil {
		out.MaxDepth = max(out.MaxDepth, v.Tree.MaxDepth())
	}
	if v.Path != nil {
		strip := path.Strip(v.Path, b.Width, e.graph.Label, e.ascent, e.descent)
		out.Strip = &strip
	}
	return out
}

// Colors returns the fill overrides of v's tree for a layout mode: in tree
// mode the mapping targets, then the path vertices on top. Circle layouts
// show mappings as arrows instead.
func (e *Engine) Colors(v *View, mode string) map[hierarchy.Key]string {
	out := map[hierarchy.Key]string{}
	if v == nil || v.Tree == nil {
		return out
	}
	if mode == layout.ModeTree {
		for _, k := range e.MapTargets(v.Tree, slices.Concat(v.Left, v.Right)) {
			out[k] = palette.Mapping
		}
	}
	if v.Path != nil {
		for id, color := range path.Highlight(v.Path, e.ascent, e.descent) {
			for _, k := range v.Tree.Find(id) {
				out[k] = color
			}
		}
	}
	return out
}

// Highlight writes the tree-mode [Engine.Colors] into the view's tree,
// replacing earlier overrides. Sinks that read node colours straight from
// the tree call it before drawing; the layout queries do not need it.
func (e *Engine) Highlight(v *View) {
	if v == nil || v.Tree == nil {
		return
	}
	v.Tree.ClearColors()
	for k, color := range e.Colors(v, layout.ModeTree) {
		_ = v.Tree.SetColor(k, color)
	}
}
