// Package layout defines the geometry produced by the layout engines and
// its serialization format.
//
// The engines live in sub-packages: [github.com/matzehuels/taxoview/pkg/layout/pack]
// nests discs inside their parents and [github.com/matzehuels/taxoview/pkg/layout/tidy]
// draws a horizontal node-link tree. Both emit [Circle] values that carry
// primitives only, so a renderer never needs to reach back into the tree.
package layout

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/path"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Layout modes.
const (
	ModeCircles = "circles"
	ModeTree    = "tree"
)

// Default drawing surface.
const (
	DefaultWidth  = 840.0
	DefaultHeight = 720.0
)

// NoParent marks the root circle.
const NoParent = -1

// =============================================================================
// Geometry
// =============================================================================

// Bounds is the size of the drawing surface.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultBounds returns the default drawing surface.
func DefaultBounds() Bounds { return Bounds{Width: DefaultWidth, Height: DefaultHeight} }

// Validate checks that both dimensions are positive.
func (b Bounds) Validate() error { return errors.ValidateBounds(b.Width, b.Height) }

// Min returns the shorter side.
func (b Bounds) Min() float64 { return min(b.Width, b.Height) }

// Circle is one positioned tree node.
type Circle struct {
	Key        int     `json:"key"`
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	R          float64 `json:"r"`
	Depth      int     `json:"depth"`
	Value      int     `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
	Expandable bool    `json:"expandable,omitempty"`
	ParentKey  int     `json:"parent_key"`
	Fill       string  `json:"fill"`
}

// NewCircle copies the primitive fields of a tree node.
func NewCircle(n *hierarchy.Node) Circle {
	return Circle{
		Key:        int(n.Key),
		ID:         n.ID,
		Label:      n.Label,
		Depth:      n.Depth,
		Value:      n.Value,
		IsLeaf:     n.IsLeaf,
		Expandable: n.Expandable,
		ParentKey:  int(n.Parent),
	}
}

// Contains reports whether the point lies inside the circle.
func (c Circle) Contains(x, y float64) bool {
	dx, dy := x-c.X, y-c.Y
	return dx*dx+dy*dy <= c.R*c.R
}

// Arrow is a parent -> child connector in the tree layout, or a mapping
// arrow from one edge of the canvas into a circle. Mapping arrows carry a
// Side and have SourceKey NoParent.
type Arrow struct {
	ID        int     `json:"id"`
	Side      string  `json:"side,omitempty"`
	SourceKey int     `json:"source_key"`
	TargetKey int     `json:"target_key"`
	SourceX   float64 `json:"source_x"`
	SourceY   float64 `json:"source_y"`
	TargetX   float64 `json:"target_x"`
	TargetY   float64 `json:"target_y"`
}

// =============================================================================
// Layout - Serialized View
// =============================================================================

// Layout is the serialization format for a rendered view.
//
//	Circles ("circles"): Circles only, nested by containment.
//	Tree ("tree"): Circles plus Arrows between them.
//
// Strip is set when a path is selected. Mappings holds the arrows of mapped
// entities in circle layouts.
type Layout struct {
	Mode     string  `json:"mode"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	RootID   string  `json:"root_id"`
	MaxDepth int     `json:"max_depth"`

	Circles  []Circle        `json:"circles"`
	Arrows   []Arrow         `json:"arrows,omitempty"`
	Mappings []Arrow         `json:"mappings,omitempty"`
	Strip    *path.PathStrip `json:"strip,omitempty"`
}

// IsTree reports whether this is a tree layout.
func (l *Layout) IsTree() bool { return l.Mode == ModeTree }

// Hit returns the deepest circle containing the point, if any.
func (l *Layout) Hit(x, y float64) (Circle, bool) {
	var best Circle
	found := false
	for _, c := range l.Circles {
		if c.Contains(x, y) && (!found || c.Depth >= best.Depth) {
			best, found = c, true
		}
	}
	return best, found
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// Marshal serializes a Layout to pretty-printed JSON bytes.
func Marshal(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal deserializes JSON bytes into a Layout.
// Validates that required fields are present for the mode.
func Unmarshal(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	if l.Mode == "" {
		l.Mode = ModeCircles
	}
	if l.Mode != ModeCircles && l.Mode != ModeTree {
		return Layout{}, errors.New(errors.ErrCodeInvalidFormat, "unknown layout mode %q", l.Mode)
	}
	if len(l.Circles) == 0 {
		return Layout{}, errors.New(errors.ErrCodeInvalidFormat, "layout must contain circles")
	}
	return l, nil
}

// WriteFile writes a Layout to a JSON file.
func WriteFile(l Layout, path string) error {
	data, err := Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a Layout from a JSON file.
func ReadFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
