// Package palette provides the colour scales used to fill circles and to
// highlight paths.
//
// A [Scale] maps a position in [0, 1] to a CSS hex colour. The engine never
// hard-codes colours: layouts take a Scale for depth fills and path
// highlighting takes one Scale per segment, so callers can swap palettes
// without touching layout code.
package palette

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/taxoview/pkg/errors"
)

// Scale maps t in [0, 1] to a hex colour such as "#6e40aa". Values outside
// the range are clamped.
type Scale func(t float64) string

// Default colours for path highlighting.
const (
	AscentFrom  = "#ff8d92"
	AscentTo    = "#ff0000"
	DescentFrom = "#ff0000"
	DescentTo   = "#ffb347"
)

// Mapping colours mapping arrows and the tree nodes they point at.
const Mapping = "#ffd700"

// Named scale identifiers accepted by [Named].
const (
	NameCool = "cool"
	NameWarm = "warm"
	NameGrey = "grey"
)

// Cubehelix coefficients (Green, 2011).
const (
	chA = -0.14861
	chB = +1.78277
	chC = -0.29227
	chD = -0.90649
	chE = +1.97294
)

type cubehelix struct{ h, s, l float64 }

func (c cubehelix) color() colorful.Color {
	h := (c.h + 120) * math.Pi / 180
	a := c.s * c.l * (1 - c.l)
	cosh, sinh := math.Cos(h), math.Sin(h)
	return colorful.Color{
		R: c.l + a*(chA*cosh+chB*sinh),
		G: c.l + a*(chC*cosh+chD*sinh),
		B: c.l + a*(chE*cosh),
	}
}

// cubehelixLong interpolates hue without taking the shorter arc.
func cubehelixLong(from, to cubehelix) Scale {
	return func(t float64) string {
		t = clamp(t)
		c := cubehelix{
			h: from.h + (to.h-from.h)*t,
			s: from.s + (to.s-from.s)*t,
			l: from.l + (to.l-from.l)*t,
		}
		return c.color().Clamped().Hex()
	}
}

// Cool is the blue-violet to green cubehelix rainbow half used for depth
// fills.
var Cool = cubehelixLong(cubehelix{260, 0.75, 0.35}, cubehelix{80, 1.50, 0.8})

// Warm is the magenta to yellow-green counterpart of [Cool].
var Warm = cubehelixLong(cubehelix{-100, 0.75, 0.35}, cubehelix{80, 1.50, 0.8})

// Grey runs from white to black.
var Grey = MustLinear("#ffffff", "#000000")

// Linear blends between two hex colours in HCL space.
func Linear(from, to string) (Scale, error) {
	a, err := colorful.Hex(from)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse colour %q", from)
	}
	b, err := colorful.Hex(to)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse colour %q", to)
	}
	lo, hi := a.Hex(), b.Hex()
	return func(t float64) string {
		switch {
		case t <= 0 || math.IsNaN(t):
			return lo
		case t >= 1:
			return hi
		}
		return a.BlendHcl(b, t).Clamped().Hex()
	}, nil
}

// MustLinear is like [Linear] but panics on malformed colours.
func MustLinear(from, to string) Scale {
	s, err := Linear(from, to)
	if err != nil {
		panic(err)
	}
	return s
}

// Named resolves a scale by name, or a "#from..#to" pair.
func Named(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameCool, "":
		return Cool, nil
	case NameWarm:
		return Warm, nil
	case NameGrey, "gray":
		return Grey, nil
	}
	if from, to, ok := strings.Cut(name, ".."); ok {
		return Linear(from, to)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown palette %q", name)
}

// Ascent returns the default scale for the upward segment of a path.
func Ascent() Scale { return MustLinear(AscentFrom, AscentTo) }

// Descent returns the default scale for the downward segment of a path.
func Descent() Scale { return MustLinear(DescentFrom, DescentTo) }

// Depth evaluates s at depth/maxDepth. A zero maxDepth maps everything to
// the start of the scale.
func Depth(s Scale, depth, maxDepth int) string {
	if maxDepth <= 0 {
		return s(0)
	}
	return s(float64(depth) / float64(maxDepth))
}

// ValidateHex reports whether c is a parseable hex colour.
func ValidateHex(c string) error {
	if _, err := colorful.Hex(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse colour %q", c)
	}
	return nil
}

func clamp(t float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return math.Min(1, math.Max(0, t))
}

// String renders a few samples of s, handy in logs and tests.
func String(s Scale, samples int) string {
	if samples < 2 {
		samples = 2
	}
	parts := make([]string, samples)
	for i := range parts {
		parts[i] = s(float64(i) / float64(samples-1))
	}
	return fmt.Sprint(parts)
}
