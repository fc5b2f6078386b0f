// Package pipeline provides the load → view → layout → render pipeline for
// taxoview.
//
// The CLI and the HTTP server both drive the engine through this package, so
// defaults, validation and caching behave the same on every entry point.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Read a dataset file or fetch one from a knowledge base
//  2. View: Build the bounded tree, optionally focused on a path
//  3. Layout: Compute circle-packing or horizontal tree geometry
//  4. Render: Generate output in various formats (JSON, SVG, DOT)
//
// Loads from remote sources, layouts and artifacts are cached through a
// [cache.Cache]. Local dataset files are read on every run; their content
// hash keys the later stages.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "animals.json",
//	    RootID:  "Q729",
//	    Depth:   2,
//	    Mode:    "circles",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taxoview/pkg/cache"
	"github.com/matzehuels/taxoview/pkg/dataset"
	"github.com/matzehuels/taxoview/pkg/engine"
	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/layout"
	"github.com/matzehuels/taxoview/pkg/palette"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultDepth is the tree depth used when none is requested.
	DefaultDepth = 1

	// DefaultMode is the default layout mode.
	DefaultMode = layout.ModeCircles

	// DefaultPalette names the default depth colour scale.
	DefaultPalette = palette.NameCool

	// DefaultRetryDelay is the first backoff step for remote loads.
	DefaultRetryDelay = 500 * time.Millisecond
)

// Output formats. Nodelink is the tree drawn by Graphviz.
const (
	FormatJSON     = "json"
	FormatSVG      = "svg"
	FormatDOT      = "dot"
	FormatNodelink = "nodelink"
)

// ValidFormats lists the accepted output formats.
var ValidFormats = map[string]bool{
	FormatJSON:     true,
	FormatSVG:      true,
	FormatDOT:      true,
	FormatNodelink: true,
}

// ValidModes lists the accepted layout modes.
var ValidModes = map[string]bool{
	layout.ModeCircles: true,
	layout.ModeTree:    true,
}

// Extension returns the file extension for an output format.
func Extension(format string) string {
	if format == FormatNodelink {
		return ".nodelink.svg"
	}
	return "." + format
}

// =============================================================================
// Options
// =============================================================================

// Loader supplies a dataset from a remote source.
type Loader interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// Options configures one run. Zero fields take the package defaults; the
// json tags let a request body decode straight into it.
type Options struct {
	// Where the hierarchy comes from.
	Source  string `json:"source"`          // dataset file, or a name for Loader's source
	Query   string `json:"query,omitempty"` // remote query text, part of the cache key
	Refresh bool   `json:"refresh,omitempty"`

	// Which part of it is shown.
	RootID    string `json:"root_id,omitempty"`
	Depth     int    `json:"depth,omitempty"`
	PathStart string `json:"path_start,omitempty"`
	PathEnd   string `json:"path_end,omitempty"`

	// Entities drawn with arrows from the left and right canvas edges.
	// They replace the path endpoints SelectPath maps.
	MapLeft  []string `json:"map_left,omitempty"`
	MapRight []string `json:"map_right,omitempty"`

	// How it is drawn.
	Mode    string  `json:"mode,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	Palette string  `json:"palette,omitempty"`

	Formats []string `json:"formats,omitempty"`
	Labels  bool     `json:"labels,omitempty"`

	Logger        *log.Logger     `json:"-"`
	Loader        Loader          `json:"-"`
	EngineOptions []engine.Option `json:"-"`

	// set once ValidateAndSetDefaults has succeeded
	validated bool
}

// Result is everything a run produced.
type Result struct {
	Dataset     *dataset.Dataset
	DatasetHash string // content hash of Dataset in canonical JSON
	View        *engine.View
	Layout      layout.Layout
	Artifacts   map[string][]byte // keyed by format
	Stats       Stats
	CacheInfo   CacheInfo
}

// Stats sizes the graph and the shown tree and times each stage.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	TreeSize   int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo records which stages were served from the cache. RenderHit
// means every requested format was.
type CacheInfo struct {
	LoadHit   bool
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat rejects unknown output formats with INVALID_INPUT.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, svg, dot, nodelink)", format)
	}
	return nil
}

// ValidateFormats reports the first unknown format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMode rejects anything but circles and tree.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid mode: %q (must be one of: circles, tree)", mode)
	}
	return nil
}

// ValidateAndSetDefaults runs the load, layout and render checks, filling
// defaults on the way. Later calls are no-ops.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the source fields.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" && o.Loader == nil {
		return errors.New(errors.ErrCodeInvalidInput, "source is required")
	}
	o.ensureLogger()
	return nil
}

// SetLayoutDefaults fills the view and layout fields left at zero.
func (o *Options) SetLayoutDefaults() {
	if o.Depth == 0 {
		o.Depth = DefaultDepth
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.Width == 0 {
		o.Width = layout.DefaultWidth
	}
	if o.Height == 0 {
		o.Height = layout.DefaultHeight
	}
	if o.Palette == "" {
		o.Palette = DefaultPalette
	}
	o.ensureLogger()
}

// ValidateForLayout fills defaults, then checks mode, depth, bounds,
// palette and that a path names both ends.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if err := errors.ValidateDepth(o.Depth, hierarchy.DepthCap); err != nil {
		return err
	}
	if err := errors.ValidateBounds(o.Width, o.Height); err != nil {
		return err
	}
	if (o.PathStart == "") != (o.PathEnd == "") {
		return errors.New(errors.ErrCodeInvalidInput, "path needs both a start and an end")
	}
	if _, err := palette.Named(o.Palette); err != nil {
		return err
	}
	return nil
}

// SetRenderDefaults selects SVG when no format was requested.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	o.ensureLogger()
}

// ValidateForRender fills defaults and checks the formats.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// HasPath reports whether a path selection was requested.
func (o *Options) HasPath() bool {
	return o.PathStart != "" && o.PathEnd != ""
}

// Bounds returns the drawing surface.
func (o *Options) Bounds() layout.Bounds {
	return layout.Bounds{Width: o.Width, Height: o.Height}
}

// DatasetKeyOpts keys remote loads by query and root.
func (o *Options) DatasetKeyOpts() cache.DatasetKeyOpts {
	return cache.DatasetKeyOpts{Query: o.Query, Root: o.RootID}
}

// LayoutKeyOpts keys a layout by everything that changes its geometry.
// With a view, the view's effective root, depth, path, mappings and tree
// shape win over the requested ones. With an engine, its settings are part of the key.
func (o *Options) LayoutKeyOpts(eng *engine.Engine, v *engine.View) cache.LayoutKeyOpts {
	opts := cache.LayoutKeyOpts{
		Mode:   o.Mode,
		RootID: o.RootID,
		Depth:  o.Depth,
		Width:  o.Width,
		Height: o.Height,
		Scale:  o.Palette,
	}
	if eng != nil {
		opts.Engine = cache.Hash([]byte(eng.Settings()))
	}
	if v != nil {
		opts.RootID = v.RootID
		opts.Depth = v.Depth
		if v.Path != nil {
			opts.Path = v.Path.Vertices
		}
		opts.MapLeft, opts.MapRight = v.Left, v.Right
		if v.Tree != nil {
			opts.Shape = cache.Hash([]byte(v.Tree.Signature()))
		}
	}
	return opts
}

// ArtifactKeyOpts keys one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, Labels: o.Labels}
}

func (o *Options) ensureLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
