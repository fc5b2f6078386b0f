package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/layout"
	"github.com/matzehuels/taxoview/pkg/palette"
	"github.com/matzehuels/taxoview/pkg/render/nodelink"
	"github.com/matzehuels/taxoview/pkg/render/svg"
)

// Render generates output artifacts in the requested formats. The tree is
// only needed for the DOT based formats and may be nil otherwise.
func Render(ctx context.Context, l layout.Layout, t *hierarchy.Tree, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = layout.Marshal(l)
		case FormatSVG:
			data = svg.Render(l, buildSVGOptions(opts)...)
		case FormatDOT, FormatNodelink:
			if t == nil {
				return nil, errors.New(errors.ErrCodeInvalidInput, "%s output needs a tree", format)
			}
			dot := nodelink.ToDOT(t, nodelinkOptions(l, opts))
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = nodelink.RenderSVG(ctx, dot)
			}
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// buildSVGOptions builds SVG rendering options.
func buildSVGOptions(opts Options) []svg.Option {
	var svgOpts []svg.Option
	if opts.Labels {
		svgOpts = append(svgOpts, svg.WithLabels())
	}
	return svgOpts
}

func nodelinkOptions(l layout.Layout, opts Options) nodelink.Options {
	scale, err := palette.Named(opts.Palette)
	if err != nil {
		scale = palette.Cool
	}
	return nodelink.Options{Fill: scale, MaxDepth: l.MaxDepth, Detailed: opts.Labels}
}

// RenderFromLayoutData renders output from serialized layout data. Only
// formats that need no tree are possible.
func RenderFromLayoutData(ctx context.Context, layoutData []byte, opts Options) (map[string][]byte, error) {
	parsed, err := layout.Unmarshal(layoutData)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	return Render(ctx, parsed, nil, opts)
}
