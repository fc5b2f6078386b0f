package pipeline

import (
	"github.com/matzehuels/taxoview/pkg/engine"
	"github.com/matzehuels/taxoview/pkg/palette"
)

// =============================================================================
// Engine Configuration
// =============================================================================

// engineOptions resolves the depth palette and prepends it to the caller's
// engine options, so explicit options win.
func engineOptions(opts Options) ([]engine.Option, error) {
	scale, err := palette.Named(opts.Palette)
	if err != nil {
		return nil, err
	}
	out := []engine.Option{engine.WithDepthScale(scale)}
	return append(out, opts.EngineOptions...), nil
}
