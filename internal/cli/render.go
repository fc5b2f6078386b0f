package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taxoview/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	view       viewFlags
	output     string   // base path for outputs
	formats    []string // svg, dot, nodelink, json
	labels     bool     // draw leaf labels in circle mode
	start      string   // path start entity
	end        string   // path end entity
	mapLeft    []string // entities mapped onto the left edge
	mapRight   []string // entities mapped onto the right edge
	layoutFile string   // render a saved layout instead of a dataset
}

// renderCommand creates the render command for generating artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [dataset]",
		Short: "Render a hierarchy to SVG, DOT or JSON",
		Long: `Render a hierarchy to SVG, DOT or JSON.

Formats:
  svg       circles or tree layout with the path strip
  json      the layout geometry
  dot       Graphviz source of the bounded tree
  nodelink  the DOT source laid out by Graphviz, as SVG

With --layout a saved layout file is rendered instead. Only svg and json are
available then, since DOT needs the tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if opts.layoutFile != "" {
				return c.runRenderLayout(cmd.Context(), &opts)
			}
			return c.runRender(cmd.Context(), args, &opts)
		},
	}

	opts.view.register(cmd)
	opts.view.registerLayout(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: <dataset>.<mode>)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, nodelink (comma-separated)")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "label leaf circles")
	cmd.Flags().StringVar(&opts.start, "from", "", "path start entity")
	cmd.Flags().StringVar(&opts.end, "to", "", "path end entity")
	cmd.Flags().StringSliceVar(&opts.mapLeft, "map-left", nil, "entities to point at from the left edge (comma-separated)")
	cmd.Flags().StringSliceVar(&opts.mapRight, "map-right", nil, "entities to point at from the right edge (comma-separated)")
	cmd.Flags().StringVar(&opts.layoutFile, "layout", "", "render a saved layout JSON file")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, args []string, ro *renderOpts) error {
	opts, closeSource, err := c.options(ctx, args, ro.view)
	if err != nil {
		return err
	}
	defer closeSource()
	opts.Formats = ro.formats
	opts.Labels = ro.labels
	opts.PathStart, opts.PathEnd = ro.start, ro.end
	opts.MapLeft, opts.MapRight = ro.mapLeft, ro.mapRight

	runner, err := c.newRunner(ctx, ro.view.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+strings.Join(opts.Formats, ", ")+"...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := ro.output
	if base == "" {
		base = datasetName(opts.Source) + "." + result.Layout.Mode
	}
	paths, err := writeArtifacts(result.Artifacts, base)
	if err != nil {
		return err
	}

	cached := result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit
	printSuccess("Rendered %s below %s", result.Layout.Mode, result.View.RootID)
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.TreeSize, cached)
	return nil
}

func (c *CLI) runRenderLayout(ctx context.Context, ro *renderOpts) error {
	data, err := os.ReadFile(ro.layoutFile)
	if err != nil {
		return fmt.Errorf("read layout %s: %w", ro.layoutFile, err)
	}
	artifacts, err := pipeline.RenderFromLayoutData(ctx, data, pipeline.Options{
		Formats: ro.formats,
		Labels:  ro.labels,
		Logger:  c.Logger,
	})
	if err != nil {
		return err
	}

	base := ro.output
	if base == "" {
		base = strings.TrimSuffix(ro.layoutFile, ".json")
	}
	paths, err := writeArtifacts(artifacts, base)
	if err != nil {
		return err
	}
	printSuccess("Rendered %s", ro.layoutFile)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeArtifacts writes each artifact to base plus its format extension and
// returns the paths in format order.
func writeArtifacts(artifacts map[string][]byte, base string) ([]string, error) {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		p := base + pipeline.Extension(f)
		if err := os.WriteFile(p, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
