package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taxoview/pkg/layout"
)

// layoutCommand creates the layout command for computing circle-packing and
// tree layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		f      viewFlags
		output string
		start  string
		end    string
	)

	cmd := &cobra.Command{
		Use:     "layout [dataset]",
		Aliases: []string{"pack"},
		Short:   "Compute a circle-packing or tree layout",
		Long: `Compute a circle-packing or tree layout.

The layout command builds the bounded tree below the root and writes its
geometry as JSON: one circle per tree node and, in tree mode, one arrow per
parent/child link. The output can be rendered later with 'render --layout'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args, f, output, start, end)
		},
	}

	f.register(cmd)
	f.registerLayout(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <dataset>.<mode>.json)")
	cmd.Flags().StringVar(&start, "from", "", "path start entity")
	cmd.Flags().StringVar(&end, "to", "", "path end entity")

	return cmd
}

// runLayout loads the dataset, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, args []string, f viewFlags, output, start, end string) error {
	l, err := c.loadWithPath(ctx, args, f, start, end)
	if err != nil {
		return err
	}
	defer l.close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", l.opts.Mode))
	spinner.Start()

	lay, cacheHit, err := l.runner.LayoutWithCacheInfo(ctx, l.eng, l.view, l.hash, l.opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = datasetName(l.opts.Source) + "." + lay.Mode + ".json"
	}
	if err := layout.WriteFile(lay, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(l.eng.Graph().Len(), l.eng.Graph().EdgeCount(), len(lay.Circles), cacheHit)
	printNewline()
	printNextStep("Render", appName+" render --layout "+outputPath)

	return nil
}
