package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taxoview/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		f           viewFlags
		addr        string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "serve [dataset]",
		Short: "Serve browse sessions over HTTP",
		Long: `Serve browse sessions over HTTP.

The dataset is loaded once. Each client creates a session, then expands,
collapses, focuses and selects paths through JSON requests. Layouts are
computed per request for the frame the client asks for.

Prometheus metrics are served on /metrics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args, f, addr, metricsFile)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config server.addr)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write metrics in text format to this file on shutdown")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, args []string, f viewFlags, addr, metricsFile string) error {
	metrics := server.NewMetrics()
	metrics.Register()

	l, err := c.load(ctx, args, f)
	if err != nil {
		return err
	}
	defer l.close()

	addr = firstNonEmpty(addr, c.Config.Server.Addr)
	srv := server.New(l.eng, datasetName(l.opts.Source),
		server.WithLogger(loggerFromContext(ctx)),
		server.WithMetrics(metrics),
		server.WithSessionTTL(c.Config.Server.SessionTTL),
		server.WithDefaults(l.opts.Depth, l.opts.Bounds()),
	)

	printSuccess("Serving %s", datasetName(l.opts.Source))
	printDetail("Address: %s", addr)
	printStats(l.eng.Graph().Len(), l.eng.Graph().EdgeCount(), 0, l.cached)

	err = srv.Run(ctx, addr)
	if metricsFile != "" {
		if werr := metrics.Write(metricsFile); werr != nil {
			c.Logger.Warn("write metrics", "path", metricsFile, "error", werr)
		} else {
			printFile(metricsFile)
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
