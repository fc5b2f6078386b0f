package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/taxoview/pkg/buildinfo"
	"github.com/matzehuels/taxoview/pkg/cache"
	"github.com/matzehuels/taxoview/pkg/config"
	"github.com/matzehuels/taxoview/pkg/dataset"
	"github.com/matzehuels/taxoview/pkg/engine"
	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/pipeline"
	"github.com/matzehuels/taxoview/pkg/source/neo4j"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "taxoview"

	// remoteSource names datasets loaded from the knowledge base.
	remoteSource = "neo4j"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Taxoview explores hierarchies as nested circles and tidy trees",
		Long: `Taxoview turns a child/parent hierarchy into a bounded tree and lays it
out as packed circles or a horizontal tidy tree. Subtrees can be expanded and
collapsed, and the path between two entities is highlighted.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(withLogger(ctx, c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")

	// Register all subcommands
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.pathCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the file, then the environment.
func (c *CLI) loadConfig() error {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, c.Config, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if p := c.Config.Cache.KeyPrefix; p != "" {
		keyer = cache.NewScopedKeyer(nil, p)
	}
	r := pipeline.NewRunner(cc, keyer, c.Logger)
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == config.CacheNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == config.CacheRedis {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/taxoview/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// viewFlags are the flags shared by every command that builds a view.
type viewFlags struct {
	root    string
	depth   int
	width   float64
	height  float64
	mode    string
	palette string
	noCache bool
	refresh bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.root, "root", "r", "", "root entity (default: config root_id)")
	cmd.Flags().IntVarP(&f.depth, "depth", "d", 0, "tree depth (default: config default_depth)")
	cmd.Flags().StringVar(&f.palette, "palette", "", "depth palette: cool, warm, grey (default: config palette.depth)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "reload remote datasets instead of using the cache")
}

// registerLayout adds the frame and mode flags.
func (f *viewFlags) registerLayout(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "frame width (default: config layout.width)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "frame height (default: config layout.height)")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", pipeline.DefaultMode, "layout mode: circles, tree")
}

// options builds pipeline options from the config with flags on top. The
// returned close function releases a knowledge-base connection, if any.
func (c *CLI) options(ctx context.Context, args []string, f viewFlags) (pipeline.Options, func(), error) {
	cfg := c.Config
	opts := pipeline.Options{
		RootID:  firstNonEmpty(f.root, cfg.RootID),
		Depth:   cfg.DefaultDepth,
		Mode:    f.mode,
		Width:   cfg.Layout.Width,
		Height:  cfg.Layout.Height,
		Palette: firstNonEmpty(f.palette, cfg.Palette.Depth),
		Refresh: f.refresh,
		Logger:  c.Logger,
	}
	if f.depth > 0 {
		opts.Depth = f.depth
	}
	if f.width > 0 {
		opts.Width = f.width
	}
	if f.height > 0 {
		opts.Height = f.height
	}

	// The flag palette wins over the configured one.
	engineCfg := *cfg
	engineCfg.Palette.Depth = opts.Palette
	engineOpts, err := engineCfg.EngineOptions()
	if err != nil {
		return opts, nil, err
	}
	opts.EngineOptions = engineOpts

	closer := func() {}
	switch {
	case len(args) > 0:
		opts.Source = args[0]
	case cfg.UsesNeo4j():
		exec, err := neo4j.Connect(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database)
		if err != nil {
			return opts, nil, err
		}
		opts.Source = remoteSource
		opts.Query = firstNonEmpty(cfg.Neo4j.Query, neo4j.DefaultQuery)
		opts.Loader = &neo4j.Loader{Runner: exec, Query: opts.Query, Root: cfg.RootID}
		closer = func() {
			if err := exec.Close(ctx); err != nil {
				c.Logger.Debug("close neo4j driver", "error", err)
			}
		}
	case cfg.Dataset != "":
		opts.Source = cfg.Dataset
	default:
		return opts, nil, errors.New(errors.ErrCodeInvalidInput, "no dataset: pass a file, set dataset or neo4j.uri in %s", config.DefaultPath())
	}
	return opts, closer, nil
}

// loaded is a dataset turned into an engine and a first view.
type loaded struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	ds     *dataset.Dataset
	hash   string
	eng    *engine.Engine
	view   *engine.View
	cached bool
	close  func()
}

// load resolves the source, loads it through a runner and builds the view
// the flags ask for. Callers must call close.
func (c *CLI) load(ctx context.Context, args []string, f viewFlags) (*loaded, error) {
	opts, closeSource, err := c.options(ctx, args, f)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		closeSource()
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	l := &loaded{runner: runner, opts: opts}
	l.close = func() {
		_ = runner.Close()
		closeSource()
	}

	prog := newProgress(loggerFromContext(ctx))
	if l.ds, l.cached, err = runner.LoadWithCacheInfo(ctx, opts); err != nil {
		l.close()
		return nil, fmt.Errorf("load %s: %w", opts.Source, err)
	}
	if l.hash, err = pipeline.DatasetHash(l.ds); err != nil {
		l.close()
		return nil, err
	}
	if l.eng, err = runner.NewEngine(l.ds, opts); err != nil {
		l.close()
		return nil, err
	}
	if l.view, err = runner.View(l.eng, opts); err != nil {
		l.close()
		return nil, err
	}
	prog.done("loaded "+datasetName(opts.Source), "entities", l.eng.Graph().Len(), "cached", l.cached)
	return l, nil
}

// datasetName is the display and session name of a source.
func datasetName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
