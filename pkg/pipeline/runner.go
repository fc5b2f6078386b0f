package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taxoview/pkg/cache"
	"github.com/matzehuels/taxoview/pkg/dataset"
	"github.com/matzehuels/taxoview/pkg/engine"
	"github.com/matzehuels/taxoview/pkg/layout"
	"github.com/matzehuels/taxoview/pkg/observability"
)

// Runner executes pipeline stages against a cache. It keeps no per-run
// state, so concurrent runs may share one Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the layout and artifact TTLs when positive.
	TTL time.Duration
}

// NewRunner wires a runner. Nil arguments select the default keyer, a
// cache that stores nothing and the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute loads the dataset, builds the requested view, lays it out and
// renders every format in opts.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := new(Result)

	loadStart := time.Now()
	ds, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Dataset = ds
	result.Stats.LoadTime = time.Since(loadStart)
	result.CacheInfo.LoadHit = loadHit

	result.DatasetHash, err = DatasetHash(ds)
	if err != nil {
		return nil, fmt.Errorf("hash dataset: %w", err)
	}

	eng, err := r.NewEngine(ds, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.NodeCount = eng.Graph().Len()
	result.Stats.EdgeCount = eng.Graph().EdgeCount()

	r.Logger.Info("loaded dataset",
		"source", opts.Source,
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.LoadTime)

	v, err := r.View(eng, opts)
	if err != nil {
		return nil, fmt.Errorf("view: %w", err)
	}
	result.View = v
	result.Stats.TreeSize = v.Tree.Len()

	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, eng, v, result.DatasetHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"mode", l.Mode,
		"root", v.RootID,
		"circles", len(l.Circles),
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, eng, v, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo loads the dataset and returns cache hit info. Local files
// are always read; remote loads go through the cache and are retried on
// network errors.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*dataset.Dataset, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	ds, hit, err := r.load(ctx, opts)
	nodes := 0
	if ds != nil {
		nodes = len(ds.Hierarchy) + len(ds.Edges)
	}
	observability.Pipeline().OnLoad(ctx, opts.Source, nodes, time.Since(start), err)
	return ds, hit, err
}

// Load is LoadWithCacheInfo without the hit flag.
func (r *Runner) Load(ctx context.Context, opts Options) (*dataset.Dataset, error) {
	ds, _, err := r.LoadWithCacheInfo(ctx, opts)
	return ds, err
}

func (r *Runner) load(ctx context.Context, opts Options) (*dataset.Dataset, bool, error) {
	if opts.Loader == nil {
		ds, err := dataset.ReadFile(opts.Source)
		return ds, false, err
	}

	cacheKey := r.Keyer.DatasetKey(opts.Source, opts.DatasetKeyOpts())

	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, "dataset", cacheKey); hit {
			// An undecodable entry is reloaded and overwritten.
			if ds, err := dataset.Read(bytes.NewReader(data), dataset.FormatJSON); err == nil {
				return ds, true, nil
			}
		}
	}

	ds, err := LoadRemote(ctx, opts.Loader, opts.Logger)
	if err != nil {
		return nil, false, err
	}

	if data, err := dataset.Marshal(ds, dataset.FormatJSON); err == nil {
		r.cacheSet(ctx, "dataset", cacheKey, data, cache.TTLDataset)
	}
	return ds, false, nil
}

// NewEngine builds the graph for ds and wraps it in an engine configured by
// opts. An empty graph is an error.
func (r *Runner) NewEngine(ds *dataset.Dataset, opts Options) (*engine.Engine, error) {
	opts.SetLayoutDefaults()
	if len(ds.Hierarchy) == 0 && len(ds.Edges) == 0 {
		return nil, errEmptyDataset(opts.Source)
	}
	g := ds.Graph()

	engOpts, err := engineOptions(opts)
	if err != nil {
		return nil, err
	}
	return engine.New(g, engOpts...), nil
}

// View builds the view opts asks for: a bounded tree at RootID (the graph
// root when empty), refocused on a path when PathStart and PathEnd are set,
// with MapLeft and MapRight mapped onto the canvas edges.
func (r *Runner) View(eng *engine.Engine, opts Options) (*engine.View, error) {
	opts.SetLayoutDefaults()
	v, err := eng.NewView(opts.RootID, opts.Depth)
	if err != nil {
		return nil, err
	}
	if opts.HasPath() {
		p, err := eng.FindPath(opts.PathStart, opts.PathEnd)
		if err != nil {
			return nil, err
		}
		if err := eng.SelectPath(v, p); err != nil {
			return nil, err
		}
		r.Logger.Debug("selected path", "path", p.String(), "pivot", p.Pivot())
	}
	if len(opts.MapLeft) > 0 {
		if err := eng.Map(v, engine.SideLeft, opts.MapLeft); err != nil {
			return nil, err
		}
	}
	if len(opts.MapRight) > 0 {
		if err := eng.Map(v, engine.SideRight, opts.MapRight); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// LayoutWithCacheInfo returns the geometry of v in opts.Mode, reusing a
// cached layout of the same dataset, view and frame.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, eng *engine.Engine, v *engine.View, datasetHash string, opts Options) (layout.Layout, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Layout{}, false, err
	}

	cacheKey := r.Keyer.LayoutKey(datasetHash, opts.LayoutKeyOpts(eng, v))

	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, "layout", cacheKey); hit {
			if cached, err := layout.Unmarshal(data); err == nil {
				return cached, true, nil
			}
		}
	}

	l, err := eng.Render(v, opts.Mode, opts.Bounds())
	if err != nil {
		return layout.Layout{}, false, err
	}

	if data, err := layout.Marshal(l); err == nil {
		r.cacheSet(ctx, "layout", cacheKey, data, r.ttl(cache.TTLLayout))
	}
	return l, false, nil
}

// RenderWithCacheInfo renders l in every requested format. The cache is
// used only when it holds all of them; otherwise everything is re-rendered.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, eng *engine.Engine, v *engine.View, l layout.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	encoded, err := layout.Marshal(l)
	if err != nil {
		return nil, false, fmt.Errorf("encode layout: %w", err)
	}
	layoutHash := cache.Hash(encoded)
	keyFor := func(format string) string {
		return r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
	}

	if !opts.Refresh {
		cached := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit := r.cacheGet(ctx, "artifact", keyFor(format))
			if !hit {
				break
			}
			cached[format] = data
		}
		if len(cached) == len(opts.Formats) {
			return cached, true, nil
		}
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	eng.Highlight(v)
	rendered, err := Render(ctx, l, v.Tree, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		r.cacheSet(ctx, "artifact", keyFor(format), data, r.ttl(cache.TTLArtifact))
	}
	return rendered, false, nil
}

// Close closes the cache.
func (r *Runner) Close() error {
	if r.Cache == nil {
		return nil
	}
	return r.Cache.Close()
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// cacheGet reads key and reports the outcome to the cache hooks. Backend
// errors count as misses.
func (r *Runner) cacheGet(ctx context.Context, kind, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "kind", kind, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, kind)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, kind)
	return data, true
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func (r *Runner) cacheSet(ctx context.Context, kind, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "kind", kind, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}
