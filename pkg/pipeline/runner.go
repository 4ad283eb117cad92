package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/export"
	"github.com/matzehuels/orgchart/pkg/observability"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/org/source"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache, exporter and logger. It
// doesn't store pipeline results, so multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Exporter *export.Exporter
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Export options configure the chart exporter; its logger defaults to the
// runner's.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, exportOpts ...export.Option) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	exportOpts = append([]export.Option{export.WithLogger(logger)}, exportOpts...)
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		Exporter: export.New(exportOpts...),
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	src, err := source.Open(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	h, loadHit, err := r.LoadWithCacheInfo(ctx, src, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Hierarchy = h
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.EmployeeCount = h.Root.Count()
	result.Stats.Unplaced = len(h.Unplaced)
	result.CacheInfo.LoadHit = loadHit
	if data, err := MarshalHierarchy(h); err == nil {
		result.TreeHash = cache.Hash(data)
	}

	r.Logger.Info("loaded employees",
		"employees", result.Stats.EmployeeCount,
		"root", h.Root.Name,
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	t, err := r.Layout(ctx, h, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.VisibleCount = len(t.VisibleNodes())

	r.Logger.Info("computed layout",
		"visible", result.Stats.VisibleCount,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, t, h, result.TreeHash, opts)
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

// LoadWithCacheInfo loads the hierarchy with caching and returns cache hit
// info. The cache is keyed by the content of the source file, so a new
// directory snapshot always reloads.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, src source.Source, opts Options) (h *org.Hierarchy, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, src.Path())
	start := time.Now()
	defer func() {
		n := 0
		if h != nil {
			n = h.Root.Count()
		}
		hooks.OnLoadComplete(ctx, src.Path(), n, time.Since(start), err)
	}()

	digest := sourceDigest(src)
	var cacheKey string
	if digest != "" {
		cacheKey = r.Keyer.TreeKey(digest, opts.TreeKeyOpts())
	}

	// Try cache first (unless refresh requested)
	if cacheKey != "" && !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			if cached, err := UnmarshalHierarchy(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "tree")
				markNew(cached, opts)
				return cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "tree")
	}

	h, err = Load(ctx, src, opts)
	if err != nil {
		return nil, false, err
	}

	if cacheKey != "" {
		if data, err := MarshalHierarchy(h); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLTree); err != nil {
				opts.Logger.Debug("cache write failed", "stage", "tree", "error", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "tree", len(data))
			}
		}
	}

	markNew(h, opts)
	return h, false, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Load(ctx context.Context, src source.Source, opts Options) (*org.Hierarchy, error) {
	h, _, err := r.LoadWithCacheInfo(ctx, src, opts)
	return h, err
}

// Layout builds the layout tree for h.
func (r *Runner) Layout(ctx context.Context, h *org.Hierarchy, opts Options) (t *chart.Tree, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Orientation, h.Root.Count())
	start := time.Now()
	defer func() { hooks.OnLayoutComplete(ctx, opts.Orientation, time.Since(start), err) }()

	return Layout(h, opts)
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info. treeHash identifies the hierarchy; an empty hash disables caching.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, t *chart.Tree, h *org.Hierarchy, treeHash string, opts Options) (map[string]*export.Artifact, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	var (
		mu        sync.Mutex
		artifacts = make(map[string]*export.Artifact, len(opts.Formats))
		allCached = true
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Parallelism))
	for _, format := range opts.Formats {
		g.Go(func() error {
			art, hit, err := r.renderCached(gctx, t, h, treeHash, format, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			artifacts[format] = art
			allCached = allCached && hit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	return artifacts, allCached, nil
}

// renderCached renders one format through the artifact cache.
func (r *Runner) renderCached(ctx context.Context, t *chart.Tree, h *org.Hierarchy, treeHash, format string, opts Options) (*export.Artifact, bool, error) {
	key := ""
	if treeHash != "" {
		key = r.Keyer.ArtifactKey(treeHash, opts.ArtifactKeyOpts(format))
	}
	if key != "" && !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifactFor(format, data, opts), true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	art, err := r.renderOne(ctx, t, h, format, opts)
	if err != nil {
		return nil, false, err
	}
	if key != "" {
		if err := r.Cache.Set(ctx, key, art.Data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(art.Data))
		}
	}
	return art, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Render(ctx context.Context, t *chart.Tree, h *org.Hierarchy, treeHash string, opts Options) (map[string]*export.Artifact, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, t, h, treeHash, opts)
	return artifacts, err
}

func (r *Runner) renderOne(ctx context.Context, t *chart.Tree, h *org.Hierarchy, format string, opts Options) (art *export.Artifact, err error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()
	defer func() {
		stage := ""
		if art != nil {
			stage = art.Stage
		}
		hooks.OnRenderComplete(ctx, format, stage, time.Since(start), err)
	}()

	art, err = Render(ctx, r.Exporter, t, h, format, opts)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	opts.Logger.Debug("rendered", "format", format, "bytes", len(art.Data), "stage", art.Stage)
	return art, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
