package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/geonodes/pkg/cache"
	"github.com/matzehuels/geonodes/pkg/catalog"
	"github.com/matzehuels/geonodes/pkg/descriptor"
	"github.com/matzehuels/geonodes/pkg/host/memory"
	"github.com/matzehuels/geonodes/pkg/materialize"
	"github.com/matzehuels/geonodes/pkg/observability"
	"github.com/matzehuels/geonodes/pkg/presets"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, catalog and logger; it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Catalog *catalog.Catalog

	// TTL is how long rendered artifacts are cached. Defaults to cache.DefaultTTL.
	TTL time.Duration

	// Progress, when set, is called by Execute as each stage begins. Detail
	// names what the stage works on: the source, the graph or the formats.
	Progress func(stage Stage, detail string)
}

// Stage names one step of Execute.
type Stage string

// Execute stages, in order.
const (
	StageLoad   Stage = "load"
	StageApply  Stage = "apply"
	StageRender Stage = "render"
)

func (r *Runner) progress(stage Stage, detail string) {
	if r.Progress != nil {
		r.Progress(stage, detail)
	}
}

// NewRunner creates a runner.
// If c is nil, a NullCache is used (caching disabled).
// If keyer is nil, a DefaultKeyer is used.
// If cat is nil, the embedded default catalog is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, cat *catalog.Catalog, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		Catalog: cat,
		TTL:     cache.DefaultTTL,
	}
}

// Execute runs the complete load → apply → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Outcome, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	r.progress(StageLoad, opts.Source())
	loadStart := time.Now()
	d, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(loadStart)

	r.progress(StageApply, d.GraphName())
	out, err := r.Apply(ctx, d, opts)
	if err != nil {
		return nil, err
	}
	out.Stats.LoadTime = loadTime

	r.progress(StageRender, strings.Join(opts.Formats, ", "))
	renderStart := time.Now()
	artifacts, hit, err := r.Render(ctx, out, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out.Artifacts = artifacts
	out.RenderHit = hit
	out.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"run", out.RunID,
		"formats", opts.Formats,
		"cached", hit,
		"duration", out.Stats.RenderTime)

	return out, nil
}

// Load reads and validates the descriptor selected by opts.
func (r *Runner) Load(ctx context.Context, opts Options) (*descriptor.Descriptor, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	source := opts.Source()
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)

	d, err := r.load(opts)
	nodes := 0
	if d != nil {
		nodes = len(d.Nodes)
	}
	hooks.OnLoadComplete(ctx, source, nodes, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Debug("loaded descriptor", "source", source, "nodes", nodes, "links", len(d.Links))
	return d, nil
}

func (r *Runner) load(opts Options) (*descriptor.Descriptor, error) {
	decode := descriptor.DecodeOptions{Strict: opts.Strict}
	switch {
	case opts.File != "":
		return descriptor.ReadFile(opts.File, decode)
	case opts.Data != nil:
		return descriptor.DecodeWith(opts.Data, decode)
	}

	d, err := presets.Build(opts.Preset, presets.Target(opts.Target), opts.CustomAttribute)
	if err != nil {
		return nil, err
	}
	// Round-trip so presets pass through the same validator as files.
	data, err := descriptor.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode preset %s: %w", opts.Preset, err)
	}
	return descriptor.DecodeWith(data, decode)
}

// Apply materializes d into a fresh in-memory host and snapshots the result.
// The only error is the host refusing the node group; item-level failures
// are reported in Outcome.Result.Diagnostics.
func (r *Runner) Apply(ctx context.Context, d *descriptor.Descriptor, opts Options) (*Outcome, error) {
	data, err := descriptor.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}

	out := &Outcome{
		RunID:          uuid.NewString(),
		Descriptor:     d,
		DescriptorHash: cache.Hash(data),
	}
	logger := r.Logger.With("run", out.RunID)

	start := time.Now()
	h := memory.NewHost(r.Catalog)
	m := materialize.New(materialize.Options{}, logger)
	res, err := m.Apply(log.WithContext(ctx, logger), d, h)
	out.Result = res
	out.Stats.ApplyTime = time.Since(start)
	if err != nil {
		return nil, err
	}

	out.Snapshot = h.Active().Snapshot()
	out.Stats.NodeCount = len(out.Snapshot.Nodes)
	out.Stats.LinkCount = len(out.Snapshot.Links)

	logger.Info("applied descriptor",
		"graph", res.Graph,
		"nodes", out.Stats.NodeCount,
		"links", out.Stats.LinkCount,
		"skipped", len(res.Diagnostics),
		"duration", out.Stats.ApplyTime)
	return out, nil
}

// Render produces the requested formats for an applied outcome. Diagram
// formats are cached by descriptor hash, catalog hash and render options;
// the boolean reports whether every artifact came from the cache.
func (r *Runner) Render(ctx context.Context, out *Outcome, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)

	artifacts, hit, err := r.render(ctx, out, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, hit, err
}

func (r *Runner) render(ctx context.Context, out *Outcome, opts Options) (map[string][]byte, bool, error) {
	cacheHooks := observability.Cache()
	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true

	for _, format := range opts.Formats {
		cacheable := IsDiagramFormat(format)
		key := r.Keyer.ArtifactKey(out.DescriptorHash, r.Catalog.Hash(), cache.ArtifactKeyOpts{
			Format:   format,
			Detailed: opts.Detailed,
		})

		if cacheable && !opts.Refresh {
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil {
				r.Logger.Warn("cache read failed", "format", format, "err", err)
			}
			if hit {
				cacheHooks.OnCacheHit(ctx, format)
				artifacts[format] = data
				continue
			}
			cacheHooks.OnCacheMiss(ctx, format)
		}
		allCached = false

		data, err := RenderArtifact(ctx, out.Snapshot, format, opts.Detailed)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", format, err)
		}
		artifacts[format] = data

		if cacheable {
			if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
				r.Logger.Warn("cache write failed", "format", format, "err", err)
				continue
			}
			cacheHooks.OnCacheSet(ctx, format, len(data))
		}
	}
	return artifacts, allCached, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
