package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/institutoite/bolivia/pkg/cache"
	"github.com/institutoite/bolivia/pkg/layers"
	"github.com/institutoite/bolivia/pkg/observability"
	"github.com/institutoite/bolivia/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the HTTP server use it.
//
// The Runner is stateless except for its cache, loader and logger; it does
// not keep results. Multiple goroutines can use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Loader fetches layers. NewRunner sets a Fetcher sharing Cache.
	Loader layers.Loader

	// ExportOptions are appended to every export.
	ExportOptions []render.ExportOption
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
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
		Loader: layers.NewFetcher(layers.WithCache(c, keyer, cache.LayerTTL)),
	}
}

// Execute runs the complete load → labels → export pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result, err := r.Prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Stage 3: Export
	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, result.Scene, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderCacheHit = hit
	if hit {
		result.CacheInfo.Hits = append(result.CacheInfo.Hits, opts.Formats...)
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Prepare runs the load and label stages and composes the scene without
// encoding it. The server uses it for label and scene previews.
func (r *Runner) Prepare(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	ls, err := LoadLayers(ctx, r.Loader, opts.Layers)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Layers = ls
	if opts.HasPolitical() {
		m, err := LoadPolitical(ctx, r.Loader, opts, r.Logger)
		if err != nil {
			return nil, fmt.Errorf("load political base: %w", err)
		}
		result.Political = m
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Layers = len(ls)
	for _, l := range ls {
		result.Stats.Features += len(l.Features)
	}

	r.Logger.Info("loaded layers",
		"layers", result.Stats.Layers,
		"features", result.Stats.Features,
		"political", result.Political != nil,
		"duration", result.Stats.LoadTime)

	// Stage 2: Labels
	labelStart := time.Now()
	result.View = Frame(opts, result.Political, ls)
	result.Labels = ResolveLabels(opts, result.View, ls)
	result.Stats.LabelTime = time.Since(labelStart)
	result.Stats.Labels = result.Labels.Count()

	rejected := 0
	for _, l := range result.Labels.Layers {
		rejected += l.Rejected
	}
	observability.Pipeline().OnLabelsResolved(ctx, result.View.Zoom, result.Stats.Labels, rejected)

	r.Logger.Info("resolved labels",
		"zoom", result.View.Zoom,
		"labels", result.Stats.Labels,
		"rejected", rejected,
		"duration", result.Stats.LabelTime)

	result.Scene = Compose(result, opts)
	result.Stats.Shapes = result.Scene.Shapes()
	return result, nil
}

// RenderWithCacheInfo encodes a scene with caching and reports whether every
// format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *render.Scene, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForExport(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	sceneHash := s.Hash()

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, s, opts, r.ExportOptions...)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			r.Logger.Warn("artifact not cached", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
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
