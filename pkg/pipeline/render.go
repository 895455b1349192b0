package pipeline

import (
	"context"
	"fmt"

	"github.com/institutoite/bolivia/pkg/render"
	"github.com/institutoite/bolivia/pkg/style"
)

// Compose builds the scene of a loaded result.
func Compose(res *Result, opts Options) *render.Scene {
	halo := style.DefaultHalo()
	switch {
	case res.Political != nil:
		halo = res.Political.Engine.Halo
	case opts.Halo != nil:
		halo = *opts.Halo
	}
	labels := res.Labels
	return render.Compose(render.Input{
		View:      res.View,
		Political: res.Political,
		Layers:    res.Layers,
		Highlight: opts.Highlight,
		Labels:    &labels,
		Halo:      halo,
	})
}

// Render encodes the scene in every requested format.
func Render(ctx context.Context, s *render.Scene, opts Options, extra ...render.ExportOption) (map[string][]byte, error) {
	exportOpts := append([]render.ExportOption{
		render.WithScale(opts.Scale),
		render.WithMaxSide(opts.MaxSide),
		render.WithLogger(opts.Logger),
	}, extra...)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		f, err := render.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		data, err := render.Export(ctx, s, f, exportOpts...)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
