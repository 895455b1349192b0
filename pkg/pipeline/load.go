package pipeline

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/layers"
	"github.com/institutoite/bolivia/pkg/politico"
	"github.com/institutoite/bolivia/pkg/region"
	"github.com/institutoite/bolivia/pkg/style"
)

// maxParallelLoads bounds concurrent layer fetches.
const maxParallelLoads = 4

// PoliticalGroup is the catalog group given to political base layers.
const PoliticalGroup = "politico"

// LoadLayers fetches entries concurrently. The result keeps entry order; the
// first failure cancels the rest.
func LoadLayers(ctx context.Context, loader layers.Loader, entries []catalog.Entry) ([]*geo.Layer, error) {
	out := make([]*geo.Layer, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			l, err := loader.Load(ctx, e)
			if err != nil {
				return err
			}
			out[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadPolitical loads the political base and applies the selection of opts.
// Departments and provinces are required; capitals and municipalities are
// overlays whose failure is only logged.
func LoadPolitical(ctx context.Context, loader layers.Loader, opts Options, logger *log.Logger) (*politico.Map, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	base, err := LoadLayers(ctx, loader, []catalog.Entry{
		{Name: "departamentos", URL: opts.ADM1, Group: PoliticalGroup},
		{Name: "provincias", URL: opts.ADM3, Group: PoliticalGroup},
	})
	if err != nil {
		return nil, err
	}
	m := politico.New(region.Build(base[0], base[1], opts.Keys))
	if orphans := m.Hierarchy.Orphans(); len(orphans) > 0 {
		logger.Debug("provinces without department", "count", len(orphans))
	}

	m.Capitals = loadOverlay(ctx, loader, "capitales", opts.Capitals, logger)
	m.Municipalities = loadOverlay(ctx, loader, "municipios", opts.Municipalities, logger)

	if err := ApplySelection(m, opts); err != nil {
		return nil, err
	}
	return m, nil
}

func loadOverlay(ctx context.Context, loader layers.Loader, name, url string, logger *log.Logger) *geo.Layer {
	if url == "" {
		return nil
	}
	l, err := loader.Load(ctx, catalog.Entry{Name: name, URL: url, Group: PoliticalGroup})
	if err != nil {
		logger.Warn("overlay not loaded", "layer", name, "url", url, "err", err)
		return nil
	}
	return l
}

// ApplySelection sets mode, department, province, parameters and halo on m.
// Without an explicit mode, the deepest given selection picks it. A province
// without a department selects its parent department.
func ApplySelection(m *politico.Map, opts Options) error {
	if opts.Params != nil {
		m.Engine.Params = opts.Params.Clamped()
	}
	if opts.Halo != nil {
		m.Engine.Halo = *opts.Halo
	}

	mode := opts.Mode
	if mode == "" {
		switch {
		case opts.Province != "":
			mode = style.ModeProvince
		case opts.Department != "":
			mode = style.ModeDepartment
		default:
			mode = style.ModeCountry
		}
	}
	m.SetMode(mode)

	dept, prov := opts.Department, opts.Province
	if dept == "" && prov == "" {
		return nil
	}
	if mode != style.ModeDepartment && mode != style.ModeProvince {
		return errors.New(errors.ErrCodeInvalidInput, "mode %s does not take a selection", mode)
	}
	if prov != "" && mode != style.ModeProvince {
		return errors.New(errors.ErrCodeInvalidInput, "province selection needs province mode")
	}
	if prov != "" {
		if _, ok := m.Hierarchy.Node(region.ADM3, prov); !ok {
			return errors.New(errors.ErrCodeRegionNotFound, "province %q not found", prov)
		}
		if dept == "" {
			dept = m.Hierarchy.ParentOf(prov)
			if dept == "" {
				return errors.New(errors.ErrCodeRegionNotFound, "province %q has no department", prov)
			}
		}
	}
	if _, ok := m.Hierarchy.Node(region.ADM1, dept); !ok {
		return errors.New(errors.ErrCodeRegionNotFound, "department %q not found", dept)
	}
	m.Click(region.ADM1, dept)
	if prov != "" && !m.Click(region.ADM3, prov) {
		return errors.New(errors.ErrCodeInvalidInput, "province %q is not in department %q", prov, dept)
	}
	return nil
}
