package pipeline

import (
	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/label"
	"github.com/institutoite/bolivia/pkg/politico"
	"github.com/institutoite/bolivia/pkg/viewport"
)

// Frame picks the view of an export. The political focus wins over the
// catalog layers; with neither, the view covers Bolivia. An explicit zoom
// overrides the fitted zoom, and an explicit center the fitted center.
func Frame(opts Options, m *politico.Map, ls []*geo.Layer) viewport.Viewport {
	var v viewport.Viewport
	switch b, ok := contentBound(ls); {
	case m != nil:
		v = m.Viewport(opts.Width, opts.Height)
	case ok:
		v = viewport.Fit(b, opts.Width, opts.Height, FitPadding, MaxZoom)
	default:
		v = viewport.Default(opts.Width, opts.Height)
	}
	if opts.Zoom > 0 {
		v.Zoom = opts.Zoom
	}
	if opts.Center != nil {
		v.Center = *opts.Center
	}
	return v
}

func contentBound(ls []*geo.Layer) (orb.Bound, bool) {
	var out orb.Bound
	found := false
	for _, l := range ls {
		b, ok := geo.Bound(l)
		if !ok {
			continue
		}
		if !found {
			out, found = b, true
			continue
		}
		out = out.Union(b)
	}
	return out, found
}

// ResolveLabels runs the label resolver over the catalog layers in view.
func ResolveLabels(opts Options, v viewport.Viewport, ls []*geo.Layer) label.Resolution {
	return label.NewResolver(*opts.Labels, opts.Keys).ResolveAll(ls, v, v.Zoom)
}
