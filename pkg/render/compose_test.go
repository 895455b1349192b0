package render

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/label"
	"github.com/institutoite/bolivia/pkg/layers"
	"github.com/institutoite/bolivia/pkg/politico"
	"github.com/institutoite/bolivia/pkg/region"
	"github.com/institutoite/bolivia/pkg/style"
	"github.com/institutoite/bolivia/pkg/viewport"
)

func box(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func political() *politico.Map {
	adm1 := geo.NewLayer("adm1", []geo.Feature{
		{Geometry: box(-69.5, -18, -67, -11), Properties: map[string]any{"id": "lp", "name": "La Paz"}},
		{Geometry: box(-67, -20, -65, -17), Properties: map[string]any{"id": "or", "name": "Oruro"}},
	})
	adm3 := geo.NewLayer("adm3", []geo.Feature{
		{Geometry: box(-68.5, -17, -67.5, -16), Properties: map[string]any{"id": "murillo", "name": "Murillo"}},
	})
	return politico.New(region.Build(adm1, adm3, nil))
}

func TestCompose(t *testing.T) {
	view := viewport.Default(800, 600)
	markets := &geo.Layer{ID: "geo/mercados.geojson", Group: "comercio"}
	markets.Features = []geo.Feature{
		{Geometry: orb.Point{-68.15, -16.5}, Properties: map[string]any{"name": "Rodríguez"}},
		{Geometry: orb.Point{10, 10}, Properties: map[string]any{"name": "Lejos"}},
	}
	markets.PointCount = 2

	m := political()
	res := label.NewResolver(label.DefaultConfig(), nil).ResolveAll([]*geo.Layer{markets}, view, view.Zoom)

	s := Compose(Input{
		View:      view,
		Political: m,
		Layers:    []*geo.Layer{markets},
		Highlight: markets.ID,
		Labels:    &res,
		Halo:      style.DefaultHalo(),
	})

	if s.Width != 800 || s.Height != 600 || s.Background != DefaultBackground {
		t.Errorf("scene = %dx%d %s", s.Width, s.Height, s.Background)
	}
	if len(s.Layers) != 3 {
		t.Fatalf("len(Layers) = %d, want 3 (adm1, adm3, markets)", len(s.Layers))
	}
	if got := len(s.Layers[0].Shapes); got != 2 {
		t.Errorf("adm1 shapes = %d, want 2", got)
	}

	pts := s.Layers[2].Shapes
	if len(pts) != 1 {
		t.Fatalf("market shapes = %d, want 1 (the other is outside the view)", len(pts))
	}
	want := layers.Highlight(layers.DefaultStyle(geo.KindPoint, "comercio", 2))
	if pts[0].Style.Radius != want.Radius || pts[0].Style.Weight != want.Weight {
		t.Errorf("market style = %+v, want highlighted %+v", pts[0].Style, want)
	}
	p := view.Project(orb.Point{-68.15, -16.5})
	if got := pts[0].Geometry.(orb.Point); got != p {
		t.Errorf("projected point = %v, want %v", got, p)
	}
	if markets.Features[0].Geometry.(orb.Point) != (orb.Point{-68.15, -16.5}) {
		t.Error("Compose modified source geometry")
	}

	var point, regions int
	for _, l := range s.Labels {
		switch {
		case l.Align == AlignRight:
			point++
			if l.Text != "Rodríguez" || l.Color != PointLabelColor {
				t.Errorf("point label = %+v", l)
			}
		case l.Size == politico.RegionFontSize:
			regions++
		}
	}
	if point != 1 {
		t.Errorf("point labels = %d, want 1", point)
	}
	if regions != 3 {
		t.Errorf("region labels = %d, want 3", regions)
	}
}

func TestComposeWithoutPolitical(t *testing.T) {
	s := Compose(Input{View: viewport.Default(400, 300)})
	if len(s.Layers) != 0 || len(s.Labels) != 0 {
		t.Errorf("empty input composed %d layers, %d labels", len(s.Layers), len(s.Labels))
	}
}
