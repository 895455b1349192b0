package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/geo/index"
	"github.com/institutoite/bolivia/pkg/label"
	"github.com/institutoite/bolivia/pkg/layers"
	"github.com/institutoite/bolivia/pkg/politico"
	"github.com/institutoite/bolivia/pkg/region"
	"github.com/institutoite/bolivia/pkg/style"
	"github.com/institutoite/bolivia/pkg/viewport"
)

// PointLabelColor is the text color of catalog labels.
const PointLabelColor = "#1d2a35"

// labelMargin keeps labels anchored just off the canvas, whose text may
// still reach into it.
const labelMargin = 100

// Input is a map view ready to export.
type Input struct {
	View      viewport.Viewport
	Political *politico.Map // optional
	Layers    []*geo.Layer  // catalog layers, bottom to top
	Highlight string        // id of the layer drawn highlighted
	Labels    *label.Resolution
	Halo      style.Halo
}

// Compose projects the input into a scene. Catalog features outside the
// view and labels far off the canvas are culled.
func Compose(in Input) *Scene {
	s := &Scene{
		Width:      in.View.Width,
		Height:     in.View.Height,
		Background: DefaultBackground,
		Halo:       in.Halo,
	}
	proj := orb.Projection(in.View.Project)

	if m := in.Political; m != nil {
		for _, level := range []region.Level{region.ADM1, region.ADM3} {
			s.Layers = append(s.Layers, politicalLayer(m, level, proj))
		}
		if m.ShowCapitals() {
			s.Layers = append(s.Layers, overlay(m.Capitals, allIndices(m.Capitals), layers.CapitalStyle(), proj))
		}
		if idx := m.VisibleMunicipalities(); len(idx) > 0 {
			s.Layers = append(s.Layers, overlay(m.Municipalities, idx, layers.MunicipalityStyle(), proj))
		}
	}

	view := in.View.Bound()
	for _, l := range in.Layers {
		s.Layers = append(s.Layers, catalogLayer(l, view, l.ID == in.Highlight, proj))
	}

	if in.Labels != nil {
		size := float64(in.Labels.FontSize)
		for _, ll := range in.Labels.Layers {
			for _, c := range ll.Labels {
				s.Labels = append(s.Labels, Label{
					Text: c.Text, X: c.Anchor[0], Y: c.Anchor[1],
					Color: PointLabelColor, Size: size, Bold: true, Align: AlignRight,
				})
			}
			for _, c := range ll.Lines {
				s.Labels = append(s.Labels, Label{
					Text: c.Text, X: c.Anchor[0], Y: c.Anchor[1],
					Color: PointLabelColor, Size: size, Bold: true,
				})
			}
		}
	}

	if m := in.Political; m != nil {
		for _, rl := range m.RegionLabels(label.ProjectorFunc(in.View.Project)) {
			s.Labels = append(s.Labels, Label{
				Text: rl.Text, X: rl.Anchor[0], Y: rl.Anchor[1],
				Color: rl.Color, Size: politico.RegionFontSize, Bold: true,
			})
		}
	}
	s.Labels = s.onCanvas(s.Labels)
	return s
}

func (s *Scene) onCanvas(labels []Label) []Label {
	out := labels[:0]
	for _, l := range labels {
		if l.X >= -labelMargin && l.Y >= -labelMargin &&
			l.X <= float64(s.Width)+labelMargin && l.Y <= float64(s.Height)+labelMargin {
			out = append(out, l)
		}
	}
	return out
}

func politicalLayer(m *politico.Map, level region.Level, proj orb.Projection) Layer {
	out := Layer{ID: string(level)}
	for _, p := range m.Painted(level) {
		if p.Feature.Geometry == nil {
			continue
		}
		out.Shapes = append(out.Shapes, Shape{
			Geometry: projectGeometry(p.Feature.Geometry, proj),
			Style: Style{
				Stroke:      p.Paint.Color,
				Weight:      p.Paint.Weight,
				Fill:        p.Paint.FillColor,
				FillOpacity: p.Paint.FillOpacity,
			},
		})
	}
	return out
}

func overlay(l *geo.Layer, idx []int, ps layers.PathStyle, proj orb.Projection) Layer {
	out := Layer{ID: l.ID}
	for _, i := range idx {
		g := l.Features[i].Geometry
		if g == nil {
			continue
		}
		out.Shapes = append(out.Shapes, Shape{Geometry: projectGeometry(g, proj), Style: fromPath(ps)})
	}
	return out
}

func catalogLayer(l *geo.Layer, view orb.Bound, highlight bool, proj orb.Projection) Layer {
	out := Layer{ID: l.ID}
	for _, i := range index.New(l).Query(view) {
		g := l.Features[i].Geometry
		kind := geo.KindOf(g)
		if kind == geo.KindNone {
			continue
		}
		ps := layers.DefaultStyle(kind, l.Group, l.PointCount)
		if highlight {
			ps = layers.Highlight(ps)
		}
		out.Shapes = append(out.Shapes, Shape{Geometry: projectGeometry(g, proj), Style: fromPath(ps)})
	}
	return out
}

func fromPath(ps layers.PathStyle) Style {
	return Style{
		Stroke:      ps.Color,
		Weight:      ps.Weight,
		Fill:        ps.FillColor,
		FillOpacity: ps.FillOpacity,
		Radius:      ps.Radius,
	}
}

// projectGeometry returns a projected copy; source features stay untouched.
func projectGeometry(g orb.Geometry, proj orb.Projection) orb.Geometry {
	return project.Geometry(orb.Clone(g), proj)
}

func allIndices(l *geo.Layer) []int {
	out := make([]int, len(l.Features))
	for i := range out {
		out[i] = i
	}
	return out
}
