package label

import (
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/geo"
)

// identity treats lon/lat as screen pixels so tests can place points exactly.
var identity = ProjectorFunc(func(p orb.Point) orb.Point { return p })

func named(name string, g orb.Geometry) geo.Feature {
	return geo.Feature{Geometry: g, Properties: map[string]any{"nombre": name}}
}

func TestFontSize(t *testing.T) {
	c := DefaultConfig()
	tests := []struct {
		z    float64
		want int
	}{
		{0, 11},
		{5, 11},
		{7, 12},
		{10, 14}, // 13.5 rounds up
		{12, 15},
		{15, 16},
		{20, 16},
	}
	for _, tt := range tests {
		if got := c.FontSize(tt.z); got != tt.want {
			t.Errorf("FontSize(%v) = %d, want %d", tt.z, got, tt.want)
		}
	}
}

func TestSpacing(t *testing.T) {
	tests := []struct {
		z    float64
		want float64
	}{
		{0, 45},
		{8, 45},
		{10, 36},
		{12, 30},
		{18, 20},
		{40, 9},
		{100, 8},
	}
	for _, tt := range tests {
		if got := Spacing(tt.z); got != tt.want {
			t.Errorf("Spacing(%v) = %v, want %v", tt.z, got, tt.want)
		}
	}
}

func TestVisibilityGate(t *testing.T) {
	c := DefaultConfig()
	tests := []struct {
		name   string
		points int
		z      float64
		want   bool
	}{
		{"small layer low zoom", 50, 3, true},
		{"small layer high zoom", 10, 16, true},
		{"dense layer low zoom", 51, 11.9, false},
		{"dense layer at threshold", 5000, 12, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Visible(tt.points, tt.z); got != tt.want {
				t.Errorf("Visible(%d, %v) = %v, want %v", tt.points, tt.z, got, tt.want)
			}
		})
	}
}

func TestResolveCloseLabels(t *testing.T) {
	l := geo.NewLayer("mercados", []geo.Feature{
		named("A", orb.Point{100, 100}),
		named("B", orb.Point{102, 100}),
		named("C", orb.Point{104, 100}),
	})
	r := NewResolver(DefaultConfig(), nil)
	got := r.Resolve(l, identity, 10)

	if !got.Visible {
		t.Fatal("layer with 3 points should be visible")
	}
	if len(got.Labels) != 1 || got.Labels[0].Text != "A" {
		t.Errorf("Labels = %+v, want only A", got.Labels)
	}
	if got.Rejected != 2 {
		t.Errorf("Rejected = %d, want 2", got.Rejected)
	}
}

func TestResolveSpacingBoundary(t *testing.T) {
	// Spacing at z=12 is 30px: a label exactly 30px away is kept, 29px is not.
	l := geo.NewLayer("x", []geo.Feature{
		named("A", orb.Point{0, 0}),
		named("B", orb.Point{30, 0}),
		named("C", orb.Point{30, 29}),
	})
	got := NewResolver(DefaultConfig(), nil).Resolve(l, identity, 12)
	var texts []string
	for _, c := range got.Labels {
		texts = append(texts, c.Text)
	}
	if !reflect.DeepEqual(texts, []string{"A", "B"}) {
		t.Errorf("accepted = %v, want [A B]", texts)
	}
}

func TestResolveDenseLayerHidden(t *testing.T) {
	feats := make([]geo.Feature, 0, 60)
	for i := 0; i < 60; i++ {
		feats = append(feats, named("P", orb.Point{float64(i * 100), 0}))
	}
	l := geo.NewLayer("dense", feats)
	r := NewResolver(DefaultConfig(), nil)

	if got := r.Resolve(l, identity, 11); got.Visible || len(got.Labels) != 0 {
		t.Errorf("dense layer below zoom threshold: Visible=%v, %d labels; want none", got.Visible, len(got.Labels))
	}
	if got := r.Resolve(l, identity, 12); len(got.Labels) != 60 {
		t.Errorf("dense layer at zoom threshold: %d labels, want 60", len(got.Labels))
	}
}

func TestResolveSkipsUnnamedAndUnanchored(t *testing.T) {
	l := geo.NewLayer("mixed", []geo.Feature{
		{Geometry: orb.Point{0, 0}, Properties: map[string]any{"codigo": 1}},
		named("line", orb.LineString{{0, 0}, {100, 100}}),
		named("multi", orb.MultiPoint{{200, 200}, {0, 0}}),
		{Geometry: orb.Point{400, 400}},
		named("nan", orb.Point{math.NaN(), 0}),
	})
	got := NewResolver(DefaultConfig(), nil).Resolve(l, identity, 5)
	if len(got.Labels) != 1 {
		t.Fatalf("Labels = %+v, want 1", got.Labels)
	}
	if got.Labels[0].Text != "multi" || got.Labels[0].Anchor != (orb.Point{200, 200}) {
		t.Errorf("label = %+v, want multi at first coordinate", got.Labels[0])
	}
	if got.Labels[0].FeatureIndex != 2 {
		t.Errorf("FeatureIndex = %d, want 2", got.Labels[0].FeatureIndex)
	}
}

func TestResolveDeterministic(t *testing.T) {
	var feats []geo.Feature
	for i := 0; i < 40; i++ {
		x := float64((i * 37) % 300)
		y := float64((i * 53) % 200)
		feats = append(feats, named(string(rune('A'+i%26)), orb.Point{x, y}))
	}
	l := geo.NewLayer("det", feats)
	r := NewResolver(DefaultConfig(), nil)

	for _, z := range []float64{3, 8, 10.5, 12, 17} {
		a := r.ResolveAll([]*geo.Layer{l}, identity, z)
		b := r.ResolveAll([]*geo.Layer{l}, identity, z)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("z=%v: resolution differs between runs", z)
		}
	}
}

func TestAcceptedPairsRespectSpacing(t *testing.T) {
	var feats []geo.Feature
	for i := 0; i < 200; i++ {
		x := float64((i * 7919) % 500)
		y := float64((i * 104729) % 400)
		feats = append(feats, named("n", orb.Point{x, y}))
	}
	l := geo.NewLayer("pairs", feats)
	for _, z := range []float64{5, 9, 12, 15} {
		got := NewResolver(DefaultConfig(), nil).Resolve(l, identity, z)
		sp := Spacing(z)
		for i := range got.Labels {
			for j := i + 1; j < len(got.Labels); j++ {
				dx := got.Labels[i].Anchor[0] - got.Labels[j].Anchor[0]
				dy := got.Labels[i].Anchor[1] - got.Labels[j].Anchor[1]
				if dx*dx+dy*dy < sp*sp {
					t.Fatalf("z=%v: labels %d and %d closer than %v", z, i, j, sp)
				}
			}
		}
	}
}

func TestResolveAllIndependentLayers(t *testing.T) {
	a := geo.NewLayer("a", []geo.Feature{named("A", orb.Point{10, 10})})
	b := geo.NewLayer("b", []geo.Feature{named("B", orb.Point{11, 10})})
	res := NewResolver(DefaultConfig(), nil).ResolveAll([]*geo.Layer{a, b}, identity, 10)

	if res.FontSize != 14 || res.Spacing != 36 {
		t.Errorf("FontSize, Spacing = %d, %v; want 14, 36", res.FontSize, res.Spacing)
	}
	if res.Count() != 2 {
		t.Errorf("Count() = %d, want 2 (collision is per layer)", res.Count())
	}
}

func TestHydroLineLabels(t *testing.T) {
	l := geo.NewLayer("rios", []geo.Feature{
		{Geometry: orb.LineString{{0, 0}, {50, 50}, {100, 100}}, Properties: map[string]any{"RIO": "Beni"}},
		{Geometry: orb.LineString{{0, 0}, {1, 1}}},
	})
	l.Group = "hidro/rios"

	got := NewResolver(DefaultConfig(), nil).Resolve(l, identity, 4)
	if len(got.Lines) != 1 || got.Lines[0].Text != "Beni" || got.Lines[0].Anchor != (orb.Point{50, 50}) {
		t.Errorf("Lines = %+v, want Beni at the middle vertex", got.Lines)
	}

	l.Group = "vias"
	if got := NewResolver(DefaultConfig(), nil).Resolve(l, identity, 4); len(got.Lines) != 0 {
		t.Errorf("non-hydro layer Lines = %+v, want none", got.Lines)
	}
}
