package layers

import (
	"testing"

	"github.com/institutoite/bolivia/pkg/geo"
)

func TestPointRadius(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{0, 8},
		{1, 12},
		{20, 12},
		{21, 9},
		{51, 7},
		{101, 6},
		{201, 5},
		{501, 4},
		{1001, 3.5},
		{2001, 3},
		{5000, 3},
		{5001, 2},
	}
	for _, tt := range tests {
		if got := PointRadius(tt.n); got != tt.want {
			t.Errorf("PointRadius(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestDefaultStyle(t *testing.T) {
	tests := []struct {
		name  string
		kind  geo.Kind
		group string
		want  PathStyle
	}{
		{"polygon", geo.KindPolygon, "limites", PathStyle{Color: BaseColor, Weight: 1.6, FillColor: AccentColor, FillOpacity: 0.015}},
		{"river", geo.KindLine, "hidrografia", PathStyle{Color: AccentColor, Weight: 2.2}},
		{"road", geo.KindLine, "vias", PathStyle{Color: BaseColor, Weight: 1.8}},
		{"point", geo.KindPoint, "salud", PathStyle{Color: BaseColor, Weight: 6, FillColor: AccentColor, FillOpacity: 0.6, Radius: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultStyle(tt.kind, tt.group, 3); got != tt.want {
				t.Errorf("DefaultStyle = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHighlight(t *testing.T) {
	got := Highlight(PathStyle{Weight: 1.6, FillOpacity: 0.015})
	if got.Weight != 1.6*2.2 {
		t.Errorf("Weight = %v, want %v", got.Weight, 1.6*2.2)
	}
	if got.FillOpacity != 0.015+0.6 {
		t.Errorf("FillOpacity = %v, want %v", got.FillOpacity, 0.015+0.6)
	}

	thin := Highlight(PathStyle{Weight: 0.5, FillOpacity: 0.8, Radius: 20})
	if thin.Weight != 2 || thin.FillOpacity != 1 || thin.Radius != 30 {
		t.Errorf("Highlight = %+v, want weight 2, opacity 1, radius 30", thin)
	}
}
