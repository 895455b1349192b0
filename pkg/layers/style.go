package layers

import (
	"math"

	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/label"
)

// Catalog layer colors.
const (
	BaseColor   = "#375f7a"
	AccentColor = "#26baa5"

	CapitalColor = "#d32f2f"
	CapitalFill  = "#ffcdd2"
)

// PathStyle is how a catalog layer draws its features.
type PathStyle struct {
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	FillColor   string  `json:"fill_color,omitempty"`
	FillOpacity float64 `json:"fill_opacity"`
	Radius      float64 `json:"radius,omitempty"` // points only
}

// DefaultStyle returns the style of a feature kind within a layer. Points
// shrink as the layer gets denser.
func DefaultStyle(kind geo.Kind, group string, pointCount int) PathStyle {
	switch kind {
	case geo.KindPolygon:
		return PathStyle{Color: BaseColor, Weight: 1.6, FillColor: AccentColor, FillOpacity: 0.015}
	case geo.KindLine:
		if label.IsHydro(group) {
			return PathStyle{Color: AccentColor, Weight: 2.2}
		}
		return PathStyle{Color: BaseColor, Weight: 1.8}
	case geo.KindPoint:
		r := PointRadius(pointCount)
		return PathStyle{
			Color:       BaseColor,
			Weight:      math.Max(2, math.Round(r/2)),
			FillColor:   AccentColor,
			FillOpacity: 0.6,
			Radius:      r,
		}
	}
	return PathStyle{Color: BaseColor, Weight: 1.6}
}

// PointRadius sizes point markers by how many points the layer has.
func PointRadius(n int) float64 {
	switch {
	case n == 0:
		return 8
	case n > 5000:
		return 2
	case n > 2000:
		return 3
	case n > 1000:
		return 3.5
	case n > 500:
		return 4
	case n > 200:
		return 5
	case n > 100:
		return 6
	case n > 50:
		return 7
	case n > 20:
		return 9
	default:
		return 12
	}
}

// Highlight thickens and fills a style for the layer being inspected.
func Highlight(s PathStyle) PathStyle {
	s.Weight = math.Max(2, s.Weight*2.2)
	s.FillOpacity = math.Min(1, s.FillOpacity+0.6)
	if s.Radius > 0 {
		s.Radius = math.Min(30, math.Max(2, s.Radius*1.8))
	}
	return s
}

// CapitalStyle is the marker of department capitals.
func CapitalStyle() PathStyle {
	return PathStyle{Color: CapitalColor, Weight: 2, FillColor: CapitalFill, FillOpacity: 0.9, Radius: 5}
}

// MunicipalityStyle is the outline of municipalities inside a province.
func MunicipalityStyle() PathStyle {
	return PathStyle{Color: "#6a1b9a", Weight: 1, FillColor: "#ce93d8", FillOpacity: 0.5}
}
