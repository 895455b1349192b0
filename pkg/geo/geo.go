// Package geo holds the in-memory model of loaded layers: features decoded
// from GeoJSON, point counts and the geometric helpers shared by the label
// resolver, the region hierarchy and the exporter.
//
// Coordinates follow GeoJSON order (lon, lat) and are never mutated after
// decoding.
package geo

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/institutoite/bolivia/pkg/errors"
)

// Feature is one geometry with its attribute bag.
type Feature struct {
	Geometry   orb.Geometry
	Properties map[string]any
}

// Layer is a loaded source. Features keep source order; that order is the
// label priority.
type Layer struct {
	ID         string // source URL or path
	Name       string
	Group      string
	Features   []Feature
	PointCount int
}

// Kind classifies a geometry for default styling.
type Kind int

const (
	KindNone Kind = iota
	KindPoint
	KindLine
	KindPolygon
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindPolygon:
		return "polygon"
	default:
		return "none"
	}
}

// Decode parses a GeoJSON FeatureCollection into a layer.
func Decode(id string, data []byte) (*Layer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid GeoJSON in %s", id)
	}
	feats := make([]Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		feats = append(feats, Feature{Geometry: f.Geometry, Properties: map[string]any(f.Properties)})
	}
	return NewLayer(id, feats), nil
}

// NewLayer builds a layer and computes its point count.
func NewLayer(id string, feats []Feature) *Layer {
	return &Layer{ID: id, Features: feats, PointCount: CountPoints(feats)}
}

// CountPoints counts 1 per Point and one per MultiPoint coordinate.
// Other geometries contribute nothing.
func CountPoints(feats []Feature) int {
	n := 0
	for _, f := range feats {
		switch g := f.Geometry.(type) {
		case orb.Point:
			n++
		case orb.MultiPoint:
			n += len(g)
		}
	}
	return n
}

// KindOf reports the styling kind of g.
func KindOf(g orb.Geometry) Kind {
	switch g.(type) {
	case orb.Point, orb.MultiPoint:
		return KindPoint
	case orb.LineString, orb.MultiLineString:
		return KindLine
	case orb.Polygon, orb.MultiPolygon, orb.Ring, orb.Bound:
		return KindPolygon
	default:
		return KindNone
	}
}

// Center returns the center of g's bounding box.
func Center(g orb.Geometry) (orb.Point, bool) {
	if g == nil || isEmpty(g) {
		return orb.Point{}, false
	}
	return g.Bound().Center(), true
}

// PointAnchor returns the anchor used for point labels: the point itself or
// the first coordinate of a multipoint.
func PointAnchor(g orb.Geometry) (orb.Point, bool) {
	switch g := g.(type) {
	case orb.Point:
		return g, true
	case orb.MultiPoint:
		if len(g) > 0 {
			return g[0], true
		}
	}
	return orb.Point{}, false
}

// LineAnchor returns the middle vertex of a line, or of the first non-empty
// line of a multiline.
func LineAnchor(g orb.Geometry) (orb.Point, bool) {
	switch g := g.(type) {
	case orb.LineString:
		if len(g) > 0 {
			return g[len(g)/2], true
		}
	case orb.MultiLineString:
		for _, ls := range g {
			if len(ls) > 0 {
				return ls[len(ls)/2], true
			}
		}
	}
	return orb.Point{}, false
}

// Bound returns the union of the bounds of every non-empty geometry in l.
// ok is false when there is none.
func Bound(l *Layer) (b orb.Bound, ok bool) {
	if l == nil {
		return b, false
	}
	for _, f := range l.Features {
		if f.Geometry == nil || isEmpty(f.Geometry) {
			continue
		}
		if !ok {
			b, ok = f.Geometry.Bound(), true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b, ok
}

// Summary describes a layer for listings.
type Summary struct {
	Features int      `json:"features"`
	Points   int      `json:"points"`
	Types    []string `json:"types"`
}

// Summarize counts features and lists the distinct geometry types, sorted.
func Summarize(l *Layer) Summary {
	seen := map[string]bool{}
	for _, f := range l.Features {
		if f.Geometry == nil {
			continue
		}
		seen[f.Geometry.GeoJSONType()] = true
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return Summary{Features: len(l.Features), Points: l.PointCount, Types: types}
}

func isEmpty(g orb.Geometry) bool {
	switch g := g.(type) {
	case orb.MultiPoint:
		return len(g) == 0
	case orb.LineString:
		return len(g) == 0
	case orb.MultiLineString:
		return len(g) == 0
	case orb.Ring:
		return len(g) == 0
	case orb.Polygon:
		return len(g) == 0
	case orb.MultiPolygon:
		return len(g) == 0
	case orb.Collection:
		return len(g) == 0
	}
	return false
}
