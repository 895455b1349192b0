package geo

import "github.com/paulmach/orb"

// rayEpsilon keeps the crossing test finite on horizontal edges.
const rayEpsilon = 1e-12

// Rings flattens every ring of a polygonal geometry, outer rings and holes
// alike, in coordinate order.
func Rings(g orb.Geometry) []orb.Ring {
	switch g := g.(type) {
	case orb.Ring:
		return []orb.Ring{g}
	case orb.Polygon:
		return append([]orb.Ring(nil), g...)
	case orb.MultiPolygon:
		var rings []orb.Ring
		for _, p := range g {
			rings = append(rings, p...)
		}
		return rings
	case orb.Bound:
		return []orb.Ring{g.ToRing()}
	case orb.Collection:
		var rings []orb.Ring
		for _, c := range g {
			rings = append(rings, Rings(c)...)
		}
		return rings
	}
	return nil
}

// InRing is the even-odd ray-casting test.
func InRing(p orb.Point, ring orb.Ring) bool {
	x, y := p[0], p[1]
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi+rayEpsilon)+xi {
			inside = !inside
		}
	}
	return inside
}

// InAnyRing reports whether p falls inside any ring of g. Holes are not
// subtracted: a point inside a hole still hits the hole ring.
func InAnyRing(p orb.Point, g orb.Geometry) bool {
	for _, r := range Rings(g) {
		if InRing(p, r) {
			return true
		}
	}
	return false
}
