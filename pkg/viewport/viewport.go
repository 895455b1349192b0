// Package viewport maps geographic coordinates to container pixels with the
// spherical Web-Mercator projection used by slippy maps: 256px tiles, the
// whole world is 256*2^zoom pixels wide at a given zoom.
package viewport

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// TileSize is the pixel width of the world at zoom 0.
const TileSize = 256

// MaxSide bounds the container width and height accepted from clients.
const MaxSide = 5000

// MaxLatitude is the Mercator clipping latitude.
const MaxLatitude = 85.0511287798

// Bolivia is the default extent shown when nothing is loaded.
var Bolivia = orb.Bound{Min: orb.Point{-69.7, -22.95}, Max: orb.Point{-57.45, -9.65}}

// Viewport is a map view: the geographic center, a fractional zoom and the
// container size in pixels.
type Viewport struct {
	Center orb.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
}

// Default returns the view over Bolivia for a container.
func Default(width, height int) Viewport {
	return Fit(Bolivia, width, height, 0, 18)
}

// Scale is the world size in pixels at zoom z.
func Scale(z float64) float64 {
	return TileSize * math.Exp2(z)
}

// worldPixel projects p to absolute pixel coordinates at zoom z.
func worldPixel(p orb.Point, z float64) orb.Point {
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, p[1]))
	m := project.WGS84.ToMercator(orb.Point{p[0], lat})
	circ := 2 * math.Pi * orb.EarthRadius
	s := Scale(z)
	return orb.Point{
		s * (0.5 + m[0]/circ),
		s * (0.5 - m[1]/circ),
	}
}

func worldToLonLat(px orb.Point, z float64) orb.Point {
	circ := 2 * math.Pi * orb.EarthRadius
	s := Scale(z)
	m := orb.Point{(px[0]/s - 0.5) * circ, (0.5 - px[1]/s) * circ}
	return project.Mercator.ToWGS84(m)
}

func (v Viewport) origin() orb.Point {
	c := worldPixel(v.Center, v.Zoom)
	return orb.Point{c[0] - float64(v.Width)/2, c[1] - float64(v.Height)/2}
}

// Project returns the container pixel of p; the result is a screen point
// (x right, y down), not a lon/lat pair.
func (v Viewport) Project(p orb.Point) orb.Point {
	w := worldPixel(p, v.Zoom)
	o := v.origin()
	return orb.Point{w[0] - o[0], w[1] - o[1]}
}

// Unproject is the inverse of Project.
func (v Viewport) Unproject(px orb.Point) orb.Point {
	o := v.origin()
	return worldToLonLat(orb.Point{px[0] + o[0], px[1] + o[1]}, v.Zoom)
}

// Bound returns the geographic extent of the container.
func (v Viewport) Bound() orb.Bound {
	nw := v.Unproject(orb.Point{0, 0})
	se := v.Unproject(orb.Point{float64(v.Width), float64(v.Height)})
	return orb.Bound{
		Min: orb.Point{nw[0], se[1]},
		Max: orb.Point{se[0], nw[1]},
	}
}

// Fit returns the largest integer zoom (capped at maxZoom) at which b fits
// the container minus padding on every side, centered on b.
func Fit(b orb.Bound, width, height int, padding, maxZoom float64) Viewport {
	v := Viewport{Center: b.Center(), Width: width, Height: height}
	w := float64(width) - 2*padding
	h := float64(height) - 2*padding
	if w <= 0 || h <= 0 {
		return v
	}
	// Size of b in pixels at zoom 0.
	a := worldPixel(orb.Point{b.Min[0], b.Max[1]}, 0)
	c := worldPixel(orb.Point{b.Max[0], b.Min[1]}, 0)
	bw, bh := c[0]-a[0], c[1]-a[1]
	if bw <= 0 && bh <= 0 {
		v.Zoom = maxZoom
		return v
	}
	z := maxZoom
	if bw > 0 {
		z = math.Min(z, math.Log2(w/bw))
	}
	if bh > 0 {
		z = math.Min(z, math.Log2(h/bh))
	}
	v.Zoom = math.Max(0, math.Floor(z))
	return v
}
