package render

import (
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"golang.org/x/image/font"

	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/fonts"
	"github.com/institutoite/bolivia/pkg/geo"
)

// Rasterize draws the scene at scale times its size: shapes layer by layer,
// then labels over a halo.
func Rasterize(s *Scene, scale float64) (image.Image, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, errors.New(errors.ErrCodeExport, "cannot rasterize a %dx%d scene", s.Width, s.Height)
	}
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Round(float64(s.Width) * scale))
	h := int(math.Round(float64(s.Height) * scale))

	dc := gg.NewContext(w, h)
	bg := s.Background
	if bg == "" {
		bg = DefaultBackground
	}
	setColor(dc, bg, 1)
	dc.Clear()
	dc.Scale(scale, scale)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, l := range s.Layers {
		for _, sh := range l.Shapes {
			drawShape(dc, sh.Geometry, sh.Style)
		}
	}

	faces := map[faceKey]font.Face{}
	defer func() {
		for _, f := range faces {
			f.Close()
		}
	}()
	for _, l := range s.Labels {
		k := faceKey{l.Size, l.Bold}
		face, ok := faces[k]
		if !ok {
			var err error
			if face, err = fonts.Face(l.Size, l.Bold); err != nil {
				return nil, errors.Wrap(errors.ErrCodeExport, err, "load label font")
			}
			faces[k] = face
		}
		dc.SetFontFace(face)
		drawLabel(dc, l, s)
	}
	return dc.Image(), nil
}

type faceKey struct {
	size float64
	bold bool
}

func drawShape(dc *gg.Context, g orb.Geometry, st Style) {
	switch g := g.(type) {
	case orb.Point:
		dc.DrawCircle(g[0], g[1], st.Radius)
		paint(dc, st, true)
	case orb.MultiPoint:
		for _, p := range g {
			drawShape(dc, p, st)
		}
	case orb.LineString, orb.MultiLineString:
		for _, ls := range lines(g) {
			tracePath(dc, ls, false)
		}
		paint(dc, st, false)
	case orb.Polygon, orb.MultiPolygon, orb.Ring, orb.Bound:
		for _, ring := range geo.Rings(g) {
			tracePath(dc, orb.LineString(ring), true)
		}
		dc.SetFillRule(gg.FillRuleEvenOdd)
		paint(dc, st, true)
	case orb.Collection:
		for _, c := range g {
			drawShape(dc, c, st)
		}
	}
}

func tracePath(dc *gg.Context, ls orb.LineString, closed bool) {
	if len(ls) == 0 {
		return
	}
	dc.NewSubPath()
	dc.MoveTo(ls[0][0], ls[0][1])
	for _, p := range ls[1:] {
		dc.LineTo(p[0], p[1])
	}
	if closed {
		dc.ClosePath()
	}
}

// paint fills then strokes the current path and clears it.
func paint(dc *gg.Context, st Style, filled bool) {
	if filled && st.Fill != "" && st.FillOpacity > 0 {
		setColor(dc, st.Fill, st.FillOpacity)
		dc.FillPreserve()
	}
	if st.Stroke != "" && st.Weight > 0 {
		setColor(dc, st.Stroke, 1)
		dc.SetLineWidth(st.Weight)
		dc.StrokePreserve()
	}
	dc.ClearPath()
}

func drawLabel(dc *gg.Context, l Label, s *Scene) {
	x, y, ax, ay := l.Origin()
	if s.Halo.Visible() {
		setColor(dc, s.Halo.Color, 1)
		for _, o := range haloOffsets(float64(s.Halo.Width) / 2) {
			dc.DrawStringAnchored(l.Text, x+o[0], y+o[1], ax, ay)
		}
	}
	setColor(dc, l.Color, 1)
	dc.DrawStringAnchored(l.Text, x, y, ax, ay)
}

// haloOffsets returns the integer offsets within radius r of the origin,
// excluding the origin. Drawing text at each one approximates a stroke of
// width 2r.
func haloOffsets(r float64) [][2]float64 {
	n := int(math.Ceil(r))
	var out [][2]float64
	for dy := -n; dy <= n; dy++ {
		for dx := -n; dx <= n; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if float64(dx*dx+dy*dy) <= r*r+0.5 {
				out = append(out, [2]float64{float64(dx), float64(dy)})
			}
		}
	}
	return out
}

// setColor parses a hex color; unparseable colors draw black.
func setColor(dc *gg.Context, hex string, alpha float64) {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{}
	}
	dc.SetRGBA(c.R, c.G, c.B, alpha)
}
