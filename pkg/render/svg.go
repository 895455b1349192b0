package render

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/fonts"
	"github.com/institutoite/bolivia/pkg/geo"
)

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	fontFamily string
	title      string
	labels     bool
}

func WithFontFamily(f string) SVGOption { return func(r *svgRenderer) { r.fontFamily = f } }
func WithTitle(t string) SVGOption      { return func(r *svgRenderer) { r.title = t } }
func WithoutLabels() SVGOption          { return func(r *svgRenderer) { r.labels = false } }

// RenderSVG writes the scene as a standalone SVG document.
func RenderSVG(s *Scene, opts ...SVGOption) []byte {
	r := svgRenderer{fontFamily: fonts.FallbackFontFamily, labels: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		s.Width, s.Height, s.Width, s.Height)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(r.title))
	}
	bg := s.Background
	if bg == "" {
		bg = DefaultBackground
	}
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", html.EscapeString(bg))

	for _, l := range s.Layers {
		fmt.Fprintf(&buf, "  <g id=\"%s\">\n", html.EscapeString(l.ID))
		for _, sh := range l.Shapes {
			writeShape(&buf, sh.Geometry, sh.Style)
		}
		buf.WriteString("  </g>\n")
	}

	if r.labels && len(s.Labels) > 0 {
		fmt.Fprintf(&buf, "  <g font-family=\"%s\">\n", html.EscapeString(r.fontFamily))
		for _, l := range s.Labels {
			writeLabel(&buf, l, s)
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writeShape(buf *bytes.Buffer, g orb.Geometry, st Style) {
	switch g := g.(type) {
	case orb.Point:
		fmt.Fprintf(buf, `    <circle cx="%s" cy="%s" r="%s"%s/>`+"\n", num(g[0]), num(g[1]), num(st.Radius), paintAttrs(st, true))
	case orb.MultiPoint:
		for _, p := range g {
			writeShape(buf, p, st)
		}
	case orb.LineString, orb.MultiLineString:
		var d strings.Builder
		for _, ls := range lines(g) {
			pathData(&d, ls, false)
		}
		fmt.Fprintf(buf, `    <path d="%s"%s stroke-linecap="round"/>`+"\n", d.String(), paintAttrs(st, false))
	case orb.Polygon, orb.MultiPolygon, orb.Ring, orb.Bound:
		var d strings.Builder
		for _, ring := range geo.Rings(g) {
			pathData(&d, orb.LineString(ring), true)
		}
		fmt.Fprintf(buf, `    <path d="%s" fill-rule="evenodd"%s/>`+"\n", d.String(), paintAttrs(st, true))
	case orb.Collection:
		for _, c := range g {
			writeShape(buf, c, st)
		}
	}
}

func paintAttrs(st Style, filled bool) string {
	var b strings.Builder
	if filled && st.Fill != "" && st.FillOpacity > 0 {
		fmt.Fprintf(&b, ` fill="%s" fill-opacity="%s"`, html.EscapeString(st.Fill), num(st.FillOpacity))
	} else {
		b.WriteString(` fill="none"`)
	}
	if st.Stroke != "" && st.Weight > 0 {
		fmt.Fprintf(&b, ` stroke="%s" stroke-width="%s" stroke-linejoin="round"`, html.EscapeString(st.Stroke), num(st.Weight))
	}
	return b.String()
}

func pathData(d *strings.Builder, ls orb.LineString, closed bool) {
	for i, p := range ls {
		if i == 0 {
			d.WriteString("M")
		} else {
			d.WriteString(" L")
		}
		d.WriteString(num(p[0]))
		d.WriteString(" ")
		d.WriteString(num(p[1]))
	}
	if closed && len(ls) > 0 {
		d.WriteString(" Z ")
	}
}

func writeLabel(buf *bytes.Buffer, l Label, s *Scene) {
	anchor := "middle"
	x, y := l.X, l.Y
	if l.Align == AlignRight {
		anchor = "start"
		x += LabelOffset
	}
	weight := "normal"
	if l.Bold {
		weight = "bold"
	}
	fmt.Fprintf(buf, `    <text x="%s" y="%s" font-size="%s" font-weight="%s" text-anchor="%s" dominant-baseline="central" fill="%s"`,
		num(x), num(y), num(l.Size), weight, anchor, html.EscapeString(l.Color))
	if s.Halo.Visible() {
		fmt.Fprintf(buf, ` stroke="%s" stroke-width="%d" stroke-linejoin="round" paint-order="stroke"`,
			html.EscapeString(s.Halo.Color), s.Halo.Width)
	}
	fmt.Fprintf(buf, ">%s</text>\n", html.EscapeString(l.Text))
}

func lines(g orb.Geometry) []orb.LineString {
	switch g := g.(type) {
	case orb.LineString:
		return []orb.LineString{g}
	case orb.MultiLineString:
		return g
	}
	return nil
}

// num prints coordinates with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
