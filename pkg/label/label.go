// Package label decides which feature names are drawn on the map and at what
// size.
//
// Resolution runs from scratch on every viewport settle (zoom end, move end).
// It is a pure function of the layers, the projection and the zoom: the same
// input always yields the same labels, in the same order.
//
// For each layer:
//
//  1. Gate: a layer is labelled when it has at most PermanentThreshold points
//     or the zoom is at least ZoomThreshold. Otherwise it gets no labels.
//  2. Candidates: every feature with a name and a point anchor, in source
//     order.
//  3. Collision: a candidate is accepted when its squared screen distance to
//     every accepted anchor of the same layer is at least Spacing(z)².
//
// The font size is global: one size for every label on screen.
package label

import (
	"math"
	"strings"

	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/props"
)

// Config holds the label thresholds.
type Config struct {
	PermanentThreshold int     `toml:"permanent_threshold" json:"permanent_threshold"`
	ZoomThreshold      float64 `toml:"zoom_threshold" json:"zoom_threshold"`
	MinFont            float64 `toml:"min_font" json:"min_font"`
	MaxFont            float64 `toml:"max_font" json:"max_font"`
	MinFontZoom        float64 `toml:"min_font_zoom" json:"min_font_zoom"`
	MaxFontZoom        float64 `toml:"max_font_zoom" json:"max_font_zoom"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		PermanentThreshold: 50,
		ZoomThreshold:      12,
		MinFont:            11,
		MaxFont:            16,
		MinFontZoom:        5,
		MaxFontZoom:        15,
	}
}

// FontSize interpolates the font size linearly over [MinFontZoom, MaxFontZoom]
// and clamps outside it.
func (c Config) FontSize(z float64) int {
	t := 0.0
	if span := c.MaxFontZoom - c.MinFontZoom; span > 0 {
		t = (z - c.MinFontZoom) / span
	} else if z >= c.MaxFontZoom {
		t = 1
	}
	t = math.Max(0, math.Min(1, t))
	return int(math.Round(c.MinFont + (c.MaxFont-c.MinFont)*t))
}

// Spacing is the minimum screen distance in pixels between two labels of
// one layer at zoom z.
func Spacing(z float64) float64 {
	return math.Max(8, math.Round(30*12/math.Max(8, z)))
}

// Visible reports whether a layer with pointCount points is labelled at z.
func (c Config) Visible(pointCount int, z float64) bool {
	return pointCount <= c.PermanentThreshold || z >= c.ZoomThreshold
}

// Projector maps a lon/lat point to a screen point (x right, y down).
type Projector interface {
	Project(orb.Point) orb.Point
}

// ProjectorFunc adapts a function to Projector.
type ProjectorFunc func(orb.Point) orb.Point

func (f ProjectorFunc) Project(p orb.Point) orb.Point { return f(p) }

// Candidate is a label that may be drawn.
type Candidate struct {
	Text         string    `json:"text"`
	Anchor       orb.Point `json:"anchor"`   // screen position
	Position     orb.Point `json:"position"` // lon/lat
	Priority     int       `json:"priority"`
	FeatureIndex int       `json:"feature"`
}

// LayerLabels is the outcome for one layer.
type LayerLabels struct {
	LayerID string `json:"layer"`
	Visible bool   `json:"visible"`
	// Labels are the accepted point labels, in layer order.
	Labels []Candidate `json:"labels"`
	// Lines are centered line labels of hydrography layers. They are always
	// shown and take no part in collision.
	Lines    []Candidate `json:"lines,omitempty"`
	Rejected int         `json:"rejected"`
}

// Resolution is the outcome of one pass over all active layers.
type Resolution struct {
	Zoom     float64       `json:"zoom"`
	FontSize int           `json:"font_size"`
	Spacing  float64       `json:"spacing"`
	Layers   []LayerLabels `json:"layers"`
}

// Count returns the number of labels to draw.
func (r Resolution) Count() int {
	n := 0
	for _, l := range r.Layers {
		n += len(l.Labels) + len(l.Lines)
	}
	return n
}

// Resolver binds a configuration to the property-key tables used to read
// feature names.
type Resolver struct {
	Config Config
	Keys   *props.Keys
}

// NewResolver returns a resolver; nil keys mean props.Default.
func NewResolver(cfg Config, keys *props.Keys) *Resolver {
	if keys == nil {
		keys = props.Default
	}
	return &Resolver{Config: cfg, Keys: keys}
}

// Candidates extracts point-label candidates in layer order. Features without
// a name, without a point anchor or whose projection is not finite are
// skipped.
func (r *Resolver) Candidates(l *geo.Layer, proj Projector) []Candidate {
	var out []Candidate
	for i, f := range l.Features {
		pos, ok := geo.PointAnchor(f.Geometry)
		if !ok {
			continue
		}
		name := r.Keys.ExtractName(f.Properties)
		if name == "" {
			continue
		}
		px := proj.Project(pos)
		if !finite(px) {
			continue
		}
		out = append(out, Candidate{Text: name, Anchor: px, Position: pos, Priority: i, FeatureIndex: i})
	}
	return out
}

// Accept runs greedy collision avoidance: candidates are taken in order and
// kept when no kept anchor is closer than spacing. A candidate at exactly
// spacing is kept.
func Accept(cands []Candidate, spacing float64) (accepted []Candidate, rejected int) {
	min2 := spacing * spacing
	for _, c := range cands {
		ok := true
		for _, a := range accepted {
			dx := c.Anchor[0] - a.Anchor[0]
			dy := c.Anchor[1] - a.Anchor[1]
			if dx*dx+dy*dy < min2 {
				ok = false
				break
			}
		}
		if ok {
			accepted = append(accepted, c)
		} else {
			rejected++
		}
	}
	return accepted, rejected
}

// Resolve labels one layer.
func (r *Resolver) Resolve(l *geo.Layer, proj Projector, z float64) LayerLabels {
	out := LayerLabels{LayerID: l.ID, Lines: r.lineLabels(l, proj)}
	if !r.Config.Visible(l.PointCount, z) {
		return out
	}
	out.Visible = true
	out.Labels, out.Rejected = Accept(r.Candidates(l, proj), Spacing(z))
	return out
}

// ResolveAll labels every layer independently and attaches the global font
// size.
func (r *Resolver) ResolveAll(layers []*geo.Layer, proj Projector, z float64) Resolution {
	res := Resolution{
		Zoom:     z,
		FontSize: r.Config.FontSize(z),
		Spacing:  Spacing(z),
		Layers:   make([]LayerLabels, 0, len(layers)),
	}
	for _, l := range layers {
		res.Layers = append(res.Layers, r.Resolve(l, proj, z))
	}
	return res
}

// IsHydro reports whether a catalog group holds hydrography.
func IsHydro(group string) bool {
	return strings.Contains(strings.ToLower(group), "hidro")
}

func (r *Resolver) lineLabels(l *geo.Layer, proj Projector) []Candidate {
	if !IsHydro(l.Group) {
		return nil
	}
	var out []Candidate
	for i, f := range l.Features {
		if geo.KindOf(f.Geometry) != geo.KindLine {
			continue
		}
		pos, ok := geo.LineAnchor(f.Geometry)
		if !ok {
			continue
		}
		name := r.Keys.ExtractName(f.Properties)
		if name == "" {
			continue
		}
		px := proj.Project(pos)
		if !finite(px) {
			continue
		}
		out = append(out, Candidate{Text: name, Anchor: px, Position: pos, Priority: i, FeatureIndex: i})
	}
	return out
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}
