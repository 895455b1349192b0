package style

import (
	"math"

	"github.com/institutoite/bolivia/pkg/errors"
)

// Parameter ranges. Out-of-range input is clamped, never rejected.
const (
	MinOpacity     = 0.2
	MaxOpacity     = 1.0
	MinStrokeWidth = 0.5
	MaxStrokeWidth = 4.0

	// MinFillOpacity is the floor of attenuated fills.
	MinFillOpacity = 0.02
)

// Params are the global style knobs.
type Params struct {
	Opacity         float64 `json:"opacity" toml:"opacity"`
	StrokeWidth     float64 `json:"stroke_width" toml:"stroke_width"`
	RestAttenuation float64 `json:"rest_attenuation" toml:"rest_attenuation"`
	DeptAttenuation float64 `json:"dept_attenuation" toml:"dept_attenuation"`
	StrokeOverride  string  `json:"stroke_override,omitempty" toml:"stroke_override"`
}

// DefaultParams returns the initial knob positions.
func DefaultParams() Params {
	return Params{Opacity: 0.8, StrokeWidth: 1.2, RestAttenuation: 0.6, DeptAttenuation: 0.5}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func (p *Params) SetOpacity(v float64) { p.Opacity = clamp(v, MinOpacity, MaxOpacity) }
func (p *Params) SetStrokeWidth(v float64) { p.StrokeWidth = clamp(v, MinStrokeWidth, MaxStrokeWidth) }
func (p *Params) SetRestAttenuation(v float64) { p.RestAttenuation = clamp(v, 0, 1) }
func (p *Params) SetDeptAttenuation(v float64) { p.DeptAttenuation = clamp(v, 0, 1) }

// SetStrokeOverride sets the focus stroke color; "" clears it.
func (p *Params) SetStrokeOverride(color string) error {
	if color == "" {
		p.StrokeOverride = ""
		return nil
	}
	if err := errors.ValidateColor(color); err != nil {
		return err
	}
	p.StrokeOverride = color
	return nil
}

// Clamped returns p with every scalar in range.
func (p Params) Clamped() Params {
	p.SetOpacity(p.Opacity)
	p.SetStrokeWidth(p.StrokeWidth)
	p.SetRestAttenuation(p.RestAttenuation)
	p.SetDeptAttenuation(p.DeptAttenuation)
	return p
}

// Halo is the outline drawn behind label text.
type Halo struct {
	Enabled bool   `json:"enabled" toml:"enabled"`
	Color   string `json:"color" toml:"color"`
	Width   int    `json:"width" toml:"width"`
}

// DefaultHalo is a 3px white outline.
func DefaultHalo() Halo {
	return Halo{Enabled: true, Color: "#ffffff", Width: 3}
}

// Visible reports whether the halo is drawn at all.
func (h Halo) Visible() bool { return h.Enabled && h.Width > 0 }
