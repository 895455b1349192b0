package render

import (
	"encoding/json"

	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/cache"
	"github.com/institutoite/bolivia/pkg/style"
)

// DefaultBackground fills every export.
const DefaultBackground = "#ffffff"

// Style is the paint of one shape.
type Style struct {
	Stroke      string  `json:"stroke"`
	Weight      float64 `json:"weight"`
	Fill        string  `json:"fill,omitempty"`
	FillOpacity float64 `json:"fill_opacity"`
	Radius      float64 `json:"radius,omitempty"`
}

// Shape is a geometry in container pixels with its paint.
type Shape struct {
	Geometry orb.Geometry `json:"geometry"`
	Style    Style        `json:"style"`
}

// Layer groups shapes drawn together, bottom to top.
type Layer struct {
	ID     string  `json:"id"`
	Shapes []Shape `json:"shapes"`
}

// Align positions a label relative to its anchor.
type Align int

const (
	// AlignCenter centers the text on the anchor.
	AlignCenter Align = iota
	// AlignRight starts the text to the right of the anchor, vertically
	// centered, like a marker tooltip.
	AlignRight
)

// LabelOffset is the gap between a marker and a right-aligned label.
const LabelOffset = 12

// Label is text placed on the map.
type Label struct {
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
	Bold  bool    `json:"bold,omitempty"`
	Align Align   `json:"align,omitempty"`
}

// Origin returns the point text starts at and the gg anchor fractions for
// the label's alignment.
func (l Label) Origin() (x, y, ax, ay float64) {
	if l.Align == AlignRight {
		return l.X + LabelOffset, l.Y, 0, 0.5
	}
	return l.X, l.Y, 0.5, 0.5
}

// Scene is everything an export draws.
type Scene struct {
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Background string     `json:"background"`
	Layers     []Layer    `json:"layers"`
	Labels     []Label    `json:"labels"`
	Halo       style.Halo `json:"halo"`
}

// Shapes counts the shapes of every layer.
func (s *Scene) Shapes() int {
	n := 0
	for _, l := range s.Layers {
		n += len(l.Shapes)
	}
	return n
}

// Hash identifies the scene's content for artifact caching.
func (s *Scene) Hash() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
