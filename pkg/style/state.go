// Package style computes the paint of administrative units from their own
// colors, the global parameters and the drill-down selection.
//
// All mutable inputs are plain values ([State], [Params], [Selection]) that
// change only through their methods; [Engine.Compute] is a pure read.
package style

import (
	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/region"
)

// Palette is cycled to give every new unit a fill color.
var Palette = []string{
	"#ef9a9a", "#ffcc80", "#fff59d", "#a5d6a7", "#80cbc4",
	"#90caf9", "#b39ddb", "#ce93d8", "#bcaaa4",
}

const (
	DefaultStroke = "#222222"
	DefaultText   = "#000000"
	DimmedStroke  = "#999999"
)

// Style is the per-unit color set. LabelPos overrides the label position
// after the user drags a label.
type Style struct {
	Fill     string     `json:"fill"`
	Stroke   string     `json:"stroke"`
	Text     string     `json:"text"`
	LabelPos *orb.Point `json:"label_pos,omitempty"`
}

// State maps (level, id) to a Style.
type State struct {
	Styles map[region.Level]map[string]*Style `json:"styles"`
	Next   int                                `json:"next"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Styles: map[region.Level]map[string]*Style{}}
}

// Prepare gives every node without a style the next palette color, in node
// order. Existing styles are kept.
func (s *State) Prepare(nodes []region.Node) {
	for _, n := range nodes {
		s.ensure(n.Level, n.ID)
	}
}

func (s *State) ensure(level region.Level, id string) *Style {
	m, ok := s.Styles[level]
	if !ok {
		m = map[string]*Style{}
		s.Styles[level] = m
	}
	st, ok := m[id]
	if !ok {
		st = &Style{Fill: Palette[s.Next%len(Palette)], Stroke: DefaultStroke, Text: DefaultText}
		s.Next++
		m[id] = st
	}
	return st
}

// Get returns a copy of the style of (level, id).
func (s *State) Get(level region.Level, id string) (Style, bool) {
	st, ok := s.Styles[level][id]
	if !ok {
		return Style{}, false
	}
	return *st, true
}

// Field names accepted by Set.
const (
	FieldFill   = "fill"
	FieldStroke = "stroke"
	FieldText   = "text"
)

// Set changes one color of a unit.
func (s *State) Set(level region.Level, id, field, color string) error {
	if err := errors.ValidateColor(color); err != nil {
		return err
	}
	st, ok := s.Styles[level][id]
	if !ok {
		return errors.New(errors.ErrCodeRegionNotFound, "no %s unit with id %q", level, id)
	}
	switch field {
	case FieldFill:
		st.Fill = color
	case FieldStroke:
		st.Stroke = color
	case FieldText:
		st.Text = color
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown style field %q", field)
	}
	return nil
}

// SetLabelPos pins the label of a unit at p (lon/lat). A nil p restores the
// computed position.
func (s *State) SetLabelPos(level region.Level, id string, p *orb.Point) error {
	st, ok := s.Styles[level][id]
	if !ok {
		return errors.New(errors.ErrCodeRegionNotFound, "no %s unit with id %q", level, id)
	}
	if p == nil {
		st.LabelPos = nil
		return nil
	}
	pos := *p
	st.LabelPos = &pos
	return nil
}
