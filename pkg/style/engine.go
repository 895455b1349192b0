package style

import (
	"math"
	"strings"

	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/region"
)

// Paint is what a renderer needs to draw one unit.
type Paint struct {
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	FillColor   string  `json:"fill_color"`
	FillOpacity float64 `json:"fill_opacity"`
}

// Active is the unit whose colors the user is editing.
type Active struct {
	Level region.Level `json:"level"`
	ID    string       `json:"id"`
}

// Engine combines per-unit styles, global parameters and the selection.
type Engine struct {
	State     *State    `json:"state"`
	Params    Params    `json:"params"`
	Selection Selection `json:"selection"`
	Halo      Halo      `json:"halo"`
	Active    Active    `json:"active"`

	// ParentOf returns the department of a province, "" when it has none.
	ParentOf func(provID string) string `json:"-"`
}

// NewEngine returns an engine in country mode with default parameters.
func NewEngine(parentOf func(string) string) *Engine {
	if parentOf == nil {
		parentOf = func(string) string { return "" }
	}
	return &Engine{
		State:     NewState(),
		Params:    DefaultParams(),
		Selection: NewSelection(),
		Halo:      DefaultHalo(),
		ParentOf:  parentOf,
	}
}

// Compute returns the paint of (level, id):
//
//  1. base: own stroke and fill, global stroke width and opacity;
//  2. departments other than the selected one are dimmed while a department
//     is selected in department or province mode;
//  3. sibling provinces of the selected province are dimmed in province mode;
//  4. units in focus get the stroke override and the nominal weight.
func (e *Engine) Compute(level region.Level, id string) Paint {
	st, ok := e.State.Get(level, id)
	if !ok {
		st = Style{Fill: Palette[0], Stroke: DefaultStroke, Text: DefaultText}
	}
	p := e.Params.Clamped()
	sel := e.Selection

	paint := Paint{
		Color:       st.Stroke,
		Weight:      p.StrokeWidth,
		FillColor:   st.Fill,
		FillOpacity: p.Opacity,
	}

	if level == region.ADM1 && (sel.Mode == ModeDepartment || sel.Mode == ModeProvince) && sel.DeptID != "" {
		if id != sel.DeptID {
			paint.FillOpacity = math.Max(MinFillOpacity, paint.FillOpacity*(1-p.RestAttenuation))
			paint.Weight = math.Max(MinStrokeWidth, p.StrokeWidth*0.6)
			paint.Color = DimmedStroke
		}
	}

	if level == region.ADM3 && sel.Mode == ModeProvince && sel.ProvID != "" {
		parent := e.parentOf(id)
		if parent != "" && parent == sel.DeptID && id != sel.ProvID {
			paint.FillOpacity = math.Max(MinFillOpacity, paint.FillOpacity*(1-p.DeptAttenuation))
		}
	}

	if e.InFocus(level, id) {
		if p.StrokeOverride != "" {
			paint.Color = p.StrokeOverride
		}
		paint.Weight = p.StrokeWidth
	}
	return paint
}

// InFocus reports whether (level, id) qualifies for the stroke override:
// every unit in country mode, the selected department and its provinces in
// department mode, the selected province in province mode.
func (e *Engine) InFocus(level region.Level, id string) bool {
	sel := e.Selection
	switch sel.Mode {
	case ModeCountry:
		return level == region.ADM1 || level == region.ADM3
	case ModeDepartment:
		if sel.DeptID == "" {
			return false
		}
		switch level {
		case region.ADM1:
			return id == sel.DeptID
		case region.ADM3:
			return e.parentOf(id) == sel.DeptID
		}
	case ModeProvince:
		return sel.ProvID != "" && level == region.ADM3 && id == sel.ProvID
	}
	return false
}

func (e *Engine) parentOf(id string) string {
	if e.ParentOf == nil {
		return ""
	}
	return e.ParentOf(id)
}

// TextColor returns the label color of a unit.
func (e *Engine) TextColor(level region.Level, id string) string {
	if st, ok := e.State.Get(level, id); ok && st.Text != "" {
		return st.Text
	}
	return DefaultText
}

// SetActive picks the unit edited by SetColor.
func (e *Engine) SetActive(level region.Level, id string) {
	e.Active = Active{Level: level, ID: id}
}

// SetColor changes a color of the active unit. Setting the stroke also sets
// the global stroke override, even when no unit is active. Nothing changes
// when the color, the field or the active unit is invalid.
func (e *Engine) SetColor(field, color string) error {
	if err := errors.ValidateColor(color); err != nil {
		return err
	}
	switch field {
	case FieldFill, FieldStroke, FieldText:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown style field %q", field)
	}
	if e.Active.ID != "" {
		if err := e.State.Set(e.Active.Level, e.Active.ID, field, color); err != nil {
			return err
		}
	}
	if field == FieldStroke {
		return e.Params.SetStrokeOverride(color)
	}
	return nil
}

// SelectDepartment updates the selection and makes the department active.
func (e *Engine) SelectDepartment(id string) bool {
	if !e.Selection.SelectDepartment(id) {
		return false
	}
	e.SetActive(region.ADM1, id)
	return true
}

// SelectProvince updates the selection and makes the province active.
func (e *Engine) SelectProvince(id string) bool {
	if !e.Selection.SelectProvince(id, e.parentOf) {
		return false
	}
	e.SetActive(region.ADM3, id)
	return true
}

// Trail renders the breadcrumb, for example
// "Modo: DEPARTAMENTO > Depto: La Paz". name resolves unit names.
func (e *Engine) Trail(name func(level region.Level, id string) string) string {
	var b strings.Builder
	b.WriteString("Modo: ")
	b.WriteString(strings.ToUpper(e.Selection.Mode.Label()))
	if id := e.Selection.DeptID; id != "" {
		b.WriteString(" > Depto: ")
		b.WriteString(name(region.ADM1, id))
	}
	if id := e.Selection.ProvID; id != "" {
		b.WriteString(" > Prov: ")
		b.WriteString(name(region.ADM3, id))
	}
	return b.String()
}
