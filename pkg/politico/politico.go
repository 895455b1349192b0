// Package politico drives the political map of Bolivia: departments and
// provinces painted by the style engine, filtered and framed by the
// drill-down mode, with draggable region labels and a legend.
package politico

import (
	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/label"
	"github.com/institutoite/bolivia/pkg/region"
	"github.com/institutoite/bolivia/pkg/style"
	"github.com/institutoite/bolivia/pkg/viewport"
)

// RegionFontSize is the size of region labels in exports.
const RegionFontSize = 12

// Fit paddings in pixels per framing target.
const (
	padCountry    = 20
	padDepartment = 30
	padProvince   = 35
)

// Map is the state of one political map.
type Map struct {
	Hierarchy *region.Hierarchy
	Engine    *style.Engine

	ShowADM1 bool
	ShowADM3 bool

	// Optional overlays.
	Capitals       *geo.Layer
	Municipalities *geo.Layer
}

// New prepares styles for every unit and makes the first department active.
func New(h *region.Hierarchy) *Map {
	e := style.NewEngine(h.ParentOf)
	e.State.Prepare(h.Nodes(region.ADM1))
	e.State.Prepare(h.Nodes(region.ADM3))
	if depts := h.Nodes(region.ADM1); len(depts) > 0 {
		e.SetActive(region.ADM1, depts[0].ID)
	}
	return &Map{Hierarchy: h, Engine: e, ShowADM1: true, ShowADM3: true}
}

// Mode is a shortcut for the current selection mode.
func (m *Map) Mode() style.Mode { return m.Engine.Selection.Mode }

// SetMode switches mode and clears the selection.
func (m *Map) SetMode(mode style.Mode) { m.Engine.Selection.SetMode(mode) }

// Back pops one selection level.
func (m *Map) Back() bool { return m.Engine.Selection.Back() }

// Click handles a click on a unit or its list button: the unit becomes
// active, and in department or province mode it also drives the selection.
// It reports whether the selection changed.
func (m *Map) Click(level region.Level, id string) bool {
	if _, ok := m.Hierarchy.Node(level, id); !ok {
		return false
	}
	m.Engine.SetActive(level, id)
	switch m.Mode() {
	case style.ModeDepartment, style.ModeProvince:
		if level == region.ADM1 {
			return m.Engine.SelectDepartment(id)
		}
		if level == region.ADM3 {
			return m.Engine.SelectProvince(id)
		}
	}
	return false
}

// VisibleADM1 lists the departments drawn in the current mode.
func (m *Map) VisibleADM1() []region.Node {
	if m.Mode() == style.ModeMenu || !m.ShowADM1 {
		return nil
	}
	return m.Hierarchy.Nodes(region.ADM1)
}

// VisibleADM3 lists the provinces drawn in the current mode: all of them in
// country mode, the department's provinces once a department is selected,
// and only the selected province when there is one.
func (m *Map) VisibleADM3() []region.Node {
	if !m.ShowADM3 {
		return nil
	}
	sel := m.Engine.Selection
	switch sel.Mode {
	case style.ModeCountry:
		return m.Hierarchy.Nodes(region.ADM3)
	case style.ModeDepartment:
		if sel.DeptID == "" {
			return nil
		}
		return m.Hierarchy.Children(sel.DeptID)
	case style.ModeProvince:
		if sel.DeptID == "" {
			return nil
		}
		if sel.ProvID == "" {
			return m.Hierarchy.Children(sel.DeptID)
		}
		if n, ok := m.Hierarchy.Node(region.ADM3, sel.ProvID); ok {
			return []region.Node{n}
		}
	}
	return nil
}

// Buttons lists the units offered for selection: departments outside country
// mode, provinces of the selected department.
func (m *Map) Buttons() (depts, provs []region.Node) {
	sel := m.Engine.Selection
	switch sel.Mode {
	case style.ModeMenu:
		return nil, nil
	case style.ModeCountry:
		return m.Hierarchy.Nodes(region.ADM1), m.Hierarchy.Nodes(region.ADM3)
	}
	depts = m.Hierarchy.Nodes(region.ADM1)
	if sel.DeptID != "" {
		provs = m.Hierarchy.Children(sel.DeptID)
	}
	return depts, provs
}

// ShowCapitals reports whether the capitals overlay is drawn.
func (m *Map) ShowCapitals() bool {
	return m.Capitals != nil && m.Mode() == style.ModeCountry
}

// VisibleMunicipalities returns the municipality features inside the
// selected province.
func (m *Map) VisibleMunicipalities() []int {
	sel := m.Engine.Selection
	if m.Municipalities == nil || sel.Mode != style.ModeProvince || sel.ProvID == "" {
		return nil
	}
	return m.Hierarchy.Within(m.Municipalities, region.ADM3, sel.ProvID)
}

// Trail is the breadcrumb of the current selection.
func (m *Map) Trail() string {
	return m.Engine.Trail(m.Hierarchy.Name)
}

// Focus returns the geographic extent to frame and the padding to use.
func (m *Map) Focus() (orb.Bound, float64) {
	sel := m.Engine.Selection
	if sel.ProvID != "" {
		if f, ok := m.Hierarchy.Feature(region.ADM3, sel.ProvID); ok && f.Geometry != nil {
			return f.Geometry.Bound(), padProvince
		}
	}
	if sel.DeptID != "" {
		if f, ok := m.Hierarchy.Feature(region.ADM1, sel.DeptID); ok && f.Geometry != nil {
			return f.Geometry.Bound(), padDepartment
		}
	}
	b, _ := geo.Bound(m.Hierarchy.ADM1)
	return b, padCountry
}

// Viewport frames Focus in a container of the given size.
func (m *Map) Viewport(width, height int) viewport.Viewport {
	b, pad := m.Focus()
	if b == (orb.Bound{}) {
		return viewport.Default(width, height)
	}
	return viewport.Fit(b, width, height, pad, 18)
}

// RegionLabel is a region name placed on the map.
type RegionLabel struct {
	Level    region.Level `json:"level"`
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Position orb.Point    `json:"position"` // lon/lat
	Anchor   orb.Point    `json:"anchor"`   // screen
	Color    string       `json:"color"`
	Pinned   bool         `json:"pinned"`
}

// RegionLabels places the name of every visible unit at its saved position,
// or its bounding-box center. Region labels take no part in collision.
func (m *Map) RegionLabels(proj label.Projector) []RegionLabel {
	var out []RegionLabel
	add := func(nodes []region.Node) {
		for _, n := range nodes {
			pos, pinned := n.Center, false
			if st, ok := m.Engine.State.Get(n.Level, n.ID); ok && st.LabelPos != nil {
				pos, pinned = *st.LabelPos, true
			}
			out = append(out, RegionLabel{
				Level:    n.Level,
				ID:       n.ID,
				Text:     n.Name,
				Position: pos,
				Anchor:   proj.Project(pos),
				Color:    m.Engine.TextColor(n.Level, n.ID),
				Pinned:   pinned,
			})
		}
	}
	add(m.VisibleADM1())
	add(m.VisibleADM3())
	return out
}

// MoveLabel pins the label of a unit to a lon/lat position.
func (m *Map) MoveLabel(level region.Level, id string, pos orb.Point) error {
	return m.Engine.State.SetLabelPos(level, id, &pos)
}

// LegendRow is one legend line.
type LegendRow struct {
	Name  string       `json:"name"`
	Level region.Level `json:"level"`
	Fill  string       `json:"fill"`
}

// Legend lists the visible departments, then the visible provinces.
func (m *Map) Legend() []LegendRow {
	var rows []LegendRow
	for _, nodes := range [][]region.Node{m.VisibleADM1(), m.VisibleADM3()} {
		for _, n := range nodes {
			st, _ := m.Engine.State.Get(n.Level, n.ID)
			rows = append(rows, LegendRow{Name: n.Name, Level: n.Level, Fill: st.Fill})
		}
	}
	return rows
}

// Painted is a unit with its computed paint.
type Painted struct {
	Node    region.Node
	Feature geo.Feature
	Paint   style.Paint
}

// Painted returns the visible units of a level with their paint, in source
// order.
func (m *Map) Painted(level region.Level) []Painted {
	var nodes []region.Node
	var src *geo.Layer
	switch level {
	case region.ADM1:
		nodes, src = m.VisibleADM1(), m.Hierarchy.ADM1
	case region.ADM3:
		nodes, src = m.VisibleADM3(), m.Hierarchy.ADM3
	}
	out := make([]Painted, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Painted{Node: n, Feature: src.Features[n.Index], Paint: m.Engine.Compute(level, n.ID)})
	}
	return out
}
