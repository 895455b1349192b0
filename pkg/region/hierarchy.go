package region

import (
	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/props"
)

// Hierarchy is built once per dataset load and never mutated.
type Hierarchy struct {
	ADM1 *geo.Layer
	ADM3 *geo.Layer

	depts   []Node
	provs   []Node
	parents map[string]string
	index   map[Level]map[string]int
}

// Build normalizes both levels and derives province parents.
func Build(adm1, adm3 *geo.Layer, keys *props.Keys) *Hierarchy {
	h := &Hierarchy{
		ADM1:  adm1,
		ADM3:  adm3,
		index: map[Level]map[string]int{ADM1: {}, ADM3: {}},
	}
	h.depts = Normalize(ADM1, adm1, keys)
	if adm3 != nil {
		h.provs = Normalize(ADM3, adm3, keys)
		h.parents = BuildParents(h.depts, adm1, h.provs, adm3)
	}
	for i, n := range h.depts {
		if _, dup := h.index[ADM1][n.ID]; !dup {
			h.index[ADM1][n.ID] = i
		}
	}
	for i, n := range h.provs {
		if _, dup := h.index[ADM3][n.ID]; !dup {
			h.index[ADM3][n.ID] = i
		}
	}
	return h
}

// Nodes returns every unit of a level in source order.
func (h *Hierarchy) Nodes(level Level) []Node {
	switch level {
	case ADM1:
		return h.depts
	case ADM3:
		return h.provs
	}
	return nil
}

// Node finds a unit by id. The first unit with the id wins.
func (h *Hierarchy) Node(level Level, id string) (Node, bool) {
	i, ok := h.index[level][id]
	if !ok {
		return Node{}, false
	}
	return h.Nodes(level)[i], true
}

// Feature returns the source feature of a unit.
func (h *Hierarchy) Feature(level Level, id string) (geo.Feature, bool) {
	n, ok := h.Node(level, id)
	if !ok {
		return geo.Feature{}, false
	}
	if level == ADM1 {
		return h.ADM1.Features[n.Index], true
	}
	return h.ADM3.Features[n.Index], true
}

// Name returns the display name of a unit, or the id itself when unknown.
func (h *Hierarchy) Name(level Level, id string) string {
	if n, ok := h.Node(level, id); ok {
		return n.Name
	}
	return id
}

// ParentOf returns the department of a province, or "" when none contains it.
func (h *Hierarchy) ParentOf(provID string) string {
	return h.parents[provID]
}

// Children lists the provinces of a department in source order.
func (h *Hierarchy) Children(deptID string) []Node {
	var out []Node
	for _, p := range h.provs {
		if h.parents[p.ID] == deptID && deptID != "" {
			out = append(out, p)
		}
	}
	return out
}

// Orphans lists provinces without a parent department.
func (h *Hierarchy) Orphans() []Node {
	var out []Node
	for _, p := range h.provs {
		if _, ok := h.parents[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// Within returns the indices of features of l whose bounding-box center
// falls inside the unit (level, id).
func (h *Hierarchy) Within(l *geo.Layer, level Level, id string) []int {
	f, ok := h.Feature(level, id)
	if !ok || l == nil {
		return nil
	}
	var out []int
	for i, g := range l.Features {
		c, ok := geo.Center(g.Geometry)
		if ok && geo.InAnyRing(c, f.Geometry) {
			out = append(out, i)
		}
	}
	return out
}
