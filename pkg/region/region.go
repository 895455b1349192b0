// Package region models the administrative hierarchy: departments (ADM1)
// and provinces (ADM3), with each province assigned to the department whose
// polygon contains its bounding-box center.
package region

import (
	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/geo"
	"github.com/institutoite/bolivia/pkg/props"
)

// Level is an administrative level.
type Level string

const (
	Country Level = "country"
	ADM1    Level = "adm1"
	ADM3    Level = "adm3"
)

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case ADM1, ADM3, Country:
		return Level(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidLevel, "unknown level %q (want adm1 or adm3)", s)
}

// Node is one administrative unit.
type Node struct {
	Level  Level     `json:"level"`
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Index  int       `json:"index"` // feature index in the source layer
	Center orb.Point `json:"center"`
}

// Normalize derives a node for every feature of l, in source order.
func Normalize(level Level, l *geo.Layer, keys *props.Keys) []Node {
	if keys == nil {
		keys = props.Default
	}
	nodes := make([]Node, 0, len(l.Features))
	for i, f := range l.Features {
		id, name := keys.RegionIdentity(f.Properties)
		c, _ := geo.Center(f.Geometry)
		nodes = append(nodes, Node{Level: level, ID: id, Name: name, Index: i, Center: c})
	}
	return nodes
}

// BuildParents maps each province id to the id of the first department, in
// source order, with any ring containing the province's bounding-box center.
// Provinces outside every department are absent from the result.
func BuildParents(depts []Node, deptLayer *geo.Layer, provs []Node, provLayer *geo.Layer) map[string]string {
	parents := make(map[string]string, len(provs))
	for _, p := range provs {
		if _, ok := geo.Center(provLayer.Features[p.Index].Geometry); !ok {
			continue
		}
		for _, d := range depts {
			if geo.InAnyRing(p.Center, deptLayer.Features[d.Index].Geometry) {
				parents[p.ID] = d.ID
				break
			}
		}
	}
	return parents
}
