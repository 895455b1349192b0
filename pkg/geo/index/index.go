// Package index is an R-tree over the feature bounds of a layer. Queries
// return feature indices in layer order so callers keep label priority.
package index

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/institutoite/bolivia/pkg/geo"
)

// minExtent pads zero-width bounds; the tree rejects empty rectangles.
const minExtent = 1e-9

// Index answers bounding-box queries over one layer.
type Index struct {
	tree *rtreego.Rtree
	n    int
}

type entry struct {
	i    int
	rect rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect { return e.rect }

// New indexes every feature of l that has a geometry.
func New(l *geo.Layer) *Index {
	tree := rtreego.NewTree(2, 25, 50)
	n := 0
	for i, f := range l.Features {
		if f.Geometry == nil {
			continue
		}
		if _, ok := geo.Center(f.Geometry); !ok {
			continue
		}
		tree.Insert(&entry{i: i, rect: toRect(f.Geometry.Bound())})
		n++
	}
	return &Index{tree: tree, n: n}
}

// Len returns the number of indexed features.
func (x *Index) Len() int { return x.n }

// Query returns the indices of features whose bounds intersect b, ascending.
func (x *Index) Query(b orb.Bound) []int {
	hits := x.tree.SearchIntersect(toRect(b))
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*entry).i)
	}
	sort.Ints(out)
	return out
}

// Filter returns the features of l intersecting b, in layer order.
func (x *Index) Filter(l *geo.Layer, b orb.Bound) []geo.Feature {
	idx := x.Query(b)
	out := make([]geo.Feature, 0, len(idx))
	for _, i := range idx {
		out = append(out, l.Features[i])
	}
	return out
}

func toRect(b orb.Bound) rtreego.Rect {
	w := b.Max[0] - b.Min[0]
	h := b.Max[1] - b.Min[1]
	if w < minExtent {
		w = minExtent
	}
	if h < minExtent {
		h = minExtent
	}
	r, _ := rtreego.NewRect(rtreego.Point{b.Min[0], b.Min[1]}, []float64{w, h})
	return r
}
