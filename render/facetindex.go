package render

import (
	"sort"

	"github.com/soypat/glgl/math/ms3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface  = kdFacets{}
	_ kdtree.Comparable = kdFacet{}
)

// FacetIndex finds the facets of a triangle model closest to a point,
// judged by facet centroid. It is used to pick facets of a tessellated
// surface.
type FacetIndex struct {
	tree *kdtree.Tree
	n    int
}

// NewFacetIndex indexes the facets of model. Facet i of the index is model[i].
func NewFacetIndex(model []ms3.Triangle) *FacetIndex {
	facets := make(kdFacets, len(model))
	for i, t := range model {
		c := ms3.Scale(1./3, ms3.Add(t[0], ms3.Add(t[1], t[2])))
		facets[i] = kdFacet{c: r3.Vec{X: float64(c.X), Y: float64(c.Y), Z: float64(c.Z)}, idx: i}
	}
	return &FacetIndex{tree: kdtree.New(facets, false), n: len(model)}
}

// Len returns the number of indexed facets.
func (f *FacetIndex) Len() int { return f.n }

// Nearest returns the index of the facet whose centroid is closest to p and
// the squared distance to it. It returns -1 for an empty index.
func (f *FacetIndex) Nearest(p r3.Vec) (int, float64) {
	if f.n == 0 {
		return -1, 0
	}
	got, d2 := f.tree.Nearest(kdFacet{c: p, idx: -1})
	return got.(kdFacet).idx, d2
}

// NearestN returns the indices of the n facets closest to p, closest first.
func (f *FacetIndex) NearestN(p r3.Vec, n int) []int {
	if n <= 0 || f.n == 0 {
		return nil
	}
	keep := kdtree.NewNKeeper(n)
	f.tree.NearestSet(keep, kdFacet{c: p, idx: -1})
	found := make([]kdtree.ComparableDist, 0, len(keep.Heap))
	for _, c := range keep.Heap {
		if c.Comparable != nil {
			found = append(found, c)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Dist < found[j].Dist })
	idx := make([]int, len(found))
	for i, c := range found {
		idx[i] = c.Comparable.(kdFacet).idx
	}
	return idx
}

type kdFacet struct {
	c   r3.Vec
	idx int
}

// Compare returns the signed distance of a from the plane passing through
// b and perpendicular to the dimension d.
func (a kdFacet) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return kdComp(a, b.(kdFacet), int(d))
}

// Dims returns the number of dimensions described in the Comparable.
func (a kdFacet) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between the receiver and
// the parameter.
func (a kdFacet) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.c, b.(kdFacet).c))
}

func kdComp(a, b kdFacet, dim int) float64 {
	switch dim {
	case 0:
		return a.c.X - b.c.X
	case 1:
		return a.c.Y - b.c.Y
	}
	return a.c.Z - b.c.Z
}

type kdFacets []kdFacet

func (k kdFacets) Index(i int) kdtree.Comparable { return k[i] }

// Len returns the length of the list.
func (k kdFacets) Len() int { return len(k) }

// Pivot partitions the list based on the dimension specified.
func (k kdFacets) Pivot(d kdtree.Dim) int {
	p := kdPlane{dim: int(d), facets: k}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (k kdFacets) Slice(start, end int) kdtree.Interface { return k[start:end] }

type kdPlane struct {
	dim    int
	facets kdFacets
}

func (p kdPlane) Less(i, j int) bool {
	return kdComp(p.facets[i], p.facets[j], p.dim) < 0
}
func (p kdPlane) Swap(i, j int) {
	p.facets[i], p.facets[j] = p.facets[j], p.facets[i]
}
func (p kdPlane) Len() int {
	return len(p.facets)
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.facets = p.facets[start:end]
	return p
}
