package tessellate

import (
	"sort"

	"github.com/soypat/isosurf"
	"github.com/soypat/isosurf/cases"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxCellVertices is the vertex count of the largest cell topology.
const maxCellVertices = 8

func (sw *sweeper) crossCube(m *Mesh, s []Sample) error {
	return sw.crossCell(m, cases.Cube, s)
}

func (sw *sweeper) crossTetrahedron(m *Mesh, s []Sample) error {
	return sw.crossCell(m, cases.Tetrahedron, s)
}

func (sw *sweeper) crossOctahedron(m *Mesh, s []Sample) error {
	return sw.crossCell(m, cases.Octahedron, s)
}

func (sw *sweeper) crossPyramid(m *Mesh, s []Sample) error {
	return sw.crossCell(m, cases.Pyramid, s)
}

func (sw *sweeper) crossWedge(m *Mesh, s []Sample) error {
	return sw.crossCell(m, cases.Wedge, s)
}

// signature returns the over-threshold bit pattern of samples s.
func signature(s []Sample, iso float64) uint {
	var sig uint
	for i := range s {
		if s[i].Value > iso {
			sig |= 1 << uint(i)
		}
	}
	return sig
}

// crossCell emits the crossing polygons of a cell with vertex samples s
// ordered following the numbering convention of topology topo.
func (sw *sweeper) crossCell(m *Mesh, topo cases.Topology, s []Sample) error {
	tb := sw.tables[topo]
	if len(s) != tb.NumVertices() {
		panic(isosurf.ErrMsg("cell sample count does not match " + topo.String() + " topology"))
	}
	e := tb.Lookup(signature(s, m.iso))
	if e.Case == cases.None {
		return nil
	}
	c := tb.Case(e.Case)
	if c.Ambiguous {
		return sw.resolve(m, tb, s)
	}
	var pos [maxCellVertices]r3.Vec
	for i := range s {
		pos[i] = s[i].Xi
	}
	reverse := e.Inverse != tb.Flipped(pos[:len(s)]) != sw.leftHanded
	var buf [2 * maxCellVertices]*Vertex
	for _, poly := range c.Polygons {
		p := buf[:0]
		for _, edge := range poly {
			v, err := m.Vertex(s[e.Perm[edge[0]]], s[e.Perm[edge[1]]])
			if err != nil {
				return err
			}
			p = append(p, v)
		}
		m.addPolygon(p, reverse)
	}
	sw.stats.polygons += len(c.Polygons)
	return nil
}

// resolve crosses an ambiguous cell by sampling its centroid and crossing
// the sub-cells spanned by the centroid and each face: tetrahedra over
// triangle faces and pyramids over quad faces. Quad faces that are saddles
// themselves are split into four tetrahedra around a sample at the face
// centre, which the neighbouring cell sharing the face computes identically.
func (sw *sweeper) resolve(m *Mesh, tb *cases.Table, s []Sample) error {
	sw.stats.resolved++
	center, err := sw.syntheticCenter(s)
	if err != nil {
		return err
	}
	var sub [5]Sample
	for _, face := range tb.Faces() {
		switch len(face) {
		case 3:
			sub[0], sub[1], sub[2], sub[3] = s[face[0]], s[face[1]], s[face[2]], center
			err = sw.crossTetrahedron(m, sub[:4])
		case 4:
			q := [4]Sample{s[face[0]], s[face[1]], s[face[2]], s[face[3]]}
			if !saddle(q, m.iso) {
				sub[0], sub[1], sub[2], sub[3], sub[4] = q[0], q[1], q[2], q[3], center
				err = sw.crossPyramid(m, sub[:5])
				break
			}
			fc, ferr := sw.syntheticCenter(q[:])
			if ferr != nil {
				return ferr
			}
			for i := 0; i < 4 && err == nil; i++ {
				sub[0], sub[1], sub[2], sub[3] = center, fc, q[i], q[(i+1)%4]
				err = sw.crossTetrahedron(m, sub[:4])
			}
		default:
			panic(isosurf.ErrMsg("cell face with unsupported vertex count"))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// saddle reports whether the quad face q has diagonal corners on the same
// side of the iso-value and adjacent corners on opposite sides.
func saddle(q [4]Sample, iso float64) bool {
	o0, o1, o2, o3 := q[0].Value > iso, q[1].Value > iso, q[2].Value > iso, q[3].Value > iso
	return o0 == o2 && o1 == o3 && o0 != o1
}

// syntheticCenter returns an exact sample at the centroid of samples s.
// Centroids of lattice points are computed from integer index sums so the
// same set of points always yields bit-identical coordinates regardless of
// order. Scalar evaluations are memoized for the whole sweep.
func (sw *sweeper) syntheticCenter(s []Sample) (Sample, error) {
	var xi r3.Vec
	allLattice := true
	for i := range s {
		if s[i].Loc.IsExact() {
			allLattice = false
			break
		}
	}
	if allLattice {
		var sum isosurf.V3i
		for i := range s {
			sum = sum.Add(s[i].Loc.Lattice())
		}
		n := len(s)
		xi = r3.Vec{
			X: float64(sum[0]) / float64(n*sw.div[0]),
			Y: float64(sum[1]) / float64(n*sw.div[1]),
			Z: float64(sum[2]) / float64(n*sw.div[2]),
		}
	} else {
		sorted := make([]Sample, len(s))
		copy(sorted, s)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Loc.Less(sorted[j].Loc) })
		for i := range sorted {
			xi = r3.Add(xi, sorted[i].Xi)
		}
		xi = r3.Scale(1/float64(len(s)), xi)
	}
	if v, ok := sw.synthetic[xi]; ok {
		return exactSample(xi, v), nil
	}
	v, err := sw.ev.Scalar(xi)
	if err != nil {
		return Sample{}, &isosurf.EvalError{Field: "scalar", Xi: xi, Err: err}
	}
	sw.synthetic[xi] = v
	sw.stats.synthetic++
	return exactSample(xi, v), nil
}
