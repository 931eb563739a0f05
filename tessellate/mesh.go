package tessellate

import (
	"github.com/soypat/isosurf"
	"github.com/soypat/isosurf/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is a point where the iso-surface crosses a cell edge.
// It is never modified after creation.
type Vertex struct {
	Local   r3.Vec
	World   r3.Vec
	Texture r3.Vec
	// Data holds the data field components copied at creation.
	Data []float64
}

// Triangle references three vertices of the mesh that emitted it.
type Triangle [3]*Vertex

// Normal returns the unit facet normal of t following its winding.
func (t Triangle) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t[1].World, t[0].World), r3.Sub(t[2].World, t[0].World))
	if n == (r3.Vec{}) {
		return n
	}
	return r3.Unit(n)
}

// Mesh accumulates the surface of one iso-value over one element: the
// crossing vertices deduplicated by edge and the triangles in emission order.
type Mesh struct {
	iso       float64
	vertices  map[Key]*Vertex
	triangles []Triangle

	ev    isosurf.Evaluator
	tex   isosurf.TextureEvaluator
	data  isosurf.DataEvaluator
	ndata int
}

func newMesh(iso float64, ev isosurf.Evaluator) *Mesh {
	m := &Mesh{
		iso:      iso,
		vertices: make(map[Key]*Vertex),
		ev:       ev,
	}
	m.tex, _ = ev.(isosurf.TextureEvaluator)
	if de, ok := ev.(isosurf.DataEvaluator); ok && de.DataComponents() > 0 {
		m.data = de
		m.ndata = de.DataComponents()
	}
	return m
}

// Iso returns the iso-value of the mesh.
func (m *Mesh) Iso() float64 { return m.iso }

// Triangles returns the emitted triangles in draw order.
// The result must not be modified.
func (m *Mesh) Triangles() []Triangle { return m.triangles }

// NumVertices returns the number of distinct crossing vertices.
func (m *Mesh) NumVertices() int { return len(m.vertices) }

// Bounds returns the world space bounding box of the triangle vertices,
// or the zero box for a mesh without triangles.
func (m *Mesh) Bounds() r3.Box {
	b := d3.EmptyBox()
	for _, t := range m.triangles {
		for _, v := range t {
			b = b.Include(v.World)
		}
	}
	if b.IsEmpty() {
		return r3.Box{}
	}
	return r3.Box(b)
}

// Lookup returns the crossing vertex of edge k if it has been created.
func (m *Mesh) Lookup(k Key) (*Vertex, bool) {
	v, ok := m.vertices[k]
	return v, ok
}

// Vertex returns the crossing vertex on the edge between a and b, creating
// it on first request. The same edge always yields the same *Vertex, which
// is what keeps cells sharing an edge free of cracks.
func (m *Mesh) Vertex(a, b Sample) (*Vertex, error) {
	key := MakeKey(a.Loc, b.Loc)
	if v, ok := m.vertices[key]; ok {
		return v, nil
	}
	// Interpolate from the canonical first endpoint so the result does not
	// depend on traversal direction.
	if key.A != a.Loc {
		a, b = b, a
	}
	r := 0.5
	if den := b.Value - a.Value; den != 0 {
		r = isosurf.Clamp((m.iso-a.Value)/den, 0, 1)
	}
	local := r3.Add(a.Xi, r3.Scale(r, r3.Sub(b.Xi, a.Xi)))
	v := &Vertex{Local: local}
	var err error
	v.World, err = m.ev.Coordinate(local)
	if err != nil {
		return nil, &isosurf.EvalError{Field: "coordinate", Xi: local, Err: err}
	}
	if m.tex != nil {
		v.Texture, err = m.tex.TextureCoordinate(local)
		if err != nil {
			return nil, &isosurf.EvalError{Field: "texture", Xi: local, Err: err}
		}
	}
	if m.data != nil {
		v.Data = make([]float64, m.ndata)
		if err = m.data.Data(v.Data, local); err != nil {
			return nil, &isosurf.EvalError{Field: "data", Xi: local, Err: err}
		}
	}
	m.vertices[key] = v
	return v, nil
}

// addTriangle appends abc, or acb when reverse is set. Triangles with two
// coincident vertices are dropped.
func (m *Mesh) addTriangle(a, b, c *Vertex, reverse bool) {
	if coincident(a, b) || coincident(b, c) || coincident(c, a) {
		return
	}
	if reverse {
		b, c = c, b
	}
	m.triangles = append(m.triangles, Triangle{a, b, c})
}

func coincident(a, b *Vertex) bool {
	return a == b || r3.Norm2(r3.Sub(a.World, b.World)) == 0
}

// addPolygon triangulates a crossing polygon. Quads are split along the
// shorter diagonal, larger polygons are cut along their shortest diagonal
// until only triangles and quads remain.
func (m *Mesh) addPolygon(p []*Vertex, reverse bool) {
	switch len(p) {
	case 0, 1, 2:
		return
	case 3:
		m.addTriangle(p[0], p[1], p[2], reverse)
		return
	case 4:
		if dist2(p[0], p[2]) <= dist2(p[1], p[3]) {
			m.addTriangle(p[0], p[1], p[2], reverse)
			m.addTriangle(p[0], p[2], p[3], reverse)
		} else {
			m.addTriangle(p[0], p[1], p[3], reverse)
			m.addTriangle(p[1], p[2], p[3], reverse)
		}
		return
	}
	n := len(p)
	bi, bj, best := -1, -1, 0.0
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent
			}
			if d := dist2(p[i], p[j]); bi < 0 || d < best {
				bi, bj, best = i, j, d
			}
		}
	}
	first := make([]*Vertex, 0, bj-bi+1)
	first = append(first, p[bi:bj+1]...)
	second := make([]*Vertex, 0, n-(bj-bi)+1)
	second = append(second, p[bj:]...)
	second = append(second, p[:bi+1]...)
	m.addPolygon(first, reverse)
	m.addPolygon(second, reverse)
}

func dist2(a, b *Vertex) float64 {
	return r3.Norm2(r3.Sub(a.World, b.World))
}
