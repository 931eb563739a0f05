package tessellate

import (
	"math"
	"testing"

	"github.com/soypat/isosurf"
	"github.com/soypat/isosurf/field"
	"gonum.org/v1/gonum/spatial/r3"
)

func identityField() isosurf.Evaluator {
	return field.Funcs{ScalarFunc: func(xi r3.Vec) (float64, error) { return xi.X, nil }}
}

func latticeSample(p isosurf.V3i, value float64) Sample {
	return Sample{Loc: LatticeLocation(p), Xi: r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}, Value: value}
}

func TestVertexShared(t *testing.T) {
	m := newMesh(0.25, identityField())
	a := latticeSample(isosurf.V3i{0, 0, 0}, 0)
	b := latticeSample(isosurf.V3i{1, 0, 0}, 1)
	v1, err := m.Vertex(a, b)
	if err != nil {
		t.Fatal(err)
	}
	v2, _ := m.Vertex(b, a)
	if v1 != v2 {
		t.Fatal("edge traversed in opposite directions yields distinct vertices")
	}
	if m.NumVertices() != 1 {
		t.Errorf("got %d vertices", m.NumVertices())
	}
	if math.Abs(v1.Local.X-0.25) > 1e-15 {
		t.Errorf("got crossing at %v, want x=0.25", v1.Local)
	}
	if got, ok := m.Lookup(MakeKey(b.Loc, a.Loc)); !ok || got != v1 {
		t.Error("lookup by reversed key failed")
	}
}

func TestVertexEqualValues(t *testing.T) {
	m := newMesh(0, identityField())
	v, err := m.Vertex(latticeSample(isosurf.V3i{0, 0, 0}, 1), latticeSample(isosurf.V3i{0, 1, 0}, 1))
	if err != nil {
		t.Fatal(err)
	}
	if v.Local != (r3.Vec{Y: 0.5}) {
		t.Errorf("got %v, want edge midpoint", v.Local)
	}
}

func TestAddPolygon(t *testing.T) {
	m := newMesh(0, identityField())
	var hexagon []*Vertex
	for i := 0; i < 6; i++ {
		s, c := math.Sincos(float64(i) * math.Pi / 3)
		hexagon = append(hexagon, &Vertex{World: r3.Vec{X: c, Y: s}})
	}
	m.addPolygon(hexagon, false)
	if len(m.triangles) != 4 {
		t.Fatalf("hexagon split into %d triangles, want 4", len(m.triangles))
	}
	var area float64
	for _, tri := range m.triangles {
		n := r3.Cross(r3.Sub(tri[1].World, tri[0].World), r3.Sub(tri[2].World, tri[0].World))
		if n.Z <= 0 {
			t.Errorf("triangle %v does not keep polygon winding", tri)
		}
		area += n.Z / 2
	}
	want := 3 * math.Sqrt(3) / 2
	if math.Abs(area-want) > 1e-12 {
		t.Errorf("triangulated area %g, want %g", area, want)
	}

	m.triangles = nil
	m.addPolygon(hexagon[:4], true)
	if len(m.triangles) != 2 {
		t.Fatalf("quad split into %d triangles", len(m.triangles))
	}
	for _, tri := range m.triangles {
		if tri.Normal().Z >= 0 {
			t.Errorf("reversed triangle %v keeps winding", tri)
		}
	}
}

func TestDegenerateTriangleDropped(t *testing.T) {
	m := newMesh(0, identityField())
	a := &Vertex{World: r3.Vec{X: 1}}
	b := &Vertex{World: r3.Vec{X: 1}}
	c := &Vertex{World: r3.Vec{Y: 1}}
	m.addTriangle(a, b, c, false)
	m.addTriangle(a, a, c, false)
	if len(m.triangles) != 0 {
		t.Errorf("got %d degenerate triangles", len(m.triangles))
	}
}

func TestMeshBounds(t *testing.T) {
	m := newMesh(0, identityField())
	if m.Bounds() != (r3.Box{}) {
		t.Errorf("empty mesh got bounds %v", m.Bounds())
	}
	m.addTriangle(&Vertex{World: r3.Vec{X: 1, Y: -2}}, &Vertex{World: r3.Vec{X: 3, Z: 4}}, &Vertex{World: r3.Vec{Y: 5, Z: -1}}, false)
	want := r3.Box{Min: r3.Vec{X: 0, Y: -2, Z: -1}, Max: r3.Vec{X: 3, Y: 5, Z: 4}}
	if got := m.Bounds(); got != want {
		t.Errorf("got bounds %v, want %v", got, want)
	}
}

func TestLocationOrder(t *testing.T) {
	lat := LatticeLocation(isosurf.V3i{5, 5, 5})
	exact := ExactLocation(r3.Vec{}, 0)
	if !lat.Less(exact) || exact.Less(lat) {
		t.Error("lattice locations must order before exact locations")
	}
	a := LatticeLocation(isosurf.V3i{0, 1, 2})
	b := LatticeLocation(isosurf.V3i{0, 2, 0})
	if !a.Less(b) || b.Less(a) || a.Less(a) {
		t.Error("lattice locations not ordered lexicographically")
	}
	k1, k2 := MakeKey(a, b), MakeKey(b, a)
	if k1 != k2 || k1.A != a {
		t.Errorf("got keys %v and %v", k1, k2)
	}
	e1 := ExactLocation(r3.Vec{X: 0.5, Y: 0.1}, 1)
	e2 := ExactLocation(r3.Vec{X: 0.5, Y: 0.2}, 1)
	if !e1.Less(e2) {
		t.Error("exact locations not ordered lexicographically")
	}
}

func TestLatticeDivisions(t *testing.T) {
	for _, test := range []struct {
		shape isosurf.Shape
		res   [3]int
		want  [3]int
	}{
		{isosurf.ShapeCube, [3]int{2, 3, 4}, [3]int{1, 2, 3}},
		{isosurf.ShapeTetrahedron, [3]int{2, 5, 3}, [3]int{4, 4, 4}},
		{isosurf.ShapeWedge, [3]int{3, 5, 2}, [3]int{4, 4, 1}},
	} {
		got, err := latticeDivisions(test.shape, test.res)
		if err != nil {
			t.Fatal(err)
		}
		if got != test.want {
			t.Errorf("%s %v: got divisions %v, want %v", test.shape, test.res, got, test.want)
		}
	}
}

func TestSyntheticCenterShared(t *testing.T) {
	sw, err := newSweeper(isosurf.ShapeCube, identityField(), [3]int{3, 3, 3}, []float64{0}, DecomposeCubes)
	if err != nil {
		t.Fatal(err)
	}
	face := []Sample{
		latticeSample(isosurf.V3i{1, 0, 0}, 0),
		latticeSample(isosurf.V3i{1, 1, 0}, 0),
		latticeSample(isosurf.V3i{1, 1, 1}, 0),
		latticeSample(isosurf.V3i{1, 0, 1}, 0),
	}
	c1, err := sw.syntheticCenter(face)
	if err != nil {
		t.Fatal(err)
	}
	reordered := []Sample{face[2], face[0], face[3], face[1]}
	c2, _ := sw.syntheticCenter(reordered)
	if c1.Loc != c2.Loc || c1.Xi != c2.Xi {
		t.Errorf("face centre depends on vertex order: %v and %v", c1.Xi, c2.Xi)
	}
	want := r3.Vec{X: 1. / 3, Y: 1. / 6, Z: 1. / 6}
	if c1.Xi != want {
		t.Errorf("got face centre %v, want %v", c1.Xi, want)
	}
	if sw.stats.synthetic != 1 {
		t.Errorf("got %d scalar evaluations for one centre", sw.stats.synthetic)
	}
}
