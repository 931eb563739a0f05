package tessellate

import (
	"math"
	"testing"

	"github.com/soypat/isosurf"
	"github.com/soypat/isosurf/field"
	"gonum.org/v1/gonum/spatial/r3"
)

// gyroidBall is the part of a thickened gyroid sheet inside a sphere. The
// sphere keeps the surface closed within the element while the gyroid
// saddles produce ambiguous cells at coarse resolutions.
func gyroidBall(t *testing.T, period float64, center r3.Vec, radius, sign float64) *field.Affine {
	gyroid := field.Gyroid(period)
	sphere := field.Sphere(center, radius)
	ev, err := field.NewAffine(field.AffineParms{
		Axes: [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}},
		Scalar: func(p r3.Vec) float64 {
			return sign * math.Max(gyroid(p)+0.13, sphere(p))
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return ev
}

func sweepIsoZero(t *testing.T, shape isosurf.Shape, ev isosurf.Evaluator, res [3]int) *sweeper {
	div, err := latticeDivisions(shape, res)
	if err != nil {
		t.Fatal(err)
	}
	sw, err := newSweeper(shape, ev, div, []float64{0}, DecomposeCubes)
	if err != nil {
		t.Fatal(err)
	}
	if err = sw.run(); err != nil {
		t.Fatal(err)
	}
	return sw
}

func TestAmbiguousCellsWatertight(t *testing.T) {
	for _, test := range []struct {
		name   string
		shape  isosurf.Shape
		res    [3]int
		period float64
		center r3.Vec
		radius float64
	}{
		{name: "cube", shape: isosurf.ShapeCube, res: [3]int{17, 17, 17}, period: 0.3, center: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, radius: 0.4},
		{name: "wedge", shape: isosurf.ShapeWedge, res: [3]int{21, 21, 21}, period: 0.3, center: r3.Vec{X: 0.29, Y: 0.29, Z: 0.5}, radius: 0.25},
		{name: "tetrahedron", shape: isosurf.ShapeTetrahedron, res: [3]int{21, 21, 21}, period: 0.2, center: r3.Vec{X: 0.2, Y: 0.2, Z: 0.2}, radius: 0.17},
	} {
		pos := sweepIsoZero(t, test.shape, gyroidBall(t, test.period, test.center, test.radius, 1), test.res)
		neg := sweepIsoZero(t, test.shape, gyroidBall(t, test.period, test.center, test.radius, -1), test.res)
		if pos.stats.resolved == 0 {
			t.Fatalf("%s: no ambiguous cell was resolved", test.name)
		}
		if pos.stats.resolved != neg.stats.resolved {
			t.Errorf("%s: resolved %d cells, %d for the negated field", test.name, pos.stats.resolved, neg.stats.resolved)
		}
		for _, sw := range []*sweeper{pos, neg} {
			if bad, total := unmatchedEdges(sw.meshes[0]); bad > 0 {
				t.Errorf("%s: %d of %d directed edges are not matched exactly once", test.name, bad, total)
			}
		}
		mp, mn := pos.meshes[0], neg.meshes[0]
		if mp.NumVertices() != mn.NumVertices() || len(mp.triangles) != len(mn.triangles) {
			t.Errorf("%s: got %d vertices and %d triangles, negated field %d and %d", test.name,
				mp.NumVertices(), len(mp.triangles), mn.NumVertices(), len(mn.triangles))
		}
		vp, vn := meshVolume(mp), meshVolume(mn)
		if vp <= 0 || math.Abs(vp+vn) > 1e-9*vp {
			t.Errorf("%s: got enclosed volumes %g and %g, want opposite", test.name, vp, vn)
		}
	}
}

// unmatchedEdges counts directed triangle edges that do not appear exactly
// once in each direction.
func unmatchedEdges(m *Mesh) (bad, total int) {
	directed := make(map[[2]*Vertex]int)
	for _, tri := range m.triangles {
		for i := range tri {
			directed[[2]*Vertex{tri[i], tri[(i+1)%3]}]++
		}
	}
	for e, n := range directed {
		if n != 1 || directed[[2]*Vertex{e[1], e[0]}] != 1 {
			bad++
		}
	}
	return bad, len(directed)
}

func meshVolume(m *Mesh) float64 {
	var vol float64
	for _, tri := range m.triangles {
		vol += r3.Dot(tri[0].World, r3.Cross(tri[1].World, tri[2].World)) / 6
	}
	return vol
}
