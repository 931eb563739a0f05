package tessellate

import (
	"fmt"

	"github.com/soypat/isosurf"
	"github.com/soypat/isosurf/cases"
	"gonum.org/v1/gonum/spatial/r3"
)

// Decomposition selects how lattice cubes of a ShapeCube element are crossed.
type Decomposition int

const (
	// DecomposeCubes crosses every lattice cube with the cube case table.
	DecomposeCubes Decomposition = iota
	// DecomposeTetrahedra splits every lattice cube into six tetrahedra
	// around its main diagonal (marching tetrahedra).
	DecomposeTetrahedra
)

type sweepState int

const (
	stateIdle sweepState = iota
	stateSampling
	stateCrossing
	stateDone
)

func (s sweepState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateSampling:
		return "sampling"
	case stateCrossing:
		return "crossing"
	case stateDone:
		return "done"
	}
	return "unknown"
}

type sweepStats struct {
	samples   int
	cells     int
	polygons  int
	resolved  int
	synthetic int
}

// sweeper walks the sampling lattice of one element plane by plane along
// the third local axis, keeping two planes of scalar samples resident.
type sweeper struct {
	state  sweepState
	shape  isosurf.Shape
	ev     isosurf.Evaluator
	decomp Decomposition
	// div is the number of lattice cells along each local axis.
	div    [3]int
	meshes []*Mesh
	tables [5]*cases.Table

	leftHanded bool
	// planes holds the scalar samples of lattice planes k (index k&1).
	planes    [2][]float64
	synthetic map[r3.Vec]float64
	stats     sweepStats
}

// latticeDivisions returns the number of cells per axis for a shape given
// the requested number of samples per axis. Simplex axes share the largest
// of their requested resolutions.
func latticeDivisions(shape isosurf.Shape, res [3]int) ([3]int, error) {
	for _, r := range res {
		if r <= 0 {
			return [3]int{}, fmt.Errorf("%w: got %v", isosurf.ErrBadResolution, res)
		}
	}
	div := [3]int{res[0] - 1, res[1] - 1, res[2] - 1}
	switch shape {
	case isosurf.ShapeCube:
	case isosurf.ShapeTetrahedron:
		n := max(div[0], max(div[1], div[2]))
		div = [3]int{n, n, n}
	case isosurf.ShapeWedge:
		n := max(div[0], div[1])
		div[0], div[1] = n, n
	default:
		return [3]int{}, fmt.Errorf("%w: %v", isosurf.ErrUnknownShape, shape)
	}
	return div, nil
}

func newSweeper(shape isosurf.Shape, ev isosurf.Evaluator, div [3]int, isos []float64, decomp Decomposition) (*sweeper, error) {
	sw := &sweeper{
		shape:     shape,
		ev:        ev,
		decomp:    decomp,
		div:       div,
		synthetic: make(map[r3.Vec]float64),
	}
	for _, topo := range cases.Topologies {
		tb, err := cases.For(topo)
		if err != nil {
			return nil, err
		}
		sw.tables[topo] = tb
	}
	for _, iso := range isos {
		sw.meshes = append(sw.meshes, newMesh(iso, ev))
	}
	planeSize := (div[0] + 1) * (div[1] + 1)
	sw.planes[0] = make([]float64, planeSize)
	sw.planes[1] = make([]float64, planeSize)
	return sw, nil
}

func (sw *sweeper) run() (err error) {
	defer func() {
		if err == nil {
			sw.state = stateDone
		}
	}()
	sw.leftHanded, err = leftHanded(sw.ev, sw.shape)
	if err != nil {
		return err
	}
	for k := 0; k <= sw.div[2]; k++ {
		sw.state = stateSampling
		if err = sw.samplePlane(k); err != nil {
			return err
		}
		if k == 0 {
			continue
		}
		sw.state = stateCrossing
		for j := 0; j < sw.div[1]; j++ {
			for i := 0; i < sw.div[0]; i++ {
				if err = sw.crossLatticeCell(isosurf.V3i{i, j, k - 1}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// inDomain reports whether lattice point p lies in the element's domain.
func (sw *sweeper) inDomain(p isosurf.V3i) bool {
	switch sw.shape {
	case isosurf.ShapeTetrahedron:
		return p.Sum() <= sw.div[0]
	case isosurf.ShapeWedge:
		return p[0]+p[1] <= sw.div[0]
	}
	return true
}

func (sw *sweeper) latticeXi(p isosurf.V3i) r3.Vec {
	var xi r3.Vec
	if sw.div[0] > 0 {
		xi.X = float64(p[0]) / float64(sw.div[0])
	}
	if sw.div[1] > 0 {
		xi.Y = float64(p[1]) / float64(sw.div[1])
	}
	if sw.div[2] > 0 {
		xi.Z = float64(p[2]) / float64(sw.div[2])
	}
	return xi
}

func (sw *sweeper) samplePlane(k int) error {
	plane := sw.planes[k&1]
	nx := sw.div[0] + 1
	for j := 0; j <= sw.div[1]; j++ {
		for i := 0; i <= sw.div[0]; i++ {
			p := isosurf.V3i{i, j, k}
			if !sw.inDomain(p) {
				continue
			}
			xi := sw.latticeXi(p)
			v, err := sw.ev.Scalar(xi)
			if err != nil {
				return &isosurf.EvalError{Field: "scalar", Xi: xi, Err: err}
			}
			plane[i+j*nx] = v
			sw.stats.samples++
		}
	}
	return nil
}

// sample returns the resident sample at lattice point p.
func (sw *sweeper) sample(p isosurf.V3i) Sample {
	nx := sw.div[0] + 1
	return Sample{
		Loc:   LatticeLocation(p),
		Xi:    sw.latticeXi(p),
		Value: sw.planes[p[2]&1][p[0]+p[1]*nx],
	}
}

// Lattice cube corners are numbered v = x + 2y + 4z.
var (
	// Sub-cells of a lattice cube cut by the planes ξ1+ξ2+ξ3 = s+1, s+2.
	simplexCorner = [4]int{0, 1, 2, 4}
	simplexMiddle = [6]int{1, 6, 2, 5, 4, 3}
	simplexTop    = [4]int{3, 5, 6, 7}
	// Sub-cells of a lattice cube cut by the plane ξ1+ξ2 = s+1.
	wedgeLower = [6]int{0, 1, 2, 4, 5, 6}
	wedgeUpper = [6]int{1, 3, 2, 5, 7, 6}
	// Six tetrahedra sharing the 0-7 diagonal.
	kuhnTetrahedra = [6][4]int{
		{0, 1, 3, 7}, {0, 1, 5, 7},
		{0, 2, 3, 7}, {0, 2, 6, 7},
		{0, 4, 5, 7}, {0, 4, 6, 7},
	}
)

func (sw *sweeper) crossLatticeCell(origin isosurf.V3i) error {
	var corners [8]Sample
	for v := range corners {
		p := origin.Add(isosurf.V3i{v & 1, v >> 1 & 1, v >> 2 & 1})
		if sw.inDomain(p) {
			corners[v] = sw.sample(p)
		}
	}
	var sub [8]Sample
	pick := func(idx []int) []Sample {
		for i, v := range idx {
			sub[i] = corners[v]
		}
		return sub[:len(idx)]
	}
	for _, m := range sw.meshes {
		var err error
		switch sw.shape {
		case isosurf.ShapeCube:
			if sw.decomp == DecomposeTetrahedra {
				for i := 0; i < len(kuhnTetrahedra) && err == nil; i++ {
					err = sw.crossTetrahedron(m, pick(kuhnTetrahedra[i][:]))
				}
			} else {
				err = sw.crossCube(m, corners[:])
			}
		case isosurf.ShapeTetrahedron:
			s := origin.Sum()
			n := sw.div[0]
			if s+1 <= n {
				err = sw.crossTetrahedron(m, pick(simplexCorner[:]))
			}
			if err == nil && s+2 <= n {
				err = sw.crossOctahedron(m, pick(simplexMiddle[:]))
			}
			if err == nil && s+3 <= n {
				err = sw.crossTetrahedron(m, pick(simplexTop[:]))
			}
		case isosurf.ShapeWedge:
			s := origin[0] + origin[1]
			n := sw.div[0]
			if s+1 <= n {
				err = sw.crossWedge(m, pick(wedgeLower[:]))
			}
			if err == nil && s+2 <= n {
				err = sw.crossWedge(m, pick(wedgeUpper[:]))
			}
		}
		if err != nil {
			return err
		}
	}
	sw.stats.cells++
	return nil
}

// leftHanded reports whether the element's local axes map onto a left
// handed frame in world space, judged by the sign of the triple product of
// the coordinate field derivatives at the element centroid.
func leftHanded(ev isosurf.Evaluator, shape isosurf.Shape) (bool, error) {
	c := shape.Centroid()
	var d [3]r3.Vec
	if de, ok := ev.(isosurf.DerivativeEvaluator); ok {
		var err error
		d, err = de.CoordinateDerivatives(c)
		if err != nil {
			return false, &isosurf.EvalError{Field: "coordinate derivative", Xi: c, Err: err}
		}
	} else {
		const h = 1e-4
		axes := [3]r3.Vec{{X: h}, {Y: h}, {Z: h}}
		for i, ax := range axes {
			xp, xm := r3.Add(c, ax), r3.Sub(c, ax)
			p, err := ev.Coordinate(xp)
			if err != nil {
				return false, &isosurf.EvalError{Field: "coordinate", Xi: xp, Err: err}
			}
			q, err := ev.Coordinate(xm)
			if err != nil {
				return false, &isosurf.EvalError{Field: "coordinate", Xi: xm, Err: err}
			}
			d[i] = r3.Sub(p, q)
		}
	}
	det := r3.Dot(d[0], r3.Cross(d[1], d[2]))
	if det == 0 {
		isosurf.Logger().Warn("degenerate element coordinate derivatives, assuming right handed")
	}
	return det < 0, nil
}
