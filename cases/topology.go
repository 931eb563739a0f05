package cases

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"
)

// Topology identifies a cell shape handled by the crossers.
type Topology uint8

const (
	Cube Topology = iota
	Tetrahedron
	Pyramid
	Wedge
	Octahedron
	numTopologies
)

// Topologies lists every topology with a case table.
var Topologies = [...]Topology{Cube, Tetrahedron, Pyramid, Wedge, Octahedron}

func (t Topology) String() string {
	switch t {
	case Cube:
		return "cube"
	case Tetrahedron:
		return "tetrahedron"
	case Pyramid:
		return "pyramid"
	case Wedge:
		return "wedge"
	case Octahedron:
		return "octahedron"
	}
	return "Topology(" + strconv.Itoa(int(t)) + ")"
}

// NumVertices returns the number of vertices of a cell of topology t
// or 0 if t is not a known topology.
func (t Topology) NumVertices() int {
	if t >= numTopologies {
		return 0
	}
	return len(topologyDefs[t].coords)
}

// topologyDef describes a reference cell. Vertex numbering conventions:
//
//	Cube:        vertex v at (v&1, v>>1&1, v>>2&1) on the unit lattice cell.
//	Tetrahedron: any 4 vertices.
//	Pyramid:     base 0,1,2,3 in cyclic order, apex 4.
//	Wedge:       triangle 0,1,2 and triangle 3,4,5 with i+3 opposite i.
//	Octahedron:  vertex pairs (0,1), (2,3), (4,5) are opposite.
type topologyDef struct {
	coords []r3.Vec
	// faces lists every face as a cyclic vertex loop.
	faces [][]int
	// generators of the rigid rotation group of the cell.
	generators []func(r3.Vec) r3.Vec
}

const sqrt3_2 = 0.8660254037844386

func rotZ90(v r3.Vec) r3.Vec  { return r3.Vec{X: -v.Y, Y: v.X, Z: v.Z} }
func rotX90(v r3.Vec) r3.Vec  { return r3.Vec{X: v.X, Y: -v.Z, Z: v.Y} }
func rotZ180(v r3.Vec) r3.Vec { return r3.Vec{X: -v.X, Y: -v.Y, Z: v.Z} }
func rotX180(v r3.Vec) r3.Vec { return r3.Vec{X: v.X, Y: -v.Y, Z: -v.Z} }

// rotDiag120 rotates about the (1,1,1) axis.
func rotDiag120(v r3.Vec) r3.Vec { return r3.Vec{X: v.Z, Y: v.X, Z: v.Y} }

func rotZ120(v r3.Vec) r3.Vec {
	return r3.Vec{X: -0.5*v.X - sqrt3_2*v.Y, Y: sqrt3_2*v.X - 0.5*v.Y, Z: v.Z}
}

var topologyDefs = [numTopologies]topologyDef{
	Cube: {
		coords: cubeCoords(),
		faces: [][]int{
			{0, 2, 6, 4}, {1, 3, 7, 5},
			{0, 1, 5, 4}, {2, 3, 7, 6},
			{0, 1, 3, 2}, {4, 5, 7, 6},
		},
		generators: []func(r3.Vec) r3.Vec{rotZ90, rotX90},
	},
	Tetrahedron: {
		coords: []r3.Vec{{X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1}},
		faces:  [][]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}},
		generators: []func(r3.Vec) r3.Vec{rotDiag120, rotZ180},
	},
	Pyramid: {
		coords: []r3.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}, {Z: 1}},
		faces: [][]int{
			{0, 1, 2, 3},
			{0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4},
		},
		generators: []func(r3.Vec) r3.Vec{rotZ90},
	},
	Wedge: {
		coords: []r3.Vec{
			{X: 1, Z: -1}, {X: -0.5, Y: sqrt3_2, Z: -1}, {X: -0.5, Y: -sqrt3_2, Z: -1},
			{X: 1, Z: 1}, {X: -0.5, Y: sqrt3_2, Z: 1}, {X: -0.5, Y: -sqrt3_2, Z: 1},
		},
		faces: [][]int{
			{0, 1, 2}, {3, 4, 5},
			{0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5},
		},
		generators: []func(r3.Vec) r3.Vec{rotZ120, rotX180},
	},
	Octahedron: {
		coords: []r3.Vec{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}, {Z: -1}, {Z: 1}},
		faces: [][]int{
			{0, 2, 4}, {0, 2, 5}, {0, 3, 4}, {0, 3, 5},
			{1, 2, 4}, {1, 2, 5}, {1, 3, 4}, {1, 3, 5},
		},
		generators: []func(r3.Vec) r3.Vec{rotZ90, rotX90},
	},
}

func cubeCoords() []r3.Vec {
	c := make([]r3.Vec, 8)
	for v := range c {
		c[v] = r3.Vec{
			X: float64(2*(v&1) - 1),
			Y: float64(2*(v>>1&1) - 1),
			Z: float64(2*(v>>2&1) - 1),
		}
	}
	return c
}

// rotationGroup returns the closure of the generator rotations as vertex
// permutations. rot[i] is the vertex vertex i is carried onto.
// The identity is always the first element.
func (def *topologyDef) rotationGroup() ([][]int, error) {
	n := len(def.coords)
	gens := make([][]int, len(def.generators))
	for ig, g := range def.generators {
		perm := make([]int, n)
		for i, c := range def.coords {
			j := def.vertexAt(g(c))
			if j < 0 {
				return nil, errorf("generator %d does not map vertex %d onto a vertex", ig, i)
			}
			perm[i] = j
		}
		gens[ig] = perm
	}
	identity := make([]int, n)
	for i := range identity {
		identity[i] = i
	}
	group := [][]int{identity}
	seen := map[string]bool{permKey(identity): true}
	for next := 0; next < len(group); next++ {
		p := group[next]
		for _, g := range gens {
			q := make([]int, n)
			for i := range q {
				q[i] = g[p[i]]
			}
			k := permKey(q)
			if !seen[k] {
				seen[k] = true
				group = append(group, q)
			}
		}
	}
	return group, nil
}

func (def *topologyDef) vertexAt(p r3.Vec) int {
	const tol = 1e-9
	for i, c := range def.coords {
		if math.Abs(c.X-p.X) < tol && math.Abs(c.Y-p.Y) < tol && math.Abs(c.Z-p.Z) < tol {
			return i
		}
	}
	return -1
}

func permKey(p []int) string {
	b := make([]byte, len(p))
	for i, v := range p {
		b[i] = byte(v)
	}
	return string(b)
}
