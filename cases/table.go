// Package cases builds the marching case tables of the cell topologies
// used by the iso-surface crossers.
//
// A table maps every over/under-threshold signature of a cell's vertices
// to a canonical case, the rotation carrying the canonical case onto the
// signature and whether the signature is the canonical case's complement.
// Tables are derived by rotating canonical cases rather than transcribed,
// are built once per process and are safe for concurrent reads.
package cases

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrCaseTable is wrapped by errors reporting an inconsistent case table.
// It must never be returned for a correctly built table.
var ErrCaseTable = errors.New("case table invariant violated")

// ErrUnknownTopology is returned when no case table exists for a topology.
var ErrUnknownTopology = errors.New("no case table for topology")

func errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrCaseTable}, args...)...)
}

// None is the case identifier of signatures without a crossing.
const None = 0

// Edge is an edge between two vertex slots of a cell, lower slot first.
type Edge [2]uint8

func makeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{uint8(a), uint8(b)}
}

// Case is a canonical crossing configuration of a topology.
type Case struct {
	ID int
	// Pattern is the canonical signature, bit i set when vertex i is over the iso-value.
	Pattern uint
	// Polygons are the crossing polygons of Pattern as loops of crossing
	// edges. Loops are wound so that their normal points from the
	// under-threshold side towards the over-threshold side.
	// Ambiguous cases carry no polygons.
	Polygons [][]Edge
	// Ambiguous is set when a quad face is a saddle (all four of its
	// edges cross) or the crossing splits into more than one loop. Such
	// cases are resolved by sampling the cell interior.
	Ambiguous bool
}

// Entry is the table entry of one signature.
type Entry struct {
	// Case is the canonical case identifier, None for no crossing.
	Case int
	// Perm maps canonical vertex slot i onto the actual cell vertex Perm[i].
	Perm []int
	// Inverse is set when the signature is the complement of the canonical
	// pattern, which reverses the winding of emitted polygons.
	Inverse bool
}

// Apply returns the signature obtained by carrying pattern through the
// entry's rotation.
func (e Entry) Apply(pattern uint) uint {
	var sig uint
	for i, v := range e.Perm {
		if pattern&(1<<uint(i)) != 0 {
			sig |= 1 << uint(v)
		}
	}
	return sig
}

// Table is the case table of one topology. It is immutable once built.
type Table struct {
	topo      Topology
	nverts    int
	faces     [][]int
	rotations [][]int
	entries   []Entry
	cases     []Case
	// orientation frame: four non coplanar vertices and the sign of the
	// triple product of their edges in the reference cell.
	frame     [4]int
	frameSign float64
}

var (
	buildOnce [numTopologies]sync.Once
	tables    [numTopologies]*Table
	buildErr  [numTopologies]error
)

// For returns the case table of topology t, building it on first use.
func For(t Topology) (*Table, error) {
	if t >= numTopologies {
		return nil, fmt.Errorf("%w %d", ErrUnknownTopology, t)
	}
	buildOnce[t].Do(func() {
		tables[t], buildErr[t] = build(t)
	})
	return tables[t], buildErr[t]
}

func build(t Topology) (*Table, error) {
	def := &topologyDefs[t]
	n := len(def.coords)
	rots, err := def.rotationGroup()
	if err != nil {
		return nil, err
	}
	tb := &Table{
		topo:      t,
		nverts:    n,
		faces:     def.faces,
		rotations: rots,
		entries:   make([]Entry, 1<<uint(n)),
		cases:     []Case{{ID: None}},
	}
	full := uint(1)<<uint(n) - 1
	assigned := make([]bool, len(tb.entries))
	identity := rots[0]
	tb.entries[0] = Entry{Case: None, Perm: identity}
	tb.entries[full] = Entry{Case: None, Perm: identity}
	assigned[0], assigned[full] = true, true

	// Canonical candidates ordered by vertex count then value.
	candidates := make([]uint, 0, full)
	for p := uint(1); p < full; p++ {
		if 2*bits.OnesCount(p) <= n {
			candidates = append(candidates, p)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := bits.OnesCount(candidates[i]), bits.OnesCount(candidates[j])
		if ci != cj {
			return ci < cj
		}
		return candidates[i] < candidates[j]
	})
	for _, p := range candidates {
		if assigned[p] {
			continue
		}
		c := Case{ID: len(tb.cases), Pattern: p}
		for _, inverse := range [2]bool{false, true} {
			for _, rot := range rots {
				e := Entry{Case: c.ID, Perm: rot, Inverse: inverse}
				sig := e.Apply(p)
				if inverse {
					sig = ^sig & full
				}
				if !assigned[sig] {
					assigned[sig] = true
					tb.entries[sig] = e
				}
			}
		}
		if err := def.deriveTemplate(&c); err != nil {
			return nil, err
		}
		tb.cases = append(tb.cases, c)
	}
	for sig, ok := range assigned {
		if !ok {
			return nil, errorf("%s signature %#b resolved by no canonical case", t, sig)
		}
	}
	if err := tb.setFrame(def.coords); err != nil {
		return nil, err
	}
	return tb, nil
}

// deriveTemplate chains the crossing edges of c.Pattern into loops, face by
// face, and winds each loop from the under side towards the over side.
func (def *topologyDef) deriveTemplate(c *Case) error {
	over := func(v int) bool { return c.Pattern&(1<<uint(v)) != 0 }
	links := make(map[Edge][]Edge)
	for _, face := range def.faces {
		var crossing []Edge
		for i, a := range face {
			b := face[(i+1)%len(face)]
			if over(a) != over(b) {
				crossing = append(crossing, makeEdge(a, b))
			}
		}
		switch len(crossing) {
		case 0:
		case 2:
			links[crossing[0]] = append(links[crossing[0]], crossing[1])
			links[crossing[1]] = append(links[crossing[1]], crossing[0])
		case 4:
			c.Ambiguous = true
		default:
			return errorf("face %v of pattern %#b crossed %d times", face, c.Pattern, len(crossing))
		}
	}
	if c.Ambiguous {
		return nil
	}
	var starts []Edge
	for e, l := range links {
		if len(l) != 2 {
			return errorf("crossing edge %v of pattern %#b has %d neighbours", e, c.Pattern, len(l))
		}
		starts = append(starts, e)
	}
	sort.Slice(starts, func(i, j int) bool {
		if starts[i][0] != starts[j][0] {
			return starts[i][0] < starts[j][0]
		}
		return starts[i][1] < starts[j][1]
	})
	visited := make(map[Edge]bool)
	var loops [][]Edge
	for _, start := range starts {
		if visited[start] {
			continue
		}
		loop := []Edge{start}
		visited[start] = true
		prev, cur := start, links[start][0]
		for cur != start {
			if visited[cur] {
				return errorf("crossing loop of pattern %#b is not simple", c.Pattern)
			}
			visited[cur] = true
			loop = append(loop, cur)
			next := links[cur][0]
			if next == prev {
				next = links[cur][1]
			}
			prev, cur = cur, next
		}
		loops = append(loops, loop)
	}
	if len(loops) > 1 {
		c.Ambiguous = true
		return nil
	}
	for _, loop := range loops {
		if len(loop) < 3 {
			return errorf("crossing loop of pattern %#b has %d edges", c.Pattern, len(loop))
		}
		// Newell area vector of the loop through edge midpoints against
		// the direction from under to over endpoints.
		var area, toOver r3.Vec
		for i, e := range loop {
			p := def.midpoint(e)
			q := def.midpoint(loop[(i+1)%len(loop)])
			area = r3.Add(area, r3.Cross(p, q))
			a, b := int(e[0]), int(e[1])
			if over(a) {
				a, b = b, a
			}
			toOver = r3.Add(toOver, r3.Sub(def.coords[b], def.coords[a]))
		}
		d := r3.Dot(area, toOver)
		if d == 0 {
			return errorf("crossing loop of pattern %#b has no orientation", c.Pattern)
		}
		if d < 0 {
			for i, j := 0, len(loop)-1; i < j; i, j = i+1, j-1 {
				loop[i], loop[j] = loop[j], loop[i]
			}
		}
	}
	c.Polygons = loops
	return nil
}

func (def *topologyDef) midpoint(e Edge) r3.Vec {
	return r3.Scale(0.5, r3.Add(def.coords[e[0]], def.coords[e[1]]))
}

func (tb *Table) setFrame(coords []r3.Vec) error {
	n := len(coords)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			for c := b + 1; c < n; c++ {
				for d := c + 1; d < n; d++ {
					v := TripleProduct(coords[a], coords[b], coords[c], coords[d])
					if v > 1e-9 || v < -1e-9 {
						tb.frame = [4]int{a, b, c, d}
						tb.frameSign = v
						return nil
					}
				}
			}
		}
	}
	return errorf("%s reference cell is flat", tb.topo)
}

// TripleProduct returns (b-a)·((c-a)×(d-a)), six times the signed volume of
// the tetrahedron abcd.
func TripleProduct(a, b, c, d r3.Vec) float64 {
	return r3.Dot(r3.Sub(b, a), r3.Cross(r3.Sub(c, a), r3.Sub(d, a)))
}

// Topology returns the table's topology.
func (tb *Table) Topology() Topology { return tb.topo }

// NumVertices returns the number of cell vertices.
func (tb *Table) NumVertices() int { return tb.nverts }

// Lookup returns the entry of signature sig. Bits above NumVertices are ignored.
func (tb *Table) Lookup(sig uint) Entry {
	return tb.entries[sig&(uint(len(tb.entries))-1)]
}

// Case returns the canonical case with identifier id.
func (tb *Table) Case(id int) *Case {
	return &tb.cases[id]
}

// NumCases returns the number of canonical cases, None included.
func (tb *Table) NumCases() int { return len(tb.cases) }

// Faces returns the cell faces as cyclic vertex loops. The result must not be modified.
func (tb *Table) Faces() [][]int { return tb.faces }

// Rotations returns the rigid rotations of the cell as vertex permutations.
// The result must not be modified.
func (tb *Table) Rotations() [][]int { return tb.rotations }

// Flipped reports whether a cell with vertex positions pos is a mirror
// image of the reference cell, in which case emitted winding must be
// reversed. pos must hold NumVertices positions.
func (tb *Table) Flipped(pos []r3.Vec) bool {
	f := tb.frame
	v := TripleProduct(pos[f[0]], pos[f[1]], pos[f[2]], pos[f[3]])
	return (v < 0) != (tb.frameSign < 0)
}
