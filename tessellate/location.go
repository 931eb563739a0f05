package tessellate

import (
	"github.com/soypat/isosurf"
	"gonum.org/v1/gonum/spatial/r3"
)

// Location addresses a sample of the scalar field, either a point of the
// element's sampling lattice or an exact local coordinate introduced to
// resolve an ambiguous cell. Locations are comparable and may be used as
// map keys.
type Location struct {
	exact   bool
	lattice isosurf.V3i
	xi      r3.Vec
	value   float64
}

// LatticeLocation returns the location of lattice point p.
func LatticeLocation(p isosurf.V3i) Location {
	return Location{lattice: p}
}

// ExactLocation returns a synthetic location at local coordinate xi
// where the scalar field evaluates to value.
func ExactLocation(xi r3.Vec, value float64) Location {
	return Location{exact: true, xi: xi, value: value}
}

// IsExact reports whether l is a synthetic exact-coordinate location.
func (l Location) IsExact() bool { return l.exact }

// Lattice returns the lattice indices of a lattice location.
func (l Location) Lattice() isosurf.V3i { return l.lattice }

// Xi returns the local coordinate of an exact location.
func (l Location) Xi() r3.Vec { return l.xi }

// Less reports whether l orders before m. Lattice locations order before
// exact locations, each kind is ordered lexicographically.
func (l Location) Less(m Location) bool {
	if l.exact != m.exact {
		return !l.exact
	}
	if !l.exact {
		return l.lattice.Less(m.lattice)
	}
	if l.xi.X != m.xi.X {
		return l.xi.X < m.xi.X
	}
	if l.xi.Y != m.xi.Y {
		return l.xi.Y < m.xi.Y
	}
	return l.xi.Z < m.xi.Z
}

// Key identifies a cell edge by its unordered pair of end locations.
// The lower location is always stored first so that an edge traversed in
// either direction yields the same key.
type Key struct {
	A, B Location
}

// MakeKey returns the canonical key of the edge between a and b.
func MakeKey(a, b Location) Key {
	if b.Less(a) {
		a, b = b, a
	}
	return Key{A: a, B: b}
}

// Sample is a location with its local coordinate and scalar value resolved.
type Sample struct {
	Loc   Location
	Xi    r3.Vec
	Value float64
}

func exactSample(xi r3.Vec, value float64) Sample {
	return Sample{Loc: ExactLocation(xi, value), Xi: xi, Value: value}
}
