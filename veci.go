/*

Integer 3D lattice vectors

*/

package isosurf

// V3i is a 3D integer vector, used to address points of an element's
// sampling lattice.
type V3i [3]int

// Add adds two vectors. Return v = a + b.
func (a V3i) Add(b V3i) V3i {
	return V3i{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sum returns the sum of the components.
func (a V3i) Sum() int { return a[0] + a[1] + a[2] }

// Less orders lattice vectors lexicographically.
func (a V3i) Less(b V3i) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	if a[1] != b[1] {
		return a[1] < b[1]
	}
	return a[2] < b[2]
}
