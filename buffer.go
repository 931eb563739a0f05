package isosurf

// Attribute is a kind of per-vertex attribute stored in a VertexBuffer.
type Attribute uint8

const (
	AttrPosition Attribute = iota
	AttrNormal
	AttrTexture
	AttrData
	numAttributes
)

// NumAttributes is the number of attribute kinds.
const NumAttributes = int(numAttributes)

func (a Attribute) String() string {
	switch a {
	case AttrPosition:
		return "position"
	case AttrNormal:
		return "normal"
	case AttrTexture:
		return "texture"
	case AttrData:
		return "data"
	}
	return "unknown attribute"
}

// Range is a contiguous run of vertex slots reserved for one element.
// Slots [Start, Start+Used) hold live geometry, the rest of the
// reservation up to Count holds collapsed vertices.
type Range struct {
	Start int
	Count int
	Used  int
}

// VertexBuffer is externally owned storage of triangle-list vertices
// addressable by an element search key. Every appended vertex must receive
// all attribute kinds with a non-zero component count so that attribute
// arrays stay index aligned.
//
// Implementations need not be safe for concurrent use, callers tessellating
// into the same buffer from multiple goroutines must synchronize.
type VertexBuffer interface {
	// FindRanges returns the vertex ranges reserved for key in reservation order.
	// It returns nil if key has no geometry in the buffer.
	FindRanges(key int) []Range
	// SetRanges replaces the ranges recorded for key.
	SetRanges(key int, ranges []Range)
	// UpdateRequired reports whether key's geometry is marked as stale.
	UpdateRequired(key int) bool
	// MarkUpdateRequired sets or clears the stale mark of key.
	MarkUpdateRequired(key int, required bool)
	// Components returns the number of float32 components per vertex stored
	// for attr. An attribute with zero components is not stored.
	Components(attr Attribute) int
	// Append appends one vertex worth of values for attr and returns the
	// index of the vertex.
	Append(attr Attribute, values ...float32) (int, error)
	// ReplaceAt overwrites the values of attr for vertex index.
	ReplaceAt(attr Attribute, index int, values ...float32) error
}
