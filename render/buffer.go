// Package render stores tessellated element geometry in memory and exports
// it as STL files, preview images and a nearest facet index.
package render

import (
	"errors"
	"fmt"
	"sort"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/isosurf"
)

var _ isosurf.VertexBuffer = (*Buffer)(nil)

// ErrComponents is returned when the number of values written for an
// attribute does not match the buffer's component count.
var ErrComponents = errors.New("attribute component count mismatch")

// Buffer is an in-memory isosurf.VertexBuffer holding a flat triangle list
// per element key. Positions and normals always have 3 components.
// It is not safe for concurrent use.
type Buffer struct {
	comps  [isosurf.NumAttributes]int
	attrs  [isosurf.NumAttributes][]float32
	ranges map[int][]isosurf.Range
	stale  map[int]bool
}

// NewBuffer returns an empty buffer storing texture coordinates with up to 3
// components and dataComponents data values per vertex. Zero disables the
// attribute.
func NewBuffer(textureComponents, dataComponents int) *Buffer {
	if textureComponents < 0 || textureComponents > 3 {
		panic("texture components must be in 0..3")
	}
	if dataComponents < 0 {
		panic("negative data components")
	}
	b := &Buffer{
		ranges: make(map[int][]isosurf.Range),
		stale:  make(map[int]bool),
	}
	b.comps[isosurf.AttrPosition] = 3
	b.comps[isosurf.AttrNormal] = 3
	b.comps[isosurf.AttrTexture] = textureComponents
	b.comps[isosurf.AttrData] = dataComponents
	return b
}

// FindRanges returns a copy of the ranges reserved for key.
func (b *Buffer) FindRanges(key int) []isosurf.Range {
	r := b.ranges[key]
	if len(r) == 0 {
		return nil
	}
	return append([]isosurf.Range(nil), r...)
}

// SetRanges replaces the ranges of key. An empty list removes the key.
func (b *Buffer) SetRanges(key int, ranges []isosurf.Range) {
	if len(ranges) == 0 {
		delete(b.ranges, key)
		return
	}
	b.ranges[key] = append([]isosurf.Range(nil), ranges...)
}

// UpdateRequired reports whether key is marked stale.
func (b *Buffer) UpdateRequired(key int) bool { return b.stale[key] }

// MarkUpdateRequired marks or unmarks key as stale.
func (b *Buffer) MarkUpdateRequired(key int, required bool) {
	if required {
		b.stale[key] = true
	} else {
		delete(b.stale, key)
	}
}

// Components returns the number of components stored for attr.
func (b *Buffer) Components(attr isosurf.Attribute) int {
	if int(attr) >= isosurf.NumAttributes {
		return 0
	}
	return b.comps[attr]
}

// Append appends the values of one vertex for attr.
func (b *Buffer) Append(attr isosurf.Attribute, values ...float32) (int, error) {
	if err := b.check(attr, values); err != nil {
		return -1, err
	}
	n := b.comps[attr]
	b.attrs[attr] = append(b.attrs[attr], values...)
	return len(b.attrs[attr])/n - 1, nil
}

// ReplaceAt overwrites the values of vertex index for attr.
func (b *Buffer) ReplaceAt(attr isosurf.Attribute, index int, values ...float32) error {
	if err := b.check(attr, values); err != nil {
		return err
	}
	n := b.comps[attr]
	if index < 0 || (index+1)*n > len(b.attrs[attr]) {
		return fmt.Errorf("%s vertex index %d out of range [0,%d)", attr, index, len(b.attrs[attr])/n)
	}
	copy(b.attrs[attr][index*n:], values)
	return nil
}

func (b *Buffer) check(attr isosurf.Attribute, values []float32) error {
	if int(attr) >= isosurf.NumAttributes || b.comps[attr] == 0 {
		return fmt.Errorf("%s attribute not stored", attr)
	}
	if len(values) != b.comps[attr] {
		return fmt.Errorf("%w: %s got %d values, want %d", ErrComponents, attr, len(values), b.comps[attr])
	}
	return nil
}

// Len returns the number of vertex slots in the buffer, live or collapsed.
func (b *Buffer) Len() int {
	return len(b.attrs[isosurf.AttrPosition]) / 3
}

// Attribute returns the values of attr for vertex index. The result aliases
// the buffer's storage and must not be modified.
func (b *Buffer) Attribute(attr isosurf.Attribute, index int) []float32 {
	n := b.comps[attr]
	if n == 0 {
		return nil
	}
	return b.attrs[attr][index*n : (index+1)*n]
}

// Keys returns the keys holding geometry in increasing order.
func (b *Buffer) Keys() []int {
	keys := make([]int, 0, len(b.ranges))
	for k := range b.ranges {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Triangles returns the live triangles of key in draw order.
func (b *Buffer) Triangles(key int) []ms3.Triangle {
	var tris []ms3.Triangle
	for _, r := range b.ranges[key] {
		for i := r.Start; i+2 < r.Start+r.Used; i += 3 {
			tris = append(tris, ms3.Triangle{b.position(i), b.position(i + 1), b.position(i + 2)})
		}
	}
	return tris
}

// AllTriangles returns the live triangles of every key, keys in increasing order.
func (b *Buffer) AllTriangles() []ms3.Triangle {
	var tris []ms3.Triangle
	for _, k := range b.Keys() {
		tris = append(tris, b.Triangles(k)...)
	}
	return tris
}

func (b *Buffer) position(i int) ms3.Vec {
	p := b.attrs[isosurf.AttrPosition][3*i : 3*i+3]
	return ms3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

// Reset empties the buffer keeping its attribute layout.
func (b *Buffer) Reset() {
	for i := range b.attrs {
		b.attrs[i] = b.attrs[i][:0]
	}
	b.ranges = make(map[int][]isosurf.Range)
	b.stale = make(map[int]bool)
}
