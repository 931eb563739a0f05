package tessellate

import (
	"errors"
	"fmt"

	"github.com/soypat/isosurf"
	"gonum.org/v1/gonum/spatial/r3"
)

var errPositionComponents = errors.New("vertex buffer must store 3 position components")

// WriteMeshes writes the triangles of meshes into buf as a flat triangle
// list under key. Every vertex carries the facet normal of its triangle.
//
// If key has no geometry in buf the vertices are appended as a new range.
// Otherwise the existing ranges are overwritten in order, leftover reserved
// slots are collapsed and only vertices that do not fit the reservation are
// appended as an additional range. The update mark of key is cleared.
// When reverse is set triangle winding and normals are flipped.
//
// The position layout is checked before the first write. If the buffer
// rejects a write afterwards the vertices of key may be partially
// replaced; key is then left marked as requiring an update.
//
// The meshes are not modified.
func WriteMeshes(buf isosurf.VertexBuffer, key int, meshes []*Mesh, reverse bool) (err error) {
	if buf.Components(isosurf.AttrPosition) != 3 {
		return errPositionComponents
	}
	defer func() {
		if err != nil {
			buf.MarkUpdateRequired(key, true)
		}
	}()
	w := vertexWriter{buf: buf}
	for attr := range w.comps {
		w.comps[attr] = buf.Components(isosurf.Attribute(attr))
	}
	for _, m := range meshes {
		for _, t := range m.triangles {
			if reverse {
				t[1], t[2] = t[2], t[1]
			}
			w.tris = append(w.tris, t)
		}
	}
	nverts := 3 * len(w.tris)
	old := buf.FindRanges(key)
	var ranges []isosurf.Range
	written := 0
	for _, rg := range old {
		n := min(rg.Count, nverts-written)
		for i := 0; i < n; i++ {
			if err := w.putVertex(written+i, rg.Start+i); err != nil {
				return fmt.Errorf("replacing vertex %d of element %d: %w", rg.Start+i, key, err)
			}
		}
		for i := n; i < rg.Used; i++ {
			if err := w.collapse(rg.Start + i); err != nil {
				return fmt.Errorf("collapsing vertex %d of element %d: %w", rg.Start+i, key, err)
			}
		}
		written += n
		ranges = append(ranges, isosurf.Range{Start: rg.Start, Count: rg.Count, Used: n})
	}
	if excess := nverts - written; excess > 0 {
		start := -1
		for i := 0; i < excess; i++ {
			idx, err := w.appendVertex(written + i)
			if err != nil {
				return fmt.Errorf("appending vertex of element %d: %w", key, err)
			}
			if start < 0 {
				start = idx
			}
		}
		ranges = append(ranges, isosurf.Range{Start: start, Count: excess, Used: excess})
	}
	if len(ranges) > 0 {
		buf.SetRanges(key, ranges)
	}
	buf.MarkUpdateRequired(key, false)
	isosurf.Logger().Debug("element geometry written", "key", key, "vertices", nverts, "ranges", len(ranges), "replaced", len(old) > 0)
	return nil
}

type vertexWriter struct {
	buf     isosurf.VertexBuffer
	comps   [isosurf.NumAttributes]int
	tris    []Triangle
	scratch [isosurf.NumAttributes][]float32
}

// values fills the attribute values of the n'th vertex of the triangle list.
func (w *vertexWriter) values(n int) {
	t := w.tris[n/3]
	v := t[n%3]
	nrm := t.Normal()
	for attr := range w.scratch {
		w.scratch[attr] = w.scratch[attr][:0]
	}
	w.scratch[isosurf.AttrPosition] = appendVec(w.scratch[isosurf.AttrPosition], v.World, 3)
	w.scratch[isosurf.AttrNormal] = appendVec(w.scratch[isosurf.AttrNormal], nrm, w.comps[isosurf.AttrNormal])
	w.scratch[isosurf.AttrTexture] = appendVec(w.scratch[isosurf.AttrTexture], v.Texture, w.comps[isosurf.AttrTexture])
	data := w.scratch[isosurf.AttrData]
	for i := 0; i < w.comps[isosurf.AttrData]; i++ {
		var f float32
		if i < len(v.Data) {
			f = float32(v.Data[i])
		}
		data = append(data, f)
	}
	w.scratch[isosurf.AttrData] = data
}

func (w *vertexWriter) putVertex(n, index int) error {
	w.values(n)
	for attr, vals := range w.scratch {
		if w.comps[attr] == 0 {
			continue
		}
		if err := w.buf.ReplaceAt(isosurf.Attribute(attr), index, vals...); err != nil {
			return err
		}
	}
	return nil
}

func (w *vertexWriter) appendVertex(n int) (int, error) {
	w.values(n)
	index := -1
	for attr, vals := range w.scratch {
		if w.comps[attr] == 0 {
			continue
		}
		idx, err := w.buf.Append(isosurf.Attribute(attr), vals...)
		if err != nil {
			return -1, err
		}
		if attr == int(isosurf.AttrPosition) {
			index = idx
		} else if idx != index {
			return -1, fmt.Errorf("%s attribute misaligned: index %d, position index %d", isosurf.Attribute(attr), idx, index)
		}
	}
	return index, nil
}

// collapse zeroes every attribute of a reserved slot no longer in use.
func (w *vertexWriter) collapse(index int) error {
	var zeros [16]float32
	for attr, nc := range w.comps {
		if nc == 0 {
			continue
		}
		vals := zeros[:0]
		if nc <= len(zeros) {
			vals = zeros[:nc]
		} else {
			vals = make([]float32, nc)
		}
		if err := w.buf.ReplaceAt(isosurf.Attribute(attr), index, vals...); err != nil {
			return err
		}
	}
	return nil
}

func appendVec(dst []float32, v r3.Vec, n int) []float32 {
	c := [3]float64{v.X, v.Y, v.Z}
	for i := 0; i < n; i++ {
		var f float32
		if i < 3 {
			f = float32(c[i])
		}
		dst = append(dst, f)
	}
	return dst
}
