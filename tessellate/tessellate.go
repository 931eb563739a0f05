// Package tessellate extracts iso-surfaces of a scalar field over a single
// volumetric finite element.
//
// The element's local domain is sampled on a regular lattice, every lattice
// cell (or the simplex and prism pieces a simplex element decomposes it
// into) is crossed against each requested iso-value using the case tables
// of package cases, and the resulting triangles are written into an
// isosurf.VertexBuffer. Crossing vertices are shared between cells sharing
// an edge and saddle configurations are resolved by sampling cell centres,
// so the surface within one element is free of cracks.
//
// Tessellation is synchronous and deterministic. Calls for different
// elements may run concurrently as long as they write to different buffers.
package tessellate

import (
	"fmt"
	"runtime/debug"

	"github.com/soypat/isosurf"
)

type config struct {
	decomp  Decomposition
	reverse bool
}

// Option configures Build and Tessellate.
type Option func(*config)

// WithDecomposition selects how lattice cubes of cube elements are crossed.
// It has no effect on simplex and wedge elements.
func WithDecomposition(d Decomposition) Option {
	return func(c *config) { c.decomp = d }
}

// WithReverse reverses the winding and normals written to the vertex
// buffer so that facets face towards decreasing field values.
func WithReverse(reverse bool) Option {
	return func(c *config) { c.reverse = reverse }
}

// Build tessellates the iso-surfaces of elem's scalar field and writes them
// into buf under elem.Key. res is the number of samples along each local
// axis. If buf already holds geometry for the element that is not marked as
// requiring an update, Build does nothing.
//
// If tessellation fails nothing is written to buf. Failures of buf itself
// are reported as by WriteMeshes.
func Build(elem isosurf.Element, ev isosurf.Evaluator, res [3]int, iso isosurf.IsoValues, buf isosurf.VertexBuffer, opts ...Option) error {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(buf.FindRanges(elem.Key)) > 0 && !buf.UpdateRequired(elem.Key) {
		isosurf.Logger().Debug("element geometry up to date", "key", elem.Key)
		return nil
	}
	meshes, err := Tessellate(elem, ev, res, iso, opts...)
	if err != nil {
		return err
	}
	return WriteMeshes(buf, elem.Key, meshes, cfg.reverse)
}

// Tessellate sweeps elem and returns one mesh per iso-value in the order
// the iso-values were given. It does not touch any vertex buffer.
func Tessellate(elem isosurf.Element, ev isosurf.Evaluator, res [3]int, iso isosurf.IsoValues, opts ...Option) (meshes []*Mesh, err error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	defer func() {
		if a := recover(); a != nil {
			meshes = nil
			err = &isosurf.InternalError{
				PanicObj: a,
				Stack:    string(debug.Stack()),
			}
			isosurf.Logger().Error("element tessellation panicked", "key", elem.Key, "err", err)
		}
	}()
	if ev == nil {
		return nil, fmt.Errorf("tessellate element %d: nil evaluator", elem.Key)
	}
	div, err := latticeDivisions(elem.Shape, res)
	if err != nil {
		return nil, fmt.Errorf("tessellate element %d: %w", elem.Key, err)
	}
	isos, err := iso.Values()
	if err != nil {
		return nil, fmt.Errorf("tessellate element %d: %w", elem.Key, err)
	}
	sw, err := newSweeper(elem.Shape, ev, div, isos, cfg.decomp)
	if err != nil {
		return nil, fmt.Errorf("tessellate element %d: %w", elem.Key, err)
	}
	if err = sw.run(); err != nil {
		isosurf.Logger().Warn("element sweep aborted", "key", elem.Key, "state", sw.state.String(), "err", err)
		return nil, fmt.Errorf("tessellate element %d: %w", elem.Key, err)
	}
	log := isosurf.Logger()
	log.Debug("element swept",
		"key", elem.Key,
		"shape", elem.Shape.String(),
		"divisions", div,
		"samples", sw.stats.samples,
		"cells", sw.stats.cells,
		"polygons", sw.stats.polygons,
		"resolved", sw.stats.resolved,
		"synthetic", sw.stats.synthetic,
		"leftHanded", sw.leftHanded,
	)
	for _, m := range sw.meshes {
		log.Debug("iso-surface", "key", elem.Key, "iso", m.iso, "vertices", m.NumVertices(), "triangles", len(m.triangles), "bounds", m.Bounds())
	}
	return sw.meshes, nil
}
