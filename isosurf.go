// Package isosurf defines the collaborators of the finite element iso-surface
// tessellator: the element being swept, the field evaluator bound to it and the
// vertex buffer the resulting geometry is written into.
//
// The tessellation engine itself lives in package tessellate. The case tables
// used by it live in package cases.
package isosurf

import (
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"
)

// Shape identifies the local coordinate domain of a volumetric element.
type Shape int

const (
	// ShapeCube is the unit hexahedron ξ ∈ [0,1]³.
	ShapeCube Shape = iota
	// ShapeTetrahedron is the unit simplex ξ1,ξ2,ξ3 ≥ 0, ξ1+ξ2+ξ3 ≤ 1.
	ShapeTetrahedron
	// ShapeWedge is the triangular prism ξ1,ξ2 ≥ 0, ξ1+ξ2 ≤ 1, ξ3 ∈ [0,1].
	ShapeWedge
)

func (s Shape) String() string {
	switch s {
	case ShapeCube:
		return "cube"
	case ShapeTetrahedron:
		return "tetrahedron"
	case ShapeWedge:
		return "wedge"
	}
	return "Shape(" + strconv.Itoa(int(s)) + ")"
}

// Centroid returns the centroid of the shape's local domain.
func (s Shape) Centroid() r3.Vec {
	switch s {
	case ShapeTetrahedron:
		return r3.Vec{X: 0.25, Y: 0.25, Z: 0.25}
	case ShapeWedge:
		return r3.Vec{X: 1. / 3, Y: 1. / 3, Z: 0.5}
	}
	return r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
}

// Element is the finite element being tessellated.
type Element struct {
	// Key identifies the element's geometry in a VertexBuffer.
	Key   int
	Shape Shape
}

// Evaluator evaluates the fields of one element at local coordinates.
// The element is bound to the evaluator instance.
type Evaluator interface {
	// Coordinate returns the world position of local coordinate xi.
	Coordinate(xi r3.Vec) (r3.Vec, error)
	// Scalar returns the value of the field being iso-surfaced at xi.
	Scalar(xi r3.Vec) (float64, error)
}

// TextureEvaluator is implemented by evaluators that also carry a texture
// coordinate field. Unused components should be left zero.
type TextureEvaluator interface {
	TextureCoordinate(xi r3.Vec) (r3.Vec, error)
}

// DataEvaluator is implemented by evaluators that carry a data field
// which is copied onto every crossing vertex.
type DataEvaluator interface {
	// DataComponents returns the number of components of the data field.
	DataComponents() int
	// Data stores the data field at xi in dst, which has length DataComponents.
	Data(dst []float64, xi r3.Vec) error
}

// DerivativeEvaluator is implemented by evaluators that can return the
// derivatives of the coordinate field with respect to each local axis.
// Evaluators that do not implement it are differentiated numerically.
type DerivativeEvaluator interface {
	CoordinateDerivatives(xi r3.Vec) ([3]r3.Vec, error)
}
