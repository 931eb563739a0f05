// Package field provides evaluators for tessellating analytic fields over
// elements with an affine geometry mapping.
package field

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	"github.com/soypat/isosurf"
	"github.com/soypat/isosurf/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ScalarFunc is a scalar field over world space.
type ScalarFunc func(world r3.Vec) float64

// ErrSingular is returned for element mappings that collapse a dimension.
var ErrSingular = errors.New("singular element mapping")

// AffineParms are the parameters of an affinely mapped element.
type AffineParms struct {
	// Origin is the world position of local coordinate (0,0,0).
	Origin r3.Vec
	// Axes are the world space images of the local unit axes.
	Axes [3]r3.Vec
	// Scalar is the field being iso-surfaced. Required.
	Scalar ScalarFunc
	// Data are optional fields copied onto every crossing vertex.
	Data []ScalarFunc
}

// Affine is an element whose world coordinates are an affine map of its
// local coordinates. Texture coordinates are the local coordinates.
type Affine struct {
	t      d3.Transform
	inv    d3.Transform
	scalar ScalarFunc
	data   []ScalarFunc
}

var (
	_ isosurf.Evaluator           = (*Affine)(nil)
	_ isosurf.TextureEvaluator    = (*Affine)(nil)
	_ isosurf.DataEvaluator       = (*Affine)(nil)
	_ isosurf.DerivativeEvaluator = (*Affine)(nil)
)

// NewAffine returns an affine element evaluator.
func NewAffine(p AffineParms) (*Affine, error) {
	if p.Scalar == nil {
		return nil, errors.New("nil scalar field")
	}
	t := d3.NewTransform(p.Origin, p.Axes)
	inv, ok := t.Inv()
	if !ok {
		return nil, fmt.Errorf("%w: axes %v", ErrSingular, p.Axes)
	}
	return &Affine{
		t:      t,
		inv:    inv,
		scalar: p.Scalar,
		data:   append([]ScalarFunc(nil), p.Data...),
	}, nil
}

// Box returns a cube element spanning the world space box from min to max.
func Box(min, max r3.Vec, f ScalarFunc) (*Affine, error) {
	size := d3.Box{Min: min, Max: max}.Size()
	return NewAffine(AffineParms{
		Origin: min,
		Axes:   [3]r3.Vec{{X: size.X}, {Y: size.Y}, {Z: size.Z}},
		Scalar: f,
	})
}

// Coordinate returns the world position of xi.
func (a *Affine) Coordinate(xi r3.Vec) (r3.Vec, error) {
	return a.t.Transform(xi), nil
}

// Local returns the local coordinate of world position p.
func (a *Affine) Local(p r3.Vec) r3.Vec {
	return a.inv.Transform(p)
}

// Scalar evaluates the scalar field at xi.
func (a *Affine) Scalar(xi r3.Vec) (float64, error) {
	v := a.scalar(a.t.Transform(xi))
	if math.IsNaN(v) {
		return 0, errors.New("scalar field is NaN")
	}
	return v, nil
}

// TextureCoordinate returns xi.
func (a *Affine) TextureCoordinate(xi r3.Vec) (r3.Vec, error) {
	return xi, nil
}

// DataComponents returns the number of data fields.
func (a *Affine) DataComponents() int { return len(a.data) }

// Data evaluates the data fields at xi.
func (a *Affine) Data(dst []float64, xi r3.Vec) error {
	p := a.t.Transform(xi)
	for i, f := range a.data {
		dst[i] = f(p)
	}
	return nil
}

// CoordinateDerivatives returns the world space axes of the element.
func (a *Affine) CoordinateDerivatives(r3.Vec) ([3]r3.Vec, error) {
	return [3]r3.Vec{a.t.Axis(0), a.t.Axis(1), a.t.Axis(2)}, nil
}

// Funcs adapts plain functions of local coordinates into an evaluator.
// A nil CoordinateFunc maps local coordinates to identical world coordinates.
type Funcs struct {
	CoordinateFunc func(xi r3.Vec) (r3.Vec, error)
	ScalarFunc     func(xi r3.Vec) (float64, error)
}

// Coordinate calls f.CoordinateFunc.
func (f Funcs) Coordinate(xi r3.Vec) (r3.Vec, error) {
	if f.CoordinateFunc == nil {
		return xi, nil
	}
	return f.CoordinateFunc(xi)
}

// Scalar calls f.ScalarFunc.
func (f Funcs) Scalar(xi r3.Vec) (float64, error) {
	return f.ScalarFunc(xi)
}

// Sphere returns the signed distance to a sphere, negative inside.
func Sphere(center r3.Vec, radius float64) ScalarFunc {
	return func(p r3.Vec) float64 {
		return r3.Norm(r3.Sub(p, center)) - radius
	}
}

// Gyroid returns the gyroid implicit surface field scaled to period.
func Gyroid(period float64) ScalarFunc {
	k := 2 * math.Pi / period
	return func(p r3.Vec) float64 {
		x, y, z := k*p.X, k*p.Y, k*p.Z
		return math.Sin(x)*math.Cos(y) + math.Sin(y)*math.Cos(z) + math.Sin(z)*math.Cos(x)
	}
}

// SDFX returns the signed distance field of an sdfx shape.
func SDFX(s sdf.SDF3) ScalarFunc {
	return func(p r3.Vec) float64 {
		return s.Evaluate(sdf.V3{X: p.X, Y: p.Y, Z: p.Z})
	}
}

// SDFXBox returns a cube element spanning the bounding box of the sdfx shape
// s enlarged by margin on every side, with the shape's distance as scalar field.
func SDFXBox(s sdf.SDF3, margin float64) (*Affine, error) {
	bb := s.BoundingBox()
	box := d3.Box{
		Min: r3.Vec{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z},
		Max: r3.Vec{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z},
	}.Enlarge(d3.Elem(margin))
	return Box(box.Min, box.Max, SDFX(s))
}
