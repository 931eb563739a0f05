package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Transform represents a 3D affine transformation x ↦ A·x + b.
// The zero value of Transform is the identity transform.
type Transform struct {
	// in order to make the zero value of Transform represent the identity
	// transform we store A with the identity matrix subtracted.
	// We can then check for identity in if blocks like so:
	//  if T == (Transform{})
	d00, x01, x02 float64
	x10, d11, x12 float64
	x20, x21, d22 float64
	b             r3.Vec
}

// NewTransform returns the transform carrying the origin onto origin and
// the unit vector of axis i onto origin+axes[i].
func NewTransform(origin r3.Vec, axes [3]r3.Vec) Transform {
	return Transform{
		d00: axes[0].X - 1, x01: axes[1].X, x02: axes[2].X,
		x10: axes[0].Y, d11: axes[1].Y - 1, x12: axes[2].Y,
		x20: axes[0].Z, x21: axes[1].Z, d22: axes[2].Z - 1,
		b: origin,
	}
}

// Transform applies the Transform to the argument vector
// and returns the result.
func (t Transform) Transform(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: (t.d00+1)*v.X + t.x01*v.Y + t.x02*v.Z + t.b.X,
		Y: t.x10*v.X + (t.d11+1)*v.Y + t.x12*v.Z + t.b.Y,
		Z: t.x20*v.X + t.x21*v.Y + (t.d22+1)*v.Z + t.b.Z,
	}
}

// Axis returns the image of the i'th unit vector under the linear part
// of the transform, which is the derivative of Transform along axis i.
func (t Transform) Axis(i int) r3.Vec {
	switch i {
	case 0:
		return r3.Vec{X: t.d00 + 1, Y: t.x10, Z: t.x20}
	case 1:
		return r3.Vec{X: t.x01, Y: t.d11 + 1, Z: t.x21}
	case 2:
		return r3.Vec{X: t.x02, Y: t.x12, Z: t.d22 + 1}
	}
	panic("axis index out of range")
}

func (t Transform) linear(v r3.Vec) r3.Vec {
	return r3.Sub(t.Transform(v), t.b)
}

// Det returns the determinant of the linear part of the Transform.
func (t Transform) Det() float64 {
	return r3.Dot(t.Axis(0), r3.Cross(t.Axis(1), t.Axis(2)))
}

// Inv returns the inverse of the transform such that
// inv.Transform(t.Transform(v)) == v up to rounding.
// If the transform is singular then ok is false.
func (t Transform) Inv() (inv Transform, ok bool) {
	if t == (Transform{}) {
		return t, true
	}
	det := t.Det()
	if math.Abs(det) < 1e-16 {
		return Transform{}, false
	}
	a0, a1, a2 := t.Axis(0), t.Axis(1), t.Axis(2)
	// Rows of the inverse are the reciprocal basis of the columns.
	r0 := r3.Scale(1/det, r3.Cross(a1, a2))
	r1 := r3.Scale(1/det, r3.Cross(a2, a0))
	r2 := r3.Scale(1/det, r3.Cross(a0, a1))
	inv = Transform{
		d00: r0.X - 1, x01: r0.Y, x02: r0.Z,
		x10: r1.X, d11: r1.Y - 1, x12: r1.Z,
		x20: r2.X, x21: r2.Y, d22: r2.Z - 1,
	}
	inv.b = r3.Scale(-1, inv.linear(t.b))
	return inv, true
}
