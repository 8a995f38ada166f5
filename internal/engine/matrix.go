package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a 4x4 homogeneous transformation.
//
// Composition reads left to right: a.Mul(b) applies a first, then b, so a
// chain written as T1.Mul(T2).Mul(T3) runs T1, T2, T3 in that order.
// Internally the matrix is stored column-major for mgl64, which means
// a.Mul(b) is the product b*a.
type Transform struct {
	m mgl64.Mat4
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{m: mgl64.Ident4()}
}

// Translation returns a translation by (dx, dy, dz).
func Translation(dx, dy, dz float64) Transform {
	return Transform{m: mgl64.Translate3D(dx, dy, dz)}
}

// TranslationBy returns a translation by the spatial part of d.
func TranslationBy(d Coordinate) Transform {
	return Translation(d.X, d.Y, d.Z)
}

// Scaling returns a scale about the origin.
func Scaling(sx, sy, sz float64) Transform {
	return Transform{m: mgl64.Scale3D(sx, sy, sz)}
}

// ScalingAroundPoint scales about center.
func ScalingAroundPoint(sx, sy, sz float64, center Coordinate) Transform {
	return TranslationBy(center.Neg()).
		Mul(Scaling(sx, sy, sz)).
		Mul(TranslationBy(center))
}

// RotationX rotates counter-clockwise around the X axis (degrees).
func RotationX(degrees float64) Transform {
	return RotationXRad(mgl64.DegToRad(degrees))
}

// RotationY rotates counter-clockwise around the Y axis (degrees).
func RotationY(degrees float64) Transform {
	return RotationYRad(mgl64.DegToRad(degrees))
}

// RotationZ rotates counter-clockwise around the Z axis (degrees).
func RotationZ(degrees float64) Transform {
	return RotationZRad(mgl64.DegToRad(degrees))
}

func RotationXRad(radians float64) Transform {
	return Transform{m: mgl64.HomogRotate3DX(radians)}
}

func RotationYRad(radians float64) Transform {
	return Transform{m: mgl64.HomogRotate3DY(radians)}
}

func RotationZRad(radians float64) Transform {
	return Transform{m: mgl64.HomogRotate3DZ(radians)}
}

// Rotation applies X, then Y, then Z rotations (degrees).
func Rotation(ax, ay, az float64) Transform {
	return RotationX(ax).Mul(RotationY(ay)).Mul(RotationZ(az))
}

// RotationAroundPoint applies Rotation(ax, ay, az) with p as the pivot.
func RotationAroundPoint(ax, ay, az float64, p Coordinate) Transform {
	return TranslationBy(p.Neg()).
		Mul(Rotation(ax, ay, az)).
		Mul(TranslationBy(p))
}

// RotationAroundAxis rotates by angle degrees around the line through the
// origin and p, after moving p to the origin. The axis is first aligned with
// Z by a rotation about X (alfa) and one about Y (beta), then the alignment
// is undone in reverse order.
//
// A zero angle or a zero axis yields the identity.
func RotationAroundAxis(angle float64, p Coordinate) Transform {
	if angle == 0 || p.IsZero() {
		return Identity()
	}

	n := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
	ux, uy, uz := p.X/n, p.Y/n, p.Z/n

	d := math.Sqrt(uy*uy + uz*uz)
	alfa := math.Atan2(uy, uz)
	beta := math.Atan2(-ux, d)

	return TranslationBy(p.Neg()).
		Mul(RotationXRad(alfa)).
		Mul(RotationYRad(beta)).
		Mul(RotationZ(angle)).
		Mul(RotationYRad(-beta)).
		Mul(RotationXRad(-alfa)).
		Mul(TranslationBy(p))
}

// Mul returns the transform that applies t and then u.
func (t Transform) Mul(u Transform) Transform {
	return Transform{m: u.m.Mul4(t.m)}
}

// Compose appends u to t in place.
func (t *Transform) Compose(u Transform) {
	t.m = u.m.Mul4(t.m)
}

// Apply transforms a coordinate. A zero W is read as 1 so decoded and
// zero-value coordinates behave as points.
func (t Transform) Apply(c Coordinate) Coordinate {
	w := c.W
	if w == 0 {
		w = 1
	}
	v := t.m.Mul4x1(mgl64.Vec4{c.X, c.Y, c.Z, w})
	return Coordinate{X: v[0], Y: v[1], Z: v[2], W: v[3]}
}

// Matrix returns the underlying column-major matrix.
func (t Transform) Matrix() mgl64.Mat4 {
	return t.m
}

// ApproxEqual compares element-wise within eps.
func (t Transform) ApproxEqual(u Transform, eps float64) bool {
	for i := range t.m {
		if math.Abs(t.m[i]-u.m[i]) > eps {
			return false
		}
	}
	return true
}

// IsIdentity checks if the transform is the identity matrix.
func (t Transform) IsIdentity() bool {
	return t.m == mgl64.Ident4()
}

// ToSlice returns the matrix in row-major order for JSON consumers.
func (t Transform) ToSlice() []float64 {
	tr := t.m.Transpose()
	out := make([]float64, 16)
	copy(out, tr[:])
	return out
}
