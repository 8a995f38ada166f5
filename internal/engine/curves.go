package engine

import (
	"errors"
	"fmt"
	"math"
)

// DefaultCurveStep is the parameter increment used for tessellation.
const DefaultCurveStep = 0.02

var (
	// ErrInvalidControlCount is returned when a curve or surface gets a
	// control point count its basis cannot use.
	ErrInvalidControlCount = errors.New("invalid control point count")

	// ErrInvalidStep is returned for a tessellation step outside (0, 1].
	ErrInvalidStep = errors.New("invalid tessellation step")
)

func checkStep(step float64) error {
	if !(step > 0 && step <= 1) {
		return fmt.Errorf("%w: %g", ErrInvalidStep, step)
	}
	return nil
}

// openSamples counts the parameters i*step with i*step < 1.
func openSamples(step float64) int {
	return int(math.Ceil(1/step - 1e-9))
}

// closedSamples counts the parameters i*step with i*step <= 1.
func closedSamples(step float64) int {
	return int(math.Floor(1/step+1e-9)) + 1
}

// bernstein returns the cubic Bezier blending weights at t.
func bernstein(t float64) [4]float64 {
	t2 := t * t
	t3 := t2 * t
	return [4]float64{
		-t3 + 3*t2 - 3*t + 1,
		3*t3 - 6*t2 + 3*t,
		-3*t3 + 3*t2,
		t3,
	}
}

func blend(w [4]float64, p0, p1, p2, p3 Coordinate) Coordinate {
	return Pt(
		w[0]*p0.X+w[1]*p1.X+w[2]*p2.X+w[3]*p3.X,
		w[0]*p0.Y+w[1]*p1.Y+w[2]*p2.Y+w[3]*p3.Y,
		w[0]*p0.Z+w[1]*p1.Z+w[2]*p2.Z+w[3]*p3.Z,
	)
}

// CheckBezierCurve validates a Bezier control point count: 4, 7, 10, ...
func CheckBezierCurve(n int) error {
	if n < 4 || (n-4)%3 != 0 {
		return fmt.Errorf("%w: bezier curve needs 4, 7, 10, ... points, got %d", ErrInvalidControlCount, n)
	}
	return nil
}

// CheckBSplineCurve validates a B-spline control point count: at least 4.
func CheckBSplineCurve(n int) error {
	if n < 4 {
		return fmt.Errorf("%w: b-spline curve needs at least 4 points, got %d", ErrInvalidControlCount, n)
	}
	return nil
}

// BezierCurvePoints tessellates a piecewise cubic Bezier curve. Segments
// share endpoints, so control point i*3 starts segment i. Each segment is
// sampled at t = 0, step, 2*step, ... while t < 1.
func BezierCurvePoints(control []Coordinate, step float64) ([]Coordinate, error) {
	if err := CheckBezierCurve(len(control)); err != nil {
		return nil, err
	}
	if err := checkStep(step); err != nil {
		return nil, err
	}

	segments := (len(control)-4)/3 + 1
	samples := openSamples(step)
	out := make([]Coordinate, 0, segments*samples)

	for s := range segments {
		p := control[s*3 : s*3+4]
		for i := range samples {
			out = append(out, blend(bernstein(float64(i)*step), p[0], p[1], p[2], p[3]))
		}
	}
	return out, nil
}

// forwardDiff holds a cubic and its first three forward differences along
// one axis.
type forwardDiff struct {
	v, d1, d2, d3 float64
}

func (f *forwardDiff) advance() {
	f.v += f.d1
	f.d1 += f.d2
	f.d2 += f.d3
}

// bsplineCoefficients returns (a, b, c, d) of a t³ + b t² + c t + d for one
// uniform cubic B-spline segment.
func bsplineCoefficients(c1, c2, c3, c4 float64) (a, b, c, d float64) {
	a = -c1/6 + c2/2 - c3/2 + c4/6
	b = c1/2 - c2 + c3/2
	c = -c1/2 + c3/2
	d = c1/6 + 2*c2/3 + c3/6
	return
}

func newForwardDiff(a, b, c, d, delta float64) forwardDiff {
	d2 := delta * delta
	d3 := d2 * delta
	third := 6 * a * d3
	return forwardDiff{
		v:  d,
		d1: a*d3 + b*d2 + c*delta,
		d2: third + 2*b*d2,
		d3: third,
	}
}

// walkForwardDiff emits the starting value and then n forward-difference
// steps, so the result holds n+1 points.
func walkForwardDiff(dst []Coordinate, x, y, z forwardDiff, n int) []Coordinate {
	dst = append(dst, Pt(x.v, y.v, z.v))
	for range n {
		x.advance()
		y.advance()
		z.advance()
		dst = append(dst, Pt(x.v, y.v, z.v))
	}
	return dst
}

// BSplineCurvePoints tessellates a uniform cubic B-spline with forward
// differences. n control points produce n-3 segments.
func BSplineCurvePoints(control []Coordinate, step float64) ([]Coordinate, error) {
	if err := CheckBSplineCurve(len(control)); err != nil {
		return nil, err
	}
	if err := checkStep(step); err != nil {
		return nil, err
	}

	segments := len(control) - 3
	n := openSamples(step)
	out := make([]Coordinate, 0, segments*(n+1))

	for s := range segments {
		c1, c2, c3, c4 := control[s], control[s+1], control[s+2], control[s+3]

		ax, bx, cx, dx := bsplineCoefficients(c1.X, c2.X, c3.X, c4.X)
		ay, by, cy, dy := bsplineCoefficients(c1.Y, c2.Y, c3.Y, c4.Y)
		az, bz, cz, dz := bsplineCoefficients(c1.Z, c2.Z, c3.Z, c4.Z)

		out = walkForwardDiff(out,
			newForwardDiff(ax, bx, cx, dx, step),
			newForwardDiff(ay, by, cy, dy, step),
			newForwardDiff(az, bz, cz, dz, step),
			n)
	}
	return out, nil
}
