package engine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// CheckBezierSurface validates a Bezier control grid. Patches are 4x4 and
// share their border rows and columns, so both dimensions must be 4, 7, 10...
func CheckBezierSurface(n, rows, cols int) error {
	if rows < 4 || cols < 4 || (rows-4)%3 != 0 || (cols-4)%3 != 0 {
		return fmt.Errorf("%w: bezier surface grid must be (4+3k)x(4+3j), got %dx%d",
			ErrInvalidControlCount, rows, cols)
	}
	if n != rows*cols {
		return fmt.Errorf("%w: %dx%d grid needs %d points, got %d",
			ErrInvalidControlCount, rows, cols, rows*cols, n)
	}
	return nil
}

// CheckBSplineSurface validates a B-spline control grid: at least 4x4.
func CheckBSplineSurface(n, rows, cols int) error {
	if rows < 4 || cols < 4 {
		return fmt.Errorf("%w: b-spline surface grid must be at least 4x4, got %dx%d",
			ErrInvalidControlCount, rows, cols)
	}
	if n != rows*cols {
		return fmt.Errorf("%w: %dx%d grid needs %d points, got %d",
			ErrInvalidControlCount, rows, cols, rows*cols, n)
	}
	return nil
}

// bezierPatchPoint evaluates one bicubic patch. Rows of the grid follow s,
// columns follow t; the grid is row-major with the given column count.
func bezierPatchPoint(control []Coordinate, cols, r0, c0 int, bs, bt [4]float64) Coordinate {
	var x, y, z float64
	for i := range 4 {
		for j := range 4 {
			w := bs[i] * bt[j]
			p := control[(r0+i)*cols+c0+j]
			x += w * p.X
			y += w * p.Y
			z += w * p.Z
		}
	}
	return Pt(x, y, z)
}

// BezierSurfaceCurves tessellates a bicubic Bezier surface into isolines.
// For each patch it emits one curve per sampled s (t varying), then one per
// sampled t (s varying). Both parameters run over [0, 1] inclusive.
func BezierSurfaceCurves(control []Coordinate, rows, cols int, step float64) ([][]Coordinate, error) {
	if err := CheckBezierSurface(len(control), rows, cols); err != nil {
		return nil, err
	}
	if err := checkStep(step); err != nil {
		return nil, err
	}

	n := closedSamples(step)
	weights := make([][4]float64, n)
	for i := range weights {
		weights[i] = bernstein(float64(i) * step)
	}

	var curves [][]Coordinate
	for r0 := 0; r0+3 < rows; r0 += 3 {
		for c0 := 0; c0+3 < cols; c0 += 3 {
			for _, bs := range weights {
				curve := make([]Coordinate, 0, n)
				for _, bt := range weights {
					curve = append(curve, bezierPatchPoint(control, cols, r0, c0, bs, bt))
				}
				curves = append(curves, curve)
			}
			for _, bt := range weights {
				curve := make([]Coordinate, 0, n)
				for _, bs := range weights {
					curve = append(curve, bezierPatchPoint(control, cols, r0, c0, bs, bt))
				}
				curves = append(curves, curve)
			}
		}
	}
	return curves, nil
}

// bsplineBasis is the uniform cubic B-spline basis matrix.
var bsplineBasis = mgl64.Mat4FromRows(
	mgl64.Vec4{-1.0 / 6, 0.5, -0.5, 1.0 / 6},
	mgl64.Vec4{0.5, -1, 0.5, 0},
	mgl64.Vec4{-0.5, 0, 0.5, 0},
	mgl64.Vec4{1.0 / 6, 4.0 / 6, 1.0 / 6, 0},
)

// deltaMatrix maps cubic coefficients to the value and forward differences
// for parameter increment delta.
func deltaMatrix(delta float64) mgl64.Mat4 {
	d2 := delta * delta
	d3 := d2 * delta
	return mgl64.Mat4FromRows(
		mgl64.Vec4{0, 0, 0, 1},
		mgl64.Vec4{d3, d2, delta, 0},
		mgl64.Vec4{6 * d3, 2 * d2, 0, 0},
		mgl64.Vec4{6 * d3, 0, 0, 0},
	)
}

// fdGrid is a forward-difference matrix in row-major form.
type fdGrid [4][4]float64

func toGrid(m mgl64.Mat4) fdGrid {
	var g fdGrid
	for i := range 4 {
		for j := range 4 {
			g[i][j] = m.At(i, j)
		}
	}
	return g
}

// advanceRows steps the grid one increment along its row direction.
func (g *fdGrid) advanceRows() {
	for i := range 3 {
		for j := range 4 {
			g[i][j] += g[i+1][j]
		}
	}
}

func (g *fdGrid) head() forwardDiff {
	return forwardDiff{v: g[0][0], d1: g[0][1], d2: g[0][2], d3: g[0][3]}
}

// patchAxis gathers one axis of a 4x4 patch as a matrix indexed [row][col].
func patchAxis(control []Coordinate, cols, r0, c0 int, axis func(Coordinate) float64) mgl64.Mat4 {
	var rowsV [4]mgl64.Vec4
	for i := range 4 {
		for j := range 4 {
			rowsV[i][j] = axis(control[(r0+i)*cols+c0+j])
		}
	}
	return mgl64.Mat4FromRows(rowsV[0], rowsV[1], rowsV[2], rowsV[3])
}

var axes = [3]func(Coordinate) float64{
	func(c Coordinate) float64 { return c.X },
	func(c Coordinate) float64 { return c.Y },
	func(c Coordinate) float64 { return c.Z },
}

// BSplineSurfaceCurves tessellates a bicubic uniform B-spline surface with
// two-dimensional forward differences. Each 4x4 window of the grid is a
// patch. Per patch, C = M·P·Mᵀ and DD = E·C·Eᵀ per axis; walking the rows of
// DD yields the first curve family, walking its transpose the second.
func BSplineSurfaceCurves(control []Coordinate, rows, cols int, step float64) ([][]Coordinate, error) {
	if err := CheckBSplineSurface(len(control), rows, cols); err != nil {
		return nil, err
	}
	if err := checkStep(step); err != nil {
		return nil, err
	}

	e := deltaMatrix(step)
	et := e.Transpose()
	open, closed := openSamples(step), closedSamples(step)

	var curves [][]Coordinate
	for r0 := 0; r0 <= rows-4; r0++ {
		for c0 := 0; c0 <= cols-4; c0++ {
			var dd [3]mgl64.Mat4
			for k, axis := range axes {
				p := patchAxis(control, cols, r0, c0, axis)
				coeff := bsplineBasis.Mul4(p).Mul4(bsplineBasis.Transpose())
				dd[k] = e.Mul4(coeff).Mul4(et)
			}

			for _, transpose := range []bool{false, true} {
				var g [3]fdGrid
				for k := range dd {
					m := dd[k]
					if transpose {
						m = m.Transpose()
					}
					g[k] = toGrid(m)
				}
				for range closed {
					curve := walkForwardDiff(make([]Coordinate, 0, open+1),
						g[0].head(), g[1].head(), g[2].head(), open)
					curves = append(curves, curve)
					for k := range g {
						g[k].advanceRows()
					}
				}
			}
		}
	}
	return curves, nil
}
