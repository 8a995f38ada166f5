package engine

import (
	"errors"
	"testing"
)

// grid returns a rows x cols control grid on z = f(r, c).
func grid(rows, cols int, f func(r, c int) float64) []Coordinate {
	out := make([]Coordinate, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			out = append(out, Pt(float64(c), float64(r), f(r, c)))
		}
	}
	return out
}

func bump(r, c int) float64 {
	if (r == 1 || r == 2) && (c == 1 || c == 2) {
		return 2
	}
	return 0
}

func TestBezierSurfaceSinglePatch(t *testing.T) {
	step := 0.25
	control := grid(4, 4, bump)

	curves, err := BezierSurfaceCurves(control, 4, 4, step)
	if err != nil {
		t.Fatalf("BezierSurfaceCurves: %v", err)
	}

	samples := closedSamples(step)
	if len(curves) != 2*samples {
		t.Fatalf("got %d curves, want %d", len(curves), 2*samples)
	}
	for i, c := range curves {
		if len(c) != samples {
			t.Errorf("curve %d has %d points, want %d", i, len(c), samples)
		}
	}

	// s = 0 follows the first control row, which is a straight Bezier
	assertCoordNear(t, curves[0][0], control[0])
	assertCoordNear(t, curves[0][samples-1], control[3])
	// t = 0 follows the first control column
	assertCoordNear(t, curves[samples][samples-1], control[12])
	// center of the patch: 9/16 of the bump height
	mid := samples / 2
	assertCoordNear(t, curves[mid][mid], Pt(1.5, 1.5, 2*(3.0/8+3.0/8)*(3.0/8+3.0/8)))
}

func TestBezierSurfacePatchCount(t *testing.T) {
	curves, err := BezierSurfaceCurves(grid(7, 4, bump), 7, 4, 0.5)
	if err != nil {
		t.Fatalf("BezierSurfaceCurves: %v", err)
	}
	if want := 2 * 2 * closedSamples(0.5); len(curves) != want {
		t.Errorf("got %d curves, want %d for two patches", len(curves), want)
	}
}

func TestBezierSurfaceInvalidGrid(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		rows, cols int
	}{
		{"too small", 9, 3, 3},
		{"bad stride", 20, 5, 4},
		{"count mismatch", 15, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BezierSurfaceCurves(make([]Coordinate, tt.n), tt.rows, tt.cols, 0.1)
			if !errors.Is(err, ErrInvalidControlCount) {
				t.Errorf("error = %v, want ErrInvalidControlCount", err)
			}
		})
	}
}

func TestBSplineSurface(t *testing.T) {
	step := 0.25
	control := grid(4, 5, func(r, c int) float64 { return float64(r + c) })

	curves, err := BSplineSurfaceCurves(control, 4, 5, step)
	if err != nil {
		t.Fatalf("BSplineSurfaceCurves: %v", err)
	}

	// two patches (stride 1 over five columns), two families each
	closed, open := closedSamples(step), openSamples(step)
	if len(curves) != 2*2*closed {
		t.Fatalf("got %d curves, want %d", len(curves), 2*2*closed)
	}
	for i, c := range curves {
		if len(c) != open+1 {
			t.Fatalf("curve %d has %d points, want %d", i, len(c), open+1)
		}
	}

	// a planar grid stays planar: z = x + y on every sample
	for i, c := range curves {
		for j, p := range c {
			if !near(p.Z, p.X+p.Y) {
				t.Fatalf("curve %d point %d = %v is off the plane", i, j, p)
			}
		}
	}

	// first sample of the first patch: tensor B-spline weights (1,4,1)/6
	assertCoordNear(t, curves[0][0], Pt(1, 1, 2))
}

func TestBSplineSurfaceMatchesCurveAlongEdge(t *testing.T) {
	step := 0.1
	control := grid(4, 4, bump)
	curves, err := BSplineSurfaceCurves(control, 4, 4, step)
	if err != nil {
		t.Fatalf("BSplineSurfaceCurves: %v", err)
	}

	// at s = 0 the surface is the B-spline curve over the blended rows
	blended := make([]Coordinate, 4)
	for c := range 4 {
		blended[c] = control[c].Add(control[4+c].Scale(4)).Add(control[8+c]).Scale(1.0 / 6)
	}
	want, err := BSplineCurvePoints(blended, step)
	if err != nil {
		t.Fatalf("BSplineCurvePoints: %v", err)
	}
	if len(curves[0]) != len(want) {
		t.Fatalf("got %d points, want %d", len(curves[0]), len(want))
	}
	for i := range want {
		if !closeTo(curves[0][i], want[i], 1e-9) {
			t.Fatalf("point %d = %v, want %v", i, curves[0][i], want[i])
		}
	}
}

func TestBSplineSurfaceInvalidGrid(t *testing.T) {
	_, err := BSplineSurfaceCurves(make([]Coordinate, 12), 3, 4, 0.1)
	if !errors.Is(err, ErrInvalidControlCount) {
		t.Errorf("error = %v, want ErrInvalidControlCount", err)
	}
}

func TestSurfaceGenerateIsIdempotent(t *testing.T) {
	p, err := NewBezierSurface("s", grid(4, 4, bump), 4, 4, 0.25)
	if err != nil {
		t.Fatalf("NewBezierSurface: %v", err)
	}
	parts := len(p.Parts)

	if err := p.Generate(grid(7, 7, bump), 0.1); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(p.Parts) != parts {
		t.Errorf("parts changed from %d to %d", parts, len(p.Parts))
	}
}
