package engine

import (
	"errors"
	"testing"
)

func TestSampleCounts(t *testing.T) {
	tests := []struct {
		step         float64
		open, closed int
	}{
		{0.25, 4, 5},
		{0.02, 50, 51},
		{0.1, 10, 11},
		{0.3, 4, 4},
		{1, 1, 2},
	}

	for _, tt := range tests {
		if got := openSamples(tt.step); got != tt.open {
			t.Errorf("openSamples(%v) = %d, want %d", tt.step, got, tt.open)
		}
		if got := closedSamples(tt.step); got != tt.closed {
			t.Errorf("closedSamples(%v) = %d, want %d", tt.step, got, tt.closed)
		}
	}
}

func TestBezierCurvePoints(t *testing.T) {
	control := []Coordinate{Pt2(0, 0), Pt2(1, 2), Pt2(2, 2), Pt2(3, 0)}

	got, err := BezierCurvePoints(control, 0.25)
	if err != nil {
		t.Fatalf("BezierCurvePoints: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d samples, want 4", len(got))
	}
	if !got[0].Equal(control[0]) {
		t.Errorf("first sample = %v, want %v", got[0], control[0])
	}

	// closed form at t = 0.5: (P0 + 3P1 + 3P2 + P3) / 8
	assertCoordNear(t, got[2], Pt2(1.5, 1.5))
	// t = 0.25: weights 27/64, 27/64, 9/64, 1/64
	assertCoordNear(t, got[1], Pt2((27.0*1+9*2+3)/64, (27.0*2+9*2)/64))
}

func TestBezierCurveSegments(t *testing.T) {
	control := []Coordinate{
		Pt2(0, 0), Pt2(1, 1), Pt2(2, 1), Pt2(3, 0),
		Pt2(4, -1), Pt2(5, -1), Pt2(6, 0),
	}

	got, err := BezierCurvePoints(control, 0.1)
	if err != nil {
		t.Fatalf("BezierCurvePoints: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("got %d samples, want 20", len(got))
	}
	if !got[10].Equal(control[3]) {
		t.Errorf("second segment starts at %v, want %v", got[10], control[3])
	}
}

func TestBezierCurveInvalidCount(t *testing.T) {
	for _, n := range []int{0, 3, 5, 6, 8} {
		_, err := BezierCurvePoints(make([]Coordinate, n), 0.1)
		if !errors.Is(err, ErrInvalidControlCount) {
			t.Errorf("%d control points: error = %v, want ErrInvalidControlCount", n, err)
		}
	}
}

func TestBSplineCurveSingleSegment(t *testing.T) {
	c1, c2, c3, c4 := Pt(0, 0, 0), Pt(1, 3, 1), Pt(4, 3, -1), Pt(6, 0, 2)

	got, err := BSplineCurvePoints([]Coordinate{c1, c2, c3, c4}, 0.1)
	if err != nil {
		t.Fatalf("BSplineCurvePoints: %v", err)
	}
	if len(got) != 11 {
		t.Fatalf("got %d samples, want 11 for one segment", len(got))
	}

	start := c1.Add(c2.Scale(4)).Add(c3).Scale(1.0 / 6)
	assertCoordNear(t, got[0], start)

	end := c2.Add(c3.Scale(4)).Add(c4).Scale(1.0 / 6)
	if !closeTo(got[10], end, 1e-9) {
		t.Errorf("last sample = %v, want %v", got[10], end)
	}
}

func TestBSplineForwardDifferencesMatchDirectEvaluation(t *testing.T) {
	control := []Coordinate{Pt2(0, 0), Pt2(1, 2), Pt2(3, 3), Pt2(4, 1), Pt2(6, 0), Pt2(7, 2)}
	step := 0.05

	got, err := BSplineCurvePoints(control, step)
	if err != nil {
		t.Fatalf("BSplineCurvePoints: %v", err)
	}

	n := openSamples(step)
	if len(got) != 3*(n+1) {
		t.Fatalf("got %d samples, want %d", len(got), 3*(n+1))
	}

	for s := range 3 {
		ax, bx, cx, dx := bsplineCoefficients(control[s].X, control[s+1].X, control[s+2].X, control[s+3].X)
		ay, by, cy, dy := bsplineCoefficients(control[s].Y, control[s+1].Y, control[s+2].Y, control[s+3].Y)
		for i := 0; i <= n; i++ {
			u := float64(i) * step
			want := Pt2(((ax*u+bx)*u+cx)*u+dx, ((ay*u+by)*u+cy)*u+dy)
			if p := got[s*(n+1)+i]; !closeTo(p, want, 1e-9) {
				t.Fatalf("segment %d sample %d = %v, want %v", s, i, p, want)
			}
		}
	}
}

func TestBSplineCurveInvalidCount(t *testing.T) {
	_, err := BSplineCurvePoints(make([]Coordinate, 3), 0.1)
	if !errors.Is(err, ErrInvalidControlCount) {
		t.Errorf("error = %v, want ErrInvalidControlCount", err)
	}
}

func TestInvalidStep(t *testing.T) {
	control := []Coordinate{Pt2(0, 0), Pt2(1, 2), Pt2(2, 2), Pt2(3, 0)}
	for _, step := range []float64{0, -0.1, 1.5} {
		if _, err := BezierCurvePoints(control, step); !errors.Is(err, ErrInvalidStep) {
			t.Errorf("step %v: error = %v, want ErrInvalidStep", step, err)
		}
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	control := []Coordinate{Pt2(0, 0), Pt2(1, 2), Pt2(2, 2), Pt2(3, 0), Pt2(5, 1), Pt2(6, 3), Pt2(8, 0)}

	for _, kind := range []Kind{KindBezierCurve, KindBSplineCurve} {
		p := &Primitive{Name: "c", Kind: kind}
		if err := p.Generate(control, 0.1); err != nil {
			t.Fatalf("Generate: %v", err)
		}
		first := append([]Coordinate(nil), p.Source...)

		if err := p.Generate(control, 0.1); err != nil {
			t.Fatalf("second Generate: %v", err)
		}
		if len(p.Source) != len(first) {
			t.Fatalf("sample count changed from %d to %d", len(first), len(p.Source))
		}
		for i := range first {
			if !p.Source[i].Equal(first[i]) {
				t.Fatalf("sample %d changed from %v to %v", i, first[i], p.Source[i])
			}
		}
	}
}

func TestGenerateFailureStoresNothing(t *testing.T) {
	p := &Primitive{Name: "c", Kind: KindBezierCurve}
	if err := p.Generate(make([]Coordinate, 5), 0.1); err == nil {
		t.Fatal("expected error")
	}
	if len(p.Control) != 0 || len(p.Source) != 0 {
		t.Errorf("failed generate left control=%v source=%v", p.Control, p.Source)
	}
}
