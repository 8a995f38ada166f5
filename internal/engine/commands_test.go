package engine

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestViewportMap(t *testing.T) {
	v := Viewport{Width: 600, Height: 400}

	tests := []struct {
		name   string
		x, y   float64
		px, py float64
	}{
		{"center", 0, 0, 300, 200},
		{"top left", -1, 1, 0, 0},
		{"bottom right", 1, -1, 600, 400},
		{"clip corner", 0.95, 0.95, 585, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px, py := v.Map(tt.x, tt.y)
			if !near(px, tt.px) || !near(py, tt.py) {
				t.Errorf("Map(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, px, py, tt.px, tt.py)
			}
			x, y := v.Unmap(px, py)
			if !near(x, tt.x) || !near(y, tt.y) {
				t.Errorf("Unmap = (%v, %v), want (%v, %v)", x, y, tt.x, tt.y)
			}
		})
	}
}

func TestCompileDrawCommandsSkipsHidden(t *testing.T) {
	shown := &Primitive{ID: "a", Name: "a", Kind: KindLine, Visible: true,
		Derived: []Coordinate{Pt2(0, 0), Pt2(0.5, 0.5)}}
	hidden := &Primitive{ID: "b", Name: "b", Kind: KindPoint}

	cmds := CompileDrawCommands([]*Primitive{shown, hidden}, ClipBound(DefaultClipMargin))
	if len(cmds) != 2 {
		t.Fatalf("commands = %d, want 2", len(cmds))
	}
	if cmds[0].Op != OpPolyline || cmds[0].ObjectID != "a" {
		t.Errorf("first command = %+v", cmds[0])
	}
	border := cmds[1]
	if border.Op != OpBorder || len(border.Points) != 4 {
		t.Fatalf("border = %+v", border)
	}
	if border.Points[2] != (orb.Point{0.95, 0.95}) {
		t.Errorf("border corner = %v", border.Points[2])
	}
	if border.Bounds != ClipBound(DefaultClipMargin) {
		t.Errorf("border bounds = %v", border.Bounds)
	}
}

func TestCompileDrawCommandsBounds(t *testing.T) {
	line := &Primitive{ID: "a", Name: "a", Kind: KindLine, Visible: true,
		Derived: []Coordinate{Pt2(-0.2, 0.4), Pt2(0.5, -0.1)}}
	mesh := &Primitive{ID: "m", Name: "m", Kind: KindMesh, Visible: true, Parts: []Primitive{
		{Kind: KindPolygon, Visible: true, Derived: []Coordinate{Pt2(0, 0), Pt2(0.1, 0), Pt2(0.1, 0.3)}},
		{Kind: KindPolygon, Visible: true, Derived: []Coordinate{Pt2(-0.6, -0.6), Pt2(-0.5, -0.6), Pt2(-0.5, -0.4)}},
	}}

	cmds := CompileDrawCommands([]*Primitive{line, mesh}, ClipBound(DefaultClipMargin))
	want := []orb.Bound{
		{Min: orb.Point{-0.2, -0.1}, Max: orb.Point{0.5, 0.4}},
		{Min: orb.Point{0, 0}, Max: orb.Point{0.1, 0.3}},
		{Min: orb.Point{-0.6, -0.6}, Max: orb.Point{-0.5, -0.4}},
	}
	if len(cmds) != len(want)+1 {
		t.Fatalf("commands = %d, want %d", len(cmds), len(want)+1)
	}
	for i, b := range want {
		if cmds[i].Bounds != b {
			t.Errorf("command %d bounds = %v, want %v", i, cmds[i].Bounds, b)
		}
	}
}

func TestHitTestPolyline(t *testing.T) {
	cmds := []DrawCommand{
		DrawCommand{Op: OpPolyline, ObjectID: "curve", Points: []orb.Point{{-0.5, 0}, {0, 0.5}, {0.5, 0}}}.withBounds(),
		DrawCommand{Op: OpPolygon, ObjectID: "outline", Points: []orb.Point{{0.6, -0.2}, {0.9, -0.2}, {0.9, 0.2}, {0.6, 0.2}}}.withBounds(),
	}

	tests := []struct {
		name string
		x, y float64
		want string
	}{
		{"on segment", -0.25, 0.25, "curve"},
		{"near segment", 0.25, 0.26, "curve"},
		{"under the arch", 0, 0.2, ""},
		{"outline edge", 0.6, 0, "outline"},
		{"inside unfilled outline", 0.75, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HitTest(cmds, tt.x, tt.y, 0.02); got != tt.want {
				t.Errorf("HitTest(%v, %v) = %q, want %q", tt.x, tt.y, got, tt.want)
			}
		})
	}
}
