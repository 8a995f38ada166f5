package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/inamate/modeler/internal/document"
)

// newTestEngine returns an engine whose window spans [-300, 300]² so that
// world x maps to canonical x/300.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(DefaultOptions())
}

func mustAdd(t *testing.T, e *Engine, p *Primitive) *Primitive {
	t.Helper()
	if err := e.Add(p); err != nil {
		t.Fatalf("Add(%s): %v", p.Name, err)
	}
	return p
}

func TestEngineAddProjectsAndClips(t *testing.T) {
	e := newTestEngine(t)
	p := mustAdd(t, e, NewPoint("p", Pt(150, -150, 0)))

	if p.ID == "" {
		t.Fatal("Add did not assign an ID")
	}
	if !p.Visible || len(p.Derived) != 1 {
		t.Fatalf("point not visible: %+v", p)
	}
	assertCoordNear(t, p.Derived[0], Pt(0.5, -0.5, 0))

	line := mustAdd(t, e, NewLine("l", Pt(0, 0, 0), Pt(600, 0, 0)))
	if !line.Visible {
		t.Fatal("line should be partly visible")
	}
	assertCoordNear(t, line.Derived[1], Pt(0.95, 0, 0))
}

func TestEngineAddRejectsBadNames(t *testing.T) {
	e := newTestEngine(t)
	mustAdd(t, e, NewPoint("a", Pt(0, 0, 0)))

	if err := e.Add(NewPoint("a", Pt(1, 1, 0))); !errors.Is(err, document.ErrDuplicateName) {
		t.Errorf("duplicate name: err = %v", err)
	}
	if err := e.Add(NewPoint("", Pt(1, 1, 0))); !errors.Is(err, document.ErrEmptyName) {
		t.Errorf("empty name: err = %v", err)
	}
	if got := len(e.Objects()); got != 1 {
		t.Errorf("objects = %d, want 1", got)
	}
}

func TestEngineZoom(t *testing.T) {
	e := newTestEngine(t)
	p := mustAdd(t, e, NewPoint("p", Pt(150, 0, 0)))

	before := e.Window()
	err := e.ApplyWindowZoom(-100)
	if !errors.Is(err, ErrZoomLimitExceeded) {
		t.Fatalf("err = %v, want ErrZoomLimitExceeded", err)
	}
	if e.Window() != before {
		t.Error("rejected zoom changed the window")
	}
	if !p.Visible {
		t.Error("rejected zoom changed visibility")
	}

	if err := e.ApplyWindowZoom(-50); err != nil {
		t.Fatalf("zoom in: %v", err)
	}
	if w := e.Window(); !near(w.HalfWidth, 150) || !near(w.HalfHeight, 150) {
		t.Errorf("extents = %v x %v, want 150 x 150", w.HalfWidth, w.HalfHeight)
	}
	if p.Visible || len(p.Derived) != 0 {
		t.Errorf("point at the window edge should be clipped: %+v", p.Derived)
	}
}

func TestEnginePanAndRotate(t *testing.T) {
	e := newTestEngine(t)
	p := mustAdd(t, e, NewPoint("p", Pt(150, 0, 0)))

	e.ApplyWindowPan(150, 0, 0)
	assertCoordNear(t, p.Derived[0], Pt(0, 0, 0))

	e.ApplyWindowPan(-150, 0, 0)
	e.ApplyWindowRotate(AxisZ, 90)
	assertCoordNear(t, p.Derived[0], Pt(0, -0.5, 0))
}

func TestEngineObjectTransforms(t *testing.T) {
	square := []Coordinate{Pt(-10, -10, 0), Pt(10, -10, 0), Pt(10, 10, 0), Pt(-10, 10, 0)}

	tests := []struct {
		name       string
		apply      func(e *Engine, id string) error
		wantCenter Coordinate
		wantFirst  Coordinate
	}{
		{
			name:       "translate",
			apply:      func(e *Engine, id string) error { return e.TranslateObject(id, 30, -5, 2) },
			wantCenter: Pt(30, -5, 2),
			wantFirst:  Pt(20, -15, 2),
		},
		{
			name:       "scale around center",
			apply:      func(e *Engine, id string) error { return e.ScaleObject(id, 2, 3, 1) },
			wantCenter: Pt(0, 0, 0),
			wantFirst:  Pt(-20, -30, 0),
		},
		{
			name: "rotate around center",
			apply: func(e *Engine, id string) error {
				return e.RotateObject(id, 0, 0, 90, PivotCenter, Coordinate{})
			},
			wantCenter: Pt(0, 0, 0),
			wantFirst:  Pt(10, -10, 0),
		},
		{
			name: "rotate around point",
			apply: func(e *Engine, id string) error {
				return e.RotateObject(id, 0, 0, 180, PivotPoint, Pt(10, 0, 0))
			},
			wantCenter: Pt(20, 0, 0),
			wantFirst:  Pt(30, 10, 0),
		},
		{
			name: "rotate around z axis",
			apply: func(e *Engine, id string) error {
				return e.RotateObjectAroundAxis(id, 90, Pt(0, 0, 1))
			},
			wantCenter: Pt(0, 0, 0),
			wantFirst:  Pt(10, -10, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			poly, err := NewPolygon("sq", square, false)
			if err != nil {
				t.Fatal(err)
			}
			mustAdd(t, e, poly)

			if err := tt.apply(e, poly.ID); err != nil {
				t.Fatalf("apply: %v", err)
			}
			assertCoordNear(t, poly.Center(), tt.wantCenter)
			assertCoordNear(t, poly.Source[0], tt.wantFirst)

			want := ViewTransform(e.Window()).Apply(poly.Source[0])
			found := false
			for _, c := range poly.Derived {
				if closeTo(c, want, 1e-9) {
					found = true
				}
			}
			if !found {
				t.Errorf("derived %v does not contain projected %v", poly.Derived, want)
			}
		})
	}
}

func TestEngineUnknownObject(t *testing.T) {
	e := newTestEngine(t)
	calls := map[string]func() error{
		"translate": func() error { return e.TranslateObject("nope", 1, 1, 1) },
		"scale":     func() error { return e.ScaleObject("nope", 1, 1, 1) },
		"rotate":    func() error { return e.RotateObject("nope", 1, 1, 1, PivotOrigin, Coordinate{}) },
		"recenter":  func() error { return e.RecenterOn("nope") },
		"remove":    func() error { return e.Remove("nope") },
		"reclip":    func() error { return e.RetransformAndClip("nope") },
		"color":     func() error { return e.SetObjectColor("nope", "#fff") },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestEngineRecenterOn(t *testing.T) {
	e := newTestEngine(t)
	poly, err := NewPolygon("tri", []Coordinate{Pt(400, 400, 0), Pt(460, 400, 0), Pt(430, 460, 0)}, true)
	if err != nil {
		t.Fatal(err)
	}
	mustAdd(t, e, poly)
	if poly.Visible {
		t.Fatal("triangle should start outside the window")
	}

	if err := e.RecenterOn(poly.ID); err != nil {
		t.Fatal(err)
	}
	w := e.Window()
	assertCoordNear(t, w.Center, Pt(430, 420, 0))
	if w.HalfWidth != w.Limits.DefaultSize || w.HalfHeight != w.Limits.DefaultSize {
		t.Errorf("extents = %v x %v, want default", w.HalfWidth, w.HalfHeight)
	}
	if !poly.Visible {
		t.Error("triangle should be visible after recentering")
	}
}

func TestEngineRemove(t *testing.T) {
	e := newTestEngine(t)
	a := mustAdd(t, e, NewPoint("a", Pt(0, 0, 0)))
	b := mustAdd(t, e, NewPoint("b", Pt(1, 0, 0)))

	if err := e.Remove(a.ID); err != nil {
		t.Fatal(err)
	}
	objs := e.Objects()
	if len(objs) != 1 || objs[0] != b {
		t.Fatalf("objects after remove = %v", objs)
	}
	if _, ok := e.Object(a.ID); ok {
		t.Error("removed object still indexed")
	}
	if err := e.Add(NewPoint("a", Pt(0, 0, 0))); err != nil {
		t.Errorf("name should be free after remove: %v", err)
	}
}

func TestEngineSetLineClipAlgorithm(t *testing.T) {
	e := newTestEngine(t)
	line := mustAdd(t, e, NewLine("l", Pt(-600, 0, 0), Pt(600, 0, 0)))

	e.SetLineClipAlgorithm(LiangBarsky)
	if e.LineClipAlgorithm() != LiangBarsky {
		t.Fatal("algorithm not switched")
	}
	assertCoordNear(t, line.Derived[0], Pt(-0.95, 0, 0))
	assertCoordNear(t, line.Derived[1], Pt(0.95, 0, 0))
}

func TestEngineLoadDocumentIsAllOrNothing(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadSampleDocument("scene_test"); err != nil {
		t.Fatalf("sample: %v", err)
	}
	n := len(e.Objects())

	bad := document.NewEmptyDocument("scene_bad", "bad")
	bad.Objects = []document.ObjectNode{
		{Name: "ok", Type: document.ObjectTypePoint, Vertices: []document.Vertex{{0, 0, 0}}},
		{Name: "broken", Type: document.ObjectTypeBezierCurve, Control: []document.Vertex{{0, 0, 0}, {1, 1, 0}, {2, 0, 0}}},
	}
	if err := e.LoadDocument(bad); !errors.Is(err, ErrInvalidControlCount) {
		t.Fatalf("err = %v, want ErrInvalidControlCount", err)
	}
	if got := len(e.Objects()); got != n {
		t.Errorf("objects = %d after failed load, want %d", got, n)
	}
	if _, ok := e.ObjectByName("broken"); ok {
		t.Error("failed load leaked an object")
	}
}

func TestEngineLoadDocumentRejectsViewOutsideLimits(t *testing.T) {
	tests := []struct {
		name       string
		halfWidth  float64
		halfHeight float64
	}{
		{"too wide", 1e9, 100},
		{"too short", 100, 0.0001},
		{"both", 1e9, 0.0001},
		{"negative", -10, 100},
		{"at max", 5000, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			before := e.Window()

			doc := document.NewEmptyDocument("scene_view", "view")
			doc.Objects = []document.ObjectNode{
				{Name: "p", Type: document.ObjectTypePoint, Vertices: []document.Vertex{{0, 0, 0}}},
			}
			doc.Scene.View = &document.View{
				Center:     document.Vertex{5, 5, 0},
				HalfWidth:  tt.halfWidth,
				HalfHeight: tt.halfHeight,
			}
			if err := e.LoadDocument(doc); !errors.Is(err, ErrZoomLimitExceeded) {
				t.Fatalf("err = %v, want ErrZoomLimitExceeded", err)
			}
			if e.Window() != before {
				t.Errorf("window = %+v after failed load, want %+v", e.Window(), before)
			}
			if len(e.Objects()) != 0 {
				t.Errorf("failed load added %d objects", len(e.Objects()))
			}
		})
	}
}

func TestEngineLoadDocumentKeepsExtentsWhenUnset(t *testing.T) {
	e := newTestEngine(t)
	before := e.Window()

	doc := document.NewEmptyDocument("scene_view", "view")
	doc.Scene.View = &document.View{Center: document.Vertex{1, 2, 0}}
	if err := e.LoadDocument(doc); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	w := e.Window()
	if w.HalfWidth != before.HalfWidth || w.HalfHeight != before.HalfHeight {
		t.Errorf("extents = %gx%g, want %gx%g", w.HalfWidth, w.HalfHeight, before.HalfWidth, before.HalfHeight)
	}
	if !w.Center.Equal(Pt(1, 2, 0)) {
		t.Errorf("center = %+v, want (1, 2, 0)", w.Center)
	}
}

func TestEngineLoadDocumentRejectsDuplicateIDs(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadSampleDocument("scene_test"); err != nil {
		t.Fatalf("sample: %v", err)
	}
	n := len(e.Objects())

	doc := document.NewEmptyDocument("scene_dup", "dup")
	doc.Objects = []document.ObjectNode{
		{ID: "same", Name: "a", Type: document.ObjectTypePoint, Vertices: []document.Vertex{{0, 0, 0}}},
		{ID: "same", Name: "b", Type: document.ObjectTypePoint, Vertices: []document.Vertex{{1, 1, 0}}},
	}
	if err := e.LoadDocument(doc); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
	if got := len(e.Objects()); got != n {
		t.Errorf("objects = %d after failed load, want %d", got, n)
	}

	// Every loaded object stays reachable by ID.
	doc.Objects[1].ID = "other"
	if err := e.LoadDocument(doc); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	for _, p := range e.Objects() {
		if err := e.Remove(p.ID); err != nil {
			t.Errorf("Remove(%s): %v", p.ID, err)
		}
	}
	if got := len(e.Objects()); got != 0 {
		t.Errorf("objects = %d after removing all, want 0", got)
	}
}

func TestEngineDocumentRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadSampleDocument("scene_rt"); err != nil {
		t.Fatal(err)
	}
	e.ApplyWindowPan(20, 10, 0)
	e.ApplyWindowRotate(AxisX, 30)
	e.SetLineClipAlgorithm(LiangBarsky)

	data := e.GetDocument()
	var doc document.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		t.Fatal(err)
	}

	other := newTestEngine(t)
	if err := other.LoadDocumentJSON(data); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if other.Window() != e.Window() {
		t.Errorf("window = %+v, want %+v", other.Window(), e.Window())
	}
	if other.LineClipAlgorithm() != LiangBarsky {
		t.Error("line clip algorithm not restored")
	}
	if got, want := len(other.Objects()), len(e.Objects()); got != want {
		t.Fatalf("objects = %d, want %d", got, want)
	}
	for i, p := range e.Objects() {
		q := other.Objects()[i]
		if p.ID != q.ID || p.Kind != q.Kind || len(p.Points()) != len(q.Points()) {
			t.Errorf("object %d: %s/%s/%d vs %s/%s/%d", i, p.ID, p.Kind, len(p.Points()), q.ID, q.Kind, len(q.Points()))
		}
	}
}

func TestEngineRenderAndHitTest(t *testing.T) {
	e := newTestEngine(t)
	tri, err := NewPolygon("tri", []Coordinate{Pt(-60, -60, 0), Pt(60, -60, 0), Pt(0, 60, 0)}, true)
	if err != nil {
		t.Fatal(err)
	}
	mustAdd(t, e, tri)
	dot := mustAdd(t, e, NewPoint("dot", Pt(0, 0, 0)))

	var cmds []DrawCommand
	if err := json.Unmarshal([]byte(e.Render()), &cmds); err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 3 {
		t.Fatalf("commands = %d, want 3", len(cmds))
	}
	if cmds[0].Op != OpPolygon || !cmds[0].Fill || cmds[1].Op != OpPoint || cmds[2].Op != OpBorder {
		t.Errorf("unexpected ops: %s %s %s", cmds[0].Op, cmds[1].Op, cmds[2].Op)
	}

	tests := []struct {
		name string
		x, y float64
		want string
	}{
		{"point on top", 0, 0, dot.ID},
		{"inside triangle", 0, -0.1, tri.ID},
		{"empty space", 0.8, 0.8, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.HitTest(tt.x, tt.y); got != tt.want {
				t.Errorf("HitTest(%v, %v) = %q, want %q", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestEngineMeshPartialVisibility(t *testing.T) {
	e := newTestEngine(t)
	mesh, err := NewMesh("m", [][]Coordinate{
		{Pt(0, 0, 0), Pt(10, 0, 0), Pt(10, 10, 0)},
		{Pt(1000, 0, 0), Pt(1010, 0, 0), Pt(1010, 10, 0)},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustAdd(t, e, mesh)

	if !mesh.Visible || !mesh.Parts[0].Visible || mesh.Parts[1].Visible {
		t.Fatalf("visibility = %v/%v/%v", mesh.Visible, mesh.Parts[0].Visible, mesh.Parts[1].Visible)
	}
	cmds := e.DrawCommands()
	if len(cmds) != 2 || cmds[0].ObjectID != mesh.ID {
		t.Errorf("draw commands = %+v", cmds)
	}
}
