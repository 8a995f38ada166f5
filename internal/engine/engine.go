package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/typeid"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrDuplicateID = errors.New("duplicate object id")
)

// Options configures a new Engine.
type Options struct {
	ViewportWidth  float64
	ViewportHeight float64
	Limits         WindowLimits
	ClipBound      orb.Bound
	LineClip       LineClipAlgorithm
	CurveStep      float64
}

// DefaultOptions returns a 600x600 viewport, the stock window limits and a
// [-0.95, 0.95]² clip rectangle.
func DefaultOptions() Options {
	return Options{
		ViewportWidth:  600,
		ViewportHeight: 600,
		Limits:         DefaultWindowLimits(),
		ClipBound:      ClipBound(DefaultClipMargin),
		LineClip:       CohenSutherland,
		CurveStep:      DefaultCurveStep,
	}
}

// Engine owns the scene, the window and the clipper, and reruns the
// transform-then-clip pass after every mutation. It is not safe for
// concurrent use.
type Engine struct {
	window   Window
	clipper  *Clipper
	step     float64
	viewport Viewport

	scene   document.Scene
	objects []*Primitive
	byID    map[string]*Primitive
}

// NewEngine creates an engine with an empty scene.
func NewEngine(opts Options) *Engine {
	if opts.CurveStep <= 0 {
		opts.CurveStep = DefaultCurveStep
	}
	clipper := NewClipper(opts.ClipBound)
	clipper.SetLineClipAlgorithm(opts.LineClip)

	return &Engine{
		window:   NewWindow(opts.ViewportWidth, opts.ViewportHeight, opts.Limits),
		clipper:  clipper,
		step:     opts.CurveStep,
		viewport: Viewport{Width: opts.ViewportWidth, Height: opts.ViewportHeight},
		byID:     make(map[string]*Primitive),
	}
}

// --- Commands (view and scene mutations) ---

// SetLineClipAlgorithm switches the line clipper and reclips the scene.
func (e *Engine) SetLineClipAlgorithm(alg LineClipAlgorithm) {
	e.clipper.SetLineClipAlgorithm(alg)
	e.RetransformAndClipAll()
}

// ApplyWindowZoom zooms by step percent. On ErrZoomLimitExceeded nothing
// changes.
func (e *Engine) ApplyWindowZoom(step float64) error {
	if err := e.window.Zoom(step); err != nil {
		Logger().Warn("zoom rejected", "step", step, "error", err)
		return err
	}
	e.RetransformAndClipAll()
	return nil
}

// ApplyWindowPan moves the window along its own axes.
func (e *Engine) ApplyWindowPan(dx, dy, dz float64) {
	e.window.Move(dx, dy, dz)
	e.RetransformAndClipAll()
}

// ApplyWindowRotate rotates the window around one axis.
func (e *Engine) ApplyWindowRotate(axis Axis, degrees float64) {
	e.window.Rotate(axis, degrees)
	e.RetransformAndClipAll()
}

// ResizeViewport resizes the window extents to a new viewport size.
func (e *Engine) ResizeViewport(width, height float64) error {
	if err := e.window.Resize(width, height); err != nil {
		Logger().Warn("resize rejected", "width", width, "height", height, "error", err)
		return err
	}
	e.viewport = Viewport{Width: width, Height: height}
	e.RetransformAndClipAll()
	return nil
}

// RecenterOn moves the window onto the center of an object and resets the
// zoom.
func (e *Engine) RecenterOn(id string) error {
	p, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.window.MoveTo(p.Center())
	e.RetransformAndClipAll()
	return nil
}

// RetransformAndClip reruns the pipeline for one object.
func (e *Engine) RetransformAndClip(id string) error {
	p, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.pass(p, ViewTransform(e.window))
	return nil
}

// RetransformAndClipAll reruns the pipeline for the whole scene.
func (e *Engine) RetransformAndClipAll() {
	view := ViewTransform(e.window)
	visible := 0
	for _, p := range e.objects {
		if e.pass(p, view) {
			visible++
		}
	}
	Logger().Debug("pipeline pass",
		"objects", len(e.objects),
		"visible", visible,
		"algorithm", e.clipper.Algorithm().String())
}

// pass transforms p into canonical space and clips it.
func (e *Engine) pass(p *Primitive, view Transform) bool {
	p.project(view)
	p.Visible = e.clipper.Clip(p)
	if !p.Visible {
		p.clear()
	}
	return p.Visible
}

// Add inserts a primitive, assigning an ID when it has none. Names must be
// unique and non-empty.
func (e *Engine) Add(p *Primitive) error {
	if p.Name == "" {
		return document.ErrEmptyName
	}
	for _, o := range e.objects {
		if o.Name == p.Name {
			return fmt.Errorf("%w: %q", document.ErrDuplicateName, p.Name)
		}
	}
	if p.ID == "" {
		p.ID = typeid.NewObjectID()
	}
	if _, dup := e.byID[p.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}

	e.objects = append(e.objects, p)
	e.byID[p.ID] = p
	e.pass(p, ViewTransform(e.window))
	return nil
}

// AddObject builds a primitive from its document form and adds it.
func (e *Engine) AddObject(obj document.ObjectNode) (*Primitive, error) {
	p, err := BuildPrimitive(obj, e.step)
	if err != nil {
		return nil, err
	}
	if err := e.Add(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Remove deletes an object.
func (e *Engine) Remove(id string) error {
	if _, ok := e.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(e.byID, id)
	for i, p := range e.objects {
		if p.ID == id {
			e.objects = append(e.objects[:i], e.objects[i+1:]...)
			break
		}
	}
	return nil
}

// transformObject applies a model-space transform built from the object.
func (e *Engine) transformObject(id string, build func(p *Primitive) Transform) error {
	p, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p.Apply(build(p))
	e.pass(p, ViewTransform(e.window))
	return nil
}

// TranslateObject moves an object.
func (e *Engine) TranslateObject(id string, dx, dy, dz float64) error {
	return e.transformObject(id, func(*Primitive) Transform {
		return Translation(dx, dy, dz)
	})
}

// ScaleObject scales an object around its own center.
func (e *Engine) ScaleObject(id string, sx, sy, sz float64) error {
	return e.transformObject(id, func(p *Primitive) Transform {
		return ScalingAroundPoint(sx, sy, sz, p.Center())
	})
}

// PivotMode selects the rotation pivot for RotateObject.
type PivotMode int

const (
	PivotCenter PivotMode = iota // object center
	PivotOrigin                  // world origin
	PivotPoint                   // explicit point
)

// ParsePivotMode accepts "center", "origin" or "point".
func ParsePivotMode(s string) (PivotMode, error) {
	switch s {
	case "", "center":
		return PivotCenter, nil
	case "origin":
		return PivotOrigin, nil
	case "point":
		return PivotPoint, nil
	}
	return 0, fmt.Errorf("unknown pivot %q", s)
}

// RotateObject rotates an object by (ax, ay, az) degrees around a pivot.
// point is only used with PivotPoint.
func (e *Engine) RotateObject(id string, ax, ay, az float64, mode PivotMode, point Coordinate) error {
	return e.transformObject(id, func(p *Primitive) Transform {
		switch mode {
		case PivotOrigin:
			return Rotation(ax, ay, az)
		case PivotPoint:
			return RotationAroundPoint(ax, ay, az, point)
		default:
			return RotationAroundPoint(ax, ay, az, p.Center())
		}
	})
}

// RotateObjectAroundAxis rotates an object around the axis through the
// origin and axis.
func (e *Engine) RotateObjectAroundAxis(id string, degrees float64, axis Coordinate) error {
	return e.transformObject(id, func(*Primitive) Transform {
		return RotationAroundAxis(degrees, axis)
	})
}

// SetObjectColor recolors an object.
func (e *Engine) SetObjectColor(id, color string) error {
	p, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p.SetColor(color)
	return nil
}

// LoadDocument replaces the scene. Either every object builds or the
// current scene is left untouched.
func (e *Engine) LoadDocument(doc *document.Document) error {
	if err := doc.CheckNames(); err != nil {
		return err
	}

	objects := make([]*Primitive, 0, len(doc.Objects))
	byID := make(map[string]*Primitive, len(doc.Objects))
	for _, obj := range doc.Objects {
		p, err := BuildPrimitive(obj, e.step)
		if err != nil {
			return err
		}
		if p.ID == "" {
			p.ID = typeid.NewObjectID()
		}
		if _, dup := byID[p.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		objects = append(objects, p)
		byID[p.ID] = p
	}

	window := e.window
	alg := e.clipper.Algorithm()
	if v := doc.Scene.View; v != nil {
		window.Center = Pt(v.Center[0], v.Center[1], v.Center[2])
		window.AngleX, window.AngleY, window.AngleZ = v.AngleX, v.AngleY, v.AngleZ
		// Zero extents mean the view was saved without a zoom level.
		if v.HalfWidth != 0 || v.HalfHeight != 0 {
			if err := window.SetExtents(v.HalfWidth, v.HalfHeight); err != nil {
				return fmt.Errorf("saved view: %w", err)
			}
		}
		if v.LineClip != "" {
			parsed, err := ParseLineClipAlgorithm(v.LineClip)
			if err != nil {
				return err
			}
			alg = parsed
		}
	}

	e.scene = doc.Scene
	e.scene.View = nil
	e.objects = objects
	e.byID = byID
	e.window = window
	e.clipper.SetLineClipAlgorithm(alg)
	e.RetransformAndClipAll()
	return nil
}

// LoadDocumentJSON loads a document from JSON.
func (e *Engine) LoadDocumentJSON(jsonData string) error {
	var doc document.Document
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return err
	}
	return e.LoadDocument(&doc)
}

// LoadSampleDocument loads the built-in demo scene.
func (e *Engine) LoadSampleDocument(sceneID string) error {
	return e.LoadDocument(document.NewSampleDocument(sceneID))
}

// --- Queries ---

// Document returns the scene in its persisted form, camera included.
func (e *Engine) Document() *document.Document {
	doc := &document.Document{Scene: e.scene, Objects: make([]document.ObjectNode, 0, len(e.objects))}
	w := e.window
	doc.Scene.View = &document.View{
		Center:     document.Vertex{w.Center.X, w.Center.Y, w.Center.Z},
		AngleX:     w.AngleX,
		AngleY:     w.AngleY,
		AngleZ:     w.AngleZ,
		HalfWidth:  w.HalfWidth,
		HalfHeight: w.HalfHeight,
		LineClip:   e.clipper.Algorithm().String(),
	}
	for _, p := range e.objects {
		doc.Objects = append(doc.Objects, ObjectNodeFromPrimitive(p))
	}
	return doc
}

// GetDocument returns the document as JSON.
func (e *Engine) GetDocument() string {
	data, _ := json.Marshal(e.Document())
	return string(data)
}

// Window returns a copy of the window state.
func (e *Engine) Window() Window {
	return e.window
}

// LineClipAlgorithm returns the active line clipper.
func (e *Engine) LineClipAlgorithm() LineClipAlgorithm {
	return e.clipper.Algorithm()
}

// ClipBound returns the clip rectangle.
func (e *Engine) ClipBound() orb.Bound {
	return e.clipper.Bound()
}

// Viewport returns the output size.
func (e *Engine) Viewport() Viewport {
	return e.viewport
}

// Objects returns the scene objects in draw order.
func (e *Engine) Objects() []*Primitive {
	return append([]*Primitive(nil), e.objects...)
}

// Object looks up an object by ID.
func (e *Engine) Object(id string) (*Primitive, bool) {
	p, ok := e.byID[id]
	return p, ok
}

// ObjectByName looks up an object by name.
func (e *Engine) ObjectByName(name string) (*Primitive, bool) {
	for _, p := range e.objects {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// DrawCommands compiles the visible scene plus the clip border.
func (e *Engine) DrawCommands() []DrawCommand {
	return CompileDrawCommands(e.objects, e.clipper.Bound())
}

// Render returns the draw commands as JSON.
func (e *Engine) Render() string {
	result, _ := DrawCommandsToJSON(e.DrawCommands())
	return result
}

// HitTest returns the ID of the topmost object drawn at canonical (x, y),
// or an empty string.
func (e *Engine) HitTest(x, y float64) string {
	return HitTest(e.DrawCommands(), x, y, hitTolerance)
}
