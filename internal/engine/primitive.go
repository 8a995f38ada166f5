package engine

import (
	"errors"
	"fmt"
)

// Kind tags the primitive variant.
type Kind int

const (
	KindPoint Kind = iota
	KindLine
	KindPolygon
	KindBezierCurve
	KindBSplineCurve
	KindMesh
	KindBezierSurface
	KindBSplineSurface
)

var kindNames = [...]string{
	KindPoint:          "point",
	KindLine:           "line",
	KindPolygon:        "polygon",
	KindBezierCurve:    "bezier-curve",
	KindBSplineCurve:   "bspline-curve",
	KindMesh:           "mesh",
	KindBezierSurface:  "bezier-surface",
	KindBSplineSurface: "bspline-surface",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown primitive kind %q", s)
}

// IsCurve reports whether k is a tessellated curve.
func (k Kind) IsCurve() bool {
	return k == KindBezierCurve || k == KindBSplineCurve
}

// IsSurface reports whether k is a tessellated surface.
func (k Kind) IsSurface() bool {
	return k == KindBezierSurface || k == KindBSplineSurface
}

// IsComposite reports whether k is drawn through its Parts.
func (k Kind) IsComposite() bool {
	return k == KindMesh || k.IsSurface()
}

// ErrEmptyGeometry is returned when a primitive is built without vertices.
var ErrEmptyGeometry = errors.New("primitive has no vertices")

// Primitive is one scene object.
//
// Source holds model-space vertices; for curves it holds the tessellated
// samples. Control keeps the control points of curves and surfaces. Meshes
// and surfaces draw through Parts: one polygon per face, or one curve per
// isoline. Derived is the canonical-space output of the last pipeline pass
// and is never persisted.
type Primitive struct {
	ID     string
	Name   string
	Kind   Kind
	Color  string
	Filled bool

	Source  []Coordinate
	Control []Coordinate
	Rows    int
	Cols    int
	Parts   []Primitive

	Derived []Coordinate
	Visible bool
}

func copyCoords(in []Coordinate) []Coordinate {
	out := make([]Coordinate, len(in))
	for i, c := range in {
		out[i] = Pt(c.X, c.Y, c.Z)
	}
	return out
}

// NewPoint creates a point primitive.
func NewPoint(name string, c Coordinate) *Primitive {
	return &Primitive{Name: name, Kind: KindPoint, Source: []Coordinate{Pt(c.X, c.Y, c.Z)}}
}

// NewLine creates a line. A zero-length line becomes a point.
func NewLine(name string, a, b Coordinate) *Primitive {
	if a.Equal(b) {
		return NewPoint(name, a)
	}
	return &Primitive{Name: name, Kind: KindLine, Source: copyCoords([]Coordinate{a, b})}
}

// NewPolygon creates a polygon. One vertex becomes a point and two become a
// line.
func NewPolygon(name string, vertices []Coordinate, filled bool) (*Primitive, error) {
	switch len(vertices) {
	case 0:
		return nil, fmt.Errorf("polygon %q: %w", name, ErrEmptyGeometry)
	case 1:
		return NewPoint(name, vertices[0]), nil
	case 2:
		return NewLine(name, vertices[0], vertices[1]), nil
	}
	return &Primitive{Name: name, Kind: KindPolygon, Filled: filled, Source: copyCoords(vertices)}, nil
}

// NewBezierCurve creates and tessellates a Bezier curve.
func NewBezierCurve(name string, control []Coordinate, step float64) (*Primitive, error) {
	p := &Primitive{Name: name, Kind: KindBezierCurve}
	if err := p.Generate(control, step); err != nil {
		return nil, fmt.Errorf("curve %q: %w", name, err)
	}
	return p, nil
}

// NewBSplineCurve creates and tessellates a B-spline curve.
func NewBSplineCurve(name string, control []Coordinate, step float64) (*Primitive, error) {
	p := &Primitive{Name: name, Kind: KindBSplineCurve}
	if err := p.Generate(control, step); err != nil {
		return nil, fmt.Errorf("curve %q: %w", name, err)
	}
	return p, nil
}

// NewMesh creates a mesh from its faces. Faces with fewer than three
// vertices are kept as lines or points.
func NewMesh(name string, faces [][]Coordinate) (*Primitive, error) {
	if len(faces) == 0 {
		return nil, fmt.Errorf("mesh %q: %w", name, ErrEmptyGeometry)
	}
	p := &Primitive{Name: name, Kind: KindMesh, Parts: make([]Primitive, 0, len(faces))}
	for i, f := range faces {
		face, err := NewPolygon(fmt.Sprintf("%s_face%d", name, i), f, false)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", name, err)
		}
		p.Parts = append(p.Parts, *face)
	}
	return p, nil
}

// NewBezierSurface creates and tessellates a Bezier surface from a
// row-major control grid.
func NewBezierSurface(name string, control []Coordinate, rows, cols int, step float64) (*Primitive, error) {
	p := &Primitive{Name: name, Kind: KindBezierSurface, Rows: rows, Cols: cols}
	if err := p.Generate(control, step); err != nil {
		return nil, fmt.Errorf("surface %q: %w", name, err)
	}
	return p, nil
}

// NewBSplineSurface creates and tessellates a B-spline surface from a
// row-major control grid.
func NewBSplineSurface(name string, control []Coordinate, rows, cols int, step float64) (*Primitive, error) {
	p := &Primitive{Name: name, Kind: KindBSplineSurface, Rows: rows, Cols: cols}
	if err := p.Generate(control, step); err != nil {
		return nil, fmt.Errorf("surface %q: %w", name, err)
	}
	return p, nil
}

// Generate tessellates a curve or surface from control. It is a no-op when
// the primitive already holds control points; nothing is stored on error.
func (p *Primitive) Generate(control []Coordinate, step float64) error {
	if len(p.Control) != 0 {
		return nil
	}

	switch p.Kind {
	case KindBezierCurve, KindBSplineCurve:
		gen := BezierCurvePoints
		if p.Kind == KindBSplineCurve {
			gen = BSplineCurvePoints
		}
		samples, err := gen(control, step)
		if err != nil {
			return err
		}
		p.Source = samples

	case KindBezierSurface, KindBSplineSurface:
		gen := BezierSurfaceCurves
		curveKind := KindBezierCurve
		if p.Kind == KindBSplineSurface {
			gen, curveKind = BSplineSurfaceCurves, KindBSplineCurve
		}
		curves, err := gen(control, p.Rows, p.Cols, step)
		if err != nil {
			return err
		}
		p.Parts = make([]Primitive, len(curves))
		for i, samples := range curves {
			p.Parts[i] = Primitive{
				Name:   fmt.Sprintf("%s_curve%d", p.Name, i),
				Kind:   curveKind,
				Color:  p.Color,
				Source: samples,
			}
		}

	default:
		return fmt.Errorf("%s primitives have no control points", p.Kind)
	}

	p.Control = copyCoords(control)
	return nil
}

// Points returns every model-space vertex of p, including those of its
// parts.
func (p *Primitive) Points() []Coordinate {
	if !p.Kind.IsComposite() {
		return p.Source
	}
	var all []Coordinate
	for i := range p.Parts {
		all = append(all, p.Parts[i].Source...)
	}
	return all
}

// Center returns the centroid of the model-space vertices.
func (p *Primitive) Center() Coordinate {
	return Centroid(p.Points())
}

// Apply transforms the model-space geometry of p, control points included.
func (p *Primitive) Apply(t Transform) {
	p.Source = transformAll(p.Source, p.Source, t)
	p.Control = transformAll(p.Control, p.Control, t)
	for i := range p.Parts {
		p.Parts[i].Apply(t)
	}
}

// project rebuilds Derived from Source through the view transform.
func (p *Primitive) project(view Transform) {
	p.Derived = transformAll(p.Derived, p.Source, view)
	for i := range p.Parts {
		p.Parts[i].project(view)
	}
}

// clear empties every derived buffer.
func (p *Primitive) clear() {
	p.Derived = p.Derived[:0]
	p.Visible = false
	for i := range p.Parts {
		p.Parts[i].clear()
	}
}

// SetColor sets the color of p and its parts.
func (p *Primitive) SetColor(color string) {
	p.Color = color
	for i := range p.Parts {
		p.Parts[i].Color = color
	}
}
