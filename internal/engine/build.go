package engine

import (
	"fmt"

	"github.com/inamate/modeler/internal/document"
)

var kindByType = map[document.ObjectType]Kind{
	document.ObjectTypePoint:          KindPoint,
	document.ObjectTypeLine:           KindLine,
	document.ObjectTypePolygon:        KindPolygon,
	document.ObjectTypeBezierCurve:    KindBezierCurve,
	document.ObjectTypeBSplineCurve:   KindBSplineCurve,
	document.ObjectTypeObject3D:       KindMesh,
	document.ObjectTypeBezierSurface:  KindBezierSurface,
	document.ObjectTypeBSplineSurface: KindBSplineSurface,
}

// ObjectType maps a primitive kind to its document type.
func ObjectType(k Kind) document.ObjectType {
	for t, kind := range kindByType {
		if kind == k {
			return t
		}
	}
	return ""
}

func fromVertices(vs []document.Vertex) []Coordinate {
	out := make([]Coordinate, len(vs))
	for i, v := range vs {
		out[i] = Pt(v[0], v[1], v[2])
	}
	return out
}

func toVertices(cs []Coordinate) []document.Vertex {
	out := make([]document.Vertex, len(cs))
	for i, c := range cs {
		out[i] = document.Vertex{c.X, c.Y, c.Z}
	}
	return out
}

// BuildPrimitive builds a primitive from a document object, tessellating
// curves and surfaces with step. Degenerate lines and polygons come back as
// the simpler kind.
func BuildPrimitive(obj document.ObjectNode, step float64) (*Primitive, error) {
	kind, ok := kindByType[obj.Type]
	if !ok {
		return nil, fmt.Errorf("object %q: unknown type %q", obj.Name, obj.Type)
	}

	var (
		p   *Primitive
		err error
	)

	switch kind {
	case KindPoint:
		if len(obj.Vertices) == 0 {
			return nil, fmt.Errorf("point %q: %w", obj.Name, ErrEmptyGeometry)
		}
		p = NewPoint(obj.Name, fromVertices(obj.Vertices[:1])[0])
	case KindLine:
		vs := fromVertices(obj.Vertices)
		switch len(vs) {
		case 0:
			return nil, fmt.Errorf("line %q: %w", obj.Name, ErrEmptyGeometry)
		case 1:
			p = NewPoint(obj.Name, vs[0])
		default:
			p = NewLine(obj.Name, vs[0], vs[1])
		}
	case KindPolygon:
		p, err = NewPolygon(obj.Name, fromVertices(obj.Vertices), obj.Filled)
	case KindBezierCurve:
		p, err = NewBezierCurve(obj.Name, fromVertices(obj.Control), step)
	case KindBSplineCurve:
		p, err = NewBSplineCurve(obj.Name, fromVertices(obj.Control), step)
	case KindMesh:
		faces := make([][]Coordinate, len(obj.Faces))
		for i, f := range obj.Faces {
			faces[i] = fromVertices(f)
		}
		p, err = NewMesh(obj.Name, faces)
	case KindBezierSurface:
		p, err = NewBezierSurface(obj.Name, fromVertices(obj.Control), obj.Rows, obj.Cols, step)
	case KindBSplineSurface:
		p, err = NewBSplineSurface(obj.Name, fromVertices(obj.Control), obj.Rows, obj.Cols, step)
	}
	if err != nil {
		return nil, err
	}

	p.ID = obj.ID
	p.SetColor(obj.Color)
	return p, nil
}

// ObjectNodeFromPrimitive converts a primitive back to its persisted form.
func ObjectNodeFromPrimitive(p *Primitive) document.ObjectNode {
	obj := document.ObjectNode{
		ID:     p.ID,
		Name:   p.Name,
		Type:   ObjectType(p.Kind),
		Color:  p.Color,
		Filled: p.Filled,
	}

	switch p.Kind {
	case KindPoint, KindLine, KindPolygon:
		obj.Vertices = toVertices(p.Source)
	case KindBezierCurve, KindBSplineCurve:
		obj.Control = toVertices(p.Control)
	case KindBezierSurface, KindBSplineSurface:
		obj.Control = toVertices(p.Control)
		obj.Rows, obj.Cols = p.Rows, p.Cols
	case KindMesh:
		obj.Faces = make([][]document.Vertex, len(p.Parts))
		for i := range p.Parts {
			obj.Faces[i] = toVertices(p.Parts[i].Source)
		}
	}
	return obj
}
