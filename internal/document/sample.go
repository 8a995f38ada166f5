package document

import (
	"time"

	"github.com/inamate/modeler/internal/typeid"
)

// NewSampleDocument returns a small demo scene: a cube, a filled triangle,
// an axis pair, one curve of each kind and a Bezier patch.
func NewSampleDocument(sceneID string) *Document {
	now := time.Now().UTC().Format(time.RFC3339)

	cube := func(s float64) [][]Vertex {
		v := [8]Vertex{
			{-s, -s, -s}, {s, -s, -s}, {s, s, -s}, {-s, s, -s},
			{-s, -s, s}, {s, -s, s}, {s, s, s}, {-s, s, s},
		}
		return [][]Vertex{
			{v[0], v[1], v[2], v[3]},
			{v[4], v[5], v[6], v[7]},
			{v[0], v[1], v[5], v[4]},
			{v[3], v[2], v[6], v[7]},
			{v[0], v[3], v[7], v[4]},
			{v[1], v[2], v[6], v[5]},
		}
	}

	var patch []Vertex
	for r := range 4 {
		for c := range 4 {
			z := 0.0
			if (r == 1 || r == 2) && (c == 1 || c == 2) {
				z = 60
			}
			patch = append(patch, Vertex{float64(c)*40 - 260, float64(r)*40 + 80, z})
		}
	}

	return &Document{
		Scene: Scene{
			ID:        sceneID,
			Name:      "Sample",
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Objects: []ObjectNode{
			{
				ID:       typeid.NewObjectID(),
				Name:     "x-axis",
				Type:     ObjectTypeLine,
				Color:    "#c0392b",
				Vertices: []Vertex{{-280, 0, 0}, {280, 0, 0}},
			},
			{
				ID:       typeid.NewObjectID(),
				Name:     "y-axis",
				Type:     ObjectTypeLine,
				Color:    "#27ae60",
				Vertices: []Vertex{{0, -280, 0}, {0, 280, 0}},
			},
			{
				ID:       typeid.NewObjectID(),
				Name:     "origin",
				Type:     ObjectTypePoint,
				Vertices: []Vertex{{0, 0, 0}},
			},
			{
				ID:       typeid.NewObjectID(),
				Name:     "triangle",
				Type:     ObjectTypePolygon,
				Color:    "#2980b9",
				Filled:   true,
				Vertices: []Vertex{{120, 120, 0}, {220, 120, 0}, {170, 200, 0}},
			},
			{
				ID:    typeid.NewObjectID(),
				Name:  "cube",
				Type:  ObjectTypeObject3D,
				Color: "#8e44ad",
				Faces: cube(60),
			},
			{
				ID:      typeid.NewObjectID(),
				Name:    "wave",
				Type:    ObjectTypeBezierCurve,
				Color:   "#d35400",
				Control: []Vertex{{-250, -150, 0}, {-200, -50, 0}, {-150, -250, 0}, {-100, -150, 0}, {-50, -50, 0}, {0, -250, 0}, {50, -150, 0}},
			},
			{
				ID:      typeid.NewObjectID(),
				Name:    "spline",
				Type:    ObjectTypeBSplineCurve,
				Color:   "#16a085",
				Control: []Vertex{{80, -200, 0}, {120, -120, 0}, {180, -240, 0}, {230, -140, 0}, {260, -220, 0}},
			},
			{
				ID:      typeid.NewObjectID(),
				Name:    "patch",
				Type:    ObjectTypeBezierSurface,
				Color:   "#7f8c8d",
				Control: patch,
				Rows:    4,
				Cols:    4,
			},
		},
	}
}
