package document

import (
	"errors"
	"fmt"
)

// Document is the persisted form of a scene. Only model-space geometry is
// stored; tessellated and canonical coordinates are rebuilt on load.
type Document struct {
	Scene   Scene        `json:"scene"`
	Objects []ObjectNode `json:"objects"`
}

type Scene struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   int    `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	View      *View  `json:"view,omitempty"`
}

// View is the saved camera.
type View struct {
	Center     Vertex  `json:"center"`
	AngleX     float64 `json:"angleX"`
	AngleY     float64 `json:"angleY"`
	AngleZ     float64 `json:"angleZ"`
	HalfWidth  float64 `json:"halfWidth"`
	HalfHeight float64 `json:"halfHeight"`
	LineClip   string  `json:"lineClip,omitempty"`
}

type ObjectType string

const (
	ObjectTypePoint          ObjectType = "Point"
	ObjectTypeLine           ObjectType = "Line"
	ObjectTypePolygon        ObjectType = "Polygon"
	ObjectTypeBezierCurve    ObjectType = "BezierCurve"
	ObjectTypeBSplineCurve   ObjectType = "BSplineCurve"
	ObjectTypeObject3D       ObjectType = "Object3D"
	ObjectTypeBezierSurface  ObjectType = "BezierSurface"
	ObjectTypeBSplineSurface ObjectType = "BSplineSurface"
)

// Vertex is a model-space point as [x, y, z].
type Vertex [3]float64

// ObjectNode is one scene object.
//
// Points, lines and polygons use Vertices. Curves and surfaces use Control,
// surfaces laid out row-major as Rows x Cols. Object3D uses Faces.
type ObjectNode struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     ObjectType `json:"type"`
	Color    string     `json:"color,omitempty"`
	Filled   bool       `json:"filled,omitempty"`
	Vertices []Vertex   `json:"vertices,omitempty"`
	Control  []Vertex   `json:"control,omitempty"`
	Rows     int        `json:"rows,omitempty"`
	Cols     int        `json:"cols,omitempty"`
	Faces    [][]Vertex `json:"faces,omitempty"`
}

var (
	ErrEmptyName     = errors.New("object name is empty")
	ErrDuplicateName = errors.New("object name already in use")
)

// NewEmptyDocument creates an empty document for a new scene
func NewEmptyDocument(sceneID, name string) *Document {
	return &Document{
		Scene: Scene{
			ID:        sceneID,
			Name:      name,
			Version:   1,
			CreatedAt: "", // Will be set by caller
			UpdatedAt: "",
		},
		Objects: []ObjectNode{},
	}
}

// Object finds an object by ID.
func (d *Document) Object(id string) (*ObjectNode, bool) {
	for i := range d.Objects {
		if d.Objects[i].ID == id {
			return &d.Objects[i], true
		}
	}
	return nil, false
}

// CheckNames verifies every object has a unique, non-empty name.
func (d *Document) CheckNames() error {
	seen := make(map[string]bool, len(d.Objects))
	for _, obj := range d.Objects {
		if obj.Name == "" {
			return fmt.Errorf("object %s: %w", obj.ID, ErrEmptyName)
		}
		if seen[obj.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, obj.Name)
		}
		seen[obj.Name] = true
	}
	return nil
}
