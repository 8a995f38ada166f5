package engine

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Draw operations.
const (
	OpPoint    = "point"
	OpPolyline = "polyline"
	OpPolygon  = "polygon"
	OpBorder   = "border"
)

// hitTolerance is the pick distance in canonical units.
const hitTolerance = 0.02

// DrawCommand is one clipped shape in canonical coordinates, ready for a
// frontend or rasterizer to map through a Viewport.
type DrawCommand struct {
	Op       string      `json:"op"`
	ObjectID string      `json:"objectId,omitempty"`
	Name     string      `json:"name,omitempty"`
	Kind     string      `json:"kind,omitempty"`
	Color    string      `json:"color,omitempty"`
	Fill     bool        `json:"fill,omitempty"`
	Points   []orb.Point `json:"points"`
	Bounds   orb.Bound   `json:"bounds"`
}

// withBounds fills Bounds from Points.
func (c DrawCommand) withBounds() DrawCommand {
	c.Bounds = orb.MultiPoint(c.Points).Bound()
	return c
}

// CompileDrawCommands emits the visible objects in painter's order followed
// by the clip border.
func CompileDrawCommands(objects []*Primitive, border orb.Bound) []DrawCommand {
	var commands []DrawCommand
	for _, p := range objects {
		if p.Visible {
			compilePrimitive(p, p.ID, &commands)
		}
	}
	commands = append(commands, DrawCommand{
		Op:     OpBorder,
		Points: ringPoints(border),
		Bounds: border,
	})
	return commands
}

func compilePrimitive(p *Primitive, objectID string, commands *[]DrawCommand) {
	if p.Kind.IsComposite() {
		for i := range p.Parts {
			if p.Parts[i].Visible {
				compilePrimitive(&p.Parts[i], objectID, commands)
			}
		}
		return
	}
	if len(p.Derived) == 0 {
		return
	}

	cmd := DrawCommand{
		ObjectID: objectID,
		Name:     p.Name,
		Kind:     p.Kind.String(),
		Color:    p.Color,
		Points:   make([]orb.Point, len(p.Derived)),
	}
	for i, c := range p.Derived {
		cmd.Points[i] = orb.Point{c.X, c.Y}
	}

	switch p.Kind {
	case KindPoint:
		cmd.Op = OpPoint
	case KindPolygon:
		cmd.Op = OpPolygon
		cmd.Fill = p.Filled
	default:
		cmd.Op = OpPolyline
	}
	*commands = append(*commands, cmd.withBounds())
}

func ringPoints(b orb.Bound) []orb.Point {
	return []orb.Point{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
		{b.Min[0], b.Max[1]},
	}
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the object ID of the frontmost command within tol of
// (x, y), or an empty string. Filled polygons hit anywhere inside.
func HitTest(commands []DrawCommand, x, y, tol float64) string {
	pt := orb.Point{x, y}
	for i := len(commands) - 1; i >= 0; i-- {
		cmd := commands[i]
		if cmd.ObjectID == "" || len(cmd.Points) == 0 {
			continue
		}
		if !cmd.Bounds.Pad(tol).Contains(pt) {
			continue
		}
		if hits(cmd, pt, tol) {
			return cmd.ObjectID
		}
	}
	return ""
}

func hits(cmd DrawCommand, pt orb.Point, tol float64) bool {
	switch cmd.Op {
	case OpPoint:
		return planar.Distance(cmd.Points[0], pt) <= tol
	case OpPolygon:
		ring := append(orb.Ring(nil), cmd.Points...)
		ring = append(ring, cmd.Points[0])
		if cmd.Fill && planar.RingContains(ring, pt) {
			return true
		}
		return nearPath(ring, pt, tol)
	default:
		return nearPath(cmd.Points, pt, tol)
	}
}

func nearPath(path []orb.Point, pt orb.Point, tol float64) bool {
	if len(path) == 1 {
		return planar.Distance(path[0], pt) <= tol
	}
	for i := 1; i < len(path); i++ {
		if planar.DistanceFromSegment(path[i-1], path[i], pt) <= tol {
			return true
		}
	}
	return false
}

// Viewport is the output surface in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Map converts canonical (x, y) in [-1, 1]² to pixel coordinates with the
// origin at the top-left corner.
func (v Viewport) Map(x, y float64) (float64, float64) {
	return (x + 1) / 2 * v.Width, (1 - (y+1)/2) * v.Height
}

// Unmap is the inverse of Map.
func (v Viewport) Unmap(px, py float64) (float64, float64) {
	return px/v.Width*2 - 1, 1 - py/v.Height*2
}
