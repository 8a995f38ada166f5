package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrZoomLimitExceeded is returned when a zoom would push the window's half
// extents outside the configured limits. The window is left unchanged.
var ErrZoomLimitExceeded = errors.New("zoom limit exceeded")

// Axis names one of the three world axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis accepts "x", "y" or "z" in any case.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// WindowLimits bounds the window's half extents.
type WindowLimits struct {
	MinSize     float64
	MaxSize     float64
	DefaultSize float64 // extents after MoveTo
}

// DefaultWindowLimits returns the stock limits.
func DefaultWindowLimits() WindowLimits {
	return WindowLimits{
		MinSize:     0.001,
		MaxSize:     5000,
		DefaultSize: 150,
	}
}

// Window is the virtual camera: a center, accumulated orientation angles in
// degrees and symmetric half extents. It holds no derived state; the view
// transform is computed from it on demand by ViewTransform.
type Window struct {
	Center     Coordinate `json:"center"`
	AngleX     float64    `json:"angleX"`
	AngleY     float64    `json:"angleY"`
	AngleZ     float64    `json:"angleZ"`
	HalfWidth  float64    `json:"halfWidth"`
	HalfHeight float64    `json:"halfHeight"`

	Limits WindowLimits `json:"-"`
}

// NewWindow creates a window centered on the origin whose extents cover a
// viewport of the given size in world units.
func NewWindow(viewportWidth, viewportHeight float64, limits WindowLimits) Window {
	return Window{
		Center:     Pt(0, 0, 0),
		HalfWidth:  viewportWidth / 2,
		HalfHeight: viewportHeight / 2,
		Limits:     limits,
	}
}

// Zoom changes both half extents by step percent of the current half width.
// Negative steps zoom in (shrink), positive steps zoom out (grow).
func (w *Window) Zoom(step float64) error {
	delta := w.HalfWidth * (step / 100)

	if delta < 0 && (w.HalfWidth+delta <= w.Limits.MinSize || w.HalfHeight+delta <= w.Limits.MinSize) {
		return fmt.Errorf("%w: zooming in by %g%% would shrink the window below %g",
			ErrZoomLimitExceeded, -step, w.Limits.MinSize)
	}
	if delta > 0 && (w.HalfWidth+delta >= w.Limits.MaxSize || w.HalfHeight+delta >= w.Limits.MaxSize) {
		return fmt.Errorf("%w: zooming out by %g%% would grow the window past %g",
			ErrZoomLimitExceeded, step, w.Limits.MaxSize)
	}

	w.HalfWidth += delta
	w.HalfHeight += delta
	return nil
}

// Move pans the window. The delta is given in the window's own frame and is
// rotated into world space first, so +x always pans toward the window's
// right edge whatever its orientation.
func (w *Window) Move(dx, dy, dz float64) {
	d := w.orientation().Apply(Pt(dx, dy, dz))
	w.Center = Pt(w.Center.X+d.X, w.Center.Y+d.Y, w.Center.Z+d.Z)
}

// Rotate accumulates degrees onto the given axis angle.
func (w *Window) Rotate(axis Axis, degrees float64) {
	switch axis {
	case AxisX:
		w.AngleX += degrees
	case AxisY:
		w.AngleY += degrees
	case AxisZ:
		w.AngleZ += degrees
	}
}

// MoveTo recenters on c and resets the extents to the default size.
func (w *Window) MoveTo(c Coordinate) {
	w.Center = Pt(c.X, c.Y, c.Z)
	w.HalfWidth = w.Limits.DefaultSize
	w.HalfHeight = w.Limits.DefaultSize
}

// Resize sets the extents to cover a viewport of the given size.
func (w *Window) Resize(viewportWidth, viewportHeight float64) error {
	if err := w.SetExtents(viewportWidth/2, viewportHeight/2); err != nil {
		return fmt.Errorf("viewport %gx%g: %w", viewportWidth, viewportHeight, err)
	}
	return nil
}

// SetExtents sets the half extents. Both must lie strictly between the
// window limits; otherwise the window is left unchanged.
func (w *Window) SetExtents(halfWidth, halfHeight float64) error {
	if err := w.Limits.check(halfWidth, halfHeight); err != nil {
		return err
	}
	w.HalfWidth, w.HalfHeight = halfWidth, halfHeight
	return nil
}

func (l WindowLimits) check(halfWidth, halfHeight float64) error {
	if halfWidth <= l.MinSize || halfHeight <= l.MinSize ||
		halfWidth >= l.MaxSize || halfHeight >= l.MaxSize {
		return fmt.Errorf("%w: half extents %gx%g outside (%g, %g)",
			ErrZoomLimitExceeded, halfWidth, halfHeight, l.MinSize, l.MaxSize)
	}
	return nil
}

// orientation maps window-frame directions into world space. It is the
// inverse of the rotation used by ViewTransform.
func (w Window) orientation() Transform {
	return RotationZ(w.AngleZ).Mul(RotationY(w.AngleY)).Mul(RotationX(w.AngleX))
}

// ViewTransform maps world space into the window's canonical frame:
// translate(-center), then rotate(-angleX, -angleY, -angleZ), then scale by
// (1/halfWidth, 1/halfHeight, 2/(halfWidth+halfHeight)).
func ViewTransform(w Window) Transform {
	return Translation(-w.Center.X, -w.Center.Y, -w.Center.Z).
		Mul(Rotation(-w.AngleX, -w.AngleY, -w.AngleZ)).
		Mul(Scaling(1/w.HalfWidth, 1/w.HalfHeight, 2/(w.HalfWidth+w.HalfHeight)))
}
