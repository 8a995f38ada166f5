package engine

import "fmt"

// Coordinate is a homogeneous point. W is 1 for every point built by this
// package and only changes through Transform.Apply.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"-"`
}

// Pt returns the point (x, y, z) with W = 1.
func Pt(x, y, z float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: z, W: 1}
}

// Pt2 returns the point (x, y, 0).
func Pt2(x, y float64) Coordinate {
	return Pt(x, y, 0)
}

// Add returns c + o on the spatial axes.
func (c Coordinate) Add(o Coordinate) Coordinate {
	return Coordinate{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z, W: c.W}
}

// Sub returns c - o on the spatial axes.
func (c Coordinate) Sub(o Coordinate) Coordinate {
	return Coordinate{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z, W: c.W}
}

// Scale multiplies the spatial axes by k.
func (c Coordinate) Scale(k float64) Coordinate {
	return Coordinate{X: c.X * k, Y: c.Y * k, Z: c.Z * k, W: c.W}
}

// Neg returns the point mirrored through the origin.
func (c Coordinate) Neg() Coordinate {
	return Coordinate{X: -c.X, Y: -c.Y, Z: -c.Z, W: c.W}
}

// IsZero reports whether every spatial axis is exactly zero.
func (c Coordinate) IsZero() bool {
	return c.X == 0 && c.Y == 0 && c.Z == 0
}

// Equal compares the spatial axes with exact floating point equality.
// W is ignored.
func (c Coordinate) Equal(o Coordinate) bool {
	return c.X == o.X && c.Y == o.Y && c.Z == o.Z
}

// Transform returns c multiplied by t.
func (c Coordinate) Transform(t Transform) Coordinate {
	return t.Apply(c)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g, %g, %g)", c.X, c.Y, c.Z)
}

// Centroid returns the arithmetic mean of coords, or the origin when empty.
func Centroid(coords []Coordinate) Coordinate {
	if len(coords) == 0 {
		return Pt(0, 0, 0)
	}
	var sum Coordinate
	for _, c := range coords {
		sum = sum.Add(c)
	}
	return Pt(sum.X, sum.Y, sum.Z).Scale(1 / float64(len(coords)))
}

// transformAll writes coords multiplied by t into dst, reusing its storage.
func transformAll(dst, coords []Coordinate, t Transform) []Coordinate {
	dst = dst[:0]
	for _, c := range coords {
		dst = append(dst, t.Apply(c))
	}
	return dst
}
