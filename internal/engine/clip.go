package engine

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// LineClipAlgorithm selects the line clipping strategy.
type LineClipAlgorithm int

const (
	CohenSutherland LineClipAlgorithm = iota
	LiangBarsky
)

func (a LineClipAlgorithm) String() string {
	switch a {
	case CohenSutherland:
		return "cohen-sutherland"
	case LiangBarsky:
		return "liang-barsky"
	}
	return fmt.Sprintf("LineClipAlgorithm(%d)", int(a))
}

// ParseLineClipAlgorithm accepts the long names or "cs" / "lb".
func ParseLineClipAlgorithm(s string) (LineClipAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cohen-sutherland", "cohensutherland", "cs":
		return CohenSutherland, nil
	case "liang-barsky", "liangbarsky", "lb":
		return LiangBarsky, nil
	}
	return 0, fmt.Errorf("unknown line clip algorithm %q", s)
}

// Outcode is the Cohen-Sutherland region code of a point.
type Outcode uint8

const (
	OutInside Outcode = 0
	OutLeft   Outcode = 1 // x < minX
	OutRight  Outcode = 2 // x > maxX
	OutBottom Outcode = 4 // y < minY
	OutTop    Outcode = 8 // y > maxY
)

// DefaultClipMargin is the half size of the stock clip rectangle.
const DefaultClipMargin = 0.95

// ClipBound returns the square [-margin, margin]².
func ClipBound(margin float64) orb.Bound {
	return orb.Bound{Min: orb.Point{-margin, -margin}, Max: orb.Point{margin, margin}}
}

// Clipper clips canonical-space geometry against a fixed rectangle.
// It keeps scratch buffers between calls and is not safe for concurrent use.
type Clipper struct {
	bound     orb.Bound
	algorithm LineClipAlgorithm

	scratch [2][]Coordinate
}

// NewClipper creates a clipper for the given boundary using Cohen-Sutherland.
func NewClipper(bound orb.Bound) *Clipper {
	return &Clipper{bound: bound}
}

// Bound returns the clip rectangle.
func (c *Clipper) Bound() orb.Bound {
	return c.bound
}

// Algorithm returns the active line clipping strategy.
func (c *Clipper) Algorithm() LineClipAlgorithm {
	return c.algorithm
}

// SetLineClipAlgorithm switches the line clipping strategy.
func (c *Clipper) SetLineClipAlgorithm(alg LineClipAlgorithm) {
	c.algorithm = alg
}

func (c *Clipper) minX() float64 { return c.bound.Min[0] }
func (c *Clipper) minY() float64 { return c.bound.Min[1] }
func (c *Clipper) maxX() float64 { return c.bound.Max[0] }
func (c *Clipper) maxY() float64 { return c.bound.Max[1] }

// ClipPoint reports whether p lies inside the rectangle, borders included.
func (c *Clipper) ClipPoint(p Coordinate) bool {
	return p.X >= c.minX() && p.X <= c.maxX() &&
		p.Y >= c.minY() && p.Y <= c.maxY()
}

// Outcode computes the region code of p.
func (c *Clipper) Outcode(p Coordinate) Outcode {
	code := OutInside

	if p.X < c.minX() {
		code |= OutLeft
	} else if p.X > c.maxX() {
		code |= OutRight
	}

	if p.Y < c.minY() {
		code |= OutBottom
	} else if p.Y > c.maxY() {
		code |= OutTop
	}

	return code
}

// ClipLine clips the segment a-b with the active strategy. It returns the
// visible part and whether anything is visible.
func (c *Clipper) ClipLine(a, b Coordinate) (Coordinate, Coordinate, bool) {
	if c.algorithm == LiangBarsky {
		return c.LiangBarsky(a, b)
	}
	return c.CohenSutherland(a, b)
}

// lerp interpolates all spatial axes between a and b.
func lerp(a, b Coordinate, t float64) Coordinate {
	return Pt(a.X+t*(b.X-a.X), a.Y+t*(b.Y-a.Y), a.Z+t*(b.Z-a.Z))
}

// CohenSutherland clips a-b using region codes. Each iteration moves one
// outside endpoint onto the boundary it violates, checking top, bottom,
// right, then left.
func (c *Clipper) CohenSutherland(a, b Coordinate) (Coordinate, Coordinate, bool) {
	if a.Equal(b) {
		return a, b, c.ClipPoint(a)
	}

	codeA := c.Outcode(a)
	codeB := c.Outcode(b)

	for {
		if codeA|codeB == 0 {
			return a, b, true
		}
		if codeA&codeB != 0 {
			return a, b, false
		}

		codeOut, moveA := codeA, true
		if codeOut == 0 {
			codeOut, moveA = codeB, false
		}

		var p Coordinate
		switch {
		case codeOut&OutTop != 0:
			p = lerp(a, b, (c.maxY()-a.Y)/(b.Y-a.Y))
			p.Y = c.maxY()
		case codeOut&OutBottom != 0:
			p = lerp(a, b, (c.minY()-a.Y)/(b.Y-a.Y))
			p.Y = c.minY()
		case codeOut&OutRight != 0:
			p = lerp(a, b, (c.maxX()-a.X)/(b.X-a.X))
			p.X = c.maxX()
		case codeOut&OutLeft != 0:
			p = lerp(a, b, (c.minX()-a.X)/(b.X-a.X))
			p.X = c.minX()
		}

		if moveA {
			a, codeA = p, c.Outcode(p)
		} else {
			b, codeB = p, c.Outcode(p)
		}
	}
}

// LiangBarsky clips a-b in parametric form a + u*(b-a), narrowing [u1, u2]
// against the left, right, bottom and top boundaries.
func (c *Clipper) LiangBarsky(a, b Coordinate) (Coordinate, Coordinate, bool) {
	if a.Equal(b) {
		return a, b, c.ClipPoint(a)
	}

	dx, dy := b.X-a.X, b.Y-a.Y
	ps := [4]float64{-dx, dx, -dy, dy}
	qs := [4]float64{a.X - c.minX(), c.maxX() - a.X, a.Y - c.minY(), c.maxY() - a.Y}

	u1, u2 := 0.0, 1.0
	for i := range ps {
		p, q := ps[i], qs[i]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}

		r := q / p
		if p < 0 {
			u1 = max(u1, r)
		} else {
			u2 = min(u2, r)
		}
	}

	if u1 > u2 {
		return a, b, false
	}

	outA, outB := a, b
	if u2 < 1 {
		outB = lerp(a, b, u2)
	}
	if u1 > 0 {
		outA = lerp(a, b, u1)
	}
	return outA, outB, true
}

type clipEdge int

const (
	edgeLeft clipEdge = iota
	edgeRight
	edgeBottom
	edgeTop
)

func (c *Clipper) inside(e clipEdge, p Coordinate) bool {
	switch e {
	case edgeLeft:
		return p.X >= c.minX()
	case edgeRight:
		return p.X <= c.maxX()
	case edgeBottom:
		return p.Y >= c.minY()
	default:
		return p.Y <= c.maxY()
	}
}

// crossing intersects a-b with the line of edge e. a and b must lie on
// opposite sides of it.
func (c *Clipper) crossing(e clipEdge, a, b Coordinate) Coordinate {
	var p Coordinate
	switch e {
	case edgeLeft:
		p = lerp(a, b, (c.minX()-a.X)/(b.X-a.X))
		p.X = c.minX()
	case edgeRight:
		p = lerp(a, b, (c.maxX()-a.X)/(b.X-a.X))
		p.X = c.maxX()
	case edgeBottom:
		p = lerp(a, b, (c.minY()-a.Y)/(b.Y-a.Y))
		p.Y = c.minY()
	default:
		p = lerp(a, b, (c.maxY()-a.Y)/(b.Y-a.Y))
		p.Y = c.maxY()
	}
	return p
}

// clipAgainst runs one Sutherland-Hodgman pass, reading in and appending to
// out[:0]. The polygon is closed implicitly from the last vertex to the first.
func (c *Clipper) clipAgainst(e clipEdge, in, out []Coordinate) []Coordinate {
	out = out[:0]
	n := len(in)
	for i := range n {
		c0, c1 := in[i], in[(i+1)%n]
		in0, in1 := c.inside(e, c0), c.inside(e, c1)

		switch {
		case !in0 && !in1:
			// out -> out
		case in0 && in1:
			out = append(out, c1)
		case in0:
			out = append(out, c.crossing(e, c0, c1))
		default:
			out = append(out, c.crossing(e, c0, c1), c1)
		}
	}
	return out
}

// ClipPolygon clips a polygon with Sutherland-Hodgman (left, right, bottom,
// top). The input is not modified. An empty result means the polygon is
// entirely outside.
func (c *Clipper) ClipPolygon(in []Coordinate) []Coordinate {
	if len(in) == 0 {
		return nil
	}

	a := c.clipAgainst(edgeLeft, in, c.scratch[0])
	b := c.clipAgainst(edgeRight, a, c.scratch[1])
	a = c.clipAgainst(edgeBottom, b, a)
	b = c.clipAgainst(edgeTop, a, b)
	c.scratch[0], c.scratch[1] = a, b

	if len(b) == 0 {
		return nil
	}
	return append([]Coordinate(nil), b...)
}

// ClipCurve clips a tessellated polyline. Points outside the rectangle are
// dropped and the boundary crossing is spliced in wherever the path enters
// or leaves it. An empty result means the curve is entirely outside.
func (c *Clipper) ClipCurve(in []Coordinate) []Coordinate {
	var path []Coordinate
	prevInside := true
	var prev Coordinate

	for _, cur := range in {
		if c.ClipPoint(cur) {
			if !prevInside {
				if entry, _, ok := c.ClipLine(prev, cur); ok {
					path = append(path, entry)
				}
			}
			path = append(path, cur)
			prevInside = true
		} else {
			if prevInside && len(path) != 0 {
				if _, exit, ok := c.ClipLine(prev, cur); ok {
					path = append(path, exit)
				}
			}
			prevInside = false
		}
		prev = cur
	}

	return path
}

// Clip clips p.Derived in place of the primitive's previous output and
// reports whether any part of p remains visible. Composite primitives clip
// each part on its own; rejected parts end up with an empty Derived.
func (c *Clipper) Clip(p *Primitive) bool {
	switch p.Kind {
	case KindPoint:
		if len(p.Derived) == 0 || !c.ClipPoint(p.Derived[0]) {
			p.Derived = p.Derived[:0]
			return false
		}
		return true

	case KindLine:
		if len(p.Derived) < 2 {
			p.Derived = p.Derived[:0]
			return false
		}
		a, b, ok := c.ClipLine(p.Derived[0], p.Derived[1])
		if !ok {
			p.Derived = p.Derived[:0]
			return false
		}
		p.Derived = []Coordinate{a, b}
		return true

	case KindPolygon:
		p.Derived = c.ClipPolygon(p.Derived)
		return len(p.Derived) != 0

	case KindBezierCurve, KindBSplineCurve:
		p.Derived = c.ClipCurve(p.Derived)
		return len(p.Derived) != 0

	case KindMesh, KindBezierSurface, KindBSplineSurface:
		visible := false
		for i := range p.Parts {
			part := &p.Parts[i]
			part.Visible = c.Clip(part)
			visible = visible || part.Visible
		}
		return visible
	}

	panic(fmt.Sprintf("engine: clip of unknown primitive kind %d", p.Kind))
}
