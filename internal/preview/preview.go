// Package preview rasterizes draw commands into images.
package preview

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
)

// Options controls the output image.
type Options struct {
	Width       int
	Height      int
	Background  color.Color
	Foreground  color.Color // for commands without a color
	BorderColor color.Color
	StrokeWidth float64
	PointSize   float64
	Labels      bool // draw object names next to their first vertex
}

// DefaultOptions returns a 600x600 white canvas with 1px strokes.
func DefaultOptions() Options {
	return Options{
		Width:       600,
		Height:      600,
		Background:  color.White,
		Foreground:  color.Black,
		BorderColor: color.RGBA{R: 0xc8, G: 0x1e, B: 0x1e, A: 0xff},
		StrokeWidth: 1,
		PointSize:   4,
	}
}

// Render draws commands in order onto a new image.
func Render(commands []engine.DrawCommand, opts Options) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	r := &renderer{
		img:  img,
		z:    vector.NewRasterizer(opts.Width, opts.Height),
		vp:   engine.Viewport{Width: float64(opts.Width), Height: float64(opts.Height)},
		opts: opts,
	}
	for _, cmd := range commands {
		r.command(cmd)
	}
	return img
}

// EncodePNG renders commands and writes them as PNG.
func EncodePNG(w io.Writer, commands []engine.DrawCommand, opts Options) error {
	return png.Encode(w, Render(commands, opts))
}

type renderer struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	vp   engine.Viewport
	opts Options
}

func (r *renderer) colorOf(cmd engine.DrawCommand) color.Color {
	if cmd.Op == engine.OpBorder {
		return r.opts.BorderColor
	}
	if c, ok := document.ParseColor(cmd.Color); ok {
		return c
	}
	return r.opts.Foreground
}

func (r *renderer) pixels(cmd engine.DrawCommand) [][2]float32 {
	out := make([][2]float32, len(cmd.Points))
	for i, p := range cmd.Points {
		x, y := r.vp.Map(p[0], p[1])
		out[i] = [2]float32{float32(x), float32(y)}
	}
	return out
}

func (r *renderer) command(cmd engine.DrawCommand) {
	if len(cmd.Points) == 0 {
		return
	}
	pts := r.pixels(cmd)
	src := image.NewUniform(r.colorOf(cmd))

	switch cmd.Op {
	case engine.OpPoint:
		r.square(pts[0], float32(r.opts.PointSize))
	case engine.OpPolygon, engine.OpBorder:
		// Fill and outline are flushed apart so their windings never cancel.
		if cmd.Fill && len(pts) >= 3 {
			r.polygon(pts)
			r.flush(src)
		}
		r.stroke(pts, true)
	default:
		r.stroke(pts, false)
	}
	r.flush(src)

	if r.opts.Labels && cmd.Name != "" {
		d := font.Drawer{
			Dst:  r.img,
			Src:  src,
			Face: basicfont.Face7x13,
			Dot:  fixed.P(int(pts[0][0])+4, int(pts[0][1])-4),
		}
		d.DrawString(cmd.Name)
	}
}

func (r *renderer) flush(src image.Image) {
	r.z.DrawOp = draw.Over
	r.z.Draw(r.img, r.img.Bounds(), src, image.Point{})
	r.z.Reset(r.opts.Width, r.opts.Height)
}

func (r *renderer) polygon(pts [][2]float32) {
	r.z.MoveTo(pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		r.z.LineTo(p[0], p[1])
	}
	r.z.ClosePath()
}

func (r *renderer) square(c [2]float32, size float32) {
	h := size / 2
	r.z.MoveTo(c[0]-h, c[1]-h)
	r.z.LineTo(c[0]+h, c[1]-h)
	r.z.LineTo(c[0]+h, c[1]+h)
	r.z.LineTo(c[0]-h, c[1]+h)
	r.z.ClosePath()
}

// stroke adds one quad per segment. Every quad has the same winding, so
// overlaps at the joints saturate instead of cancelling.
func (r *renderer) stroke(pts [][2]float32, closed bool) {
	if len(pts) == 1 {
		r.square(pts[0], float32(r.opts.StrokeWidth))
		return
	}
	for i := 1; i < len(pts); i++ {
		r.segment(pts[i-1], pts[i])
	}
	if closed && len(pts) > 2 {
		r.segment(pts[len(pts)-1], pts[0])
	}
}

func (r *renderer) segment(a, b [2]float32) {
	dx, dy := float64(b[0]-a[0]), float64(b[1]-a[1])
	length := math.Hypot(dx, dy)
	if length == 0 {
		r.square(a, float32(r.opts.StrokeWidth))
		return
	}
	h := r.opts.StrokeWidth / 2
	nx, ny := float32(-dy/length*h), float32(dx/length*h)

	r.z.MoveTo(a[0]+nx, a[1]+ny)
	r.z.LineTo(b[0]+nx, b[1]+ny)
	r.z.LineTo(b[0]-nx, b[1]-ny)
	r.z.LineTo(a[0]-nx, a[1]-ny)
	r.z.ClosePath()
}
