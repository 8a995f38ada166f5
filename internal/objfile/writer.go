package objfile

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/inamate/modeler/internal/document"
)

// Encoder writes objects as OBJ text.
type Encoder struct {
	w      io.Writer
	mtllib string
}

// NewEncoder returns an encoder writing to w. Materials are written inline
// unless SetMaterialLibrary is called.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// SetMaterialLibrary makes Encode reference name through mtllib instead of
// writing materials inline. Write the library with EncodeMaterials.
func (e *Encoder) SetMaterialLibrary(name string) {
	e.mtllib = name
}

// Encode writes objects in order. Surfaces larger than one patch are
// written one surf statement per patch.
func (e *Encoder) Encode(objects []document.ObjectNode) error {
	bw := bufio.NewWriter(e.w)
	pal := newPalette(objects)

	if e.mtllib != "" {
		fmt.Fprintf(bw, "mtllib %s\n\n", e.mtllib)
	} else if len(pal.order) > 0 {
		pal.write(bw)
	}

	ow := &objWriter{w: bw, pal: pal}
	for i := range objects {
		if err := ow.object(&objects[i]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeMaterials writes the MTL library for the colors used by objects.
func EncodeMaterials(w io.Writer, objects []document.ObjectNode) error {
	bw := bufio.NewWriter(w)
	newPalette(objects).write(bw)
	return bw.Flush()
}

// palette names each distinct color in order of first use.
type palette struct {
	names map[string]string
	order []string
}

func newPalette(objects []document.ObjectNode) *palette {
	p := &palette{names: make(map[string]string)}
	for _, obj := range objects {
		if _, ok := document.ParseColor(obj.Color); !ok {
			continue
		}
		if _, seen := p.names[obj.Color]; !seen {
			p.names[obj.Color] = fmt.Sprintf("color%d", len(p.order))
			p.order = append(p.order, obj.Color)
		}
	}
	return p
}

func (p *palette) write(w io.Writer) {
	for _, c := range p.order {
		rgb, _ := document.ParseColor(c)
		fmt.Fprintf(w, "newmtl %s\nKd %s %s %s\n\n", p.names[c], unit(rgb.R), unit(rgb.G), unit(rgb.B))
	}
}

// nameRe matches names that read back as a single Ident token.
var nameRe = regexp.MustCompile(`^[^\s#\\0-9+\-.][^\s#\\]*$`)

type objWriter struct {
	w     *bufio.Writer
	pal   *palette
	count int // vertices written so far
}

func unit(v uint8) string {
	return ff(float64(v) / 255)
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// vertices writes vs and returns the 1-based index of the first one.
func (o *objWriter) vertices(vs []document.Vertex) int {
	first := o.count + 1
	for _, v := range vs {
		fmt.Fprintf(o.w, "v %s %s %s\n", ff(v[0]), ff(v[1]), ff(v[2]))
	}
	o.count += len(vs)
	return first
}

func (o *objWriter) header(obj *document.ObjectNode) {
	fmt.Fprintf(o.w, "\no %s\n", obj.Name)
	if len(o.pal.order) == 0 {
		return
	}
	// Materials persist across objects, so uncolored ones reset explicitly.
	name, ok := o.pal.names[obj.Color]
	if !ok {
		name = "default"
	}
	fmt.Fprintf(o.w, "usemtl %s\n", name)
}

func (o *objWriter) refs(directive string, idx []int) {
	var sb strings.Builder
	sb.WriteString(directive)
	for _, i := range idx {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(i))
	}
	sb.WriteByte('\n')
	o.w.WriteString(sb.String())
}

func span(first, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = first + i
	}
	return idx
}

func (o *objWriter) object(obj *document.ObjectNode) error {
	if !nameRe.MatchString(obj.Name) {
		return fmt.Errorf("object name %q cannot be written as obj", obj.Name)
	}

	switch obj.Type {
	case document.ObjectTypePoint, document.ObjectTypeLine, document.ObjectTypePolygon:
		first := o.vertices(obj.Vertices)
		o.header(obj)
		directive := "l"
		if obj.Type == document.ObjectTypePoint {
			directive = "p"
		}
		o.refs(directive, span(first, len(obj.Vertices)))

	case document.ObjectTypeBezierCurve, document.ObjectTypeBSplineCurve:
		first := o.vertices(obj.Control)
		o.header(obj)
		fmt.Fprintf(o.w, "cstype %s\ndeg 3\n", curveType(obj.Type))
		o.refs("curv 0 1", span(first, len(obj.Control)))
		o.w.WriteString("end\n")

	case document.ObjectTypeObject3D:
		firsts := make([]int, len(obj.Faces))
		for i, f := range obj.Faces {
			firsts[i] = o.vertices(f)
		}
		o.header(obj)
		for i, f := range obj.Faces {
			o.refs("f", span(firsts[i], len(f)))
		}

	case document.ObjectTypeBezierSurface, document.ObjectTypeBSplineSurface:
		if obj.Rows*obj.Cols != len(obj.Control) || obj.Rows < 4 || obj.Cols < 4 {
			return fmt.Errorf("surface %q: bad %dx%d grid for %d points", obj.Name, obj.Rows, obj.Cols, len(obj.Control))
		}
		first := o.vertices(obj.Control)
		o.header(obj)
		fmt.Fprintf(o.w, "cstype %s\ndeg 3 3\n", curveType(obj.Type))
		stride := 3
		if obj.Type == document.ObjectTypeBSplineSurface {
			stride = 1
		}
		for r0 := 0; r0+3 < obj.Rows; r0 += stride {
			for c0 := 0; c0+3 < obj.Cols; c0 += stride {
				idx := make([]int, 0, 16)
				for r := r0; r < r0+4; r++ {
					for c := c0; c < c0+4; c++ {
						idx = append(idx, first+r*obj.Cols+c)
					}
				}
				o.refs("surf 0 1 0 1", idx)
				o.w.WriteString("end\n")
			}
		}

	default:
		return fmt.Errorf("object %q: unknown type %q", obj.Name, obj.Type)
	}
	return nil
}

func curveType(t document.ObjectType) string {
	if t == document.ObjectTypeBSplineCurve || t == document.ObjectTypeBSplineSurface {
		return "bspline"
	}
	return "bezier"
}
