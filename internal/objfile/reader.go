// Package objfile reads and writes scenes as Wavefront OBJ text, with
// materials carried as MTL diffuse colors.
package objfile

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/inamate/modeler/internal/document"
	"github.com/inamate/modeler/internal/engine"
)

var (
	// ErrMissingCurveType is returned for a curv or surf directive that is
	// not preceded by cstype.
	ErrMissingCurveType = errors.New("free-form geometry without cstype")
	// ErrBadVertexIndex is returned for a vertex reference that is not an
	// integer or points outside the vertices read so far.
	ErrBadVertexIndex = errors.New("invalid vertex index")
	// ErrUnsupportedCurveType is returned for a cstype other than bezier or
	// bspline.
	ErrUnsupportedCurveType = errors.New("unsupported curve type")
	// ErrMalformedStatement is returned for a known directive whose
	// arguments do not fit it, such as "v 1 x 2".
	ErrMalformedStatement = errors.New("malformed statement")
)

// directives lists the statements the grammar reads; one of these arriving
// through the unknown-directive fallback means its arguments were wrong.
var directives = map[string]bool{
	"v": true, "o": true, "p": true, "l": true, "f": true,
	"curv": true, "surf": true, "bzp": true, "bsp": true, "cstype": true,
	"usemtl": true, "mtllib": true, "newmtl": true, "Kd": true,
}

// ParseError locates a failure in the input.
type ParseError struct {
	Line int
	Unit string // directive being read
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Unit, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MaterialLoader opens the material library named by an mtllib directive.
type MaterialLoader func(name string) (io.ReadCloser, error)

// Options tunes Decode.
type Options struct {
	// Name is used for geometry that appears before any o directive.
	Name string
	// Materials resolves mtllib directives. When nil, mtllib is skipped and
	// only materials defined inline are known.
	Materials MaterialLoader
}

type freeForm int

const (
	freeFormNone freeForm = iota
	freeFormBezier
	freeFormBSpline
)

// decoder turns parsed statements into document objects.
type decoder struct {
	opts Options

	vertices  []document.Vertex
	objects   []document.ObjectNode
	materials map[string]string

	name   string
	sub    int
	color  string
	cstype freeForm
	faces  [][]document.Vertex
	mtl    string // current newmtl target
}

// Decode reads every object in r. Either the whole input is read or no
// objects are returned.
func Decode(r io.Reader, opts Options) ([]document.ObjectNode, error) {
	file, err := parse(r)
	if err != nil {
		return nil, err
	}

	if opts.Name == "" {
		opts.Name = "object"
	}
	d := &decoder{
		opts:      opts,
		name:      opts.Name,
		materials: make(map[string]string),
	}
	for _, st := range file.Statements {
		if err := d.statement(st); err != nil {
			return nil, &ParseError{Line: st.Pos.Line, Unit: st.directive(), Err: err}
		}
	}
	d.flushFaces()
	return d.objects, nil
}

// DecodeString is Decode over a string.
func DecodeString(s string, opts Options) ([]document.ObjectNode, error) {
	return Decode(strings.NewReader(s), opts)
}

// DecodeMaterials reads an MTL library into a material name → color map.
func DecodeMaterials(r io.Reader) (map[string]string, error) {
	file, err := parse(r)
	if err != nil {
		return nil, err
	}
	d := &decoder{materials: make(map[string]string)}
	for _, st := range file.Statements {
		if err := d.material(st); err != nil {
			return nil, &ParseError{Line: st.Pos.Line, Unit: st.directive(), Err: err}
		}
	}
	return d.materials, nil
}

func parse(r io.Reader) (*objFile, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}
	src = append(src, '\n')
	file, err := objParser.ParseBytes("", src)
	if err != nil {
		return nil, syntaxError(src, err)
	}
	return file, nil
}

// syntaxError locates a grammar failure. A known directive that fails
// part way through its arguments, such as "v 1 x 2", is reported as
// ErrMalformedStatement under that directive.
func syntaxError(src []byte, err error) error {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return fmt.Errorf("read obj: %w", err)
	}
	line := perr.Position().Line
	if name := leadingWord(src, line); directives[name] {
		return &ParseError{Line: line, Unit: name, Err: fmt.Errorf("%w: %s", ErrMalformedStatement, perr.Message())}
	}
	return &ParseError{Line: line, Unit: "syntax", Err: err}
}

// leadingWord returns the first field of the 1-based line n.
func leadingWord(src []byte, n int) string {
	for i, l := range strings.Split(string(src), "\n") {
		if i+1 == n {
			if fields := strings.Fields(l); len(fields) > 0 {
				return fields[0]
			}
			return ""
		}
	}
	return ""
}

func (d *decoder) statement(st *statement) error {
	switch {
	case st.Vertex != nil:
		return d.vertex(st.Vertex)
	case st.Object != nil:
		d.flushFaces()
		d.name = *st.Object
		d.sub = 0
	case st.Points != nil:
		return d.points(st.Points)
	case st.Lines != nil:
		return d.polyline(st.Lines)
	case st.Face != nil:
		face, err := d.resolve(st.Face)
		if err != nil {
			return err
		}
		d.faces = append(d.faces, face)
	case st.Curve != nil:
		return d.curve(st.Curve.Refs)
	case st.Surface != nil:
		if d.cstype == freeFormNone {
			return ErrMissingCurveType
		}
		t := document.ObjectTypeBezierSurface
		if d.cstype == freeFormBSpline {
			t = document.ObjectTypeBSplineSurface
		}
		return d.surface(t, st.Surface.Refs)
	case st.Bezier != nil:
		return d.surface(document.ObjectTypeBezierSurface, st.Bezier)
	case st.BSpline != nil:
		return d.surface(document.ObjectTypeBSplineSurface, st.BSpline)
	case st.CSType != nil:
		switch st.CSType.Type {
		case "bezier":
			d.cstype = freeFormBezier
		case "bspline":
			d.cstype = freeFormBSpline
		default:
			return fmt.Errorf("%w: %q", ErrUnsupportedCurveType, st.CSType.Type)
		}
	case st.UseMtl != nil:
		d.color = d.materials[*st.UseMtl]
	case st.MtlLib != nil:
		return d.loadLibraries(st.MtlLib)
	default:
		return d.material(st)
	}
	return nil
}

// material handles the MTL directives, which may also appear inline.
func (d *decoder) material(st *statement) error {
	switch {
	case st.NewMtl != nil:
		d.mtl = *st.NewMtl
		if _, ok := d.materials[d.mtl]; !ok {
			d.materials[d.mtl] = ""
		}
	case st.Diffuse != nil:
		if len(st.Diffuse) < 3 {
			return fmt.Errorf("Kd needs 3 components, got %d", len(st.Diffuse))
		}
		if d.mtl == "" {
			return errors.New("Kd outside newmtl")
		}
		d.materials[d.mtl] = rgbToHex(st.Diffuse[0], st.Diffuse[1], st.Diffuse[2])
	case directives[st.Unknown]:
		return fmt.Errorf("%w: %s", ErrMalformedStatement, st.Unknown)
	}
	return nil
}

func (d *decoder) loadLibraries(names []string) error {
	if d.opts.Materials == nil {
		return nil
	}
	for _, name := range names {
		rc, err := d.opts.Materials(name)
		if err != nil {
			return fmt.Errorf("open material library %s: %w", name, err)
		}
		mats, err := DecodeMaterials(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("material library %s: %w", name, err)
		}
		for k, v := range mats {
			d.materials[k] = v
		}
	}
	return nil
}

func (d *decoder) vertex(vs []float64) error {
	if len(vs) < 3 {
		return fmt.Errorf("vertex needs x y z, got %d values", len(vs))
	}
	d.vertices = append(d.vertices, document.Vertex{vs[0], vs[1], vs[2]})
	return nil
}

// resolve maps 1-based or negative vertex references to vertices.
func (d *decoder) resolve(refs []string) ([]document.Vertex, error) {
	out := make([]document.Vertex, 0, len(refs))
	n := len(d.vertices)
	for _, ref := range refs {
		head, _, _ := strings.Cut(ref, "/")
		idx, err := strconv.Atoi(head)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadVertexIndex, ref)
		}
		if idx < 0 {
			idx += n
		} else {
			idx--
		}
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: %s with %d vertices", ErrBadVertexIndex, ref, n)
		}
		out = append(out, d.vertices[idx])
	}
	return out, nil
}

// nextName returns the current object name, suffixed for every object after
// the first one under the same o directive.
func (d *decoder) nextName() string {
	name := d.name
	if d.sub > 0 {
		name = fmt.Sprintf("%s_sub%d", d.name, d.sub)
	}
	d.sub++
	return name
}

func (d *decoder) add(obj document.ObjectNode) {
	obj.Name = d.nextName()
	obj.Color = d.color
	d.objects = append(d.objects, obj)
}

// flushFaces closes the pending mesh, if any.
func (d *decoder) flushFaces() {
	if len(d.faces) == 0 {
		return
	}
	d.add(document.ObjectNode{Type: document.ObjectTypeObject3D, Faces: d.faces})
	d.faces = nil
}

func (d *decoder) points(refs []string) error {
	d.flushFaces()
	vs, err := d.resolve(refs)
	if err != nil {
		return err
	}
	for _, v := range vs {
		d.add(document.ObjectNode{Type: document.ObjectTypePoint, Vertices: []document.Vertex{v}})
	}
	return nil
}

func (d *decoder) polyline(refs []string) error {
	d.flushFaces()
	vs, err := d.resolve(refs)
	if err != nil {
		return err
	}
	t := document.ObjectTypePolygon
	switch len(vs) {
	case 1:
		t = document.ObjectTypePoint
	case 2:
		t = document.ObjectTypeLine
	}
	d.add(document.ObjectNode{Type: t, Vertices: vs})
	return nil
}

func (d *decoder) curve(refs []string) error {
	if d.cstype == freeFormNone {
		return ErrMissingCurveType
	}
	d.flushFaces()
	vs, err := d.resolve(refs)
	if err != nil {
		return err
	}

	t := document.ObjectTypeBezierCurve
	check := engine.CheckBezierCurve
	if d.cstype == freeFormBSpline {
		t, check = document.ObjectTypeBSplineCurve, engine.CheckBSplineCurve
	}
	if err := check(len(vs)); err != nil {
		return err
	}
	d.add(document.ObjectNode{Type: t, Control: vs})
	return nil
}

// surface reads one 4x4 patch.
func (d *decoder) surface(t document.ObjectType, refs []string) error {
	d.flushFaces()
	vs, err := d.resolve(refs)
	if err != nil {
		return err
	}
	if len(vs) != 16 {
		return fmt.Errorf("%w: a surface patch needs 16 points, got %d", engine.ErrInvalidControlCount, len(vs))
	}
	d.add(document.ObjectNode{Type: t, Control: vs, Rows: 4, Cols: 4})
	return nil
}

func rgbToHex(r, g, b float64) string {
	c := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return document.FormatColor(color.RGBA{R: c(r), G: c(g), B: c(b), A: 0xff})
}
