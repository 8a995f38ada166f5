package objfile

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// objLexer tokenizes Wavefront OBJ and MTL text. A backslash at the end of
// a line joins it with the next one.
var objLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Continuation", Pattern: `\\[ \t]*\r?\n`},
	{Name: "Newline", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t\f\v]+`},

	// Vertex references: v, v/vt, v//vn, v/vt/vn
	{Name: "Ref", Pattern: `[-+]?\d+/[-+]?\d*(/[-+]?\d*)?`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},

	// Directives, names and file names
	{Name: "Ident", Pattern: `[^\s#\\0-9+\-.][^\s#\\]*`},
})

// objFile is the parsed form of a whole file. Every statement ends with a
// newline; the parser appends one to the input.
type objFile struct {
	Statements []*statement `( @@? Newline )*`
}

// statement is one directive. Exactly one field is set.
type statement struct {
	Pos lexer.Position

	Vertex  []float64    `  "v" @Number+`
	Object  *string      `| "o" @( Ident | Number )`
	Points  []string     `| "p" @( Ref | Number )+`
	Lines   []string     `| "l" @( Ref | Number )+`
	Face    []string     `| "f" @( Ref | Number )+`
	Curve   *curveStmt   `| "curv" @@`
	Surface *surfaceStmt `| "surf" @@`
	Bezier  []string     `| "bzp" @( Ref | Number )+`
	BSpline []string     `| "bsp" @( Ref | Number )+`
	CSType  *csTypeStmt  `| "cstype" @@`
	UseMtl  *string      `| "usemtl" @( Ident | Number )`
	MtlLib  []string     `| "mtllib" @( Ident | Number )+`
	NewMtl  *string      `| "newmtl" @( Ident | Number )`
	Diffuse []float64    `| "Kd" @Number+`
	Ignored string       `| @( "deg" | "end" | "g" | "s" | "w" | "vt" | "vn" | "vp" | "parm" | "trim" | "hole" | "scrv" | "sp" | "con" | "mg" ) ( Ident | Number | Ref )*`
	Unknown string       `| @Ident ( Ident | Number | Ref )*`
}

type curveStmt struct {
	U0   float64  `@Number`
	U1   float64  `@Number`
	Refs []string `@( Ref | Number )+`
}

type surfaceStmt struct {
	S0   float64  `@Number`
	S1   float64  `@Number`
	T0   float64  `@Number`
	T1   float64  `@Number`
	Refs []string `@( Ref | Number )+`
}

type csTypeStmt struct {
	Rational bool   `@"rat"?`
	Type     string `@Ident`
}

var objParser = participle.MustBuild[objFile](
	participle.Lexer(objLexer),
	participle.Elide("Comment", "Whitespace", "Continuation"),
	participle.UseLookahead(2),
)

// directive names the statement kind for error reporting.
func (s *statement) directive() string {
	switch {
	case s.Vertex != nil:
		return "v"
	case s.Object != nil:
		return "o"
	case s.Points != nil:
		return "p"
	case s.Lines != nil:
		return "l"
	case s.Face != nil:
		return "f"
	case s.Curve != nil:
		return "curv"
	case s.Surface != nil:
		return "surf"
	case s.Bezier != nil:
		return "bzp"
	case s.BSpline != nil:
		return "bsp"
	case s.CSType != nil:
		return "cstype"
	case s.UseMtl != nil:
		return "usemtl"
	case s.MtlLib != nil:
		return "mtllib"
	case s.NewMtl != nil:
		return "newmtl"
	case s.Diffuse != nil:
		return "Kd"
	case s.Ignored != "":
		return s.Ignored
	}
	return s.Unknown
}
