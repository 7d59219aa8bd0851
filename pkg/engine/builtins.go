package engine

import (
	"fmt"

	"github.com/chazu/isr/pkg/scene"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultColor is used by primitives created without :color.
var DefaultColor = scene.RGB(0.8, 0.8, 0.8)

// DefaultMengerIterations is the menger-sponge refinement when
// :iterations is omitted.
const DefaultMengerIterations = 4

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene Lisp source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: julia-set -> julia_set
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. Line comments: ; and ;; become //, which is what zygomys parses.
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters; a minus
		// operator or a negative literal is left alone.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpVec2 wraps a v2.Vec, used for the Julia constant.
type sexpVec2 struct {
	vec v2.Vec
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

type sexpColor struct {
	color scene.Color
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgba %g %g %g %g)", c.color.R, c.color.G, c.color.B, c.color.A)
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// sexpMaterial wraps a scene.Material so it can be passed between builtins.
type sexpMaterial struct {
	mat scene.Material
}

func (m *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(material :texture %g :param %g)", m.mat.Texture, m.mat.Param)
}
func (m *sexpMaterial) Type() *zygo.RegisteredType { return nil }

// sexpNode wraps a scene node so it can be combined and transformed.
type sexpNode struct {
	node *scene.Node
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %s)", n.node.Kind(), n.node.ID())
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

type builtin func(args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs all scene DSL builtins into a zygomys
// environment. The builtins add nodes to s as they run.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *scene.Scene) {
	builtins := map[string]builtin{
		"vec3":     vec3Builtin,
		"vec2":     vec2Builtin,
		"rgba":     rgbaBuiltin,
		"material": materialBuiltin,

		"sphere":        primitiveBuiltin(s, "sphere", sphere),
		"cone":          primitiveBuiltin(s, "cone", cone),
		"cylinder":      primitiveBuiltin(s, "cylinder", cylinder),
		"cuboid":        primitiveBuiltin(s, "cuboid", cuboid),
		"tetrahedron":   primitiveBuiltin(s, "tetrahedron", tetrahedron),
		"plane":         primitiveBuiltin(s, "plane", plane),
		"menger_sponge": primitiveBuiltin(s, "menger-sponge", mengerSponge),
		"mandelbulb":    primitiveBuiltin(s, "mandelbulb", mandelbulb),
		"julia_set":     primitiveBuiltin(s, "julia-set", juliaSet),

		"union":        operatorBuiltin("union", s.Union),
		"intersection": operatorBuiltin("intersection", s.Intersection),
		"difference":   operatorBuiltin("difference", s.Difference),

		"translate": translateBuiltin,
		"scale":     scaleBuiltin,
		"rotate":    rotateBuiltin,
	}

	for name, fn := range builtins {
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			return fn(args)
		})
	}
}

// ---------------------------------------------------------------------------
// Values
// ---------------------------------------------------------------------------

func floats(fn string, args []zygo.Sexp) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// (vec3 1 2 3)
func vec3Builtin(args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	f, err := floats("vec3", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpVec3{vec: v3.Vec{X: f[0], Y: f[1], Z: f[2]}}, nil
}

// (vec2 -0.2 0.6)
func vec2Builtin(args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
	}
	f, err := floats("vec2", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpVec2{vec: v2.Vec{X: f[0], Y: f[1]}}, nil
}

// (rgba 1 0 0) or (rgba 1 0 0 0.5)
func rgbaBuiltin(args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 && len(args) != 4 {
		return zygo.SexpNull, fmt.Errorf("rgba requires 3 or 4 arguments, got %d", len(args))
	}
	f, err := floats("rgba", args)
	if err != nil {
		return zygo.SexpNull, err
	}
	c := scene.RGB(float32(f[0]), float32(f[1]), float32(f[2]))
	if len(f) == 4 {
		c.A = float32(f[3])
	}
	return &sexpColor{color: c}, nil
}

// (material :texture 2 :param 0.5)
func materialBuiltin(args []zygo.Sexp) (zygo.Sexp, error) {
	r := newArgReader("material", parseArgs(args))
	m := scene.Material{
		Texture: r.float("texture", 0, false),
		Param:   r.float("param", 0, false),
	}
	if err := r.done(); err != nil {
		return zygo.SexpNull, err
	}
	return &sexpMaterial{mat: m}, nil
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// factory reads a primitive's geometry keywords and returns the
// constructor that adds it. Color and material are read by
// primitiveBuiltin.
type factory func(r *argReader) construct

type construct func(s *scene.Scene, c scene.Color, mat []scene.Material) *scene.Node

// primitiveBuiltin wraps f so that no node is added when an argument is
// rejected.
func primitiveBuiltin(s *scene.Scene, fn string, f factory) builtin {
	return func(args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("%s takes keyword arguments only", fn)
		}
		r := newArgReader(fn, pa)
		c, mat := r.color(), r.material()
		build := f(r)
		if err := r.done(); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpNode{node: build(s, c, mat)}, nil
	}
}

// (sphere :center (vec3 0 0 0) :radius 1)
func sphere(r *argReader) construct {
	center := r.vec3("center", v3.Vec{}, false)
	radius := r.float("radius", 0, true)
	return func(s *scene.Scene, c scene.Color, mat []scene.Material) *scene.Node {
		return s.Sphere(c, center, radius, mat...)
	}
}

// (cone :base (vec3 0 0 0) :apex (vec3 0 0 2) :radius 0.5)
func cone(r *argReader) construct {
	base := r.vec3("base", v3.Vec{}, true)
	apex := r.vec3("apex", v3.Vec{}, true)
	radius := r.float("radius", 0, true)
	return func(s *scene.Scene, c scene.Color, mat []scene.Material) *scene.Node {
		return s.Cone(c, base, apex, radius, mat...)
	}
}

// (cylinder :a (vec3 0 0 0) :b (vec3 0 0 4) :radius 1)
func cylinder(r *argReader) construct {
	a := r.vec3("a", v3.Vec{}, true)
	b := r.vec3("b", v3.Vec{}, true)
	radius := r.float("radius", 0, true)
	return func(s *scene.Scene, c scene.Color, mat []scene.Material) *scene.Node {
		return s.Cylinder(c, a, b, radius, mat...)
	}
}

// (cuboid :center (vec3 0 0 0) :size (vec3 2 2 2) :angles (vec3 0 0 0))
func cuboid(r *argReader) construct {
	center := r.vec3("center", v3.Vec{}, false)
	size := r.vec3("size", v3.Vec{}, true)
	angles := r.vec3("angles", v3.Vec{}, false)
	return func(s *scene.Scene, c scene.Color, mat []scene.Material) *scene.Node {
		return s.Cuboid(c, center,
			size.X, size.Y, size.Z,
			angles.X, angles.Y, angles.Z,
			mat...)
	}
}

// (tetrahedron :vertices (list v0 v1 v2 v3))
func tetrahedron(r *argReader) construct {
	v := r.vec3List("vertices", 4)
	return func(s *scene.Scene, c scene.Color, mat []scene.Material) *scene.Node {
		return s.Tetrahedron(c, v[0], v[1], v[2], v[3], mat...)
	}
}

// (plane :normal (vec3 0 1 0) :height -1)
func plane(r *argReader) construct {
	normal := r.vec3("normal", v3.Vec{}, true)
	height := r.float("height", 0, false)
	return func(s *scene.Scene, c scene.Color, mat []scene.Material) *scene.Node {
		return s.Plane(c, normal, height, mat...)
	}
}

// (menger-sponge :center (vec3 0 0 0) :size 3 :iterations 4)
func mengerSponge(r *argReader) construct {
	center := r.vec3("center", v3.Vec{}, false)
	size := r.float("size", 0, true)
	iters := r.integer("iterations", DefaultMengerIterations)
	return func(s *scene.Scene, c scene.Color, mat []scene.Material) *scene.Node {
		return s.MengerSponge(c, center, size, iters, mat...)
	}
}

// (mandelbulb :center (vec3 0 0 0) :scale 1 :power 8 :iterations 64)
func mandelbulb(r *argReader) construct {
	center := r.vec3("center", v3.Vec{}, false)
	scale := r.float("scale", 1, false)
	power := r.float("power", scene.DefaultMandelbulbPower, false)
	iters := r.integer("iterations", scene.DefaultFractalIterations)
	return func(s *scene.Scene, c scene.Color, mat []scene.Material) *scene.Node {
		return s.Mandelbulb(c, center, scale, power, iters, mat...)
	}
}

// (julia-set :center (vec3 0 0 0) :scale 1 :c (vec2 -0.2 0.6) :iterations 64 :orbit-trap true)
func juliaSet(r *argReader) construct {
	center := r.vec3("center", v3.Vec{}, false)
	scale := r.float("scale", 1, false)
	k := r.vec2("c", true)
	iters := r.integer("iterations", scene.DefaultFractalIterations)
	trap := r.flag("orbit-trap", false)
	return func(s *scene.Scene, c scene.Color, mat []scene.Material) *scene.Node {
		return s.JuliaSet(c, center, scale, k, iters, trap, mat...)
	}
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// operatorBuiltin checks the operand contract up front so misuse is an
// evaluation error instead of a scene panic.
func operatorBuiltin(fn string, combine func(a, b *scene.Node) *scene.Node) builtin {
	return func(args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires exactly 2 arguments, got %d", fn, len(args))
		}
		var operands [2]*scene.Node
		for i, side := range []string{"left", "right"} {
			n, err := toNode(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %s: %w", fn, side, err)
			}
			if n.Parent().IsValid() {
				return zygo.SexpNull, fmt.Errorf("%s: %s operand %s is already part of %s",
					fn, side, n.ID(), n.Parent())
			}
			operands[i] = n
		}
		if operands[0] == operands[1] {
			return zygo.SexpNull, fmt.Errorf("%s: node %s used as both operands", fn, operands[0].ID())
		}
		return &sexpNode{node: combine(operands[0], operands[1])}, nil
	}
}

// ---------------------------------------------------------------------------
// Transforms
// ---------------------------------------------------------------------------

func transformTarget(fn string, s zygo.Sexp) (*scene.Node, error) {
	n, err := toNode(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	if n.Kind().IsOperator() {
		return nil, fmt.Errorf("%s: %s is an operator; only primitives can be transformed", fn, n.ID())
	}
	return n, nil
}

// (translate node (vec3 1 0 0))
func translateBuiltin(args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("translate requires a node and a vec3, got %d arguments", len(args))
	}
	n, err := transformTarget("translate", args[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	d, err := toVec3(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("translate: %w", err)
	}
	if err := scene.CheckVec("translation", d); err != nil {
		return zygo.SexpNull, fmt.Errorf("translate: %w", err)
	}
	n.Translate(d)
	return args[0], nil
}

// (scale node 2)
func scaleBuiltin(args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("scale requires a node and a factor, got %d arguments", len(args))
	}
	n, err := transformTarget("scale", args[0])
	if err != nil {
		return zygo.SexpNull, err
	}
	f, err := toFloat64(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("scale: %w", err)
	}
	if err := scene.CheckScale(f); err != nil {
		return zygo.SexpNull, fmt.Errorf("scale: %w", err)
	}
	n.Scale(f)
	return args[0], nil
}

// (rotate node :axis (vec3 0 0 1) :angle 1.57 :pivot (vec3 1 0 0))
func rotateBuiltin(args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("rotate requires exactly one node, got %d", len(pa.positional))
	}
	n, err := transformTarget("rotate", pa.positional[0])
	if err != nil {
		return zygo.SexpNull, err
	}

	r := newArgReader("rotate", pa)
	axis := r.vec3("axis", v3.Vec{}, true)
	angle := r.float("angle", 0, true)
	pivot, hasPivot := r.kw["pivot"]
	r.used["pivot"] = true
	if err := r.done(); err != nil {
		return zygo.SexpNull, err
	}

	if err := scene.CheckAxis(axis); err != nil {
		return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
	}
	if err := scene.CheckAngle(angle); err != nil {
		return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
	}

	if !hasPivot {
		n.Rotate(axis, angle)
		return pa.positional[0], nil
	}
	p, err := toVec3(pivot)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("rotate: pivot: %w", err)
	}
	if err := scene.CheckVec("pivot", p); err != nil {
		return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
	}
	n.RotateAbout(axis, angle, p)
	return pa.positional[0], nil
}
