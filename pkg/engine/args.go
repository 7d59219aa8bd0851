package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/isr/pkg/scene"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value, treated as a flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// argReader
// ---------------------------------------------------------------------------

// argReader pulls typed keyword arguments for one builtin call. The first
// failure sticks; later reads return zero values and err reports it.
type argReader struct {
	fn   string
	kw   map[string]zygo.Sexp
	used map[string]bool
	err  error
}

func newArgReader(fn string, pa kwArgs) *argReader {
	return &argReader{fn: fn, kw: pa.kw, used: make(map[string]bool)}
}

func (r *argReader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %s: %w", r.fn, key, err)
	}
}

// lookup marks key as consumed and returns its value. A missing required
// key is an error.
func (r *argReader) lookup(key string, required bool) (zygo.Sexp, bool) {
	r.used[key] = true
	v, ok := r.kw[key]
	if !ok && required {
		r.fail(key, fmt.Errorf("required argument missing"))
	}
	return v, ok
}

func (r *argReader) float(key string, def float64, required bool) float64 {
	v, ok := r.lookup(key, required)
	if !ok {
		return def
	}
	f, err := toFloat64(v)
	if err != nil {
		r.fail(key, err)
	}
	return f
}

func (r *argReader) integer(key string, def int) int {
	v, ok := r.lookup(key, false)
	if !ok {
		return def
	}
	n, err := toInt(v)
	if err != nil {
		r.fail(key, err)
	}
	return n
}

func (r *argReader) flag(key string, def bool) bool {
	v, ok := r.lookup(key, false)
	if !ok {
		return def
	}
	b, err := toBool(v)
	if err != nil {
		r.fail(key, err)
	}
	return b
}

func (r *argReader) vec3(key string, def v3.Vec, required bool) v3.Vec {
	v, ok := r.lookup(key, required)
	if !ok {
		return def
	}
	vec, err := toVec3(v)
	if err != nil {
		r.fail(key, err)
	}
	return vec
}

func (r *argReader) vec2(key string, required bool) v2.Vec {
	v, ok := r.lookup(key, required)
	if !ok {
		return v2.Vec{}
	}
	vec, err := toVec2(v)
	if err != nil {
		r.fail(key, err)
	}
	return vec
}

func (r *argReader) vec3List(key string, n int) []v3.Vec {
	v, ok := r.lookup(key, true)
	if !ok {
		return make([]v3.Vec, n)
	}
	items, err := sexpListToSlice(v)
	if err != nil {
		r.fail(key, err)
		return make([]v3.Vec, n)
	}
	if len(items) != n {
		r.fail(key, fmt.Errorf("expected %d vec3 values, got %d", n, len(items)))
		return make([]v3.Vec, n)
	}
	out := make([]v3.Vec, n)
	for i, item := range items {
		vec, err := toVec3(item)
		if err != nil {
			r.fail(key, fmt.Errorf("entry %d: %w", i, err))
		}
		out[i] = vec
	}
	return out
}

// color reads :color, defaulting to DefaultColor.
func (r *argReader) color() scene.Color {
	v, ok := r.lookup("color", false)
	if !ok {
		return DefaultColor
	}
	c, ok := v.(*sexpColor)
	if !ok {
		r.fail("color", fmt.Errorf("expected rgba, got %T (%s)", v, v.SexpString(nil)))
		return DefaultColor
	}
	return c.color
}

// material reads the optional :material as a factory argument list.
func (r *argReader) material() []scene.Material {
	v, ok := r.lookup("material", false)
	if !ok {
		return nil
	}
	m, err := toMaterial(v)
	if err != nil {
		r.fail("material", err)
		return nil
	}
	return []scene.Material{m}
}

// done returns the first read error, or an error naming any keyword the
// builtin does not accept.
func (r *argReader) done() error {
	if r.err != nil {
		return r.err
	}
	var unknown []string
	for k := range r.kw {
		if !r.used[k] {
			unknown = append(unknown, ":"+k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%s: unknown argument %s", r.fn, strings.Join(unknown, ", "))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; floats are rejected.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false and treats a bare trailing keyword as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toVec2(s zygo.Sexp) (v2.Vec, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return v2.Vec{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

// toMaterial extracts a scene.Material from a sexpMaterial.
func toMaterial(s zygo.Sexp) (scene.Material, error) {
	if m, ok := s.(*sexpMaterial); ok {
		return m.mat, nil
	}
	return scene.Material{}, fmt.Errorf("expected material, got %T (%s)", s, s.SexpString(nil))
}

// toNode extracts a scene node from a sexpNode.
func toNode(s zygo.Sexp) (*scene.Node, error) {
	if n, ok := s.(*sexpNode); ok {
		return n.node, nil
	}
	return nil, fmt.Errorf("expected scene node, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}
