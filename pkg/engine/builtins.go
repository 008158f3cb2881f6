package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/kerf/pkg/scene"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites a kerf script into source zygomys accepts:
//
//  1. :radius becomes the string "__kw_radius", so keywords need no global
//     symbols and cannot collide with user variables.
//  2. cut-plane becomes cut_plane; zygomys reads a hyphen as subtraction.
//  3. ; comments become // comments.
//
// String literals pass through untouched.
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
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
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
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW returns the keyword name carried by s, if s is a rewritten keyword.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(str.S, kwPrefix)
}

// kwArgs is a builtin's argument list split into keywords and positionals.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs splits args. A keyword consumes the argument after it.
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
				// Trailing keyword with no value: treat as a flag.
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

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool accepts a zygomys boolean.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toVec2 extracts a parameter-space point from a sexpVec2.
func toVec2(s zygo.Sexp) (v2.Vec, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return v2.Vec{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

// toSurfaceName accepts a surface reference or a name string.
func toSurfaceName(s zygo.Sexp) (string, error) {
	if v, ok := s.(*sexpSurface); ok {
		return v.spec.Name, nil
	}
	name, err := toKeywordString(s)
	if err != nil {
		return "", fmt.Errorf("expected surface or name: %w", err)
	}
	return name, nil
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

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a 3D point or direction.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpVec2 wraps a parameter-space point.
type sexpVec2 struct {
	vec v2.Vec
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpHole wraps a scene.Hole until a surface builtin consumes it.
type sexpHole struct {
	hole scene.Hole
}

func (h *sexpHole) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(hole (vec2 %g %g) %g)", h.hole.Center.X, h.hole.Center.Y, h.hole.Radius)
}
func (h *sexpHole) Type() *zygo.RegisteredType { return nil }

// sexpSurface is returned by the surface builtins and accepted by
// intersect.
type sexpSurface struct {
	spec *scene.SurfaceSpec
}

func (s *sexpSurface) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", s.spec.Kind, s.spec.Name)
}
func (s *sexpSurface) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// surfaceField reads one keyword argument into a spec field.
type surfaceField struct {
	kw  string
	vec *v3.Vec
	num *float64
}

// defineSurface parses the shared shape of the surface builtins:
// (kind "name" :kw value ... :holes (list (hole ...))). Keywords not listed
// in fields are rejected.
func defineSurface(sc *scene.Scene, kind scene.Kind, args []zygo.Sexp, fields func(*scene.SurfaceSpec) []surfaceField) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("%s requires a name argument", kind)
	}
	name, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: name: %w", kind, err)
	}

	spec := &scene.SurfaceSpec{Name: name, Kind: kind}
	known := map[string]surfaceField{}
	for _, f := range fields(spec) {
		known[f.kw] = f
	}
	for kw, v := range pa.kw {
		if kw == "holes" {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: holes: %w", kind, err)
			}
			for _, item := range items {
				h, ok := item.(*sexpHole)
				if !ok {
					return zygo.SexpNull, fmt.Errorf("%s: holes: expected hole, got %T", kind, item)
				}
				spec.Holes = append(spec.Holes, h.hole)
			}
			continue
		}
		f, ok := known[kw]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s: unknown keyword :%s", kind, kw)
		}
		switch {
		case f.vec != nil:
			if *f.vec, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %s: %w", kind, kw, err)
			}
		case f.num != nil:
			if *f.num, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %s: %w", kind, kw, err)
			}
		}
	}

	if err := sc.Add(spec); err != nil {
		return zygo.SexpNull, err
	}
	return &sexpSurface{spec: spec}, nil
}

// registerBuiltins installs the scripting builtins into a zygomys
// environment. They populate sc during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sc *scene.Scene) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (vec2 u v)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		u, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: u: %w", err)
		}
		v, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: v: %w", err)
		}
		return &sexpVec2{vec: v2.Vec{X: u, Y: v}}, nil
	})

	// -----------------------------------------------------------------------
	// (hole (vec2 0 0) 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("hole", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("hole requires a center and a radius")
		}
		c, err := toVec2(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hole: center: %w", err)
		}
		r, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hole: radius: %w", err)
		}
		return &sexpHole{hole: scene.Hole{Center: c, Radius: r}}, nil
	})

	// -----------------------------------------------------------------------
	// (plane "floor" :origin (vec3 0 0 0) :normal (vec3 0 0 1) :size 4
	//        :holes (list (hole (vec2 0 0) 0.5)))
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return defineSurface(sc, scene.KindPlane, args, func(s *scene.SurfaceSpec) []surfaceField {
			s.Axis = v3.Vec{Z: 1}
			s.Size = 1
			return []surfaceField{
				{kw: "origin", vec: &s.Center},
				{kw: "normal", vec: &s.Axis},
				{kw: "size", num: &s.Size},
			}
		})
	})

	// -----------------------------------------------------------------------
	// (sphere "ball" :center (vec3 0 0 0) :radius 1)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return defineSurface(sc, scene.KindSphere, args, func(s *scene.SurfaceSpec) []surfaceField {
			s.Radius = 1
			return []surfaceField{
				{kw: "center", vec: &s.Center},
				{kw: "radius", num: &s.Radius},
			}
		})
	})

	// -----------------------------------------------------------------------
	// (cylinder "pipe" :base (vec3 0 0 -1) :axis (vec3 0 0 1) :radius 0.5
	//           :height 2)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return defineSurface(sc, scene.KindCylinder, args, func(s *scene.SurfaceSpec) []surfaceField {
			s.Axis = v3.Vec{Z: 1}
			s.Radius, s.Height = 1, 1
			return []surfaceField{
				{kw: "base", vec: &s.Center},
				{kw: "axis", vec: &s.Axis},
				{kw: "radius", num: &s.Radius},
				{kw: "height", num: &s.Height},
			}
		})
	})

	// -----------------------------------------------------------------------
	// (torus "ring" :center (vec3 0 0 0) :axis (vec3 0 0 1) :major 2
	//        :minor 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("torus", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return defineSurface(sc, scene.KindTorus, args, func(s *scene.SurfaceSpec) []surfaceField {
			s.Axis = v3.Vec{Z: 1}
			s.Radius, s.Minor = 2, 0.5
			return []surfaceField{
				{kw: "center", vec: &s.Center},
				{kw: "axis", vec: &s.Axis},
				{kw: "major", num: &s.Radius},
				{kw: "minor", num: &s.Minor},
			}
		})
	})

	// -----------------------------------------------------------------------
	// (intersect ball floor :deflection 0.001 :cell 0.05 :tolerance 1e-10
	//            :refine true)
	// -----------------------------------------------------------------------
	env.AddFunction("intersect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("intersect requires two surfaces, got %d", len(pa.positional))
		}
		var job scene.Job
		var err error
		if job.A, err = toSurfaceName(pa.positional[0]); err != nil {
			return zygo.SexpNull, fmt.Errorf("intersect: first surface: %w", err)
		}
		if job.B, err = toSurfaceName(pa.positional[1]); err != nil {
			return zygo.SexpNull, fmt.Errorf("intersect: second surface: %w", err)
		}

		for kw, dst := range map[string]*float64{
			"deflection": &job.Deflection,
			"cell":       &job.Cell,
			"tolerance":  &job.Tolerance,
		} {
			if v, ok := pa.kw[kw]; ok {
				if *dst, err = toFloat64(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("intersect: %s: %w", kw, err)
				}
			}
		}
		if v, ok := pa.kw["refine"]; ok {
			if job.Refine, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("intersect: refine: %w", err)
			}
		}

		sc.AddJob(job)
		return zygo.SexpNull, nil
	})
}
