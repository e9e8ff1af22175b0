package engine

import (
	"fmt"
	"regexp"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Sexp wrappers for Go values passed between builtins
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

type sexpColor struct {
	hex string
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(color %q)", c.hex)
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// sexpPart is returned by the part constructors so scripts can keep a
// handle, e.g. (def j1 (connector "J1" ...)).
type sexpPart struct {
	part *Part
}

func (p *sexpPart) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", p.part.Category, p.part.Name)
}
func (p *sexpPart) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// A trailing keyword with no value is recorded as SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func parseColor(s string) (string, error) {
	if !hexColor.MatchString(s) {
		return "", fmt.Errorf("invalid color %q, expected #RRGGBB", s)
	}
	return strings.ToUpper(s), nil
}

// toColor accepts a (color ...) value or a plain "#RRGGBB" string.
func toColor(s zygo.Sexp) (string, error) {
	if c, ok := s.(*sexpColor); ok {
		return c.hex, nil
	}
	str, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected color: %w", err)
	}
	return parseColor(str)
}

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

// argReader pulls typed keyword values for one builtin call and keeps the
// first error, prefixed with the builtin name.
type argReader struct {
	fn  string
	pa  kwArgs
	err error
}

func (r *argReader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %s: %w", r.fn, key, err)
	}
}

func (r *argReader) float(key string, dst *float64) {
	v, ok := r.pa.kw[key]
	if !ok {
		return
	}
	f, err := toFloat64(v)
	if err != nil {
		r.fail(key, err)
		return
	}
	*dst = f
}

func (r *argReader) vec(key string, dst *Vec3) bool {
	v, ok := r.pa.kw[key]
	if !ok {
		return false
	}
	vec, err := toVec3(v)
	if err != nil {
		r.fail(key, err)
		return false
	}
	*dst = vec
	return true
}

func (r *argReader) color(key string, dst *string) {
	v, ok := r.pa.kw[key]
	if !ok {
		return
	}
	c, err := toColor(v)
	if err != nil {
		r.fail(key, err)
		return
	}
	*dst = c
}

func (r *argReader) name() string {
	if len(r.pa.positional) < 1 {
		r.fail("name", fmt.Errorf("a name is required as the first argument"))
		return ""
	}
	s, err := toString(r.pa.positional[0])
	if err != nil {
		r.fail("name", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// Default part colours when a script does not give one.
const (
	defaultConnectorColor = "#4A90D9"
	defaultWireColor      = "#E67E22"
	defaultSpliceColor    = "#9B59B6"
)

// registerBuiltins installs the layout builtins into a zygomys environment.
// The builtins populate l during evaluation. Source must be preprocessed
// with preprocessSource so :keyword tokens are recognizable.
func registerBuiltins(env *zygo.Zlisp, l *Layout) {

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v Vec3
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// (color "#RRGGBB")
	env.AddFunction("color", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("color requires exactly 1 argument, got %d", len(args))
		}
		s, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("color: %w", err)
		}
		hex, err := parseColor(s)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("color: %w", err)
		}
		return &sexpColor{hex: hex}, nil
	})

	// (connector "J1" :size (vec3 20 10 8) :at (vec3 0 0 0) :rotate (vec3 0 0 90)
	//            :pins 4 :color "#4A90D9")
	env.AddFunction("connector", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := &argReader{fn: "connector", pa: parseArgs(args)}
		p := &Part{
			Category: Connector,
			Color:    defaultConnectorColor,
			Size:     Vec3{20, 10, 8},
		}
		p.Name = r.name()
		r.vec("size", &p.Size)
		r.vec("at", &p.At)
		r.vec("rotate", &p.Rotate)
		r.color("color", &p.Color)
		var pins float64
		r.float("pins", &pins)
		p.Pins = int(pins)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if p.Size[0] <= 0 || p.Size[1] <= 0 || p.Size[2] <= 0 {
			return zygo.SexpNull, fmt.Errorf("connector: size must be positive, got %v", p.Size)
		}
		if p.Pins < 0 {
			return zygo.SexpNull, fmt.Errorf("connector: pins must not be negative")
		}
		if err := l.Add(p); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPart{part: p}, nil
	})

	// (wire "W1" :from (vec3 0 0 0) :to (vec3 100 0 0)
	//       :via (list (vec3 50 20 0)) :diameter 2 :color "#E67E22")
	env.AddFunction("wire", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := &argReader{fn: "wire", pa: parseArgs(args)}
		p := &Part{
			Category: Wire,
			Color:    defaultWireColor,
			Diameter: 2,
		}
		p.Name = r.name()
		var from, to Vec3
		hasFrom := r.vec("from", &from)
		hasTo := r.vec("to", &to)
		r.float("diameter", &p.Diameter)
		r.color("color", &p.Color)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if !hasFrom || !hasTo {
			return zygo.SexpNull, fmt.Errorf("wire: :from and :to are required")
		}
		if p.Diameter <= 0 {
			return zygo.SexpNull, fmt.Errorf("wire: diameter must be positive, got %g", p.Diameter)
		}

		p.Path = append(p.Path, from)
		if v, ok := r.pa.kw["via"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wire: via: %w", err)
			}
			for _, item := range items {
				vec, err := toVec3(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("wire: via entry: %w", err)
				}
				p.Path = append(p.Path, vec)
			}
		}
		p.Path = append(p.Path, to)
		p.At = p.Centre()

		if err := l.Add(p); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPart{part: p}, nil
	})

	// (splice "S1" :at (vec3 50 0 0) :diameter 4 :rotate (vec3 0 0 0))
	env.AddFunction("splice", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := &argReader{fn: "splice", pa: parseArgs(args)}
		p := &Part{
			Category: Splice,
			Color:    defaultSpliceColor,
			Diameter: 4,
		}
		p.Name = r.name()
		r.vec("at", &p.At)
		r.vec("rotate", &p.Rotate)
		r.float("diameter", &p.Diameter)
		r.color("color", &p.Color)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if p.Diameter <= 0 {
			return zygo.SexpNull, fmt.Errorf("splice: diameter must be positive, got %g", p.Diameter)
		}
		if err := l.Add(p); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPart{part: p}, nil
	})

	// (pos-of "J1") returns the centre of a part declared earlier, so wires
	// can be routed to connectors by name.
	env.AddFunction("pos_of", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("pos-of requires exactly 1 argument, got %d", len(args))
		}
		var p *Part
		switch v := args[0].(type) {
		case *sexpPart:
			p = v.part
		default:
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("pos-of: %w", err)
			}
			if p = l.Lookup(s); p == nil {
				return zygo.SexpNull, fmt.Errorf("pos-of: no part named %q", s)
			}
		}
		return &sexpVec3{vec: p.Centre()}, nil
	})

	// (camera :eye (vec3 0 150 400) :focus (vec3 0 0 0))
	env.AddFunction("camera", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := &argReader{fn: "camera", pa: parseArgs(args)}
		c := &CameraSpec{}
		hasEye := r.vec("eye", &c.Eye)
		r.vec("focus", &c.Focus)
		if r.err != nil {
			return zygo.SexpNull, r.err
		}
		if !hasEye {
			return zygo.SexpNull, fmt.Errorf("camera: :eye is required")
		}
		if c.Eye == c.Focus {
			return zygo.SexpNull, fmt.Errorf("camera: eye and focus must differ")
		}
		l.Camera = c
		return zygo.SexpNull, nil
	})
}
