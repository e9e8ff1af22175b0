package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Preprocessing
// ---------------------------------------------------------------------------

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple keyword", `(wire "W1" :diameter 2)`, `(wire "W1" "__kw_diameter" 2)`},
		{"multiple keywords", `(camera :eye e :focus f)`, `(camera "__kw_eye" e "__kw_focus" f)`},
		{"keyword in string preserved", `"thing with :keyword inside"`, `"thing with :keyword inside"`},
		{"escaped quote in string", `"a \" :b"`, `"a \" :b"`},
		{"backtick string preserved", "`raw :kw`", "`raw :kw`"},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(pos-of "J1")`, `(pos_of "J1")`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative literal preserved", `(vec3 -5 0 0)`, `(vec3 -5 0 0)`},
		{"comment converted to // style", `;; comment with :keyword`, `// comment with :keyword`},
		{"single semicolon comment", `; simple comment`, `// simple comment`},
		{"hyphen in keyword preserved", `:head-dia`, `"__kw_head-dia"`},
		{"unterminated string", `"open`, `"open`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, preprocessSource(tt.input))
		})
	}
}

func evalOK(t *testing.T, src string) *Layout {
	t.Helper()
	l, evalErrs, err := NewEngine().Evaluate(src)
	require.NoError(t, err)
	require.Empty(t, evalErrs)
	require.NotNil(t, l)
	return l
}

func evalFails(t *testing.T, src string) []EvalError {
	t.Helper()
	l, evalErrs, err := NewEngine().Evaluate(src)
	require.NoError(t, err)
	assert.Nil(t, l)
	require.NotEmpty(t, evalErrs)
	return evalErrs
}

// ---------------------------------------------------------------------------
// Parts
// ---------------------------------------------------------------------------

func TestConnector(t *testing.T) {
	l := evalOK(t, `
(connector "J1" :size (vec3 30 12 10) :at (vec3 5 0 -2) :rotate (vec3 0 0 90)
           :pins 6 :color (color "#a0b0c0"))
`)
	j1 := l.Lookup("J1")
	require.NotNil(t, j1)
	assert.Equal(t, Connector, j1.Category)
	assert.Equal(t, Vec3{30, 12, 10}, j1.Size)
	assert.Equal(t, Vec3{5, 0, -2}, j1.At)
	assert.Equal(t, Vec3{0, 0, 90}, j1.Rotate)
	assert.Equal(t, 6, j1.Pins)
	assert.Equal(t, "#A0B0C0", j1.Color)
}

func TestConnectorDefaults(t *testing.T) {
	j := evalOK(t, `(connector "J2")`).Lookup("J2")
	require.NotNil(t, j)
	assert.Equal(t, Vec3{20, 10, 8}, j.Size)
	assert.Equal(t, defaultConnectorColor, j.Color)
}

func TestWireRoute(t *testing.T) {
	l := evalOK(t, `
(def mid (vec3 50 20 0))
(wire "W1" :from (vec3 0 0 0) :to (vec3 100 0 0) :via (list mid) :diameter 1.5)
`)
	w := l.Lookup("W1")
	require.NotNil(t, w)
	assert.Equal(t, Wire, w.Category)
	assert.Equal(t, []Vec3{{0, 0, 0}, {50, 20, 0}, {100, 0, 0}}, w.Path)
	assert.Equal(t, 1.5, w.Diameter)
	assert.Equal(t, Vec3{50, 10, 0}, w.At, "wire position is the centre of its route")
}

func TestWireToConnectorByName(t *testing.T) {
	l := evalOK(t, `
(connector "J1" :at (vec3 0 0 0))
(connector "J2" :at (vec3 200 0 0))
(wire "W1" :from (pos-of "J1") :to (pos-of "J2"))
`)
	w := l.Lookup("W1")
	require.NotNil(t, w)
	assert.Equal(t, []Vec3{{0, 0, 0}, {200, 0, 0}}, w.Path)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []string{"J1", "J2", "W1"}, []string{l.Parts[0].Name, l.Parts[1].Name, l.Parts[2].Name},
		"parts keep declaration order")
}

func TestSplice(t *testing.T) {
	s := evalOK(t, `(splice "S1" :at (vec3 10 10 0) :diameter 5 :color "#112233")`).Lookup("S1")
	require.NotNil(t, s)
	assert.Equal(t, Splice, s.Category)
	assert.Equal(t, 5.0, s.Diameter)
	assert.Equal(t, "#112233", s.Color)
}

func TestCamera(t *testing.T) {
	l := evalOK(t, `(camera :eye (vec3 0 100 300) :focus (vec3 0 0 0))`)
	require.NotNil(t, l.Camera)
	assert.Equal(t, Vec3{0, 100, 300}, l.Camera.Eye)
	assert.Equal(t, Vec3{}, l.Camera.Focus)
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"vec3 arity", `(vec3 1 2)`},
		{"vec3 non-number", `(vec3 1 "two" 3)`},
		{"bad color", `(color "red")`},
		{"connector without name", `(connector :at (vec3 0 0 0))`},
		{"connector zero size", `(connector "J1" :size (vec3 0 1 1))`},
		{"duplicate name", `(connector "J1") (splice "J1")`},
		{"wire missing end", `(wire "W1" :from (vec3 0 0 0))`},
		{"wire bad via", `(wire "W1" :from (vec3 0 0 0) :to (vec3 1 0 0) :via (list 3))`},
		{"wire zero diameter", `(wire "W1" :from (vec3 0 0 0) :to (vec3 1 0 0) :diameter 0)`},
		{"splice bad at", `(splice "S1" :at 5)`},
		{"pos-of unknown", `(pos-of "nope")`},
		{"camera without eye", `(camera :focus (vec3 0 0 0))`},
		{"camera collapsed", `(camera :eye (vec3 1 1 1) :focus (vec3 1 1 1))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalFails(t, tt.src)
		})
	}
}

func TestPartCentre(t *testing.T) {
	p := &Part{Category: Connector, At: Vec3{1, 2, 3}}
	assert.Equal(t, Vec3{1, 2, 3}, p.Centre())

	w := &Part{Category: Wire, Path: []Vec3{{0, 0, 0}, {10, -4, 2}}}
	assert.Equal(t, Vec3{5, -2, 1}, w.Centre())
}
