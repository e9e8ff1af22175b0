package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/harnessview/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harness = `
; two connectors joined through a splice
(connector "J1" :at (vec3 -40 0 0) :pins 2)
(connector "J2" :at (vec3 40 0 0) :pins 2)
(splice "S1" :at (vec3 0 20 0))
(wire "W1" :from (vec3 -30 0 0) :via (list (vec3 0 20 0)) :to (vec3 30 0 0))
`

// stacked puts two bare connectors on the view axis of a camera at +Z.
const stacked = `
(camera :eye (vec3 0 0 200) :focus (vec3 0 0 0))
(connector "near" :at (vec3 0 0 0))
(connector "far" :at (vec3 0 0 -50))
`

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Mesh.Cells = 24
	cfg.Render.Width, cfg.Render.Height = 400, 400
	cfg.Repeat.Tick = time.Hour // keys apply once on press; no background ticks
	a, err := NewApp(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	a.run(ctx)
	t.Cleanup(cancel)
	return a
}

func loadOK(t *testing.T, a *App, src string) LoadResult {
	t.Helper()
	r := a.Load(src)
	require.Empty(t, r.Errors)
	return r
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoadHarness(t *testing.T) {
	a := newTestApp(t)
	r := loadOK(t, a, harness)
	require.Len(t, r.Meshes, 4)

	names := map[string]string{}
	for _, m := range r.Meshes {
		names[m.Name] = m.Category
		require.NotEmpty(t, m.Vertices, m.Name)
		assert.Len(t, m.Vertices, m.Count*9, m.Name)
		assert.Len(t, m.Normals, m.Count*9, m.Name)
		assert.NotEmpty(t, m.Color, m.Name)

		for i := 0; i < len(m.Vertices); i += 3 {
			for axis := 0; axis < 3; axis++ {
				v := float64(m.Vertices[i+axis])
				require.True(t, v >= m.Min[axis]-1e-6 && v <= m.Max[axis]+1e-6, "%s vertex outside hit box", m.Name)
			}
		}
	}
	assert.Equal(t, map[string]string{"J1": "connector", "J2": "connector", "S1": "splice", "W1": "wire"}, names)
	assert.Len(t, a.Objects(), 4)
}

// TestLoadExampleScript exercises the full pipeline: script -> engine ->
// layout -> tessellate -> scene, the path the Load binding takes.
func TestLoadExampleScript(t *testing.T) {
	a := newTestApp(t)
	src, err := os.ReadFile("examples/harness.hv")
	require.NoError(t, err)

	r := loadOK(t, a, string(src))
	require.Len(t, r.Meshes, 6)
	for _, m := range r.Meshes {
		assert.NotZero(t, m.Count, m.Name)
	}
	assert.Equal(t, [3]float64{0, 120, 260}, a.Camera().Eye)
}

func TestLoadReplacesScene(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, harness)
	loadOK(t, a, `(splice "only" :at (vec3 0 0 0))`)
	objs := a.Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, "only", objs[0].Name)
}

func TestLoadErrorKeepsScene(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, harness)

	r := a.Load(`(connector "J9"`)
	require.NotEmpty(t, r.Errors)
	assert.Empty(t, r.Meshes)
	assert.Len(t, a.Objects(), 4, "a failed load leaves the previous scene")
}

func TestLoadScriptCamera(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, stacked)
	c := a.Camera()
	assert.Equal(t, [3]float64{0, 0, 200}, c.Eye)
	assert.Equal(t, [3]float64{0, 0, 0}, c.Focus)
	assert.InDelta(t, 200, c.Distance, 1e-9)
}

func TestLoadTopDownCameraStaysUsable(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, `
(camera :eye (vec3 0 200 0) :focus (vec3 0 0 0))
(connector "J1" :at (vec3 0 0 0))
`)
	c := a.Camera()
	assert.InDelta(t, 89.9, c.Elevation, 1e-6)
	assert.InDelta(t, 200, c.Distance, 1e-9)
	for i, x := range c.View {
		require.False(t, math.IsNaN(x), "view[%d]", i)
	}

	r := a.Pick(200, 200)
	require.True(t, r.Hit)
	assert.Equal(t, "J1", r.Name)

	a.MouseDown("left", 200, 200)
	a.MouseMove(200, 230)
	a.MouseUp("left", 200, 230)
	assert.Less(t, a.Camera().Elevation, 89.9, "orbit can leave the pole")
}

// ---------------------------------------------------------------------------
// Picking
// ---------------------------------------------------------------------------

func TestPickCentre(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, stacked)

	r := a.Pick(200, 200)
	require.True(t, r.Hit)
	assert.Equal(t, "near", r.Name)
	assert.Greater(t, r.T, 0.0)

	assert.False(t, a.Pick(5, 5).Hit, "empty corner")
}

func TestPickCyclesOverlapping(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, stacked)

	var got []string
	for i := 0; i < 3; i++ {
		got = append(got, a.Pick(200, 200).Name)
	}
	assert.Equal(t, []string{"near", "far", "near"}, got)
}

func TestClickPicksDragDoesNot(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, stacked)

	a.MouseDown("left", 200, 200)
	r := a.MouseUp("left", 201, 200)
	require.True(t, r.Hit)
	assert.Equal(t, "near", r.Name)

	before := a.Camera()
	a.MouseDown("left", 200, 200)
	a.MouseMove(240, 200)
	r = a.MouseUp("left", 240, 200)
	assert.False(t, r.Hit)

	after := a.Camera()
	assert.NotEqual(t, before.Eye, after.Eye, "left drag orbits")
	assert.Equal(t, before.Focus, after.Focus)
	assert.InDelta(t, before.Distance, after.Distance, 1e-9)
}

func TestCameraMoveResetsCycle(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, stacked)

	assert.Equal(t, "near", a.Pick(200, 200).Name)
	a.MouseWheel(-10) // zoom in, still on axis
	assert.Equal(t, "near", a.Pick(200, 200).Name, "camera change rebuilds the candidate list")
}

// ---------------------------------------------------------------------------
// Objects
// ---------------------------------------------------------------------------

func TestMoveObject(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, `(connector "J1" :at (vec3 0 0 0))`)
	before := a.Objects()[0]

	require.NoError(t, a.MoveObject("J1", 10, 0, 0))
	after := a.Objects()[0]
	assert.InDelta(t, before.Min[0]+10, after.Min[0], 1e-4)
	assert.InDelta(t, before.Max[0]+10, after.Max[0], 1e-4)
	assert.InDelta(t, before.Min[1], after.Min[1], 1e-4)

	assert.Error(t, a.MoveObject("nope", 0, 0, 0))
}

func TestRotateObject(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, `(connector "J1" :at (vec3 0 0 0))`)
	before := a.Objects()[0]

	require.NoError(t, a.RotateObject("J1", 0, 0, 90))
	after := a.Objects()[0]
	assert.InDelta(t, before.Max[0]-before.Min[0], after.Max[1]-after.Min[1], 1e-3, "x extent becomes y extent")
	assert.InDelta(t, before.Max[1]-before.Min[1], after.Max[0]-after.Min[0], 1e-3)
}

func TestRemoveObject(t *testing.T) {
	a := newTestApp(t)
	loadOK(t, a, stacked)

	require.NoError(t, a.RemoveObject("near"))
	assert.Len(t, a.Objects(), 1)
	assert.Equal(t, "far", a.Pick(200, 200).Name)
	assert.Error(t, a.RemoveObject("near"))
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

func TestKeyWalkAndReset(t *testing.T) {
	a := newTestApp(t)
	start := a.Camera()

	assert.True(t, a.KeyDown("KeyW"))
	assert.False(t, a.KeyDown("KeyW"), "held keys are not re-pressed")
	a.KeyUp("KeyW")
	assert.False(t, a.KeyDown("F24"))

	moved := a.Camera()
	assert.NotEqual(t, start.Eye, moved.Eye)

	a.ResetCamera()
	assert.Equal(t, start.Eye, a.Camera().Eye)
}

func TestWheelZooms(t *testing.T) {
	a := newTestApp(t)
	d := a.Camera().Distance
	a.MouseWheel(-100)
	assert.InDelta(t, d-10, a.Camera().Distance, 1e-9)
}

func TestResize(t *testing.T) {
	a := newTestApp(t)
	a.Resize(800, 400)
	p := a.Camera().Projection
	assert.InDelta(t, p[5]/2, p[0], 1e-12, "aspect 2:1")

	a.Resize(0, 100)
	assert.Equal(t, p, a.Camera().Projection, "zero size ignored")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestParseHex(t *testing.T) {
	c, err := parseHex("#FF8000")
	require.NoError(t, err)
	assert.Equal(t, [4]float32{1, 128.0 / 255, 0, 1}, c)

	for _, bad := range []string{"", "#FFF", "#GG0000", "FF00000"} {
		_, err := parseHex(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default().Camera, cfg.Camera)

	_, err = loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
