package pick

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	mv, proj mgl64.Mat4
	vp       Viewport
}

func (s *fakeSurface) ModelView() mgl64.Mat4  { return s.mv }
func (s *fakeSurface) Projection() mgl64.Mat4 { return s.proj }
func (s *fakeSurface) Viewport() Viewport     { return s.vp }

func lookAt(eye, focus mgl64.Vec3) *fakeSurface {
	return &fakeSurface{
		mv:   mgl64.LookAtV(eye, focus, mgl64.Vec3{0, 1, 0}),
		proj: mgl64.Perspective(mgl64.DegToRad(45), 1, 0.1, 1000),
		vp:   Viewport{0, 0, 400, 400},
	}
}

type box struct {
	name     string
	min, max mgl64.Vec3
	tris     []float32
}

func (b *box) HitBox() (mgl64.Vec3, mgl64.Vec3) { return b.min, b.max }
func (b *box) Triangles() []float32             { return b.tris }

// topFace is a two-triangle soup covering the +Z face of b.
func topFace(b *box) []float32 {
	x0, y0, x1, y1, z := float32(b.min[0]), float32(b.min[1]), float32(b.max[0]), float32(b.max[1]), float32(b.max[2])
	return []float32{
		x0, y0, z, x1, y0, z, x1, y1, z,
		x0, y0, z, x1, y1, z, x0, y1, z,
	}
}

// ---------------------------------------------------------------------------
// Ray tests
// ---------------------------------------------------------------------------

func TestIntersectAABB(t *testing.T) {
	min, max := mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}
	tests := []struct {
		name   string
		ray    Ray
		hit    bool
		wantT  float64
	}{
		{"aimed at centre", Ray{mgl64.Vec3{0.5, 0.5, 5}, mgl64.Vec3{0, 0, -1}}, true, 4},
		{"aimed away", Ray{mgl64.Vec3{0.5, 0.5, 5}, mgl64.Vec3{0, 0, 1}}, false, 0},
		{"origin inside", Ray{mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{1, 0, 0}}, true, 0},
		{"parallel outside slab", Ray{mgl64.Vec3{2, 0.5, 5}, mgl64.Vec3{0, 0, -1}}, false, 0},
		{"passes beside", Ray{mgl64.Vec3{-1, 3, 0.5}, mgl64.Vec3{1, 0, 0}}, false, 0},
		{"grazes edge", Ray{mgl64.Vec3{1, 1, 5}, mgl64.Vec3{0, 0, -1}}, true, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := IntersectAABB(tt.ray, min, max)
			assert.Equal(t, tt.hit, hit)
			if tt.hit {
				assert.InDelta(t, tt.wantT, got, 1e-12)
			}
		})
	}
}

func TestIntersectAABBFromEveryDirection(t *testing.T) {
	min, max := mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}
	centre := mgl64.Vec3{0.5, 0.5, 0.5}
	for i := 0; i < 64; i++ {
		theta := float64(i) * 2 * math.Pi / 64
		phi := float64(i%8)*math.Pi/8 + 0.1
		origin := centre.Add(mgl64.Vec3{
			5 * math.Sin(phi) * math.Cos(theta),
			5 * math.Cos(phi),
			5 * math.Sin(phi) * math.Sin(theta),
		})
		dir := centre.Sub(origin).Normalize()
		got, hit := IntersectAABB(Ray{origin, dir}, min, max)
		require.True(t, hit, "from %v", origin)
		assert.Greater(t, got, 0.0)

		_, hit = IntersectAABB(Ray{origin, dir.Mul(-1)}, min, max)
		assert.False(t, hit, "aimed away from %v", origin)
	}
}

func TestIntersectTriangle(t *testing.T) {
	a, b, c := mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}
	centroid := mgl64.Vec3{1.0 / 3, 1.0 / 3, 0}
	down := mgl64.Vec3{0, 0, -1}

	got, hit := IntersectTriangle(Ray{centroid.Add(mgl64.Vec3{0, 0, 7}), down}, a, b, c)
	require.True(t, hit)
	assert.InDelta(t, 7, got, 1e-12)

	_, hit = IntersectTriangle(Ray{mgl64.Vec3{-1e-6, 0.5, 7}, down}, a, b, c)
	assert.False(t, hit, "just outside the x=0 edge")

	_, hit = IntersectTriangle(Ray{mgl64.Vec3{0.6, 0.6, 7}, down}, a, b, c)
	assert.False(t, hit, "outside the hypotenuse")

	_, hit = IntersectTriangle(Ray{mgl64.Vec3{-1, 0.2, 0}, mgl64.Vec3{1, 0, 0}}, a, b, c)
	assert.False(t, hit, "parallel to the plane")

	_, hit = IntersectTriangle(Ray{centroid.Add(mgl64.Vec3{0, 0, 7}), down.Mul(-1)}, a, b, c)
	assert.False(t, hit, "triangle behind the origin")
}

func TestNearestTriangle(t *testing.T) {
	soup := []float32{
		0, 0, 0, 1, 0, 0, 0, 1, 0,
		0, 0, 2, 1, 0, 2, 0, 1, 2,
		5, 5, 3, 6, 5, 3, 5, 6, 3,
	}
	got, idx, ok := NearestTriangle(Ray{mgl64.Vec3{0.2, 0.2, 5}, mgl64.Vec3{0, 0, -1}}, soup)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 3, got, 1e-6)

	_, idx, ok = NearestTriangle(Ray{mgl64.Vec3{9, 9, 5}, mgl64.Vec3{0, 0, -1}}, soup)
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

// ---------------------------------------------------------------------------
// Projection and gather
// ---------------------------------------------------------------------------

func TestProjectFocusLandsMidViewport(t *testing.T) {
	m := Capture(lookAt(mgl64.Vec3{5, 5, 50}, mgl64.Vec3{5, 5, 0}))
	win, depth, front := m.Project(mgl64.Vec3{5, 5, 0})
	require.True(t, front)
	assert.InDelta(t, 200, win.X(), 1e-9)
	assert.InDelta(t, 200, win.Y(), 1e-9)
	assert.InDelta(t, 50, depth, 1e-9)
	assert.InDelta(t, 5, m.Eye.X(), 1e-9)
	assert.InDelta(t, 50, m.Eye.Z(), 1e-9)

	_, _, front = m.Project(mgl64.Vec3{5, 5, 60})
	assert.False(t, front)
}

func TestRayThroughCentre(t *testing.T) {
	m := Capture(lookAt(mgl64.Vec3{5, 5, 50}, mgl64.Vec3{5, 5, 0}))
	r, ok := m.Ray(200, 200)
	require.True(t, ok)
	assert.InDelta(t, 5, r.Origin.X(), 1e-6)
	assert.InDelta(t, 5, r.Origin.Y(), 1e-6)
	assert.InDelta(t, -1, r.Dir.Z(), 1e-9)
}

func TestWindowFlipsY(t *testing.T) {
	m := Matrices{Viewport: Viewport{0, 0, 400, 300}}
	x, y := m.Window(10, 20)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 280.0, y)
}

func TestScreenStraddlingBoxCoversViewport(t *testing.T) {
	m := Capture(lookAt(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 0}))
	b := &box{min: mgl64.Vec3{-1, -1, 5}, max: mgl64.Vec3{1, 1, 15}}
	r, depth := Screen(m, b)
	assert.Equal(t, Rect{0, 0, 400, 400}, r)
	assert.InDelta(t, 5, depth, 1e-9)

	behind := &box{min: mgl64.Vec3{-1, -1, 20}, max: mgl64.Vec3{1, 1, 22}}
	_, depth = Screen(m, behind)
	assert.InDelta(t, 11, depth, 1e-9, "no corner in front falls back to world distance")
}

func TestGatherNarrows(t *testing.T) {
	m := Capture(lookAt(mgl64.Vec3{5, 5, 50}, mgl64.Vec3{5, 5, 0}))
	a := &box{name: "A", min: mgl64.Vec3{0, 0, 0}, max: mgl64.Vec3{10, 10, 10}}
	far := &box{name: "C", min: mgl64.Vec3{100, 100, 0}, max: mgl64.Vec3{110, 110, 10}}
	targets := []Target{a, far}

	got := Gather(m, targets, 200, 200, 3)
	require.Len(t, got, 1)
	assert.Same(t, a, got[0].Target)
}

func TestSortByDepth(t *testing.T) {
	c := []Candidate{{Depth: 3}, {Depth: 1}, {Depth: 2}}
	SortByDepth(c)
	assert.Equal(t, []float64{1, 2, 3}, []float64{c[0].Depth, c[1].Depth, c[2].Depth})
}

// ---------------------------------------------------------------------------
// Picker
// ---------------------------------------------------------------------------

func abScene() (*fakeSurface, *box, *box, []Target) {
	s := lookAt(mgl64.Vec3{5, 5, 50}, mgl64.Vec3{5, 5, 0})
	a := &box{name: "A", min: mgl64.Vec3{0, 0, 0}, max: mgl64.Vec3{10, 10, 10}}
	b := &box{name: "B", min: mgl64.Vec3{2, 2, -20}, max: mgl64.Vec3{8, 8, -10}}
	c := &box{name: "C", min: mgl64.Vec3{100, 100, 0}, max: mgl64.Vec3{110, 110, 10}}
	a.tris = topFace(a)
	return s, a, b, []Target{c, b, a}
}

func TestPickCyclesNearestFirst(t *testing.T) {
	s, a, b, targets := abScene()
	p := NewPicker(DefaultOptions())

	h, ok := p.Pick(s, targets, 200, 200)
	require.True(t, ok)
	assert.Same(t, a, h.Target)
	assert.Equal(t, 0, h.Triangle/2, "refined onto A's top face")
	assert.InDelta(t, 40, h.Ray.At(h.T).Sub(mgl64.Vec3{5, 5, 50}).Len(), 1e-6)

	h, ok = p.Pick(s, targets, 200, 200)
	require.True(t, ok)
	assert.Same(t, b, h.Target, "second click at the same pixel cycles")
	assert.Equal(t, -1, h.Triangle, "a box without triangles is still accepted")

	h, ok = p.Pick(s, targets, 201, 199)
	require.True(t, ok)
	assert.Same(t, a, h.Target, "small moves keep cycling and wrap")

	for _, c := range p.Candidates() {
		assert.NotEqual(t, "C", c.Target.(*box).name)
	}
}

func TestPickRebuildsAfterMove(t *testing.T) {
	s, a, _, targets := abScene()
	p := NewPicker(DefaultOptions())

	p.Pick(s, targets, 200, 200)
	h, ok := p.Pick(s, targets, 206, 200)
	require.True(t, ok)
	assert.Same(t, a, h.Target, "moving past the threshold restarts at the nearest")
}

func TestPickInvalidate(t *testing.T) {
	s, a, _, targets := abScene()
	p := NewPicker(DefaultOptions())

	p.Pick(s, targets, 200, 200)
	p.Invalidate()
	assert.Empty(t, p.Candidates())
	h, ok := p.Pick(s, targets, 200, 200)
	require.True(t, ok)
	assert.Same(t, a, h.Target)
}

func TestPickMissesEmptySpace(t *testing.T) {
	s, _, _, targets := abScene()
	p := NewPicker(DefaultOptions())
	_, ok := p.Pick(s, targets, 5, 5)
	assert.False(t, ok)
}

func TestPickDegenerateRay(t *testing.T) {
	s := &fakeSurface{vp: Viewport{0, 0, 400, 400}}
	a := &box{min: mgl64.Vec3{-1, -1, -1}, max: mgl64.Vec3{1, 1, 1}}
	p := NewPicker(DefaultOptions())
	_, ok := p.Pick(s, []Target{a}, 200, 200)
	assert.False(t, ok, "singular matrices select nothing")
}

func TestPickSkipsCandidateWhoseBoxTheRayMisses(t *testing.T) {
	s := lookAt(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 0})
	// Straddles the eye plane so it covers the viewport, but lies off to the side.
	side := &box{name: "side", min: mgl64.Vec3{3, -1, 5}, max: mgl64.Vec3{4, 1, 15}}
	centre := &box{name: "centre", min: mgl64.Vec3{-1, -1, -1}, max: mgl64.Vec3{1, 1, 1}}
	p := NewPicker(DefaultOptions())

	h, ok := p.Pick(s, []Target{side, centre}, 200, 200)
	require.True(t, ok)
	assert.Same(t, centre, h.Target)
	h, ok = p.Pick(s, []Target{side, centre}, 200, 200)
	require.True(t, ok)
	assert.Same(t, centre, h.Target, "the only box under the ray is picked every time")
}
