// Package pick selects scene objects under the cursor. A pick runs a
// four-stage funnel: capture the matrices, gather objects whose projected
// hit box covers the cursor, sort them by depth, then walk the sorted list
// with a ray test. Repeated clicks at one pixel cycle through overlapping
// objects, nearest first.
package pick

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Viewport is the window rectangle in pixels, origin at the bottom left as
// OpenGL reports it.
type Viewport struct {
	X, Y, Width, Height float64
}

// Surface is the render surface a pick reads its matrices from.
type Surface interface {
	ModelView() mgl64.Mat4
	Projection() mgl64.Mat4
	Viewport() Viewport
}

// Matrices is one consistent snapshot of the surface, captured once per pick.
type Matrices struct {
	ModelView  mgl64.Mat4
	Projection mgl64.Mat4
	Viewport   Viewport

	Combined   mgl64.Mat4 // Projection × ModelView
	Inverse    mgl64.Mat4 // of Combined
	Invertible bool
	Eye        mgl64.Vec3 // camera position in world space
}

// degenerateDet is the |det| under which Combined is treated as singular.
const degenerateDet = 1e-12

// Capture reads the surface matrices and derives the combined inverse.
func Capture(s Surface) Matrices {
	m := Matrices{
		ModelView:  s.ModelView(),
		Projection: s.Projection(),
		Viewport:   s.Viewport(),
	}
	m.Combined = m.Projection.Mul4(m.ModelView)
	if det := m.Combined.Det(); math.Abs(det) > degenerateDet && !math.IsNaN(det) {
		m.Inverse = m.Combined.Inv()
		m.Invertible = true
	}
	if mv := m.ModelView; math.Abs(mv.Det()) > degenerateDet {
		m.Eye = mv.Inv().Mul4x1(mgl64.Vec4{0, 0, 0, 1}).Vec3()
	}
	return m
}

// Project maps a world point to window coordinates. eyeDepth is the
// distance in front of the camera (negative eye-space Z); front is false
// when the point lies on or behind the eye plane, in which case win is
// meaningless.
func (m Matrices) Project(p mgl64.Vec3) (win mgl64.Vec3, eyeDepth float64, front bool) {
	eye := m.ModelView.Mul4x1(p.Vec4(1))
	eyeDepth = -eye.Z()
	clip := m.Projection.Mul4x1(eye)
	w := clip.W()
	if eyeDepth <= 0 || w <= 1e-12 {
		return mgl64.Vec3{}, eyeDepth, false
	}
	ndc := clip.Vec3().Mul(1 / w)
	vp := m.Viewport
	win = mgl64.Vec3{
		vp.X + (ndc.X()+1)/2*vp.Width,
		vp.Y + (ndc.Y()+1)/2*vp.Height,
		(ndc.Z() + 1) / 2,
	}
	return win, eyeDepth, true
}

// Window converts a mouse position (origin top left, y down) to window
// coordinates (origin bottom left).
func (m Matrices) Window(x, y float64) (wx, wy float64) {
	vp := m.Viewport
	return x, vp.Y + vp.Height - y
}

// Ray builds the world-space ray through a window position by unprojecting
// the near and far NDC points. ok is false when the matrices are singular
// or the ray has no direction.
func (m Matrices) Ray(wx, wy float64) (Ray, bool) {
	vp := m.Viewport
	if !m.Invertible || vp.Width <= 0 || vp.Height <= 0 {
		return Ray{}, false
	}
	nx := 2*(wx-vp.X)/vp.Width - 1
	ny := 2*(wy-vp.Y)/vp.Height - 1

	near, ok := unproject(m.Inverse, mgl64.Vec4{nx, ny, -1, 1})
	if !ok {
		return Ray{}, false
	}
	far, ok := unproject(m.Inverse, mgl64.Vec4{nx, ny, 1, 1})
	if !ok {
		return Ray{}, false
	}
	d := far.Sub(near)
	l := d.Len()
	if l < 1e-12 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Ray{}, false
	}
	return Ray{Origin: near, Dir: d.Mul(1 / l)}, true
}

func unproject(inv mgl64.Mat4, ndc mgl64.Vec4) (mgl64.Vec3, bool) {
	v := inv.Mul4x1(ndc)
	if math.Abs(v.W()) < 1e-15 {
		return mgl64.Vec3{}, false
	}
	return v.Vec3().Mul(1 / v.W()), true
}
