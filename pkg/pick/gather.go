package pick

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Target is anything with a hit box and a triangle soup.
type Target interface {
	HitBox() (min, max mgl64.Vec3)
	Triangles() []float32 // 9 floats per triangle, world space
}

// Rect is a window-space rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether (x, y) lies inside r, inclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Candidate is a target that survived the screen-space gather.
type Candidate struct {
	Target Target
	Depth  float64
	Rect   Rect
}

// corners returns the eight corners of an axis-aligned box.
func corners(min, max mgl64.Vec3) [8]mgl64.Vec3 {
	var c [8]mgl64.Vec3
	for i := range c {
		for a := 0; a < 3; a++ {
			if i&(1<<a) != 0 {
				c[i][a] = max[a]
			} else {
				c[i][a] = min[a]
			}
		}
	}
	return c
}

// Screen projects a target's hit box. When any corner is on or behind the
// eye plane the projection is unbounded and the whole viewport is used, so
// the ray test decides. Depth is the nearest front corner's eye distance,
// or the world distance from the eye to the box centre when no corner is
// in front.
func Screen(m Matrices, t Target) (rect Rect, depth float64) {
	min, max := t.HitBox()
	rect = Rect{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	depth = math.Inf(1)
	behind := false
	for _, c := range corners(min, max) {
		win, d, front := m.Project(c)
		if !front {
			behind = true
			continue
		}
		depth = math.Min(depth, d)
		rect.MinX = math.Min(rect.MinX, win.X())
		rect.MinY = math.Min(rect.MinY, win.Y())
		rect.MaxX = math.Max(rect.MaxX, win.X())
		rect.MaxY = math.Max(rect.MaxY, win.Y())
	}
	if math.IsInf(depth, 1) {
		centre := min.Add(max).Mul(0.5)
		depth = centre.Sub(m.Eye).Len()
	}
	if behind {
		vp := m.Viewport
		rect = Rect{vp.X, vp.Y, vp.X + vp.Width, vp.Y + vp.Height}
	}
	return rect, depth
}

// Gather keeps the targets whose projected hit box, grown by tolerance
// pixels, contains the window position (wx, wy).
func Gather(m Matrices, targets []Target, wx, wy, tolerance float64) []Candidate {
	var out []Candidate
	for _, t := range targets {
		r, depth := Screen(m, t)
		r.MinX -= tolerance
		r.MinY -= tolerance
		r.MaxX += tolerance
		r.MaxY += tolerance
		if !r.Contains(wx, wy) {
			continue
		}
		out = append(out, Candidate{Target: t, Depth: depth, Rect: r})
	}
	return out
}

// SortByDepth orders candidates nearest first. Equal depths keep gather order.
func SortByDepth(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Depth < c[j].Depth })
}
