package pick

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

const (
	parallelEpsilon = 1e-12 // slab direction component treated as zero
	triEpsilon      = 1e-9  // Möller–Trumbore determinant and t threshold
)

// IntersectAABB is the slab test. It returns the entry parameter, or 0 when
// the origin is inside the box. Boxes entirely behind the origin miss.
func IntersectAABB(r Ray, min, max mgl64.Vec3) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for i := 0; i < 3; i++ {
		o, d := r.Origin[i], r.Dir[i]
		if math.Abs(d) < parallelEpsilon {
			if o < min[i] || o > max[i] {
				return 0, false
			}
			continue
		}
		t1 := (min[i] - o) / d
		t2 := (max[i] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}

// IntersectTriangle is the Möller–Trumbore test. Rays parallel to the
// triangle's plane and hits at t <= 0 report no intersection.
func IntersectTriangle(r Ray, a, b, c mgl64.Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < triEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= triEpsilon {
		return 0, false
	}
	return t, true
}

// NearestTriangle tests every triangle of a flat soup (9 floats per
// triangle) and returns the nearest positive hit and its triangle index.
func NearestTriangle(r Ray, soup []float32) (t float64, index int, ok bool) {
	t, index = math.Inf(1), -1
	for i := 0; i+8 < len(soup); i += 9 {
		a := mgl64.Vec3{float64(soup[i]), float64(soup[i+1]), float64(soup[i+2])}
		b := mgl64.Vec3{float64(soup[i+3]), float64(soup[i+4]), float64(soup[i+5])}
		c := mgl64.Vec3{float64(soup[i+6]), float64(soup[i+7]), float64(soup[i+8])}
		if hit, ok := IntersectTriangle(r, a, b, c); ok && hit < t {
			t, index = hit, i/9
		}
	}
	if index < 0 {
		return 0, -1, false
	}
	return t, index, true
}
