package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the length below which a direction is treated as degenerate.
const Epsilon = 1e-9

// ParallelEpsilon is how close |dot| may get to 1 before two unit vectors
// are considered parallel.
const ParallelEpsilon = 1e-8

var (
	AxisX = mgl64.Vec3{1, 0, 0}
	AxisY = mgl64.Vec3{0, 1, 0}
	AxisZ = mgl64.Vec3{0, 0, 1}
)

// Normalize returns v/|v| and false when v is too short to have a direction.
func Normalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// RotateAxis rotates v by theta radians about the unit axis k (Rodrigues).
func RotateAxis(v, k mgl64.Vec3, theta float64) mgl64.Vec3 {
	s, c := math.Sincos(theta)
	return v.Mul(c).
		Add(k.Cross(v).Mul(s)).
		Add(k.Mul(k.Dot(v) * (1 - c)))
}

// Parallel reports whether unit vectors a and b are (anti)parallel.
func Parallel(a, b mgl64.Vec3) bool {
	return math.Abs(math.Abs(a.Dot(b))-1) < ParallelEpsilon
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }
