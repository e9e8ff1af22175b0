package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// End selects one endpoint of a Line.
type End int

const (
	EndA End = iota
	EndB
)

// Line is a segment between two borrowed points. It holds no state of its
// own: every query reads the current endpoint values.
type Line struct {
	A, B *Point
}

// NewLine returns a line over a and b. The points are not copied.
func NewLine(a, b *Point) *Line {
	return &Line{A: a, B: b}
}

// Length returns |B - A|.
func (l *Line) Length() float64 {
	return l.A.Distance(l.B)
}

// Direction returns the orientation pointing from A to B.
func (l *Line) Direction() *Angle {
	return FromPoints(l.A, l.B)
}

// Midpoint returns a new point halfway between the endpoints.
func (l *Line) Midpoint() *Point {
	return l.A.derive(l.A.Vec().Add(l.B.Vec()).Mul(0.5))
}

// PointAlong returns a new point offset along the line from the chosen end,
// towards the other end (negative offsets extend past it). A zero-length
// line returns a copy of that end.
func (l *Line) PointAlong(from End, offset float64) *Point {
	start, other := l.A, l.B
	if from == EndB {
		start, other = l.B, l.A
	}
	dir, ok := Normalize(other.Vec().Sub(start.Vec()))
	if !ok {
		return start.Copy()
	}
	return start.derive(start.Vec().Add(dir.Mul(offset)))
}

// ParallelLine returns a new line shifted by offset perpendicular to the
// segment. Only the XY projection is considered: the shift is in the XY
// plane, to the left of A→B for positive offsets, and Z is kept.
func (l *Line) ParallelLine(offset float64) *Line {
	dx, dy := l.B.x-l.A.x, l.B.y-l.A.y
	n := math.Hypot(dx, dy)
	if n < Epsilon {
		return NewLine(l.A.Copy(), l.B.Copy())
	}
	shift := mgl64.Vec3{-dy / n * offset, dx / n * offset, 0}
	return NewLine(
		l.A.derive(l.A.Vec().Add(shift)),
		l.B.derive(l.B.Vec().Add(shift)),
	)
}

// RotatedLine returns a new line rotated by deg degrees about the Z axis
// through pivot (the origin if nil). Like ParallelLine this is an XY-plane
// operation; Z coordinates are kept.
func (l *Line) RotatedLine(deg float64, pivot *Point) *Line {
	c := pivotVec(pivot)
	s, co := math.Sincos(deg2rad(deg))
	rot := func(p *Point) *Point {
		x, y := p.x-c[0], p.y-c[1]
		return p.derive(mgl64.Vec3{x*co - y*s + c[0], x*s + y*co + c[1], p.z})
	}
	return NewLine(rot(l.A), rot(l.B))
}
