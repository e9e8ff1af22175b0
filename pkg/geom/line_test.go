package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestLineMeasurements(t *testing.T) {
	l := NewLine(NewPoint(0, 0, 0), NewPoint(3, 4, 0))

	assert.InDelta(t, 5.0, l.Length(), tol)
	assertVecNear(t, mgl64.Vec3{1.5, 2, 0}, l.Midpoint().Vec(), tol)
	assertVecNear(t, mgl64.Vec3{0.6, 0.8, 0}, l.Direction().Rotate(AxisX), tol)
}

func TestLineBorrowsEndpoints(t *testing.T) {
	a, b := NewPoint(0, 0, 0), NewPoint(1, 0, 0)
	l := NewLine(a, b)
	b.SetX(10)
	assert.InDelta(t, 10.0, l.Length(), tol, "line reads the live endpoint")
	assert.Equal(t, 0, b.Observers(), "line does not subscribe to its points")
}

func TestPointAlong(t *testing.T) {
	l := NewLine(NewPoint(0, 0, 0), NewPoint(10, 0, 0))
	tests := []struct {
		name   string
		end    End
		offset float64
		want   mgl64.Vec3
	}{
		{"from A", EndA, 2, mgl64.Vec3{2, 0, 0}},
		{"from B", EndB, 2, mgl64.Vec3{8, 0, 0}},
		{"past B", EndA, 12, mgl64.Vec3{12, 0, 0}},
		{"behind A", EndA, -1, mgl64.Vec3{-1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertVecNear(t, tt.want, l.PointAlong(tt.end, tt.offset).Vec(), tol)
		})
	}

	degenerate := NewLine(NewPoint(1, 1, 1), NewPoint(1, 1, 1))
	assertVecNear(t, mgl64.Vec3{1, 1, 1}, degenerate.PointAlong(EndB, 5).Vec(), 0)
}

func TestParallelLineIsPlanar(t *testing.T) {
	l := NewLine(NewPoint(0, 0, 5), NewPoint(10, 0, 7))
	p := l.ParallelLine(2)

	assertVecNear(t, mgl64.Vec3{0, 2, 5}, p.A.Vec(), tol)
	assertVecNear(t, mgl64.Vec3{10, 2, 7}, p.B.Vec(), tol)

	neg := l.ParallelLine(-2)
	assertVecNear(t, mgl64.Vec3{0, -2, 5}, neg.A.Vec(), tol)

	vertical := NewLine(NewPoint(0, 0, 0), NewPoint(0, 0, 10))
	same := vertical.ParallelLine(3)
	assertVecNear(t, vertical.B.Vec(), same.B.Vec(), 0, "no XY extent means no offset direction")
}

func TestRotatedLine(t *testing.T) {
	l := NewLine(NewPoint(0, 0, 1), NewPoint(10, 0, 1))

	r := l.RotatedLine(90, nil)
	assertVecNear(t, mgl64.Vec3{0, 0, 1}, r.A.Vec(), tol)
	assertVecNear(t, mgl64.Vec3{0, 10, 1}, r.B.Vec(), tol)

	r = l.RotatedLine(180, NewPoint(5, 0, 0))
	assertVecNear(t, mgl64.Vec3{10, 0, 1}, r.A.Vec(), tol)
	assertVecNear(t, mgl64.Vec3{0, 0, 1}, r.B.Vec(), tol)

	assertVecNear(t, mgl64.Vec3{10, 0, 1}, l.B.Vec(), 0, "original line untouched")
}
