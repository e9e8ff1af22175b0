package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AngleEvent is delivered to angle observers after a change. Old is the
// rotation before the write, or before the outermost batch opened.
type AngleEvent struct {
	Angle *Angle
	Old   mgl64.Quat
}

// Delta returns the rotation that takes Old to the current orientation,
// i.e. current = Delta * Old.
func (e AngleEvent) Delta() mgl64.Quat {
	return e.Angle.Quat().Mul(e.Old.Conjugate()).Normalize()
}

// Angle is an observable orientation. It is stored as a single unit
// quaternion; the Euler channels (degrees, R = Rz·Ry·Rx) are derived on
// demand and every Euler setter rebuilds the whole rotation.
//
// Applying an Angle to a vector is an active rotation v' = R·v, which is the
// same as post-multiplying a row vector by Rᵀ.
type Angle struct {
	q mgl64.Quat

	changed Observable[AngleEvent]
	batch   batcher[mgl64.Quat]
}

// Identity returns the zero rotation.
func Identity() *Angle {
	return &Angle{q: mgl64.QuatIdent()}
}

// FromEuler builds an angle from Euler degrees about X, Y and Z.
func FromEuler(x, y, z float64) *Angle {
	return &Angle{q: eulerQuat(x, y, z)}
}

// FromQuat builds an angle from q. A zero quaternion yields the identity.
func FromQuat(q mgl64.Quat) *Angle {
	return &Angle{q: unit(q)}
}

// FromPoints returns the orientation whose local +X axis points from origin
// to target. If the two points coincide the identity is returned. The
// secondary axis is built from (0,1,0), falling back to (0,0,1) and then
// (1,0,0) when forward is parallel to the candidate.
func FromPoints(origin, target *Point) *Angle {
	fwd, ok := Normalize(target.Vec().Sub(origin.Vec()))
	if !ok {
		return Identity()
	}
	up := AxisY
	for _, cand := range []mgl64.Vec3{AxisY, AxisZ, AxisX} {
		if !Parallel(fwd, cand) {
			up = cand
			break
		}
	}
	// Gram-Schmidt keeps the frame orthonormal.
	u, _ := Normalize(up.Sub(fwd.Mul(up.Dot(fwd))))
	side := fwd.Cross(u)
	return &Angle{q: quatFromBasis(fwd, u, side)}
}

// Quat returns the unit quaternion.
func (a *Angle) Quat() mgl64.Quat {
	return a.q
}

// Matrix returns the rotation matrix (column-major, as mgl64 stores it).
func (a *Angle) Matrix() mgl64.Mat3 {
	r := rows(a.q)
	return mgl64.Mat3{
		r[0][0], r[1][0], r[2][0],
		r[0][1], r[1][1], r[2][1],
		r[0][2], r[1][2], r[2][2],
	}
}

// Euler returns the X, Y, Z channels in degrees.
func (a *Angle) Euler() (x, y, z float64) {
	r := rows(a.q)
	sy := -r[2][0]
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	ry := math.Asin(sy)
	var rx, rz float64
	if math.Cos(ry) > 1e-6 {
		rx = math.Atan2(r[2][1], r[2][2])
		rz = math.Atan2(r[1][0], r[0][0])
	} else {
		// Gimbal: fold Z into X.
		rx = math.Atan2(-r[1][2], r[1][1])
	}
	return rad2deg(rx), rad2deg(ry), rad2deg(rz)
}

func (a *Angle) X() float64 { x, _, _ := a.Euler(); return x }
func (a *Angle) Y() float64 { _, y, _ := a.Euler(); return y }
func (a *Angle) Z() float64 { _, _, z := a.Euler(); return z }

func (a *Angle) String() string {
	x, y, z := a.Euler()
	return fmt.Sprintf("euler(%.3f, %.3f, %.3f)", x, y, z)
}

// ApproxEqual compares the rotations (not the quaternion signs) within eps.
func (a *Angle) ApproxEqual(b *Angle, eps float64) bool {
	return math.Abs(math.Abs(a.q.Dot(b.q))-1) < eps
}

// ---------------------------------------------------------------------------
// Observers
// ---------------------------------------------------------------------------

// Bind registers o. It returns false if o is already bound.
func (a *Angle) Bind(o Observer[AngleEvent]) (*Subscription, bool) {
	return a.changed.Bind(o)
}

// Unbind removes o; no-op if it is not bound.
func (a *Angle) Unbind(o Observer[AngleEvent]) {
	a.changed.Unbind(o)
}

// Subscribe registers fn and returns its subscription handle.
func (a *Angle) Subscribe(fn func(AngleEvent)) *Subscription {
	return a.changed.Subscribe(fn)
}

// Suspend opens a batch scope; see Point.Suspend.
func (a *Angle) Suspend() *Guard {
	a.batch.depth++
	return &Guard{resume: a.resume}
}

// Batch runs fn inside a suspend/resume scope.
func (a *Angle) Batch(fn func()) {
	g := a.Suspend()
	defer g.Resume()
	fn()
}

func (a *Angle) resume() {
	if old, ok := a.batch.release(a.q); ok {
		a.changed.Fire(AngleEvent{Angle: a, Old: old})
	}
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

// SetEuler replaces the rotation with the given Euler degrees.
func (a *Angle) SetEuler(x, y, z float64) { a.set(eulerQuat(x, y, z)) }

func (a *Angle) SetX(v float64) { _, y, z := a.Euler(); a.SetEuler(v, y, z) }
func (a *Angle) SetY(v float64) { x, _, z := a.Euler(); a.SetEuler(x, v, z) }
func (a *Angle) SetZ(v float64) { x, y, _ := a.Euler(); a.SetEuler(x, y, v) }

// SetQuat replaces the rotation with q.
func (a *Angle) SetQuat(q mgl64.Quat) { a.set(unit(q)) }

// ComposeInPlace applies b after the current rotation.
func (a *Angle) ComposeInPlace(b *Angle) { a.set(unit(b.q.Mul(a.q))) }

func (a *Angle) set(q mgl64.Quat) {
	mustOrthonormal(q)
	if q == a.q {
		return
	}
	if a.batch.suspended() {
		a.batch.hold(a.q)
		a.q = q
		return
	}
	old := a.q
	a.q = q
	a.changed.Fire(AngleEvent{Angle: a, Old: old})
}

// ---------------------------------------------------------------------------
// Composition (returns new, unbound angles)
// ---------------------------------------------------------------------------

// Add sums the Euler channels of a and b.
func (a *Angle) Add(b *Angle) *Angle {
	ax, ay, az := a.Euler()
	bx, by, bz := b.Euler()
	return compose(eulerQuat(ax+bx, ay+by, az+bz))
}

// Sub subtracts the Euler channels of b from a.
func (a *Angle) Sub(b *Angle) *Angle {
	ax, ay, az := a.Euler()
	bx, by, bz := b.Euler()
	return compose(eulerQuat(ax-bx, ay-by, az-bz))
}

// Compose returns the rotation that applies b first, then a.
func (a *Angle) Compose(b *Angle) *Angle {
	return compose(a.q.Mul(b.q))
}

// Inverse returns the rotation that undoes a.
func (a *Angle) Inverse() *Angle {
	return compose(a.q.Conjugate())
}

func compose(q mgl64.Quat) *Angle {
	q = unit(q)
	mustOrthonormal(q)
	return &Angle{q: q}
}

// ---------------------------------------------------------------------------
// Applying to points
// ---------------------------------------------------------------------------

// Rotate returns R·v (rotation about the origin).
func (a *Angle) Rotate(v mgl64.Vec3) mgl64.Vec3 {
	return a.q.Rotate(v)
}

// RotateAbout rotates v about pivot.
func (a *Angle) RotateAbout(v, pivot mgl64.Vec3) mgl64.Vec3 {
	return a.q.Rotate(v.Sub(pivot)).Add(pivot)
}

// Rotated returns a new point: p rotated about pivot (the origin if nil).
func (a *Angle) Rotated(p, pivot *Point) *Point {
	return p.derive(a.RotateAbout(p.Vec(), pivotVec(pivot)))
}

// RotateInPlace rotates p about pivot (the origin if nil) and notifies p's
// observers once.
func (a *Angle) RotateInPlace(p, pivot *Point) {
	p.SetVec(a.RotateAbout(p.Vec(), pivotVec(pivot)))
}

func pivotVec(p *Point) mgl64.Vec3 {
	if p == nil {
		return mgl64.Vec3{}
	}
	return p.Vec()
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

func eulerQuat(x, y, z float64) mgl64.Quat {
	qx := mgl64.QuatRotate(deg2rad(x), AxisX)
	qy := mgl64.QuatRotate(deg2rad(y), AxisY)
	qz := mgl64.QuatRotate(deg2rad(z), AxisZ)
	return unit(qz.Mul(qy).Mul(qx))
}

func unit(q mgl64.Quat) mgl64.Quat {
	l := q.Len()
	if l < Epsilon || math.IsNaN(l) {
		return mgl64.QuatIdent()
	}
	return mgl64.Quat{W: q.W / l, V: q.V.Mul(1 / l)}
}

// rows expands q into a row-major 3x3 rotation matrix.
func rows(q mgl64.Quat) [3][3]float64 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	return [3][3]float64{
		{1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy)},
		{2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx)},
		{2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy)},
	}
}

// quatFromBasis converts the rotation whose columns are c0, c1, c2.
func quatFromBasis(c0, c1, c2 mgl64.Vec3) mgl64.Quat {
	r00, r01, r02 := c0[0], c1[0], c2[0]
	r10, r11, r12 := c0[1], c1[1], c2[1]
	r20, r21, r22 := c0[2], c1[2], c2[2]

	var w, x, y, z float64
	switch tr := r00 + r11 + r22; {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		w, x, y, z = s/4, (r21-r12)/s, (r02-r20)/s, (r10-r01)/s
	case r00 > r11 && r00 > r22:
		s := math.Sqrt(1+r00-r11-r22) * 2
		w, x, y, z = (r21-r12)/s, s/4, (r01+r10)/s, (r02+r20)/s
	case r11 > r22:
		s := math.Sqrt(1+r11-r00-r22) * 2
		w, x, y, z = (r02-r20)/s, (r01+r10)/s, s/4, (r12+r21)/s
	default:
		s := math.Sqrt(1+r22-r00-r11) * 2
		w, x, y, z = (r10-r01)/s, (r02+r20)/s, (r12+r21)/s, s/4
	}
	return unit(mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}})
}

// orthoTolerance bounds |R·Rᵀ - I| and |det R - 1|.
const orthoTolerance = 1e-9

// mustOrthonormal panics if q does not describe a proper rotation. A
// failure means a composition produced shear, which is a defect.
func mustOrthonormal(q mgl64.Quat) {
	r := rows(q)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dot := r[i][0]*r[j][0] + r[i][1]*r[j][1] + r[i][2]*r[j][2]
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(dot-want) > orthoTolerance {
				panic(fmt.Sprintf("geom: rotation is not orthonormal (row %d·row %d = %g)", i, j, dot))
			}
		}
	}
	det := r[0][0]*(r[1][1]*r[2][2]-r[1][2]*r[2][1]) -
		r[0][1]*(r[1][0]*r[2][2]-r[1][2]*r[2][0]) +
		r[0][2]*(r[1][0]*r[2][1]-r[1][1]*r[2][0])
	if math.Abs(det-1) > orthoTolerance {
		panic(fmt.Sprintf("geom: rotation determinant is %g", det))
	}
}
