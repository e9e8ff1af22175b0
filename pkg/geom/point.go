package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/shopspring/decimal"
)

// PointEvent is delivered to point observers after a change. Old is the
// value before the write, or before the outermost batch opened.
type PointEvent struct {
	Point *Point
	Old   mgl64.Vec3
}

// Delta returns the displacement carried by the event.
func (e PointEvent) Delta() mgl64.Vec3 {
	return e.Point.Vec().Sub(e.Old)
}

// Point is an observable 3D position. When Resolution is positive every
// write is snapped to the nearest multiple of it using decimal rounding, so
// editor positions land exactly on the grid (0.1 stays 0.1).
type Point struct {
	x, y, z    float64
	resolution float64

	changed Observable[PointEvent]
	batch   batcher[mgl64.Vec3]
}

// NewPoint returns an unbound point with no grid snapping.
func NewPoint(x, y, z float64) *Point {
	return &Point{x: x, y: y, z: z}
}

// NewSnappedPoint returns a point that snaps every write to res.
func NewSnappedPoint(x, y, z, res float64) *Point {
	p := &Point{resolution: res}
	v := p.snap(mgl64.Vec3{x, y, z})
	p.x, p.y, p.z = v[0], v[1], v[2]
	return p
}

// PointFromVec returns an unbound point at v.
func PointFromVec(v mgl64.Vec3) *Point {
	return NewPoint(v[0], v[1], v[2])
}

func (p *Point) X() float64 { return p.x }
func (p *Point) Y() float64 { return p.y }
func (p *Point) Z() float64 { return p.z }

// Vec returns the coordinates as a vector.
func (p *Point) Vec() mgl64.Vec3 {
	return mgl64.Vec3{p.x, p.y, p.z}
}

// Resolution returns the snapping grid, or 0 when snapping is off.
func (p *Point) Resolution() float64 {
	return p.resolution
}

func (p *Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.x, p.y, p.z)
}

// ---------------------------------------------------------------------------
// Observers
// ---------------------------------------------------------------------------

// Bind registers o. It returns false if o is already bound.
func (p *Point) Bind(o Observer[PointEvent]) (*Subscription, bool) {
	return p.changed.Bind(o)
}

// Unbind removes o; no-op if it is not bound.
func (p *Point) Unbind(o Observer[PointEvent]) {
	p.changed.Unbind(o)
}

// Subscribe registers fn and returns its subscription handle.
func (p *Point) Subscribe(fn func(PointEvent)) *Subscription {
	return p.changed.Subscribe(fn)
}

// Observers returns the number of live observers.
func (p *Point) Observers() int {
	return p.changed.Len()
}

// Suspend opens a batch scope. Writes made before the returned guard is
// resumed are delivered as a single notification.
func (p *Point) Suspend() *Guard {
	p.batch.depth++
	return &Guard{resume: p.resume}
}

// Batch runs fn inside a suspend/resume scope. Observers are flushed even
// if fn panics.
func (p *Point) Batch(fn func()) {
	g := p.Suspend()
	defer g.Resume()
	fn()
}

func (p *Point) resume() {
	if old, ok := p.batch.release(p.Vec()); ok {
		p.changed.Fire(PointEvent{Point: p, Old: old})
	}
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

func (p *Point) SetX(v float64) { p.write(mgl64.Vec3{v, p.y, p.z}) }
func (p *Point) SetY(v float64) { p.write(mgl64.Vec3{p.x, v, p.z}) }
func (p *Point) SetZ(v float64) { p.write(mgl64.Vec3{p.x, p.y, v}) }

// Set writes all three coordinates with one notification.
func (p *Point) Set(x, y, z float64) { p.write(mgl64.Vec3{x, y, z}) }

// SetVec writes v with one notification.
func (p *Point) SetVec(v mgl64.Vec3) { p.write(v) }

// AddInPlace moves p by q.
func (p *Point) AddInPlace(q *Point) { p.write(p.Vec().Add(q.Vec())) }

// SubInPlace moves p by -q.
func (p *Point) SubInPlace(q *Point) { p.write(p.Vec().Sub(q.Vec())) }

// Translate moves p by d.
func (p *Point) Translate(d mgl64.Vec3) { p.write(p.Vec().Add(d)) }

// ScaleInPlace multiplies every coordinate by s.
func (p *Point) ScaleInPlace(s float64) { p.write(p.Vec().Mul(s)) }

func (p *Point) write(v mgl64.Vec3) {
	v = p.snap(v)
	cur := p.Vec()
	if v == cur {
		return
	}
	if p.batch.suspended() {
		p.batch.hold(cur)
		p.x, p.y, p.z = v[0], v[1], v[2]
		return
	}
	p.x, p.y, p.z = v[0], v[1], v[2]
	p.changed.Fire(PointEvent{Point: p, Old: cur})
}

func (p *Point) snap(v mgl64.Vec3) mgl64.Vec3 {
	if p.resolution <= 0 {
		return v
	}
	return mgl64.Vec3{
		Snap(v[0], p.resolution),
		Snap(v[1], p.resolution),
		Snap(v[2], p.resolution),
	}
}

// Snap rounds v to the nearest multiple of res using decimal arithmetic.
// Non-finite values and non-positive resolutions are returned unchanged.
func Snap(v, res float64) float64 {
	if res <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	step := decimal.NewFromFloat(res)
	f, _ := decimal.NewFromFloat(v).Div(step).Round(0).Mul(step).Float64()
	return f
}

// ---------------------------------------------------------------------------
// Arithmetic (returns new, unbound points)
// ---------------------------------------------------------------------------

// Copy returns an unbound point with the same coordinates and resolution.
func (p *Point) Copy() *Point {
	return &Point{x: p.x, y: p.y, z: p.z, resolution: p.resolution}
}

func (p *Point) derive(v mgl64.Vec3) *Point {
	q := &Point{resolution: p.resolution}
	v = q.snap(v)
	q.x, q.y, q.z = v[0], v[1], v[2]
	return q
}

func (p *Point) Add(q *Point) *Point { return p.derive(p.Vec().Add(q.Vec())) }
func (p *Point) Sub(q *Point) *Point { return p.derive(p.Vec().Sub(q.Vec())) }
func (p *Point) Scale(s float64) *Point { return p.derive(p.Vec().Mul(s)) }

// Div divides every coordinate by s. Dividing by zero is a programming
// error and panics.
func (p *Point) Div(s float64) *Point {
	if s == 0 {
		panic("geom: point divided by zero")
	}
	return p.derive(p.Vec().Mul(1 / s))
}

// Distance returns |p - q|.
func (p *Point) Distance(q *Point) float64 {
	return p.Vec().Sub(q.Vec()).Len()
}

// ApproxEqual compares coordinates within eps.
func (p *Point) ApproxEqual(q *Point, eps float64) bool {
	return p.Vec().ApproxEqualThreshold(q.Vec(), eps)
}
