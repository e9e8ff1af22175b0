// Package scene holds the drawable objects of the viewport. An Object keeps
// its triangle batches and hit box in world space and follows its bound
// position and rotation: every change is applied as a delta to triangles,
// normals and hit box in one step.
package scene

import (
	"fmt"
	"math"

	"github.com/chazu/harnessview/pkg/geom"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// Batch is one colour's worth of triangles. Triangles and Normals hold
// Count*9 floats.
type Batch struct {
	Triangles []float32
	Normals   []float32
	Color     [4]float32
	Count     int
}

// Item is anything the scene can hold. Concrete kinds embed *Object.
type Item interface {
	Base() *Object
}

// Object is the base scene object.
type Object struct {
	Name     string
	Category string
	Batches  []*Batch

	Position *geom.Point
	Rotation *geom.Angle

	hitMin, hitMax *geom.Point
	// at is the position the geometry currently reflects; it lags Position
	// while a position batch is open.
	at mgl64.Vec3

	posSub, rotSub *geom.Subscription
	changed        geom.Observable[*Object]
	destroyed      bool
}

// NewObject builds an object from world-space batches. The hit box starts
// as the bounds of the triangles. position and rotation are bound; nil
// values get a fresh origin and identity.
func NewObject(name string, position *geom.Point, rotation *geom.Angle, batches ...*Batch) *Object {
	if position == nil {
		position = geom.NewPoint(0, 0, 0)
	}
	if rotation == nil {
		rotation = geom.Identity()
	}
	o := &Object{
		Name:     name,
		Batches:  batches,
		Position: position,
		Rotation: rotation,
		at:       position.Vec(),
	}
	min, max, ok := o.triangleBounds()
	if !ok {
		min, max = position.Vec(), position.Vec()
	}
	o.hitMin = geom.PointFromVec(min)
	o.hitMax = geom.PointFromVec(max)

	o.posSub = position.Subscribe(o.moved)
	o.rotSub = rotation.Subscribe(o.rotated)
	return o
}

// Base returns o; it lets concrete kinds satisfy Item by embedding.
func (o *Object) Base() *Object { return o }

// Changed fires after every applied transform.
func (o *Object) Changed() *geom.Observable[*Object] { return &o.changed }

// Destroyed reports whether Destroy has run.
func (o *Object) Destroyed() bool { return o.destroyed }

// Destroy closes the position and rotation subscriptions and drops the
// geometry. The object ignores later changes to its former position and
// rotation.
func (o *Object) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	o.posSub.Close()
	o.rotSub.Close()
	o.Batches = nil
}

// ---------------------------------------------------------------------------
// Hit box
// ---------------------------------------------------------------------------

// HitBox returns the hit-test corners.
func (o *Object) HitBox() (min, max mgl64.Vec3) {
	return o.hitMin.Vec(), o.hitMax.Vec()
}

// HitPoints exposes the corner points for editor binding.
func (o *Object) HitPoints() (min, max *geom.Point) {
	return o.hitMin, o.hitMax
}

// HitTestRect is a snapshot of the hit box.
func (o *Object) HitTestRect() r3.Box {
	return r3.Box{Min: toR3(o.hitMin.Vec()), Max: toR3(o.hitMax.Vec())}
}

// HitTest reports whether p lies inside the hit box, inclusive.
func (o *Object) HitTest(p mgl64.Vec3) bool {
	min, max := o.HitBox()
	for i := 0; i < 3; i++ {
		if p[i] < min[i] || p[i] > max[i] {
			return false
		}
	}
	return true
}

// AdjustHitPoints reorders the two corners so that min <= max per axis.
func (o *Object) AdjustHitPoints() {
	b := o.HitTestRect().Canon()
	o.hitMin.SetVec(fromR3(b.Min))
	o.hitMax.SetVec(fromR3(b.Max))
}

func (o *Object) mustNormalized() {
	min, max := o.HitBox()
	for i := 0; i < 3; i++ {
		if min[i] > max[i] || math.IsNaN(min[i]) || math.IsNaN(max[i]) {
			panic(fmt.Sprintf("scene: %s hit box not normalized after transform: min %v max %v", o.Name, min, max))
		}
	}
}

// ---------------------------------------------------------------------------
// Draw submission
// ---------------------------------------------------------------------------

// Triangles returns the world-space soup of every batch, 9 floats per triangle.
func (o *Object) Triangles() []float32 {
	if len(o.Batches) == 1 {
		return o.Batches[0].Triangles
	}
	n := 0
	for _, b := range o.Batches {
		n += len(b.Triangles)
	}
	out := make([]float32, 0, n)
	for _, b := range o.Batches {
		out = append(out, b.Triangles...)
	}
	return out
}

// Colors returns the colour of each batch.
func (o *Object) Colors() [][4]float32 {
	out := make([][4]float32, len(o.Batches))
	for i, b := range o.Batches {
		out[i] = b.Color
	}
	return out
}

// TriangleCount is the total across batches.
func (o *Object) TriangleCount() int {
	n := 0
	for _, b := range o.Batches {
		n += b.Count
	}
	return n
}

// ---------------------------------------------------------------------------
// Transform propagation
// ---------------------------------------------------------------------------

func (o *Object) moved(e geom.PointEvent) {
	d := e.Delta()
	dx, dy, dz := float32(d[0]), float32(d[1]), float32(d[2])
	for _, b := range o.Batches {
		for i := 0; i+2 < len(b.Triangles); i += 3 {
			b.Triangles[i] += dx
			b.Triangles[i+1] += dy
			b.Triangles[i+2] += dz
		}
	}
	o.hitMin.Translate(d)
	o.hitMax.Translate(d)
	o.at = o.at.Add(d)
	o.refit()
}

func (o *Object) rotated(e geom.AngleEvent) {
	delta := geom.FromQuat(e.Delta())
	pivot := o.at
	for _, b := range o.Batches {
		rotateSoup(b.Triangles, delta, pivot)
		rotateSoup(b.Normals, delta, mgl64.Vec3{})
	}
	pp := geom.PointFromVec(pivot)
	delta.RotateInPlace(o.hitMin, pp)
	delta.RotateInPlace(o.hitMax, pp)
	o.refit()
}

// refit normalises the corners and then snaps the box to the triangle
// bounds. Float32 triangles drift independently of the float64 corners, so
// the bounds are the authority whenever there is geometry.
func (o *Object) refit() {
	o.AdjustHitPoints()
	if min, max, ok := o.triangleBounds(); ok {
		o.hitMin.SetVec(min)
		o.hitMax.SetVec(max)
	}
	o.mustNormalized()
	o.changed.Fire(o)
}

func (o *Object) triangleBounds() (min, max mgl64.Vec3, ok bool) {
	min = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, b := range o.Batches {
		for i := 0; i+2 < len(b.Triangles); i += 3 {
			for a := 0; a < 3; a++ {
				v := float64(b.Triangles[i+a])
				min[a] = math.Min(min[a], v)
				max[a] = math.Max(max[a], v)
			}
			ok = true
		}
	}
	return min, max, ok
}

func rotateSoup(a []float32, r *geom.Angle, pivot mgl64.Vec3) {
	for i := 0; i+2 < len(a); i += 3 {
		v := mgl64.Vec3{float64(a[i]), float64(a[i+1]), float64(a[i+2])}
		v = r.RotateAbout(v, pivot)
		a[i], a[i+1], a[i+2] = float32(v[0]), float32(v[1]), float32(v[2])
	}
}

func toR3(v mgl64.Vec3) r3.Vec   { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }
func fromR3(v r3.Vec) mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }
