// Package camera implements viewport navigation. A Camera owns two points,
// the focus (Pos) and the viewpoint (Eye), and moves them with six motion
// idioms: orbit, look, truck/pedestal, walk, zoom and reset. The pitch is
// capped short of the poles so the view never aligns with world up.
package camera

import (
	"fmt"
	"math"

	"github.com/chazu/harnessview/pkg/config"
	"github.com/chazu/harnessview/pkg/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/glog"
)

// WorldUp is the ground-plane normal.
var WorldUp = mgl64.Vec3{0, 1, 0}

// WorldForward substitutes for the ground projection of a vertical view.
var WorldForward = mgl64.Vec3{0, 0, -1}

const epsilon = 1e-9

// MaxPitch is the steepest pitch limit, in degrees, the camera accepts.
const MaxPitch = 89.9

// Options are the navigation constants.
type Options struct {
	Eye, Focus mgl64.Vec3

	RotateSensitivity float64 // degrees per input unit
	PanSensitivity    float64 // world units per input unit
	ZoomSensitivity   float64 // world units per zoom unit
	WalkSpeed         float64 // world units per input unit
	WalkTurn          float64 // degrees of turn per unit of lateral walk, before sensitivity
	PitchLimit        float64 // degrees
	MinDistance       float64
	MaxDistance       float64 // 0 = unbounded
}

// OptionsFrom converts the camera config section. cfg must be resolved.
func OptionsFrom(cfg config.Camera) Options {
	return Options{
		Eye:               mgl64.Vec3(cfg.Eye),
		Focus:             mgl64.Vec3(cfg.Focus),
		RotateSensitivity: cfg.RotateSensitivity,
		PanSensitivity:    cfg.PanSensitivity,
		ZoomSensitivity:   cfg.ZoomSensitivity,
		WalkSpeed:         cfg.WalkSpeed,
		WalkTurn:          cfg.WalkTurn,
		PitchLimit:        cfg.PitchLimit,
		MinDistance:       cfg.MinDistance,
		MaxDistance:       cfg.MaxDistance,
	}
}

// DefaultOptions are the resolved config defaults.
func DefaultOptions() Options {
	return OptionsFrom(config.Default().Camera)
}

// Camera is the navigation controller.
type Camera struct {
	Pos *geom.Point
	Eye *geom.Point

	opts    Options
	changed geom.Observable[*Camera]
}

// New places a camera at the option defaults. A collapsed eye is pushed
// back along +Z by MinDistance, and a default pose steeper than the pitch
// limit is lowered onto it. PitchLimit is capped at MaxPitch.
func New(opts Options) *Camera {
	if opts.MinDistance <= 0 {
		opts.MinDistance = epsilon
	}
	if opts.PitchLimit <= 0 || opts.PitchLimit > MaxPitch {
		opts.PitchLimit = MaxPitch
	}
	if opts.Eye.Sub(opts.Focus).Len() < opts.MinDistance {
		glog.Warningf("camera: eye %v collapses onto focus %v; moving it back", opts.Eye, opts.Focus)
		opts.Eye = opts.Focus.Add(mgl64.Vec3{0, 0, math.Max(opts.MinDistance, 1)})
	}
	if eye, clamped := clampPitch(opts.Eye, opts.Focus, opts.PitchLimit); clamped {
		glog.Warningf("camera: default eye %v is steeper than %.1f°; using %v", opts.Eye, opts.PitchLimit, eye)
		opts.Eye = eye
	}
	return &Camera{
		Pos:  geom.PointFromVec(opts.Focus),
		Eye:  geom.PointFromVec(opts.Eye),
		opts: opts,
	}
}

// Options returns the controller's constants.
func (c *Camera) Options() Options { return c.opts }

// Changed fires after every effective motion.
func (c *Camera) Changed() *geom.Observable[*Camera] { return &c.changed }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Forward is the unit view direction from eye to pos.
func (c *Camera) Forward() mgl64.Vec3 {
	f, _ := geom.Normalize(c.Pos.Vec().Sub(c.Eye.Vec()))
	return f
}

// Right is the unit camera right axis; ok is false when looking straight
// up or down.
func (c *Camera) Right() (mgl64.Vec3, bool) {
	return geom.Normalize(c.Forward().Cross(WorldUp))
}

// Up is the camera's true up vector, perpendicular to the view direction.
// World up is returned when the view is vertical.
func (c *Camera) Up() mgl64.Vec3 {
	r, ok := c.Right()
	if !ok {
		return WorldUp
	}
	u, _ := geom.Normalize(r.Cross(c.Forward()))
	return u
}

// View is the look-at matrix for the current pose.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye.Vec(), c.Pos.Vec(), c.Up())
}

// Distance is |eye - pos|.
func (c *Camera) Distance() float64 {
	return c.Eye.Distance(c.Pos)
}

// Elevation is the eye's angle above the ground plane through pos, in degrees.
func (c *Camera) Elevation() float64 {
	return elevation(c.Eye.Vec().Sub(c.Pos.Vec()))
}

func elevation(v mgl64.Vec3) float64 {
	l := v.Len()
	if l < epsilon {
		return 0
	}
	s := math.Max(-1, math.Min(1, v.Y()/l))
	return mgl64.RadToDeg(math.Asin(s))
}

// clampPitch lowers eye onto the pitch limit about focus, keeping its
// distance and heading. A vertical eye takes the +Z heading.
func clampPitch(eye, focus mgl64.Vec3, limit float64) (mgl64.Vec3, bool) {
	v := eye.Sub(focus)
	e := elevation(v)
	if math.Abs(e) <= limit {
		return eye, false
	}
	h := groundHeading(v.Mul(-1))
	e = mgl64.DegToRad(math.Copysign(limit, e))
	d := v.Len()
	return focus.Sub(h.Mul(d * math.Cos(e))).Add(WorldUp.Mul(d * math.Sin(e))), true
}

// groundHeading projects a view direction onto the ground plane. A
// vertical direction has no projection and yields WorldForward.
func groundHeading(f mgl64.Vec3) mgl64.Vec3 {
	g, ok := geom.Normalize(mgl64.Vec3{f.X(), 0, f.Z()})
	if !ok {
		return WorldForward
	}
	return g
}

// ---------------------------------------------------------------------------
// Motions
// ---------------------------------------------------------------------------

// Rotate orbits the eye about pos. dx yaws about world up; dy pitches about
// the camera right axis, raising the eye for positive dy. A pitch that
// would pass the limit is dropped while the yaw still applies.
func (c *Camera) Rotate(dx, dy float64) bool {
	return c.orbit(c.Eye, c.Pos, dx, dy)
}

// PanTilt turns the view from a fixed eye: pos orbits the eye with the
// same math as Rotate.
func (c *Camera) PanTilt(dx, dy float64) bool {
	return c.orbit(c.Pos, c.Eye, dx, dy)
}

func (c *Camera) orbit(subject, pivot *geom.Point, dx, dy float64) bool {
	v := subject.Vec().Sub(pivot.Vec())
	r := v.Len()
	if r < epsilon || (dx == 0 && dy == 0) {
		return false
	}
	sens := c.opts.RotateSensitivity

	if dx != 0 {
		v = geom.RotateAxis(v, WorldUp, mgl64.DegToRad(-dx*sens))
	}
	if dy != 0 {
		// The axis is horizontal and perpendicular to v, so the elevation
		// moves by exactly the pitch angle.
		axis, ok := geom.Normalize(v.Cross(WorldUp))
		if next := elevation(v) + dy*sens; ok && math.Abs(next) <= c.opts.PitchLimit {
			v = geom.RotateAxis(v, axis, mgl64.DegToRad(dy*sens))
		} else {
			glog.V(2).Infof("camera: pitch to %.2f° declined", next)
		}
	}

	// Restore the radius exactly; repeated small steps must not drift.
	v = v.Mul(r / v.Len())
	next := pivot.Vec().Add(v)
	if next.ApproxEqual(subject.Vec()) {
		return false
	}
	subject.SetVec(next)
	c.changed.Fire(c)
	return true
}

// TruckPedestal slides eye and pos together along the camera right and up
// axes.
func (c *Camera) TruckPedestal(dx, dy float64) bool {
	if dx == 0 && dy == 0 {
		return false
	}
	right, ok := c.Right()
	if !ok {
		return false
	}
	up := c.Up()
	s := c.opts.PanSensitivity
	return c.translate(right.Mul(dx * s).Add(up.Mul(dy * s)))
}

// Walk moves across the ground plane. dy steps forward, dx strafes; the
// step length is the input magnitude times WalkSpeed whatever the
// direction mix. Strafing also turns the heading a little. With dy == 0 it
// only turns.
func (c *Camera) Walk(dx, dy float64) bool {
	if dy == 0 {
		return c.PanTilt(dx, 0)
	}
	ground := groundHeading(c.Forward())
	right, _ := geom.Normalize(ground.Cross(WorldUp))

	dir, ok := geom.Normalize(right.Mul(dx).Add(ground.Mul(dy)))
	if !ok {
		return false
	}
	moved := c.translate(dir.Mul(math.Hypot(dx, dy) * c.opts.WalkSpeed))
	if dx != 0 && c.opts.WalkTurn != 0 {
		c.PanTilt(dx*c.opts.WalkTurn, 0)
	}
	return moved
}

// Zoom moves the eye along the view axis; positive delta moves closer. A
// step that would leave less than MinDistance, or more than a configured
// MaxDistance, is declined.
func (c *Camera) Zoom(delta float64) bool {
	if delta == 0 {
		return false
	}
	f := c.Pos.Vec().Sub(c.Eye.Vec())
	dist := f.Len()
	if dist < epsilon {
		return false
	}
	next := dist - delta*c.opts.ZoomSensitivity
	if next < c.opts.MinDistance {
		glog.V(2).Infof("camera: zoom to %.3f declined (min %.3f)", next, c.opts.MinDistance)
		return false
	}
	if c.opts.MaxDistance > 0 && next > c.opts.MaxDistance {
		return false
	}
	c.Eye.SetVec(c.Pos.Vec().Sub(f.Mul(next / dist)))
	c.changed.Fire(c)
	return true
}

// Reset restores the default pose.
func (c *Camera) Reset() {
	c.Pos.SetVec(c.opts.Focus)
	c.Eye.SetVec(c.opts.Eye)
	c.changed.Fire(c)
}

// LookAt places the camera explicitly, e.g. from a layout script. A
// collapsed pose is declined; one steeper than the pitch limit is lowered
// onto it.
func (c *Camera) LookAt(eye, focus mgl64.Vec3) bool {
	if eye.Sub(focus).Len() < c.opts.MinDistance {
		return false
	}
	if clamped, ok := clampPitch(eye, focus, c.opts.PitchLimit); ok {
		glog.V(1).Infof("camera: eye %v lowered to %.1f° pitch", eye, c.opts.PitchLimit)
		eye = clamped
	}
	c.Pos.SetVec(focus)
	c.Eye.SetVec(eye)
	c.changed.Fire(c)
	return true
}

func (c *Camera) translate(d mgl64.Vec3) bool {
	if d.Len() < epsilon {
		return false
	}
	c.Pos.Translate(d)
	c.Eye.Translate(d)
	c.changed.Fire(c)
	return true
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// Op names a navigation motion as it appears in key and mouse bindings.
type Op string

const (
	OpRotate        Op = "rotate"
	OpPanTilt       Op = "pan_tilt"
	OpTruckPedestal Op = "truck_pedestal"
	OpWalk          Op = "walk"
	OpZoom          Op = "zoom"
	OpReset         Op = "reset"
)

// ParseOp validates an op name.
func ParseOp(s string) (Op, error) {
	switch op := Op(s); op {
	case OpRotate, OpPanTilt, OpTruckPedestal, OpWalk, OpZoom, OpReset:
		return op, nil
	}
	return "", fmt.Errorf("camera: unknown op %q", s)
}

// Apply runs op with the input vector. Zoom reads dy.
func (c *Camera) Apply(op Op, dx, dy float64) (bool, error) {
	switch op {
	case OpRotate:
		return c.Rotate(dx, dy), nil
	case OpPanTilt:
		return c.PanTilt(dx, dy), nil
	case OpTruckPedestal:
		return c.TruckPedestal(dx, dy), nil
	case OpWalk:
		return c.Walk(dx, dy), nil
	case OpZoom:
		return c.Zoom(dy), nil
	case OpReset:
		c.Reset()
		return true, nil
	}
	return false, fmt.Errorf("camera: unknown op %q", op)
}
