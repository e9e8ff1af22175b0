package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/harnessview/pkg/camera"
	"github.com/chazu/harnessview/pkg/config"
	"github.com/chazu/harnessview/pkg/engine"
	"github.com/chazu/harnessview/pkg/geom"
	"github.com/chazu/harnessview/pkg/input"
	"github.com/chazu/harnessview/pkg/kernel"
	"github.com/chazu/harnessview/pkg/kernel/sdfx"
	"github.com/chazu/harnessview/pkg/loop"
	"github.com/chazu/harnessview/pkg/pick"
	"github.com/chazu/harnessview/pkg/scene"
	"github.com/chazu/harnessview/pkg/tessellate"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/glog"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
// Bindings are called on arbitrary goroutines; everything that touches the
// scene or the camera runs on the app's loop.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	events bool // ctx is a wails context

	cfg     config.Config
	engine  *engine.Engine
	kernel  kernel.Kernel
	normals tessellate.Table

	loop   *loop.Loop
	scene  *scene.Scene
	camera *camera.Camera
	repeat *input.Repeater
	mouse  *input.Mouse

	width, height int
	lastPick      PickResult
}

// Part is a scene object built from a layout part.
type Part struct {
	*scene.Object
	Source *engine.Part
	Mode   tessellate.Mode
}

// MeshData is the JSON-serializable object format sent to the frontend.
type MeshData struct {
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Color    string     `json:"color"`
	Vertices []float32  `json:"vertices"`
	Normals  []float32  `json:"normals"`
	Count    int        `json:"count"`
	Min      [3]float64 `json:"min"`
	Max      [3]float64 `json:"max"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// LoadResult is returned from Load.
type LoadResult struct {
	Meshes []MeshData      `json:"meshes"`
	Errors []EvalErrorData `json:"errors"`
}

// PickResult names the picked object, if any.
type PickResult struct {
	Hit      bool    `json:"hit"`
	Name     string  `json:"name"`
	T        float64 `json:"t"`
	Triangle int     `json:"triangle"`
}

// CameraData is the camera pose plus the matrices the frontend draws with.
type CameraData struct {
	Eye        [3]float64  `json:"eye"`
	Focus      [3]float64  `json:"focus"`
	Up         [3]float64  `json:"up"`
	View       [16]float64 `json:"view"`
	Projection [16]float64 `json:"projection"`
	Distance   float64     `json:"distance"`
	Elevation  float64     `json:"elevation"`
}

// NewApp creates an App with the sdfx kernel. cfg must be resolved.
func NewApp(cfg config.Config) (*App, error) {
	normals, err := tessellate.NewTable(cfg.Mesh.Normals)
	if err != nil {
		return nil, err
	}
	bindings, err := input.NewBindings(cfg.Keys)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		engine:  engine.NewEngine(),
		kernel:  sdfx.New(),
		normals: normals,
		loop:    loop.New(64),
		scene: scene.New(pick.Options{
			Tolerance:     cfg.Picking.Tolerance,
			MoveThreshold: cfg.Picking.MoveThreshold,
			Refine:        *cfg.Picking.RefineTriangles,
		}),
		camera: camera.New(camera.OptionsFrom(cfg.Camera)),
		width:  cfg.Render.Width,
		height: cfg.Render.Height,
	}
	apply := input.Apply(a.camera)
	a.repeat = input.NewRepeater(bindings, cfg.Repeat, a.loop.Post, apply)
	a.mouse, err = input.NewMouse(cfg.Mouse, cfg.Picking.DragThreshold, apply, func(x, y float64) {
		a.lastPick = a.pick(x, y)
	})
	if err != nil {
		return nil, err
	}

	a.camera.Changed().Subscribe(func(*camera.Camera) {
		a.scene.Invalidate()
		a.emit("camera", a.cameraData())
	})
	return a, nil
}

// startup is called by Wails on app startup.
func (a *App) startup(ctx context.Context) {
	a.events = true
	a.run(ctx)
	glog.Infof("app: started (%dx%d)", a.width, a.height)
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	glog.Flush()
}

// run starts the UI loop and the key-repeat poller.
func (a *App) run(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	go func() {
		if err := a.loop.Run(a.ctx); err != nil {
			glog.Fatalf("app: %v", err)
		}
	}()
	go a.repeat.Run(a.ctx)
}

func (a *App) emit(name string, data interface{}) {
	if !a.events {
		return
	}
	runtime.EventsEmit(a.ctx, name, data)
}

// do runs fn on the UI loop.
func (a *App) do(fn func()) {
	if err := a.loop.Do(fn); err != nil {
		glog.Warningf("app: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Layout
// ---------------------------------------------------------------------------

// Load evaluates a layout script and replaces the scene with its parts.
// This is the primary binding called by the frontend editor.
func (a *App) Load(source string) LoadResult {
	result := LoadResult{Meshes: []MeshData{}, Errors: []EvalErrorData{}}

	l, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		glog.Errorf("app: evaluate: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	parts, err := tessellate.Build(l, a.kernel, a.normals, a.cfg.Mesh.Cells)
	if err != nil {
		glog.Errorf("app: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}

	a.do(func() {
		a.scene.Clear()
		for _, tp := range parts {
			p, err := a.newPart(tp)
			if err == nil {
				err = a.scene.Add(p)
			}
			if err != nil {
				result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
				continue
			}
			result.Meshes = append(result.Meshes, meshData(p))
		}
		if c := l.Camera; c != nil {
			if !a.camera.LookAt(mgl64.Vec3(c.Eye), mgl64.Vec3(c.Focus)) {
				glog.Warningf("app: script camera %v -> %v declined", c.Eye, c.Focus)
			}
		}
		a.lastPick = PickResult{}
	})
	glog.Infof("app: loaded %d parts", len(result.Meshes))
	a.emit("scene", result.Meshes)
	return result
}

func (a *App) newPart(tp *tessellate.Part) (*Part, error) {
	src := tp.Source
	color, err := parseHex(src.Color)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name, err)
	}
	c := src.Centre()
	obj := scene.NewObject(src.Name,
		geom.NewSnappedPoint(c[0], c[1], c[2], a.cfg.Snap),
		geom.FromEuler(src.Rotate[0], src.Rotate[1], src.Rotate[2]),
		&scene.Batch{Triangles: tp.Vertices, Normals: tp.Normals, Color: color, Count: tp.Count},
	)
	obj.Category = string(src.Category)
	return &Part{Object: obj, Source: src, Mode: tp.Mode}, nil
}

func parseHex(s string) ([4]float32, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return [4]float32{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return [4]float32{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return [4]float32{
		float32(v>>16&0xff) / 255,
		float32(v>>8&0xff) / 255,
		float32(v&0xff) / 255,
		1,
	}, nil
}

func meshData(p *Part) MeshData {
	lo, hi := p.HitBox()
	var verts, norms []float32
	for _, b := range p.Batches {
		verts = append(verts, b.Triangles...)
		norms = append(norms, b.Normals...)
	}
	return MeshData{
		Name:     p.Name,
		Category: p.Category,
		Color:    p.Source.Color,
		Vertices: verts,
		Normals:  norms,
		Count:    p.TriangleCount(),
		Min:      lo,
		Max:      hi,
	}
}

// Objects returns the current scene, including any moves since Load.
func (a *App) Objects() []MeshData {
	out := []MeshData{}
	a.do(func() {
		for _, it := range a.scene.Objects() {
			if p, ok := it.(*Part); ok {
				out = append(out, meshData(p))
			}
		}
	})
	return out
}

func (a *App) lookup(name string) (*Part, error) {
	p, ok := a.scene.Lookup(name).(*Part)
	if !ok {
		return nil, fmt.Errorf("no object named %q", name)
	}
	return p, nil
}

// MoveObject places an object's position, snapped to the grid.
func (a *App) MoveObject(name string, x, y, z float64) (err error) {
	a.do(func() {
		var p *Part
		if p, err = a.lookup(name); err == nil {
			p.Position.Set(x, y, z)
			a.emit("object", meshData(p))
		}
	})
	return err
}

// RotateObject sets an object's orientation in Euler degrees.
func (a *App) RotateObject(name string, x, y, z float64) (err error) {
	a.do(func() {
		var p *Part
		if p, err = a.lookup(name); err == nil {
			p.Rotation.SetEuler(x, y, z)
			a.emit("object", meshData(p))
		}
	})
	return err
}

// RemoveObject drops an object from the scene.
func (a *App) RemoveObject(name string) (err error) {
	a.do(func() {
		var p *Part
		if p, err = a.lookup(name); err == nil {
			a.scene.Remove(p)
			a.emit("removed", name)
		}
	})
	return err
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// surface is the render surface picks read from.
type surface struct {
	cam    *camera.Camera
	render config.Render
	width  int
	height int
}

func (s surface) ModelView() mgl64.Mat4 { return s.cam.View() }

func (s surface) Projection() mgl64.Mat4 {
	aspect := float64(s.width) / float64(s.height)
	return mgl64.Perspective(mgl64.DegToRad(s.render.FOV), aspect, s.render.Near, s.render.Far)
}

func (s surface) Viewport() pick.Viewport {
	return pick.Viewport{Width: float64(s.width), Height: float64(s.height)}
}

func (a *App) surface() surface {
	return surface{cam: a.camera, render: a.cfg.Render, width: a.width, height: a.height}
}

// Resize records the viewport size reported by the frontend.
func (a *App) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	a.do(func() {
		a.width, a.height = width, height
		a.scene.Invalidate()
	})
}

// Camera returns the current pose.
func (a *App) Camera() (c CameraData) {
	a.do(func() { c = a.cameraData() })
	return c
}

func (a *App) cameraData() CameraData {
	s := a.surface()
	return CameraData{
		Eye:        a.camera.Eye.Vec(),
		Focus:      a.camera.Pos.Vec(),
		Up:         a.camera.Up(),
		View:       s.ModelView(),
		Projection: s.Projection(),
		Distance:   a.camera.Distance(),
		Elevation:  a.camera.Elevation(),
	}
}

// ResetCamera restores the configured pose.
func (a *App) ResetCamera() {
	a.do(a.camera.Reset)
}

// Pick selects the object under a window point (top-left origin). Repeated
// picks at one spot cycle through overlapping objects.
func (a *App) Pick(x, y float64) (r PickResult) {
	a.do(func() { r = a.pick(x, y) })
	return r
}

func (a *App) pick(x, y float64) PickResult {
	hit, ok := a.scene.PickHit(a.surface(), x, y)
	if !ok {
		a.emit("pick", PickResult{})
		return PickResult{}
	}
	r := PickResult{Hit: true, T: hit.T, Triangle: hit.Triangle}
	if o, ok := hit.Target.(*scene.Object); ok {
		r.Name = o.Name
	}
	a.emit("pick", r)
	return r
}

// ---------------------------------------------------------------------------
// Input
// ---------------------------------------------------------------------------

// KeyDown starts a held navigation key. It reports whether the key was
// consumed.
func (a *App) KeyDown(code string) (ok bool) {
	a.do(func() { ok = a.repeat.KeyDown(code) })
	return ok
}

// KeyUp releases a held key.
func (a *App) KeyUp(code string) {
	a.repeat.KeyUp(code)
}

// Blur releases every held key when the window loses focus.
func (a *App) Blur() {
	a.repeat.Release()
}

// MouseDown starts a press with button "left", "middle" or "right".
func (a *App) MouseDown(button string, x, y float64) {
	a.do(func() { a.mouse.Down(input.Button(button), x, y) })
}

// MouseMove drags with the pressed button.
func (a *App) MouseMove(x, y float64) {
	a.do(func() { a.mouse.Move(x, y) })
}

// MouseUp ends a press. A click picks and returns the result.
func (a *App) MouseUp(button string, x, y float64) (r PickResult) {
	a.do(func() {
		a.lastPick = PickResult{}
		a.mouse.Up(input.Button(button), x, y)
		r = a.lastPick
	})
	return r
}

// MouseWheel zooms by a DOM wheel delta.
func (a *App) MouseWheel(delta float64) {
	a.do(func() { a.mouse.Wheel(delta) })
}
