// Package config holds the viewport settings: camera sensitivities, picking
// tolerances, key-repeat acceleration, tessellation modes and key bindings.
// Settings are read from a YAML file; anything left unset is filled in by
// Resolve.
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete viewport configuration.
type Config struct {
	Camera  Camera            `yaml:"camera"`
	Picking Picking           `yaml:"picking"`
	Repeat  Repeat            `yaml:"repeat"`
	Mesh    Mesh              `yaml:"mesh"`
	Render  Render            `yaml:"render"`
	Snap    float64           `yaml:"snap"` // grid resolution for part positions
	Keys    map[string]Key    `yaml:"keys"`
	Mouse   map[string]string `yaml:"mouse"` // button -> op
}

// Camera controls navigation feel.
type Camera struct {
	Eye   [3]float64 `yaml:"eye"`
	Focus [3]float64 `yaml:"focus"`

	RotateSensitivity float64 `yaml:"rotate_sensitivity"` // degrees per input unit
	PanSensitivity    float64 `yaml:"pan_sensitivity"`    // world units per input unit
	ZoomSensitivity   float64 `yaml:"zoom_sensitivity"`   // world units per wheel unit
	WalkSpeed         float64 `yaml:"walk_speed"`         // world units per input unit
	WalkTurn          float64 `yaml:"walk_turn"`          // turn coupling for strafing
	PitchLimit        float64 `yaml:"pitch_limit"`        // degrees
	MinDistance       float64 `yaml:"min_distance"`
	MaxDistance       float64 `yaml:"max_distance"` // 0 = unbounded
}

// Picking controls the selection funnel.
type Picking struct {
	Tolerance       float64 `yaml:"tolerance"`        // pixels added around projected boxes
	MoveThreshold   float64 `yaml:"move_threshold"`   // pixels before the candidate cache resets
	RefineTriangles *bool   `yaml:"refine_triangles"` // run the ray-triangle pass
	DragThreshold   float64 `yaml:"drag_threshold"`   // pixels before a press becomes a drag
}

// Repeat controls key-hold acceleration.
type Repeat struct {
	Tick time.Duration `yaml:"tick"`
	Base float64       `yaml:"base"`
	Step float64       `yaml:"step"`
	Max  float64       `yaml:"max"`
}

// Mesh controls tessellation.
type Mesh struct {
	Cells   int               `yaml:"cells"`   // marching cubes resolution
	Normals map[string]string `yaml:"normals"` // category -> "smooth" | "flat"
}

// Render controls the projection.
type Render struct {
	FOV    float64 `yaml:"fov"` // degrees
	Near   float64 `yaml:"near"`
	Far    float64 `yaml:"far"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
}

// Key binds a key code to a navigation op with an input vector.
type Key struct {
	Op string  `yaml:"op"`
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
}

// Load reads a YAML config file. Fields not set in the file keep their zero
// values; call Resolve to fill them.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// Default returns a resolved configuration with every default applied.
func Default() Config {
	var c Config
	c.Resolve()
	return c
}

// Resolve fills in empty fields with defaults.
func (c *Config) Resolve() {
	cam := &c.Camera
	if cam.Eye == ([3]float64{}) && cam.Focus == ([3]float64{}) {
		cam.Eye = [3]float64{0, 150, 400}
	}
	setDefault(&cam.RotateSensitivity, 0.5)
	setDefault(&cam.PanSensitivity, 1)
	setDefault(&cam.ZoomSensitivity, 10)
	setDefault(&cam.WalkSpeed, 5)
	setDefault(&cam.WalkTurn, 0.5)
	setDefault(&cam.PitchLimit, 89.9)
	// At 90° the view can align with world up.
	cam.PitchLimit = math.Min(cam.PitchLimit, 89.9)
	setDefault(&cam.MinDistance, 1)

	p := &c.Picking
	setDefault(&p.Tolerance, 3)
	setDefault(&p.MoveThreshold, 4)
	setDefault(&p.DragThreshold, 3)
	if p.RefineTriangles == nil {
		on := true
		p.RefineTriangles = &on
	}

	r := &c.Repeat
	if r.Tick <= 0 {
		r.Tick = 50 * time.Millisecond
	}
	setDefault(&r.Base, 1)
	setDefault(&r.Step, 0.25)
	setDefault(&r.Max, 4)
	if r.Max < r.Base {
		r.Max = r.Base
	}

	m := &c.Mesh
	if m.Cells <= 0 {
		m.Cells = 64
	}
	if m.Normals == nil {
		m.Normals = map[string]string{
			"wire":      "smooth",
			"splice":    "smooth",
			"connector": "flat",
		}
	}

	rd := &c.Render
	setDefault(&rd.FOV, 45)
	setDefault(&rd.Near, 0.1)
	setDefault(&rd.Far, 10000)
	if rd.Width <= 0 {
		rd.Width = 1280
	}
	if rd.Height <= 0 {
		rd.Height = 800
	}

	if c.Snap < 0 {
		c.Snap = 0
	} else if c.Snap == 0 {
		c.Snap = 0.1
	}

	if c.Keys == nil {
		c.Keys = DefaultKeys()
	}
	if c.Mouse == nil {
		c.Mouse = map[string]string{
			"left":   "rotate",
			"middle": "truck_pedestal",
			"right":  "pan_tilt",
		}
	}
}

// DefaultKeys returns the stock key map. Codes follow KeyboardEvent.code.
func DefaultKeys() map[string]Key {
	return map[string]Key{
		"KeyW":       {Op: "walk", DY: 1},
		"KeyS":       {Op: "walk", DY: -1},
		"KeyA":       {Op: "walk", DX: -1},
		"KeyD":       {Op: "walk", DX: 1},
		"ArrowLeft":  {Op: "rotate", DX: -2},
		"ArrowRight": {Op: "rotate", DX: 2},
		"ArrowUp":    {Op: "rotate", DY: 2},
		"ArrowDown":  {Op: "rotate", DY: -2},
		"KeyQ":       {Op: "truck_pedestal", DY: 1},
		"KeyE":       {Op: "truck_pedestal", DY: -1},
		"Equal":      {Op: "zoom", DY: 1},
		"Minus":      {Op: "zoom", DY: -1},
		"Home":       {Op: "reset"},
	}
}

func setDefault(v *float64, d float64) {
	if *v <= 0 {
		*v = d
	}
}
