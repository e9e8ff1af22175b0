package input

import (
	"fmt"
	"math"

	"github.com/chazu/harnessview/pkg/camera"
	"github.com/golang/glog"
)

// Button names a mouse button as the frontend reports it.
type Button string

const (
	Left   Button = "left"
	Middle Button = "middle"
	Right  Button = "right"
)

// WheelNotch is the wheel delta of one detent in pixel mode.
const WheelNotch = 100

// Mouse routes drags to camera motions and clicks to picks. It is driven
// from the UI loop only.
type Mouse struct {
	buttons   map[Button]camera.Op
	threshold float64
	apply     func(Motion)
	pick      func(x, y float64)

	pressed  Button
	active   bool
	dragging bool
	downX    float64
	downY    float64
	lastX    float64
	lastY    float64
}

// NewMouse validates a button map (button -> op name).
func NewMouse(buttons map[string]string, dragThreshold float64, apply func(Motion), pick func(x, y float64)) (*Mouse, error) {
	m := &Mouse{
		buttons:   make(map[Button]camera.Op, len(buttons)),
		threshold: dragThreshold,
		apply:     apply,
		pick:      pick,
	}
	for b, name := range buttons {
		op, err := camera.ParseOp(name)
		if err != nil {
			return nil, fmt.Errorf("input: mouse %s: %w", b, err)
		}
		m.buttons[Button(b)] = op
	}
	return m, nil
}

// Down starts a press. A second button while one is held is ignored.
func (m *Mouse) Down(b Button, x, y float64) {
	if m.active {
		return
	}
	m.pressed, m.active, m.dragging = b, true, false
	m.downX, m.downY = x, y
	m.lastX, m.lastY = x, y
}

// Move drags once the cursor leaves the threshold around the press point.
// Screen y grows downward, so dy is negated: dragging up is positive.
func (m *Mouse) Move(x, y float64) {
	if !m.active {
		return
	}
	if !m.dragging {
		if math.Hypot(x-m.downX, y-m.downY) <= m.threshold {
			return
		}
		m.dragging = true
	}
	op, ok := m.buttons[m.pressed]
	if ok {
		m.apply(Motion{Op: op, DX: x - m.lastX, DY: m.lastY - y})
	}
	m.lastX, m.lastY = x, y
}

// Up ends the press; a press that never became a drag picks at the release
// point.
func (m *Mouse) Up(b Button, x, y float64) {
	if !m.active || b != m.pressed {
		return
	}
	clicked := !m.dragging
	m.active, m.dragging = false, false
	if clicked && m.pick != nil {
		glog.V(1).Infof("input: click at (%.0f, %.0f)", x, y)
		m.pick(x, y)
	}
}

// Wheel zooms. Scrolling away from the user (negative delta) zooms in.
func (m *Mouse) Wheel(delta float64) {
	if delta == 0 {
		return
	}
	m.apply(Motion{Op: camera.OpZoom, DY: -delta / WheelNotch})
}

// Dragging reports whether the current press has become a drag.
func (m *Mouse) Dragging() bool { return m.dragging }
