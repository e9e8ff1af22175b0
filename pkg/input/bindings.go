// Package input turns raw key and mouse events into camera motions. Held
// keys repeat on a ticker with growing speed; mouse drags map buttons to
// motions; a press released without dragging becomes a pick.
package input

import (
	"fmt"
	"sort"

	"github.com/chazu/harnessview/pkg/camera"
	"github.com/chazu/harnessview/pkg/config"
)

// Motion is one camera step.
type Motion struct {
	Op     camera.Op
	DX, DY float64
}

// Binding is what a key does while held.
type Binding struct {
	Op     camera.Op
	DX, DY float64
}

// Bindings maps platform key codes (KeyboardEvent.code) to bindings.
type Bindings map[string]Binding

// NewBindings validates a configured key map.
func NewBindings(keys map[string]config.Key) (Bindings, error) {
	b := make(Bindings, len(keys))
	for code, k := range keys {
		op, err := camera.ParseOp(k.Op)
		if err != nil {
			return nil, fmt.Errorf("input: key %s: %w", code, err)
		}
		b[code] = Binding{Op: op, DX: k.DX, DY: k.DY}
	}
	return b, nil
}

// Codes lists the bound key codes in order.
func (b Bindings) Codes() []string {
	codes := make([]string, 0, len(b))
	for c := range b {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Apply forwards a motion to a camera. Declined motions are ignored.
func Apply(c *camera.Camera) func(Motion) {
	return func(m Motion) {
		_, _ = c.Apply(m.Op, m.DX, m.DY)
	}
}
