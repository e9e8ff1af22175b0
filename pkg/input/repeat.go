package input

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chazu/harnessview/pkg/camera"
	"github.com/chazu/harnessview/pkg/config"
	"github.com/golang/glog"
)

// Repeater tracks held navigation keys and replays them on a ticker.
//
// KeyDown and KeyUp are called from the UI loop and Tick from the poller;
// the held-key map is the only state they share. Motions are never applied
// from the poller: each tick posts one closure that applies them on the loop.
type Repeater struct {
	bindings Bindings
	opts     config.Repeat
	post     func(func()) bool
	apply    func(Motion)

	mu   sync.Mutex
	held map[string]float64 // key code -> speed factor
}

// NewRepeater returns a repeater. post hands work to the UI loop; apply runs
// there.
func NewRepeater(b Bindings, opts config.Repeat, post func(func()) bool, apply func(Motion)) *Repeater {
	if opts.Tick <= 0 {
		opts.Tick = 50 * time.Millisecond
	}
	if opts.Max < opts.Base {
		opts.Max = opts.Base
	}
	return &Repeater{
		bindings: b,
		opts:     opts,
		post:     post,
		apply:    apply,
		held:     make(map[string]float64),
	}
}

// KeyDown starts repeating code at the base speed and applies one step at
// once. It reports false for unbound keys and for keys already held, which
// is how auto-repeated keydown events from the platform are absorbed. Reset
// is one-shot and never held.
func (r *Repeater) KeyDown(code string) bool {
	b, ok := r.bindings[code]
	if !ok {
		return false
	}
	if b.Op == camera.OpReset {
		r.apply(Motion{Op: b.Op})
		return true
	}

	r.mu.Lock()
	if _, held := r.held[code]; held {
		r.mu.Unlock()
		return false
	}
	r.held[code] = r.opts.Base
	r.mu.Unlock()

	r.apply(Motion{Op: b.Op, DX: b.DX * r.opts.Base, DY: b.DY * r.opts.Base})
	return true
}

// KeyUp stops repeating code. Other held keys keep going.
func (r *Repeater) KeyUp(code string) {
	r.mu.Lock()
	delete(r.held, code)
	r.mu.Unlock()
}

// Release drops every held key, e.g. when the window loses focus.
func (r *Repeater) Release() {
	r.mu.Lock()
	r.held = make(map[string]float64)
	r.mu.Unlock()
}

// Held lists the held key codes in order.
func (r *Repeater) Held() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, 0, len(r.held))
	for c := range r.held {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Speed returns the current speed factor of a held key.
func (r *Repeater) Speed(code string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.held[code]
	return s, ok
}

// Tick builds this tick's motions and posts them to the loop, then grows
// every held key's speed by Step up to Max. Keys bound to the same op are
// summed into one motion so W+D walks diagonally. It returns the motions
// posted.
func (r *Repeater) Tick() []Motion {
	r.mu.Lock()
	combined := make(map[camera.Op]*Motion)
	for code, speed := range r.held {
		b := r.bindings[code]
		m := combined[b.Op]
		if m == nil {
			m = &Motion{Op: b.Op}
			combined[b.Op] = m
		}
		m.DX += b.DX * speed
		m.DY += b.DY * speed
		r.held[code] = min(speed+r.opts.Step, r.opts.Max)
	}
	r.mu.Unlock()

	if len(combined) == 0 {
		return nil
	}
	motions := make([]Motion, 0, len(combined))
	for _, m := range combined {
		if m.DX == 0 && m.DY == 0 {
			continue // opposing keys cancel
		}
		motions = append(motions, *m)
	}
	sort.Slice(motions, func(i, j int) bool { return motions[i].Op < motions[j].Op })
	if len(motions) == 0 {
		return nil
	}

	if !r.post(func() {
		for _, m := range motions {
			r.apply(m)
		}
	}) {
		glog.V(2).Infof("input: repeat tick dropped (%d motions)", len(motions))
	}
	return motions
}

// Run ticks until ctx is cancelled.
func (r *Repeater) Run(ctx context.Context) {
	t := time.NewTicker(r.opts.Tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Tick()
		}
	}
}
