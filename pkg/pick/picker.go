package pick

import (
	"math"

	"github.com/golang/glog"
)

// Options tunes a Picker.
type Options struct {
	Tolerance     float64 // pixels added around projected boxes
	MoveThreshold float64 // pixels the cursor may move before the cache is rebuilt
	Refine        bool    // run the ray-triangle pass on accepted candidates
}

// DefaultOptions matches the stock configuration.
func DefaultOptions() Options {
	return Options{Tolerance: 3, MoveThreshold: 4, Refine: true}
}

// Hit describes an accepted pick.
type Hit struct {
	Target Target
	T      float64 // ray parameter of the box entry, or of the triangle when refined
	// Triangle is the index of the nearest triangle hit, or -1 when the
	// refinement was skipped or inconclusive.
	Triangle int
	Ray      Ray
}

// Picker runs the funnel and keeps the sorted candidate list between calls
// so repeated clicks at one spot cycle through overlapping targets.
type Picker struct {
	opts Options

	cached []Candidate
	index  int
	cx, cy float64
	valid  bool
}

// NewPicker returns a Picker with the given options.
func NewPicker(opts Options) *Picker {
	return &Picker{opts: opts}
}

// Invalidate drops the cached candidates. Call it when the scene or the
// camera changes.
func (p *Picker) Invalidate() {
	p.valid = false
	p.cached = nil
	p.index = 0
}

// Candidates returns the cached sorted list.
func (p *Picker) Candidates() []Candidate {
	return p.cached
}

// Pick selects the target under the mouse position (x, y), origin top left.
// It returns false when nothing is selected.
func (p *Picker) Pick(s Surface, targets []Target, x, y float64) (Hit, bool) {
	m := Capture(s)
	wx, wy := m.Window(x, y)

	if !p.valid || math.Hypot(wx-p.cx, wy-p.cy) > p.opts.MoveThreshold {
		p.cached = Gather(m, targets, wx, wy, p.opts.Tolerance)
		SortByDepth(p.cached)
		p.index = 0
		p.cx, p.cy = wx, wy
		p.valid = true
		glog.V(2).Infof("pick: rebuilt cache at (%.1f, %.1f): %d of %d candidates", wx, wy, len(p.cached), len(targets))
	}
	n := len(p.cached)
	if n == 0 {
		return Hit{}, false
	}

	ray, ok := m.Ray(wx, wy)
	if !ok {
		glog.V(2).Infof("pick: degenerate ray at (%.1f, %.1f)", wx, wy)
		return Hit{}, false
	}

	for k := 0; k < n; k++ {
		i := (p.index + k) % n
		c := p.cached[i]
		min, max := c.Target.HitBox()
		t, hit := IntersectAABB(ray, min, max)
		if !hit {
			continue
		}
		h := Hit{Target: c.Target, T: t, Triangle: -1, Ray: ray}
		if p.opts.Refine {
			// A triangle miss still accepts the box hit.
			if tt, tri, ok := NearestTriangle(ray, c.Target.Triangles()); ok {
				h.T, h.Triangle = tt, tri
			}
		}
		p.index = (i + 1) % n
		glog.V(2).Infof("pick: candidate %d/%d accepted, t=%.3f tri=%d", i+1, n, h.T, h.Triangle)
		return h, true
	}
	return Hit{}, false
}
