package scene

import (
	"fmt"

	"github.com/chazu/harnessview/pkg/geom"
	"github.com/chazu/harnessview/pkg/pick"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/glog"
)

// Scene owns the live objects and the picker that selects among them.
type Scene struct {
	items  []Item
	byName map[string]Item
	subs   map[*Object]*geom.Subscription
	picker *pick.Picker
}

// New returns an empty scene picking with the given options.
func New(opts pick.Options) *Scene {
	return &Scene{
		byName: make(map[string]Item),
		subs:   make(map[*Object]*geom.Subscription),
		picker: pick.NewPicker(opts),
	}
}

// Add appends an item. Names must be unique.
func (s *Scene) Add(it Item) error {
	o := it.Base()
	if o.Destroyed() {
		return fmt.Errorf("scene: %s has been destroyed", o.Name)
	}
	if _, dup := s.byName[o.Name]; dup {
		return fmt.Errorf("scene: an object named %q already exists", o.Name)
	}
	s.items = append(s.items, it)
	s.byName[o.Name] = it
	s.subs[o] = o.Changed().Subscribe(func(*Object) { s.picker.Invalidate() })
	s.picker.Invalidate()
	glog.V(1).Infof("scene: added %s (%d triangles)", o.Name, o.TriangleCount())
	return nil
}

// Remove destroys the item and drops it from the scene. It reports whether
// the item was present.
func (s *Scene) Remove(it Item) bool {
	o := it.Base()
	for i, cur := range s.items {
		if cur.Base() != o {
			continue
		}
		s.items = append(s.items[:i:i], s.items[i+1:]...)
		delete(s.byName, o.Name)
		if sub := s.subs[o]; sub != nil {
			sub.Close()
			delete(s.subs, o)
		}
		o.Destroy()
		s.picker.Invalidate()
		glog.V(1).Infof("scene: removed %s", o.Name)
		return true
	}
	return false
}

// Clear removes every item.
func (s *Scene) Clear() {
	for len(s.items) > 0 {
		s.Remove(s.items[len(s.items)-1])
	}
}

// Objects returns the items in insertion order.
func (s *Scene) Objects() []Item {
	return append([]Item(nil), s.items...)
}

// Lookup returns the named item or nil.
func (s *Scene) Lookup(name string) Item {
	return s.byName[name]
}

// Len returns the number of items.
func (s *Scene) Len() int { return len(s.items) }

// Invalidate drops the picker's candidate cache, e.g. after a camera move.
func (s *Scene) Invalidate() { s.picker.Invalidate() }

// Pick returns the item under the mouse position, origin top left, or nil.
// Repeated picks at one spot cycle through overlapping items.
func (s *Scene) Pick(surface pick.Surface, x, y float64) Item {
	hit, ok := s.PickHit(surface, x, y)
	if !ok {
		return nil
	}
	return s.byName[hit.Target.(*Object).Name]
}

// PickHit is Pick with the ray details.
func (s *Scene) PickHit(surface pick.Surface, x, y float64) (pick.Hit, bool) {
	targets := make([]pick.Target, len(s.items))
	for i, it := range s.items {
		targets[i] = it.Base()
	}
	return s.picker.Pick(surface, targets, x, y)
}

// Bounds returns the union of every hit box. ok is false for an empty scene.
func (s *Scene) Bounds() (min, max mgl64.Vec3, ok bool) {
	for i, it := range s.items {
		bmin, bmax := it.Base().HitBox()
		if i == 0 {
			min, max = bmin, bmax
			continue
		}
		for a := 0; a < 3; a++ {
			min[a] = minf(min[a], bmin[a])
			max[a] = maxf(max[a], bmax[a])
		}
	}
	return min, max, len(s.items) > 0
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
