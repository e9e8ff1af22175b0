package engine

import "fmt"

// Category names the kind of a layout part. The tessellator chooses the
// solid and the normal mode from it.
type Category string

const (
	Connector Category = "connector"
	Wire      Category = "wire"
	Splice    Category = "splice"
)

// Vec3 is a plain position or size triple in layout units.
type Vec3 [3]float64

// Part is one placeable item declared by a layout script.
type Part struct {
	Name     string
	Category Category
	Color    string // #RRGGBB

	At     Vec3 // centre of a connector or splice
	Rotate Vec3 // Euler degrees, R = Rz·Ry·Rx

	Size Vec3 // connector body
	Pins int  // connector cavities

	Path     []Vec3 // wire route: from, via..., to
	Diameter float64
}

// Centre returns the point the scene uses as the part's position. Wires are
// positioned at the middle of their route's bounding box.
func (p *Part) Centre() Vec3 {
	if p.Category != Wire || len(p.Path) == 0 {
		return p.At
	}
	min, max := p.Path[0], p.Path[0]
	for _, v := range p.Path[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return Vec3{(min[0] + max[0]) / 2, (min[1] + max[1]) / 2, (min[2] + max[2]) / 2}
}

// CameraSpec is an optional camera placement requested by a script.
type CameraSpec struct {
	Eye   Vec3
	Focus Vec3
}

// Layout is the output of a layout script.
type Layout struct {
	Parts  []*Part
	Camera *CameraSpec

	byName map[string]*Part
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{byName: make(map[string]*Part)}
}

// Add appends a part. Names must be unique within a layout.
func (l *Layout) Add(p *Part) error {
	if p.Name == "" {
		return fmt.Errorf("%s: part name is required", p.Category)
	}
	if _, dup := l.byName[p.Name]; dup {
		return fmt.Errorf("%s: a part named %q already exists", p.Category, p.Name)
	}
	l.byName[p.Name] = p
	l.Parts = append(l.Parts, p)
	return nil
}

// Lookup returns the named part or nil.
func (l *Layout) Lookup(name string) *Part {
	return l.byName[name]
}

// Len returns the number of parts.
func (l *Layout) Len() int {
	return len(l.Parts)
}
