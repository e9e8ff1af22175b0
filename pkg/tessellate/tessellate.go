// Package tessellate turns a layout into drawable triangle soups. Each part
// is built as a kernel solid, meshed, and flattened into the per-triangle
// vertex and normal arrays the scene draws and picks against.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/harnessview/pkg/engine"
	"github.com/chazu/harnessview/pkg/kernel"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
)

// Mode selects how normals are produced for a soup.
type Mode int

const (
	// ModeFlat gives every triangle its own face normal.
	ModeFlat Mode = iota
	// ModeSmooth averages face normals over coincident vertices.
	ModeSmooth
)

func (m Mode) String() string {
	if m == ModeSmooth {
		return "smooth"
	}
	return "flat"
}

// ParseMode reads "flat" or "smooth".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "flat":
		return ModeFlat, nil
	case "smooth":
		return ModeSmooth, nil
	}
	return ModeFlat, fmt.Errorf("tessellate: unknown normal mode %q", s)
}

// Table maps part categories to normal modes.
type Table map[engine.Category]Mode

// NewTable builds a table from category -> mode names.
func NewTable(names map[string]string) (Table, error) {
	t := make(Table, len(names))
	for cat, name := range names {
		m, err := ParseMode(name)
		if err != nil {
			return nil, fmt.Errorf("tessellate: category %q: %w", cat, err)
		}
		t[engine.Category(cat)] = m
	}
	return t, nil
}

// ModeFor returns the mode for a category; unknown categories are flat.
func (t Table) ModeFor(c engine.Category) Mode {
	if m, ok := t[c]; ok {
		return m
	}
	return ModeFlat
}

// Soup flattens an indexed mesh into per-triangle arrays of count*9 floats.
func Soup(m *kernel.Mesh, mode Mode) (normals, vertices []float32, count int) {
	count = m.TriangleCount()
	vertices = make([]float32, 0, count*9)
	faces := make([]mgl32.Vec3, count)

	for t := 0; t < count; t++ {
		var tri [3]mgl32.Vec3
		for j := 0; j < 3; j++ {
			idx := m.Indices[t*3+j]
			tri[j] = vertexAt(m.Vertices, idx)
			vertices = append(vertices, tri[j][0], tri[j][1], tri[j][2])
		}
		// Unnormalised: its length weights the smooth average by area.
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		if n.Len() == 0 && len(m.Normals) == len(m.Vertices) {
			n = vertexAt(m.Normals, m.Indices[t*3])
		}
		faces[t] = n
	}

	normals = make([]float32, 0, count*9)
	if mode == ModeFlat {
		for _, n := range faces {
			n = unitOr(n, mgl32.Vec3{0, 0, 1})
			for j := 0; j < 3; j++ {
				normals = append(normals, n[0], n[1], n[2])
			}
		}
		return normals, vertices, count
	}

	sum := make(map[[3]float32]mgl32.Vec3)
	for t := 0; t < count; t++ {
		for j := 0; j < 3; j++ {
			k := key(vertices[t*9+j*3:])
			sum[k] = sum[k].Add(faces[t])
		}
	}
	for t := 0; t < count; t++ {
		face := unitOr(faces[t], mgl32.Vec3{0, 0, 1})
		for j := 0; j < 3; j++ {
			n := unitOr(sum[key(vertices[t*9+j*3:])], face)
			normals = append(normals, n[0], n[1], n[2])
		}
	}
	return normals, vertices, count
}

func vertexAt(a []float32, idx uint32) mgl32.Vec3 {
	i := int(idx) * 3
	return mgl32.Vec3{a[i], a[i+1], a[i+2]}
}

// key quantises a position so marching-cubes duplicates merge.
func key(v []float32) [3]float32 {
	const q = 1e4
	return [3]float32{
		float32(math.Round(float64(v[0])*q) / q),
		float32(math.Round(float64(v[1])*q) / q),
		float32(math.Round(float64(v[2])*q) / q),
	}
}

func unitOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(float64(l)) {
		return fallback
	}
	return v.Mul(1 / l)
}

// Part is one tessellated layout part.
type Part struct {
	Source   *engine.Part
	Mode     Mode
	Normals  []float32
	Vertices []float32
	Count    int
}

// Build makes one soup per layout part. The tessellator never mutates the
// layout.
func Build(l *engine.Layout, k kernel.Kernel, t Table, cells int) ([]*Part, error) {
	if l == nil {
		return nil, nil
	}
	parts := make([]*Part, 0, l.Len())
	for _, p := range l.Parts {
		s, err := Solid(k, p)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s: %w", p.Name, err)
		}
		mesh, err := k.ToMesh(s, cells)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", p.Name, err)
		}
		mesh.Name = p.Name

		mode := t.ModeFor(p.Category)
		normals, vertices, count := Soup(mesh, mode)
		glog.V(1).Infof("tessellate: %s %s -> %d triangles (%s)", p.Category, p.Name, count, mode)
		parts = append(parts, &Part{
			Source:   p,
			Mode:     mode,
			Normals:  normals,
			Vertices: vertices,
			Count:    count,
		})
	}
	return parts, nil
}

// Solid builds the kernel solid for a part, placed in world coordinates.
func Solid(k kernel.Kernel, p *engine.Part) (kernel.Solid, error) {
	switch p.Category {
	case engine.Connector:
		return place(k, connectorBody(k, p), p), nil

	case engine.Splice:
		// A sleeve along local X, three diameters long.
		half := p.Diameter * 1.5
		s := k.Capsule([3]float64{-half + p.Diameter/2}, [3]float64{half - p.Diameter/2}, p.Diameter/2)
		return place(k, s, p), nil

	case engine.Wire:
		if len(p.Path) < 2 {
			return nil, fmt.Errorf("wire needs at least two route points, got %d", len(p.Path))
		}
		r := p.Diameter / 2
		s := k.Capsule(p.Path[0], p.Path[1], r)
		for i := 1; i+1 < len(p.Path); i++ {
			s = k.Union(s, k.Capsule(p.Path[i], p.Path[i+1], r))
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported part category %q", p.Category)
}

// connectorBody is the housing with one cavity per pin, opening on the +X
// mating face and spread along Y. The four long edges are rounded by a
// cylinder along X that never cuts into the flat faces.
func connectorBody(k kernel.Kernel, p *engine.Part) kernel.Solid {
	sx, sy, sz := p.Size[0], p.Size[1], p.Size[2]
	r := EdgeRadius(p.Size)
	shell := k.Rotate(k.Cylinder(sx, r), 0, 90, 0)
	body := k.Intersection(k.Box(sx, sy, sz), shell)
	if p.Pins == 0 {
		return body
	}
	pitch := sy / float64(p.Pins)
	radius := math.Min(pitch/4, sz/4)
	depth := sx * 0.6
	for i := 0; i < p.Pins; i++ {
		y := -sy/2 + pitch*(float64(i)+0.5)
		hole := k.Rotate(k.Cylinder(depth, radius), 0, 90, 0)
		hole = k.Translate(hole, sx/2-depth/2+radius, y, 0)
		body = k.Difference(body, hole)
	}
	return body
}

// EdgeRadius is the radius, about the housing's X axis, that bounds a
// connector of the given size.
func EdgeRadius(size engine.Vec3) float64 {
	return math.Max(0.95*math.Hypot(size[1], size[2])/2, math.Max(size[1], size[2])/2)
}

func place(k kernel.Kernel, s kernel.Solid, p *engine.Part) kernel.Solid {
	if r := p.Rotate; r != (engine.Vec3{}) {
		s = k.Rotate(s, r[0], r[1], r[2])
	}
	if a := p.At; a != (engine.Vec3{}) {
		s = k.Translate(s, a[0], a[1], a[2])
	}
	return s
}
