// Package kernel defines the abstract geometry kernel the viewport draws
// from. Parts of a harness layout (connectors, wire runs, splices) are built
// as solids behind this interface and handed to the tessellator as meshes.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	Sphere(radius float64) Solid
	// Capsule is a round-ended tube from a to b, the shape of one wire run.
	Capsule(a, b [3]float64, radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees, R = Rz·Ry·Rx

	// Mesh output. cells is the tessellation resolution along the longest axis.
	ToMesh(s Solid, cells int) (*Mesh, error)
}
