// Package kernel defines the abstract geometry kernel interface used by
// the CPU preview. Implementations turn the evaluator's primitives and
// boolean operators into solids that can be sampled and meshed.
package kernel

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)

	// Evaluate returns the signed distance from p to the surface,
	// negative inside. Fractal solids return a distance estimate.
	Evaluate(p v3.Vec) float64
}

// Kernel is the abstract geometry kernel interface.
//
// Primitive constructors return an error for geometry the backend cannot
// represent, such as a non-positive radius.
type Kernel interface {
	// Primitives, placed in world coordinates.
	Sphere(center v3.Vec, radius float64) (Solid, error)
	Box(center, size v3.Vec, alpha, beta, gamma float64) (Solid, error) // Z-Y-X Euler angles in radians
	Cylinder(a, b v3.Vec, radius float64) (Solid, error)
	Cone(base, apex v3.Vec, radius float64) (Solid, error)
	Tetrahedron(v [4]v3.Vec) (Solid, error)
	Plane(normal v3.Vec, offset float64) (Solid, error)
	MengerSponge(center v3.Vec, size float64, iterations int) (Solid, error)
	Mandelbulb(center v3.Vec, scale, power float64, iterations int) (Solid, error)
	JuliaSet(center v3.Vec, scale float64, c v2.Vec, iterations int) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
