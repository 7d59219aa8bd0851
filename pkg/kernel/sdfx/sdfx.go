// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/isr/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// DefaultPlaneExtent is the half-size of the cube an unbounded plane is
// clipped to before meshing.
const DefaultPlaneExtent = 10.0

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Evaluate returns the signed distance at p.
func (s *sdfxSolid) Evaluate(p v3.Vec) float64 {
	return s.s.Evaluate(p)
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	meshCells   int
	planeExtent float64
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the marching cubes resolution along the longest
// bounding box axis.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n > 0 {
			k.meshCells = n
		}
	}
}

// WithPlaneExtent sets the half-size of the cube planes are clipped to.
func WithPlaneExtent(e float64) Option {
	return func(k *SdfxKernel) {
		if e > 0 {
			k.planeExtent = e
		}
	}
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{meshCells: DefaultMeshCells, planeExtent: DefaultPlaneExtent}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Sphere creates a sphere of the given radius around center.
func (k *SdfxKernel) Sphere(center v3.Vec, radius float64) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sdfx: sphere radius %v must be positive", radius)
	}
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Sphere3D: %w", err)
	}
	return wrap(sdf.Transform3D(s, sdf.Translate3d(center))), nil
}

// Box creates a box of the given size centered on center and oriented by
// the Z-Y-X Euler angles alpha, beta and gamma.
func (k *SdfxKernel) Box(center, size v3.Vec, alpha, beta, gamma float64) (kernel.Solid, error) {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("sdfx: box size %v must be positive", size)
	}
	s, err := sdf.Box3D(size, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Box3D: %w", err)
	}
	m := sdf.Translate3d(center).Mul(euler(alpha, beta, gamma))
	return wrap(sdf.Transform3D(s, m)), nil
}

// Cylinder creates a capped cylinder whose axis runs from a to b.
func (k *SdfxKernel) Cylinder(a, b v3.Vec, radius float64) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sdfx: cylinder radius %v must be positive", radius)
	}
	axis := b.Sub(a)
	height := axis.Length()
	if height < minLength {
		return nil, fmt.Errorf("sdfx: cylinder end points coincide")
	}
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Cylinder3D: %w", err)
	}
	return wrap(sdf.Transform3D(s, onSegment(a, axis))), nil
}

// Cone creates a cone with its base disc of the given radius at base and
// its tip at apex.
func (k *SdfxKernel) Cone(base, apex v3.Vec, radius float64) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sdfx: cone radius %v must be positive", radius)
	}
	axis := apex.Sub(base)
	height := axis.Length()
	if height < minLength {
		return nil, fmt.Errorf("sdfx: cone base and apex coincide")
	}
	s, err := sdf.Cone3D(height, radius, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Cone3D: %w", err)
	}
	return wrap(sdf.Transform3D(s, onSegment(base, axis))), nil
}

// Tetrahedron creates the tetrahedron spanned by four vertices.
func (k *SdfxKernel) Tetrahedron(v [4]v3.Vec) (kernel.Solid, error) {
	s, err := newTetrahedron(v)
	if err != nil {
		return nil, err
	}
	return wrap(s), nil
}

// Plane creates the half-space dot(p, normal) + offset <= 0, clipped to a
// cube of the kernel's plane extent so it can be meshed.
func (k *SdfxKernel) Plane(normal v3.Vec, offset float64) (kernel.Solid, error) {
	s, err := newHalfSpace(normal, offset, k.planeExtent)
	if err != nil {
		return nil, err
	}
	return wrap(s), nil
}

// MengerSponge creates a Menger sponge with edge length size.
func (k *SdfxKernel) MengerSponge(center v3.Vec, size float64, iterations int) (kernel.Solid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("sdfx: menger sponge size %v must be positive", size)
	}
	return wrap(&menger{center: center, half: size / 2, iterations: max(iterations, 0)}), nil
}

// Mandelbulb creates a Mandelbulb of the given power, scaled about center.
func (k *SdfxKernel) Mandelbulb(center v3.Vec, scale, power float64, iterations int) (kernel.Solid, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("sdfx: mandelbulb scale %v must be positive", scale)
	}
	if iterations < 1 {
		return nil, fmt.Errorf("sdfx: mandelbulb needs at least one iteration")
	}
	return wrap(&mandelbulb{center: center, scale: scale, power: power, iterations: iterations}), nil
}

// JuliaSet creates the 3D slice of the quaternion Julia set for c.
func (k *SdfxKernel) JuliaSet(center v3.Vec, scale float64, c v2.Vec, iterations int) (kernel.Solid, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("sdfx: julia set scale %v must be positive", scale)
	}
	if iterations < 1 {
		return nil, fmt.Errorf("sdfx: julia set needs at least one iteration")
	}
	return wrap(&julia{center: center, scale: scale, c: c, iterations: iterations}), nil
}

// ---------------------------------------------------------------------------
// Boolean operations
// ---------------------------------------------------------------------------

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// ---------------------------------------------------------------------------
// Placement helpers
// ---------------------------------------------------------------------------

// minLength is the shortest segment a cone or cylinder may span.
const minLength = 1e-9

// euler composes Rz(alpha)·Ry(beta)·Rx(gamma).
func euler(alpha, beta, gamma float64) sdf.M44 {
	return sdf.RotateZ(alpha).Mul(sdf.RotateY(beta)).Mul(sdf.RotateX(gamma))
}

// onSegment maps a Z-aligned solid centered at the origin onto the
// segment from start along axis.
func onSegment(start, axis v3.Vec) sdf.M44 {
	mid := start.Add(axis.MulScalar(0.5))
	return sdf.Translate3d(mid).Mul(alignZ(axis))
}

// alignZ returns the rotation taking +Z onto the direction of d.
func alignZ(d v3.Vec) sdf.M44 {
	d = d.Normalize()
	z := v3.Vec{Z: 1}
	axis := z.Cross(d)
	if axis.Length() < 1e-12 {
		if d.Z > 0 {
			return sdf.Translate3d(v3.Vec{})
		}
		return sdf.RotateX(math.Pi)
	}
	angle := math.Acos(math.Max(-1, math.Min(1, z.Dot(d))))
	return sdf.Rotate3d(axis.Normalize(), angle)
}

// ---------------------------------------------------------------------------
// Mesh output
// ---------------------------------------------------------------------------

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(k.meshCells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
