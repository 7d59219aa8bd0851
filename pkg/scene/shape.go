package scene

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Shape is the kind-specific geometry of a primitive node.
// Implementations are restricted to this package.
type Shape interface {
	Kind() Kind

	// params returns the evaluator parameter layout, without the material suffix.
	params() []float64
	translate(d v3.Vec) Shape
	scale(f float64) Shape
	rotate(r rotation) Shape
}

// ParamCount returns the number of geometric parameters the evaluator
// reads for kind k, excluding the two material slots. Operators have none.
func ParamCount(k Kind) int {
	switch k {
	case KindSphere, KindPlane:
		return 4
	case KindCone, KindCylinder:
		return 7
	case KindCuboid:
		return 9
	case KindTetrahedron:
		return 12
	case KindMengerSponge:
		return 5
	case KindMandelbulb:
		return 6
	case KindJuliaSet:
		return 8
	default:
		return 0
	}
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Sphere is a ball around Center.
type Sphere struct {
	Center v3.Vec
	Radius float64
}

func (Sphere) Kind() Kind { return KindSphere }

func (s Sphere) params() []float64 {
	return []float64{s.Center.X, s.Center.Y, s.Center.Z, s.Radius}
}

// Cone has its circular base of Radius at Base and its tip at Apex.
type Cone struct {
	Base   v3.Vec
	Apex   v3.Vec
	Radius float64
}

func (Cone) Kind() Kind { return KindCone }

func (c Cone) params() []float64 {
	return []float64{c.Base.X, c.Base.Y, c.Base.Z, c.Apex.X, c.Apex.Y, c.Apex.Z, c.Radius}
}

// Cylinder is a capped cylinder between end centers A and B.
type Cylinder struct {
	A      v3.Vec
	B      v3.Vec
	Radius float64
}

func (Cylinder) Kind() Kind { return KindCylinder }

func (c Cylinder) params() []float64 {
	return []float64{c.A.X, c.A.Y, c.A.Z, c.B.X, c.B.Y, c.B.Z, c.Radius}
}

// Cuboid is a box of the given extents centered at Center and oriented
// by the rotation Rz(Alpha)·Ry(Beta)·Rx(Gamma).
type Cuboid struct {
	Center v3.Vec
	Length float64 // extent along local X
	Width  float64 // extent along local Y
	Height float64 // extent along local Z
	Alpha  float64 // yaw about Z, radians
	Beta   float64 // pitch about Y, radians
	Gamma  float64 // roll about X, radians
}

func (Cuboid) Kind() Kind { return KindCuboid }

func (c Cuboid) params() []float64 {
	return []float64{
		c.Center.X, c.Center.Y, c.Center.Z,
		c.Length, c.Width, c.Height,
		c.Alpha, c.Beta, c.Gamma,
	}
}

// Tetrahedron is the convex hull of four vertices.
type Tetrahedron struct {
	V [4]v3.Vec
}

func (Tetrahedron) Kind() Kind { return KindTetrahedron }

func (t Tetrahedron) params() []float64 {
	p := make([]float64, 0, 12)
	for _, v := range t.V {
		p = append(p, v.X, v.Y, v.Z)
	}
	return p
}

// Plane is the half-space dot(p, Normal) + Offset <= 0. Offset holds -h
// for a plane at height h along Normal.
type Plane struct {
	Normal v3.Vec
	Offset float64
}

func (Plane) Kind() Kind { return KindPlane }

func (p Plane) params() []float64 {
	return []float64{p.Normal.X, p.Normal.Y, p.Normal.Z, p.Offset}
}

// MengerSponge is a Menger sponge fractal of edge Size.
type MengerSponge struct {
	Center     v3.Vec
	Size       float64
	Iterations int
}

func (MengerSponge) Kind() Kind { return KindMengerSponge }

func (m MengerSponge) params() []float64 {
	return []float64{m.Center.X, m.Center.Y, m.Center.Z, m.Size, float64(m.Iterations)}
}

// Mandelbulb is the power-n Mandelbulb fractal.
type Mandelbulb struct {
	Center        v3.Vec
	Scale         float64
	Power         float64
	MaxIterations int
}

func (Mandelbulb) Kind() Kind { return KindMandelbulb }

func (m Mandelbulb) params() []float64 {
	return []float64{m.Center.X, m.Center.Y, m.Center.Z, m.Scale, m.Power, float64(m.MaxIterations)}
}

// JuliaSet is a 3D slice of the quaternion Julia set for constant C.
type JuliaSet struct {
	Center        v3.Vec
	Scale         float64
	C             v2.Vec
	MaxIterations int
	OrbitTrap     bool // shade by orbit trap instead of flat color
}

func (JuliaSet) Kind() Kind { return KindJuliaSet }

func (j JuliaSet) params() []float64 {
	trap := 0.0
	if j.OrbitTrap {
		trap = 1
	}
	return []float64{j.Center.X, j.Center.Y, j.Center.Z, j.Scale, j.C.X, j.C.Y, float64(j.MaxIterations), trap}
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// ShapeFromParams rebuilds a primitive from its evaluator parameter layout.
// p must hold at least ParamCount(k)+2 values; the trailing two are the
// material suffix.
func ShapeFromParams(k Kind, p []float64) (Shape, Material, error) {
	if !k.IsPrimitive() {
		return nil, Material{}, fmt.Errorf("scene: %s is not a primitive kind", k)
	}
	n := ParamCount(k)
	if len(p) < n+2 {
		return nil, Material{}, fmt.Errorf("scene: %s needs %d params, got %d", k, n+2, len(p))
	}
	vec := func(i int) v3.Vec { return v3.Vec{X: p[i], Y: p[i+1], Z: p[i+2]} }
	mat := Material{Texture: p[n], Param: p[n+1]}

	var s Shape
	switch k {
	case KindSphere:
		s = Sphere{Center: vec(0), Radius: p[3]}
	case KindCone:
		s = Cone{Base: vec(0), Apex: vec(3), Radius: p[6]}
	case KindCylinder:
		s = Cylinder{A: vec(0), B: vec(3), Radius: p[6]}
	case KindCuboid:
		s = Cuboid{
			Center: vec(0),
			Length: p[3], Width: p[4], Height: p[5],
			Alpha: p[6], Beta: p[7], Gamma: p[8],
		}
	case KindTetrahedron:
		s = Tetrahedron{V: [4]v3.Vec{vec(0), vec(3), vec(6), vec(9)}}
	case KindPlane:
		s = Plane{Normal: vec(0), Offset: p[3]}
	case KindMengerSponge:
		s = MengerSponge{Center: vec(0), Size: p[3], Iterations: int(p[4])}
	case KindMandelbulb:
		s = Mandelbulb{Center: vec(0), Scale: p[3], Power: p[4], MaxIterations: int(p[5])}
	case KindJuliaSet:
		s = JuliaSet{
			Center:        vec(0),
			Scale:         p[3],
			C:             v2.Vec{X: p[4], Y: p[5]},
			MaxIterations: int(p[6]),
			OrbitTrap:     p[7] != 0,
		}
	}
	return s, mat, nil
}
