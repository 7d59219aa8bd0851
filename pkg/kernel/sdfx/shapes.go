package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Custom sdf.SDF3 types for the primitives sdfx has no built-in for.
// Each evaluates in world coordinates.

var (
	_ sdf.SDF3 = (*tetrahedron)(nil)
	_ sdf.SDF3 = (*halfSpace)(nil)
	_ sdf.SDF3 = (*menger)(nil)
	_ sdf.SDF3 = (*mandelbulb)(nil)
	_ sdf.SDF3 = (*julia)(nil)
)

// ---------------------------------------------------------------------------
// Tetrahedron
// ---------------------------------------------------------------------------

// tetrahedron is the intersection of the four half-spaces bounded by its
// faces. The distance is exact inside and a lower bound outside.
type tetrahedron struct {
	origin [4]v3.Vec // a point on each face
	normal [4]v3.Vec // outward unit normals
	bb     sdf.Box3
}

func newTetrahedron(v [4]v3.Vec) (*tetrahedron, error) {
	faces := [4][4]int{{0, 1, 2, 3}, {0, 1, 3, 2}, {0, 2, 3, 1}, {1, 2, 3, 0}}
	t := &tetrahedron{}
	for i, f := range faces {
		a, b, c, opposite := v[f[0]], v[f[1]], v[f[2]], v[f[3]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Length() < 1e-12 {
			return nil, fmt.Errorf("sdfx: tetrahedron face %d is degenerate", i)
		}
		n = n.Normalize()
		if n.Dot(opposite.Sub(a)) > 0 {
			n = n.MulScalar(-1)
		}
		if math.Abs(n.Dot(opposite.Sub(a))) < 1e-12 {
			return nil, fmt.Errorf("sdfx: tetrahedron has zero volume")
		}
		t.origin[i], t.normal[i] = a, n
	}
	t.bb = boundsOf(v[:])
	return t, nil
}

func (t *tetrahedron) Evaluate(p v3.Vec) float64 {
	d := math.Inf(-1)
	for i := range t.normal {
		d = math.Max(d, p.Sub(t.origin[i]).Dot(t.normal[i]))
	}
	return d
}

func (t *tetrahedron) BoundingBox() sdf.Box3 { return t.bb }

// ---------------------------------------------------------------------------
// Plane
// ---------------------------------------------------------------------------

// halfSpace is dot(p, n) + offset <= 0 intersected with a cube of the
// given half-size around the origin.
type halfSpace struct {
	normal v3.Vec // unit
	offset float64
	extent float64
}

func newHalfSpace(normal v3.Vec, offset, extent float64) (*halfSpace, error) {
	l := normal.Length()
	if l < 1e-12 {
		return nil, fmt.Errorf("sdfx: plane normal has zero length")
	}
	return &halfSpace{normal: normal.MulScalar(1 / l), offset: offset / l, extent: extent}, nil
}

func (h *halfSpace) Evaluate(p v3.Vec) float64 {
	plane := p.Dot(h.normal) + h.offset
	return math.Max(plane, boxDistance(p, h.extent))
}

func (h *halfSpace) BoundingBox() sdf.Box3 {
	e := v3.Vec{X: h.extent, Y: h.extent, Z: h.extent}
	return sdf.Box3{Min: e.MulScalar(-1), Max: e}
}

// ---------------------------------------------------------------------------
// Menger sponge
// ---------------------------------------------------------------------------

// menger is the iterated box-cross distance estimator, evaluated in the
// unit cube [-1,1]^3 and scaled by half.
type menger struct {
	center     v3.Vec
	half       float64
	iterations int
}

func (m *menger) Evaluate(p v3.Vec) float64 {
	q := p.Sub(m.center).MulScalar(1 / m.half)
	d := boxDistance(q, 1)

	s := 1.0
	for range m.iterations {
		a := v3.Vec{X: mod2(q.X*s) - 1, Y: mod2(q.Y*s) - 1, Z: mod2(q.Z*s) - 1}
		s *= 3
		rx := math.Abs(1 - 3*math.Abs(a.X))
		ry := math.Abs(1 - 3*math.Abs(a.Y))
		rz := math.Abs(1 - 3*math.Abs(a.Z))
		da := math.Max(rx, ry)
		db := math.Max(ry, rz)
		dc := math.Max(rz, rx)
		c := (math.Min(da, math.Min(db, dc)) - 1) / s
		d = math.Max(d, c)
	}
	return d * m.half
}

func (m *menger) BoundingBox() sdf.Box3 {
	return cube(m.center, m.half)
}

// ---------------------------------------------------------------------------
// Mandelbulb
// ---------------------------------------------------------------------------

// bailout is the escape radius shared by the fractal estimators.
const bailout = 2.0

// mandelbulb is the power-n Mandelbulb distance estimator in spherical
// coordinates. Its unit-scale set fits in a ball of radius about 1.2.
type mandelbulb struct {
	center     v3.Vec
	scale      float64
	power      float64
	iterations int
}

func (m *mandelbulb) Evaluate(p v3.Vec) float64 {
	c := p.Sub(m.center).MulScalar(1 / m.scale)
	z := c
	dr := 1.0
	r := z.Length()

	for range m.iterations {
		r = z.Length()
		if r > bailout || r < 1e-12 {
			break
		}
		theta := math.Acos(z.Z/r) * m.power
		phi := math.Atan2(z.Y, z.X) * m.power
		dr = math.Pow(r, m.power-1)*m.power*dr + 1

		zr := math.Pow(r, m.power)
		z = v3.Vec{
			X: zr * math.Sin(theta) * math.Cos(phi),
			Y: zr * math.Sin(phi) * math.Sin(theta),
			Z: zr * math.Cos(theta),
		}.Add(c)
	}
	if r < 1e-12 {
		return -1e-3 * m.scale
	}
	return 0.5 * math.Log(r) * r / dr * m.scale
}

func (m *mandelbulb) BoundingBox() sdf.Box3 {
	return cube(m.center, 1.2*m.scale)
}

// ---------------------------------------------------------------------------
// Quaternion Julia set
// ---------------------------------------------------------------------------

// julia iterates z = z^2 + c over quaternions with z = (x, y, z, 0) and
// c = (c.x, c.y, 0, 0), tracking |dz| for the distance estimate.
type julia struct {
	center     v3.Vec
	scale      float64
	c          v2.Vec
	iterations int
}

func (j *julia) Evaluate(p v3.Vec) float64 {
	q := p.Sub(j.center).MulScalar(1 / j.scale)
	z := [4]float64{q.X, q.Y, q.Z, 0}
	md := 1.0
	r := qlen(z)

	for range j.iterations {
		md = 2 * r * md
		z = [4]float64{
			z[0]*z[0] - z[1]*z[1] - z[2]*z[2] - z[3]*z[3] + j.c.X,
			2*z[0]*z[1] + j.c.Y,
			2 * z[0] * z[2],
			2 * z[0] * z[3],
		}
		r = qlen(z)
		if r > 2*bailout {
			break
		}
	}
	if r < 1e-12 || md < 1e-300 {
		return -1e-3 * j.scale
	}
	return 0.5 * r * math.Log(r) / md * j.scale
}

func (j *julia) BoundingBox() sdf.Box3 {
	return cube(j.center, 1.5*j.scale)
}

func qlen(z [4]float64) float64 {
	return math.Sqrt(z[0]*z[0] + z[1]*z[1] + z[2]*z[2] + z[3]*z[3])
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// boxDistance is the exact distance from p to the cube [-h,h]^3.
func boxDistance(p v3.Vec, h float64) float64 {
	qx := math.Abs(p.X) - h
	qy := math.Abs(p.Y) - h
	qz := math.Abs(p.Z) - h
	outside := v3.Vec{X: math.Max(qx, 0), Y: math.Max(qy, 0), Z: math.Max(qz, 0)}.Length()
	inside := math.Min(math.Max(qx, math.Max(qy, qz)), 0)
	return outside + inside
}

// mod2 is x modulo 2, always in [0, 2).
func mod2(x float64) float64 {
	return x - 2*math.Floor(x/2)
}

func cube(center v3.Vec, half float64) sdf.Box3 {
	h := v3.Vec{X: half, Y: half, Z: half}
	return sdf.Box3{Min: center.Sub(h), Max: center.Add(h)}
}

func boundsOf(pts []v3.Vec) sdf.Box3 {
	bb := sdf.Box3{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		bb.Min = v3.Vec{X: math.Min(bb.Min.X, p.X), Y: math.Min(bb.Min.Y, p.Y), Z: math.Min(bb.Min.Z, p.Z)}
		bb.Max = v3.Vec{X: math.Max(bb.Max.X, p.X), Y: math.Max(bb.Max.Y, p.Y), Z: math.Max(bb.Max.Z, p.Z)}
	}
	return bb
}
