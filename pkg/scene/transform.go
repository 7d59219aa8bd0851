package scene

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// gimbalEpsilon is the threshold on cos(pitch) below which the Z-Y-X
// decomposition falls back to two angles.
const gimbalEpsilon = 1e-6

// Translate moves every position of the primitive by d.
// Operators are not transform targets; calling Translate on one panics,
// as does a non-finite delta.
func (n *Node) Translate(d v3.Vec) {
	n.mustLeaf("translate")
	mustCheck(CheckVec("translation", d))
	n.shape = n.shape.translate(d)
}

// Scale resizes the primitive by factor f. The anchor point depends on
// the kind: spheres, cuboids and fractals keep their center, cones and
// cylinders keep their first point, tetrahedra keep the centroid of
// their first three vertices.
func (n *Node) Scale(f float64) {
	n.mustLeaf("scale")
	mustCheck(CheckScale(f))
	n.shape = n.shape.scale(f)
}

// Rotate rotates the primitive by angle radians about axis through the origin.
func (n *Node) Rotate(axis v3.Vec, angle float64) {
	n.RotateAbout(axis, angle, v3.Vec{})
}

// RotateAbout rotates the primitive by angle radians about axis through pivot.
// Cuboid orientation angles are recomposed with the new rotation.
func (n *Node) RotateAbout(axis v3.Vec, angle float64, pivot v3.Vec) {
	n.mustLeaf("rotate")
	mustCheck(CheckAxis(axis))
	mustCheck(CheckAngle(angle))
	mustCheck(CheckVec("pivot", pivot))
	n.shape = n.shape.rotate(newRotation(axis, angle, pivot))
}

func (n *Node) mustLeaf(op string) {
	if !n.IsLeaf() || n.shape == nil {
		panic(fmt.Sprintf("scene: cannot %s %s: operators are not transform targets", op, n))
	}
}

func mustCheck(err error) {
	if err != nil {
		panic("scene: " + err.Error())
	}
}

// ---------------------------------------------------------------------------
// Rotation helpers
// ---------------------------------------------------------------------------

// rotation is a pure rotation applied about a pivot point.
type rotation struct {
	m     sdf.M44
	pivot v3.Vec
}

func newRotation(axis v3.Vec, angle float64, pivot v3.Vec) rotation {
	return rotation{m: sdf.Rotate3d(axis.Normalize(), angle), pivot: pivot}
}

func (r rotation) point(p v3.Vec) v3.Vec {
	return r.m.MulPosition(p.Sub(r.pivot)).Add(r.pivot)
}

func (r rotation) direction(v v3.Vec) v3.Vec {
	return r.m.MulPosition(v)
}

// mat3 holds the rotational part of an sdf.M44 in row-major order.
type mat3 [3][3]float64

// entries extracts the 3x3 rotation block of m by transforming the basis.
func entries(m sdf.M44) mat3 {
	var a mat3
	for j, e := range []v3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		c := m.MulPosition(e)
		a[0][j], a[1][j], a[2][j] = c.X, c.Y, c.Z
	}
	return a
}

// eulerMatrix composes Rz(alpha)·Ry(beta)·Rx(gamma).
func eulerMatrix(alpha, beta, gamma float64) sdf.M44 {
	return sdf.RotateZ(alpha).Mul(sdf.RotateY(beta)).Mul(sdf.RotateX(gamma))
}

// eulerAngles decomposes a rotation into Z-Y-X angles. At gimbal lock
// the yaw is pinned to zero and the remaining freedom goes to the roll.
func eulerAngles(m sdf.M44) (alpha, beta, gamma float64) {
	r := entries(m)
	sy := math.Hypot(r[0][0], r[1][0])
	if sy > gimbalEpsilon {
		gamma = math.Atan2(r[2][1], r[2][2])
		beta = math.Atan2(-r[2][0], sy)
		alpha = math.Atan2(r[1][0], r[0][0])
		return alpha, beta, gamma
	}
	gamma = math.Atan2(-r[1][2], r[1][1])
	beta = math.Atan2(-r[2][0], sy)
	return 0, beta, gamma
}

// ---------------------------------------------------------------------------
// Per-kind transforms
// ---------------------------------------------------------------------------

func (s Sphere) translate(d v3.Vec) Shape {
	s.Center = s.Center.Add(d)
	return s
}

func (s Sphere) scale(f float64) Shape {
	s.Radius *= f
	return s
}

func (s Sphere) rotate(r rotation) Shape {
	s.Center = r.point(s.Center)
	return s
}

func (c Cone) translate(d v3.Vec) Shape {
	c.Base = c.Base.Add(d)
	c.Apex = c.Apex.Add(d)
	return c
}

func (c Cone) scale(f float64) Shape {
	c.Apex = c.Base.Add(c.Apex.Sub(c.Base).MulScalar(f))
	c.Radius *= f
	return c
}

func (c Cone) rotate(r rotation) Shape {
	c.Base = r.point(c.Base)
	c.Apex = r.point(c.Apex)
	return c
}

func (c Cylinder) translate(d v3.Vec) Shape {
	c.A = c.A.Add(d)
	c.B = c.B.Add(d)
	return c
}

func (c Cylinder) scale(f float64) Shape {
	c.B = c.A.Add(c.B.Sub(c.A).MulScalar(f))
	c.Radius *= f
	return c
}

func (c Cylinder) rotate(r rotation) Shape {
	c.A = r.point(c.A)
	c.B = r.point(c.B)
	return c
}

func (c Cuboid) translate(d v3.Vec) Shape {
	c.Center = c.Center.Add(d)
	return c
}

func (c Cuboid) scale(f float64) Shape {
	c.Length *= f
	c.Width *= f
	c.Height *= f
	return c
}

func (c Cuboid) rotate(r rotation) Shape {
	c.Center = r.point(c.Center)
	c.Alpha, c.Beta, c.Gamma = eulerAngles(r.m.Mul(eulerMatrix(c.Alpha, c.Beta, c.Gamma)))
	return c
}

func (t Tetrahedron) translate(d v3.Vec) Shape {
	for i := range t.V {
		t.V[i] = t.V[i].Add(d)
	}
	return t
}

// scale rescales about the centroid of the first three vertices only.
// The fourth vertex moves with them but does not contribute to the anchor.
func (t Tetrahedron) scale(f float64) Shape {
	c := t.V[0].Add(t.V[1]).Add(t.V[2]).MulScalar(1.0 / 3)
	for i := range t.V {
		t.V[i] = c.Add(t.V[i].Sub(c).MulScalar(f))
	}
	return t
}

func (t Tetrahedron) rotate(r rotation) Shape {
	for i := range t.V {
		t.V[i] = r.point(t.V[i])
	}
	return t
}

func (p Plane) translate(d v3.Vec) Shape {
	p.Offset -= p.Normal.Dot(d)
	return p
}

// scale is the identity: an unbounded plane has no size.
func (p Plane) scale(float64) Shape { return p }

func (p Plane) rotate(r rotation) Shape {
	n := r.direction(p.Normal)
	p.Offset += r.pivot.Dot(p.Normal) - r.pivot.Dot(n)
	p.Normal = n
	return p
}

func (m MengerSponge) translate(d v3.Vec) Shape {
	m.Center = m.Center.Add(d)
	return m
}

func (m MengerSponge) scale(f float64) Shape {
	m.Size *= f
	return m
}

func (m MengerSponge) rotate(r rotation) Shape {
	m.Center = r.point(m.Center)
	return m
}

func (m Mandelbulb) translate(d v3.Vec) Shape {
	m.Center = m.Center.Add(d)
	return m
}

func (m Mandelbulb) scale(f float64) Shape {
	m.Scale *= f
	return m
}

func (m Mandelbulb) rotate(r rotation) Shape {
	m.Center = r.point(m.Center)
	return m
}

func (j JuliaSet) translate(d v3.Vec) Shape {
	j.Center = j.Center.Add(d)
	return j
}

func (j JuliaSet) scale(f float64) Shape {
	j.Scale *= f
	return j
}

func (j JuliaSet) rotate(r rotation) Shape {
	j.Center = r.point(j.Center)
	return j
}
