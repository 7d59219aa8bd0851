package scene

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Geometric plausibility (warnings only)
// ---------------------------------------------------------------------------

// degenerateEpsilon is the length or volume below which geometry is
// considered collapsed.
const degenerateEpsilon = 1e-9

func warning(id NodeID, format string, args ...any) ValidationError {
	return ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

// validateGeometry flags primitives that render as nothing or as
// artifacts. The evaluator accepts them, so these never block.
func validateGeometry(s *Scene) []ValidationError {
	var warns []ValidationError

	for _, n := range s.nodes {
		switch g := n.shape.(type) {
		case Sphere:
			warns = append(warns, positive(n.id, "radius", g.Radius)...)
		case Cone:
			warns = append(warns, positive(n.id, "radius", g.Radius)...)
			if g.Apex.Sub(g.Base).Length() < degenerateEpsilon {
				warns = append(warns, warning(n.id, "cone base and apex coincide"))
			}
		case Cylinder:
			warns = append(warns, positive(n.id, "radius", g.Radius)...)
			if g.B.Sub(g.A).Length() < degenerateEpsilon {
				warns = append(warns, warning(n.id, "cylinder end points coincide"))
			}
		case Cuboid:
			warns = append(warns, positive(n.id, "length", g.Length)...)
			warns = append(warns, positive(n.id, "width", g.Width)...)
			warns = append(warns, positive(n.id, "height", g.Height)...)
		case Tetrahedron:
			if math.Abs(tetraVolume(g)) < degenerateEpsilon {
				warns = append(warns, warning(n.id, "tetrahedron has zero volume"))
			}
		case Plane:
			if g.Normal.Length() < degenerateEpsilon {
				warns = append(warns, warning(n.id, "plane normal has zero length"))
			}
		case MengerSponge:
			warns = append(warns, positive(n.id, "size", g.Size)...)
			warns = append(warns, iterations(n.id, g.Iterations)...)
		case Mandelbulb:
			warns = append(warns, positive(n.id, "scale", g.Scale)...)
			warns = append(warns, iterations(n.id, g.MaxIterations)...)
		case JuliaSet:
			warns = append(warns, positive(n.id, "scale", g.Scale)...)
			warns = append(warns, iterations(n.id, g.MaxIterations)...)
		}
	}

	return warns
}

func positive(id NodeID, name string, v float64) []ValidationError {
	if v > 0 {
		return nil
	}
	return []ValidationError{warning(id, "%s is %.4f, should be positive", name, v)}
}

func iterations(id NodeID, n int) []ValidationError {
	if n >= 1 {
		return nil
	}
	return []ValidationError{warning(id, "iteration count is %d, fractal will not refine", n)}
}

// tetraVolume returns the signed volume of t.
func tetraVolume(t Tetrahedron) float64 {
	a := t.V[1].Sub(t.V[0])
	b := t.V[2].Sub(t.V[0])
	c := t.V[3].Sub(t.V[0])
	return a.Dot(b.Cross(c)) / 6
}
