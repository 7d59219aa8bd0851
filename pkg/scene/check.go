package scene

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrInvalidTransform is wrapped by every Check* failure.
var ErrInvalidTransform = errors.New("invalid transform")

// minAxisLength is the shortest rotation axis that can be normalised.
const minAxisLength = 1e-12

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteVec(v v3.Vec) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// CheckVec reports whether v can be used as a translation or pivot.
func CheckVec(name string, v v3.Vec) error {
	if !finiteVec(v) {
		return fmt.Errorf("%w: %s %v is not finite", ErrInvalidTransform, name, v)
	}
	return nil
}

// CheckAxis reports whether axis can be used as a rotation axis.
func CheckAxis(axis v3.Vec) error {
	if !finiteVec(axis) {
		return fmt.Errorf("%w: rotation axis %v is not finite", ErrInvalidTransform, axis)
	}
	if axis.Length() < minAxisLength {
		return fmt.Errorf("%w: rotation axis has zero length", ErrInvalidTransform)
	}
	return nil
}

// CheckAngle reports whether angle (radians) is usable.
func CheckAngle(angle float64) error {
	if !finite(angle) {
		return fmt.Errorf("%w: rotation angle %v is not finite", ErrInvalidTransform, angle)
	}
	return nil
}

// CheckScale reports whether f is a usable scale factor.
func CheckScale(f float64) error {
	if !finite(f) || f <= 0 {
		return fmt.Errorf("%w: scale factor %v must be positive and finite", ErrInvalidTransform, f)
	}
	return nil
}
