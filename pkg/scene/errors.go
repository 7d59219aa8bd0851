package scene

import (
	"errors"
	"fmt"
)

// ErrEmptyScene is returned by Generate when the scene has no nodes.
var ErrEmptyScene = errors.New("scene: no nodes to generate")

// ErrCapacityExceeded matches every *CapacityError.
var ErrCapacityExceeded = errors.New("scene: evaluator stack capacity exceeded")

// CapacityError reports a tree that needs a deeper stack than the
// evaluator provides. The scene has to be restructured, e.g. by
// flattening nested booleans.
type CapacityError struct {
	Depth    int // minimal peak depth of the tree
	Capacity int // evaluator stack size
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("scene: tree needs a stack depth of %d, evaluator stack capacity is %d", e.Depth, e.Capacity)
}

// Is makes errors.Is(err, ErrCapacityExceeded) hold.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
