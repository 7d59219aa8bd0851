// Package program is the consumer-side view of a generated record buffer.
// It dry-runs the buffer on the same stack machine the shader uses,
// encodes it for upload and lays it out as a linear float texture.
package program

import (
	"errors"
	"fmt"

	"github.com/chazu/isr/pkg/scene"
	"github.com/chewxy/math32"
)

// ErrMalformed is wrapped by every Verify and Decode failure that is not a
// capacity overflow.
var ErrMalformed = errors.New("program: malformed record program")

// Stats summarises a verified program.
type Stats struct {
	NumObjects    int // records in the buffer, the renderer's numObjects
	NumPrimitives int
	NumOperators  int
	PeakDepth     int // highest stack depth reached
}

// Verify runs records on an abstract stack of the given capacity.
// Primitives push one value; operators pop two and push one. The program
// must end with exactly one value on the stack.
//
// Overflowing the capacity returns an error matching
// scene.ErrCapacityExceeded; every other defect matches ErrMalformed.
func Verify(records []scene.Record, capacity int) (Stats, error) {
	var st Stats
	if len(records) == 0 {
		return st, fmt.Errorf("%w: no records", ErrMalformed)
	}

	depth := 0
	for i, r := range records {
		if err := checkFinite(r); err != nil {
			return st, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		k, err := tag(r)
		if err != nil {
			return st, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}

		if k.IsOperator() {
			if depth < 2 {
				return st, fmt.Errorf("%w: record %d: %s with %d operand(s) on the stack", ErrMalformed, i, k, depth)
			}
			depth--
			st.NumOperators++
		} else {
			depth++
			st.NumPrimitives++
			if depth > capacity {
				return st, &scene.CapacityError{Depth: depth, Capacity: capacity}
			}
		}
		st.PeakDepth = max(st.PeakDepth, depth)
	}
	st.NumObjects = len(records)

	if depth != 1 {
		return st, fmt.Errorf("%w: program leaves %d values on the stack", ErrMalformed, depth)
	}
	return st, nil
}

func checkFinite(r scene.Record) error {
	for j, v := range r {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return fmt.Errorf("slot %d is %v", j, v)
		}
	}
	return nil
}

// tag decodes the kind of r, rejecting fractional and unknown tags.
func tag(r scene.Record) (scene.Kind, error) {
	t := r[0]
	if t != math32.Floor(t) {
		return 0, fmt.Errorf("fractional kind tag %v", t)
	}
	k := scene.Kind(int(t))
	if !k.IsPrimitive() && !k.IsOperator() {
		return 0, fmt.Errorf("unknown kind tag %v", t)
	}
	return k, nil
}
