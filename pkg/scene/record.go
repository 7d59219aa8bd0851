package scene

import "math"

// Record layout shared with the shader evaluator.
const (
	RecordSize  = 32                       // floats per node
	ColorOffset = 1                        // [1..4] RGBA
	ParamOffset = 5                        // first parameter slot
	ParamSlots  = RecordSize - ParamOffset // parameter capacity

	// SwapSlot is set to 1 on an operator record whose right operand was
	// emitted first. The top of the stack then holds the left operand.
	SwapSlot = ParamOffset
)

// Record is one node of the flattened program:
// [0] kind tag, [1..4] RGBA color, [5..32) parameters, zero padded.
//
// Operators have no parameters. Their only non-zero parameter slot is
// SwapSlot, the operand-order flag; a reader that ignores it sees an
// all-zero tail.
type Record [RecordSize]float32

// Kind returns the record's tag.
func (r Record) Kind() Kind {
	return Kind(int(math.Round(float64(r[0]))))
}

// Color returns the record's RGBA color.
func (r Record) Color() Color {
	return Color{R: r[ColorOffset], G: r[ColorOffset+1], B: r[ColorOffset+2], A: r[ColorOffset+3]}
}

// Params returns all parameter slots widened to float64.
func (r Record) Params() []float64 {
	p := make([]float64, ParamSlots)
	for i := range p {
		p[i] = float64(r[ParamOffset+i])
	}
	return p
}

// Swapped reports whether an operator record's operands were emitted
// right first.
func (r Record) Swapped() bool {
	return r.Kind().IsOperator() && r[SwapSlot] != 0
}

// Shape decodes the primitive stored in r.
func (r Record) Shape() (Shape, Material, error) {
	return ShapeFromParams(r.Kind(), r.Params())
}

// record flattens a single node.
func (n *Node) record() Record {
	var r Record
	r[0] = float32(n.kind)
	r[ColorOffset] = n.color.R
	r[ColorOffset+1] = n.color.G
	r[ColorOffset+2] = n.color.B
	r[ColorOffset+3] = n.color.A
	if n.shape == nil {
		if !n.leftFirst {
			r[SwapSlot] = 1
		}
		return r
	}
	p := append(n.shape.params(), n.material.Texture, n.material.Param)
	for i, v := range p {
		r[ParamOffset+i] = float32(v)
	}
	return r
}

// serialize appends the subtree at id in evaluation postorder: the child
// chosen by the analysis first, then the other, then the node itself.
// Operator records are only meaningful after analyze has run.
func (s *Scene) serialize(id NodeID, out []Record) []Record {
	n := s.nodes[id]
	if n.IsLeaf() {
		return append(out, n.record())
	}
	first, second := n.left, n.right
	if !n.leftFirst {
		first, second = second, first
	}
	out = s.serialize(first, out)
	out = s.serialize(second, out)
	return append(out, n.record())
}
