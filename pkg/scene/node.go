package scene

import "fmt"

// Kind enumerates the node types understood by the evaluator.
// Primitive kinds come first so the renderer can dispatch on
// tag < NumPrimitiveKinds; the three operators follow.
type Kind int

const (
	KindSphere       Kind = iota // center, radius
	KindCone                     // base, apex, radius
	KindCylinder                 // endpoint A, endpoint B, radius
	KindCuboid                   // center, extents, Z-Y-X Euler angles
	KindTetrahedron              // four vertices
	KindPlane                    // normal, signed offset
	KindMengerSponge             // center, size, iterations
	KindMandelbulb               // center, scale, power, iterations
	KindJuliaSet                 // center, scale, c, iterations, orbit trap
	KindUnion
	KindIntersection
	KindDifference
)

// NumPrimitiveKinds is the number of primitive tags; operator tags start here.
const NumPrimitiveKinds = int(KindUnion)

// NumKinds is the total number of tags.
const NumKinds = int(KindDifference) + 1

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindCone:
		return "cone"
	case KindCylinder:
		return "cylinder"
	case KindCuboid:
		return "cuboid"
	case KindTetrahedron:
		return "tetrahedron"
	case KindPlane:
		return "plane"
	case KindMengerSponge:
		return "menger-sponge"
	case KindMandelbulb:
		return "mandelbulb"
	case KindJuliaSet:
		return "julia-set"
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	case KindDifference:
		return "difference"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsOperator reports whether k is one of the boolean operators.
func (k Kind) IsOperator() bool {
	return k >= KindUnion && k <= KindDifference
}

// IsPrimitive reports whether k is a primitive shape tag.
func (k Kind) IsPrimitive() bool {
	return k >= KindSphere && k < KindUnion
}

// Color is an RGBA color in linear [0,1] floats.
type Color struct {
	R, G, B, A float32
}

// RGB returns an opaque color.
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// OperatorColor is the placeholder carried by operator nodes. Color is
// resolved at the primitive leaves during shading.
var OperatorColor = Color{R: 1, G: 1, B: 1, A: 1}

// Material is the optional texture metadata suffix of a primitive record.
type Material struct {
	Texture float64 `json:"texture"` // texture index, 0 = none
	Param   float64 `json:"param"`   // texture-specific parameter
}

// NodeID indexes a node inside its Scene. IDs are stable for the
// lifetime of the scene.
type NodeID int32

// NoNode marks an absent child or parent link.
const NoNode NodeID = -1

// IsValid reports whether id refers to a node.
func (id NodeID) IsValid() bool {
	return id >= 0
}

func (id NodeID) String() string {
	if !id.IsValid() {
		return "#none"
	}
	return fmt.Sprintf("#%d", int32(id))
}

// Node is either a primitive leaf or a binary boolean operator.
// Nodes are created through Scene factories and live as long as the scene.
type Node struct {
	scene    *Scene
	id       NodeID
	kind     Kind
	color    Color
	shape    Shape // nil for operators
	material Material

	left, right NodeID
	parent      NodeID // non-owning; set once the node is combined

	// Derived by the stack-order analysis; maxStack == 0 means not analysed.
	maxStack  int
	leftFirst bool
}

// ID returns the node's index in its scene.
func (n *Node) ID() NodeID { return n.id }

// Kind returns the node's tag.
func (n *Node) Kind() Kind { return n.kind }

// Color returns the node color. Operators return OperatorColor.
func (n *Node) Color() Color { return n.color }

// Shape returns a copy of the primitive's geometry, or nil for operators.
func (n *Node) Shape() Shape { return n.shape }

// Material returns the primitive's material suffix.
func (n *Node) Material() Material { return n.material }

// Left returns the left operand, or NoNode for a leaf.
func (n *Node) Left() NodeID { return n.left }

// Right returns the right operand, or NoNode for a leaf.
func (n *Node) Right() NodeID { return n.right }

// Parent returns the operator that consumed this node, or NoNode.
func (n *Node) Parent() NodeID { return n.parent }

// IsLeaf reports whether the node is a primitive.
func (n *Node) IsLeaf() bool { return !n.left.IsValid() && !n.right.IsValid() }

// StackDepth returns the minimal peak stack depth needed to evaluate the
// subtree rooted at n. The boolean is false until the scene has been
// analysed by Generate.
func (n *Node) StackDepth() (int, bool) {
	return n.maxStack, n.maxStack > 0
}

// LeftFirst reports whether the left operand is emitted before the right
// one. Only meaningful for analysed operator nodes.
func (n *Node) LeftFirst() bool { return n.leftFirst }

func (n *Node) String() string {
	if n.IsLeaf() {
		return fmt.Sprintf("%s %s", n.kind, n.id)
	}
	return fmt.Sprintf("%s %s(%s, %s)", n.kind, n.id, n.left, n.right)
}
