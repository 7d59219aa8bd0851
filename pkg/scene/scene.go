package scene

import (
	"fmt"

	"github.com/chazu/isr/pkg/logging"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultCapacity is the stack size of the shader evaluator.
const DefaultCapacity = 8

// Defaults used by the fractal factories in the scene DSL.
const (
	DefaultMandelbulbPower   = 8.0
	DefaultFractalIterations = 64
)

// Scene owns every node created through it. Nodes are never removed; the
// whole arena goes away with the Scene. A Scene is not safe for
// concurrent mutation.
type Scene struct {
	nodes    []*Node
	root     NodeID
	capacity int
}

// Option configures a Scene.
type Option func(*Scene)

// WithCapacity sets the evaluator stack capacity Generate enforces.
func WithCapacity(n int) Option {
	return func(s *Scene) {
		if n < 1 {
			panic(fmt.Sprintf("scene: stack capacity must be at least 1, got %d", n))
		}
		s.capacity = n
	}
}

// New creates an empty scene.
func New(opts ...Option) *Scene {
	s := &Scene{root: NoNode, capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity returns the evaluator stack capacity.
func (s *Scene) Capacity() int { return s.capacity }

// Len returns the number of nodes owned by the scene.
func (s *Scene) Len() int { return len(s.nodes) }

// Node returns the node with the given id, or nil.
func (s *Scene) Node(id NodeID) *Node {
	if !id.IsValid() || int(id) >= len(s.nodes) {
		return nil
	}
	return s.nodes[id]
}

// Nodes returns the owned nodes in creation order.
func (s *Scene) Nodes() []*Node {
	out := make([]*Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Root returns the root chosen by the last Generate, or nil.
func (s *Scene) Root() *Node {
	return s.Node(s.root)
}

func (s *Scene) add(k Kind, c Color, shape Shape, mat []Material) *Node {
	n := &Node{
		scene:  s,
		id:     NodeID(len(s.nodes)),
		kind:   k,
		color:  c,
		shape:  shape,
		left:   NoNode,
		right:  NoNode,
		parent: NoNode,
	}
	if len(mat) > 0 {
		n.material = mat[0]
	}
	s.nodes = append(s.nodes, n)
	return n
}

// ---------------------------------------------------------------------------
// Primitive factories
// ---------------------------------------------------------------------------

// Sphere adds a sphere. An optional material may follow the geometry.
func (s *Scene) Sphere(c Color, center v3.Vec, radius float64, mat ...Material) *Node {
	return s.add(KindSphere, c, Sphere{Center: center, Radius: radius}, mat)
}

// Cone adds a cone with its base disc at base and its tip at apex.
func (s *Scene) Cone(c Color, base, apex v3.Vec, radius float64, mat ...Material) *Node {
	return s.add(KindCone, c, Cone{Base: base, Apex: apex, Radius: radius}, mat)
}

// Cylinder adds a capped cylinder between a and b.
func (s *Scene) Cylinder(c Color, a, b v3.Vec, radius float64, mat ...Material) *Node {
	return s.add(KindCylinder, c, Cylinder{A: a, B: b, Radius: radius}, mat)
}

// Cuboid adds a box with extents (length, width, height) oriented by the
// Z-Y-X Euler angles alpha, beta, gamma in radians.
func (s *Scene) Cuboid(c Color, center v3.Vec, length, width, height, alpha, beta, gamma float64, mat ...Material) *Node {
	return s.add(KindCuboid, c, Cuboid{
		Center: center,
		Length: length, Width: width, Height: height,
		Alpha: alpha, Beta: beta, Gamma: gamma,
	}, mat)
}

// Tetrahedron adds the tetrahedron spanned by four vertices.
func (s *Scene) Tetrahedron(c Color, p0, p1, p2, p3 v3.Vec, mat ...Material) *Node {
	return s.add(KindTetrahedron, c, Tetrahedron{V: [4]v3.Vec{p0, p1, p2, p3}}, mat)
}

// Plane adds the plane at height h along normal. The stored offset is -h
// so that dot(p, normal) + offset = 0 on the plane.
func (s *Scene) Plane(c Color, normal v3.Vec, h float64, mat ...Material) *Node {
	return s.add(KindPlane, c, Plane{Normal: normal, Offset: -h}, mat)
}

// MengerSponge adds a Menger sponge of edge size.
func (s *Scene) MengerSponge(c Color, center v3.Vec, size float64, iterations int, mat ...Material) *Node {
	return s.add(KindMengerSponge, c, MengerSponge{Center: center, Size: size, Iterations: iterations}, mat)
}

// Mandelbulb adds a Mandelbulb fractal.
func (s *Scene) Mandelbulb(c Color, center v3.Vec, scale, power float64, maxIterations int, mat ...Material) *Node {
	return s.add(KindMandelbulb, c, Mandelbulb{
		Center: center, Scale: scale, Power: power, MaxIterations: maxIterations,
	}, mat)
}

// JuliaSet adds a quaternion Julia set slice for the constant k.
func (s *Scene) JuliaSet(c Color, center v3.Vec, scale float64, k v2.Vec, maxIterations int, orbitTrap bool, mat ...Material) *Node {
	return s.add(KindJuliaSet, c, JuliaSet{
		Center: center, Scale: scale, C: k, MaxIterations: maxIterations, OrbitTrap: orbitTrap,
	}, mat)
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// Union combines a and b. Both must be non-nil, owned by s and not yet
// combined; violating that panics.
func (s *Scene) Union(a, b *Node) *Node {
	return s.combine(KindUnion, a, b)
}

// Intersection keeps the volume shared by a and b.
func (s *Scene) Intersection(a, b *Node) *Node {
	return s.combine(KindIntersection, a, b)
}

// Difference subtracts b from a.
func (s *Scene) Difference(a, b *Node) *Node {
	return s.combine(KindDifference, a, b)
}

func (s *Scene) combine(k Kind, a, b *Node) *Node {
	s.mustOperand(k, "left", a)
	s.mustOperand(k, "right", b)
	if a == b {
		panic(fmt.Sprintf("scene: %s: node %s used as both operands", k, a.id))
	}
	n := s.add(k, OperatorColor, nil, nil)
	n.left, n.right = a.id, b.id
	a.parent, b.parent = n.id, n.id
	return n
}

func (s *Scene) mustOperand(k Kind, side string, n *Node) {
	switch {
	case n == nil:
		panic(fmt.Sprintf("scene: %s: missing %s operand", k, side))
	case n.scene != s:
		panic(fmt.Sprintf("scene: %s: %s operand %s belongs to another scene", k, side, n.id))
	case n.parent.IsValid():
		panic(fmt.Sprintf("scene: %s: %s operand %s is already combined into %s", k, side, n.id, n.parent))
	}
}

// ---------------------------------------------------------------------------
// Generation
// ---------------------------------------------------------------------------

// Generate assembles every parentless node into one tree, picks the
// stack-minimal evaluation order and returns the postorder record program.
//
// Leftover roots are folded left in creation order: the first becomes the
// root and each later one is joined as root = union(root, next). The
// implicit unions are added to the scene, so a second call yields the same
// program.
//
// Generate fails with ErrEmptyScene when no node exists, with
// ValidationErrors on structural or non-finite data and with
// *CapacityError when the tree needs more stack than the evaluator has.
func (s *Scene) Generate() ([]Record, error) {
	if len(s.nodes) == 0 {
		return nil, ErrEmptyScene
	}

	root := s.assemble()

	if errs := Validate(s).Errors; len(errs) > 0 {
		return nil, errs
	}

	depth := s.analyze(root.id)
	if depth > s.capacity {
		return nil, &CapacityError{Depth: depth, Capacity: s.capacity}
	}

	records := s.serialize(root.id, make([]Record, 0, len(s.nodes)))

	logging.Logger().Debug("scene generated",
		"nodes", len(s.nodes),
		"records", len(records),
		"stack_depth", depth,
		"capacity", s.capacity)

	return records, nil
}

// assemble folds the forest into a single root and records it.
func (s *Scene) assemble() *Node {
	// Only scan the nodes that existed before the fold; each union it
	// appends is either consumed by the next step or becomes the root.
	n := len(s.nodes)
	var root *Node
	for i := 0; i < n; i++ {
		node := s.nodes[i]
		if node.parent.IsValid() {
			continue
		}
		if root == nil {
			root = node
			continue
		}
		root = s.Union(root, node)
	}
	s.root = root.id
	return root
}
