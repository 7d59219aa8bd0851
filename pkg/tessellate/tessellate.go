// Package tessellate is the CPU preview of a record program. It runs the
// records on the same stack machine the shader uses, building kernel
// solids instead of distances, and meshes the result.
package tessellate

import (
	"fmt"

	"github.com/chazu/isr/pkg/kernel"
	"github.com/chazu/isr/pkg/logging"
	"github.com/chazu/isr/pkg/program"
	"github.com/chazu/isr/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// solidStack is the evaluator stack, holding solids instead of distances.
type solidStack struct {
	items []kernel.Solid
}

func newSolidStack(capacity int) *solidStack {
	return &solidStack{items: make([]kernel.Solid, 0, capacity)}
}

func (st *solidStack) push(s kernel.Solid) {
	st.items = append(st.items, s)
}

func (st *solidStack) pop() kernel.Solid {
	s := st.items[len(st.items)-1]
	st.items = st.items[:len(st.items)-1]
	return s
}

// Build interprets records with a stack of the given capacity and
// returns the root solid. Primitives push a solid; operators pop two and
// push their combination, honouring the operand order stored in the
// record. The program is verified first, so malformed input and capacity
// overflows are reported as errors rather than panics.
func Build(records []scene.Record, k kernel.Kernel, capacity int) (kernel.Solid, error) {
	if _, err := program.Verify(records, capacity); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	st := newSolidStack(capacity)
	for i, r := range records {
		kind := r.Kind()
		if !kind.IsOperator() {
			s, err := primitive(k, r)
			if err != nil {
				return nil, fmt.Errorf("tessellate: record %d (%s): %w", i, kind, err)
			}
			st.push(s)
			continue
		}

		right, left := st.pop(), st.pop()
		if r.Swapped() {
			left, right = right, left
		}
		st.push(combine(k, kind, left, right))
	}
	return st.pop(), nil
}

// Tessellate builds the root solid of records and meshes it. The mesh is
// labelled with name.
func Tessellate(records []scene.Record, k kernel.Kernel, capacity int, name string) (*kernel.Mesh, error) {
	root, err := Build(records, k, capacity)
	if err != nil {
		return nil, err
	}
	mesh, err := k.ToMesh(root)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for %q: %w", name, err)
	}
	mesh.Name = name

	logging.Logger().Debug("scene tessellated",
		"name", name,
		"records", len(records),
		"triangles", mesh.TriangleCount())

	return mesh, nil
}

// TessellateScene generates s and meshes the resulting program at the
// scene's own capacity.
func TessellateScene(s *scene.Scene, k kernel.Kernel, name string) (*kernel.Mesh, error) {
	records, err := s.Generate()
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	return Tessellate(records, k, s.Capacity(), name)
}

func combine(k kernel.Kernel, kind scene.Kind, a, b kernel.Solid) kernel.Solid {
	switch kind {
	case scene.KindUnion:
		return k.Union(a, b)
	case scene.KindIntersection:
		return k.Intersection(a, b)
	default:
		return k.Difference(a, b)
	}
}

// primitive creates the kernel solid for a primitive record.
func primitive(k kernel.Kernel, r scene.Record) (kernel.Solid, error) {
	shape, _, err := r.Shape()
	if err != nil {
		return nil, err
	}

	switch s := shape.(type) {
	case scene.Sphere:
		return k.Sphere(s.Center, s.Radius)
	case scene.Cone:
		return k.Cone(s.Base, s.Apex, s.Radius)
	case scene.Cylinder:
		return k.Cylinder(s.A, s.B, s.Radius)
	case scene.Cuboid:
		size := v3.Vec{X: s.Length, Y: s.Width, Z: s.Height}
		return k.Box(s.Center, size, s.Alpha, s.Beta, s.Gamma)
	case scene.Tetrahedron:
		return k.Tetrahedron(s.V)
	case scene.Plane:
		return k.Plane(s.Normal, s.Offset)
	case scene.MengerSponge:
		return k.MengerSponge(s.Center, s.Size, s.Iterations)
	case scene.Mandelbulb:
		return k.Mandelbulb(s.Center, s.Scale, s.Power, s.MaxIterations)
	case scene.JuliaSet:
		return k.JuliaSet(s.Center, s.Scale, s.C, s.MaxIterations)
	default:
		return nil, fmt.Errorf("unsupported shape %T", shape)
	}
}
