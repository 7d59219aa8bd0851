package tessellate_test

import (
	"errors"
	"testing"

	"github.com/chazu/isr/pkg/kernel"
	"github.com/chazu/isr/pkg/kernel/sdfx"
	"github.com/chazu/isr/pkg/program"
	"github.com/chazu/isr/pkg/scene"
	"github.com/chazu/isr/pkg/tessellate"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// newKernel returns a fresh sdfx kernel for testing, coarse enough to
// keep meshing fast.
func newKernel() kernel.Kernel {
	return sdfx.New(sdfx.WithMeshCells(24))
}

var grey = scene.RGB(0.5, 0.5, 0.5)

// generate runs Generate and fails the test on error.
func generate(t *testing.T, s *scene.Scene) []scene.Record {
	t.Helper()
	records, err := s.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return records
}

func inside(t *testing.T, s kernel.Solid, p v3.Vec, want bool) {
	t.Helper()
	d := s.Evaluate(p)
	if (d < 0) != want {
		t.Errorf("Evaluate(%v) = %f, inside want %v", p, d, want)
	}
}

func TestBuildSphereCuboidUnion(t *testing.T) {
	s := scene.New()
	s.Union(
		s.Sphere(grey, v3.Vec{}, 1),
		s.Cuboid(grey, v3.Vec{X: 2}, 2, 2, 2, 0, 0, 0),
	)
	root, err := tessellate.Build(generate(t, s), newKernel(), scene.DefaultCapacity)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	inside(t, root, v3.Vec{}, true)
	inside(t, root, v3.Vec{X: 2.5, Y: 0.5}, true)
	inside(t, root, v3.Vec{X: 5}, false)
}

func TestBuildHonoursOperandOrder(t *testing.T) {
	// The heavier right operand is emitted first, so the difference record
	// is swapped; the preview must still subtract the holes from the ball.
	s := scene.New()
	ball := s.Sphere(grey, v3.Vec{}, 2)
	holes := s.Union(
		s.Sphere(grey, v3.Vec{}, 0.5),
		s.Sphere(grey, v3.Vec{Y: 1}, 0.5),
	)
	root := s.Difference(ball, holes)
	records := generate(t, s)
	if root.LeftFirst() {
		t.Fatal("expected right-first evaluation")
	}
	if !records[len(records)-1].Swapped() {
		t.Fatal("difference record should be swapped")
	}

	solid, err := tessellate.Build(records, newKernel(), scene.DefaultCapacity)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	inside(t, solid, v3.Vec{X: 1.5}, true)
	inside(t, solid, v3.Vec{}, false)
	inside(t, solid, v3.Vec{Y: 1}, false)
}

func TestBuildEveryKind(t *testing.T) {
	s := scene.New()
	nodes := []*scene.Node{
		s.Sphere(grey, v3.Vec{}, 1),
		s.Cone(grey, v3.Vec{X: 3}, v3.Vec{X: 3, Z: 2}, 0.5),
		s.Cylinder(grey, v3.Vec{Y: 3}, v3.Vec{Y: 3, Z: 2}, 0.5),
		s.Cuboid(grey, v3.Vec{X: -3}, 1, 1, 1, 0.2, 0.1, 0),
		s.Tetrahedron(grey, v3.Vec{Y: -3}, v3.Vec{X: 1, Y: -3}, v3.Vec{Y: -2}, v3.Vec{Y: -3, Z: 1}),
		s.Plane(grey, v3.Vec{Z: 1}, -4),
		s.MengerSponge(grey, v3.Vec{X: 6}, 2, 2),
		s.Mandelbulb(grey, v3.Vec{Y: 6}, 1, scene.DefaultMandelbulbPower, 8),
		s.JuliaSet(grey, v3.Vec{Y: -6}, 1, v2.Vec{X: -0.2, Y: 0.6}, 8, false),
	}
	// Left-folded by Generate.
	records := generate(t, s)
	if got := len(records); got != 2*len(nodes)-1 {
		t.Fatalf("len(records) = %d, want %d", got, 2*len(nodes)-1)
	}

	root, err := tessellate.Build(records, newKernel(), scene.DefaultCapacity)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	inside(t, root, v3.Vec{}, true)
	inside(t, root, v3.Vec{X: -3}, true)
	inside(t, root, v3.Vec{Z: -5}, true) // below the plane
	inside(t, root, v3.Vec{X: 20, Y: 20, Z: 20}, false)
}

func TestBuildErrors(t *testing.T) {
	k := newKernel()

	t.Run("malformed", func(t *testing.T) {
		var union scene.Record
		union[0] = float32(scene.KindUnion)
		_, err := tessellate.Build([]scene.Record{union}, k, scene.DefaultCapacity)
		if !errors.Is(err, program.ErrMalformed) {
			t.Errorf("err = %v, want ErrMalformed", err)
		}
	})

	t.Run("capacity", func(t *testing.T) {
		s := scene.New()
		s.Union(
			s.Union(s.Sphere(grey, v3.Vec{}, 1), s.Sphere(grey, v3.Vec{X: 1}, 1)),
			s.Union(s.Sphere(grey, v3.Vec{Y: 1}, 1), s.Sphere(grey, v3.Vec{Z: 1}, 1)),
		)
		_, err := tessellate.Build(generate(t, s), k, 2)
		if !errors.Is(err, scene.ErrCapacityExceeded) {
			t.Errorf("err = %v, want ErrCapacityExceeded", err)
		}
	})

	t.Run("degenerate primitive", func(t *testing.T) {
		s := scene.New()
		s.Sphere(grey, v3.Vec{}, 0) // a warning for the scene, fatal for the kernel
		_, err := tessellate.Build(generate(t, s), k, scene.DefaultCapacity)
		if err == nil {
			t.Error("expected error for zero radius")
		}
	})
}

func TestTessellate(t *testing.T) {
	s := scene.New()
	s.Difference(
		s.Cuboid(grey, v3.Vec{}, 4, 4, 4, 0, 0, 0),
		s.Cylinder(grey, v3.Vec{Z: -3}, v3.Vec{Z: 3}, 1),
	)
	mesh, err := tessellate.TessellateScene(s, newKernel(), "drilled")
	if err != nil {
		t.Fatalf("TessellateScene: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if mesh.Name != "drilled" {
		t.Errorf("Name = %q, want drilled", mesh.Name)
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Errorf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
}

func TestTessellateSceneEmpty(t *testing.T) {
	_, err := tessellate.TessellateScene(scene.New(), newKernel(), "empty")
	if !errors.Is(err, scene.ErrEmptyScene) {
		t.Errorf("err = %v, want ErrEmptyScene", err)
	}
}
