package main

import (
	"os"
	"testing"

	"github.com/chazu/isr/pkg/config"
	"github.com/chazu/isr/pkg/program"
	"github.com/chazu/isr/pkg/scene"
)

// testApp returns an App with a coarse preview grid so meshing stays fast.
func testApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Preview.MeshCells = 32
	return NewApp(cfg)
}

// TestE2EShowcaseExample exercises the full pipeline: Lisp source → engine →
// scene → records → verified program → mesh. This is the same path the mesh
// command takes.
func TestE2EShowcaseExample(t *testing.T) {
	app := testApp(t)

	source, err := os.ReadFile("examples/showcase.isr")
	if err != nil {
		t.Fatalf("failed to read showcase.isr: %v", err)
	}

	result := app.Evaluate(string(source), "showcase")

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}

	// 10 primitives, 4 explicit operators and 5 unions folding the roots.
	if len(result.Records) != 19 {
		t.Fatalf("expected 19 records, got %d", len(result.Records))
	}
	if result.Stats.NumPrimitives != 10 || result.Stats.NumOperators != 9 {
		t.Errorf("stats = %+v, want 10 primitives and 9 operators", result.Stats)
	}
	if result.Stats.PeakDepth != 3 {
		t.Errorf("peak depth = %d, want 3", result.Stats.PeakDepth)
	}
	if last := result.Records[len(result.Records)-1].Kind(); last != scene.KindUnion {
		t.Errorf("final record is %s, want union", last)
	}

	if result.Mesh == nil {
		t.Fatal("expected a mesh")
	}
	if result.Mesh.Name != "showcase" {
		t.Errorf("mesh name = %q, want %q", result.Mesh.Name, "showcase")
	}
	if result.Mesh.IsEmpty() {
		t.Error("showcase mesh should have triangles")
	}
	if len(result.Mesh.Normals) != len(result.Mesh.Vertices) {
		t.Errorf("normals (%d) and vertices (%d) differ", len(result.Mesh.Normals), len(result.Mesh.Vertices))
	}
}

func TestE2EGenerateSkipsMesh(t *testing.T) {
	app := testApp(t)

	result := app.Generate(`(sphere :radius 1)`)
	if !result.OK() {
		t.Fatalf("expected success, got errors %v", result.Errors)
	}
	if result.Mesh != nil {
		t.Error("Generate should not tessellate")
	}
	if len(result.Records) != 1 || result.Records[0].Kind() != scene.KindSphere {
		t.Fatalf("records = %v, want one sphere", result.Records)
	}
}

func TestE2EProgramRoundTrip(t *testing.T) {
	app := testApp(t)

	result := app.Generate(`
(def a (sphere :radius 1))
(def b (cuboid :size (vec3 1 1 1) :center (vec3 0.5 0 0)))
(difference a b)`)
	if !result.OK() {
		t.Fatalf("expected success, got errors %v", result.Errors)
	}

	decoded, err := program.Decode(program.Encode(result.Records))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != len(result.Records) {
		t.Fatalf("decoded %d records, want %d", len(decoded), len(result.Records))
	}
	for i := range decoded {
		if decoded[i] != result.Records[i] {
			t.Errorf("record %d changed in transit", i)
		}
	}
}

func TestE2EEvalErrorReturnsDiagnostics(t *testing.T) {
	app := testApp(t)

	result := app.Evaluate(`(sphere :radius 1`, "broken")

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one error for unclosed paren")
	}
	if len(result.Records) != 0 {
		t.Errorf("expected no records on error, got %d", len(result.Records))
	}
	if result.Mesh != nil {
		t.Error("expected no mesh on error")
	}
}

func TestE2EEmptySource(t *testing.T) {
	app := testApp(t)

	result := app.Evaluate("", "empty")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Records) != 0 {
		t.Errorf("expected 0 records for empty source, got %d", len(result.Records))
	}
	if result.OK() {
		t.Error("an empty scene should not report OK")
	}
}
