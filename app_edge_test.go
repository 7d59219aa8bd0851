package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/chazu/isr/pkg/config"
)

// ---------------------------------------------------------------------------
// 1. Empty and whitespace source: no records, no errors, non-nil slices.
// ---------------------------------------------------------------------------

func TestE2EWhitespaceOnly(t *testing.T) {
	app := testApp(t)
	result := app.Evaluate("   \n\t\n   \n", "blank")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for whitespace-only source, got %d", len(result.Errors))
	}
	if len(result.Records) != 0 {
		t.Errorf("expected 0 records for whitespace-only source, got %d", len(result.Records))
	}
	// JSON consumers expect [] rather than null.
	if result.Errors == nil || result.Warnings == nil {
		t.Error("Errors and Warnings should be non-nil")
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	app := testApp(t)
	result := app.Generate(";; nothing here\n;; or here\n")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for comment-only source, got %v", result.Errors)
	}
	if len(result.Records) != 0 {
		t.Errorf("expected 0 records, got %d", len(result.Records))
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax and evaluation errors carry line information.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorHasLine(t *testing.T) {
	app := testApp(t)

	source := "(def a (sphere :radius 1))\n\n(sphere :radius"
	result := app.Generate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected a syntax error")
	}
	if len(result.Records) != 0 {
		t.Errorf("expected no records, got %d", len(result.Records))
	}
	t.Logf("syntax error at line %d: %s", result.Errors[0].Line, result.Errors[0].Message)
}

func TestDiagnosticJSONHasNoColumn(t *testing.T) {
	// zygomys reports lines only.
	data, err := json.Marshal(Diagnostic{Line: 2, Message: "unexpected end of input"})
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"line":2,"message":"unexpected end of input"}`; string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestE2EUndefinedSymbol(t *testing.T) {
	app := testApp(t)

	result := app.Generate(`(union a b)`)
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for undefined symbols")
	}
}

func TestE2EUnknownKeyword(t *testing.T) {
	app := testApp(t)

	result := app.Generate(`(sphere :radius 1 :radios 2)`)
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for a misspelt keyword")
	}
	if !strings.Contains(result.Errors[0].Message, ":radios") {
		t.Errorf("error %q should name the keyword", result.Errors[0].Message)
	}
}

func TestE2EOperatorOnTransformedOperator(t *testing.T) {
	app := testApp(t)

	result := app.Generate(`
(def u (union (sphere :radius 1) (sphere :radius 1 :center (vec3 1 0 0))))
(translate u (vec3 0 0 1))`)
	if len(result.Errors) == 0 {
		t.Fatal("expected an error when transforming an operator")
	}
}

// ---------------------------------------------------------------------------
// 3. Degenerate geometry: generation warns, the preview mesh fails.
// ---------------------------------------------------------------------------

func TestE2EZeroRadiusWarns(t *testing.T) {
	app := testApp(t)

	result := app.Generate(`(sphere :radius 0)`)
	if !result.OK() {
		t.Fatalf("a zero radius should not block generation, got %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", result.Warnings)
	}
	if result.Warnings[0].Node != "#0" {
		t.Errorf("warning node = %q, want #0", result.Warnings[0].Node)
	}
	if !strings.Contains(result.Warnings[0].Message, "radius") {
		t.Errorf("warning %q should mention the radius", result.Warnings[0].Message)
	}
}

func TestE2EZeroRadiusMeshFails(t *testing.T) {
	app := testApp(t)

	result := app.Evaluate(`(sphere :radius 0)`, "dot")
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 tessellation error, got %v", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0].Message, "tessellation failed") {
		t.Errorf("unexpected error %q", result.Errors[0].Message)
	}
	if result.Mesh != nil {
		t.Error("expected no mesh")
	}
	// The program itself is still available.
	if len(result.Records) != 1 {
		t.Errorf("expected 1 record, got %d", len(result.Records))
	}
}

// ---------------------------------------------------------------------------
// 4. Stack capacity.
// ---------------------------------------------------------------------------

func TestE2ECapacityExceeded(t *testing.T) {
	cfg := config.Default()
	cfg.Evaluator.StackCapacity = 1
	cfg.Preview.MeshCells = 32
	app := NewApp(cfg)

	// A single primitive fits.
	if result := app.Generate(`(sphere :radius 1)`); !result.OK() {
		t.Fatalf("single sphere at capacity 1: %v", result.Errors)
	}

	// Any operator needs two slots.
	result := app.Generate(`(union (sphere :radius 1) (sphere :radius 2))`)
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 capacity error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Message, "capacity") {
		t.Errorf("error %q should mention capacity", result.Errors[0].Message)
	}
	if len(result.Records) != 0 {
		t.Errorf("expected no records, got %d", len(result.Records))
	}
}

func TestE2EDeepChainFitsSmallStack(t *testing.T) {
	cfg := config.Default()
	cfg.Evaluator.StackCapacity = 2

	app := NewApp(cfg)

	// A left-leaning chain of unions never needs more than two slots.
	source := "(sphere :radius 1)"
	for i := 0; i < 20; i++ {
		source = "(union " + source + " (sphere :radius 0.5 :center (vec3 1 0 0)))"
	}

	result := app.Generate(source)
	if !result.OK() {
		t.Fatalf("expected success, got %v", result.Errors)
	}
	if result.Stats.NumObjects != 41 {
		t.Errorf("records = %d, want 41", result.Stats.NumObjects)
	}
	if result.Stats.PeakDepth != 2 {
		t.Errorf("peak depth = %d, want 2", result.Stats.PeakDepth)
	}
}

// ---------------------------------------------------------------------------
// 5. Rapid evaluation: no panics, no state carried between runs.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Alternates between valid and invalid sources. Runs are sequential:
	// the engine serialises evaluations anyway.
	app := testApp(t)

	sources := []string{
		`(sphere :radius 1)`,
		`(sphere :radius`,
		``,
		`(union a b)`,
		`(cuboid :size (vec3 1 2 3))`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(difference (sphere :radius 1) (sphere :radius 0.5 :center (vec3 0.5 0 0)))`,
		`(undefined-func 1 2 3)`,
		`(plane :normal (vec3 0 1 0))`,
	}
	wantOK := []bool{true, false, false, false, true, false, false, true, false, true}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			result := app.Generate(source)
			if result.OK() != wantOK[i] {
				t.Errorf("iteration %d (%q): OK = %v, want %v (errors %v)", i, source, result.OK(), wantOK[i], result.Errors)
			}
		}()
	}
}

// ---------------------------------------------------------------------------
// 6. Computed arguments.
// ---------------------------------------------------------------------------

func TestE2EArithmeticArguments(t *testing.T) {
	app := testApp(t)

	source := `
(def r 0.5)
(def gap (* r 4))
(union (sphere :radius r) (sphere :radius (* r 2) :center (vec3 gap 0 0)))`
	result := app.Generate(source)
	if !result.OK() {
		t.Fatalf("expected success, got %v", result.Errors)
	}

	// Both spheres have depth 1, so the left operand goes first.
	first := result.Records[0].Params()
	second := result.Records[1].Params()
	if first[3] != 0.5 {
		t.Errorf("first radius = %v, want 0.5", first[3])
	}
	if second[0] != 2 || second[3] != 1 {
		t.Errorf("second sphere = %v, want center x 2 and radius 1", second[:4])
	}
}

func TestE2EManyRoots(t *testing.T) {
	app := testApp(t)

	var b strings.Builder
	for i := 0; i < 7; i++ {
		b.WriteString("(sphere :radius 0.25)\n")
	}
	result := app.Generate(b.String())
	if !result.OK() {
		t.Fatalf("expected success, got %v", result.Errors)
	}
	if result.Stats.NumPrimitives != 7 || result.Stats.NumOperators != 6 {
		t.Errorf("stats = %+v, want 7 primitives folded by 6 unions", result.Stats)
	}
	if result.Stats.PeakDepth != 2 {
		t.Errorf("peak depth = %d, want 2", result.Stats.PeakDepth)
	}
}
