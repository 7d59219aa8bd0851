package main

import (
	"errors"

	"github.com/chazu/isr/pkg/config"
	"github.com/chazu/isr/pkg/engine"
	"github.com/chazu/isr/pkg/kernel"
	"github.com/chazu/isr/pkg/kernel/sdfx"
	"github.com/chazu/isr/pkg/logging"
	"github.com/chazu/isr/pkg/program"
	"github.com/chazu/isr/pkg/scene"
	"github.com/chazu/isr/pkg/tessellate"
)

// App runs scene source through the whole pipeline: DSL evaluation,
// record generation, program verification and, on request, the CPU
// preview mesh. The CLI commands are thin wrappers around it.
type App struct {
	engine   *engine.Engine
	kernel   kernel.Kernel
	capacity int
}

// Diagnostic is a JSON-serializable error or warning.
type Diagnostic struct {
	Line    int    `json:"line"`
	Node    string `json:"node,omitempty"`
	Message string `json:"message"`
}

// EvalResult is the full result of one run. Records is empty whenever
// Errors is not.
type EvalResult struct {
	Records  []scene.Record `json:"-"`
	Stats    program.Stats  `json:"stats"`
	Mesh     *kernel.Mesh   `json:"mesh,omitempty"`
	Errors   []Diagnostic   `json:"errors"`
	Warnings []Diagnostic   `json:"warnings"`
}

// OK reports whether the run produced a program.
func (r EvalResult) OK() bool { return len(r.Errors) == 0 && len(r.Records) > 0 }

// NewApp creates an App from cfg with the sdfx kernel.
func NewApp(cfg config.Config) *App {
	return &App{
		engine: engine.NewEngine(
			engine.WithTimeout(cfg.Engine.Timeout.Std()),
			engine.WithCapacity(cfg.Evaluator.StackCapacity),
		),
		kernel: sdfx.New(
			sdfx.WithMeshCells(cfg.Preview.MeshCells),
			sdfx.WithPlaneExtent(cfg.Preview.PlaneExtent),
		),
		capacity: cfg.Evaluator.StackCapacity,
	}
}

// Generate evaluates source and returns its record program. An empty
// scene is not an error; it yields no records.
func (a *App) Generate(source string) EvalResult {
	return a.generate(source)
}

// Evaluate is Generate plus the preview mesh, labelled with name.
func (a *App) Evaluate(source, name string) EvalResult {
	result := a.generate(source)
	if !result.OK() {
		return result
	}

	mesh, err := tessellate.Tessellate(result.Records, a.kernel, a.capacity, name)
	if err != nil {
		logging.Logger().Warn("tessellation failed", "name", name, "error", err)
		result.Errors = append(result.Errors, Diagnostic{Message: "tessellation failed: " + err.Error()})
		return result
	}
	result.Mesh = mesh
	return result
}

func (a *App) generate(source string) EvalResult {
	result := EvalResult{
		Errors:   []Diagnostic{},
		Warnings: []Diagnostic{},
	}

	// Step 1: Evaluate the Lisp source into a scene.
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		logging.Logger().Error("evaluation aborted", "error", err)
		result.Errors = append(result.Errors, Diagnostic{Message: err.Error()})
		return result
	}
	for _, e := range evalErrs {
		result.Errors = append(result.Errors, Diagnostic{Line: e.Line, Message: e.Message})
	}
	if len(result.Errors) > 0 || s.Len() == 0 {
		return result
	}

	// Step 2: Fold, order and serialise.
	records, err := s.Generate()
	if err != nil {
		result.Errors = append(result.Errors, generateDiagnostics(err)...)
		return result
	}

	// Step 3: Geometry warnings never block generation.
	for _, w := range scene.Validate(s).Warnings {
		logging.Logger().Warn("scene warning", "node", w.NodeID, "message", w.Message)
		result.Warnings = append(result.Warnings, Diagnostic{Node: nodeName(w.NodeID), Message: w.Message})
	}

	// Step 4: Dry-run the program the way the renderer will.
	stats, err := program.Verify(records, a.capacity)
	if err != nil {
		result.Errors = append(result.Errors, Diagnostic{Message: err.Error()})
		return result
	}

	result.Records = records
	result.Stats = stats
	return result
}

// generateDiagnostics splits a Generate failure into one diagnostic per
// validation finding.
func generateDiagnostics(err error) []Diagnostic {
	var verrs scene.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Diagnostic{{Message: err.Error()}}
	}
	out := make([]Diagnostic, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, Diagnostic{Node: nodeName(e.NodeID), Message: e.Message})
	}
	return out
}

func nodeName(id scene.NodeID) string {
	if !id.IsValid() {
		return ""
	}
	return id.String()
}
