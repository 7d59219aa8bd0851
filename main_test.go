package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chazu/isr/pkg/config"
	"github.com/chazu/isr/pkg/kernel"
	"github.com/chazu/isr/pkg/program"
)

// run executes the CLI with args and a settings file in a temp dir.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "isr.toml")
	cfg := config.Default()
	cfg.Preview.MeshCells = 32
	if err := config.Save(cfgPath, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeScene(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.isr")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLIGenerateListing(t *testing.T) {
	stdout, _, err := run(t, "generate", "examples/showcase.isr")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(stdout, "KIND") {
		t.Errorf("listing has no header:\n%s", stdout)
	}
	if !strings.Contains(stdout, "19 records (10 primitives, 9 operators), peak stack depth 3") {
		t.Errorf("listing has no summary line:\n%s", stdout)
	}
}

func TestCLIGenerateOutputFile(t *testing.T) {
	scene := writeScene(t, `(difference (sphere :radius 1) (sphere :radius 0.5 :center (vec3 1 0 0)))`)
	out := filepath.Join(t.TempDir(), "scene.bin")

	stdout, _, err := run(t, "generate", scene, "-o", out)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stdout != "" {
		t.Errorf("expected nothing on stdout, got %q", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	records, err := program.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("decoded %d records, want 3", len(records))
	}
	if _, err := program.Verify(records, 8); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestCLIGenerateReportsErrors(t *testing.T) {
	scene := writeScene(t, "(sphere :radius 1)\n(sphere :radius")

	_, stderr, err := run(t, "generate", scene)
	if !errors.Is(err, errFailed) {
		t.Fatalf("err = %v, want errFailed", err)
	}
	if !strings.Contains(stderr, "error:") {
		t.Errorf("stderr should carry the diagnostic, got %q", stderr)
	}
}

func TestCLIGenerateEmptyScene(t *testing.T) {
	scene := writeScene(t, ";; nothing\n")

	_, stderr, err := run(t, "generate", scene)
	if !errors.Is(err, errFailed) {
		t.Fatalf("err = %v, want errFailed", err)
	}
	if !strings.Contains(stderr, "scene is empty") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestCLIGenerateWarnings(t *testing.T) {
	scene := writeScene(t, `(cuboid :size (vec3 1 0 1))`)

	stdout, stderr, err := run(t, "generate", scene)
	if err != nil {
		t.Fatalf("warnings should not fail the command: %v", err)
	}
	if !strings.Contains(stderr, "warning: node #0: width") {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(stdout, "1 records") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestCLIMesh(t *testing.T) {
	scene := writeScene(t, `(union (sphere :radius 1) (cuboid :size (vec3 1 1 1) :center (vec3 1 0 0)))`)
	out := filepath.Join(t.TempDir(), "mesh.json")

	if _, _, err := run(t, "mesh", scene, "-o", out); err != nil {
		t.Fatalf("mesh: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var m kernel.Mesh
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("mesh is not JSON: %v", err)
	}
	if m.Name != "scene" {
		t.Errorf("name = %q, want %q", m.Name, "scene")
	}
	if m.IsEmpty() {
		t.Error("mesh has no vertices")
	}
}

func TestCLIConfig(t *testing.T) {
	stdout, _, err := run(t, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{"stack_capacity = 8", "mesh_cells = 32", "timeout = ", "5s"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config output missing %q:\n%s", want, stdout)
		}
	}
}

func TestCLIConfigWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "isr.toml")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "config", "--write"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config --write: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != config.Default() {
		t.Errorf("written config = %+v, want defaults", cfg)
	}
}

func TestCLIBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isr.toml")
	if err := os.WriteFile(path, []byte("[evaluator]\nstack_capacity = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "config"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "stack_capacity") {
		t.Fatalf("err = %v, want a stack_capacity error", err)
	}
}

func TestWatchFile(t *testing.T) {
	path := writeScene(t, `(sphere :radius 1)`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, func() { calls.Add(1) })
	}()

	// The watcher may not be registered yet, so keep saving until the
	// change is seen.
	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		if err := os.WriteFile(path, []byte(`(sphere :radius 2)`), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(100 * time.Millisecond)
	}
	if calls.Load() == 0 {
		t.Fatal("onChange was never called")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchFile returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watchFile did not stop after cancel")
	}
}

func TestWatchFileIgnoresSiblings(t *testing.T) {
	path := writeScene(t, `(sphere :radius 1)`)
	sibling := filepath.Join(filepath.Dir(path), "other.isr")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, func() { calls.Add(1) })
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(sibling, []byte(`(sphere :radius 2)`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := <-done; err != nil {
		t.Fatalf("watchFile returned %v", err)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("onChange called %d times for a sibling file", n)
	}
}
