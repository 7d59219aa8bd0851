// Package config loads and saves the isr settings file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/chazu/isr/pkg/engine"
	"github.com/chazu/isr/pkg/kernel/sdfx"
	"github.com/chazu/isr/pkg/scene"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is where the CLI looks for settings when --config is not
// given, relative to the working directory.
const DefaultPath = "isr.toml"

// Config holds every tunable of the isr tools.
type Config struct {
	Evaluator Evaluator `toml:"evaluator"`
	Engine    Engine    `toml:"engine"`
	Preview   Preview   `toml:"preview"`
	Log       Log       `toml:"log"`
}

// Evaluator describes the shader stack machine the programs target.
type Evaluator struct {
	StackCapacity int `toml:"stack_capacity"`
}

// Engine configures the scene DSL.
type Engine struct {
	Timeout Duration `toml:"timeout"`
}

// Preview configures CPU meshing.
type Preview struct {
	MeshCells   int     `toml:"mesh_cells"`
	PlaneExtent float64 `toml:"plane_extent"`
}

// Log configures the CLI logger.
type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		Evaluator: Evaluator{StackCapacity: scene.DefaultCapacity},
		Engine:    Engine{Timeout: Duration(engine.DefaultEvalTimeout)},
		Preview: Preview{
			MeshCells:   sdfx.DefaultMeshCells,
			PlaneExtent: sdfx.DefaultPlaneExtent,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the settings at path over the defaults, so keys missing from
// the file keep their default values. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Write encodes cfg as TOML to w.
func Write(w io.Writer, cfg Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.Evaluator.StackCapacity < 1:
		return fmt.Errorf("evaluator.stack_capacity must be at least 1, got %d", c.Evaluator.StackCapacity)
	case c.Engine.Timeout <= 0:
		return fmt.Errorf("engine.timeout must be positive, got %s", time.Duration(c.Engine.Timeout))
	case c.Preview.MeshCells < 8:
		return fmt.Errorf("preview.mesh_cells must be at least 8, got %d", c.Preview.MeshCells)
	case c.Preview.PlaneExtent <= 0:
		return fmt.Errorf("preview.plane_extent must be positive, got %g", c.Preview.PlaneExtent)
	}
	return nil
}
