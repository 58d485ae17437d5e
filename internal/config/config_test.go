package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/verletsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Spawn.MaxObjects != 2000 {
		t.Errorf("expected 2000 max objects, got %d", cfg.Spawn.MaxObjects)
	}

	center, radius := cfg.BoundaryCircle()
	if center.X != 400 || center.Y != 400 {
		t.Errorf("expected centre (400, 400), got %v", center)
	}
	if radius != 390 {
		t.Errorf("expected radius 390, got %f", radius)
	}
}

func TestPhysics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.GravityX = 5
	cfg.Solver.SubSteps = 4

	p := cfg.Physics()
	if p.Gravity.X != 5 || p.Gravity.Y != 1000 {
		t.Errorf("unexpected gravity %v", p.Gravity)
	}
	if p.SubSteps != 4 {
		t.Errorf("expected 4 substeps, got %d", p.SubSteps)
	}
	if math.Abs(p.SubstepDt()-1.0/240) > 1e-12 {
		t.Errorf("unexpected substep dt %f", p.SubstepDt())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty window", func(c *Config) { c.Window.Width = 0 }},
		{"margin swallows disk", func(c *Config) { c.Boundary.Margin = 400 }},
		{"zero substeps", func(c *Config) { c.Solver.SubSteps = 0 }},
		{"cell smaller than diameter", func(c *Config) { c.Solver.CellSize = 10 }},
		{"inverted radius range", func(c *Config) { c.Spawn.MinRadius, c.Spawn.MaxRadius = 6, 5 }},
		{"zero delay", func(c *Config) { c.Spawn.Delay = 0 }},
		{"negative cap", func(c *Config) { c.Spawn.MaxObjects = -1 }},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestLoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	data := []byte("seed: 42\nsolver:\n  sub_steps: 12\nspawn:\n  max_objects: 500\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Seed != 42 || cfg.Solver.SubSteps != 12 || cfg.Spawn.MaxObjects != 500 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Solver.CellSize != 32 || cfg.Window.Width != 800 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("solver:\n  cell_size: 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetPreset("fountain")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestNewSolver(t *testing.T) {
	cfg := DefaultConfig()
	s, err := cfg.NewSolver()
	if err != nil {
		t.Fatalf("NewSolver failed: %v", err)
	}
	center, radius := s.Boundary()
	if center.X != 400 || radius != 390 {
		t.Errorf("unexpected boundary %v r=%f", center, radius)
	}
}
