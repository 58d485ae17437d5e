package config

import (
	"fmt"
	"math"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/physics"
)

const (
	DefaultWidth      = 800
	DefaultHeight     = 800
	DefaultMargin     = 10.0
	DefaultDelay      = 0.005
	DefaultSpeed      = 1000.0
	DefaultMinRadius  = 5.0
	DefaultMaxRadius  = 7.5
	DefaultMaxObjects = 2000
	DefaultMaxAngle   = math.Pi / 2
	DefaultBaseAngle  = math.Pi / 2
)

type Config struct {
	Seed     int64          `yaml:"seed"`
	LogLevel string         `yaml:"log_level"`
	Window   WindowConfig   `yaml:"window"`
	Boundary BoundaryConfig `yaml:"boundary"`
	Solver   SolverConfig   `yaml:"solver"`
	Spawn    SpawnConfig    `yaml:"spawn"`
}

type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// BoundaryConfig places the containment circle in the window centre with a
// radius of (width - 2*margin)/2.
type BoundaryConfig struct {
	Margin float64 `yaml:"margin"`
}

type SolverConfig struct {
	GravityX          float64 `yaml:"gravity_x"`
	GravityY          float64 `yaml:"gravity_y"`
	StepDt            float64 `yaml:"step_dt"`
	SubSteps          int     `yaml:"sub_steps"`
	CellSize          float64 `yaml:"cell_size"`
	MouseRadius       float64 `yaml:"mouse_radius"`
	MouseGain         float64 `yaml:"mouse_gain"`
	Workers           int     `yaml:"workers"`
	ParallelThreshold int     `yaml:"parallel_threshold"`
}

type SpawnConfig struct {
	Delay      float64 `yaml:"delay"`
	Speed      float64 `yaml:"speed"`
	MinRadius  float64 `yaml:"min_radius"`
	MaxRadius  float64 `yaml:"max_radius"`
	MaxObjects int     `yaml:"max_objects"`
	MaxAngle   float64 `yaml:"max_angle"`
	BaseAngle  float64 `yaml:"base_angle"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
}

func DefaultConfig() *Config {
	p := physics.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Window:   WindowConfig{Width: DefaultWidth, Height: DefaultHeight},
		Boundary: BoundaryConfig{Margin: DefaultMargin},
		Solver: SolverConfig{
			GravityX:          p.Gravity.X,
			GravityY:          p.Gravity.Y,
			StepDt:            p.StepDt,
			SubSteps:          p.SubSteps,
			CellSize:          p.CellSize,
			MouseRadius:       p.MouseRadius,
			MouseGain:         p.MouseGain,
			Workers:           p.Workers,
			ParallelThreshold: p.ParallelThreshold,
		},
		Spawn: SpawnConfig{
			Delay:      DefaultDelay,
			Speed:      DefaultSpeed,
			MinRadius:  DefaultMinRadius,
			MaxRadius:  DefaultMaxRadius,
			MaxObjects: DefaultMaxObjects,
			MaxAngle:   DefaultMaxAngle,
			BaseAngle:  DefaultBaseAngle,
			X:          DefaultWidth / 2,
			Y:          DefaultHeight / 2,
		},
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window must be positive, got %dx%d", dynamo.ErrParameterBounds, c.Window.Width, c.Window.Height)
	}
	if _, r := c.BoundaryCircle(); r <= 0 {
		return fmt.Errorf("%w: boundary margin %.1f leaves no room", dynamo.ErrParameterBounds, c.Boundary.Margin)
	}
	if err := c.Physics().Validate(); err != nil {
		return err
	}

	s := c.Spawn
	if s.MinRadius <= 0 || s.MaxRadius < s.MinRadius {
		return fmt.Errorf("%w: spawn radius range [%.2f, %.2f]", dynamo.ErrParameterBounds, s.MinRadius, s.MaxRadius)
	}
	if c.Solver.CellSize < 2*s.MaxRadius {
		return fmt.Errorf("%w: cell size %.1f is smaller than the largest diameter %.1f",
			dynamo.ErrParameterBounds, c.Solver.CellSize, 2*s.MaxRadius)
	}
	if s.Delay <= 0 {
		return fmt.Errorf("%w: spawn delay must be positive, got %f", dynamo.ErrParameterBounds, s.Delay)
	}
	if s.MaxObjects < 0 {
		return fmt.Errorf("%w: max objects must be non-negative, got %d", dynamo.ErrParameterBounds, s.MaxObjects)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, err)
	}
	return nil
}

// Physics converts the solver section into a physics.Config.
func (c *Config) Physics() physics.Config {
	s := c.Solver
	return physics.Config{
		Gravity:           r2.Vec{X: s.GravityX, Y: s.GravityY},
		StepDt:            s.StepDt,
		SubSteps:          s.SubSteps,
		CellSize:          s.CellSize,
		MouseRadius:       s.MouseRadius,
		MouseGain:         s.MouseGain,
		Workers:           s.Workers,
		ParallelThreshold: s.ParallelThreshold,
	}
}

func (c *Config) WindowSize() physics.Size {
	return physics.Size{Width: c.Window.Width, Height: c.Window.Height}
}

// BoundaryCircle returns the containment circle for the configured window.
func (c *Config) BoundaryCircle() (center r2.Vec, radius float64) {
	w, h := float64(c.Window.Width), float64(c.Window.Height)
	return r2.Vec{X: w / 2, Y: h / 2}, (w - 2*c.Boundary.Margin) / 2
}

// NewSolver builds a solver with the configured window and boundary.
func (c *Config) NewSolver() (*physics.Solver, error) {
	s, err := physics.NewSolver(c.Physics(), c.WindowSize())
	if err != nil {
		return nil, err
	}
	s.SetBoundary(c.BoundaryCircle())
	return s, nil
}
