package scenario

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/sim"
)

const (
	ActionSpawn    = "spawn"    // count particles from the emitter, at x/y when given
	ActionPlace    = "place"    // one particle of radius at x/y with velocity vx/vy
	ActionRun      = "run"      // frames frames, emitting when emit is set
	ActionPull     = "pull"     // frames frames with the pointer pulling at x/y
	ActionPush     = "push"     // frames frames with the pointer pushing at x/y
	ActionVelocity = "velocity" // set object id's velocity to vx/vy
)

// Scenario is a scripted sequence of solver inputs run against a fresh
// solver built from a preset.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Preset      string `yaml:"preset"`
	Seed        int64  `yaml:"seed"`
	Steps       []Step `yaml:"steps"`
}

type Step struct {
	Action string   `yaml:"action"`
	Frames int      `yaml:"frames"`
	Count  int      `yaml:"count"`
	Emit   bool     `yaml:"emit"`
	ID     int      `yaml:"id"`
	X      *float64 `yaml:"x"`
	Y      *float64 `yaml:"y"`
	VX     float64  `yaml:"vx"`
	VY     float64  `yaml:"vy"`
	Radius float64  `yaml:"radius"`
}

// StepResult summarises the solver after a step.
type StepResult struct {
	Index         int
	Action        string
	Objects       int
	Time          float64
	KineticEnergy float64
	Escaped       int
	Contacts      int
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &sc, nil
}

// Config resolves the scenario preset, falling back to the defaults.
func (sc *Scenario) Config() (*config.Config, error) {
	if sc.Preset == "" {
		return config.DefaultConfig(), nil
	}
	cfg := config.GetPreset(sc.Preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset %q", sc.Preset)
	}
	return cfg, nil
}

// RunScenario executes every step in order and stops at the first failing
// one, returning the results gathered so far.
func RunScenario(ctx context.Context, sc *Scenario, logger *log.Logger) ([]StepResult, error) {
	cfg, err := sc.Config()
	if err != nil {
		return nil, err
	}
	s, err := sim.FromConfig(cfg, sc.Seed)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		s.SetLogger(logger)
		s.Solver().SetLogger(logger)
	}

	results := make([]StepResult, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		if logger != nil {
			logger.Info("running step", "step", i+1, "of", len(sc.Steps), "action", step.Action)
		}
		if err := apply(ctx, s, cfg, step); err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		if err := s.Solver().Validate(); err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}

		solver := s.Solver()
		results = append(results, StepResult{
			Index:         i,
			Action:        step.Action,
			Objects:       solver.ObjectsCount(),
			Time:          solver.Time(),
			KineticEnergy: metrics.KineticEnergy(solver),
			Escaped:       metrics.CountEscaped(solver, metrics.DefaultEscapeTolerance),
			Contacts:      solver.Stats().Contacts,
		})
	}

	return results, nil
}

func apply(ctx context.Context, s *sim.Simulator, cfg *config.Config, step Step) error {
	solver := s.Solver()
	switch step.Action {
	case ActionSpawn:
		count := max(step.Count, 1)
		pos := step.point(r2.Vec{X: cfg.Spawn.X, Y: cfg.Spawn.Y})
		for i := 0; i < count; i++ {
			if _, err := s.Emitter().SpawnAt(solver, pos); err != nil {
				return err
			}
		}
		return nil

	case ActionPlace:
		radius := step.Radius
		if radius == 0 {
			radius = cfg.Spawn.MinRadius
		}
		id, err := solver.AddObject(step.point(r2.Vec{X: cfg.Spawn.X, Y: cfg.Spawn.Y}), radius)
		if err != nil {
			return err
		}
		return solver.SetObjectVelocity(id, r2.Vec{X: step.VX, Y: step.VY})

	case ActionVelocity:
		return solver.SetObjectVelocity(step.ID, r2.Vec{X: step.VX, Y: step.VY})

	case ActionRun, ActionPull, ActionPush:
		if step.Frames <= 0 {
			return fmt.Errorf("%w: frames must be positive, got %d", dynamo.ErrParameterBounds, step.Frames)
		}
		var in sim.Input
		center, _ := solver.Boundary()
		point := step.point(center)
		switch step.Action {
		case ActionPull:
			in.Pull = &point
		case ActionPush:
			in.Push = &point
		}
		for i := 0; i < step.Frames; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.Step(in, step.Emit); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

func (st Step) point(fallback r2.Vec) r2.Vec {
	p := fallback
	if st.X != nil {
		p.X = *st.X
	}
	if st.Y != nil {
		p.Y = *st.Y
	}
	return p
}
