package sim

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/spawn"
)

// Simulator drives one solver frame by frame: emitter, pointer input,
// Update, then metrics and observers.
type Simulator struct {
	solver    *physics.Solver
	emitter   *spawn.Emitter
	metrics   []metrics.Metric
	observers []Observer
	logger    *log.Logger
}

// New wraps solver. emitter may be nil for runs that place particles
// themselves.
func New(solver *physics.Solver, emitter *spawn.Emitter) *Simulator {
	return &Simulator{
		solver:    solver,
		emitter:   emitter,
		metrics:   make([]metrics.Metric, 0),
		observers: make([]Observer, 0),
		logger:    log.New(io.Discard),
	}
}

func (s *Simulator) AddMetric(m metrics.Metric) { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)     { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard)
	}
	s.logger = l
}

func (s *Simulator) Solver() *physics.Solver  { return s.solver }
func (s *Simulator) Emitter() *spawn.Emitter  { return s.emitter }
func (s *Simulator) Metrics() []metrics.Metric { return s.metrics }

// Step advances one frame. Spawning runs only when emit is set and an
// emitter is attached; a full emitter is not an error.
func (s *Simulator) Step(in Input, emit bool) error {
	if emit && s.emitter != nil {
		if _, _, err := s.emitter.Tick(s.solver, s.solver.Config().StepDt); err != nil {
			return err
		}
	}
	if in.Pull != nil {
		s.solver.MousePull(*in.Pull)
	}
	if in.Push != nil {
		s.solver.MousePush(*in.Push)
	}

	window := in.Window
	if window == (physics.Size{}) {
		window = s.solver.Window()
	}
	s.solver.Update(window)

	for _, m := range s.metrics {
		m.Observe(s.solver)
	}
	for _, obs := range s.observers {
		obs.OnStep(s.solver)
	}
	return nil
}

// Run steps cfg.Frames frames, sampling as configured. Invalid states and,
// in strict mode, grid overflow end the run early and are recorded in
// Result.Errors rather than returned.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Samples: make([]Sample, 0, cfg.Frames/max(cfg.SampleEvery, 1)+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	for i := 0; i < cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := s.Step(Input{}, cfg.Emit); err != nil {
			return result, fmt.Errorf("frame %d: %w", i, err)
		}
		result.Steps++

		stats := s.solver.Stats()
		result.Overflow += stats.Overflow

		if cfg.SampleEvery <= 1 || i%cfg.SampleEvery == 0 || i == cfg.Frames-1 {
			result.Samples = append(result.Samples, Sample{
				Time:          s.solver.Time(),
				Objects:       s.solver.ObjectsCount(),
				KineticEnergy: metrics.KineticEnergy(s.solver),
				Contacts:      stats.Contacts,
				MaxOverlap:    stats.MaxPenetration,
			})
		}
		if cfg.FrameEvery > 0 && (i%cfg.FrameEvery == 0 || i == cfg.Frames-1) {
			result.Frames = append(result.Frames, Snapshot(s.solver))
		}

		if err := s.solver.Validate(); err != nil {
			s.logger.Error("invalid state, stopping run", "err", err)
			result.Errors = append(result.Errors, err)
			break
		}
		if cfg.Strict && stats.Overflow > 0 {
			err := &dynamo.SimulationError{Step: s.solver.Steps(), Time: s.solver.Time(), ID: -1, Wrapped: dynamo.ErrGridOverflow}
			s.logger.Error("grid overflow in strict mode", "count", stats.Overflow)
			result.Errors = append(result.Errors, err)
			break
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	s.logger.Debug("run finished", "steps", result.Steps, "objects", s.solver.ObjectsCount(), "samples", len(result.Samples))

	return result, nil
}

func validateConfig(cfg Config) error {
	if cfg.Frames < 0 {
		return fmt.Errorf("%w: frames must be non-negative, got %d", dynamo.ErrParameterBounds, cfg.Frames)
	}
	if cfg.SampleEvery < 0 || cfg.FrameEvery < 0 {
		return fmt.Errorf("%w: sampling intervals must be non-negative", dynamo.ErrParameterBounds)
	}
	return nil
}

// FromConfig builds a solver, an emitter seeded with seed and the default
// metrics from cfg.
func FromConfig(cfg *config.Config, seed int64) (*Simulator, error) {
	solver, err := cfg.NewSolver()
	if err != nil {
		return nil, err
	}
	s := New(solver, spawn.New(cfg.Spawn, seed))
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}
	return s, nil
}
