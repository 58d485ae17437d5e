package spawn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/physics"
)

// Emitter is the only place that enforces the object cap.
type Emitter struct {
	cfg     config.SpawnConfig
	rng     *rand.Rand
	elapsed float64
	paused  bool
}

func New(cfg config.SpawnConfig, seed int64) *Emitter {
	return &Emitter{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (e *Emitter) Config() config.SpawnConfig { return e.cfg }

// SetPaused stops Tick from spawning; explicit Spawn calls still work.
func (e *Emitter) SetPaused(paused bool) { e.paused = paused }

func (e *Emitter) Paused() bool { return e.paused }

// Full reports whether the solver has reached the cap.
func (e *Emitter) Full(s *physics.Solver) bool {
	return s.ObjectsCount() >= e.cfg.MaxObjects
}

// Tick advances the spawn clock by dt and adds at most one particle once a
// full delay has passed. A capped or paused emitter is not an error.
func (e *Emitter) Tick(s *physics.Solver, dt float64) (id int, spawned bool, err error) {
	e.elapsed += dt
	if e.paused || e.Full(s) || e.elapsed < e.cfg.Delay {
		return -1, false, nil
	}
	e.elapsed = 0
	id, err = e.Spawn(s)
	if err != nil {
		return -1, false, err
	}
	return id, true, nil
}

// Spawn adds one particle immediately at the configured point.
func (e *Emitter) Spawn(s *physics.Solver) (int, error) {
	return e.SpawnAt(s, r2.Vec{X: e.cfg.X, Y: e.cfg.Y})
}

// SpawnAt adds one particle at pos with the launch velocity and color for
// the solver's current time.
func (e *Emitter) SpawnAt(s *physics.Solver, pos r2.Vec) (int, error) {
	if e.Full(s) {
		return -1, fmt.Errorf("%w: %d objects", dynamo.ErrCapacity, e.cfg.MaxObjects)
	}

	id, err := s.AddObject(pos, e.radius())
	if err != nil {
		return -1, err
	}

	t := s.Time()
	if err := s.SetObjectVelocity(id, Launch(e.cfg, t)); err != nil {
		return -1, err
	}
	if err := s.SetObjectColor(id, Rainbow(t)); err != nil {
		return -1, err
	}
	return id, nil
}

func (e *Emitter) radius() float64 {
	span := e.cfg.MaxRadius - e.cfg.MinRadius
	return e.cfg.MinRadius + e.rng.Float64()*span
}

// Launch returns the spawn velocity at time t: speed along
// MaxAngle·sin(t) + BaseAngle.
func Launch(cfg config.SpawnConfig, t float64) r2.Vec {
	angle := cfg.MaxAngle*math.Sin(t) + cfg.BaseAngle
	return r2.Vec{X: cfg.Speed * math.Cos(angle), Y: cfg.Speed * math.Sin(angle)}
}
