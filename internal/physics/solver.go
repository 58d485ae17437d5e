package physics

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/vmath"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// used when two centres coincide exactly
	contactFallback = r2.Vec{X: 1, Y: 0}
	// used when a particle sits on the boundary centre
	boundaryFallback = r2.Vec{X: 0, Y: -1}
)

// Size is the simulation window extent in world units.
type Size struct {
	Width, Height int
}

// Stats counts what happened during the most recent Update.
type Stats struct {
	Contacts       int     // overlapping pairs corrected, counted per scan direction
	Degenerate     int     // contacts with coincident centres
	Overflow       int     // particles clamped into the grid extent
	MaxPenetration float64 // deepest overlap seen before correction
}

// Solver owns every particle and the spatial grid, and advances them in
// fixed steps. It is not safe for concurrent use; callers read snapshots
// between Update calls.
type Solver struct {
	cfg     Config
	objects []Particle
	grid    *Grid
	window  Size
	center  r2.Vec
	radius  float64
	time    float64
	steps   int
	stats   Stats
	scratch []int
	logger  *log.Logger
}

// NewSolver creates an empty solver whose grid covers window. The boundary
// defaults to the largest circle centred in the window.
func NewSolver(cfg Config, window Size) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if window.Width <= 0 || window.Height <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %dx%d", dynamo.ErrParameterBounds, window.Width, window.Height)
	}

	w, h := float64(window.Width), float64(window.Height)
	return &Solver{
		cfg:     cfg,
		objects: make([]Particle, 0, 256),
		grid:    NewGrid(w, h, cfg.CellSize),
		window:  window,
		center:  r2.Vec{X: w / 2, Y: h / 2},
		radius:  math.Min(w, h) / 2,
		scratch: make([]int, 0, 64),
		logger:  log.New(io.Discard),
	}, nil
}

func (s *Solver) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard)
	}
	s.logger = l
}

// AddObject creates a particle at pos and returns its id. The id is the
// only handle callers should keep; resolve it with Object when needed.
// Enforcing an object cap is the caller's job.
func (s *Solver) AddObject(pos r2.Vec, radius float64) (int, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return -1, fmt.Errorf("%w: radius must be positive and finite, got %v", dynamo.ErrParameterBounds, radius)
	}
	if !vmath.Finite(pos) {
		return -1, fmt.Errorf("%w: position must be finite, got %v", dynamo.ErrParameterBounds, pos)
	}
	if 2*radius > s.cfg.CellSize {
		s.logger.Warn("particle diameter exceeds cell size, contacts may be missed",
			"radius", radius, "cell_size", s.cfg.CellSize)
	}

	id := len(s.objects)
	p := newParticle(id, pos, radius, s.cfg.CellSize)
	if cell, ok := s.grid.Insert(id, p.Cell); !ok {
		s.logger.Debug("spawned outside grid extent", "id", id, "x", pos.X, "y", pos.Y)
		p.Cell = cell
	}
	s.objects = append(s.objects, p)
	return id, nil
}

// Object resolves a handle. The pointer stays valid until the next AddObject
// or Reset.
func (s *Solver) Object(id int) (*Particle, error) {
	if id < 0 || id >= len(s.objects) {
		return nil, fmt.Errorf("%w: %d", dynamo.ErrUnknownObject, id)
	}
	return &s.objects[id], nil
}

// SetObjectVelocity sets a velocity in world units per second.
func (s *Solver) SetObjectVelocity(id int, v r2.Vec) error {
	p, err := s.Object(id)
	if err != nil {
		return err
	}
	p.SetVelocity(v, s.cfg.SubstepDt())
	return nil
}

func (s *Solver) SetObjectColor(id int, c color.RGBA) error {
	p, err := s.Object(id)
	if err != nil {
		return err
	}
	p.Color = c
	return nil
}

// MousePull attracts every particle within MouseRadius of point.
func (s *Solver) MousePull(point r2.Vec) { s.mouseForce(point, 1) }

// MousePush repels every particle within MouseRadius of point.
func (s *Solver) MousePush(point r2.Vec) { s.mouseForce(point, -1) }

func (s *Solver) mouseForce(point r2.Vec, sign float64) {
	for i := range s.objects {
		p := &s.objects[i]
		dir := r2.Sub(point, p.Position)
		strength := math.Max(0, s.cfg.MouseGain*(s.cfg.MouseRadius-vmath.Magnitude(dir)))
		p.Accelerate(r2.Scale(sign*strength, dir))
	}
}

// Update advances the simulation by one StepDt split into SubSteps.
func (s *Solver) Update(window Size) {
	s.time += s.cfg.StepDt
	s.resize(window)
	s.stats = Stats{}

	dt := s.cfg.SubstepDt()
	for i := 0; i < s.cfg.SubSteps; i++ {
		s.applyGravity()
		s.applyBoundary()
		s.updateObjects(dt)
		s.checkCollisions()
	}
	s.steps++

	if s.stats.Overflow > 0 {
		s.logger.Warn("particles clamped into grid extent",
			"count", s.stats.Overflow, "step", s.steps, "grid_cols", s.grid.cols, "grid_rows", s.grid.rows)
	}
	if s.stats.Degenerate > 0 {
		s.logger.Debug("coincident contacts separated along fallback axis", "count", s.stats.Degenerate, "step", s.steps)
	}
}

func (s *Solver) resize(window Size) {
	if window == s.window || window.Width <= 0 || window.Height <= 0 {
		return
	}
	s.logger.Debug("resizing grid", "width", window.Width, "height", window.Height)
	s.window = window
	s.grid.Resize(float64(window.Width), float64(window.Height))
}

func (s *Solver) SetBoundary(center r2.Vec, radius float64) {
	if radius <= 0 {
		s.logger.Warn("non-positive boundary radius", "radius", radius)
	}
	s.center = center
	s.radius = radius
}

// Boundary returns the containment circle.
func (s *Solver) Boundary() (center r2.Vec, radius float64) {
	return s.center, s.radius
}

// Objects returns a copy of every particle in id order.
func (s *Solver) Objects() []Particle {
	out := make([]Particle, len(s.objects))
	copy(out, s.objects)
	return out
}

func (s *Solver) ObjectsCount() int { return len(s.objects) }

// Time returns the simulated seconds elapsed.
func (s *Solver) Time() float64 { return s.time }

// Steps returns the number of completed Update calls.
func (s *Solver) Steps() int { return s.steps }

func (s *Solver) Stats() Stats { return s.stats }

func (s *Solver) Config() Config { return s.cfg }

func (s *Solver) Window() Size { return s.window }

// Reset drops every particle and rewinds time. The boundary is kept.
func (s *Solver) Reset() {
	s.objects = s.objects[:0]
	s.grid.Clear()
	s.time = 0
	s.steps = 0
	s.stats = Stats{}
}

// Validate reports the first particle holding a non-finite position.
func (s *Solver) Validate() error {
	for i := range s.objects {
		p := &s.objects[i]
		if !vmath.Finite(p.Position) || !vmath.Finite(p.PrevPosition) {
			return &dynamo.SimulationError{Step: s.steps, Time: s.time, ID: p.ID, Wrapped: dynamo.ErrInvalidState}
		}
	}
	return nil
}

func (s *Solver) forEach(fn func(p *Particle)) {
	n := len(s.objects)
	if s.cfg.Workers == 1 || n < s.cfg.ParallelThreshold {
		for i := range s.objects {
			fn(&s.objects[i])
		}
		return
	}

	minChunk := s.cfg.ParallelThreshold / 4
	dynamo.ParallelFor(n, minChunk, s.cfg.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			fn(&s.objects[i])
		}
	})
}

func (s *Solver) applyGravity() {
	g := s.cfg.Gravity
	s.forEach(func(p *Particle) { p.Accelerate(g) })
}

func (s *Solver) applyBoundary() {
	s.forEach(s.constrain)
}

// constrain projects p back onto the allowed disk and reflects its
// velocity about the wall tangent.
func (s *Solver) constrain(p *Particle) {
	toCenter := r2.Sub(s.center, p.Position)
	limit := s.radius - p.Radius
	if vmath.Magnitude(toCenter) <= limit {
		return
	}

	n, _ := vmath.Normalize(toCenter, boundaryFallback)
	vel := p.Velocity()
	p.Position = r2.Sub(s.center, r2.Scale(limit, n))
	p.SetVelocity(vmath.Reflect(vel, vmath.Perp(n)), -1)
}

func (s *Solver) updateObjects(dt float64) {
	cellSize := s.cfg.CellSize
	s.forEach(func(p *Particle) { p.Integrate(dt, cellSize) })

	s.grid.Clear()
	for i := range s.objects {
		if cell, ok := s.grid.Insert(i, s.objects[i].Cell); !ok {
			s.objects[i].Cell = cell
			s.stats.Overflow++
		}
	}
}

// checkCollisions visits every particle in id order and corrects it against
// each grid neighbour. A pair is seen once from each side; that asymmetry
// is part of the packing behaviour and is left as is.
func (s *Solver) checkCollisions() {
	for i := range s.objects {
		s.scratch = s.grid.Neighbors(s.objects[i].Cell, i, s.scratch[:0])
		for _, j := range s.scratch {
			s.solveContact(&s.objects[i], &s.objects[j])
		}
	}
}

func (s *Solver) solveContact(a, b *Particle) {
	v := r2.Sub(a.Position, b.Position)
	dist := vmath.Magnitude(v)
	minDist := a.Radius + b.Radius
	if dist >= minDist {
		return
	}

	n, ok := vmath.Normalize(v, contactFallback)
	if !ok {
		s.stats.Degenerate++
	}
	s.stats.Contacts++
	if pen := minDist - dist; pen > s.stats.MaxPenetration {
		s.stats.MaxPenetration = pen
	}

	massA, massB := a.Mass(), b.Mass()
	ratio := massA / (massA + massB)
	delta := 0.5 * (minDist - dist)
	// heavier particle moves less
	a.Position = r2.Add(a.Position, r2.Scale((1-ratio)*delta, n))
	b.Position = r2.Sub(b.Position, r2.Scale(ratio*delta, n))
}
