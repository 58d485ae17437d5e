package physics

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Cell is a grid bucket coordinate.
type Cell struct {
	X, Y int
}

// Particle is a point-mass circle integrated with position Verlet.
// Velocity is implicit: Position - PrevPosition is the displacement over
// the last integration step.
type Particle struct {
	ID           int
	Position     r2.Vec
	PrevPosition r2.Vec
	Acceleration r2.Vec
	Radius       float64 // doubles as mass via Radius²
	Cell         Cell
	Color        color.RGBA
}

func newParticle(id int, pos r2.Vec, radius, cellSize float64) Particle {
	return Particle{
		ID:           id,
		Position:     pos,
		PrevPosition: pos,
		Radius:       radius,
		Cell:         cellOf(pos, cellSize),
		Color:        color.RGBA{R: 255, A: 255},
	}
}

// Integrate advances one Verlet step and refreshes the cached cell.
func (p *Particle) Integrate(dt, cellSize float64) {
	displacement := r2.Sub(p.Position, p.PrevPosition)
	p.PrevPosition = p.Position
	p.Position = r2.Add(r2.Add(p.Position, displacement), r2.Scale(dt*dt, p.Acceleration))
	p.Acceleration = r2.Vec{}
	p.Cell = cellOf(p.Position, cellSize)
}

// Accelerate adds a to the acceleration accumulated for this step.
func (p *Particle) Accelerate(a r2.Vec) {
	p.Acceleration = r2.Add(p.Acceleration, a)
}

// SetVelocity rewrites the position history so the next step moves by v*dt.
// A negative dt flips the sign convention, which the boundary bounce uses.
func (p *Particle) SetVelocity(v r2.Vec, dt float64) {
	p.PrevPosition = r2.Sub(p.Position, r2.Scale(dt, v))
}

// AddVelocity adds v*dt to the implicit velocity without resetting it.
func (p *Particle) AddVelocity(v r2.Vec, dt float64) {
	p.PrevPosition = r2.Sub(p.PrevPosition, r2.Scale(dt, v))
}

// Velocity returns the displacement per integration step, not per second.
// Divide by dt for a physical velocity.
func (p *Particle) Velocity() r2.Vec {
	return r2.Sub(p.Position, p.PrevPosition)
}

// Mass returns Radius², the weight used when splitting collision corrections.
func (p *Particle) Mass() float64 {
	return p.Radius * p.Radius
}

func cellOf(pos r2.Vec, cellSize float64) Cell {
	return Cell{
		X: int(math.Floor(pos.X / cellSize)),
		Y: int(math.Floor(pos.Y / cellSize)),
	}
}
