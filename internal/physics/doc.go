// Package physics implements the particle solver: point-mass circles under
// gravity, mutual collision and a circular containment wall.
//
//   - [Particle]: position Verlet body, velocity implied by its last step
//   - [Grid]: uniform bucket grid of particle ids, rebuilt every substep
//   - [Solver]: owns the particle arena and the grid, runs the substep loop
//
// # Substep Loop
//
// Each [Solver.Update] advances StepDt split into SubSteps passes of
// gravity, boundary containment, integration with grid rebuild, and
// positional collision correction against the 3×3 grid neighbourhood.
//
// # Handles
//
// [Solver.AddObject] returns an integer id equal to the particle's arena
// index. Pointers from [Solver.Object] are invalidated by the next
// AddObject, so keep the id and resolve it again.
//
//	s, _ := physics.NewSolver(physics.DefaultConfig(), physics.Size{Width: 800, Height: 800})
//	id, _ := s.AddObject(r2.Vec{X: 400, Y: 400}, 5)
//	_ = s.SetObjectVelocity(id, r2.Vec{X: 0, Y: 1000})
//	s.Update(physics.Size{Width: 800, Height: 800})
package physics
