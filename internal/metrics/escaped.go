package metrics

import (
	"github.com/san-kum/verletsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

// Escaped reports the largest number of particles seen outside the
// boundary at once.
type Escaped struct {
	name      string
	tolerance float64
	max       int
}

func NewEscaped(tolerance float64) *Escaped {
	return &Escaped{
		name:      "escaped",
		tolerance: tolerance,
	}
}

func (e *Escaped) Name() string {
	return e.name
}

func (e *Escaped) Observe(s *physics.Solver) {
	if n := CountEscaped(s, e.tolerance); n > e.max {
		e.max = n
	}
}

func (e *Escaped) Value() float64 {
	return float64(e.max)
}

func (e *Escaped) Reset() {
	e.max = 0
}

// CountEscaped counts particles whose edge lies more than tolerance past
// the boundary circle.
func CountEscaped(s *physics.Solver, tolerance float64) int {
	center, radius := s.Boundary()
	n := 0
	for _, p := range s.Objects() {
		if r2.Norm(r2.Sub(p.Position, center)) > radius-p.Radius+tolerance {
			n++
		}
	}
	return n
}
