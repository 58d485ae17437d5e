package metrics

import (
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/vmath"
)

// Metric accumulates one number over a run. Observe is called once per
// Update, after the step.
type Metric interface {
	Name() string
	Observe(s *physics.Solver)
	Value() float64
	Reset()
}

// DefaultEscapeTolerance is how far past the wall a particle may sit before
// it counts as escaped.
const DefaultEscapeTolerance = 1.0

func Default() []Metric {
	return []Metric{
		NewKineticEnergy(),
		NewMaxOverlap(),
		NewEscaped(DefaultEscapeTolerance),
		NewContacts(),
	}
}

// Snapshot maps each metric name to its current value.
func Snapshot(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// KineticEnergy returns the mean ½·r²·|v|² over all particles, with v in
// world units per second.
func KineticEnergy(s *physics.Solver) float64 {
	objs := s.Objects()
	if len(objs) == 0 {
		return 0
	}
	dt := s.Config().SubstepDt()
	total := 0.0
	for i := range objs {
		v := vmath.Magnitude(objs[i].Velocity()) / dt
		total += 0.5 * objs[i].Mass() * v * v
	}
	return total / float64(len(objs))
}
