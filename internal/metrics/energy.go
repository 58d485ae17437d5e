package metrics

import "github.com/san-kum/verletsim/internal/physics"

// KineticEnergyMean averages KineticEnergy over every observed frame.
type KineticEnergyMean struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergyMean {
	return &KineticEnergyMean{name: "kinetic_energy"}
}

func (e *KineticEnergyMean) Name() string { return e.name }

func (e *KineticEnergyMean) Observe(s *physics.Solver) {
	e.total += KineticEnergy(s)
	e.samples++
}

func (e *KineticEnergyMean) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergyMean) Reset() {
	e.total = 0
	e.samples = 0
}

// MaxOverlap tracks the deepest penetration the solver reported.
type MaxOverlap struct {
	name string
	max  float64
}

func NewMaxOverlap() *MaxOverlap {
	return &MaxOverlap{name: "max_overlap"}
}

func (m *MaxOverlap) Name() string { return m.name }

func (m *MaxOverlap) Observe(s *physics.Solver) {
	if p := s.Stats().MaxPenetration; p > m.max {
		m.max = p
	}
}

func (m *MaxOverlap) Value() float64 { return m.max }

func (m *MaxOverlap) Reset() { m.max = 0 }
