package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/physics"
)

func newSolver(t *testing.T) *physics.Solver {
	t.Helper()
	cfg := physics.DefaultConfig()
	cfg.Gravity = r2.Vec{}
	s, err := physics.NewSolver(cfg, physics.Size{Width: 800, Height: 800})
	if err != nil {
		t.Fatal(err)
	}
	s.SetBoundary(r2.Vec{X: 400, Y: 400}, 390)
	return s
}

func TestKineticEnergy(t *testing.T) {
	s := newSolver(t)
	if KineticEnergy(s) != 0 {
		t.Error("expected zero energy for an empty solver")
	}

	a, _ := s.AddObject(r2.Vec{X: 300, Y: 400}, 5)
	s.AddObject(r2.Vec{X: 500, Y: 400}, 5)
	s.SetObjectVelocity(a, r2.Vec{X: 100, Y: 0})

	// one moving particle: ½·25·100², averaged over two
	expected := 0.5 * 25 * 100 * 100 / 2
	if got := KineticEnergy(s); math.Abs(got-expected) > 1e-3 {
		t.Errorf("expected %f, got %f", expected, got)
	}

	m := NewKineticEnergy()
	m.Observe(s)
	m.Observe(s)
	if math.Abs(m.Value()-expected) > 1e-3 {
		t.Errorf("expected mean %f, got %f", expected, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestEscaped(t *testing.T) {
	s := newSolver(t)
	s.AddObject(r2.Vec{X: 400, Y: 400}, 5)
	s.AddObject(r2.Vec{X: 786, Y: 400}, 5)
	s.AddObject(r2.Vec{X: 400, Y: 795}, 5)

	tests := []struct {
		tolerance float64
		want      int
	}{
		{0, 2},
		{2, 1},
		{20, 0},
	}
	for _, tt := range tests {
		if got := CountEscaped(s, tt.tolerance); got != tt.want {
			t.Errorf("CountEscaped(tol=%f) = %d, want %d", tt.tolerance, got, tt.want)
		}
	}

	m := NewEscaped(DefaultEscapeTolerance)
	m.Observe(s)
	s.Update(physics.Size{Width: 800, Height: 800})
	m.Observe(s)
	if m.Value() != 1 {
		t.Errorf("expected peak of 1 escaped, got %f", m.Value())
	}
}

func TestContactsAndOverlap(t *testing.T) {
	s := newSolver(t)
	s.AddObject(r2.Vec{X: 400, Y: 400}, 5)
	s.AddObject(r2.Vec{X: 404, Y: 400}, 5)

	contacts, overlap := NewContacts(), NewMaxOverlap()
	s.Update(physics.Size{Width: 800, Height: 800})
	contacts.Observe(s)
	overlap.Observe(s)

	if contacts.Value() <= 0 {
		t.Error("expected contacts for an overlapping pair")
	}
	if math.Abs(overlap.Value()-6) > 1e-9 {
		t.Errorf("expected max overlap 6, got %f", overlap.Value())
	}

	contacts.Reset()
	overlap.Reset()
	if contacts.Value() != 0 || overlap.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestDefaultSnapshot(t *testing.T) {
	ms := Default()
	snap := Snapshot(ms)

	for _, name := range []string{"kinetic_energy", "max_overlap", "escaped", "contacts"} {
		if _, ok := snap[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if len(snap) != len(ms) {
		t.Errorf("expected %d entries, got %d", len(ms), len(snap))
	}
}
