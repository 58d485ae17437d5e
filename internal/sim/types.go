package sim

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/physics"
)

// Observer is notified after every frame.
type Observer interface {
	OnStep(s *physics.Solver)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *physics.Solver)

func (f ObserverFunc) OnStep(s *physics.Solver) { f(s) }

// Input is the pointer state applied before a frame. Nil means released.
type Input struct {
	Pull *r2.Vec
	Push *r2.Vec
	// Window is the current view size; zero keeps the solver's window.
	Window physics.Size
}

type Config struct {
	Frames      int
	SampleEvery int  // frames between samples, 0 samples every frame
	FrameEvery  int  // frames between particle snapshots, 0 disables them
	Emit        bool // run the emitter each frame
	Strict      bool // stop on the first grid overflow
}

// Sample is one row of the per-run time series.
type Sample struct {
	Time          float64
	Objects       int
	KineticEnergy float64
	Contacts      int
	MaxOverlap    float64
}

// ParticleSnapshot is the drawable state of one particle.
type ParticleSnapshot struct {
	X      float32 `msgpack:"x"`
	Y      float32 `msgpack:"y"`
	Radius float32 `msgpack:"r"`
	Color  uint32  `msgpack:"c"` // 0xRRGGBB
}

// Frame is a full particle snapshot at one instant.
type Frame struct {
	Time      float64            `msgpack:"t"`
	CenterX   float32            `msgpack:"cx"`
	CenterY   float32            `msgpack:"cy"`
	Boundary  float32            `msgpack:"br"`
	Particles []ParticleSnapshot `msgpack:"p"`
}

type Result struct {
	Samples  []Sample
	Frames   []Frame
	Metrics  map[string]float64
	Steps    int
	Overflow int
	Errors   []error
}

// Snapshot captures every particle of s.
func Snapshot(s *physics.Solver) Frame {
	center, radius := s.Boundary()
	objs := s.Objects()
	f := Frame{
		Time:      s.Time(),
		CenterX:   float32(center.X),
		CenterY:   float32(center.Y),
		Boundary:  float32(radius),
		Particles: make([]ParticleSnapshot, len(objs)),
	}
	for i := range objs {
		p := &objs[i]
		f.Particles[i] = ParticleSnapshot{
			X:      float32(p.Position.X),
			Y:      float32(p.Position.Y),
			Radius: float32(p.Radius),
			Color:  uint32(p.Color.R)<<16 | uint32(p.Color.G)<<8 | uint32(p.Color.B),
		}
	}
	return f
}
