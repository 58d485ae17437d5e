package physics

import (
	"fmt"

	"github.com/san-kum/verletsim/internal/dynamo"
	"github.com/san-kum/verletsim/internal/vmath"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultStepDt            = 1.0 / 60.0
	DefaultSubSteps          = 8
	DefaultCellSize          = 32.0
	DefaultMouseRadius       = 120.0
	DefaultMouseGain         = 10.0
	DefaultParallelThreshold = 4096
)

// Config holds the solver parameters. Units are world units (pixels) and
// seconds.
type Config struct {
	Gravity     r2.Vec
	StepDt      float64 // outer step per Update
	SubSteps    int
	CellSize    float64 // must be >= the largest particle diameter
	MouseRadius float64
	MouseGain   float64

	// Workers sets the fan-out for gravity, boundary and integration passes.
	// 1 keeps everything on the caller's goroutine, 0 uses one per CPU.
	Workers int
	// ParallelThreshold is the particle count below which passes stay serial.
	ParallelThreshold int
}

func DefaultConfig() Config {
	return Config{
		Gravity:           r2.Vec{X: 0, Y: 1000},
		StepDt:            DefaultStepDt,
		SubSteps:          DefaultSubSteps,
		CellSize:          DefaultCellSize,
		MouseRadius:       DefaultMouseRadius,
		MouseGain:         DefaultMouseGain,
		Workers:           1,
		ParallelThreshold: DefaultParallelThreshold,
	}
}

// SubstepDt is the integration interval of a single substep.
func (c Config) SubstepDt() float64 {
	return c.StepDt / float64(c.SubSteps)
}

func (c Config) Validate() error {
	if c.StepDt <= 0 {
		return fmt.Errorf("%w: step dt must be positive, got %f", dynamo.ErrParameterBounds, c.StepDt)
	}
	if c.SubSteps < 1 {
		return fmt.Errorf("%w: sub steps must be at least 1, got %d", dynamo.ErrParameterBounds, c.SubSteps)
	}
	if c.CellSize <= 0 {
		return fmt.Errorf("%w: cell size must be positive, got %f", dynamo.ErrParameterBounds, c.CellSize)
	}
	if c.MouseRadius < 0 || c.MouseGain < 0 {
		return fmt.Errorf("%w: mouse radius and gain must be non-negative", dynamo.ErrParameterBounds)
	}
	if c.Workers < 0 || c.ParallelThreshold < 0 {
		return fmt.Errorf("%w: workers and parallel threshold must be non-negative", dynamo.ErrParameterBounds)
	}
	if !vmath.Finite(c.Gravity) {
		return fmt.Errorf("%w: gravity must be finite", dynamo.ErrParameterBounds)
	}
	return nil
}
