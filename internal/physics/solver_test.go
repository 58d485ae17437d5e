package physics

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/verletsim/internal/dynamo"
)

var window = Size{Width: 800, Height: 800}

func newTestSolver(cfg Config) *Solver {
	s, err := NewSolver(cfg, window)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func distance(a, b r2.Vec) float64 { return r2.Norm(r2.Sub(a, b)) }

var _ = Describe("Solver", func() {
	var s *Solver

	BeforeEach(func() {
		s = newTestSolver(DefaultConfig())
	})

	Describe("construction", func() {
		It("centres the default boundary in the window", func() {
			center, radius := s.Boundary()
			Expect(center).To(Equal(r2.Vec{X: 400, Y: 400}))
			Expect(radius).To(Equal(400.0))
			Expect(s.ObjectsCount()).To(BeZero())
		})

		It("rejects an empty window", func() {
			_, err := NewSolver(DefaultConfig(), Size{})
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})

		It("rejects an invalid config", func() {
			cfg := DefaultConfig()
			cfg.SubSteps = 0
			_, err := NewSolver(cfg, window)
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})
	})

	Describe("AddObject", func() {
		It("returns sequential ids", func() {
			for want := 0; want < 5; want++ {
				id, err := s.AddObject(r2.Vec{X: 100 + float64(want)*20, Y: 100}, 5)
				Expect(err).NotTo(HaveOccurred())
				Expect(id).To(Equal(want))
			}
			Expect(s.ObjectsCount()).To(Equal(5))
		})

		DescribeTable("rejects bad input",
			func(pos r2.Vec, radius float64) {
				_, err := s.AddObject(pos, radius)
				Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
				Expect(s.ObjectsCount()).To(BeZero())
			},
			Entry("zero radius", r2.Vec{X: 1, Y: 1}, 0.0),
			Entry("negative radius", r2.Vec{X: 1, Y: 1}, -2.0),
			Entry("NaN radius", r2.Vec{X: 1, Y: 1}, math.NaN()),
			Entry("infinite radius", r2.Vec{X: 1, Y: 1}, math.Inf(1)),
			Entry("NaN position", r2.Vec{X: math.NaN(), Y: 1}, 5.0),
		)

		It("rejects unknown handles", func() {
			_, err := s.Object(0)
			Expect(errors.Is(err, dynamo.ErrUnknownObject)).To(BeTrue())
			Expect(errors.Is(s.SetObjectVelocity(-1, r2.Vec{}), dynamo.ErrUnknownObject)).To(BeTrue())
		})

		It("converts velocity from units per second", func() {
			id, _ := s.AddObject(r2.Vec{X: 400, Y: 400}, 5)
			Expect(s.SetObjectVelocity(id, r2.Vec{X: 960, Y: 0})).To(Succeed())

			p, err := s.Object(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Velocity().X).To(BeNumerically("~", 2, 1e-9))
		})
	})

	Describe("boundary", func() {
		It("projects an escaping particle and reflects its normal velocity", func() {
			s.SetBoundary(r2.Vec{X: 400, Y: 400}, 390)
			id, _ := s.AddObject(r2.Vec{X: 400, Y: 790}, 5)
			p, _ := s.Object(id)
			p.SetVelocity(r2.Vec{X: 3, Y: 4}, 1)

			s.applyBoundary()

			Expect(p.Position.X).To(BeNumerically("~", 400, 1e-9))
			Expect(p.Position.Y).To(BeNumerically("~", 785, 1e-9))
			v := p.Velocity()
			Expect(v.X).To(BeNumerically("~", 3, 1e-9))
			Expect(v.Y).To(BeNumerically("~", -4, 1e-9))
		})

		It("leaves interior particles untouched", func() {
			id, _ := s.AddObject(r2.Vec{X: 300, Y: 450}, 5)
			p, _ := s.Object(id)
			p.SetVelocity(r2.Vec{X: -1, Y: 2}, 1)
			before := *p

			s.applyBoundary()

			Expect(*p).To(Equal(before))
		})

		It("keeps every particle on the wall with its speed intact", func() {
			rng := rand.New(rand.NewSource(3))
			center, radius := r2.Vec{X: 400, Y: 400}, 300.0
			s.SetBoundary(center, radius)

			speeds := make([]float64, 0, 200)
			for i := 0; i < 200; i++ {
				angle := rng.Float64() * 2 * math.Pi
				reach := radius + rng.Float64()*100
				pos := r2.Add(center, r2.Vec{X: reach * math.Cos(angle), Y: reach * math.Sin(angle)})
				id, err := s.AddObject(pos, 2+rng.Float64()*5)
				Expect(err).NotTo(HaveOccurred())
				p, _ := s.Object(id)
				p.SetVelocity(r2.Vec{X: rng.NormFloat64() * 5, Y: rng.NormFloat64() * 5}, 1)
				speeds = append(speeds, r2.Norm(p.Velocity()))
			}

			s.applyBoundary()

			for i, p := range s.Objects() {
				Expect(distance(p.Position, center)).To(BeNumerically("~", radius-p.Radius, 1e-9))
				Expect(r2.Norm(p.Velocity())).To(BeNumerically("~", speeds[i], 1e-9))
			}
		})
	})

	Describe("collisions", func() {
		It("separates overlapping pairs monotonically without overshoot", func() {
			a, _ := s.AddObject(r2.Vec{X: 100, Y: 100}, 5)
			b, _ := s.AddObject(r2.Vec{X: 106, Y: 100}, 5)

			prev := 6.0
			for i := 0; i < 10; i++ {
				s.checkCollisions()
				pa, _ := s.Object(a)
				pb, _ := s.Object(b)
				d := distance(pa.Position, pb.Position)
				Expect(d).To(BeNumerically(">", prev))
				Expect(d).To(BeNumerically("<=", 10+1e-9))
				prev = d
			}
			Expect(prev).To(BeNumerically("~", 10, 1e-3))
		})

		It("moves the lighter particle further", func() {
			small, _ := s.AddObject(r2.Vec{X: 200, Y: 200}, 5)
			large, _ := s.AddObject(r2.Vec{X: 210, Y: 200}, 7.5)

			s.checkCollisions()

			ps, _ := s.Object(small)
			pl, _ := s.Object(large)
			Expect(200 - ps.Position.X).To(BeNumerically(">", pl.Position.X-210))
			Expect(s.Stats().Contacts).To(Equal(2))
			Expect(s.Stats().MaxPenetration).To(BeNumerically("~", 2.5, 1e-9))
		})

		It("ignores pairs that only touch", func() {
			s.AddObject(r2.Vec{X: 300, Y: 300}, 5)
			s.AddObject(r2.Vec{X: 310, Y: 300}, 5)

			s.checkCollisions()

			Expect(s.Stats().Contacts).To(BeZero())
		})

		It("separates coincident spawns", func() {
			a, _ := s.AddObject(r2.Vec{X: 400, Y: 400}, 5)
			b, _ := s.AddObject(r2.Vec{X: 400, Y: 400}, 5)

			s.Update(window)

			pa, _ := s.Object(a)
			pb, _ := s.Object(b)
			Expect(distance(pa.Position, pb.Position)).To(BeNumerically(">", 0))
			Expect(s.Validate()).To(Succeed())
			Expect(s.Stats().Degenerate).To(BeNumerically(">=", 1))
		})
	})

	Describe("mouse", func() {
		It("pulls particles within range toward the point", func() {
			near, _ := s.AddObject(r2.Vec{X: 500, Y: 400}, 5)
			far, _ := s.AddObject(r2.Vec{X: 600, Y: 400}, 5)

			s.MousePull(r2.Vec{X: 400, Y: 400})

			pn, _ := s.Object(near)
			pf, _ := s.Object(far)
			Expect(pn.Acceleration.X).To(BeNumerically("~", -20000, 1e-6))
			Expect(pn.Acceleration.Y).To(BeZero())
			Expect(pf.Acceleration).To(Equal(r2.Vec{}))
		})

		It("pushes particles within range away from the point", func() {
			id, _ := s.AddObject(r2.Vec{X: 500, Y: 400}, 5)

			s.MousePush(r2.Vec{X: 400, Y: 400})

			p, _ := s.Object(id)
			Expect(p.Acceleration.X).To(BeNumerically("~", 20000, 1e-6))
		})
	})

	Describe("Update", func() {
		It("advances time by one outer step", func() {
			for i := 0; i < 3; i++ {
				s.Update(window)
			}
			Expect(s.Time()).To(BeNumerically("~", 3.0/60, 1e-12))
			Expect(s.Steps()).To(Equal(3))
		})

		It("falls under gravity", func() {
			id, _ := s.AddObject(r2.Vec{X: 400, Y: 200}, 5)
			s.Update(window)
			p, _ := s.Object(id)
			Expect(p.Position.Y).To(BeNumerically(">", 200))
			Expect(p.Position.X).To(BeNumerically("~", 400, 1e-9))
		})

		It("follows window resizes", func() {
			s.Update(Size{Width: 1024, Height: 512})
			Expect(s.Window()).To(Equal(Size{Width: 1024, Height: 512}))
			cols, rows := s.grid.Dims()
			Expect(cols).To(Equal(32))
			Expect(rows).To(Equal(16))
		})

		It("clamps particles outside the grid and counts them", func() {
			cfg := DefaultConfig()
			cfg.Gravity = r2.Vec{}
			small, err := NewSolver(cfg, Size{Width: 100, Height: 100})
			Expect(err).NotTo(HaveOccurred())
			small.SetBoundary(r2.Vec{X: 50, Y: 50}, 10000)
			id, _ := small.AddObject(r2.Vec{X: 500, Y: 500}, 5)

			small.Update(Size{Width: 100, Height: 100})

			Expect(small.Stats().Overflow).To(Equal(cfg.SubSteps))
			p, _ := small.Object(id)
			Expect(p.Cell).To(Equal(Cell{X: 3, Y: 3}))
			Expect(p.Position).To(Equal(r2.Vec{X: 500, Y: 500}))
		})

		It("keeps a settling pile finite and inside the wall", func() {
			center := r2.Vec{X: 400, Y: 400}
			s.SetBoundary(center, 390)
			rng := rand.New(rand.NewSource(11))
			for i := 0; i < 300; i++ {
				pos := r2.Vec{X: 150 + rng.Float64()*500, Y: 150 + rng.Float64()*500}
				_, err := s.AddObject(pos, 5+rng.Float64()*2.5)
				Expect(err).NotTo(HaveOccurred())
			}

			for i := 0; i < 120; i++ {
				s.Update(window)
			}

			Expect(s.Validate()).To(Succeed())
			for _, p := range s.Objects() {
				Expect(distance(p.Position, center)).To(BeNumerically("<=", 390-p.Radius+15))
			}
		})

		It("matches the serial result when passes fan out", func() {
			parallel := DefaultConfig()
			parallel.Workers = 4
			parallel.ParallelThreshold = 1
			ps := newTestSolver(parallel)

			rng := rand.New(rand.NewSource(5))
			for i := 0; i < 150; i++ {
				pos := r2.Vec{X: 200 + rng.Float64()*400, Y: 200 + rng.Float64()*400}
				s.AddObject(pos, 5)
				ps.AddObject(pos, 5)
			}

			for i := 0; i < 30; i++ {
				s.Update(window)
				ps.Update(window)
			}

			Expect(ps.Objects()).To(Equal(s.Objects()))
		})
	})

	Describe("Validate", func() {
		It("reports the first non-finite particle", func() {
			s.AddObject(r2.Vec{X: 100, Y: 100}, 5)
			id, _ := s.AddObject(r2.Vec{X: 200, Y: 100}, 5)
			p, _ := s.Object(id)
			p.Position.X = math.NaN()

			err := s.Validate()
			Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())
			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.ID).To(Equal(id))
		})
	})

	Describe("snapshots", func() {
		It("returns copies", func() {
			id, _ := s.AddObject(r2.Vec{X: 100, Y: 100}, 5)
			objs := s.Objects()
			objs[0].Position = r2.Vec{}

			p, _ := s.Object(id)
			Expect(p.Position).To(Equal(r2.Vec{X: 100, Y: 100}))
		})

		It("empties on Reset but keeps the boundary", func() {
			s.SetBoundary(r2.Vec{X: 10, Y: 20}, 30)
			s.AddObject(r2.Vec{X: 10, Y: 20}, 5)
			s.Update(window)

			s.Reset()

			Expect(s.ObjectsCount()).To(BeZero())
			Expect(s.Time()).To(BeZero())
			Expect(s.grid.Len()).To(BeZero())
			center, radius := s.Boundary()
			Expect(center).To(Equal(r2.Vec{X: 10, Y: 20}))
			Expect(radius).To(Equal(30.0))
		})
	})
})
