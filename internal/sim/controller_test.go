package sim_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rdsim/internal/compute"
	"github.com/san-kum/rdsim/internal/config"
	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/sim"
)

func uniformField(w, h int) *dynamo.Field {
	f, err := dynamo.NewField(w, h)
	Expect(err).NotTo(HaveOccurred())
	f.SeedUniform(dynamo.BaselineU, dynamo.BaselineV)
	return f
}

var centerSeed = config.SeedConfig{
	Strategy: config.SeedCenter,
	CenterU:  config.DefaultCenterU,
	CenterV:  config.DefaultCenterV,
	HalfSize: 3,
}

var _ = Describe("Controller", func() {
	var c *sim.Controller

	BeforeEach(func() {
		var err error
		c, err = sim.New(dynamo.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("lifecycle", func() {
		It("starts uninitialized", func() {
			Expect(c.State()).To(Equal(sim.StateUninitialized))
			Expect(c.Field()).To(BeNil())
		})

		It("rejects ticks, resizes and resets before Initialize", func() {
			Expect(c.Tick(1)).To(MatchError(dynamo.ErrNotInitialized))
			Expect(c.Resize(100, 100)).To(MatchError(dynamo.ErrNotInitialized))
			Expect(c.SetResolution(5)).To(MatchError(dynamo.ErrNotInitialized))
			Expect(c.Reset()).To(MatchError(dynamo.ErrNotInitialized))
			Expect(c.Perturb(1, 1)).To(BeFalse())
		})

		It("allocates a uniform baseline field on Initialize", func() {
			Expect(c.Initialize(1920, 1080, 10)).To(Succeed())
			Expect(c.State()).To(Equal(sim.StateReady))
			Expect(c.Layout().GridW).To(Equal(192))
			Expect(c.Layout().GridH).To(Equal(108))
			Expect(c.Field().Equal(uniformField(192, 108))).To(BeTrue())
		})

		It("fails fast on invalid dimensions", func() {
			Expect(c.Initialize(0, 100, 10)).To(MatchError(dynamo.ErrInvalidDimension))
			Expect(c.Initialize(100, 100, 0)).To(MatchError(dynamo.ErrInvalidDimension))
			Expect(c.State()).To(Equal(sim.StateUninitialized))
		})

		It("rejects invalid parameters at construction", func() {
			p := dynamo.DefaultParams()
			p.SubSteps = 0
			_, err := sim.New(p)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	Describe("resize", func() {
		BeforeEach(func() {
			Expect(c.Initialize(200, 100, 10)).To(Succeed())
			Expect(c.Perturb(55, 45)).To(BeTrue())
			for i := 0; i < 5; i++ {
				Expect(c.Tick(1)).To(Succeed())
			}
			Expect(c.Field().Equal(uniformField(20, 10))).To(BeFalse())
		})

		It("discards history on Resize", func() {
			Expect(c.Resize(300, 150)).To(Succeed())
			Expect(c.Field().Equal(uniformField(30, 15))).To(BeTrue())
		})

		It("discards history on SetResolution", func() {
			Expect(c.SetResolution(5)).To(Succeed())
			Expect(c.Layout().Resolution).To(Equal(5))
			Expect(c.Field().Equal(uniformField(40, 20))).To(BeTrue())
		})

		It("reseeds even when the size does not change", func() {
			Expect(c.Resize(200, 100)).To(Succeed())
			Expect(c.Field().Equal(uniformField(20, 10))).To(BeTrue())
		})

		It("leaves the field untouched when the new layout is invalid", func() {
			before := c.Field().Clone()
			l := c.Layout()

			Expect(c.Resize(-1, 100)).To(MatchError(dynamo.ErrInvalidDimension))
			Expect(c.SetResolution(1000)).To(MatchError(dynamo.ErrInvalidDimension))
			Expect(c.Field().Equal(before)).To(BeTrue())
			Expect(c.Layout()).To(Equal(l))
		})
	})

	Describe("parameters", func() {
		It("applies presets without touching diffusion or sub-steps", func() {
			Expect(c.SetSubSteps(3)).To(Succeed())
			Expect(c.SelectPreset(1)).To(Succeed())

			p := c.Params()
			Expect(p.Feed).To(Equal(float32(0.078)))
			Expect(p.Kill).To(Equal(float32(0.061)))
			Expect(p.DiffU).To(Equal(float32(dynamo.DefaultDiffU)))
			Expect(p.SubSteps).To(Equal(3))

			idx, preset, ok := c.CurrentPreset()
			Expect(ok).To(BeTrue())
			Expect(idx).To(Equal(1))
			Expect(preset.Name).To(Equal("Worms"))
		})

		It("rejects preset indices outside the catalog", func() {
			before := c.Params()
			Expect(c.SelectPreset(6)).To(MatchError(dynamo.ErrIndexOutOfRange))
			Expect(c.SelectPreset(-1)).To(MatchError(dynamo.ErrIndexOutOfRange))
			Expect(c.Params()).To(Equal(before))
		})

		It("clears the preset when F and k are set directly", func() {
			Expect(c.SelectPreset(2)).To(Succeed())
			Expect(c.SetParameters(0.03, 0.055)).To(Succeed())
			_, _, ok := c.CurrentPreset()
			Expect(ok).To(BeFalse())
			Expect(c.Params().Feed).To(Equal(float32(0.03)))
		})

		It("keeps the field when parameters change", func() {
			Expect(c.Initialize(100, 100, 10)).To(Succeed())
			c.Perturb(5, 95)
			before := c.Field().Clone()
			Expect(c.SetParameters(0.05, 0.06)).To(Succeed())
			Expect(c.SelectPreset(3)).To(Succeed())
			Expect(c.Field().Equal(before)).To(BeTrue())
		})

		It("rejects negative rates and sub-step counts", func() {
			Expect(c.SetParameters(-0.1, 0.06)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(c.SetSubSteps(0)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(c.SubSteps()).To(Equal(dynamo.DefaultSubSteps))
		})
	})

	Describe("ticking", func() {
		BeforeEach(func() {
			Expect(c.Initialize(160, 160, 10)).To(Succeed())
		})

		It("keeps the uniform baseline fixed", func() {
			for i := 0; i < 20; i++ {
				Expect(c.Tick(1)).To(Succeed())
			}
			Expect(c.Field().Equal(uniformField(16, 16))).To(BeTrue())
			Expect(c.Ticks()).To(Equal(20))
		})

		It("rejects a non-positive dt", func() {
			Expect(c.Tick(0)).To(MatchError(dynamo.ErrInvalidTimestep))
			Expect(c.Tick(-1)).To(MatchError(dynamo.ErrInvalidTimestep))
			Expect(c.Ticks()).To(BeZero())
		})

		It("notifies observers after each tick", func() {
			var seen []int
			c.AddObserver(sim.ObserverFunc(func(f *dynamo.Field, tick int) {
				Expect(f).To(BeIdenticalTo(c.Field()))
				seen = append(seen, tick)
			}))
			Expect(c.Tick(1)).To(Succeed())
			Expect(c.Tick(1)).To(Succeed())
			Expect(seen).To(Equal([]int{1, 2}))
		})

		It("runs SubSteps integrator steps per tick", func() {
			one, err := sim.New(dynamo.DefaultParams(), sim.WithSeed(centerSeed))
			Expect(err).NotTo(HaveOccurred())
			Expect(one.SetSubSteps(1)).To(Succeed())
			Expect(one.Initialize(160, 160, 10)).To(Succeed())

			four, err := sim.New(dynamo.DefaultParams(), sim.WithSeed(centerSeed))
			Expect(err).NotTo(HaveOccurred())
			Expect(four.SetSubSteps(4)).To(Succeed())
			Expect(four.Initialize(160, 160, 10)).To(Succeed())

			for i := 0; i < 4; i++ {
				Expect(one.Tick(1)).To(Succeed())
			}
			Expect(four.Tick(1)).To(Succeed())
			Expect(four.Field().Equal(one.Field())).To(BeTrue())
		})
	})

	Describe("validation", func() {
		It("reports NaN with the tick it appeared on", func() {
			v, err := sim.New(dynamo.DefaultParams(), sim.WithValidation(true))
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Initialize(100, 100, 10)).To(Succeed())
			Expect(v.Tick(1)).To(Succeed())

			err = v.Tick(float32(math.Inf(1)))
			Expect(err).To(MatchError(dynamo.ErrUnstable))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Tick).To(Equal(2))
			Expect(simErr.SubStep).To(Equal(dynamo.DefaultSubSteps - 1))
		})

		It("lets NaN through when validation is off", func() {
			Expect(c.Initialize(100, 100, 10)).To(Succeed())
			Expect(c.Tick(float32(math.Inf(1)))).To(Succeed())
			Expect(c.Field().IsValid()).To(BeFalse())
		})
	})

	Describe("seeding", func() {
		It("fills a center patch when configured", func() {
			s, err := sim.New(dynamo.DefaultParams(), sim.WithSeed(centerSeed))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Initialize(200, 200, 10)).To(Succeed())

			u, v := s.Field().At(10, 10)
			Expect(u).To(Equal(float32(config.DefaultCenterU)))
			Expect(v).To(Equal(float32(config.DefaultCenterV)))
			u, v = s.Field().At(0, 0)
			Expect(u).To(Equal(float32(1)))
			Expect(v).To(BeZero())
		})

		It("reseeds on Reset without changing the layout", func() {
			Expect(c.Initialize(200, 200, 10)).To(Succeed())
			c.Perturb(105, 95)
			Expect(c.Tick(1)).To(Succeed())
			l := c.Layout()

			Expect(c.Reset()).To(Succeed())
			Expect(c.Layout()).To(Equal(l))
			Expect(c.Field().Equal(uniformField(20, 20))).To(BeTrue())
		})
	})

	Describe("perturbation on the sequential path", func() {
		BeforeEach(func() {
			Expect(c.Initialize(200, 100, 10)).To(Succeed())
		})

		It("maps window coordinates with a flipped Y axis", func() {
			Expect(c.Perturb(15, 100-25)).To(BeTrue())
			_, v := c.Field().At(1, 2)
			Expect(v).To(Equal(float32(1)))
		})

		It("ignores points outside the grid", func() {
			before := c.Field().Clone()
			Expect(c.Perturb(-1, 50)).To(BeFalse())
			Expect(c.Perturb(250, 50)).To(BeFalse())
			Expect(c.Perturb(50, 101)).To(BeFalse())
			Expect(c.Field().Equal(before)).To(BeTrue())
		})
	})

	Describe("parallel executor", func() {
		var p *sim.Controller

		BeforeEach(func() {
			var err error
			p, err = sim.New(dynamo.DefaultParams(),
				sim.WithBackend(compute.NewCPUBackend()),
				sim.WithSeed(centerSeed))
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Initialize(320, 240, 10)).To(Succeed())
		})

		AfterEach(func() { p.Close() })

		It("matches the sequential path", func() {
			s, err := sim.New(dynamo.DefaultParams(), sim.WithSeed(centerSeed))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Initialize(320, 240, 10)).To(Succeed())

			for i := 0; i < 10; i++ {
				Expect(p.Tick(1)).To(Succeed())
				Expect(s.Tick(1)).To(Succeed())
			}
			Expect(p.BackendName()).To(Equal(compute.BackendParallel))
			Expect(p.Field().Equal(s.Field())).To(BeTrue())
		})

		It("carries a perturbation into the next tick only", func() {
			Expect(p.Perturb(15, 240-25)).To(BeTrue())
			_, v := p.Field().At(1, 2)
			Expect(v).To(BeZero())

			Expect(p.Tick(1)).To(Succeed())
			_, v = p.Field().At(1, 2)
			Expect(v).To(Equal(float32(1)))

			Expect(p.Tick(1)).To(Succeed())
			_, v = p.Field().At(1, 2)
			Expect(v).NotTo(Equal(float32(1)))
		})

		It("reloads the executor after Reset and Resize", func() {
			Expect(p.Tick(1)).To(Succeed())
			Expect(p.Reset()).To(Succeed())
			Expect(p.Tick(1)).To(Succeed())

			s, err := sim.New(dynamo.DefaultParams(), sim.WithSeed(centerSeed))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Initialize(320, 240, 10)).To(Succeed())
			Expect(s.Tick(1)).To(Succeed())
			Expect(p.Field().Equal(s.Field())).To(BeTrue())

			Expect(p.Resize(100, 100)).To(Succeed())
			Expect(p.Tick(1)).To(Succeed())
			Expect(p.Field().W).To(Equal(10))
		})

		It("keeps the field across backend switches", func() {
			Expect(p.Tick(1)).To(Succeed())
			before := p.Field().Clone()

			Expect(p.SetBackend(nil)).To(Succeed())
			Expect(p.BackendName()).To(Equal(compute.BackendCPU))
			Expect(p.Field().Equal(before)).To(BeTrue())

			Expect(p.SetBackend(compute.NewCPUBackend())).To(Succeed())
			Expect(p.Tick(1)).To(Succeed())
			Expect(p.Field().Equal(before)).To(BeFalse())
		})

		It("refuses an unavailable executor", func() {
			Expect(p.SetBackend(compute.NewOpenGLBackend())).To(MatchError(dynamo.ErrBackendUnavailable))
			Expect(p.BackendName()).To(Equal(compute.BackendParallel))
		})
	})
})
