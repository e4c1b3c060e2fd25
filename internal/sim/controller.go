package sim

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/san-kum/rdsim/internal/compute"
	"github.com/san-kum/rdsim/internal/config"
	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/integrators"
	"github.com/san-kum/rdsim/internal/interaction"
	"github.com/san-kum/rdsim/internal/layout"
)

const customPreset = -1

type Controller struct {
	state  State
	layout layout.Layout
	params dynamo.Params
	preset int

	buf        *dynamo.PingPong
	integrator dynamo.Integrator

	// backend is nil on the sequential path. dirty means buf.Src changed
	// since the executor last loaded it.
	backend compute.Backend
	dirty   bool
	pending compute.Pointer

	seed      config.SeedConfig
	validate  bool
	ticks     int
	observers []Observer
	log       *slog.Logger
}

func New(params dynamo.Params, opts ...Option) (*Controller, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		params:     params,
		preset:     customPreset,
		integrator: integrators.NewEuler(),
		seed:       config.SeedConfig{Strategy: config.SeedUniform},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backend != nil && !c.backend.Available() {
		return nil, fmt.Errorf("backend %s: %w", c.backend.Name(), dynamo.ErrBackendUnavailable)
	}
	return c, nil
}

// Initialize computes the layout, allocates the field and seeds it.
func (c *Controller) Initialize(viewportW, viewportH, resolution int) error {
	l, err := layout.New(viewportW, viewportH, resolution)
	if err != nil {
		return err
	}
	if err := c.rebuild(l); err != nil {
		return err
	}
	c.state = StateReady
	c.log.Debug("initialized", "layout", l.String(), "backend", c.BackendName())
	return nil
}

// Resize recomputes the layout for a new viewport and reseeds the field. The
// previous concentrations are discarded.
func (c *Controller) Resize(viewportW, viewportH int) error {
	if c.state != StateReady {
		return dynamo.ErrNotInitialized
	}
	l, err := c.layout.WithViewport(viewportW, viewportH)
	if err != nil {
		return err
	}
	if err := c.rebuild(l); err != nil {
		return err
	}
	c.log.Debug("resized", "layout", l.String())
	return nil
}

// SetResolution changes the cell size and reseeds the field.
func (c *Controller) SetResolution(resolution int) error {
	if c.state != StateReady {
		return dynamo.ErrNotInitialized
	}
	l, err := c.layout.WithResolution(resolution)
	if err != nil {
		return err
	}
	if err := c.rebuild(l); err != nil {
		return err
	}
	c.log.Debug("resolution changed", "layout", l.String())
	return nil
}

// rebuild allocates a seeded field for l and only then replaces the current
// one, so a failure leaves the controller unchanged.
func (c *Controller) rebuild(l layout.Layout) error {
	buf, err := dynamo.NewPingPong(l.GridW, l.GridH)
	if err != nil {
		return err
	}
	c.seedField(buf.Src)
	c.buf = buf
	c.layout = l
	c.pending = compute.Pointer{}
	c.dirty = true
	return nil
}

func (c *Controller) seedField(f *dynamo.Field) {
	f.SeedUniform(dynamo.BaselineU, dynamo.BaselineV)
	if c.seed.Strategy == config.SeedCenter {
		f.SeedCenterPatch(c.seed.CenterU, c.seed.CenterV, c.seed.HalfSize)
	}
}

// Reset reseeds the field without touching layout or parameters.
func (c *Controller) Reset() error {
	if c.state != StateReady {
		return dynamo.ErrNotInitialized
	}
	c.seedField(c.buf.Src)
	c.pending = compute.Pointer{}
	c.dirty = true
	c.log.Debug("reset", "seed", c.seed.Strategy)
	return nil
}

// SetParameters replaces F and k. The field and diffusion rates are untouched.
func (c *Controller) SetParameters(feed, kill float32) error {
	next := c.params
	next.Feed, next.Kill = feed, kill
	if err := next.Validate(); err != nil {
		return err
	}
	c.params = next
	c.preset = customPreset
	return nil
}

func (c *Controller) SelectPreset(index int) error {
	next, err := config.SelectPreset(index, c.params)
	if err != nil {
		return err
	}
	c.params = next
	c.preset = index
	c.log.Debug("preset selected", "index", index, "feed", next.Feed, "kill", next.Kill)
	return nil
}

// CurrentPreset reports the preset last selected, or false once F or k were
// set directly.
func (c *Controller) CurrentPreset() (int, config.Preset, bool) {
	if c.preset == customPreset {
		return customPreset, config.Preset{}, false
	}
	p, _ := config.GetPreset(c.preset)
	return c.preset, p, true
}

// Tick applies SubSteps integrator steps of length dt, each reading the output
// of the previous one.
func (c *Controller) Tick(dt float32) error {
	if c.state != StateReady {
		return dynamo.ErrNotInitialized
	}
	if !(dt > 0) {
		return fmt.Errorf("tick dt=%v: %w", dt, dynamo.ErrInvalidTimestep)
	}

	var err error
	if c.backend == nil {
		err = c.stepSequential(dt)
	} else {
		err = c.stepBackend(dt)
	}
	if err != nil {
		return err
	}
	c.ticks++

	if c.validate && !c.buf.Src.IsValid() {
		return &dynamo.SimulationError{Tick: c.ticks, SubStep: c.params.SubSteps - 1, Wrapped: dynamo.ErrUnstable}
	}
	for _, o := range c.observers {
		o.OnTick(c.buf.Src, c.ticks)
	}
	return nil
}

func (c *Controller) stepSequential(dt float32) error {
	for i := 0; i < c.params.SubSteps; i++ {
		if err := c.integrator.Step(c.buf.Src, c.buf.Dst, c.params, dt); err != nil {
			return &dynamo.SimulationError{Tick: c.ticks, SubStep: i, Wrapped: err}
		}
		c.buf.Swap()
	}
	return nil
}

func (c *Controller) stepBackend(dt float32) error {
	if c.dirty {
		if err := c.backend.Load(c.buf.Src); err != nil {
			return fmt.Errorf("load %s: %w", c.backend.Name(), err)
		}
		c.dirty = false
	}
	u := compute.NewUniforms(c.params, dt, c.pending)
	for i := 0; i < c.params.SubSteps; i++ {
		if err := c.backend.Step(u); err != nil {
			return &dynamo.SimulationError{Tick: c.ticks, SubStep: i, Wrapped: err}
		}
	}
	c.pending = compute.Pointer{}
	if err := c.backend.Store(c.buf.Src); err != nil {
		return fmt.Errorf("store %s: %w", c.backend.Name(), err)
	}
	return nil
}

// Perturb seeds v at the cell under a window-space pointer. On the sequential
// path the field is written at once; with an executor the cell is carried into
// every sub-step of the next tick. Points outside the grid are ignored and
// Perturb reports false.
func (c *Controller) Perturb(windowX, windowY float64) bool {
	if c.state != StateReady {
		return false
	}
	cell, ok := interaction.MapPointerToCell(windowX, windowY, c.layout)
	if !ok {
		return false
	}
	if c.backend == nil {
		return interaction.ApplyPerturbation(c.buf.Src, cell)
	}
	c.pending = compute.Pointer{X: cell.X, Y: cell.Y, Active: true}
	return true
}

// SetBackend switches executors. Nil selects the sequential integrator. The
// previous executor is cleaned up and the field carries over.
func (c *Controller) SetBackend(b compute.Backend) error {
	if b != nil && !b.Available() {
		return fmt.Errorf("backend %s: %w", b.Name(), dynamo.ErrBackendUnavailable)
	}
	if c.backend != nil && c.backend != b {
		c.backend.Cleanup()
	}
	c.backend = b
	c.pending = compute.Pointer{}
	c.dirty = true
	c.log.Debug("backend switched", "backend", c.BackendName())
	return nil
}

func (c *Controller) BackendName() string {
	if c.backend == nil {
		return compute.BackendCPU
	}
	return c.backend.Name()
}

// Close releases the executor, if any.
func (c *Controller) Close() {
	if c.backend != nil {
		c.backend.Cleanup()
		c.backend = nil
	}
}

func (c *Controller) State() State          { return c.state }
func (c *Controller) Layout() layout.Layout { return c.layout }
func (c *Controller) Params() dynamo.Params { return c.params }
func (c *Controller) Ticks() int            { return c.ticks }
func (c *Controller) SubSteps() int         { return c.params.SubSteps }

// Field is the current generation. Callers must treat it as read-only and must
// not hold it across Resize or SetResolution. Nil before Initialize.
func (c *Controller) Field() *dynamo.Field {
	if c.buf == nil {
		return nil
	}
	return c.buf.Src
}

func (c *Controller) SetSubSteps(n int) error {
	if n < 1 {
		return fmt.Errorf("steps per tick %d: %w", n, dynamo.ErrParameterBounds)
	}
	c.params.SubSteps = n
	return nil
}

func (c *Controller) AddObserver(o Observer) { c.observers = append(c.observers, o) }
