package sim

import (
	"log/slog"

	"github.com/san-kum/rdsim/internal/compute"
	"github.com/san-kum/rdsim/internal/config"
	"github.com/san-kum/rdsim/internal/dynamo"
)

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSeed selects the fill applied by Initialize, Resize and Reset.
func WithSeed(s config.SeedConfig) Option {
	return func(c *Controller) { c.seed = s }
}

// WithBackend attaches an executor. Nil keeps the sequential integrator.
func WithBackend(b compute.Backend) Option {
	return func(c *Controller) { c.backend = b }
}

// WithValidation enables the NaN/Inf check after every tick.
func WithValidation(on bool) Option {
	return func(c *Controller) { c.validate = on }
}

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// WithIntegrator replaces the sequential integrator.
func WithIntegrator(in dynamo.Integrator) Option {
	return func(c *Controller) { c.integrator = in }
}
