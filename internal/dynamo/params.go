package dynamo

import (
	"fmt"
	"math"
)

const (
	DefaultFeed     = 0.037
	DefaultKill     = 0.060
	DefaultDiffU    = 0.16
	DefaultDiffV    = 0.08
	DefaultSubSteps = 8
	DefaultDt       = 1.0

	// BaselineU and BaselineV are the empty Gray-Scott steady state every reset seeds.
	BaselineU = 1.0
	BaselineV = 0.0

	// PerturbationV is written into v at a perturbed cell.
	PerturbationV = 1.0
)

// Params holds the reaction parameters of one simulation.
type Params struct {
	Feed     float32 // F
	Kill     float32 // k
	DiffU    float32 // Du
	DiffV    float32 // Dv
	SubSteps int     // integrator applications per tick
}

func DefaultParams() Params {
	return Params{
		Feed:     DefaultFeed,
		Kill:     DefaultKill,
		DiffU:    DefaultDiffU,
		DiffV:    DefaultDiffV,
		SubSteps: DefaultSubSteps,
	}
}

// Validate rejects rates that are not positive and finite, and a sub-step count
// below one. The usual UI ranges (F in [0.01, 0.09], k in [0.04, 0.07]) are not
// enforced.
func (p Params) Validate() error {
	for name, v := range map[string]float32{"feed": p.Feed, "kill": p.Kill, "diffusion_u": p.DiffU, "diffusion_v": p.DiffV} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return fmt.Errorf("%s=%v: %w", name, v, ErrParameterBounds)
		}
	}
	if p.SubSteps < 1 {
		return fmt.Errorf("steps per tick=%d: %w", p.SubSteps, ErrParameterBounds)
	}
	return nil
}

// Integrator advances src by one time step into dst. Implementations must read
// only src and write only dst.
type Integrator interface {
	Step(src, dst *Field, p Params, dt float32) error
}
