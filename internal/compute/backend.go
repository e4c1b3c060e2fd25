package compute

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// Names accepted by New and by the backend configuration key. BackendCPU is the
// sequential integrator owned by the controller and has no executor.
const (
	BackendCPU      = "cpu"
	BackendParallel = "parallel"
	BackendGL       = "gl"
)

// Pointer is the in-kernel perturbation request: when Active, the executor sets
// v = 1.0 at cell (X, Y) after the update.
type Pointer struct {
	X, Y   int
	Active bool
}

// Uniforms are the per-sub-step inputs of an executor.
type Uniforms struct {
	Feed, Kill   float32
	DiffU, DiffV float32
	Dt           float32
	Pointer      Pointer
}

// NewUniforms projects reaction parameters, a time step and a pointer.
func NewUniforms(p dynamo.Params, dt float32, ptr Pointer) Uniforms {
	return Uniforms{
		Feed:    p.Feed,
		Kill:    p.Kill,
		DiffU:   p.DiffU,
		DiffV:   p.DiffV,
		Dt:      dt,
		Pointer: ptr,
	}
}

// Params converts the uniforms back into reaction parameters.
func (u Uniforms) Params() dynamo.Params {
	return dynamo.Params{Feed: u.Feed, Kill: u.Kill, DiffU: u.DiffU, DiffV: u.DiffV, SubSteps: 1}
}

// Backend is a parallel executor over a ping-pong pair of buffers. Each Step
// reads the source buffer, writes the destination buffer and swaps them; the
// same buffer is never read and written within one Step.
type Backend interface {
	Name() string
	Available() bool
	// Load uploads f into the source buffer, reallocating when its size changed.
	Load(f *dynamo.Field) error
	Step(u Uniforms) error
	// Store copies the current source buffer into f.
	Store(f *dynamo.Field) error
	Cleanup()
}

// New returns the executor registered under name. BackendCPU has no executor
// and yields (nil, nil).
func New(name string) (Backend, error) {
	switch name {
	case BackendCPU, "":
		return nil, nil
	case BackendParallel:
		return NewCPUBackend(), nil
	case BackendGL:
		gl := NewOpenGLBackend()
		if err := gl.Init(); err != nil {
			return nil, err
		}
		return gl, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", name)
	}
}

// Names lists the accepted backend names.
func Names() []string {
	return []string{BackendCPU, BackendParallel, BackendGL}
}
