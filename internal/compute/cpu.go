package compute

import (
	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/integrators"
)

// minRowsPerWorker keeps tiny grids on one goroutine.
const minRowsPerWorker = 8

// CPUBackend is a fork-join executor: every sub-step splits the rows across
// goroutines and waits for all of them before swapping buffers.
type CPUBackend struct {
	buf *dynamo.PingPong
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{}
}

func (c *CPUBackend) Name() string    { return BackendParallel }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        { c.buf = nil }

func (c *CPUBackend) Load(f *dynamo.Field) error {
	if c.buf == nil {
		buf, err := dynamo.NewPingPong(f.W, f.H)
		if err != nil {
			return err
		}
		c.buf = buf
	}
	return c.buf.Load(f)
}

func (c *CPUBackend) Step(u Uniforms) error {
	if c.buf == nil {
		return dynamo.ErrNotInitialized
	}
	src, dst := c.buf.Src, c.buf.Dst
	if err := integrators.CheckStep(src, dst, u.Dt); err != nil {
		return err
	}

	p := u.Params()
	dynamo.ParallelFor(src.H, minRowsPerWorker, func(y0, y1 int) {
		integrators.UpdateRows(src, dst, p, u.Dt, y0, y1)
	})

	if ptr := u.Pointer; ptr.Active && dst.Contains(ptr.X, ptr.Y) {
		dst.V[dst.Index(ptr.X, ptr.Y)] = dynamo.PerturbationV
	}

	c.buf.Swap()
	return nil
}

func (c *CPUBackend) Store(f *dynamo.Field) error {
	if c.buf == nil {
		return dynamo.ErrNotInitialized
	}
	return f.CopyFrom(c.buf.Src)
}
