package compute

import (
	"testing"

	"github.com/san-kum/rdsim/internal/dynamo"
)

func benchmarkCPUBackend(b *testing.B, w, h int) {
	f, _ := dynamo.NewField(w, h)
	f.SeedUniform(1, 0)
	f.SeedCenterPatch(0.5, 1, 5)

	be := NewCPUBackend()
	_ = be.Load(f)
	u := NewUniforms(dynamo.DefaultParams(), 1.0, Pointer{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = be.Step(u)
	}
}

func BenchmarkCPUBackend_192(b *testing.B) { benchmarkCPUBackend(b, 192, 108) }
func BenchmarkCPUBackend_512(b *testing.B) { benchmarkCPUBackend(b, 512, 512) }
