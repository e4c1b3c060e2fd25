package integrators

import (
	"testing"

	"github.com/san-kum/rdsim/internal/dynamo"
)

func benchmarkEuler(b *testing.B, w, h int) {
	integ := NewEuler()
	p := dynamo.DefaultParams()
	pp, _ := dynamo.NewPingPong(w, h)
	pp.Src.SeedUniform(1, 0)
	pp.Src.SeedCenterPatch(0.5, 1, 5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = integ.Step(pp.Src, pp.Dst, p, 1.0)
		pp.Swap()
	}
}

func BenchmarkEuler_64(b *testing.B)  { benchmarkEuler(b, 64, 64) }
func BenchmarkEuler_192(b *testing.B) { benchmarkEuler(b, 192, 108) }
func BenchmarkEuler_512(b *testing.B) { benchmarkEuler(b, 512, 512) }

func BenchmarkReference_192(b *testing.B) {
	f, _ := dynamo.NewField(192, 108)
	f.SeedUniform(1, 0)
	p := dynamo.DefaultParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Reference(f, p, 1.0)
	}
}
