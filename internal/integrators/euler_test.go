package integrators

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/rdsim/internal/dynamo"
)

func newField(t testing.TB, w, h int) *dynamo.Field {
	t.Helper()
	f, err := dynamo.NewField(w, h)
	if err != nil {
		t.Fatalf("NewField(%d,%d): %v", w, h, err)
	}
	return f
}

func randomField(t testing.TB, w, h int, seed int64) *dynamo.Field {
	f := newField(t, w, h)
	rng := rand.New(rand.NewSource(seed))
	for i := range f.U {
		f.U[i] = rng.Float32()
		f.V[i] = rng.Float32() * 0.5
	}
	return f
}

func relErr(got float32, want float64) float64 {
	return math.Abs(float64(got)-want) / math.Max(1, math.Abs(want))
}

func TestEulerUniformFixedPoint(t *testing.T) {
	integ := NewEuler()
	tests := []struct {
		name string
		f, k float32
	}{
		{"mazes", 0.037, 0.060},
		{"worms", 0.078, 0.061},
		{"low", 0.01, 0.04},
		{"high", 0.09, 0.07},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := dynamo.DefaultParams()
			p.Feed, p.Kill = tt.f, tt.k

			pp, _ := dynamo.NewPingPong(16, 12)
			pp.Src.SeedUniform(1, 0)
			want := pp.Src.Clone()

			for i := 0; i < 50; i++ {
				if err := integ.Step(pp.Src, pp.Dst, p, 1.0); err != nil {
					t.Fatalf("step %d: %v", i, err)
				}
				pp.Swap()
			}
			if !pp.Src.Equal(want) {
				t.Error("uniform (1,0) field changed under integration")
			}
		})
	}
}

func TestEulerNonNegative(t *testing.T) {
	integ := NewEuler()
	p := dynamo.DefaultParams()
	pp, _ := dynamo.NewPingPong(32, 32)
	if err := pp.Load(randomField(t, 32, 32, 7)); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 300; i++ {
		if err := integ.Step(pp.Src, pp.Dst, p, 1.0); err != nil {
			t.Fatal(err)
		}
		pp.Swap()
		for j := range pp.Src.U {
			if pp.Src.U[j] < 0 || pp.Src.V[j] < 0 {
				t.Fatalf("step %d cell %d negative: (%v,%v)", i, j, pp.Src.U[j], pp.Src.V[j])
			}
		}
	}
}

func TestEulerClampsAtZero(t *testing.T) {
	src := newField(t, 3, 3)
	src.SeedUniform(1, 0)
	src.Set(1, 1, 1, 5)
	dst := newField(t, 3, 3)

	if err := NewEuler().Step(src, dst, dynamo.DefaultParams(), 1.0); err != nil {
		t.Fatal(err)
	}
	if u, _ := dst.At(1, 1); u != 0 {
		t.Errorf("expected u clamped to 0, got %v", u)
	}
}

func TestEulerToroidalWrap(t *testing.T) {
	p := dynamo.DefaultParams()
	src := newField(t, 10, 10)
	src.SeedUniform(1, 0)
	src.Set(0, 0, 0.5, 0.9)
	src.Set(9, 0, 0.8, 0.1)
	src.Set(1, 0, 0.7, 0.2)
	src.Set(0, 9, 0.6, 0.3)
	src.Set(0, 1, 0.4, 0.4)

	dst := newField(t, 10, 10)
	if err := NewEuler().Step(src, dst, p, 1.0); err != nil {
		t.Fatal(err)
	}

	F, k := float64(p.Feed), float64(p.Kill)
	Du, Dv := float64(p.DiffU), float64(p.DiffV)
	u, v := 0.5, 0.9
	laplU := 0.8 + 0.7 + 0.6 + 0.4 - 4*u
	laplV := 0.1 + 0.2 + 0.3 + 0.4 - 4*v
	wantU := math.Max(u+(-(u*v*v)+F*(1-u)+Du*laplU), 0)
	wantV := math.Max(v+((u*v*v)-(F+k)*v+Dv*laplV), 0)

	gotU, gotV := dst.At(0, 0)
	if relErr(gotU, wantU) > 1e-5 || relErr(gotV, wantV) > 1e-5 {
		t.Errorf("(0,0) = (%v,%v), want (%v,%v)", gotU, gotV, wantU, wantV)
	}

	// The diagonal (9,9) is not part of the 5-point stencil.
	src.Set(9, 9, 0.1, 0.8)
	again := newField(t, 10, 10)
	if err := NewEuler().Step(src, again, p, 1.0); err != nil {
		t.Fatal(err)
	}
	if u2, v2 := again.At(0, 0); u2 != gotU || v2 != gotV {
		t.Error("diagonal neighbor influenced (0,0)")
	}
}

func TestEulerDoubleBufferIsolation(t *testing.T) {
	p := dynamo.DefaultParams()
	src := newField(t, 8, 8)
	src.SeedUniform(1, 0)
	src.Set(3, 4, 0.5, 0.8)
	src.Set(4, 4, 0.3, 0.6)
	before := src.Clone()

	dst := newField(t, 8, 8)
	if err := NewEuler().Step(src, dst, p, 1.0); err != nil {
		t.Fatal(err)
	}
	if !src.Equal(before) {
		t.Fatal("integrator wrote into its source buffer")
	}

	wantU, wantV := Reference(before, p, 1.0)
	for i := range dst.U {
		if relErr(dst.U[i], wantU[i]) > 1e-5 || relErr(dst.V[i], wantV[i]) > 1e-5 {
			t.Fatalf("cell %d = (%v,%v), want (%v,%v)", i, dst.U[i], dst.V[i], wantU[i], wantV[i])
		}
	}
}

func TestEulerMatchesReference(t *testing.T) {
	p := dynamo.DefaultParams()
	for _, seed := range []int64{1, 2, 3} {
		src := randomField(t, 24, 17, seed)
		dst := newField(t, 24, 17)
		if err := NewEuler().Step(src, dst, p, 1.0); err != nil {
			t.Fatal(err)
		}
		wantU, wantV := Reference(src, p, 1.0)
		for i := range dst.U {
			if e := relErr(dst.U[i], wantU[i]); e > 1e-4 {
				t.Fatalf("seed %d u[%d] relative error %g", seed, i, e)
			}
			if e := relErr(dst.V[i], wantV[i]); e > 1e-4 {
				t.Fatalf("seed %d v[%d] relative error %g", seed, i, e)
			}
		}
	}
}

func TestEulerInvalidInput(t *testing.T) {
	integ := NewEuler()
	p := dynamo.DefaultParams()
	a := newField(t, 4, 4)
	b := newField(t, 4, 4)
	c := newField(t, 5, 4)

	tests := []struct {
		name     string
		src, dst *dynamo.Field
		dt       float32
		want     error
	}{
		{"zero dt", a, b, 0, dynamo.ErrInvalidTimestep},
		{"negative dt", a, b, -1, dynamo.ErrInvalidTimestep},
		{"NaN dt", a, b, float32(math.NaN()), dynamo.ErrInvalidTimestep},
		{"same buffer", a, a, 1, dynamo.ErrAliasedBuffers},
		{"size mismatch", a, c, 1, dynamo.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := integ.Step(tt.src, tt.dst, p, tt.dt); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
