package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestNewField(t *testing.T) {
	f, err := NewField(4, 3)
	if err != nil {
		t.Fatalf("NewField failed: %v", err)
	}
	if len(f.U) != 12 || len(f.V) != 12 {
		t.Errorf("expected 12 cells, got u=%d v=%d", len(f.U), len(f.V))
	}
	for i := range f.U {
		if f.U[i] != 0 || f.V[i] != 0 {
			t.Fatal("new field is not zeroed")
		}
	}
}

func TestNewField_InvalidDimension(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 10},
		{"zero height", 10, 0},
		{"negative width", -1, 10},
		{"negative height", 10, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewField(tt.w, tt.h)
			if !errors.Is(err, ErrInvalidDimension) {
				t.Errorf("expected ErrInvalidDimension, got %v", err)
			}
		})
	}
}

func TestSeedUniform(t *testing.T) {
	f, _ := NewField(5, 5)
	f.SeedUniform(1, 0.25)
	for i := range f.U {
		if f.U[i] != 1 || f.V[i] != 0.25 {
			t.Fatalf("cell %d = (%v, %v), want (1, 0.25)", i, f.U[i], f.V[i])
		}
	}
}

func TestSeedCenterPatch(t *testing.T) {
	f, _ := NewField(11, 9)
	f.SeedUniform(1, 0)
	f.SeedCenterPatch(0.5, 1.2, 1)

	patched := 0
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			u, v := f.At(x, y)
			inside := x >= 4 && x <= 6 && y >= 3 && y <= 5
			if inside {
				patched++
				if u != 0.5 || v != 1.2 {
					t.Errorf("(%d,%d) = (%v,%v), want patch values", x, y, u, v)
				}
			} else if u != 1 || v != 0 {
				t.Errorf("(%d,%d) = (%v,%v), want baseline", x, y, u, v)
			}
		}
	}
	if patched != 9 {
		t.Errorf("expected 9 patched cells, got %d", patched)
	}
}

func TestSeedCenterPatch_Clipped(t *testing.T) {
	f, _ := NewField(3, 3)
	f.SeedCenterPatch(0.5, 1, 10)
	for i := range f.V {
		if f.V[i] != 1 {
			t.Fatalf("cell %d not covered by oversized patch", i)
		}
	}
}

func TestAtSet(t *testing.T) {
	f, _ := NewField(4, 4)
	f.Set(3, 2, 0.7, 0.3)
	u, v := f.At(3, 2)
	if u != 0.7 || v != 0.3 {
		t.Errorf("At(3,2) = (%v,%v)", u, v)
	}
	if got := f.Index(3, 2); got != 11 {
		t.Errorf("Index(3,2) = %d, want 11", got)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct{ n, m, want int }{
		{-1, 10, 9},
		{10, 10, 0},
		{0, 10, 0},
		{-11, 10, 9},
		{23, 10, 3},
	}
	for _, tt := range tests {
		if got := Wrap(tt.n, tt.m); got != tt.want {
			t.Errorf("Wrap(%d,%d) = %d, want %d", tt.n, tt.m, got, tt.want)
		}
	}
}

func TestCloneEqual(t *testing.T) {
	f, _ := NewField(3, 2)
	f.SeedUniform(1, 0)
	c := f.Clone()
	if !f.Equal(c) {
		t.Fatal("clone differs from original")
	}
	c.V[0] = 1
	if f.Equal(c) {
		t.Error("mutating clone changed equality")
	}
	if f.V[0] != 0 {
		t.Error("clone shares storage with original")
	}
}

func TestCopyFrom_Mismatch(t *testing.T) {
	a, _ := NewField(3, 3)
	b, _ := NewField(4, 3)
	if err := a.CopyFrom(b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestIsValid(t *testing.T) {
	f, _ := NewField(2, 2)
	if !f.IsValid() {
		t.Error("zero field reported invalid")
	}
	f.U[1] = float32(math.Inf(1))
	if f.IsValid() {
		t.Error("Inf not detected")
	}
	f.U[1] = 0
	f.V[3] = float32(math.NaN())
	if f.IsValid() {
		t.Error("NaN not detected")
	}
}

func TestPingPong(t *testing.T) {
	p, err := NewPingPong(4, 4)
	if err != nil {
		t.Fatalf("NewPingPong failed: %v", err)
	}
	if p.Src == p.Dst {
		t.Fatal("source and destination alias")
	}
	src := p.Src
	p.Swap()
	if p.Dst != src {
		t.Error("swap did not exchange buffers")
	}

	f, _ := NewField(6, 2)
	f.SeedUniform(1, 0.5)
	if err := p.Load(f); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Src.W != 6 || p.Dst.W != 6 || p.Dst.H != 2 {
		t.Error("Load did not reallocate both buffers")
	}
	if !p.Src.Equal(f) {
		t.Error("Load did not copy the field")
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}

	p := DefaultParams()
	p.SubSteps = 0
	if !errors.Is(p.Validate(), ErrParameterBounds) {
		t.Error("zero sub-steps accepted")
	}

	p = DefaultParams()
	p.Feed = -0.01
	if !errors.Is(p.Validate(), ErrParameterBounds) {
		t.Error("negative feed accepted")
	}

	for _, zero := range []func(*Params){
		func(p *Params) { p.Feed = 0 },
		func(p *Params) { p.Kill = 0 },
		func(p *Params) { p.DiffU = 0 },
		func(p *Params) { p.DiffV = 0 },
	} {
		p = DefaultParams()
		zero(&p)
		if !errors.Is(p.Validate(), ErrParameterBounds) {
			t.Errorf("zero rate accepted: %+v", p)
		}
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		hits := make([]int32, n)
		ParallelFor(n, 4, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d index %d visited %d times", n, i, h)
			}
		}
	}
}
