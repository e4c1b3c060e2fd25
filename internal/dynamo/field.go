package dynamo

import (
	"fmt"
	"math"
)

// Field stores the u and v concentration grids in row-major order
// (index = y*W + x). Both slices always have length W*H.
type Field struct {
	W, H int
	U, V []float32
}

// NewField allocates zeroed grids of the given size.
func NewField(w, h int) (*Field, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("field %dx%d: %w", w, h, ErrInvalidDimension)
	}
	n := w * h
	return &Field{W: w, H: h, U: make([]float32, n), V: make([]float32, n)}, nil
}

// Len returns the number of cells.
func (f *Field) Len() int { return f.W * f.H }

// Index returns the linear slice index for coordinates (x, y). No wrapping is applied.
func (f *Field) Index(x, y int) int { return y*f.W + x }

// Wrap applies toroidal wrapping to the provided coordinates.
func (f *Field) Wrap(x, y int) (int, int) {
	return Wrap(x, f.W), Wrap(y, f.H)
}

// Wrap returns ((n mod m) + m) mod m.
func Wrap(n, m int) int {
	return (n%m + m) % m
}

// Contains reports whether (x, y) lies inside [0,W) x [0,H).
func (f *Field) Contains(x, y int) bool {
	return x >= 0 && x < f.W && y >= 0 && y < f.H
}

// At returns the concentrations at (x, y).
func (f *Field) At(x, y int) (u, v float32) {
	i := f.Index(x, y)
	return f.U[i], f.V[i]
}

// Set overwrites both concentrations at (x, y).
func (f *Field) Set(x, y int, u, v float32) {
	i := f.Index(x, y)
	f.U[i] = u
	f.V[i] = v
}

// SeedUniform fills every cell with (u0, v0).
func (f *Field) SeedUniform(u0, v0 float32) {
	for i := range f.U {
		f.U[i] = u0
		f.V[i] = v0
	}
}

// SeedCenterPatch overwrites the (2*halfSize+1)^2 square centered at
// (W/2, H/2) with (u1, v1). Cells falling outside the grid are skipped.
func (f *Field) SeedCenterPatch(u1, v1 float32, halfSize int) {
	if halfSize < 0 {
		return
	}
	cx, cy := f.W/2, f.H/2
	for y := cy - halfSize; y <= cy+halfSize; y++ {
		for x := cx - halfSize; x <= cx+halfSize; x++ {
			if f.Contains(x, y) {
				f.Set(x, y, u1, v1)
			}
		}
	}
}

// SameSize reports whether f and other have identical dimensions.
func (f *Field) SameSize(other *Field) bool {
	return other != nil && f.W == other.W && f.H == other.H
}

// CopyFrom copies src into f. Both fields must have the same size.
func (f *Field) CopyFrom(src *Field) error {
	if !f.SameSize(src) {
		return ErrDimensionMismatch
	}
	copy(f.U, src.U)
	copy(f.V, src.V)
	return nil
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := &Field{W: f.W, H: f.H, U: make([]float32, len(f.U)), V: make([]float32, len(f.V))}
	copy(c.U, f.U)
	copy(c.V, f.V)
	return c
}

// Equal reports whether both fields have the same size and identical values.
func (f *Field) Equal(other *Field) bool {
	if !f.SameSize(other) {
		return false
	}
	for i := range f.U {
		if f.U[i] != other.U[i] || f.V[i] != other.V[i] {
			return false
		}
	}
	return true
}

// IsValid reports whether every concentration is finite.
func (f *Field) IsValid() bool {
	for i := range f.U {
		u, v := float64(f.U[i]), float64(f.V[i])
		if math.IsNaN(u) || math.IsInf(u, 0) || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
