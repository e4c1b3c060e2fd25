package integrators

import (
	"fmt"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// Euler advances a field with one forward-Euler step of the Gray-Scott
// equations, using a 5-point Laplacian on a toroidal grid. It is the
// sequential CPU path.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(src, dst *dynamo.Field, p dynamo.Params, dt float32) error {
	if err := CheckStep(src, dst, dt); err != nil {
		return err
	}
	UpdateRows(src, dst, p, dt, 0, src.H)
	return nil
}

// CheckStep validates the buffers and time step of one integrator application.
func CheckStep(src, dst *dynamo.Field, dt float32) error {
	if !(dt > 0) {
		return fmt.Errorf("dt=%v: %w", dt, dynamo.ErrInvalidTimestep)
	}
	if src == nil || dst == nil {
		return dynamo.ErrNotInitialized
	}
	if src == dst {
		return dynamo.ErrAliasedBuffers
	}
	if !src.SameSize(dst) {
		return fmt.Errorf("src %dx%d dst %dx%d: %w", src.W, src.H, dst.W, dst.H, dynamo.ErrDimensionMismatch)
	}
	return nil
}

// UpdateRows applies the update law to rows [y0, y1) of dst, reading only src.
// Disjoint row ranges may be computed concurrently.
func UpdateRows(src, dst *dynamo.Field, p dynamo.Params, dt float32, y0, y1 int) {
	w, h := src.W, src.H
	u, v := src.U, src.V
	feedKill := p.Feed + p.Kill

	for y := y0; y < y1; y++ {
		row := y * w
		down := dynamo.Wrap(y-1, h) * w
		up := dynamo.Wrap(y+1, h) * w

		for x := 0; x < w; x++ {
			left := dynamo.Wrap(x-1, w)
			right := dynamo.Wrap(x+1, w)
			i := row + x

			uc, vc := u[i], v[i]

			laplU := u[row+left] + u[row+right] + u[down+x] + u[up+x] - 4*uc
			laplV := v[row+left] + v[row+right] + v[down+x] + v[up+x] - 4*vc

			uvv := uc * vc * vc
			du := -uvv + p.Feed*(1-uc) + p.DiffU*laplU
			dv := uvv - feedKill*vc + p.DiffV*laplV

			nu := uc + du*dt
			if nu < 0 {
				nu = 0
			}
			nv := vc + dv*dt
			if nv < 0 {
				nv = 0
			}
			dst.U[i] = nu
			dst.V[i] = nv
		}
	}
}
