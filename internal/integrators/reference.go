package integrators

import (
	"math"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// Reference evaluates one step of the update law in double precision. It
// materializes the previous generation before writing anything and is used to
// validate the float32 paths.
func Reference(src *dynamo.Field, p dynamo.Params, dt float64) (u, v []float64) {
	w, h := src.W, src.H
	n := w * h

	prevU := make([]float64, n)
	prevV := make([]float64, n)
	for i := 0; i < n; i++ {
		prevU[i] = float64(src.U[i])
		prevV[i] = float64(src.V[i])
	}

	F, k := float64(p.Feed), float64(p.Kill)
	Du, Dv := float64(p.DiffU), float64(p.DiffV)
	at := func(c []float64, x, y int) float64 {
		return c[dynamo.Wrap(y, h)*w+dynamo.Wrap(x, w)]
	}

	u = make([]float64, n)
	v = make([]float64, n)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			uc, vc := at(prevU, x, y), at(prevV, x, y)
			laplU := at(prevU, x-1, y) + at(prevU, x+1, y) + at(prevU, x, y-1) + at(prevU, x, y+1) - 4*uc
			laplV := at(prevV, x-1, y) + at(prevV, x+1, y) + at(prevV, x, y-1) + at(prevV, x, y+1) - 4*vc

			du := -(uc * vc * vc) + F*(1-uc) + Du*laplU
			dv := (uc * vc * vc) - (F+k)*vc + Dv*laplV

			i := y*w + x
			u[i] = math.Max(uc+du*dt, 0)
			v[i] = math.Max(vc+dv*dt, 0)
		}
	}
	return u, v
}
