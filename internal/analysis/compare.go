package analysis

import (
	"math"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// MaxRelativeError returns the largest |got-want| / max(1, |want|) and the
// index where it occurs. Slices of different length yield +Inf.
//
// The denominator is floored at 1, so the check is relative only where
// |want| > 1 and absolute elsewhere. Concentrations live in [0, 1] and v is
// near zero over most of a field, where a pure relative error is unbounded.
func MaxRelativeError(got []float32, want []float64) (float64, int) {
	if len(got) != len(want) {
		return math.Inf(1), -1
	}
	worst, at := 0.0, -1
	for i := range got {
		e := math.Abs(float64(got[i])-want[i]) / math.Max(1, math.Abs(want[i]))
		if e > worst || math.IsNaN(e) {
			worst, at = e, i
			if math.IsNaN(e) {
				break
			}
		}
	}
	return worst, at
}

// FieldError is the worst relative error over both channels of two fields.
func FieldError(got, want *dynamo.Field) float64 {
	if !got.SameSize(want) {
		return math.Inf(1)
	}
	eu, _ := MaxRelativeError(got.U, widen(want.U))
	ev, _ := MaxRelativeError(got.V, widen(want.V))
	return math.Max(eu, ev)
}

func widen(xs []float32) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
