// Package metrics summarizes fields and times frames.
package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// CoverageThreshold is the v level above which a cell counts as patterned.
const CoverageThreshold = 0.1

type Stats struct {
	MeanU, MinU float64
	MeanV, MaxV float64
	StdV        float64
	// Coverage is the fraction of cells with v above CoverageThreshold.
	Coverage float64
}

func Measure(f *dynamo.Field) Stats {
	if f == nil || f.Len() == 0 {
		return Stats{}
	}
	u := widen(f.U)
	v := widen(f.V)

	meanV, stdV := stat.PopMeanStdDev(v, nil)

	covered := 0
	for _, x := range v {
		if x > CoverageThreshold {
			covered++
		}
	}

	return Stats{
		MeanU:    stat.Mean(u, nil),
		MinU:     floats.Min(u),
		MeanV:    meanV,
		MaxV:     floats.Max(v),
		StdV:     stdV,
		Coverage: float64(covered) / float64(len(v)),
	}
}

func widen(xs []float32) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
