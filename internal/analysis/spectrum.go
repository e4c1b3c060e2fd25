package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// RadialSpectrum returns the power of the mean-removed v channel binned by
// radial wavenumber. Bin r holds patterns of wavelength min(W,H)/r cells;
// bin 0 is always zero.
func RadialSpectrum(f *dynamo.Field) []float64 {
	if f == nil || f.Len() == 0 {
		return nil
	}
	w, h := f.W, f.H
	n := w
	if h < n {
		n = h
	}

	var mean float64
	for _, v := range f.V {
		mean += float64(v)
	}
	mean /= float64(f.Len())

	rows := make([][]float64, h)
	for y := range rows {
		row := make([]float64, w)
		for x := range row {
			row[x] = float64(f.V[f.Index(x, y)]) - mean
		}
		rows[y] = row
	}
	spec := fft.FFT2Real(rows)

	bins := make([]float64, n/2+1)
	counts := make([]int, len(bins))
	for y := 0; y < h; y++ {
		fy := float64(signedFreq(y, h)) / float64(h)
		for x := 0; x < w; x++ {
			fx := float64(signedFreq(x, w)) / float64(w)
			r := int(math.Round(math.Hypot(fx, fy) * float64(n)))
			if r == 0 || r >= len(bins) {
				continue
			}
			a := cmplx.Abs(spec[y][x])
			bins[r] += a * a
			counts[r]++
		}
	}
	for r := range bins {
		if counts[r] > 0 {
			bins[r] /= float64(counts[r])
		}
	}
	return bins
}

func signedFreq(k, n int) int {
	if k > n/2 {
		return k - n
	}
	return k
}

// DominantWavelength returns the wavelength in cells of the strongest
// spectral bin. It reports false for a featureless field.
func DominantWavelength(f *dynamo.Field) (float64, bool) {
	bins := RadialSpectrum(f)
	best, peak := 0, 0.0
	for r := 1; r < len(bins); r++ {
		if bins[r] > peak {
			best, peak = r, bins[r]
		}
	}
	if best == 0 || peak < 1e-12 {
		return 0, false
	}
	n := f.W
	if f.H < n {
		n = f.H
	}
	return float64(n) / float64(best), true
}
