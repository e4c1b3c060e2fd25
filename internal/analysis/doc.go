// Package analysis inspects reaction-diffusion fields.
//
//   - [RadialSpectrum]: azimuthally averaged power spectrum of the v channel
//   - [DominantWavelength]: characteristic pattern length in cells
//   - [MaxRelativeError]: worst cell-wise deviation between two evaluations
//
// Mazes and worms have a well defined wavelength; compare it across presets:
//
//	lambda, ok := analysis.DominantWavelength(ctrl.Field())
//	if ok {
//	    fmt.Printf("wavelength %.1f cells\n", lambda)
//	}
package analysis
