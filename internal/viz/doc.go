// Package viz is a terminal host for the reaction-diffusion controller.
//
// The field is drawn one grid cell per character with a shade ramp, or in
// braille mode with 2x4 cells per character. Clicking or dragging with the
// left button perturbs the cell under the pointer.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset the field
//	1-6   - Select preset
//	+/-   - Steps per tick
//	B     - Cycle backend (cpu, parallel)
//	P     - Toggle profiler panel
//	V     - Toggle shade/braille view
//	T     - Cycle color themes
//	Q     - Quit
package viz
