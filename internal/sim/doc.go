// Package sim drives a reaction-diffusion field one tick at a time.
//
// A Controller owns the field, its layout and the reaction parameters. The host
// calls Initialize once, then Tick every frame and the mutators (Resize,
// SetParameters, SelectPreset, Reset, Perturb) on input events. Sub-steps run on
// the sequential integrator unless an executor is attached with SetBackend.
//
// The controller performs no internal synchronization: every call must come
// from the same goroutine, and the field must not be read while Tick runs.
package sim
