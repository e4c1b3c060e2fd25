// Package compute provides the parallel executors of the reaction-diffusion update.
//
// An executor owns a ping-pong pair of buffers and applies the same update law
// as [integrators.Euler] to every cell at once:
//
//   - parallel: goroutine fork-join over row bands ([CPUBackend])
//   - gl: fragment shader over two RG32F textures ([OpenGLBackend], build tag gl)
//
// The sequential "cpu" path has no executor; the controller runs the integrator
// itself.
//
// # Perturbation
//
// Executors never expose their buffers for CPU-side writes. A pointer gesture is
// passed as a per-step [Pointer] uniform and applied inside the kernel.
//
// Build with OpenGL support (a GL context must be current when Init runs):
//
//	go build -tags gl ./cmd/rdsim
package compute
