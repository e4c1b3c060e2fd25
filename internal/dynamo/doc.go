// Package dynamo provides the core state primitives of the reaction-diffusion engine.
//
// The package defines the data every other layer shares:
//
//   - [Field]: the two concentration grids (u, v) in row-major order
//   - [PingPong]: a source/destination pair of fields swapped after each sub-step
//   - [Params]: Gray-Scott feed/kill rates, diffusion coefficients and sub-step count
//   - [Integrator]: one discrete time step from a frozen source into a fresh destination
//
// # Example
//
//	f, err := dynamo.NewField(192, 108)
//	if err != nil {
//	    return err
//	}
//	f.SeedUniform(1, 0)
//
// # Thread Safety
//
// Fields are NOT thread-safe. Parallel executors may write disjoint rows of a
// destination field concurrently, but nothing may write a field that is being read.
package dynamo
