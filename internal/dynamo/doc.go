// Package dynamo provides the core primitives shared by the spectral
// barotropic model:
//
//   - [Spectral]: triangularly truncated spherical-harmonic coefficients
//   - [State]: current and previous vorticity plus the model clock
//   - [Transformer]: grid <-> spectral transform capability
//   - [System]: spectral tendency computer
//   - [Integrator]: time stepping scheme
//   - [Observer], [Metric]: per-step hooks and diagnostics
//
// # Example
//
//	eng, _ := sphere.New(21, 32, 64, sphere.EarthRadius)
//	sys, _ := physics.NewBarotropic(eng, physics.DefaultParams())
//	integ := integrators.NewLeapfrog(0.04)
//	st := dynamo.NewState(vrt)
//	err := integ.Step(sys, st, 1200)
//
// # Errors
//
// All failures are fatal and reported through the sentinel errors in
// errors.go; step failures are wrapped in [StepError].
//
// # Thread Safety
//
// A State has exactly one owner and one writer per step. Nothing in this
// package locks.
package dynamo
