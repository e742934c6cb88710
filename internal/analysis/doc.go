// Package analysis provides spectral and predictability diagnostics for
// the barotropic model.
//
//   - [EnstrophySpectrum] and [EnergySpectrum]: distribution over total
//     wavenumber n
//   - [ZonalSpectrum]: power per zonal wavenumber of a grid field
//   - [PerturbationGrowth]: twin-run estimate of the error growth rate
//
// # Error Growth
//
// A positive growth rate means small initial errors amplify:
//
//	rate, err := analysis.PerturbationGrowth(ctx, cfg, vrt, pert, 1e-3, 720, 36)
//	doubling := math.Ln2 / rate
package analysis
