// Package sphere implements spherical-harmonic transforms on a Gaussian
// grid with triangular truncation.
//
// Longitudinal transforms use gonum's real FFT and latitudinal transforms
// use Gauss-Legendre quadrature against normalized associated Legendre
// functions (∫₋₁¹ P̄ₙᵐ² dμ = 1). Grid fields are nlat×nlon matrices with
// rows ordered north to south.
package sphere
