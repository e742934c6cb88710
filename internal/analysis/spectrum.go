package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/dynamo"
)

// EnstrophySpectrum returns Z(n), the enstrophy carried by total
// wavenumber n for n = 0..T. The entries sum to the global enstrophy ½⟨ζ²⟩.
func EnstrophySpectrum(vrt dynamo.Spectral) []float64 {
	spec := make([]float64, vrt.Trunc+1)
	for m := 0; m <= vrt.Trunc; m++ {
		w := 2.0
		if m == 0 {
			w = 1.0
		}
		for n := m; n <= vrt.Trunc; n++ {
			c := vrt.At(m, n)
			spec[n] += w * (real(c)*real(c) + imag(c)*imag(c)) / 4
		}
	}
	return spec
}

// EnergySpectrum returns E(n) = a²Z(n)/(n(n+1)). E(0) is always zero.
func EnergySpectrum(vrt dynamo.Spectral, radius float64) []float64 {
	spec := EnstrophySpectrum(vrt)
	spec[0] = 0
	for n := 1; n < len(spec); n++ {
		spec[n] *= radius * radius / float64(n*(n+1))
	}
	return spec
}

// ZonalSpectrum returns the latitude-weighted power in each zonal
// wavenumber m = 0..nlon/2 of a grid field. weights are the Gaussian
// weights of the grid rows.
func ZonalSpectrum(g *mat.Dense, weights []float64) []float64 {
	nlat, nlon := g.Dims()
	fft := fourier.NewFFT(nlon)
	coeff := make([]complex128, nlon/2+1)
	power := make([]float64, nlon/2+1)
	row := make([]float64, nlon/2+1)

	for j := 0; j < nlat; j++ {
		fft.Coefficients(coeff, g.RawRowView(j))
		for m, c := range coeff {
			a := cmplx.Abs(c) / float64(nlon)
			row[m] = a * a
			if m > 0 && 2*m != nlon {
				row[m] *= 2
			}
		}
		floats.AddScaled(power, weights[j]/2, row)
	}
	return power
}

// Centroid returns the spectrum-weighted mean wavenumber Σ n·S(n) / Σ S(n),
// or 0 for an empty spectrum.
func Centroid(spec []float64) float64 {
	total := floats.Sum(spec)
	if total == 0 || len(spec) < 2 {
		return 0
	}
	idx := make([]float64, len(spec))
	floats.Span(idx, 0, float64(len(spec)-1))
	return floats.Dot(idx, spec) / total
}
