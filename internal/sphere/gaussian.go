package sphere

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
)

// GaussianLatitudes returns the nlat Gaussian latitudes in radians ordered
// north to south, together with their quadrature weights in μ = sin φ.
// The weights sum to 2.
func GaussianLatitudes(nlat int) (lats, weights []float64) {
	mu := make([]float64, nlat)
	w := make([]float64, nlat)
	quad.Legendre{}.FixedLocations(mu, w, -1, 1)

	order := make([]int, nlat)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return mu[order[a]] > mu[order[b]] })

	lats = make([]float64, nlat)
	weights = make([]float64, nlat)
	for j, k := range order {
		lats[j] = math.Asin(mu[k])
		weights[j] = w[k]
	}
	return lats, weights
}

// Longitudes returns nlon equally spaced longitudes in radians starting at 0.
func Longitudes(nlon int) []float64 {
	lons := make([]float64, nlon)
	for i := range lons {
		lons[i] = 2 * math.Pi * float64(i) / float64(nlon)
	}
	return lons
}
