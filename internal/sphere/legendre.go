package sphere

import (
	"math"

	"github.com/san-kum/barosim/internal/dynamo"
)

// epsilon is the recurrence coefficient sqrt((n²-m²)/(4n²-1)).
func epsilon(n, m int) float64 {
	if n <= 0 || n < m {
		return 0
	}
	nn, mm := float64(n*n), float64(m*m)
	return math.Sqrt((nn - mm) / (4*nn - 1))
}

// legendre fills p with the normalized associated Legendre functions P̄ₙᵐ(μ)
// and h with (1-μ²)dP̄ₙᵐ/dμ for every mode of truncation t, in packed order.
// Normalization is ∫₋₁¹ P̄ₙᵐ² dμ = 1, without the Condon-Shortley phase.
func legendre(t int, mu float64, p, h []float64) {
	s := math.Sqrt(1 - mu*mu)
	col := make([]float64, t+3)
	pmm := math.Sqrt(0.5)

	for m := 0; m <= t; m++ {
		if m > 0 {
			pmm *= math.Sqrt(float64(2*m+1)/float64(2*m)) * s
		}

		// col[k] holds P̄ for n = m+k-1; col[0] is the zero below the diagonal.
		col[0] = 0
		col[1] = pmm
		for n := m; n <= t; n++ {
			k := n - m + 1
			col[k+1] = (mu*col[k] - epsilon(n, m)*col[k-1]) / epsilon(n+1, m)
		}

		for n := m; n <= t; n++ {
			k := n - m + 1
			idx := dynamo.Index(t, m, n)
			p[idx] = col[k]
			h[idx] = -float64(n)*epsilon(n+1, m)*col[k+1] + float64(n+1)*epsilon(n, m)*col[k-1]
		}
	}
}

// ModeKind tags a spherical-harmonic mode for Laplacian inversion.
type ModeKind int

const (
	// ModeMean is n = 0: the Laplacian is not invertible there and the
	// inverse is defined as zero (the global mean carries no flow).
	ModeMean ModeKind = iota
	// ModeWave is any n > 0 mode with eigenvalue -n(n+1)/a².
	ModeWave
)

// Eigen is one entry of the Laplacian eigenvalue table.
type Eigen struct {
	Kind  ModeKind
	N     int
	Value float64
}

// Inverse returns 1/Value for wave modes and zero for the mean mode.
func (e Eigen) Inverse() (float64, error) {
	switch e.Kind {
	case ModeMean:
		return 0, nil
	case ModeWave:
		if e.Value == 0 {
			return 0, dynamo.ErrSingularMode
		}
		return 1 / e.Value, nil
	}
	return 0, dynamo.ErrSingularMode
}

// LaplacianEigen returns the ∇² eigenvalue table for truncation t on a
// sphere of the given radius, in packed order.
func LaplacianEigen(t int, radius float64) []Eigen {
	tab := make([]Eigen, dynamo.NumCoeffs(t))
	a2 := radius * radius
	for m := 0; m <= t; m++ {
		for n := m; n <= t; n++ {
			e := Eigen{Kind: ModeWave, N: n, Value: -float64(n*(n+1)) / a2}
			if n == 0 {
				e = Eigen{Kind: ModeMean}
			}
			tab[dynamo.Index(t, m, n)] = e
		}
	}
	return tab
}

// InvertLaplacian solves ∇²ψ = s mode by mode using tab.
func InvertLaplacian(s dynamo.Spectral, tab []Eigen) (dynamo.Spectral, error) {
	if len(tab) != len(s.Coeffs) {
		return dynamo.Spectral{}, dynamo.ErrTruncationMismatch
	}
	out := dynamo.NewSpectral(s.Trunc)
	for i, c := range s.Coeffs {
		inv, err := tab[i].Inverse()
		if err != nil {
			return dynamo.Spectral{}, err
		}
		out.Coeffs[i] = c * complex(inv, 0)
	}
	return out, nil
}
