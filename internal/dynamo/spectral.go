package dynamo

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Spectral holds spherical-harmonic coefficients for a real field under
// triangular truncation. Only zonal wavenumbers m >= 0 are stored, packed
// by m and then by total wavenumber n (m <= n <= Trunc).
type Spectral struct {
	Trunc  int
	Coeffs []complex128
}

// NumCoeffs returns the packed length for triangular truncation t.
func NumCoeffs(t int) int {
	return (t + 1) * (t + 2) / 2
}

// TruncFor returns the triangular truncation whose packed length is n,
// or -1 if n is not a triangular length.
func TruncFor(n int) int {
	t := int((math.Sqrt(float64(8*n+1)) - 3) / 2)
	for c := t - 1; c <= t+1; c++ {
		if c >= 0 && NumCoeffs(c) == n {
			return c
		}
	}
	return -1
}

// Index returns the packed position of mode (m, n) in a field truncated at t.
func Index(t, m, n int) int {
	return m*(t+1) - m*(m-1)/2 + (n - m)
}

// NewSpectral returns a zero field truncated at t.
func NewSpectral(t int) Spectral {
	return Spectral{Trunc: t, Coeffs: make([]complex128, NumCoeffs(t))}
}

// At returns coefficient (m, n), or zero if the mode is above the truncation.
func (s Spectral) At(m, n int) complex128 {
	if m < 0 || n < m || n > s.Trunc {
		return 0
	}
	return s.Coeffs[Index(s.Trunc, m, n)]
}

// Set assigns coefficient (m, n). It panics if the mode is not representable.
func (s Spectral) Set(m, n int, c complex128) {
	if m < 0 || n < m || n > s.Trunc {
		panic(fmt.Sprintf("dynamo: mode (m=%d, n=%d) outside truncation %d", m, n, s.Trunc))
	}
	s.Coeffs[Index(s.Trunc, m, n)] = c
}

// Validate reports ErrTruncationMismatch if the coefficient slice does not
// match the declared truncation.
func (s Spectral) Validate() error {
	if s.Trunc < 0 || len(s.Coeffs) != NumCoeffs(s.Trunc) {
		return fmt.Errorf("%w: %d coefficients for declared truncation %d (implied %d)",
			ErrTruncationMismatch, len(s.Coeffs), s.Trunc, TruncFor(len(s.Coeffs)))
	}
	return nil
}

func (s Spectral) Clone() Spectral {
	c := make([]complex128, len(s.Coeffs))
	copy(c, s.Coeffs)
	return Spectral{Trunc: s.Trunc, Coeffs: c}
}

// Truncate returns a copy of s at truncation t. Degrees above t are dropped
// and missing degrees are zero.
func (s Spectral) Truncate(t int) Spectral {
	out := NewSpectral(t)
	top := min(t, s.Trunc)
	for m := 0; m <= top; m++ {
		for n := m; n <= top; n++ {
			out.Coeffs[Index(t, m, n)] = s.Coeffs[Index(s.Trunc, m, n)]
		}
	}
	return out
}

// Degree returns the highest total wavenumber carrying a non-zero
// coefficient, or -1 for the zero field.
func (s Spectral) Degree() int {
	deg := -1
	for m := 0; m <= s.Trunc; m++ {
		for n := s.Trunc; n > deg && n >= m; n-- {
			if s.Coeffs[Index(s.Trunc, m, n)] != 0 {
				deg = n
				break
			}
		}
	}
	return deg
}

func (s Spectral) IsFinite() bool {
	for _, c := range s.Coeffs {
		if cmplx.IsNaN(c) || cmplx.IsInf(c) {
			return false
		}
	}
	return true
}

// AddScaled sets s = s + alpha*o in place. Both fields must share a truncation.
func (s Spectral) AddScaled(alpha float64, o Spectral) {
	a := complex(alpha, 0)
	for i := range s.Coeffs {
		s.Coeffs[i] += a * o.Coeffs[i]
	}
}

// Scale multiplies every coefficient by c in place.
func (s Spectral) Scale(c float64) {
	f := complex(c, 0)
	for i := range s.Coeffs {
		s.Coeffs[i] *= f
	}
}

// SquaredNorm returns the sphere-integrated square of the field,
// ∫∫ f² dμ dλ / 2π: m = 0 modes count once and m > 0 modes twice.
func (s Spectral) SquaredNorm() float64 {
	sum := 0.0
	for m := 0; m <= s.Trunc; m++ {
		w := 2.0
		if m == 0 {
			w = 1.0
		}
		for n := m; n <= s.Trunc; n++ {
			c := s.Coeffs[Index(s.Trunc, m, n)]
			sum += w * (real(c)*real(c) + imag(c)*imag(c))
		}
	}
	return sum
}
