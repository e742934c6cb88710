package sphere

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/dynamo"
)

// EarthRadius is the mean Earth radius in metres.
const EarthRadius = 6.37122e6

// minModesPerWorker keeps goroutine fan-out away from tiny truncations.
const minModesPerWorker = 8

// Engine is a spherical-harmonic transform on a Gaussian grid with
// triangular truncation. It is immutable after New and safe for concurrent use.
type Engine struct {
	trunc  int
	nlat   int
	nlon   int
	radius float64

	lats    []float64
	lons    []float64
	weights []float64
	coslat  []float64

	// p[j] and h[j] hold P̄ₙᵐ and (1-μ²)dP̄ₙᵐ/dμ at latitude j in packed order.
	p [][]float64
	h [][]float64

	eigen []Eigen
	ffts  *fftPool
}

var _ dynamo.Transformer = (*Engine)(nil)

// New builds a transform engine. nlon must exceed 2*trunc and nlat must
// exceed trunc so that the transform pair is exact for truncated fields.
func New(trunc, nlat, nlon int, radius float64) (*Engine, error) {
	if trunc <= 0 {
		return nil, dynamo.Invalidf("truncation must be positive, got %d", trunc)
	}
	if nlon <= 2*trunc {
		return nil, dynamo.Invalidf("nlon=%d cannot resolve truncation T%d (need > %d)", nlon, trunc, 2*trunc)
	}
	if nlat <= trunc {
		return nil, dynamo.Invalidf("nlat=%d cannot resolve truncation T%d (need > %d)", nlat, trunc, trunc)
	}
	if !(radius > 0) {
		return nil, dynamo.Invalidf("radius must be positive, got %g", radius)
	}

	e := &Engine{
		trunc:  trunc,
		nlat:   nlat,
		nlon:   nlon,
		radius: radius,
		lons:   Longitudes(nlon),
		eigen:  LaplacianEigen(trunc, radius),
		ffts:   newFFTPool(nlon),
	}
	e.lats, e.weights = GaussianLatitudes(nlat)

	nspec := dynamo.NumCoeffs(trunc)
	e.coslat = make([]float64, nlat)
	e.p = make([][]float64, nlat)
	e.h = make([][]float64, nlat)
	for j, lat := range e.lats {
		e.coslat[j] = math.Cos(lat)
		e.p[j] = make([]float64, nspec)
		e.h[j] = make([]float64, nspec)
		legendre(trunc, math.Sin(lat), e.p[j], e.h[j])
	}
	return e, nil
}

func (e *Engine) Truncation() int              { return e.trunc }
func (e *Engine) Shape() (nlat, nlon int)      { return e.nlat, e.nlon }
func (e *Engine) Radius() float64              { return e.radius }
func (e *Engine) Latitudes() []float64         { return append([]float64(nil), e.lats...) }
func (e *Engine) Longitudes() []float64        { return append([]float64(nil), e.lons...) }
func (e *Engine) Weights() []float64           { return append([]float64(nil), e.weights...) }
func (e *Engine) Eigenvalues() []Eigen         { return append([]Eigen(nil), e.eigen...) }
func (e *Engine) NewSpectral() dynamo.Spectral { return dynamo.NewSpectral(e.trunc) }

// ToSpectral is the forward transform. The result is truncated at the
// engine truncation.
func (e *Engine) ToSpectral(g *mat.Dense) (dynamo.Spectral, error) {
	if err := e.checkGrid(g); err != nil {
		return dynamo.Spectral{}, err
	}

	four := e.analyzeFourier(g)
	out := dynamo.NewSpectral(e.trunc)

	dynamo.ParallelFor(e.trunc+1, minModesPerWorker, func(start, end int) {
		for m := start; m < end; m++ {
			for n := m; n <= e.trunc; n++ {
				idx := dynamo.Index(e.trunc, m, n)
				var acc complex128
				for j := 0; j < e.nlat; j++ {
					acc += four[j][m] * complex(e.weights[j]*e.p[j][idx], 0)
				}
				out.Coeffs[idx] = acc
			}
		}
	})
	return out, nil
}

// ToGrid is the inverse transform. Fields truncated below the engine
// truncation are zero-padded; fields above it are rejected.
func (e *Engine) ToGrid(s dynamo.Spectral) (*mat.Dense, error) {
	s, err := e.conform(s)
	if err != nil {
		return nil, err
	}
	return e.synthesize(s.Coeffs, e.p, nil), nil
}

// Gradient returns ∂s/∂λ and ∂s/∂φ on the grid, both per radian.
func (e *Engine) Gradient(s dynamo.Spectral) (dlam, dphi *mat.Dense, err error) {
	s, err = e.conform(s)
	if err != nil {
		return nil, nil, err
	}
	dlam = e.synthesize(e.zonalDerivative(s.Coeffs, 1), e.p, nil)
	dphi = e.synthesize(s.Coeffs, e.h, e.secant())
	return dlam, dphi, nil
}

// VorticityToVelocity inverts ∇²ψ = ζ and returns u = -(1/a)∂ψ/∂φ and
// v = (1/(a cos φ))∂ψ/∂λ.
func (e *Engine) VorticityToVelocity(vrt dynamo.Spectral) (u, v *mat.Dense, err error) {
	vrt, err = e.conform(vrt)
	if err != nil {
		return nil, nil, err
	}
	psi, err := InvertLaplacian(vrt, e.eigen)
	if err != nil {
		return nil, nil, err
	}
	return e.StreamToVelocity(psi)
}

// StreamToVelocity returns the rotated gradient of the streamfunction psi.
func (e *Engine) StreamToVelocity(psi dynamo.Spectral) (u, v *mat.Dense, err error) {
	psi, err = e.conform(psi)
	if err != nil {
		return nil, nil, err
	}
	sec := e.secant()
	u = e.synthesize(psi.Coeffs, e.h, sec)
	u.Scale(-1/e.radius, u)
	v = e.synthesize(e.zonalDerivative(psi.Coeffs, 1/e.radius), e.p, sec)
	return u, v, nil
}

func (e *Engine) checkGrid(g *mat.Dense) error {
	if g == nil {
		return fmt.Errorf("%w: nil grid", dynamo.ErrGridMismatch)
	}
	r, c := g.Dims()
	if r != e.nlat || c != e.nlon {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", dynamo.ErrGridMismatch, r, c, e.nlat, e.nlon)
	}
	return nil
}

// conform validates s and pads it to the engine truncation.
func (e *Engine) conform(s dynamo.Spectral) (dynamo.Spectral, error) {
	if err := s.Validate(); err != nil {
		return dynamo.Spectral{}, err
	}
	if s.Trunc > e.trunc {
		return dynamo.Spectral{}, fmt.Errorf("%w: field truncation T%d exceeds engine truncation T%d",
			dynamo.ErrTruncationMismatch, s.Trunc, e.trunc)
	}
	if s.Trunc < e.trunc {
		return s.Truncate(e.trunc), nil
	}
	return s, nil
}

// analyzeFourier returns the normalized zonal Fourier coefficients
// F_m(μ_j) = (1/nlon) Σ_i g(j,i) e^{-imλ_i} for m <= trunc.
func (e *Engine) analyzeFourier(g *mat.Dense) [][]complex128 {
	fft := e.ffts.Get()
	defer e.ffts.Put(fft)

	scale := complex(1/float64(e.nlon), 0)
	buf := make([]complex128, e.nlon/2+1)
	four := make([][]complex128, e.nlat)
	for j := 0; j < e.nlat; j++ {
		fft.Coefficients(buf, g.RawRowView(j))
		row := make([]complex128, e.trunc+1)
		for m := range row {
			row[m] = buf[m] * scale
		}
		four[j] = row
	}
	return four
}

// synthesize evaluates Σₙ cₙᵐ T[j]ₙᵐ e^{imλ} on the grid, where T is the
// P̄ or H table. Row j is multiplied by rowScale[j] when rowScale is set.
func (e *Engine) synthesize(c []complex128, table [][]float64, rowScale []float64) *mat.Dense {
	four := make([][]complex128, e.nlat)
	for j := range four {
		four[j] = make([]complex128, e.nlon/2+1)
	}

	dynamo.ParallelFor(e.trunc+1, minModesPerWorker, func(start, end int) {
		for m := start; m < end; m++ {
			for j := 0; j < e.nlat; j++ {
				var acc complex128
				for n := m; n <= e.trunc; n++ {
					idx := dynamo.Index(e.trunc, m, n)
					acc += c[idx] * complex(table[j][idx], 0)
				}
				four[j][m] = acc
			}
		}
	})

	fft := e.ffts.Get()
	defer e.ffts.Put(fft)

	out := mat.NewDense(e.nlat, e.nlon, nil)
	for j := 0; j < e.nlat; j++ {
		row := out.RawRowView(j)
		fft.Sequence(row, four[j])
		if rowScale != nil {
			for i := range row {
				row[i] *= rowScale[j]
			}
		}
	}
	return out
}

// zonalDerivative returns i·m·scale·c for every packed coefficient.
func (e *Engine) zonalDerivative(c []complex128, scale float64) []complex128 {
	out := make([]complex128, len(c))
	for m := 0; m <= e.trunc; m++ {
		f := complex(0, float64(m)*scale)
		for n := m; n <= e.trunc; n++ {
			idx := dynamo.Index(e.trunc, m, n)
			out[idx] = c[idx] * f
		}
	}
	return out
}

func (e *Engine) secant() []float64 {
	sec := make([]float64, e.nlat)
	for j, c := range e.coslat {
		sec[j] = 1 / c
	}
	return sec
}
