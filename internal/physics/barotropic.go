package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/sphere"
)

// EarthOmega is the Earth's rotation rate in s⁻¹.
const EarthOmega = 7.29e-5

// Params configures the barotropic vorticity equation.
type Params struct {
	// Omega is the planetary rotation rate; zero gives a non-rotating sphere.
	Omega float64
	// Diffusion is the damping rate (s⁻¹) felt by the truncation wavenumber.
	Diffusion float64
	// DiffusionOrder is the power k of the Laplacian in the ν∇²ᵏ term.
	DiffusionOrder int
	// Forcing is a static spectral vorticity source; the zero value means none.
	Forcing dynamo.Spectral
}

func DefaultParams() Params {
	return Params{
		Omega:          EarthOmega,
		Diffusion:      1e-4,
		DiffusionOrder: 4,
	}
}

// Barotropic computes ∂ζ/∂t = -J(ψ, ζ+f) - ν(λₙ/λ_T)ᵏζ + F in spectral space.
type Barotropic struct {
	tr     dynamo.Transformer
	params Params

	trunc   int
	radius  float64
	eigen   []sphere.Eigen
	damping []float64 // per packed mode
	secant  []float64 // 1/cos φ per latitude row
	dfdphi  []float64 // ∂f/∂φ per latitude row
	forcing dynamo.Spectral
}

var _ dynamo.System = (*Barotropic)(nil)

func NewBarotropic(tr dynamo.Transformer, p Params) (*Barotropic, error) {
	if tr == nil {
		return nil, dynamo.Invalidf("nil transformer")
	}
	if p.Diffusion < 0 || math.IsNaN(p.Diffusion) {
		return nil, dynamo.Invalidf("diffusion must be non-negative, got %g", p.Diffusion)
	}
	if p.DiffusionOrder < 1 {
		return nil, dynamo.Invalidf("diffusion order must be at least 1, got %d", p.DiffusionOrder)
	}
	if math.IsNaN(p.Omega) || math.IsInf(p.Omega, 0) {
		return nil, dynamo.Invalidf("rotation rate must be finite, got %g", p.Omega)
	}

	t := tr.Truncation()
	b := &Barotropic{
		tr:     tr,
		params: p,
		trunc:  t,
		radius: tr.Radius(),
		eigen:  sphere.LaplacianEigen(t, tr.Radius()),
	}

	b.forcing = dynamo.NewSpectral(t)
	if p.Forcing.Coeffs != nil {
		if err := p.Forcing.Validate(); err != nil {
			return nil, fmt.Errorf("forcing: %w", err)
		}
		if p.Forcing.Trunc > t {
			return nil, fmt.Errorf("forcing: %w: T%d above model truncation T%d",
				dynamo.ErrTruncationMismatch, p.Forcing.Trunc, t)
		}
		b.forcing = p.Forcing.Truncate(t)
	}

	// λₙ/λ_T = n(n+1)/(T(T+1)); the radius cancels.
	top := float64(t * (t + 1))
	b.damping = make([]float64, len(b.eigen))
	for i, e := range b.eigen {
		ratio := float64(e.N*(e.N+1)) / top
		b.damping[i] = p.Diffusion * math.Pow(ratio, float64(p.DiffusionOrder))
	}

	lats := tr.Latitudes()
	b.secant = make([]float64, len(lats))
	b.dfdphi = make([]float64, len(lats))
	for j, lat := range lats {
		b.secant[j] = 1 / math.Cos(lat)
		b.dfdphi[j] = 2 * p.Omega * math.Cos(lat)
	}
	return b, nil
}

func (b *Barotropic) Params() Params { return b.params }

// Damping returns the per-mode diffusion rate ν(λₙ/λ_T)ᵏ in packed order.
func (b *Barotropic) Damping() []float64 {
	return append([]float64(nil), b.damping...)
}

// Tendency returns the spectral vorticity tendency of st. Advection is taken
// from st.Current, diffusion from st.Previous, and the sum is scaled by the
// semi-implicit factor 1/(1+νₙdt).
func (b *Barotropic) Tendency(st *dynamo.State, dt float64) (dynamo.Spectral, error) {
	if err := b.check(st.Current); err != nil {
		return dynamo.Spectral{}, fmt.Errorf("current: %w", err)
	}
	if err := b.check(st.Previous); err != nil {
		return dynamo.Spectral{}, fmt.Errorf("previous: %w", err)
	}

	adv, err := b.Advection(st.Current)
	if err != nil {
		return dynamo.Spectral{}, err
	}

	prev := st.Previous.Coeffs
	for i := range adv.Coeffs {
		nu := b.damping[i]
		adv.Coeffs[i] = (adv.Coeffs[i]-complex(nu, 0)*prev[i])*complex(1/(1+nu*dt), 0) + b.forcing.Coeffs[i]
	}
	return adv, nil
}

// Advection returns the truncated spectral form of -J(ψ, ζ+f) for vrt.
func (b *Barotropic) Advection(vrt dynamo.Spectral) (dynamo.Spectral, error) {
	psi, err := sphere.InvertLaplacian(vrt, b.eigen)
	if err != nil {
		return dynamo.Spectral{}, err
	}
	psiLam, psiPhi, err := b.tr.Gradient(psi)
	if err != nil {
		return dynamo.Spectral{}, err
	}
	vrtLam, vrtPhi, err := b.tr.Gradient(vrt)
	if err != nil {
		return dynamo.Spectral{}, err
	}

	nlat, nlon := b.tr.Shape()
	jac := mat.NewDense(nlat, nlon, nil)
	ia := 1 / b.radius
	for j := 0; j < nlat; j++ {
		sec := b.secant[j]
		pl, pp := psiLam.RawRowView(j), psiPhi.RawRowView(j)
		zl, zp := vrtLam.RawRowView(j), vrtPhi.RawRowView(j)
		out := jac.RawRowView(j)
		for i := 0; i < nlon; i++ {
			u := -ia * pp[i]
			v := ia * sec * pl[i]
			out[i] = -(u*ia*sec*zl[i] + v*ia*(zp[i]+b.dfdphi[j]))
		}
	}
	return b.tr.ToSpectral(jac)
}

func (b *Barotropic) check(s dynamo.Spectral) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Trunc != b.trunc {
		return fmt.Errorf("%w: state T%d, model T%d", dynamo.ErrTruncationMismatch, s.Trunc, b.trunc)
	}
	return nil
}

func (b *Barotropic) GetParams() map[string]float64 {
	return map[string]float64{
		"omega":           b.params.Omega,
		"diffusion":       b.params.Diffusion,
		"diffusion_order": float64(b.params.DiffusionOrder),
	}
}
