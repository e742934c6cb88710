package physics

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/sphere"
)

func newEngine(t testing.TB) *sphere.Engine {
	t.Helper()
	e, err := sphere.New(21, 32, 64, sphere.EarthRadius)
	if err != nil {
		t.Fatalf("sphere.New: %v", err)
	}
	return e
}

func spectralOf(t testing.TB, e *sphere.Engine, f func(lat, lon float64) float64) dynamo.Spectral {
	t.Helper()
	nlat, nlon := e.Shape()
	lats, lons := e.Latitudes(), e.Longitudes()
	g := mat.NewDense(nlat, nlon, nil)
	for j := range lats {
		for i := range lons {
			g.Set(j, i, f(lats[j], lons[i]))
		}
	}
	s, err := e.ToSpectral(g)
	if err != nil {
		t.Fatalf("ToSpectral: %v", err)
	}
	return s
}

func maxAbs(s dynamo.Spectral) float64 {
	m := 0.0
	for _, c := range s.Coeffs {
		m = math.Max(m, cmplx.Abs(c))
	}
	return m
}

func TestNewBarotropic_InvalidParams(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr error
	}{
		{"negative diffusion", func(p *Params) { p.Diffusion = -1 }, dynamo.ErrInvalidConfiguration},
		{"zero order", func(p *Params) { p.DiffusionOrder = 0 }, dynamo.ErrInvalidConfiguration},
		{"nan omega", func(p *Params) { p.Omega = math.NaN() }, dynamo.ErrInvalidConfiguration},
		{"forcing above truncation", func(p *Params) { p.Forcing = dynamo.NewSpectral(30) }, dynamo.ErrTruncationMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if _, err := NewBarotropic(e, p); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTendency_ZonalFlowIsSteady(t *testing.T) {
	e := newEngine(t)
	p := DefaultParams()
	p.Diffusion = 0
	sys, err := NewBarotropic(e, p)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		f    func(lat, lon float64) float64
	}{
		{"solid body", func(lat, _ float64) float64 { return 2e-5 * math.Sin(lat) }},
		{"jet", func(lat, _ float64) float64 { return 1e-5 * math.Sin(3*lat) * math.Cos(lat) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := dynamo.NewState(spectralOf(t, e, tt.f))
			tend, err := sys.Tendency(st, 1200)
			if err != nil {
				t.Fatalf("Tendency: %v", err)
			}
			if m := maxAbs(tend); m > 1e-20 {
				t.Errorf("zonal flow should be steady, max tendency %g", m)
			}
		})
	}
}

func TestTendency_DiffusionIsDiagonal(t *testing.T) {
	e := newEngine(t)
	p := Params{Omega: 0, Diffusion: 1e-4, DiffusionOrder: 2}
	sys, err := NewBarotropic(e, p)
	if err != nil {
		t.Fatal(err)
	}

	// A single spherical harmonic has ψ ∝ ζ, so J(ψ, ζ) vanishes and only
	// diffusion remains.
	vrt := dynamo.NewSpectral(21)
	c := complex(3e-6, -1e-6)
	vrt.Set(3, 10, c)
	dt := 1200.0

	tend, err := sys.Tendency(dynamo.NewState(vrt), dt)
	if err != nil {
		t.Fatal(err)
	}

	nu := 1e-4 * math.Pow(float64(10*11)/float64(21*22), 2)
	want := -complex(nu/(1+nu*dt), 0) * c
	if d := cmplx.Abs(tend.At(3, 10) - want); d > 1e-9*cmplx.Abs(want) {
		t.Errorf("tendency at (3,10) = %v, want %v", tend.At(3, 10), want)
	}
	tend.Set(3, 10, 0)
	if m := maxAbs(tend); m > 1e-20 {
		t.Errorf("diffusion leaked into other modes, max %g", m)
	}
}

func TestTendency_DiffusionUsesPreviousLevel(t *testing.T) {
	e := newEngine(t)
	sys, err := NewBarotropic(e, Params{Diffusion: 1e-4, DiffusionOrder: 1})
	if err != nil {
		t.Fatal(err)
	}

	prev := dynamo.NewSpectral(21)
	prev.Set(0, 21, 1e-5)
	st := &dynamo.State{Current: dynamo.NewSpectral(21), Previous: prev, Phase: dynamo.Stepping}

	tend, err := sys.Tendency(st, 600)
	if err != nil {
		t.Fatal(err)
	}
	want := -1e-4 / (1 + 1e-4*600) * 1e-5
	if got := real(tend.At(0, 21)); math.Abs(got-want) > 1e-12*math.Abs(want) {
		t.Errorf("got %g, want %g", got, want)
	}
}

func TestTendency_Forcing(t *testing.T) {
	e := newEngine(t)
	f := dynamo.NewSpectral(10)
	f.Set(2, 4, complex(1e-10, 2e-10))

	sys, err := NewBarotropic(e, Params{Omega: EarthOmega, DiffusionOrder: 1, Forcing: f})
	if err != nil {
		t.Fatal(err)
	}

	tend, err := sys.Tendency(dynamo.NewState(dynamo.NewSpectral(21)), 1200)
	if err != nil {
		t.Fatal(err)
	}
	if tend.At(2, 4) != f.At(2, 4) {
		t.Errorf("forcing not added: got %v", tend.At(2, 4))
	}
}

func TestTendency_Errors(t *testing.T) {
	e := newEngine(t)
	sys, err := NewBarotropic(e, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	t.Run("truncation mismatch", func(t *testing.T) {
		st := dynamo.NewState(dynamo.NewSpectral(10))
		if _, err := sys.Tendency(st, 1200); !errors.Is(err, dynamo.ErrTruncationMismatch) {
			t.Errorf("expected ErrTruncationMismatch, got %v", err)
		}
	})

	t.Run("singular mode", func(t *testing.T) {
		bad, err := NewBarotropic(e, DefaultParams())
		if err != nil {
			t.Fatal(err)
		}
		bad.eigen[dynamo.Index(21, 2, 5)].Value = 0
		if _, err := bad.Tendency(dynamo.NewState(dynamo.NewSpectral(21)), 1200); !errors.Is(err, dynamo.ErrSingularMode) {
			t.Errorf("expected ErrSingularMode, got %v", err)
		}
	})
}

func TestDamping_ScaleSelective(t *testing.T) {
	e := newEngine(t)
	sys, err := NewBarotropic(e, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	d := sys.Damping()
	if d[dynamo.Index(21, 0, 0)] != 0 {
		t.Error("mean mode must not be damped")
	}
	if got := d[dynamo.Index(21, 5, 21)]; math.Abs(got-1e-4) > 1e-18 {
		t.Errorf("truncation wavenumber damping = %g, want 1e-4", got)
	}
	if d[dynamo.Index(21, 0, 5)] >= d[dynamo.Index(21, 0, 15)] {
		t.Error("damping should grow with total wavenumber")
	}
}

func BenchmarkTendencyT21(b *testing.B) {
	e := newEngine(b)
	sys, _ := NewBarotropic(e, DefaultParams())
	st := dynamo.NewState(spectralOf(b, e, func(lat, lon float64) float64 {
		return 1e-5 * math.Cos(lat) * math.Cos(lat) * math.Sin(4*lon)
	}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sys.Tendency(st, 1200)
	}
}
