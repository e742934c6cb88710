package analysis

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/initial"
	"github.com/san-kum/barosim/internal/metrics"
	"github.com/san-kum/barosim/internal/sim"
	"github.com/san-kum/barosim/internal/sphere"
)

func TestSpectraSumToTotals(t *testing.T) {
	eng, err := sphere.New(21, 32, 64, sphere.EarthRadius)
	if err != nil {
		t.Fatal(err)
	}
	vrt, err := eng.ToSpectral(initial.Vortex(initial.GaussianGrid(32, 64), 45, 180, 5e-5, 12))
	if err != nil {
		t.Fatal(err)
	}

	z := EnstrophySpectrum(vrt)
	if len(z) != 22 {
		t.Fatalf("len = %d, want 22", len(z))
	}
	if got, want := floats.Sum(z), metrics.Enstrophy(vrt); math.Abs(got-want) > 1e-12*want {
		t.Errorf("enstrophy spectrum sums to %g, want %g", got, want)
	}

	e := EnergySpectrum(vrt, eng.Radius())
	if e[0] != 0 {
		t.Errorf("E(0) = %g", e[0])
	}
	if got, want := floats.Sum(e), metrics.KineticEnergy(vrt, eng.Radius()); math.Abs(got-want) > 1e-12*want {
		t.Errorf("energy spectrum sums to %g, want %g", got, want)
	}
}

func TestSpectrum_SingleMode(t *testing.T) {
	s := dynamo.NewSpectral(10)
	s.Set(3, 7, complex(2, 0))

	z := EnstrophySpectrum(s)
	for n, v := range z {
		want := 0.0
		if n == 7 {
			want = 2 * 4.0 / 4
		}
		if v != want {
			t.Errorf("Z(%d) = %g, want %g", n, v, want)
		}
	}
	if c := Centroid(z); c != 7 {
		t.Errorf("centroid = %g, want 7", c)
	}
}

func TestCentroid_Empty(t *testing.T) {
	tests := [][]float64{nil, {}, {0, 0, 0}, {5}}
	for _, spec := range tests {
		if c := Centroid(spec); c != 0 {
			t.Errorf("Centroid(%v) = %g", spec, c)
		}
	}
}

func TestZonalSpectrum(t *testing.T) {
	g := initial.GaussianGrid(16, 32)
	_, w := sphere.GaussianLatitudes(16)

	f := g.Eval(func(lat, lon float64) float64 {
		return 1 + math.Cos(3*lon)
	})
	p := ZonalSpectrum(f, w)

	if len(p) != 17 {
		t.Fatalf("len = %d, want 17", len(p))
	}
	if math.Abs(p[0]-1) > 1e-12 {
		t.Errorf("P(0) = %g, want 1", p[0])
	}
	if math.Abs(p[3]-0.5) > 1e-12 {
		t.Errorf("P(3) = %g, want 0.5", p[3])
	}
	for m, v := range p {
		if m != 0 && m != 3 && v > 1e-24 {
			t.Errorf("P(%d) = %g, want 0", m, v)
		}
	}
}

func TestPerturbationGrowth_InvalidArgs(t *testing.T) {
	g := initial.GaussianGrid(32, 64)
	base := initial.SolidBody(g, 1e-5)
	pert := initial.Vortex(g, 30, 90, 1e-5, 10)

	tests := []struct {
		name          string
		eps           float64
		steps, renorm int
		field         bool
	}{
		{"zero steps", 1e-3, 0, 1, true},
		{"renorm beyond steps", 1e-3, 5, 10, true},
		{"zero eps", 0, 10, 5, true},
		{"zero perturbation", 1e-3, 10, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pert
			if !tt.field {
				p = initial.Zero(g)
			}
			_, err := PerturbationGrowth(context.Background(), sim.DefaultConfig(), base, p, tt.eps, tt.steps, tt.renorm)
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestPerturbationGrowth_SolidBodyDoesNotAmplify(t *testing.T) {
	g := initial.GaussianGrid(32, 64)
	rate, err := PerturbationGrowth(context.Background(), sim.DefaultConfig(),
		initial.SolidBody(g, 1e-5), initial.Vortex(g, 30, 90, 1e-5, 10), 1e-3, 60, 30)
	if err != nil {
		t.Fatal(err)
	}
	if rate > 5e-7 {
		t.Errorf("growth rate %g s⁻¹ on solid-body rotation", rate)
	}
}
