package initial

import (
	"math"
	"testing"
)

func TestGridFor(t *testing.T) {
	tests := []struct {
		trunc, nlat, nlon int
	}{
		{21, 32, 64},
		{42, 64, 128},
		{10, 16, 32},
		{1, 2, 4},
	}
	for _, tt := range tests {
		nlat, nlon := GridFor(tt.trunc).Shape()
		if nlat != tt.nlat || nlon != tt.nlon {
			t.Errorf("T%d: %dx%d, want %dx%d", tt.trunc, nlat, nlon, tt.nlat, tt.nlon)
		}
	}
}

func TestVortexPeak(t *testing.T) {
	g := GaussianGrid(32, 64)
	f := Vortex(g, 45, 180, 5e-5, 12)

	peak, pj, pi := 0.0, 0, 0
	for j := range g.Lats {
		for i := range g.Lons {
			if v := f.At(j, i); v > peak {
				peak, pj, pi = v, j, i
			}
		}
	}
	if peak > 5e-5 || peak < 4e-5 {
		t.Errorf("peak = %g", peak)
	}
	if d := math.Abs(g.Lons[pi]*180/math.Pi - 180); d > 360.0/64 {
		t.Errorf("peak at longitude %.1f", g.Lons[pi]*180/math.Pi)
	}
	if d := math.Abs(g.Lats[pj]*180/math.Pi - 45); d > 6 {
		t.Errorf("peak at latitude %.1f", g.Lats[pj]*180/math.Pi)
	}
}

func TestSolidBodyAntisymmetric(t *testing.T) {
	g := GaussianGrid(16, 32)
	f := SolidBody(g, 1e-5)
	for j := range g.Lats {
		k := len(g.Lats) - 1 - j
		if d := f.At(j, 3) + f.At(k, 3); math.Abs(d) > 1e-18 {
			t.Errorf("rows %d and %d are not antisymmetric: %g", j, k, d)
		}
	}
}

func TestRegistry(t *testing.T) {
	g := GaussianGrid(16, 32)
	for _, name := range Names() {
		f, err := Get(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if r, c := f(g).Dims(); r != 16 || c != 32 {
			t.Errorf("%s: field is %dx%d", name, r, c)
		}
	}
	if _, err := Get("nonexistent"); err == nil {
		t.Error("expected an error for an unknown name")
	}
}
