package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/physics"
	"github.com/san-kum/barosim/internal/sphere"
)

func benchSetup(b *testing.B, trunc, nlat, nlon int) (dynamo.System, *dynamo.State) {
	b.Helper()
	eng, err := sphere.New(trunc, nlat, nlon, sphere.EarthRadius)
	if err != nil {
		b.Fatal(err)
	}
	sys, err := physics.NewBarotropic(eng, physics.DefaultParams())
	if err != nil {
		b.Fatal(err)
	}

	vrt := dynamo.NewSpectral(trunc)
	vrt.Set(0, 1, complex(2*physics.EarthOmega*math.Sqrt(2.0/3.0)*0.1, 0))
	vrt.Set(4, 5, complex(1e-6, 5e-7))
	return sys, dynamo.NewState(vrt)
}

func BenchmarkEuler(b *testing.B) {
	sys, st := benchSetup(b, 21, 32, 64)
	integrator := NewEuler()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integrator.Step(sys, st, 60)
	}
}

func BenchmarkRK4(b *testing.B) {
	sys, st := benchSetup(b, 21, 32, 64)
	integrator := NewRK4()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integrator.Step(sys, st, 60)
	}
}

func BenchmarkLeapfrog(b *testing.B) {
	sys, st := benchSetup(b, 21, 32, 64)
	integrator := NewLeapfrog(0.04)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integrator.Step(sys, st, 60)
	}
}

func BenchmarkLeapfrog_T42(b *testing.B) {
	sys, st := benchSetup(b, 42, 64, 128)
	integrator := NewLeapfrog(0.04)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integrator.Step(sys, st, 60)
	}
}
