// Package initial builds initial vorticity fields on a Gaussian grid.
package initial

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/sphere"
)

// Grid holds the latitudes (north to south) and longitudes of a model grid
// in radians.
type Grid struct {
	Lats []float64
	Lons []float64
}

func GaussianGrid(nlat, nlon int) Grid {
	lats, _ := sphere.GaussianLatitudes(nlat)
	return Grid{Lats: lats, Lons: sphere.Longitudes(nlon)}
}

// GridFor returns a Gaussian grid that resolves truncation t without
// aliasing quadratic terms: nlon >= 3t+1 rounded up to an even number and
// nlat = nlon/2.
func GridFor(t int) Grid {
	nlon := 3*t + 1
	if nlon%2 != 0 {
		nlon++
	}
	return GaussianGrid(nlon/2, nlon)
}

func (g Grid) Shape() (nlat, nlon int) { return len(g.Lats), len(g.Lons) }

// Eval samples f(lat, lon) on the grid.
func (g Grid) Eval(f func(lat, lon float64) float64) *mat.Dense {
	out := mat.NewDense(len(g.Lats), len(g.Lons), nil)
	for j, lat := range g.Lats {
		row := out.RawRowView(j)
		for i, lon := range g.Lons {
			row[i] = f(lat, lon)
		}
	}
	return out
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

// greatCircle returns the angular distance in radians between two points.
func greatCircle(lat1, lon1, lat2, lon2 float64) float64 {
	c := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(lon1-lon2)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// Vortex is an isolated Gaussian vortex of peak relative vorticity amp
// (s⁻¹) centred at (lat0, lon0) degrees with e-folding radius width degrees.
func Vortex(g Grid, lat0, lon0, amp, width float64) *mat.Dense {
	clat, clon, w := rad(lat0), rad(lon0), rad(width)
	return g.Eval(func(lat, lon float64) float64 {
		d := greatCircle(lat, lon, clat, clon) / w
		return amp * math.Exp(-d*d)
	})
}

// RossbyHaurwitz is the wavenumber-r Rossby-Haurwitz wave
// ζ = 2ω sin φ - K sin φ cosʳφ (r²+3r+2) cos rλ.
func RossbyHaurwitz(g Grid, r int, omega, k float64) *mat.Dense {
	rf := float64(r)
	return g.Eval(func(lat, lon float64) float64 {
		s, c := math.Sin(lat), math.Cos(lat)
		return 2*omega*s - k*s*math.Pow(c, rf)*(rf*rf+3*rf+2)*math.Cos(rf*lon)
	})
}

// SolidBody is rigid rotation at angular velocity omega (s⁻¹).
func SolidBody(g Grid, omega float64) *mat.Dense {
	return g.Eval(func(lat, _ float64) float64 { return 2 * omega * math.Sin(lat) })
}

// ZonalJet is the vorticity of u = umax sech²((φ-φ₀)/w), optionally with a
// wavenumber-m perturbation of relative size pert.
func ZonalJet(g Grid, lat0, width, umax float64, m int, pert float64) *mat.Dense {
	c0, w := rad(lat0), rad(width)
	return g.Eval(func(lat, lon float64) float64 {
		// ζ = -(1/(a cos φ)) ∂(u cos φ)/∂φ
		x := (lat - c0) / w
		sech2 := 1 / (math.Cosh(x) * math.Cosh(x))
		u := umax * sech2
		du := -2 * umax * sech2 * math.Tanh(x) / w
		zeta := (u*math.Sin(lat) - du*math.Cos(lat)) / (math.Cos(lat) * sphere.EarthRadius)
		return zeta * (1 + pert*math.Cos(float64(m)*lon)*sech2)
	})
}

func Zero(g Grid) *mat.Dense {
	return mat.NewDense(len(g.Lats), len(g.Lons), nil)
}

// Func builds an initial field on a grid.
type Func func(g Grid) *mat.Dense

var registry = map[string]Func{
	"vortex": func(g Grid) *mat.Dense {
		return Vortex(g, 45, 180, 5e-5, 12)
	},
	"rossby-haurwitz": func(g Grid) *mat.Dense {
		return RossbyHaurwitz(g, 4, 7.848e-6, 7.848e-6)
	},
	"solid-body": func(g Grid) *mat.Dense {
		return SolidBody(g, 1e-5)
	},
	"jet": func(g Grid) *mat.Dense {
		return ZonalJet(g, 45, 8, 40, 6, 0.05)
	},
	"zero": Zero,
}

// Get returns the named initial condition.
func Get(name string) (Func, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown initial condition: %s", name)
	}
	return f, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
