package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/dynamo"
)

// Enstrophy returns half the global mean of ζ², ½⟨ζ²⟩.
func Enstrophy(vrt dynamo.Spectral) float64 {
	return vrt.SquaredNorm() / 4
}

// KineticEnergy returns the global mean kinetic energy per unit mass,
// ½⟨u²+v²⟩ = ½⟨ζ²a²/(n(n+1))⟩ summed mode by mode.
func KineticEnergy(vrt dynamo.Spectral, radius float64) float64 {
	a2 := radius * radius
	sum := 0.0
	for m := 0; m <= vrt.Trunc; m++ {
		w := 2.0
		if m == 0 {
			w = 1.0
		}
		for n := max(m, 1); n <= vrt.Trunc; n++ {
			c := vrt.At(m, n)
			sum += w * (real(c)*real(c) + imag(c)*imag(c)) * a2 / float64(n*(n+1))
		}
	}
	return sum / 4
}

// MaxAbs returns the largest absolute value of a grid field.
func MaxAbs(g *mat.Dense) float64 {
	raw := g.RawMatrix()
	if raw.Rows == 0 {
		return 0
	}
	hi, lo := math.Inf(-1), math.Inf(1)
	for j := 0; j < raw.Rows; j++ {
		row := raw.Data[j*raw.Stride : j*raw.Stride+raw.Cols]
		hi = math.Max(hi, floats.Max(row))
		lo = math.Min(lo, floats.Min(row))
	}
	return math.Max(math.Abs(hi), math.Abs(lo))
}

// Center is a vortex position in degrees with its peak vorticity.
type Center struct {
	Lat, Lon float64
	Peak     float64
}

// Centroid locates the vortex of the given sign (+1 cyclonic in the
// northern hemisphere) as the area-weighted centroid of the region where
// sign·ζ exceeds half its maximum. Longitudes are averaged on the circle
// and returned in [0, 360).
func Centroid(g *mat.Dense, lats, lons []float64, sign float64) Center {
	nlat, nlon := g.Dims()
	f := mat.DenseCopyOf(g)
	f.Scale(sign, f)

	peak := math.Inf(-1)
	for j := 0; j < nlat; j++ {
		peak = math.Max(peak, floats.Max(f.RawRowView(j)))
	}
	if !(peak > 0) {
		return Center{Lat: math.NaN(), Lon: math.NaN(), Peak: peak}
	}
	thr := peak / 2

	var sw, slat, sx, sy float64
	for j := 0; j < nlat; j++ {
		area := math.Cos(lats[j])
		row := f.RawRowView(j)
		for i := 0; i < nlon; i++ {
			if row[i] <= thr {
				continue
			}
			w := (row[i] - thr) * area
			sw += w
			slat += w * lats[j]
			sx += w * math.Cos(lons[i])
			sy += w * math.Sin(lons[i])
		}
	}

	lon := math.Atan2(sy, sx) * 180 / math.Pi
	if lon < 0 {
		lon += 360
	}
	return Center{Lat: slat / sw * 180 / math.Pi, Lon: lon, Peak: peak}
}

// LonDiff returns b-a in degrees wrapped to (-180, 180].
func LonDiff(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
