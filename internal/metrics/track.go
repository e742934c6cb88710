package metrics

import (
	"math"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/sphere"
)

// Fix is one vortex position along a track.
type Fix struct {
	Time float64
	Center
}

// VortexTrack follows the centroid of a single vortex through a run. Its
// value is the great-circle displacement in degrees from the first fix.
type VortexTrack struct {
	tr    dynamo.Transformer
	lats  []float64
	lons  []float64
	sign  float64
	fixes []Fix
}

// NewVortexTrack tracks the vortex whose sign·ζ is positive.
func NewVortexTrack(tr dynamo.Transformer, sign float64) *VortexTrack {
	_, nlon := tr.Shape()
	return &VortexTrack{
		tr:   tr,
		lats: tr.Latitudes(),
		lons: sphere.Longitudes(nlon),
		sign: sign,
	}
}

func (v *VortexTrack) Name() string { return "vortex_displacement" }

func (v *VortexTrack) Observe(st *dynamo.State) {
	g, err := v.tr.ToGrid(st.Current)
	if err != nil {
		return
	}
	v.fixes = append(v.fixes, Fix{Time: st.Time, Center: Centroid(g, v.lats, v.lons, v.sign)})
}

func (v *VortexTrack) Value() float64 {
	if len(v.fixes) < 2 {
		return 0
	}
	a, b := v.fixes[0], v.fixes[len(v.fixes)-1]
	return Distance(a.Center, b.Center)
}

func (v *VortexTrack) Reset() { v.fixes = v.fixes[:0] }

// Fixes returns the recorded track.
func (v *VortexTrack) Fixes() []Fix {
	return append([]Fix(nil), v.fixes...)
}

// Distance is the great-circle separation of two centres in degrees.
func Distance(a, b Center) float64 {
	la, lb := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dl := (b.Lon - a.Lon) * math.Pi / 180
	c := math.Sin(la)*math.Sin(lb) + math.Cos(la)*math.Cos(lb)*math.Cos(dl)
	return math.Acos(math.Max(-1, math.Min(1, c))) * 180 / math.Pi
}
