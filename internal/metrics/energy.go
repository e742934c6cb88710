package metrics

import (
	"math"

	"github.com/san-kum/barosim/internal/dynamo"
)

// Energy reports the latest global mean kinetic energy (m²/s²).
type Energy struct {
	name   string
	radius float64
	value  float64
}

func NewEnergy(radius float64) *Energy {
	return &Energy{name: "kinetic_energy", radius: radius}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(st *dynamo.State) {
	e.value = KineticEnergy(st.Current, e.radius)
}

func (e *Energy) Value() float64 { return e.value }
func (e *Energy) Reset()         { e.value = 0 }

// EnstrophyMetric reports the latest enstrophy (s⁻²).
type EnstrophyMetric struct {
	value float64
}

func NewEnstrophy() *EnstrophyMetric { return &EnstrophyMetric{} }

func (e *EnstrophyMetric) Name() string { return "enstrophy" }

func (e *EnstrophyMetric) Observe(st *dynamo.State) {
	e.value = Enstrophy(st.Current)
}

func (e *EnstrophyMetric) Value() float64 { return e.value }
func (e *EnstrophyMetric) Reset()         { e.value = 0 }

// EnstrophyGrowth is the largest relative enstrophy increase over the
// first observed value. A diffusive, unforced run should keep it near zero.
type EnstrophyGrowth struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnstrophyGrowth() *EnstrophyGrowth { return &EnstrophyGrowth{} }

func (e *EnstrophyGrowth) Name() string { return "enstrophy_growth" }

func (e *EnstrophyGrowth) Observe(st *dynamo.State) {
	z := Enstrophy(st.Current)
	if e.samples == 0 {
		e.initial = z
	}
	e.samples++

	if e.initial != 0 {
		e.maxDrift = math.Max(e.maxDrift, (z-e.initial)/e.initial)
	}
}

func (e *EnstrophyGrowth) Value() float64 { return e.maxDrift }

func (e *EnstrophyGrowth) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
