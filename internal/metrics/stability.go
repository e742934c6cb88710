package metrics

import (
	"math/cmplx"

	"github.com/san-kum/barosim/internal/dynamo"
)

// Stability is the fraction of observed steps whose largest spectral
// coefficient stayed below threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(st *dynamo.State) {
	s.samples++
	for _, c := range st.Current.Coeffs {
		if cmplx.Abs(c) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
