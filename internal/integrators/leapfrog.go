package integrators

import (
	"fmt"

	"github.com/san-kum/barosim/internal/dynamo"
)

// Leapfrog is the centred three-level scheme with a Robert-Asselin time
// filter. Williams = 1 is the classical filter; values below 1 move part of
// the correction onto the new time level (the RAW filter).
type Leapfrog struct {
	Alpha    float64
	Williams float64
}

func NewLeapfrog(alpha float64) *Leapfrog {
	return &Leapfrog{Alpha: alpha, Williams: 1}
}

func (l *Leapfrog) Validate() error {
	if !(l.Alpha >= 0 && l.Alpha < 0.5) {
		return dynamo.Invalidf("filter coefficient must be in [0, 0.5), got %g", l.Alpha)
	}
	if !(l.Williams > 0 && l.Williams <= 1) {
		return dynamo.Invalidf("williams parameter must be in (0, 1], got %g", l.Williams)
	}
	return nil
}

// Step advances st by dt. The first step from an uninitialized state is a
// forward Euler step; afterwards ζ(t+Δt) = ζ(t-Δt) + 2Δt·T(t) and the
// current level is filtered before it becomes the previous one. st is left
// untouched on error.
func (l *Leapfrog) Step(sys dynamo.System, st *dynamo.State, dt float64) error {
	tend, err := sys.Tendency(st, dt)
	if err != nil {
		return err
	}

	cur := st.Current
	var next, d dynamo.Spectral
	switch st.Phase {
	case dynamo.Uninitialized:
		next = cur.Clone()
		next.AddScaled(dt, tend)
		d = next.Clone()
		d.AddScaled(-1, cur)
	case dynamo.Stepping:
		next = st.Previous.Clone()
		next.AddScaled(2*dt, tend)
		d = next.Clone()
		d.AddScaled(-2, cur)
		d.AddScaled(1, st.Previous)
	default:
		return fmt.Errorf("leapfrog: unknown phase %v", st.Phase)
	}

	filtered := cur.Clone()
	filtered.AddScaled(l.Alpha*l.Williams, d)
	if l.Williams != 1 {
		next.AddScaled(l.Alpha*(l.Williams-1), d)
	}

	if !next.IsFinite() || !filtered.IsFinite() {
		return dynamo.ErrNonFiniteState
	}

	st.Previous = filtered
	st.Current = next
	st.Phase = dynamo.Stepping
	st.Time += dt
	st.Step++
	return nil
}
