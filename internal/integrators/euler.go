package integrators

import "github.com/san-kum/barosim/internal/dynamo"

// Euler is the forward scheme. Previous holds the unfiltered prior level.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, st *dynamo.State, dt float64) error {
	tend, err := sys.Tendency(st, dt)
	if err != nil {
		return err
	}
	next := st.Current.Clone()
	next.AddScaled(dt, tend)
	if !next.IsFinite() {
		return dynamo.ErrNonFiniteState
	}

	st.Previous = st.Current
	st.Current = next
	st.Phase = dynamo.Stepping
	st.Time += dt
	st.Step++
	return nil
}
