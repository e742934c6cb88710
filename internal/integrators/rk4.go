package integrators

import "github.com/san-kum/barosim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta scheme. Each stage is
// evaluated on a two-level state whose previous slot equals the stage
// vorticity, so lagged terms collapse to ordinary ones.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) eval(sys dynamo.System, st *dynamo.State, x dynamo.Spectral, dt float64) (dynamo.Spectral, error) {
	stage := &dynamo.State{Current: x, Previous: x, Time: st.Time, Step: st.Step, Phase: st.Phase}
	return sys.Tendency(stage, dt)
}

func (r *RK4) Step(sys dynamo.System, st *dynamo.State, dt float64) error {
	x := st.Current

	k1, err := r.eval(sys, st, x, dt)
	if err != nil {
		return err
	}

	scratch := x.Clone()
	scratch.AddScaled(0.5*dt, k1)
	k2, err := r.eval(sys, st, scratch, dt)
	if err != nil {
		return err
	}

	scratch = x.Clone()
	scratch.AddScaled(0.5*dt, k2)
	k3, err := r.eval(sys, st, scratch, dt)
	if err != nil {
		return err
	}

	scratch = x.Clone()
	scratch.AddScaled(dt, k3)
	k4, err := r.eval(sys, st, scratch, dt)
	if err != nil {
		return err
	}

	dt6 := dt / 6.0
	next := x.Clone()
	next.AddScaled(dt6, k1)
	next.AddScaled(2*dt6, k2)
	next.AddScaled(2*dt6, k3)
	next.AddScaled(dt6, k4)
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
