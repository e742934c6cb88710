package integrators

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/san-kum/barosim/internal/dynamo"
)

// linearSystem has tendency rate·ζ for every mode.
type linearSystem struct{ rate complex128 }

func (s linearSystem) Tendency(st *dynamo.State, _ float64) (dynamo.Spectral, error) {
	out := dynamo.NewSpectral(st.Current.Trunc)
	for i, c := range st.Current.Coeffs {
		out.Coeffs[i] = s.rate * c
	}
	return out, nil
}

// constSystem returns the same tendency regardless of state.
type constSystem struct{ tend dynamo.Spectral }

func (s constSystem) Tendency(*dynamo.State, float64) (dynamo.Spectral, error) {
	return s.tend.Clone(), nil
}

type failingSystem struct{ err error }

func (s failingSystem) Tendency(*dynamo.State, float64) (dynamo.Spectral, error) {
	return dynamo.Spectral{}, s.err
}

func field(c ...complex128) dynamo.Spectral {
	s := dynamo.NewSpectral(1)
	copy(s.Coeffs, c)
	return s
}

func near(a, b complex128, tol float64) bool {
	return cmplx.Abs(a-b) <= tol
}

func TestLeapfrog_Validate(t *testing.T) {
	tests := []struct {
		name     string
		alpha, w float64
		valid    bool
	}{
		{"default", 0.04, 1, true},
		{"no filter", 0, 1, true},
		{"raw", 0.1, 0.53, true},
		{"negative alpha", -0.01, 1, false},
		{"alpha too large", 0.5, 1, false},
		{"zero williams", 0.04, 0, false},
		{"williams above one", 0.04, 1.2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Leapfrog{Alpha: tt.alpha, Williams: tt.w}).Validate()
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, dynamo.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestLeapfrog_FirstTwoSteps(t *testing.T) {
	alpha, dt := 0.1, 2.0
	c := complex(0.5, -0.25)
	sys := constSystem{tend: field(c, 0, 0)}
	integ := NewLeapfrog(alpha)

	st := dynamo.NewState(field(1, 0, 0))
	if err := integ.Step(sys, st, dt); err != nil {
		t.Fatalf("first step: %v", err)
	}

	cur1 := 1 + complex(dt, 0)*c
	prev1 := 1 + complex(alpha*dt, 0)*c
	if !near(st.Current.Coeffs[0], cur1, 1e-14) {
		t.Errorf("first step current = %v, want forward Euler %v", st.Current.Coeffs[0], cur1)
	}
	if !near(st.Previous.Coeffs[0], prev1, 1e-14) {
		t.Errorf("first step previous = %v, want filtered %v", st.Previous.Coeffs[0], prev1)
	}
	if st.Phase != dynamo.Stepping || st.Step != 1 || st.Time != dt {
		t.Errorf("clock after first step: phase=%v step=%d time=%g", st.Phase, st.Step, st.Time)
	}

	if err := integ.Step(sys, st, dt); err != nil {
		t.Fatalf("second step: %v", err)
	}
	next := prev1 + complex(2*dt, 0)*c
	filtered := cur1 + complex(alpha, 0)*(next-2*cur1+prev1)
	if !near(st.Current.Coeffs[0], next, 1e-14) {
		t.Errorf("second step current = %v, want %v", st.Current.Coeffs[0], next)
	}
	if !near(st.Previous.Coeffs[0], filtered, 1e-14) {
		t.Errorf("second step previous = %v, want %v", st.Previous.Coeffs[0], filtered)
	}
	if st.Step != 2 || st.Time != 2*dt {
		t.Errorf("clock after second step: step=%d time=%g", st.Step, st.Time)
	}
}

func TestLeapfrog_Oscillation(t *testing.T) {
	omega, dt, steps := 1.0, 0.1, 100
	sys := linearSystem{rate: complex(0, omega)}
	integ := NewLeapfrog(0.01)

	st := dynamo.NewState(field(0, 0, 1))
	for i := 0; i < steps; i++ {
		if err := integ.Step(sys, st, dt); err != nil {
			t.Fatal(err)
		}
	}

	want := cmplx.Exp(complex(0, omega*float64(steps)*dt))
	if got := st.Current.Coeffs[2]; !near(got, want, 0.05) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLeapfrog_FilterDampsComputationalMode(t *testing.T) {
	zero := constSystem{tend: field(0, 0, 0)}

	run := func(alpha float64) *dynamo.State {
		st := &dynamo.State{
			Current:  field(-1, 1, 0),
			Previous: field(1, 1, 0),
			Phase:    dynamo.Stepping,
		}
		integ := NewLeapfrog(alpha)
		for i := 0; i < 100; i++ {
			if err := integ.Step(zero, st, 1); err != nil {
				t.Fatal(err)
			}
		}
		return st
	}

	unfiltered := run(0)
	if math.Abs(real(unfiltered.Current.Coeffs[0])) != 1 {
		t.Errorf("without filter the 2Δt mode should persist, got %v", unfiltered.Current.Coeffs[0])
	}

	filtered := run(0.1)
	if a := cmplx.Abs(filtered.Current.Coeffs[0] - filtered.Previous.Coeffs[0]); a > 1e-6 {
		t.Errorf("filter left computational mode amplitude %g", a)
	}
	if filtered.Current.Coeffs[1] != 1 || filtered.Previous.Coeffs[1] != 1 {
		t.Errorf("steady mode changed: current=%v previous=%v", filtered.Current.Coeffs[1], filtered.Previous.Coeffs[1])
	}
}

func TestLeapfrog_RAWConservesMean(t *testing.T) {
	sys := linearSystem{rate: complex(0, 0.3)}
	integ := &Leapfrog{Alpha: 0.2, Williams: 0.5}

	st := dynamo.NewState(field(0, 0, 1))
	if err := integ.Step(sys, st, 1); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		cur, prev := st.Current.Coeffs[2], st.Previous.Coeffs[2]
		tend := complex(0, 0.3) * cur
		unfilteredNext := prev + 2*tend

		if err := integ.Step(sys, st, 1); err != nil {
			t.Fatal(err)
		}
		before := cur + unfilteredNext
		after := st.Previous.Coeffs[2] + st.Current.Coeffs[2]
		if !near(before, after, 1e-14) {
			t.Fatalf("step %d: RAW filter changed the two-level sum: %v -> %v", i, before, after)
		}
	}
}

func TestLeapfrog_NonFinite(t *testing.T) {
	sys := constSystem{tend: field(complex(math.Inf(1), 0), 0, 0)}
	integ := NewLeapfrog(0.04)

	st := dynamo.NewState(field(1, 2, 3))
	snapshot := st.Clone()

	err := integ.Step(sys, st, 1)
	if !errors.Is(err, dynamo.ErrNonFiniteState) {
		t.Fatalf("expected ErrNonFiniteState, got %v", err)
	}
	if st.Step != 0 || st.Phase != dynamo.Uninitialized || st.Current.Coeffs[0] != snapshot.Current.Coeffs[0] {
		t.Error("state modified by a failed step")
	}
}

func TestIntegrators_PropagateTendencyError(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		integ dynamo.Integrator
	}{
		{"leapfrog", NewLeapfrog(0.04)},
		{"euler", NewEuler()},
		{"rk4", NewRK4()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := dynamo.NewState(field(1, 0, 0))
			if err := tt.integ.Step(failingSystem{boom}, st, 1); !errors.Is(err, boom) {
				t.Errorf("expected wrapped tendency error, got %v", err)
			}
			if st.Step != 0 {
				t.Error("step counter advanced on failure")
			}
		})
	}
}

func TestEuler_Decay(t *testing.T) {
	k, dt, steps := 0.5, 0.1, 20
	integ := NewEuler()
	st := dynamo.NewState(field(2, 0, 0))

	for i := 0; i < steps; i++ {
		if err := integ.Step(linearSystem{rate: complex(-k, 0)}, st, dt); err != nil {
			t.Fatal(err)
		}
	}

	want := 2 * math.Pow(1-k*dt, float64(steps))
	if got := real(st.Current.Coeffs[0]); math.Abs(got-want) > 1e-12 {
		t.Errorf("got %g, want %g", got, want)
	}
}

func TestRK4_Oscillation(t *testing.T) {
	omega, dt, steps := 1.0, 0.1, 100
	integ := NewRK4()
	st := dynamo.NewState(field(0, 0, 1))

	for i := 0; i < steps; i++ {
		if err := integ.Step(linearSystem{rate: complex(0, omega)}, st, dt); err != nil {
			t.Fatal(err)
		}
	}

	want := cmplx.Exp(complex(0, omega*float64(steps)*dt))
	if got := st.Current.Coeffs[2]; !near(got, want, 1e-4) {
		t.Errorf("got %v, want %v", got, want)
	}
	if math.Abs(st.Time-float64(steps)*dt) > 1e-12 {
		t.Errorf("time = %g", st.Time)
	}
}

// recordingSystem keeps every state it is handed together with a copy of
// its vorticity at the time of the call.
type recordingSystem struct {
	linearSystem
	seen  []*dynamo.State
	saved []dynamo.Spectral
}

func (s *recordingSystem) Tendency(st *dynamo.State, dt float64) (dynamo.Spectral, error) {
	s.seen = append(s.seen, st)
	s.saved = append(s.saved, st.Current.Clone())
	return s.linearSystem.Tendency(st, dt)
}

func TestRK4_StagesAreNotReused(t *testing.T) {
	sys := &recordingSystem{linearSystem: linearSystem{rate: -1}}
	integ := NewRK4()
	st := dynamo.NewState(field(1, 2, 3))

	for i := 0; i < 2; i++ {
		if err := integ.Step(sys, st, 0.1); err != nil {
			t.Fatal(err)
		}
	}
	if len(sys.seen) != 8 {
		t.Fatalf("got %d tendency calls, want 8", len(sys.seen))
	}
	for i, stage := range sys.seen {
		for j, c := range stage.Current.Coeffs {
			if c != sys.saved[i].Coeffs[j] {
				t.Fatalf("stage %d was overwritten by a later call", i)
			}
		}
	}
}
