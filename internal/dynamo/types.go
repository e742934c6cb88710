package dynamo

import "gonum.org/v1/gonum/mat"

// Phase is the integrator state machine position carried by a State.
type Phase int

const (
	// Uninitialized means no previous time level exists yet.
	Uninitialized Phase = iota
	// Stepping means Previous holds the filtered state at t-dt.
	Stepping
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Stepping:
		return "stepping"
	}
	return "unknown"
}

// State is the minimal data needed to step the model forward: the spectral
// vorticity at the current and previous time levels plus the clock.
type State struct {
	Current  Spectral
	Previous Spectral
	Time     float64
	Step     int
	Phase    Phase
}

// NewState starts a run from spectral vorticity vrt. Previous is set to
// Current so that lagged terms see a consistent field on the first step.
func NewState(vrt Spectral) *State {
	return &State{
		Current:  vrt.Clone(),
		Previous: vrt.Clone(),
		Phase:    Uninitialized,
	}
}

func (s *State) Clone() *State {
	c := *s
	c.Current = s.Current.Clone()
	c.Previous = s.Previous.Clone()
	return &c
}

func (s *State) IsValid() bool {
	return s.Current.IsFinite() && s.Previous.IsFinite()
}

// Transformer is the spherical-harmonic transform capability at a fixed
// truncation and grid.
type Transformer interface {
	Truncation() int
	Shape() (nlat, nlon int)
	Radius() float64
	// Latitudes returns the grid latitudes in radians, north to south.
	Latitudes() []float64
	ToSpectral(g *mat.Dense) (Spectral, error)
	ToGrid(s Spectral) (*mat.Dense, error)
	// VorticityToVelocity returns the non-divergent wind (m/s) induced by vrt.
	VorticityToVelocity(vrt Spectral) (u, v *mat.Dense, err error)
	// Gradient returns ∂f/∂λ and ∂f/∂φ per radian.
	Gradient(s Spectral) (dlam, dphi *mat.Dense, err error)
}

// System computes the spectral vorticity tendency of a model state.
type System interface {
	Tendency(st *State, dt float64) (Spectral, error)
}

// Integrator advances st by one step of size dt in place.
type Integrator interface {
	Step(sys System, st *State, dt float64) error
}

// Observer is notified after every successful step.
type Observer interface {
	OnStep(st *State) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(st *State) error

func (f ObserverFunc) OnStep(st *State) error { return f(st) }

type Metric interface {
	Name() string
	Observe(st *State)
	Value() float64
	Reset()
}
