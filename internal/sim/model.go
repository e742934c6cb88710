package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/integrators"
	"github.com/san-kum/barosim/internal/physics"
	"github.com/san-kum/barosim/internal/sphere"
)

// Model drives the barotropic vorticity equation. It is not safe for
// concurrent use; run independent models for parallel work.
type Model struct {
	cfg    Config
	engine *sphere.Engine
	sys    *physics.Barotropic
	integ  dynamo.Integrator
	state  *dynamo.State

	metrics   []dynamo.Metric
	observers []dynamo.Observer

	// err latches the first step failure.
	err error
}

// New builds a model on the Gaussian grid implied by vrt's shape and sets
// its initial state from vrt.
func New(cfg Config, vrt *mat.Dense, opts ...Option) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if vrt == nil {
		return nil, fmt.Errorf("%w: nil initial vorticity", dynamo.ErrGridMismatch)
	}

	nlat, nlon := vrt.Dims()
	eng, err := sphere.New(cfg.Truncation, nlat, nlon, cfg.Radius)
	if err != nil {
		return nil, err
	}
	sys, err := physics.NewBarotropic(eng, cfg.params())
	if err != nil {
		return nil, err
	}

	m := &Model{
		cfg:    cfg,
		engine: eng,
		sys:    sys,
		integ:  &integrators.Leapfrog{Alpha: cfg.RobertCoefficient, Williams: cfg.Williams},
	}
	for _, opt := range opts {
		opt(m)
	}
	if v, ok := m.integ.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	if err := m.SetState(vrt); err != nil {
		return nil, err
	}
	return m, nil
}

// SetState replaces the vorticity with the truncated projection of vrt.
// The previous level is set equal to the current one and the next step is
// a forward step. The clock is kept, a latched failure is cleared and
// metrics restart from the new state.
func (m *Model) SetState(vrt *mat.Dense) error {
	s, err := m.engine.ToSpectral(vrt)
	if err != nil {
		return err
	}
	return m.SetSpectralState(s)
}

// SetSpectralState is SetState for a spectral field. Fields at a lower
// truncation are zero-padded.
func (m *Model) SetSpectralState(s dynamo.Spectral) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Trunc > m.cfg.Truncation {
		return fmt.Errorf("%w: T%d above model truncation T%d", dynamo.ErrTruncationMismatch, s.Trunc, m.cfg.Truncation)
	}

	st := dynamo.NewState(s.Truncate(m.cfg.Truncation))
	if m.state != nil {
		st.Time = m.state.Time
		st.Step = m.state.Step
	}
	m.state = st
	m.err = nil
	for _, mt := range m.metrics {
		mt.Reset()
		mt.Observe(m.state)
	}
	return nil
}

// Step advances the model by one time step and returns the new model time.
func (m *Model) Step() (float64, error) {
	if m.err != nil {
		return m.state.Time, fmt.Errorf("model failed earlier: %w", m.err)
	}

	if err := m.integ.Step(m.sys, m.state, m.cfg.Dt); err != nil {
		m.err = &dynamo.StepError{Step: m.state.Step + 1, Time: m.state.Time, Wrapped: err}
		return m.state.Time, m.err
	}

	for _, mt := range m.metrics {
		mt.Observe(m.state)
	}
	for _, o := range m.observers {
		if err := o.OnStep(m.state); err != nil {
			return m.state.Time, err
		}
	}
	return m.state.Time, nil
}

// Run advances the model n steps, calling hook after each one. It stops at
// the first step, hook or context error.
func (m *Model) Run(ctx context.Context, n int, hook Hook) error {
	if n < 0 {
		return dynamo.Invalidf("step count must be non-negative, got %d", n)
	}
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := m.Step(); err != nil {
			return err
		}
		if hook != nil {
			if err := hook(m.state); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunFor advances the model by runTime seconds, rounded up to whole steps,
// and calls hook for the snapshots selected by pol. The step count is taken
// relative to the current model time: a run of exactly k·dt takes k steps,
// not k+1.
func (m *Model) RunFor(ctx context.Context, runTime float64, pol SnapshotPolicy, hook Hook) error {
	if runTime < 0 || math.IsNaN(runTime) {
		return dynamo.Invalidf("run time must be non-negative, got %g", runTime)
	}
	steps, every := pol.schedule(m.cfg.Dt, runTime)

	n := 0
	return m.Run(ctx, steps, func(st *dynamo.State) error {
		n++
		if hook == nil || st.Time <= pol.Start || n%every != 0 {
			return nil
		}
		return hook(st)
	})
}

// AddMetric registers mt and lets it observe the current state at once.
func (m *Model) AddMetric(mt dynamo.Metric) {
	m.metrics = append(m.metrics, mt)
	mt.Observe(m.state)
}

func (m *Model) AddObserver(o dynamo.Observer) { m.observers = append(m.observers, o) }

// Metrics returns the current value of every registered metric.
func (m *Model) Metrics() map[string]float64 {
	out := make(map[string]float64, len(m.metrics))
	for _, mt := range m.metrics {
		out[mt.Name()] = mt.Value()
	}
	return out
}

func (m *Model) Config() Config        { return m.cfg }
func (m *Model) Grid() *sphere.Engine  { return m.engine }
func (m *Model) System() dynamo.System { return m.sys }
func (m *Model) Time() float64         { return m.state.Time }
func (m *Model) StepIndex() int        { return m.state.Step }
func (m *Model) Err() error            { return m.err }
func (m *Model) State() *dynamo.State  { return m.state.Clone() }

// ValidTime is the start time plus the elapsed model time.
func (m *Model) ValidTime() time.Time {
	return m.cfg.StartTime.Add(time.Duration(m.state.Time * float64(time.Second)))
}

// Vorticity returns the current relative vorticity on the grid (s⁻¹).
func (m *Model) Vorticity() (*mat.Dense, error) {
	return m.engine.ToGrid(m.state.Current)
}

// Wind returns the current non-divergent wind on the grid (m/s).
func (m *Model) Wind() (u, v *mat.Dense, err error) {
	return m.engine.VorticityToVelocity(m.state.Current)
}
