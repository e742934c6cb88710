package sim

import (
	"math"
	"time"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/physics"
	"github.com/san-kum/barosim/internal/sphere"
)

// Config holds the model parameters validated by New. The grid size is
// taken from the initial vorticity field.
type Config struct {
	Truncation int
	Dt         float64
	Radius     float64

	Omega          float64
	Diffusion      float64
	DiffusionOrder int
	Forcing        dynamo.Spectral

	// RobertCoefficient is the Robert-Asselin filter strength α.
	RobertCoefficient float64
	// Williams is the RAW filter parameter; 1 disables it.
	Williams float64

	// StartTime only labels output (ValidTime).
	StartTime time.Time
}

func DefaultConfig() Config {
	return Config{
		Truncation:        21,
		Dt:                1200,
		Radius:            sphere.EarthRadius,
		Omega:             physics.EarthOmega,
		Diffusion:         1e-4,
		DiffusionOrder:    4,
		RobertCoefficient: 0.04,
		Williams:          1,
	}
}

func (c Config) Validate() error {
	if c.Truncation <= 0 {
		return dynamo.Invalidf("truncation must be positive, got %d", c.Truncation)
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return dynamo.Invalidf("dt must be positive and finite, got %g", c.Dt)
	}
	if !(c.Radius > 0) {
		return dynamo.Invalidf("radius must be positive, got %g", c.Radius)
	}
	if !(c.Diffusion >= 0) {
		return dynamo.Invalidf("diffusion must be non-negative, got %g", c.Diffusion)
	}
	if c.DiffusionOrder < 1 {
		return dynamo.Invalidf("diffusion order must be at least 1, got %d", c.DiffusionOrder)
	}
	if !(c.RobertCoefficient >= 0 && c.RobertCoefficient < 0.5) {
		return dynamo.Invalidf("robert coefficient must be in [0, 0.5), got %g", c.RobertCoefficient)
	}
	if !(c.Williams > 0 && c.Williams <= 1) {
		return dynamo.Invalidf("williams parameter must be in (0, 1], got %g", c.Williams)
	}
	return nil
}

func (c Config) params() physics.Params {
	return physics.Params{
		Omega:          c.Omega,
		Diffusion:      c.Diffusion,
		DiffusionOrder: c.DiffusionOrder,
		Forcing:        c.Forcing,
	}
}

// Hook is called after every successful step. It must not modify st.
type Hook func(st *dynamo.State) error

// SnapshotPolicy selects the steps RunFor reports. Snapshots start once the
// model time exceeds Start and are Interval seconds apart; an Interval
// shorter than one step means every step.
type SnapshotPolicy struct {
	Start    float64
	Interval float64
}

func (p SnapshotPolicy) schedule(dt, runTime float64) (steps, every int) {
	interval := math.Max(p.Interval, dt)
	every = int(math.Ceil(interval/dt - 1e-9))
	steps = int(math.Ceil(runTime/dt - 1e-9))
	return steps, every
}

// Count returns how many snapshots RunFor reports when a model at time t0
// with step dt runs for runTime seconds.
func (p SnapshotPolicy) Count(t0, dt, runTime float64) int {
	steps, every := p.schedule(dt, runTime)
	count := 0
	for n := every; n <= steps; n += every {
		if t0+float64(n)*dt > p.Start {
			count++
		}
	}
	return count
}

type Option func(*Model)

// WithIntegrator replaces the default leapfrog scheme.
func WithIntegrator(integ dynamo.Integrator) Option {
	return func(m *Model) { m.integ = integ }
}

func WithObserver(o dynamo.Observer) Option {
	return func(m *Model) { m.observers = append(m.observers, o) }
}

func WithMetric(mt dynamo.Metric) Option {
	return func(m *Model) { m.metrics = append(m.metrics, mt) }
}
