package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/integrators"
	"github.com/san-kum/barosim/internal/metrics"
	"github.com/san-kum/barosim/internal/sim"
	"github.com/san-kum/barosim/internal/sphere"
)

type Registry struct {
	integrators map[string]func(cfg sim.Config) dynamo.Integrator
	metrics     map[string]func(eng *sphere.Engine) dynamo.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func(sim.Config) dynamo.Integrator),
		metrics:     make(map[string]func(*sphere.Engine) dynamo.Metric),
	}

	r.integrators["leapfrog"] = func(cfg sim.Config) dynamo.Integrator {
		return &integrators.Leapfrog{Alpha: cfg.RobertCoefficient, Williams: cfg.Williams}
	}
	r.integrators["euler"] = func(sim.Config) dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func(sim.Config) dynamo.Integrator { return integrators.NewRK4() }

	r.metrics["enstrophy"] = func(*sphere.Engine) dynamo.Metric { return metrics.NewEnstrophy() }
	r.metrics["kinetic_energy"] = func(e *sphere.Engine) dynamo.Metric { return metrics.NewEnergy(e.Radius()) }
	r.metrics["enstrophy_growth"] = func(*sphere.Engine) dynamo.Metric { return metrics.NewEnstrophyGrowth() }
	r.metrics["stability"] = func(*sphere.Engine) dynamo.Metric { return metrics.NewStability(1e-2) }
	r.metrics["vortex_displacement"] = func(e *sphere.Engine) dynamo.Metric { return metrics.NewVortexTrack(e, 1) }

	return r
}

func (r *Registry) GetIntegrator(name string, cfg sim.Config) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) GetMetric(name string, eng *sphere.Engine) (dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(eng), nil
}

func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListMetrics() []string     { return sortedKeys(r.metrics) }

// DefaultMetrics are recorded for every run.
func (r *Registry) DefaultMetrics(eng *sphere.Engine) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewEnstrophy(),
		metrics.NewEnergy(eng.Radius()),
		metrics.NewEnstrophyGrowth(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
