package optim

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/metrics"
	"github.com/san-kum/barosim/internal/sim"
)

// StepSearch looks for the largest stable time step by bracketing. Each
// round runs Probes time steps inside the current bracket concurrently and
// keeps the sub-interval in which stability is lost.
type StepSearch struct {
	// Lo must be stable and Hi is the largest step considered.
	Lo, Hi float64
	// Steps is the integration length of every probe.
	Steps  int
	Probes int
	// Tol is the bracket width relative to its stable end at which the
	// search stops.
	Tol float64
	// GrowthLimit bounds the relative enstrophy growth of a stable run.
	// Zero means only a step failure counts as unstable.
	GrowthLimit float64
	Workers     int
}

// Bracket is the search result: Stable passed, Unstable failed.
// Unstable is +Inf when Hi itself was stable.
type Bracket struct {
	Stable   float64
	Unstable float64
	Rounds   int
	Probes   int
}

func (b Bracket) String() string {
	return fmt.Sprintf("stable dt=%.1fs, unstable dt=%.1fs (%d rounds, %d runs)", b.Stable, b.Unstable, b.Rounds, b.Probes)
}

func DefaultStepSearch() StepSearch {
	return StepSearch{Lo: 300, Hi: 21600, Steps: 400, Probes: 3, Tol: 0.05}
}

func (s StepSearch) validate() error {
	if !(s.Lo > 0) || !(s.Hi > s.Lo) {
		return dynamo.Invalidf("need 0 < lo < hi, got lo=%g hi=%g", s.Lo, s.Hi)
	}
	if s.Steps < 1 || s.Probes < 1 {
		return dynamo.Invalidf("steps and probes must be positive, got %d and %d", s.Steps, s.Probes)
	}
	if !(s.Tol > 0) {
		return dynamo.Invalidf("tolerance must be positive, got %g", s.Tol)
	}
	return nil
}

// Search runs the bracketing search for cfg with every field but Dt held
// fixed, starting each probe from vrt.
func (s StepSearch) Search(ctx context.Context, cfg sim.Config, vrt *mat.Dense) (Bracket, error) {
	if err := s.validate(); err != nil {
		return Bracket{}, err
	}
	ens := sim.NewEnsemble(vrt, func() sim.Option {
		return sim.WithMetric(metrics.NewEnstrophyGrowth())
	})
	ens.SetWorkers(s.Workers)

	b := Bracket{}
	ok, err := s.probe(ctx, ens, cfg, []float64{s.Lo, s.Hi}, &b)
	if err != nil {
		return b, err
	}
	if !ok[0] {
		return b, fmt.Errorf("optim: lower bound dt=%g is already unstable", s.Lo)
	}
	if ok[1] {
		b.Stable, b.Unstable = s.Hi, math.Inf(1)
		return b, nil
	}

	lo, hi := s.Lo, s.Hi
	for (hi-lo)/lo > s.Tol {
		dts := make([]float64, s.Probes)
		for i := range dts {
			dts[i] = lo + (hi-lo)*float64(i+1)/float64(s.Probes+1)
		}
		ok, err := s.probe(ctx, ens, cfg, dts, &b)
		if err != nil {
			return b, err
		}
		b.Rounds++

		for i, dt := range dts {
			if !ok[i] {
				hi = dt
				break
			}
			lo = dt
		}
	}
	b.Stable, b.Unstable = lo, hi
	return b, nil
}

func (s StepSearch) probe(ctx context.Context, ens *sim.Ensemble, cfg sim.Config, dts []float64, b *Bracket) ([]bool, error) {
	members := make([]sim.Member, len(dts))
	for i, dt := range dts {
		c := cfg
		c.Dt = dt
		members[i] = sim.Member{Name: fmt.Sprintf("dt=%g", dt), Config: c}
	}

	out, err := ens.Run(ctx, members, s.Steps)
	if err != nil {
		return nil, err
	}
	b.Probes += len(dts)

	ok := make([]bool, len(out))
	for i, o := range out {
		if o.Model == nil {
			return nil, o.Err
		}
		ok[i] = o.Err == nil && s.bounded(o.Model)
	}
	return ok, nil
}

func (s StepSearch) bounded(m *sim.Model) bool {
	if s.GrowthLimit <= 0 {
		return true
	}
	return m.Metrics()["enstrophy_growth"] <= s.GrowthLimit
}
