package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Member is one configuration of an ensemble run. Vorticity, when set,
// replaces the ensemble's shared initial field.
type Member struct {
	Name      string
	Config    Config
	Vorticity *mat.Dense
}

// Outcome is the result of one ensemble member. Err holds a construction
// or step failure; it does not stop the other members.
type Outcome struct {
	Member Member
	Model  *Model
	Err    error
}

// Ensemble runs independent models from a shared initial field, each on
// its own goroutine.
type Ensemble struct {
	vrt     *mat.Dense
	opts    []func() Option
	workers int
}

// NewEnsemble prepares an ensemble. Options are given as factories so that
// stateful integrators and metrics are never shared between members.
func NewEnsemble(vrt *mat.Dense, opts ...func() Option) *Ensemble {
	return &Ensemble{vrt: vrt, opts: opts, workers: runtime.GOMAXPROCS(0)}
}

// SetWorkers bounds the number of members run at once.
func (e *Ensemble) SetWorkers(n int) {
	if n > 0 {
		e.workers = n
	}
}

// Run advances every member by steps and returns outcomes in member order.
// Only context cancellation is returned as an error.
func (e *Ensemble) Run(ctx context.Context, members []Member, steps int) ([]Outcome, error) {
	out := make([]Outcome, len(members))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, mem := range members {
		g.Go(func() error {
			out[i].Member = mem
			opts := make([]Option, len(e.opts))
			for k, f := range e.opts {
				opts[k] = f()
			}

			vrt := e.vrt
			if mem.Vorticity != nil {
				vrt = mem.Vorticity
			}
			m, err := New(mem.Config, vrt, opts...)
			if err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Model = m

			if err := m.Run(ctx, steps, nil); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				out[i].Err = err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
