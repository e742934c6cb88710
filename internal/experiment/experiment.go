package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/barosim/internal/config"
	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/ncio"
	"github.com/san-kum/barosim/internal/sim"
	"github.com/san-kum/barosim/internal/storage"
)

// Experiment runs one configured forecast: it builds the model, records
// diagnostics after every step and writes snapshots to NetCDF when an
// output path is configured.
type Experiment struct {
	cfg   *config.Config
	reg   *Registry
	model *sim.Model
	diag  *storage.Diagnostics
}

// Result summarizes a finished or failed run.
type Result struct {
	Steps       int
	Time        float64
	ValidTime   time.Time
	Snapshots   int
	Metrics     map[string]float64
	Diagnostics *storage.Diagnostics
}

func New(cfg *config.Config, reg *Registry) *Experiment {
	return &Experiment{cfg: cfg, reg: reg}
}

// Setup builds the model. Extra metrics are looked up by name in the
// registry and recorded along with the defaults.
func (e *Experiment) Setup(extra ...string) error {
	mc, err := e.cfg.ModelConfig()
	if err != nil {
		return err
	}
	integ, err := e.reg.GetIntegrator(e.cfg.Integrator, mc)
	if err != nil {
		return err
	}
	vrt, err := e.cfg.InitialField(e.cfg.Grid())
	if err != nil {
		return err
	}

	m, err := sim.New(mc, vrt, sim.WithIntegrator(integ))
	if err != nil {
		return err
	}
	for _, mt := range e.reg.DefaultMetrics(m.Grid()) {
		m.AddMetric(mt)
	}
	for _, name := range extra {
		mt, err := e.reg.GetMetric(name, m.Grid())
		if err != nil {
			return err
		}
		m.AddMetric(mt)
	}

	e.diag = &storage.Diagnostics{}
	e.diag.Append(m.Time(), m.Metrics())
	m.AddObserver(dynamo.ObserverFunc(func(st *dynamo.State) error {
		e.diag.Append(st.Time, m.Metrics())
		return nil
	}))
	e.model = m
	return nil
}

// Model returns the model built by Setup.
func (e *Experiment) Model() *sim.Model { return e.model }

// Run integrates for the configured run time. hook, if set, is called at
// every snapshot after the snapshot is written. The result is returned
// even when the run fails.
func (e *Experiment) Run(ctx context.Context, hook sim.Hook) (*Result, error) {
	if e.model == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	m := e.model
	pol := e.cfg.SnapshotPolicy()

	var out *ncio.SnapshotWriter
	if e.cfg.Output != "" {
		records := pol.Count(m.Time(), m.Config().Dt, e.cfg.RunTime)
		if records > 0 {
			var err error
			out, err = ncio.Create(e.cfg.Output, m.Grid(), records, ncio.Meta{
				Start: m.Config().StartTime,
				Dt:    m.Config().Dt,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	snapshots := 0
	runErr := m.RunFor(ctx, e.cfg.RunTime, pol, func(st *dynamo.State) error {
		if out != nil {
			if err := out.Write(st); err != nil {
				return err
			}
		}
		snapshots++
		if hook != nil {
			return hook(st)
		}
		return nil
	})
	if out != nil {
		if err := out.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}

	return &Result{
		Steps:       m.StepIndex(),
		Time:        m.Time(),
		ValidTime:   m.ValidTime(),
		Snapshots:   snapshots,
		Metrics:     m.Metrics(),
		Diagnostics: e.diag,
	}, runErr
}

// Metadata describes the run for the run store.
func (e *Experiment) Metadata(res *Result, runErr error) storage.RunMetadata {
	nlat, nlon := e.cfg.Grid().Shape()
	meta := storage.RunMetadata{
		Initial:        e.cfg.Initial,
		Truncation:     e.cfg.Truncation,
		NLat:           nlat,
		NLon:           nlon,
		Dt:             e.cfg.Dt,
		RunTime:        e.cfg.RunTime,
		Integrator:     e.cfg.Integrator,
		Diffusion:      e.cfg.Physics.Diffusion,
		DiffusionOrder: e.cfg.Physics.DiffusionOrder,
		Robert:         e.cfg.Filter.Robert,
		Output:         e.cfg.Output,
	}
	if start, err := e.cfg.Start(); err == nil {
		meta.StartTime = start
	}
	if res != nil {
		meta.Steps = res.Steps
		meta.Metrics = res.Metrics
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}
	return meta
}
