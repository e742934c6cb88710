package experiment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/barosim/internal/config"
	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/ncio"
	"github.com/san-kum/barosim/internal/sim"
)

func shortRun() *config.Config {
	cfg := config.DefaultConfig()
	cfg.RunTime = 10 * cfg.Dt
	cfg.Snapshot = config.SnapshotConfig{Interval: 4 * cfg.Dt}
	return cfg
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if got := r.ListIntegrators(); len(got) != 3 || got[0] != "euler" {
		t.Errorf("integrators = %v", got)
	}
	for _, name := range r.ListIntegrators() {
		if _, err := r.GetIntegrator(name, sim.DefaultConfig()); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := r.GetIntegrator("verlet", sim.DefaultConfig()); err == nil {
		t.Error("expected an error for an unknown integrator")
	}
	if _, err := r.GetMetric("nonexistent", nil); err == nil {
		t.Error("expected an error for an unknown metric")
	}
}

func TestRun_RecordsDiagnosticsAndSnapshots(t *testing.T) {
	cfg := shortRun()
	cfg.Output = filepath.Join(t.TempDir(), "run.nc")

	e := New(cfg, NewRegistry())
	if _, err := e.Run(context.Background(), nil); err == nil {
		t.Fatal("expected an error before Setup")
	}
	if err := e.Setup("vortex_displacement", "stability"); err != nil {
		t.Fatal(err)
	}

	var hooked []float64
	res, err := e.Run(context.Background(), func(st *dynamo.State) error {
		hooked = append(hooked, st.Time)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.Steps != 10 || res.Snapshots != 2 || len(hooked) != 2 {
		t.Errorf("steps=%d snapshots=%d hooked=%v", res.Steps, res.Snapshots, hooked)
	}
	if n := len(res.Diagnostics.Times); n != 11 {
		t.Errorf("diagnostics rows = %d, want 11", n)
	}
	if _, ok := res.Metrics["vortex_displacement"]; !ok {
		t.Error("extra metric not recorded")
	}

	r, err := ncio.Open(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	times, err := r.Times()
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 2 || times[0] != 4*cfg.Dt || times[1] != 8*cfg.Dt {
		t.Errorf("snapshot times = %v", times)
	}

	meta := e.Metadata(res, nil)
	if meta.Steps != 10 || meta.NLat != 32 || meta.Error != "" {
		t.Errorf("metadata = %+v", meta)
	}
}

func TestRun_Failure(t *testing.T) {
	cfg := shortRun()
	cfg.Dt = 1e5
	cfg.RunTime = 2000 * cfg.Dt

	e := New(cfg, NewRegistry())
	if err := e.Setup(); err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background(), nil)
	if !errors.Is(err, dynamo.ErrNonFiniteState) {
		t.Fatalf("expected ErrNonFiniteState, got %v", err)
	}
	if res == nil || res.Steps >= 2000 {
		t.Fatalf("unexpected result %+v", res)
	}
	if meta := e.Metadata(res, err); meta.Error == "" {
		t.Error("failure missing from metadata")
	}
}

func TestSetup_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		extra  []string
	}{
		{"unknown integrator", func(c *config.Config) { c.Integrator = "verlet" }, nil},
		{"unknown initial", func(c *config.Config) { c.Initial = "nonexistent" }, nil},
		{"unknown metric", func(c *config.Config) {}, []string{"nonexistent"}},
		{"bad start time", func(c *config.Config) { c.StartTime = "noon" }, nil},
		{"invalid model", func(c *config.Config) { c.Dt = -1 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := shortRun()
			tt.mutate(cfg)
			if err := New(cfg, NewRegistry()).Setup(tt.extra...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
