package automation

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/barosim/internal/config"
	"github.com/san-kum/barosim/internal/experiment"
	"github.com/san-kum/barosim/internal/initial"
	"github.com/san-kum/barosim/internal/metrics"
	"github.com/san-kum/barosim/internal/sim"
	"github.com/san-kum/barosim/internal/storage"
)

// Scenario defines a scripted sequence of forecasts
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one forecast of a scenario. It starts from the preset
// (or the defaults for Initial) and then applies Params by name.
type ScenarioStep struct {
	Initial string             `yaml:"initial"`
	Preset  string             `yaml:"preset"`
	RunTime float64            `yaml:"run_time"`
	Params  map[string]float64 `yaml:"params"`
	Output  string             `yaml:"output"`
	SaveAs  string             `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step. Err records a failed run;
// RunID is empty when nothing was stored.
type StepResult struct {
	Name   string
	RunID  string
	Result *experiment.Result
	Err    error
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Config resolves the run configuration of a step.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Initial != "" {
		cfg.Initial = s.Initial
	}
	if s.Preset != "" {
		p := config.GetPreset(cfg.Initial, s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", cfg.Initial, s.Preset)
		}
		cfg = p
	}
	if s.RunTime > 0 {
		cfg.RunTime = s.RunTime
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	cfg.Output = s.Output
	return cfg, nil
}

// RunScenario executes all steps in order and stores every run that was
// set up, failed or not. A step that cannot be set up stops the scenario;
// a run that blows up does not.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		log.Printf("running step %d/%d: %s", i+1, len(scenario.Steps), name)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp := experiment.New(cfg, registry)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		res, runErr := exp.Run(ctx, nil)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		if res == nil {
			return results, fmt.Errorf("step %d run: %w", i+1, runErr)
		}
		sr := StepResult{Name: name, Result: res, Err: runErr}
		if store != nil {
			meta := exp.Metadata(res, runErr)
			id, err := store.Save(meta, res.Diagnostics)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			sr.RunID = id
		}
		results = append(results, sr)
	}

	return results, nil
}

// MonteCarloConfig perturbs the initial vortex of Base at random: the
// centre moves by up to PosJitter degrees in each direction and the
// amplitude changes by up to AmpJitter relative.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	PosJitter float64
	AmpJitter float64
	Steps     int
	Seed      int64
	Workers   int
}

// MonteCarloResult holds one trial: its initial vortex and where the
// vortex ended up.
type MonteCarloResult struct {
	TrialID int
	Start   config.VortexConfig
	Final   metrics.Center
	Stable  bool
	Err     error
}

// RunMonteCarlo integrates every trial concurrently. Only cancellation and
// an unusable base configuration are returned as errors; failed trials are
// marked unstable.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 || cfg.Steps < 1 {
		return nil, fmt.Errorf("need at least one trial and one step, got %d and %d", cfg.NumTrials, cfg.Steps)
	}
	mc, err := cfg.Base.ModelConfig()
	if err != nil {
		return nil, err
	}
	if err := mc.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	g := cfg.Base.Grid()
	base := cfg.Base.Vortex
	results := make([]MonteCarloResult, cfg.NumTrials)
	members := make([]sim.Member, cfg.NumTrials)
	for trial := range members {
		v := base
		v.Lat += (rng.Float64() - 0.5) * 2 * cfg.PosJitter
		v.Lon += (rng.Float64() - 0.5) * 2 * cfg.PosJitter
		v.Amplitude *= 1 + (rng.Float64()-0.5)*2*cfg.AmpJitter

		results[trial] = MonteCarloResult{TrialID: trial, Start: v}
		members[trial] = sim.Member{
			Name:      fmt.Sprintf("trial%d", trial),
			Config:    mc,
			Vorticity: initial.Vortex(g, v.Lat, v.Lon, v.Amplitude, v.Width),
		}
	}

	ens := sim.NewEnsemble(nil)
	ens.SetWorkers(cfg.Workers)
	out, err := ens.Run(ctx, members, cfg.Steps)
	if err != nil {
		return nil, err
	}

	for i, o := range out {
		results[i].Err = o.Err
		if o.Err != nil || o.Model == nil {
			continue
		}
		vrt, err := o.Model.Vorticity()
		if err != nil {
			results[i].Err = err
			continue
		}
		eng := o.Model.Grid()
		results[i].Final = metrics.Centroid(vrt, eng.Latitudes(), eng.Longitudes(), math.Copysign(1, base.Amplitude))
		results[i].Stable = !math.IsNaN(results[i].Final.Lat)
	}
	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// Spread returns the mean final vortex position of the stable trials and
// the mean great-circle distance (degrees) of the trials from it.
func Spread(results []MonteCarloResult) (mean metrics.Center, spread float64) {
	var n, slat, sx, sy float64
	for _, r := range results {
		if !r.Stable {
			continue
		}
		n++
		slat += r.Final.Lat
		lon := r.Final.Lon * math.Pi / 180
		sx += math.Cos(lon)
		sy += math.Sin(lon)
	}
	if n == 0 {
		return metrics.Center{Lat: math.NaN(), Lon: math.NaN()}, math.NaN()
	}
	lon := math.Atan2(sy, sx) * 180 / math.Pi
	if lon < 0 {
		lon += 360
	}
	mean = metrics.Center{Lat: slat / n, Lon: lon}
	for _, r := range results {
		if r.Stable {
			spread += metrics.Distance(mean, r.Final)
		}
	}
	return mean, spread / n
}
