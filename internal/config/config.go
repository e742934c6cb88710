package config

import (
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/barosim/internal/initial"
	"github.com/san-kum/barosim/internal/ncio"
	"github.com/san-kum/barosim/internal/physics"
	"github.com/san-kum/barosim/internal/sim"
	"github.com/san-kum/barosim/internal/sphere"
)

const (
	DefaultTruncation = 21
	DefaultDt         = 1200.0
	DefaultRunTime    = 5 * 86400.0
	DefaultDiffusion  = 1e-4
	DefaultOrder      = 4
	DefaultRobert     = 0.04
)

type Config struct {
	Initial    string `yaml:"initial"`
	InitFile   string `yaml:"init_file,omitempty"`
	InitRecord int    `yaml:"init_record,omitempty"`
	Integrator string `yaml:"integrator"`

	Truncation int     `yaml:"truncation"`
	NLat       int     `yaml:"nlat,omitempty"`
	NLon       int     `yaml:"nlon,omitempty"`
	Dt         float64 `yaml:"dt"`
	RunTime    float64 `yaml:"run_time"`
	StartTime  string  `yaml:"start_time,omitempty"`

	Snapshot SnapshotConfig `yaml:"snapshot"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Filter   FilterConfig   `yaml:"filter"`
	Vortex   VortexConfig   `yaml:"vortex"`

	Output string `yaml:"output,omitempty"`
}

type SnapshotConfig struct {
	Start    float64 `yaml:"start"`
	Interval float64 `yaml:"interval"`
}

type PhysicsConfig struct {
	Radius         float64 `yaml:"radius"`
	Omega          float64 `yaml:"omega"`
	Diffusion      float64 `yaml:"diffusion"`
	DiffusionOrder int     `yaml:"diffusion_order"`
}

type FilterConfig struct {
	Robert   float64 `yaml:"robert"`
	Williams float64 `yaml:"williams"`
}

// VortexConfig parameterizes the "vortex" initial condition. Positions and
// width are in degrees, the amplitude in s⁻¹.
type VortexConfig struct {
	Lat       float64 `yaml:"lat"`
	Lon       float64 `yaml:"lon"`
	Amplitude float64 `yaml:"amplitude"`
	Width     float64 `yaml:"width"`
}

func DefaultConfig() *Config {
	return &Config{
		Initial:    "vortex",
		Integrator: "leapfrog",
		Truncation: DefaultTruncation,
		Dt:         DefaultDt,
		RunTime:    DefaultRunTime,
		Snapshot:   SnapshotConfig{Interval: 6 * 3600},
		Physics: PhysicsConfig{
			Radius:         sphere.EarthRadius,
			Omega:          physics.EarthOmega,
			Diffusion:      DefaultDiffusion,
			DiffusionOrder: DefaultOrder,
		},
		Filter: FilterConfig{Robert: DefaultRobert, Williams: 1},
		Vortex: VortexConfig{Lat: 45, Lon: 180, Amplitude: 5e-5, Width: 12},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Start parses StartTime; an empty value is the zero time.
func (c *Config) Start() (time.Time, error) {
	if c.StartTime == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, c.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: start_time: %w", err)
	}
	return t, nil
}

// ModelConfig converts the file settings into a driver configuration.
func (c *Config) ModelConfig() (sim.Config, error) {
	start, err := c.Start()
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		Truncation:        c.Truncation,
		Dt:                c.Dt,
		Radius:            c.Physics.Radius,
		Omega:             c.Physics.Omega,
		Diffusion:         c.Physics.Diffusion,
		DiffusionOrder:    c.Physics.DiffusionOrder,
		RobertCoefficient: c.Filter.Robert,
		Williams:          c.Filter.Williams,
		StartTime:         start,
	}, nil
}

// Grid returns the configured Gaussian grid, or the alias-free grid for the
// truncation when nlat and nlon are unset.
func (c *Config) Grid() initial.Grid {
	if c.NLat > 0 && c.NLon > 0 {
		return initial.GaussianGrid(c.NLat, c.NLon)
	}
	return initial.GridFor(c.Truncation)
}

// SnapshotPolicy returns the RunFor policy.
func (c *Config) SnapshotPolicy() sim.SnapshotPolicy {
	return sim.SnapshotPolicy{Start: c.Snapshot.Start, Interval: c.Snapshot.Interval}
}

// InitialField builds the initial vorticity on g. A NetCDF init_file takes
// precedence over the named condition.
func (c *Config) InitialField(g initial.Grid) (*mat.Dense, error) {
	if c.InitFile != "" {
		return ncio.ReadField(c.InitFile, "vorticity", c.InitRecord)
	}
	if c.Initial == "vortex" {
		v := c.Vortex
		return initial.Vortex(g, v.Lat, v.Lon, v.Amplitude, v.Width), nil
	}
	f, err := initial.Get(c.Initial)
	if err != nil {
		return nil, err
	}
	return f(g), nil
}

// SetParam sets a numeric setting by its YAML name. It backs parameter
// sweeps.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "dt":
		c.Dt = v
	case "run_time":
		c.RunTime = v
	case "omega":
		c.Physics.Omega = v
	case "diffusion":
		c.Physics.Diffusion = v
	case "diffusion_order":
		c.Physics.DiffusionOrder = int(v)
	case "robert":
		c.Filter.Robert = v
	case "williams":
		c.Filter.Williams = v
	default:
		return fmt.Errorf("config: unknown parameter %q", name)
	}
	return nil
}
