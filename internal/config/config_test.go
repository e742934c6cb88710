package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Initial != "vortex" {
		t.Errorf("expected initial vortex, got %s", cfg.Initial)
	}
	mc, err := cfg.ModelConfig()
	if err != nil {
		t.Fatal(err)
	}
	if err := mc.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
	if nlat, nlon := cfg.Grid().Shape(); nlat != 32 || nlon != 64 {
		t.Errorf("default grid = %dx%d, want 32x64", nlat, nlon)
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := DefaultConfig()
	cfg.Truncation = 42
	cfg.StartTime = "2024-01-01T00:00:00Z"
	cfg.Vortex.Lat = 30
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Truncation != 42 || got.Vortex.Lat != 30 || got.Physics.DiffusionOrder != DefaultOrder {
		t.Errorf("round trip lost settings: %+v", got)
	}
	start, err := got.Start()
	if err != nil {
		t.Fatal(err)
	}
	if start.Year() != 2024 {
		t.Errorf("start = %v", start)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("dt: 600\nphysics:\n  diffusion: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dt != 600 || cfg.Physics.Diffusion != 0 {
		t.Errorf("file values not applied: dt=%g nu=%g", cfg.Dt, cfg.Physics.Diffusion)
	}
	if cfg.Truncation != DefaultTruncation || cfg.Filter.Robert != DefaultRobert {
		t.Error("defaults lost for keys absent from the file")
	}
}

func TestModelConfig_BadStartTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartTime = "yesterday"
	if _, err := cfg.ModelConfig(); err == nil {
		t.Error("expected an error for an unparsable start time")
	}
}

func TestInitialField(t *testing.T) {
	cfg := DefaultConfig()
	g := cfg.Grid()

	for _, name := range []string{"vortex", "rossby-haurwitz", "jet", "solid-body", "zero"} {
		cfg.Initial = name
		f, err := cfg.InitialField(g)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if r, c := f.Dims(); r != 32 || c != 64 {
			t.Errorf("%s: field is %dx%d", name, r, c)
		}
	}

	cfg.Initial = "nonexistent"
	if _, err := cfg.InitialField(g); err == nil {
		t.Error("expected an error for an unknown initial condition")
	}
}

func TestInitialField_GridOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NLat, cfg.NLon = 16, 32
	mc, _ := cfg.ModelConfig()
	f, err := cfg.InitialField(cfg.Grid())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sim.New(mc, f); !errors.Is(err, dynamo.ErrInvalidConfiguration) {
		t.Errorf("T21 on a 16x32 grid: expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("vortex", "cyclone")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Physics.DiffusionOrder != 2 {
		t.Errorf("expected diffusion order 2, got %d", cfg.Physics.DiffusionOrder)
	}

	cfg.Dt = 1
	if again := GetPreset("vortex", "cyclone"); again.Dt != DefaultDt {
		t.Error("modifying a returned preset changed the table")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("vortex", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "cyclone"); cfg != nil {
		t.Error("expected nil for nonexistent initial condition")
	}
}

func TestPresetsAreValid(t *testing.T) {
	for init, byName := range Presets {
		for name, cfg := range byName {
			mc, err := cfg.ModelConfig()
			if err != nil {
				t.Errorf("%s/%s: %v", init, name, err)
				continue
			}
			if err := mc.Validate(); err != nil {
				t.Errorf("%s/%s: %v", init, name, err)
			}
			if cfg.Initial != init {
				t.Errorf("%s/%s: initial is %q", init, name, cfg.Initial)
			}
		}
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("vortex")
	if len(presets) != 4 || presets[0] != "anticyclone" {
		t.Errorf("unexpected vortex presets %v", presets)
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent initial condition")
	}
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	for name, v := range map[string]float64{"dt": 600, "diffusion": 2e-5, "diffusion_order": 2, "robert": 0.1} {
		if err := cfg.SetParam(name, v); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	if cfg.Dt != 600 || cfg.Physics.Diffusion != 2e-5 || cfg.Physics.DiffusionOrder != 2 || cfg.Filter.Robert != 0.1 {
		t.Errorf("parameters not applied: %+v", cfg)
	}
	if err := cfg.SetParam("gravity", 9.81); err == nil {
		t.Error("expected an error for an unknown parameter")
	}
}
