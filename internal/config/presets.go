package config

import "sort"

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"vortex": {
		"cyclone": preset(func(c *Config) {
			c.Physics.Diffusion, c.Physics.DiffusionOrder = 2e-5, 2
		}),
		"anticyclone": preset(func(c *Config) {
			c.Vortex = VortexConfig{Lat: 30, Lon: 90, Amplitude: -5e-5, Width: 10}
		}),
		"southern": preset(func(c *Config) {
			c.Vortex = VortexConfig{Lat: -45, Lon: 270, Amplitude: -5e-5, Width: 12}
		}),
		"t42": preset(func(c *Config) {
			c.Truncation, c.Dt = 42, 900
		}),
	},
	"rossby-haurwitz": {
		"wave4": preset(func(c *Config) {
			c.Initial, c.Truncation, c.Dt = "rossby-haurwitz", 42, 900
			c.RunTime = 14 * 86400
			c.Snapshot.Interval = 86400
		}),
	},
	"jet": {
		"unstable": preset(func(c *Config) {
			c.Initial, c.Truncation, c.Dt = "jet", 42, 900
			c.RunTime = 10 * 86400
		}),
	},
	"solid-body": {
		"rest": preset(func(c *Config) {
			c.Initial = "solid-body"
			c.RunTime = 86400
		}),
	},
}

func GetPreset(initial, name string) *Config {
	byName, ok := Presets[initial]
	if !ok {
		return nil
	}
	cfg, ok := byName[name]
	if !ok {
		return nil
	}
	cp := *cfg
	return &cp
}

func ListPresets(initial string) []string {
	byName, ok := Presets[initial]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
