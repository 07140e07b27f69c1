package config

import (
	"sort"

	"github.com/san-kum/nanosim/internal/dynamo"
)

var Presets = map[string]func() *Config{
	"nano": DefaultConfig,
	"circular": func() *Config {
		cfg := DefaultConfig()
		cfg.Agents[0].State = dynamo.State{TimeStep: 0.01}
		cfg.Agents[1].State = dynamo.State{TimeStep: 0.01, Y: 1, VX: 1}
		cfg.Integrator = "leapfrog"
		return cfg
	},
	"eccentric": func() *Config {
		cfg := DefaultConfig()
		cfg.Agents[0].State = dynamo.State{TimeStep: 0.01}
		cfg.Agents[1].State = dynamo.State{TimeStep: 0.01, Y: 1, VX: 1.25}
		cfg.TimeStep = TimeStepConfig{Min: 0.005, Max: 0.02}
		cfg.Iterations = 2000
		return cfg
	},
	"collision": func() *Config {
		cfg := DefaultConfig()
		cfg.Agents[0].State = dynamo.State{TimeStep: 0.01}
		cfg.Agents[1].State = dynamo.State{TimeStep: 0.01}
		cfg.OnSingularity = "skip"
		cfg.StallLimit = 20
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
