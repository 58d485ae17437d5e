package config

import (
	"math"
	"sort"
)

type Preset struct {
	Description string
	Config      *Config
}

var Presets = map[string]Preset{
	"default": {
		Description: "800x800 window, 2000 particles poured from the centre",
		Config:      DefaultConfig(),
	},
	"fountain": {
		Description: "upward jet from the bottom of the disk",
		Config: preset(func(c *Config) {
			c.Spawn.X, c.Spawn.Y = 400, 650
			c.Spawn.Speed = 1400
			c.Spawn.MaxAngle = math.Pi / 8
			c.Spawn.BaseAngle = -math.Pi / 2
		}),
	},
	"dense": {
		Description: "4000 small particles on a finer grid",
		Config: preset(func(c *Config) {
			c.Spawn.MinRadius, c.Spawn.MaxRadius = 3, 4
			c.Spawn.MaxObjects = 4000
			c.Spawn.Delay = 0.002
			c.Solver.CellSize = 16
		}),
	},
	"fine": {
		Description: "16 substeps per frame for stiffer stacking",
		Config: preset(func(c *Config) {
			c.Solver.SubSteps = 16
		}),
	},
	"zero_g": {
		Description: "no gravity, slow spray that fills the disk",
		Config: preset(func(c *Config) {
			c.Solver.GravityY = 0
			c.Spawn.Speed = 300
			c.Spawn.MaxAngle = math.Pi
		}),
	},
}

func preset(apply func(*Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p.Config
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
