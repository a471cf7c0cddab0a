package config

import (
	"slices"

	"github.com/san-kum/chasesim/internal/chase"
)

var Presets = map[string]map[string]*Config{
	"chase": {
		"experiment": experimentPreset(),
		"training":   trainingPreset(),
		"hunting":    huntingPreset(),
		"duel":       duelPreset(),
	},
	"sheep": {
		"scattered": scatteredPreset(),
		"noisy":     noisyPreset(),
	},
}

func experimentPreset() *Config {
	return DefaultConfig()
}

func trainingPreset() *Config {
	cfg := DefaultConfig()
	cfg.Integrator.CapUsesPreDampingVelocity = false
	cfg.Capture.Track = false
	cfg.Observation.IncludeStreak = false
	cfg.WolfReward = chase.RewardParams{Variant: chase.RewardCollisionShared, CollisionReward: 10, Individual: 0}
	cfg.SheepPolicy = PolicyConfig{Name: "random"}
	return cfg
}

func huntingPreset() *Config {
	cfg := DefaultConfig()
	cfg.Capture.KillThreshold = chase.KillAtLife.String()
	cfg.WolfReward = chase.RewardParams{Variant: chase.RewardContinuousHunting, CollisionReward: 1}
	cfg.StopOnKill = true
	return cfg
}

func duelPreset() *Config {
	cfg := DefaultConfig()
	cfg.Arena.NumWolves = 1
	cfg.Arena.NumBlocks = 0
	cfg.MaxTicks = 200
	return cfg
}

func scatteredPreset() *Config {
	cfg := DefaultConfig()
	cfg.NumSheep = 4
	cfg.Arena.BlockAware = true
	cfg.Arena.MaxAttempts = 10000
	return cfg
}

func noisyPreset() *Config {
	cfg := DefaultConfig()
	cfg.NumSheep = 2
	cfg.Actions.SheepJitter = 0.3
	cfg.Actions.WolfNoise = 0.1
	cfg.SheepPolicy = PolicyConfig{Name: "random", Params: map[string]float64{"scale": 1}}
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	slices.Sort(groups)
	return groups
}
