package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/chasesim/internal/chase"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Arena.NumWolves != 3 {
		t.Errorf("expected 3 wolves, got %d", cfg.Arena.NumWolves)
	}
	if cfg.Integrator.Dt != chase.DefaultDt {
		t.Errorf("expected dt %f, got %f", chase.DefaultDt, cfg.Integrator.Dt)
	}
	if cfg.Capture.SheepLife != 3 {
		t.Errorf("expected sheep life 3, got %d", cfg.Capture.SheepLife)
	}
}

func TestParamsMatchesChaseDefaults(t *testing.T) {
	got, err := DefaultConfig().Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	want := chase.DefaultParams()

	if got.Reset != want.Reset {
		t.Errorf("expected reset %+v, got %+v", want.Reset, got.Reset)
	}
	if got.Wolf != want.Wolf || got.Sheep != want.Sheep || got.Block != want.Block {
		t.Error("entity properties differ from chase defaults")
	}
	if got.Integrator != want.Integrator {
		t.Errorf("expected integrator %+v, got %+v", want.Integrator, got.Integrator)
	}
	if got.Boundary != want.Boundary {
		t.Errorf("expected boundary %+v, got %+v", want.Boundary, got.Boundary)
	}
	if got.KillThreshold != want.KillThreshold {
		t.Errorf("expected threshold %s, got %s", want.KillThreshold, got.KillThreshold)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative sheep", func(c *Config) { c.NumSheep = -1 }},
		{"zero ticks", func(c *Config) { c.MaxTicks = 0 }},
		{"zero map", func(c *Config) { c.Arena.MapSize = 0 }},
		{"zero dt", func(c *Config) { c.Integrator.Dt = 0 }},
		{"damping above one", func(c *Config) { c.Integrator.Damping = 1.5 }},
		{"massless wolf", func(c *Config) { c.Wolf.Mass = 0 }},
		{"zero margin", func(c *Config) { c.Contact.Margin = 0 }},
		{"zero killzone", func(c *Config) { c.Killzone.Ratio = 0 }},
		{"zero life", func(c *Config) { c.Capture.SheepLife = 0 }},
		{"bad threshold", func(c *Config) { c.Capture.KillThreshold = "never" }},
		{"bad layout", func(c *Config) { c.Observation.Layout = "spiral" }},
		{"bad reward", func(c *Config) { c.WolfReward.Variant = "mystery" }},
		{"wrong side", func(c *Config) { c.WolfReward.Variant = chase.RewardSheep }},
		{"wrong sheep side", func(c *Config) { c.SheepReward.Variant = chase.RewardCollisionShared }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, chase.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chase.yaml")

	cfg := DefaultConfig()
	cfg.NumSheep = 4
	cfg.Arena.BlockAware = true
	cfg.WolfReward = chase.RewardParams{Variant: chase.RewardCollisionShared, CollisionReward: 10, Individual: 0.8}
	cfg.WolfPolicy = PolicyConfig{Name: "pursue", Params: map[string]float64{"gain": 3}}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.NumSheep != 4 {
		t.Errorf("expected 4 sheep, got %d", loaded.NumSheep)
	}
	if !loaded.Arena.BlockAware {
		t.Error("expected block aware reset")
	}
	if loaded.WolfReward != cfg.WolfReward {
		t.Errorf("expected wolf reward %+v, got %+v", cfg.WolfReward, loaded.WolfReward)
	}
	if loaded.WolfPolicy.Params["gain"] != 3 {
		t.Errorf("expected gain 3, got %v", loaded.WolfPolicy.Params)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("num_sheep: 2\nmax_ticks: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.NumSheep != 2 || cfg.MaxTicks != 10 {
		t.Errorf("expected overrides, got sheep %d ticks %d", cfg.NumSheep, cfg.MaxTicks)
	}
	if cfg.Arena.NumWolves != 3 {
		t.Errorf("expected default wolves, got %d", cfg.Arena.NumWolves)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max_ticks: -5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, chase.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestNewEnv(t *testing.T) {
	env, wolf, sheep, err := DefaultConfig().NewEnv(3)
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	if wolf.Side() != chase.Wolf || sheep.Side() != chase.Sheep {
		t.Errorf("unexpected sides %s and %s", wolf.Side(), sheep.Side())
	}
	if _, err := env.Reset(1); err != nil {
		t.Fatalf("Reset: %v", err)
	}
}
