package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/chasesim/internal/chase"
)

const (
	DefaultNumSheep   = 1
	DefaultMaxTicks   = 75
	DefaultMapSize    = 1.0
	DefaultAgentSize  = 0.065
	DefaultBlockSize  = 0.13
	DefaultSheepLife  = 3
	DefaultSeed       = 1
	DefaultWolfPolicy = "pursue"
)

type Config struct {
	NumSheep   int    `yaml:"num_sheep"`
	MaxTicks   int    `yaml:"max_ticks"`
	StopOnKill bool   `yaml:"stop_on_kill"`
	Seed       uint64 `yaml:"seed"`

	Arena       ArenaConfig       `yaml:"arena"`
	Wolf        chase.Properties  `yaml:"wolf"`
	Sheep       chase.Properties  `yaml:"sheep"`
	Block       chase.Properties  `yaml:"block"`
	Contact     chase.Contact     `yaml:"contact"`
	Integrator  chase.Integrator  `yaml:"integrator"`
	Killzone    chase.Killzone    `yaml:"killzone"`
	Capture     CaptureConfig     `yaml:"capture"`
	Observation ObservationConfig `yaml:"observation"`
	Actions     ActionConfig      `yaml:"actions"`

	WolfReward  chase.RewardParams `yaml:"wolf_reward"`
	SheepReward chase.RewardParams `yaml:"sheep_reward"`

	WolfPolicy  PolicyConfig `yaml:"wolf_policy"`
	SheepPolicy PolicyConfig `yaml:"sheep_policy"`
}

type ArenaConfig struct {
	MapSize           float64 `yaml:"map_size"`
	NumWolves         int     `yaml:"num_wolves"`
	NumBlocks         int     `yaml:"num_blocks"`
	MinDistance       float64 `yaml:"min_distance"`
	MinDistanceBlocks float64 `yaml:"min_distance_blocks"`
	BlockAware        bool    `yaml:"block_aware"`
	MaxAttempts       int     `yaml:"max_attempts"`
}

type CaptureConfig struct {
	Track         bool   `yaml:"track"`
	SheepLife     int    `yaml:"sheep_life"`
	KillThreshold string `yaml:"kill_threshold"`
}

type ObservationConfig struct {
	IncludeStreak bool   `yaml:"include_streak"`
	Layout        string `yaml:"layout"`
}

// ActionConfig shapes the forces agents apply. Sensitivities only matter for
// policies that emit raw five-component actions.
type ActionConfig struct {
	WolfNoise        float64 `yaml:"wolf_noise"`
	SheepNoise       float64 `yaml:"sheep_noise"`
	SheepJitter      float64 `yaml:"sheep_jitter"`
	WolfSensitivity  float64 `yaml:"wolf_sensitivity"`
	SheepSensitivity float64 `yaml:"sheep_sensitivity"`
}

type PolicyConfig struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		NumSheep: DefaultNumSheep,
		MaxTicks: DefaultMaxTicks,
		Seed:     DefaultSeed,
		Arena: ArenaConfig{
			MapSize:           DefaultMapSize,
			NumWolves:         3,
			NumBlocks:         2,
			MinDistance:       DefaultMapSize / 3,
			MinDistanceBlocks: 2 * DefaultBlockSize,
		},
		Wolf:       chase.Properties{Size: DefaultAgentSize, Mass: 1, Movable: true, MaxSpeed: 1},
		Sheep:      chase.Properties{Size: DefaultAgentSize, Mass: 1, Movable: true, MaxSpeed: 1},
		Block:      chase.Properties{Size: DefaultBlockSize, Mass: 1, Movable: false},
		Contact:    chase.DefaultContact(),
		Integrator: chase.Integrator{Damping: chase.DefaultDamping, Dt: chase.DefaultDt, CapUsesPreDampingVelocity: true},
		Killzone:   chase.DefaultKillzone(),
		Capture: CaptureConfig{
			Track:         true,
			SheepLife:     DefaultSheepLife,
			KillThreshold: chase.KillAfterLife.String(),
		},
		Observation: ObservationConfig{IncludeStreak: true},
		Actions: ActionConfig{
			WolfSensitivity:  chase.DefaultSensitivity,
			SheepSensitivity: chase.DefaultSensitivity,
		},
		WolfReward:  chase.RewardParams{Variant: chase.RewardBiteAndKill, BiteReward: 0.1, KillReward: 1},
		SheepReward: chase.RewardParams{Variant: chase.RewardSheep, CollisionPunishment: 10},
		WolfPolicy:  PolicyConfig{Name: DefaultWolfPolicy},
		SheepPolicy: PolicyConfig{Name: "flee"},
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
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first inconsistent field. Every returned error wraps
// chase.ErrConfiguration.
func (c *Config) Validate() error {
	switch {
	case c.NumSheep < 0:
		return invalid("num_sheep must not be negative, got %d", c.NumSheep)
	case c.MaxTicks <= 0:
		return invalid("max_ticks must be positive, got %d", c.MaxTicks)
	case c.Arena.MapSize <= 0:
		return invalid("arena.map_size must be positive, got %f", c.Arena.MapSize)
	case c.Arena.NumWolves < 0 || c.Arena.NumBlocks < 0:
		return invalid("entity counts must not be negative")
	case c.Integrator.Dt <= 0:
		return invalid("integrator.dt must be positive, got %f", c.Integrator.Dt)
	case c.Integrator.Damping < 0 || c.Integrator.Damping > 1:
		return invalid("integrator.damping must be in [0, 1], got %f", c.Integrator.Damping)
	case c.Wolf.Mass <= 0 || c.Sheep.Mass <= 0:
		return invalid("agent mass must be positive")
	case c.Wolf.Size <= 0 || c.Sheep.Size <= 0:
		return invalid("agent size must be positive")
	case c.Contact.Margin <= 0:
		return invalid("contact.margin must be positive, got %f", c.Contact.Margin)
	case c.Killzone.Ratio <= 0:
		return invalid("killzone.ratio must be positive, got %f", c.Killzone.Ratio)
	case c.Capture.SheepLife <= 0:
		return invalid("capture.sheep_life must be positive, got %d", c.Capture.SheepLife)
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	if _, _, err := c.RewardPolicies(); err != nil {
		return err
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", chase.ErrConfiguration, fmt.Sprintf(format, args...))
}

// Params converts the file layout into the physics parameters of an Env.
func (c *Config) Params() (chase.Params, error) {
	threshold, err := chase.ParseKillThreshold(c.Capture.KillThreshold)
	if err != nil {
		return chase.Params{}, err
	}
	layout, err := chase.ParseObservationLayout(c.Observation.Layout)
	if err != nil {
		return chase.Params{}, err
	}

	return chase.Params{
		Reset: chase.ResetParams{
			NumWolves:         c.Arena.NumWolves,
			NumBlocks:         c.Arena.NumBlocks,
			MapSize:           c.Arena.MapSize,
			MinDistance:       c.Arena.MinDistance,
			MinDistanceBlocks: c.Arena.MinDistanceBlocks,
			BlockSize:         c.Block.Size,
			BlockAware:        c.Arena.BlockAware,
			MaxAttempts:       c.Arena.MaxAttempts,
		},
		Wolf:          c.Wolf,
		Sheep:         c.Sheep,
		Block:         c.Block,
		Contact:       c.Contact,
		Integrator:    c.Integrator,
		Boundary:      chase.SquareBoundary(c.Arena.MapSize),
		Killzone:      c.Killzone,
		Observer:      chase.Observer{IncludeStreak: c.Observation.IncludeStreak, Layout: layout},
		TrackCapture:  c.Capture.Track,
		SheepLife:     c.Capture.SheepLife,
		KillThreshold: threshold,
		WolfNoise:     c.Actions.WolfNoise,
		SheepNoise:    c.Actions.SheepNoise,
		SheepJitter:   c.Actions.SheepJitter,
	}, nil
}

// RewardPolicies builds fresh wolf and sheep reward policies. Stateful
// policies must not be shared between episodes running concurrently, so
// callers build one pair per Env.
func (c *Config) RewardPolicies() (chase.RewardPolicy, chase.RewardPolicy, error) {
	wolf, err := chase.NewRewardPolicy(c.WolfReward, c.Capture.SheepLife)
	if err != nil {
		return nil, nil, fmt.Errorf("wolf_reward: %w", err)
	}
	if wolf.Side() != chase.Wolf {
		return nil, nil, invalid("wolf_reward: variant %q rewards %s", c.WolfReward.Variant, wolf.Side())
	}
	sheep, err := chase.NewRewardPolicy(c.SheepReward, c.Capture.SheepLife)
	if err != nil {
		return nil, nil, fmt.Errorf("sheep_reward: %w", err)
	}
	if sheep.Side() != chase.Sheep {
		return nil, nil, invalid("sheep_reward: variant %q rewards %s", c.SheepReward.Variant, sheep.Side())
	}
	return wolf, sheep, nil
}

// NewEnv builds an Env for seed with this config's reward policies
// registered on it.
func (c *Config) NewEnv(seed uint64) (*chase.Env, chase.RewardPolicy, chase.RewardPolicy, error) {
	params, err := c.Params()
	if err != nil {
		return nil, nil, nil, err
	}
	wolf, sheep, err := c.RewardPolicies()
	if err != nil {
		return nil, nil, nil, err
	}
	env, err := chase.NewEnv(params, seed, wolf, sheep)
	if err != nil {
		return nil, nil, nil, err
	}
	return env, wolf, sheep, nil
}

// Clone deep-copies the config so presets stay untouched by flag overrides.
func (c *Config) Clone() *Config {
	out := *c
	out.WolfPolicy.Params = cloneParams(c.WolfPolicy.Params)
	out.SheepPolicy.Params = cloneParams(c.SheepPolicy.Params)
	return &out
}

func cloneParams(p map[string]float64) map[string]float64 {
	if p == nil {
		return nil
	}
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
