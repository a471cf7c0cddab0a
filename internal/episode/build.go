package episode

import (
	"fmt"
	"math/rand/v2"

	"github.com/san-kum/chasesim/internal/chase"
	"github.com/san-kum/chasesim/internal/config"
	"github.com/san-kum/chasesim/internal/policy"
)

// policySeedSalt keeps policy draws independent of the Env's own stream.
const policySeedSalt = 0x5851f42d4c957f2d

// FromConfig builds a Runner with the default metrics for one seed.
func FromConfig(cfg *config.Config, reg *policy.Registry, seed uint64) (*Runner, error) {
	env, wolfReward, sheepReward, err := cfg.NewEnv(seed)
	if err != nil {
		return nil, err
	}

	src := rand.NewPCG(seed^policySeedSalt, seed+1)
	wolves, err := reg.New(cfg.WolfPolicy.Name, chase.Wolf, cfg.WolfPolicy.Params,
		policy.Options{MapSize: cfg.Arena.MapSize, Sensitivity: cfg.Actions.WolfSensitivity}, src)
	if err != nil {
		return nil, fmt.Errorf("wolf policy: %w", err)
	}
	sheep, err := reg.New(cfg.SheepPolicy.Name, chase.Sheep, cfg.SheepPolicy.Params,
		policy.Options{MapSize: cfg.Arena.MapSize, Sensitivity: cfg.Actions.SheepSensitivity}, src)
	if err != nil {
		return nil, fmt.Errorf("sheep policy: %w", err)
	}

	r := New(env, wolves, sheep, wolfReward, sheepReward)
	for _, m := range DefaultMetrics() {
		r.AddMetric(m)
	}
	return r, nil
}

// ConfigFor lifts the episode fields out of a scenario config.
func ConfigFor(cfg *config.Config, seed uint64) Config {
	return Config{
		NumSheep:         cfg.NumSheep,
		MaxTicks:         cfg.MaxTicks,
		StopOnKill:       cfg.StopOnKill,
		Seed:             seed,
		WolfSensitivity:  cfg.Actions.WolfSensitivity,
		SheepSensitivity: cfg.Actions.SheepSensitivity,
	}
}
