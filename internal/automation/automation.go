// Package automation runs scripted sequences of scenarios from YAML.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/chasesim/internal/config"
	"github.com/san-kum/chasesim/internal/episode"
	"github.com/san-kum/chasesim/internal/policy"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single step in a scenario. Preset is "group/name";
// Config, when set, is loaded instead. Zero overrides keep the base value.
type ScenarioStep struct {
	Preset      string             `yaml:"preset"`
	Config      string             `yaml:"config"`
	MaxTicks    int                `yaml:"max_ticks"`
	NumSheep    int                `yaml:"num_sheep"`
	Seed        uint64             `yaml:"seed"`
	Runs        int                `yaml:"runs"`
	WolfPolicy  string             `yaml:"wolf_policy"`
	SheepPolicy string             `yaml:"sheep_policy"`
	Params      map[string]float64 `yaml:"params"`
	SaveAs      string             `yaml:"save_as"`
}

// StepResult holds every episode of one step and their summary.
type StepResult struct {
	Name    string
	Config  *config.Config
	Results []*episode.Result
	Summary episode.Summary
}

// SaveFunc persists one episode of a step that named SaveAs.
type SaveFunc func(name string, cfg *config.Config, res *episode.Result) error

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
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Resolve builds the validated config of the step.
func (s ScenarioStep) Resolve() (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "chase"
	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, "", err
		}
		cfg, name = loaded, s.Config
	case s.Preset != "":
		group, preset, ok := strings.Cut(s.Preset, "/")
		if !ok {
			return nil, "", fmt.Errorf("preset %q must be group/name", s.Preset)
		}
		if cfg = config.GetPreset(group, preset); cfg == nil {
			return nil, "", fmt.Errorf("unknown preset %q", s.Preset)
		}
		name = preset
	}

	if s.MaxTicks > 0 {
		cfg.MaxTicks = s.MaxTicks
	}
	if s.NumSheep > 0 {
		cfg.NumSheep = s.NumSheep
	}
	if s.Seed > 0 {
		cfg.Seed = s.Seed
	}
	if s.WolfPolicy != "" {
		cfg.WolfPolicy = config.PolicyConfig{Name: s.WolfPolicy}
	}
	if s.SheepPolicy != "" {
		cfg.SheepPolicy = config.PolicyConfig{Name: s.SheepPolicy}
	}
	if len(s.Params) > 0 {
		if cfg.WolfPolicy.Params == nil {
			cfg.WolfPolicy.Params = make(map[string]float64, len(s.Params))
		}
		for k, v := range s.Params {
			cfg.WolfPolicy.Params[k] = v
		}
	}
	if s.SaveAs != "" {
		name = s.SaveAs
	}
	return cfg, name, cfg.Validate()
}

// RunScenario executes all steps in a scenario. Results of completed steps
// are returned alongside the first error.
func RunScenario(ctx context.Context, scenario *Scenario, reg *policy.Registry, save SaveFunc, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, name, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		runs := max(step.Runs, 1)
		logger.Info("running step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", name, "runs", runs)

		ens := episode.NewEnsemble(func(seed uint64) (*episode.Runner, error) {
			r, err := episode.FromConfig(cfg, reg, seed)
			if err != nil {
				return nil, err
			}
			r.SetLogger(logger)
			return r, nil
		}, runs, cfg.Seed)

		res, err := ens.Run(ctx, episode.ConfigFor(cfg, cfg.Seed))
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		if step.SaveAs != "" && save != nil {
			for _, r := range res {
				if err := save(name, cfg, r); err != nil {
					return results, fmt.Errorf("step %d save: %w", i+1, err)
				}
			}
		}

		results = append(results, StepResult{Name: name, Config: cfg, Results: res, Summary: episode.Summarize(res)})
	}

	return results, nil
}
