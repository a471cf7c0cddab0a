package episode

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Factory builds an independent Runner for seed. Each Runner must own its
// Env and reward policies.
type Factory func(seed uint64) (*Runner, error)

// Ensemble runs independent episodes with consecutive seeds in parallel.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart uint64
	workers   int
}

func NewEnsemble(f Factory, numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{factory: f, numRuns: numRuns, seedStart: seedStart}
}

// SetWorkers bounds concurrency; zero or less means one goroutine per run.
func (e *Ensemble) SetWorkers(n int) { e.workers = n }

// Run returns results in seed order. The first failing episode cancels the
// rest.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("ensemble needs at least one run, got %d", e.numRuns)
	}
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i := range e.numRuns {
		seed := e.seedStart + uint64(i)
		g.Go(func() error {
			runner, err := e.factory(seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			runCfg := cfg
			runCfg.Seed = seed
			res, err := runner.Run(ctx, runCfg)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Stat is the spread of one metric across an ensemble.
type Stat struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

type Summary struct {
	Runs    int
	Metrics map[string]Stat
}

func Summarize(results []*Result) Summary {
	values := make(map[string][]float64)
	for _, r := range results {
		for name, v := range r.Metrics {
			values[name] = append(values[name], v)
		}
		values["ticks"] = append(values["ticks"], float64(r.Ticks))
	}

	sum := Summary{Runs: len(results), Metrics: make(map[string]Stat, len(values))}
	for name, xs := range values {
		mean, std := stat.MeanStdDev(xs, nil)
		if len(xs) < 2 {
			std = 0
		}
		sum.Metrics[name] = Stat{Mean: mean, StdDev: std, Min: slices.Min(xs), Max: slices.Max(xs)}
	}
	return sum
}

// Names lists the summarized metrics in sorted order.
func (s Summary) Names() []string {
	names := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s Summary) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Int("runs", s.Runs)}
	for _, name := range s.Names() {
		attrs = append(attrs, slog.Float64(name, s.Metrics[name].Mean))
	}
	return slog.GroupValue(attrs...)
}
