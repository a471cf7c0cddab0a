// Package optim sweeps scenario parameters over ensembles of episodes.
package optim

import (
	"context"
	"fmt"
	"maps"
	"math"

	"github.com/san-kum/chasesim/internal/episode"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Maximize makes Search keep the largest metric mean instead of the smallest.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Stat   episode.Stat
}

// Search evaluates every grid point with the ensemble build returns and
// compares the mean of metricName. Points whose ensemble cannot be built
// are skipped; a failing or cancelled ensemble aborts the search.
func (g *GridSearch) Search(
	ctx context.Context,
	build func(params map[string]float64) (*episode.Ensemble, error),
	cfg episode.Config,
	metricName string,
) (Trial, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Trial{}, nil, fmt.Errorf("grid has %d names but %d ranges", len(g.paramNames), len(g.ranges))
	}

	var trials []Trial
	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		ens, err := build(params)
		if err != nil {
			return nil
		}
		results, err := ens.Run(ctx, cfg)
		if err != nil {
			return err
		}
		stat, ok := episode.Summarize(results).Metrics[metricName]
		if !ok {
			return fmt.Errorf("unknown metric %q", metricName)
		}
		trials = append(trials, Trial{Params: maps.Clone(params), Stat: stat})
		return nil
	})
	if err != nil {
		return Trial{}, trials, err
	}
	if len(trials) == 0 {
		return Trial{}, nil, fmt.Errorf("no grid point could be evaluated")
	}

	best := Trial{Stat: episode.Stat{Mean: math.Inf(1)}}
	if g.maximize {
		best.Stat.Mean = math.Inf(-1)
	}
	for _, t := range trials {
		if (g.maximize && t.Stat.Mean > best.Stat.Mean) || (!g.maximize && t.Stat.Mean < best.Stat.Mean) {
			best = t
		}
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval func(map[string]float64) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}
