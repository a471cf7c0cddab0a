package policy

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/san-kum/chasesim/internal/chase"
)

// Options carry the scene-wide values some policies need besides their own
// parameters.
type Options struct {
	MapSize     float64
	Sensitivity float64
}

type factory func(side chase.Kind, params map[string]float64, opts Options, src rand.Source) (Policy, error)

type Registry struct {
	policies map[string]factory
}

func NewRegistry() *Registry {
	r := &Registry{policies: make(map[string]factory)}

	r.policies["zero"] = func(side chase.Kind, params map[string]float64, opts Options, src rand.Source) (Policy, error) {
		return NewZero(side), nil
	}
	r.policies["random"] = func(side chase.Kind, params map[string]float64, opts Options, src rand.Source) (Policy, error) {
		return NewRandom(side, param(params, "scale", 1), src), nil
	}
	r.policies["discrete"] = func(side chase.Kind, params map[string]float64, opts Options, src rand.Source) (Policy, error) {
		sens := opts.Sensitivity
		if sens == 0 {
			sens = chase.DefaultSensitivity
		}
		return NewDiscrete(side, nil, sens, src), nil
	}
	r.policies["pursue"] = func(side chase.Kind, params map[string]float64, opts Options, src rand.Source) (Policy, error) {
		if side != chase.Wolf {
			return nil, fmt.Errorf("%w: pursue only drives wolves", chase.ErrConfiguration)
		}
		p := NewPursue(param(params, "kp", 10), param(params, "kd", 1), param(params, "max_force", 5))
		p.Lead = param(params, "lead", 0)
		return p, nil
	}
	r.policies["flee"] = func(side chase.Kind, params map[string]float64, opts Options, src rand.Source) (Policy, error) {
		if side != chase.Sheep {
			return nil, fmt.Errorf("%w: flee only drives sheep", chase.ErrConfiguration)
		}
		f := NewFlee(param(params, "gain", 0.5), param(params, "max_force", 5), opts.MapSize)
		f.Margin = param(params, "margin", f.Margin)
		return f, nil
	}

	return r
}

func (r *Registry) New(name string, side chase.Kind, params map[string]float64, opts Options, src rand.Source) (Policy, error) {
	fn, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown policy: %s", chase.ErrConfiguration, name)
	}
	return fn(side, params, opts, src)
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func param(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
