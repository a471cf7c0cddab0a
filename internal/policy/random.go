package policy

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/chasesim/internal/chase"
)

// Random draws each force component from N(0, Scale^2).
type Random struct {
	side   chase.Kind
	normal distuv.Normal
}

func NewRandom(side chase.Kind, scale float64, src rand.Source) *Random {
	return &Random{side: side, normal: distuv.Normal{Mu: 0, Sigma: scale, Src: src}}
}

func (r *Random) Side() chase.Kind { return r.side }

func (r *Random) Act(sc *chase.Scene, s chase.State) []chase.Vec2 {
	out := make([]chase.Vec2, len(Members(sc.Roster, r.side)))
	for i := range out {
		out[i] = chase.Vec2{r.normal.Rand(), r.normal.Rand()}
	}
	return out
}

// Discrete picks one of the five raw actions (noop, +x, -x, +y, -y) per
// agent. Weights default to uniform. Act reshapes with Sensitivity for
// callers that cannot step raw actions.
type Discrete struct {
	Sensitivity float64
	side        chase.Kind
	cat         distuv.Categorical
}

func NewDiscrete(side chase.Kind, weights []float64, sensitivity float64, src rand.Source) *Discrete {
	if len(weights) != chase.RawActionDim {
		weights = []float64{1, 1, 1, 1, 1}
	}
	return &Discrete{Sensitivity: sensitivity, side: side, cat: distuv.NewCategorical(weights, src)}
}

func (d *Discrete) Side() chase.Kind { return d.side }

func (d *Discrete) Act(sc *chase.Scene, s chase.State) []chase.Vec2 {
	raw := d.ActRaw(sc, s)
	out := make([]chase.Vec2, len(raw))
	for i, r := range raw {
		out[i], _ = chase.Reshape(r, d.Sensitivity)
	}
	return out
}

func (d *Discrete) ActRaw(sc *chase.Scene, s chase.State) [][]float64 {
	out := make([][]float64, len(Members(sc.Roster, d.side)))
	for i := range out {
		raw := make([]float64, chase.RawActionDim)
		raw[int(d.cat.Rand())] = 1
		out[i] = raw
	}
	return out
}
