package chase

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Accumulator holds at most one force per entity for a single tick. A slot
// that never received a force stays absent.
type Accumulator struct {
	forces  []Vec2
	present []bool
}

func NewAccumulator(n int) *Accumulator {
	return &Accumulator{forces: make([]Vec2, n), present: make([]bool, n)}
}

func (a *Accumulator) Len() int { return len(a.forces) }

// Set overwrites the slot for id.
func (a *Accumulator) Set(id int, f Vec2) {
	a.forces[id] = f
	a.present[id] = true
}

// Add accumulates into id, starting from zero if the slot is absent.
func (a *Accumulator) Add(id int, f Vec2) {
	if !a.present[id] {
		a.forces[id] = Vec2{}
		a.present[id] = true
	}
	a.forces[id] = a.forces[id].Add(f)
}

func (a *Accumulator) At(id int) (Vec2, bool) {
	return a.forces[id], a.present[id]
}

// ActionForce injects agent actions into the accumulator. Noise holds a
// per-agent scale for standard normal perturbations; a missing or zero entry
// means no noise.
type ActionForce struct {
	Noise  []float64
	normal distuv.Normal
}

func NewActionForce(noise []float64, src rand.Source) *ActionForce {
	return &ActionForce{Noise: noise, normal: distuv.Normal{Mu: 0, Sigma: 1, Src: src}}
}

// Apply writes actions[i] (+ noise) into slot i for every movable agent.
// Actions are indexed by entity ID: wolves first, then sheep.
func (af *ActionForce) Apply(acc *Accumulator, actions []Vec2, bodies []Properties) error {
	if len(actions) > acc.Len() || len(actions) > len(bodies) {
		return fmt.Errorf("%w: %d actions for %d entities", ErrDimensionMismatch, len(actions), acc.Len())
	}
	for id, action := range actions {
		if !bodies[id].Movable {
			continue
		}
		if id < len(af.Noise) && af.Noise[id] != 0 {
			scale := af.Noise[id]
			action = action.Add(Vec2{af.normal.Rand() * scale, af.normal.Rand() * scale})
		}
		acc.Set(id, action)
	}
	return nil
}

// ApplyEnvironmentForce accumulates the contact force of every unordered pair.
func ApplyEnvironmentForce(acc *Accumulator, s State, bodies []Properties, c Contact) {
	n := len(s)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			f1, f2 := c.Between(s[i].Pos, s[j].Pos, bodies[i].Size, bodies[j].Size, bodies[i].Movable, bodies[j].Movable)
			if f1 != nil {
				acc.Add(i, *f1)
			}
			if f2 != nil {
				acc.Add(j, *f2)
			}
		}
	}
}
