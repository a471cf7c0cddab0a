package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/chasesim/internal/chase"
)

// MeanReward is the per-tick team reward of one side averaged over the
// episode.
type MeanReward struct {
	name    string
	side    chase.Kind
	sum     float64
	samples int
}

func NewMeanReward(side chase.Kind) *MeanReward {
	return &MeanReward{name: side.String() + "_reward", side: side}
}

func (m *MeanReward) Name() string { return m.name }

func (m *MeanReward) Observe(sc *chase.Scene, tr chase.Transition) {
	rewards := tr.WolfRewards
	if m.side == chase.Sheep {
		rewards = tr.SheepRewards
	}
	m.sum += floats.Sum(rewards)
	m.samples++
}

func (m *MeanReward) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanReward) Reset() {
	m.sum = 0
	m.samples = 0
}

// ActionEffort is the mean force magnitude per agent per tick.
type ActionEffort struct {
	name    string
	sum     float64
	samples int
}

func NewActionEffort() *ActionEffort {
	return &ActionEffort{name: "action_effort"}
}

func (a *ActionEffort) Name() string { return a.name }

func (a *ActionEffort) Observe(sc *chase.Scene, tr chase.Transition) {
	for _, u := range tr.Actions {
		a.sum += u.Norm()
		a.samples++
	}
}

func (a *ActionEffort) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.sum / float64(a.samples)
}

func (a *ActionEffort) Reset() {
	a.sum = 0
	a.samples = 0
}
