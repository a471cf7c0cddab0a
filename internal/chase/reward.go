package chase

import (
	"fmt"
	"math"
)

// RewardPolicy maps a transition to one reward per agent on its Side.
type RewardPolicy interface {
	Side() Kind
	Reward(sc *Scene, state State, actions []Vec2, next State) []float64
}

// EpisodeResetter is implemented by policies that keep per-episode counters.
// Env.Reset calls it so the counters never outlive an episode.
type EpisodeResetter interface {
	ResetEpisode(sc *Scene)
}

// ActionDependent is implemented by policies whose reward reads the actions.
// Env.Reward refuses to evaluate them without a full action vector.
type ActionDependent interface {
	NeedsActions() bool
}

const (
	RewardCollisionShared   = "collision_shared"
	RewardBiteAndKill       = "bite_and_kill"
	RewardContinuousHunting = "continuous_hunting"
	RewardSheep             = "sheep"
)

// CollisionShared pays CollisionReward per wolf-sheep collision: Individual of
// it to the colliding wolf, the rest split evenly across all wolves.
type CollisionShared struct {
	CollisionReward float64
	Individual      float64
}

func (CollisionShared) Side() Kind { return Wolf }

func (p CollisionShared) Reward(sc *Scene, state State, actions []Vec2, next State) []float64 {
	wolves := sc.Roster.Wolves()
	reward := make([]float64, len(wolves))
	if len(wolves) == 0 {
		return reward
	}
	individual := p.Individual * p.CollisionReward
	shared := (1 - p.Individual) * p.CollisionReward / float64(len(wolves))

	for i, wolfID := range wolves {
		for _, sheepID := range sc.Roster.Sheep() {
			if !sc.Caught(next, wolfID, sheepID) {
				continue
			}
			for k := range reward {
				reward[k] += shared
			}
			reward[i] += individual
		}
	}
	return reward
}

// BiteAndKill pays BiteReward per wolf-sheep collision in next and KillReward
// per sheep whose streak in state (before the tick) equals Life. The total is
// broadcast to every wolf.
type BiteAndKill struct {
	BiteReward float64
	KillReward float64
	Life       int
}

func (BiteAndKill) Side() Kind { return Wolf }

func (p BiteAndKill) Reward(sc *Scene, state State, actions []Vec2, next State) []float64 {
	total := 0.0
	for _, wolfID := range sc.Roster.Wolves() {
		for _, sheepID := range sc.Roster.Sheep() {
			if sc.Caught(next, wolfID, sheepID) {
				total += p.BiteReward
			}
		}
	}
	for _, sheepID := range sc.Roster.Sheep() {
		if state[sheepID].Streak == p.Life {
			total += p.KillReward
		}
	}
	return broadcast(total, sc.Roster.NumWolves)
}

// ContinuousHunting keeps its own capture table and pays CollisionReward to
// every wolf whenever a sheep's streak reaches Life.
type ContinuousHunting struct {
	CollisionReward float64
	Life            int
	table           CaptureTable
}

func NewContinuousHunting(collisionReward float64, life int) *ContinuousHunting {
	return &ContinuousHunting{CollisionReward: collisionReward, Life: life}
}

func (*ContinuousHunting) Side() Kind { return Wolf }

func (p *ContinuousHunting) ResetEpisode(sc *Scene) {
	p.table = NewCaptureTable(sc.Roster)
}

// Table exposes the live counters.
func (p *ContinuousHunting) Table() CaptureTable { return p.table }

func (p *ContinuousHunting) Reward(sc *Scene, state State, actions []Vec2, next State) []float64 {
	if p.table == nil {
		p.ResetEpisode(sc)
	}
	tracker := CaptureTracker{Life: p.Life, Threshold: KillAtLife}
	kills := tracker.Advance(sc, p.table, next)
	return broadcast(float64(len(kills))*p.CollisionReward, sc.Roster.NumWolves)
}

// SheepPenalty punishes each sheep for drifting out of bounds and for every
// wolf it collides with.
type SheepPenalty struct {
	CollisionPunishment float64
}

func (SheepPenalty) Side() Kind { return Sheep }

func (p SheepPenalty) Reward(sc *Scene, state State, actions []Vec2, next State) []float64 {
	sheep := sc.Roster.Sheep()
	reward := make([]float64, len(sheep))
	for i, sheepID := range sheep {
		reward[i] -= OutOfBoundPenalty(next[sheepID].Pos)
		for _, wolfID := range sc.Roster.Wolves() {
			if sc.Caught(next, wolfID, sheepID) {
				reward[i] -= p.CollisionPunishment
			}
		}
	}
	return reward
}

// OutOfBoundPenalty sums the per-axis wall penalty of pos.
func OutOfBoundPenalty(pos Vec2) float64 {
	total := 0.0
	for _, c := range pos {
		total += boundPenalty(math.Abs(c))
	}
	return total
}

func boundPenalty(x float64) float64 {
	if x < 0.9 {
		return 0
	}
	if x < 1.0 {
		return (x - 0.9) * 10
	}
	return math.Min(math.Exp(2*x-2), 10)
}

// ActionCost charges Ratio times the action magnitude. Pooled costs charge
// every agent the sum over all of them.
type ActionCost struct {
	Ratio      float64
	Individual bool
}

func (c ActionCost) Cost(actions []Vec2) []float64 {
	cost := make([]float64, len(actions))
	sum := 0.0
	for i, a := range actions {
		cost[i] = c.Ratio * a.Norm()
		sum += cost[i]
	}
	if !c.Individual {
		for i := range cost {
			cost[i] = sum
		}
	}
	return cost
}

// WithActionCost subtracts the action cost of the policy's own side.
type WithActionCost struct {
	Policy RewardPolicy
	Cost   ActionCost
}

func (w WithActionCost) Side() Kind { return w.Policy.Side() }

func (w WithActionCost) ResetEpisode(sc *Scene) {
	if r, ok := w.Policy.(EpisodeResetter); ok {
		r.ResetEpisode(sc)
	}
}

func (w WithActionCost) NeedsActions() bool { return w.Cost.Ratio != 0 }

// Reward leaves the wrapped reward uncosted when actions does not cover the
// policy's side. Env.Reward rejects that case before it gets here.
func (w WithActionCost) Reward(sc *Scene, state State, actions []Vec2, next State) []float64 {
	reward := w.Policy.Reward(sc, state, actions, next)
	start := 0
	if w.Side() == Sheep {
		start = sc.Roster.NumWolves
	}
	end := start + len(reward)
	if end > len(actions) {
		return reward
	}
	for i, c := range w.Cost.Cost(actions[start:end]) {
		reward[i] -= c
	}
	return reward
}

// RewardParams selects and parameterizes a reward variant by name.
type RewardParams struct {
	Variant             string  `yaml:"variant"`
	CollisionReward     float64 `yaml:"collision_reward"`
	Individual          float64 `yaml:"individual"`
	BiteReward          float64 `yaml:"bite_reward"`
	KillReward          float64 `yaml:"kill_reward"`
	CollisionPunishment float64 `yaml:"collision_punishment"`
	ActionCostRatio     float64 `yaml:"action_cost_ratio"`
	IndividualCost      bool    `yaml:"individual_cost"`
}

func NewRewardPolicy(p RewardParams, life int) (RewardPolicy, error) {
	var policy RewardPolicy
	switch p.Variant {
	case RewardCollisionShared:
		policy = CollisionShared{CollisionReward: p.CollisionReward, Individual: p.Individual}
	case RewardBiteAndKill:
		policy = BiteAndKill{BiteReward: p.BiteReward, KillReward: p.KillReward, Life: life}
	case RewardContinuousHunting:
		policy = NewContinuousHunting(p.CollisionReward, life)
	case RewardSheep:
		policy = SheepPenalty{CollisionPunishment: p.CollisionPunishment}
	default:
		return nil, fmt.Errorf("%w: unknown reward variant %q", ErrConfiguration, p.Variant)
	}
	if p.ActionCostRatio != 0 {
		policy = WithActionCost{Policy: policy, Cost: ActionCost{Ratio: p.ActionCostRatio, Individual: p.IndividualCost}}
	}
	return policy, nil
}

func broadcast(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
