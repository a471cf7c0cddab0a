package policy

import "github.com/san-kum/chasesim/internal/chase"

// Pursue steers each wolf to its nearest sheep with a PD law on the relative
// position: force = Kp*(target - pos) - Kd*vel, clamped to MaxForce.
type Pursue struct {
	Kp       float64
	Kd       float64
	MaxForce float64
	// Lead extrapolates the target along its velocity by Lead seconds.
	Lead float64
}

func NewPursue(kp, kd, maxForce float64) *Pursue {
	return &Pursue{Kp: kp, Kd: kd, MaxForce: maxForce}
}

func (p *Pursue) Side() chase.Kind { return chase.Wolf }

func (p *Pursue) Act(sc *chase.Scene, s chase.State) []chase.Vec2 {
	wolves := sc.Roster.Wolves()
	sheep := sc.Roster.Sheep()
	out := make([]chase.Vec2, len(wolves))
	for i, id := range wolves {
		self := s[id]
		target := nearest(s, self.Pos, sheep)
		if target < 0 {
			continue
		}
		goal := s[target].Pos.Add(s[target].Vel.Scale(p.Lead))
		f := goal.Sub(self.Pos).Scale(p.Kp).Sub(self.Vel.Scale(p.Kd))
		out[i] = clampNorm(f, p.MaxForce)
	}
	return out
}
