package policy

import (
	"math"

	"github.com/san-kum/chasesim/internal/chase"
)

// Flee pushes each sheep away from every wolf with inverse-square weight and
// back from walls it gets within Margin of.
type Flee struct {
	Gain     float64
	WallGain float64
	Margin   float64
	MapSize  float64
	MaxForce float64
}

func NewFlee(gain, maxForce, mapSize float64) *Flee {
	return &Flee{Gain: gain, WallGain: gain, Margin: 0.2, MapSize: mapSize, MaxForce: maxForce}
}

func (f *Flee) Side() chase.Kind { return chase.Sheep }

func (f *Flee) Act(sc *chase.Scene, s chase.State) []chase.Vec2 {
	sheep := sc.Roster.Sheep()
	out := make([]chase.Vec2, len(sheep))
	for i, id := range sheep {
		pos := s[id].Pos
		var force chase.Vec2
		for _, w := range sc.Roster.Wolves() {
			away := pos.Sub(s[w].Pos)
			d := away.Norm()
			if d == 0 {
				continue
			}
			force = force.Add(away.Scale(f.Gain / (d * d * d)))
		}
		force = force.Add(f.wallPush(pos))
		out[i] = clampNorm(force, f.MaxForce)
	}
	return out
}

func (f *Flee) wallPush(pos chase.Vec2) chase.Vec2 {
	var push chase.Vec2
	if f.MapSize <= 0 || f.Margin <= 0 {
		return push
	}
	for axis, c := range pos {
		gap := f.MapSize - math.Abs(c)
		if gap >= f.Margin {
			continue
		}
		push[axis] = -math.Copysign(f.WallGain*(f.Margin-gap)/f.Margin, c)
	}
	return push
}
