// Package policy provides scripted wolf and sheep behaviours for driving
// episodes without a learned model.
//
// A Policy controls every agent of one side and returns one force per agent
// in roster order. A RawPolicy instead emits five-component raw actions that
// the environment reshapes with the configured sensitivity.
package policy

import "github.com/san-kum/chasesim/internal/chase"

type Policy interface {
	Side() chase.Kind
	Act(sc *chase.Scene, s chase.State) []chase.Vec2
}

type RawPolicy interface {
	Side() chase.Kind
	ActRaw(sc *chase.Scene, s chase.State) [][]float64
}

// Members lists the entity IDs a side controls.
func Members(r chase.Roster, side chase.Kind) []int {
	if side == chase.Sheep {
		return r.Sheep()
	}
	return r.Wolves()
}

func opponents(r chase.Roster, side chase.Kind) []int {
	if side == chase.Sheep {
		return r.Wolves()
	}
	return r.Sheep()
}

// nearest returns the ID in ids closest to pos, or -1 when ids is empty.
func nearest(s chase.State, pos chase.Vec2, ids []int) int {
	best, bestDist := -1, 0.0
	for _, id := range ids {
		d := s[id].Pos.Dist(pos)
		if best < 0 || d < bestDist {
			best, bestDist = id, d
		}
	}
	return best
}

func clampNorm(v chase.Vec2, limit float64) chase.Vec2 {
	if limit <= 0 {
		return v
	}
	if n := v.Norm(); n > limit {
		return v.Scale(limit / n)
	}
	return v
}
