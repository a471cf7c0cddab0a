package policy

import "github.com/san-kum/chasesim/internal/chase"

// Zero applies no force.
type Zero struct {
	side chase.Kind
}

func NewZero(side chase.Kind) *Zero {
	return &Zero{side: side}
}

func (z *Zero) Side() chase.Kind { return z.side }

func (z *Zero) Act(sc *chase.Scene, s chase.State) []chase.Vec2 {
	return make([]chase.Vec2, len(Members(sc.Roster, z.side)))
}
