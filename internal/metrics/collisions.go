package metrics

import (
	"math"

	"github.com/san-kum/chasesim/internal/chase"
)

// Collisions counts wolf-sheep pairs inside the killzone, summed over ticks.
type Collisions struct {
	name  string
	count int
}

func NewCollisions() *Collisions {
	return &Collisions{name: "collisions"}
}

func (c *Collisions) Name() string { return c.name }

func (c *Collisions) Observe(sc *chase.Scene, tr chase.Transition) {
	for _, w := range sc.Roster.Wolves() {
		for _, s := range sc.Roster.Sheep() {
			if sc.Caught(tr.Next, w, s) {
				c.count++
			}
		}
	}
}

func (c *Collisions) Value() float64 { return float64(c.count) }

func (c *Collisions) Reset() { c.count = 0 }

// WallTime is the fraction of sheep-ticks spent within the wall penalty band
// (any coordinate with |x| >= threshold).
type WallTime struct {
	name      string
	threshold float64
	hits      int
	samples   int
}

func NewWallTime(threshold float64) *WallTime {
	return &WallTime{name: "wall_time", threshold: threshold}
}

func (w *WallTime) Name() string { return w.name }

func (w *WallTime) Observe(sc *chase.Scene, tr chase.Transition) {
	for _, id := range sc.Roster.Sheep() {
		w.samples++
		for _, c := range tr.Next[id].Pos {
			if math.Abs(c) >= w.threshold {
				w.hits++
				break
			}
		}
	}
}

func (w *WallTime) Value() float64 {
	if w.samples == 0 {
		return 0
	}
	return float64(w.hits) / float64(w.samples)
}

func (w *WallTime) Reset() {
	w.hits = 0
	w.samples = 0
}
