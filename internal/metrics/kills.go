package metrics

import "github.com/san-kum/chasesim/internal/chase"

type Kills struct {
	name  string
	count int
}

func NewKills() *Kills {
	return &Kills{name: "kills"}
}

func (k *Kills) Name() string { return k.name }

func (k *Kills) Observe(sc *chase.Scene, tr chase.Transition) {
	k.count += len(tr.Kills)
}

func (k *Kills) Value() float64 { return float64(k.count) }

func (k *Kills) Reset() { k.count = 0 }

// FirstKill is the tick of the first kill, or -1 if none happened.
type FirstKill struct {
	name string
	tick int
}

func NewFirstKill() *FirstKill {
	return &FirstKill{name: "first_kill_tick", tick: -1}
}

func (f *FirstKill) Name() string { return f.name }

func (f *FirstKill) Observe(sc *chase.Scene, tr chase.Transition) {
	if f.tick < 0 && len(tr.Kills) > 0 {
		f.tick = tr.Tick
	}
}

func (f *FirstKill) Value() float64 { return float64(f.tick) }

func (f *FirstKill) Reset() { f.tick = -1 }

// MaxStreak is the longest consecutive capture any sheep reached.
type MaxStreak struct {
	name string
	max  int
}

func NewMaxStreak() *MaxStreak {
	return &MaxStreak{name: "max_streak"}
}

func (m *MaxStreak) Name() string { return m.name }

func (m *MaxStreak) Observe(sc *chase.Scene, tr chase.Transition) {
	for _, id := range sc.Roster.Sheep() {
		m.max = max(m.max, tr.Next[id].Streak)
	}
	for _, k := range tr.Kills {
		m.max = max(m.max, k.Streak)
	}
}

func (m *MaxStreak) Value() float64 { return float64(m.max) }

func (m *MaxStreak) Reset() { m.max = 0 }
