package chase

import (
	"fmt"
	"strings"
)

// KillThreshold selects the streak value at which a sheep counts as killed.
type KillThreshold int

const (
	// KillAtLife fires when the streak reaches exactly sheepLife.
	KillAtLife KillThreshold = iota
	// KillAfterLife fires one tick later, at sheepLife+1.
	KillAfterLife
)

func (k KillThreshold) String() string {
	if k == KillAfterLife {
		return "after_life"
	}
	return "at_life"
}

func ParseKillThreshold(s string) (KillThreshold, error) {
	switch strings.ToLower(s) {
	case "", "at_life":
		return KillAtLife, nil
	case "after_life":
		return KillAfterLife, nil
	default:
		return 0, fmt.Errorf("%w: unknown kill threshold %q", ErrConfiguration, s)
	}
}

// Limit is the streak value that triggers a kill for a given sheep life.
func (k KillThreshold) Limit(life int) int {
	if k == KillAfterLife {
		return life + 1
	}
	return life
}

type KillEvent struct {
	SheepID int `json:"sheep_id"`
	Streak  int `json:"streak"`
}

// CaptureTable maps sheep ID to its consecutive-capture streak.
type CaptureTable map[int]int

func NewCaptureTable(r Roster) CaptureTable {
	t := make(CaptureTable, r.NumSheep)
	for _, id := range r.Sheep() {
		t[id] = 0
	}
	return t
}

// TableFromState reads the streaks carried on sheep entities.
func TableFromState(r Roster, s State) CaptureTable {
	t := make(CaptureTable, r.NumSheep)
	for _, id := range r.Sheep() {
		t[id] = s[id].Streak
	}
	return t
}

func (t CaptureTable) Clone() CaptureTable {
	c := make(CaptureTable, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// CaptureTracker advances capture streaks from next-state overlaps.
type CaptureTracker struct {
	Life      int
	Threshold KillThreshold
}

// Advance updates table in place. A sheep caught by any wolf (checked in ID
// order, first hit wins) gains one; any other sheep drops to zero. A streak
// that reaches the threshold resets to zero and yields a kill event.
func (ct CaptureTracker) Advance(sc *Scene, table CaptureTable, next State) []KillEvent {
	var kills []KillEvent
	limit := ct.Threshold.Limit(ct.Life)
	for _, sheepID := range sc.Roster.Sheep() {
		if caughtBySomeWolf(sc, next, sheepID) {
			table[sheepID]++
		} else {
			table[sheepID] = 0
		}
		if table[sheepID] == limit {
			kills = append(kills, KillEvent{SheepID: sheepID, Streak: limit})
			table[sheepID] = 0
		}
	}
	return kills
}

// Recompute derives next streaks from those carried on state without
// touching shared tables.
func (ct CaptureTracker) Recompute(sc *Scene, state, next State) (CaptureTable, []KillEvent) {
	table := TableFromState(sc.Roster, state)
	kills := ct.Advance(sc, table, next)
	return table, kills
}

func caughtBySomeWolf(sc *Scene, s State, sheepID int) bool {
	for _, wolfID := range sc.Roster.Wolves() {
		if sc.Caught(s, wolfID, sheepID) {
			return true
		}
	}
	return false
}
