package chase

import (
	"fmt"
	"strings"
)

// ObservationLayout orders the per-sheep features.
type ObservationLayout int

const (
	// LayoutInterleaved emits position, velocity (and streak) sheep by sheep.
	LayoutInterleaved ObservationLayout = iota
	// LayoutGrouped emits all sheep positions, then all velocities, then all
	// streaks, matching the feature order older checkpoints were trained on.
	LayoutGrouped
)

func ParseObservationLayout(s string) (ObservationLayout, error) {
	switch strings.ToLower(s) {
	case "", "interleaved":
		return LayoutInterleaved, nil
	case "grouped":
		return LayoutGrouped, nil
	default:
		return 0, fmt.Errorf("%w: unknown observation layout %q", ErrConfiguration, s)
	}
}

// Observer encodes egocentric feature vectors: own velocity, own position,
// relative block positions, relative positions of the other wolves, then the
// other sheep.
type Observer struct {
	IncludeStreak bool              `yaml:"include_streak"`
	Layout        ObservationLayout `yaml:"-"`
}

// Dim is the feature count for agentID under r.
func (o Observer) Dim(r Roster, agentID int) int {
	wolves, sheep := r.NumWolves, r.NumSheep
	switch r.Kind(agentID) {
	case Wolf:
		wolves--
	case Sheep:
		sheep--
	}
	perSheep := 4
	if o.IncludeStreak {
		perSheep = 5
	}
	return 4 + 2*r.NumBlocks + 2*wolves + perSheep*sheep
}

func (o Observer) Observe(sc *Scene, s State, agentID int) ([]float64, error) {
	r := sc.Roster
	if !r.Contains(agentID) || r.Kind(agentID) == Block {
		return nil, fmt.Errorf("%w: agent %d (roster has %d agents)", ErrIndex, agentID, r.NumAgents())
	}
	if err := sc.checkState(s); err != nil {
		return nil, err
	}

	self := s[agentID]
	obs := make([]float64, 0, o.Dim(r, agentID))
	obs = append(obs, self.Vel[:]...)
	obs = append(obs, self.Pos[:]...)

	for _, id := range r.Blocks() {
		rel := s[id].Pos.Sub(self.Pos)
		obs = append(obs, rel[:]...)
	}
	for _, id := range r.Wolves() {
		if id == agentID {
			continue
		}
		rel := s[id].Pos.Sub(self.Pos)
		obs = append(obs, rel[:]...)
	}

	others := make([]int, 0, r.NumSheep)
	for _, id := range r.Sheep() {
		if id != agentID {
			others = append(others, id)
		}
	}

	if o.Layout == LayoutGrouped {
		for _, id := range others {
			rel := s[id].Pos.Sub(self.Pos)
			obs = append(obs, rel[:]...)
		}
		for _, id := range others {
			obs = append(obs, s[id].Vel[:]...)
		}
		if o.IncludeStreak {
			for _, id := range others {
				obs = append(obs, float64(s[id].Streak))
			}
		}
		return obs, nil
	}

	for _, id := range others {
		rel := s[id].Pos.Sub(self.Pos)
		obs = append(obs, rel[:]...)
		obs = append(obs, s[id].Vel[:]...)
		if o.IncludeStreak {
			obs = append(obs, float64(s[id].Streak))
		}
	}
	return obs, nil
}
