package storage

import (
	"encoding/json"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/chasesim/internal/chase"
)

// RewardRow is one agent's reward at one tick.
type RewardRow struct {
	Tick   int     `csv:"tick"`
	Agent  int     `csv:"agent"`
	Kind   string  `csv:"kind"`
	Reward float64 `csv:"reward"`
	Kills  int     `csv:"kills"`
}

// ExportRewards flattens the transition log of runID into reward rows.
func (s *Store) ExportRewards(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	r := meta.Roster

	rows := make([]*RewardRow, 0)
	err = s.ReadTransitions(runID, func(tr chase.Transition) error {
		for i, v := range tr.WolfRewards {
			rows = append(rows, &RewardRow{Tick: tr.Tick, Agent: i, Kind: chase.Wolf.String(), Reward: v, Kills: len(tr.Kills)})
		}
		for i, v := range tr.SheepRewards {
			rows = append(rows, &RewardRow{Tick: tr.Tick, Agent: r.NumWolves + i, Kind: chase.Sheep.String(), Reward: v, Kills: len(tr.Kills)})
		}
		return nil
	})
	if err != nil {
		return err
	}
	return gocsv.Marshal(rows, w)
}

type ExportData struct {
	Metadata *RunMetadata  `json:"metadata"`
	Frames   []chase.State `json:"frames"`
}

// ExportJSON writes the metadata and every trajectory frame of runID.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	rows, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	frames, err := Frames(rows, meta.Roster)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Metadata: meta, Frames: frames})
}
