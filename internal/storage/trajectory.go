package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/chasesim/internal/chase"
)

// TrajectoryRow is one entity at one tick.
type TrajectoryRow struct {
	Tick   int     `csv:"tick"`
	Entity int     `csv:"entity"`
	Kind   string  `csv:"kind"`
	X      float64 `csv:"x"`
	Y      float64 `csv:"y"`
	VX     float64 `csv:"vx"`
	VY     float64 `csv:"vy"`
	Streak int     `csv:"streak"`
	Caught bool    `csv:"caught"`
}

// TrajectoryWriter appends rows tick by tick; the header goes out with the
// first batch.
type TrajectoryWriter struct {
	f             *os.File
	headerWritten bool
}

func CreateTrajectory(path string) (*TrajectoryWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	return &TrajectoryWriter{f: f}, nil
}

func (w *TrajectoryWriter) WriteState(sc *chase.Scene, tick int, s chase.State) error {
	rows := Rows(sc, tick, s)
	if !w.headerWritten {
		if err := gocsv.Marshal(rows, w.f); err != nil {
			return fmt.Errorf("writing trajectory: %w", err)
		}
		w.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, w.f); err != nil {
		return fmt.Errorf("writing trajectory: %w", err)
	}
	return nil
}

// OnTick records the post-step state so the writer can follow a live
// episode. The initial state must be written with WriteState first.
func (w *TrajectoryWriter) OnTick(sc *chase.Scene, tr chase.Transition) error {
	return w.WriteState(sc, tr.Tick+1, tr.Next)
}

func (w *TrajectoryWriter) Close() error {
	return w.f.Close()
}

// Rows flattens s. Caught marks wolves touching a sheep and sheep touched by
// a wolf.
func Rows(sc *chase.Scene, tick int, s chase.State) []*TrajectoryRow {
	r := sc.Roster
	rows := make([]*TrajectoryRow, len(s))
	for id, e := range s {
		rows[id] = &TrajectoryRow{
			Tick:   tick,
			Entity: id,
			Kind:   r.Kind(id).String(),
			X:      e.Pos[0],
			Y:      e.Pos[1],
			VX:     e.Vel[0],
			VY:     e.Vel[1],
			Streak: e.Streak,
		}
	}
	for _, w := range r.Wolves() {
		for _, sh := range r.Sheep() {
			if sc.Caught(s, w, sh) {
				rows[w].Caught = true
				rows[sh].Caught = true
			}
		}
	}
	return rows
}

func (s *Store) LoadTrajectory(runID string) ([]*TrajectoryRow, error) {
	f, err := os.Open(filepath.Join(s.runDir(runID), trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows := make([]*TrajectoryRow, 0)
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("reading trajectory: %w", err)
	}
	return rows, nil
}

// Frames rebuilds per-tick states from rows. Ticks missing an entity are
// rejected.
func Frames(rows []*TrajectoryRow, r chase.Roster) ([]chase.State, error) {
	n := r.NumEntities()
	frames := make([]chase.State, 0)
	for _, row := range rows {
		for row.Tick >= len(frames) {
			frames = append(frames, make(chase.State, n))
		}
		if row.Entity < 0 || row.Entity >= n {
			return nil, fmt.Errorf("%w: row for entity %d at tick %d", chase.ErrIndex, row.Entity, row.Tick)
		}
		frames[row.Tick][row.Entity] = chase.EntityState{
			Pos:    chase.Vec2{row.X, row.Y},
			Vel:    chase.Vec2{row.VX, row.VY},
			Streak: row.Streak,
		}
	}
	if len(rows) != len(frames)*n {
		return nil, fmt.Errorf("%w: %d rows for %d ticks of %d entities", chase.ErrDimensionMismatch, len(rows), len(frames), n)
	}
	return frames, nil
}
