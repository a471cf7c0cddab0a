package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/chasesim/internal/chase"
	"github.com/san-kum/chasesim/internal/config"
	"github.com/san-kum/chasesim/internal/episode"
	"github.com/san-kum/chasesim/internal/policy"
)

func runEpisode(t *testing.T, cfg *config.Config, observers ...episode.Observer) *episode.Result {
	t.Helper()
	r, err := episode.FromConfig(cfg, policy.NewRegistry(), 9)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	for _, o := range observers {
		r.AddObserver(o)
	}
	res, err := r.Run(context.Background(), episode.ConfigFor(cfg, 9))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.NumSheep = 2
	cfg.MaxTicks = 15
	return cfg
}

func TestSaveAndLoad(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := testConfig()
	res := runEpisode(t, cfg)
	runID, err := store.Save("experiment", cfg, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := store.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Ticks != 15 {
		t.Errorf("expected 15 ticks, got %d", meta.Ticks)
	}
	if meta.Roster != res.Roster {
		t.Errorf("expected roster %+v, got %+v", res.Roster, meta.Roster)
	}
	if meta.HasTransitions {
		t.Error("expected no transition log")
	}
	if meta.Metrics["kills"] != res.Metrics["kills"] {
		t.Errorf("expected kills %f, got %f", res.Metrics["kills"], meta.Metrics["kills"])
	}

	loadedCfg, err := store.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if loadedCfg.NumSheep != 2 {
		t.Errorf("expected 2 sheep, got %d", loadedCfg.NumSheep)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Errorf("expected [%s], got %v", runID, runs)
	}
}

func TestListMissingDir(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := store.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestListSkipsBrokenRuns(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "broken"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken", metadataFile), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	runs, err := New(dir).List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected broken run skipped, got %v", runs)
	}
}

func TestTrajectoryRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	cfg := testConfig()
	res := runEpisode(t, cfg)
	runID, err := store.Save("duel", cfg, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	rows, err := store.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	n := res.Roster.NumEntities()
	if len(rows) != len(res.States)*n {
		t.Fatalf("expected %d rows, got %d", len(res.States)*n, len(rows))
	}
	if rows[0].Kind != "wolf" || rows[n-1].Kind != "block" {
		t.Errorf("unexpected kinds %s and %s", rows[0].Kind, rows[n-1].Kind)
	}

	frames, err := Frames(rows, res.Roster)
	if err != nil {
		t.Fatalf("frames failed: %v", err)
	}
	if len(frames) != len(res.States) {
		t.Fatalf("expected %d frames, got %d", len(res.States), len(frames))
	}
	last := res.States[len(res.States)-1]
	for id := range last {
		if frames[len(frames)-1][id].Pos.Dist(last[id].Pos) > 1e-9 {
			t.Errorf("entity %d: expected %v, got %v", id, last[id].Pos, frames[len(frames)-1][id].Pos)
		}
	}
}

func TestRowsMarkCaught(t *testing.T) {
	p := chase.DefaultParams()
	sc := chase.NewScene(chase.Roster{NumWolves: 1, NumSheep: 2}, p.Wolf, p.Sheep, p.Block, p.Killzone)
	s := chase.State{{Pos: chase.Vec2{0, 0}}, {Pos: chase.Vec2{0.05, 0}}, {Pos: chase.Vec2{0.5, 0}}}

	rows := Rows(sc, 4, s)
	want := []bool{true, true, false}
	for i, row := range rows {
		if row.Caught != want[i] {
			t.Errorf("entity %d: expected caught %v, got %v", i, want[i], row.Caught)
		}
		if row.Tick != 4 {
			t.Errorf("expected tick 4, got %d", row.Tick)
		}
	}
}

func TestFramesRejectsGaps(t *testing.T) {
	r := chase.Roster{NumWolves: 1, NumSheep: 1}
	rows := []*TrajectoryRow{{Tick: 0, Entity: 0}, {Tick: 0, Entity: 1}, {Tick: 1, Entity: 0}}
	if _, err := Frames(rows, r); !errors.Is(err, chase.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	rows = []*TrajectoryRow{{Tick: 0, Entity: 5}}
	if _, err := Frames(rows, r); !errors.Is(err, chase.ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
}

func TestTransitionsRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	cfg := testConfig()
	runID := NewRunID("logged", 9)

	tw, err := store.OpenTransitions(runID)
	if err != nil {
		t.Fatalf("open transitions failed: %v", err)
	}
	res := runEpisode(t, cfg, tw)
	if err := tw.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if tw.Count() != res.Ticks {
		t.Errorf("expected %d transitions written, got %d", res.Ticks, tw.Count())
	}
	if err := tw.Write(chase.Transition{}); err == nil {
		t.Error("expected write after close to fail")
	}

	if err := store.SaveAs(runID, "logged", cfg, res); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	meta, err := store.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !meta.HasTransitions {
		t.Error("expected transition log to be recorded")
	}

	var ticks []int
	err = store.ReadTransitions(runID, func(tr chase.Transition) error {
		ticks = append(ticks, tr.Tick)
		if len(tr.Next) != res.Roster.NumEntities() {
			t.Errorf("tick %d: expected %d entities, got %d", tr.Tick, res.Roster.NumEntities(), len(tr.Next))
		}
		want := res.States[tr.Tick+1]
		for id := range want {
			if tr.Next[id] != want[id] {
				t.Errorf("tick %d entity %d: expected %v, got %v", tr.Tick, id, want[id], tr.Next[id])
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read transitions failed: %v", err)
	}
	if len(ticks) != res.Ticks || ticks[0] != 0 {
		t.Errorf("expected ticks 0..%d, got %v", res.Ticks-1, ticks)
	}

	stop := errors.New("stop")
	calls := 0
	err = store.ReadTransitions(runID, func(chase.Transition) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("expected early stop after one call, got %v after %d", err, calls)
	}
}

func TestExports(t *testing.T) {
	store := New(t.TempDir())
	cfg := testConfig()
	runID := NewRunID("export", 9)
	tw, err := store.OpenTransitions(runID)
	if err != nil {
		t.Fatal(err)
	}
	res := runEpisode(t, cfg, tw)
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveAs(runID, "export", cfg, res); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := store.ExportRewards(runID, &buf); err != nil {
		t.Fatalf("export rewards failed: %v", err)
	}
	rows := make([]*RewardRow, 0)
	if err := gocsv.UnmarshalString(buf.String(), &rows); err != nil {
		t.Fatalf("parse rewards failed: %v", err)
	}
	if len(rows) != res.Ticks*res.Roster.NumAgents() {
		t.Errorf("expected %d reward rows, got %d", res.Ticks*res.Roster.NumAgents(), len(rows))
	}

	buf.Reset()
	if err := store.ExportJSON(runID, &buf); err != nil {
		t.Fatalf("export json failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"frames"`) {
		t.Error("expected frames in JSON export")
	}
}
