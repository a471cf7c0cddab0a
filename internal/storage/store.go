package storage

import (
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/san-kum/chasesim/internal/chase"
	"github.com/san-kum/chasesim/internal/config"
	"github.com/san-kum/chasesim/internal/episode"
)

const (
	metadataFile    = "metadata.json"
	configFile      = "config.yaml"
	trajectoryFile  = "trajectory.csv"
	transitionsFile = "transitions.jsonl.zst"
)

type Store struct {
	baseDir string
	logger  *slog.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, logger: slog.New(slog.DiscardHandler)}
}

func (s *Store) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Timestamp      time.Time            `json:"timestamp"`
	Seed           uint64               `json:"seed"`
	Roster         chase.Roster         `json:"roster"`
	Ticks          int                  `json:"ticks"`
	Termination    string               `json:"termination"`
	Kills          []episode.KillRecord `json:"kills"`
	WolfReturn     []float64            `json:"wolf_return"`
	SheepReturn    []float64            `json:"sheep_return"`
	Metrics        map[string]float64   `json:"metrics"`
	HasTransitions bool                 `json:"has_transitions"`
}

// NewRunID names a run directory. Seeds keep ensemble members apart within
// the same second.
func NewRunID(name string, seed uint64) string {
	return fmt.Sprintf("%s_%s_s%d", name, time.Now().UTC().Format("20060102-150405"), seed)
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Save writes metadata, the scenario config and the trajectory of res under a
// fresh run ID.
func (s *Store) Save(name string, cfg *config.Config, res *episode.Result) (string, error) {
	runID := NewRunID(name, res.Seed)
	return runID, s.SaveAs(runID, name, cfg, res)
}

// SaveAs is Save into a known run directory, typically one that already
// holds a transition log.
func (s *Store) SaveAs(runID, name string, cfg *config.Config, res *episode.Result) error {
	runDir := s.runDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	_, statErr := os.Stat(filepath.Join(runDir, transitionsFile))
	meta := RunMetadata{
		ID:             runID,
		Name:           name,
		Timestamp:      time.Now(),
		Seed:           res.Seed,
		Roster:         res.Roster,
		Ticks:          res.Ticks,
		Termination:    string(res.Termination),
		Kills:          res.Kills,
		WolfReturn:     res.WolfReturn,
		SheepReturn:    res.SheepReturn,
		Metrics:        res.Metrics,
		HasTransitions: statErr == nil,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	tw, err := CreateTrajectory(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return err
	}
	defer tw.Close()

	sc := chase.NewScene(res.Roster, cfg.Wolf, cfg.Sheep, cfg.Block, cfg.Killzone)
	for tick, state := range res.States {
		if err := tw.WriteState(sc, tick, state); err != nil {
			return err
		}
	}

	s.logger.Info("saved run", "id", runID, "ticks", res.Ticks, "kills", len(res.Kills))
	return nil
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig reads the scenario config a run was produced with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.runDir(runID), configFile))
}
