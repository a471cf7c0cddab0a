package episode

import (
	"log/slog"

	"github.com/san-kum/chasesim/internal/chase"
)

type Metric interface {
	Name() string
	Observe(sc *chase.Scene, tr chase.Transition)
	Value() float64
	Reset()
}

// Observer sees every transition after the metrics. A non-nil error aborts
// the episode.
type Observer interface {
	OnTick(sc *chase.Scene, tr chase.Transition) error
}

type ObserverFunc func(sc *chase.Scene, tr chase.Transition) error

func (f ObserverFunc) OnTick(sc *chase.Scene, tr chase.Transition) error { return f(sc, tr) }

type Config struct {
	NumSheep   int
	MaxTicks   int
	StopOnKill bool
	Seed       uint64

	// Sensitivities scale raw actions when both sides emit them.
	WolfSensitivity  float64
	SheepSensitivity float64
}

type Termination string

const (
	EndMaxTicks  Termination = "max_ticks"
	EndKill      Termination = "kill"
	EndCancelled Termination = "cancelled"
	EndError     Termination = "error"
)

type KillRecord struct {
	Tick int `json:"tick"`
	chase.KillEvent
}

type Result struct {
	Seed        uint64
	Roster      chase.Roster
	States      []chase.State
	Kills       []KillRecord
	WolfReturn  []float64
	SheepReturn []float64
	Metrics     map[string]float64
	Ticks       int
	Termination Termination
}

func (r *Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("seed", r.Seed),
		slog.Int("ticks", r.Ticks),
		slog.Int("kills", len(r.Kills)),
		slog.String("end", string(r.Termination)),
	)
}
