package chase

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type Vec2 [2]float64

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v[0] + o[0], v[1] + o[1]} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v[0] - o[0], v[1] - o[1]} }

func (v Vec2) Scale(f float64) Vec2 { return Vec2{v[0] * f, v[1] * f} }

// Norm is sqrt(x*x + y*y), unscaled.
func (v Vec2) Norm() float64 { return math.Sqrt(floats.Dot(v[:], v[:])) }

// Dist is the Euclidean distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Norm() }

func (v Vec2) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

type Kind int

const (
	Wolf Kind = iota
	Sheep
	Block
)

func (k Kind) String() string {
	switch k {
	case Wolf:
		return "wolf"
	case Sheep:
		return "sheep"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// EntityState is the dynamic part of an entity. Streak is the consecutive
// capture count and is only meaningful for sheep; it stays 0 for the rest.
type EntityState struct {
	Pos    Vec2 `json:"pos"`
	Vel    Vec2 `json:"vel"`
	Streak int  `json:"streak,omitempty"`
}

// State is index-aligned with the Roster: wolves, then sheep, then blocks.
type State []EntityState

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Validate returns the first entity with a non-finite position or velocity.
func (s State) Validate() error {
	for id, e := range s {
		if !e.Pos.IsFinite() || !e.Vel.IsFinite() {
			return &StepError{Tick: -1, EntityID: id, Wrapped: ErrDomainViolation}
		}
	}
	return nil
}

// Properties are the static attributes of an entity. MaxSpeed of zero
// disables the speed cap.
type Properties struct {
	Size     float64 `yaml:"size"`
	Mass     float64 `yaml:"mass"`
	Movable  bool    `yaml:"movable"`
	MaxSpeed float64 `yaml:"max_speed"`
}

func (p Properties) Capped() bool { return p.MaxSpeed > 0 }

// Roster partitions entity IDs 0..NumEntities into contiguous wolf, sheep
// and block ranges.
type Roster struct {
	NumWolves int `json:"num_wolves"`
	NumSheep  int `json:"num_sheep"`
	NumBlocks int `json:"num_blocks"`
}

func (r Roster) NumAgents() int   { return r.NumWolves + r.NumSheep }
func (r Roster) NumEntities() int { return r.NumWolves + r.NumSheep + r.NumBlocks }

func (r Roster) Wolves() []int { return span(0, r.NumWolves) }
func (r Roster) Sheep() []int  { return span(r.NumWolves, r.NumSheep) }
func (r Roster) Blocks() []int { return span(r.NumAgents(), r.NumBlocks) }

func (r Roster) Contains(id int) bool { return id >= 0 && id < r.NumEntities() }

func (r Roster) Kind(id int) Kind {
	switch {
	case id < r.NumWolves:
		return Wolf
	case id < r.NumAgents():
		return Sheep
	default:
		return Block
	}
}

func span(start, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = start + i
	}
	return ids
}

// Scene binds a roster to the static properties of its entities.
type Scene struct {
	Roster   Roster
	Bodies   []Properties
	Killzone Killzone
}

// NewScene lays out per-entity properties in roster order.
func NewScene(r Roster, wolf, sheep, block Properties, kz Killzone) *Scene {
	bodies := make([]Properties, 0, r.NumEntities())
	for range r.NumWolves {
		bodies = append(bodies, wolf)
	}
	for range r.NumSheep {
		bodies = append(bodies, sheep)
	}
	for range r.NumBlocks {
		bodies = append(bodies, block)
	}
	return &Scene{Roster: r, Bodies: bodies, Killzone: kz}
}

// Caught reports whether entities i and j overlap inside the killzone in s.
func (sc *Scene) Caught(s State, i, j int) bool {
	return sc.Killzone.Collides(s[i].Pos, s[j].Pos, sc.Bodies[i].Size, sc.Bodies[j].Size)
}

func (sc *Scene) checkState(s State) error {
	if len(s) != sc.Roster.NumEntities() {
		return fmt.Errorf("%w: state has %d entities, roster has %d", ErrDimensionMismatch, len(s), sc.Roster.NumEntities())
	}
	return nil
}

// Transition records one tick of an episode.
type Transition struct {
	Tick         int         `json:"tick"`
	State        State       `json:"state"`
	Actions      []Vec2      `json:"actions"`
	Next         State       `json:"next"`
	WolfRewards  []float64   `json:"wolf_rewards,omitempty"`
	SheepRewards []float64   `json:"sheep_rewards,omitempty"`
	Kills        []KillEvent `json:"kills,omitempty"`
}
