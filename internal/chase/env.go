package chase

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// Params fully describes a scenario and its physics.
type Params struct {
	Reset      ResetParams
	Wolf       Properties
	Sheep      Properties
	Block      Properties
	Contact    Contact
	Integrator Integrator
	Boundary   Boundary
	Killzone   Killzone
	Observer   Observer

	// TrackCapture runs the capture tracker inside Step and stores streaks
	// on the sheep states.
	TrackCapture  bool
	SheepLife     int
	KillThreshold KillThreshold

	// WolfNoise and SheepNoise scale standard normal noise added to each
	// agent's action force.
	WolfNoise  float64
	SheepNoise float64

	// SheepJitter is the standard deviation of the Gaussian applied to
	// every sheep action force in Step, before the agent noise.
	SheepJitter float64
}

// DefaultParams is the three-wolf, two-block arena used for the chasing
// experiments.
func DefaultParams() Params {
	mapSize := 1.0
	return Params{
		Reset: ResetParams{
			NumWolves:         3,
			NumBlocks:         2,
			MapSize:           mapSize,
			MinDistance:       mapSize / 3,
			MinDistanceBlocks: 0.26,
			BlockSize:         0.13,
		},
		Wolf:          Properties{Size: 0.065, Mass: 1.0, Movable: true, MaxSpeed: 1.0},
		Sheep:         Properties{Size: 0.065, Mass: 1.0, Movable: true, MaxSpeed: 1.0},
		Block:         Properties{Size: 0.13, Mass: 1.0, Movable: false},
		Contact:       DefaultContact(),
		Integrator:    Integrator{Damping: DefaultDamping, Dt: DefaultDt, CapUsesPreDampingVelocity: true},
		Boundary:      SquareBoundary(mapSize),
		Killzone:      DefaultKillzone(),
		Observer:      Observer{IncludeStreak: true},
		TrackCapture:  true,
		SheepLife:     3,
		KillThreshold: KillAfterLife,
	}
}

var errNotReset = errors.New("chase: env not reset")

// Env is one episode context. It owns the random source, the scene and any
// capture counters of the reward policies registered with it.
type Env struct {
	params   Params
	src      rand.Source
	resetter *Resetter
	action   *ActionForce
	jitter   *Jitter
	tracker  CaptureTracker
	rewards  []RewardPolicy
	scene    *Scene
	tick     int

	// last Step output and its pre-reflection positions, for CaptureEvents
	lastNext       State
	lastIntegrated State
}

// NewEnv builds an Env seeded with seed. Policies that keep per-episode
// state are reset on every Reset.
func NewEnv(p Params, seed uint64, rewards ...RewardPolicy) (*Env, error) {
	if p.Integrator.Dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %f", ErrConfiguration, p.Integrator.Dt)
	}
	if p.Reset.MapSize <= 0 {
		return nil, fmt.Errorf("%w: map size must be positive, got %f", ErrConfiguration, p.Reset.MapSize)
	}
	if p.Wolf.Mass <= 0 || p.Sheep.Mass <= 0 {
		return nil, fmt.Errorf("%w: agent mass must be positive", ErrConfiguration)
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Env{
		params:   p,
		src:      src,
		resetter: NewResetter(p.Reset, src),
		action:   NewActionForce(nil, src),
		jitter:   NewJitter(p.SheepJitter, src),
		tracker:  CaptureTracker{Life: p.SheepLife, Threshold: p.KillThreshold},
		rewards:  rewards,
	}, nil
}

func (e *Env) Params() Params { return e.params }

// Scene is nil until the first Reset.
func (e *Env) Scene() *Scene { return e.scene }

func (e *Env) Tick() int { return e.tick }

// Reset samples a fresh configuration with numSheep sheep and clears every
// capture counter.
func (e *Env) Reset(numSheep int) (State, error) {
	roster := e.resetter.Roster(numSheep)
	s, err := e.resetter.Reset(numSheep)
	if err != nil {
		return nil, err
	}

	e.scene = NewScene(roster, e.params.Wolf, e.params.Sheep, e.params.Block, e.params.Killzone)
	noise := make([]float64, roster.NumAgents())
	for _, id := range roster.Wolves() {
		noise[id] = e.params.WolfNoise
	}
	for _, id := range roster.Sheep() {
		noise[id] = e.params.SheepNoise
	}
	e.action.Noise = noise

	for _, r := range e.rewards {
		if er, ok := r.(EpisodeResetter); ok {
			er.ResetEpisode(e.scene)
		}
	}
	e.tick = 0
	e.lastNext, e.lastIntegrated = nil, nil
	return s, nil
}

// Step advances state by one tick. Sheep actions are jittered by
// SheepJitter; the caller's slices are left untouched. Streaks are evaluated
// on integrated positions before wall reflection. Kill events are reported
// only when capture tracking is enabled.
func (e *Env) Step(state State, wolfActions, sheepActions []Vec2) (State, []KillEvent, error) {
	if e.scene == nil {
		return nil, nil, errNotReset
	}
	if err := e.scene.checkState(state); err != nil {
		return nil, nil, err
	}
	r := e.scene.Roster
	if len(wolfActions) != r.NumWolves || len(sheepActions) != r.NumSheep {
		return nil, nil, fmt.Errorf("%w: got %d wolf and %d sheep actions, roster has %d and %d",
			ErrDimensionMismatch, len(wolfActions), len(sheepActions), r.NumWolves, r.NumSheep)
	}

	sheep := make([]Vec2, len(sheepActions))
	for i, a := range sheepActions {
		sheep[i] = e.jitter.Perturb(a)
	}

	acc := NewAccumulator(r.NumEntities())
	if err := e.action.Apply(acc, JoinActions(wolfActions, sheep), e.scene.Bodies); err != nil {
		return nil, nil, err
	}
	ApplyEnvironmentForce(acc, state, e.scene.Bodies, e.params.Contact)
	next := e.params.Integrator.Integrate(acc, state, e.scene.Bodies)

	var kills []KillEvent
	if e.params.TrackCapture {
		var table CaptureTable
		table, kills = e.tracker.Recompute(e.scene, state, next)
		for id, streak := range table {
			next[id].Streak = streak
		}
	}

	integrated := next
	next = e.params.Boundary.Apply(integrated)
	if err := next.Validate(); err != nil {
		var se *StepError
		if errors.As(err, &se) {
			se.Tick = e.tick
		}
		return nil, nil, err
	}
	e.tick++
	e.lastNext, e.lastIntegrated = next.Clone(), integrated
	return next, kills, nil
}

// StepRaw reshapes raw five-component actions with the given sensitivities
// and steps.
func (e *Env) StepRaw(state State, wolfRaw, sheepRaw [][]float64, wolfSensitivity, sheepSensitivity float64) (State, []KillEvent, error) {
	wolves := make([]Vec2, len(wolfRaw))
	for i, raw := range wolfRaw {
		a, err := Reshape(raw, wolfSensitivity)
		if err != nil {
			return nil, nil, fmt.Errorf("wolf action %d: %w", i, err)
		}
		wolves[i] = a
	}
	sheep := make([]Vec2, len(sheepRaw))
	for i, raw := range sheepRaw {
		a, err := Reshape(raw, sheepSensitivity)
		if err != nil {
			return nil, nil, fmt.Errorf("sheep action %d: %w", i, err)
		}
		sheep[i] = a
	}
	return e.Step(state, wolves, sheep)
}

func (e *Env) Observe(state State, agentID int) ([]float64, error) {
	if e.scene == nil {
		return nil, errNotReset
	}
	return e.params.Observer.Observe(e.scene, state, agentID)
}

// ObserveAll returns one observation per agent in ID order.
func (e *Env) ObserveAll(state State) ([][]float64, error) {
	if e.scene == nil {
		return nil, errNotReset
	}
	out := make([][]float64, e.scene.Roster.NumAgents())
	for id := range out {
		obs, err := e.Observe(state, id)
		if err != nil {
			return nil, err
		}
		out[id] = obs
	}
	return out, nil
}

func (e *Env) ObservationDim(agentID int) (int, error) {
	if e.scene == nil {
		return 0, errNotReset
	}
	if !e.scene.Roster.Contains(agentID) || e.scene.Roster.Kind(agentID) == Block {
		return 0, fmt.Errorf("%w: agent %d", ErrIndex, agentID)
	}
	return e.params.Observer.Dim(e.scene.Roster, agentID), nil
}

// Reward evaluates policy on a transition. actions are in entity ID order
// and may be nil only for policies that do not read them.
func (e *Env) Reward(policy RewardPolicy, state State, actions []Vec2, next State) ([]float64, error) {
	if e.scene == nil {
		return nil, errNotReset
	}
	if err := e.scene.checkState(state); err != nil {
		return nil, err
	}
	if err := e.scene.checkState(next); err != nil {
		return nil, err
	}
	if actions != nil && len(actions) != e.scene.Roster.NumAgents() {
		return nil, fmt.Errorf("%w: %d actions for %d agents", ErrDimensionMismatch, len(actions), e.scene.Roster.NumAgents())
	}
	if ad, ok := policy.(ActionDependent); ok && ad.NeedsActions() && actions == nil {
		return nil, fmt.Errorf("%w: %s reward needs actions", ErrDimensionMismatch, policy.Side())
	}
	return policy.Reward(e.scene, state, actions, next), nil
}

// CaptureEvents recomputes the sheep streaks that follow state -> next.
// When next equals the state the latest Step returned, overlaps are checked
// on that step's positions before wall reflection, so the result matches the
// streaks Step stored. Any other next is checked as given. It does not touch
// any counters the Env owns.
func (e *Env) CaptureEvents(state, next State) (map[int]int, error) {
	if e.scene == nil {
		return nil, errNotReset
	}
	if err := e.scene.checkState(state); err != nil {
		return nil, err
	}
	if err := e.scene.checkState(next); err != nil {
		return nil, err
	}
	if e.lastNext != nil && slices.Equal(next, e.lastNext) {
		next = e.lastIntegrated
	}
	table, _ := e.tracker.Recompute(e.scene, state, next)
	return table, nil
}
