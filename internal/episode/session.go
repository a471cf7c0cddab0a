package episode

import (
	"fmt"

	"github.com/san-kum/chasesim/internal/chase"
	"github.com/san-kum/chasesim/internal/policy"
)

// Session is an episode advanced one tick at a time, for callers that own
// the loop such as the live viewer.
type Session struct {
	runner *Runner
	cfg    Config
	state  chase.State
	result *Result
	done   bool
}

// Begin resets the Env and every metric.
func (r *Runner) Begin(cfg Config) (*Session, error) {
	if err := r.validateConfig(cfg); err != nil {
		return nil, err
	}
	state, err := r.env.Reset(cfg.NumSheep)
	if err != nil {
		return nil, err
	}
	for _, m := range r.metrics {
		m.Reset()
	}

	roster := r.env.Scene().Roster
	r.logger.Debug("episode start", "seed", cfg.Seed, "wolves", roster.NumWolves, "sheep", roster.NumSheep, "blocks", roster.NumBlocks)

	return &Session{
		runner: r,
		cfg:    cfg,
		state:  state,
		result: &Result{
			Seed:        cfg.Seed,
			Roster:      roster,
			States:      append(make([]chase.State, 0, cfg.MaxTicks+1), state.Clone()),
			Kills:       make([]KillRecord, 0),
			WolfReturn:  make([]float64, roster.NumWolves),
			SheepReturn: make([]float64, roster.NumSheep),
			Metrics:     make(map[string]float64),
		},
	}, nil
}

func (s *Session) State() chase.State  { return s.state }
func (s *Session) Scene() *chase.Scene { return s.runner.env.Scene() }
func (s *Session) Done() bool          { return s.done }
func (s *Session) Result() *Result     { return s.result }

// Tick advances one step and returns the recorded transition.
func (s *Session) Tick() (chase.Transition, error) {
	if s.done {
		return chase.Transition{}, fmt.Errorf("episode finished after %d ticks", s.result.Ticks)
	}
	r := s.runner
	env := r.env
	sc := env.Scene()
	tick := env.Tick()

	next, kills, actions, err := s.step(sc)
	if err != nil {
		s.done = true
		s.result.Termination = EndError
		return chase.Transition{}, err
	}

	wolfReward, err := env.Reward(r.wolfReward, s.state, actions, next)
	if err != nil {
		s.done = true
		s.result.Termination = EndError
		return chase.Transition{}, err
	}
	sheepReward, err := env.Reward(r.sheepReward, s.state, actions, next)
	if err != nil {
		s.done = true
		s.result.Termination = EndError
		return chase.Transition{}, err
	}

	tr := chase.Transition{
		Tick:         tick,
		State:        s.state,
		Actions:      actions,
		Next:         next,
		WolfRewards:  wolfReward,
		SheepRewards: sheepReward,
		Kills:        kills,
	}

	for _, m := range r.metrics {
		m.Observe(sc, tr)
	}
	for _, o := range r.observers {
		if err := o.OnTick(sc, tr); err != nil {
			s.done = true
			s.result.Termination = EndError
			return tr, fmt.Errorf("observer at tick %d: %w", tick, err)
		}
	}

	for i, v := range wolfReward {
		s.result.WolfReturn[i] += v
	}
	for i, v := range sheepReward {
		s.result.SheepReturn[i] += v
	}
	for _, k := range kills {
		r.logger.Debug("kill", "tick", tick, "sheep", k.SheepID, "streak", k.Streak)
		s.result.Kills = append(s.result.Kills, KillRecord{Tick: tick, KillEvent: k})
	}

	s.state = next
	s.result.States = append(s.result.States, next.Clone())
	s.result.Ticks++

	switch {
	case s.cfg.StopOnKill && len(kills) > 0:
		s.done = true
		s.result.Termination = EndKill
	case s.result.Ticks >= s.cfg.MaxTicks:
		s.done = true
		s.result.Termination = EndMaxTicks
	}
	return tr, nil
}

// step uses the raw action path when both policies emit raw actions.
// Recorded actions are the forces before sheep jitter on either path.
func (s *Session) step(sc *chase.Scene) (chase.State, []chase.KillEvent, []chase.Vec2, error) {
	r := s.runner
	rawWolves, okW := r.wolves.(policy.RawPolicy)
	rawSheep, okS := r.sheep.(policy.RawPolicy)
	if okW && okS {
		wr := rawWolves.ActRaw(sc, s.state)
		sr := rawSheep.ActRaw(sc, s.state)
		next, kills, err := r.env.StepRaw(s.state, wr, sr, s.cfg.WolfSensitivity, s.cfg.SheepSensitivity)
		if err != nil {
			return nil, nil, nil, err
		}
		actions := make([]chase.Vec2, 0, len(wr)+len(sr))
		for _, raw := range wr {
			a, _ := chase.Reshape(raw, s.cfg.WolfSensitivity)
			actions = append(actions, a)
		}
		for _, raw := range sr {
			a, _ := chase.Reshape(raw, s.cfg.SheepSensitivity)
			actions = append(actions, a)
		}
		return next, kills, actions, nil
	}

	wa := r.wolves.Act(sc, s.state)
	sa := r.sheep.Act(sc, s.state)
	next, kills, err := r.env.Step(s.state, wa, sa)
	if err != nil {
		return nil, nil, nil, err
	}
	return next, kills, chase.JoinActions(wa, sa), nil
}

// Finish collects metric values. It may be called more than once.
func (s *Session) Finish() *Result {
	for _, m := range s.runner.metrics {
		s.result.Metrics[m.Name()] = m.Value()
	}
	if s.result.Termination == "" {
		s.result.Termination = EndCancelled
	}
	s.runner.logger.Debug("episode end", "result", s.result)
	return s.result
}
