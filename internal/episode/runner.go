package episode

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/chasesim/internal/chase"
	"github.com/san-kum/chasesim/internal/policy"
)

// Runner drives one Env with a wolf and a sheep policy. It is not safe for
// concurrent use; the Ensemble builds one Runner per episode.
type Runner struct {
	env         *chase.Env
	wolves      policy.Policy
	sheep       policy.Policy
	wolfReward  chase.RewardPolicy
	sheepReward chase.RewardPolicy
	metrics     []Metric
	observers   []Observer
	logger      *slog.Logger
}

func New(env *chase.Env, wolves, sheep policy.Policy, wolfReward, sheepReward chase.RewardPolicy) *Runner {
	return &Runner{
		env:         env,
		wolves:      wolves,
		sheep:       sheep,
		wolfReward:  wolfReward,
		sheepReward: sheepReward,
		metrics:     make([]Metric, 0),
		observers:   make([]Observer, 0),
		logger:      slog.New(slog.DiscardHandler),
	}
}

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) SetLogger(l *slog.Logger) {
	if l != nil {
		r.logger = l
	}
}

func (r *Runner) Env() *chase.Env { return r.env }

// Run plays a full episode. On a step error or cancellation the partial
// result is returned with the error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	sess, err := r.Begin(cfg)
	if err != nil {
		return nil, err
	}

	for !sess.Done() {
		select {
		case <-ctx.Done():
			sess.result.Termination = EndCancelled
			return sess.Finish(), ctx.Err()
		default:
		}

		if _, err := sess.Tick(); err != nil {
			return sess.Finish(), err
		}
	}
	return sess.Finish(), nil
}

func (r *Runner) validateConfig(cfg Config) error {
	if cfg.MaxTicks <= 0 {
		return fmt.Errorf("%w: max ticks must be positive, got %d", chase.ErrConfiguration, cfg.MaxTicks)
	}
	if cfg.NumSheep < 0 {
		return fmt.Errorf("%w: negative sheep count %d", chase.ErrConfiguration, cfg.NumSheep)
	}
	if r.wolves.Side() != chase.Wolf || r.sheep.Side() != chase.Sheep {
		return fmt.Errorf("%w: policies drive %s and %s", chase.ErrConfiguration, r.wolves.Side(), r.sheep.Side())
	}
	return nil
}
