package episode

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/chasesim/internal/chase"
	"github.com/san-kum/chasesim/internal/config"
	"github.com/san-kum/chasesim/internal/policy"
)

func newRunner(p chase.Params, wolves, sheep policy.Policy) *Runner {
	wolfReward := chase.CollisionShared{CollisionReward: 10, Individual: 0.5}
	sheepReward := chase.SheepPenalty{CollisionPunishment: 10}
	env, err := chase.NewEnv(p, 11, wolfReward, sheepReward)
	Expect(err).NotTo(HaveOccurred())
	return New(env, wolves, sheep, wolfReward, sheepReward)
}

var _ = Describe("Runner", func() {
	var (
		params chase.Params
		cfg    Config
	)

	BeforeEach(func() {
		params = chase.DefaultParams()
		cfg = Config{NumSheep: 2, MaxTicks: 10, Seed: 11}
	})

	It("plays until max ticks", func() {
		r := newRunner(params, policy.NewZero(chase.Wolf), policy.NewZero(chase.Sheep))
		for _, m := range DefaultMetrics() {
			r.AddMetric(m)
		}

		res, err := r.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Ticks).To(Equal(10))
		Expect(res.States).To(HaveLen(11))
		Expect(res.Termination).To(Equal(EndMaxTicks))
		Expect(res.WolfReturn).To(HaveLen(3))
		Expect(res.SheepReturn).To(HaveLen(2))
		Expect(res.Metrics).To(HaveKey("kills"))
		Expect(res.Metrics).To(HaveKey("wolf_reward"))
	})

	It("stops on the first kill when asked", func() {
		// a killzone wider than the arena keeps every sheep caught
		params.Killzone.Ratio = 100
		cfg.StopOnKill = true
		r := newRunner(params, policy.NewZero(chase.Wolf), policy.NewZero(chase.Sheep))

		res, err := r.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		limit := params.KillThreshold.Limit(params.SheepLife)
		Expect(res.Termination).To(Equal(EndKill))
		Expect(res.Ticks).To(Equal(limit))
		Expect(res.Kills).To(HaveLen(2))
		Expect(res.Kills[0].Tick).To(Equal(limit - 1))
	})

	It("returns the partial result when cancelled", func() {
		r := newRunner(params, policy.NewZero(chase.Wolf), policy.NewZero(chase.Sheep))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := r.Run(ctx, cfg)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.Termination).To(Equal(EndCancelled))
		Expect(res.Ticks).To(BeZero())
		Expect(res.States).To(HaveLen(1))
	})

	It("hands every transition to observers in order", func() {
		r := newRunner(params, policy.NewPursue(10, 1, 5), policy.NewFlee(0.5, 5, 1))
		var ticks []int
		r.AddObserver(ObserverFunc(func(sc *chase.Scene, tr chase.Transition) error {
			Expect(tr.Actions).To(HaveLen(sc.Roster.NumAgents()))
			Expect(tr.WolfRewards).To(HaveLen(3))
			Expect(tr.SheepRewards).To(HaveLen(2))
			ticks = append(ticks, tr.Tick)
			return nil
		}))

		_, err := r.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(ticks).To(Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
	})

	It("aborts on an observer error", func() {
		r := newRunner(params, policy.NewZero(chase.Wolf), policy.NewZero(chase.Sheep))
		boom := errors.New("disk full")
		r.AddObserver(ObserverFunc(func(sc *chase.Scene, tr chase.Transition) error {
			if tr.Tick == 3 {
				return boom
			}
			return nil
		}))

		res, err := r.Run(context.Background(), cfg)
		Expect(err).To(MatchError(boom))
		Expect(res.Termination).To(Equal(EndError))
		Expect(res.Ticks).To(Equal(3))
	})

	It("steps raw actions when both policies emit them", func() {
		src := newSource(5)
		r := newRunner(params, policy.NewDiscrete(chase.Wolf, nil, 5, src), policy.NewDiscrete(chase.Sheep, nil, 5, src))
		cfg.WolfSensitivity, cfg.SheepSensitivity = 5, 5

		r.AddObserver(ObserverFunc(func(sc *chase.Scene, tr chase.Transition) error {
			for _, a := range tr.Actions {
				Expect(a.Norm()).To(Or(BeZero(), BeNumerically("~", 5, 1e-9)))
			}
			return nil
		}))
		_, err := r.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("rejects bad episode configs",
		func(mutate func(*Config)) {
			r := newRunner(params, policy.NewZero(chase.Wolf), policy.NewZero(chase.Sheep))
			mutate(&cfg)
			_, err := r.Run(context.Background(), cfg)
			Expect(err).To(MatchError(chase.ErrConfiguration))
		},
		Entry("zero ticks", func(c *Config) { c.MaxTicks = 0 }),
		Entry("negative sheep", func(c *Config) { c.NumSheep = -1 }),
	)

	It("rejects policies driving the wrong side", func() {
		r := newRunner(params, policy.NewZero(chase.Sheep), policy.NewZero(chase.Sheep))
		_, err := r.Run(context.Background(), cfg)
		Expect(err).To(MatchError(chase.ErrConfiguration))
	})

	Describe("Session", func() {
		It("refuses to tick past the end", func() {
			r := newRunner(params, policy.NewZero(chase.Wolf), policy.NewZero(chase.Sheep))
			cfg.MaxTicks = 1
			sess, err := r.Begin(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Scene().Roster.NumSheep).To(Equal(2))

			_, err = sess.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Done()).To(BeTrue())

			_, err = sess.Tick()
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Ensemble", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		cfg.NumSheep = 2
		cfg.MaxTicks = 20
	})

	factory := func(seed uint64) (*Runner, error) {
		return FromConfig(cfg, policy.NewRegistry(), seed)
	}

	It("runs every seed in order and reproducibly", func() {
		ens := NewEnsemble(factory, 4, 100)
		ens.SetWorkers(2)

		first, err := ens.Run(context.Background(), ConfigFor(cfg, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(HaveLen(4))
		for i, res := range first {
			Expect(res.Seed).To(Equal(uint64(100 + i)))
			Expect(res.Ticks).To(Equal(20))
		}

		second, err := ens.Run(context.Background(), ConfigFor(cfg, 0))
		Expect(err).NotTo(HaveOccurred())
		for i := range first {
			Expect(second[i].States).To(Equal(first[i].States))
		}
	})

	It("fails when a runner cannot be built", func() {
		cfg.WolfPolicy.Name = "teleport"
		_, err := NewEnsemble(factory, 3, 1).Run(context.Background(), ConfigFor(cfg, 0))
		Expect(err).To(MatchError(chase.ErrConfiguration))
	})

	It("summarizes metrics across runs", func() {
		results := []*Result{
			{Ticks: 10, Metrics: map[string]float64{"kills": 1}},
			{Ticks: 20, Metrics: map[string]float64{"kills": 3}},
		}
		sum := Summarize(results)
		Expect(sum.Runs).To(Equal(2))
		Expect(sum.Metrics["kills"].Mean).To(BeNumerically("~", 2, 1e-12))
		Expect(sum.Metrics["kills"].Min).To(Equal(1.0))
		Expect(sum.Metrics["kills"].Max).To(Equal(3.0))
		Expect(sum.Metrics["ticks"].Mean).To(BeNumerically("~", 15, 1e-12))
		Expect(sum.Names()).To(Equal([]string{"kills", "ticks"}))
	})
})
