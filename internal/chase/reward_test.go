package chase

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reward policies", func() {
	var (
		sc    *Scene
		calm  State
		bites State
	)

	BeforeEach(func() {
		sc = testScene(3, 2, 0)
		calm = State{at(-0.5, -0.5), at(0, 0.8), at(0.8, 0), at(0.3, 0.3), at(-0.3, 0.3)}
		// wolf 0 sits between both sheep, wolf 1 touches sheep 3, wolf 2 is alone
		bites = State{at(0, 0.3), at(0.1, 0.3), at(0.8, -0.8), at(0.05, 0.3), at(-0.05, 0.3)}
	})

	Describe("CollisionShared", func() {
		policy := CollisionShared{CollisionReward: 10, Individual: 0.8}

		It("pays nothing without collisions", func() {
			Expect(policy.Reward(sc, calm, nil, calm)).To(Equal([]float64{0, 0, 0}))
		})

		It("splits each collision between the biter and the pack", func() {
			r := policy.Reward(sc, calm, nil, bites)
			Expect(r).To(HaveLen(3))
			Expect(r[0]).To(BeNumerically("~", 2*8+3*(2.0/3), 1e-9))
			Expect(r[1]).To(BeNumerically("~", 8+3*(2.0/3), 1e-9))
			Expect(r[2]).To(BeNumerically("~", 3*(2.0/3), 1e-9))
		})

		It("pools collisionReward times the number of colliding pairs", func() {
			for _, individual := range []float64{0, 0.3, 1} {
				p := CollisionShared{CollisionReward: 10, Individual: individual}
				sum := 0.0
				for _, v := range p.Reward(sc, calm, nil, bites) {
					sum += v
				}
				Expect(sum).To(BeNumerically("~", 30, 1e-9))
			}
		})
	})

	Describe("BiteAndKill", func() {
		policy := BiteAndKill{BiteReward: 0.1, KillReward: 1, Life: 3}

		It("broadcasts bites plus kills of sheep that were already at full streak", func() {
			prev := calm.Clone()
			prev[3].Streak = 3
			next := bites.Clone()
			next[3].Streak = 0

			r := policy.Reward(sc, prev, nil, next)
			Expect(r).To(HaveLen(3))
			for _, v := range r {
				Expect(v).To(BeNumerically("~", 3*0.1+1, 1e-9))
			}
		})

		It("ignores streaks on the next state", func() {
			next := calm.Clone()
			next[3].Streak = 3
			Expect(policy.Reward(sc, calm, nil, next)).To(Equal([]float64{0, 0, 0}))
		})
	})

	Describe("ContinuousHunting", func() {
		var policy *ContinuousHunting

		BeforeEach(func() {
			policy = NewContinuousHunting(5, 2)
			policy.ResetEpisode(sc)
		})

		It("pays once the streak reaches sheep life and starts over", func() {
			Expect(policy.Reward(sc, calm, nil, bites)).To(Equal([]float64{0, 0, 0}))
			Expect(policy.Table()).To(Equal(CaptureTable{3: 1, 4: 1}))

			Expect(policy.Reward(sc, calm, nil, bites)).To(Equal([]float64{10, 10, 10}))
			Expect(policy.Table()).To(Equal(CaptureTable{3: 0, 4: 0}))
		})

		It("forgets streaks on a miss and on episode reset", func() {
			policy.Reward(sc, calm, nil, bites)
			policy.Reward(sc, calm, nil, calm)
			Expect(policy.Table()).To(Equal(CaptureTable{3: 0, 4: 0}))

			policy.Reward(sc, calm, nil, bites)
			policy.ResetEpisode(sc)
			Expect(policy.Table()).To(Equal(CaptureTable{3: 0, 4: 0}))
		})
	})

	Describe("SheepPenalty", func() {
		policy := SheepPenalty{CollisionPunishment: 2}

		It("punishes collisions per wolf", func() {
			r := policy.Reward(sc, calm, nil, bites)
			Expect(r).To(HaveLen(2))
			Expect(r[0]).To(BeNumerically("~", -4, 1e-9))
			Expect(r[1]).To(BeNumerically("~", -2, 1e-9))
		})

		It("punishes drifting towards the walls", func() {
			next := calm.Clone()
			next[3] = at(0.95, 0)
			next[4] = at(-1.1, 0.5)
			r := policy.Reward(sc, calm, nil, next)
			Expect(r[0]).To(BeNumerically("~", -0.5, 1e-9))
			Expect(r[1]).To(BeNumerically("~", -math.Exp(0.2), 1e-9))
		})
	})

	DescribeTable("OutOfBoundPenalty",
		func(pos Vec2, want float64) {
			Expect(OutOfBoundPenalty(pos)).To(BeNumerically("~", want, 1e-9))
		},
		Entry("centre", Vec2{0, 0}, 0.0),
		Entry("ramp start", Vec2{0.9, 0}, 0.0),
		Entry("ramp", Vec2{-0.95, 0}, 0.5),
		Entry("wall", Vec2{1.0, 0}, 1.0),
		Entry("both axes", Vec2{0.95, -0.95}, 1.0),
		Entry("saturated", Vec2{3, 0}, 10.0),
	)

	Describe("ActionCost", func() {
		actions := []Vec2{{3, 4}, {0, 1}, {0, 0}}

		It("charges individually", func() {
			cost := ActionCost{Ratio: 0.1, Individual: true}.Cost(actions)
			Expect(cost).To(HaveLen(3))
			Expect(cost[0]).To(BeNumerically("~", 0.5, 1e-9))
			Expect(cost[1]).To(BeNumerically("~", 0.1, 1e-9))
			Expect(cost[2]).To(BeZero())
		})

		It("pools the cost", func() {
			cost := ActionCost{Ratio: 0.1}.Cost(actions)
			for _, c := range cost {
				Expect(c).To(BeNumerically("~", 0.6, 1e-9))
			}
		})

		It("is subtracted from the wrapped policy's side", func() {
			wrapped := WithActionCost{
				Policy: CollisionShared{CollisionReward: 10, Individual: 1},
				Cost:   ActionCost{Ratio: 1, Individual: true},
			}
			all := []Vec2{{1, 0}, {0, 0}, {0, 2}, {9, 9}, {9, 9}}
			r := wrapped.Reward(sc, calm, all, calm)
			Expect(r).To(HaveLen(3))
			Expect(r[0]).To(BeNumerically("~", -1, 1e-9))
			Expect(r[1]).To(BeNumerically("~", 0, 1e-9))
			Expect(r[2]).To(BeNumerically("~", -2, 1e-9))
		})

		It("reports whether it reads actions", func() {
			Expect(WithActionCost{Policy: SheepPenalty{}, Cost: ActionCost{Ratio: 1}}.NeedsActions()).To(BeTrue())
			Expect(WithActionCost{Policy: SheepPenalty{}}.NeedsActions()).To(BeFalse())
		})

		It("leaves the reward uncosted when actions fall short", func() {
			wrapped := WithActionCost{
				Policy: CollisionShared{CollisionReward: 10, Individual: 1},
				Cost:   ActionCost{Ratio: 1, Individual: true},
			}
			Expect(wrapped.Reward(sc, calm, []Vec2{{1, 0}}, calm)).To(Equal([]float64{0, 0, 0}))
		})
	})

	Describe("NewRewardPolicy", func() {
		It("builds every variant", func() {
			for _, v := range []string{RewardCollisionShared, RewardBiteAndKill, RewardContinuousHunting, RewardSheep} {
				p, err := NewRewardPolicy(RewardParams{Variant: v}, 3)
				Expect(err).NotTo(HaveOccurred())
				Expect(p).NotTo(BeNil())
			}
		})

		It("wraps action costs and keeps the side", func() {
			p, err := NewRewardPolicy(RewardParams{Variant: RewardSheep, ActionCostRatio: 0.1}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeAssignableToTypeOf(WithActionCost{}))
			Expect(p.Side()).To(Equal(Sheep))
		})

		It("rejects unknown variants", func() {
			_, err := NewRewardPolicy(RewardParams{Variant: "mystery"}, 3)
			Expect(err).To(MatchError(ErrConfiguration))
		})
	})
})
