package chase

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CaptureTracker", func() {
	var (
		sc     *Scene
		caught State
		missed State
	)

	BeforeEach(func() {
		sc = testScene(2, 1, 0)
		caught = State{at(0, 0), at(0.9, 0.9), at(0.05, 0)}
		missed = State{at(0, 0), at(0.9, 0.9), at(-0.6, 0)}
	})

	It("grows the streak while the sheep stays caught", func() {
		tracker := CaptureTracker{Life: 5, Threshold: KillAtLife}
		table := NewCaptureTable(sc.Roster)
		for i := 1; i <= 4; i++ {
			Expect(tracker.Advance(sc, table, caught)).To(BeEmpty())
			Expect(table[2]).To(Equal(i))
		}
	})

	It("drops the streak to zero on a miss", func() {
		tracker := CaptureTracker{Life: 5, Threshold: KillAtLife}
		table := CaptureTable{2: 3}
		tracker.Advance(sc, table, missed)
		Expect(table[2]).To(Equal(0))
	})

	It("counts one capture per tick even when several wolves overlap", func() {
		crowded := State{at(0, 0), at(0.02, 0), at(0.01, 0)}
		tracker := CaptureTracker{Life: 5, Threshold: KillAtLife}
		table := NewCaptureTable(sc.Roster)
		tracker.Advance(sc, table, crowded)
		Expect(table[2]).To(Equal(1))
	})

	DescribeTable("kill thresholds",
		func(threshold KillThreshold, killTick int) {
			tracker := CaptureTracker{Life: 2, Threshold: threshold}
			table := NewCaptureTable(sc.Roster)
			kills := 0
			for tick := 1; tick <= killTick+1; tick++ {
				events := tracker.Advance(sc, table, caught)
				if tick == killTick {
					Expect(events).To(ConsistOf(KillEvent{SheepID: 2, Streak: threshold.Limit(2)}))
					Expect(table[2]).To(Equal(0))
				}
				kills += len(events)
			}
			Expect(kills).To(Equal(1))
		},
		Entry("at sheep life", KillAtLife, 2),
		Entry("one past sheep life", KillAfterLife, 3),
	)

	It("recomputes from the streaks carried on the state", func() {
		tracker := CaptureTracker{Life: 3, Threshold: KillAfterLife}
		prev := State{at(0, 0), at(0.9, 0.9), {Pos: Vec2{0.05, 0}, Streak: 2}}

		table, kills := tracker.Recompute(sc, prev, caught)
		Expect(kills).To(BeEmpty())
		Expect(table).To(Equal(CaptureTable{2: 3}))
		Expect(prev[2].Streak).To(Equal(2))

		prev[2].Streak = 3
		table, kills = tracker.Recompute(sc, prev, caught)
		Expect(kills).To(HaveLen(1))
		Expect(table[2]).To(Equal(0))
	})

	It("honours the killzone ratio", func() {
		sc.Killzone = Killzone{Ratio: 0.1}
		tracker := CaptureTracker{Life: 3, Threshold: KillAtLife}
		table := NewCaptureTable(sc.Roster)
		tracker.Advance(sc, table, caught)
		Expect(table[2]).To(Equal(0))
	})

	It("parses threshold names", func() {
		k, err := ParseKillThreshold("after_life")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(KillAfterLife))

		_, err = ParseKillThreshold("never")
		Expect(err).To(MatchError(ErrConfiguration))
	})
})
