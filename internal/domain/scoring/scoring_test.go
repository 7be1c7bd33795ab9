package scoring_test

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/okian/pacegrid/internal/domain/model"
	scoring "github.com/okian/pacegrid/internal/domain/scoring"
	"github.com/okian/pacegrid/internal/domain/split"
	. "github.com/smartystreets/goconvey/convey"
)

func secs(v float64) *float64 { return &v }
func ms(v int64) *int64       { return &v }

func TestCompute(t *testing.T) {
	now := time.UnixMilli(1_700_000_100_000)

	Convey("Given the adjusted-time score", t, func() {
		Convey("When no lastUpdated is known", func() {
			s := scoring.Compute(split.Nether, secs(60), nil, now)

			Convey("Then only the current milestone is scored", func() {
				So(s.Value, ShouldAlmostEqual, 60.0/90.0+0.1, 1e-9)
				So(s.Value, ShouldAlmostEqual, 0.7667, 1e-4)
				So(s.UsedMilestone, ShouldEqual, split.Nether)
				So(s.NextMilestoneValue, ShouldBeNil)
				So(s.EstimatedElapsedSeconds, ShouldBeNil)
			})
		})

		Convey("When elapsed time differs at the same milestone", func() {
			fast := scoring.Compute(split.S2, secs(200), nil, now)
			slow := scoring.Compute(split.S2, secs(260), nil, now)

			Convey("Then the faster runner scores lower", func() {
				So(fast.Value, ShouldBeLessThan, slow.Value)
			})
		})

		Convey("When milestone or time is missing", func() {
			noMilestone := scoring.Compute(split.None, secs(100), ms(1), now)
			zero := scoring.Compute(split.S1, secs(0), nil, now)
			nilTime := scoring.Compute(split.S1, nil, nil, now)

			Convey("Then all yield the same worst sentinel", func() {
				So(math.IsInf(noMilestone.Value, 1), ShouldBeTrue)
				So(zero.Value, ShouldEqual, noMilestone.Value)
				So(nilTime.Value, ShouldEqual, noMilestone.Value)
			})

			Convey("And the sentinel sorts after every real score", func() {
				scores := []model.Score{zero, scoring.Compute(split.Nether, secs(500), nil, now), noMilestone}
				sort.SliceStable(scores, func(i, j int) bool { return scoring.Less(scores[i], scores[j]) })
				So(math.IsInf(scores[0].Value, 1), ShouldBeFalse)
				So(math.IsInf(scores[2].Value, 1), ShouldBeTrue)
			})
		})

		Convey("When the runner was just updated", func() {
			last := now.UnixMilli()
			s := scoring.Compute(split.Nether, secs(60), &last, now)

			Convey("Then the current milestone still dominates", func() {
				// next = 60/120 - 0.1 = 0.4 < 0.7667
				So(s.Value, ShouldAlmostEqual, s.CurrentMilestoneValue, 1e-9)
				So(s.UsedMilestone, ShouldEqual, split.Nether)
				So(s.NextMilestone, ShouldEqual, split.S1)
				So(*s.NextMilestoneValue, ShouldAlmostEqual, 0.4, 1e-9)
				So(*s.EstimatedElapsedSeconds, ShouldAlmostEqual, 60.0, 1e-9)
			})
		})

		Convey("When a long time has passed since the last update", func() {
			last := now.UnixMilli() - 60_000
			s := scoring.Compute(split.Nether, secs(60), &last, now)

			Convey("Then the projected next milestone value is used as a floor", func() {
				// estimated 120s: next = 120/120 - 0.1 = 0.9 > 0.7667
				So(*s.EstimatedElapsedSeconds, ShouldAlmostEqual, 120.0, 1e-9)
				So(s.Value, ShouldAlmostEqual, 0.9, 1e-9)
				So(s.UsedMilestone, ShouldEqual, split.S1)
				So(s.Value, ShouldBeGreaterThanOrEqualTo, s.CurrentMilestoneValue)
			})
		})

		Convey("When the runner is at END ENTER", func() {
			last := now.UnixMilli() - 30_000
			s := scoring.Compute(split.EndEnter, secs(420), &last, now)

			Convey("Then FINISH is the look-ahead target", func() {
				So(s.NextMilestone, ShouldEqual, split.Finish)
				// current 1.0 - 0.9 = 0.1; next 450/600 - 1.0 = -0.25
				So(s.Value, ShouldAlmostEqual, 0.1, 1e-9)
			})
		})

		Convey("When the runner is at the last milestone", func() {
			last := now.UnixMilli() - 30_000
			s := scoring.Compute(split.Finish, secs(600), &last, now)

			Convey("Then there is no look-ahead", func() {
				So(s.Value, ShouldAlmostEqual, 0.0, 1e-9)
				So(s.NextMilestoneValue, ShouldBeNil)
			})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a normalized run", t, func() {
		r := model.NormalizedRun{LiveAccount: "alice", Milestone: split.S1, ElapsedSeconds: secs(120)}

		Convey("Then Run scores it from its own fields", func() {
			s := scoring.Run(&r, time.Now())
			So(s.Value, ShouldAlmostEqual, 0.9, 1e-9)
		})
	})
}
