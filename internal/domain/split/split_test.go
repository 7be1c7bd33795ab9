package split_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/pacegrid/internal/domain/split"
	. "github.com/smartystreets/goconvey/convey"
)

func ev(id string, igt int64) split.Event {
	return split.Event{EventID: id, IGT: igt}
}

func TestExtract(t *testing.T) {
	Convey("Given cumulative event lists", t, func() {
		Convey("When a runner entered the nether and a bastion", func() {
			m, secs := split.Extract([]split.Event{
				ev(split.EventEnterNether, 60_000),
				ev(split.EventEnterBastion, 95_000),
			})

			Convey("Then S1 is reported with the bastion time", func() {
				So(m, ShouldEqual, split.S1)
				So(*secs, ShouldEqual, 95.0)
			})
		})

		Convey("When both fortress and bastion were entered", func() {
			m, secs := split.Extract([]split.Event{
				ev(split.EventEnterNether, 60_000),
				ev(split.EventEnterFortress, 120_000),
				ev(split.EventEnterBastion, 150_000),
			})

			Convey("Then S2 uses the later of the two", func() {
				So(m, ShouldEqual, split.S2)
				So(*secs, ShouldEqual, 150.0)
			})
		})

		Convey("When only a fortress was entered", func() {
			m, secs := split.Extract([]split.Event{
				ev(split.EventEnterNether, 50_000),
				ev(split.EventEnterFortress, 110_500),
			})

			Convey("Then S1 uses the fortress time", func() {
				So(m, ShouldEqual, split.S1)
				So(*secs, ShouldEqual, 110.5)
			})
		})

		Convey("When the runner reached the end", func() {
			m, secs := split.Extract([]split.Event{
				ev(split.EventEnterNether, 60_000),
				ev(split.EventEnterBastion, 100_000),
				ev(split.EventEnterFortress, 200_000),
				ev(split.EventFirstPortal, 280_000),
				ev(split.EventEnterStronghold, 380_000),
				ev(split.EventEnterEnd, 410_000),
			})

			Convey("Then END ENTER wins over every earlier milestone", func() {
				So(m, ShouldEqual, split.EndEnter)
				So(*secs, ShouldEqual, 410.0)
			})
		})

		Convey("When blind and stronghold are out of order in the list", func() {
			m, _ := split.Extract([]split.Event{
				ev(split.EventEnterStronghold, 380_000),
				ev(split.EventFirstPortal, 280_000),
			})

			Convey("Then the later milestone is still reported", func() {
				So(m, ShouldEqual, split.Stronghold)
			})
		})

		Convey("When only untracked events are present", func() {
			m, secs := split.Extract([]split.Event{ev("rsg.obtain_iron", 20_000)})

			Convey("Then no milestone is reported", func() {
				So(m, ShouldEqual, split.None)
				So(secs, ShouldBeNil)
			})
		})

		Convey("When the list is empty", func() {
			m, secs := split.Extract(nil)

			Convey("Then no milestone is reported", func() {
				So(m, ShouldEqual, split.None)
				So(secs, ShouldBeNil)
			})
		})

		Convey("When an event id repeats", func() {
			m, secs := split.Extract([]split.Event{
				ev(split.EventEnterNether, 70_000),
				ev(split.EventEnterNether, 90_000),
			})

			Convey("Then the first occurrence is used", func() {
				So(m, ShouldEqual, split.Nether)
				So(*secs, ShouldEqual, 70.0)
			})
		})
	})
}

func TestMilestoneProgression(t *testing.T) {
	Convey("Given the milestone progression", t, func() {
		Convey("Then every milestone but FINISH has one successor", func() {
			order := []split.Milestone{split.Nether, split.S1, split.S2, split.Blind, split.Stronghold, split.EndEnter}
			for i, m := range order {
				next, ok := m.Next()
				So(ok, ShouldBeTrue)
				if i+1 < len(order) {
					So(next, ShouldEqual, order[i+1])
				} else {
					So(next, ShouldEqual, split.Finish)
				}
			}
			_, ok := split.Finish.Next()
			So(ok, ShouldBeFalse)
			_, ok = split.None.Next()
			So(ok, ShouldBeFalse)
		})

		Convey("Then the reference constants match the published table", func() {
			So(split.Nether.GoodSplitSeconds(), ShouldEqual, 90.0)
			So(split.Nether.ProgressionBonus(), ShouldEqual, -0.1)
			So(split.EndEnter.GoodSplitSeconds(), ShouldEqual, 420.0)
			So(split.Finish.ProgressionBonus(), ShouldEqual, 1.0)
		})
	})
}

func TestMilestoneJSON(t *testing.T) {
	Convey("Given milestone JSON encoding", t, func() {
		Convey("When encoding a milestone and none", func() {
			b, err := json.Marshal(map[string]split.Milestone{"a": split.EndEnter, "b": split.None})
			So(err, ShouldBeNil)

			Convey("Then names and null are produced", func() {
				So(string(b), ShouldEqual, `{"a":"END ENTER","b":null}`)
			})
		})

		Convey("When decoding names", func() {
			var got struct {
				A split.Milestone `json:"a"`
				B split.Milestone `json:"b"`
			}
			err := json.Unmarshal([]byte(`{"a":"stronghold","b":null}`), &got)

			Convey("Then they round back to milestones", func() {
				So(err, ShouldBeNil)
				So(got.A, ShouldEqual, split.Stronghold)
				So(got.B, ShouldEqual, split.None)
			})
		})

		Convey("When decoding an unknown name", func() {
			var m split.Milestone
			err := json.Unmarshal([]byte(`"WATER"`), &m)

			Convey("Then ErrUnknownMilestone is returned", func() {
				So(errors.Is(err, split.ErrUnknownMilestone), ShouldBeTrue)
			})
		})
	})
}
