package feed_test

import (
	"testing"

	"github.com/okian/pacegrid/internal/domain/feed"
	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/internal/domain/split"
	. "github.com/smartystreets/goconvey/convey"
)

func str(s string) *string { return &s }

func raw(account, nick string, hidden, cheated bool, events ...model.MilestoneEvent) model.RawRun {
	r := model.RawRun{
		EventList:   events,
		Nickname:    nick,
		IsHidden:    hidden,
		IsCheated:   cheated,
		LastUpdated: 1_700_000_000_000,
	}
	if account != "" {
		r.User.LiveAccount = str(account)
	}
	return r
}

func nether(igt int64) model.MilestoneEvent {
	return model.MilestoneEvent{EventID: split.EventEnterNether, IGT: igt}
}

func TestNormalize(t *testing.T) {
	Convey("Given a raw feed", t, func() {
		data := []model.RawRun{
			raw("alice", "AliceMC", false, false, nether(60_000)),
			raw("", "NoStream", false, false, nether(50_000)),
			raw("bob", "BobMC", true, false, nether(40_000)),
			raw("carol", "CarolMC", false, true, nether(45_000)),
			raw("alice", "AliceAlt", false, false, nether(30_000)),
		}

		Convey("When normalizing without a filter", func() {
			pools := feed.Normalize(data, feed.Options{FilteringEnabled: true})

			Convey("Then runs without a live account are dropped", func() {
				So(model.Accounts(pools.Live), ShouldResemble, []string{"alice"})
				So(model.Accounts(pools.Hidden), ShouldResemble, []string{"bob", "carol"})
			})

			Convey("Then live runs carry extracted milestones", func() {
				a := pools.Live[0]
				So(a.Milestone, ShouldEqual, split.Nether)
				So(*a.ElapsedSeconds, ShouldEqual, 60.0)
				So(a.DisplayName, ShouldEqual, "alice")
				So(a.MinecraftName, ShouldEqual, "AliceMC")
				So(*a.LastUpdated, ShouldEqual, int64(1_700_000_000_000))
			})

			Convey("Then hidden runs carry no progress", func() {
				for _, h := range pools.Hidden {
					So(h.Hidden, ShouldBeTrue)
					So(h.Milestone, ShouldEqual, split.None)
					So(h.ElapsedSeconds, ShouldBeNil)
				}
			})

			Convey("Then the filter is reported inactive", func() {
				So(pools.FilterActive, ShouldBeFalse)
				So(pools.FilteredEmpty, ShouldBeFalse)
			})
		})

		Convey("When cheated runs are included", func() {
			pools := feed.Normalize(data, feed.Options{IncludeCheated: true})

			Convey("Then cheated but visible runs join the live pool", func() {
				So(model.Accounts(pools.Live), ShouldResemble, []string{"alice", "carol"})
				So(model.Accounts(pools.Hidden), ShouldResemble, []string{"bob"})
			})
		})

		Convey("When a filter matches by Minecraft name", func() {
			pools := feed.Normalize(data, feed.Options{Filter: []string{"bobmc", "ALICEMC"}, FilteringEnabled: true})

			Convey("Then both pools are filtered case-insensitively", func() {
				So(pools.FilterActive, ShouldBeTrue)
				So(model.Accounts(pools.Live), ShouldResemble, []string{"alice"})
				So(model.Accounts(pools.Hidden), ShouldResemble, []string{"bob"})
			})
		})

		Convey("When a filter matches nobody", func() {
			pools := feed.Normalize(data, feed.Options{Filter: []string{"ghost"}, FilteringEnabled: true})

			Convey("Then the pools are explicitly empty", func() {
				So(pools.Live, ShouldBeEmpty)
				So(pools.Hidden, ShouldBeEmpty)
				So(pools.FilteredEmpty, ShouldBeTrue)
			})
		})

		Convey("When filtering is disabled", func() {
			pools := feed.Normalize(data, feed.Options{Filter: []string{"ghost"}, FilteringEnabled: false})

			Convey("Then the filter list is ignored", func() {
				So(model.Accounts(pools.Live), ShouldResemble, []string{"alice"})
				So(pools.FilteredEmpty, ShouldBeFalse)
			})
		})

		Convey("When a hidden entry precedes a live entry for the same account", func() {
			end := model.MilestoneEvent{EventID: split.EventEnterEnd, IGT: 400_000}
			pools := feed.Normalize([]model.RawRun{
				raw("bob", "BobMC", true, false),
				raw("bob", "BobMC", false, false, end),
				raw("carol", "CarolMC", false, false, nether(120_000)),
			}, feed.Options{})

			Convey("Then the live entry is kept and the hidden one dropped", func() {
				So(model.Accounts(pools.Live), ShouldResemble, []string{"bob", "carol"})
				So(pools.Live[0].Milestone, ShouldEqual, split.EndEnter)
				So(pools.Hidden, ShouldBeEmpty)
			})
		})

		Convey("When the same account appears with different casing", func() {
			pools := feed.Normalize([]model.RawRun{
				raw("Alice", "AliceMC", false, false, nether(60_000)),
				raw("alice", "AliceMC", false, false, nether(50_000)),
				raw("ERIN", "ErinMC", true, false),
				raw("erin", "ErinMC", true, false),
			}, feed.Options{})

			Convey("Then only the first entry per pool survives", func() {
				So(model.Accounts(pools.Live), ShouldResemble, []string{"Alice"})
				So(model.Accounts(pools.Hidden), ShouldResemble, []string{"ERIN"})
			})
		})

		Convey("When an entry carries a pre-populated PB", func() {
			pb := 512.5
			r := raw("dave", "DaveMC", false, false)
			r.User.Username = "Dave"
			r.PB = &pb
			pools := feed.Normalize([]model.RawRun{r}, feed.Options{})

			Convey("Then it is kept as the personal best", func() {
				So(*pools.Live[0].PersonalBestSeconds, ShouldEqual, 512.5)
				So(pools.Live[0].DisplayName, ShouldEqual, "Dave")
				So(pools.Live[0].Milestone, ShouldEqual, split.None)
			})
		})
	})
}

func TestParseRunnerList(t *testing.T) {
	Convey("Given runner list entries", t, func() {
		Convey("When entries use the bot-export format", func() {
			got := feed.ParseRunnerList("alice:12/34/56\n  bob  \n\n", "carol", " :odd", ":lead")

			Convey("Then only names are kept and blanks dropped", func() {
				So(got, ShouldResemble, []string{"alice", "bob", "carol", ":lead"})
			})
		})

		Convey("When nothing is given", func() {
			Convey("Then the list is empty", func() {
				So(feed.ParseRunnerList(), ShouldBeEmpty)
				So(feed.ParseRunnerList("", "  "), ShouldBeEmpty)
			})
		})
	})
}

func TestMatches(t *testing.T) {
	Convey("Given a filter", t, func() {
		f := []string{"Alice"}

		Convey("Then matching ignores case and whitespace", func() {
			So(feed.Matches(f, " alice "), ShouldBeTrue)
			So(feed.Matches(f, "bob"), ShouldBeFalse)
			So(feed.Matches(f, ""), ShouldBeFalse)
		})
	})
}
