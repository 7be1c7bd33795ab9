package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register the pacegrid metrics", func() {
				So(manager, ShouldNotBeNil)
				manager.visibleSize.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "pacegrid_ranking_visible_size")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("grid"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names should use them", func() {
				manager.pbCacheHits.Inc()
				So(testutil.ToFloat64(manager.pbCacheHits), ShouldEqual, 1)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_grid_pb_cache_hits_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording PB cache activity", func() {
			before := testutil.ToFloat64(globalManager.pbCacheMisses)
			RecordPBCacheMiss()
			RecordPBCacheMiss()

			Convey("Then the counter should advance", func() {
				So(testutil.ToFloat64(globalManager.pbCacheMisses), ShouldEqual, before+2)
			})
		})

		Convey("When recording poll cycles by result", func() {
			before := testutil.ToFloat64(globalManager.pollCycles.WithLabelValues("skipped"))
			RecordPollCycle("skipped")

			Convey("Then only that label should advance", func() {
				So(testutil.ToFloat64(globalManager.pollCycles.WithLabelValues("skipped")), ShouldEqual, before+1)
			})
		})

		Convey("When setting gauges", func() {
			UpdateVisibleSize(4)
			UpdateFeedRuns("live", 7)
			UpdateHubSubscribers(2)

			Convey("Then they should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.visibleSize), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.feedRuns.WithLabelValues("live")), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.hubSubscribers), ShouldEqual, 2)
			})
		})

		Convey("When recording the remaining helpers", func() {
			So(func() {
				RecordPollLatency(12)
				RecordVisibleChange()
				RecordRescoreTick("steady")
				RecordPBCacheHit()
				UpdatePBCacheSize(3)
				RecordPBLookupError()
				RecordPBEvictions(2)
				RecordHubDropped()
				RecordHubDelivered()
				RecordHTTPRequest("visible", "GET", "200")
				RecordHTTPRequestDuration("visible", "GET", "200", 1.5)
				RecordErrorByComponent("poller", "feed_error")
			}, ShouldNotPanic)
		})

		Convey("Then the registry should be exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
