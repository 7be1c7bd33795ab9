package paceman_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/pacegrid/internal/adapters/paceman"
	. "github.com/smartystreets/goconvey/convey"
)

const feedBody = `[
	{"eventList":[{"eventId":"rsg.enter_nether","rta":65000,"igt":60000}],
	 "user":{"uuid":"u-1","liveAccount":"alice"},"nickname":"AliceMC",
	 "isHidden":false,"isCheated":false,"lastUpdated":1700000000000},
	{"eventList":[],"user":{"uuid":"u-2","liveAccount":null},"nickname":"Nobody",
	 "isHidden":false,"isCheated":false,"lastUpdated":1700000000000}
]`

func server(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given the live-runs feed", t, func() {
		Convey("When the feed answers", func() {
			srv := server(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(feedBody))
			})
			runs, err := paceman.NewFeedClient(srv.URL).LiveRuns(ctx)

			Convey("Then raw runs are decoded", func() {
				So(err, ShouldBeNil)
				So(runs, ShouldHaveLength, 2)
				So(*runs[0].User.LiveAccount, ShouldEqual, "alice")
				So(runs[1].User.LiveAccount, ShouldBeNil)
				So(runs[0].EventList[0].IGT, ShouldEqual, int64(60000))
			})
		})

		Convey("When the feed fails", func() {
			srv := server(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			})
			_, err := paceman.NewFeedClient(srv.URL).LiveRuns(ctx)

			Convey("Then ErrUpstreamStatus is returned", func() {
				So(errors.Is(err, paceman.ErrUpstreamStatus), ShouldBeTrue)
			})
		})

		Convey("When the body is not JSON", func() {
			srv := server(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			})
			_, err := paceman.NewFeedClient(srv.URL).LiveRuns(ctx)

			Convey("Then ErrDecode is returned", func() {
				So(errors.Is(err, paceman.ErrDecode), ShouldBeTrue)
			})
		})
	})
}

func TestEventClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given the event backend", t, func() {
		var gotPath string
		srv := server(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			switch r.URL.Path {
			case "/paceman/event/cup-1/liveruns":
				_, _ = w.Write([]byte(`[{"eventList":[],"user":{"uuid":"u","liveAccount":"dave"},"nickname":"DaveMC","isHidden":false,"isCheated":false,"lastUpdated":0,"pb":512.5}]`))
			case "/paceman/event/gone/liveruns":
				_, _ = w.Write([]byte(`{"error":"Event not found"}`))
			default:
				http.NotFound(w, r)
			}
		})

		Convey("When the event exists", func() {
			runs, err := paceman.NewEventClient(srv.URL+"/", "cup-1").LiveRuns(ctx)

			Convey("Then placeholder entries keep their PB", func() {
				So(err, ShouldBeNil)
				So(gotPath, ShouldEqual, "/paceman/event/cup-1/liveruns")
				So(runs, ShouldHaveLength, 1)
				So(*runs[0].PB, ShouldEqual, 512.5)
			})
		})

		Convey("When the backend answers with an error body", func() {
			_, err := paceman.NewEventClient(srv.URL, "gone").LiveRuns(ctx)

			Convey("Then ErrUnknownEvent is returned", func() {
				So(errors.Is(err, paceman.ErrUnknownEvent), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Event not found")
			})
		})

		Convey("When the backend answers 404", func() {
			_, err := paceman.NewEventClient(srv.URL, "other").LiveRuns(ctx)

			Convey("Then ErrUnknownEvent is returned", func() {
				So(errors.Is(err, paceman.ErrUnknownEvent), ShouldBeTrue)
			})
		})
	})
}

func TestPBClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given the PB proxy", t, func() {
		srv := server(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("username") {
			case "alice":
				_, _ = w.Write([]byte(`{"pb":580.5,"username":"alice"}`))
			case "nopb":
				_, _ = w.Write([]byte(`{"pb":null,"username":"nopb"}`))
			case "err":
				_, _ = w.Write([]byte(`{"pb":null,"username":"err","error":"lookup failed"}`))
			default:
				w.WriteHeader(http.StatusInternalServerError)
			}
		})
		c := paceman.NewPBClient(srv.URL, paceman.WithTimeout(time.Second))

		Convey("Then a known runner yields the PB", func() {
			pb, err := c.Lookup(ctx, "alice")
			So(err, ShouldBeNil)
			So(*pb, ShouldEqual, 580.5)
		})

		Convey("Then a runner without PB yields nil", func() {
			pb, err := c.Lookup(ctx, "nopb")
			So(err, ShouldBeNil)
			So(pb, ShouldBeNil)
		})

		Convey("Then an error field yields ErrPBUnavailable", func() {
			pb, err := c.Lookup(ctx, "err")
			So(pb, ShouldBeNil)
			So(errors.Is(err, paceman.ErrPBUnavailable), ShouldBeTrue)
		})

		Convey("Then a failing proxy yields ErrUpstreamStatus", func() {
			_, err := c.Lookup(ctx, "zzz")
			So(errors.Is(err, paceman.ErrUpstreamStatus), ShouldBeTrue)
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a rate limited client", t, func() {
		srv := server(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"pb":1,"username":"x"}`))
		})
		c := paceman.NewPBClient(srv.URL, paceman.WithRateLimit(1, 1))

		Convey("When the context expires while waiting for a token", func() {
			_, err := c.Lookup(context.Background(), "x")
			So(err, ShouldBeNil)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, err = c.Lookup(ctx, "x")

			Convey("Then the lookup fails without a request", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "rate limiter")
			})
		})
	})
}

func TestTimeoutOption(t *testing.T) {
	Convey("Given a caller-owned HTTP client", t, func() {
		srv := server(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(feedBody))
		})
		shared := &http.Client{}

		Convey("When a timeout is applied after it", func() {
			c := paceman.NewFeedClient(srv.URL, paceman.WithHTTPClient(shared), paceman.WithTimeout(2*time.Second))
			runs, err := c.LiveRuns(context.Background())

			Convey("Then the caller's client keeps its own timeout", func() {
				So(err, ShouldBeNil)
				So(runs, ShouldHaveLength, 2)
				So(shared.Timeout, ShouldEqual, time.Duration(0))
			})
		})
	})
}
