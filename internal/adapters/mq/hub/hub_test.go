package hub_test

import (
	"context"
	"testing"

	"github.com/okian/pacegrid/internal/adapters/mq/hub"
	"github.com/okian/pacegrid/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHub(t *testing.T) {
	ctx := context.Background()

	Convey("Given a hub", t, func() {
		h := hub.New(hub.WithQueueCapacity(1))

		Convey("When two subscribers are registered", func() {
			a, unsubA := h.Subscribe()
			b, unsubB := h.Subscribe()
			defer unsubB()

			Convey("Then a publish reaches both", func() {
				So(h.Subscribers(), ShouldEqual, 2)
				So(h.Publish(ctx, model.Update{Sequence: 1}), ShouldEqual, 2)
				So(a.Len(ctx), ShouldEqual, 1)
				So(b.Len(ctx), ShouldEqual, 1)
			})

			Convey("Then a full subscriber drops without blocking the others", func() {
				h.Publish(ctx, model.Update{Sequence: 1})
				<-b.Dequeue(ctx)
				So(h.Publish(ctx, model.Update{Sequence: 2}), ShouldEqual, 1)
			})

			Convey("Then unsubscribing closes the queue and is idempotent", func() {
				unsubA()
				unsubA()
				So(a.IsClosed(), ShouldBeTrue)
				So(h.Subscribers(), ShouldEqual, 1)
			})
		})

		Convey("When the hub is closed", func() {
			q, _ := h.Subscribe()
			h.Close()
			late, unsub := h.Subscribe()
			unsub()

			Convey("Then every queue is closed", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(late.IsClosed(), ShouldBeTrue)
				So(h.Subscribers(), ShouldEqual, 0)
				So(h.Publish(ctx, model.Update{}), ShouldEqual, 0)
			})
		})
	})
}
