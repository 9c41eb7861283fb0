package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"

	docstore "github.com/denis-tintumapp/pinot/internal/adapters/docstore"
	app "github.com/denis-tintumapp/pinot/internal/app"
	model "github.com/denis-tintumapp/pinot/internal/domain/model"
)

// eventually polls f against a real-time deadline; the service clock is
// fake, but the tick loop runs on its own goroutine.
func eventually(f func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return f()
}

func finalized(ctx context.Context, svc *app.Service, eventID, sessionID string) func() bool {
	return func() bool {
		doc, err := svc.Document(ctx, eventID, sessionID)
		return err == nil && doc.Finalized
	}
}

func TestTimerSync_AutoFinalize(t *testing.T) {
	Convey("Given a running 30-minute countdown and a complete document", t, func() {
		ctx := context.Background()
		store := docstore.NewMemoryStore()
		expires := t0.Add(30 * time.Minute)
		seedEvent(ctx, store, model.TimerState{Active: true, StartedAt: &t0, ExpiresAt: &expires})
		clock := clockwork.NewFakeClockAt(t0)
		svc := newService(store, clock)

		So(svc.ClaimName(ctx, "evt-1", "sess-1", "Ana"), ShouldBeNil)
		So(svc.AssignCard(ctx, "evt-1", "sess-1", "L1", "C1"), ShouldBeNil)
		So(svc.AssignCard(ctx, "evt-1", "sess-1", "L2", "C2"), ShouldBeNil)

		timer := svc.NewTimer("evt-1", "sess-1")
		So(timer.Start(ctx), ShouldBeNil)
		defer timer.Stop()
		clock.BlockUntil(1)

		Convey("When time has not run out", func() {
			remaining, running := timer.Remaining()

			Convey("Then the countdown is visible and nothing fires", func() {
				So(running, ShouldBeTrue)
				So(remaining, ShouldEqual, 30*time.Minute)
				doc, err := svc.Document(ctx, "evt-1", "sess-1")
				So(err, ShouldBeNil)
				So(doc.Finalized, ShouldBeFalse)
			})
		})

		Convey("When the countdown expires", func() {
			clock.Advance(31 * time.Minute)

			Convey("Then the document is auto-finalized exactly once", func() {
				So(eventually(finalized(ctx, svc, "evt-1", "sess-1")), ShouldBeTrue)
				doc, err := svc.Document(ctx, "evt-1", "sess-1")
				So(err, ShouldBeNil)

				// Further ticks past expiry must not disturb the document.
				clock.Advance(2 * time.Minute)
				clock.Advance(2 * time.Minute)
				again, err := svc.Document(ctx, "evt-1", "sess-1")
				So(err, ShouldBeNil)
				So(again, ShouldResemble, doc)

				remaining, running := timer.Remaining()
				So(running, ShouldBeTrue)
				So(remaining, ShouldEqual, time.Duration(0))
			})
		})
	})
}

func TestTimerSync_HostControls(t *testing.T) {
	Convey("Given an event with no countdown", t, func() {
		ctx := context.Background()
		store := docstore.NewMemoryStore()
		event := seedEvent(ctx, store, model.TimerState{})
		clock := clockwork.NewFakeClockAt(t0)
		svc := newService(store, clock)
		So(svc.ClaimName(ctx, "evt-1", "sess-1", "Ana"), ShouldBeNil)

		timer := svc.NewTimer("evt-1", "sess-1")
		So(timer.Start(ctx), ShouldBeNil)
		defer timer.Stop()
		clock.BlockUntil(1)

		Convey("Then the synchronizer idles", func() {
			_, running := timer.Remaining()
			So(running, ShouldBeFalse)
		})

		Convey("When the host starts the countdown", func() {
			started := clock.Now()
			expires := started.Add(10 * time.Minute)
			event.Timer = model.TimerState{Active: true, StartedAt: &started, ExpiresAt: &expires}
			So(store.Upsert(ctx, docstore.Events, event.ID, event), ShouldBeNil)

			Convey("Then the change is picked up through the subscription", func() {
				remaining, running := timer.Remaining()
				So(running, ShouldBeTrue)
				So(remaining, ShouldEqual, 10*time.Minute)
			})

			Convey("And the host clearing it returns the synchronizer to idle", func() {
				event.Timer = model.TimerState{}
				So(store.Upsert(ctx, docstore.Events, event.ID, event), ShouldBeNil)
				_, running := timer.Remaining()
				So(running, ShouldBeFalse)
			})
		})
	})
}
