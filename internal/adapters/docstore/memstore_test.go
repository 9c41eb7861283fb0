package docstore_test

import (
	"context"
	"testing"
	"time"

	docstore "github.com/denis-tintumapp/pinot/internal/adapters/docstore"
	model "github.com/denis-tintumapp/pinot/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore_GetUpsert(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		store := docstore.NewMemoryStore()

		Convey("When getting a missing document", func() {
			var event model.EventRecord
			err := store.Get(ctx, docstore.Events, "nope", &event)

			Convey("Then it reports ErrNotFound", func() {
				So(err, ShouldWrap, docstore.ErrNotFound)
			})
		})

		Convey("When a document is upserted and read back", func() {
			event := model.EventRecord{
				ID:     "evt-1",
				Name:   "Cata de Rioja",
				PIN:    "73914",
				HostID: "host-1",
				Cards:  []model.CardRef{{ID: "C1", Name: "As"}, {ID: "C2", Name: "Dos"}},
			}
			So(store.Upsert(ctx, docstore.Events, event.ID, event), ShouldBeNil)

			var got model.EventRecord
			So(store.Get(ctx, docstore.Events, "evt-1", &got), ShouldBeNil)

			Convey("Then the round-tripped document matches", func() {
				So(got, ShouldResemble, event)
			})

			Convey("And upserting again overwrites the whole document", func() {
				event.Name = "Cata de Malbec"
				So(store.Upsert(ctx, docstore.Events, event.ID, event), ShouldBeNil)
				So(store.Get(ctx, docstore.Events, "evt-1", &got), ShouldBeNil)
				So(got.Name, ShouldEqual, "Cata de Malbec")
			})
		})
	})
}

func TestMemoryStore_Query(t *testing.T) {
	Convey("Given labels from two different events", t, func() {
		ctx := context.Background()
		store := docstore.NewMemoryStore()
		for _, l := range []model.LabelRecord{
			{ID: "L1", EventID: "evt-1", Name: "Rioja"},
			{ID: "L2", EventID: "evt-1", Name: "Malbec"},
			{ID: "L3", EventID: "evt-2", Name: "Syrah"},
		} {
			So(store.Upsert(ctx, docstore.Labels, l.ID, l), ShouldBeNil)
		}

		Convey("When querying by event id", func() {
			var labels []model.LabelRecord
			err := store.Query(ctx, docstore.Labels, docstore.Filter{"eventId": "evt-1"}, &labels)

			Convey("Then only that event's labels come back, ordered by id", func() {
				So(err, ShouldBeNil)
				So(labels, ShouldHaveLength, 2)
				So(labels[0].ID, ShouldEqual, "L1")
				So(labels[1].ID, ShouldEqual, "L2")
			})
		})

		Convey("When querying with an empty filter", func() {
			var labels []model.LabelRecord
			So(store.Query(ctx, docstore.Labels, nil, &labels), ShouldBeNil)

			Convey("Then every document matches", func() {
				So(labels, ShouldHaveLength, 3)
			})
		})
	})
}

func TestMemoryStore_Subscribe(t *testing.T) {
	Convey("Given a subscription filtered to one event", t, func() {
		ctx := context.Background()
		store := docstore.NewMemoryStore()

		var calls int
		cancel, err := store.Subscribe(ctx, docstore.Participations, docstore.Filter{"eventId": "evt-1"}, func(context.Context) {
			calls++
		})
		So(err, ShouldBeNil)

		Convey("When a matching document is written", func() {
			doc := model.NewParticipation("evt-1", "sess-1")
			doc.ParticipantName = "Ana"
			So(store.Upsert(ctx, docstore.Participations, "evt-1:sess-1", doc), ShouldBeNil)

			Convey("Then the callback fires once", func() {
				So(calls, ShouldEqual, 1)
			})

			Convey("And a callback may query the store without deadlocking", func() {
				inner, err := store.Subscribe(ctx, docstore.Participations, nil, func(cbCtx context.Context) {
					var docs []model.ParticipationDocument
					So(store.Query(cbCtx, docstore.Participations, nil, &docs), ShouldBeNil)
				})
				So(err, ShouldBeNil)
				defer inner()
				So(store.Upsert(ctx, docstore.Participations, "evt-1:sess-1", doc), ShouldBeNil)
			})
		})

		Convey("When a document for another event is written", func() {
			doc := model.NewParticipation("evt-2", "sess-9")
			So(store.Upsert(ctx, docstore.Participations, "evt-2:sess-9", doc), ShouldBeNil)

			Convey("Then the callback does not fire", func() {
				So(calls, ShouldEqual, 0)
			})
		})

		Convey("When the subscription is cancelled", func() {
			cancel()
			cancel() // safe to call twice
			doc := model.NewParticipation("evt-1", "sess-1")
			So(store.Upsert(ctx, docstore.Participations, "evt-1:sess-1", doc), ShouldBeNil)

			Convey("Then no further callbacks arrive", func() {
				So(calls, ShouldEqual, 0)
				So(store.SubscriberCount(docstore.Participations), ShouldEqual, 0)
			})
		})

		Convey("When timestamps survive the bson round trip", func() {
			at := time.Date(2026, 3, 14, 20, 5, 0, 0, time.UTC)
			doc := model.NewParticipation("evt-1", "sess-1")
			doc.SetAssignment("L1", "C1", at)
			So(store.Upsert(ctx, docstore.Participations, "evt-1:sess-1", doc), ShouldBeNil)

			var got model.ParticipationDocument
			So(store.Get(ctx, docstore.Participations, "evt-1:sess-1", &got), ShouldBeNil)

			Convey("Then the stamp compares equal in UTC", func() {
				So(got.AssignmentTimes["L1"].UTC(), ShouldResemble, at)
			})
		})
	})
}

func TestMemoryStore_Close(t *testing.T) {
	Convey("Given a closed store", t, func() {
		ctx := context.Background()
		store := docstore.NewMemoryStore()
		So(store.Close(), ShouldBeNil)

		Convey("Then every operation reports ErrClosed", func() {
			var event model.EventRecord
			So(store.Get(ctx, docstore.Events, "x", &event), ShouldWrap, docstore.ErrClosed)
			So(store.Upsert(ctx, docstore.Events, "x", event), ShouldWrap, docstore.ErrClosed)
			_, err := store.Subscribe(ctx, docstore.Events, nil, func(context.Context) {})
			So(err, ShouldWrap, docstore.ErrClosed)
		})
	})
}
