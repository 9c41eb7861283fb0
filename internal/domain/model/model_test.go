package model_test

import (
	"testing"
	"time"

	model "github.com/denis-tintumapp/pinot/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParticipationDocument_Assignments(t *testing.T) {
	Convey("Given an empty participation document", t, func() {
		doc := model.NewParticipation("evt-1", "sess-1")
		t0 := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

		Convey("When a card is assigned to a label", func() {
			doc.SetAssignment("L1", "C1", t0)

			Convey("Then the assignment and its timestamp are recorded", func() {
				So(doc.Assignments["L1"], ShouldEqual, "C1")
				So(doc.AssignmentTimes["L1"], ShouldResemble, t0)
			})

			Convey("And re-assigning the label refreshes the timestamp", func() {
				t1 := t0.Add(3 * time.Minute)
				doc.SetAssignment("L1", "C2", t1)
				So(doc.Assignments["L1"], ShouldEqual, "C2")
				So(doc.AssignmentTimes["L1"], ShouldResemble, t1)
			})

			Convey("And clearing the label removes assignment, timestamp and rating", func() {
				doc.SetRating("L1", 4)
				doc.ClearAssignment("L1")
				_, hasAssignment := doc.Assignments["L1"]
				_, hasStamp := doc.AssignmentTimes["L1"]
				_, hasRating := doc.Ratings["L1"]
				So(hasAssignment, ShouldBeFalse)
				So(hasStamp, ShouldBeFalse)
				So(hasRating, ShouldBeFalse)
			})
		})
	})
}

func TestParticipationDocument_MoveLabel(t *testing.T) {
	Convey("Given a document with an established label order", t, func() {
		doc := model.NewParticipation("evt-1", "sess-1")
		doc.LabelOrder = []string{"L1", "L2", "L3", "L4"}

		Convey("When a label is moved forward", func() {
			doc.MoveLabel("L4", "L1")

			Convey("Then it is spliced in at the target position", func() {
				So(doc.LabelOrder, ShouldResemble, []string{"L4", "L1", "L2", "L3"})
			})
		})

		Convey("When a label is moved backward", func() {
			doc.MoveLabel("L1", "L3")

			Convey("Then the intermediate labels shift up", func() {
				So(doc.LabelOrder, ShouldResemble, []string{"L2", "L3", "L1", "L4"})
			})
		})

		Convey("When a middle label is moved to the end", func() {
			doc.MoveLabel("L2", "L4")

			Convey("Then it lands at the target's position and the order stays a permutation", func() {
				So(doc.LabelOrder, ShouldResemble, []string{"L1", "L3", "L4", "L2"})
			})
		})

		Convey("When either id is unknown", func() {
			doc.MoveLabel("L9", "L2")
			doc.MoveLabel("L2", "L9")

			Convey("Then the order is untouched", func() {
				So(doc.LabelOrder, ShouldResemble, []string{"L1", "L2", "L3", "L4"})
			})
		})
	})
}

func TestParticipationDocument_AssignedAndUnrated(t *testing.T) {
	Convey("Given labels with mixed assignment and rating state", t, func() {
		labels := []model.LabelRecord{
			{ID: "L1", EventID: "evt-1", Name: "Rioja"},
			{ID: "L2", EventID: "evt-1", Name: "Malbec"},
			{ID: "L3", EventID: "evt-1", Name: "Syrah"},
		}
		doc := model.NewParticipation("evt-1", "sess-1")
		doc.SetAssignment("L1", "C1", time.Now())
		doc.SetAssignment("L2", "C2", time.Now())
		doc.SetRating("L1", 3)

		Convey("Then only assigned labels without any rating entry are reported", func() {
			So(doc.AssignedAndUnrated(labels), ShouldResemble, []string{"L2"})
		})
	})
}
