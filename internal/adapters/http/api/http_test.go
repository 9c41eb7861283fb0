package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	api "github.com/denis-tintumapp/pinot/internal/adapters/http/api"
	app "github.com/denis-tintumapp/pinot/internal/app"
	scoring "github.com/denis-tintumapp/pinot/internal/domain/scoring"
)

type fakeDeps struct {
	standings []scoring.Standing
	err       error
}

func (f *fakeDeps) Standings(ctx context.Context, eventID string) ([]scoring.Standing, error) {
	return f.standings, f.err
}

func (f *fakeDeps) GetStats() map[string]any {
	return map[string]any{"store": "fake"}
}

func newMux(deps *fakeDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux)
	return mux
}

func TestStandingsEndpoint(t *testing.T) {
	Convey("Given a server with ranked standings behind it", t, func() {
		deps := &fakeDeps{standings: []scoring.Standing{
			{ParticipantName: "Ana", TotalPoints: 250, Rank: 1},
			{ParticipantName: "Bea", TotalPoints: 100, Rank: 2, Tied: true},
			{ParticipantName: "Cara", TotalPoints: 100, Rank: 2, Tied: true},
			{ParticipantName: "Dora", TotalPoints: 10, Rank: 4},
		}}
		mux := newMux(deps)

		Convey("When requesting the standings of an event", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/standings?event=evt-1", nil))

			Convey("Then the podium and the rest are grouped, ties visible", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Podium []scoring.Standing `json:"podium"`
					Rest   []scoring.Standing `json:"rest"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Podium, ShouldHaveLength, 3)
				So(body.Podium[1].Tied, ShouldBeTrue)
				So(body.Rest, ShouldHaveLength, 1)
			})
		})

		Convey("When the event parameter is missing", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/standings", nil))

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the service reports a missing event", func() {
			deps.err = fmt.Errorf("%w: event evt-9", app.ErrNotFound)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/standings?event=evt-9", nil))

			Convey("Then the API answers 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the service fails otherwise", func() {
			deps.err = errors.New("storage unavailable")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/standings?event=evt-1", nil))

			Convey("Then the API answers 500", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When an error merely mentions absence without the sentinel", func() {
			deps.err = errors.New("not found: event evt-9")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/standings?event=evt-9", nil))

			Convey("Then it is not mistaken for a missing event", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When a standings limit is configured", func() {
			limited := http.NewServeMux()
			api.NewServer(deps, deps, api.WithStandingsLimit(2)).Register(context.Background(), limited)
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/standings?event=evt-1", nil))

			Convey("Then the response is capped", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Podium []scoring.Standing `json:"podium"`
					Rest   []scoring.Standing `json:"rest"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(len(body.Podium)+len(body.Rest), ShouldEqual, 2)
			})
		})

		Convey("When using a non-GET method", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/standings?event=evt-1", nil))

			Convey("Then the route is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given a server", t, func() {
		mux := newMux(&fakeDeps{})

		Convey("When requesting stats", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then the provider's map is returned as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["store"], ShouldEqual, "fake")
			})
		})
	})
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given a server", t, func() {
		mux := newMux(&fakeDeps{})

		Convey("When scraping /healthz", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then the metrics registry is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
