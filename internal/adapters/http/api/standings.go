package api

import (
	"errors"
	"net/http"
	"strings"

	app "github.com/denis-tintumapp/pinot/internal/app"
	scoring "github.com/denis-tintumapp/pinot/internal/domain/scoring"
)

// StandingsHandler serves the host's live standings view.
type StandingsHandler struct {
	deps  Dependencies
	limit int
}

// NewStandingsHandler creates a standings handler.
func NewStandingsHandler(deps Dependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

type standingsResponse struct {
	Podium []scoring.Standing `json:"podium"`
	Rest   []scoring.Standing `json:"rest"`
}

// HandleGetStandings handles GET /standings?event=ID requests. The
// response groups the podium (ranks 1-3 including ties) separately so a
// tie is explicit rather than an arbitrary pick of a winner.
func (h *StandingsHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	eventID := strings.TrimSpace(r.URL.Query().Get("event"))
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingEvent)
		return
	}
	standings, err := h.deps.Standings(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if h.limit > 0 && len(standings) > h.limit {
		standings = standings[:h.limit]
	}
	podium, rest := scoring.Podium(standings)
	writeJSON(w, http.StatusOK, standingsResponse{Podium: podium, Rest: rest})
}
