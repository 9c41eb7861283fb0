// Package api declares the host-facing HTTP monitoring surface and route
// registration helpers. Participant interaction happens elsewhere; these
// routes are read-only views over the service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	scoring "github.com/denis-tintumapp/pinot/internal/domain/scoring"
)

// Dependencies required by the HTTP handlers. An interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// Standings computes the ranked results for an event.
	Standings(ctx context.Context, eventID string) ([]scoring.Standing, error)
}

// StatsProvider exposes service statistics for monitoring.
type StatsProvider interface {
	GetStats() map[string]any
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithStandingsLimit caps the number of entries a standings response may
// carry. Zero or negative means unlimited.
func WithStandingsLimit(limit int) Option {
	return func(s *Server) {
		s.standingsHandler.limit = limit
	}
}

// Server wires HTTP routes for the monitoring API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	standingsHandler *StandingsHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		standingsHandler: NewStandingsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
