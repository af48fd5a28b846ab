package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/ingest/bdl"
	"github.com/fortuna/courtside/internal/reconcile"
	"github.com/fortuna/courtside/internal/report"
	"github.com/fortuna/courtside/internal/resolve"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	pipeline   *report.Pipeline
	resolver   *resolve.Resolver
	reconciler *reconcile.Reconciler
	teams      *resolve.TeamIndex
	logger     *logrus.Logger
}

// NewHandler creates a new handler
func NewHandler(pipeline *report.Pipeline, resolver *resolve.Resolver, reconciler *reconcile.Reconciler, teams *resolve.TeamIndex, logger *logrus.Logger) *Handler {
	return &Handler{
		pipeline:   pipeline,
		resolver:   resolver,
		reconciler: reconciler,
		teams:      teams,
		logger:     logger,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "courtside",
	})
}

// GetReport runs the full pipeline for a free-text player query.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("player")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Missing required 'player' query parameter", nil)
		return
	}

	opts := report.Options{
		Narrative: r.URL.Query().Get("narrative") != "false",
	}
	if gamesStr := r.URL.Query().Get("games"); gamesStr != "" {
		if g, err := strconv.Atoi(gamesStr); err == nil && g > 0 && g <= 50 {
			opts.Window = g
		}
	}

	rpt, err := h.pipeline.Run(r.Context(), query, opts)
	if err != nil {
		if errors.Is(err, resolve.ErrPlayerNotFound) {
			respondError(w, http.StatusNotFound, "No matching player found", err)
			return
		}
		respondError(w, http.StatusBadGateway, "Failed to build report", err)
		return
	}

	respondJSON(w, http.StatusOK, rpt)
}

// ResolvePlayer exposes entity resolution directly for the dashboard's
// query confirmation step.
func (h *Handler) ResolvePlayer(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Missing required 'q' query parameter", nil)
		return
	}

	match, err := h.resolver.Resolve(r.Context(), query)
	if err != nil {
		if errors.Is(err, resolve.ErrPlayerNotFound) {
			respondError(w, http.StatusNotFound, "No matching player found", err)
			return
		}
		respondError(w, http.StatusBadGateway, "Player resolution failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"player":     match.Player,
		"confidence": match.Confidence,
		"summary":    match.Summary,
	})
}

// GetNextGame returns the reconciled next matchup for a team id.
func (h *Handler) GetNextGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	teamID, err := strconv.Atoi(vars["teamID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid team ID", err)
		return
	}

	var team bdl.Team
	for _, t := range h.teams.Teams() {
		if t.ID == teamID {
			team = t
			break
		}
	}
	if team.ID == 0 {
		respondError(w, http.StatusNotFound, "Unknown team ID", nil)
		return
	}

	next, err := h.reconciler.NextGame(r.Context(), team, bdl.Player{})
	if err != nil {
		if errors.Is(err, reconcile.ErrNoUpcomingGame) {
			respondError(w, http.StatusNotFound, "No upcoming game found", err)
			return
		}
		respondError(w, http.StatusBadGateway, "Schedule reconciliation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, next)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
