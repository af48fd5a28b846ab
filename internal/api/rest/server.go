package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/reconcile"
	"github.com/fortuna/courtside/internal/report"
	"github.com/fortuna/courtside/internal/resolve"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, pipeline *report.Pipeline, resolver *resolve.Resolver, reconciler *reconcile.Reconciler, teams *resolve.TeamIndex, logger *logrus.Logger) *Server {
	handler := NewHandler(pipeline, resolver, reconciler, teams, logger)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/report", handler.GetReport).Methods("GET")
	api.HandleFunc("/players/resolve", handler.ResolvePlayer).Methods("GET")
	api.HandleFunc("/teams/{teamID}/next-game", handler.GetNextGame).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
