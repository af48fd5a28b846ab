package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/report"
	"github.com/fortuna/courtside/internal/resolve"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development (TODO: restrict in production)
	},
}

const writeTimeout = 10 * time.Second

// Server streams report generation over WebSocket: the client sends one
// request frame, the server answers with stage-progress frames and then the
// finished report. Each connection owns its own pipeline run; there is no
// shared broadcast state.
type Server struct {
	port     string
	server   *http.Server
	pipeline *report.Pipeline
	logger   *logrus.Logger
}

// request is the single frame a client sends to start a run.
type request struct {
	Player    string `json:"player"`
	Games     int    `json:"games,omitempty"`
	Narrative bool   `json:"narrative,omitempty"`
}

// frame is one server-to-client message.
type frame struct {
	Stage  string         `json:"stage"`
	Error  string         `json:"error,omitempty"`
	Report *report.Report `json:"report,omitempty"`
}

// NewServer creates a new WebSocket server
func NewServer(pipeline *report.Pipeline, logger *logrus.Logger) *Server {
	return &Server{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Start starts the WebSocket server
func (s *Server) Start(port string) error {
	s.port = port

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/report", s.handleReport)
	mux.HandleFunc("/ws/health", s.handleHealth)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: mux,
	}

	s.logger.WithField("port", port).Info("WebSocket server listening")
	return s.server.ListenAndServe()
}

// handleReport runs one pipeline invocation per connection, streaming stage
// updates as they happen.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Error("failed to upgrade connection")
		return
	}
	defer conn.Close()

	var req request
	if err := conn.ReadJSON(&req); err != nil {
		s.writeFrame(conn, frame{Stage: "error", Error: "invalid request frame"})
		return
	}
	if req.Player == "" {
		s.writeFrame(conn, frame{Stage: "error", Error: "missing player"})
		return
	}

	opts := report.Options{
		Window:    req.Games,
		Narrative: req.Narrative,
	}

	rpt, err := s.pipeline.RunWithProgress(r.Context(), req.Player, opts, func(stage string) {
		s.writeFrame(conn, frame{Stage: stage})
	})
	if err != nil {
		msg := "report failed"
		if errors.Is(err, resolve.ErrPlayerNotFound) {
			msg = "no matching player found"
		}
		s.writeFrame(conn, frame{Stage: "error", Error: msg})
		return
	}

	s.writeFrame(conn, frame{Stage: "report", Report: rpt})
}

func (s *Server) writeFrame(conn *websocket.Conn, f frame) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(f); err != nil {
		s.logger.WithError(err).Debug("websocket write failed")
	}
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
