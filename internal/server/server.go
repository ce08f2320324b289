// Package server provides the HTTP surface of the sign interpreter.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/lsainterp/internal/grammar"
	"github.com/ayusman/lsainterp/internal/logging"
	"github.com/ayusman/lsainterp/internal/metrics"
	"github.com/ayusman/lsainterp/internal/server/api"
	"github.com/ayusman/lsainterp/internal/sink"
)

// FrameSource provides the latest encoded frame and its sequence number.
type FrameSource interface {
	Latest() ([]byte, uint64)
}

// Config holds the server configuration. Routes whose dependency is nil are
// not registered.
type Config struct {
	StaticDir  string
	Frames     FrameSource
	History    *sink.History
	Smoother   *grammar.Smoother
	Errors     *logging.ErrorLog
	Detections api.DetectionLister
	Dictionary api.Lookup
	Results    *ResultsHandler
	Metrics    *metrics.Metrics
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.History != nil {
		h := api.NewHistoryHandler(s.config.History)
		s.mux.Handle("/api/history", h)
		s.mux.HandleFunc("/api/stats", h.Stats)
	}

	if s.config.Smoother != nil {
		s.mux.Handle("/api/grammar", api.NewGrammarHandler(s.config.Smoother))
	}

	if s.config.Errors != nil {
		s.mux.Handle("/api/errors", api.NewErrorsHandler(s.config.Errors))
	}

	if s.config.Detections != nil {
		s.mux.Handle("/api/detections", api.NewDetectionsHandler(s.config.Detections))
	}

	if s.config.Dictionary != nil {
		h := api.NewDictionaryHandler(s.config.Dictionary)
		s.mux.Handle("/api/dictionary", h)
		s.mux.Handle("/api/dictionary/", h)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
		s.mux.Handle("/api/snapshot", NewSnapshotHandler(s.config.Frames))
	}

	if s.config.Results != nil {
		s.mux.Handle("/api/results", s.config.Results)
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HTTPServer returns an *http.Server serving s on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
