// Package server provides the HTTP server for the Mudra gesture gallery.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/server/api"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	App       *app.App
	Logger    log.Logger
}

// Server represents the HTTP server for the Mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	events *EventsHandler
	logger log.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger.WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if a := s.config.App; a != nil {
		s.mux.Handle("/api/status", api.NewStatusHandler(a))

		gallery := api.NewGalleryHandler(a)
		s.mux.Handle("/api/gallery", gallery)
		s.mux.Handle("/api/gallery/", gallery)

		s.mux.Handle("/api/commands", api.NewCommandsHandler(a.Table()))
		s.mux.Handle("/api/plugins", api.NewPluginsHandler(a.PluginManager()))

		if st := a.Store(); st != nil {
			bindings := api.NewBindingHandler(st, a.PluginManager())
			s.mux.Handle("/api/bindings", bindings)
			s.mux.Handle("/api/bindings/", bindings)
			s.mux.Handle("/api/history", api.NewHistoryHandler(st))
		}

		s.mux.Handle("/api/stream", NewStreamHandler(a.Frames()))

		s.events = NewEventsHandler(s.logger)
		a.AddSink(s.events)
		a.AddStatusListener(s.events)
		s.mux.Handle("/api/events", s.events)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth reports liveness. With an App attached it also reports
// whether the camera and tracker are delivering, as "degraded" with the
// failure when they are not.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		st := a.Status()
		response["enabled"] = st.Enabled
		response["running"] = st.Running
		if st.Fault != "" {
			response["status"] = "degraded"
			response["fault"] = st.Fault
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close disconnects every event subscriber.
func (s *Server) Close() {
	if s.events != nil {
		s.events.Close()
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
