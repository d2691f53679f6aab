// Package server provides the HTTP server for the swing analysis service.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/swingscope/internal/server/api"
	"github.com/ayusman/swingscope/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	// Runner analyses submitted sequences; it must persist into Store.
	Runner api.Runner
}

type healthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Analyses *int   `json:"analyses,omitempty"`
}

// Server represents the HTTP server for the swing analysis service.
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

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Analysis API needs both a store and something to run analyses
	if s.config.Store != nil && s.config.Runner != nil {
		analyses := api.NewAnalysisHandler(s.config.Store, s.config.Runner)
		s.mux.Handle("/api/analyses", analyses)
		s.mux.Handle("/api/analyses/", analyses)
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

// handleHealth reports uptime and, when a store is configured, how many
// analyses it holds.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	}

	if s.config.Store != nil {
		n, err := s.config.Store.Count()
		if err != nil {
			log.Printf("Health check: store unavailable: %v", err)
			response.Status = "degraded"
		} else {
			response.Analyses = &n
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
