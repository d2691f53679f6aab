// Package api provides HTTP API handlers for swing analyses.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/swingscope/internal/app"
	"github.com/ayusman/swingscope/internal/pose"
	"github.com/ayusman/swingscope/internal/store"
)

// maxSequenceBytes bounds the size of a submitted landmark sequence.
const maxSequenceBytes = 32 << 20

// Runner analyses a sequence and stores the result.
type Runner interface {
	AnalyzeSequence(name, source string, seq pose.Sequence) (*app.Report, error)
}

// AnalysisHandler handles HTTP requests for analysis resources.
type AnalysisHandler struct {
	store  *store.Store
	runner Runner
}

// NewAnalysisHandler creates a new AnalysisHandler. runner must store its
// results in s.
func NewAnalysisHandler(s *store.Store, runner Runner) *AnalysisHandler {
	return &AnalysisHandler{store: s, runner: runner}
}

// ServeHTTP routes requests to the appropriate methods.
func (h *AnalysisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/analyses, /api/analyses/{id} or
	// /api/analyses/{id}/sequence
	path := strings.TrimPrefix(r.URL.Path, "/api/analyses")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/sequence"); ok {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.sequence(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

type listAnalysesResponse struct {
	Analyses []*store.Analysis `json:"analyses"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// create handles POST /api/analyses. The body is a landmark sequence; the
// optional name query parameter labels the analysis.
func (h *AnalysisHandler) create(w http.ResponseWriter, r *http.Request) {
	seq, err := pose.ReadSequence(http.MaxBytesReader(w, r.Body, maxSequenceBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sequence JSON")
		return
	}
	if seq.Len() == 0 {
		writeError(w, http.StatusBadRequest, "Sequence has no frames")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}

	report, err := h.runner.AnalyzeSequence(name, "api", seq)
	if err != nil {
		log.Printf("Failed to analyse sequence %q: %v", name, err)
		writeError(w, http.StatusInternalServerError, "Failed to store analysis")
		return
	}

	a, err := h.store.Analyses().GetByID(report.ID)
	if err != nil {
		log.Printf("Failed to load analysis %s: %v", report.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load analysis")
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

// list handles GET /api/analyses and returns all analyses, newest first.
func (h *AnalysisHandler) list(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.store.Analyses().List()
	if err != nil {
		log.Printf("Failed to list analyses: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}
	if analyses == nil {
		analyses = []*store.Analysis{}
	}

	writeJSON(w, http.StatusOK, listAnalysesResponse{Analyses: analyses})
}

// get handles GET /api/analyses/{id}.
func (h *AnalysisHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.store.Analyses().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		log.Printf("Failed to get analysis %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to get analysis")
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// sequence handles GET /api/analyses/{id}/sequence and returns the raw
// landmark sequence the analysis was run on.
func (h *AnalysisHandler) sequence(w http.ResponseWriter, r *http.Request, id string) {
	data, err := h.store.Sequences().Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sequence not found")
			return
		}
		log.Printf("Failed to get sequence %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to get sequence")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// delete handles DELETE /api/analyses/{id}.
func (h *AnalysisHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Analyses().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		log.Printf("Failed to delete analysis %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete analysis")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
