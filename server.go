package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"scenepatch/patch"
)

// Server exposes the patch engine as JSON endpoints.
type Server struct {
	cfg    Config
	logger *Logger
	mux    *http.ServeMux
}

// NewServer builds the handler tree.
func NewServer(cfg Config, logger *Logger) *Server {
	s := &Server{cfg: cfg, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /diff/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /diff/apply", s.handleApply)
	s.mux.HandleFunc("POST /diff/side-by-side", s.handleSideBySide)
	s.mux.HandleFunc("POST /diff/summary", s.handleSummary)
	s.mux.HandleFunc("POST /suggestions/apply", s.handleSuggestions)
	return s
}

// ServeHTTP implements http.Handler and logs one line per request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r.Body = http.MaxBytesReader(rec, r.Body, s.cfg.Server.MaxRequestBytes)
	s.mux.ServeHTTP(rec, r)

	fields := map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"method":      r.Method,
		"path":        r.URL.Path,
		"status":      rec.status,
	}
	if rec.status >= http.StatusInternalServerError {
		s.logger.Error("request failed", nil, fields)
		return
	}
	s.logger.Info("request", fields)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// defaultFilename names the document in diff headers when a request gives none.
const defaultFilename = "scene.txt"

type generateRequest struct {
	Original     string `json:"original"`
	Modified     string `json:"modified"`
	Filename     string `json:"filename"`
	ContextLines *int   `json:"context_lines"`
}

type applyRequest struct {
	Original   string `json:"original"`
	Patch      string `json:"patch"`
	Filename   string `json:"filename"`
	Fuzzy      *bool  `json:"fuzzy"`
	BestEffort bool   `json:"best_effort"`
}

type applyResponse struct {
	Success     bool                `json:"success"`
	PatchedText *string             `json:"patched_text"`
	Errors      []*patch.ApplyError `json:"errors"`
	Applied     []patch.AppliedHunk `json:"applied"`
	Preview     *patch.DiffResult   `json:"preview,omitempty"`
}

type sideBySideRequest struct {
	Original string `json:"original"`
	Modified string `json:"modified"`
	Width    *int   `json:"width"`
}

type sideBySideResponse struct {
	Lines []patch.Row `json:"lines"`
}

type summaryRequest struct {
	UnifiedDiff string `json:"unified_diff"`
}

type suggestionsRequest struct {
	Text        string             `json:"text"`
	Suggestions []patch.Suggestion `json:"suggestions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string   `json:"status"`
	Version string   `json:"version"`
	Log     LogStats `json:"log"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: appVersion, Log: s.logger.Stats()})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Filename == "" {
		req.Filename = defaultFilename
	}
	contextLines := s.cfg.ContextLines
	if req.ContextLines != nil {
		if *req.ContextLines < 0 {
			writeError(w, http.StatusBadRequest, errors.New("context_lines must not be negative"))
			return
		}
		contextLines = *req.ContextLines
	}
	writeJSON(w, http.StatusOK, patch.FormatText(req.Original, req.Modified, req.Filename, contextLines))
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Filename == "" {
		req.Filename = defaultFilename
	}
	mode := patch.Fuzzy
	if req.Fuzzy != nil && !*req.Fuzzy {
		mode = patch.Exact
	}

	outcome, err := patch.ApplyText(req.Original, req.Patch, s.cfg.ApplyOptions(mode, req.BestEffort))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := applyResponse{
		Success:     outcome.Success,
		PatchedText: outcome.PatchedText,
		Errors:      outcome.Errors,
		Applied:     outcome.Applied,
	}
	if text, ok := outcome.Text(); ok {
		preview := patch.FormatText(req.Original, text, req.Filename, s.cfg.ContextLines)
		resp.Preview = &preview
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSideBySide(w http.ResponseWriter, r *http.Request) {
	var req sideBySideRequest
	if !s.decode(w, r, &req) {
		return
	}
	width := s.cfg.SideBySide.Width
	if req.Width != nil {
		width = *req.Width
	}
	writeJSON(w, http.StatusOK, sideBySideResponse{Lines: patch.SideBySideText(req.Original, req.Modified, width)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, patch.Summarize(req.UnifiedDiff))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, patch.ApplySuggestions(req.Text, req.Suggestions, s.cfg.SuggestionOptions()))
}

// decode reads a JSON body into v, answering 400 or 413 itself when it cannot.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		s.logger.Warn("invalid request body", map[string]any{"error": err.Error(), "path": r.URL.Path})
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
