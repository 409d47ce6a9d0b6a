// Package httpapi exposes the retrieval service over a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driving"
	"github.com/arandu-labs/jurisrag/internal/logger"
)

// Server is the HTTP server for the retrieval API.
type Server struct {
	retrieval driving.RetrievalService
	composer  driven.AnswerComposer
	addr      string
}

// NewServer creates the API server. composer may be nil; /api/rag then
// returns the scored bundle without answer text.
func NewServer(retrieval driving.RetrievalService, composer driven.AnswerComposer, addr string) *Server {
	return &Server{
		retrieval: retrieval,
		composer:  composer,
		addr:      addr,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/rag", s.handleRAG)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return loggingMiddleware(mux)
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      300 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("API server listening on %s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// searchRequest is the body of POST /api/search.
type searchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// ragRequest is the body of POST /api/rag. UseRAG defaults to true;
// false returns the scored bundle without composing an answer.
type ragRequest struct {
	Prompt  string            `json:"prompt"`
	UseRAG  *bool             `json:"useRag,omitempty"`
	Filters map[string]string `json:"metadata_filters,omitempty"`
	K       int               `json:"k,omitempty"`
}

// resultPayload is one retrieved chunk in a response.
type resultPayload struct {
	ID        string            `json:"id"`
	Title     string            `json:"title,omitempty"`
	Text      string            `json:"text"`
	Court     string            `json:"court,omitempty"`
	Code      string            `json:"code,omitempty"`
	Article   string            `json:"article,omitempty"`
	Date      string            `json:"date,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	Score     float64           `json:"score"`
	Relevance float64           `json:"relevance,omitempty"`
}

// searchResponse is the body of a POST /api/search response.
type searchResponse struct {
	Query   string          `json:"query"`
	Total   int             `json:"total"`
	Backend string          `json:"backend"`
	Results []resultPayload `json:"results"`
}

// ragResponse is the relevance bundle plus, when composed, the answer.
type ragResponse struct {
	Query       string          `json:"query"`
	Coverage    string          `json:"coverage"`
	Results     []resultPayload `json:"results"`
	Answer      string          `json:"answer,omitempty"`
	Grounded    bool            `json:"grounded"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// handleSearch runs the raw retrieval path.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	results, err := s.retrieval.Search(r.Context(), req.Query, domain.SearchOptions{K: req.K})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := searchResponse{
		Query:   req.Query,
		Total:   len(results),
		Backend: s.retrieval.Backend(),
		Results: make([]resultPayload, len(results)),
	}
	for i := range results {
		resp.Results[i] = toResultPayload(results[i].Document, results[i].Score, 0)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRAG runs the full RAG path: scored bundle plus, when a
// composer is wired and useRag is not false, answer text honoring the
// coverage gate.
func (s *Server) handleRAG(w http.ResponseWriter, r *http.Request) {
	var req ragRequest
	if !decodeBody(w, r, &req) {
		return
	}

	bundle, err := s.retrieval.Query(r.Context(), req.Prompt, domain.SearchOptions{
		K:       req.K,
		Filters: req.Filters,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := ragResponse{
		Query:    bundle.Query,
		Coverage: string(bundle.Coverage),
		Results:  make([]resultPayload, len(bundle.Results)),
	}
	for i := range bundle.Results {
		b := bundle.Results[i]
		resp.Results[i] = toResultPayload(b.Document, b.Score, b.Relevance)
	}

	compose := req.UseRAG == nil || *req.UseRAG
	if compose && s.composer != nil {
		answer, err := s.composer.Compose(r.Context(), *bundle)
		if err != nil {
			writeError(w, fmt.Errorf("compose: %w", domain.ErrComposerUnavailable))
			return
		}
		resp.Answer = answer.Text
		resp.Grounded = answer.Grounded
		resp.Suggestions = answer.Suggestions
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHealth reports liveness and the active backend.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": s.retrieval.Backend(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

// writeError maps domain errors onto HTTP status codes. Anything
// unmapped is a 500 with a generic message; details stay in the log.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrIndexEmpty), errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrIndexUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrComposerUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		logger.Warn("Unhandled API error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Encoding API response failed: %v", err)
	}
}

func toResultPayload(doc domain.Document, score, relevance float64) resultPayload {
	return resultPayload{
		ID:        doc.ID,
		Title:     domain.StrVal(doc.Title),
		Text:      doc.Text,
		Court:     domain.StrVal(doc.Court),
		Code:      domain.StrVal(doc.Code),
		Article:   domain.StrVal(doc.Article),
		Date:      domain.StrVal(doc.Date),
		Meta:      doc.Meta,
		Score:     score,
		Relevance: relevance,
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
