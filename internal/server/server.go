package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docqa/agent/internal/domain"
	"github.com/docqa/agent/internal/workflow"
)

// QueryRequest is the JSON body of POST /query.
type QueryRequest struct {
	Query   string          `json:"query"`
	History []workflow.Turn `json:"history,omitempty"`
}

// TraceEntryJSON mirrors workflow.TraceEntry for the API response.
type TraceEntryJSON struct {
	Stage     string    `json:"stage"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryResponse is the JSON result of a workflow run.
type QueryResponse struct {
	RunID      string           `json:"run_id"`
	Answer     string           `json:"answer"`
	Intent     string           `json:"intent"`
	Confidence string           `json:"confidence"`
	Retries    int              `json:"retries"`
	Cached     bool             `json:"cached"`
	Trace      []TraceEntryJSON `json:"trace"`
}

// ErrorResponse is the structured error result for unrecovered failures.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Server exposes the workflow over HTTP with an answer cache.
type Server struct {
	wf       *workflow.Workflow
	store    domain.VectorStore
	cache    *redis.Client
	cacheTTL time.Duration
	port     string
}

func New(wf *workflow.Workflow, store domain.VectorStore, redisURL, port string, cacheTTL time.Duration) *Server {
	s := &Server{wf: wf, store: store, cacheTTL: cacheTTL, port: port}
	if redisURL != "" {
		s.cache = redis.NewClient(&redis.Options{Addr: redisURL})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.cache.Ping(ctx).Result(); err != nil {
			log.Printf("warning: failed to connect to Redis: %v", err)
			log.Println("server will run without answer caching")
			s.cache = nil
		} else {
			log.Println("connected to Redis cache")
		}
	}
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/query", s.handleQuery).Methods("POST")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler())
	return router
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.routes(),
	}

	go func() {
		log.Printf("docqa server starting on port %s", s.port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Close()
	}
	log.Println("server exited")
	return nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		queryRequestsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		queryRequestsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadRequest, "bad_request", "query is required")
		return
	}

	// single-turn queries are cacheable; history makes the answer contextual
	if len(req.History) == 0 {
		if cached, ok := s.cachedAnswer(r.Context(), req.Query); ok {
			cacheHitsTotal.Inc()
			queryRequestsTotal.WithLabelValues("success").Inc()
			cached.Cached = true
			writeJSON(w, http.StatusOK, cached)
			return
		}
		cacheMissesTotal.Inc()
	}

	state, err := s.wf.Run(r.Context(), req.Query, req.History)
	if err != nil {
		queryRequestsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadGateway, errorKind(err), err.Error())
		return
	}

	queryDuration.WithLabelValues(string(state.Intent)).Observe(time.Since(start).Seconds())
	queryRequestsTotal.WithLabelValues("success").Inc()
	if state.RetryCount > 0 {
		generationRetriesTotal.Add(float64(state.RetryCount))
	}

	resp := toResponse(state)
	if len(req.History) == 0 {
		s.cacheAnswer(r.Context(), req.Query, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count := -1
	if n, err := s.store.Count(r.Context()); err == nil {
		count = n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"documents": count,
	})
}

func (s *Server) cachedAnswer(ctx context.Context, query string) (*QueryResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		return nil, false
	}
	var resp QueryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (s *Server) cacheAnswer(ctx context.Context, query string, resp *QueryResponse) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(query), data, s.cacheTTL).Err(); err != nil {
		log.Printf("warning: failed to cache answer: %v", err)
	}
}

func cacheKey(query string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "docqa:answer:" + hex.EncodeToString(h[:16])
}

func toResponse(state *workflow.State) *QueryResponse {
	resp := &QueryResponse{
		RunID:      state.RunID,
		Answer:     state.FinalAnswer,
		Intent:     string(state.Intent),
		Confidence: state.Confidence,
		Retries:    state.RetryCount,
	}
	for _, e := range state.Trace {
		resp.Trace = append(resp.Trace, TraceEntryJSON{
			Stage:     e.Stage,
			Input:     e.Input,
			Output:    e.Output,
			Timestamp: e.Timestamp,
		})
	}
	return resp
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "llm_unavailable"
	case errors.Is(err, domain.ErrIndexUnavailable):
		return "index_unavailable"
	default:
		return "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Kind: kind, Message: message})
}
