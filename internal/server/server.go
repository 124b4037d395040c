// Package server exposes the job tracker over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/trustllm/eaas/internal/aggregate"
	"github.com/trustllm/eaas/internal/engine"
	"github.com/trustllm/eaas/internal/export"
	"github.com/trustllm/eaas/internal/job"
	"github.com/trustllm/eaas/internal/leaderboard"
	"github.com/trustllm/eaas/internal/status"
	"github.com/trustllm/eaas/internal/store"
)

type Server struct {
	store    *store.Store
	resolver *status.Resolver
	agg      *aggregate.Engine
	board    *leaderboard.Engine
	invoker  engine.Invoker
}

func New(s *store.Store, invoker engine.Invoker) *Server {
	return &Server{
		store:    s,
		resolver: status.NewResolver(s),
		agg:      aggregate.NewEngine(s),
		board:    leaderboard.NewEngine(s),
		invoker:  invoker,
	}
}

// Router wires all v1 routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/jobs", s.submitJob).Methods("POST")
	api.HandleFunc("/jobs", s.listJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", s.getJob).Methods("GET")
	api.HandleFunc("/jobs/{id}/status", s.getStatus).Methods("GET")
	api.HandleFunc("/jobs/{id}/export", s.exportJob).Methods("GET")
	api.HandleFunc("/compare", s.compare).Methods("POST")
	api.HandleFunc("/leaderboard", s.getLeaderboard).Methods("GET")
	api.HandleFunc("/metrics", s.listMetrics).Methods("GET")
	api.HandleFunc("/providers", s.listProviders).Methods("GET")
	return r
}

type submitResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var cfg job.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		writeTaggedError(w, err)
		return
	}
	j, err := s.store.Create(&cfg)
	if err != nil {
		writeTaggedError(w, err)
		return
	}
	if err := s.invoker.Submit(r.Context(), s.store.ConfigPath(j.ID), s.store.ResultsDir()); err != nil {
		// keep the record honest so callers don't poll a job the
		// engine never accepted
		if markErr := s.store.SetStatus(j.ID, job.StatusFailed); markErr != nil {
			log.Printf("marking job %s failed: %v", j.ID, markErr)
		}
		writeTaggedError(w, fmt.Errorf("job %s: %w", j.ID, err))
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{
		ID:        j.ID,
		Status:    string(j.Status),
		CreatedAt: j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.List()
	if err != nil {
		writeTaggedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeTaggedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.resolver.Resolve(mux.Vars(r)["id"])
	if err != nil {
		writeTaggedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) exportJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeTaggedError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "application/json")
	}
	if err := export.Job(w, j, format); err != nil {
		writeTaggedError(w, err)
	}
}

type compareRequest struct {
	JobIDs  []string `json:"job_ids"`
	GroupBy string   `json:"group_by"`
	Metrics []string `json:"metrics,omitempty"`
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.GroupBy == "" {
		req.GroupBy = "model"
	}
	cmp, err := s.agg.Compare(r.Context(), req.JobIDs, aggregate.GroupBy(req.GroupBy), req.Metrics)
	if err != nil {
		writeTaggedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := leaderboard.Options{Metric: q.Get("metric"), Limit: 10}
	if v := q.Get("providers"); v != "" {
		opts.Providers = strings.Split(v, ",")
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		opts.Limit = n
	}
	board, err := s.board.Build(opts)
	if err != nil {
		writeTaggedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) listMetrics(w http.ResponseWriter, r *http.Request) {
	names, err := s.invoker.ListMetrics(r.Context())
	if err != nil {
		writeTaggedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"metrics": names})
}

func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	names, err := s.invoker.ListProviders(r.Context())
	if err != nil {
		writeTaggedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"providers": names})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeTaggedError maps the error taxonomy onto HTTP statuses.
func writeTaggedError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, job.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, job.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, job.ErrInsufficientJobs):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, job.ErrEngineInvocation):
		code = http.StatusBadGateway
	}
	writeError(w, err.Error(), code)
}
