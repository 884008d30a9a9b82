package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes one model configuration as a JSON API: remote samplers hit
// /v1/loglikelihood, everything else consumes /v1/filter trajectories.
type Server struct {
	cfg       domain.Config
	evaluator ports.Evaluator
	logger    *slog.Logger
	metrics   http.Handler
	hooks     domain.LifecycleHooks
}

// ServerOption configures the HTTP server.
type ServerOption func(*Server)

// WithLogger sets a structured logger for request handling.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts a metrics endpoint (e.g. promhttp.Handler()) at
// /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLifecycleHooks attaches run hooks (e.g. metrics collectors) to every
// model built for a filter request.
func WithLifecycleHooks(hooks domain.LifecycleHooks) ServerOption {
	return func(s *Server) {
		s.hooks = hooks
	}
}

// NewHandler creates the HTTP handler for a fixed model configuration.
func NewHandler(cfg domain.Config, evaluator ports.Evaluator, opts ...ServerOption) http.Handler {
	server := &Server{
		cfg:       cfg.WithDefaults(),
		evaluator: evaluator,
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.logger == nil {
		server.logger = logging.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", server.health)
	r.Post("/v1/filter", server.filter)
	r.Post("/v1/loglikelihood", server.logLikelihood)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}
	return r
}

// FilterRequest carries one observation sequence and optional parameter
// overrides. A null observation is a missing value.
type FilterRequest struct {
	Observations []*float64             `json:"observations"`
	Parameters   domain.ParameterVector `json:"parameters,omitempty"`
}

// FilterResponse returns the full belief trajectory and total surprise.
type FilterResponse struct {
	Surprise   float64            `json:"surprise"`
	Trajectory *domain.Trajectory `json:"trajectory"`
}

// LogLikelihoodRequest carries a candidate parameter vector.
type LogLikelihoodRequest struct {
	Parameters   domain.ParameterVector `json:"parameters,omitempty"`
	Observations []*float64             `json:"observations"`
}

// LogLikelihoodResponse returns the scalar a sampler iterates over.
type LogLikelihoodResponse struct {
	LogLikelihood float64 `json:"log_likelihood"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": canopy.Version})
}

// filter handles the POST /v1/filter request.
func (s *Server) filter(w http.ResponseWriter, r *http.Request) {
	var body FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cfg := s.cfg
	if len(body.Parameters) > 0 {
		merged, err := cfg.Merge(body.Parameters)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		cfg = merged
	}

	model, err := canopy.New(cfg, canopy.WithLogger(s.logger), canopy.WithLifecycleHooks(s.hooks))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := model.Fit(r.Context(), unwrapObservations(body.Observations)); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, FilterResponse{
		Surprise:   model.Surprise(),
		Trajectory: model.Trajectory(),
	})
}

// logLikelihood handles the POST /v1/loglikelihood request.
func (s *Server) logLikelihood(w http.ResponseWriter, r *http.Request) {
	var body LogLikelihoodRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	value, err := s.evaluator.LogLikelihood(r.Context(), body.Parameters, unwrapObservations(body.Observations))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, LogLikelihoodResponse{LogLikelihood: value})
}

func (s *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// writeError maps the error taxonomy to status codes: configuration and
// sentinel problems are the caller's fault, numerical failures describe the
// parameter region and are reported as unprocessable rather than a server
// fault.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var (
		cfgErr  *domain.ConfigError
		aggrErr *domain.AggregateError
		sentErr *domain.SentinelError
		numErr  *domain.NumericalError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &aggrErr), errors.As(err, &sentErr):
		status = http.StatusBadRequest
	case errors.As(err, &numErr):
		status = http.StatusUnprocessableEntity
	}

	s.logger.Warn("request failed", "path", r.URL.Path, "status", status, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func unwrapObservations(in []*float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = domain.Missing()
		} else {
			out[i] = *v
		}
	}
	return out
}
