// Package server implements the semiframes HTTP API.
//
// Routes:
//
//	GET  /healthz           liveness probe
//	POST /v1/canonicalize   canonical form and parent of a family
//	POST /v1/check          evaluate a formula on a family
//	POST /v1/search         bounded enumeration (limit is required)
//	GET  /metrics           Prometheus metrics
//
// Errors are returned as {"code": "...", "error": "..."} with the status
// derived from the error code.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/semiframes/pkg/config"
	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/search"
)

// Server serves the API for one configuration.
type Server struct {
	cfg      config.Server
	search   search.Options
	logger   *log.Logger
	runner   *search.Runner
	registry *prometheus.Registry
	metrics  *Metrics
	router   chi.Router
}

// New builds a server. Search requests start from searchOpts, so the
// configured cache size and batch size apply to API searches too. If logger
// is nil, log.Default() is used.
func New(cfg config.Server, searchOpts search.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = config.DefaultMaxLimit
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultWriteTimeout
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		cfg:      cfg,
		search:   searchOpts,
		logger:   logger,
		runner:   search.NewRunner(logger),
		registry: reg,
		metrics:  NewMetrics(reg),
	}
	s.router = s.routes()
	return s
}

// Metrics returns the server's collectors, for installing as hooks.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Use(middleware.Timeout(s.cfg.WriteTimeout))
		r.Post("/canonicalize", s.handleCanonicalize)
		r.Post("/check", s.handleCheck)
		r.Post("/search", s.handleSearch)
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout + 5*time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.cfg.Addr)

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeIO, err, "listen on %s", s.cfg.Addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "shutdown")
	}
	return ctx.Err()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		began := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.httpRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"duration", time.Since(began).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Error: errors.UserMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeIO):
		return http.StatusBadGateway
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case stderrors.Is(err, context.Canceled):
		return 499 // client closed request
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "malformed request body: %v", err)
	}
	return nil
}
