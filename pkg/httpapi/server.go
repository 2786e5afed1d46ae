// Package httpapi exposes forms over HTTP: blueprint lookup, full submits,
// per-field realtime validation and a websocket that streams validation
// results while the user types.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formsubmit/pkg/component"
	"github.com/goliatone/go-formsubmit/pkg/metrics"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/pipeline"
	"github.com/goliatone/go-formsubmit/pkg/validation"
)

// Catalog lists and resolves form definitions.
type Catalog interface {
	Find(handle string) (model.FormDefinition, bool)
	All() []model.FormDefinition
}

// Option configures a Server.
type Option func(*Server)

// WithPipeline sets the submission pipeline.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(s *Server) {
		if p != nil {
			s.pipeline = p
		}
	}
}

// WithValidator sets the validator.
func WithValidator(v *validation.Validator) Option {
	return func(s *Server) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithMetrics exposes /metrics and counts validation failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCheckOrigin overrides the websocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		if fn != nil {
			s.upgrader.CheckOrigin = fn
		}
	}
}

// Server holds the HTTP handlers.
type Server struct {
	catalog   Catalog
	pipeline  *pipeline.Pipeline
	validator *validation.Validator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	upgrader  websocket.Upgrader
}

// New builds a server over catalog.
func New(catalog Catalog, options ...Option) *Server {
	s := &Server{
		catalog:   catalog,
		pipeline:  pipeline.New(),
		validator: validation.New(),
		logger:    zerolog.Nop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Router returns the chi router with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/forms", func(r chi.Router) {
		r.Get("/", s.listForms)
		r.Route("/{handle}", func(r chi.Router) {
			r.Get("/", s.getForm)
			r.Post("/submissions", s.submit)
			r.Post("/validate/{field}", s.validateField)
			r.Get("/live", s.live)
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) component(handle string) (*component.Component, error) {
	return component.New(s.catalog, handle,
		component.WithPipeline(s.pipeline),
		component.WithValidator(s.validator),
		component.WithMetrics(s.metrics),
	)
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors map[string][]string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeFailure maps component and pipeline errors to responses.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Errors
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: verr.Fields})
	case errors.Is(err, component.ErrFormNotFound), errors.Is(err, component.ErrHandleRequired):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
