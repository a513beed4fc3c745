// Package server exposes schema validation, formatting and the schema
// registry over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/datamodel-lang/go-datamodel/cache"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/registry"
	"github.com/datamodel-lang/go-datamodel/schema"
)

const (
	defaultCacheSize = 128
	maxBodyBytes     = 4 << 20
)

// Server handles schema compilation requests. Validation outcomes are
// memoized, so a client re-submitting the same document gets its answer
// from the cache.
type Server struct {
	compiler   *cache.Compiler
	formats    *cache.FormatCache
	registry   *registry.Registry
	logger     zerolog.Logger
	metrics    *metrics
	router     chi.Router
	cacheSize  int
	schemaOpts []schema.Option
}

// Option configures a Server.
type Option func(*Server)

// WithRegistry enables the named-schema endpoints backed by reg.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithLogger attaches a logger for request traces.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithSchemaOptions sets the validation options applied to every request.
func WithSchemaOptions(opts ...schema.Option) Option {
	return func(s *Server) { s.schemaOpts = opts }
}

// WithCacheSize bounds the validation and formatting caches.
func WithCacheSize(n int) Option {
	return func(s *Server) { s.cacheSize = n }
}

// NewServer creates an HTTP server with the given options.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:    zerolog.Nop(),
		cacheSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.compiler = cache.NewCompiler(s.cacheSize).WithOptions(s.schemaOpts...)
	s.formats = cache.NewFormatCache(s.cacheSize)
	s.metrics = newMetrics(s.compiler)
	s.router = s.buildRouter()
	return s
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/format", s.handleFormat)
		if s.registry != nil {
			r.Route("/schemas", func(r chi.Router) {
				r.Get("/", s.handleSchemaList)
				r.Put("/{name}", s.handleSchemaPut)
				r.Get("/{name}", s.handleSchemaGet)
				r.Delete("/{name}", s.handleSchemaDelete)
				r.Get("/{name}/revisions", s.handleSchemaRevisions)
			})
		}
	})
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		// The route pattern keeps label cardinality bounded.
		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}
		s.metrics.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

// validateResponse is the body for validation outcomes, both success and
// failure.
type validateResponse struct {
	Valid     bool             `json:"valid"`
	Datamodel json.RawMessage  `json:"datamodel,omitempty"`
	Errors    []diagnosticJSON `json:"errors,omitempty"`
}

type diagnosticJSON struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func diagnosticsJSON(source string, collection *diag.ErrorCollection) []diagnosticJSON {
	out := make([]diagnosticJSON, 0, len(collection.Errors))
	for _, e := range collection.Errors {
		line, column := e.Span().LineAndColumn(source)
		out = append(out, diagnosticJSON{
			Kind:    string(e.Kind()),
			Message: e.Error(),
			Start:   e.Span().Start,
			End:     e.Span().End,
			Line:    line,
			Column:  column,
		})
	}
	return out
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	source, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	dm, err := s.compiler.Compile(source)
	s.metrics.validateDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.validationsTotal.WithLabelValues("invalid").Inc()
		collection := diag.AsCollection(err)
		if collection == nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{
			Valid:  false,
			Errors: diagnosticsJSON(source, collection),
		})
		return
	}

	s.metrics.validationsTotal.WithLabelValues("ok").Inc()
	encoded, err := schema.ToJSON(dm)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Datamodel: encoded})
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	source, ok := s.readBody(w, r)
	if !ok {
		return
	}

	if formatted, ok := s.formats.Get(source); ok {
		writeText(w, http.StatusOK, formatted)
		return
	}

	formatted, err := schema.Reformat(source)
	if err != nil {
		collection := diag.AsCollection(err)
		if collection == nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{
			Valid:  false,
			Errors: diagnosticsJSON(source, collection),
		})
		return
	}

	s.formats.Put(source, formatted)
	writeText(w, http.StatusOK, formatted)
}

// schemaInfo is the wire form of a registry entry. Source is included on
// single-document reads and omitted from listings.
type schemaInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	Hash      string    `json:"hash"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newSchemaInfo(s *registry.Schema, withSource bool) schemaInfo {
	info := schemaInfo{
		ID:        s.ID,
		Name:      s.Name,
		Version:   s.Version,
		Hash:      s.Hash,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if withSource {
		info.Source = s.Source
	}
	return info
}

type revisionInfo struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Hash      string    `json:"hash"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleSchemaList(w http.ResponseWriter, r *http.Request) {
	schemas, err := s.registry.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	out := make([]schemaInfo, 0, len(schemas))
	for _, stored := range schemas {
		out = append(out, newSchemaInfo(stored, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSchemaPut(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	source, ok := s.readBody(w, r)
	if !ok {
		return
	}

	stored, err := s.registry.Put(name, source)
	if err != nil {
		if errors.Is(err, registry.ErrEmptyName) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if collection := diag.AsCollection(err); collection != nil {
			writeJSON(w, http.StatusUnprocessableEntity, validateResponse{
				Valid:  false,
				Errors: diagnosticsJSON(source, collection),
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, newSchemaInfo(stored, false))
}

func (s *Server) handleSchemaGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	stored, err := s.registry.Get(name)
	if errors.Is(err, registry.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("schema %q not found", name)})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, newSchemaInfo(stored, true))
}

func (s *Server) handleSchemaDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := s.registry.Delete(name)
	if errors.Is(err, registry.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("schema %q not found", name)})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSchemaRevisions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	revisions, err := s.registry.Revisions(name)
	if errors.Is(err, registry.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("schema %q not found", name)})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	out := make([]revisionInfo, 0, len(revisions))
	for _, rev := range revisions {
		out = append(out, revisionInfo{
			ID:        rev.ID,
			Version:   rev.Version,
			Hash:      rev.Hash,
			Source:    rev.Source,
			CreatedAt: rev.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("read request body: %v", err)})
		return "", false
	}
	return string(body), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, text)
}

// metrics holds the server's Prometheus instruments on a private registry.
type metrics struct {
	registry         *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	validationsTotal *prometheus.CounterVec
	validateDuration prometheus.Histogram
}

func newMetrics(compiler *cache.Compiler) *metrics {
	reg := prometheus.NewRegistry()

	m := &metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datamodel",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled",
			},
			[]string{"method", "path", "status"},
		),
		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "datamodel",
				Name:      "validations_total",
				Help:      "Total number of schema validations by outcome",
			},
			[]string{"outcome"},
		),
		validateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "datamodel",
				Name:      "validation_duration_seconds",
				Help:      "Schema validation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),
	}

	cacheEntries := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "datamodel",
			Name:      "cache_entries",
			Help:      "Current number of memoized validation outcomes",
		},
		func() float64 { return float64(compiler.Cache().Size()) },
	)
	cacheHitRate := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "datamodel",
			Name:      "cache_hit_rate",
			Help:      "Fraction of validations answered from the cache",
		},
		func() float64 { return compiler.Cache().Stats().HitRate },
	)

	reg.MustRegister(m.requestsTotal, m.validationsTotal, m.validateDuration, cacheEntries, cacheHitRate)
	return m
}
