// Package api provides the HTTP API server and handlers for the scentlog collection.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/scentlog/scentlog-server/internal/http/response"
	"github.com/scentlog/scentlog-server/internal/metrics"
	"github.com/scentlog/scentlog-server/internal/ratelimit"
	"github.com/scentlog/scentlog-server/internal/search"
	"github.com/scentlog/scentlog-server/internal/service"
)

// Options carries the optional collaborators of the server.
type Options struct {
	// Metrics enables request instrumentation and the /metrics endpoint.
	Metrics *metrics.Metrics
	// Limiter throttles mutating requests per client IP.
	Limiter *ratelimit.KeyedRateLimiter
	// AllowedOrigins configures CORS. Empty disables the CORS middleware.
	AllowedOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	collection *service.CollectionService
	index      *search.Index
	metrics    *metrics.Metrics
	limiter    *ratelimit.KeyedRateLimiter
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(collection *service.CollectionService, index *search.Index, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		collection: collection,
		index:      index,
		metrics:    opts.Metrics,
		limiter:    opts.Limiter,
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware(opts.AllowedOrigins)

	humaConfig := huma.DefaultConfig("scentlog API", "1.0.0")
	humaConfig.Info.Description = "Personal fragrance collection: perfumes, events, votes and reference tables."
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	if len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	s.router.Use(middleware.Compress(5))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerPerfumeRoutes()
	s.registerEventRoutes()
	s.registerVoteRoutes()
	s.registerReferenceRoutes()
	s.registerSearchRoutes()

	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler(s.logger))
	}
}
