// Package server provides the HTTP server and routing for Greenfolio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/greenfolio/internal/di"
	analysishandlers "github.com/aristath/greenfolio/internal/modules/analysis/handlers"
	projecthandlers "github.com/aristath/greenfolio/internal/modules/projects/handlers"
	riskhandlers "github.com/aristath/greenfolio/internal/modules/risk/handlers"
	scoringhandlers "github.com/aristath/greenfolio/internal/modules/scoring/api/handlers"
	"github.com/aristath/greenfolio/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Container *di.Container        // DI container with all services
	Jobs      *di.JobInstances     // Jobs available for manual triggering
	Scheduler *scheduler.Scheduler // Optional, jobs run directly when nil
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Container,
			cfg.Jobs,
			cfg.Scheduler,
		),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Request metrics, labelled by route pattern to keep cardinality bounded
	s.router.Use(s.container.Metrics.Middleware(routePattern))

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.container.Metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		systemHandlers := s.systemHandlers

		r.Route("/system", func(r chi.Router) {
			r.Get("/stats", systemHandlers.HandleSystemStats)
			r.Get("/database/stats", systemHandlers.HandleDatabaseStats)
			r.Get("/jobs", systemHandlers.HandleJobsStatus)
			r.Post("/jobs/{name}", systemHandlers.HandleTriggerJob)
		})

		// Project records
		projectHandler := projecthandlers.NewHandler(s.container.ProjectService, s.log)
		projectHandler.RegisterRoutes(r)

		// Stateless scoring of posted payloads
		scoringHandler := scoringhandlers.NewHandlers(s.container.ScoringEngine, s.log)
		scoringHandler.RegisterRoutes(r)

		// Risk reports read stored projects
		riskHandler := riskhandlers.NewHandler(s.container.ProjectRepo, s.log)
		riskHandler.RegisterRoutes(r)

		// ESG analysis, optimization and scenarios
		analysisHandler := analysishandlers.NewHandler(s.container.AnalysisService, s.log)
		analysisHandler.RegisterRoutes(r)
	})
}

// Router exposes the configured handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
