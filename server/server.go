// Package server wires the HTTP router, its middleware chain and the server
// lifecycle of the pharmacy API.
package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/giygas/smartpharmacy-api/config"
	"github.com/giygas/smartpharmacy-api/handlers"
	"github.com/giygas/smartpharmacy-api/logging"
	"github.com/giygas/smartpharmacy-api/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const rateLimiterCleanupInterval = 30 * time.Minute

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	router  chi.Router
	handler *handlers.HTTPHandler
	limiter *RateLimiter
	config  *config.Config
}

// NewServer creates a server serving h with the middleware configured by cfg
func NewServer(cfg *config.Config, h *handlers.HTTPHandler) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:           router,
			Addr:              cfg.Address + ":" + cfg.Port,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		router:  router,
		handler: h,
		limiter: NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitCapacity),
		config:  cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RealIPMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	s.router.Use(logging.Middleware(logging.Logger()))
	s.router.Use(metrics.Metrics)
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config.MaxRequestBody, s.config.MaxHeaderSize))
	s.router.Use(s.limiter.Middleware)
}

func (s *Server) setupRoutes() {
	h := s.handler

	s.router.NotFound(handlers.NotFound)
	s.router.MethodNotAllowed(handlers.MethodNotAllowed)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Post("/prescriptions/validate", h.ValidatePrescription)
		r.Post("/interactions/check", h.CheckInteractions)
		r.Post("/allergy/check", h.CheckAllergy)
		r.Get("/pharmacies", h.ListPharmacies)
		r.Post("/orders/reserve", h.ReserveOrder)
		r.Get("/orders/{code}", h.GetOrder)
		r.Post("/chat", h.Chat)
		r.Post("/ocr", h.ExtractMedications)
		r.Get("/inventory/forecast", h.ForecastDemand)
	})

	s.router.Get("/health", h.HealthCheck)
	s.router.Handle("/metrics", metrics.Handler())
}

// Start listens until the server is shut down
func (s *Server) Start() error {
	if s.config.Env == config.EnvDevelopment {
		s.startProfilingServer()
	}
	s.limiter.StartCleanup(rateLimiterCleanupInterval)

	logging.Info(fmt.Sprintf("Starting server at: %s", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.limiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer serves pprof on localhost in development
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
