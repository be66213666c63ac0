// Package server exposes the safety pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/audit"
	"github.com/yamahealth/medguard/internal/cache"
	"github.com/yamahealth/medguard/internal/config"
	"github.com/yamahealth/medguard/internal/guard"
	"github.com/yamahealth/medguard/internal/logger"
	"github.com/yamahealth/medguard/internal/monitor"
	"github.com/yamahealth/medguard/internal/websocket"
)

// Processor runs one request through the safety pipeline. Satisfied by
// *guard.Pipeline; tests substitute stubs.
type Processor interface {
	Process(ctx context.Context, req guard.Request) (*guard.Result, error)
}

// Server is the main HTTP server for the translation gateway.
type Server struct {
	config    *config.Config
	logger    *logger.Logger
	processor Processor
	cache     *cache.ResultCache
	audit     *audit.Store
	metrics   *monitor.Collector
	wsHub     *websocket.Hub
	router    *mux.Router
	server    *http.Server
	limiter   *ipLimiter
}

// Options carries the optional collaborators. Nil fields disable the
// corresponding feature; the pipeline itself is always required.
type Options struct {
	Cache   *cache.ResultCache
	Audit   *audit.Store
	Metrics *monitor.Collector
	WSHub   *websocket.Hub
}

// New creates the gateway server around an assembled pipeline.
func New(cfg *config.Config, processor Processor, opts Options, log *logger.Logger) *Server {
	s := &Server{
		config:    cfg,
		logger:    log.WithComponent("server"),
		processor: processor,
		cache:     opts.Cache,
		audit:     opts.Audit,
		metrics:   opts.Metrics,
		wsHub:     opts.WSHub,
		router:    mux.NewRouter(),
	}

	if cfg.Server.RateLimit.Enabled {
		s.limiter = newIPLimiter(cfg.Server.RateLimit.RequestsPerMin, cfg.Server.RateLimit.Burst)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/statistics", s.handleStatistics).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	if s.wsHub != nil && s.config.WebSocket.Enabled {
		s.router.HandleFunc("/ws", s.wsHub.HandleWebSocket).Methods("GET")
	}

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.requestIDMiddleware)
	api.Use(s.loggingMiddleware)
	if s.limiter != nil {
		api.Use(s.rateLimitMiddleware)
	}
	api.HandleFunc("/translate", s.handleTranslate).Methods("POST")
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and the dashboard hub.
func (s *Server) Start() error {
	s.logger.Info("Starting medguard gateway",
		zap.Int("port", s.config.Server.Port),
		zap.String("translator_url", s.config.Translator.URL),
		zap.Bool("cache_enabled", s.cache != nil),
		zap.Bool("audit_enabled", s.audit != nil),
	)

	if s.wsHub != nil && s.config.WebSocket.Enabled {
		go s.wsHub.Run()
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping medguard gateway")
	return s.server.Shutdown(ctx)
}
