// Package server exposes the workload dataset, its derivations and the
// recommendation scorer over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/dashboard"
	"github.com/spigell/workload-radar/internal/telemetry"
	"github.com/spigell/workload-radar/internal/workload"
)

const (
	service        = "workload-radar"
	requestTimeout = 60 * time.Second
)

// DatasetLoader serves the current dataset. On failure it returns an empty
// dataset together with the error.
type DatasetLoader interface {
	Get(ctx context.Context) (*workload.Dataset, error)
	Refresh(ctx context.Context) (*workload.Dataset, error)
}

type Config struct {
	Addr           string
	AllowedOrigins []string
	Loader         DatasetLoader
	Metrics        *telemetry.Manager
	Thresholds     dashboard.Thresholds
	DefaultTopK    int
	Version        string
	Logger         *zap.Logger
}

type Server struct {
	router     *chi.Mux
	server     *http.Server
	logger     *zap.Logger
	loader     DatasetLoader
	metrics    *telemetry.Manager
	thresholds dashboard.Thresholds
	topK       int
	version    string
	now        func() time.Time
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		router:     chi.NewRouter(),
		logger:     logger.Named("server"),
		loader:     cfg.Loader,
		metrics:    cfg.Metrics,
		thresholds: cfg.Thresholds.WithDefaults(),
		topK:       cfg.DefaultTopK,
		version:    cfg.Version,
		now:        time.Now,
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(middleware.Timeout(requestTimeout))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/people", s.handlePeople)
		r.Get("/items", s.handleItems)
		r.Get("/summary", s.handleSummary)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/skills", s.handleSkills)
		r.Get("/recommend", s.handleRecommend)
		r.Get("/export", s.handleExport)
		r.Post("/refresh", s.handleRefresh)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
