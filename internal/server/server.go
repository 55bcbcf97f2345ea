package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mrrelease/internal/release"
)

const (
	// HTTP server timeouts
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 90 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Request timeout for middleware; a folder with many releases takes several pages.
	RequestTimeout = 60 * time.Second

	ShutdownTimeout = 10 * time.Second

	// Rate limiting - requests per minute per client IP
	GlobalRateLimit = 30
)

// Resolver resolves the deployed releases for a query.
type Resolver interface {
	DeployedReleases(ctx context.Context, q release.Query) ([]release.Deployed, error)
}

// Server represents the HTTP server
type Server struct {
	Resolver Resolver
	Project  string // used when a request names no project
	Logger   *slog.Logger
	Metrics  *Metrics
	TestMode bool
}

// NewServer creates a new server instance
func NewServer(resolver Resolver, project string, logger *slog.Logger, metrics *Metrics, testMode bool) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		Resolver: resolver,
		Project:  project,
		Logger:   logger,
		Metrics:  metrics,
		TestMode: testMode,
	}
}

// Router creates and configures the HTTP router
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	// Logging and metrics middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := chi.RouteContext(r.Context()).RoutePattern()
				if route == "" {
					route = "unmatched"
				}
				s.Metrics.recordRequest(r.Method, route, status, time.Since(start))

				s.Logger.Info("http_request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"request_id", middleware.GetReqID(r.Context()),
					"duration_ms", time.Since(start).Milliseconds())
			}()

			next.ServeHTTP(ww, r)
		})
	})

	r.Get("/health", s.HandleHealth)
	r.Handle("/metrics", s.Metrics.Handler())

	// Only resolution hits the upstream API, so only it is rate limited.
	if !s.TestMode {
		r.With(NewRateLimitMiddleware(GlobalRateLimit, s.Logger, s.Metrics.rateLimitHits.Inc)).Get("/deployed", s.HandleDeployed)
	} else {
		r.Get("/deployed", s.HandleDeployed)
	}

	return r
}

// Start serves HTTP on host:port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.Logger.Info("Starting server", "addr", addr, "project", s.Project)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
