// Package http serves the JSON API.
//
// Routes mirror json-server so clients written against the mock backend
// keep working: collections at /items and /lists, json-server query
// parameters, X-Total-Count on paged responses, and {} from DELETE.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bryankimani/todo-list/internal/logging"
	"github.com/bryankimani/todo-list/internal/tasks"
)

// Server provides the HTTP API for todod.
type Server struct {
	echo     *echo.Echo
	tasks    tasks.Service
	logger   *zap.Logger
	config   *Config
	registry *prometheus.Registry
	limiter  *ipLimiter
}

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration

	// AllowOrigins enables CORS for the listed browser origins.
	AllowOrigins []string

	// RateLimit is applied per client IP. Zero RequestsPerSecond disables it.
	RateLimit RateLimitConfig

	// Location resolves plain dates in from/to query parameters.
	Location *time.Location
}

// RateLimitConfig is a token bucket refilled at RequestsPerSecond.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// NewServer creates a new HTTP server.
func NewServer(svc tasks.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("tasks service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:            "localhost",
			Port:            3001,
			ShutdownTimeout: 10 * time.Second,
		}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(e, logger)

	s := &Server{
		echo:     e,
		tasks:    svc,
		logger:   logger,
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	if len(cfg.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  cfg.AllowOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			ExposeHeaders: []string{headerTotalCount},
		}))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		s.limiter = newIPLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		e.Use(s.limiter.middleware(logger))
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newProgressCollector(svc, logger),
	)

	s.registerRoutes()
	return s, nil
}

// requestLogger logs each request with the request ID carried in context so
// downstream logging.Logger calls correlate.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(req.Context(), requestID)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				// Let the error handler write the status before logging it.
				c.Error(err)
			}

			// Handlers may have added fields to the request context.
			fields := append(logging.ContextFields(c.Request().Context()),
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			logger.Info("http request", fields...)
			return nil
		}
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	s.echo.GET("/items", s.handleListItems)
	s.echo.POST("/items", s.handleCreateItem)
	s.echo.GET("/items/:id", s.handleGetItem)
	s.echo.PUT("/items/:id", s.handleReplaceItem)
	s.echo.PATCH("/items/:id", s.handlePatchItem)
	s.echo.DELETE("/items/:id", s.handleDeleteItem)

	s.echo.GET("/lists", s.handleListLists)
	s.echo.POST("/lists", s.handleCreateList)
	s.echo.GET("/lists/:id", s.handleGetList)
	s.echo.PATCH("/lists/:id", s.handleRenameList)
	s.echo.PUT("/lists/:id", s.handleRenameList)
	s.echo.DELETE("/lists/:id", s.handleDeleteList)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/progress", s.handleProgress)
}

// Echo returns the underlying Echo instance for registering additional
// routes, such as the HTML pages.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start serves until ctx is cancelled, then shuts down within the
// configured timeout. It returns http.ErrServerClosed after a graceful
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
