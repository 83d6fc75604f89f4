package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskmaster/tracker/docs"
	httpHandlers "github.com/taskmaster/tracker/internal/adapters/http"
	"github.com/taskmaster/tracker/internal/application/services"
	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	taskRepo ports.TaskRepository
}

// New creates a new server instance serving the tasks held by taskRepo
func New(cfg *config.Config, taskRepo ports.TaskRepository, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.App.Debug

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	taskService := services.NewTaskService(taskRepo, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, appLogger)

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger,
		taskRepo: taskRepo,
	}

	if err := server.setupMiddleware(); err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	server.setupRoutes(taskHandler)

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() error {
	// "/api/tasks/t1/" is task t1
	s.echo.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/swagger/")
		},
	}))

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			s.logger.LogHTTPRequest(
				values.Method,
				values.URI,
				values.RequestID,
				values.RemoteIP,
				values.Status,
				float64(values.Latency.Nanoseconds())/1000000,
				values.Error,
			)
			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		// Plain OPTIONS requests go to the route's own handler
		Skipper: func(c echo.Context) bool {
			req := c.Request()
			return req.Method == http.MethodOptions && req.Header.Get(echo.HeaderOrigin) == ""
		},
		AllowOrigins: s.config.Security.AllowedOrigins(),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))

	if s.config.Security.RateLimitEnabled {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      perWindow(s.config.Security.RateLimitRequests, s.config.Security.RateLimitWindow),
					Burst:     s.config.Security.RateLimitRequests,
					ExpiresIn: 3 * s.config.Security.RateLimitWindow,
				},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return echo.NewHTTPError(http.StatusForbidden, "rate limit identifier unavailable")
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			},
		}))
	}

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	if s.config.Server.RequestTimeout > 0 {
		timeout, err := middleware.ContextTimeoutConfig{
			Timeout: s.config.Server.RequestTimeout,
		}.ToMiddleware()
		if err != nil {
			return fmt.Errorf("failed to configure request timeout: %w", err)
		}
		s.echo.Use(timeout)
	}

	if dir := s.config.Server.StaticDir; dir != "" {
		s.echo.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  dir,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				return isBackendPath(c.Request().URL.Path, s.config.Metrics.Path)
			},
		}))
	}

	return nil
}

// perWindow converts "n requests per window" to a token refill rate.
func perWindow(requests int, window time.Duration) rate.Limit {
	if window <= 0 {
		return rate.Limit(requests)
	}
	return rate.Limit(float64(requests) / window.Seconds())
}

func isBackendPath(path, metricsPath string) bool {
	for _, prefix := range []string{"/api/", "/swagger/", "/ready"} {
		if strings.HasPrefix(path, prefix) || path == strings.TrimSuffix(prefix, "/") {
			return true
		}
	}
	return metricsPath != "" && path == metricsPath
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(taskHandler *httpHandlers.TaskHandler) {
	s.echo.GET("/ready", s.readinessCheck)
	s.echo.RouteNotFound("/ready", notFound)

	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	api := s.echo.Group("/api")
	api.GET("/health", s.healthCheck)
	api.RouteNotFound("/health", notFound)
	taskHandler.Register(api)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	for _, status := range entities.TaskStatuses() {
		status := status
		registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        "tasks_stored",
				Help:        "Number of tasks currently held in the store",
				ConstLabels: prometheus.Labels{"status": string(status)},
			},
			func() float64 {
				n, err := s.taskRepo.Count(context.Background(), ports.TaskFilter{Status: &status})
				if err != nil {
					return 0
				}
				return float64(n)
			},
		))
	}

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Resolve the final status before recording it
				c.Error(err)
			}

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET(s.config.Metrics.Path, echo.WrapHandler(metricsHandler))
}

// notFound answers other methods on the health routes like an unknown path
// instead of the router's 405.
func notFound(c echo.Context) error {
	return echo.ErrNotFound
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, httpHandlers.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	if _, err := s.taskRepo.Count(c.Request().Context(), ports.TaskFilter{}); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "store_unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler turns handler errors into the JSON error bodies clients
// expect. Internal details are logged, never returned.
func customErrorHandler(appLogger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := errorResponse(err)

		if code >= http.StatusInternalServerError {
			appLogger.
				WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				WithError(err).
				Errorw("Internal server error", "path", c.Request().URL.Path)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			appLogger.Errorw("Error sending response", "error", err)
		}
	}
}

func errorResponse(err error) (int, interface{}) {
	var validationErr *entities.ValidationError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, httpHandlers.ValidationErrorResponse{Errors: validationErr.Problems}
	case errors.Is(err, entities.ErrMalformedBody):
		return http.StatusBadRequest, httpHandlers.ValidationErrorResponse{Errors: []string{entities.ErrMalformedBody.Error()}}
	case errors.Is(err, entities.ErrTaskNotFound):
		return http.StatusNotFound, httpHandlers.ErrorResponse{Error: "Task not found"}
	case errors.As(err, &httpErr):
		return httpErr.Code, httpHandlers.ErrorResponse{Error: httpErrorMessage(httpErr)}
	default:
		return http.StatusInternalServerError, httpHandlers.ErrorResponse{Error: "Internal server error"}
	}
}

func httpErrorMessage(he *echo.HTTPError) string {
	switch he.Code {
	case http.StatusNotFound:
		return "Not found"
	case http.StatusMethodNotAllowed:
		return "Method Not Allowed"
	case http.StatusInternalServerError:
		return "Internal server error"
	}
	if msg, ok := he.Message.(string); ok && msg != "" {
		return msg
	}
	return http.StatusText(he.Code)
}
