package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/familyhub/core/docs"
	httpHandlers "github.com/familyhub/core/internal/adapters/http"
	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/infrastructure/config"
	"github.com/familyhub/core/internal/infrastructure/database"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/infrastructure/metrics"
	"github.com/familyhub/core/internal/ports"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// Dependencies are the collaborators the HTTP server routes to
type Dependencies struct {
	Store    ports.Store
	DB       *database.DB
	Checks   map[string]HealthCheck
	Metrics  *metrics.Metrics
	Location *time.Location

	Members       *services.MemberService
	Tasks         *services.TaskService
	Events        *services.EventService
	Deadlines     *services.DeadlineService
	VoiceNotes    *services.VoiceNoteService
	Notifications *services.NotificationService
	Voice         *services.VoiceService
}

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	store   ports.Store
	db      *database.DB
	checks  map[string]HealthCheck
	metrics *metrics.Metrics
	started time.Time
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies, appLogger *logger.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server requires a store")
	}

	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	server := &Server{
		echo:    e,
		config:  cfg,
		logger:  appLogger.WithComponent("http"),
		store:   deps.Store,
		db:      deps.DB,
		checks:  deps.Checks,
		metrics: deps.Metrics,
		started: time.Now(),
	}

	server.setupMiddleware()

	if cfg.Metrics.Enabled && deps.Metrics != nil {
		server.setupMetrics()
	}

	server.setupRoutes(deps)

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	s.echo.Use(requestLogger(s.logger))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete},
	}))

	if s.config.Security.RateLimitRequests > 0 && s.config.Security.RateLimitWindow > 0 {
		perSecond := float64(s.config.Security.RateLimitRequests) / s.config.Security.RateLimitWindow.Seconds()
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(perSecond),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return c.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
			},
		}))
	}

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(deps Dependencies) {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	s.echo.GET("/docs/*", echoSwagger.WrapHandler)

	api := s.echo.Group("/api")

	members := httpHandlers.NewMemberHandler(deps.Members, s.logger)
	memberGroup := api.Group("/family-members")
	memberGroup.GET("", members.ListMembers)
	memberGroup.POST("", members.CreateMember)
	memberGroup.GET("/:id", members.GetMember)
	memberGroup.DELETE("/:id", members.DeleteMember)
	memberGroup.POST("/:id/verify-pin", members.VerifyPIN)

	tasks := httpHandlers.NewTaskHandler(deps.Tasks, s.logger)
	taskGroup := api.Group("/tasks")
	taskGroup.GET("", tasks.ListTasks)
	taskGroup.POST("", tasks.CreateTask)
	taskGroup.GET("/:id", tasks.GetTask)
	taskGroup.POST("/:id/complete", tasks.CompleteTask)

	events := httpHandlers.NewEventHandler(deps.Events, deps.Location, s.logger)
	eventGroup := api.Group("/events")
	eventGroup.GET("", events.ListEvents)
	eventGroup.POST("", events.CreateEvent)
	eventGroup.GET("/:id", events.GetEvent)
	eventGroup.PUT("/:id", events.UpdateEvent)
	eventGroup.DELETE("/:id", events.DeleteEvent)

	deadlines := httpHandlers.NewDeadlineHandler(deps.Deadlines, s.logger)
	deadlineGroup := api.Group("/deadlines")
	deadlineGroup.GET("", deadlines.ListDeadlines)
	deadlineGroup.POST("", deadlines.CreateDeadline)
	deadlineGroup.POST("/:id/complete", deadlines.CompleteDeadline)

	notes := httpHandlers.NewVoiceNoteHandler(deps.VoiceNotes, s.logger)
	noteGroup := api.Group("/voice-notes")
	noteGroup.GET("", notes.ListVoiceNotes)
	noteGroup.POST("", notes.CreateVoiceNote)

	notifications := httpHandlers.NewNotificationHandler(deps.Notifications, s.logger)
	notificationGroup := api.Group("/notifications")
	notificationGroup.GET("", notifications.ListNotifications)
	notificationGroup.POST("", notifications.CreateNotification)
	notificationGroup.POST("/:id/sent", notifications.MarkSent)

	ai := httpHandlers.NewAIHandler(deps.Voice, s.logger)
	aiGroup := api.Group("/ai")
	aiGroup.POST("/voice-command", ai.VoiceCommand)
	aiGroup.POST("/smart-task-creation", ai.SmartTaskCreation)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	s.echo.Use(metricsMiddleware(s.metrics))

	metricsHandler := promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := "ok"
	checks := make(map[string]interface{})

	storage := map[string]interface{}{"status": "ok", "driver": s.config.Storage.Driver}
	if err := s.store.Ping(ctx); err != nil {
		status = "error"
		storage["status"] = "error"
		storage["error"] = err.Error()
	} else if s.db != nil {
		storage["stats"] = s.db.GetConnectionInfo()
	}
	checks["storage"] = storage

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = "error"
			checks[name] = map[string]interface{}{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = map[string]interface{}{"status": "ok"}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"uptime": time.Since(s.started).Round(time.Second).String(),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  runtime.Version(),
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "storage_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = httpHandlers.ErrorResponse{Message: fmt.Sprint(he.Message)}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			msg = httpHandlers.ErrorResponse{Message: "validation failed", Details: ve.Error()}
		default:
			msg = httpHandlers.ErrorResponse{Message: http.StatusText(code)}
		}

		if code >= http.StatusInternalServerError {
			logger.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				WithError(err).
				Errorw("Internal server error", "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
