// Package api implements the HTTP surface of the logo resolution
// service: the resolve endpoint, the image proxy, the placeholder
// renderer and operational endpoints.
package api

import (
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scoutdesk/scoutcrm/internal/conf"
	"github.com/scoutdesk/scoutcrm/internal/httpclient"
	"github.com/scoutdesk/scoutcrm/internal/logging"
	"github.com/scoutdesk/scoutcrm/internal/logoresolver"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	Resolver *logoresolver.Resolver
	HTTP     *httpclient.Client

	apiLogger      *slog.Logger
	apiLevelVar    *slog.LevelVar
	apiLoggerClose func() error
}

// ErrorResponse is the JSON body returned on handler errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// New creates the API controller and registers all routes on e under
// /api/v1. registry may be nil to skip the metrics endpoint.
func New(e *echo.Echo, settings *conf.Settings, resolver *logoresolver.Resolver, client *httpclient.Client, registry *prometheus.Registry) *Controller {
	c := &Controller{
		Echo:     e,
		Settings: settings,
		Resolver: resolver,
		HTTP:     client,
	}

	c.initLogger()

	e.Use(middleware.Recover())
	if settings.WebServer.Debug {
		e.Use(middleware.Logger())
	}

	c.Group = e.Group("/api/v1")
	c.initLogoRoutes()
	c.initMediaRoutes()
	c.Group.GET("/health", c.Health)

	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return c
}

// initLogger sets up the API-specific file logger.
func (c *Controller) initLogger() {
	c.apiLevelVar = new(slog.LevelVar)
	c.apiLevelVar.Set(slog.LevelInfo)
	if c.Settings.WebServer.Debug {
		c.apiLevelVar.Set(slog.LevelDebug)
	}

	logger, closeFn, err := logging.NewFileLogger(filepath.Join("logs", "api.log"), "api", c.apiLevelVar)
	if err != nil {
		log.Printf("Failed to initialize API file logger: %v. API logging disabled.", err)
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil)).With("service", "api")
		closeFn = func() error { return nil }
	}
	c.apiLogger = logger
	c.apiLoggerClose = closeFn
}

// HandleError logs an error and writes a JSON error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	c.apiLogger.Error(message,
		"error", err,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"code", code)
	return ctx.JSON(code, ErrorResponse{
		Error:   err.Error(),
		Message: message,
		Code:    code,
	})
}

// Health reports service liveness.
func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Close releases controller resources.
func (c *Controller) Close() error {
	if c.apiLoggerClose != nil {
		return c.apiLoggerClose()
	}
	return nil
}
