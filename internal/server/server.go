// Package server is the composition root: it wires the resolver chain,
// cache, HTTP client, metrics and API controller together and runs the
// service lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scoutdesk/scoutcrm/internal/api"
	"github.com/scoutdesk/scoutcrm/internal/conf"
	"github.com/scoutdesk/scoutcrm/internal/errors"
	"github.com/scoutdesk/scoutcrm/internal/httpclient"
	"github.com/scoutdesk/scoutcrm/internal/logging"
	"github.com/scoutdesk/scoutcrm/internal/logoresolver"
	"github.com/scoutdesk/scoutcrm/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Run starts the logo resolution service and blocks until it is stopped
// by a signal or a fatal server error.
func Run(settings *conf.Settings) error {
	logging.Init(logging.LevelFromName(settings.Main.LogLevel))

	registry := prometheus.NewRegistry()
	metrics, err := observability.NewLogoResolverMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to set up metrics: %w", err)
	}

	client := httpclient.New(nil)
	defer client.Close()
	if settings.Resolver.Debug {
		client.SetAfterResponseHook(func(req *http.Request, resp *http.Response, err error) {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			logging.Debug("Outbound request completed",
				"method", req.Method,
				"url", req.URL.String(),
				"status", status,
				"error", err)
		})
	}

	// The proxy fallback probes the service's own proxy endpoint, so the
	// candidate URL must be absolute and point back at this instance.
	proxyBase := fmt.Sprintf("http://127.0.0.1:%s/api/v1/media/proxy", settings.WebServer.Port)

	prober := logoresolver.NewHTTPProber(client, settings.Resolver, metrics, nil)
	chain := logoresolver.NewChain(prober, settings.Resolver, proxyBase, nil)
	resolver := logoresolver.New(chain, settings.Resolver.CacheTTL,
		logoresolver.WithMetrics(metrics),
		logoresolver.WithPlaceholderEndpoint(logoresolver.DefaultPlaceholderPath, settings.Media.PlaceholderSize),
	)

	e := echo.New()
	e.HideBanner = true

	ctrl := api.New(e, settings, resolver, client, registry)
	defer func() { _ = ctrl.Close() }()
	defer func() { _ = logoresolver.Close() }()

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + settings.WebServer.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logging.Info("Logo resolution service started",
		"port", settings.WebServer.Port,
		"cache_ttl", settings.Resolver.CacheTTL.String())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logging.Error("Server error", "error", err)
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logging.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
