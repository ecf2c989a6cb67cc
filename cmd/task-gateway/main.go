package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"golang.org/x/time/rate"

	"task-gateway-go/internal/client"
	"task-gateway-go/internal/config"
	"task-gateway-go/internal/handler"
	"task-gateway-go/internal/journal"
	"task-gateway-go/internal/metrics"
	"task-gateway-go/internal/middleware"
	"task-gateway-go/internal/route"
	"task-gateway-go/internal/service"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("task-gateway"),
		kong.Description("API gateway for the Task Manager microservices."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			config.Load,
			newLogger,
			newRouteTable,
			newMetrics,
			newJournal,
			newEcho,
			client.NewUpstreamClient,
			service.NewForwarder,
			service.NewHealthChecker,
			handler.NewProxyHandler,
			handler.NewHealthHandler,
		),
		fx.Invoke(handler.RegisterRoutes, warnConfigPermissions, startServer),
	).Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(h)
}

func newRouteTable(cfg *config.Config) *route.Table {
	routes := make([]route.Route, len(cfg.Routes))
	for i, r := range cfg.Routes {
		routes[i] = route.Route{
			Name:        r.Name,
			Prefix:      r.Prefix,
			Upstream:    r.URL,
			Description: r.Description,
		}
	}
	return route.NewTable(routes)
}

func newMetrics(cfg *config.Config) *metrics.Metrics {
	prefixes := make([]string, 0, len(cfg.Routes)+8)
	for _, r := range cfg.Routes {
		prefixes = append(prefixes, r.Prefix)
	}
	prefixes = append(prefixes, cfg.ReservedPaths()...)
	return metrics.New(prefixes)
}

func newJournal() *journal.Journal {
	return journal.New(journal.DefaultCapacity)
}

func newEcho(cfg *config.Config, logger *slog.Logger, j *journal.Journal, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(cfg.Gateway.Name, logger)

	// Inbound timeouts to mitigate slow-client attacks.
	e.Server.ReadTimeout = 30 * time.Second
	// WriteTimeout is disabled (0): the upstream per-attempt timeout,
	// ReadTimeout and IdleTimeout bound each request already.
	e.Server.WriteTimeout = 0
	e.Server.IdleTimeout = 120 * time.Second
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLifecycle(logger, j))
	e.Use(middleware.Metrics(m))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)))
	e.Use(echomw.GzipWithConfig(echomw.GzipConfig{MinLength: 1024}))
	e.Use(middleware.SecurityHeaders())

	if cfg.Server.RateLimit.Enabled {
		store := echomw.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit.RequestsPerSecond))
		e.Use(echomw.RateLimiter(store))
		logger.Info("rate limiter enabled", "rps", cfg.Server.RateLimit.RequestsPerSecond)
	}

	return e
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			addr := cfg.Server.Addr()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("bind %s: %w", addr, err)
			}
			logger.Info("starting gateway",
				"addr", addr,
				"version", cfg.Gateway.Version,
				"routes", len(cfg.Routes),
			)
			go func() {
				if err := e.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down gateway")
			return e.Shutdown(ctx)
		},
	})
}
