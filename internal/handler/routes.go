package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"task-gateway-go/internal/config"
	"task-gateway-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. The
// reserved gateway endpoints come first; everything else falls through to
// the catch-all proxy route.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, health *HealthHandler, cfg *config.Config, m *metrics.Metrics) {
	e.GET("/", health.Root)
	e.GET("/health", health.Health)
	e.GET("/ping", health.Ping)
	e.GET("/routes", health.Routes)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}

	e.Any("/*", proxy.Handle)
}
