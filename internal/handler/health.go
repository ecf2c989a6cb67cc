package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"task-gateway-go/internal/config"
	"task-gateway-go/internal/journal"
	"task-gateway-go/internal/model"
	"task-gateway-go/internal/route"
	"task-gateway-go/internal/service"
)

// HealthHandler serves the gateway's local endpoints: root info, health
// aggregation, ping and route listing.
type HealthHandler struct {
	cfg     *config.Config
	table   *route.Table
	checker *service.HealthChecker
	journal *journal.Journal
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, table *route.Table, checker *service.HealthChecker, j *journal.Journal) *HealthHandler {
	return &HealthHandler{cfg: cfg, table: table, checker: checker, journal: j}
}

// Root returns gateway identity and the configured service names.
func (h *HealthHandler) Root(c echo.Context) error {
	services := make([]string, 0, len(h.table.Routes()))
	for _, rt := range h.table.Routes() {
		services = append(services, rt.Name)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"service":       "API Gateway",
		"version":       h.cfg.Gateway.Version,
		"status":        "running",
		"message":       "Task Manager API Gateway is operational",
		"services":      services,
		"requests_seen": h.journal.Total(),
		"timestamp":     unixSeconds(),
	})
}

// Health aggregates the gateway's own liveness with a probe of every
// downstream service. A degraded fleet still answers 200: the gateway
// itself is operational.
func (h *HealthHandler) Health(c echo.Context) error {
	start := time.Now()

	records := h.checker.CheckAll(c.Request().Context())

	return c.JSON(http.StatusOK, map[string]any{
		"gateway": map[string]any{
			"service":   h.cfg.Gateway.Name,
			"version":   h.cfg.Gateway.Version,
			"status":    model.StatusHealthy,
			"timestamp": unixSeconds(),
		},
		"downstream_services": records,
		"overall_status":      service.Overall(records),
		"response_time":       time.Since(start).Seconds(),
	})
}

// Ping is a connectivity check.
func (h *HealthHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": unixSeconds(),
	})
}

// Routes enumerates the configured routes with usage examples.
func (h *HealthHandler) Routes(c echo.Context) error {
	available := make(map[string]any)
	rules := make(map[string]string)
	for _, rt := range h.table.Routes() {
		available[rt.Name] = map[string]string{
			"url":         rt.Upstream,
			"prefix":      rt.Prefix,
			"description": rt.Description,
		}
		rules[rt.Name] = fmt.Sprintf("Requests starting with %s/* are routed to %s", rt.Prefix, rt.Upstream)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"gateway_version":    h.cfg.Gateway.Version,
		"available_services": available,
		"routing_rules":      rules,
		"matching_policy":    "first matching prefix in declaration order",
		"examples": map[string]string{
			"register":    "POST /auth/register",
			"login":       "POST /auth/login",
			"create_task": "POST /api/v1/tasks/",
			"get_tasks":   "GET /api/v1/tasks/",
		},
	})
}
