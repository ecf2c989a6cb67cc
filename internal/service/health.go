package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"task-gateway-go/internal/client"
	"task-gateway-go/internal/metrics"
	"task-gateway-go/internal/model"
	"task-gateway-go/internal/route"
)

// healthCheckTimeout bounds each upstream probe, independently of the
// forwarder's per-attempt timeout. Probes are never retried.
const healthCheckTimeout = 10 * time.Second

// HealthChecker probes every configured upstream's /health endpoint and
// composes the gateway health report. A failing upstream degrades its own
// entry only; CheckAll itself never fails.
type HealthChecker struct {
	table   *route.Table
	client  *client.UpstreamClient
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHealthChecker creates a HealthChecker. The metrics parameter is optional.
func NewHealthChecker(table *route.Table, c *client.UpstreamClient, logger *slog.Logger, m *metrics.Metrics) *HealthChecker {
	return &HealthChecker{
		table:   table,
		client:  c,
		logger:  logger.With("component", "health_checker"),
		metrics: m,
	}
}

// CheckAll probes all upstreams concurrently and returns one HealthRecord
// per route name.
func (h *HealthChecker) CheckAll(ctx context.Context) map[string]model.HealthRecord {
	routes := h.table.Routes()
	records := make([]model.HealthRecord, len(routes))

	g := new(errgroup.Group)
	for i, rt := range routes {
		g.Go(func() error {
			records[i] = h.check(ctx, rt)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]model.HealthRecord, len(routes))
	for i, rt := range routes {
		out[rt.Name] = records[i]
	}
	return out
}

// Overall derives the aggregate status: degraded if any entry is
// unhealthy, else healthy.
func Overall(records map[string]model.HealthRecord) string {
	for _, rec := range records {
		if rec.Status != model.StatusHealthy {
			return model.StatusDegraded
		}
	}
	return model.StatusHealthy
}

func (h *HealthChecker) check(ctx context.Context, rt route.Route) model.HealthRecord {
	url := strings.TrimRight(rt.Upstream, "/") + "/health"

	start := time.Now()
	resp, err := h.client.Get(ctx, rt.Name, url, healthCheckTimeout)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		h.logger.Warn("health probe failed", "service", rt.Name, "url", url, "err", err)
		h.recordGauge(rt.Name, false)
		return model.HealthRecord{
			URL:    rt.Upstream,
			Status: model.StatusUnhealthy,
			Error:  err.Error(),
		}
	}

	status := model.StatusUnhealthy
	if resp.StatusCode == 200 {
		status = model.StatusHealthy
	}
	h.recordGauge(rt.Name, status == model.StatusHealthy)

	return model.HealthRecord{
		URL:          rt.Upstream,
		Status:       status,
		StatusCode:   resp.StatusCode,
		ResponseTime: elapsed,
	}
}

func (h *HealthChecker) recordGauge(service string, healthy bool) {
	if h.metrics == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1.0
	}
	h.metrics.UpstreamHealthy.WithLabelValues(service).Set(v)
}
