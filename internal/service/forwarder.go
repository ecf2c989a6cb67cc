// Package service implements the core forwarding and health-check logic.
package service

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"task-gateway-go/internal/client"
	"task-gateway-go/internal/config"
	"task-gateway-go/internal/metrics"
	"task-gateway-go/internal/model"
	"task-gateway-go/internal/route"
)

// Forwarder matches inbound requests against the route table and forwards
// them upstream with bounded retries. One Forwarder is shared by all
// requests; per-request state lives in the ProxyRequest/ProxyResponse pair.
type Forwarder struct {
	table   *route.Table
	client  *client.UpstreamClient
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewForwarder creates a Forwarder. The metrics parameter is optional.
func NewForwarder(table *route.Table, c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Forwarder {
	return &Forwarder{
		table:   table,
		client:  c,
		cfg:     cfg,
		logger:  logger.With("component", "forwarder"),
		metrics: m,
	}
}

// Forward resolves the request's route and forwards it upstream. The
// outbound call is attempted up to MaxRetries times in total, immediately
// and without backoff; only transport-level failures are retried. A
// response carrying any HTTP status code, including upstream 4xx/5xx, is a
// terminal success and is passed through verbatim. On failure the returned
// error is always a classified *Error.
func (f *Forwarder) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	start := time.Now()

	rt, downstream, ok := f.table.Resolve(pr.Path)
	if !ok {
		return nil, errRouteNotFound(pr.Path)
	}

	url := strings.TrimRight(rt.Upstream, "/") + downstream
	if pr.RawQuery != "" {
		url += "?" + pr.RawQuery
	}

	header := ToUpstream(pr.Header, pr.ClientAddr, f.cfg.Gateway.Version)

	f.logger.Info("proxying request",
		"method", pr.Method,
		"path", pr.Path,
		"upstream", url,
		"service", rt.Name,
	)

	attempts := f.cfg.Upstream.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr *Error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := f.client.Do(pr.Ctx, rt.Name, pr.Method, url, header, pr.Body)
		if err == nil {
			duration := time.Since(start)

			resp.Header = FromDownstream(resp.Header)
			resp.Header.Set("X-Gateway-Service", rt.Upstream)
			resp.Header.Set("X-Gateway-Duration", formatSeconds(duration))
			resp.Upstream = rt.Upstream
			resp.Duration = duration

			f.logger.Info("proxied response",
				"method", pr.Method,
				"path", pr.Path,
				"status", resp.StatusCode,
				"duration_s", duration.Seconds(),
			)
			return resp, nil
		}

		lastErr = classifyAttempt(err, rt.Upstream)
		f.logger.Warn("forward attempt failed",
			"method", pr.Method,
			"upstream", rt.Upstream,
			"attempt", attempt,
			"kind", string(lastErr.Kind),
			"err", err,
		)

		// The inbound client is gone; retrying cannot help anyone.
		if pr.Ctx.Err() != nil {
			return nil, lastErr
		}
		if attempt < attempts && f.metrics != nil {
			f.metrics.ForwardRetries.WithLabelValues(rt.Name).Inc()
		}
	}

	return nil, lastErr
}

// formatSeconds renders a duration as a plain decimal seconds string, the
// shape of the X-Gateway-Duration and X-Process-Time headers.
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
