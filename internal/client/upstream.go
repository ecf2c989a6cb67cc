// Package client provides the pooled HTTP client for upstream services.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"task-gateway-go/internal/config"
	"task-gateway-go/internal/metrics"
	"task-gateway-go/internal/model"
)

// UpstreamClient sends requests to upstream services over a shared,
// size-bounded keep-alive connection pool. Redirects are followed by the
// underlying transport. Pool exhaustion blocks until a connection frees.
type UpstreamClient struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstreamClient creates an UpstreamClient from config.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	pool := cfg.Upstream.PoolSize
	transport := &http.Transport{
		MaxIdleConns:        pool,
		MaxIdleConnsPerHost: pool,
		MaxConnsPerHost:     pool,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &UpstreamClient{
		httpClient: &http.Client{Transport: transport},
		timeout:    time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		logger:     logger.With("component", "upstream_client"),
		metrics:    m,
	}
}

// Timeout returns the per-attempt request timeout.
func (c *UpstreamClient) Timeout() time.Duration {
	return c.timeout
}

// Do executes one attempt against the upstream with the configured
// per-attempt timeout and returns the fully buffered response. ctx carries
// the inbound request lifetime: when the client disconnects, the upstream
// call is canceled too.
func (c *UpstreamClient) Do(ctx context.Context, service, method, url string, header http.Header, body []byte) (*model.ProxyResponse, error) {
	return c.do(ctx, service, method, url, header, body, c.timeout)
}

// Get executes a GET with an explicit timeout, bypassing the configured
// per-attempt timeout. Used by health probes.
func (c *UpstreamClient) Get(ctx context.Context, service, url string, timeout time.Duration) (*model.ProxyResponse, error) {
	return c.do(ctx, service, http.MethodGet, url, nil, nil, timeout)
}

func (c *UpstreamClient) do(ctx context.Context, service, method, url string, header http.Header, body []byte, timeout time.Duration) (*model.ProxyResponse, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	if header != nil {
		req.Header = header
	}

	c.logger.Debug("upstream request",
		"method", method,
		"url", url,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	normMethod := metrics.NormalizeMethod(method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.ForwardDuration.WithLabelValues(service, normMethod).Observe(duration)
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.ForwardDuration.WithLabelValues(service, normMethod).Observe(duration)
		c.metrics.ForwardResponses.WithLabelValues(service, normMethod, status).Inc()
	}

	return &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
