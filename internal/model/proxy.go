// Package model defines shared types for the gateway.
package model

import (
	"context"
	"net"
	"net/http"
	"time"
)

// ProxyRequest represents a client request to be forwarded upstream.
// The body is fully buffered before forwarding so retried attempts can
// resend it.
type ProxyRequest struct {
	Ctx        context.Context
	Method     string
	Path       string
	RawQuery   string
	Header     http.Header
	Body       []byte
	ClientAddr string
}

// PeerAddr extracts the host part of a connection remote address. The peer
// address is the only trustworthy client identity: inbound X-Real-IP and
// X-Forwarded-For headers are client-controlled and must not feed it.
func PeerAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// ProxyResponse represents the upstream response returned to the client.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Upstream is the base URL of the service that produced the response.
	Upstream string
	// Duration is the wall-clock time spent in the forward, including retries.
	Duration time.Duration
}

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

// HealthRecord is the result of one upstream health probe. It is built
// fresh on every check and never cached.
type HealthRecord struct {
	URL          string  `json:"url"`
	Status       string  `json:"status"`
	StatusCode   int     `json:"status_code,omitempty"`
	ResponseTime float64 `json:"response_time,omitempty"`
	Error        string  `json:"error,omitempty"`
}
