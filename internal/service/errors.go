package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// Kind classifies a gateway error. Every exit path of the forward loop
// maps to exactly one kind; none fall through unclassified.
type Kind string

// Gateway error kinds.
const (
	KindRouteNotFound       Kind = "route_not_found"
	KindGateway             Kind = "gateway"
	KindUpstreamTimeout     Kind = "upstream_timeout"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamError       Kind = "upstream_error"
	KindInternal            Kind = "internal"
)

// Error is a classified gateway failure carrying the client-facing HTTP
// status code.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorType returns the value of the "type" field in the structured JSON
// error body: classified proxy failures are "gateway_error", the catch-all
// is "internal_gateway_error".
func (e *Error) ErrorType() string {
	if e.Kind == KindInternal {
		return "internal_gateway_error"
	}
	return "gateway_error"
}

func errRouteNotFound(path string) *Error {
	return &Error{
		Kind:    KindRouteNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("No service found for path: %s", path),
	}
}

// InternalError wraps an unclassified failure during proxying.
func InternalError(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Status:  http.StatusInternalServerError,
		Message: "Gateway internal error",
		Err:     err,
	}
}

// classifyAttempt maps one failed transport attempt to a gateway error.
// Timeouts map to 504, unreachable upstreams to 503, everything else to 500.
func classifyAttempt(err error, upstream string) *Error {
	if isTimeout(err) {
		return &Error{
			Kind:    KindUpstreamTimeout,
			Status:  http.StatusGatewayTimeout,
			Message: fmt.Sprintf("Service timeout: %s", upstream),
			Err:     err,
		}
	}
	if isUnreachable(err) {
		return &Error{
			Kind:    KindUpstreamUnavailable,
			Status:  http.StatusServiceUnavailable,
			Message: fmt.Sprintf("Service unavailable: %s", upstream),
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindUpstreamError,
		Status:  http.StatusInternalServerError,
		Message: "Gateway error occurred",
		Err:     err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
