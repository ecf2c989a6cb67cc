package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"task-gateway-go/internal/config"
	"task-gateway-go/internal/model"
	"task-gateway-go/internal/service"
)

// ProxyHandler forwards all non-reserved requests to the matching upstream.
type ProxyHandler struct {
	forwarder *service.Forwarder
	gateway   string
	reserved  map[string]bool
	logger    *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(fw *service.Forwarder, cfg *config.Config, logger *slog.Logger) *ProxyHandler {
	reserved := make(map[string]bool)
	for _, p := range cfg.ReservedPaths() {
		reserved[p] = true
	}
	return &ProxyHandler{
		forwarder: fw,
		gateway:   cfg.Gateway.Name,
		reserved:  reserved,
		logger:    logger.With("component", "proxy_handler"),
	}
}

// Handle is the catch-all route. Reserved gateway paths reached here (wrong
// method or shape) short-circuit to 404 and are never forwarded.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()
	path := req.URL.Path

	if h.reserved[path] {
		return writeGatewayError(c, h.gateway, &service.Error{
			Kind:    service.KindRouteNotFound,
			Status:  http.StatusNotFound,
			Message: "Endpoint not found",
		})
	}

	// A body read failure degrades to an empty body instead of aborting
	// the proxy.
	body, err := io.ReadAll(req.Body)
	if err != nil {
		h.logger.Error("reading request body", "err", err, "path", path)
		body = nil
	}

	pr := &model.ProxyRequest{
		Ctx:        req.Context(),
		Method:     req.Method,
		Path:       path,
		RawQuery:   req.URL.RawQuery,
		Header:     req.Header,
		Body:       body,
		ClientAddr: model.PeerAddr(req.RemoteAddr),
	}

	resp, err := h.forwarder.Forward(pr)
	if err != nil {
		return h.mapError(c, err)
	}

	dst := c.Response().Header()
	for key, vals := range resp.Header {
		for _, v := range vals {
			dst.Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)
	if _, err := c.Response().Write(resp.Body); err != nil {
		h.logger.Error("writing response body", "err", err, "path", path)
	}
	return nil
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	var gerr *service.Error
	if !errors.As(err, &gerr) {
		gerr = service.InternalError(err)
	}

	h.logger.Error("proxy error",
		"kind", string(gerr.Kind),
		"status", gerr.Status,
		"err", err,
		"path", c.Request().URL.Path,
	)

	return writeGatewayError(c, h.gateway, gerr)
}
