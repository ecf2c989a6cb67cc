// Package middleware provides Echo middleware for logging, security and metrics.
package middleware

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"task-gateway-go/internal/journal"
	"task-gateway-go/internal/model"
)

// GatewayHeaderValue identifies the gateway in the X-Gateway response header.
const GatewayHeaderValue = "Task-Manager-Gateway"

// quietPaths are exempt from lifecycle logging to limit log volume.
var quietPaths = map[string]bool{
	"/health": true,
	"/ping":   true,
}

// RequestLifecycle returns an Echo middleware that logs one line at request
// entry and one at exit, stamps X-Process-Time and X-Gateway on every
// response, and appends a record to the journal. It never alters request or
// response content. The journal is optional; pass nil to disable it.
func RequestLifecycle(logger *slog.Logger, j *journal.Journal) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			quiet := quietPaths[req.URL.Path]

			if !quiet {
				logger.Info("request received",
					"method", req.Method,
					"path", req.URL.Path,
					"client", model.PeerAddr(req.RemoteAddr),
				)
			}

			c.Response().Before(func() {
				h := c.Response().Header()
				h.Set("X-Process-Time", strconv.FormatFloat(time.Since(start).Seconds(), 'f', -1, 64))
				h.Set("X-Gateway", GatewayHeaderValue)
			})

			err := next(c)

			elapsed := time.Since(start)
			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			if !quiet {
				logger.Info("request completed",
					"method", req.Method,
					"path", req.URL.Path,
					"status", status,
					"duration_s", elapsed.Seconds(),
					"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				)
			}

			if j != nil {
				j.Append(journal.Entry{
					Time:       start,
					Method:     req.Method,
					Path:       req.URL.Path,
					ClientAddr: model.PeerAddr(req.RemoteAddr),
					Status:     status,
					Duration:   elapsed,
				})
			}

			return err
		}
	}
}
