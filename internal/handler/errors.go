package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"task-gateway-go/internal/service"
)

// errorBody is the structured JSON error envelope every gateway failure is
// reported with.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type       string  `json:"type"`
	StatusCode int     `json:"status_code"`
	Message    string  `json:"message"`
	Path       string  `json:"path"`
	Timestamp  float64 `json:"timestamp"`
	Gateway    string  `json:"gateway"`
}

func writeGatewayError(c echo.Context, gateway string, gerr *service.Error) error {
	return c.JSON(gerr.Status, errorBody{
		Error: errorDetail{
			Type:       gerr.ErrorType(),
			StatusCode: gerr.Status,
			Message:    gerr.Message,
			Path:       c.Request().URL.Path,
			Timestamp:  unixSeconds(),
			Gateway:    gateway,
		},
	})
}

func unixSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// ErrorHandler returns the central Echo error handler: any error that
// escapes the handlers (panics recovered by middleware, body-limit
// rejections, unclassified failures) surfaces as the structured JSON body
// instead of Echo's default shape.
func ErrorHandler(gateway string, logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var gerr *service.Error
		if !errors.As(err, &gerr) {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				gerr = &service.Error{
					Kind:    service.KindGateway,
					Status:  he.Code,
					Message: http.StatusText(he.Code),
				}
			} else {
				logger.Error("unhandled gateway error", "err", err, "path", c.Request().URL.Path)
				gerr = service.InternalError(err)
			}
		}

		if writeErr := writeGatewayError(c, gateway, gerr); writeErr != nil {
			logger.Error("writing error response", "err", writeErr)
		}
	}
}
