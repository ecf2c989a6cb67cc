package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"task-gateway-go/internal/metrics"
)

func TestMetrics_RecordsRequest(t *testing.T) {
	m := metrics.New([]string{"/auth", "/api/v1/tasks"})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/login", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Metrics(m)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "200", "/auth"))
	if got != 1 {
		t.Errorf("RequestsTotal{GET,200,/auth} = %v, want 1", got)
	}
}

func TestMetrics_HTTPErrorStatus(t *testing.T) {
	m := metrics.New([]string{"/auth"})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/nope", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Metrics(m)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})
	if err := handler(c); err == nil {
		t.Fatal("expected error to propagate")
	}

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "404", "other"))
	if got != 1 {
		t.Errorf("RequestsTotal{GET,404,other} = %v, want 1", got)
	}
}
