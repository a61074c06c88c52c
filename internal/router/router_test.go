package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sports-marketplace/internal/handler"
	"github.com/iliyamo/sports-marketplace/internal/model"
	"github.com/iliyamo/sports-marketplace/internal/utils"
)

const secret = "router-secret"

func newServer() *echo.Echo {
	e := echo.New()
	Register(e, Handlers{
		Health:        handler.Health(map[string]handler.Check{"noop": func(context.Context) error { return nil }}),
		Metrics:       promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
		Auth:          &handler.AuthHandler{},
		Catalog:       &handler.CatalogHandler{},
		Reservations:  &handler.ReservationHandler{},
		Reviews:       &handler.ReviewHandler{},
		Notifications: &handler.NotificationHandler{},
		Admin:         &handler.AdminHandler{},
	}, secret)
	return e
}

func call(t *testing.T, e *echo.Echo, method, path string, role model.Role) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		tok, err := utils.NewAccessToken(secret, "u-1", role, 5)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /metrics",
		"GET /v1/services/:id/slots",
		"POST /v1/auth/refresh-access",
		"GET /v1/me",
		"POST /v1/reservations",
		"POST /v1/reservations/:id/refund",
		"GET /v1/reservations/:id/refund-quote",
		"POST /v1/provider/reservations/:id/finalize",
		"POST /v1/provider/services/:id/slots",
		"POST /v1/admin/refunds/:id/approve",
		"POST /v1/admin/reservations/expire",
		"GET /v1/admin/reports/latest",
	} {
		assert.True(t, have[want], want)
	}
}

func TestOperationalRoutes(t *testing.T) {
	e := newServer()
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/healthz", ""))
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/metrics", ""))
}

func TestRoleGuards(t *testing.T) {
	e := newServer()

	assert.Equal(t, http.StatusUnauthorized, call(t, e, http.MethodPost, "/v1/admin/reports", ""))
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/v1/admin/reports", model.RoleProvider))
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/v1/provider/reservations/r-1/confirm", model.RoleClient))
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodPost, "/v1/reservations", model.RoleProvider))
	assert.Equal(t, http.StatusUnauthorized, call(t, e, http.MethodGet, "/v1/notifications", ""))
}
