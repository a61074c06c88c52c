package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-marketplace/internal/handler"
	"github.com/iliyamo/sports-marketplace/internal/middleware"
)

// Handlers collects everything the API serves.
type Handlers struct {
	Health        echo.HandlerFunc
	Metrics       http.Handler
	Auth          *handler.AuthHandler
	Catalog       *handler.CatalogHandler
	Reservations  *handler.ReservationHandler
	Reviews       *handler.ReviewHandler
	Notifications *handler.NotificationHandler
	Admin         *handler.AdminHandler
}

// Register mounts every route group on e.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	RegisterRoutes(e, h.Health, h.Metrics)
	RegisterAuth(e, h.Auth, jwtSecret)
	RegisterPublic(e, h.Catalog)
	RegisterClient(e, h, jwtSecret)
	RegisterProvider(e, h, jwtSecret)
	RegisterAdmin(e, h, jwtSecret)
}

// RegisterRoutes registers the operational endpoints used by load
// balancers and Prometheus.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, metrics http.Handler) {
	e.GET("/healthz", health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// caller's profile at /v1/me.  Logout accepts either a refresh token or
// a bearer token, so it is not behind JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers the unauthenticated catalog endpoints.
func RegisterPublic(e *echo.Echo, c *handler.CatalogHandler) {
	e.GET("/v1/services", c.Browse)
	e.GET("/v1/services/:id", c.Show)
	e.GET("/v1/services/:id/slots", c.Slots)
	e.GET("/v1/services/:id/reviews", c.ServiceReviews)
}
