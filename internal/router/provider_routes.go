package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-marketplace/internal/middleware"
	"github.com/iliyamo/sports-marketplace/internal/model"
)

// RegisterProvider registers PROVIDER-scoped endpoints under /v1/provider.
// Admins may act on reservations too; the service decides which
// transitions they can drive.
func RegisterProvider(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1/provider",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleProvider, model.RoleAdmin),
	)

	// ---- Services ----
	c := h.Catalog
	g.GET("/services", c.Mine)
	g.POST("/services", c.Create)
	g.PUT("/services/:id", c.Update)
	g.POST("/services/:id/pause", c.Pause)
	g.POST("/services/:id/publish", c.Publish)
	g.DELETE("/services/:id", c.Delete)
	g.POST("/services/:id/slots", c.AddSlot)

	// ---- Reservations ----
	r := h.Reservations
	g.GET("/reservations", r.ProviderList)
	g.POST("/reservations/:id/confirm", r.Confirm)
	g.POST("/reservations/:id/reject", r.Reject)
	g.POST("/reservations/:id/finalize", r.Finalize)

	// ---- Reviews ----
	g.POST("/reviews/:id/reply", h.Reviews.Reply)
}
