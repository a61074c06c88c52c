package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-marketplace/internal/middleware"
	"github.com/iliyamo/sports-marketplace/internal/model"
)

// RegisterClient registers the booking endpoints under /v1.  Every route
// needs a valid JWT; the ones that act as the booking client also need the
// CLIENT role.  Routes shared by clients, providers and admins (reading a
// reservation or its payment, the notification inbox, reporting a review)
// leave the ownership checks to the services.
func RegisterClient(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	clientOnly := middleware.RequireRole(model.RoleClient)
	r := h.Reservations

	g.POST("/reservations", r.Create, clientOnly)
	g.GET("/my-reservations", r.Mine, clientOnly)
	g.POST("/reservations/:id/cancel", r.Cancel, clientOnly)
	g.POST("/reservations/:id/payment", r.Pay, clientOnly)
	g.GET("/reservations/:id/refund-quote", r.RefundQuote, clientOnly)
	g.POST("/reservations/:id/refund", r.RequestRefund, clientOnly)
	g.GET("/my-refunds", r.MyRefunds, clientOnly)
	g.POST("/reservations/:id/review", h.Reviews.Create, clientOnly)
	g.DELETE("/reviews/:id", h.Reviews.Delete, clientOnly)

	// shared
	g.GET("/reservations/:id", r.Get)
	g.GET("/reservations/:id/payment", r.Payment)
	g.POST("/reviews/:id/report", h.Reviews.Report)
	g.GET("/notifications", h.Notifications.List)
	g.POST("/notifications/:id/read", h.Notifications.MarkRead)
}
