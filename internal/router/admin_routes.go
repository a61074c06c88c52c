package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-marketplace/internal/middleware"
	"github.com/iliyamo/sports-marketplace/internal/model"
)

// RegisterAdmin registers ADMIN-only endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	a := h.Admin
	g.GET("/refunds", a.ListRefunds)
	g.POST("/refunds/:id/approve", a.ApproveRefund)
	g.POST("/refunds/:id/reject", a.RejectRefund)
	g.POST("/reservations/expire", a.ExpirePending)
	g.POST("/reports", a.GenerateReport)
	g.GET("/reports/latest", a.LatestReport)

	g.GET("/reviews/flagged", h.Reviews.Flagged)
	g.POST("/reviews/:id/restore", h.Reviews.Restore)
	g.POST("/reviews/:id/remove", h.Reviews.Remove)
}
