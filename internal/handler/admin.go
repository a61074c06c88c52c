package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sports-marketplace/internal/model"
    "github.com/iliyamo/sports-marketplace/internal/scheduler"
)

// AdminHandler serves refund resolution, manual job triggers and KPI
// reports.  Review moderation lives on ReviewHandler.  Manual triggers
// go through Jobs so they never overlap a scheduled run.
type AdminHandler struct {
    Refunds  Refunds
    Bookings Bookings
    Reports  Reports
    Jobs     Jobs
}

func NewAdminHandler(r Refunds, b Bookings, rep Reports, jobs Jobs) *AdminHandler {
    return &AdminHandler{Refunds: r, Bookings: b, Reports: rep, Jobs: jobs}
}

var errJobRunning = echo.NewHTTPError(http.StatusConflict, "job already running")

func (h *AdminHandler) runJob(ctx context.Context, name string, fn func(ctx context.Context) error) error {
    ran, err := h.Jobs.RunWith(ctx, name, fn)
    if err != nil {
        return err
    }
    if !ran {
        return errJobRunning
    }
    return nil
}

type resolveReq struct {
    Notes  string `json:"notes"`
    Reason string `json:"reason"`
}

// ListRefunds: GET /v1/admin/refunds?status=REQUESTED
func (h *AdminHandler) ListRefunds(c echo.Context) error {
    return listRefunds(c, h.Refunds)
}

// ApproveRefund: POST /v1/admin/refunds/:id/approve {"notes": "..."}
func (h *AdminHandler) ApproveRefund(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req resolveReq
    if c.Request().ContentLength != 0 {
        if err := bind(c, &req); err != nil {
            return err
        }
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    rr, err := h.Refunds.Approve(ctx, a, c.Param("id"), strings.TrimSpace(req.Notes))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, rr)
}

// RejectRefund: POST /v1/admin/refunds/:id/reject {"reason": "..."}
func (h *AdminHandler) RejectRefund(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req resolveReq
    if err := bind(c, &req); err != nil {
        return err
    }
    reason := strings.TrimSpace(req.Reason)
    if reason == "" {
        reason = strings.TrimSpace(req.Notes)
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    rr, err := h.Refunds.Reject(ctx, a, c.Param("id"), reason)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, rr)
}

// ExpirePending: POST /v1/admin/reservations/expire runs the stale
// reservation sweep immediately.
func (h *AdminHandler) ExpirePending(c echo.Context) error {
    ctx, cancel := reqContext(c)
    defer cancel()
    var n int
    err := h.runJob(ctx, scheduler.ExpirePendingJob, func(ctx context.Context) (err error) {
        n, err = h.Bookings.ExpireStale(ctx)
        return err
    })
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{"expired": n})
}

// GenerateReport: POST /v1/admin/reports
func (h *AdminHandler) GenerateReport(c echo.Context) error {
    ctx, cancel := reqContext(c)
    defer cancel()
    var rep model.KPIReport
    err := h.runJob(ctx, scheduler.KPIReportJob, func(ctx context.Context) (err error) {
        rep, err = h.Reports.Generate(ctx)
        return err
    })
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, rep)
}

// LatestReport: GET /v1/admin/reports/latest
func (h *AdminHandler) LatestReport(c echo.Context) error {
    ctx, cancel := reqContext(c)
    defer cancel()
    rep, err := h.Reports.Latest(ctx)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, rep)
}
