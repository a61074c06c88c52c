package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sports-marketplace/internal/model"
    "github.com/iliyamo/sports-marketplace/internal/service"
)

// ReservationHandler serves the booking lifecycle for clients and
// providers, together with the payment and refund steps that hang off a
// reservation.
type ReservationHandler struct {
    Bookings Bookings
    Payments Payments
    Refunds  Refunds
}

func NewReservationHandler(b Bookings, p Payments, r Refunds) *ReservationHandler {
    return &ReservationHandler{Bookings: b, Payments: p, Refunds: r}
}

type createReservationReq struct {
    ServiceID string  `json:"service_id"`
    Date      string  `json:"date"` // YYYY-MM-DD
    Time      string  `json:"time"` // HH:MM
    Notes     *string `json:"notes"`
}

type payReq struct {
    Method string `json:"method"`
    Token  string `json:"token"`
}

// statusFilter reads ?status= and rejects unknown values.
func statusFilter(c echo.Context) (model.ReservationStatus, error) {
    s := model.ReservationStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))))
    if s != "" && !s.Valid() {
        return "", badRequest("invalid status")
    }
    return s, nil
}

// Create: POST /v1/reservations
func (h *ReservationHandler) Create(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req createReservationReq
    if err := bind(c, &req); err != nil {
        return err
    }
    if strings.TrimSpace(req.ServiceID) == "" {
        return badRequest("service_id required")
    }
    date, err := model.ParseDate(req.Date)
    if err != nil {
        return badRequest(err.Error())
    }
    clock, err := model.ParseClock(req.Time)
    if err != nil {
        return badRequest(err.Error())
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    res, err := h.Bookings.Create(ctx, a, service.CreateReservationInput{
        ServiceID: req.ServiceID, Date: date, Time: clock, Notes: req.Notes,
    })
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, res)
}

// Get: GET /v1/reservations/:id
func (h *ReservationHandler) Get(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    res, err := h.Bookings.Get(ctx, a, c.Param("id"))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, res)
}

// Mine: GET /v1/my-reservations?status=
func (h *ReservationHandler) Mine(c echo.Context) error {
    return h.list(c, h.Bookings.ListMine)
}

// ProviderList: GET /v1/provider/reservations?status=
func (h *ReservationHandler) ProviderList(c echo.Context) error {
    return h.list(c, h.Bookings.ListForProvider)
}

type reservationLister func(ctx context.Context, actor service.Actor, status model.ReservationStatus, page model.PageRequest) (model.Page[model.Reservation], error)

func (h *ReservationHandler) list(c echo.Context, fn reservationLister) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    status, err := statusFilter(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    page, err := fn(ctx, a, status, pageRequest(c))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, page)
}

// Confirm: POST /v1/provider/reservations/:id/confirm
func (h *ReservationHandler) Confirm(c echo.Context) error {
    return h.transition(c, func(ctx context.Context, a service.Actor, id, _ string) (model.Reservation, error) {
        return h.Bookings.Confirm(ctx, a, id)
    })
}

// Finalize: POST /v1/provider/reservations/:id/finalize
func (h *ReservationHandler) Finalize(c echo.Context) error {
    return h.transition(c, func(ctx context.Context, a service.Actor, id, _ string) (model.Reservation, error) {
        return h.Bookings.Finalize(ctx, a, id)
    })
}

// Reject: POST /v1/provider/reservations/:id/reject {"reason": "..."}
func (h *ReservationHandler) Reject(c echo.Context) error {
    return h.transition(c, h.Bookings.Reject)
}

// Cancel: POST /v1/reservations/:id/cancel {"reason": "..."}
func (h *ReservationHandler) Cancel(c echo.Context) error {
    return h.transition(c, h.Bookings.Cancel)
}

type reservationChange func(ctx context.Context, actor service.Actor, id, reason string) (model.Reservation, error)

func (h *ReservationHandler) transition(c echo.Context, fn reservationChange) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req reasonReq
    if c.Request().ContentLength != 0 {
        if err := bind(c, &req); err != nil {
            return err
        }
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    res, err := fn(ctx, a, c.Param("id"), strings.TrimSpace(req.Reason))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, res)
}

// Pay: POST /v1/reservations/:id/payment.  A declined charge answers 402
// with the stored REJECTED payment so the client can retry.
func (h *ReservationHandler) Pay(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req payReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    p, err := h.Payments.Pay(ctx, a, c.Param("id"), service.PayInput{Method: req.Method, Token: req.Token})
    if service.IsPayment(err) {
        return c.JSON(http.StatusPaymentRequired, echo.Map{"error": err.Error(), "payment": p})
    }
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, p)
}

// Payment: GET /v1/reservations/:id/payment
func (h *ReservationHandler) Payment(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    p, err := h.Payments.Get(ctx, a, c.Param("id"))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, p)
}

// RefundQuote: GET /v1/reservations/:id/refund-quote
func (h *ReservationHandler) RefundQuote(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    q, err := h.Refunds.Quote(ctx, a, c.Param("id"))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, q)
}

// RequestRefund: POST /v1/reservations/:id/refund {"reason": "..."}
func (h *ReservationHandler) RequestRefund(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req reasonReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    rr, err := h.Refunds.Request(ctx, a, c.Param("id"), strings.TrimSpace(req.Reason))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, rr)
}

// MyRefunds: GET /v1/my-refunds?status=
func (h *ReservationHandler) MyRefunds(c echo.Context) error {
    return listRefunds(c, h.Refunds)
}

func listRefunds(c echo.Context, refunds Refunds) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    status := model.RefundStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))))
    switch status {
    case "", model.RefundRequested, model.RefundApproved, model.RefundRejected:
    default:
        return badRequest("invalid status")
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    page, err := refunds.List(ctx, a, status, pageRequest(c))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, page)
}
