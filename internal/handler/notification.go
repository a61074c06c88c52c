package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
)

// NotificationHandler serves the caller's in-app inbox.
type NotificationHandler struct {
    Notifications Notifications
}

func NewNotificationHandler(n Notifications) *NotificationHandler {
    return &NotificationHandler{Notifications: n}
}

// List: GET /v1/notifications?unread=true
func (h *NotificationHandler) List(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    unread, _ := strconv.ParseBool(c.QueryParam("unread"))
    ctx, cancel := reqContext(c)
    defer cancel()
    page, err := h.Notifications.List(ctx, a, unread, pageRequest(c))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, page)
}

// MarkRead: POST /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    if err := h.Notifications.MarkRead(ctx, a, c.Param("id")); err != nil {
        return err
    }
    return c.NoContent(http.StatusNoContent)
}
