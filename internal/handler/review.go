package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sports-marketplace/internal/service"
)

// ReviewHandler serves review creation, replies and moderation.
type ReviewHandler struct {
    Reviews Reviews
}

func NewReviewHandler(r Reviews) *ReviewHandler { return &ReviewHandler{Reviews: r} }

type reviewReq struct {
    Rating  int    `json:"rating"`
    Comment string `json:"comment"`
}

type replyReq struct {
    Reply string `json:"reply"`
}

// Create: POST /v1/reservations/:id/review
func (h *ReviewHandler) Create(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req reviewReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    rv, err := h.Reviews.Create(ctx, a, c.Param("id"), service.CreateReviewInput{Rating: req.Rating, Comment: req.Comment})
    if err != nil {
        return err
    }
    return c.JSON(http.StatusCreated, rv)
}

// Reply: POST /v1/provider/reviews/:id/reply
func (h *ReviewHandler) Reply(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    var req replyReq
    if err := bind(c, &req); err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    rv, err := h.Reviews.Reply(ctx, a, c.Param("id"), req.Reply)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, rv)
}

// Delete: DELETE /v1/reviews/:id
func (h *ReviewHandler) Delete(c echo.Context) error { return h.act(c, h.Reviews.Delete) }

// Report: POST /v1/reviews/:id/report
func (h *ReviewHandler) Report(c echo.Context) error { return h.act(c, h.Reviews.Report) }

// Restore: POST /v1/admin/reviews/:id/restore
func (h *ReviewHandler) Restore(c echo.Context) error { return h.act(c, h.Reviews.Restore) }

// Remove: POST /v1/admin/reviews/:id/remove
func (h *ReviewHandler) Remove(c echo.Context) error { return h.act(c, h.Reviews.Remove) }

func (h *ReviewHandler) act(c echo.Context, fn func(ctx context.Context, actor service.Actor, id string) error) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    if err := fn(ctx, a, c.Param("id")); err != nil {
        return err
    }
    return c.NoContent(http.StatusNoContent)
}

// Flagged: GET /v1/admin/reviews/flagged
func (h *ReviewHandler) Flagged(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return err
    }
    ctx, cancel := reqContext(c)
    defer cancel()
    page, err := h.Reviews.ListFlagged(ctx, a, pageRequest(c))
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, page)
}
