// Package handler exposes the marketplace services over HTTP.  Handlers
// only translate between JSON and service calls; failures are returned
// as errors and rendered by ErrorHandler.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sports-marketplace/internal/middleware"
	"github.com/iliyamo/sports-marketplace/internal/model"
	"github.com/iliyamo/sports-marketplace/internal/service"
)

// requestTimeout bounds the service work done for a single request.
const requestTimeout = 5 * time.Second

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actor returns the authenticated caller.  Routes using it are mounted
// behind JWTAuth, so a missing actor is a wiring mistake reported as 401.
func actor(c echo.Context) (service.Actor, error) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		return a, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return a, nil
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return badRequest("invalid body")
	}
	return nil
}

func pageRequest(c echo.Context) model.PageRequest {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	return model.PageRequest{Page: page, PageSize: size}.Normalize()
}

// optionalDate parses a "YYYY-MM-DD" query parameter; empty yields the zero time.
func optionalDate(c echo.Context, name string) (time.Time, error) {
	s := c.QueryParam(name)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, badRequest(err.Error())
	}
	return d, nil
}

type reasonReq struct {
	Reason string `json:"reason"`
}
