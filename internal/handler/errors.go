package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/service"
)

// statusFor maps an error returned by a handler to its HTTP status and the
// message shown to the client.  Unknown errors become a bare 500 so that
// internals never leak.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	case service.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case service.IsForbidden(err):
		return http.StatusForbidden, err.Error()
	case service.IsNotFound(err):
		return http.StatusNotFound, err.Error()
	case service.IsPayment(err):
		return http.StatusPaymentRequired, err.Error()
	case service.IsBusiness(err):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

// ErrorHandler renders every error as {"error": "..."}.  Server errors are
// logged with their cause.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := statusFor(err)
		if code >= http.StatusInternalServerError {
			log.Error("request failed", zap.String("route", c.Path()), zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, echo.Map{"error": msg})
	}
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
