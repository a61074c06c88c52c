package middleware

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sports-marketplace/internal/model"
    "github.com/iliyamo/sports-marketplace/internal/service"
)

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// CurrentActor returns the caller authenticated by JWTAuth.  ok is false
// on routes without authentication.
func CurrentActor(c echo.Context) (service.Actor, bool) {
    id, _ := c.Get(ctxUserID).(string)
    if id == "" {
        return service.Actor{}, false
    }
    role, _ := c.Get(ctxRole).(model.Role)
    return service.Actor{UserID: id, Role: role}, true
}

// userKey identifies the caller for rate limiting and logging: the user
// id when authenticated, "anon" otherwise.
func userKey(c echo.Context) string {
    if a, ok := CurrentActor(c); ok {
        return a.UserID
    }
    return "anon"
}
