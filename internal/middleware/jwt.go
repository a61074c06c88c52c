package middleware // package middleware contains the reusable HTTP middleware of the API

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sports-marketplace/internal/utils"
)

// JWTAuth validates a Bearer access token and stores its subject and role
// in the context under "user_id" (string) and "role" (model.Role).
// Handlers read them back through CurrentActor.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(ctxUserID, claims.Subject)
            c.Set(ctxRole, claims.Role)
            return next(c)
        }
    }
}
