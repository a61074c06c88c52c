package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// RequestLogger writes one structured line per request.  5xx responses
// are logged at error level, 4xx at warn.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            req, res := c.Request(), c.Response()
            level := zapcore.InfoLevel
            switch {
            case res.Status >= 500:
                level = zapcore.ErrorLevel
            case res.Status >= 400:
                level = zapcore.WarnLevel
            }
            fields := []zap.Field{
                zap.String("method", req.Method),
                zap.String("route", c.Path()),
                zap.String("uri", req.RequestURI),
                zap.Int("status", res.Status),
                zap.Duration("latency", time.Since(start)),
                zap.String("ip", c.RealIP()),
                zap.String("user_id", userKey(c)),
                zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
            }
            if err != nil {
                fields = append(fields, zap.Error(err))
            }
            log.Check(level, "request").Write(fields...)
            return nil
        }
    }
}
