package config

import (
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger: JSON at info level in
// production, colored console output at debug level elsewhere.
func NewLogger(env string) (*zap.Logger, error) {
    var cfg zap.Config
    if env == "prod" || env == "production" {
        cfg = zap.NewProductionConfig()
        cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
    } else {
        cfg = zap.NewDevelopmentConfig()
        cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
        cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }
    cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    return cfg.Build()
}
