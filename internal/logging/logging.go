// Package logging builds the process logger. Production gets JSON with
// ISO8601 timestamps; anything else gets the colored development console.
package logging

import (
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// New returns a logger for the given environment ("prod" or anything else).
func New(env string) (*zap.Logger, error) {
    var cfg zap.Config
    if strings.EqualFold(env, "prod") || strings.EqualFold(env, "production") {
        cfg = zap.NewProductionConfig()
        cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    } else {
        cfg = zap.NewDevelopmentConfig()
        cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }
    return cfg.Build()
}
