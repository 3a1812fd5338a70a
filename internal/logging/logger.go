// Package logging builds the zap logger used by the gateway.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LevelDebug logs everything including per-request details
	LevelDebug = "debug"

	// LevelInfo is the default level
	LevelInfo = "info"

	// LevelNone disables logging
	LevelNone = "none"
)

// New returns a zap logger with the specified level. Console output is
// human-readable; anything else produces JSON lines.
func New(level string, console bool) (*zap.Logger, error) {
	if level == LevelNone {
		return zap.NewNop(), nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if console {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	return cfg.Build()
}
