// Package logger builds the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a sugared logger tuned to the environment: development
// gets console output with colored levels, everything else gets
// production JSON. It never fails; a broken config falls back to the
// no-op logger so logging can't take the server down.
func New(env string) *zap.SugaredLogger {
	var cfg zap.Config
	if env == "dev" || env == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	log, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return log.Sugar()
}
