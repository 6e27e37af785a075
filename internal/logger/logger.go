package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/XavierBriggs/fortuna/services/betlog-dashboard/internal/config"
)

// New builds the service logger. Every entry carries the service and env fields.
func New(serviceName string, env string, cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if env == "local" || cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err == nil {
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if cfg.Encoding == "console" || cfg.Encoding == "json" {
		zc.Encoding = cfg.Encoding
	}

	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build(
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	)
}
