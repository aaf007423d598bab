package config

import (
	"os"

	"go.uber.org/zap"
)

// Log is the process-wide structured logger. Per-item submission
// issues (skipped answers, rejected conditional payloads) are logged
// here at Warn instead of failing the request.
var Log = newLogger()

func newLogger() *zap.SugaredLogger {
	var cfg zap.Config
	if os.Getenv("APP_ENV") == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
