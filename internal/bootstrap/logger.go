package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"property-scraper/internal/config"
)

func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.AppConfig.Debug {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig.DisableStacktrace = true

	if cfg.AppConfig.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.AppConfig.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.AppConfig.LogLevel, err)
		}

		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapConfig.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// Sync fails on terminals; nothing useful to do about it.
			_ = logger.Sync()

			return nil
		},
	})

	return logger, nil
}
