package logging

import (
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/config"
)

var Logger *zap.Logger

// Init initializes the global logger
func Init(cfg *config.SentryConfig) error {
	var err error
	var zapConfig zap.Config

	// Use development config in dev/staging, production in prod
	environment := "production"
	if cfg != nil && cfg.Environment != "" {
		environment = cfg.Environment
	}

	if environment == "development" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	Logger, err = zapConfig.Build()
	if err != nil {
		return err
	}

	if cfg != nil && cfg.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.DSN,
			Environment: environment,
			Release:     cfg.Release,
		}); err != nil {
			// Sentry is best effort; the dashboard runs without it
			Logger.Warn("Failed to initialize Sentry", zap.Error(err))
		}
	}

	return nil
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// WithComponent creates a child logger with a component field
func WithComponent(component string) *zap.Logger {
	return Logger.With(zap.String("component", component))
}
