package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger creates a production or development logger at the given level
func InitLogger(level string, isDev bool) (*zap.Logger, error) {
	var config zap.Config

	if isDev {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	// Custom output paths
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}

// SugaredLogger wraps zap.Logger for libraries that want Printf-style logging
type SugaredLogger struct {
	*zap.SugaredLogger
}

// NewSugaredLogger creates a sugared logger from zap.Logger
func NewSugaredLogger(logger *zap.Logger) *SugaredLogger {
	return &SugaredLogger{logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// Warningf satisfies loggers (badger) that spell the warn level out.
func (l *SugaredLogger) Warningf(template string, args ...any) {
	l.Warnf(template, args...)
}
