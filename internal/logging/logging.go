// Package logging sets up and carries the process logger through
// context.Context.
package logging

import (
	"context"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

type contextKey string

const loggerKey = contextKey("logger")

var (
	defaultLogger     *zap.SugaredLogger
	defaultLoggerOnce sync.Once
)

// NewLogger creates a new production logger, or a development logger
// when debug is set.
func NewLogger(debug bool) *zap.SugaredLogger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	logger, err := config.Build()
	if err != nil {
		logger = zap.NewNop()
	}

	return logger.Sugar()
}

// NewLoggerFromEnv creates a logger configured from the FITMATCH_DEBUG
// environment variable.
func NewLoggerFromEnv() *zap.SugaredLogger {
	debug, _ := strconv.ParseBool(os.Getenv("FITMATCH_DEBUG"))
	return NewLogger(debug)
}

// DefaultLogger returns the process-wide default logger.
func DefaultLogger() *zap.SugaredLogger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = NewLoggerFromEnv()
	})
	return defaultLogger
}

// WithLogger attaches the logger to the context.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in the context, falling back to
// the default logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok {
		return logger
	}
	return DefaultLogger()
}
