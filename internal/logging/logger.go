// Package logging builds the process-wide structured logger and the bounded
// error log that backs the /api/errors endpoint.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	Level       string // debug, info, warn, error
	Development bool
}

// NewLogger builds a structured logger. When errLog is non-nil every entry at
// error level or above is also recorded there.
func NewLogger(opts Options, errLog *ErrorLog) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.TimeKey = "timestamp"

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	var buildOpts []zap.Option
	if errLog != nil {
		buildOpts = append(buildOpts, zap.Hooks(errLog.Hook))
	}

	return cfg.Build(buildOpts...)
}

// WithComponent returns a named child logger for a pipeline component.
func WithComponent(logger *zap.Logger, component string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(component)
}
