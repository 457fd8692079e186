// Package slogger holds the process-wide logger used by the CLI commands and
// the application service. Adapters that take a logger explicitly get one
// from WithComponent.
package slogger

import (
	"context"
	"nextdynamic/internal/application/common/logging"
	"sync"
)

// Fields is an alias for logging.Fields for convenience.
type Fields = logging.Fields

var (
	mu      sync.RWMutex              //nolint:gochecknoglobals // process-wide logger
	current logging.ApplicationLogger //nolint:gochecknoglobals // process-wide logger
)

// Configure replaces the process logger with one built from config. The
// previous logger stays in place when config is invalid.
func Configure(config logging.Config) error {
	logger, err := logging.NewApplicationLogger(config)
	if err != nil {
		return err
	}
	Use(logger)
	return nil
}

// Use installs logger and returns a function restoring the previous one.
func Use(logger logging.ApplicationLogger) (restore func()) {
	mu.Lock()
	defer mu.Unlock()

	previous := current
	current = logger
	return func() {
		mu.Lock()
		defer mu.Unlock()
		current = previous
	}
}

// get returns the process logger, falling back to logging.DefaultConfig
// until Configure runs.
func get() logging.ApplicationLogger {
	mu.RLock()
	logger := current
	mu.RUnlock()
	if logger != nil {
		return logger
	}

	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		fallback, err := logging.NewApplicationLogger(logging.DefaultConfig())
		if err != nil {
			panic("slogger: default logging config rejected: " + err.Error())
		}
		current = fallback
	}
	return current
}

// Debug logs a debug message with context.
func Debug(ctx context.Context, msg string, fields Fields) {
	get().Debug(ctx, msg, fields)
}

// Info logs an info message with context.
func Info(ctx context.Context, msg string, fields Fields) {
	get().Info(ctx, msg, fields)
}

// Warn logs a warning message with context.
func Warn(ctx context.Context, msg string, fields Fields) {
	get().Warn(ctx, msg, fields)
}

// Error logs an error message with context.
func Error(ctx context.Context, msg string, fields Fields) {
	get().Error(ctx, msg, fields)
}

// ErrorWithError logs err along with msg.
func ErrorWithError(ctx context.Context, err error, msg string, fields Fields) {
	get().ErrorWithError(ctx, err, msg, fields)
}

// InfoNoCtx logs outside any request, e.g. during worker shutdown.
func InfoNoCtx(msg string, fields Fields) {
	get().Info(context.Background(), msg, fields)
}

// ErrorNoCtx is the error counterpart of InfoNoCtx.
func ErrorNoCtx(msg string, fields Fields) {
	get().Error(context.Background(), msg, fields)
}

// WithComponent returns the process logger tagged with component.
func WithComponent(component string) logging.ApplicationLogger {
	return get().WithComponent(component)
}
