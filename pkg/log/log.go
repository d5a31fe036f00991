// Package log carries a *slog.Logger through contexts.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/levenlabs/go-llog"
)

var (
	defaultLogLevel slog.LevelVar
	defaultLogger   = newLogger(os.Stdout)
)

func init() {
	defaultLogLevel.Set(slog.LevelInfo)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     &defaultLogLevel,
	}))
}

type contextKey struct{}

var loggerKey = contextKey{}

// Ctx returns the logger from the context. If no logger is found, it returns the default logger.
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a new context with the given logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func SetDefaultLogLevel(level slog.Level) {
	defaultLogLevel.Set(level)
}

// SetOutput sends the default logger's output to w. It is not safe to call
// once other goroutines are logging.
func SetOutput(w io.Writer) {
	defaultLogger = newLogger(w)
	slog.SetDefault(defaultLogger)
}

// ConfigureFromFlags copies the level lflag set on llog (--log-level) to the
// default logger and makes it the slog default. It must be called after
// lflag.Configure.
func ConfigureFromFlags() error {
	var level slog.Level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level: %s", llog.GetLevel().String())
	}
	SetDefaultLogLevel(level)
	slog.SetDefault(defaultLogger)
	defaultLogger.Debug("logger configured", slog.String("level", level.String()))
	return nil
}
