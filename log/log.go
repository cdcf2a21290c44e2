// Package log provides structured logging for the auction engine. It wraps
// Go's log/slog with per-module child loggers and a helper that maps the
// engine's own error taxonomy onto a log level, so a rejected bid and a
// rejected chain registration land at the severity their kind deserves
// without every call site re-deriving it.
package log

import (
	"log/slog"
	"os"

	"github.com/radiusxyz/lightbulb/domain"
)

// Logger wraps slog.Logger with engine-specific context.
type Logger struct {
	inner *slog.Logger
}

var defaultLogger *Logger

func init() {
	defaultLogger = New(slog.LevelInfo)
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{inner: slog.New(h)}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler. Useful
// for tests that want to capture log output.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Module returns a child logger tagged with the given component name, e.g.
// "registry", "worker", "manager", "bidservice", "bus".
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With("module", name)}
}

// With returns a child logger with additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// levelForKind picks the severity a rejected operation's error kind
// deserves. Validation and state-mismatch rejections are routine and
// caller-facing (a buyer's bid missed the window, a seller's offer failed a
// check); registration conflicts are unexpected enough to warrant a
// warning; capacity/back-pressure conditions are the ones operators need
// paged on.
func levelForKind(kind domain.ErrorKind) slog.Level {
	switch kind {
	case domain.KindValidation, domain.KindStateMismatch:
		return slog.LevelDebug
	case domain.KindConflict:
		return slog.LevelWarn
	case domain.KindCapacity:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RejectedErr logs err at the severity its domain.ErrorKind warrants,
// tagging the line with "error_kind" so a log aggregator can separate
// routine validation noise from conflicts and capacity problems without the
// caller having to pick a level by hand.
func (l *Logger) RejectedErr(msg string, err error, args ...any) {
	kind := domain.Kind(err)
	l.inner.Log(nil, levelForKind(kind), msg, append(args, "error_kind", kind.String(), "err", err)...)
}

// ---------------------------------------------------------------------------
// Package-level convenience functions -- delegate to defaultLogger.
// ---------------------------------------------------------------------------

// Debug logs at LevelDebug using the default logger.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

// Info logs at LevelInfo using the default logger.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs at LevelWarn using the default logger.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs at LevelError using the default logger.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

// RejectedErr logs err via the default logger at the severity its
// domain.ErrorKind warrants; see (*Logger).RejectedErr.
func RejectedErr(msg string, err error, args ...any) { defaultLogger.RejectedErr(msg, err, args...) }
